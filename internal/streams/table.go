// Package streams allocates RSocket stream identifiers and routes inbound
// frames to their registered handler.
package streams

import (
	"fmt"
	"sync"

	"github.com/ngrok/rsocket-go/internal/frame"
)

// Handler receives frames dispatched to a single stream id. Implementations
// live in internal/handlers; the table only needs enough of the interface
// to route.
type Handler interface {
	HandleFrame(f frame.Frame) error
}

// ErrorCode classifies table-level failures, distinct from wire ErrorCodes.
type ErrorCode uint32

const (
	_ ErrorCode = iota
	ErrorCodeStreamIdExhausted
	ErrorCodeStreamIdInUse
	ErrorCodeWrongParity
)

// Error is returned by Table operations that fail locally, never on the wire.
type Error struct {
	Code ErrorCode
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

func newError(code ErrorCode, msg string) *Error {
	return &Error{Code: code, Err: fmt.Errorf("streams: %s", msg)}
}

// Table owns stream id allocation and the registered-handler routing table
// for one connection. Every exported method takes the table's own lock, so
// handler goroutines may call Finish concurrently with the engine's pumps.
type Table struct {
	mu       sync.RWMutex
	handlers map[frame.StreamId]Handler

	// client is true when this side allocates odd stream ids (the
	// requester of a connection it dialed); false when it allocates even
	// ids (the acceptor of an inbound connection).
	client bool
	lastId uint32
}

// NewTable returns an empty stream table. isClient selects id parity: the
// side that issued Setup allocates odd ids, the side that received it
// allocates even ids.
func NewTable(isClient bool) *Table {
	return &Table{
		handlers: make(map[frame.StreamId]Handler),
		client:   isClient,
	}
}

// IsLocallyAllocated reports whether id has this side's parity.
func (t *Table) IsLocallyAllocated(id frame.StreamId) bool {
	odd := uint32(id)&1 == 1
	return odd == t.client
}

// Allocate returns the next available stream id of this side's parity,
// skipping over ids already registered, and registers handler under it.
func (t *Table) Allocate(handler Handler) (frame.StreamId, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for {
		var next uint32
		if t.lastId == 0 {
			// first allocation: start at 1 (client) or 2 (server).
			if t.client {
				next = 1
			} else {
				next = 2
			}
		} else {
			next = t.lastId + 2
		}
		if next&(1<<31) != 0 || next == 0 {
			return 0, newError(ErrorCodeStreamIdExhausted, "stream ids exhausted")
		}
		t.lastId = next

		id := frame.StreamId(next)
		if _, exists := t.handlers[id]; exists {
			continue
		}
		t.handlers[id] = handler
		return id, nil
	}
}

// AssertAvailable reports a protocol error if id is already registered; an
// initiate-request frame must always open a fresh id.
func (t *Table) AssertAvailable(id frame.StreamId) error {
	t.mu.RLock()
	_, exists := t.handlers[id]
	t.mu.RUnlock()
	if exists {
		return newError(ErrorCodeStreamIdInUse, fmt.Sprintf("stream id %d already in use", id))
	}
	return nil
}

// Register binds handler to id unconditionally. Used for inbound
// initiate-request frames, after AssertAvailable has already been checked.
func (t *Table) Register(id frame.StreamId, handler Handler) {
	t.mu.Lock()
	t.handlers[id] = handler
	t.mu.Unlock()
}

// Finish removes the handler registered for id. Safe to call for an id with
// no registered handler.
func (t *Table) Finish(id frame.StreamId) {
	t.mu.Lock()
	delete(t.handlers, id)
	t.mu.Unlock()
}

// Dispatch forwards f to the handler registered for its stream id. It
// reports false if no handler is registered, in which case the caller
// should drop the frame.
func (t *Table) Dispatch(f frame.Frame) (handled bool, err error) {
	t.mu.RLock()
	h, ok := t.handlers[f.StreamId()]
	t.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return true, h.HandleFrame(f)
}

// Each calls fn for every currently-registered stream id and handler. Used
// at shutdown to log every stream still live; the handlers themselves are
// not notified.
func (t *Table) Each(fn func(frame.StreamId, Handler)) {
	t.mu.RLock()
	snapshot := make(map[frame.StreamId]Handler, len(t.handlers))
	for id, h := range t.handlers {
		snapshot[id] = h
	}
	t.mu.RUnlock()

	for id, h := range snapshot {
		fn(id, h)
	}
}

// Len reports the number of currently-registered stream handlers.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.handlers)
}
