package rsocket

import (
	"fmt"
	"reflect"
)

// ErrContext is the payload of an Error: a small struct describing what
// went wrong, with a human-readable message() and whatever fields
// callers might want to inspect via errors.As.
type ErrContext interface {
	message() string
}

// Error wraps an underlying error (if any) with a typed context,
// following a generic Error[C] shape so each failure mode
// gets its own comparable type instead of a shared sentinel.
type Error[C ErrContext] struct {
	Inner   error
	Context C
}

func (e Error[C]) Unwrap() error {
	return e.Inner
}

func (e Error[C]) Error() string {
	msg := e.Context.message()
	if e.Inner != nil {
		return fmt.Sprintf("%s: %v", msg, e.Inner.Error())
	}
	return msg
}

func (e Error[C]) Is(other error) bool {
	return reflect.TypeOf(e) == reflect.TypeOf(other)
}

// ErrProtocol covers malformed headers, stream id collisions, fragment
// mismatches, and lease misuse detected while decoding or dispatching
// an inbound frame.
type ErrProtocol = Error[ProtocolContext]

type ProtocolContext struct {
	Reason string
}

func (c ProtocolContext) message() string {
	return fmt.Sprintf("protocol error: %s", c.Reason)
}

// ErrTransport covers failures reading from or writing to the
// underlying transport.Transport.
type ErrTransport = Error[TransportContext]

type TransportContext struct{}

func (c TransportContext) message() string {
	return "transport error"
}

// ErrApplication wraps an error surfaced by the application's
// RequestHandler implementation (a responder returning a non-nil error,
// or a connection-level Error frame from the peer).
type ErrApplication = Error[ApplicationContext]

type ApplicationContext struct {
	Remote bool
}

func (c ApplicationContext) message() string {
	if c.Remote {
		return "application error from peer"
	}
	return "application error"
}

// ErrQueueFull is returned when a request is admitted against a bounded
// lease queue that is already full.
type ErrQueueFull = Error[QueueFullContext]

type QueueFullContext struct{}

func (c QueueFullContext) message() string {
	return "pending request queue full"
}

// ErrStreamIdExhausted is returned when a connection has allocated every
// stream id available to its side of the parity space.
type ErrStreamIdExhausted = Error[StreamIdExhaustedContext]

type StreamIdExhaustedContext struct{}

func (c StreamIdExhaustedContext) message() string {
	return "stream ids exhausted"
}
