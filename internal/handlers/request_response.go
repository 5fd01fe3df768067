package handlers

import (
	"context"
	"sync/atomic"

	"github.com/ngrok/rsocket-go/internal/frame"
	"github.com/ngrok/rsocket-go/internal/wire"
)

const (
	stateInit int32 = iota
	stateAwaiting
	stateRunning
	stateTerminal
)

// RequestResponseRequester drives the requester half of a request/response
// interaction: send one RequestResponse frame, resolve exactly once from
// the first terminal inbound frame.
type RequestResponseRequester struct {
	conn     Conn
	streamId frame.StreamId
	state    int32
	done     chan struct{}
	result   wire.Payload
	err      error
}

// NewRequestResponseRequester allocates a stream id, sends the request, and
// returns a handler whose Wait blocks for the response.
func NewRequestResponseRequester(conn Conn, payload wire.Payload) (*RequestResponseRequester, error) {
	r := &RequestResponseRequester{conn: conn, done: make(chan struct{})}
	id, err := conn.AllocateStreamId(r)
	if err != nil {
		return nil, err
	}
	r.streamId = id
	r.state = stateAwaiting

	var f frame.RequestResponse
	if err := f.Pack(id, payload.Metadata, payload.Data, false); err != nil {
		conn.Finish(id)
		return nil, err
	}
	if err := conn.SendInitiateRequest(&f); err != nil {
		conn.Finish(id)
		return nil, err
	}
	return r, nil
}

// Wait blocks until the response arrives, the peer errors, ctx is
// cancelled, or Cancel is called.
func (r *RequestResponseRequester) Wait(ctx context.Context) (wire.Payload, error) {
	select {
	case <-r.done:
		return r.result, r.err
	case <-ctx.Done():
		r.Cancel()
		return wire.Payload{}, ctx.Err()
	}
}

// Cancel sends a Cancel frame and terminates the requester immediately.
func (r *RequestResponseRequester) Cancel() {
	if !atomic.CompareAndSwapInt32(&r.state, stateAwaiting, stateTerminal) {
		return
	}
	var c frame.Cancel
	c.Pack(r.streamId)
	r.conn.Send(&c)
	r.conn.Finish(r.streamId)
	close(r.done)
}

func (r *RequestResponseRequester) finish(result wire.Payload, err error) {
	if !atomic.CompareAndSwapInt32(&r.state, stateAwaiting, stateTerminal) {
		return
	}
	r.result, r.err = result, err
	r.conn.Finish(r.streamId)
	close(r.done)
}

func (r *RequestResponseRequester) HandleFrame(f frame.Frame) error {
	switch v := f.(type) {
	case *frame.Payload:
		if v.Next() {
			r.finish(payloadFromFrame(v), nil)
		} else if v.Complete() {
			r.finish(wire.Payload{}, nil)
		}
	case *frame.ErrorFrame:
		r.finish(wire.Payload{}, applicationError(v))
	}
	return nil
}

// RequestResponseResponder drives the responder half: invoke the
// application handler in its own goroutine (since Go handlers are
// ordinary blocking functions, not futures), then reply with the result
// or an Error frame.
type RequestResponseResponder struct {
	conn     Conn
	streamId frame.StreamId
	state    int32
	cancel   context.CancelFunc
}

// NewRequestResponseResponder invokes handler.RequestResponse
// asynchronously and arranges to reply on id when it completes. The caller
// registers the returned responder under id.
func NewRequestResponseResponder(conn Conn, id frame.StreamId, payload wire.Payload) *RequestResponseResponder {
	ctx, cancel := context.WithCancel(context.Background())
	resp := &RequestResponseResponder{conn: conn, streamId: id, state: stateRunning, cancel: cancel}

	go func() {
		result, err := conn.Handler().RequestResponse(ctx, payload)
		resp.complete(result, err)
	}()
	return resp
}

func (r *RequestResponseResponder) complete(result wire.Payload, err error) {
	if !atomic.CompareAndSwapInt32(&r.state, stateRunning, stateTerminal) {
		return
	}
	defer r.conn.Finish(r.streamId)

	if err != nil {
		var ef frame.ErrorFrame
		ef.Pack(r.streamId, frame.ErrorCodeApplicationError, []byte(err.Error()))
		r.conn.Send(&ef)
		return
	}
	var pf frame.Payload
	pf.Pack(r.streamId, result.Metadata, result.Data, true, true, false)
	r.conn.Send(&pf)
}

func (r *RequestResponseResponder) HandleFrame(f frame.Frame) error {
	if _, ok := f.(*frame.Cancel); ok {
		if atomic.CompareAndSwapInt32(&r.state, stateRunning, stateTerminal) {
			r.cancel()
			r.conn.Finish(r.streamId)
		}
	}
	return nil
}
