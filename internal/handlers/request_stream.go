package handlers

import (
	"context"
	"sync/atomic"

	"github.com/ngrok/rsocket-go/internal/frame"
	"github.com/ngrok/rsocket-go/internal/wire"
)

// RequestStreamRequester drives the requester half of request/stream: send
// one RequestStream frame carrying the initial credit, then forward every
// inbound Payload/Error to a downstream Subscriber until the stream
// completes, errors, or is cancelled.
type RequestStreamRequester struct {
	conn       Conn
	streamId   frame.StreamId
	state      int32
	subscriber wire.Subscriber
}

// NewRequestStreamRequester allocates a stream id and sends the initial
// request. subscriber receives OnSubscribe before the frame is sent, so it
// may call Request/Cancel synchronously.
func NewRequestStreamRequester(conn Conn, payload wire.Payload, initialRequestN uint32, subscriber wire.Subscriber) (*RequestStreamRequester, error) {
	r := &RequestStreamRequester{conn: conn, subscriber: subscriber}
	id, err := conn.AllocateStreamId(r)
	if err != nil {
		return nil, err
	}
	r.streamId = id
	r.state = stateAwaiting

	subscriber.OnSubscribe(r)

	var f frame.RequestStream
	if err := f.Pack(id, initialRequestN, payload.Metadata, payload.Data, false); err != nil {
		conn.Finish(id)
		return nil, err
	}
	if err := conn.SendInitiateRequest(&f); err != nil {
		conn.Finish(id)
		return nil, err
	}
	return r, nil
}

func (r *RequestStreamRequester) Request(n uint32) {
	if atomic.LoadInt32(&r.state) != stateAwaiting {
		return
	}
	var f frame.RequestN
	f.Pack(r.streamId, n)
	r.conn.Send(&f)
}

func (r *RequestStreamRequester) Cancel() {
	if !atomic.CompareAndSwapInt32(&r.state, stateAwaiting, stateTerminal) {
		return
	}
	var c frame.Cancel
	c.Pack(r.streamId)
	r.conn.Send(&c)
	r.conn.Finish(r.streamId)
}

func (r *RequestStreamRequester) terminate() {
	if atomic.CompareAndSwapInt32(&r.state, stateAwaiting, stateTerminal) {
		r.conn.Finish(r.streamId)
	}
}

func (r *RequestStreamRequester) HandleFrame(f frame.Frame) error {
	if atomic.LoadInt32(&r.state) == stateTerminal {
		return nil
	}
	switch v := f.(type) {
	case *frame.Payload:
		if v.Next() {
			r.subscriber.OnNext(payloadFromFrame(v))
		}
		if v.Complete() {
			r.subscriber.OnComplete()
			r.terminate()
		}
	case *frame.ErrorFrame:
		r.subscriber.OnError(applicationError(v))
		r.terminate()
	}
	return nil
}

// RequestStreamResponder drives the responder half: subscribe to the
// handler-supplied Publisher with the peer's initial credit, forwarding
// values/termination as Payload/Error frames, and forwarding inbound
// RequestN/Cancel as subscription calls.
type RequestStreamResponder struct {
	conn         Conn
	streamId     frame.StreamId
	state        int32
	subscription wire.Subscription

	hasPending bool
	pending    wire.Payload
}

// NewRequestStreamResponder subscribes to the handler's Publisher,
// requesting initialRequestN values up front. The caller registers the
// returned responder under id.
func NewRequestStreamResponder(conn Conn, id frame.StreamId, payload wire.Payload, initialRequestN uint32) *RequestStreamResponder {
	resp := &RequestStreamResponder{conn: conn, streamId: id, state: stateRunning}

	pub := conn.Handler().RequestStream(context.Background(), payload)
	pub.Subscribe(wire.SubscriberFunc{
		OnSubscribeFunc: func(s wire.Subscription) {
			resp.subscription = s
			s.Request(initialRequestN)
		},
		OnNextFunc: func(v interface{}) {
			resp.emit(v)
		},
		OnCompleteFunc: func() {
			resp.complete()
		},
		OnErrorFunc: func(err error) {
			resp.emitError(err)
		},
	})
	return resp
}

// emit holds v back as the pending value, first flushing whatever value
// was already pending as a non-terminal Payload frame. Holding the most
// recent value back lets complete fold the Complete flag onto it rather
// than sending a separate empty completion frame.
func (r *RequestStreamResponder) emit(v interface{}) {
	if atomic.LoadInt32(&r.state) != stateRunning {
		return
	}
	if r.hasPending {
		r.send(r.pending, false)
	}
	r.pending, _ = v.(wire.Payload)
	r.hasPending = true
}

func (r *RequestStreamResponder) complete() {
	if atomic.LoadInt32(&r.state) != stateRunning {
		return
	}
	if r.hasPending {
		r.send(r.pending, true)
		r.hasPending = false
	} else {
		r.send(wire.Payload{}, true)
	}
	r.terminate()
}

func (r *RequestStreamResponder) send(p wire.Payload, complete bool) {
	var f frame.Payload
	f.Pack(r.streamId, p.Metadata, p.Data, complete, !complete, false)
	r.conn.Send(&f)
}

func (r *RequestStreamResponder) emitError(err error) {
	if !atomic.CompareAndSwapInt32(&r.state, stateRunning, stateTerminal) {
		return
	}
	var ef frame.ErrorFrame
	ef.Pack(r.streamId, frame.ErrorCodeApplicationError, []byte(err.Error()))
	r.conn.Send(&ef)
	r.conn.Finish(r.streamId)
}

func (r *RequestStreamResponder) terminate() {
	if atomic.CompareAndSwapInt32(&r.state, stateRunning, stateTerminal) {
		r.conn.Finish(r.streamId)
	}
}

func (r *RequestStreamResponder) HandleFrame(f frame.Frame) error {
	if atomic.LoadInt32(&r.state) != stateRunning {
		return nil
	}
	switch v := f.(type) {
	case *frame.RequestN:
		if r.subscription != nil {
			r.subscription.Request(v.N)
		}
	case *frame.Cancel:
		if r.subscription != nil {
			r.subscription.Cancel()
		}
		r.terminate()
	}
	return nil
}
