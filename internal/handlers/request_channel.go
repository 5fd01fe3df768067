package handlers

import (
	"context"
	"sync/atomic"

	"github.com/ngrok/rsocket-go/internal/frame"
	"github.com/ngrok/rsocket-go/internal/wire"
)

const (
	halfOpen     uint32 = 0
	halfTerminal uint32 = 1
)

// RequestChannel is shared by both the requester and responder side of a
// request/channel interaction: it is inherently bidirectional, composing
// an inbound half (remote's values delivered to a local Subscriber) and an
// outbound half (a local Publisher's values sent to the remote). The two
// halves terminate independently; the stream itself finishes only once
// both have.
type RequestChannel struct {
	conn     Conn
	streamId frame.StreamId

	inboundState  uint32
	outboundState uint32

	downstream   wire.Subscriber   // delivers remote values to the local caller
	subscription wire.Subscription // pulls values from the local outbound Publisher, if any

	hasPending bool
	pending    wire.Payload
}

// NewRequestChannelRequester allocates a stream id and sends the initial
// RequestChannel frame, which carries both initialRequestN (the local
// demand for the remote's inbound half) and, if outbound is non-nil, the
// outbound publisher's first value: the publisher is subscribed and
// pulled for one value before the frame is packed, so a value available
// synchronously rides the opening frame instead of requiring a separate
// Payload frame. Later values, and a first value the publisher only
// produces asynchronously, go out as ordinary Payload frames.
func NewRequestChannelRequester(conn Conn, initialRequestN uint32, outbound wire.Publisher, downstream wire.Subscriber) (*RequestChannel, error) {
	c := &RequestChannel{conn: conn, downstream: downstream}
	id, err := conn.AllocateStreamId(c)
	if err != nil {
		return nil, err
	}
	c.streamId = id

	downstream.OnSubscribe(c)

	var initial wire.Payload
	initialComplete := outbound == nil
	var frameSent uint32

	if outbound != nil {
		outbound.Subscribe(wire.SubscriberFunc{
			OnSubscribeFunc: func(s wire.Subscription) {
				c.subscription = s
				s.Request(1)
			},
			OnNextFunc: func(v interface{}) {
				if atomic.LoadUint32(&frameSent) == 0 {
					if p, ok := v.(wire.Payload); ok {
						initial = p
					}
					return
				}
				c.emitOutbound(v)
			},
			OnCompleteFunc: func() {
				if atomic.LoadUint32(&frameSent) == 0 {
					initialComplete = true
					atomic.StoreUint32(&c.outboundState, halfTerminal)
					return
				}
				c.completeOutbound()
			},
			OnErrorFunc: func(err error) { c.emitOutboundError(err) },
		})
	} else {
		atomic.StoreUint32(&c.outboundState, halfTerminal)
	}

	var f frame.RequestChannel
	if err := f.Pack(id, initialRequestN, initial.Metadata, initial.Data, false, initialComplete); err != nil {
		conn.Finish(id)
		return nil, err
	}
	atomic.StoreUint32(&frameSent, 1)
	if err := conn.SendInitiateRequest(&f); err != nil {
		conn.Finish(id)
		return nil, err
	}
	return c, nil
}

// NewRequestChannelResponder hands the initial payload and the inbound half
// to the handler's RequestChannel as arguments, then subscribes to the
// Publisher it returns (the local outbound half) with initialRequestN
// demand. The initial payload is not replayed through the inbound half.
// The caller registers the returned channel under id.
func NewRequestChannelResponder(conn Conn, id frame.StreamId, initial wire.Payload, initialRequestN uint32, initialComplete bool) *RequestChannel {
	c := &RequestChannel{conn: conn, streamId: id}

	inbound := &channelInboundPublisher{channel: c}
	outbound := conn.Handler().RequestChannel(context.Background(), initial, initialRequestN, inbound)

	if outbound != nil {
		c.subscribeOutbound(outbound, initialRequestN)
	} else {
		atomic.StoreUint32(&c.outboundState, halfTerminal)
	}
	if initialComplete {
		atomic.StoreUint32(&c.inboundState, halfTerminal)
	}
	return c
}

func (c *RequestChannel) subscribeOutbound(pub wire.Publisher, initialRequestN uint32) {
	pub.Subscribe(wire.SubscriberFunc{
		OnSubscribeFunc: func(s wire.Subscription) {
			c.subscription = s
			s.Request(initialRequestN)
		},
		OnNextFunc:     func(v interface{}) { c.emitOutbound(v) },
		OnCompleteFunc: func() { c.completeOutbound() },
		OnErrorFunc:    func(err error) { c.emitOutboundError(err) },
	})
}

// emitOutbound holds v back as the pending outbound value, first
// flushing whatever value was already pending as a non-terminal Payload
// frame. Holding the latest value back lets completeOutbound fold the
// Complete flag onto it instead of sending a separate empty completion
// frame.
func (c *RequestChannel) emitOutbound(v interface{}) {
	if atomic.LoadUint32(&c.outboundState) == halfTerminal {
		return
	}
	if c.hasPending {
		c.sendOutbound(c.pending, false)
	}
	c.pending, _ = v.(wire.Payload)
	c.hasPending = true
}

func (c *RequestChannel) completeOutbound() {
	if atomic.LoadUint32(&c.outboundState) == halfTerminal {
		return
	}
	if c.hasPending {
		c.sendOutbound(c.pending, true)
		c.hasPending = false
	} else {
		c.sendOutbound(wire.Payload{}, true)
	}
	c.terminateOutbound()
}

func (c *RequestChannel) sendOutbound(p wire.Payload, complete bool) {
	var f frame.Payload
	f.Pack(c.streamId, p.Metadata, p.Data, complete, !complete, false)
	c.conn.Send(&f)
}

func (c *RequestChannel) emitOutboundError(err error) {
	if !atomic.CompareAndSwapUint32(&c.outboundState, halfOpen, halfTerminal) {
		return
	}
	var ef frame.ErrorFrame
	ef.Pack(c.streamId, frame.ErrorCodeApplicationError, []byte(err.Error()))
	c.conn.Send(&ef)
	c.maybeFinish()
}

func (c *RequestChannel) terminateOutbound() {
	if atomic.CompareAndSwapUint32(&c.outboundState, halfOpen, halfTerminal) {
		c.maybeFinish()
	}
}

func (c *RequestChannel) terminateInbound() {
	if atomic.CompareAndSwapUint32(&c.inboundState, halfOpen, halfTerminal) {
		c.maybeFinish()
	}
}

func (c *RequestChannel) maybeFinish() {
	if atomic.LoadUint32(&c.inboundState) == halfTerminal && atomic.LoadUint32(&c.outboundState) == halfTerminal {
		c.conn.Finish(c.streamId)
	}
}

// Request forwards downstream's pull for more remote values as a RequestN
// frame. On the requester side downstream is the caller's Subscriber; on
// the responder side it is whatever Subscriber the handler attached to the
// inbound Publisher.
func (c *RequestChannel) Request(n uint32) {
	var f frame.RequestN
	f.Pack(c.streamId, n)
	c.conn.Send(&f)
}

// Cancel terminates both halves and notifies the remote.
func (c *RequestChannel) Cancel() {
	c.terminateInbound()
	c.terminateOutbound()
	var cf frame.Cancel
	cf.Pack(c.streamId)
	c.conn.Send(&cf)
}

func (c *RequestChannel) HandleFrame(f frame.Frame) error {
	switch v := f.(type) {
	case *frame.Payload:
		if atomic.LoadUint32(&c.inboundState) == halfTerminal {
			return nil
		}
		if v.Next() && c.downstream != nil {
			c.downstream.OnNext(payloadFromFrame(v))
		}
		if v.Complete() {
			if c.downstream != nil {
				c.downstream.OnComplete()
			}
			c.terminateInbound()
		}
	case *frame.RequestN:
		if c.subscription != nil {
			c.subscription.Request(v.N)
		}
	case *frame.ErrorFrame:
		if c.downstream != nil {
			c.downstream.OnError(applicationError(v))
		}
		c.terminateInbound()
		c.terminateOutbound()
	case *frame.Cancel:
		if c.subscription != nil {
			c.subscription.Cancel()
		}
		c.terminateOutbound()
	}
	return nil
}

// channelInboundPublisher adapts the requester-driven inbound half into a
// wire.Publisher so the responder's RequestChannel handler, which only
// knows Publisher/Subscriber, can consume it like any other stream.
type channelInboundPublisher struct {
	channel *RequestChannel
}

func (p *channelInboundPublisher) Subscribe(s wire.Subscriber) {
	p.channel.downstream = s
	s.OnSubscribe(p.channel)
}
