package handlers

import (
	"context"
	"sync"

	"github.com/ngrok/rsocket-go/internal/frame"
	"github.com/ngrok/rsocket-go/internal/wire"
)

// fakeConn is a minimal in-memory Conn for exercising one handler without a
// real engine, transport, or stream table.
type fakeConn struct {
	mu       sync.Mutex
	nextId   frame.StreamId
	sent     []frame.Frame
	finished []frame.StreamId
	handler  RequestHandler
}

func newFakeConn(startId frame.StreamId, h RequestHandler) *fakeConn {
	return &fakeConn{nextId: startId, handler: h}
}

func (c *fakeConn) AllocateStreamId(Handler) (frame.StreamId, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextId
	c.nextId += 2
	return id, nil
}

func (c *fakeConn) Finish(id frame.StreamId) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finished = append(c.finished, id)
}

func (c *fakeConn) SendInitiateRequest(f frame.InitiateRequestFrame) error {
	c.Send(f.(frame.Frame))
	return nil
}

func (c *fakeConn) Send(f frame.Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, f)
}

func (c *fakeConn) Handler() RequestHandler { return c.handler }

func (c *fakeConn) Debugf(string, ...interface{}) {}

func (c *fakeConn) sentFrames() []frame.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]frame.Frame, len(c.sent))
	copy(out, c.sent)
	return out
}

// stubHandler implements RequestHandler with test-controllable behavior.
type stubHandler struct {
	requestResponseFunc func(context.Context, wire.Payload) (wire.Payload, error)
	requestStreamFunc   func(context.Context, wire.Payload) wire.Publisher
	requestChannelFunc  func(context.Context, wire.Payload, uint32, wire.Publisher) wire.Publisher
	fnfCh               chan wire.Payload
}

func (s *stubHandler) OnSetup(string, string, wire.Payload) error { return nil }
func (s *stubHandler) OnMetadataPush([]byte)                      {}
func (s *stubHandler) OnError(error)                              {}

func (s *stubHandler) RequestResponse(ctx context.Context, p wire.Payload) (wire.Payload, error) {
	return s.requestResponseFunc(ctx, p)
}

func (s *stubHandler) RequestFireAndForget(ctx context.Context, p wire.Payload) {
	if s.fnfCh != nil {
		s.fnfCh <- p
	}
}

func (s *stubHandler) RequestStream(ctx context.Context, p wire.Payload) wire.Publisher {
	return s.requestStreamFunc(ctx, p)
}

func (s *stubHandler) RequestChannel(ctx context.Context, p wire.Payload, n uint32, inbound wire.Publisher) wire.Publisher {
	return s.requestChannelFunc(ctx, p, n, inbound)
}

// sliceSubscriber collects every value/terminal event delivered to it.
type sliceSubscriber struct {
	mu       sync.Mutex
	next     []wire.Payload
	complete bool
	err      error
	subbed   wire.Subscription
}

func (s *sliceSubscriber) OnSubscribe(sub wire.Subscription) { s.subbed = sub }
func (s *sliceSubscriber) OnNext(v interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next = append(s.next, v.(wire.Payload))
}
func (s *sliceSubscriber) OnComplete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.complete = true
}
func (s *sliceSubscriber) OnError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// slicePublisher replays a fixed sequence of values then completes.
type slicePublisher struct {
	values []wire.Payload
}

func (p *slicePublisher) Subscribe(s wire.Subscriber) {
	sub := &sliceSubscription{values: p.values, subscriber: s}
	s.OnSubscribe(sub)
}

type sliceSubscription struct {
	values     []wire.Payload
	subscriber wire.Subscriber
	sent       int
	cancelled  bool
}

func (s *sliceSubscription) Request(n uint32) {
	for i := uint32(0); i < n && s.sent < len(s.values) && !s.cancelled; i++ {
		s.subscriber.OnNext(s.values[s.sent])
		s.sent++
	}
	if s.sent == len(s.values) && !s.cancelled {
		s.subscriber.OnComplete()
	}
}

func (s *sliceSubscription) Cancel() { s.cancelled = true }
