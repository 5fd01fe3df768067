package handlers

import (
	"context"
	"testing"

	"github.com/ngrok/rsocket-go/internal/frame"
	"github.com/ngrok/rsocket-go/internal/wire"
)

func TestRequestChannelRequesterSendsInitialFrame(t *testing.T) {
	conn := newFakeConn(1, nil)
	sub := &sliceSubscriber{}
	outbound := &slicePublisher{values: []wire.Payload{{Data: []byte("out1")}}}

	_, err := NewRequestChannelRequester(conn, 5, outbound, sub)
	if err != nil {
		t.Fatalf("NewRequestChannelRequester: %v", err)
	}

	sent := conn.sentFrames()
	if len(sent) < 1 {
		t.Fatalf("expected at least the initial frame")
	}
	if _, ok := sent[0].(*frame.RequestChannel); !ok {
		t.Fatalf("got %T, want *frame.RequestChannel", sent[0])
	}
}

func TestRequestChannelHalvesTerminateIndependently(t *testing.T) {
	conn := newFakeConn(1, nil)
	sub := &sliceSubscriber{}

	c, err := NewRequestChannelRequester(conn, 5, nil, sub)
	if err != nil {
		t.Fatalf("NewRequestChannelRequester: %v", err)
	}

	// outbound half already terminal (nil publisher); inbound completes now.
	var complete frame.Payload
	complete.Pack(1, nil, nil, true, false, false)
	c.HandleFrame(&complete)

	if len(conn.finished) != 1 {
		t.Fatalf("expected Finish called once both halves terminal, got %d calls", len(conn.finished))
	}
	if !sub.complete {
		t.Fatalf("expected downstream OnComplete")
	}
}

func TestRequestChannelResponderRoutesInitialPayload(t *testing.T) {
	var received wire.Payload
	h := &stubHandler{
		requestChannelFunc: func(ctx context.Context, p wire.Payload, n uint32, inbound wire.Publisher) wire.Publisher {
			received = p
			inbound.Subscribe(&sliceSubscriber{})
			return nil
		},
	}
	conn := newFakeConn(2, h)
	NewRequestChannelResponder(conn, 2, wire.Payload{Data: []byte("first")}, 5, false)

	if string(received.Data) != "first" {
		t.Errorf("Data = %q", received.Data)
	}
}

func TestRequestChannelResponderAppliesInitialDemand(t *testing.T) {
	outbound := &slicePublisher{values: []wire.Payload{{Data: []byte("a")}, {Data: []byte("b")}}}
	h := &stubHandler{
		requestChannelFunc: func(ctx context.Context, p wire.Payload, n uint32, inbound wire.Publisher) wire.Publisher {
			inbound.Subscribe(&sliceSubscriber{})
			return outbound
		},
	}
	conn := newFakeConn(2, h)
	NewRequestChannelResponder(conn, 2, wire.Payload{}, 5, false)

	var payloads int
	for _, f := range conn.sentFrames() {
		if _, ok := f.(*frame.Payload); ok {
			payloads++
		}
	}
	if payloads != 2 {
		t.Fatalf("expected the responder's outbound half to emit both values once granted initial demand, got %d Payload frames", payloads)
	}
}

func TestRequestChannelRequesterInitialFrameCarriesFirstOutboundValue(t *testing.T) {
	conn := newFakeConn(1, nil)
	sub := &sliceSubscriber{}
	outbound := &slicePublisher{values: []wire.Payload{{Data: []byte("out1")}}}

	_, err := NewRequestChannelRequester(conn, 5, outbound, sub)
	if err != nil {
		t.Fatalf("NewRequestChannelRequester: %v", err)
	}

	sent := conn.sentFrames()
	if len(sent) != 1 {
		t.Fatalf("expected only the initiating frame, no separate Payload frame, got %d frames", len(sent))
	}
	rc, ok := sent[0].(*frame.RequestChannel)
	if !ok {
		t.Fatalf("got %T, want *frame.RequestChannel", sent[0])
	}
	if string(rc.Data()) != "out1" {
		t.Errorf("initiating frame Data = %q, want %q", rc.Data(), "out1")
	}
	if !rc.InitialComplete() {
		t.Errorf("expected InitialComplete set, single-value publisher exhausted synchronously")
	}
}
