package handlers

import (
	"context"
	"testing"

	"github.com/ngrok/rsocket-go/internal/frame"
	"github.com/ngrok/rsocket-go/internal/wire"
)

func TestRequestStreamRequesterDeliversValuesAndCompletes(t *testing.T) {
	conn := newFakeConn(1, nil)
	sub := &sliceSubscriber{}
	_, err := NewRequestStreamRequester(conn, wire.Payload{Data: []byte("go")}, 10, sub)
	if err != nil {
		t.Fatalf("NewRequestStreamRequester: %v", err)
	}

	sent := conn.sentFrames()
	if len(sent) != 1 {
		t.Fatalf("expected initial frame sent, got %d", len(sent))
	}
	rs, ok := sent[0].(*frame.RequestStream)
	if !ok || rs.InitialRequestN != 10 {
		t.Fatalf("got %+v", sent[0])
	}

	handler := sub.subbed.(*RequestStreamRequester)
	var p1 frame.Payload
	p1.Pack(1, nil, []byte("v1"), false, true, false)
	handler.HandleFrame(&p1)

	var p2 frame.Payload
	p2.Pack(1, nil, []byte("v2"), true, true, false)
	handler.HandleFrame(&p2)

	if len(sub.next) != 2 {
		t.Fatalf("got %d values, want 2", len(sub.next))
	}
	if !sub.complete {
		t.Fatalf("expected completion")
	}
	if len(conn.finished) != 1 {
		t.Fatalf("expected stream finished once, got %d", len(conn.finished))
	}
}

func TestRequestStreamResponderForwardsPublisherValues(t *testing.T) {
	h := &stubHandler{
		requestStreamFunc: func(ctx context.Context, p wire.Payload) wire.Publisher {
			return &slicePublisher{values: []wire.Payload{{Data: []byte("a")}, {Data: []byte("b")}}}
		},
	}
	conn := newFakeConn(2, h)
	NewRequestStreamResponder(conn, 2, wire.Payload{}, 10)

	sent := conn.sentFrames()
	if len(sent) != 2 {
		t.Fatalf("expected 2 payload frames, got %d", len(sent))
	}
	last := sent[1].(*frame.Payload)
	if !last.Complete() {
		t.Errorf("expected last frame to carry Complete")
	}
}

func TestRequestStreamResponderCancelStopsSubscription(t *testing.T) {
	pub := &slicePublisher{values: []wire.Payload{{Data: []byte("a")}}}
	h := &stubHandler{
		requestStreamFunc: func(ctx context.Context, p wire.Payload) wire.Publisher { return pub },
	}
	conn := newFakeConn(2, h)
	resp := NewRequestStreamResponder(conn, 2, wire.Payload{}, 0)

	var c frame.Cancel
	c.Pack(2)
	resp.HandleFrame(&c)

	if len(conn.finished) != 1 {
		t.Fatalf("expected Finish called once on cancel")
	}
}
