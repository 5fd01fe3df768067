package transport

import (
	"bytes"
	"io"
	"testing"

	"github.com/ngrok/rsocket-go/internal/frame"
)

type rwCloser struct {
	*bytes.Buffer
	closed bool
}

func (c *rwCloser) Close() error {
	c.closed = true
	return nil
}

func TestRoundTripSendAndReceive(t *testing.T) {
	buf := &rwCloser{Buffer: new(bytes.Buffer)}
	tr := New(buf)

	var f frame.Cancel
	f.Pack(3)
	if err := tr.SendFrame(&f); err != nil {
		t.Fatalf("SendFrame: %v", err)
	}

	got, err := tr.NextFrame()
	if err != nil {
		t.Fatalf("NextFrame: %v", err)
	}
	if got.StreamId() != 3 {
		t.Errorf("StreamId = %d, want 3", got.StreamId())
	}
}

func TestNextFrameReturnsEOFAtStreamEnd(t *testing.T) {
	buf := &rwCloser{Buffer: new(bytes.Buffer)}
	tr := New(buf)

	_, err := tr.NextFrame()
	if err != io.EOF {
		t.Fatalf("got %v, want io.EOF", err)
	}
}

func TestCloseDelegatesToUnderlyingCloser(t *testing.T) {
	buf := &rwCloser{Buffer: new(bytes.Buffer)}
	tr := New(buf)
	if err := tr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !buf.closed {
		t.Fatalf("expected underlying closer to be closed")
	}
}
