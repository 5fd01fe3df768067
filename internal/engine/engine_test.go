package engine

import (
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/ngrok/rsocket-go/internal/frame"
	"github.com/ngrok/rsocket-go/internal/wire"
	"github.com/ngrok/rsocket-go/transport"
)

// fakeTransport is an in-memory transport.Transport for driving an Engine
// without a real byte stream.
type fakeTransport struct {
	in   chan frame.Frame
	sent chan frame.Frame

	mu     sync.Mutex
	closed bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		in:   make(chan frame.Frame, 16),
		sent: make(chan frame.Frame, 16),
	}
}

func (t *fakeTransport) SendFrame(f frame.Frame) error {
	t.sent <- f
	return nil
}

func (t *fakeTransport) NextFrame() (frame.Frame, error) {
	f, ok := <-t.in
	if !ok {
		return nil, io.EOF
	}
	return f, nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

func (t *fakeTransport) OnSendQueueEmpty() {}

func (t *fakeTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *fakeTransport) push(f frame.Frame) { t.in <- f }

func (t *fakeTransport) awaitSent(tb testing.TB) frame.Frame {
	tb.Helper()
	select {
	case f := <-t.sent:
		return f
	case <-time.After(time.Second):
		tb.Fatal("timed out waiting for a sent frame")
		return nil
	}
}

// stubHandler implements handlers.RequestHandler with test-controllable
// behavior.
type stubHandler struct {
	onSetup         func(dataMime, metadataMime string, payload wire.Payload) error
	requestResponse func(context.Context, wire.Payload) (wire.Payload, error)
}

func (s *stubHandler) OnSetup(dataMime, metadataMime string, payload wire.Payload) error {
	if s.onSetup != nil {
		return s.onSetup(dataMime, metadataMime, payload)
	}
	return nil
}
func (s *stubHandler) OnMetadataPush([]byte) {}
func (s *stubHandler) OnError(error)         {}

func (s *stubHandler) RequestResponse(ctx context.Context, p wire.Payload) (wire.Payload, error) {
	if s.requestResponse != nil {
		return s.requestResponse(ctx, p)
	}
	return wire.Payload{}, nil
}
func (s *stubHandler) RequestFireAndForget(context.Context, wire.Payload) {}
func (s *stubHandler) RequestStream(context.Context, wire.Payload) wire.Publisher {
	return nil
}
func (s *stubHandler) RequestChannel(context.Context, wire.Payload, uint32, wire.Publisher) wire.Publisher {
	return nil
}

func TestConnectSendsSetupFrame(t *testing.T) {
	ft := newFakeTransport()
	cfg := Options().WithDataMimeType("application/data").WithMetadataMimeType("application/meta").
		WithKeepAlivePeriod(time.Hour).WithMaxLifetimePeriod(time.Hour)
	e := Connect(ft, &stubHandler{}, cfg)
	defer e.Close()

	f := ft.awaitSent(t)
	sf, ok := f.(*frame.Setup)
	if !ok {
		t.Fatalf("got %T, want *frame.Setup", f)
	}
	if sf.DataMimeType != "application/data" || sf.MetadataMimeType != "application/meta" {
		t.Errorf("got %+v", sf)
	}
}

func TestAcceptInvokesOnSetup(t *testing.T) {
	ft := newFakeTransport()
	done := make(chan struct{})
	var gotData, gotMeta string
	h := &stubHandler{onSetup: func(d, m string, p wire.Payload) error {
		gotData, gotMeta = d, m
		close(done)
		return nil
	}}
	e := Accept(ft, h, Options().WithKeepAlivePeriod(time.Hour).WithMaxLifetimePeriod(time.Hour))
	defer e.Close()

	var sf frame.Setup
	sf.Pack(30000, 90000, nil, "application/x", "application/y", nil, nil)
	ft.push(&sf)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("OnSetup never invoked")
	}
	if gotData != "application/x" || gotMeta != "application/y" {
		t.Errorf("got data=%q metadata=%q", gotData, gotMeta)
	}
}

func TestSetupRequestingLeaseWithoutPublisherIsUnsupported(t *testing.T) {
	ft := newFakeTransport()
	e := Accept(ft, &stubHandler{}, Options().WithKeepAlivePeriod(time.Hour).WithMaxLifetimePeriod(time.Hour))
	defer e.Close()

	var sf frame.Setup
	sf.Pack(30000, 90000, nil, "application/x", "application/y", nil, nil)
	sf.SetHonorsLease(true)
	ft.push(&sf)

	f := ft.awaitSent(t)
	ef, ok := f.(*frame.ErrorFrame)
	if !ok {
		t.Fatalf("got %T, want *frame.ErrorFrame", f)
	}
	if ef.Code != frame.ErrorCodeUnsupportedSetup {
		t.Errorf("Code = %s, want UNSUPPORTED_SETUP", ef.Code)
	}
}

func TestKeepaliveWithRespondIsEchoed(t *testing.T) {
	ft := newFakeTransport()
	e := Accept(ft, &stubHandler{}, Options().WithKeepAlivePeriod(time.Hour).WithMaxLifetimePeriod(time.Hour))
	defer e.Close()

	var kf frame.Keepalive
	kf.Pack(true, []byte("ping"))
	ft.push(&kf)

	f := ft.awaitSent(t)
	got, ok := f.(*frame.Keepalive)
	if !ok {
		t.Fatalf("got %T, want *frame.Keepalive", f)
	}
	if got.Respond() {
		t.Errorf("expected echoed keepalive to have respond=false")
	}
	if string(got.Data()) != "ping" {
		t.Errorf("Data = %q, want ping", got.Data())
	}
}

func TestRequestResponseEndToEnd(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	serverHandler := &stubHandler{
		requestResponse: func(ctx context.Context, p wire.Payload) (wire.Payload, error) {
			return wire.Payload{Data: append([]byte("echo:"), p.Data...)}, nil
		},
		onSetup: func(string, string, wire.Payload) error { return nil },
	}

	long := time.Hour
	server := Accept(transport.New(serverConn), serverHandler, Options().WithKeepAlivePeriod(long).WithMaxLifetimePeriod(long))
	defer server.Close()
	client := Connect(transport.New(clientConn), &stubHandler{}, Options().WithKeepAlivePeriod(long).WithMaxLifetimePeriod(long))
	defer client.Close()

	req, err := client.RequestResponse(wire.Payload{Data: []byte("hi")})
	if err != nil {
		t.Fatalf("RequestResponse: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := req.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if string(resp.Data) != "echo:hi" {
		t.Errorf("Data = %q, want echo:hi", resp.Data)
	}
}
