// Package engine implements the connection engine: the single type that
// owns a transport, drives its send and receive pumps, and dispatches
// frames to connection-level handling or to the stream table. It is the
// Go analogue of a stream-multiplexer session, generalized from a stream
// multiplexer to an RSocket peer.
package engine

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ngrok/rsocket-go/internal/fragment"
	"github.com/ngrok/rsocket-go/internal/frame"
	"github.com/ngrok/rsocket-go/internal/handlers"
	"github.com/ngrok/rsocket-go/internal/lease"
	"github.com/ngrok/rsocket-go/internal/streams"
	"github.com/ngrok/rsocket-go/internal/wire"
	"github.com/ngrok/rsocket-go/log"
	"github.com/ngrok/rsocket-go/transport"
)

// Engine owns one connection's transport, stream table, fragment cache,
// and lease accounting. It exclusively drives three goroutines: the
// receive pump, the send pump, and the keepalive scheduler. Everything
// else -- handler goroutines spawned per request/response or per stream --
// reaches back into the Engine only through the narrow handlers.Conn
// interface, which is why the stream table and lease structures still
// guard themselves with mutexes despite the single-executor framing of
// the wire protocol's own concurrency model.
type Engine struct {
	transport transport.Transport
	isClient  bool
	config    *Config
	handler   handlers.RequestHandler

	table     *streams.Table
	fragCache *fragment.Cache
	lease     *lease.Accounting

	sendQueue chan frame.Frame

	pendingMu sync.Mutex
	pending   []frame.InitiateRequestFrame

	dieOnce uint32
	dead    chan struct{}
	dieErr  error

	lastReceivedAt int64 // unix nanoseconds, atomic

	g *errgroup.Group

	resumeToken []byte
}

var _ handlers.Conn = (*Engine)(nil)

func newEngine(t transport.Transport, isClient bool, handler handlers.RequestHandler, config *Config) *Engine {
	if config == nil {
		config = Options()
	}
	config.initDefaults()

	e := &Engine{
		transport: t,
		isClient:  isClient,
		config:    config,
		handler:   handler,
		table:     streams.NewTable(isClient),
		fragCache: fragment.NewCache(),
		lease:     lease.NewAccounting(config.HonorLease),
		sendQueue: make(chan frame.Frame, 64),
		dead:      make(chan struct{}),
	}
	atomic.StoreInt64(&e.lastReceivedAt, time.Now().UnixNano())
	return e
}

// Connect builds a client-side engine, starts its pumps, and sends the
// initial Setup frame.
func Connect(t transport.Transport, handler handlers.RequestHandler, config *Config) *Engine {
	e := newEngine(t, true, handler, config)
	e.start()

	var sf frame.Setup
	sf.Pack(
		uint32(e.config.KeepAlivePeriod/time.Millisecond),
		uint32(e.config.MaxLifetimePeriod/time.Millisecond),
		nil,
		e.config.DataMimeType,
		e.config.MetadataMimeType,
		e.config.SetupPayload.Metadata,
		e.config.SetupPayload.Data,
	)
	sf.SetHonorsLease(e.config.HonorLease)
	e.Send(&sf)
	return e
}

// Accept builds a server-side engine and starts its pumps. The peer's
// Setup frame arrives through the ordinary receive pump, which invokes
// handler.OnSetup.
func Accept(t transport.Transport, handler handlers.RequestHandler, config *Config) *Engine {
	e := newEngine(t, false, handler, config)
	e.start()
	return e
}

func (e *Engine) start() {
	g := new(errgroup.Group)
	g.Go(e.receivePump)
	g.Go(e.sendPump)
	g.Go(e.keepalivePump)
	e.g = g
}

// Wait blocks until both pumps and the keepalive scheduler have exited,
// returning the first error any of them observed.
func (e *Engine) Wait() error {
	return e.g.Wait()
}

// Close tears the connection down idempotently: frames sent afterwards are
// dropped, both pumps exit, and the transport is closed.
func (e *Engine) Close() error {
	e.die(nil)
	return nil
}

// RequestResponse issues a request/response from the local side.
func (e *Engine) RequestResponse(payload wire.Payload) (*handlers.RequestResponseRequester, error) {
	return handlers.NewRequestResponseRequester(e, payload)
}

// RequestFireAndForget issues a fire-and-forget from the local side.
func (e *Engine) RequestFireAndForget(payload wire.Payload) error {
	return handlers.SendFireAndForget(e, payload)
}

// RequestStream issues a request/stream from the local side.
func (e *Engine) RequestStream(payload wire.Payload, initialRequestN uint32, subscriber wire.Subscriber) (*handlers.RequestStreamRequester, error) {
	return handlers.NewRequestStreamRequester(e, payload, initialRequestN, subscriber)
}

// RequestChannel issues a request/channel from the local side.
func (e *Engine) RequestChannel(initialRequestN uint32, outbound wire.Publisher, downstream wire.Subscriber) (*handlers.RequestChannel, error) {
	return handlers.NewRequestChannelRequester(e, initialRequestN, outbound, downstream)
}

// MetadataPush sends a connection-level out-of-band metadata frame.
func (e *Engine) MetadataPush(metadata []byte) error {
	var f frame.MetadataPush
	if err := f.Pack(metadata); err != nil {
		return err
	}
	e.Send(&f)
	return nil
}

////////////////////////////////
// handlers.Conn
////////////////////////////////

func (e *Engine) AllocateStreamId(h handlers.Handler) (frame.StreamId, error) {
	id, err := e.table.Allocate(h)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (e *Engine) Finish(id frame.StreamId) {
	e.table.Finish(id)
}

func (e *Engine) SendInitiateRequest(f frame.InitiateRequestFrame) error {
	if e.lease.Requester.IsAllowed() {
		e.Send(f)
		return nil
	}

	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()
	if e.config.RequestQueueSize > 0 && len(e.pending) >= e.config.RequestQueueSize {
		return ErrQueueFull
	}
	e.pending = append(e.pending, f)
	return nil
}

func (e *Engine) Send(f frame.Frame) {
	select {
	case e.sendQueue <- f:
	case <-e.dead:
	}
}

func (e *Engine) Handler() handlers.RequestHandler {
	return e.handler
}

func (e *Engine) Debugf(format string, args ...interface{}) {
	e.logf(log.LogLevelDebug, format, args...)
}

func (e *Engine) logf(level log.LogLevel, format string, args ...interface{}) {
	e.config.Logger.Log(context.Background(), level, fmt.Sprintf(format, args...), nil)
}

////////////////////////////////
// send / receive pumps
////////////////////////////////

func (e *Engine) sendPump() error {
	for {
		select {
		case f := <-e.sendQueue:
			e.logf(log.LogLevelTrace, "send %s", f)
			if err := e.transport.SendFrame(f); err != nil {
				e.die(err)
				return err
			}
			if len(e.sendQueue) == 0 {
				e.transport.OnSendQueueEmpty()
			}
		case <-e.dead:
			// select chooses pseudo-randomly between this case and
			// sendQueue when both are ready, so a frame enqueued in the
			// same breath as die() (an outgoing Error frame immediately
			// followed by shutdown, say) can still be waiting; drain it
			// before giving up the pump.
			e.drainSendQueue()
			return nil
		}
	}
}

// drainSendQueue flushes whatever was already queued at shutdown. Only
// ever called from the sendPump goroutine, so it never writes to the
// transport concurrently with the pump's own loop.
func (e *Engine) drainSendQueue() {
	for {
		select {
		case f := <-e.sendQueue:
			e.logf(log.LogLevelTrace, "send %s", f)
			_ = e.transport.SendFrame(f)
		default:
			return
		}
	}
}

func (e *Engine) receivePump() error {
	for {
		f, err := e.transport.NextFrame()
		if err != nil {
			select {
			case <-e.dead:
				// die() already ran and closed the transport under us.
				return nil
			default:
			}
			if err == io.EOF {
				e.die(nil)
				return nil
			}
			e.die(err)
			return err
		}
		atomic.StoreInt64(&e.lastReceivedAt, time.Now().UnixNano())
		e.handleInbound(f)

		select {
		case <-e.dead:
			return nil
		default:
		}
	}
}

func (e *Engine) handleInbound(f frame.Frame) {
	e.logf(log.LogLevelTrace, "recv %s", f)

	if frame.IsFragmentable(f) {
		merged, err := e.fragCache.Append(f.(frame.FragmentableFrame))
		if err != nil {
			e.sendStreamError(f.StreamId(), err)
			return
		}
		if merged == nil {
			return
		}
		f = merged
	}

	if f.StreamId().IsConnection() {
		e.handleConnectionFrame(f)
		return
	}

	if frame.IsInitiateRequest(f) {
		e.handleInitiateRequest(f.(frame.InitiateRequestFrame))
		return
	}

	handled, err := e.table.Dispatch(f)
	if err != nil {
		e.sendStreamError(f.StreamId(), err)
		return
	}
	if !handled {
		e.Debugf("dropped frame %s for unregistered stream %d", f.Type(), f.StreamId())
	}
}

func (e *Engine) sendStreamError(id frame.StreamId, err error) {
	code := frame.ErrorCodeApplicationError
	if id.IsConnection() {
		code = frame.ErrorCodeConnectionError
	}
	var ef frame.ErrorFrame
	ef.Pack(id, code, []byte(err.Error()))
	e.Send(&ef)
	e.Debugf("protocol error on stream %d: %v", id, err)
}

func (e *Engine) handleConnectionFrame(f frame.Frame) {
	switch v := f.(type) {
	case *frame.Setup:
		e.handleSetup(v)
	case *frame.Lease:
		e.lease.OnLeaseFrame(v.NumberOfRequests, time.Duration(v.TimeToLiveMillis)*time.Millisecond)
		e.drainPending()
	case *frame.Keepalive:
		e.handleKeepalive(v)
	case *frame.MetadataPush:
		e.handler.OnMetadataPush(v.Metadata())
	case *frame.ErrorFrame:
		e.handler.OnError(&handlers.RemoteError{Code: v.Code, Msg: string(v.Data())})
	case *frame.Resume:
		var ef frame.ErrorFrame
		ef.Pack(0, frame.ErrorCodeRejectedResume, []byte("resume is not supported"))
		e.Send(&ef)
	default:
		e.Debugf("dropped connection-level frame %s", f.Type())
	}
}

func (e *Engine) handleSetup(v *frame.Setup) {
	if e.isClient {
		e.Debugf("dropping unexpected SETUP on client side")
		return
	}

	if v.HonorsLease() && e.config.LeasePublisher == nil {
		var ef frame.ErrorFrame
		ef.Pack(0, frame.ErrorCodeUnsupportedSetup, []byte("lease requested, no lease publisher configured"))
		e.Send(&ef)
		e.die(fmt.Errorf("unsupported setup: %w", ErrClosed))
		return
	}

	payload := wire.Payload{Data: v.Data(), Metadata: v.Metadata()}
	if err := e.handler.OnSetup(v.DataMimeType, v.MetadataMimeType, payload); err != nil {
		var ef frame.ErrorFrame
		ef.Pack(0, frame.ErrorCodeRejectedSetup, []byte(err.Error()))
		e.Send(&ef)
		e.die(err)
		return
	}

	if v.Flags().IsSet(frame.FlagResume) {
		e.resumeToken = v.ResumeToken
	}

	if v.HonorsLease() {
		e.subscribeLeasePublisher()
	}
}

func (e *Engine) subscribeLeasePublisher() {
	sub := &lease.Subscriber{
		Accounting: e.lease,
		Send: func(v lease.Value) {
			var lf frame.Lease
			lf.Pack(uint32(v.TimeToLive/time.Millisecond), v.NumberOfRequests, v.Metadata)
			e.Send(&lf)
		},
	}
	e.config.LeasePublisher.Subscribe(sub)
}

func (e *Engine) handleKeepalive(v *frame.Keepalive) {
	if !v.Respond() {
		return
	}
	var kf frame.Keepalive
	kf.Pack(false, v.Data())
	e.Send(&kf)
}

func (e *Engine) handleInitiateRequest(f frame.InitiateRequestFrame) {
	id := f.StreamId()
	if err := e.table.AssertAvailable(id); err != nil {
		e.sendStreamError(id, err)
		return
	}
	if !e.lease.Responder.IsAllowed() {
		var ef frame.ErrorFrame
		ef.Pack(id, frame.ErrorCodeRejected, []byte("lease: no budget remaining"))
		e.Send(&ef)
		return
	}

	switch v := f.(type) {
	case *frame.RequestResponse:
		payload := wire.Payload{Data: v.Data(), Metadata: v.Metadata()}
		e.table.Register(id, handlers.NewRequestResponseResponder(e, id, payload))
	case *frame.RequestFnf:
		payload := wire.Payload{Data: v.Data(), Metadata: v.Metadata()}
		handlers.HandleFireAndForget(e, payload)
	case *frame.RequestStream:
		payload := wire.Payload{Data: v.Data(), Metadata: v.Metadata()}
		e.table.Register(id, handlers.NewRequestStreamResponder(e, id, payload, v.InitialRequestN))
	case *frame.RequestChannel:
		payload := wire.Payload{Data: v.Data(), Metadata: v.Metadata()}
		e.table.Register(id, handlers.NewRequestChannelResponder(e, id, payload, v.InitialRequestN, v.InitialComplete()))
	}
}

func (e *Engine) drainPending() {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()
	for len(e.pending) > 0 {
		if !e.lease.Requester.IsAllowed() {
			return
		}
		f := e.pending[0]
		e.pending = e.pending[1:]
		e.Send(f)
	}
}

////////////////////////////////
// keepalive
////////////////////////////////

func (e *Engine) keepalivePump() error {
	ticker := time.NewTicker(e.config.KeepAlivePeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if time.Since(e.lastReceived()) > e.config.MaxLifetimePeriod {
				e.logf(log.LogLevelWarn, "no frame received within %s, declaring connection dead", e.config.MaxLifetimePeriod)
				e.die(ErrConnectionDead)
				return ErrConnectionDead
			}
			var kf frame.Keepalive
			kf.Pack(true, nil)
			e.Send(&kf)
		case <-e.dead:
			return nil
		}
	}
}

func (e *Engine) lastReceived() time.Time {
	return time.Unix(0, atomic.LoadInt64(&e.lastReceivedAt))
}

////////////////////////////////
// shutdown
////////////////////////////////

func (e *Engine) die(err error) {
	if !atomic.CompareAndSwapUint32(&e.dieOnce, 0, 1) {
		return
	}
	e.dieErr = err
	close(e.dead)
	e.transport.Close()

	e.table.Each(func(id frame.StreamId, h streams.Handler) {
		e.Debugf("abandoning stream %d at shutdown", id)
	})
}
