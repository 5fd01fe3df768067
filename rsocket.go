// Package rsocket is the public surface of an RSocket v1.0 peer: a
// symmetric, multiplexed, binary messaging engine operating over an
// abstract transport. Concrete transport bindings (TCP, WebSocket, QUIC)
// and the application routing surface are left to callers; this package
// owns the wire protocol, fragmentation, flow control, lease accounting,
// and the four interaction models.
package rsocket

import (
	"time"

	"github.com/inconshreveable/log15"

	"github.com/ngrok/rsocket-go/internal/engine"
	"github.com/ngrok/rsocket-go/internal/handlers"
	"github.com/ngrok/rsocket-go/internal/wire"
	"github.com/ngrok/rsocket-go/log"
	"github.com/ngrok/rsocket-go/log/log15adapter"
	"github.com/ngrok/rsocket-go/transport"
)

// Payload is the application-visible data+metadata pair carried by every
// interaction model.
type Payload = wire.Payload

// RequestHandler is the application-supplied implementation of all four
// interaction models, plus the connection-level callbacks invoked during
// Setup, MetadataPush, and connection-level errors.
type RequestHandler = handlers.RequestHandler

// Config holds the options a Socket is constructed with, following the
// teacher's ConnectConfig/With* builder shape.
type Config struct {
	inner *engine.Config
}

// Options returns a Config with every default left unset; With* methods
// return the same Config for chaining, and the zero value is itself a
// valid argument to Connect/Accept.
func Options() *Config {
	return &Config{inner: engine.Options()}
}

func (cfg *Config) resolve() *engine.Config {
	if cfg == nil {
		return engine.Options()
	}
	return cfg.inner
}

// WithHonorLease advertises lease support in this socket's Setup frame
// (client side) or grants leases emitted by publisher to the peer
// (server side, once the peer's Setup requests it).
func (cfg *Config) WithHonorLease(publisher wire.Publisher) *Config {
	cfg.inner.WithHonorLease(publisher)
	return cfg
}

// WithRequestQueueSize bounds the number of locally-initiated requests
// held back while awaiting lease admission. Zero means unbounded.
func (cfg *Config) WithRequestQueueSize(size int) *Config {
	cfg.inner.WithRequestQueueSize(size)
	return cfg
}

func (cfg *Config) WithDataMimeType(mime string) *Config {
	cfg.inner.WithDataMimeType(mime)
	return cfg
}

func (cfg *Config) WithMetadataMimeType(mime string) *Config {
	cfg.inner.WithMetadataMimeType(mime)
	return cfg
}

// WithKeepAlivePeriod sets how often this socket sends an outbound
// Keepalive frame requesting a response.
func (cfg *Config) WithKeepAlivePeriod(period time.Duration) *Config {
	cfg.inner.WithKeepAlivePeriod(period)
	return cfg
}

// WithMaxLifetimePeriod sets how long the connection may go without
// observing any inbound frame before it is declared dead.
func (cfg *Config) WithMaxLifetimePeriod(period time.Duration) *Config {
	cfg.inner.WithMaxLifetimePeriod(period)
	return cfg
}

// WithSetupPayload attaches application data/metadata to the Setup frame.
func (cfg *Config) WithSetupPayload(payload Payload) *Config {
	cfg.inner.WithSetupPayload(payload)
	return cfg
}

// WithLog15 sets a log15.Logger directly, the same escape hatch the
// teacher's ConnectConfig.WithLog15 offers for callers already on log15.
func (cfg *Config) WithLog15(logger log15.Logger) *Config {
	cfg.inner.WithLogger(log15adapter.NewLogger(logger))
	return cfg
}

// WithLogger sets the logging facade used for the engine's diagnostic
// call sites (frame drops, protocol errors, keepalive timeout).
func (cfg *Config) WithLogger(logger log.Logger) *Config {
	cfg.inner.WithLogger(logger)
	return cfg
}

// Socket is one established RSocket connection: three cooperating
// send/receive/keepalive pumps over a transport.Transport, with the four
// interaction models available as methods.
type Socket struct {
	e *engine.Engine
}

// Connect establishes the client side of a connection over t: it sends
// the initial Setup frame and starts the engine's pumps.
func Connect(t transport.Transport, handler RequestHandler, cfg *Config) *Socket {
	return &Socket{e: engine.Connect(t, handler, cfg.resolve())}
}

// Accept establishes the server side of a connection over t: it starts
// the engine's pumps and waits for the peer's Setup frame, invoking
// handler.OnSetup once it arrives.
func Accept(t transport.Transport, handler RequestHandler, cfg *Config) *Socket {
	return &Socket{e: engine.Accept(t, handler, cfg.resolve())}
}

// RequestResponse issues a request/response interaction.
func (s *Socket) RequestResponse(payload Payload) (*handlers.RequestResponseRequester, error) {
	return s.e.RequestResponse(payload)
}

// RequestFireAndForget issues a fire-and-forget interaction: the
// payload is sent and no response is expected.
func (s *Socket) RequestFireAndForget(payload Payload) error {
	return s.e.RequestFireAndForget(payload)
}

// RequestStream issues a request/stream interaction, delivering results
// to subscriber as they arrive.
func (s *Socket) RequestStream(payload Payload, initialRequestN uint32, subscriber wire.Subscriber) (*handlers.RequestStreamRequester, error) {
	return s.e.RequestStream(payload, initialRequestN, subscriber)
}

// RequestChannel issues a bidirectional request/channel interaction:
// outbound is drained toward the peer, downstream receives the peer's
// responses.
func (s *Socket) RequestChannel(initialRequestN uint32, outbound wire.Publisher, downstream wire.Subscriber) (*handlers.RequestChannel, error) {
	return s.e.RequestChannel(initialRequestN, outbound, downstream)
}

// MetadataPush sends a connection-level MetadataPush frame, which
// carries metadata to the peer outside of any stream.
func (s *Socket) MetadataPush(metadata []byte) error {
	return s.e.MetadataPush(metadata)
}

// Close tears down the connection and its pumps.
func (s *Socket) Close() error {
	return s.e.Close()
}

// Wait blocks until the connection's pumps have all exited, returning
// the first error any of them observed (nil on a clean local Close).
func (s *Socket) Wait() error {
	return s.e.Wait()
}
