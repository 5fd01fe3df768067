// Package handlers implements the per-interaction-model state machines:
// one requester/responder pair for each of request/response,
// fire-and-forget, request/stream, and request/channel.
package handlers

import (
	"context"

	"github.com/ngrok/rsocket-go/internal/frame"
	"github.com/ngrok/rsocket-go/internal/wire"
)

// Conn is the back-reference every handler holds into its owning
// connection engine. It is the handlers package's analogue of muxado's
// sessionPrivate: a narrow interface so handlers never depend on the
// engine package directly.
type Conn interface {
	// AllocateStreamId reserves the next locally-owned stream id and
	// registers h under it.
	AllocateStreamId(h Handler) (frame.StreamId, error)
	// Finish releases a stream id's registration.
	Finish(id frame.StreamId)
	// SendInitiateRequest enqueues an initiate-request frame, subject to
	// lease admission: it may be queued rather than sent immediately.
	SendInitiateRequest(f frame.InitiateRequestFrame) error
	// Send enqueues any other outbound frame unconditionally.
	Send(f frame.Frame)
	// Handler returns the application's request handler, for responder
	// construction.
	Handler() RequestHandler
	// Debugf logs a low-severity diagnostic, e.g. a dropped frame on a
	// finished stream.
	Debugf(format string, args ...interface{})
}

// Handler is the subset of streams.Handler that the stream table needs;
// redeclared here so this package does not import internal/streams.
type Handler interface {
	HandleFrame(f frame.Frame) error
}

// RequestHandler is the application-supplied implementation of all four
// interaction models, plus the connection-level callbacks. The root
// package re-exports this type for its public API.
type RequestHandler interface {
	// OnSetup is invoked once, synchronously, when a Setup frame arrives
	// on a responder-side connection. Returning an error rejects the
	// connection with REJECTED_SETUP.
	OnSetup(dataMimeType, metadataMimeType string, payload wire.Payload) error
	// OnMetadataPush is invoked for each inbound MetadataPush frame.
	OnMetadataPush(metadata []byte)
	// OnError is invoked when the connection observes a connection-level
	// Error frame.
	OnError(err error)

	RequestResponse(ctx context.Context, payload wire.Payload) (wire.Payload, error)
	RequestFireAndForget(ctx context.Context, payload wire.Payload)
	RequestStream(ctx context.Context, payload wire.Payload) wire.Publisher
	RequestChannel(ctx context.Context, payload wire.Payload, initialRequestN uint32, inbound wire.Publisher) wire.Publisher
}

// payloadFromFrame extracts the application-visible value from any
// payload-bearing frame.
func payloadFromFrame(f frame.FragmentableFrame) wire.Payload {
	p := wire.Payload{Data: f.Data()}
	if f.Metadata() != nil {
		p.Metadata = f.Metadata()
	}
	return p
}
