// Package transport defines the abstract byte-stream contract the
// connection engine runs its send/receive pumps over.
package transport

import (
	"io"

	"github.com/ngrok/rsocket-go/internal/frame"
)

// Transport carries RSocket frames over an underlying byte stream. The
// engine owns exactly one Transport per connection: SendFrame is called only
// from its send pump and NextFrame only from its receive pump, while Close
// is called from whichever goroutine shuts the engine down.
type Transport interface {
	// SendFrame writes one frame. Implementations may buffer; OnSendQueueEmpty
	// is the flush signal.
	SendFrame(f frame.Frame) error
	// NextFrame blocks for the next inbound frame. Returns io.EOF when the
	// peer has closed the connection cleanly.
	NextFrame() (frame.Frame, error)
	// Close releases the underlying connection. Idempotent.
	Close() error
	// OnSendQueueEmpty is called by the send pump after it has drained every
	// frame currently queued, giving the transport a chance to flush a
	// buffered writer.
	OnSendQueueEmpty()
}

// flusher is implemented by writers that buffer output, such as
// *bufio.Writer.
type flusher interface {
	Flush() error
}

// streamTransport adapts an io.ReadWriteCloser -- the same transport
// abstraction a stream multiplexer's Client/Server would accept -- into a
// Transport using the RSocket frame codec.
type streamTransport struct {
	framer frame.Framer
	closer io.Closer
	flush  flusher
}

// New wraps rw as a Transport, framing reads and writes with the RSocket
// wire codec. If rw implements Flush() error (e.g. a *bufio.Writer), it is
// flushed whenever the send queue drains.
func New(rw io.ReadWriteCloser) Transport {
	t := &streamTransport{
		framer: frame.NewFramer(rw, rw),
		closer: rw,
	}
	if f, ok := rw.(flusher); ok {
		t.flush = f
	}
	return t
}

func (t *streamTransport) SendFrame(f frame.Frame) error {
	return t.framer.WriteFrame(f)
}

func (t *streamTransport) NextFrame() (frame.Frame, error) {
	return t.framer.ReadFrame()
}

func (t *streamTransport) Close() error {
	return t.closer.Close()
}

func (t *streamTransport) OnSendQueueEmpty() {
	if t.flush != nil {
		_ = t.flush.Flush()
	}
}
