// Package lb provides a load-balancing RSocket that spreads interactions
// across multiple underlying sockets, selecting one per call instead of
// committing to a single connection. It is pure delegation: every method
// asks the configured Strategy which socket to use and forwards the call,
// the way a multi-leg client broadcasts lifecycle calls
// across its legs.
package lb

import (
	"errors"

	"github.com/ngrok/rsocket-go"
	"github.com/ngrok/rsocket-go/internal/handlers"
	"github.com/ngrok/rsocket-go/internal/wire"
)

// ErrNoLegs is returned by Select implementations when no socket is
// currently available to route an interaction to.
var ErrNoLegs = errors.New("lb: no socket available")

// Strategy selects which underlying socket an interaction should use,
// and owns the lifecycle of however many sockets it maintains.
type Strategy interface {
	// Select returns the socket the next interaction should be routed
	// to. Called once per interaction, so implementations are free to
	// round-robin, weight, or otherwise vary the choice per call.
	Select() (*rsocket.Socket, error)
	// Connect establishes every socket the strategy maintains.
	Connect() error
	// Close tears down every socket the strategy maintains.
	Close() error
}

// Socket is an RSocket whose interactions are routed through a Strategy
// rather than bound to one connection.
type Socket struct {
	strategy Strategy
}

// New wraps strategy as a load-balanced Socket.
func New(strategy Strategy) *Socket {
	return &Socket{strategy: strategy}
}

// Connect establishes the strategy's underlying sockets.
func (s *Socket) Connect() error {
	return s.strategy.Connect()
}

// Close tears down every socket the strategy maintains.
func (s *Socket) Close() error {
	return s.strategy.Close()
}

func (s *Socket) RequestResponse(payload rsocket.Payload) (*handlers.RequestResponseRequester, error) {
	sock, err := s.strategy.Select()
	if err != nil {
		return nil, err
	}
	return sock.RequestResponse(payload)
}

func (s *Socket) RequestFireAndForget(payload rsocket.Payload) error {
	sock, err := s.strategy.Select()
	if err != nil {
		return err
	}
	return sock.RequestFireAndForget(payload)
}

func (s *Socket) RequestStream(payload rsocket.Payload, initialRequestN uint32, subscriber wire.Subscriber) (*handlers.RequestStreamRequester, error) {
	sock, err := s.strategy.Select()
	if err != nil {
		return nil, err
	}
	return sock.RequestStream(payload, initialRequestN, subscriber)
}

func (s *Socket) RequestChannel(initialRequestN uint32, outbound wire.Publisher, downstream wire.Subscriber) (*handlers.RequestChannel, error) {
	sock, err := s.strategy.Select()
	if err != nil {
		return nil, err
	}
	return sock.RequestChannel(initialRequestN, outbound, downstream)
}

func (s *Socket) MetadataPush(metadata []byte) error {
	sock, err := s.strategy.Select()
	if err != nil {
		return err
	}
	return sock.MetadataPush(metadata)
}
