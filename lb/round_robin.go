package lb

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jpillora/backoff"

	"github.com/ngrok/rsocket-go"
	"github.com/ngrok/rsocket-go/transport"
)

// Dial opens one leg's underlying transport.
type Dial func() (transport.Transport, error)

// RoundRobinStrategy maintains a fixed number of legs, each independently
// reconnected with backoff when its socket's pumps exit, and selects
// among the currently-connected legs in round-robin order.
//
// Adapted from a reconnecting multi-leg session's connect loop: a
// dial-retry loop with a jpillora/backoff schedule, one per leg,
// running in its own goroutine.
type RoundRobinStrategy struct {
	dial    Dial
	handler rsocket.RequestHandler
	cfg     *rsocket.Config

	mu      sync.Mutex
	sockets []*rsocket.Socket

	next uint32

	closed   int32
	closeCh  chan struct{}
	closeOne sync.Once
	wg       sync.WaitGroup
}

// NewRoundRobin constructs a strategy with legs connections, each dialed
// via dial.
func NewRoundRobin(legs int, dial Dial, handler rsocket.RequestHandler, cfg *rsocket.Config) *RoundRobinStrategy {
	return &RoundRobinStrategy{
		dial:    dial,
		handler: handler,
		cfg:     cfg,
		sockets: make([]*rsocket.Socket, legs),
		closeCh: make(chan struct{}),
	}
}

// Connect establishes every leg and starts its reconnect-on-failure
// supervisor. It blocks until every leg has connected at least once.
func (s *RoundRobinStrategy) Connect() error {
	var wg sync.WaitGroup
	errs := make([]error, len(s.sockets))
	for i := range s.sockets {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = s.connectLeg(i)
		}()
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// connectLeg dials and connects leg i, retrying with backoff on dial
// failure, then supervises it for the lifetime of the strategy: once
// the socket's pumps exit, it is redialed the same way.
func (s *RoundRobinStrategy) connectLeg(i int) error {
	boff := &backoff.Backoff{
		Min:    500 * time.Millisecond,
		Max:    30 * time.Second,
		Factor: 2,
	}

	for {
		if atomic.LoadInt32(&s.closed) != 0 {
			return nil
		}

		t, err := s.dial()
		if err != nil {
			select {
			case <-time.After(boff.Duration()):
			case <-s.closeCh:
				return nil
			}
			continue
		}

		sock := rsocket.Connect(t, s.handler, s.cfg)
		boff.Reset()

		// Close() may have run while the dial above was in flight; store
		// the new socket only if the strategy is still live, or it would
		// never be closed and its watcher goroutine would block Close()'s
		// wg.Wait() forever.
		s.mu.Lock()
		if atomic.LoadInt32(&s.closed) != 0 {
			s.mu.Unlock()
			sock.Close()
			return nil
		}
		s.sockets[i] = sock
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			sock.Wait()

			s.mu.Lock()
			if s.sockets[i] == sock {
				s.sockets[i] = nil
			}
			s.mu.Unlock()

			if atomic.LoadInt32(&s.closed) == 0 {
				s.connectLeg(i)
			}
		}()
		return nil
	}
}

// Select returns the next connected leg in round-robin order, skipping
// legs that are mid-reconnect.
func (s *RoundRobinStrategy) Select() (*rsocket.Socket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.sockets)
	for i := 0; i < n; i++ {
		idx := int(atomic.AddUint32(&s.next, 1)) % n
		if sock := s.sockets[idx]; sock != nil {
			return sock, nil
		}
	}
	return nil, ErrNoLegs
}

// Close stops every leg's reconnect supervisor and closes whichever
// sockets are currently connected.
func (s *RoundRobinStrategy) Close() error {
	atomic.StoreInt32(&s.closed, 1)
	s.closeOne.Do(func() { close(s.closeCh) })

	s.mu.Lock()
	var err error
	for _, sock := range s.sockets {
		if sock != nil {
			if e := sock.Close(); e != nil {
				err = e
			}
		}
	}
	s.mu.Unlock()

	s.wg.Wait()
	return err
}
