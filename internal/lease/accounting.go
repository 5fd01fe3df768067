package lease

import (
	"time"

	"github.com/ngrok/rsocket-go/internal/wire"
)

// Accounting holds both directions of lease admission control for one
// connection: the budget the peer granted us (applied to our outbound
// requests) and the budget we grant the peer (applied to requests we
// accept).
type Accounting struct {
	// Requester gates frames this side sends; it is replaced wholesale
	// each time a LEASE frame arrives from the peer.
	Requester Lease
	// Responder gates frames this side accepts; it is replaced each time
	// the local application publishes a new Lease value.
	Responder Lease
}

// NewAccounting returns an Accounting whose responder side starts
// unrestricted (a NullLease). honorLease selects whether the requester side
// starts as a zero-budget DefinedLease (waiting for the peer's first LEASE
// frame) rather than a NullLease.
func NewAccounting(honorLease bool) *Accounting {
	a := &Accounting{Responder: NullLease{}}
	if honorLease {
		a.Requester = NewDefinedLease(0, 0)
	} else {
		a.Requester = NullLease{}
	}
	return a
}

// OnLeaseFrame replaces the requester-side lease with the terms of a
// received LEASE frame.
func (a *Accounting) OnLeaseFrame(numberOfRequests uint32, ttl time.Duration) {
	a.Requester = NewDefinedLease(numberOfRequests, ttl)
}

// Grant sets the budget this side offers the peer for accepted requests.
func (a *Accounting) Grant(numberOfRequests uint32, ttl time.Duration) {
	a.Responder = NewDefinedLease(numberOfRequests, ttl)
}

// Value is the wire-independent shape of one lease grant, delivered by an
// application's lease Publisher.
type Value struct {
	NumberOfRequests uint32
	TimeToLive       time.Duration
	Metadata         []byte
}

// Subscriber forwards Lease values produced by an application-supplied
// Publisher onto the connection: each value both updates the local
// responder-side budget and is sent to the peer as a LEASE frame. Send is
// supplied by the engine so this package stays independent of the frame
// and transport types.
type Subscriber struct {
	Accounting *Accounting
	Send       func(Value)
}

func (s *Subscriber) OnSubscribe(sub wire.Subscription) {
	sub.Request(1 << 31)
}

func (s *Subscriber) OnNext(v interface{}) {
	lv, ok := v.(Value)
	if !ok {
		return
	}
	s.Accounting.Grant(lv.NumberOfRequests, lv.TimeToLive)
	if s.Send != nil {
		s.Send(lv)
	}
}

func (s *Subscriber) OnComplete() {}
func (s *Subscriber) OnError(error) {}
