// Package wire defines the minimal reactive-streams-shaped contract that
// request/stream and request/channel handlers publish and subscribe
// through. It is intentionally stdlib-only: the shape is small enough that
// pulling in a third-party reactive streams library would add a dependency
// for naming alone.
package wire

// Payload is the application-visible value carried by Payload, Setup, and
// every Request* frame: a data slice plus optional out-of-band metadata.
// Defined here rather than in the root package so that internal/handlers
// can share it without importing upward.
type Payload struct {
	Data     []byte
	Metadata []byte
}

// HasMetadata reports whether Metadata was explicitly set, as distinct from
// an empty metadata slice.
func (p Payload) HasMetadata() bool { return p.Metadata != nil }

// Subscription lets a Subscriber pull values from, or cancel, a Publisher
// it has subscribed to.
type Subscription interface {
	// Request signals the Publisher may emit up to n more values.
	Request(n uint32)
	// Cancel tells the Publisher to stop emitting and release resources.
	Cancel()
}

// Subscriber receives a Subscription and then a sequence of values
// terminated by exactly one of OnComplete or OnError.
type Subscriber interface {
	OnSubscribe(s Subscription)
	OnNext(value interface{})
	OnComplete()
	OnError(err error)
}

// Publisher accepts a single Subscriber and drives it via a Subscription.
type Publisher interface {
	Subscribe(s Subscriber)
}

// SubscriberFunc adapts plain functions into a Subscriber, for callers that
// only care about a subset of the callbacks (mirrors DefaultSubscriber in
// the ported handlers).
type SubscriberFunc struct {
	OnSubscribeFunc func(s Subscription)
	OnNextFunc      func(value interface{})
	OnCompleteFunc  func()
	OnErrorFunc     func(err error)
}

func (f SubscriberFunc) OnSubscribe(s Subscription) {
	if f.OnSubscribeFunc != nil {
		f.OnSubscribeFunc(s)
	}
}

func (f SubscriberFunc) OnNext(value interface{}) {
	if f.OnNextFunc != nil {
		f.OnNextFunc(value)
	}
}

func (f SubscriberFunc) OnComplete() {
	if f.OnCompleteFunc != nil {
		f.OnCompleteFunc()
	}
}

func (f SubscriberFunc) OnError(err error) {
	if f.OnErrorFunc != nil {
		f.OnErrorFunc(err)
	}
}
