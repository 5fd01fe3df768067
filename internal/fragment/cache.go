// Package fragment reassembles multi-frame payloads. A stream's entry in the
// cache exists only while the last observed frame for that stream id carried
// the Follows flag.
package fragment

import (
	"fmt"

	"github.com/ngrok/rsocket-go/internal/frame"
)

// ErrTypeMismatch is returned by Append when a fragment continuation arrives
// that cannot belong to the cached entry. On the wire, every continuation of
// a fragmented frame -- whatever type opened the stream -- is itself a
// Payload frame (RSocket only ever fragments the trailing Payload frames of
// a request). A continuation seen for a stream id is therefore only valid
// if it is a *frame.Payload, or if it is the very same frame that opened the
// cache entry.
type ErrTypeMismatch struct {
	StreamId frame.StreamId
}

func (e ErrTypeMismatch) Error() string {
	return fmt.Sprintf("fragment: frame type mismatch for stream %d", e.StreamId)
}

// Cache maps an active stream id to its partially-accumulated fragmentable
// frame. It is exclusively owned by the connection engine and is not
// safe for concurrent use: all mutation happens on the single executor
// goroutine that drives the connection's receive pump.
type Cache struct {
	byStreamId map[frame.StreamId]frame.FragmentableFrame
}

// NewCache returns an empty fragment cache.
func NewCache() *Cache {
	return &Cache{byStreamId: make(map[frame.StreamId]frame.FragmentableFrame)}
}

// Append merges f into any cached entry for its stream id. If f carries the
// Follows flag, the merge is recorded and Append returns (nil, nil): the
// frame is not yet complete. Otherwise the (possibly just-completed) frame
// is returned and its cache entry, if any, is removed.
func (c *Cache) Append(f frame.FragmentableFrame) (frame.FragmentableFrame, error) {
	cached, ok := c.byStreamId[f.StreamId()]

	if ok {
		if _, isPayload := f.(*frame.Payload); !isPayload && f != cached {
			return nil, ErrTypeMismatch{f.StreamId()}
		}
		mergeInto(cached, f)
	} else {
		cached = f
	}

	if f.Follows() {
		c.byStreamId[f.StreamId()] = cached
		return nil, nil
	}

	delete(c.byStreamId, f.StreamId())
	cached.SetFollows(false)
	return cached, nil
}

// mergeInto concatenates next's metadata/data onto cached in arrival order.
func mergeInto(cached, next frame.FragmentableFrame) {
	if cached == next {
		return
	}
	if md := next.Metadata(); md != nil {
		cached.SetMetadata(append(append([]byte(nil), cached.Metadata()...), md...))
	}
	if d := next.Data(); d != nil {
		cached.SetData(append(append([]byte(nil), cached.Data()...), d...))
	}
	copyTerminalFlags(cached, next)
}

// copyTerminalFlags lets the Complete/Next flags of the final continuation
// override the cached entry's. Only Payload frames carry these flags;
// initiate-request frames have no terminal state of their own, so there is
// nothing to copy onto them.
func copyTerminalFlags(cached, next frame.FragmentableFrame) {
	cachedPayload, ok := cached.(*frame.Payload)
	if !ok {
		return
	}
	nextPayload, ok := next.(*frame.Payload)
	if !ok {
		return
	}
	cachedPayload.SetTerminal(nextPayload.Complete(), nextPayload.Next())
}
