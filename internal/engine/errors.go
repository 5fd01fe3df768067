package engine

import "errors"

// ErrQueueFull is returned by SendInitiateRequest when the pending-request
// queue is bounded and already full.
var ErrQueueFull = errors.New("engine: pending request queue full")

// ErrConnectionDead is the die() reason used when no frame has been
// observed from the peer within the configured max lifetime.
var ErrConnectionDead = errors.New("engine: no frame received within max lifetime, connection declared dead")

// ErrClosed is wrapped into the die() reason when a Setup frame is rejected
// as unsupported.
var ErrClosed = errors.New("engine: connection closed")
