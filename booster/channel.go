package booster

import "sync/atomic"

// Channel carries the per-connection state the dual codec consults. One
// Channel is created per spawned server and shares the lifetime of its
// stream; channels are never reused across connections.
//
// The boosted flag is written at most once, by classification, before the
// first read on the stream. It is never cleared afterwards. The atomic only
// exists so that observers outside the read loop (stats reporting) stay
// race-free.
type Channel struct {
	boosted atomic.Bool

	frames       atomic.Int64
	binaryFrames atomic.Int64
	bytesRead    atomic.Int64
}

// NewChannel returns an unboosted channel.
func NewChannel() *Channel {
	return &Channel{}
}

// Boosted reports whether the stream passes through the booster.
func (c *Channel) Boosted() bool {
	return c != nil && c.boosted.Load()
}

func (c *Channel) markBoosted() {
	c.boosted.Store(true)
}

func (c *Channel) countFrame(n int, binary bool) {
	if c == nil {
		return
	}
	c.frames.Add(1)
	c.bytesRead.Add(int64(n))
	if binary {
		c.binaryFrames.Add(1)
	}
}

// Stats is a point-in-time snapshot of the channel counters.
type Stats struct {
	Frames       int64
	BinaryFrames int64
	BytesRead    int64
}

// Stats snapshots the counters accumulated so far.
func (c *Channel) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	return Stats{
		Frames:       c.frames.Load(),
		BinaryFrames: c.binaryFrames.Load(),
		BytesRead:    c.bytesRead.Load(),
	}
}
