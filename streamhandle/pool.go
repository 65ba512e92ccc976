// Package streamhandle issues the session identifiers that tell the
// decode firmware which stream a message belongs to.
package streamhandle

import (
	"log/slog"
	"math/bits"
	"os"
	"sync"
	"time"
)

// Pool hands out stream handles. A device owns one Pool and passes it
// to every decoder it creates. The zero value is not usable; use NewPool.
type Pool struct {
	log *slog.Logger

	mu      sync.Mutex
	seeded  bool
	base    uint32
	counter uint32
	live    map[uint32]struct{}
}

// NewPool creates a pool whose base is derived from the process id and
// the clock on first use. If log is nil, slog.Default() is used.
func NewPool(log *slog.Logger) *Pool {
	if log == nil {
		log = slog.Default()
	}
	return &Pool{
		log:  log.With("component", "stream-handles"),
		live: make(map[uint32]struct{}),
	}
}

// NewPoolWithBase creates a pool with a fixed base.
func NewPoolWithBase(log *slog.Logger, base uint32) *Pool {
	p := NewPool(log)
	p.base = base
	p.seeded = true
	return p
}

// Alloc returns a handle that is not currently live.
func (p *Pool) Alloc() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.seeded {
		p.base = bits.Reverse32(uint32(os.Getpid()) ^ uint32(time.Now().UnixMicro()))
		p.seeded = true
		p.log.Debug("stream handle base", "base", p.base)
	}
	for {
		p.counter++
		h := p.base ^ p.counter
		if _, busy := p.live[h]; busy {
			continue
		}
		p.live[h] = struct{}{}
		return h
	}
}

// Release returns h to the pool. Releasing an unknown handle is a no-op.
func (p *Pool) Release(h uint32) {
	p.mu.Lock()
	_, ok := p.live[h]
	delete(p.live, h)
	p.mu.Unlock()

	if !ok {
		p.log.Warn("release of unknown stream handle", "handle", h)
	}
}

// Live reports the number of outstanding handles.
func (p *Pool) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.live)
}
