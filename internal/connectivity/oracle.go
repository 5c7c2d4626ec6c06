package connectivity

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// Oracle answers whether remote operations are worth attempting right now.
type Oracle interface {
	IsOnline() bool
}

// Static is an Oracle with a manually controlled answer.
type Static struct {
	online atomic.Bool
}

func NewStatic(online bool) *Static {
	s := &Static{}
	s.online.Store(online)
	return s
}

func (s *Static) IsOnline() bool    { return s.online.Load() }
func (s *Static) SetOnline(on bool) { s.online.Store(on) }

// DialFunc opens a connection; it matches (*net.Dialer).DialContext.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Prober reports online when a TCP connection to addr succeeds. Answers are
// cached for ttl so hot paths do not dial on every call. Only one dial runs
// at a time; callers arriving meanwhile get the previous answer.
type Prober struct {
	addr    string
	timeout time.Duration
	ttl     time.Duration
	dial    DialFunc

	mu        sync.Mutex
	probing   bool
	checkedAt time.Time
	online    bool
}

func NewProber(addr string, timeout, ttl time.Duration) *Prober {
	d := &net.Dialer{Timeout: timeout}
	return &Prober{addr: addr, timeout: timeout, ttl: ttl, dial: d.DialContext}
}

func (p *Prober) WithDialer(dial DialFunc) *Prober {
	p.dial = dial
	return p
}

func (p *Prober) IsOnline() bool {
	p.mu.Lock()
	if p.probing || (!p.checkedAt.IsZero() && time.Since(p.checkedAt) < p.ttl) {
		online := p.online
		p.mu.Unlock()
		return online
	}
	p.probing = true
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	conn, err := p.dial(ctx, "tcp", p.addr)
	if conn != nil {
		_ = conn.Close()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.probing = false
	p.online = err == nil
	p.checkedAt = time.Now()
	return p.online
}

// Invalidate forces the next IsOnline call to probe again.
func (p *Prober) Invalidate() {
	p.mu.Lock()
	p.checkedAt = time.Time{}
	p.mu.Unlock()
}
