package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
)

// ErrConnection is returned when a tenant server cannot be reached.
var ErrConnection = errors.New("tenant database unreachable")

// ErrTargetIncomplete is returned by ParseTarget when host or port is
// missing or the port is not an integer.
var ErrTargetIncomplete = errors.New("connection target incomplete")

// Target identifies a tenant database server.
type Target struct {
	Host string
	Port int
}

func (t Target) String() string { return fmt.Sprintf("%s:%d", t.Host, t.Port) }

// ParseTarget trims and validates a host/port pair read from a user record.
func ParseTarget(host, port string) (Target, error) {
	host = strings.TrimSpace(host)
	port = strings.TrimSpace(port)
	if host == "" || port == "" {
		return Target{}, ErrTargetIncomplete
	}
	n, err := strconv.Atoi(port)
	if err != nil || n <= 0 || n > 65535 {
		return Target{}, ErrTargetIncomplete
	}
	return Target{Host: host, Port: n}, nil
}

// OpenFunc opens a pool for a tenant target.
type OpenFunc func(ctx context.Context, t Target) (*sqlx.DB, error)

type pool struct {
	db       *sqlx.DB
	sessions int // references held by logged-in sessions
	requests int // references held by in-flight requests
}

func (p *pool) idle() bool { return p.sessions == 0 && p.requests == 0 }

// Broker hands out one pool per tenant target.  Requests look their pool
// up by target instead of sharing a process-wide "current" connection, so
// concurrent sessions for different tenants never see each other's data.
// Sessions opened by login and requests in flight each hold a reference;
// the pool is closed only when neither remains.
type Broker struct {
	open OpenFunc

	mu    sync.Mutex
	pools map[Target]*pool
}

// NewBroker returns a Broker that opens pools with open.
func NewBroker(open OpenFunc) *Broker {
	return &Broker{open: open, pools: make(map[Target]*pool)}
}

// NewMySQLBroker opens tenant pools on the tenant reporting database name.
func NewMySQLBroker(cred Credentials, tenantDB string) *Broker {
	return NewBroker(func(ctx context.Context, t Target) (*sqlx.DB, error) {
		return Open(ctx, cred, t.Host, t.Port, tenantDB)
	})
}

// Acquire opens (or reuses) the pool for t and records a session reference.
func (b *Broker) Acquire(ctx context.Context, t Target) (*sqlx.DB, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, err := b.lookupLocked(ctx, t)
	if err != nil {
		return nil, err
	}
	p.sessions++
	return p.db, nil
}

// Borrow returns the pool for t, opening it when needed, and pins it for
// one request.  The pool stays open until done is called, even if every
// session releases it meanwhile.  done may be called more than once.
func (b *Broker) Borrow(ctx context.Context, t Target) (db *sqlx.DB, done func(), err error) {
	b.mu.Lock()
	p, err := b.lookupLocked(ctx, t)
	if err != nil {
		b.mu.Unlock()
		return nil, nil, err
	}
	p.requests++
	b.mu.Unlock()

	var once sync.Once
	return p.db, func() {
		once.Do(func() {
			b.mu.Lock()
			p.requests--
			closing := p.idle() && b.pools[t] == p
			if closing {
				delete(b.pools, t)
			}
			b.mu.Unlock()
			if closing {
				_ = p.db.Close()
			}
		})
	}, nil
}

// Release drops one session reference for t.  The pool is closed once no
// session and no request holds it.  Releasing an unknown target, or one
// with no session reference left, is a no-op.
func (b *Broker) Release(t Target) error {
	b.mu.Lock()
	p, ok := b.pools[t]
	if !ok || p.sessions == 0 {
		b.mu.Unlock()
		return nil
	}
	p.sessions--
	if !p.idle() {
		b.mu.Unlock()
		return nil
	}
	delete(b.pools, t)
	b.mu.Unlock()
	return p.db.Close()
}

// Refs reports the number of session references held on t.
func (b *Broker) Refs(t Target) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := b.pools[t]; ok {
		return p.sessions
	}
	return 0
}

// Pooled reports whether a pool for t is currently open.
func (b *Broker) Pooled(t Target) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.pools[t]
	return ok
}

// Close closes every pool.
func (b *Broker) Close() error {
	b.mu.Lock()
	pools := b.pools
	b.pools = make(map[Target]*pool)
	b.mu.Unlock()
	var errs []error
	for _, p := range pools {
		if err := p.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *Broker) lookupLocked(ctx context.Context, t Target) (*pool, error) {
	if p, ok := b.pools[t]; ok {
		return p, nil
	}
	db, err := b.open(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConnection, t, err)
	}
	p := &pool{db: db}
	b.pools[t] = p
	return p, nil
}
