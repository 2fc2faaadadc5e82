package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker serialises work on a key.  Lock blocks until the key is free or
// ctx is done; the returned func releases the key.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// NewLocker returns a Redis lock when rdb is set, otherwise an in-process
// keyed mutex.  ttl bounds how long a Redis lock outlives a crashed holder.
func NewLocker(rdb *redis.Client, ttl time.Duration) Locker {
	if rdb == nil {
		return NewLocalLocker()
	}
	return &RedisLocker{rdb: rdb, ttl: ttl, retry: 50 * time.Millisecond, prefix: "pos:lock:"}
}

// LocalLocker is a keyed mutex for a single process.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	ch    chan struct{}
	users int
}

func NewLocalLocker() *LocalLocker { return &LocalLocker{slots: make(map[string]*lockSlot)} }

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &lockSlot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.users++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-s.ch
				l.done(key, s)
			})
		}, nil
	case <-ctx.Done():
		l.done(key, s)
		return nil, ctx.Err()
	}
}

func (l *LocalLocker) done(key string, s *lockSlot) {
	l.mu.Lock()
	s.users--
	if s.users == 0 {
		delete(l.slots, key)
	}
	l.mu.Unlock()
}

// RedisLocker holds keys with SET NX PX and a random owner token so that a
// holder only ever deletes its own lock.
type RedisLocker struct {
	rdb    *redis.Client
	ttl    time.Duration
	retry  time.Duration
	prefix string
}

var unlockScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	k := l.prefix + key
	token := uuid.NewString()
	for {
		ok, err := l.rdb.SetNX(ctx, k, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, err
		}
		if ok {
			return func() {
				// The request context may already be cancelled.
				uctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = unlockScript.Run(uctx, l.rdb, []string{k}, token).Err()
			}, nil
		}
		t := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}
