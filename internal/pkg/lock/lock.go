package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotAcquired is returned when another holder owns the key.
var ErrNotAcquired = errors.New("lock is held by another owner")

// Locker grants exclusive, expiring ownership of a key.
type Locker interface {
	// Acquire returns a release func, or ErrNotAcquired when the key is taken.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

// MemoryLocker is a process-local Locker used when redis is disabled.
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]memoryLease
	now   func() time.Time
	token uint64
}

type memoryLease struct {
	token     uint64
	expiresAt time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		held: make(map[string]memoryLease),
		now:  time.Now,
	}
}

func (l *MemoryLocker) Acquire(_ context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if lease, ok := l.held[key]; ok && now.Before(lease.expiresAt) {
		return nil, ErrNotAcquired
	}

	l.token++
	token := l.token
	l.held[key] = memoryLease{token: token, expiresAt: now.Add(ttl)}

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		// An expired lease may already belong to someone else.
		if lease, ok := l.held[key]; ok && lease.token == token {
			delete(l.held, key)
		}
		return nil
	}, nil
}
