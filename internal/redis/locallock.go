package redisclient

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/karmaclinic/clinic-scheduling/internal/timeslot"
)

// localLocker is an in-process Locker for single-instance use: the seed
// command and the test suites, where a Redis round trip buys nothing.
type localLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLocalLocker() Locker {
	return &localLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *localLocker) WithScheduleLock(ctx context.Context, practitionerID uuid.UUID, date timeslot.CalendarDate, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("%s:%s", practitionerID.String(), date.String())

	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()

	return fn(ctx)
}
