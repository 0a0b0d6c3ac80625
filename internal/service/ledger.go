package service

import (
	"context"
	"sync"
	"time"

	"github.com/vitrine-app/vitrine-go/internal/model"
)

// ViolationLedger stores violations for the trailing window. Implementations
// prune entries at or before cutoff as a side effect of every call; there is
// no background sweep.
type ViolationLedger interface {
	Record(ctx context.Context, v model.Violation, cutoff time.Time) error
	CountSince(ctx context.Context, userID string, cutoff time.Time) (int, error)
	Since(ctx context.Context, cutoff time.Time) ([]model.Violation, error)
}

// MemoryLedger is a process-local ledger. Each call is O(n) over the whole log.
type MemoryLedger struct {
	mu         sync.Mutex
	violations []model.Violation
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

// Record appends v and prunes expired entries for every user.
func (l *MemoryLedger) Record(_ context.Context, v model.Violation, cutoff time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.violations = append(l.violations, v)
	l.pruneLocked(cutoff)
	return nil
}

// CountSince counts the user's violations newer than cutoff.
func (l *MemoryLedger) CountSince(_ context.Context, userID string, cutoff time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked(cutoff)
	n := 0
	for _, v := range l.violations {
		if v.UserID == userID {
			n++
		}
	}
	return n, nil
}

// Since returns a copy of all violations newer than cutoff.
func (l *MemoryLedger) Since(_ context.Context, cutoff time.Time) ([]model.Violation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked(cutoff)
	out := make([]model.Violation, len(l.violations))
	copy(out, l.violations)
	return out, nil
}

func (l *MemoryLedger) pruneLocked(cutoff time.Time) {
	kept := l.violations[:0]
	for _, v := range l.violations {
		if v.Timestamp.After(cutoff) {
			kept = append(kept, v)
		}
	}
	clear(l.violations[len(kept):])
	l.violations = kept
}
