package service

import (
	"context"
	"testing"
	"time"

	"github.com/vitrine-app/vitrine-go/internal/model"
)

func TestMemoryLedger_PrunesOnEveryCall(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	t0 := time.Date(2025, time.January, 10, 12, 0, 0, 0, time.UTC)

	for i, ts := range []time.Time{t0, t0.Add(time.Hour), t0.Add(2 * time.Hour)} {
		v := model.Violation{ID: string(rune('a' + i)), UserID: "u1", Reason: model.ReasonShortenerBlocked, Timestamp: ts}
		if err := l.Record(ctx, v, t0.Add(-ViolationWindow)); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	tests := []struct {
		name   string
		cutoff time.Time
		want   int
	}{
		{"all in window", t0.Add(-time.Second), 3},
		{"cutoff equal to timestamp prunes it", t0, 2},
		{"later cutoff", t0.Add(90 * time.Minute), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := l.CountSince(ctx, "u1", tt.cutoff)
			if err != nil {
				t.Fatalf("CountSince: %v", err)
			}
			if n != tt.want {
				t.Errorf("CountSince = %d, want %d", n, tt.want)
			}
		})
	}

	// Pruning is destructive: the earlier entries are gone for good.
	all, err := l.Since(ctx, t0.Add(-ViolationWindow))
	if err != nil {
		t.Fatalf("Since: %v", err)
	}
	if len(all) != 1 || all[0].ID != "c" {
		t.Errorf("Since = %+v, want only the newest violation", all)
	}
}

func TestMemoryLedger_CountsPerUser(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	now := time.Now()
	cutoff := now.Add(-ViolationWindow)

	for _, u := range []string{"u1", "u2", "u1"} {
		if err := l.Record(ctx, model.Violation{UserID: u, Timestamp: now}, cutoff); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if n, _ := l.CountSince(ctx, "u1", cutoff); n != 2 {
		t.Errorf("u1 = %d, want 2", n)
	}
	if n, _ := l.CountSince(ctx, "u3", cutoff); n != 0 {
		t.Errorf("u3 = %d, want 0", n)
	}
}
