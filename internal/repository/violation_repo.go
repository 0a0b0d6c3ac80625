package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vitrine-app/vitrine-go/internal/model"
)

// ViolationRepo persists violations to link_violations for moderation review.
// It is an audit trail only; suspension is decided from the in-window ledger.
type ViolationRepo struct {
	pool *pgxpool.Pool
}

func NewViolationRepo(pool *pgxpool.Pool) *ViolationRepo {
	return &ViolationRepo{pool: pool}
}

// SaveViolation inserts v. Replays of the same ID are ignored.
func (r *ViolationRepo) SaveViolation(ctx context.Context, v model.Violation) error {
	query, args, err := psql.Insert("link_violations").
		Columns("id", "user_id", "url", "reason", "created_at").
		Values(v.ID, v.UserID, v.URL, string(v.Reason), v.Timestamp).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build violation insert: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert violation: %w", err)
	}
	return nil
}

// ListByUser returns the user's audited violations newest first.
func (r *ViolationRepo) ListByUser(ctx context.Context, userID string, since time.Time) ([]model.Violation, error) {
	query, args, err := psql.Select("id", "user_id", "url", "reason", "created_at").
		From("link_violations").
		Where("user_id = ?", userID).
		Where("created_at >= ?", since).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build violation query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Violation{}
	for rows.Next() {
		var v model.Violation
		var reason string
		if err := rows.Scan(&v.ID, &v.UserID, &v.URL, &reason, &v.Timestamp); err != nil {
			return nil, err
		}
		v.Reason = model.Reason(reason)
		out = append(out, v)
	}
	return out, rows.Err()
}
