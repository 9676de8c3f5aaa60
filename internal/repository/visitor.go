package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Trinaxus/TON.BAND/internal/model"
)

type VisitorRepository interface {
	// Touch marks the session as seen at now and reports whether it is new.
	Touch(ctx context.Context, sessionID string, now time.Time) (bool, error)
	// Stats counts sessions seen after since as active.
	Stats(ctx context.Context, since time.Time) (model.VisitorStats, error)
}

type visitorRepository struct {
	db *sqlx.DB
}

func NewVisitorRepository(db *sqlx.DB) VisitorRepository {
	return &visitorRepository{db: db}
}

func (r *visitorRepository) Touch(ctx context.Context, sessionID string, now time.Time) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	ts := now.UnixMilli()
	res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE visitor_sessions SET last_seen = ? WHERE session_id = ?`), ts, sessionID)
	if err != nil {
		return false, fmt.Errorf("failed to update visitor session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	isNew := n == 0
	if isNew {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO visitor_sessions (session_id, first_seen, last_seen) VALUES (?, ?, ?)`), sessionID, ts, ts); err != nil {
			return false, fmt.Errorf("failed to insert visitor session: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE visitor_counters SET value = value + 1 WHERE name = 'total_visits'`); err != nil {
			return false, fmt.Errorf("failed to count visit: %w", err)
		}
	}
	return isNew, tx.Commit()
}

func (r *visitorRepository) Stats(ctx context.Context, since time.Time) (model.VisitorStats, error) {
	var stats model.VisitorStats
	if err := r.db.GetContext(ctx, &stats.TotalVisits, `SELECT value FROM visitor_counters WHERE name = 'total_visits'`); err != nil {
		return stats, fmt.Errorf("failed to read visit counter: %w", err)
	}
	query := r.db.Rebind(`SELECT COUNT(*) FROM visitor_sessions WHERE last_seen >= ?`)
	if err := r.db.GetContext(ctx, &stats.ActiveVisitors, query, since.UnixMilli()); err != nil {
		return stats, fmt.Errorf("failed to count active visitors: %w", err)
	}
	return stats, nil
}
