package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/strudel-live/backend/internal/model"
)

// HistoryRepository provides data access for the command history: patterns
// sent, stop signals, and evaluation errors reported by tabs.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Record appends a history record. The record's CreatedAt is set if zero.
func (r *HistoryRepository) Record(ctx context.Context, rec *model.PlayRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO play_history (session_id, kind, code, description, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		rec.SessionID,
		rec.Kind,
		rec.Code,
		rec.Description,
		rec.Error,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record history entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get record id: %w", err)
	}
	rec.ID = id

	return nil
}

// ListBySession retrieves the most recent records for a session, newest first.
func (r *HistoryRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]*model.PlayRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, session_id, kind, code, description, error, created_at
		FROM play_history
		WHERE session_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// RecentErrors retrieves the most recent evaluation-error records across all
// sessions, newest first.
func (r *HistoryRepository) RecentErrors(ctx context.Context, limit int) ([]*model.PlayRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, session_id, kind, code, description, error, created_at
		FROM play_history
		WHERE kind = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, model.EventKindEvalError, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list errors: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// CountBySession returns the number of history records for a session.
func (r *HistoryRepository) CountBySession(ctx context.Context, sessionID string) (int, error) {
	query := `SELECT COUNT(*) FROM play_history WHERE session_id = ?`

	var count int
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}

	return count, nil
}

// GetByID retrieves one history record.
func (r *HistoryRepository) GetByID(ctx context.Context, id int64) (*model.PlayRecord, error) {
	query := `
		SELECT id, session_id, kind, code, description, error, created_at
		FROM play_history
		WHERE id = ?
	`

	rec := &model.PlayRecord{}
	var code, description, errMsg sql.NullString

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID,
		&rec.SessionID,
		&rec.Kind,
		&code,
		&description,
		&errMsg,
		&rec.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, model.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	rec.Code = code.String
	rec.Description = description.String
	rec.Error = errMsg.String

	return rec, nil
}

// scanRecords reads all rows into history records.
func scanRecords(rows *sql.Rows) ([]*model.PlayRecord, error) {
	var records []*model.PlayRecord
	for rows.Next() {
		rec := &model.PlayRecord{}
		var code, description, errMsg sql.NullString

		err := rows.Scan(
			&rec.ID,
			&rec.SessionID,
			&rec.Kind,
			&code,
			&description,
			&errMsg,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		rec.Code = code.String
		rec.Description = description.String
		rec.Error = errMsg.String

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	return records, nil
}
