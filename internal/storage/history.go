package storage

import (
	"context"
	"database/sql"
	"time"
)

// OutcomeRecord is one row of the action history.
type OutcomeRecord struct {
	ID           int64     `json:"id"`
	Family       string    `json:"family"`
	DeviceID     string    `json:"device_id"`
	Action       string    `json:"action"`
	Outcome      string    `json:"outcome"`
	Success      bool      `json:"success"`
	MessageKey   string    `json:"message_key"`
	State        *int      `json:"state,omitempty"`
	Mode         *int      `json:"mode,omitempty"`
	PollAttempts int       `json:"poll_attempts"`
	CreatedAt    time.Time `json:"created_at"`
}

// InsertOutcome appends one verification outcome.
func (r *Repository) InsertOutcome(ctx context.Context, rec OutcomeRecord) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO action_history (family, device_id, action, outcome, success, message_key, state, mode, poll_attempts, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Family,
		rec.DeviceID,
		rec.Action,
		rec.Outcome,
		rec.Success,
		rec.MessageKey,
		fromIntPtr(rec.State),
		fromIntPtr(rec.Mode),
		rec.PollAttempts,
		createdAt.Format(time.RFC3339Nano),
	)
	return err
}

// ListRecent returns up to limit history rows, newest first.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]OutcomeRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, family, device_id, action, outcome, success, message_key, state, mode, poll_attempts, created_at
		FROM action_history
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []OutcomeRecord{}
	for rows.Next() {
		var (
			rec         OutcomeRecord
			state, mode sql.NullInt64
			createdAt   string
		)
		if err := rows.Scan(&rec.ID, &rec.Family, &rec.DeviceID, &rec.Action, &rec.Outcome, &rec.Success, &rec.MessageKey, &state, &mode, &rec.PollAttempts, &createdAt); err != nil {
			return nil, err
		}
		rec.State = toIntPtr(state)
		rec.Mode = toIntPtr(mode)
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			rec.CreatedAt = ts.UTC()
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// Prune keeps the newest keep rows and deletes the rest.
func (r *Repository) Prune(ctx context.Context, keep int) error {
	if keep <= 0 {
		return nil
	}
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM action_history
		WHERE id NOT IN (SELECT id FROM action_history ORDER BY id DESC LIMIT ?)`, keep)
	if err != nil {
		return err
	}
	if removed, _ := res.RowsAffected(); removed > 0 && r.logger != nil {
		r.logger.Debug("pruned action history", "rows", removed)
	}
	return nil
}

func toIntPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	value := int(v.Int64)
	return &value
}

func fromIntPtr(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
