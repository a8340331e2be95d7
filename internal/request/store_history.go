package request

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// History returns the audit trail for a request, most recent first.
func (s *Store) History(ctx context.Context, requestID int64) ([]HistoryEntry, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, request_id, changed_field, old_value, new_value, actor_id, change_type, created_at
         FROM request_history WHERE request_id = ? ORDER BY created_at DESC, id DESC`,
		requestID,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		entry, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// PurgeHistoryBefore deletes history entries older than the cutoff. This is
// the only path that removes history; normal operation never mutates entries.
func (s *Store) PurgeHistoryBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM request_history WHERE created_at < ?`,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("purge history: %w", err)
	}
	return res.RowsAffected()
}

func insertHistoryTx(ctx context.Context, tx *sql.Tx, entry HistoryEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO request_history (
            request_id, changed_field, old_value, new_value, actor_id, change_type, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.RequestID,
		entry.ChangedField,
		nullableString(entry.OldValue),
		nullableString(entry.NewValue),
		entry.ActorID,
		entry.ChangeType,
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

func scanHistoryEntry(scanner interface{ Scan(dest ...any) error }) (HistoryEntry, error) {
	var (
		entry      HistoryEntry
		oldValue   sql.NullString
		newValue   sql.NullString
		changeType string
		createdRaw string
	)
	if err := scanner.Scan(
		&entry.ID,
		&entry.RequestID,
		&entry.ChangedField,
		&oldValue,
		&newValue,
		&entry.ActorID,
		&changeType,
		&createdRaw,
	); err != nil {
		return HistoryEntry{}, fmt.Errorf("scan history entry: %w", err)
	}
	entry.OldValue = oldValue.String
	entry.NewValue = newValue.String
	entry.ChangeType = ChangeType(changeType)
	if parsed, err := parseTimeString(createdRaw); err == nil {
		entry.CreatedAt = parsed
	}
	return entry, nil
}
