package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/erazemk/zimmet/internal/model"
)

// AppendHistory stores one history entry. Entries are keyed by
// (assignment, seq), so a duplicate sequence number fails.
func AppendHistory(ctx context.Context, q Querier, assignmentID int64, e model.HistoryEntry) error {
	changes, err := json.Marshal(e.Changes)
	if err != nil {
		return fmt.Errorf("encoding history changes: %w", err)
	}

	_, err = q.ExecContext(ctx,
		`INSERT INTO assignment_history (assignment_id, seq, action, at, actor_id, actor_name, registry_version, changes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		assignmentID, e.Seq, e.Action, e.At.UTC(), e.ActorID, nullString(e.ActorName), e.RegistryVersion, string(changes),
	)
	if err != nil {
		return fmt.Errorf("appending history: %w", err)
	}
	return nil
}

// ListHistory returns an assignment's history, oldest first.
func ListHistory(ctx context.Context, q Querier, assignmentID int64) ([]model.HistoryEntry, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT seq, action, at, actor_id, COALESCE(actor_name, ''), registry_version, changes
		 FROM assignment_history WHERE assignment_id = ? ORDER BY seq`, assignmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var history []model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		var changes string
		if err := rows.Scan(&e.Seq, &e.Action, &e.At, &e.ActorID, &e.ActorName, &e.RegistryVersion, &changes); err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}
		if err := json.Unmarshal([]byte(changes), &e.Changes); err != nil {
			return nil, fmt.Errorf("decoding history changes: %w", err)
		}
		history = append(history, e)
	}
	return history, rows.Err()
}
