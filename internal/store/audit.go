package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/erazemk/zimmet/internal/model"
	"github.com/erazemk/zimmet/internal/pagination"
)

// InsertAuditEvent stores an audit event.
func InsertAuditEvent(ctx context.Context, q Querier, e model.AuditEvent) error {
	ids, err := json.Marshal(e.EntityIDs)
	if err != nil {
		return fmt.Errorf("encoding audit entity ids: %w", err)
	}

	_, err = q.ExecContext(ctx,
		`INSERT INTO audit_log (id, at, actor_id, actor_name, action, entity_type, entity_ids, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.At.UTC(), e.ActorID, nullString(e.ActorName), e.Action, e.EntityType, string(ids), nullString(e.Detail),
	)
	if err != nil {
		return fmt.Errorf("inserting audit event: %w", err)
	}
	return nil
}

// ListAuditEvents returns one page of audit events, newest first, and the
// total count.
func ListAuditEvents(ctx context.Context, q Querier, p pagination.Params) ([]model.AuditEvent, int, error) {
	var total int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_log`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting audit events: %w", err)
	}

	p = p.Normalize()
	rows, err := q.QueryContext(ctx,
		`SELECT id, at, actor_id, COALESCE(actor_name, ''), action, entity_type, entity_ids, COALESCE(detail, '')
		 FROM audit_log ORDER BY at DESC, rowid DESC LIMIT ? OFFSET ?`,
		p.Limit, p.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing audit events: %w", err)
	}
	defer rows.Close()

	var events []model.AuditEvent
	for rows.Next() {
		var e model.AuditEvent
		var ids string
		if err := rows.Scan(&e.ID, &e.At, &e.ActorID, &e.ActorName, &e.Action, &e.EntityType, &ids, &e.Detail); err != nil {
			return nil, 0, fmt.Errorf("scanning audit event: %w", err)
		}
		if err := json.Unmarshal([]byte(ids), &e.EntityIDs); err != nil {
			return nil, 0, fmt.Errorf("decoding audit entity ids: %w", err)
		}
		events = append(events, e)
	}
	return events, total, rows.Err()
}
