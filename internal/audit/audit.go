// Package audit records action-level audit events. Sinks never fail the
// operation that produced the event: failures are logged and counted.
package audit

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/erazemk/zimmet/internal/metrics"
	"github.com/erazemk/zimmet/internal/model"
	"github.com/erazemk/zimmet/internal/store"
)

// Sink stores or forwards audit events.
type Sink interface {
	Name() string
	Record(ctx context.Context, e model.AuditEvent) error
}

// Recorder fans events out to its sinks.
type Recorder struct {
	sinks   []Sink
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewRecorder returns a recorder writing to sinks. m may be nil.
func NewRecorder(m *metrics.Metrics, sinks ...Sink) *Recorder {
	return &Recorder{sinks: sinks, metrics: m, now: time.Now}
}

// Record assigns the event an ID and timestamp when missing and hands it to
// every sink.
func (r *Recorder) Record(ctx context.Context, e model.AuditEvent) {
	if r == nil {
		return
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = r.now().UTC()
	}
	if e.EntityIDs == nil {
		e.EntityIDs = []int64{}
	}

	for _, sink := range r.sinks {
		if err := sink.Record(ctx, e); err != nil {
			r.metrics.AuditFailure(sink.Name())
			zerolog.Ctx(ctx).Error().Err(err).
				Str("sink", sink.Name()).
				Str("action", e.Action).
				Str("event_id", e.ID).
				Msg("audit event dropped")
		}
	}
}

// DBSink writes events to the audit_log table.
type DBSink struct {
	DB *sql.DB
}

func (DBSink) Name() string { return "db" }

func (s DBSink) Record(ctx context.Context, e model.AuditEvent) error {
	// The event must survive a cancelled request once the action committed.
	return store.InsertAuditEvent(context.WithoutCancel(ctx), s.DB, e)
}
