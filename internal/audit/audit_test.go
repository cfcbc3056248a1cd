package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/zimmet/internal/db"
	"github.com/erazemk/zimmet/internal/metrics"
	"github.com/erazemk/zimmet/internal/model"
	"github.com/erazemk/zimmet/internal/pagination"
	"github.com/erazemk/zimmet/internal/store"
)

type memorySink struct {
	events []model.AuditEvent
	err    error
}

func (*memorySink) Name() string { return "memory" }

func (s *memorySink) Record(_ context.Context, e model.AuditEvent) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, e)
	return nil
}

func TestRecorderFillsIdentity(t *testing.T) {
	sink := &memorySink{}
	r := NewRecorder(nil, sink)
	r.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }

	r.Record(context.Background(), model.AuditEvent{Action: model.AuditAssignmentRejected, EntityType: "assignment"})

	require.Len(t, sink.events, 1)
	e := sink.events[0]
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, 2024, e.At.Year())
	assert.Equal(t, []int64{}, e.EntityIDs)
}

func TestRecorderSwallowsSinkFailures(t *testing.T) {
	var logs bytes.Buffer
	ctx := zerolog.New(&logs).WithContext(context.Background())

	reg := prometheus.NewRegistry()
	failing := &memorySink{err: errors.New("disk full")}
	ok := &memorySink{}
	r := NewRecorder(metrics.New(reg), failing, ok)

	r.Record(ctx, model.AuditEvent{Action: model.AuditItemDeleted, EntityType: "item", EntityIDs: []int64{4}})

	assert.Len(t, ok.events, 1, "later sinks still receive the event")
	assert.Contains(t, logs.String(), "audit event dropped")
	assert.Contains(t, logs.String(), "disk full")

	mfs, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, mf := range mfs {
		if mf.GetName() == "audit_sink_failures_total" {
			found = true
			assert.Equal(t, 1.0, mf.GetMetric()[0].GetCounter().GetValue())
		}
	}
	assert.True(t, found)
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.Record(context.Background(), model.AuditEvent{})
}

func TestDBSink(t *testing.T) {
	database := db.NewTestDB(t)
	r := NewRecorder(nil, DBSink{DB: database})

	r.Record(context.Background(), model.AuditEvent{
		Action: model.AuditAssignmentApproved, EntityType: "assignment", EntityIDs: []int64{1, 2, 3},
	})

	events, total, err := store.ListAuditEvents(context.Background(), database, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, []int64{1, 2, 3}, events[0].EntityIDs)
}

func TestWebhookSink(t *testing.T) {
	var got model.AuditEvent
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sink := NewWebhookSink(srv.URL, "secret", time.Second)
	err := sink.Record(context.Background(), model.AuditEvent{
		ID: "e1", Action: model.AuditFormUploaded, EntityType: "form", EntityIDs: []int64{},
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "e1", got.ID)
	assert.Equal(t, model.AuditFormUploaded, got.Action)
}

func TestWebhookSinkReportsServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	sink := NewWebhookSink(srv.URL, "", time.Second)
	err := sink.Record(context.Background(), model.AuditEvent{ID: "e1"})
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "client errors are not retried")
}
