package assignment

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/zimmet/internal/model"
)

func TestDisplayStatusPriority(t *testing.T) {
	tests := []struct {
		name     string
		statuses []model.Status
		want     model.DisplayStatus
	}{
		{"no assignments", nil, model.DisplayIdle},
		{"only returned", []model.Status{model.StatusReturned, model.StatusReturned}, model.DisplayIdle},
		{"scrapped", []model.Status{model.StatusReturned, model.StatusScrapped}, model.DisplayScrapped},
		{"pending beats scrapped", []model.Status{model.StatusScrapped, model.StatusPending}, model.DisplayPending},
		{"faulty beats pending", []model.Status{model.StatusPending, model.StatusFaulty}, model.DisplayFaulty},
		{"assigned beats all", []model.Status{model.StatusFaulty, model.StatusReturned, model.StatusAssigned, model.StatusPending}, model.DisplayAssigned},
		{"unknown ignored", []model.Status{model.Status("lost")}, model.DisplayIdle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayStatus(tt.statuses))
		})
	}
}

func TestDisplayStatusIsOrderIndependent(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		n := r.Intn(6)
		statuses := make([]model.Status, n)
		for j := range statuses {
			statuses[j] = model.Statuses[r.Intn(len(model.Statuses))]
		}
		want := DisplayStatus(statuses)

		shuffled := append([]model.Status(nil), statuses...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		require.Equal(t, want, DisplayStatus(shuffled))
	}
}

func TestDisplayStatuses(t *testing.T) {
	got := DisplayStatuses([]int64{1, 2}, map[int64][]model.Status{
		1: {model.StatusAssigned},
	})
	assert.Equal(t, map[int64]model.DisplayStatus{1: model.DisplayAssigned, 2: model.DisplayIdle}, got)
}
