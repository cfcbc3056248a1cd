package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusClassification(t *testing.T) {
	tests := []struct {
		status Status
		valid  bool
		active bool
	}{
		{StatusPending, true, true},
		{StatusAssigned, true, true},
		{StatusFaulty, true, true},
		{StatusReturned, true, false},
		{StatusScrapped, true, false},
		{Status("lost"), false, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.valid, tt.status.Valid(), "Valid(%q)", tt.status)
		assert.Equal(t, tt.active, tt.status.Active(), "Active(%q)", tt.status)
	}
}

func TestDisplayStatusLabel(t *testing.T) {
	assert.Equal(t, "Boşta", DisplayIdle.Label())
	assert.Equal(t, "Zimmetli", DisplayAssigned.Label())
}
