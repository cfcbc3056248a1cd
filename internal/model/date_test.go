package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateComparesByCalendarValue(t *testing.T) {
	plain, err := ParseDate("2024-03-05")
	require.NoError(t, err)

	stamped, err := ParseDate("2024-03-05T17:45:00Z")
	require.NoError(t, err)

	assert.Equal(t, plain, stamped)
	assert.Equal(t, "2024-03-05", stamped.String())
}

func TestParseDateInvalid(t *testing.T) {
	_, err := ParseDate("05/03/2024")
	assert.Error(t, err)
}

func TestDateJSON(t *testing.T) {
	var payload struct {
		Returned Date `json:"returnDate"`
		Assigned Date `json:"assignmentDate"`
	}
	err := json.Unmarshal([]byte(`{"returnDate":null,"assignmentDate":"2023-12-31"}`), &payload)
	require.NoError(t, err)

	assert.True(t, payload.Returned.IsZero())
	assert.Equal(t, NewDate(2023, time.December, 31), payload.Assigned)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"returnDate":null,"assignmentDate":"2023-12-31"}`, string(out))
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan("2022-01-02"))
	assert.Equal(t, NewDate(2022, time.January, 2), d)

	require.NoError(t, d.Scan(time.Date(2022, time.May, 9, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, NewDate(2022, time.May, 9), d)

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan(42))
}

func TestDateOrdering(t *testing.T) {
	a := NewDate(2024, time.January, 1)
	b := NewDate(2024, time.January, 2)
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.False(t, a.After(a))
}
