package pagination

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+1))
	assert.Equal(t, 7, NormalizeLimit(7))
}

func TestParse(t *testing.T) {
	p, err := Parse("", "")
	require.NoError(t, err)
	assert.Equal(t, Params{Page: 1, Limit: DefaultLimit}, p)

	p, err = Parse("3", "10")
	require.NoError(t, err)
	assert.Equal(t, 20, p.Offset())

	_, err = Parse("0", "")
	assert.Error(t, err)
	_, err = Parse("", "x")
	assert.Error(t, err)
}

func TestParseRejectsOverflowingPage(t *testing.T) {
	_, err := Parse("92233720368547760", "100")
	assert.Error(t, err)

	p, err := Parse(strconv.Itoa(MaxPage), strconv.Itoa(MaxLimit))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, p.Offset(), 0)
}

func TestSliceFarBeyondEnd(t *testing.T) {
	page := Slice([]int{1, 2, 3}, Params{Page: math.MaxInt, Limit: MaxLimit})
	assert.Empty(t, page.Items)
	assert.Equal(t, MaxPage, page.Page)
	assert.Equal(t, 3, page.Total)
}

func TestSlice(t *testing.T) {
	all := []int{1, 2, 3, 4, 5}

	page := Slice(all, Params{Page: 2, Limit: 2})
	assert.Equal(t, []int{3, 4}, page.Items)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 3, page.TotalPages)

	last := Slice(all, Params{Page: 3, Limit: 2})
	assert.Equal(t, []int{5}, last.Items)

	beyond := Slice(all, Params{Page: 9, Limit: 2})
	assert.Empty(t, beyond.Items)
	assert.NotNil(t, beyond.Items)
}
