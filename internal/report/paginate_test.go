package report

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginate(t *testing.T) {
	info, err := Paginate(25, 10, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, info.CurrentPage)
	assert.Equal(t, 3, info.TotalPages)
	assert.Equal(t, 25, info.TotalItems)
	assert.Equal(t, 10, info.Start)
	assert.Equal(t, 20, info.End)
	assert.False(t, info.Clamped)

	// Last page is short.
	info, err = Paginate(25, 10, 3)
	require.NoError(t, err)
	assert.Equal(t, 20, info.Start)
	assert.Equal(t, 25, info.End)
}

func TestPaginateClampsOutOfRangePages(t *testing.T) {
	info, err := Paginate(25, 10, 99)
	require.NoError(t, err)
	assert.Equal(t, 3, info.CurrentPage)
	assert.True(t, info.Clamped)
	assert.Equal(t, 20, info.Start)
	assert.Equal(t, 25, info.End)

	info, err = Paginate(25, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, info.CurrentPage)
	assert.True(t, info.Clamped)

	info, err = Paginate(25, 10, -7)
	require.NoError(t, err)
	assert.Equal(t, 1, info.CurrentPage)
}

func TestPaginateEmptyList(t *testing.T) {
	info, err := Paginate(0, 10, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, info.TotalPages)
	assert.Equal(t, 1, info.CurrentPage)
	assert.Equal(t, 0, info.Start)
	assert.Equal(t, 0, info.End)
	assert.False(t, info.Clamped)

	// Page 5 of nothing clamps back to the single empty page.
	info, err = Paginate(0, 10, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, info.CurrentPage)
	assert.True(t, info.Clamped)
}

func TestPaginateExactMultiple(t *testing.T) {
	info, err := Paginate(30, 10, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, info.TotalPages)
	assert.Equal(t, 20, info.Start)
	assert.Equal(t, 30, info.End)
}

func TestPaginateInvalidConfig(t *testing.T) {
	_, err := Paginate(10, 0, 1)
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))

	_, err = Paginate(10, -5, 1)
	assert.Error(t, err)

	_, err = Paginate(-1, 10, 1)
	assert.Error(t, err)
}

// Every item appears on exactly one page.
func TestPaginateCoversAllItems(t *testing.T) {
	const total, size = 47, 10
	info, err := Paginate(total, size, 1)
	require.NoError(t, err)

	seen := 0
	for page := 1; page <= info.TotalPages; page++ {
		p, err := Paginate(total, size, page)
		require.NoError(t, err)
		assert.LessOrEqual(t, p.Start, p.End)
		seen += p.End - p.Start
	}
	assert.Equal(t, total, seen)
}
