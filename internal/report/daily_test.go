package report

import (
	"math/rand"
	"testing"

	"github.com/adlens/insight/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateDaily(t *testing.T) {
	records := []models.ReportRecord{
		rec("2024-01-02", "A", "c1", 100, 0, 10, 50),
		rec("2024-01-01", "A", "c1", 200, 0, 20, 80),
		rec("2024-01-02", "B", "c2", 300, 0, 30, 120),
	}

	rows := AggregateDaily(records)
	require.Len(t, rows, 2)

	assert.Equal(t, day("2024-01-01"), rows[0].Date)
	assert.Equal(t, 200.0, rows[0].Impressions)
	assert.Equal(t, 20.0, rows[0].Spend)
	assert.Equal(t, 80.0, rows[0].Sales)

	assert.Equal(t, day("2024-01-02"), rows[1].Date)
	assert.Equal(t, 400.0, rows[1].Impressions)
	assert.Equal(t, 40.0, rows[1].Spend)
	assert.Equal(t, 170.0, rows[1].Sales)
}

func TestAggregateDailyOrderIndependent(t *testing.T) {
	records := []models.ReportRecord{
		rec("2024-01-03", "A", "c1", 1, 0, 1, 1),
		rec("2024-01-01", "B", "c1", 2, 0, 2, 2),
		rec("2024-01-02", "C", "c1", 3, 0, 3, 3),
		rec("2024-01-01", "D", "c1", 4, 0, 4, 4),
		rec("2024-01-03", "E", "c1", 5, 0, 5, 5),
	}

	want := AggregateDaily(records)

	shuffled := append([]models.ReportRecord(nil), records...)
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, AggregateDaily(shuffled))
	}
}

// Splitting the input and summing the partial aggregates must equal
// aggregating the whole input at once.
func TestAggregateDailyPartitionMerge(t *testing.T) {
	records := []models.ReportRecord{
		rec("2024-01-01", "A", "c1", 10, 0, 1, 5),
		rec("2024-01-01", "B", "c2", 20, 0, 2, 6),
		rec("2024-01-02", "A", "c1", 30, 0, 3, 7),
		rec("2024-01-02", "B", "c2", 40, 0, 4, 8),
	}

	whole := AggregateDaily(records)
	left := AggregateDaily(records[:2])
	right := AggregateDaily(records[2:])

	merged := make(map[string]DailyRow)
	for _, row := range append(left, right...) {
		key := row.Date.Format("2006-01-02")
		acc := merged[key]
		acc.Date = row.Date
		acc.Impressions += row.Impressions
		acc.Spend += row.Spend
		acc.Sales += row.Sales
		merged[key] = acc
	}

	require.Len(t, whole, len(merged))
	for _, row := range whole {
		assert.Equal(t, merged[row.Date.Format("2006-01-02")], row)
	}
}

func TestAggregateDailyEmptyInput(t *testing.T) {
	rows := AggregateDaily(nil)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}
