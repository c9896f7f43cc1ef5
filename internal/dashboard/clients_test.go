package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyHandshake(t *testing.T) {
	now := time.Date(2024, 6, 11, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		last time.Time
		want ConnectionStatus
	}{
		{"just now", now.Add(-time.Minute), StatusOK},
		{"59 minutes", now.Add(-59 * time.Minute), StatusOK},
		{"2 hours", now.Add(-2 * time.Hour), StatusStale},
		{"23 hours", now.Add(-23 * time.Hour), StatusStale},
		{"25 hours", now.Add(-25 * time.Hour), StatusOffline},
		{"never", time.Time{}, StatusOffline},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyHandshake(tc.last, now))
		})
	}
}
