package tracking

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTrackingNumber(t *testing.T) {
	format := regexp.MustCompile(`^FRG-[0-9A-F]{4}-[0-9A-F]{4}-[0-9A-F]{4}$`)

	seen := make(map[string]bool, 1000)
	for i := 0; i < 1000; i++ {
		n, err := NewTrackingNumber()
		require.NoError(t, err)
		assert.Regexp(t, format, n)
		assert.False(t, seen[n], "duplicate tracking number %s", n)
		seen[n] = true
	}
}

func TestAggregateStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"all completed", []Status{StatusCompleted, StatusCompleted}, StatusCompleted},
		{"any failed wins over completed", []Status{StatusCompleted, StatusFailed}, StatusActionRequired},
		{"failed wins over processing", []Status{StatusProcessing, StatusFailed}, StatusActionRequired},
		{"any processing", []Status{StatusProcessing, StatusSubmitted}, StatusProcessing},
		{"all submitted", []Status{StatusSubmitted, StatusSubmitted}, StatusSubmitted},
		{"single completed", []Status{StatusCompleted}, StatusCompleted},
		{"empty list", nil, StatusSubmitted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			platforms := make([]PlatformStatus, len(tt.statuses))
			for i, s := range tt.statuses {
				platforms[i] = PlatformStatus{Name: "p", Status: s}
			}
			assert.Equal(t, tt.want, AggregateStatus(platforms))
		})
	}
}

func TestLegacyRecordPlatforms(t *testing.T) {
	legacy := LegacyRecord{
		ConfirmationID: "DDR-123",
		CreatedAt:      time.Now(),
		ProfileURLs: map[string]string{
			"linkedin":  "https://www.linkedin.com/in/someone",
			"facebook":  "https://www.facebook.com/someone",
			"instagram": "  ",
			"youtube":   "",
		},
	}
	assert.Equal(t, []string{"facebook", "linkedin"}, legacy.Platforms())
}
