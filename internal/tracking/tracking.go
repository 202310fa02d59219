// Package tracking converts submission outcomes into privacy-minimal tracking
// records addressable by an opaque tracking number, with append-only status
// history and a fixed retention window.
package tracking

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Status values for records and per-platform sub-records.
type Status string

const (
	StatusSubmitted      Status = "submitted"
	StatusProcessing     Status = "processing"
	StatusCompleted      Status = "completed"
	StatusFailed         Status = "failed"
	StatusActionRequired Status = "action_required"
)

// ErrNotFound is returned for absent and expired records alike; the two are
// never distinguished externally.
var ErrNotFound = errors.New("tracking record not found")

// HistoryEntry is one append-only status transition.
type HistoryEntry struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// PlatformStatus tracks one originally selected platform.
type PlatformStatus struct {
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	UpdatedAt time.Time `json:"lastUpdated"`
}

// Record is the stored tracking state. Contains no personal data: platform
// names, statuses, and timestamps only.
type Record struct {
	TrackingNumber       string           `json:"trackingNumber"`
	Status               Status           `json:"status"`
	History              []HistoryEntry   `json:"statusHistory"`
	Platforms            []PlatformStatus `json:"platforms"`
	SubmittedAt          time.Time        `json:"submittedAt"`
	UpdatedAt            time.Time        `json:"lastUpdated"`
	EstimatedCompletion  time.Time        `json:"estimatedCompletion"`
	ExpiresAt            time.Time        `json:"expiresAt"`
	LegacyConfirmationID string           `json:"legacyConfirmationId,omitempty"`
	MigratedFromLegacy   bool             `json:"migratedFromLegacy,omitempty"`
}

// LegacyRecord is the old confirmation-id scheme: one confirmation id and the
// deceased's profile URLs keyed by platform.
type LegacyRecord struct {
	ConfirmationID string
	CreatedAt      time.Time
	ProfileURLs    map[string]string
	EstimatedDays  int
}

// Platforms returns the legacy record's platform list: the keys that carry a
// profile URL, sorted for determinism.
func (l LegacyRecord) Platforms() []string {
	names := make([]string, 0, len(l.ProfileURLs))
	for name, url := range l.ProfileURLs {
		if strings.TrimSpace(url) != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// NewTrackingNumber generates an opaque FRG-XXXX-XXXX-XXXX identifier from a
// cryptographically random source. No sequential or timestamp component.
func NewTrackingNumber() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("tracking number entropy: %w", err)
	}
	hexStr := strings.ToUpper(hex.EncodeToString(buf))
	return fmt.Sprintf("FRG-%s-%s-%s", hexStr[0:4], hexStr[4:8], hexStr[8:12]), nil
}

// AggregateStatus derives the overall status from the per-platform statuses.
// Evaluated on every platform-status update.
func AggregateStatus(platforms []PlatformStatus) Status {
	if len(platforms) == 0 {
		return StatusSubmitted
	}
	completed := 0
	anyFailed := false
	anyProcessing := false
	for _, p := range platforms {
		switch p.Status {
		case StatusCompleted:
			completed++
		case StatusFailed:
			anyFailed = true
		case StatusProcessing:
			anyProcessing = true
		}
	}
	switch {
	case completed == len(platforms):
		return StatusCompleted
	case anyFailed:
		return StatusActionRequired
	case anyProcessing:
		return StatusProcessing
	default:
		return StatusSubmitted
	}
}
