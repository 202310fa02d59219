package tracking

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikkiricks/forgotten/internal/retention"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:", 90*24*time.Hour, nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateAndGetStatus(t *testing.T) {
	store := newTestStore(t)

	n, err := store.Create([]string{"linkedin", "facebook"}, 30)
	require.NoError(t, err)

	rec, err := store.GetStatus(n)
	require.NoError(t, err)
	assert.Equal(t, n, rec.TrackingNumber)
	assert.Equal(t, StatusSubmitted, rec.Status)
	assert.Len(t, rec.Platforms, 2)
	assert.Len(t, rec.History, 1)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), rec.EstimatedCompletion, time.Minute)
}

func TestGetStatusNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetStatus("FRG-0000-0000-0000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatusAppendsHistory(t *testing.T) {
	store := newTestStore(t)

	n, err := store.Create([]string{"linkedin"}, 14)
	require.NoError(t, err)

	require.NoError(t, store.UpdateStatus(n, StatusProcessing, "platform acknowledged the request"))
	require.NoError(t, store.UpdateStatus(n, StatusCompleted, "account removed"))

	rec, err := store.GetStatus(n)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, rec.Status)
	require.Len(t, rec.History, 3)
	assert.Equal(t, StatusSubmitted, rec.History[0].Status)
	assert.Equal(t, StatusProcessing, rec.History[1].Status)
	assert.Equal(t, StatusCompleted, rec.History[2].Status)
}

func TestUpdatePlatformStatusDerivesAggregate(t *testing.T) {
	store := newTestStore(t)

	n, err := store.Create([]string{"linkedin", "facebook"}, 30)
	require.NoError(t, err)

	require.NoError(t, store.UpdatePlatformStatus(n, "linkedin", StatusCompleted, "account removed"))
	rec, err := store.GetStatus(n)
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, rec.Status, "one completed, one submitted stays submitted")

	require.NoError(t, store.UpdatePlatformStatus(n, "facebook", StatusFailed, "documents rejected"))
	rec, err = store.GetStatus(n)
	require.NoError(t, err)
	assert.Equal(t, StatusActionRequired, rec.Status)

	require.NoError(t, store.UpdatePlatformStatus(n, "facebook", StatusCompleted, "resubmitted and accepted"))
	rec, err = store.GetStatus(n)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, rec.Status)

	// Platform messages are prefixed and aggregate transitions are recorded.
	var messages []string
	for _, h := range rec.History {
		messages = append(messages, h.Message)
	}
	assert.Contains(t, messages, "linkedin: account removed")
	assert.Contains(t, messages, "Overall status updated")
}

func TestUpdatePlatformStatusUnknownPlatform(t *testing.T) {
	store := newTestStore(t)

	n, err := store.Create([]string{"linkedin"}, 14)
	require.NoError(t, err)

	err = store.UpdatePlatformStatus(n, "instagram", StatusCompleted, "done")
	assert.Error(t, err)
}

func TestLazyExpiry(t *testing.T) {
	store := newTestStore(t)

	n, err := store.Create([]string{"linkedin"}, 14)
	require.NoError(t, err)

	store.now = func() time.Time { return time.Now().Add(91 * 24 * time.Hour) }

	_, err = store.GetStatus(n)
	assert.ErrorIs(t, err, ErrNotFound, "expired record reads as absent")

	// The read physically deleted the row; a fresh clock still finds nothing.
	store.now = time.Now
	_, err = store.GetStatus(n)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSweepExpired(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Create([]string{"linkedin"}, 14)
	require.NoError(t, err)
	kept, err := store.Create([]string{"facebook"}, 30)
	require.NoError(t, err)

	// Age only the first record by rewriting its expiry.
	_, err = store.db.Exec(
		"UPDATE tracking_records SET expires_at = ? WHERE tracking_number != ?",
		time.Now().Add(-time.Hour).Unix(), kept,
	)
	require.NoError(t, err)

	removed, err := store.SweepExpired()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	removed, err = store.SweepExpired()
	require.NoError(t, err)
	assert.Equal(t, 0, removed, "sweep is idempotent")

	_, err = store.GetStatus(kept)
	assert.NoError(t, err)
}

func TestMigrateFromLegacyRoundTrip(t *testing.T) {
	store := newTestStore(t)

	legacy := LegacyRecord{
		ConfirmationID: "DDR-2019-0042",
		CreatedAt:      time.Now().AddDate(0, 0, -10),
		ProfileURLs: map[string]string{
			"linkedin": "https://www.linkedin.com/in/someone",
			"youtube":  "https://www.youtube.com/@someone",
		},
		EstimatedDays: 21,
	}

	n, err := store.MigrateFromLegacy(legacy)
	require.NoError(t, err)

	rec, err := store.FindByLegacyID("DDR-2019-0042")
	require.NoError(t, err)
	assert.Equal(t, n, rec.TrackingNumber)
	assert.True(t, rec.MigratedFromLegacy)
	assert.Equal(t, "DDR-2019-0042", rec.LegacyConfirmationID)
	assert.Equal(t, StatusProcessing, rec.Status)

	var names []string
	for _, p := range rec.Platforms {
		names = append(names, p.Name)
	}
	assert.ElementsMatch(t, []string{"linkedin", "youtube"}, names)
}

func TestPrivacyLogRecordsTrackingAccesses(t *testing.T) {
	dir := t.TempDir()
	plog, err := retention.NewPrivacyLog(dir, 365*24*time.Hour)
	require.NoError(t, err)
	store, err := NewStore(":memory:", 90*24*time.Hour, plog)
	require.NoError(t, err)
	defer store.Close()

	n, err := store.Create([]string{"linkedin"}, 14)
	require.NoError(t, err)
	_, err = store.GetStatus(n)
	require.NoError(t, err)
	require.NoError(t, store.UpdateStatus(n, StatusProcessing, "platform acknowledged"))

	store.now = func() time.Time { return time.Now().Add(91 * 24 * time.Hour) }
	_, err = store.GetStatus(n)
	require.ErrorIs(t, err, ErrNotFound)

	entries := readAuditEntries(t, dir)
	require.Len(t, entries, 5)

	assert.Equal(t, retention.ActionStore, entries[0].Action)
	assert.Equal(t, retention.ActionRead, entries[1].Action)
	assert.Equal(t, retention.ActionStore, entries[2].Action)
	assert.Equal(t, "status_update", entries[2].Reason)
	assert.Equal(t, retention.ActionDelete, entries[3].Action)
	assert.Equal(t, retention.ReasonExpired, entries[3].Reason)
	assert.Equal(t, retention.ActionRead, entries[4].Action)
	assert.False(t, entries[4].Success, "the expired read is audited as a miss")

	for _, e := range entries {
		assert.Equal(t, n, e.RecordID)
		assert.Equal(t, "tracking", e.Store)
	}
}

func TestPrivacyLogRecordsSweepDeletions(t *testing.T) {
	dir := t.TempDir()
	plog, err := retention.NewPrivacyLog(dir, 365*24*time.Hour)
	require.NoError(t, err)
	store, err := NewStore(":memory:", 90*24*time.Hour, plog)
	require.NoError(t, err)
	defer store.Close()

	n, err := store.Create([]string{"facebook"}, 30)
	require.NoError(t, err)

	store.now = func() time.Time { return time.Now().Add(91 * 24 * time.Hour) }
	removed, err := store.SweepExpired()
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	entries := readAuditEntries(t, dir)
	last := entries[len(entries)-1]
	assert.Equal(t, retention.ActionDelete, last.Action)
	assert.Equal(t, retention.ReasonExpired, last.Reason)
	assert.Equal(t, n, last.RecordID)
}

func readAuditEntries(t *testing.T, dir string) []retention.Entry {
	t.Helper()
	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	var entries []retention.Entry
	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(dir, f.Name()))
		require.NoError(t, err)
		for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
			if line == "" {
				continue
			}
			var e retention.Entry
			require.NoError(t, json.Unmarshal([]byte(line), &e))
			entries = append(entries, e)
		}
	}
	return entries
}

func TestFindByLegacyIDNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.FindByLegacyID("DDR-0000-0000")
	assert.ErrorIs(t, err, ErrNotFound)
}
