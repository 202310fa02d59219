package tracking

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/nikkiricks/forgotten/internal/logging"
	"github.com/nikkiricks/forgotten/internal/retention"
)

const storeName = "tracking"

// Store persists tracking records in SQLite. The store-level mutex makes each
// read-modify-write atomic with respect to concurrent writers of the same
// record, preserving the append-only history invariant. Every store, read,
// and delete is appended to the privacy log.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	window time.Duration
	plog   *retention.PrivacyLog
	log    *zap.SugaredLogger
	now    func() time.Time
}

// NewStore opens (or creates) the tracking database. The window is the fixed
// retention offset applied to every record at creation time. The privacy log
// may be nil.
func NewStore(path string, window time.Duration, plog *retention.PrivacyLog) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open tracking database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			logging.Get(logging.CategoryTracking).Debugw("pragma failed", "pragma", pragma, "error", err)
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS tracking_records (
		tracking_number TEXT PRIMARY KEY,
		record TEXT NOT NULL,
		expires_at INTEGER NOT NULL,
		legacy_confirmation_id TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_tracking_expires ON tracking_records(expires_at);
	CREATE INDEX IF NOT EXISTS idx_tracking_legacy ON tracking_records(legacy_confirmation_id);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize tracking schema: %w", err)
	}

	return &Store{
		db:     db,
		window: window,
		plog:   plog,
		log:    logging.Get(logging.CategoryTracking),
		now:    time.Now,
	}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create opens a new tracking record for the given platforms and returns its
// tracking number.
func (s *Store) Create(platforms []string, estimatedDays int) (string, error) {
	trackingNumber, err := NewTrackingNumber()
	if err != nil {
		return "", err
	}

	now := s.now()
	rec := &Record{
		TrackingNumber: trackingNumber,
		Status:         StatusSubmitted,
		History: []HistoryEntry{{
			Status:    StatusSubmitted,
			Timestamp: now,
			Message:   "Request received and submitted to the selected platforms",
		}},
		SubmittedAt:         now,
		UpdatedAt:           now,
		EstimatedCompletion: now.AddDate(0, 0, estimatedDays),
		ExpiresAt:           now.Add(s.window),
	}
	for _, name := range platforms {
		rec.Platforms = append(rec.Platforms, PlatformStatus{
			Name:      name,
			Status:    StatusSubmitted,
			UpdatedAt: now,
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.insert(rec); err != nil {
		return "", err
	}
	s.audit(retention.ActionStore, trackingNumber, "", true)
	s.log.Infow("tracking record created", "trackingNumber", trackingNumber, "platforms", len(platforms))
	return trackingNumber, nil
}

// GetStatus returns the record for a tracking number. Expired records are
// physically deleted and reported as not found.
func (s *Store) GetStatus(trackingNumber string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.getLocked(trackingNumber)
	s.audit(retention.ActionRead, trackingNumber, "", err == nil)
	return rec, err
}

// UpdateStatus appends a status transition to the record's history.
func (s *Store) UpdateStatus(trackingNumber string, status Status, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.getLocked(trackingNumber)
	if err != nil {
		return err
	}
	now := s.now()
	rec.Status = status
	rec.UpdatedAt = now
	rec.History = append(rec.History, HistoryEntry{Status: status, Timestamp: now, Message: message})
	if err := s.update(rec); err != nil {
		return err
	}
	s.audit(retention.ActionStore, trackingNumber, "status_update", true)
	return nil
}

// UpdatePlatformStatus updates one platform sub-record, appends to history,
// and re-derives the aggregate status.
func (s *Store) UpdatePlatformStatus(trackingNumber, platform string, status Status, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.getLocked(trackingNumber)
	if err != nil {
		return err
	}

	now := s.now()
	found := false
	for i := range rec.Platforms {
		if rec.Platforms[i].Name == platform {
			rec.Platforms[i].Status = status
			rec.Platforms[i].UpdatedAt = now
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("platform %q not part of record %s", platform, trackingNumber)
	}

	rec.History = append(rec.History, HistoryEntry{
		Status:    status,
		Timestamp: now,
		Message:   fmt.Sprintf("%s: %s", platform, message),
	})

	if aggregate := AggregateStatus(rec.Platforms); aggregate != rec.Status {
		rec.Status = aggregate
		rec.History = append(rec.History, HistoryEntry{
			Status:    aggregate,
			Timestamp: now,
			Message:   "Overall status updated",
		})
	}
	rec.UpdatedAt = now
	if err := s.update(rec); err != nil {
		return err
	}
	s.audit(retention.ActionStore, trackingNumber, "status_update", true)
	return nil
}

// MigrateFromLegacy converts a legacy confirmation-id record into a tracking
// record and returns the new tracking number.
func (s *Store) MigrateFromLegacy(legacy LegacyRecord) (string, error) {
	trackingNumber, err := NewTrackingNumber()
	if err != nil {
		return "", err
	}

	now := s.now()
	estimatedDays := legacy.EstimatedDays
	if estimatedDays <= 0 {
		estimatedDays = 30
	}
	rec := &Record{
		TrackingNumber: trackingNumber,
		Status:         StatusProcessing,
		History: []HistoryEntry{{
			Status:    StatusProcessing,
			Timestamp: now,
			Message:   "Migrated from legacy confirmation id",
		}},
		SubmittedAt:          legacy.CreatedAt,
		UpdatedAt:            now,
		EstimatedCompletion:  legacy.CreatedAt.AddDate(0, 0, estimatedDays),
		ExpiresAt:            now.Add(s.window),
		LegacyConfirmationID: legacy.ConfirmationID,
		MigratedFromLegacy:   true,
	}
	for _, name := range legacy.Platforms() {
		rec.Platforms = append(rec.Platforms, PlatformStatus{
			Name:      name,
			Status:    StatusProcessing,
			UpdatedAt: now,
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.insert(rec); err != nil {
		return "", err
	}
	s.audit(retention.ActionStore, trackingNumber, "legacy_migration", true)
	s.log.Infow("legacy record migrated", "trackingNumber", trackingNumber, "legacyId", legacy.ConfirmationID)
	return trackingNumber, nil
}

// FindByLegacyID resolves a record by its legacy confirmation id.
func (s *Store) FindByLegacyID(confirmationID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var trackingNumber string
	err := s.db.QueryRow(
		"SELECT tracking_number FROM tracking_records WHERE legacy_confirmation_id = ?",
		confirmationID,
	).Scan(&trackingNumber)
	if err == sql.ErrNoRows {
		s.audit(retention.ActionRead, confirmationID, "legacy_lookup", false)
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query legacy id: %w", err)
	}
	rec, err := s.getLocked(trackingNumber)
	s.audit(retention.ActionRead, trackingNumber, "legacy_lookup", err == nil)
	return rec, err
}

// SweepExpired physically deletes every record past its expiration, auditing
// each deletion individually. Idempotent; safe to run concurrently with reads
// and writes.
func (s *Store) SweepExpired() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT tracking_number FROM tracking_records WHERE expires_at <= ?", s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("sweep tracking records: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("sweep tracking records: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()

	for _, id := range ids {
		if _, err := s.db.Exec("DELETE FROM tracking_records WHERE tracking_number = ?", id); err != nil {
			s.log.Warnw("failed to delete expired record", "trackingNumber", id, "error", err)
			continue
		}
		s.audit(retention.ActionDelete, id, retention.ReasonExpired, true)
	}
	if len(ids) > 0 {
		s.log.Infow("expired tracking records removed", "count", len(ids))
	}
	return len(ids), nil
}

// getLocked loads a record and applies lazy expiry. Caller holds the mutex.
func (s *Store) getLocked(trackingNumber string) (*Record, error) {
	var blob string
	var expiresAt int64
	err := s.db.QueryRow(
		"SELECT record, expires_at FROM tracking_records WHERE tracking_number = ?",
		trackingNumber,
	).Scan(&blob, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load tracking record: %w", err)
	}

	if s.now().Unix() > expiresAt {
		if _, err := s.db.Exec("DELETE FROM tracking_records WHERE tracking_number = ?", trackingNumber); err != nil {
			s.log.Warnw("failed to delete expired record", "trackingNumber", trackingNumber, "error", err)
		} else {
			s.audit(retention.ActionDelete, trackingNumber, retention.ReasonExpired, true)
		}
		return nil, ErrNotFound
	}

	var rec Record
	if err := json.Unmarshal([]byte(blob), &rec); err != nil {
		return nil, fmt.Errorf("decode tracking record: %w", err)
	}
	return &rec, nil
}

func (s *Store) insert(rec *Record) error {
	blob, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode tracking record: %w", err)
	}
	var legacy any
	if rec.LegacyConfirmationID != "" {
		legacy = rec.LegacyConfirmationID
	}
	_, err = s.db.Exec(
		"INSERT INTO tracking_records (tracking_number, record, expires_at, legacy_confirmation_id) VALUES (?, ?, ?, ?)",
		rec.TrackingNumber, string(blob), rec.ExpiresAt.Unix(), legacy,
	)
	if err != nil {
		return fmt.Errorf("write tracking record: %w", err)
	}
	return nil
}

func (s *Store) audit(action retention.Action, recordID, reason string, success bool) {
	if s.plog == nil {
		return
	}
	err := s.plog.Append(retention.Entry{
		Action:   action,
		Store:    storeName,
		RecordID: recordID,
		Reason:   reason,
		Success:  success,
	})
	if err != nil {
		s.log.Warnw("privacy log append failed", "action", action, "error", err)
	}
}

func (s *Store) update(rec *Record) error {
	blob, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode tracking record: %w", err)
	}
	_, err = s.db.Exec(
		"UPDATE tracking_records SET record = ? WHERE tracking_number = ?",
		string(blob), rec.TrackingNumber,
	)
	if err != nil {
		return fmt.Errorf("write tracking record: %w", err)
	}
	return nil
}
