// Package retention holds discovery results for a short, fixed window and
// audits every access to them. Stored records carry sanitized profile
// summaries and a one-way digest of the search criteria, never the raw
// criteria or scraped profile content.
package retention

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/nikkiricks/forgotten/internal/logging"
)

// ErrNotFound is returned for absent and expired result sets alike.
var ErrNotFound = errors.New("discovery result set not found")

// Deletion reasons recorded in the privacy log.
const (
	ReasonExpired     = "retention_window_elapsed"
	ReasonUserRequest = "user_request"
)

const storeName = "discovery"

// SearchCriteria is the discovery input. Only its digest is persisted.
type SearchCriteria struct {
	FullName string
	Email    string
	Username string
}

// RawProfile is a discovered profile as scraped. Raw profiles exist in memory
// only; they are sanitized before storage.
type RawProfile struct {
	Platform   string
	URL        string
	Name       string
	Bio        string
	Followers  int
	Confidence float64
}

// SanitizedProfile is the storable form of a discovered profile. Free-text
// fields are reduced to presence flags.
type SanitizedProfile struct {
	Platform       string  `json:"platform"`
	URL            string  `json:"url"`
	Confidence     float64 `json:"confidence"`
	HasName        bool    `json:"hasName"`
	HasProfileData bool    `json:"hasProfileData"`
}

// ResultSet is one stored discovery run.
type ResultSet struct {
	SearchID     string             `json:"searchId"`
	CriteriaHash string             `json:"criteriaHash"`
	LegalBasis   string             `json:"legalBasis"`
	Results      []SanitizedProfile `json:"results"`
	CreatedAt    time.Time          `json:"createdAt"`
	ExpiresAt    time.Time          `json:"expiresAt"`
}

// Stats summarizes the store for the admin surface. Counts only.
type Stats struct {
	ActiveSets      int    `json:"activeResultSets"`
	RetentionWindow string `json:"retentionWindow"`
}

// HashCriteria produces the one-way digest persisted in place of the search
// criteria: sha256 over the normalized fields, truncated to 16 hex chars.
func HashCriteria(c SearchCriteria) string {
	normalized := strings.ToLower(strings.TrimSpace(c.FullName)) + "|" +
		strings.ToLower(strings.TrimSpace(c.Email)) + "|" +
		strings.ToLower(strings.TrimSpace(c.Username))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])[:16]
}

// Sanitize strips the scraped content from raw profiles, keeping only what the
// requester needs to recognize and act on a match.
func Sanitize(raw []RawProfile) []SanitizedProfile {
	out := make([]SanitizedProfile, 0, len(raw))
	for _, p := range raw {
		out = append(out, SanitizedProfile{
			Platform:       p.Platform,
			URL:            p.URL,
			Confidence:     p.Confidence,
			HasName:        strings.TrimSpace(p.Name) != "",
			HasProfileData: strings.TrimSpace(p.Bio) != "" || p.Followers > 0,
		})
	}
	return out
}

// Store persists sanitized discovery result sets with a short retention
// window. Every store, read, and delete is appended to the privacy log.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	window time.Duration
	plog   *PrivacyLog
	log    *zap.SugaredLogger
	now    func() time.Time
}

// NewStore opens (or creates) the discovery database.
func NewStore(path string, window time.Duration, plog *PrivacyLog) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open discovery database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			logging.Get(logging.CategoryPrivacy).Debugw("pragma failed", "pragma", pragma, "error", err)
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS discovery_results (
		search_id TEXT PRIMARY KEY,
		result_set TEXT NOT NULL,
		expires_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_discovery_expires ON discovery_results(expires_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize discovery schema: %w", err)
	}

	return &Store{
		db:     db,
		window: window,
		plog:   plog,
		log:    logging.Get(logging.CategoryPrivacy),
		now:    time.Now,
	}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Store sanitizes and persists one discovery run, returning its search id.
func (s *Store) Store(criteria SearchCriteria, results []RawProfile, legalBasis string) (string, error) {
	now := s.now()
	set := &ResultSet{
		SearchID:     uuid.NewString(),
		CriteriaHash: HashCriteria(criteria),
		LegalBasis:   legalBasis,
		Results:      Sanitize(results),
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.window),
	}

	blob, err := json.Marshal(set)
	if err != nil {
		return "", fmt.Errorf("encode result set: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec(
		"INSERT INTO discovery_results (search_id, result_set, expires_at) VALUES (?, ?, ?)",
		set.SearchID, string(blob), set.ExpiresAt.Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("write result set: %w", err)
	}

	s.audit(ActionStore, set.SearchID, "", true)
	s.log.Infow("discovery result set stored", "searchId", set.SearchID, "results", len(set.Results))
	return set.SearchID, nil
}

// Get returns a result set by search id. Expired sets are physically deleted
// and reported as not found.
func (s *Store) Get(searchID string) (*ResultSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var blob string
	var expiresAt int64
	err := s.db.QueryRow(
		"SELECT result_set, expires_at FROM discovery_results WHERE search_id = ?",
		searchID,
	).Scan(&blob, &expiresAt)
	if err == sql.ErrNoRows {
		s.audit(ActionRead, searchID, "", false)
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load result set: %w", err)
	}

	if s.now().Unix() > expiresAt {
		s.deleteLocked(searchID, ReasonExpired)
		s.audit(ActionRead, searchID, "", false)
		return nil, ErrNotFound
	}

	var set ResultSet
	if err := json.Unmarshal([]byte(blob), &set); err != nil {
		return nil, fmt.Errorf("decode result set: %w", err)
	}
	s.audit(ActionRead, searchID, "", true)
	return &set, nil
}

// Delete removes a result set before its window elapses. Returns ErrNotFound
// when there is nothing to delete.
func (s *Store) Delete(searchID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM discovery_results WHERE search_id = ?", searchID)
	if err != nil {
		return fmt.Errorf("delete result set: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	s.audit(ActionDelete, searchID, reason, true)
	s.log.Infow("discovery result set deleted", "searchId", searchID, "reason", reason)
	return nil
}

// SweepExpired physically deletes every result set past its expiration,
// auditing each deletion individually.
func (s *Store) SweepExpired() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT search_id FROM discovery_results WHERE expires_at <= ?", s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("sweep discovery results: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("sweep discovery results: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()

	for _, id := range ids {
		s.deleteLocked(id, ReasonExpired)
	}
	if len(ids) > 0 {
		s.log.Infow("expired discovery result sets removed", "count", len(ids))
	}
	return len(ids), nil
}

// GetStats reports active record counts for the admin surface.
func (s *Store) GetStats() (*Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var active int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM discovery_results WHERE expires_at > ?", s.now().Unix(),
	).Scan(&active)
	if err != nil {
		return nil, fmt.Errorf("count result sets: %w", err)
	}
	return &Stats{ActiveSets: active, RetentionWindow: s.window.String()}, nil
}

// deleteLocked removes one row and audits it. Caller holds the mutex.
func (s *Store) deleteLocked(searchID, reason string) {
	if _, err := s.db.Exec("DELETE FROM discovery_results WHERE search_id = ?", searchID); err != nil {
		s.log.Warnw("failed to delete result set", "searchId", searchID, "error", err)
		return
	}
	s.audit(ActionDelete, searchID, reason, true)
}

func (s *Store) audit(action Action, searchID, reason string, success bool) {
	if s.plog == nil {
		return
	}
	err := s.plog.Append(Entry{
		Action:   action,
		Store:    storeName,
		RecordID: searchID,
		Reason:   reason,
		Success:  success,
	})
	if err != nil {
		s.log.Warnw("privacy log append failed", "action", action, "error", err)
	}
}
