package retention

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nikkiricks/forgotten/internal/logging"
)

// Action is the audited operation type.
type Action string

const (
	ActionStore  Action = "store"
	ActionRead   Action = "read"
	ActionDelete Action = "delete"
)

// Entry is one append-only audit record. Entries carry record ids only,
// never the data behind them.
type Entry struct {
	Timestamp int64  `json:"ts"` // Unix milliseconds
	Action    Action `json:"action"`
	Store     string `json:"store"`
	RecordID  string `json:"recordId"`
	Reason    string `json:"reason,omitempty"`
	Success   bool   `json:"success"`
}

const partitionPrefix = "privacy_"

// PrivacyLog writes one JSONL partition per day. Partitions are never
// mutated; they are deleted wholesale by SweepPartitions once older than the
// log retention window.
type PrivacyLog struct {
	dir    string
	window time.Duration
	mu     sync.Mutex
	log    *zap.SugaredLogger
	now    func() time.Time
}

// NewPrivacyLog creates the partition directory if needed.
func NewPrivacyLog(dir string, window time.Duration) (*PrivacyLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create privacy log dir: %w", err)
	}
	return &PrivacyLog{
		dir:    dir,
		window: window,
		log:    logging.Get(logging.CategoryPrivacy),
		now:    time.Now,
	}, nil
}

// Append writes one entry to today's partition.
func (p *PrivacyLog) Append(e Entry) error {
	if e.Timestamp == 0 {
		e.Timestamp = p.now().UnixMilli()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode privacy log entry: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	name := partitionPrefix + p.now().Format("2006-01-02") + ".log"
	f, err := os.OpenFile(filepath.Join(p.dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open privacy log partition: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append privacy log entry: %w", err)
	}
	return nil
}

// SweepPartitions deletes partitions older than the log retention window.
// Runs on a longer cadence than the record sweeps.
func (p *PrivacyLog) SweepPartitions() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return 0, fmt.Errorf("list privacy log partitions: %w", err)
	}

	cutoff := p.now().Add(-p.window)
	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, partitionPrefix) || !strings.HasSuffix(name, ".log") {
			continue
		}
		dateStr := strings.TrimSuffix(strings.TrimPrefix(name, partitionPrefix), ".log")
		day, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		// A partition is removable only once the whole day is past the window.
		if day.AddDate(0, 0, 1).After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(p.dir, name)); err != nil {
			p.log.Warnw("failed to remove expired log partition", "partition", name, "error", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		p.log.Infow("expired privacy log partitions removed", "count", removed)
	}
	return removed, nil
}
