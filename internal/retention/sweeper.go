package retention

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nikkiricks/forgotten/internal/logging"
)

// Target is any store that can purge its expired records.
type Target interface {
	SweepExpired() (int, error)
}

// Sweeper drives periodic expiry across the registered stores and the privacy
// log partitions. Lazy expiry on read handles the common case; the sweeper
// guarantees data also disappears when nobody asks for it.
type Sweeper struct {
	interval time.Duration
	targets  map[string]Target
	plog     *PrivacyLog
	log      *zap.SugaredLogger
}

// NewSweeper builds a sweeper over named targets. The privacy log may be nil.
func NewSweeper(interval time.Duration, plog *PrivacyLog, targets map[string]Target) *Sweeper {
	return &Sweeper{
		interval: interval,
		targets:  targets,
		plog:     plog,
		log:      logging.Get(logging.CategoryPrivacy),
	}
}

// Run sweeps once immediately, then on every tick until the context is
// canceled. Blocks; callers run it in a goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweepAll()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Debugw("sweeper stopped")
			return
		case <-ticker.C:
			s.sweepAll()
		}
	}
}

func (s *Sweeper) sweepAll() {
	for name, target := range s.targets {
		n, err := target.SweepExpired()
		if err != nil {
			s.log.Warnw("sweep failed", "store", name, "error", err)
			continue
		}
		if n > 0 {
			s.log.Infow("sweep completed", "store", name, "removed", n)
		}
	}
	if s.plog != nil {
		if _, err := s.plog.SweepPartitions(); err != nil {
			s.log.Warnw("partition sweep failed", "error", err)
		}
	}
}
