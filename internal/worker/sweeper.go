package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/magiclink-auth/internal/service"
)

// Expirer deletes rows that can no longer be used as of before.
type Expirer interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// Sweeper periodically removes dead magic tokens and sessions.
type Sweeper struct {
	targets  map[string]Expirer
	interval time.Duration
	clock    service.Clock
	logger   *zap.Logger
}

// NewSweeper builds a sweeper over named targets.
func NewSweeper(targets map[string]Expirer, interval time.Duration, clock service.Clock, logger *zap.Logger) *Sweeper {
	return &Sweeper{targets: targets, interval: interval, clock: clock, logger: logger}
}

// Run sweeps once immediately and then on every tick until ctx is done. A zero
// interval disables the sweeper.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("sweeper disabled")
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.SweepOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single pass over every target and returns the number of rows removed.
func (s *Sweeper) SweepOnce(ctx context.Context) int64 {
	now := s.clock.Now()
	var total int64
	for name, target := range s.targets {
		n, err := target.DeleteExpired(ctx, now)
		if err != nil {
			s.logger.Warn("sweep failed", zap.String("target", name), zap.Error(err))
			continue
		}
		if n > 0 {
			s.logger.Info("swept expired rows", zap.String("target", name), zap.Int64("deleted", n))
		}
		total += n
	}
	return total
}
