package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JournalPruner drops journal entries older than a cutoff.
type JournalPruner interface {
	Cleanup(olderThan time.Time) (int, error)
}

// JanitorConfig controls how often the journal is pruned and what it keeps.
type JanitorConfig struct {
	Interval  time.Duration
	Retention time.Duration
}

// JournalJanitor periodically enforces the journal retention window.
type JournalJanitor struct {
	journal JournalPruner
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     JanitorConfig
	now     func() time.Time
}

func NewJournalJanitor(journal JournalPruner, logger *zap.Logger, cfg JanitorConfig) (*JournalJanitor, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 30 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	j := &JournalJanitor{
		journal: journal,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
		now:     func() time.Time { return time.Now().UTC() },
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	if _, err := j.cron.AddFunc(schedule, func() {
		if _, err := j.Prune(context.Background()); err != nil {
			j.logger.Error("journal cleanup failed", zap.Error(err))
		}
	}); err != nil {
		return nil, fmt.Errorf("schedule journal cleanup: %w", err)
	}

	return j, nil
}

// Start launches the cron scheduler.
func (j *JournalJanitor) Start() {
	if j == nil || j.cron == nil {
		return
	}
	j.cron.Start()
	j.logger.Info("journal janitor started",
		zap.Duration("interval", j.cfg.Interval),
		zap.Duration("retention", j.cfg.Retention))
}

// Stop waits for a running cleanup to finish or for ctx to expire.
func (j *JournalJanitor) Stop(ctx context.Context) {
	if j == nil || j.cron == nil {
		return
	}
	stopCtx := j.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	j.logger.Info("journal janitor stopped")
}

// Prune removes entries that fell out of the retention window.
func (j *JournalJanitor) Prune(ctx context.Context) (int, error) {
	if j == nil || j.journal == nil {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	removed, err := j.journal.Cleanup(j.now().Add(-j.cfg.Retention))
	if err != nil {
		return removed, err
	}
	if removed > 0 {
		j.logger.Info("journal pruned", zap.Int("removed", removed))
	}
	return removed, nil
}
