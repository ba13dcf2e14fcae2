package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kirillkom/paperbox/internal/core/ports"
)

// DefaultSpec runs the sweep at the top of every hour.
const DefaultSpec = "@hourly"

type OwnerLister interface {
	ListOwners(ctx context.Context) ([]string, error)
}

// SweepObserver receives the summary of every completed sweep.
type SweepObserver interface {
	ObserveSweep(summary SweepSummary, err error)
}

type SweepSummary struct {
	Owners   int
	Created  int
	Partial  int
	Failed   int
	Duration time.Duration
}

// Sweeper derives reminders for every owner on a cron schedule, so owners
// who do not open a session still get their feed filled.
type Sweeper struct {
	owners   OwnerLister
	deriver  ports.NotificationDeriver
	observer SweepObserver
	logger   *slog.Logger
	timeout  time.Duration
	now      func() time.Time

	cron    *cron.Cron
	running sync.Mutex
}

func NewSweeper(owners OwnerLister, deriver ports.NotificationDeriver, observer SweepObserver, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		owners:   owners,
		deriver:  deriver,
		observer: observer,
		logger:   logger,
		timeout:  10 * time.Minute,
		now:      time.Now,
		cron:     cron.New(cron.WithLocation(time.UTC)),
	}
}

// Start schedules the sweep and returns immediately.
func (s *Sweeper) Start(spec string) error {
	if spec == "" {
		spec = DefaultSpec
	}
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return fmt.Errorf("schedule sweep %q: %w", spec, err)
	}
	s.cron.Start()
	s.logger.Info("sweep_scheduled", "spec", spec)
	return nil
}

// Stop waits for a running sweep to finish or ctx to expire.
func (s *Sweeper) Stop(ctx context.Context) {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
	}
}

func (s *Sweeper) tick() {
	if !s.running.TryLock() {
		s.logger.Warn("sweep_skipped", "reason", "previous sweep still running")
		return
	}
	defer s.running.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("sweep_failed", "error", err)
	}
}

// RunOnce derives for every known owner. One owner's failure does not stop
// the others; only a failure to list owners is returned.
func (s *Sweeper) RunOnce(ctx context.Context) (SweepSummary, error) {
	started := s.now()
	owners, err := s.owners.ListOwners(ctx)
	if err != nil {
		return SweepSummary{}, fmt.Errorf("list owners: %w", err)
	}

	summary := SweepSummary{Owners: len(owners)}
	for _, owner := range owners {
		if ctx.Err() != nil {
			break
		}
		report, err := s.deriver.Derive(ctx, owner, s.now())
		if err != nil {
			summary.Failed++
			s.logger.Warn("sweep_owner_failed", "owner_id", owner, "error", err)
			continue
		}
		summary.Created += len(report.Created)
		if !report.Complete() {
			summary.Partial++
		}
	}
	summary.Duration = s.now().Sub(started)
	if s.observer != nil {
		s.observer.ObserveSweep(summary, ctx.Err())
	}

	s.logger.Info("sweep_completed",
		"owners", summary.Owners,
		"created", summary.Created,
		"partial", summary.Partial,
		"failed", summary.Failed,
		"duration_ms", summary.Duration.Milliseconds(),
	)
	return summary, ctx.Err()
}
