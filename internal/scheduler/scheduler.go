package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/bakery/internal/config"
	"github.com/mamadbah2/bakery/internal/domain/models"
	"github.com/mamadbah2/bakery/internal/service/notify"
	"github.com/mamadbah2/bakery/internal/shift"
)

const closeTimeout = 2 * time.Minute

// ShiftCloser archives a finished shift and renders its summary.
type ShiftCloser interface {
	CloseShift(ctx context.Context, window models.ShiftWindow) (models.ShiftReport, error)
	Summary(report models.ShiftReport) string
}

// Broadcaster pushes a message to every subscriber.
type Broadcaster interface {
	Broadcast(ctx context.Context, message string) (int, error)
}

// Locker makes sure only one instance handles a shift change.
type Locker interface {
	AcquireOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Scheduler owns the shift watcher and the periodic safety re-check.
type Scheduler struct {
	cron        *cron.Cron
	watcher     *shift.Watcher
	closer      ShiftCloser
	broadcaster Broadcaster
	locker      Locker
	cfg         config.SchedulerConfig
	logger      *zap.Logger
}

// NewScheduler creates a scheduler for the shifts of resolver. locker may be nil.
func NewScheduler(cfg config.SchedulerConfig, resolver *shift.Resolver, closer ShiftCloser, broadcaster Broadcaster, locker Locker, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Scheduler{
		cron:        cron.New(),
		closer:      closer,
		broadcaster: broadcaster,
		locker:      locker,
		cfg:         cfg,
		logger:      logger,
	}
	s.watcher = shift.NewWatcher(resolver, s.handleShiftChange, logger.Named("shift.watcher"))
	return s
}

// Start arms the boundary timer and schedules the re-check job.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.RecheckSpec, s.recheck); err != nil {
		return fmt.Errorf("schedule shift re-check %q: %w", s.cfg.RecheckSpec, err)
	}

	s.logger.Info("starting scheduler", zap.String("recheck", s.cfg.RecheckSpec))
	s.warnIfDegraded(s.watcher.Start())
	s.cron.Start()
	return nil
}

// Stop stops the cron jobs and the shift timer.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
	s.watcher.Stop()
}

// CurrentWindow returns the window the watcher last resolved.
func (s *Scheduler) CurrentWindow() models.ShiftWindow {
	return s.watcher.Current()
}

func (s *Scheduler) recheck() {
	if s.watcher.Recheck() {
		s.logger.Debug("shift change caught by re-check")
	}
}

func (s *Scheduler) handleShiftChange(prev, next models.ShiftWindow) {
	s.warnIfDegraded(next)
	if prev.Start.IsZero() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	if s.locker != nil {
		key := fmt.Sprintf("shift-close:%s:%s", prev.Policy, prev.Start.Format(time.RFC3339))
		ok, err := s.locker.AcquireOnce(ctx, key, s.cfg.LockTTL)
		switch {
		case err != nil:
			s.logger.Warn("shift close lock unavailable, closing anyway", zap.Error(err))
		case !ok:
			s.logger.Info("shift already closed by another instance", zap.String("key", key))
			return
		}
	}

	report, err := s.closer.CloseShift(ctx, prev)
	if err != nil {
		s.logger.Error("failed to close shift", zap.Error(err), zap.Time("start", prev.Start))
		if report.Window.Start.IsZero() {
			return
		}
	}

	if s.broadcaster == nil {
		return
	}
	sent, err := s.broadcaster.Broadcast(ctx, s.closer.Summary(report))
	switch {
	case errors.Is(err, notify.ErrMessagingDisabled):
		s.logger.Debug("messaging disabled, shift summary not sent")
	case err != nil:
		s.logger.Error("failed to broadcast shift summary", zap.Error(err), zap.Int("delivered", sent))
	default:
		s.logger.Info("shift summary sent", zap.Int("delivered", sent))
	}
}

func (s *Scheduler) warnIfDegraded(w models.ShiftWindow) {
	if w.Fallback {
		s.logger.Warn("shift settings invalid, using fallback window", zap.String("policy", w.Policy))
	}
	if w.ClockSkew {
		s.logger.Warn("system clock outside sane range, shift window is best effort", zap.Time("start", w.Start))
	}
}
