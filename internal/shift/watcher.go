package shift

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/bakery/internal/domain/models"
)

// minRearm keeps the timer from spinning when a boundary is reached exactly.
const minRearm = time.Second

// ChangeFunc is called when the active shift changes. prev is the window that
// just closed.
type ChangeFunc func(prev, next models.ShiftWindow)

// Watcher re-resolves the active shift when its boundary passes. The timer it
// owns is released by Stop; Recheck can be called at any time to catch a
// missed firing, e.g. after the host was suspended.
type Watcher struct {
	resolver *Resolver
	onChange ChangeFunc
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	current models.ShiftWindow
	timer   *time.Timer
	started bool
	stopped bool
}

// NewWatcher creates a watcher; it does nothing until Start.
func NewWatcher(resolver *Resolver, onChange ChangeFunc, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		resolver: resolver,
		onChange: onChange,
		logger:   logger,
		now:      time.Now,
	}
}

// Start resolves the current shift and arms the boundary timer.
func (w *Watcher) Start() models.ShiftWindow {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.current = w.resolver.Resolve(now)
	w.started = true
	w.stopped = false
	w.arm(now)

	w.logger.Info("shift watcher started",
		zap.String("policy", w.current.Policy),
		zap.String("shift", string(w.current.Shift)),
		zap.Time("ends_at", w.current.End))

	return w.current
}

// Current returns the last resolved window.
func (w *Watcher) Current() models.ShiftWindow {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Recheck resolves the shift again and fires the change callback if it moved.
// It reports whether a change was detected.
func (w *Watcher) Recheck() bool {
	w.mu.Lock()
	if !w.started || w.stopped {
		w.mu.Unlock()
		return false
	}

	now := w.now()
	next := w.resolver.Resolve(now)
	prev := w.current
	changed := !next.Start.Equal(prev.Start) || next.Shift != prev.Shift
	w.current = next
	w.arm(now)
	w.mu.Unlock()

	if !changed {
		return false
	}

	w.logger.Info("shift changed",
		zap.String("policy", next.Policy),
		zap.String("from", string(prev.Shift)),
		zap.String("to", string(next.Shift)),
		zap.Time("started_at", next.Start))

	if w.onChange != nil {
		w.onChange(prev, next)
	}
	return true
}

// Stop cancels the boundary timer. Recheck is a no-op afterwards.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// arm must be called with mu held.
func (w *Watcher) arm(now time.Time) {
	if w.timer != nil {
		w.timer.Stop()
	}
	d := w.current.Remaining(now)
	if d < minRearm {
		d = minRearm
	}
	w.timer = time.AfterFunc(d, func() { w.Recheck() })
	w.logger.Debug("shift timer armed", zap.Duration("in", d))
}
