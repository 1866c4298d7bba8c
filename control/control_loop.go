package control

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"go.viam.com/motionkit/logging"
	"go.viam.com/motionkit/utils"
)

// MaxFrequency is the fastest a Loop may tick, in Hz.
const MaxFrequency = 200.0

// An Updater is advanced once per loop tick. Update must not block.
type Updater interface {
	Update(ctx context.Context) error
}

// UpdaterFunc adapts a function to an Updater.
type UpdaterFunc func(ctx context.Context) error

// Update calls f.
func (f UpdaterFunc) Update(ctx context.Context) error { return f(ctx) }

// LoopConfig configures a Loop.
type LoopConfig struct {
	Frequency float64 `json:"frequency_hz"`
}

// Validate ensures the frequency is within (0, MaxFrequency].
func (cfg LoopConfig) Validate(path string) error {
	if cfg.Frequency <= 0 || cfg.Frequency > MaxFrequency {
		return utils.NewConfigValidationError(path,
			errors.Errorf("loop frequency shouldn't be 0 or above %vHz, got %v", MaxFrequency, cfg.Frequency))
	}
	return nil
}

// Loop ticks a fixed set of updaters at a fixed frequency on one background goroutine, so no
// updater is ever run concurrently with itself. Update errors are logged and never stop the loop.
type Loop struct {
	mu       sync.Mutex
	cfg      LoopConfig
	dt       time.Duration
	clk      clock.Clock
	logger   logging.Logger
	updaters []Updater

	workers *utils.StoppableWorkers
	ticks   atomic.Int64
}

// NewLoop constructs a stopped loop. Time comes from clk so tests can advance it by hand; a nil
// logger logs to the global logger.
func NewLoop(logger logging.Logger, clk clock.Clock, cfg LoopConfig, updaters ...Updater) (*Loop, error) {
	if err := cfg.Validate("loop"); err != nil {
		return nil, err
	}
	if len(updaters) == 0 {
		return nil, errors.New("cannot create a control loop with nothing to update")
	}
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = logging.Global()
	}
	return &Loop{
		cfg:      cfg,
		dt:       time.Duration(float64(time.Second) / cfg.Frequency),
		clk:      clk,
		logger:   logger,
		updaters: updaters,
	}, nil
}

// Period returns the time between ticks.
func (l *Loop) Period() time.Duration {
	return l.dt
}

// Frequency returns the loop's frequency in Hz.
func (l *Loop) Frequency() float64 {
	return l.cfg.Frequency
}

// Ticks returns how many ticks have completed since the loop was created.
func (l *Loop) Ticks() int64 {
	return l.ticks.Load()
}

// Running reports whether the loop has been started and not stopped.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.workers != nil
}

// Start begins ticking. Starting a running loop is an error.
func (l *Loop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.workers != nil {
		return errors.New("control loop is already running")
	}
	l.logger.Debugf("running loop at %1.4fHz (%v)", l.cfg.Frequency, l.dt)
	// the ticker is created before the worker starts so a mock clock advanced right after
	// Start always reaches it
	ticker := l.clk.Ticker(l.dt)
	l.workers = utils.NewStoppableWorkers(func(ctx context.Context) {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			l.tick(ctx)
		}
	})
	return nil
}

// Tick runs every updater once on the calling goroutine. It lets a stopped loop be driven from
// simulated time and fails while the loop is running.
func (l *Loop) Tick(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.workers != nil {
		return errors.New("cannot tick a running control loop by hand")
	}
	l.tick(ctx)
	return nil
}

func (l *Loop) tick(ctx context.Context) {
	for i, u := range l.updaters {
		if ctx.Err() != nil {
			return
		}
		if err := u.Update(ctx); err != nil {
			l.logger.CWarnw(ctx, "control loop update failed", "updater", i, "error", err)
		}
	}
	l.ticks.Inc()
}

// Stop halts the loop and waits for the in-flight tick to finish. Stopping a stopped loop is a
// no-op.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.workers == nil {
		return
	}
	l.logger.Debug("closing loop")
	l.workers.Stop()
	l.workers = nil
}
