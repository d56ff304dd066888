package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	appbilling "github.com/gharbeti/backend/internal/application/billing"
	"go.uber.org/zap"
)

// Runner executes one daily billing cycle
type Runner interface {
	RunDaily(ctx context.Context) (*appbilling.RunResult, error)
}

// DailyTriggerConfig holds configuration for the daily trigger
type DailyTriggerConfig struct {
	// RunHour and RunMinute define the local time of day the cycle fires
	RunHour   int
	RunMinute int

	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration
}

// DefaultDailyTriggerConfig returns default daily trigger configuration
func DefaultDailyTriggerConfig() DailyTriggerConfig {
	return DailyTriggerConfig{
		RunHour:       2, // 2am
		RunMinute:     0,
		CheckInterval: time.Minute,
	}
}

// DailyTrigger fires the billing cycle once per calendar day
type DailyTrigger struct {
	config DailyTriggerConfig
	runner Runner
	logger *zap.Logger

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string // Track which date we last ran for
}

// NewDailyTrigger creates a new daily trigger
func NewDailyTrigger(config DailyTriggerConfig, runner Runner, logger *zap.Logger) *DailyTrigger {
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	return &DailyTrigger{
		config: config,
		runner: runner,
		logger: logger,
	}
}

// Start starts the daily trigger
func (d *DailyTrigger) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.isRunning {
		d.mu.Unlock()
		return nil
	}
	d.isRunning = true
	d.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.wg.Add(1)
	go d.runLoop(ctx)

	d.logger.Info("Daily billing trigger started",
		zap.Int("run_hour", d.config.RunHour),
		zap.Int("run_minute", d.config.RunMinute),
		zap.Duration("check_interval", d.config.CheckInterval),
	)

	return nil
}

// Stop stops the daily trigger
func (d *DailyTrigger) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.isRunning {
		d.mu.Unlock()
		return nil
	}
	d.isRunning = false
	d.mu.Unlock()

	if d.cancel != nil {
		d.cancel()
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("Daily billing trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop checks periodically if it's time to run the billing cycle
func (d *DailyTrigger) runLoop(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger fires the cycle on the first check at or after the
// configured time of day. Comparing against the rest of the day instead of
// the exact minute means a check interval coarser than a minute can never
// step over the run time.
func (d *DailyTrigger) checkAndTrigger(ctx context.Context) {
	now := time.Now()
	currentDate := now.Format("2006-01-02")

	// Skip if we already ran today
	d.mu.Lock()
	if d.lastRunDate == currentDate {
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	runAt := time.Date(now.Year(), now.Month(), now.Day(),
		d.config.RunHour, d.config.RunMinute, 0, 0, now.Location())
	if now.Before(runAt) {
		return
	}

	d.mu.Lock()
	d.lastRunDate = currentDate
	d.mu.Unlock()

	d.logger.Info("Triggering daily billing cycle")
	d.run(ctx)
}

// TriggerNow runs the billing cycle immediately, outside the daily schedule.
// The orchestrator's own guards still apply.
func (d *DailyTrigger) TriggerNow(ctx context.Context) (*appbilling.RunResult, error) {
	d.logger.Info("Manually triggering billing cycle")
	return d.runner.RunDaily(ctx)
}

func (d *DailyTrigger) run(ctx context.Context) {
	result, err := d.runner.RunDaily(ctx)
	switch {
	case errors.Is(err, appbilling.ErrRunActive):
		d.logger.Info("Billing cycle already running in this process")
	case errors.Is(err, appbilling.ErrLeaseUnavailable):
		d.logger.Info("Billing cycle running on another instance")
	case err != nil:
		d.logger.Error("Billing cycle failed", zap.Error(err))
	default:
		d.logger.Info("Billing cycle finished", zap.Int("steps", len(result.Steps)))
	}
}
