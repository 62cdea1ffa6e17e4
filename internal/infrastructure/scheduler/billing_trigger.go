package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rentora/backend/internal/application/billing"
	"github.com/rentora/backend/internal/infrastructure/cache"
)

// BillingRunner generates invoices for every lease due today.
type BillingRunner interface {
	GenerateInvoicesForToday(ctx context.Context) (*billing.BillingRunResult, error)
}

// OverdueSweeper flags unpaid invoices whose due date has passed.
type OverdueSweeper interface {
	UpdateOverdueInvoices(ctx context.Context) (int, error)
}

// BillingTriggerConfig holds configuration for the daily billing trigger.
type BillingTriggerConfig struct {
	// BillingRunHour is the local hour (24h) the invoice run fires.
	BillingRunHour int
	// OverdueSweepHour is the local hour the overdue sweep fires.
	OverdueSweepHour int

	// CheckInterval is how often the loop checks whether a job is due.
	CheckInterval time.Duration
}

// DefaultBillingTriggerConfig returns the default trigger configuration.
func DefaultBillingTriggerConfig() BillingTriggerConfig {
	return BillingTriggerConfig{
		BillingRunHour:   2, // 2am
		OverdueSweepHour: 3, // 3am
		CheckInterval:    time.Minute,
	}
}

// BillingTrigger fires the daily invoice run and overdue sweep. A run
// guard keeps the jobs single-shot across multiple server instances.
type BillingTrigger struct {
	config  BillingTriggerConfig
	runner  BillingRunner
	sweeper OverdueSweeper
	guard   cache.RunGuard
	logger  *zap.Logger
	now     func() time.Time

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	lastBillingDate string // track which date each job last ran for
	lastSweepDate   string
}

// NewBillingTrigger creates a daily billing trigger.
func NewBillingTrigger(
	config BillingTriggerConfig,
	runner BillingRunner,
	sweeper OverdueSweeper,
	guard cache.RunGuard,
	logger *zap.Logger,
) *BillingTrigger {
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	return &BillingTrigger{
		config:  config,
		runner:  runner,
		sweeper: sweeper,
		guard:   guard,
		logger:  logger,
		now:     time.Now,
	}
}

// Start starts the trigger loop.
func (t *BillingTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Billing trigger started",
		zap.Int("billing_run_hour", t.config.BillingRunHour),
		zap.Int("overdue_sweep_hour", t.config.OverdueSweepHour),
		zap.Duration("check_interval", t.config.CheckInterval),
	)

	return nil
}

// Stop stops the trigger loop and waits for an in-flight job to finish.
func (t *BillingTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Billing trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *BillingTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger fires each job at most once per day, once the clock
// has passed the configured hour. Comparing with >= rather than ==
// means a restart after the scheduled hour still runs today's jobs.
func (t *BillingTrigger) checkAndTrigger(ctx context.Context) {
	now := t.now()
	currentDate := now.Format("2006-01-02")

	if now.Hour() >= t.config.BillingRunHour && t.claimDate(&t.lastBillingDate, currentDate) {
		t.triggerBillingRun(ctx, currentDate)
	}

	if now.Hour() >= t.config.OverdueSweepHour && t.claimDate(&t.lastSweepDate, currentDate) {
		t.triggerOverdueSweep(ctx, currentDate)
	}
}

// claimDate marks the job as run for the given date. Returns false when
// the job already ran today in this process.
func (t *BillingTrigger) claimDate(lastDate *string, currentDate string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if *lastDate == currentDate {
		return false
	}
	*lastDate = currentDate
	return true
}

func (t *BillingTrigger) triggerBillingRun(ctx context.Context, date string) {
	runKey := fmt.Sprintf("invoices:%s", date)

	acquired, err := t.guard.TryAcquire(ctx, runKey)
	if err != nil {
		t.logger.Error("Failed to acquire billing run claim", zap.Error(err))
		return
	}
	if !acquired {
		t.logger.Info("Billing run already claimed by another instance",
			zap.String("run_key", runKey),
		)
		return
	}

	t.logger.Info("Triggering daily invoice run", zap.String("date", date))
	result, err := t.runner.GenerateInvoicesForToday(ctx)
	if err != nil {
		t.logger.Error("Daily invoice run failed", zap.Error(err))
		// Release so a retry within the same day is possible.
		if relErr := t.guard.Release(ctx, runKey); relErr != nil {
			t.logger.Error("Failed to release billing run claim", zap.Error(relErr))
		}
		t.resetDate(&t.lastBillingDate)
		return
	}

	t.logger.Info("Daily invoice run finished",
		zap.String("date", date),
		zap.Int("matched", result.Matched),
		zap.Int("generated", len(result.Generated)),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", len(result.Failures)),
	)
}

func (t *BillingTrigger) triggerOverdueSweep(ctx context.Context, date string) {
	runKey := fmt.Sprintf("overdue:%s", date)

	acquired, err := t.guard.TryAcquire(ctx, runKey)
	if err != nil {
		t.logger.Error("Failed to acquire overdue sweep claim", zap.Error(err))
		return
	}
	if !acquired {
		t.logger.Info("Overdue sweep already claimed by another instance",
			zap.String("run_key", runKey),
		)
		return
	}

	t.logger.Info("Triggering overdue invoice sweep", zap.String("date", date))
	flagged, err := t.sweeper.UpdateOverdueInvoices(ctx)
	if err != nil {
		t.logger.Error("Overdue invoice sweep failed", zap.Error(err))
		if relErr := t.guard.Release(ctx, runKey); relErr != nil {
			t.logger.Error("Failed to release overdue sweep claim", zap.Error(relErr))
		}
		t.resetDate(&t.lastSweepDate)
		return
	}

	t.logger.Info("Overdue invoice sweep finished",
		zap.String("date", date),
		zap.Int("flagged", flagged),
	)
}

func (t *BillingTrigger) resetDate(lastDate *string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	*lastDate = ""
}
