package scheduler

import (
	"context"
	"fmt"

	"payment-verification-api/internal/services"
	"payment-verification-api/pkg/logging"

	"github.com/robfig/cron/v3"
)

// PaymentProcessor is the reconciliation entry point the scheduler drives
type PaymentProcessor interface {
	ProcessAllPaymentUpdates(ctx context.Context) services.ProcessResult
}

// Scheduler invokes the payment reconciliation pipeline on a fixed interval.
// Ticks are chained with SkipIfStillRunning so a slow pass is never overlapped
// by the next one; a tick that panics is recovered and logged, and the
// following tick proceeds independently.
type Scheduler struct {
	cron      *cron.Cron
	processor PaymentProcessor
	interval  int
}

// New creates a scheduler running the processor every intervalMinutes
func New(processor PaymentProcessor, intervalMinutes int) *Scheduler {
	if intervalMinutes <= 0 {
		intervalMinutes = 1
	}
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DiscardLogger),
			cron.SkipIfStillRunning(cron.DiscardLogger),
		)),
		processor: processor,
		interval:  intervalMinutes,
	}
}

// Start registers and starts the periodic reconciliation job
func (s *Scheduler) Start() error {
	spec := fmt.Sprintf("@every %dm", s.interval)
	if _, err := s.cron.AddFunc(spec, s.Tick); err != nil {
		return fmt.Errorf("failed to schedule payment verification: %w", err)
	}
	s.cron.Start()
	logging.Infof("Payment verification scheduler initialized (every %dm)", s.interval)
	return nil
}

// Stop stops the scheduler, waiting for an in-flight tick to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Tick runs one scheduled reconciliation pass
func (s *Scheduler) Tick() {
	logging.Infof("Running scheduled payment verification check...")

	result := s.processor.ProcessAllPaymentUpdates(context.Background())
	if !result.Success {
		logging.Errorf("Error in scheduled payment verification: %s", result.Message)
		return
	}

	logging.Infof("Payment verification completed: notificationsProcessed=%d smsProcessed=%d",
		result.NotificationsProcessed, result.SmsProcessed)
}
