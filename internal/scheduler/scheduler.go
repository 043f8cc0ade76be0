// internal/scheduler/scheduler.go
package scheduler

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kucukkal/dealer-backend/internal/services"
)

// Scheduler runs the three daily consistency sweeps: nightly service
// completion at 21:00, stalled-deal cleanup at 09:00 and the finance
// snapshot refresh at 09:00. Each sweep runs at most once per day and
// never overlaps itself; runs missed while the process was down are not
// replayed.
type Scheduler struct {
	repair        *services.RepairService
	sales         *services.SalesService
	finance       *services.FinanceService
	notifications *services.NotificationService

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func New(repair *services.RepairService, sales *services.SalesService, finance *services.FinanceService, notifications *services.NotificationService) *Scheduler {
	return &Scheduler{
		repair:        repair,
		sales:         sales,
		finance:       finance,
		notifications: notifications,
		stop:          make(chan struct{}),
	}
}

// Start launches one goroutine per sweep. Safe to call once; Stop ends
// all loops.
func (s *Scheduler) Start() {
	s.launch("service completion", 21, 0, s.RunServiceCompletion)
	s.launch("stalled deal cleanup", 9, 0, s.RunStalledCleanup)
	s.launch("finance snapshot", 9, 0, s.RunFinanceSnapshot)
	logrus.Info("Scheduler started with 3 daily sweeps")
}

// Stop signals every sweep loop to exit and waits for them.
func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.stop) })
	s.wg.Wait()
	logrus.Info("Scheduler stopped")
}

func (s *Scheduler) launch(name string, hour, minute int, run func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			target := nextRun(time.Now(), hour, minute)
			logrus.WithFields(logrus.Fields{
				"sweep": name,
				"next":  target.Format(time.RFC3339),
			}).Info("Sweep scheduled")

			timer := time.NewTimer(time.Until(target))
			select {
			case <-timer.C:
				run()
			case <-s.stop:
				timer.Stop()
				return
			}
		}
	}()
}

// nextRun returns today's hour:minute in now's location, or the same
// time tomorrow when that moment has already passed.
func nextRun(now time.Time, hour, minute int) time.Time {
	target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !target.After(now) {
		target = target.AddDate(0, 0, 1)
	}
	return target
}

// RunServiceCompletion completes every in-service record whose
// estimated window has elapsed and mails the digest.
func (s *Scheduler) RunServiceCompletion() {
	logrus.Info("Nightly service completion sweep starting")
	completed, failures := s.repair.CompleteDue()
	if len(completed) == 0 && failures == 0 {
		return
	}
	if err := s.notifications.SendServiceCompletionDigest(completed, failures); err != nil {
		logrus.WithError(err).Warn("Failed to send service completion digest")
	}
}

// RunStalledCleanup abandons negotiations stuck in Under Writing for
// more than three days and mails the digest.
func (s *Scheduler) RunStalledCleanup() {
	logrus.Info("Morning stalled deal cleanup starting")
	deleted, refunded, failures := s.sales.CleanupStalled()
	if len(deleted) == 0 && failures == 0 {
		return
	}
	if err := s.notifications.SendStalledCleanupDigest(deleted, refunded, failures); err != nil {
		logrus.WithError(err).Warn("Failed to send stalled cleanup digest")
	}
}

// RunFinanceSnapshot rebuilds the finance snapshot. Rebuild reports its
// own outcome through the notification service.
func (s *Scheduler) RunFinanceSnapshot() {
	logrus.Info("Morning finance snapshot starting")
	if err := s.finance.Rebuild(); err != nil {
		logrus.WithError(err).Error("Scheduled finance snapshot failed")
	}
}
