package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"newsletter/recovery"
	"newsletter/utils"
)

// Revalidator is satisfied by *recovery.Service.
type Revalidator interface {
	Revalidate(ctx context.Context) ([]recovery.RevalidationRow, error)
}

// RevalidationWorker periodically re-runs validation over the rejected list
// and reports how many addresses would now pass. It never recovers anything.
type RevalidationWorker struct {
	Service      Revalidator
	Interval     time.Duration
	InitialDelay time.Duration
	Logger       *logrus.Entry
}

func NewRevalidationWorker(service Revalidator, interval time.Duration, logger *logrus.Entry) *RevalidationWorker {
	return &RevalidationWorker{
		Service:      service,
		Interval:     interval,
		InitialDelay: 10 * time.Second,
		Logger:       logger,
	}
}

// Start blocks until ctx is cancelled. A non-positive Interval disables the worker.
func (rw *RevalidationWorker) Start(ctx context.Context) {
	if rw.Interval <= 0 {
		rw.Logger.Info("Revalidation worker disabled")
		return
	}

	select {
	case <-ctx.Done():
		return
	case <-time.After(rw.InitialDelay):
	}

	rw.Logger.WithField("interval", utils.FormatDuration(rw.Interval)).Info("Revalidation worker started")

	ticker := time.NewTicker(rw.Interval)
	defer ticker.Stop()

	rw.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			rw.Logger.Info("Revalidation worker shutting down...")
			return
		case <-ticker.C:
			rw.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single preview pass and returns the number of rejected
// addresses that are now valid.
func (rw *RevalidationWorker) RunOnce(ctx context.Context) int {
	started := time.Now()
	rows, err := rw.Service.Revalidate(ctx)
	if err != nil {
		utils.LogError("revalidation_failed", err, nil)
		return 0
	}

	recoverable := 0
	for _, row := range rows {
		if row.NowValid {
			recoverable++
		}
	}

	entry := rw.Logger.WithFields(logrus.Fields{
		"checked":     len(rows),
		"recoverable": recoverable,
		"took":        time.Since(started).Round(time.Millisecond).String(),
	})
	if recoverable > 0 {
		entry.Warn("Rejected emails are now recoverable")
	} else {
		entry.Info("Revalidation pass complete")
	}
	return recoverable
}
