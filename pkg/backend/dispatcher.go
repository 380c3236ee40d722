package backend

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/wait"
)

// StartDispatcherDaemon drains the notification queue on the configured
// interval and runs the retention cleanup once per calendar day.
func (b *backend) StartDispatcherDaemon(done <-chan struct{}) {
	logrus.Infof("starting dispatcher daemon. Dispatch interval: %v, batch size: %v",
		b.opts.DispatchInterval, b.opts.DispatchBatchSize)
	wait.JitterUntil(b.dispatch, b.opts.DispatchInterval, .002, true, done)
}

func (b *backend) dispatch() {
	ctx, cancel := context.WithTimeout(context.Background(), b.opts.DispatchInterval)
	defer cancel()

	stats, err := b.queue.DispatchDue(ctx, b.opts.DispatchBatchSize)
	if err != nil {
		b.log.WithError(err).Error("queue dispatch failed")
		return
	}
	if stats.Processed > 0 {
		b.log.WithFields(logrus.Fields{
			"processed": stats.Processed,
			"delivered": stats.Delivered,
			"failed":    stats.Failed,
		}).Info("dispatched notifications")
	}

	now := time.Now()
	if b.lastCleanup.IsZero() || now.Sub(b.lastCleanup) >= 24*time.Hour {
		if _, err := b.audit.Cleanup(b.opts.AuditRetention); err != nil {
			b.log.WithError(err).Error("audit cleanup failed")
			return
		}
		b.lastCleanup = now
	}
}
