// Package notify implements the durable at-least-once notification queue.
// Items live as database rows so pending deliveries survive restarts; the
// dispatcher retries with a fixed backoff schedule and escalates items that
// exhaust their attempts.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/grlabs/grepp/pkg/db"
	"github.com/sirupsen/logrus"
)

const DefaultMaxAttempts = 5

// backoffSchedule is indexed by attempt number (1-based); attempts past the
// end clamp to the last entry.
var backoffSchedule = []time.Duration{
	5 * time.Minute,
	15 * time.Minute,
	30 * time.Minute,
	60 * time.Minute,
	120 * time.Minute,
}

// BackoffDelay returns the retry delay after the given attempt number.
func BackoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > len(backoffSchedule) {
		attempt = len(backoffSchedule)
	}
	return backoffSchedule[attempt-1]
}

// Sender delivers a payload to one recipient over one channel. A nil return
// means delivered; anything else schedules a retry.
type Sender interface {
	Send(ctx context.Context, recipient string, payload Payload) error
}

// Stats summarizes one dispatch batch.
type Stats struct {
	Processed int `json:"processed"`
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`
}

type Queue struct {
	db          db.Database
	senders     map[string]Sender
	maxAttempts int
	now         func() time.Time
	log         *logrus.Entry

	// escalateTo receives an operator alert when an item's failure turns
	// terminal. Empty disables escalation.
	escalateTo string
}

// NewQueue wires the queue against its store and channel senders. A nil
// clock defaults to time.Now.
func NewQueue(database db.Database, senders map[string]Sender, maxAttempts int, escalateTo string, clock func() time.Time) *Queue {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if clock == nil {
		clock = time.Now
	}
	return &Queue{
		db:          database,
		senders:     senders,
		maxAttempts: maxAttempts,
		now:         clock,
		escalateTo:  escalateTo,
		log:         logrus.WithField("component", "notify"),
	}
}

// Enqueue persists a notification for later dispatch. Nothing is sent
// synchronously; producers are fully decoupled from transport failures.
func (q *Queue) Enqueue(auditRef, notifType, channel, recipient string, payload Payload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding notification payload: %w", err)
	}

	item := &db.Notification{
		AuditRef:      auditRef,
		Type:          notifType,
		Channel:       channel,
		Recipient:     recipient,
		Payload:       string(raw),
		MaxAttempts:   q.maxAttempts,
		NextAttemptAt: q.now(),
	}
	if err := q.db.EnqueueNotification(item); err != nil {
		return err
	}

	q.log.WithFields(logrus.Fields{
		"type":      notifType,
		"channel":   channel,
		"recipient": recipient,
	}).Info("queued notification")
	return nil
}

// DispatchDue processes up to batchSize eligible items, oldest due first.
// Failures are isolated per item: a sender error or panic bumps that item's
// retry state and the batch moves on.
func (q *Queue) DispatchDue(ctx context.Context, batchSize int) (Stats, error) {
	var stats Stats

	items, err := q.db.DueNotifications(q.now(), batchSize)
	if err != nil {
		return stats, err
	}

	for _, item := range items {
		stats.Processed++
		if err := q.deliver(ctx, item); err != nil {
			q.bumpRetry(item, err)
			stats.Failed++
		} else {
			if err := q.db.MarkDelivered(item.ID, q.now()); err != nil {
				q.log.WithError(err).WithField("id", item.ID).Error("failed to mark delivered")
			}
			stats.Delivered++
		}
	}

	q.log.WithFields(logrus.Fields{
		"processed": stats.Processed,
		"delivered": stats.Delivered,
		"failed":    stats.Failed,
	}).Info("queue dispatch complete")
	return stats, nil
}

func (q *Queue) deliver(ctx context.Context, item db.Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sender panic: %v", r)
		}
	}()

	sender, ok := q.senders[item.Channel]
	if !ok {
		return fmt.Errorf("unknown channel: %s", item.Channel)
	}

	var payload Payload
	if err := json.Unmarshal([]byte(item.Payload), &payload); err != nil {
		return fmt.Errorf("decoding payload: %w", err)
	}

	return sender.Send(ctx, item.Recipient, payload)
}

func (q *Queue) bumpRetry(item db.Notification, cause error) {
	attempt := item.Attempt + 1
	next := q.now().Add(BackoffDelay(attempt))

	if err := q.db.BumpRetry(item.ID, attempt, cause.Error(), next); err != nil {
		q.log.WithError(err).WithField("id", item.ID).Error("failed to record retry")
		return
	}

	if attempt >= item.MaxAttempts {
		q.log.WithFields(logrus.Fields{
			"id":       item.ID,
			"attempts": attempt,
		}).Errorf("notification delivery failed terminally: %v", cause)
		q.escalate(item, cause)
	}
}

// escalate enqueues an operator alert for a terminally failed item.
// Escalation failures only log; they never block the batch.
func (q *Queue) escalate(item db.Notification, cause error) {
	if q.escalateTo == "" {
		return
	}

	payload := Payload{
		Subject: fmt.Sprintf("[ESCALATION] notification %d to %s undeliverable", item.ID, item.Recipient),
		Body: fmt.Sprintf(
			"Notification %d (%s via %s to %s) exhausted %d delivery attempts.\nLast error: %v\n",
			item.ID, item.Type, item.Channel, item.Recipient, item.MaxAttempts, cause),
		Kind: "escalation",
	}
	if err := q.Enqueue(item.AuditRef, item.Type, db.ChannelEmail, q.escalateTo, payload); err != nil {
		q.log.WithError(err).Error("failed to enqueue escalation")
	}
}
