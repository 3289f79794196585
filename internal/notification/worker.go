package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"session-scheduling-backend/internal/model"
	"session-scheduling-backend/internal/store"
)

// ErrNoSubscription is recorded on a reminder whose recipient has no push endpoint.
var ErrNoSubscription = errors.New("recipient has no push subscription")

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Payload is the JSON body pushed to the browser.
type Payload struct {
	Title        string             `json:"title"`
	Body         string             `json:"body"`
	BookingID    string             `json:"booking_id"`
	ReminderType model.ReminderType `json:"reminder_type"`
}

// WorkerPool delivers reminders handed to it by the Dispatcher.
type WorkerPool struct {
	size    int
	jobs    chan model.SessionReminder
	store   store.Store
	webpush *webpush.Options
	sender  NotificationSender
	log     *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, s store.Store, webpushOptions *webpush.Options, log *zap.Logger) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	return &WorkerPool{
		size:     size,
		jobs:     make(chan model.SessionReminder, size),
		store:    s,
		webpush:  webpushOptions,
		sender:   &WebPushSender{},
		log:      log,
		now:      time.Now,
		inFlight: make(map[string]struct{}),
	}
}

// UseSender replaces the push transport. It must be called before Start.
func (wp *WorkerPool) UseSender(sender NotificationSender) {
	wp.sender = sender
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log := wp.log.With(zap.Int("worker", id))
	log.Debug("worker started")
	for {
		select {
		case reminder := <-wp.jobs:
			wp.deliver(ctx, reminder)
			wp.release(reminder.ID)
		case <-ctx.Done():
			log.Debug("worker shutting down")
			return
		}
	}
}

// Dispatch queues a reminder for delivery. It reports false when the reminder
// is already queued or being delivered, or when ctx ends first.
func (wp *WorkerPool) Dispatch(ctx context.Context, reminder model.SessionReminder) bool {
	wp.mu.Lock()
	if _, busy := wp.inFlight[reminder.ID]; busy {
		wp.mu.Unlock()
		return false
	}
	wp.inFlight[reminder.ID] = struct{}{}
	wp.mu.Unlock()

	select {
	case wp.jobs <- reminder:
		return true
	case <-ctx.Done():
		wp.release(reminder.ID)
		return false
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan model.SessionReminder {
	return wp.jobs
}

func (wp *WorkerPool) release(id string) {
	wp.mu.Lock()
	delete(wp.inFlight, id)
	wp.mu.Unlock()
}

// deliver pushes one reminder to every subscription of its recipient and
// records the outcome on the reminder row.
func (wp *WorkerPool) deliver(ctx context.Context, reminder model.SessionReminder) {
	log := wp.log.With(zap.String("reminder_id", reminder.ID), zap.String("booking_id", reminder.BookingID))

	// The row may have been sent since the dispatcher read it.
	current, err := wp.store.GetReminder(ctx, reminder.ID)
	if err != nil {
		log.Error("failed to reload reminder", zap.Error(err))
		return
	}
	if current.SentAt != nil {
		log.Debug("reminder already sent")
		return
	}

	subs, err := wp.store.SubscriptionsFor(ctx, reminder.RecipientID)
	if err != nil {
		log.Error("failed to load subscriptions", zap.Error(err))
		wp.markFailed(ctx, log, reminder.ID, err)
		return
	}
	if len(subs) == 0 {
		wp.markFailed(ctx, log, reminder.ID, ErrNoSubscription)
		return
	}

	payload, err := json.Marshal(wp.payloadFor(ctx, reminder))
	if err != nil {
		wp.markFailed(ctx, log, reminder.ID, err)
		return
	}

	var (
		delivered int
		lastErr   error
	)
	for _, sub := range subs {
		if err := wp.sendNotification(ctx, log, sub, payload); err != nil {
			lastErr = err
			continue
		}
		delivered++
	}

	if delivered == 0 {
		wp.markFailed(ctx, log, reminder.ID, lastErr)
		return
	}
	if err := wp.store.MarkReminderSent(ctx, reminder.ID, wp.now()); err != nil {
		log.Error("failed to mark reminder sent", zap.Error(err))
		return
	}
	log.Info("reminder sent", zap.Int("endpoints", delivered))
}

// payloadFor describes the session. A booking that cannot be read still
// yields a generic reminder.
func (wp *WorkerPool) payloadFor(ctx context.Context, reminder model.SessionReminder) Payload {
	p := Payload{
		Title:        "Upcoming session",
		Body:         "You have an upcoming session.",
		BookingID:    reminder.BookingID,
		ReminderType: reminder.ReminderType,
	}
	booking, err := wp.store.GetBooking(ctx, reminder.BookingID)
	if err != nil {
		wp.log.Warn("failed to load booking for reminder", zap.String("booking_id", reminder.BookingID), zap.Error(err))
		return p
	}
	p.Body = fmt.Sprintf("Session on %s at %s (%s)", booking.ScheduledDate, booking.ScheduledStartTime, booking.Timezone)
	return p
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, log *zap.Logger, sub model.PushSubscription, payload []byte) error {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Warn("push failed", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone:
		log.Info("subscription expired, deleting", zap.String("endpoint", sub.Endpoint))
		if err := wp.store.DeleteSubscription(ctx, sub.Endpoint); err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Error("failed to delete expired subscription", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		}
		return fmt.Errorf("endpoint %s expired", sub.Endpoint)
	case resp.StatusCode >= 300:
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}
	return nil
}

func (wp *WorkerPool) markFailed(ctx context.Context, log *zap.Logger, id string, cause error) {
	if err := wp.store.MarkReminderFailed(ctx, id, cause.Error()); err != nil {
		log.Error("failed to mark reminder failed", zap.Error(err))
		return
	}
	log.Warn("reminder not delivered", zap.Error(cause))
}
