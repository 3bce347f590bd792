// Package worker delivers queued reminders and scheduled messages.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/rezkam/awe/internal/domain"
	"github.com/rezkam/awe/internal/ptr"
	"github.com/rezkam/awe/internal/ttl"
)

const meterName = "github.com/rezkam/awe/internal/application/worker"

// Dispatcher polls the reminder queue and hands due entries to a Sink.
// Each entry is marked Sent or Failed exactly once; failures are not retried.
type Dispatcher struct {
	repo             Repository
	sink             Sink
	errorHandler     ErrorHandler
	now              func() time.Time
	pollInterval     time.Duration
	operationTimeout time.Duration // Timeout for one poll cycle
	batchSize        int
	recentTTL        time.Duration
	meterProvider    metric.MeterProvider

	// recent remembers delivered IDs so a failed status write does not cause a
	// second send on the next poll.
	recent *ttl.Cache[string, domain.ReminderStatus]

	dispatched metric.Int64Counter
	markErrors metric.Int64Counter

	// cycleSlot admits one RunOnce at a time.
	cycleSlot chan struct{}

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option is a functional option for configuring Dispatcher.
type Option func(*Dispatcher)

// WithPollInterval sets how often the queue is checked. Non-positive values
// keep the default, as do those of the other numeric options.
func WithPollInterval(d time.Duration) Option {
	return func(w *Dispatcher) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// WithOperationTimeout bounds a single poll cycle.
func WithOperationTimeout(d time.Duration) Option {
	return func(w *Dispatcher) {
		if d > 0 {
			w.operationTimeout = d
		}
	}
}

// WithBatchSize caps the entries loaded per cycle.
func WithBatchSize(n int) Option {
	return func(w *Dispatcher) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

// WithRecentTTL sets how long delivered IDs are remembered.
func WithRecentTTL(d time.Duration) Option {
	return func(w *Dispatcher) {
		w.recentTTL = d
	}
}

// WithClock sets the time source. Defaults to time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *Dispatcher) {
		w.now = now
	}
}

// WithErrorHandler replaces DefaultErrorHandler.
func WithErrorHandler(h ErrorHandler) Option {
	return func(w *Dispatcher) {
		w.errorHandler = h
	}
}

// WithMeterProvider sets the metrics provider. Defaults to the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(w *Dispatcher) {
		w.meterProvider = mp
	}
}

// New creates a Dispatcher with the given repository, sink and options.
func New(repo Repository, sink Sink, opts ...Option) *Dispatcher {
	w := &Dispatcher{
		repo:             repo,
		sink:             sink,
		errorHandler:     &DefaultErrorHandler{},
		now:              time.Now,
		pollInterval:     30 * time.Second, // Default: poll every 30s
		operationTimeout: 2 * time.Minute,
		batchSize:        100,
		recentTTL:        time.Hour,
		cycleSlot:        make(chan struct{}, 1),
	}

	for _, opt := range opts {
		opt(w)
	}

	w.recent = ttl.New[string, domain.ReminderStatus](w.recentTTL, ttl.WithClock(w.now))
	if w.meterProvider == nil {
		w.meterProvider = otel.GetMeterProvider()
	}
	w.initMetrics()

	return w
}

func (w *Dispatcher) initMetrics() {
	meter := w.meterProvider.Meter(meterName)

	var err error
	w.dispatched, err = meter.Int64Counter("awe.reminders.dispatched",
		metric.WithDescription("Reminder entries handed to the notification sink, by outcome."),
		metric.WithUnit("{reminder}"))
	if err != nil {
		slog.Warn("failed to create dispatched counter", "error", err)
	}
	w.markErrors, err = meter.Int64Counter("awe.reminders.mark_errors",
		metric.WithDescription("Status write-backs that failed after delivery."),
		metric.WithUnit("{reminder}"))
	if err != nil {
		slog.Warn("failed to create mark error counter", "error", err)
	}
}

// Run polls until ctx is cancelled. It dispatches once immediately, then every
// poll interval, and waits for the cycle in flight before returning.
func (w *Dispatcher) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "Reminder dispatcher started", "interval", w.pollInterval)

	w.cycle(ctx)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.cycle(ctx)
		case <-ctx.Done():
			slog.InfoContext(ctx, "Reminder dispatcher stopped")
			return nil
		}
	}
}

func (w *Dispatcher) cycle(ctx context.Context) {
	// A cycle in flight finishes even when shutdown is requested.
	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.operationTimeout)
	defer cancel()

	if _, err := w.RunOnce(opCtx); err != nil {
		slog.ErrorContext(opCtx, "Error dispatching reminders", "error", err)
	}
}

// Start runs the dispatcher in the background. It returns false when it is
// already running.
func (w *Dispatcher) Start(ctx context.Context) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		return false
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	w.cancel = cancel
	w.done = done

	go func() {
		defer close(done)
		_ = w.Run(runCtx)

		w.mu.Lock()
		if w.done == done {
			w.cancel = nil
			w.done = nil
		}
		w.mu.Unlock()
	}()
	return true
}

// Stop halts a background dispatcher and waits for it to exit. It returns false
// when nothing was running.
func (w *Dispatcher) Stop() bool {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return false
	}
	cancel()
	<-done
	return true
}

// Running reports whether a background dispatcher is active.
func (w *Dispatcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cancel != nil
}

// Result summarizes one dispatch cycle.
type Result struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"` // already delivered within the recent window
	NotDue  int `json:"not_due"` // today's entries whose send time is later
}

// RunOnce delivers every entry due at the current time. Delivery failures are
// recorded on the entry; only a failure to read the queue is returned.
//
// Cycles never overlap: a call made while another is in flight waits for it to
// finish, or returns ctx.Err() if ctx ends first.
func (w *Dispatcher) RunOnce(ctx context.Context) (Result, error) {
	var res Result
	select {
	case w.cycleSlot <- struct{}{}:
	case <-ctx.Done():
		return res, ctx.Err()
	}
	defer func() { <-w.cycleSlot }()

	now := w.now()

	entries, err := w.repo.FindPendingReminders(ctx, domain.DateOf(now), w.batchSize)
	if err != nil {
		return res, fmt.Errorf("failed to load pending reminders: %w", err)
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if !entry.DueAt(now) {
			res.NotDue++
			continue
		}
		if status, seen := w.recent.Get(entry.ID); seen {
			slog.DebugContext(ctx, "reminder already delivered, awaiting status write",
				"reminder_id", entry.ID, "status", status)
			res.Skipped++
			continue
		}

		status := w.dispatch(ctx, entry, now)
		if status == domain.ReminderStatusSent {
			res.Sent++
		} else {
			res.Failed++
		}
	}

	w.recent.Sweep()

	if res.Sent+res.Failed > 0 {
		slog.InfoContext(ctx, "reminders dispatched",
			"sent", res.Sent,
			"failed", res.Failed,
			"skipped", res.Skipped)
	}
	return res, nil
}

func (w *Dispatcher) dispatch(ctx context.Context, entry *domain.ReminderEntry, now time.Time) domain.ReminderStatus {
	status := domain.ReminderStatusSent
	var lastError *string

	if err := w.deliverWithRecovery(ctx, entry); err != nil {
		status = domain.ReminderStatusFailed
		lastError = ptr.To(err.Error())
		if !IsPanic(err) {
			w.errorHandler.HandleError(ctx, entry, err)
		}
	}
	w.recent.Set(entry.ID, status)
	w.count(ctx, w.dispatched, entry, status)

	err := w.repo.MarkReminder(ctx, entry.ID, status, lastError, now)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrReminderFinalized):
		slog.InfoContext(ctx, "reminder already finalized by another dispatcher", "reminder_id", entry.ID)
	default:
		w.count(ctx, w.markErrors, entry, status)
		slog.ErrorContext(ctx, "failed to record reminder status",
			"reminder_id", entry.ID,
			"status", status,
			"error", err)
	}
	return status
}

// deliverWithRecovery sends entry with panic recovery.
// If the sink panics, captures stack trace and converts to PanicError.
func (w *Dispatcher) deliverWithRecovery(ctx context.Context, entry *domain.ReminderEntry) (err error) {
	defer func() {
		r := recover()
		if r != nil {
			stackTrace := string(debug.Stack())
			w.errorHandler.HandlePanic(ctx, entry, r, stackTrace)
			err = PanicError{ReminderID: entry.ID, Value: r, StackTrace: stackTrace}
		}
	}()
	return w.sink.Send(ctx, entry.Recipient, entry.Subject, entry.Body)
}

func (w *Dispatcher) count(ctx context.Context, c metric.Int64Counter, entry *domain.ReminderEntry, status domain.ReminderStatus) {
	if c == nil {
		return
	}
	c.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", string(entry.Kind)),
		attribute.String("status", string(status)),
	))
}
