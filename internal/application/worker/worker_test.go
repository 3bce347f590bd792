package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/rezkam/awe/internal/domain"
)

// mockRepository implements Repository for testing
type mockRepository struct {
	mu sync.Mutex

	findFunc func(ctx context.Context, through time.Time, limit int) ([]*domain.ReminderEntry, error)
	markFunc func(ctx context.Context, id string, status domain.ReminderStatus, lastError *string, at time.Time) error

	marked map[string]domain.ReminderStatus
	errors map[string]string
}

func (m *mockRepository) FindPendingReminders(ctx context.Context, through time.Time, limit int) ([]*domain.ReminderEntry, error) {
	if m.findFunc != nil {
		return m.findFunc(ctx, through, limit)
	}
	return nil, nil
}

func (m *mockRepository) MarkReminder(ctx context.Context, id string, status domain.ReminderStatus, lastError *string, at time.Time) error {
	if m.markFunc != nil {
		if err := m.markFunc(ctx, id, status, lastError, at); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.marked == nil {
		m.marked = map[string]domain.ReminderStatus{}
		m.errors = map[string]string{}
	}
	if _, done := m.marked[id]; done {
		return domain.ErrReminderFinalized
	}
	m.marked[id] = status
	if lastError != nil {
		m.errors[id] = *lastError
	}
	return nil
}

// queueRepository serves entries from a slice and drops them once marked.
func queueRepository(entries ...*domain.ReminderEntry) *mockRepository {
	repo := &mockRepository{}
	repo.findFunc = func(_ context.Context, through time.Time, limit int) ([]*domain.ReminderEntry, error) {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		var out []*domain.ReminderEntry
		for _, e := range entries {
			if _, done := repo.marked[e.ID]; done {
				continue
			}
			if e.SendDate.After(through) {
				continue
			}
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
		return out, nil
	}
	return repo
}

type sendFunc func(ctx context.Context, recipient, subject, body string) error

func (f sendFunc) Send(ctx context.Context, recipient, subject, body string) error {
	return f(ctx, recipient, subject, body)
}

type recordingSink struct {
	mu   sync.Mutex
	sent []string
	fail map[string]error
}

func (s *recordingSink) Send(_ context.Context, recipient, _, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail[recipient]; err != nil {
		return err
	}
	s.sent = append(s.sent, recipient)
	return nil
}

type countingHandler struct {
	errs   int
	panics int
}

func (h *countingHandler) HandleError(context.Context, *domain.ReminderEntry, error) { h.errs++ }
func (h *countingHandler) HandlePanic(context.Context, *domain.ReminderEntry, any, string) {
	h.panics++
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func entry(id string, date time.Time, at domain.ClockTime) *domain.ReminderEntry {
	return &domain.ReminderEntry{
		ID:        id,
		Kind:      domain.ReminderKindReminder,
		Recipient: id + "@example.com",
		Subject:   "subject",
		Body:      "body",
		SendDate:  date,
		SendTime:  at,
		Status:    domain.ReminderStatusPending,
	}
}

var now = time.Date(2024, 6, 10, 10, 30, 0, 0, time.UTC)

func clock() time.Time { return now }

func TestRunOnce_DeliversDueEntries(t *testing.T) {
	repo := queueRepository(
		entry("yesterday-late", day(2024, 6, 9), domain.ClockTime{Hour: 23}),
		entry("today-early", day(2024, 6, 10), domain.ClockTime{Hour: 9}),
		entry("today-now", day(2024, 6, 10), domain.ClockTime{Hour: 10, Minute: 30}),
		entry("today-later", day(2024, 6, 10), domain.ClockTime{Hour: 17}),
		entry("tomorrow", day(2024, 6, 11), domain.ClockTime{Hour: 0}),
	)
	sink := &recordingSink{}
	w := New(repo, sink, WithClock(clock))

	res, err := w.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Result{Sent: 3, NotDue: 1}, res)
	assert.ElementsMatch(t, []string{
		"yesterday-late@example.com", "today-early@example.com", "today-now@example.com",
	}, sink.sent)
	assert.Equal(t, domain.ReminderStatusSent, repo.marked["yesterday-late"])
	assert.NotContains(t, repo.marked, "today-later")
	assert.NotContains(t, repo.marked, "tomorrow")

	// Nothing is sent twice.
	res, err = w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{NotDue: 1}, res)
	assert.Len(t, sink.sent, 3)
}

func TestRunOnce_FailureIsFinal(t *testing.T) {
	repo := queueRepository(entry("bad", day(2024, 6, 10), domain.ClockTime{Hour: 9}))
	sink := &recordingSink{fail: map[string]error{"bad@example.com": errors.New("mailbox unavailable")}}
	handler := &countingHandler{}
	w := New(repo, sink, WithClock(clock), WithErrorHandler(handler))

	res, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, domain.ReminderStatusFailed, repo.marked["bad"])
	assert.Equal(t, "mailbox unavailable", repo.errors["bad"])
	assert.Equal(t, 1, handler.errs)

	res, err = w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}

func TestRunOnce_RecoversPanics(t *testing.T) {
	repo := queueRepository(
		entry("boom", day(2024, 6, 10), domain.ClockTime{Hour: 9}),
		entry("fine", day(2024, 6, 10), domain.ClockTime{Hour: 9}),
	)
	handler := &countingHandler{}
	sink := sendFunc(func(_ context.Context, recipient, _, _ string) error {
		if recipient == "boom@example.com" {
			panic("template exploded")
		}
		return nil
	})
	w := New(repo, sink, WithClock(clock), WithErrorHandler(handler))

	res, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Sent: 1, Failed: 1}, res)
	assert.Equal(t, domain.ReminderStatusFailed, repo.marked["boom"])
	assert.Equal(t, "sink panicked delivering reminder boom: template exploded", repo.errors["boom"])
	assert.Equal(t, 1, handler.panics)
	assert.Zero(t, handler.errs)
}

func TestRunOnce_StatusWriteFailureDoesNotResend(t *testing.T) {
	repo := queueRepository(entry("flaky", day(2024, 6, 10), domain.ClockTime{Hour: 9}))
	writes := 0
	repo.markFunc = func(context.Context, string, domain.ReminderStatus, *string, time.Time) error {
		writes++
		if writes == 1 {
			return errors.New("connection reset")
		}
		return nil
	}
	sink := &recordingSink{}
	current := now
	w := New(repo, sink, WithClock(func() time.Time { return current }), WithRecentTTL(time.Hour))

	res, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)

	res, err = w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Skipped: 1}, res)
	assert.Len(t, sink.sent, 1)

	// Once the window expires the entry is delivered again.
	current = current.Add(2 * time.Hour)
	res, err = w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	assert.Len(t, sink.sent, 2)
}

func TestRunOnce_AlreadyFinalized(t *testing.T) {
	repo := queueRepository(entry("raced", day(2024, 6, 10), domain.ClockTime{Hour: 9}))
	repo.markFunc = func(context.Context, string, domain.ReminderStatus, *string, time.Time) error {
		return domain.ErrReminderFinalized
	}
	w := New(repo, &recordingSink{}, WithClock(clock))

	res, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
}

func TestRunOnce_LoadError(t *testing.T) {
	repo := &mockRepository{findFunc: func(context.Context, time.Time, int) ([]*domain.ReminderEntry, error) {
		return nil, errors.New("db down")
	}}
	_, err := New(repo, &recordingSink{}, WithClock(clock)).RunOnce(context.Background())
	assert.ErrorContains(t, err, "db down")
}

func TestRunOnce_PassesBatchAndDate(t *testing.T) {
	var gotThrough time.Time
	var gotLimit int
	repo := &mockRepository{findFunc: func(_ context.Context, through time.Time, limit int) ([]*domain.ReminderEntry, error) {
		gotThrough, gotLimit = through, limit
		return nil, nil
	}}
	_, err := New(repo, &recordingSink{}, WithClock(clock), WithBatchSize(7)).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, day(2024, 6, 10), gotThrough)
	assert.Equal(t, 7, gotLimit)
}

func TestRunOnce_RecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	repo := queueRepository(
		entry("ok", day(2024, 6, 10), domain.ClockTime{Hour: 9}),
		entry("bad", day(2024, 6, 10), domain.ClockTime{Hour: 9}),
	)
	sink := &recordingSink{fail: map[string]error{"bad@example.com": errors.New("rejected")}}
	w := New(repo, sink, WithClock(clock), WithMeterProvider(provider))

	_, err := w.RunOnce(context.Background())
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "awe.reminders.dispatched" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	assert.Equal(t, int64(2), total)
}

func TestRunOnce_CyclesDoNotOverlap(t *testing.T) {
	repo := queueRepository(entry("once", day(2024, 6, 10), domain.ClockTime{Hour: 9}))

	var (
		mu    sync.Mutex
		calls int
	)
	entered := make(chan struct{})
	release := make(chan struct{})
	sink := sendFunc(func(context.Context, string, string, string) error {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			close(entered)
			<-release
		}
		return nil
	})
	w := New(repo, sink, WithClock(clock))

	results := make(chan Result, 2)
	run := func() {
		res, err := w.RunOnce(context.Background())
		assert.NoError(t, err)
		results <- res
	}

	go run()
	<-entered
	go run()

	select {
	case <-results:
		t.Fatal("second cycle ran while the first was delivering")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)

	total := Result{}
	for range 2 {
		select {
		case res := <-results:
			total.Sent += res.Sent
			total.Skipped += res.Skipped
		case <-time.After(2 * time.Second):
			t.Fatal("cycle did not finish")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, total.Sent)
	assert.Equal(t, domain.ReminderStatusSent, repo.marked["once"])
}

func TestRunOnce_WaitingCycleHonoursContext(t *testing.T) {
	repo := queueRepository(entry("slow", day(2024, 6, 10), domain.ClockTime{Hour: 9}))
	entered := make(chan struct{})
	release := make(chan struct{})
	sink := sendFunc(func(context.Context, string, string, string) error {
		close(entered)
		<-release
		return nil
	})
	w := New(repo, sink, WithClock(clock))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = w.RunOnce(context.Background())
	}()
	<-entered

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := w.RunOnce(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	<-done
}

func TestStartStop(t *testing.T) {
	sent := make(chan string, 10)
	repo := queueRepository(entry("bg", day(2024, 6, 10), domain.ClockTime{Hour: 9}))
	sink := sendFunc(func(_ context.Context, recipient, _, _ string) error {
		sent <- recipient
		return nil
	})
	w := New(repo, sink, WithClock(clock), WithPollInterval(10*time.Millisecond))

	assert.False(t, w.Running())
	assert.False(t, w.Stop())

	require.True(t, w.Start(context.Background()))
	assert.False(t, w.Start(context.Background()), "second start is a no-op")
	assert.True(t, w.Running())

	select {
	case r := <-sent:
		assert.Equal(t, "bg@example.com", r)
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not deliver in time")
	}

	assert.True(t, w.Stop())
	assert.False(t, w.Running())
	assert.False(t, w.Stop())

	require.True(t, w.Start(context.Background()), "restart after stop")
	assert.True(t, w.Stop())
}

func TestRun_ReturnsOnCancel(t *testing.T) {
	w := New(&mockRepository{}, &recordingSink{}, WithClock(clock), WithPollInterval(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestStart_ParentCancelClearsState(t *testing.T) {
	w := New(&mockRepository{}, &recordingSink{}, WithClock(clock), WithPollInterval(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())

	require.True(t, w.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool { return !w.Running() }, 2*time.Second, 5*time.Millisecond)
	require.True(t, w.Start(context.Background()))
	assert.True(t, w.Stop())
}
