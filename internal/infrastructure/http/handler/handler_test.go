package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/awe/internal/application/analytics"
	"github.com/rezkam/awe/internal/application/assignment"
	"github.com/rezkam/awe/internal/application/catalog"
	"github.com/rezkam/awe/internal/application/holidays"
	"github.com/rezkam/awe/internal/application/messaging"
	"github.com/rezkam/awe/internal/application/worker"
	"github.com/rezkam/awe/internal/infrastructure/http/handler"
	"github.com/rezkam/awe/internal/infrastructure/persistence/sqlite"
	"github.com/rezkam/awe/internal/storage/fs"
)

// Tuesday morning.
var fixedNow = time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

const catalogYAML = `
activities:
  - id: A1
    name: GST Filing
    frequency: 12
    duration: 3
    criticality: High
    type: R
    sub_activities: [Collect invoices, File return]
  - id: A2
    name: Stock Audit
    frequency: 4
    duration: 1
    criticality: Low
    type: I
actors:
  - name: Asha
    email: asha@example.com
  - name: Ravi
    email: ravi@example.com
customers:
  - id: C1
    name: Acme Traders
    email: accounts@acme.example
`

type recordingSink struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (s *recordingSink) Send(_ context.Context, recipient, _, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("smtp down")
	}
	s.sent = append(s.sent, recipient)
	return nil
}

type env struct {
	t       *testing.T
	handler http.Handler
	sink    *recordingSink
}

type envOption func(*handler.Services, *sqlite.Store, *recordingSink)

func withoutDispatcher() envOption {
	return func(s *handler.Services, _ *sqlite.Store, _ *recordingSink) { s.Dispatcher = nil }
}

func withoutArchive() envOption {
	return func(s *handler.Services, store *sqlite.Store, _ *recordingSink) {
		s.Analytics = analytics.NewService(store, analytics.WithClock(clock))
	}
}

func newEnv(t *testing.T, opts ...envOption) *env {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	archive, err := fs.NewStore(t.TempDir())
	require.NoError(t, err)

	sink := &recordingSink{}
	services := handler.Services{
		Assignments: assignment.NewService(store, assignment.WithClock(clock)),
		Analytics:   analytics.NewService(store, analytics.WithClock(clock), analytics.WithArchive(archive)),
		Messaging:   messaging.NewService(store, messaging.WithClock(clock)),
		Holidays:    holidays.NewService(store),
		Catalog:     catalog.NewService(store),
		Dispatcher:  worker.New(store, sink, worker.WithClock(clock), worker.WithPollInterval(time.Hour)),
	}
	for _, opt := range opts {
		opt(&services, store, sink)
	}
	t.Cleanup(func() {
		if services.Dispatcher != nil {
			services.Dispatcher.Stop()
		}
	})

	e := &env{t: t, handler: handler.NewRouter(services), sink: sink}
	e.expect(http.MethodPost, "/v1/catalog/seed", catalogYAML, http.StatusOK)
	return e
}

func (e *env) do(method, path, body string) *httptest.ResponseRecorder {
	e.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, httptest.NewRequest(method, path, r))
	return w
}

// expect performs a request, checks the status and decodes the body.
func (e *env) expect(method, path, body string, status int) map[string]any {
	e.t.Helper()
	w := e.do(method, path, body)
	require.Equal(e.t, status, w.Code, "%s %s: %s", method, path, w.Body.String())
	if w.Body.Len() == 0 {
		return nil
	}
	var out map[string]any
	require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorCode(body map[string]any) string {
	return body["error"].(map[string]any)["code"].(string)
}

func (e *env) assign(activity string) map[string]any {
	e.t.Helper()
	body := e.expect(http.MethodPost, "/v1/assignments",
		`{"activity_id":"`+activity+`","customer_id":"C1","assigned_to":"Asha","reviewer":"Ravi","initiator":"admin"}`,
		http.StatusCreated)
	return body["task"].(map[string]any)
}

func TestAssignAndTaskLifecycle(t *testing.T) {
	e := newEnv(t)

	body := e.expect(http.MethodPost, "/v1/assignments",
		`{"activity_id":"A1","customer_id":"C1","assigned_to":"Asha","reviewer":"Ravi","initiator":"admin"}`,
		http.StatusCreated)
	task := body["task"].(map[string]any)
	taskID := task["id"].(string)
	assert.Equal(t, "GST Filing", task["name"])
	assert.Equal(t, "Yet to Start", task["status"])
	assert.Equal(t, "Regulatory", task["activity_type"])
	assert.Equal(t, "Ravi", task["reviewer"])
	assert.Len(t, body["sub_tasks"], 2)
	assert.NotEmpty(t, body["reminders"])

	conflict := e.expect(http.MethodPost, "/v1/assignments",
		`{"activity_id":"A1","customer_id":"C1","assigned_to":"Asha"}`, http.StatusConflict)
	assert.Equal(t, "CONFLICT", errorCode(conflict))

	list := e.expect(http.MethodGet, "/v1/tasks?assignee=Asha", "", http.StatusOK)
	require.Len(t, list["tasks"], 1)

	got := e.expect(http.MethodGet, "/v1/tasks/"+taskID, "", http.StatusOK)
	assert.Equal(t, taskID, got["task"].(map[string]any)["id"])

	updated := e.expect(http.MethodPatch, "/v1/tasks/"+taskID,
		`{"update_mask":["status","remarks"],"status":"completed","remarks":"filed early"}`, http.StatusOK)
	ut := updated["task"].(map[string]any)
	assert.Equal(t, "Completed", ut["status"])
	assert.Equal(t, "2024-03-05", ut["actual_date"])
	assert.Equal(t, "filed early", ut["remarks"])
	assert.Equal(t, "Completed", ut["derived_status"])

	subs := e.expect(http.MethodGet, "/v1/tasks/"+taskID+"/subtasks", "", http.StatusOK)["sub_tasks"].([]any)
	require.Len(t, subs, 2)
	subID := subs[0].(map[string]any)["id"].(string)
	sub := e.expect(http.MethodPatch, "/v1/subtasks/"+subID, `{"status":"done"}`, http.StatusOK)
	assert.Equal(t, "Completed", sub["sub_task"].(map[string]any)["status"])

	entry := e.expect(http.MethodPost, "/v1/tasks/"+taskID+"/diary",
		`{"start":"2024-03-05T09:00:00Z","end":"2024-03-05T11:30:00Z","note":"reconciliation"}`, http.StatusCreated)
	assert.InDelta(t, 2.5, entry["entry"].(map[string]any)["hours"], 1e-9)
}

func TestAssign_Validation(t *testing.T) {
	e := newEnv(t)

	body := e.expect(http.MethodPost, "/v1/assignments", `{"activity_id":"A1"}`, http.StatusBadRequest)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(body))
	details := body["error"].(map[string]any)["details"].([]any)
	assert.Len(t, details, 2, "customer_id and assigned_to")

	body = e.expect(http.MethodPost, "/v1/assignments", `{"activity_id":"A1","bogus":1}`, http.StatusBadRequest)
	assert.Equal(t, "INVALID_REQUEST", errorCode(body))

	e.expect(http.MethodPost, "/v1/assignments", ``, http.StatusBadRequest)

	body = e.expect(http.MethodPost, "/v1/assignments",
		`{"activity_id":"missing","customer_id":"C1","assigned_to":"Asha"}`, http.StatusNotFound)
	assert.Equal(t, "NOT_FOUND", errorCode(body))

	e.expect(http.MethodPost, "/v1/assignments",
		`{"activity_id":"A1","customer_id":"C1","assigned_to":"Asha","reviewer":"Nobody"}`, http.StatusNotFound)

	e.expect(http.MethodPost, "/v1/assignments",
		`{"activity_id":"A1","customer_id":"C1","assigned_to":"Asha","frequency":"7"}`, http.StatusBadRequest)
}

func TestTaskEndpoints_Errors(t *testing.T) {
	e := newEnv(t)
	task := e.assign("A1")
	id := task["id"].(string)

	e.expect(http.MethodGet, "/v1/tasks/nope", "", http.StatusNotFound)
	e.expect(http.MethodGet, "/v1/tasks?status=later", "", http.StatusBadRequest)
	e.expect(http.MethodGet, "/v1/tasks?derived=late", "", http.StatusBadRequest)
	e.expect(http.MethodGet, "/v1/tasks?period=someday", "", http.StatusBadRequest)
	e.expect(http.MethodGet, "/v1/tasks?limit=-1", "", http.StatusBadRequest)

	e.expect(http.MethodPatch, "/v1/tasks/"+id, `{"update_mask":[]}`, http.StatusBadRequest)
	e.expect(http.MethodPatch, "/v1/tasks/"+id, `{"update_mask":["due_date"]}`, http.StatusBadRequest)
	e.expect(http.MethodPatch, "/v1/tasks/"+id, `{"update_mask":["status"],"status":"finished"}`, http.StatusBadRequest)
	e.expect(http.MethodPatch, "/v1/subtasks/nope", `{"status":"done"}`, http.StatusNotFound)

	body := e.expect(http.MethodPost, "/v1/tasks/"+id+"/diary",
		`{"start":"2024-03-05T11:00:00Z","end":"2024-03-05T09:00:00Z"}`, http.StatusBadRequest)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(body))
}

func TestListTasks_Filters(t *testing.T) {
	e := newEnv(t)
	e.assign("A1")
	e.assign("A2")

	all := e.expect(http.MethodGet, "/v1/tasks", "", http.StatusOK)
	assert.Len(t, all["tasks"], 2)

	high := e.expect(http.MethodGet, "/v1/tasks?criticality=high", "", http.StatusOK)
	require.Len(t, high["tasks"], 1)
	assert.Equal(t, "A1", high["tasks"].([]any)[0].(map[string]any)["activity_id"])

	internal := e.expect(http.MethodGet, "/v1/tasks?activity=Internal", "", http.StatusOK)
	require.Len(t, internal["tasks"], 1)

	due := e.expect(http.MethodGet, "/v1/tasks?status=yet_to_start&derived=Due,Due%20with%20Delay", "", http.StatusOK)
	assert.Len(t, due["tasks"], 2)

	limited := e.expect(http.MethodGet, "/v1/tasks?limit=1", "", http.StatusOK)
	assert.Len(t, limited["tasks"], 1)
}

func TestAnalytics(t *testing.T) {
	e := newEnv(t)
	e.assign("A1")
	e.assign("A2")

	stats := e.expect(http.MethodGet, "/v1/analytics/stats?period=All&activity=All", "", http.StatusOK)
	assert.EqualValues(t, 2, stats["total_activities"])
	assert.Contains(t, stats, "pie_chart")

	regulatory := e.expect(http.MethodGet, "/v1/analytics/stats?activity=R", "", http.StatusOK)
	assert.EqualValues(t, 1, regulatory["total_activities"])

	e.expect(http.MethodGet, "/v1/analytics/stats?period=Next%20Year", "", http.StatusBadRequest)
	e.expect(http.MethodGet, "/v1/analytics/stats?activity=X", "", http.StatusBadRequest)

	byName := e.expect(http.MethodGet, "/v1/analytics/details?filterType=taskName&filterValue=stock", "", http.StatusOK)
	require.Len(t, byName["tasks"], 1)
	assert.Equal(t, "Stock Audit", byName["tasks"].([]any)[0].(map[string]any)["name"])

	byCrit := e.expect(http.MethodGet, "/v1/analytics/details?filterType=criticality&filterValue=High", "", http.StatusOK)
	assert.Len(t, byCrit["tasks"], 1)

	empty := e.expect(http.MethodGet, "/v1/analytics/details?filterType=status&filterValue=completed", "", http.StatusOK)
	assert.Empty(t, empty["tasks"])

	e.expect(http.MethodGet, "/v1/analytics/details?filterType=colour&filterValue=red", "", http.StatusBadRequest)
	e.expect(http.MethodGet, "/v1/analytics/details?filterType=criticality&filterValue=High&status=late", "", http.StatusBadRequest)
}

func TestSnapshots(t *testing.T) {
	e := newEnv(t)
	e.assign("A1")

	created := e.expect(http.MethodPost, "/v1/analytics/snapshots?period=Current%20Month", "", http.StatusCreated)
	id := created["id"].(string)
	assert.Equal(t, "Current Month", created["period"])
	assert.Equal(t, "2024-03-05", created["today"])

	list := e.expect(http.MethodGet, "/v1/analytics/snapshots", "", http.StatusOK)
	assert.Len(t, list["snapshots"], 1)

	got := e.expect(http.MethodGet, "/v1/analytics/snapshots/"+id, "", http.StatusOK)
	assert.Equal(t, id, got["id"])

	e.expect(http.MethodGet, "/v1/analytics/snapshots/missing", "", http.StatusNotFound)

	bare := newEnv(t, withoutArchive())
	body := bare.expect(http.MethodPost, "/v1/analytics/snapshots", "", http.StatusServiceUnavailable)
	assert.Equal(t, "UNAVAILABLE", errorCode(body))
}

func TestMessagesAndReminders(t *testing.T) {
	e := newEnv(t)

	body := e.expect(http.MethodPost, "/v1/messages",
		`{"description":"Quarterly review call","date":"2024-03-09","time":"10:30","criticality":"High","recipients":["Ops@Example.com"],"customer_ids":["C1"]}`,
		http.StatusCreated)
	// Saturday the 9th moves back to Friday for High criticality.
	assert.Equal(t, []any{"2024-03-08"}, body["dates"])
	assert.Equal(t, []any{"accounts@acme.example", "ops@example.com"}, body["recipients"])
	assert.EqualValues(t, 2, body["scheduled"])

	again := e.expect(http.MethodPost, "/v1/messages",
		`{"description":"Quarterly review call","date":"2024-03-09","criticality":"High","recipients":["ops@example.com"]}`,
		http.StatusCreated)
	assert.EqualValues(t, 0, again["scheduled"])
	assert.EqualValues(t, 1, again["duplicates"])

	e.expect(http.MethodPost, "/v1/messages", `{"description":"x","recipients":["not-an-email"]}`, http.StatusBadRequest)
	e.expect(http.MethodPost, "/v1/messages", `{"description":"x"}`, http.StatusBadRequest)
	e.expect(http.MethodPost, "/v1/messages", `{"description":"x","recipients":["a@b.co"],"date":"09/03/2024"}`, http.StatusBadRequest)
	e.expect(http.MethodPost, "/v1/messages", `{"description":"x","customer_ids":["C9"]}`, http.StatusNotFound)

	pending := e.expect(http.MethodGet, "/v1/reminders?status=pending", "", http.StatusOK)
	reminders := pending["reminders"].([]any)
	require.Len(t, reminders, 2)
	first := reminders[0].(map[string]any)
	assert.Equal(t, "message", first["kind"])
	assert.Equal(t, "2024-03-08", first["send_date"])
	assert.Equal(t, "10:30", first["send_time"])

	e.expect(http.MethodGet, "/v1/reminders?status=lost", "", http.StatusBadRequest)
}

func TestHolidays(t *testing.T) {
	e := newEnv(t)

	added := e.expect(http.MethodPost, "/v1/holidays", `{"date":"2024-03-25","name":" Holi "}`, http.StatusCreated)
	assert.Equal(t, map[string]any{"date": "2024-03-25", "name": "Holi"}, added["holiday"])

	imported := e.expect(http.MethodPost, "/v1/holidays/import",
		"holidays:\n  - date: 2024-01-26\n    name: Republic Day\n  - date: 2025-01-26\n    name: Republic Day\n",
		http.StatusOK)
	assert.EqualValues(t, 2, imported["imported"])

	all := e.expect(http.MethodGet, "/v1/holidays", "", http.StatusOK)
	assert.Len(t, all["holidays"], 3)
	year := e.expect(http.MethodGet, "/v1/holidays?year=2024", "", http.StatusOK)
	assert.Len(t, year["holidays"], 2)

	e.expect(http.MethodDelete, "/v1/holidays/2024-03-25", "", http.StatusNoContent)
	e.expect(http.MethodDelete, "/v1/holidays/2024-03-25", "", http.StatusNotFound)
	e.expect(http.MethodDelete, "/v1/holidays/25-03-2024", "", http.StatusBadRequest)

	e.expect(http.MethodPost, "/v1/holidays", `{"date":"tomorrow"}`, http.StatusBadRequest)
	e.expect(http.MethodPost, "/v1/holidays/import", "holidays: [\n", http.StatusBadRequest)
	e.expect(http.MethodGet, "/v1/holidays?year=0", "", http.StatusBadRequest)
}

func TestHolidaysMoveAssignmentDueDates(t *testing.T) {
	e := newEnv(t)
	first := e.assign("A2")
	due, err := time.Parse("2006-01-02", first["due_date"].(string))
	require.NoError(t, err)

	// Declaring the due date a holiday pushes the next assignment off it.
	e.expect(http.MethodPost, "/v1/holidays", `{"date":"`+due.Format("2006-01-02")+`","name":"Closed"}`, http.StatusCreated)
	e.expect(http.MethodPost, "/v1/catalog/seed", `
customers:
  - id: C2
    name: Beta Mills
`, http.StatusOK)
	body := e.expect(http.MethodPost, "/v1/assignments",
		`{"activity_id":"A2","customer_id":"C2","assigned_to":"Asha"}`, http.StatusCreated)
	assert.NotEqual(t, due.Format("2006-01-02"), body["task"].(map[string]any)["due_date"])
}

func TestCatalog(t *testing.T) {
	e := newEnv(t)

	activities := e.expect(http.MethodGet, "/v1/activities", "", http.StatusOK)["activities"].([]any)
	require.Len(t, activities, 2)
	assert.Equal(t, "A1", activities[0].(map[string]any)["id"])

	a1 := e.expect(http.MethodGet, "/v1/activities/A1", "", http.StatusOK)["activity"].(map[string]any)
	assert.Equal(t, []any{"Collect invoices", "File return"}, a1["sub_activities"])
	e.expect(http.MethodGet, "/v1/activities/A9", "", http.StatusNotFound)

	actors := e.expect(http.MethodGet, "/v1/actors", "", http.StatusOK)["actors"].([]any)
	assert.Len(t, actors, 2)

	c1 := e.expect(http.MethodGet, "/v1/customers/C1", "", http.StatusOK)["customer"].(map[string]any)
	assert.Equal(t, "Acme Traders", c1["name"])
	e.expect(http.MethodGet, "/v1/customers/C9", "", http.StatusNotFound)
	assert.Len(t, e.expect(http.MethodGet, "/v1/customers", "", http.StatusOK)["customers"], 1)

	e.expect(http.MethodPost, "/v1/catalog/seed", "activities:\n  - id: A3\n", http.StatusBadRequest)
	e.expect(http.MethodPost, "/v1/catalog/seed", "activities: [\n", http.StatusBadRequest)
}

func TestDispatcher(t *testing.T) {
	e := newEnv(t)
	e.expect(http.MethodPost, "/v1/messages",
		`{"description":"Standup","date":"2024-03-05","time":"09:00","recipients":["ops@example.com"]}`,
		http.StatusCreated)

	status := e.expect(http.MethodGet, "/v1/dispatcher", "", http.StatusOK)
	assert.Equal(t, false, status["running"])

	res := e.expect(http.MethodPost, "/v1/dispatcher/run", "", http.StatusOK)
	assert.EqualValues(t, 1, res["sent"])
	assert.Equal(t, []string{"ops@example.com"}, e.sink.sent)

	sent := e.expect(http.MethodGet, "/v1/reminders?status=sent", "", http.StatusOK)
	assert.Len(t, sent["reminders"], 1)

	started := e.expect(http.MethodPost, "/v1/dispatcher/start", "", http.StatusOK)
	assert.Equal(t, true, started["changed"])
	again := e.expect(http.MethodPost, "/v1/dispatcher/start", "", http.StatusOK)
	assert.Equal(t, false, again["changed"])
	assert.Equal(t, true, e.expect(http.MethodGet, "/v1/dispatcher", "", http.StatusOK)["running"])

	stopped := e.expect(http.MethodPost, "/v1/dispatcher/stop", "", http.StatusOK)
	assert.Equal(t, true, stopped["changed"])
	assert.Equal(t, false, e.expect(http.MethodGet, "/v1/dispatcher", "", http.StatusOK)["running"])
}

func TestDispatcher_OutOfProcess(t *testing.T) {
	e := newEnv(t, withoutDispatcher())
	for _, path := range []string{"/v1/dispatcher/start", "/v1/dispatcher/stop", "/v1/dispatcher/run"} {
		e.expect(http.MethodPost, path, "", http.StatusServiceUnavailable)
	}
	e.expect(http.MethodGet, "/v1/dispatcher", "", http.StatusServiceUnavailable)
}
