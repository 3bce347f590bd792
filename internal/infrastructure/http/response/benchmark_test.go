package response_test

import (
	"net/http/httptest"
	"testing"

	"github.com/rezkam/awe/internal/infrastructure/http/response"
)

type benchTask struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Status        string  `json:"status"`
	DerivedStatus string  `json:"derived_status"`
	DueDate       string  `json:"due_date"`
	Remarks       *string `json:"remarks,omitempty"`
}

func taskPage(n int) []benchTask {
	tasks := make([]benchTask, n)
	for i := range tasks {
		tasks[i] = benchTask{
			ID:            "A10C1015032024",
			Name:          "GST Return Filing",
			Status:        "Yet to Start",
			DerivedStatus: "Due with Delay",
			DueDate:       "2024-03-15",
		}
	}
	return tasks
}

func benchmarkOK(b *testing.B, n int) {
	data := map[string]any{"tasks": taskPage(n)}
	for b.Loop() {
		response.OK(httptest.NewRecorder(), data)
	}
}

func BenchmarkOK_1Task(b *testing.B)    { benchmarkOK(b, 1) }
func BenchmarkOK_50Tasks(b *testing.B)  { benchmarkOK(b, 50) }
func BenchmarkOK_500Tasks(b *testing.B) { benchmarkOK(b, 500) }
