package classify

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/awe/internal/domain"
	"github.com/rezkam/awe/internal/ptr"
)

func sampleTasks() []*domain.Task {
	return []*domain.Task{
		{Name: "GST Filing", Status: domain.TaskStatusWIP, DueDate: day(2024, 1, 10), Criticality: domain.CriticalityHigh, Type: domain.ActivityTypeRegulatory},
		{Name: "GST Filing", Status: domain.TaskStatusWIP, DueDate: day(2024, 1, 20), Criticality: domain.CriticalityHigh, Type: domain.ActivityTypeRegulatory},
		{Name: "Stock Audit", Status: domain.TaskStatusCompleted, DueDate: day(2024, 1, 10), ActualDate: ptr.To(day(2024, 1, 12)), Criticality: domain.CriticalityLow, Type: domain.ActivityTypeInternal},
		{Name: "Stock Audit", Status: domain.TaskStatusCompleted, DueDate: day(2024, 1, 10), Criticality: domain.CriticalityLow, Type: domain.ActivityTypeInternal},
		{Name: "TDS Return", Status: domain.TaskStatusYetToStart, DueDate: day(2024, 1, 30), Criticality: domain.CriticalityMedium, Type: domain.ActivityTypeCustomer},
		{Name: "TDS Return", Status: domain.TaskStatusPending, DueDate: day(2024, 1, 1), Criticality: domain.CriticalityMedium, Type: domain.ActivityTypeCustomer},
	}
}

func TestClassifyAll_MatchesSingleTask(t *testing.T) {
	today := day(2024, 1, 15)
	tasks := sampleTasks()

	var n int
	for task, status := range ClassifyAll(slices.Values(tasks), today) {
		assert.Equal(t, Classify(task.Status, task.DueDate, task.ActualDate, today), status)
		n++
	}
	assert.Equal(t, len(tasks), n)
}

func TestTally(t *testing.T) {
	counts := Tally(slices.Values(sampleTasks()), day(2024, 1, 15))

	assert.Equal(t, 1, counts[domain.DerivedOngoingWithDelay])
	assert.Equal(t, 1, counts[domain.DerivedOngoing])
	assert.Equal(t, 1, counts[domain.DerivedCompletedWithDelay])
	assert.Equal(t, 1, counts[domain.DerivedUnknown])
	assert.Equal(t, 1, counts[domain.DerivedDue])
	assert.Equal(t, 1, counts[domain.DerivedPending])
	assert.Equal(t, 6, counts.Total())
	assert.Equal(t, []int{1, 1, 1, 0, 1, 1, 0, 1}, counts.Ordered())
}

func TestGroupBy(t *testing.T) {
	today := day(2024, 1, 15)

	byCrit := GroupBy(slices.Values(sampleTasks()), today, ByCriticality)
	require.Len(t, byCrit, 3)
	assert.Equal(t, 2, byCrit[domain.CriticalityHigh].Total())
	assert.Equal(t, 1, byCrit[domain.CriticalityHigh][domain.DerivedOngoingWithDelay])
	assert.Equal(t, 1, byCrit[domain.CriticalityLow][domain.DerivedUnknown])

	byType := GroupBy(slices.Values(sampleTasks()), today, ByActivityType)
	assert.Equal(t, 1, byType[domain.ActivityTypeCustomer][domain.DerivedPending])
	assert.Equal(t, 1, byType[domain.ActivityTypeCustomer][domain.DerivedDue])

	byName := GroupBy(slices.Values(sampleTasks()), today, ByName)
	assert.Equal(t, 2, byName["Stock Audit"].Total())
}

func TestTally_Empty(t *testing.T) {
	counts := Tally(slices.Values([]*domain.Task(nil)), day(2024, 1, 15))
	assert.Zero(t, counts.Total())
}
