package classify

import (
	"iter"
	"time"

	"github.com/rezkam/awe/internal/domain"
)

// Counts is the number of tasks per derived status.
type Counts map[domain.DerivedStatus]int

// Total returns the sum over all buckets.
func (c Counts) Total() int {
	var n int
	for _, v := range c {
		n += v
	}
	return n
}

// Ordered returns the counts in domain.DerivedStatuses order.
func (c Counts) Ordered() []int {
	out := make([]int, len(domain.DerivedStatuses))
	for i, s := range domain.DerivedStatuses {
		out[i] = c[s]
	}
	return out
}

// ClassifyAll pairs every task of seq with its derived status.
func ClassifyAll(seq iter.Seq[*domain.Task], today time.Time) iter.Seq2[*domain.Task, domain.DerivedStatus] {
	return func(yield func(*domain.Task, domain.DerivedStatus) bool) {
		for t := range seq {
			if !yield(t, Task(t, today)) {
				return
			}
		}
	}
}

// Tally counts tasks per derived status.
func Tally(tasks iter.Seq[*domain.Task], today time.Time) Counts {
	counts := make(Counts)
	for _, status := range ClassifyAll(tasks, today) {
		counts[status]++
	}
	return counts
}

// GroupBy counts tasks per derived status within each group named by key.
func GroupBy[K comparable](tasks iter.Seq[*domain.Task], today time.Time, key func(*domain.Task) K) map[K]Counts {
	groups := make(map[K]Counts)
	for t, status := range ClassifyAll(tasks, today) {
		k := key(t)
		c, ok := groups[k]
		if !ok {
			c = make(Counts)
			groups[k] = c
		}
		c[status]++
	}
	return groups
}

// ByCriticality groups tasks by criticality.
func ByCriticality(t *domain.Task) domain.Criticality { return t.Criticality }

// ByActivityType groups tasks by activity type.
func ByActivityType(t *domain.Task) domain.ActivityType { return t.Type }

// ByName groups tasks by task name.
func ByName(t *domain.Task) string { return t.Name }
