// Package taskview derives the rendered task list from the raw fetched
// rows: status filter, free-text search, a single stable sort, aggregate
// counts and per-task deadline countdowns. Everything here is pure; the
// caller owns the slice it passes in and gets a fresh one back.
package taskview

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Haisyam/SiMETA/internal/models"
)

// Status filter values. StatusAll disables the status predicate; the
// remaining values match models task statuses verbatim.
const (
	StatusAll = "all"
)

// Sort modes.
const (
	SortNearest  = "nearest"  // ascending by due date
	SortFarthest = "farthest" // descending by due date
	SortNewest   = "newest"   // descending by creation time
)

type Filters struct {
	Status string
	Sort   string
	Search string
}

// ParseFilters normalizes raw query values into a valid Filters.
// Unrecognized status or sort values fall back to the defaults.
func ParseFilters(status, sort, search string) Filters {
	if status != StatusAll && !models.ValidStatus(status) {
		status = StatusAll
	}
	if sort != SortNearest && sort != SortFarthest && sort != SortNewest {
		sort = SortNearest
	}
	return Filters{Status: status, Sort: sort, Search: search}
}

// Apply returns the filtered, sorted projection of tasks. The input
// slice is never mutated. Filtering keeps tasks matching the status
// filter whose title or course contains the trimmed, case-insensitive
// search text; ties under every sort mode keep their relative order.
func Apply(tasks []models.Task, f Filters) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	search := strings.ToLower(strings.TrimSpace(f.Search))

	for _, t := range tasks {
		if f.Status != StatusAll && t.Status != f.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Course), search) {
			continue
		}
		out = append(out, t)
	}

	switch f.Sort {
	case SortNearest:
		slices.SortStableFunc(out, func(a, b models.Task) int {
			return a.DueDate.Compare(b.DueDate)
		})
	case SortFarthest:
		slices.SortStableFunc(out, func(a, b models.Task) int {
			return b.DueDate.Compare(a.DueDate)
		})
	case SortNewest:
		slices.SortStableFunc(out, func(a, b models.Task) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	}

	return out
}

// Stats are always computed from the unfiltered list.
type Stats struct {
	Total      int
	Todo       int
	InProgress int
	Done       int
}

func Count(tasks []models.Task) Stats {
	s := Stats{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case models.StatusTodo:
			s.Todo++
		case models.StatusInProgress:
			s.InProgress++
		case models.StatusDone:
			s.Done++
		}
	}
	return s
}

// Countdown is the deadline badge for one task. Overdue and Urgent are
// only rendered while the task is not done; that guard lives in the
// caller because it is presentation, the flags themselves only look at
// the clock.
type Countdown struct {
	Label   string
	Overdue bool
	Urgent  bool
}

const urgentWindow = 48 * time.Hour

// CountdownAt computes the badge for a task at the given instant.
// Past-due tasks get the H-0 label with Overdue set; otherwise the
// label counts whole days remaining, floored.
func CountdownAt(t models.Task, now time.Time) Countdown {
	diff := t.DueDate.Sub(now)
	if diff < 0 {
		return Countdown{Label: "H-0", Overdue: true}
	}
	days := int(diff.Hours() / 24)
	return Countdown{
		Label:  fmt.Sprintf("H-%d", days),
		Urgent: diff <= urgentWindow,
	}
}
