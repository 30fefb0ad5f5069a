package taskview_test

import (
	"testing"
	"time"

	"github.com/Haisyam/SiMETA/internal/models"
	"github.com/Haisyam/SiMETA/internal/taskview"
)

var base = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func task(id int, title, course, status string, due, created time.Time) models.Task {
	return models.Task{
		ID:        id,
		Title:     title,
		Course:    course,
		Status:    status,
		DueDate:   due,
		CreatedAt: created,
	}
}

func sampleTasks() []models.Task {
	return []models.Task{
		task(1, "Laporan Praktikum", "Pemrograman Web", models.StatusTodo, base.Add(24*time.Hour), base.Add(-3*time.Hour)),
		task(2, "Kuis Statistika", "Statistika", models.StatusDone, base.Add(-24*time.Hour), base.Add(-2*time.Hour)),
		task(3, "Esai Etika", "Etika Profesi", models.StatusInProgress, base.Add(3*time.Hour), base.Add(-1*time.Hour)),
	}
}

func ids(tasks []models.Task) []int {
	out := make([]int, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func assertOrder(t *testing.T, got []models.Task, want ...int) {
	t.Helper()
	gotIDs := ids(got)
	if len(gotIDs) != len(want) {
		t.Fatalf("expected ids %v, got %v", want, gotIDs)
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("expected ids %v, got %v", want, gotIDs)
		}
	}
}

func TestApplyStatusFilter(t *testing.T) {
	tasks := sampleTasks()

	got := taskview.Apply(tasks, taskview.Filters{Status: models.StatusDone, Sort: taskview.SortNearest})
	assertOrder(t, got, 2)

	got = taskview.Apply(tasks, taskview.Filters{Status: taskview.StatusAll, Sort: taskview.SortNewest})
	if len(got) != 3 {
		t.Fatalf("expected all 3 tasks, got %d", len(got))
	}
}

func TestApplySearchMatchesTitleOrCourse(t *testing.T) {
	tasks := sampleTasks()

	// case-insensitive title match
	got := taskview.Apply(tasks, taskview.Filters{Status: taskview.StatusAll, Sort: taskview.SortNearest, Search: "laporan"})
	assertOrder(t, got, 1)

	// course match with surrounding whitespace
	got = taskview.Apply(tasks, taskview.Filters{Status: taskview.StatusAll, Sort: taskview.SortNearest, Search: "  STATISTIKA "})
	assertOrder(t, got, 2)

	// no match
	got = taskview.Apply(tasks, taskview.Filters{Status: taskview.StatusAll, Sort: taskview.SortNearest, Search: "kalkulus"})
	if len(got) != 0 {
		t.Fatalf("expected no results, got %v", ids(got))
	}
}

// The literal sort rule: nearest is ascending by due date regardless of
// status, so the overdue done task comes first.
func TestApplyNearestExampleScenario(t *testing.T) {
	tasks := sampleTasks()

	got := taskview.Apply(tasks, taskview.Filters{Status: taskview.StatusAll, Sort: taskview.SortNearest})
	assertOrder(t, got, 2, 3, 1)
}

func TestApplyFarthest(t *testing.T) {
	got := taskview.Apply(sampleTasks(), taskview.Filters{Status: taskview.StatusAll, Sort: taskview.SortFarthest})
	assertOrder(t, got, 1, 3, 2)
}

func TestApplyNewest(t *testing.T) {
	got := taskview.Apply(sampleTasks(), taskview.Filters{Status: taskview.StatusAll, Sort: taskview.SortNewest})
	assertOrder(t, got, 3, 2, 1)
}

// Reversing farthest yields nearest and vice versa.
func TestNearestFarthestRoundTrip(t *testing.T) {
	tasks := sampleTasks()

	nearest := taskview.Apply(tasks, taskview.Filters{Status: taskview.StatusAll, Sort: taskview.SortNearest})
	farthest := taskview.Apply(tasks, taskview.Filters{Status: taskview.StatusAll, Sort: taskview.SortFarthest})

	for i := range nearest {
		if nearest[i].ID != farthest[len(farthest)-1-i].ID {
			t.Fatalf("farthest is not the reverse of nearest: %v vs %v", ids(nearest), ids(farthest))
		}
	}
}

func TestApplySortIsStableForTies(t *testing.T) {
	due := base.Add(time.Hour)
	tasks := []models.Task{
		task(1, "a", "x", models.StatusTodo, due, base),
		task(2, "b", "x", models.StatusTodo, due, base),
		task(3, "c", "x", models.StatusTodo, due, base),
	}

	got := taskview.Apply(tasks, taskview.Filters{Status: taskview.StatusAll, Sort: taskview.SortNearest})
	assertOrder(t, got, 1, 2, 3)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	tasks := sampleTasks()

	taskview.Apply(tasks, taskview.Filters{Status: models.StatusDone, Sort: taskview.SortFarthest, Search: "esai"})

	assertOrder(t, tasks, 1, 2, 3)
}

func TestCountUsesUnfilteredList(t *testing.T) {
	stats := taskview.Count(sampleTasks())

	if stats.Total != 3 || stats.Todo != 1 || stats.InProgress != 1 || stats.Done != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.Todo+stats.InProgress+stats.Done != stats.Total {
		t.Fatalf("stats do not sum to total: %+v", stats)
	}
}

func TestParseFiltersNormalizesUnknownValues(t *testing.T) {
	f := taskview.ParseFilters("garbage", "sideways", "query")

	if f.Status != taskview.StatusAll {
		t.Errorf("expected status all, got %q", f.Status)
	}
	if f.Sort != taskview.SortNearest {
		t.Errorf("expected sort nearest, got %q", f.Sort)
	}
	if f.Search != "query" {
		t.Errorf("expected search preserved, got %q", f.Search)
	}
}

func TestCountdownOverdue(t *testing.T) {
	tk := task(1, "a", "x", models.StatusTodo, base.Add(-time.Minute), base)

	cd := taskview.CountdownAt(tk, base)
	if !cd.Overdue {
		t.Error("expected overdue")
	}
	if cd.Urgent {
		t.Error("overdue task should not be urgent")
	}
	if cd.Label != "H-0" {
		t.Errorf("expected label H-0, got %q", cd.Label)
	}
}

func TestCountdownDaysRemaining(t *testing.T) {
	cases := []struct {
		name      string
		due       time.Duration
		wantLabel string
		wantUrg   bool
	}{
		{"three hours", 3 * time.Hour, "H-0", true},
		{"exactly 48h", 48 * time.Hour, "H-2", true},
		{"just past 48h", 48*time.Hour + time.Minute, "H-2", false},
		{"five and a half days", 5*24*time.Hour + 12*time.Hour, "H-5", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tk := task(1, "a", "x", models.StatusTodo, base.Add(tc.due), base)
			cd := taskview.CountdownAt(tk, base)
			if cd.Overdue {
				t.Error("unexpected overdue")
			}
			if cd.Label != tc.wantLabel {
				t.Errorf("expected label %q, got %q", tc.wantLabel, cd.Label)
			}
			if cd.Urgent != tc.wantUrg {
				t.Errorf("expected urgent=%v, got %v", tc.wantUrg, cd.Urgent)
			}
		})
	}
}
