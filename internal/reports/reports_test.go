package reports

import (
	"testing"
	"time"

	"projecthub-api/internal/models"

	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func sample(now time.Time) []models.Task {
	return []models.Task{
		{ID: "1", ProjectID: "p1", Status: models.StatusTodo, Priority: models.PriorityHigh, DueDate: ptr(now.Add(-48 * time.Hour))},
		{ID: "2", ProjectID: "p1", Status: models.StatusInProgress, Priority: models.PriorityLow},
		{ID: "3", ProjectID: "p1", Status: models.StatusCompleted, Priority: models.PriorityHigh, CompletedAt: ptr(now.Add(-time.Hour)), DueDate: ptr(now.Add(-48 * time.Hour))},
		{ID: "4", ProjectID: "p2", Status: models.StatusReview, Priority: models.PriorityMedium, DueDate: ptr(now.Add(48 * time.Hour))},
		{ID: "5", ProjectID: "p2", Status: models.StatusCompleted, Priority: models.PriorityMedium, CompletedAt: ptr(now.AddDate(0, 0, -3))},
	}
}

func ids(tasks []models.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestFilterByPriority(t *testing.T) {
	tasks := sample(time.Now())

	high := FilterByPriority(tasks, models.PriorityHigh)
	require.Equal(t, []string{"1", "3"}, ids(high))
	for _, task := range high {
		require.Equal(t, models.PriorityHigh, task.Priority)
	}

	require.Equal(t, ids(tasks), ids(FilterByPriority(tasks, models.Priorities...)))
	require.Equal(t, ids(tasks), ids(FilterByPriority(tasks)))
}

func TestFilterByStatus(t *testing.T) {
	tasks := sample(time.Now())
	require.Equal(t, []string{"3", "5"}, ids(FilterByStatus(tasks, models.StatusCompleted)))
	require.Equal(t, ids(tasks), ids(FilterByStatus(tasks, models.Statuses...)))
}

func TestBoard_FixedColumnOrder(t *testing.T) {
	tasks := append(sample(time.Now()), models.Task{ID: "x", Status: "archived"})
	cols := Board(tasks)

	require.Len(t, cols, 4)
	for i, s := range models.Statuses {
		require.Equal(t, s, cols[i].Status)
		for _, task := range cols[i].Tasks {
			require.Equal(t, s, task.Status)
		}
	}
	require.Equal(t, "In Progress", cols[1].Title)
	require.Equal(t, []string{"3", "5"}, ids(cols[3].Tasks))

	empty := Board(nil)
	require.NotNil(t, empty[0].Tasks)
	require.Empty(t, empty[0].Tasks)
}

func TestCounts(t *testing.T) {
	now := time.Now()
	tasks := sample(now)

	status := StatusCounts(tasks)
	require.Equal(t, 1, status[models.StatusTodo])
	require.Equal(t, 2, status[models.StatusCompleted])
	require.Len(t, status, 4)

	priority := PriorityCounts(tasks)
	require.Equal(t, 2, priority[models.PriorityHigh])
	require.Equal(t, 1, priority[models.PriorityLow])

	require.Equal(t, 1, OverdueCount(tasks, now))
}

func TestProgress(t *testing.T) {
	tasks := sample(time.Now())
	projects := []models.Project{{ID: "p1", Name: "One"}, {ID: "p2", Name: "Two"}, {ID: "p3", Name: "Empty"}}

	got := Progress(projects, tasks)
	require.Len(t, got, 3)
	require.Equal(t, 3, got[0].Total)
	require.Equal(t, 1, got[0].Completed)
	require.InDelta(t, 33.33, got[0].Percent, 0.01)
	require.Equal(t, 50.0, got[1].Percent)
	require.Zero(t, got[2].Total)
	require.Zero(t, got[2].Percent)
}

func TestCompletionTrend(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	tasks := sample(now)
	tasks = append(tasks, models.Task{ID: "old", Status: models.StatusCompleted, CompletedAt: ptr(now.AddDate(0, 0, -30))})
	// completedAt left behind after a move out of completed is ignored
	tasks = append(tasks, models.Task{ID: "moved", Status: models.StatusTodo, CompletedAt: ptr(now)})

	trend := CompletionTrend(tasks, now, TrendDays)
	require.Len(t, trend, TrendDays)
	require.Equal(t, "2024-03-02", trend[0].Date)
	require.Equal(t, "2024-03-15", trend[TrendDays-1].Date)
	require.Equal(t, 1, trend[TrendDays-1].Completed)
	require.Equal(t, 1, trend[TrendDays-4].Completed)

	total := 0
	for _, p := range trend {
		total += p.Completed
	}
	require.Equal(t, 2, total)
	require.Empty(t, CompletionTrend(tasks, now, 0))
}

func TestSummarize(t *testing.T) {
	now := time.Now()
	projects := []models.Project{{ID: "p1", Name: "One"}, {ID: "p2", Name: "Two"}}

	s := Summarize(projects, sample(now), now)
	require.Equal(t, 2, s.ProjectCount)
	require.Equal(t, 5, s.TaskCount)
	require.Equal(t, 1, s.Overdue)
	require.Equal(t, "p2", s.Progress[0].ProjectID)
	require.Len(t, s.Trend, TrendDays)
}
