// Package reports shapes task lists into the dashboard and board views.
// Everything here is a pure function over records already loaded from the
// store.
package reports

import (
	"sort"
	"time"

	"projecthub-api/internal/models"
)

// TrendDays is the length of the completion trend window.
const TrendDays = 14

var columnTitles = map[models.TaskStatus]string{
	models.StatusTodo:       "To Do",
	models.StatusInProgress: "In Progress",
	models.StatusReview:     "Review",
	models.StatusCompleted:  "Completed",
}

// Column is one Kanban column with its cards.
type Column struct {
	Status models.TaskStatus `json:"status"`
	Title  string            `json:"title"`
	Tasks  []models.Task     `json:"tasks"`
}

type ProjectProgress struct {
	ProjectID string  `json:"projectId"`
	Name      string  `json:"name"`
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Percent   float64 `json:"percent"`
}

type TrendPoint struct {
	Date      string `json:"date"`
	Completed int    `json:"completed"`
}

// Summary is the payload of the reports and dashboard pages.
type Summary struct {
	ProjectCount   int                         `json:"projectCount"`
	TaskCount      int                         `json:"taskCount"`
	StatusCounts   map[models.TaskStatus]int   `json:"statusCounts"`
	PriorityCounts map[models.TaskPriority]int `json:"priorityCounts"`
	Overdue        int                         `json:"overdue"`
	Progress       []ProjectProgress           `json:"progress"`
	Trend          []TrendPoint                `json:"trend"`
}

// FilterByPriority keeps the tasks whose priority is in priorities. No
// priorities means no filter.
func FilterByPriority(tasks []models.Task, priorities ...models.TaskPriority) []models.Task {
	if len(priorities) == 0 {
		return tasks
	}
	want := make(map[models.TaskPriority]bool, len(priorities))
	for _, p := range priorities {
		want[p] = true
	}
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if want[t.Priority] {
			out = append(out, t)
		}
	}
	return out
}

// FilterByStatus keeps the tasks whose status is in statuses. No statuses
// means no filter.
func FilterByStatus(tasks []models.Task, statuses ...models.TaskStatus) []models.Task {
	if len(statuses) == 0 {
		return tasks
	}
	want := make(map[models.TaskStatus]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if want[t.Status] {
			out = append(out, t)
		}
	}
	return out
}

// Board groups tasks into the four columns in display order. Tasks with an
// unknown status are left out.
func Board(tasks []models.Task) []Column {
	cols := make([]Column, len(models.Statuses))
	index := make(map[models.TaskStatus]int, len(models.Statuses))
	for i, s := range models.Statuses {
		cols[i] = Column{Status: s, Title: columnTitles[s], Tasks: []models.Task{}}
		index[s] = i
	}
	for _, t := range tasks {
		if i, ok := index[t.Status]; ok {
			cols[i].Tasks = append(cols[i].Tasks, t)
		}
	}
	return cols
}

func StatusCounts(tasks []models.Task) map[models.TaskStatus]int {
	counts := make(map[models.TaskStatus]int, len(models.Statuses))
	for _, s := range models.Statuses {
		counts[s] = 0
	}
	for _, t := range tasks {
		if t.Status.Valid() {
			counts[t.Status]++
		}
	}
	return counts
}

func PriorityCounts(tasks []models.Task) map[models.TaskPriority]int {
	counts := make(map[models.TaskPriority]int, len(models.Priorities))
	for _, p := range models.Priorities {
		counts[p] = 0
	}
	for _, t := range tasks {
		if t.Priority.Valid() {
			counts[t.Priority]++
		}
	}
	return counts
}

func OverdueCount(tasks []models.Task, now time.Time) int {
	n := 0
	for _, t := range tasks {
		if t.Overdue(now) {
			n++
		}
	}
	return n
}

// Progress reports the share of completed tasks per project, in the order
// the projects are given.
func Progress(projects []models.Project, tasks []models.Task) []ProjectProgress {
	type tally struct{ total, done int }
	byProject := make(map[string]*tally, len(projects))
	for _, t := range tasks {
		c := byProject[t.ProjectID]
		if c == nil {
			c = &tally{}
			byProject[t.ProjectID] = c
		}
		c.total++
		if t.Status == models.StatusCompleted {
			c.done++
		}
	}

	out := make([]ProjectProgress, 0, len(projects))
	for _, p := range projects {
		pp := ProjectProgress{ProjectID: p.ID, Name: p.Name}
		if c := byProject[p.ID]; c != nil {
			pp.Total = c.total
			pp.Completed = c.done
			pp.Percent = float64(c.done*100) / float64(c.total)
		}
		out = append(out, pp)
	}
	return out
}

// CompletionTrend counts tasks completed on each of the last days days,
// oldest first and ending today in now's location.
func CompletionTrend(tasks []models.Task, now time.Time, days int) []TrendPoint {
	if days < 1 {
		return []TrendPoint{}
	}
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	first := today.AddDate(0, 0, -(days - 1))

	points := make([]TrendPoint, days)
	index := make(map[string]int, days)
	for i := range points {
		day := first.AddDate(0, 0, i).Format(time.DateOnly)
		points[i].Date = day
		index[day] = i
	}
	for _, t := range tasks {
		if t.CompletedAt == nil || t.Status != models.StatusCompleted {
			continue
		}
		if i, ok := index[t.CompletedAt.In(loc).Format(time.DateOnly)]; ok {
			points[i].Completed++
		}
	}
	return points
}

// Summarize builds every dashboard figure at once.
func Summarize(projects []models.Project, tasks []models.Task, now time.Time) Summary {
	progress := Progress(projects, tasks)
	sort.SliceStable(progress, func(i, j int) bool {
		return progress[i].Percent > progress[j].Percent
	})
	return Summary{
		ProjectCount:   len(projects),
		TaskCount:      len(tasks),
		StatusCounts:   StatusCounts(tasks),
		PriorityCounts: PriorityCounts(tasks),
		Overdue:        OverdueCount(tasks, now),
		Progress:       progress,
		Trend:          CompletionTrend(tasks, now, TrendDays),
	}
}
