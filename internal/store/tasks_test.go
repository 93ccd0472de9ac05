package store

import (
	"testing"
	"time"

	"projecthub-api/internal/models"
	"projecthub-api/internal/realtime"

	"github.com/stretchr/testify/require"
)

func TestListProjectTasks_OnlyThatProject(t *testing.T) {
	ctx := setup(t)
	u := mustAccount(t, ctx, "a@example.com", "alice")
	p1 := mustProject(t, ctx, u.ID, "One")
	p2 := mustProject(t, ctx, u.ID, "Two")
	for i := 0; i < 3; i++ {
		mustTask(t, ctx, p1.ID, u.ID, "p1 task", "")
		mustTask(t, ctx, p2.ID, u.ID, "p2 task", "")
	}

	tasks, err := ListProjectTasks(ctx, p1.ID, TaskFilter{})
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	for _, task := range tasks {
		require.Equal(t, p1.ID, task.ProjectID)
	}
}

func TestListProjectTasks_PriorityFilter(t *testing.T) {
	ctx := setup(t)
	u := mustAccount(t, ctx, "a@example.com", "alice")
	p := mustProject(t, ctx, u.ID, "P")
	mustTask(t, ctx, p.ID, u.ID, "h1", models.PriorityHigh)
	mustTask(t, ctx, p.ID, u.ID, "h2", models.PriorityHigh)
	mustTask(t, ctx, p.ID, u.ID, "m", models.PriorityMedium)
	mustTask(t, ctx, p.ID, u.ID, "l", models.PriorityLow)

	high, err := ListProjectTasks(ctx, p.ID, TaskFilter{Priorities: []models.TaskPriority{models.PriorityHigh}})
	require.NoError(t, err)
	require.Len(t, high, 2)
	for _, task := range high {
		require.Equal(t, models.PriorityHigh, task.Priority)
	}

	all, err := ListProjectTasks(ctx, p.ID, TaskFilter{})
	require.NoError(t, err)
	union, err := ListProjectTasks(ctx, p.ID, TaskFilter{Priorities: models.Priorities})
	require.NoError(t, err)
	require.ElementsMatch(t, taskIDs(all), taskIDs(union))
}

func TestCreateTask_Defaults(t *testing.T) {
	ctx := setup(t)
	u := mustAccount(t, ctx, "a@example.com", "alice")
	p := mustProject(t, ctx, u.ID, "P")

	task := mustTask(t, ctx, p.ID, u.ID, "  Write docs  ", "")
	require.Equal(t, "Write docs", task.Title)
	require.Equal(t, models.StatusTodo, task.Status)
	require.Equal(t, models.PriorityMedium, task.Priority)
	require.Nil(t, task.CompletedAt)
	require.Nil(t, task.AssigneeID)

	_, err := CreateTask(ctx, NewTask{ProjectID: p.ID, UserID: u.ID, Title: "x", Status: "done"})
	require.ErrorIs(t, err, ErrInvalidState)
	_, err = CreateTask(ctx, NewTask{ProjectID: p.ID, UserID: u.ID, Title: "x", Priority: "urgent"})
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestUpdateTaskStatus_MatchesTargetColumn(t *testing.T) {
	ctx := setup(t)
	u := mustAccount(t, ctx, "a@example.com", "alice")
	p := mustProject(t, ctx, u.ID, "P")
	task := mustTask(t, ctx, p.ID, u.ID, "card", "")
	feed := listen(t, realtime.Filter{Table: "tasks", Column: "projectId", Value: p.ID})

	for _, status := range models.Statuses {
		moved, err := UpdateTaskStatus(ctx, task.ID, status)
		require.NoError(t, err)
		require.Equal(t, status, moved.Status)

		stored, err := GetTask(ctx, task.ID)
		require.NoError(t, err)
		require.Equal(t, status, stored.Status)
		require.True(t, stored.Status.Valid())
		require.Equal(t, status == models.StatusCompleted, stored.CompletedAt != nil)
	}

	_, err := UpdateTaskStatus(ctx, task.ID, "archived")
	require.ErrorIs(t, err, ErrInvalidState)
	_, err = UpdateTaskStatus(ctx, "missing", models.StatusReview)
	require.ErrorIs(t, err, ErrNotFound)

	msgs := feed.messages()
	require.Len(t, msgs, len(models.Statuses))
	require.Equal(t, realtime.Update, msgs[0].Type)
}

func TestUpdateTaskStatus_LastWriteWins(t *testing.T) {
	ctx := setup(t)
	u := mustAccount(t, ctx, "a@example.com", "alice")
	p := mustProject(t, ctx, u.ID, "P")
	task := mustTask(t, ctx, p.ID, u.ID, "card", "")

	_, err := UpdateTaskStatus(ctx, task.ID, models.StatusReview)
	require.NoError(t, err)
	_, err = UpdateTaskStatus(ctx, task.ID, models.StatusInProgress)
	require.NoError(t, err)

	stored, err := GetTask(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusInProgress, stored.Status)
}

func TestUpdateTask_Patch(t *testing.T) {
	ctx := setup(t)
	u := mustAccount(t, ctx, "a@example.com", "alice")
	bob := mustAccount(t, ctx, "b@example.com", "bob")
	p := mustProject(t, ctx, u.ID, "P")
	task := mustTask(t, ctx, p.ID, u.ID, "card", "")

	due := time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC)
	title := "renamed"
	high := models.PriorityHigh
	done := models.StatusCompleted
	updated, err := UpdateTask(ctx, task.ID, TaskPatch{
		Title:      &title,
		Priority:   &high,
		Status:     &done,
		DueDate:    &due,
		AssigneeID: &bob.ID,
	})
	require.NoError(t, err)
	require.Equal(t, "renamed", updated.Title)
	require.Equal(t, models.PriorityHigh, updated.Priority)
	require.NotNil(t, updated.CompletedAt)
	require.Equal(t, bob.ID, *updated.AssigneeID)
	require.True(t, due.Equal(*updated.DueDate))

	empty := ""
	updated, err = UpdateTask(ctx, task.ID, TaskPatch{ClearDueDate: true, AssigneeID: &empty})
	require.NoError(t, err)
	require.Nil(t, updated.DueDate)
	require.Nil(t, updated.AssigneeID)
	require.Equal(t, "renamed", updated.Title)
}

func TestDeleteTask(t *testing.T) {
	ctx := setup(t)
	u := mustAccount(t, ctx, "a@example.com", "alice")
	p := mustProject(t, ctx, u.ID, "P")
	task := mustTask(t, ctx, p.ID, u.ID, "card", "")
	comment, err := CreateComment(ctx, task.ID, u.ID, "note")
	require.NoError(t, err)
	tag, err := CreateTag(ctx, u.ID, "bug", "")
	require.NoError(t, err)
	link, err := AddTaskTag(ctx, task.ID, tag.ID)
	require.NoError(t, err)
	commentFeed := listen(t, realtime.Filter{Table: "comments", Column: "taskId", Value: task.ID})
	linkFeed := listen(t, realtime.Filter{Table: "task_tags", Column: "taskId", Value: task.ID})

	require.NoError(t, DeleteTask(ctx, task.ID))
	require.Len(t, commentFeed.messages(), 1)
	require.Equal(t, comment.ID, commentFeed.messages()[0].Old.ID)
	require.Len(t, linkFeed.messages(), 1)
	require.Equal(t, link.RowID(), linkFeed.messages()[0].Old.ID)
	_, err = GetTask(ctx, task.ID)
	require.ErrorIs(t, err, ErrNotFound)
	comments, err := ListComments(ctx, task.ID)
	require.NoError(t, err)
	require.Empty(t, comments)
	require.ErrorIs(t, DeleteTask(ctx, task.ID), ErrNotFound)
}

func TestListUserTasks_PaginatesVisibleProjects(t *testing.T) {
	ctx := setup(t)
	alice := mustAccount(t, ctx, "a@example.com", "alice")
	bob := mustAccount(t, ctx, "b@example.com", "bob")
	mine := mustProject(t, ctx, alice.ID, "Mine")
	shared := mustProject(t, ctx, bob.ID, "Shared")
	hidden := mustProject(t, ctx, bob.ID, "Hidden")
	_, err := AddProjectMember(ctx, shared.ID, alice.ID, models.ProjectRoleEditor)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		mustTask(t, ctx, mine.ID, alice.ID, "m", "")
		mustTask(t, ctx, shared.ID, bob.ID, "s", "")
		mustTask(t, ctx, hidden.ID, bob.ID, "h", "")
	}

	page, total, err := ListUserTasks(ctx, alice.ID, TaskQuery{Page: 1, Limit: 4})
	require.NoError(t, err)
	require.Equal(t, int64(6), total)
	require.Len(t, page, 4)

	page, _, err = ListUserTasks(ctx, alice.ID, TaskQuery{Page: 2, Limit: 4})
	require.NoError(t, err)
	require.Len(t, page, 2)
	for _, task := range page {
		require.NotEqual(t, hidden.ID, task.ProjectID)
	}
}

func TestCountTasksByStatus(t *testing.T) {
	ctx := setup(t)
	u := mustAccount(t, ctx, "a@example.com", "alice")
	p := mustProject(t, ctx, u.ID, "P")
	for _, s := range []models.TaskStatus{models.StatusTodo, models.StatusTodo, models.StatusReview} {
		_, err := CreateTask(ctx, NewTask{ProjectID: p.ID, UserID: u.ID, Title: "t", Status: s, AssigneeID: &u.ID})
		require.NoError(t, err)
	}
	mustTask(t, ctx, p.ID, u.ID, "unassigned", "")

	counts, err := CountTasksByStatus(ctx, u.ID, u.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), counts[models.StatusTodo])
	require.Equal(t, int64(1), counts[models.StatusReview])
	require.Equal(t, int64(0), counts[models.StatusCompleted])
	require.Len(t, counts, 4)

	// someone without access to P counts nothing
	stranger := mustAccount(t, ctx, "s@example.com", "stranger")
	counts, err = CountTasksByStatus(ctx, stranger.ID, u.ID)
	require.NoError(t, err)
	require.Equal(t, int64(0), counts[models.StatusTodo])
	require.Len(t, counts, 4)
}

func TestTaskTags(t *testing.T) {
	ctx := setup(t)
	u := mustAccount(t, ctx, "a@example.com", "alice")
	other := mustAccount(t, ctx, "o@example.com", "other")
	p := mustProject(t, ctx, u.ID, "P")
	task := mustTask(t, ctx, p.ID, u.ID, "card", "")

	tag, err := CreateTag(ctx, u.ID, " bug ", "")
	require.NoError(t, err)
	require.Equal(t, "bug", tag.Name)
	require.Equal(t, "#6b7280", tag.Color)

	_, err = AddTaskTag(ctx, task.ID, tag.ID)
	require.NoError(t, err)
	_, err = AddTaskTag(ctx, task.ID, tag.ID)
	require.ErrorIs(t, err, ErrConflict)

	tags, err := ListTaskTags(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, tags, 1)

	require.NoError(t, RemoveTaskTag(ctx, task.ID, tag.ID))
	require.ErrorIs(t, RemoveTaskTag(ctx, task.ID, tag.ID), ErrNotFound)

	require.ErrorIs(t, DeleteTag(ctx, tag.ID, other.ID), ErrForbidden)
	_, err = AddTaskTag(ctx, task.ID, tag.ID)
	require.NoError(t, err)
	links := listen(t, realtime.Filter{Table: "task_tags", Column: "tagId", Value: tag.ID})
	require.NoError(t, DeleteTag(ctx, tag.ID, u.ID))
	require.Len(t, links.messages(), 1)
	require.Equal(t, realtime.Delete, links.messages()[0].Type)
	mine, err := ListTags(ctx, u.ID)
	require.NoError(t, err)
	require.Empty(t, mine)
}

func TestDeleteComment_AuthorOnly(t *testing.T) {
	ctx := setup(t)
	u := mustAccount(t, ctx, "a@example.com", "alice")
	bob := mustAccount(t, ctx, "b@example.com", "bob")
	p := mustProject(t, ctx, u.ID, "P")
	task := mustTask(t, ctx, p.ID, u.ID, "card", "")

	c, err := CreateComment(ctx, task.ID, u.ID, "  looks good ")
	require.NoError(t, err)
	require.Equal(t, "looks good", c.Content)

	require.ErrorIs(t, DeleteComment(ctx, c.ID, bob.ID), ErrForbidden)
	require.NoError(t, DeleteComment(ctx, c.ID, u.ID))
	require.ErrorIs(t, DeleteComment(ctx, c.ID, u.ID), ErrNotFound)
}
