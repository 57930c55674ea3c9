package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"tasktriage/internal/config"
	"tasktriage/internal/db"
	"tasktriage/internal/domain"
	"tasktriage/internal/engine"
	"tasktriage/internal/migrate"
	"tasktriage/internal/repo"
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	eng, err := engine.New(conn, config.Default())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	fixed := func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	eng.Now = fixed
	eng.History.Now = fixed
	return testEnv{Engine: eng, Ctx: context.Background()}
}

func TestCreateTaskDerivesFields(t *testing.T) {
	env := newTestEnv(t)
	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		Title:       "Schedule urgent meeting",
		Description: "Meeting with John today",
		ActorID:     "tester",
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.ID == "" {
		t.Fatalf("expected generated id")
	}
	if task.Category != domain.CategoryScheduling {
		t.Fatalf("expected scheduling, got %s", task.Category)
	}
	if task.Priority != domain.PriorityHigh {
		t.Fatalf("expected high, got %s", task.Priority)
	}
	if task.Status != domain.StatusPending {
		t.Fatalf("expected pending, got %s", task.Status)
	}
	if len(task.Entities.People) != 1 || task.Entities.People[0] != "with John" {
		t.Fatalf("unexpected people: %v", task.Entities.People)
	}
	if len(task.SuggestedActions) == 0 {
		t.Fatalf("expected suggested actions")
	}
	if task.CreatedAt != "2026-01-01T00:00:00Z" || task.UpdatedAt != task.CreatedAt {
		t.Fatalf("unexpected timestamps: %s / %s", task.CreatedAt, task.UpdatedAt)
	}

	stored, err := env.Engine.Repo.GetTask(env.Ctx, task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if stored.Category != task.Category || stored.Priority != task.Priority {
		t.Fatalf("stored task diverges: %+v", stored)
	}
}

func TestCreateTaskTitleTooShort(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{Title: "ab", ActorID: "tester"})
	var ve engine.ValidationError
	if !errors.As(err, &ve) || ve.Field != "title" {
		t.Fatalf("expected title validation error, got %v", err)
	}
	entries, err := env.Engine.Repo.ListHistory(env.Ctx, "")
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("rejected input must not reach history, got %d entries", len(entries))
	}
}

func TestUpdateStatusOnlyPreservesDerivedFields(t *testing.T) {
	env := newTestEnv(t)
	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		Title:       "Pay the invoice",
		Description: "pay before friday",
		ActorID:     "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	status := domain.StatusCompleted
	updated, err := env.Engine.UpdateTask(env.Ctx, engine.TaskUpdateOptions{
		ID:      task.ID,
		Status:  &status,
		ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != domain.StatusCompleted {
		t.Fatalf("expected completed, got %s", updated.Status)
	}
	if updated.Category != task.Category || updated.Priority != task.Priority {
		t.Fatalf("derived fields changed on status-only update")
	}
	if len(updated.Entities.Actions) != len(task.Entities.Actions) {
		t.Fatalf("entities changed on status-only update")
	}
}

func TestUpdateDescriptionRecomputesDerivedFields(t *testing.T) {
	env := newTestEnv(t)
	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		Title:   "General chores",
		ActorID: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	if task.Category != domain.CategoryGeneral {
		t.Fatalf("expected general, got %s", task.Category)
	}
	desc := "urgent: fix the boiler today"
	updated, err := env.Engine.UpdateTask(env.Ctx, engine.TaskUpdateOptions{
		ID:          task.ID,
		Description: &desc,
		ActorID:     "tester",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Category != domain.CategoryTechnical {
		t.Fatalf("expected technical after text change, got %s", updated.Category)
	}
	if updated.Priority != domain.PriorityHigh {
		t.Fatalf("expected high after text change, got %s", updated.Priority)
	}
	if len(updated.Entities.Actions) != 1 || updated.Entities.Actions[0] != "fix" {
		t.Fatalf("expected extracted action fix, got %v", updated.Entities.Actions)
	}
}

func TestUpdateClearsOptionalFields(t *testing.T) {
	env := newTestEnv(t)
	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		Title:      "Assigned task",
		AssignedTo: "alex",
		DueDate:    "2026-02-01",
		ActorID:    "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	empty := ""
	updated, err := env.Engine.UpdateTask(env.Ctx, engine.TaskUpdateOptions{
		ID:         task.ID,
		AssignedTo: &empty,
		ActorID:    "tester",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.AssignedTo != nil {
		t.Fatalf("expected cleared assignee, got %v", *updated.AssignedTo)
	}
	if updated.DueDate == nil || *updated.DueDate != "2026-02-01" {
		t.Fatalf("due date should be untouched")
	}
}

func TestUpdateUnknownTask(t *testing.T) {
	env := newTestEnv(t)
	status := domain.StatusCompleted
	_, err := env.Engine.UpdateTask(env.Ctx, engine.TaskUpdateOptions{
		ID:      "missing",
		Status:  &status,
		ActorID: "tester",
	})
	if !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestHistoryPerMutation(t *testing.T) {
	env := newTestEnv(t)
	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{Title: "Audited task", ActorID: "tester"})
	if err != nil {
		t.Fatal(err)
	}
	status := domain.StatusInProgress
	if _, err := env.Engine.UpdateTask(env.Ctx, engine.TaskUpdateOptions{ID: task.ID, Status: &status, ActorID: "tester"}); err != nil {
		t.Fatal(err)
	}
	if err := env.Engine.DeleteTask(env.Ctx, task.ID, "tester"); err != nil {
		t.Fatal(err)
	}

	entries, err := env.Engine.Repo.ListHistory(env.Ctx, task.ID)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected one entry per mutation, got %d", len(entries))
	}
	// Most recent first.
	byAction := map[string]domain.HistoryEntry{}
	for _, e := range entries {
		byAction[e.Action] = e
	}
	created := byAction[domain.HistoryCreated]
	if created.OldValue != nil || created.NewValue == nil {
		t.Fatalf("created entry snapshots wrong: %+v", created)
	}
	updated := byAction[domain.HistoryUpdated]
	if updated.OldValue == nil || updated.NewValue == nil {
		t.Fatalf("updated entry snapshots wrong: %+v", updated)
	}
	if updated.OldValue.Status != domain.StatusPending || updated.NewValue.Status != domain.StatusInProgress {
		t.Fatalf("updated snapshots do not show the transition")
	}
	deleted := byAction[domain.HistoryDeleted]
	if deleted.OldValue == nil || deleted.NewValue != nil {
		t.Fatalf("deleted entry snapshots wrong: %+v", deleted)
	}
	for _, e := range entries {
		if e.ChangedBy != "tester" {
			t.Fatalf("expected actor tester, got %s", e.ChangedBy)
		}
	}
}

func TestDeleteLeavesHistoryBehind(t *testing.T) {
	env := newTestEnv(t)
	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{Title: "Ephemeral", ActorID: "tester"})
	if err != nil {
		t.Fatal(err)
	}
	if err := env.Engine.DeleteTask(env.Ctx, task.ID, "tester"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := env.Engine.Repo.GetTask(env.Ctx, task.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected task gone, got %v", err)
	}
	entries, err := env.Engine.Repo.ListHistory(env.Ctx, task.ID)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected surviving history, got %d entries", len(entries))
	}
	if err := env.Engine.DeleteTask(env.Ctx, task.ID, "tester"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestMissingActorFallsBackToSystem(t *testing.T) {
	env := newTestEnv(t)
	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{Title: "Anonymous create"})
	if err != nil {
		t.Fatal(err)
	}
	entries, err := env.Engine.Repo.ListHistory(env.Ctx, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ChangedBy != "system" {
		t.Fatalf("expected system actor, got %+v", entries)
	}
}

func TestListTasksFiltersAndPaging(t *testing.T) {
	env := newTestEnv(t)
	titles := map[string]string{
		"Schedule kickoff meeting": "",
		"Pay contractor invoice":   "",
		"Fix broken window":        "",
	}
	for title := range titles {
		if _, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{Title: title, ActorID: "tester"}); err != nil {
			t.Fatal(err)
		}
	}
	tasks, total, err := env.Engine.Repo.ListTasks(env.Ctx, repo.TaskFilters{Category: "finance"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(tasks) != 1 || tasks[0].Category != domain.CategoryFinance {
		t.Fatalf("expected one finance task, got total=%d tasks=%+v", total, tasks)
	}

	tasks, total, err = env.Engine.Repo.ListTasks(env.Ctx, repo.TaskFilters{Limit: 2, Sort: "title", Order: "asc"})
	if err != nil {
		t.Fatalf("list paged: %v", err)
	}
	if total != 3 || len(tasks) != 2 {
		t.Fatalf("expected total 3 with page of 2, got total=%d len=%d", total, len(tasks))
	}
	if tasks[0].Title > tasks[1].Title {
		t.Fatalf("expected ascending title order: %s, %s", tasks[0].Title, tasks[1].Title)
	}
}
