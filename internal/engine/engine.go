package engine

import (
	"context"
	"database/sql"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"tasktriage/internal/classify"
	"tasktriage/internal/config"
	"tasktriage/internal/domain"
	"tasktriage/internal/history"
	"tasktriage/internal/repo"
)

// Engine coordinates the task lifecycle: it derives category,
// priority, entities and suggested actions from task text, persists
// the result, and appends one audit entry per successful mutation.
type Engine struct {
	DB         *sql.DB
	Repo       repo.Repo
	History    history.Writer
	Classifier *classify.Classifier
	Config     *config.Config
	Now        func() time.Time
}

// New builds an Engine with the lexicon and priority markers frozen
// from cfg.
func New(db *sql.DB, cfg *config.Config) (Engine, error) {
	lex, err := cfg.BuildLexicon()
	if err != nil {
		return Engine{}, err
	}
	classifier, err := classify.NewClassifier(lex, cfg.Markers())
	if err != nil {
		return Engine{}, err
	}
	return Engine{
		DB:         db,
		Repo:       repo.Repo{DB: db},
		History:    history.Writer{DB: db},
		Classifier: classifier,
		Config:     cfg,
		Now:        time.Now,
	}, nil
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// ValidationError reports malformed input. It is returned before any
// classification or store interaction happens and is never logged to
// history.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Analysis is the derived metadata for one version of a task's text.
type Analysis struct {
	Category         domain.Category     `json:"category"`
	Priority         domain.Priority     `json:"priority"`
	Entities         domain.EntityBundle `json:"extracted_entities"`
	SuggestedActions []string            `json:"suggested_actions"`
}

// Analyze runs the full classification pipeline over a task's text:
// category and priority from the space-joined title+description,
// entities from the description alone, suggestions from the resolved
// category. Pure function; it never fails.
func (e Engine) Analyze(title, description string) Analysis {
	category, priority := e.Classifier.Classify(title + " " + description)
	return Analysis{
		Category:         category,
		Priority:         priority,
		Entities:         classify.Extract(description),
		SuggestedActions: e.Classifier.Suggest(category),
	}
}

// TaskCreateOptions are parameters for creating a task.
type TaskCreateOptions struct {
	Title       string
	Description string
	AssignedTo  string
	DueDate     string
	ActorID     string
}

func (e Engine) CreateTask(ctx context.Context, opts TaskCreateOptions) (domain.Task, error) {
	if utf8.RuneCountInString(opts.Title) < 3 {
		return domain.Task{}, ValidationError{Field: "title", Reason: "must be at least 3 characters"}
	}

	a := e.Analyze(opts.Title, opts.Description)
	now := e.now().UTC().Format(time.RFC3339)
	t := domain.Task{
		ID:               uuid.NewString(),
		Title:            opts.Title,
		Description:      opts.Description,
		Category:         a.Category,
		Priority:         a.Priority,
		AssignedTo:       optionalString(opts.AssignedTo),
		DueDate:          optionalString(opts.DueDate),
		Status:           domain.StatusPending,
		Entities:         a.Entities,
		SuggestedActions: a.SuggestedActions,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()

	if err := e.Repo.InsertTask(ctx, tx, t); err != nil {
		return domain.Task{}, fmt.Errorf("insert task: %w", err)
	}
	if err := e.History.Created(ctx, tx, t, opts.ActorID); err != nil {
		return domain.Task{}, fmt.Errorf("append history: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

// TaskUpdateOptions encapsulates allowed updates. Nil fields are left
// untouched. Category, priority, entities and suggestions are never
// settable directly: they are recomputed whenever title or
// description changes and are otherwise preserved.
type TaskUpdateOptions struct {
	ID          string
	Title       *string
	Description *string
	Status      *string
	AssignedTo  *string
	DueDate     *string
	ActorID     string
}

func (e Engine) UpdateTask(ctx context.Context, opts TaskUpdateOptions) (domain.Task, error) {
	if opts.Title != nil && utf8.RuneCountInString(*opts.Title) < 3 {
		return domain.Task{}, ValidationError{Field: "title", Reason: "must be at least 3 characters"}
	}
	if opts.Status != nil && !domain.ValidStatus(*opts.Status) {
		return domain.Task{}, ValidationError{Field: "status", Reason: "must be one of pending, in_progress, completed"}
	}

	existing, err := e.Repo.GetTask(ctx, opts.ID)
	if err != nil {
		return domain.Task{}, err
	}

	updated := existing
	if opts.Title != nil {
		updated.Title = *opts.Title
	}
	if opts.Description != nil {
		updated.Description = *opts.Description
	}
	if opts.Status != nil {
		updated.Status = *opts.Status
	}
	if opts.AssignedTo != nil {
		updated.AssignedTo = optionalString(*opts.AssignedTo)
	}
	if opts.DueDate != nil {
		updated.DueDate = optionalString(*opts.DueDate)
	}

	// Any text change invalidates the derived fields, even when the
	// caller did not ask for them to change.
	if opts.Title != nil || opts.Description != nil {
		a := e.Analyze(updated.Title, updated.Description)
		updated.Category = a.Category
		updated.Priority = a.Priority
		updated.Entities = a.Entities
		updated.SuggestedActions = a.SuggestedActions
	}
	updated.UpdatedAt = e.now().UTC().Format(time.RFC3339)

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()

	if err := e.Repo.UpdateTask(ctx, tx, updated); err != nil {
		return domain.Task{}, fmt.Errorf("update task: %w", err)
	}
	if err := e.History.Updated(ctx, tx, existing, updated, opts.ActorID); err != nil {
		return domain.Task{}, fmt.Errorf("append history: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Task{}, err
	}
	return updated, nil
}

func (e Engine) DeleteTask(ctx context.Context, id, actorID string) error {
	existing, err := e.Repo.GetTask(ctx, id)
	if err != nil {
		return err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := e.Repo.DeleteTask(ctx, tx, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if err := e.History.Deleted(ctx, tx, existing, actorID); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return tx.Commit()
}

// TaskDetail pairs a task with its audit trail, most recent first.
type TaskDetail struct {
	Task    domain.Task
	History []domain.HistoryEntry
}

func (e Engine) GetTaskDetail(ctx context.Context, id string) (TaskDetail, error) {
	t, err := e.Repo.GetTask(ctx, id)
	if err != nil {
		return TaskDetail{}, err
	}
	entries, err := e.Repo.ListHistory(ctx, id)
	if err != nil {
		return TaskDetail{}, err
	}
	return TaskDetail{Task: t, History: entries}, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
