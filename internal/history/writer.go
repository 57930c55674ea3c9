// Package history records the append-only audit trail of task
// mutations. Entries are written in the same transaction as the
// mutation they describe and are never updated or deleted; they
// outlive the task they reference.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"tasktriage/internal/domain"
)

type Writer struct {
	DB  *sql.DB
	Now func() time.Time
}

// Created records a creation; only the new snapshot is present.
func (w Writer) Created(ctx context.Context, tx *sql.Tx, task domain.Task, actorID string) error {
	return w.append(ctx, tx, task.ID, domain.HistoryCreated, nil, &task, actorID)
}

// Updated records a mutation with both the before and after snapshots.
func (w Writer) Updated(ctx context.Context, tx *sql.Tx, old, updated domain.Task, actorID string) error {
	return w.append(ctx, tx, updated.ID, domain.HistoryUpdated, &old, &updated, actorID)
}

// Deleted records a deletion; only the prior snapshot is present.
func (w Writer) Deleted(ctx context.Context, tx *sql.Tx, old domain.Task, actorID string) error {
	return w.append(ctx, tx, old.ID, domain.HistoryDeleted, &old, nil, actorID)
}

func (w Writer) append(ctx context.Context, tx *sql.Tx, taskID, action string, oldValue, newValue *domain.Task, actorID string) error {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	if actorID == "" {
		actorID = "system"
	}
	oldJSON, err := encodeSnapshot(oldValue)
	if err != nil {
		return fmt.Errorf("marshal old snapshot: %w", err)
	}
	newJSON, err := encodeSnapshot(newValue)
	if err != nil {
		return fmt.Errorf("marshal new snapshot: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO task_history(task_id,action,old_value_json,new_value_json,changed_by,changed_at) VALUES (?,?,?,?,?,?)`,
		taskID, action, oldJSON, newJSON, actorID, now().UTC().Format(time.RFC3339))
	return err
}

func encodeSnapshot(t *domain.Task) (any, error) {
	if t == nil {
		return nil, nil
	}
	data, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
