package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"tasktriage/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

const taskColumns = `id,title,description,category,priority,assigned_to,due_date,status,extracted_entities_json,suggested_actions_json,created_at,updated_at`

func (r Repo) InsertTask(ctx context.Context, tx *sql.Tx, t domain.Task) error {
	entities, actions, err := encodeDerived(t)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO tasks(`+taskColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.Title, nullable(t.Description), string(t.Category), string(t.Priority),
		nullableStringPtr(t.AssignedTo), nullableStringPtr(t.DueDate), t.Status,
		entities, actions, t.CreatedAt, t.UpdatedAt)
	return err
}

func (r Repo) UpdateTask(ctx context.Context, tx *sql.Tx, t domain.Task) error {
	entities, actions, err := encodeDerived(t)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `UPDATE tasks SET title=?, description=?, category=?, priority=?, assigned_to=?, due_date=?, status=?, extracted_entities_json=?, suggested_actions_json=?, updated_at=? WHERE id=?`,
		t.Title, nullable(t.Description), string(t.Category), string(t.Priority),
		nullableStringPtr(t.AssignedTo), nullableStringPtr(t.DueDate), t.Status,
		entities, actions, t.UpdatedAt, t.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteTask(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) GetTask(ctx context.Context, id string) (domain.Task, error) {
	return scanTask(r.DB.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=?`, id))
}

// TaskFilters narrows and pages ListTasks. Zero values mean "no
// filter"; Limit defaults to 10 and Sort/Order to created_at desc.
type TaskFilters struct {
	Status   string
	Category string
	Priority string
	Limit    int
	Offset   int
	Sort     string
	Order    string
}

// sortColumns whitelists user-facing sort keys.
var sortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"title":      "title",
	"priority":   "priority",
	"due_date":   "due_date",
	"status":     "status",
}

func (f TaskFilters) clauses() (string, []any) {
	var clauses []string
	var args []any
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.Category != "" {
		clauses = append(clauses, "category=?")
		args = append(args, f.Category)
	}
	if f.Priority != "" {
		clauses = append(clauses, "priority=?")
		args = append(args, f.Priority)
	}
	if len(clauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// ListTasks returns one page of tasks plus the total count of rows
// matching the filters.
func (r Repo) ListTasks(ctx context.Context, f TaskFilters) ([]domain.Task, int, error) {
	where, args := f.clauses()

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM tasks `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sortCol, ok := sortColumns[f.Sort]
	if f.Sort == "" {
		sortCol = "created_at"
	} else if !ok {
		return nil, 0, fmt.Errorf("invalid sort column %s", f.Sort)
	}
	dir := "DESC"
	if strings.EqualFold(f.Order, "asc") {
		dir = "ASC"
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	query := fmt.Sprintf(`SELECT %s FROM tasks %s ORDER BY %s %s, id %s LIMIT ? OFFSET ?`,
		taskColumns, where, sortCol, dir, dir)
	args = append(args, limit, f.Offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var res []domain.Task
	for rows.Next() {
		t, err := scanTaskRow(rows)
		if err != nil {
			return nil, 0, err
		}
		res = append(res, t)
	}
	return res, total, rows.Err()
}

// ListHistory returns the audit trail for a task, most recent first.
// The trail survives task deletion, so this never returns ErrNotFound.
func (r Repo) ListHistory(ctx context.Context, taskID string) ([]domain.HistoryEntry, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id,task_id,action,old_value_json,new_value_json,changed_by,changed_at
		 FROM task_history WHERE task_id=? ORDER BY changed_at DESC, id DESC`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.HistoryEntry
	for rows.Next() {
		var h domain.HistoryEntry
		var oldJSON, newJSON sql.NullString
		if err := rows.Scan(&h.ID, &h.TaskID, &h.Action, &oldJSON, &newJSON, &h.ChangedBy, &h.ChangedAt); err != nil {
			return nil, err
		}
		if h.OldValue, err = decodeSnapshot(oldJSON); err != nil {
			return nil, err
		}
		if h.NewValue, err = decodeSnapshot(newJSON); err != nil {
			return nil, err
		}
		res = append(res, h)
	}
	return res, rows.Err()
}

// --- scan helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (domain.Task, error) {
	return scanTaskRow(row)
}

func scanTaskRow(row rowScanner) (domain.Task, error) {
	var t domain.Task
	var description, assignedTo, dueDate sql.NullString
	var category, priority, entitiesJSON, actionsJSON string
	err := row.Scan(&t.ID, &t.Title, &description, &category, &priority,
		&assignedTo, &dueDate, &t.Status, &entitiesJSON, &actionsJSON,
		&t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	if err != nil {
		return t, err
	}
	t.Category = domain.Category(category)
	t.Priority = domain.Priority(priority)
	if description.Valid {
		t.Description = description.String
	}
	if assignedTo.Valid {
		t.AssignedTo = &assignedTo.String
	}
	if dueDate.Valid {
		t.DueDate = &dueDate.String
	}
	if err := json.Unmarshal([]byte(entitiesJSON), &t.Entities); err != nil {
		return t, fmt.Errorf("decode entities for task %s: %w", t.ID, err)
	}
	if err := json.Unmarshal([]byte(actionsJSON), &t.SuggestedActions); err != nil {
		return t, fmt.Errorf("decode actions for task %s: %w", t.ID, err)
	}
	if t.Entities.Dates == nil {
		t.Entities.Dates = []string{}
	}
	if t.Entities.People == nil {
		t.Entities.People = []string{}
	}
	if t.Entities.Actions == nil {
		t.Entities.Actions = []string{}
	}
	if t.SuggestedActions == nil {
		t.SuggestedActions = []string{}
	}
	return t, nil
}

func encodeDerived(t domain.Task) (string, string, error) {
	entities, err := json.Marshal(t.Entities)
	if err != nil {
		return "", "", fmt.Errorf("encode entities: %w", err)
	}
	actions := t.SuggestedActions
	if actions == nil {
		actions = []string{}
	}
	actionsJSON, err := json.Marshal(actions)
	if err != nil {
		return "", "", fmt.Errorf("encode actions: %w", err)
	}
	return string(entities), string(actionsJSON), nil
}

func decodeSnapshot(raw sql.NullString) (*domain.Task, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var t domain.Task
	if err := json.Unmarshal([]byte(raw.String), &t); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &t, nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStringPtr(v *string) any {
	if v == nil {
		return nil
	}
	if *v == "" {
		return nil
	}
	return *v
}
