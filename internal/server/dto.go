package server

import (
	"tasktriage/internal/domain"
)

// Request payloads

type CreateTaskRequest struct {
	Title       string  `json:"title" minLength:"3"`
	Description *string `json:"description,omitempty"`
	AssignedTo  *string `json:"assigned_to,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty" minLength:"3"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty" enum:"pending,in_progress,completed"`
	AssignedTo  *string `json:"assigned_to,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
}

type ClassifyRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
}

// Response payloads

type TaskResponse struct {
	ID               string              `json:"id"`
	Title            string              `json:"title"`
	Description      string              `json:"description,omitempty"`
	Category         string              `json:"category" enum:"scheduling,finance,technical,safety,general"`
	Priority         string              `json:"priority" enum:"low,medium,high"`
	AssignedTo       *string             `json:"assigned_to,omitempty"`
	DueDate          *string             `json:"due_date,omitempty"`
	Status           string              `json:"status" enum:"pending,in_progress,completed"`
	Entities         domain.EntityBundle `json:"extracted_entities"`
	SuggestedActions []string            `json:"suggested_actions"`
	CreatedAt        string              `json:"created_at" format:"date-time"`
	UpdatedAt        string              `json:"updated_at" format:"date-time"`
}

type TaskListResponse struct {
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
	Tasks  []TaskResponse `json:"tasks"`
}

type HistoryEntryResponse struct {
	ID        int64         `json:"id"`
	TaskID    string        `json:"task_id"`
	Action    string        `json:"action" enum:"created,updated,deleted"`
	OldValue  *TaskResponse `json:"old_value,omitempty"`
	NewValue  *TaskResponse `json:"new_value,omitempty"`
	ChangedBy string        `json:"changed_by"`
	ChangedAt string        `json:"changed_at" format:"date-time"`
}

type TaskDetailResponse struct {
	Task    TaskResponse           `json:"task"`
	History []HistoryEntryResponse `json:"history"`
}

type ClassifyResponse struct {
	Category         string              `json:"category" enum:"scheduling,finance,technical,safety,general"`
	Priority         string              `json:"priority" enum:"low,medium,high"`
	Entities         domain.EntityBundle `json:"extracted_entities"`
	SuggestedActions []string            `json:"suggested_actions"`
}

// Conversion helpers

func taskResponse(t domain.Task) TaskResponse {
	return TaskResponse{
		ID:               t.ID,
		Title:            t.Title,
		Description:      t.Description,
		Category:         string(t.Category),
		Priority:         string(t.Priority),
		AssignedTo:       t.AssignedTo,
		DueDate:          t.DueDate,
		Status:           t.Status,
		Entities:         t.Entities,
		SuggestedActions: nonNilSlice(t.SuggestedActions),
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

func mapTasks(tasks []domain.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskResponse(t))
	}
	return out
}

func historyResponse(h domain.HistoryEntry) HistoryEntryResponse {
	return HistoryEntryResponse{
		ID:        h.ID,
		TaskID:    h.TaskID,
		Action:    h.Action,
		OldValue:  snapshotResponse(h.OldValue),
		NewValue:  snapshotResponse(h.NewValue),
		ChangedBy: h.ChangedBy,
		ChangedAt: h.ChangedAt,
	}
}

func mapHistory(entries []domain.HistoryEntry) []HistoryEntryResponse {
	out := make([]HistoryEntryResponse, 0, len(entries))
	for _, h := range entries {
		out = append(out, historyResponse(h))
	}
	return out
}

func snapshotResponse(t *domain.Task) *TaskResponse {
	if t == nil {
		return nil
	}
	r := taskResponse(*t)
	return &r
}

func nonNilSlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
