package domain

// Category of a task, derived from its text. Categories() declares the
// classification precedence; the order is part of the contract.
type Category string

const (
	CategoryScheduling Category = "scheduling"
	CategoryFinance    Category = "finance"
	CategoryTechnical  Category = "technical"
	CategorySafety     Category = "safety"
	CategoryGeneral    Category = "general"
)

// Categories returns every category in match precedence order, with
// the general fallback last.
func Categories() []Category {
	return []Category{
		CategoryScheduling,
		CategoryFinance,
		CategoryTechnical,
		CategorySafety,
		CategoryGeneral,
	}
}

// Priority of a task, derived from urgency markers in its text.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Task status values accepted by the store.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// ValidStatus reports whether s is one of the accepted status values.
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusInProgress || s == StatusCompleted
}

// EntityBundle is the extraction result for a task description. All
// three slices are always non-nil; duplicates are preserved in order
// of appearance.
type EntityBundle struct {
	Dates   []string `json:"dates"`
	People  []string `json:"people"`
	Actions []string `json:"actions"`
}

type Task struct {
	ID               string       `json:"id"`
	Title            string       `json:"title"`
	Description      string       `json:"description,omitempty"`
	Category         Category     `json:"category" enum:"scheduling,finance,technical,safety,general"`
	Priority         Priority     `json:"priority" enum:"low,medium,high"`
	AssignedTo       *string      `json:"assigned_to,omitempty"`
	DueDate          *string      `json:"due_date,omitempty"`
	Status           string       `json:"status" enum:"pending,in_progress,completed"`
	Entities         EntityBundle `json:"extracted_entities"`
	SuggestedActions []string     `json:"suggested_actions"`
	CreatedAt        string       `json:"created_at" format:"date-time"`
	UpdatedAt        string       `json:"updated_at" format:"date-time"`
}

// History actions.
const (
	HistoryCreated = "created"
	HistoryUpdated = "updated"
	HistoryDeleted = "deleted"
)

// HistoryEntry is one immutable audit record of a task mutation.
// Snapshot presence follows the action: created carries only NewValue,
// deleted only OldValue, updated both. Entries are written through
// history.Writer so the rule holds by construction.
type HistoryEntry struct {
	ID        int64  `json:"id"`
	TaskID    string `json:"task_id"`
	Action    string `json:"action" enum:"created,updated,deleted"`
	OldValue  *Task  `json:"old_value,omitempty"`
	NewValue  *Task  `json:"new_value,omitempty"`
	ChangedBy string `json:"changed_by"`
	ChangedAt string `json:"changed_at" format:"date-time"`
}

type APIKey struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}
