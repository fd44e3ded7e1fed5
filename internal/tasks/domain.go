// Package tasks implements task CRUD, search and statistics. It is a
// consumer of the security pipeline: every endpoint declares the identity
// tier it requires and otherwise only runs key/range queries.
package tasks

import "time"

// Task statuses.
const (
	StatusTodo  = "todo"
	StatusDoing = "doing"
	StatusDone  = "done"
)

// Task priorities.
const (
	PriorityLow  = "low"
	PriorityMed  = "med"
	PriorityHigh = "high"
)

// Task represents a task row. Owner columns are joined from users and
// only populated for admin viewers.
type Task struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	Tags        *string    `json:"tags"`
	AssignedTo  *string    `json:"assigned_to"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	OwnerName   *string    `json:"owner_name,omitempty"`
	OwnerEmail  *string    `json:"owner_email,omitempty"`
}

// StatusStats aggregates task counts by status.
type StatusStats struct {
	Todo  int64 `json:"todo"`
	Doing int64 `json:"doing"`
	Done  int64 `json:"done"`
}

// Query captures the list filters. Admin-only fields are ignored for
// non-admin viewers during assembly.
type Query struct {
	Page    int
	PerPage int

	Search     string
	Statuses   []string
	Priorities []string
	Tags       []string
	DueStart   *time.Time
	DueEnd     *time.Time
	AssignedTo string

	SortBy    string
	SortOrder string

	// Admin-only filters.
	UserID     *int64
	OwnerName  string
	OwnerEmail string
}

// CreateInput carries a new task's fields after validation.
type CreateInput struct {
	Title       string
	Description *string
	Status      string
	Priority    string
	DueDate     *time.Time
	Tags        *string
	AssignedTo  *string
}

// UpdateInput carries a partial update; nil fields keep the stored value.
type UpdateInput struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	DueDate     *time.Time
	Tags        *string
	AssignedTo  *string
}
