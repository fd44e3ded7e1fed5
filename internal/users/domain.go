// Package users provides the user directory, the assignment list and the
// admin surface: paginated user listings, role management and cached
// system statistics.
package users

import "time"

// Summary is an admin-facing user row.
type Summary struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	TaskCount int64     `json:"task_count"`
	CreatedAt time.Time `json:"created_at"`
}

// Assignee is the minimal user row exposed to every authenticated caller
// for task assignment.
type Assignee struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	TaskCount int64  `json:"task_count"`
}

// SystemStats aggregates platform-wide counters for the admin dashboard.
type SystemStats struct {
	TotalUsers        int64 `json:"total_users"`
	TotalTasks        int64 `json:"total_tasks"`
	TasksTodo         int64 `json:"tasks_todo"`
	TasksDoing        int64 `json:"tasks_doing"`
	TasksDone         int64 `json:"tasks_done"`
	TasksLowPriority  int64 `json:"tasks_low_priority"`
	TasksMedPriority  int64 `json:"tasks_med_priority"`
	TasksHighPriority int64 `json:"tasks_high_priority"`
	TasksCreatedToday int64 `json:"tasks_created_today"`
	UsersCreatedToday int64 `json:"users_created_today"`
	LoginsToday       int64 `json:"logins_today"`
	FailedLoginsToday int64 `json:"failed_logins_today"`
}
