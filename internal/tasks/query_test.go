package tasks

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuildFilterScopesNonAdmins(t *testing.T) {
	f := buildFilter(Query{}, 7, false)
	require.Equal(t, " WHERE t.user_id = $1", f.where())
	require.Equal(t, []any{int64(7)}, f.args)
}

func TestBuildFilterAdminUnscoped(t *testing.T) {
	f := buildFilter(Query{}, 7, true)
	require.Empty(t, f.where())
	require.Empty(t, f.args)
}

func TestBuildFilterSearchAndStatuses(t *testing.T) {
	f := buildFilter(Query{
		Search:     "  Fix THE roof ",
		Statuses:   []string{"todo", " doing ", ""},
		Priorities: []string{"high"},
	}, 7, false)

	where := f.where()
	require.Contains(t, where, "LOWER(t.title) LIKE $2")
	require.Contains(t, where, "LOWER(t.description) LIKE $3")
	require.Contains(t, where, "t.status = ANY($4)")
	require.Contains(t, where, "t.priority = ANY($5)")
	require.Equal(t, "%fix the roof%", f.args[1])
	require.Equal(t, []string{"todo", "doing"}, f.args[3])
}

func TestBuildFilterTagsAreORed(t *testing.T) {
	f := buildFilter(Query{Tags: []string{"home", "urgent"}}, 7, true)
	require.Equal(t, " WHERE (LOWER(t.tags) LIKE $1 OR LOWER(t.tags) LIKE $2)", f.where())
	require.Equal(t, []any{"%home%", "%urgent%"}, f.args)
}

func TestBuildFilterDueRange(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	f := buildFilter(Query{DueStart: &start, DueEnd: &end}, 7, true)
	require.Equal(t, " WHERE t.due_date >= $1 AND t.due_date <= $2", f.where())
}

func TestBuildFilterUnassigned(t *testing.T) {
	f := buildFilter(Query{AssignedTo: "unassigned"}, 7, true)
	require.Contains(t, f.where(), "t.assigned_to IS NULL")
	require.Empty(t, f.args)
}

func TestBuildFilterAdminOnlyFieldsIgnoredForUsers(t *testing.T) {
	ownerID := int64(3)
	q := Query{UserID: &ownerID, OwnerName: "alice", OwnerEmail: "alice@example.com"}

	f := buildFilter(q, 7, false)
	require.Equal(t, " WHERE t.user_id = $1", f.where())

	f = buildFilter(q, 7, true)
	where := f.where()
	require.Contains(t, where, "t.user_id = $1")
	require.Contains(t, where, "LOWER(u.name) LIKE $2")
	require.Contains(t, where, "LOWER(u.email) LIKE $3")
}

func TestSortClause(t *testing.T) {
	tests := []struct {
		name    string
		sortBy  string
		order   string
		isAdmin bool
		want    string
	}{
		{"default", "", "", false, " ORDER BY t.created_at DESC"},
		{"due date asc", "due_date", "asc", false, " ORDER BY t.due_date ASC"},
		{"unknown column falls back", "password_hash", "asc", true, " ORDER BY t.created_at ASC"},
		{"owner name admin", "owner_name", "", true, " ORDER BY u.name DESC"},
		{"owner name non-admin falls back", "owner_name", "", false, " ORDER BY t.created_at DESC"},
		{"injection attempt ignored", "title; DROP TABLE tasks", "desc", true, " ORDER BY t.created_at DESC"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := sortClause(tc.sortBy, tc.order, tc.isAdmin)
			require.Equal(t, tc.want, got)
			require.False(t, strings.Contains(got, "DROP"))
		})
	}
}
