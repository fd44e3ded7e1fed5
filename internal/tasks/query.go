package tasks

import (
	"fmt"
	"strings"
)

// filterBuilder assembles a WHERE clause with numbered placeholders.
type filterBuilder struct {
	clauses []string
	args    []any
}

func (f *filterBuilder) bind(v any) string {
	f.args = append(f.args, v)
	return fmt.Sprintf("$%d", len(f.args))
}

func (f *filterBuilder) add(clause string) {
	f.clauses = append(f.clauses, clause)
}

func (f *filterBuilder) where() string {
	if len(f.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.clauses, " AND ")
}

// buildFilter renders the list filters into SQL. Non-admin viewers are
// always scoped to their own rows and admin-only filters are dropped.
func buildFilter(q Query, viewerID int64, isAdmin bool) *filterBuilder {
	f := &filterBuilder{}

	if !isAdmin {
		f.add("t.user_id = " + f.bind(viewerID))
	}

	if search := strings.TrimSpace(q.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		f.add(fmt.Sprintf("(LOWER(t.title) LIKE %s OR LOWER(t.description) LIKE %s)", f.bind(pattern), f.bind(pattern)))
	}

	if vals := nonEmpty(q.Statuses); len(vals) > 0 {
		f.add("t.status = ANY(" + f.bind(vals) + ")")
	}
	if vals := nonEmpty(q.Priorities); len(vals) > 0 {
		f.add("t.priority = ANY(" + f.bind(vals) + ")")
	}

	if tags := nonEmpty(q.Tags); len(tags) > 0 {
		parts := make([]string, len(tags))
		for i, tag := range tags {
			parts[i] = "LOWER(t.tags) LIKE " + f.bind("%"+strings.ToLower(tag)+"%")
		}
		f.add("(" + strings.Join(parts, " OR ") + ")")
	}

	if q.DueStart != nil {
		f.add("t.due_date >= " + f.bind(*q.DueStart))
	}
	if q.DueEnd != nil {
		f.add("t.due_date <= " + f.bind(*q.DueEnd))
	}

	switch assigned := strings.TrimSpace(q.AssignedTo); {
	case assigned == "unassigned":
		f.add("(t.assigned_to IS NULL OR t.assigned_to = '')")
	case assigned != "":
		f.add("LOWER(t.assigned_to) LIKE " + f.bind("%"+strings.ToLower(assigned)+"%"))
	}

	if isAdmin {
		if q.UserID != nil {
			f.add("t.user_id = " + f.bind(*q.UserID))
		}
		if name := strings.TrimSpace(q.OwnerName); name != "" {
			f.add("LOWER(u.name) LIKE " + f.bind("%"+strings.ToLower(name)+"%"))
		}
		if email := strings.TrimSpace(q.OwnerEmail); email != "" {
			f.add("LOWER(u.email) LIKE " + f.bind("%"+strings.ToLower(email)+"%"))
		}
	}

	return f
}

// sortClause maps the requested sort onto an allow-listed column. Unknown
// fields fall back to creation time; owner sorting is admin-only.
func sortClause(sortBy, sortOrder string, isAdmin bool) string {
	column := "t.created_at"
	switch sortBy {
	case "due_date":
		column = "t.due_date"
	case "priority":
		column = "t.priority"
	case "status":
		column = "t.status"
	case "title":
		column = "t.title"
	case "owner_name":
		if isAdmin {
			column = "u.name"
		}
	}
	direction := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		direction = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s", column, direction)
}

func nonEmpty(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
