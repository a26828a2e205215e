package database

import (
	"fmt"
	"strings"
)

const (
	userColumns       = "id, handle, username, approved, current_task, finished, joined_date"
	taskColumns       = "id, day_number, task_text"
	submissionColumns = "id, user_id, task_id, voice_file_path, feedback_text, status, created_at"
)

// SelectQuery assembles a filtered SELECT over a single table.
type SelectQuery struct {
	table   string
	columns string
	filters []string
	args    []interface{}
	orderBy string
	limit   int
	offset  int
}

func NewUserQuery() *SelectQuery {
	return &SelectQuery{table: "users", columns: userColumns}
}

func NewTaskQuery() *SelectQuery {
	return &SelectQuery{table: "tasks", columns: taskColumns}
}

func NewSubmissionQuery() *SelectQuery {
	return &SelectQuery{table: "submissions", columns: submissionColumns}
}

func (q *SelectQuery) Where(filter string, args ...interface{}) *SelectQuery {
	q.filters = append(q.filters, filter)
	q.args = append(q.args, args...)
	return q
}

// WhereFilter applies the non-zero fields of a SubmissionFilter.
func (q *SelectQuery) WhereFilter(f SubmissionFilter) *SelectQuery {
	if f.UserID > 0 {
		q.Where("user_id = ?", f.UserID)
	}
	if f.TaskID > 0 {
		q.Where("task_id = ?", f.TaskID)
	}
	if f.Status != nil {
		q.Where("status = ?", int(*f.Status))
	}
	if f.Newest {
		q.OrderBy("id DESC")
	} else {
		q.OrderBy("id ASC")
	}
	return q.Limit(f.Limit).Offset(f.Offset)
}

func (q *SelectQuery) OrderBy(orderBy string) *SelectQuery {
	q.orderBy = orderBy
	return q
}

func (q *SelectQuery) Limit(limit int) *SelectQuery {
	q.limit = limit
	return q
}

func (q *SelectQuery) Offset(offset int) *SelectQuery {
	q.offset = offset
	return q
}

func (q *SelectQuery) Build() (string, []interface{}) {
	query := fmt.Sprintf("SELECT %s FROM %s", q.columns, q.table)
	if len(q.filters) > 0 {
		query += " WHERE " + strings.Join(q.filters, " AND ")
	}
	if q.orderBy != "" {
		query += " ORDER BY " + q.orderBy
	}
	if q.limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.limit)
		if q.offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", q.offset)
		}
	} else if q.offset > 0 {
		query += fmt.Sprintf(" LIMIT -1 OFFSET %d", q.offset)
	}
	return query, q.args
}
