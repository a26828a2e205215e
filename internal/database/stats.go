package database

import (
	"context"

	"github.com/akyairhashvil/marathon/internal/models"
)

// Dashboard aggregates catalog-wide counts in one read.
func (d *Database) Dashboard(ctx context.Context) (models.Dashboard, error) {
	return withDBContextResult(d, ctx, func(ctx context.Context) (models.Dashboard, error) {
		dash := models.Dashboard{ByStatus: make(map[models.SubmissionStatus]int)}
		err := d.DB.QueryRowContext(ctx, `SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE approved = 1),
			(SELECT COUNT(*) FROM tasks),
			(SELECT COUNT(*) FROM submissions)`).
			Scan(&dash.Users, &dash.ApprovedUsers, &dash.Tasks, &dash.Submissions)
		if err != nil {
			return dash, wrapErr(EntitySubmission, "dashboard", 0, err)
		}
		dash.PendingUsers = dash.Users - dash.ApprovedUsers

		rows, err := d.DB.QueryContext(ctx, "SELECT status, COUNT(*) FROM submissions GROUP BY status")
		if err != nil {
			return dash, wrapErr(EntitySubmission, "dashboard", 0, err)
		}
		defer rows.Close()
		for rows.Next() {
			var status, n int
			if err := rows.Scan(&status, &n); err != nil {
				return dash, wrapErr(EntitySubmission, "dashboard", 0, err)
			}
			dash.ByStatus[models.SubmissionStatus(status)] = n
		}
		if err := rows.Err(); err != nil {
			return dash, wrapErr(EntitySubmission, "dashboard", 0, err)
		}
		return dash, nil
	})
}
