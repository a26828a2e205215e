package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/akyairhashvil/marathon/internal/models"
)

func scanUser(row rowScanner) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Handle, &u.Username, &u.Approved, &u.CurrentTask, &u.Finished, &u.JoinedAt)
	return u, err
}

// CreateUser inserts an unapproved user with no task assigned.
// A duplicate handle fails with ErrConflict.
func (d *Database) CreateUser(ctx context.Context, handle, username string) (models.User, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return models.User{}, wrapErr(EntityUser, "create", 0, errors.New("handle is required"))
	}
	return withDBContextResult(d, ctx, func(ctx context.Context) (models.User, error) {
		joined := time.Now().UTC()
		res, err := d.DB.ExecContext(ctx,
			`INSERT INTO users (handle, username, approved, current_task, finished, joined_date) VALUES (?, ?, 0, 0, 0, ?)`,
			handle, strings.TrimSpace(username), joined)
		if err != nil {
			return models.User{}, wrapErr(EntityUser, "create", 0, classify(err))
		}
		id, err := res.LastInsertId()
		if err != nil {
			return models.User{}, wrapErr(EntityUser, "create", 0, err)
		}
		return models.User{ID: id, Handle: handle, Username: strings.TrimSpace(username), JoinedAt: joined}, nil
	})
}

func (d *Database) GetUser(ctx context.Context, id int64) (models.User, error) {
	return d.getUserWhere(ctx, "get", id, "id = ?", id)
}

func (d *Database) GetUserByHandle(ctx context.Context, handle string) (models.User, error) {
	return d.getUserWhere(ctx, "get by handle", 0, "handle = ?", strings.TrimSpace(handle))
}

// GetUserByUsername matches case-insensitively; a leading "@" is ignored.
func (d *Database) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return models.User{}, wrapErr(EntityUser, "get by username", 0, ErrNotFound)
	}
	return d.getUserWhere(ctx, "get by username", 0, "username = ? COLLATE NOCASE", username)
}

func (d *Database) getUserWhere(ctx context.Context, op string, id int64, filter string, args ...interface{}) (models.User, error) {
	return withDBContextResult(d, ctx, func(ctx context.Context) (models.User, error) {
		query, qargs := NewUserQuery().Where(filter, args...).OrderBy("id ASC").Limit(1).Build()
		u, err := scanUser(d.DB.QueryRowContext(ctx, query, qargs...))
		if err != nil {
			return models.User{}, wrapErr(EntityUser, op, id, notFound(err))
		}
		return u, nil
	})
}

// UpdateUser applies the non-nil fields of upd and returns the stored row.
func (d *Database) UpdateUser(ctx context.Context, id int64, upd UserUpdate) (models.User, error) {
	if upd.empty() {
		return d.GetUser(ctx, id)
	}
	var (
		sets []string
		args []interface{}
	)
	if upd.Username != nil {
		sets = append(sets, "username = ?")
		args = append(args, strings.TrimSpace(*upd.Username))
	}
	if upd.Approved != nil {
		sets = append(sets, "approved = ?")
		args = append(args, boolToInt(*upd.Approved))
	}
	if upd.CurrentTask != nil {
		if *upd.CurrentTask < 0 {
			return models.User{}, wrapErr(EntityUser, "update", id, fmt.Errorf("invalid current task %d", *upd.CurrentTask))
		}
		sets = append(sets, "current_task = ?")
		args = append(args, *upd.CurrentTask)
	}
	if upd.Finished != nil {
		sets = append(sets, "finished = ?")
		args = append(args, boolToInt(*upd.Finished))
	}
	args = append(args, id)

	err := withDBContext(d, ctx, func(ctx context.Context) error {
		n, err := d.execAffected(ctx, "UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return models.User{}, wrapErr(EntityUser, "update", id, err)
	}
	return d.GetUser(ctx, id)
}

func (d *Database) ListUsers(ctx context.Context) ([]models.User, error) {
	query, args := NewUserQuery().OrderBy("id ASC").Build()
	return d.queryUsers(ctx, "list", query, args...)
}

// ListUnapprovedUsers returns users still waiting for admission, oldest first.
func (d *Database) ListUnapprovedUsers(ctx context.Context) ([]models.User, error) {
	query, args := NewUserQuery().Where("approved = 0").OrderBy("joined_date ASC, id ASC").Build()
	return d.queryUsers(ctx, "list unapproved", query, args...)
}

func (d *Database) queryUsers(ctx context.Context, op string, query string, args ...interface{}) ([]models.User, error) {
	return withDBContextResult(d, ctx, func(ctx context.Context) ([]models.User, error) {
		rows, err := d.DB.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, wrapErr(EntityUser, op, 0, err)
		}
		defer rows.Close()

		var users []models.User
		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return nil, wrapErr(EntityUser, op, 0, err)
			}
			users = append(users, u)
		}
		if err := rows.Err(); err != nil {
			return nil, wrapErr(EntityUser, op, 0, err)
		}
		return users, nil
	})
}

// RemoveUserCascade deletes the user's submissions and then the user.
// The two steps are not atomic; rerunning after a partial failure finishes the job.
func (d *Database) RemoveUserCascade(ctx context.Context, id int64) (CascadeResult, error) {
	var res CascadeResult
	if _, err := d.GetUser(ctx, id); err != nil {
		return res, err
	}
	n, err := d.DeleteSubmissionsForUser(ctx, id)
	if err != nil {
		return res, err
	}
	res.SubmissionsDeleted = n
	err = withDBContext(d, ctx, func(ctx context.Context) error {
		_, err := d.execAffected(ctx, "DELETE FROM users WHERE id = ?", id)
		return classifyDelete(err)
	})
	return res, wrapErr(EntityUser, "remove", id, err)
}
