package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/akyairhashvil/marathon/internal/models"
)

type ExportUser struct {
	ID          int64  `json:"id"`
	Handle      string `json:"handle"`
	Username    string `json:"username"`
	Approved    bool   `json:"approved"`
	CurrentTask int    `json:"current_task"`
	Finished    bool   `json:"finished"`
	JoinedDate  string `json:"joined_date"`
}

type ExportTask struct {
	ID        int64  `json:"id"`
	DayNumber int    `json:"day_number"`
	TaskText  string `json:"task_text"`
}

type ExportSubmission struct {
	ID            int64  `json:"id"`
	UserID        int64  `json:"user_id"`
	TaskID        int64  `json:"task_id"`
	VoiceFilePath string `json:"voice_file_path"`
	FeedbackText  string `json:"feedback_text,omitempty"`
	Status        int    `json:"status"`
	CreatedAt     string `json:"created_at"`
}

type ExportOptions struct {
	EncryptOutput bool
	Passphrase    string
}

// Snapshot is the portable form of the whole store.
type Snapshot struct {
	ExportedAt  string             `json:"exported_at"`
	Users       []ExportUser       `json:"users"`
	Tasks       []ExportTask       `json:"tasks"`
	Submissions []ExportSubmission `json:"submissions"`
}

// ExportSnapshot serializes all users, tasks and submissions to JSON,
// optionally sealed with a passphrase.
func (d *Database) ExportSnapshot(ctx context.Context, opts ExportOptions) ([]byte, error) {
	users, err := d.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := d.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	subs, err := d.ListSubmissions(ctx, SubmissionFilter{})
	if err != nil {
		return nil, err
	}

	snap := Snapshot{ExportedAt: time.Now().UTC().Format(time.RFC3339)}
	for _, u := range users {
		snap.Users = append(snap.Users, ExportUser{
			ID:          u.ID,
			Handle:      u.Handle,
			Username:    u.Username,
			Approved:    u.Approved,
			CurrentTask: u.CurrentTask,
			Finished:    u.Finished,
			JoinedDate:  u.JoinedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	for _, t := range tasks {
		snap.Tasks = append(snap.Tasks, ExportTask{ID: t.ID, DayNumber: t.DayNumber, TaskText: t.Text})
	}
	for _, s := range subs {
		snap.Submissions = append(snap.Submissions, ExportSubmission{
			ID:            s.ID,
			UserID:        s.UserID,
			TaskID:        s.TaskID,
			VoiceFilePath: s.VoiceFilePath,
			FeedbackText:  s.FeedbackText,
			Status:        int(s.Status),
			CreatedAt:     s.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}

	jsonData, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}
	if opts.EncryptOutput && opts.Passphrase != "" {
		return encryptData(jsonData, opts.Passphrase)
	}
	return jsonData, nil
}

// ImportSnapshot loads an exported snapshot, replacing rows with matching ids.
// Unlike the rest of the store it runs in a single transaction so a bad
// payload leaves nothing behind.
func (d *Database) ImportSnapshot(ctx context.Context, payload []byte, passphrase string) error {
	payload, err := maybeDecrypt(payload, passphrase)
	if err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}

	ctx, cancel := d.withTimeout(ctx, defaultDBTimeout)
	defer cancel()

	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("import snapshot begin: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	for _, u := range snap.Users {
		joined, err := parseExportTime(u.JoinedDate)
		if err != nil {
			return fmt.Errorf("import user %d: %w", u.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO users (id, handle, username, approved, current_task, finished, joined_date)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			u.ID, u.Handle, u.Username, boolToInt(u.Approved), u.CurrentTask, boolToInt(u.Finished), joined,
		); err != nil {
			return fmt.Errorf("import user %d: %w", u.ID, classify(err))
		}
	}

	for _, t := range snap.Tasks {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO tasks (id, day_number, task_text) VALUES (?, ?, ?)`,
			t.ID, t.DayNumber, t.TaskText,
		); err != nil {
			return fmt.Errorf("import task %d: %w", t.ID, classify(err))
		}
	}

	for _, s := range snap.Submissions {
		if !models.SubmissionStatus(s.Status).Valid() {
			return fmt.Errorf("import submission %d: invalid status %d", s.ID, s.Status)
		}
		created, err := parseExportTime(s.CreatedAt)
		if err != nil {
			return fmt.Errorf("import submission %d: %w", s.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO submissions (id, user_id, task_id, voice_file_path, feedback_text, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			s.ID, s.UserID, s.TaskID, s.VoiceFilePath, s.FeedbackText, s.Status, created,
		); err != nil {
			return fmt.Errorf("import submission %d: %w", s.ID, classify(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("import snapshot commit: %w", err)
	}
	commit = true
	return nil
}

func parseExportTime(value string) (time.Time, error) {
	if value == "" {
		return time.Now().UTC(), nil
	}
	return time.Parse(time.RFC3339Nano, value)
}
