package lifecycle

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"

	"github.com/akyairhashvil/marathon/internal/blob"
	"github.com/akyairhashvil/marathon/internal/database"
	"github.com/akyairhashvil/marathon/internal/models"
)

func approveAll(t *testing.T, f *fixture, userID int64) {
	t.Helper()
	tasks, err := f.db.ListTasks(f.ctx)
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	for _, task := range tasks {
		sub, err := f.db.CreateSubmission(f.ctx, userID, task.ID, "voice/x.ogg")
		if err != nil {
			t.Fatalf("CreateSubmission failed: %v", err)
		}
		if _, err := f.db.TransitionSubmission(f.ctx, sub.ID, models.SubmissionPending, models.SubmissionApproved, "ok"); err != nil {
			t.Fatalf("TransitionSubmission failed: %v", err)
		}
	}
}

func TestIssueCertificateRendersPDF(t *testing.T) {
	store, err := blob.New(t.TempDir())
	if err != nil {
		t.Fatalf("blob.New failed: %v", err)
	}
	f := setupEngine(t, store)
	f.tasks(t, 1, 2)
	u := f.user(t, "600", true, 1)

	if _, err := f.engine.IssueCertificate(f.ctx, "@user600", nil, ""); !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("expected ErrPreconditionFailed before completion, got %v", err)
	}

	approveAll(t, f, u.ID)
	f.notify.EXPECT().NotifyWithAttachment(gomock.Any(), "600", "🏆 Certificate of completion for @user600", "certificates/"+strconv.FormatInt(u.ID, 10)+".pdf").Return(nil)
	res, err := f.engine.IssueCertificate(f.ctx, "@USER600", nil, "")
	if err != nil {
		t.Fatalf("IssueCertificate failed: %v", err)
	}
	if res.Progress.Completed != 2 || res.Progress.Total != 2 {
		t.Fatalf("unexpected progress: %+v", res.Progress)
	}
	path, err := store.Path(res.BlobRef)
	if err != nil {
		t.Fatalf("Path failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("expected a PDF artifact")
	}

	if _, err := f.engine.IssueCertificate(f.ctx, "nobody", nil, ""); !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown username, got %v", err)
	}
}

func TestIssueCertificateUsesSuppliedArtifact(t *testing.T) {
	ctrl := gomock.NewController(t)
	blobs := NewMockBlobStore(ctrl)
	f := setupEngine(t, blobs)
	f.tasks(t, 1)
	u := f.user(t, "601", true, 1)
	approveAll(t, f, u.ID)

	key := "certificates/" + strconv.FormatInt(u.ID, 10) + ".png"
	blobs.EXPECT().Put(gomock.Any(), key, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, r io.Reader) (string, error) {
			b, _ := io.ReadAll(r)
			if string(b) != "PNGDATA" {
				t.Errorf("unexpected artifact bytes %q", b)
			}
			return key, nil
		})
	f.notify.EXPECT().NotifyWithAttachment(gomock.Any(), "601", "@user601 well done", key).Return(errors.New("blocked"))

	res, err := f.engine.IssueCertificate(f.ctx, "user601", &Artifact{Name: "cert.png", Data: []byte("PNGDATA")}, "@user601 well done")
	if err != nil {
		t.Fatalf("IssueCertificate failed: %v", err)
	}
	if res.BlobRef != key || len(res.Warnings) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestSubmitVoiceStoresBlob(t *testing.T) {
	store, err := blob.New(t.TempDir())
	if err != nil {
		t.Fatalf("blob.New failed: %v", err)
	}
	f := setupEngine(t, store)
	f.tasks(t, 1)
	u := f.user(t, "602", true, 1)

	f.notify.EXPECT().NotifyWithAttachment(gomock.Any(), adminHandle, contains("Task: Day 1"), gomock.Any()).Return(nil)
	res, err := f.engine.SubmitVoice(f.ctx, u.ID, strings.NewReader("OggS-voice"))
	if err != nil {
		t.Fatalf("SubmitVoice failed: %v", err)
	}
	if !strings.HasPrefix(res.Submission.VoiceFilePath, "voice/") {
		t.Fatalf("unexpected voice ref %q", res.Submission.VoiceFilePath)
	}
	rc, err := store.Open(res.Submission.VoiceFilePath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "OggS-voice" {
		t.Fatalf("unexpected stored voice %q", b)
	}
}

func TestSubmitVoiceRemovesBlobWhenInsertFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	blobs := NewMockBlobStore(ctrl)
	f := setupEngine(t, blobs)
	f.tasks(t, 1)
	u := f.user(t, "603", true, 1)

	// The task disappears between the upload and the insert.
	blobs.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ io.Reader) (string, error) {
			if err := f.db.DeleteTask(ctx, 1); err != nil {
				t.Errorf("DeleteTask failed: %v", err)
			}
			return "voice/orphan.ogg", nil
		})
	blobs.EXPECT().Delete("voice/orphan.ogg").Return(nil)

	if _, err := f.engine.SubmitVoice(f.ctx, u.ID, strings.NewReader("OggS")); err == nil {
		t.Fatalf("expected insert failure")
	}
	subs, err := f.db.ListSubmissions(f.ctx, database.SubmissionFilter{UserID: u.ID})
	if err != nil || len(subs) != 0 {
		t.Fatalf("expected no submission rows, got %d (%v)", len(subs), err)
	}
}

func TestActiveTask(t *testing.T) {
	f := setupEngine(t, nil)
	f.tasks(t, 1, 2)
	idle := f.user(t, "604", true, 0)
	busy := f.user(t, "605", true, 2)

	if _, err := f.engine.ActiveTask(f.ctx, idle.ID); !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("expected ErrPreconditionFailed, got %v", err)
	}
	task, err := f.engine.ActiveTask(f.ctx, busy.ID)
	if err != nil || task.DayNumber != 2 {
		t.Fatalf("expected day 2, got %+v (%v)", task, err)
	}
}

func TestSubmitVoiceWithoutBlobStore(t *testing.T) {
	f := setupEngine(t, nil)
	if _, err := f.engine.SubmitVoice(f.ctx, 1, strings.NewReader("x")); !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("expected ErrPreconditionFailed, got %v", err)
	}
}
