package lifecycle

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"

	"github.com/akyairhashvil/marathon/internal/blob"
	"github.com/akyairhashvil/marathon/internal/certificate"
	"github.com/akyairhashvil/marathon/internal/config"
	"github.com/akyairhashvil/marathon/internal/models"
)

// Artifact is an administrator-supplied certificate file.
type Artifact struct {
	Name string
	Data []byte
}

type CertificateResult struct {
	User     models.User
	Progress models.Progress
	BlobRef  string
	Warnings []error
}

// IssueCertificate sends a certificate to the user named by username once
// they are eligible. Without an artifact a PDF is rendered. An empty caption
// falls back to a default one.
func (e *Engine) IssueCertificate(ctx context.Context, username string, artifact *Artifact, caption string) (CertificateResult, error) {
	const op = "issue certificate"
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return CertificateResult{}, newError(op, ErrInvalidArgument, "username is required")
	}
	if e.blobs == nil {
		return CertificateResult{}, newError(op, ErrPreconditionFailed, "no blob store configured")
	}

	user, err := e.store.GetUserByUsername(ctx, username)
	if err != nil {
		return CertificateResult{}, storeErr(op, err)
	}
	eligible, p, err := e.gate.IsEligible(ctx, user.ID)
	if err != nil {
		return CertificateResult{}, storeErr(op, err)
	}
	if !eligible {
		return CertificateResult{User: user, Progress: p},
			newError(op, ErrPreconditionFailed, "completed %d/%d", p.Completed, p.Total)
	}

	data, ext := []byte(nil), config.CertificateExt
	if artifact != nil && len(artifact.Data) > 0 {
		data = artifact.Data
		if x := strings.TrimPrefix(filepath.Ext(artifact.Name), "."); x != "" {
			ext = x
		}
	} else {
		data, err = certificate.Render(user, p, e.now())
		if err != nil {
			return CertificateResult{}, storeErr(op, err)
		}
	}

	ref, err := e.blobs.Put(ctx, blob.CertificateKey(user.ID, ext), bytes.NewReader(data))
	if err != nil {
		return CertificateResult{}, storeErr(op, err)
	}
	e.logger.Info("Certificate stored", "user_id", user.ID, "blob", ref)

	if strings.TrimSpace(caption) == "" {
		caption = certificateCaption(user)
	}
	var w warnings
	e.notifyAttachment(ctx, op, user.Handle, caption, ref, &w)
	return CertificateResult{User: user, Progress: p, BlobRef: ref, Warnings: w}, nil
}
