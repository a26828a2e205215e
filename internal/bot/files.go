package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// FileFetcher downloads a Telegram file by id.
type FileFetcher interface {
	Fetch(ctx context.Context, fileID string) (io.ReadCloser, error)
}

// URLResolver turns a file id into a download URL.
type URLResolver interface {
	GetFileDirectURL(fileID string) (string, error)
}

// HTTPFetcher resolves the file URL through the Bot API and streams the body.
type HTTPFetcher struct {
	resolver URLResolver
	client   *http.Client
}

func NewHTTPFetcher(resolver URLResolver, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &HTTPFetcher{resolver: resolver, client: &http.Client{Timeout: timeout}}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, fileID string) (io.ReadCloser, error) {
	url, err := f.resolver.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file %s: %w", fileID, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file %s: %w", fileID, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("download file %s: unexpected status %s", fileID, resp.Status)
	}
	return resp.Body, nil
}
