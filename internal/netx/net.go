// Package netx holds small HTTP helpers for talking to object storage.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/sealdrop/internal/common"
)

// DownloadFromPresignedURL fetches the object behind a presigned GET URL.
// Transport failures, non-2xx statuses and bodies above maxSize all wrap
// common.ErrBlobUnavailable. maxSize <= 0 disables the limit.
func DownloadFromPresignedURL(ctx context.Context, client *http.Client, url string, maxSize int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrBlobUnavailable, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrBlobUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: download failed: %s; body: %s", common.ErrBlobUnavailable, resp.Status, string(b))
	}

	var body io.Reader = resp.Body
	if maxSize > 0 {
		body = io.LimitReader(resp.Body, maxSize+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrBlobUnavailable, err)
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%w: object exceeds %d bytes", common.ErrBlobUnavailable, maxSize)
	}
	return data, nil
}
