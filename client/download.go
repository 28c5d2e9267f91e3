package client

import (
	"context"
	"errors"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"strconv"

	"github.com/adamwoolhether/relay/client/download"
)

// DownloadOption configures [Client.Download].
type DownloadOption = download.Option

// DownloadError wraps a sentinel error with additional detail.
type DownloadError = download.Error

var (
	// ErrContentLengthMismatch indicates the byte count did not match Content-Length.
	ErrContentLengthMismatch = download.ErrContentLengthMismatch

	// ErrChecksumMismatch indicates the file checksum did not match the expected value.
	ErrChecksumMismatch = download.ErrChecksumMismatch

	// ErrDownloadCancelled indicates the download was cancelled via context.
	ErrDownloadCancelled = download.ErrDownloadCancelled
)

// WithChecksum enables checksum validation of the downloaded file.
func WithChecksum(h hash.Hash, expected string) DownloadOption {
	return download.WithChecksum(h, expected)
}

// WithProgress enables periodic download progress logging.
func WithProgress() DownloadOption { return download.WithProgress() }

// WithDownloadProgress calls fn with the bytes written so far and the
// expected total, -1 when unknown.
func WithDownloadProgress(fn func(written, total int64)) DownloadOption {
	return download.WithProgressFunc(fn)
}

// WithSkipExisting causes a download to return nil immediately when
// the destination file already exists.
func WithSkipExisting() DownloadOption { return download.WithSkipExisting() }

// WithCreateDirs creates missing parent directories of the destination.
func WithCreateDirs() DownloadOption { return download.WithCreateDirs() }

// WithFileMode sets the permissions of the finished file.
func WithFileMode(mode fs.FileMode) DownloadOption { return download.WithFileMode(mode) }

// Download sends cfg with a streamed response and writes the body to
// destPath. Data streams to a temp file in the same directory, which is
// renamed to destPath on success or removed on failure.
func (c *Client) Download(ctx context.Context, cfg *Config, destPath string, opts ...DownloadOption) error {
	if destPath == "" {
		return download.ErrEmptyDestination
	}

	call := cfg.clone()
	call.ResponseType = ResponseTypeStream

	resp, err := c.Request(ctx, call)
	if err != nil {
		return err
	}

	body, ok := resp.Data.(io.ReadCloser)
	if !ok {
		return fmt.Errorf("download: response data is %T, not a stream", resp.Data)
	}
	defer func() {
		if err := body.Close(); err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Error("failed to close response body", "error", err)
		}
	}()

	size := int64(-1)
	if v := resp.Headers.Get("Content-Length"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			size = n
		}
	}

	if err := download.ToFile(ctx, body, size, destPath, c.logger, opts...); err != nil {
		return fmt.Errorf("download: %w", err)
	}

	return nil
}
