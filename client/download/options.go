package download

import (
	"errors"
	"hash"
	"io/fs"
)

// Option defines optional settings for writing a download to disk.
type Option func(*options) error

type options struct {
	checksum     *checksumVerifier
	progress     bool
	progressFn   func(written, total int64)
	skipExisting bool
	createDirs   bool
	mode         fs.FileMode
}

// WithChecksum enables checksum validation of the downloaded file.
// h is a hash.Hash instance (e.g. sha256.New()), and expected is the
// hex-encoded expected checksum string.
func WithChecksum(h hash.Hash, expected string) Option {
	return func(opts *options) error {
		if h == nil {
			return errors.New("hash must not be nil")
		}

		if expected == "" {
			return errors.New("expected checksum must not be empty")
		}

		opts.checksum = &checksumVerifier{hash: h, expected: expected}
		return nil
	}
}

// WithProgress enables periodic progress logging via the logger supplied
// to [ToFile].
func WithProgress() Option {
	return func(opts *options) error {
		opts.progress = true
		return nil
	}
}

// WithProgressFunc calls fn after every write with the bytes written so far
// and the expected total, -1 when unknown.
func WithProgressFunc(fn func(written, total int64)) Option {
	return func(opts *options) error {
		if fn == nil {
			return errors.New("progress func must not be nil")
		}
		opts.progressFn = fn
		return nil
	}
}

// WithSkipExisting returns nil immediately when the destination file
// already exists, avoiding a redundant download.
func WithSkipExisting() Option {
	return func(opts *options) error {
		opts.skipExisting = true
		return nil
	}
}

// WithCreateDirs creates missing parent directories of the destination.
func WithCreateDirs() Option {
	return func(opts *options) error {
		opts.createDirs = true
		return nil
	}
}

// WithFileMode sets the permissions of the finished file.
func WithFileMode(mode fs.FileMode) Option {
	return func(opts *options) error {
		if mode == 0 {
			return errors.New("file mode must not be zero")
		}
		opts.mode = mode
		return nil
	}
}
