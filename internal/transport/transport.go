// Package transport is the thin adapter over the external rclone binary
// that moves bytes to and from named remotes. Each attempt of an exported
// operation is one subprocess invocation; Rclone retries failed attempts
// itself through its Pacer, so only the last error reaches callers.
package transport

import (
	"context"
)

// About reports a remote's capacity, as returned by `rclone about`.
type About struct {
	Used  int64
	Free  int64
	Total int64
}

// Transport is the narrow operation set the Pool and ManifestStore are
// written against. A real implementation shells out to rclone; tests use an
// in-memory fake satisfying the same interface.
type Transport interface {
	Put(ctx context.Context, localPath, remote, path string) error
	PutBytes(ctx context.Context, data []byte, remote, path string) error
	Get(ctx context.Context, remote, path, localPath string) error
	GetBytes(ctx context.Context, remote, path string) ([]byte, error)
	GetRange(ctx context.Context, remote, path string, offset, length int64) ([]byte, error)
	Delete(ctx context.Context, remote, path string) error
	ListFiles(ctx context.Context, remote, prefix string) ([]string, error)
	ListDirs(ctx context.Context, remote, prefix string) ([]string, error)
	About(ctx context.Context, remote string) (About, error)
	Exists(ctx context.Context, remote, path string) (bool, error)
}
