// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sink writes finished markdown to its destination: the local
// filesystem, or a MinIO/S3 bucket when the output path is an s3:// URL.
package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Scheme prefixes object-store output paths.
const Scheme = "s3://"

// Sink stores the markdown for one output path.
type Sink interface {
	Write(ctx context.Context, path string, content []byte) error
}

// IsRemote reports whether path names an object-store location.
func IsRemote(path string) bool {
	return strings.HasPrefix(path, Scheme)
}

// ParseURL splits s3://bucket/key into bucket and key.
func ParseURL(u string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(u, Scheme)
	if !ok {
		return "", "", fmt.Errorf("%q is not an %s URL", u, Scheme)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("%q has no bucket", u)
	}
	return bucket, strings.TrimPrefix(key, "/"), nil
}

// Local writes files to disk, creating parent directories as needed.
type Local struct{}

// Write implements Sink.
func (Local) Write(_ context.Context, path string, content []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Router sends s3:// paths to Remote and everything else to Local.
type Router struct {
	Local  Sink
	Remote Sink
}

// Write implements Sink.
func (r Router) Write(ctx context.Context, path string, content []byte) error {
	if IsRemote(path) {
		if r.Remote == nil {
			return fmt.Errorf("%s: object storage is not configured", path)
		}
		return r.Remote.Write(ctx, path, content)
	}
	local := r.Local
	if local == nil {
		local = Local{}
	}
	return local.Write(ctx, path, content)
}
