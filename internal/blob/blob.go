// Package blob stores uploaded report and media files.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"squad-backend/internal/config"
	"squad-backend/internal/ids"
)

type Driver string

const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
)

var (
	ErrNotFound = errors.New("blob not found")
	ErrExists   = errors.New("blob already exists")
)

type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Info describes a stored object. URL is where clients fetch it from.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size"`
	ContentType  string            `json:"contentType,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"lastModified"`
	URL          string            `json:"url"`
}

type Store interface {
	Driver() Driver
	// Put fails with ErrExists when key is taken.
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	// Delete reports whether the key existed.
	Delete(ctx context.Context, key string) (bool, error)
	URL(key string) string
}

// Open returns the store selected by cfg.BlobDriver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch Driver(cfg.BlobDriver) {
	case DriverFilesystem, "":
		return NewFilesystem(cfg.BlobDir, cfg.BlobPublicURL)
	case DriverS3:
		return NewS3(ctx, S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
			PublicURL: cfg.BlobPublicURL,
		})
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.BlobDriver)
	}
}

// Key builds a unique object key under prefix that keeps the uploaded
// file's base name.
func Key(prefix, fileName string) string {
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
	for strings.Contains(name, "..") {
		name = strings.ReplaceAll(name, "..", ".")
	}
	if strings.Trim(name, "._") == "" {
		name = "file"
	}
	return path.Join(prefix, ids.New("blob")+"-"+name)
}

// KeyFromURL recovers the key of an object served under base. It returns
// false for URLs the store did not produce.
func KeyFromURL(base, url string) (string, bool) {
	base = strings.TrimRight(base, "/") + "/"
	key, ok := strings.CutPrefix(url, base)
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
