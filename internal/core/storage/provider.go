package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

var (
	// ErrInvalidKey is returned for empty keys or keys escaping the store root
	ErrInvalidKey = errors.New("invalid object key")
	// ErrObjectExists is returned when Overwrite is false and the key is taken
	ErrObjectExists = errors.New("object already exists")
)

// Object describes a stored artifact
type Object struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// PutOptions controls where and how an artifact is written
type PutOptions struct {
	Folder      string
	Name        string
	ContentType string
	Overwrite   bool
}

// Provider is a blob store for generated exports and archived dataset files
type Provider interface {
	Put(ctx context.Context, r io.Reader, opts PutOptions) (*Object, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
	Name() string
}

// objectKey joins folder and name into a slash-separated key
func objectKey(opts PutOptions) (string, error) {
	name := strings.ReplaceAll(opts.Name, "\\", "/")
	if name == "" || strings.Contains(name, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, opts.Name)
	}
	return cleanKey(strings.ReplaceAll(opts.Folder, "\\", "/") + "/" + name)
}

func cleanKey(key string) (string, error) {
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	key = strings.TrimPrefix(path.Clean("/"+key), "/")
	if key == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	return key, nil
}

var contentTypes = map[string]string{
	".csv":  "text/csv",
	".json": "application/json",
	".pdf":  "application/pdf",
	".png":  "image/png",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// ContentTypeFor maps a file extension to its MIME type
func ContentTypeFor(name string) string {
	if ct, ok := contentTypes[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}
