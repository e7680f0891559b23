package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalProvider writes artifacts under a directory served at baseURL
type LocalProvider struct {
	basePath string
	baseURL  string
}

// NewLocalProvider creates a new local artifact store
func NewLocalProvider(basePath, baseURL string) (*LocalProvider, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalProvider{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

// Put writes through a temp file so readers never see partial artifacts
func (p *LocalProvider) Put(ctx context.Context, r io.Reader, opts PutOptions) (*Object, error) {
	key, err := objectKey(opts)
	if err != nil {
		return nil, err
	}
	target := filepath.Join(p.basePath, filepath.FromSlash(key))
	if !opts.Overwrite {
		if _, err := os.Stat(target); err == nil {
			return nil, fmt.Errorf("%w: %s", ErrObjectExists, key)
		}
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	size, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = ContentTypeFor(key)
	}
	return &Object{Key: key, URL: p.URL(key), Size: size, ContentType: contentType}, nil
}

// Delete removes an artifact; missing files are not an error
func (p *LocalProvider) Delete(ctx context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(p.basePath, filepath.FromSlash(key))); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// URL gets the public URL for a key
func (p *LocalProvider) URL(key string) string {
	return p.baseURL + "/" + key
}

// Name returns the provider name
func (p *LocalProvider) Name() string {
	return "local"
}
