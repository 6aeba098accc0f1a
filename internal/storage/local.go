// internal/storage/local.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/javajoker/campus-market/internal/apperr"
)

// LocalStore writes objects below dir and serves them from baseURL, which
// is where the router mounts dir.
type LocalStore struct {
	dir     string
	baseURL string
}

const LocalURLPrefix = "/uploads"

func NewLocalStore(dir, publicBaseURL string) *LocalStore {
	return &LocalStore{dir: dir, baseURL: publicBaseURL + LocalURLPrefix}
}

func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperr.Network("the upload was interrupted, try again", err)
	}

	info, err := os.Stat(s.dir)
	if err != nil || !info.IsDir() {
		return "", apperr.Upload(fmt.Sprintf(
			"upload directory %q does not exist: create it (or set UPLOAD_DIR) before uploading", s.dir), err)
	}

	target := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", apperr.Upload("failed to prepare upload folder", err)
	}

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return "", apperr.Conflict(fmt.Sprintf("object %s already exists", key))
	}
	if err != nil {
		return "", apperr.Upload("failed to store upload", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(target)
		return "", apperr.Upload("failed to store upload", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(target)
		return "", apperr.Upload("failed to store upload", err)
	}

	return s.baseURL + "/" + key, nil
}
