// internal/storage/storage.go

// Package storage is the object-storage boundary: named binary uploads
// that resolve to public URLs. Keys are never overwritten.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/campus-market/internal/apperr"
	"github.com/javajoker/campus-market/internal/imaging"
)

// Store writes data under key and returns its public URL. Put fails with
// a Conflict error when key already exists.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

type UploadResult struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

const (
	ListingFolder = "listings"
	maxKeyRetries = 3
)

// Uploader turns raw listing photos into stored objects.
type Uploader struct {
	store   Store
	folder  string
	maxSize int64
	now     func() time.Time
	suffix  func() string
}

func NewUploader(store Store, maxSize int64) *Uploader {
	return &Uploader{
		store:   store,
		folder:  ListingFolder,
		maxSize: maxSize,
		now:     time.Now,
		suffix:  func() string { return uuid.New().String()[:8] },
	}
}

// UploadPhoto validates and re-encodes a photo and stores it under a fresh
// key. originalName only contributes to logging.
func (u *Uploader) UploadPhoto(ctx context.Context, originalName string, data []byte) (*UploadResult, error) {
	if u.maxSize > 0 && int64(len(data)) > u.maxSize {
		return nil, apperr.Validation(
			fmt.Sprintf("file size %d bytes exceeds maximum allowed size %d bytes", len(data), u.maxSize),
			map[string]int64{"max_size": u.maxSize},
		)
	}

	photo, err := imaging.Prepare(data)
	if err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		key := u.generateKey(imaging.OutputExt)
		url, err := u.store.Put(ctx, key, imaging.OutputMIME, photo.Data)
		if err == nil {
			logrus.WithFields(logrus.Fields{
				"key":      key,
				"original": originalName,
				"size":     len(photo.Data),
			}).Info("Photo uploaded")
			return &UploadResult{
				URL:      url,
				Key:      key,
				Size:     int64(len(photo.Data)),
				MimeType: imaging.OutputMIME,
				Width:    photo.Width,
				Height:   photo.Height,
			}, nil
		}
		if !apperr.Is(err, apperr.KindConflict) || attempt+1 >= maxKeyRetries {
			return nil, err
		}
		logrus.WithField("key", key).Warn("Upload key already taken, retrying")
	}
}

// generateKey returns <folder>/<yyyymmddhhmmss>_<random8><ext>.
func (u *Uploader) generateKey(ext string) string {
	name := fmt.Sprintf("%s_%s%s", u.now().UTC().Format("20060102150405"), u.suffix(), strings.ToLower(ext))
	if u.folder == "" {
		return name
	}
	return path.Join(u.folder, name)
}
