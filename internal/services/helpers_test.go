package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/mamelilea/agrowtify-web/internal/database"
	"github.com/mamelilea/agrowtify-web/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "agrowtify.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

// fakeMediaHost records uploads and destroys; failOn makes the n-th upload (1-based) fail.
type fakeMediaHost struct {
	mu        sync.Mutex
	failOn    int
	uploads   int
	uploaded  []UploadOptions
	destroyed []string
	live      map[string]bool
}

func newFakeMediaHost() *fakeMediaHost {
	return &fakeMediaHost{live: make(map[string]bool)}
}

func (f *fakeMediaHost) Upload(ctx context.Context, file io.Reader, opts UploadOptions) (*UploadedAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	if f.failOn > 0 && f.uploads == f.failOn {
		return nil, errors.New("media host unavailable")
	}
	if _, err := io.Copy(io.Discard, file); err != nil {
		return nil, err
	}
	key := fmt.Sprintf("%s/asset-%d", opts.Folder, f.uploads)
	f.uploaded = append(f.uploaded, opts)
	f.live[key] = true
	return &UploadedAsset{URL: "https://cdn.example.test/" + key, FileKey: key}, nil
}

func (f *fakeMediaHost) Destroy(ctx context.Context, fileKey string, kind models.MediaType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed = append(f.destroyed, fileKey)
	delete(f.live, fileKey)
	return nil
}

func (f *fakeMediaHost) liveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.live)
}

func memUpload(name, contentType string, size int64) MediaUpload {
	return MediaUpload{
		Filename:    name,
		ContentType: contentType,
		Size:        size,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader([]byte("data"))), nil
		},
	}
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
