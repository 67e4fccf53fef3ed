package repository

import (
	"context"
	"path/filepath"
	"testing"

	"ScreenSync/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestRepo(t *testing.T) *GormUploadRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "uploads.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.UploadRecord{}))

	return NewGormUploadRepository(db)
}

func TestUploadRepository_CreateAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rec := &model.UploadRecord{
		BlobKey:     "dev-1/abc.mp4",
		DeviceID:    "dev-1",
		Filename:    "promo.mp4",
		ContentType: "video/mp4",
		Size:        1024,
		Status:      model.UploadStatusUploading,
	}
	require.NoError(t, repo.Create(ctx, rec))

	got, err := repo.GetByBlobKey(ctx, "dev-1/abc.mp4")
	require.NoError(t, err)
	assert.Equal(t, "promo.mp4", got.Filename)
	assert.Equal(t, model.UploadStatusUploading, got.Status)
}

func TestUploadRepository_GetMissingReturnsErrNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetByBlobKey(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUploadRepository_UpdateStatus(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.UploadRecord{
		BlobKey: "dev-1/abc.mp4", DeviceID: "dev-1", Status: model.UploadStatusUploading,
	}))

	require.NoError(t, repo.UpdateStatus(ctx, "dev-1/abc.mp4", model.UploadStatusCompleted))

	got, err := repo.GetByBlobKey(ctx, "dev-1/abc.mp4")
	require.NoError(t, err)
	assert.Equal(t, model.UploadStatusCompleted, got.Status)
}

func TestUploadRepository_UpdateStatusMissingKey(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.UpdateStatus(context.Background(), "nope", model.UploadStatusFailed)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUploadRepository_ListByDevice(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, key := range []string{"dev-1/a.mp4", "dev-1/b.mp4", "dev-2/c.mp4"} {
		device := key[:5]
		require.NoError(t, repo.Create(ctx, &model.UploadRecord{
			BlobKey: key, DeviceID: device, Status: model.UploadStatusCompleted,
		}))
	}

	recs, err := repo.ListByDevice(ctx, "dev-1")
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	recs, err = repo.ListByDevice(ctx, "dev-3")
	require.NoError(t, err)
	assert.Empty(t, recs)
}
