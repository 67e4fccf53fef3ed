package repository

import (
	"context"
	"errors"

	"ScreenSync/model"

	"gorm.io/gorm"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// UploadRepository 定义上传登记表的数据库操作接口
type UploadRepository interface {
	// Create 登记一次新上传
	Create(ctx context.Context, rec *model.UploadRecord) error

	// UpdateStatus 更新上传状态
	UpdateStatus(ctx context.Context, blobKey, status string) error

	// GetByBlobKey 根据 blob 键查询登记记录
	GetByBlobKey(ctx context.Context, blobKey string) (*model.UploadRecord, error)

	// ListByDevice 列出某设备的全部上传
	ListByDevice(ctx context.Context, deviceID string) ([]*model.UploadRecord, error)
}

// GormUploadRepository GORM实现的上传仓库
type GormUploadRepository struct {
	db *gorm.DB
}

// NewGormUploadRepository 创建新的上传仓库实例
func NewGormUploadRepository(db *gorm.DB) *GormUploadRepository {
	return &GormUploadRepository{db: db}
}

// Create 登记一次新上传
func (r *GormUploadRepository) Create(ctx context.Context, rec *model.UploadRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

// UpdateStatus 更新上传状态
func (r *GormUploadRepository) UpdateStatus(ctx context.Context, blobKey, status string) error {
	result := r.db.WithContext(ctx).
		Model(&model.UploadRecord{}).
		Where("blob_key = ?", blobKey).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByBlobKey 根据 blob 键查询登记记录
func (r *GormUploadRepository) GetByBlobKey(ctx context.Context, blobKey string) (*model.UploadRecord, error) {
	var rec model.UploadRecord
	err := r.db.WithContext(ctx).Where("blob_key = ?", blobKey).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// ListByDevice 列出某设备的全部上传，按时间倒序
func (r *GormUploadRepository) ListByDevice(ctx context.Context, deviceID string) ([]*model.UploadRecord, error) {
	var recs []*model.UploadRecord
	err := r.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("created_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}
