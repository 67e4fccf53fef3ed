package model

import "time"

// 上传状态
const (
	UploadStatusUploading = "uploading"
	UploadStatusCompleted = "completed"
	UploadStatusFailed    = "failed"
)

// UploadRecord 登记一次本机媒体上传。
// 记录只在上传发生的设备上有意义：blob 字节不跨设备复制。
type UploadRecord struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	BlobKey     string    `json:"blobKey" gorm:"uniqueIndex;size:191"`
	DeviceID    string    `json:"deviceId" gorm:"index;size:64"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	Status      string    `json:"status" gorm:"size:16"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
