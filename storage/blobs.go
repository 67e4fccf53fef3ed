package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
)

// ErrBlobNotFound 表示请求的 blob 不在本设备的存储里。
// 这是终态：字节就是不在这台设备上，重试无意义。
var ErrBlobNotFound = errors.New("blob not found on this device")

// blob 预签名URL有效期
const blobURLExpiry = 6 * time.Hour

// ProgressFunc 上传进度回调，written 为已写字节数，total 为总字节数（未知时为 -1）
type ProgressFunc func(written, total int64)

// BlobStore 本机大对象子存储，面向数GB级媒体文件。
// 与 bundle 不同，blob 字节不做跨设备复制：
// 在别的设备上传的内容在本机解析时报 ErrBlobNotFound。
type BlobStore struct {
	client *minio.Client
	bucket string
}

// NewBlobStore 创建 blob 存储
func NewBlobStore(client *minio.Client, bucket string) *BlobStore {
	return &BlobStore{client: client, bucket: bucket}
}

// progressReader 包装上传流以回报进度
type progressReader struct {
	r        io.Reader
	total    int64
	written  int64
	callback ProgressFunc
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.written += int64(n)
		if p.callback != nil {
			p.callback(p.written, p.total)
		}
	}
	return n, err
}

// PutBlob 上传一个 blob。size 未知时传 -1（走流式上传）。
func (s *BlobStore) PutBlob(ctx context.Context, key string, r io.Reader, size int64, contentType string, onProgress ProgressFunc) error {
	if s.client == nil {
		return fmt.Errorf("MinIO client not initialized")
	}

	reader := &progressReader{r: r, total: size, callback: onProgress}

	_, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to put blob %q: %w", key, err)
	}
	return nil
}

// StatBlob 检查 blob 是否在本设备上。不存在返回 ErrBlobNotFound。
func (s *BlobStore) StatBlob(ctx context.Context, key string) (int64, error) {
	if s.client == nil {
		return 0, fmt.Errorf("MinIO client not initialized")
	}

	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return 0, ErrBlobNotFound
		}
		return 0, fmt.Errorf("failed to stat blob %q: %w", key, err)
	}
	return info.Size, nil
}

// GetBlobURL 返回 blob 的可播放URL（预签名GET）。
// blob 不在本设备时返回 ErrBlobNotFound。
func (s *BlobStore) GetBlobURL(ctx context.Context, key string) (string, error) {
	if _, err := s.StatBlob(ctx, key); err != nil {
		return "", err
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, blobURLExpiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign blob %q: %w", key, err)
	}
	return u.String(), nil
}
