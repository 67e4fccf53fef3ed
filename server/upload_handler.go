package server

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"ScreenSync/logger"
	"ScreenSync/model"
	"ScreenSync/repository"
	"ScreenSync/storage"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// 上传体积上限：本子存储面向数GB级媒体文件
const maxUploadSize = 8 << 30 // 8 GiB

// UploadBlobHandler 接收 multipart 媒体上传，写入本机 blob 存储并登记。
// 上传只对本设备有效：blob 字节不跨设备复制。
func (h *APIHandler) UploadBlobHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	// blob 键由设备ID + 随机ID组成，扩展名保留便于排查
	ext := strings.ToLower(filepath.Ext(header.Filename))
	blobKey := fmt.Sprintf("%s/%s%s", h.cfg.DeviceID, uuid.NewString(), ext)

	rec := &model.UploadRecord{
		BlobKey:     blobKey,
		DeviceID:    h.cfg.DeviceID,
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Status:      model.UploadStatusUploading,
	}
	if err := h.uploadRepo.Create(r.Context(), rec); err != nil {
		logger.Error("failed to register upload", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to register upload")
		return
	}

	start := time.Now()
	var lastLogged int64
	onProgress := func(written, total int64) {
		// 每 64MB 记录一次进度，避免日志刷屏
		if written-lastLogged >= 64<<20 {
			lastLogged = written
			logger.Info("upload progress",
				logger.String("blobKey", blobKey),
				logger.Int64("written", written),
				logger.Int64("total", total))
		}
	}

	if err := h.blobs.PutBlob(r.Context(), blobKey, file, header.Size, contentType, onProgress); err != nil {
		logger.Error("blob upload failed", logger.ErrorField(err), logger.String("blobKey", blobKey))
		if err := h.uploadRepo.UpdateStatus(r.Context(), blobKey, model.UploadStatusFailed); err != nil {
			logger.Warn("failed to mark upload failed", logger.ErrorField(err))
		}
		respondError(w, http.StatusInternalServerError, "upload failed")
		return
	}

	if err := h.uploadRepo.UpdateStatus(r.Context(), blobKey, model.UploadStatusCompleted); err != nil {
		logger.Warn("failed to mark upload completed", logger.ErrorField(err))
	}

	logger.Info("blob uploaded",
		logger.String("blobKey", blobKey),
		logger.Int64("size", header.Size),
		logger.Duration("elapsed", time.Since(start)))

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"blobKey":  blobKey,
		"filename": header.Filename,
		"size":     header.Size,
	})
}

// GetBlobURLHandler 返回 blob 的可播放URL。
// blob 不在本设备时返回 404 的 blob_not_found —— 终态，客户端不应重试。
func (h *APIHandler) GetBlobURLHandler(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if key == "" {
		respondError(w, http.StatusBadRequest, "missing blob key")
		return
	}

	url, err := h.blobs.GetBlobURL(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			respondJSON(w, http.StatusNotFound, map[string]string{
				"error": "blob_not_found",
				"hint":  "this upload was made on a different device",
			})
			return
		}
		logger.Error("failed to resolve blob url", logger.ErrorField(err), logger.String("blobKey", key))
		respondError(w, http.StatusInternalServerError, "failed to resolve blob url")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}

// ListUploadsHandler 列出本设备的全部上传登记
func (h *APIHandler) ListUploadsHandler(w http.ResponseWriter, r *http.Request) {
	recs, err := h.uploadRepo.ListByDevice(r.Context(), h.cfg.DeviceID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		logger.Error("failed to list uploads", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to list uploads")
		return
	}
	if recs == nil {
		recs = []*model.UploadRecord{}
	}
	respondJSON(w, http.StatusOK, recs)
}
