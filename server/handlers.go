package server

import (
	"encoding/json"
	"net/http"

	"ScreenSync/config"
	"ScreenSync/core/catalog"
	"ScreenSync/core/engine"
	"ScreenSync/core/render"
	"ScreenSync/logger"
	"ScreenSync/repository"
	"ScreenSync/storage"
)

// APIHandler 处理所有API请求
type APIHandler struct {
	engine     *engine.Engine
	hub        *render.Hub
	blobs      *storage.BlobStore
	uploadRepo repository.UploadRepository
	catalog    *catalog.Client
	cfg        *config.Config
}

// NewAPIHandler 创建新的API处理器
func NewAPIHandler(
	eng *engine.Engine,
	hub *render.Hub,
	blobs *storage.BlobStore,
	uploadRepo repository.UploadRepository,
	catalogClient *catalog.Client,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		engine:     eng,
		hub:        hub,
		blobs:      blobs,
		uploadRepo: uploadRepo,
		catalog:    catalogClient,
		cfg:        cfg,
	}
}

// respondJSON 写出JSON响应
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", logger.ErrorField(err))
	}
}

// respondError 写出错误响应
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// StatusHandler 返回节点运行状态
func (h *APIHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	snapshot := h.engine.Snapshot()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"screenId":     h.cfg.ScreenID,
		"deviceId":     h.cfg.DeviceID,
		"state":        h.engine.State().String(),
		"activeItemId": h.engine.ActiveItemID(),
		"lastUpdate":   snapshot.LastUpdate,
		"playlistSize": len(snapshot.Playlist),
		"scheduleSize": len(snapshot.Schedules),
		"screens":      h.hub.ClientCount(),
	})
}
