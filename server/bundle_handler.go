package server

import (
	"encoding/json"
	"net/http"
	"time"

	"ScreenSync/core/engine"
	"ScreenSync/logger"
	"ScreenSync/model"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// 创作端的 bundle 变更接口。
// 每个修改都是整体替换语义：mutate 在权威 bundle 的副本上执行，
// 引擎负责时间戳递增、本地持久化和向远端的一次性复制。

// GetBundleHandler 返回当前权威 bundle
func (h *APIHandler) GetBundleHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.engine.Snapshot())
}

// PutBundleHandler 整体替换 bundle（config + playlist + schedules）。
// 客户端送来的 lastUpdate 被忽略：时间戳只由引擎分配。
func (h *APIHandler) PutBundleHandler(w http.ResponseWriter, r *http.Request) {
	var incoming model.Bundle
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		respondError(w, http.StatusBadRequest, "invalid bundle payload")
		return
	}

	updated := h.engine.Apply(r.Context(), func(b *model.Bundle) {
		b.Config = incoming.Config
		b.Playlist = incoming.Playlist
		b.Schedules = incoming.Schedules
	})

	h.notifySiblings()
	respondJSON(w, http.StatusOK, updated)
}

// AddItemHandler 向播放列表追加一个内容项
func (h *APIHandler) AddItemHandler(w http.ResponseWriter, r *http.Request) {
	var item model.ContentItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		respondError(w, http.StatusBadRequest, "invalid content item")
		return
	}
	if item.Kind == "" {
		respondError(w, http.StatusBadRequest, "missing content kind")
		return
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.AddedAt == 0 {
		item.AddedAt = time.Now().UnixMilli()
	}

	updated := h.engine.Apply(r.Context(), func(b *model.Bundle) {
		b.Playlist = append(b.Playlist, item)
	})

	h.notifySiblings()
	respondJSON(w, http.StatusCreated, updated)
}

// RemoveItemHandler 从播放列表删除内容项。
// 引用该项的排期规则保留（允许悬空引用，解析时返回"无内容"）。
func (h *APIHandler) RemoveItemHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	updated := h.engine.Apply(r.Context(), func(b *model.Bundle) {
		out := b.Playlist[:0]
		for _, item := range b.Playlist {
			if item.ID != id {
				out = append(out, item)
			}
		}
		b.Playlist = out
		if b.Config.CurrentItemID == id {
			b.Config.CurrentItemID = ""
		}
	})

	h.notifySiblings()
	respondJSON(w, http.StatusOK, updated)
}

// PutSchedulesHandler 整体替换排期表（表序即优先级）
func (h *APIHandler) PutSchedulesHandler(w http.ResponseWriter, r *http.Request) {
	var schedules []model.ScheduleRule
	if err := json.NewDecoder(r.Body).Decode(&schedules); err != nil {
		respondError(w, http.StatusBadRequest, "invalid schedules payload")
		return
	}
	for i := range schedules {
		if schedules[i].ID == "" {
			schedules[i].ID = uuid.NewString()
		}
	}

	updated := h.engine.Apply(r.Context(), func(b *model.Bundle) {
		b.Schedules = schedules
	})

	h.notifySiblings()
	respondJSON(w, http.StatusOK, updated)
}

// SetCurrentItemHandler 外部下发的当前项覆盖
func (h *APIHandler) SetCurrentItemHandler(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ItemID string `json:"itemId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	h.engine.SetCurrentItem(r.Context(), payload.ItemID)
	h.notifySiblings()
	respondJSON(w, http.StatusOK, map[string]string{"currentItemId": payload.ItemID})
}

// notifySiblings 触发设备内信号，让同机其他实例立即 reconcile。
// 信号只是 tick 之上的优化，失败只记日志。
func (h *APIHandler) notifySiblings() {
	if err := engine.TouchSignal(h.cfg.SignalFile); err != nil {
		logger.Warn("failed to touch device signal", logger.ErrorField(err))
	}
}
