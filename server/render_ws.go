package server

import (
	"net/http"

	"ScreenSync/core/render"
	"ScreenSync/logger"

	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RenderSocketHandler 屏幕接入点：升级为 WebSocket 后注册进渲染桥。
// 新屏幕注册时 Hub 会补发最近一条播放指令。
func (h *APIHandler) RenderSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	client := &render.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 16),
	}

	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
