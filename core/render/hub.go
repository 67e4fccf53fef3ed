// Package render 是引擎与外部渲染器（浏览器屏幕）之间的 WebSocket 桥。
// 引擎把渲染指令交给 Hub，Hub 推送给所有已连接的屏幕；
// 屏幕上报的生命周期事件（播放结束）经 Hub 回流给引擎。
package render

import (
	"encoding/json"
	"sync"
	"time"

	"ScreenSync/logger"
	"ScreenSync/model"

	"github.com/gorilla/websocket"
)

// MessageType 消息类型
type MessageType string

const (
	MsgTypePresent  MessageType = "present"  // 引擎 -> 屏幕：播放指令
	MsgTypeFinished MessageType = "finished" // 屏幕 -> 引擎：当前内容播放结束
	MsgTypePing     MessageType = "ping"     // 心跳
	MsgTypePong     MessageType = "pong"     // 心跳响应
)

// WSMessage WebSocket 消息结构
type WSMessage struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// Client 一个已连接的屏幕
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte
}

// Hub 屏幕连接管理中心。
// 同时实现 engine.Sink：Present 把指令广播给所有屏幕，
// 并缓存最近一条指令，新屏幕接入时立即补发。
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	mu   sync.RWMutex
	last []byte // 最近一条 present 消息，新连接补发用

	// onFinished 屏幕上报播放结束时调用（由外壳接线到播放列表前进）
	onFinished func()

	done chan struct{}
}

// NewHub 创建渲染桥 Hub
func NewHub(onFinished func()) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		onFinished: onFinished,
		done:       make(chan struct{}),
	}
}

// Run 启动 Hub 主循环
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			last := h.last
			h.mu.Unlock()

			// 补发最近一条指令，屏幕接入即有内容
			if last != nil {
				select {
				case client.Send <- last:
				default:
				}
			}
			logger.Info("screen connected", logger.Int("screens", h.ClientCount()))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
			logger.Info("screen disconnected", logger.Int("screens", h.ClientCount()))

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.Send <- msg:
				default:
					// 发送缓冲区满：就地摘除。
					// 不能回投 unregister 通道——那个通道只有本循环在消费，
					// 投递会让循环阻塞在自己身上
					delete(h.clients, client)
					close(client.Send)
				}
			}
			h.mu.Unlock()

		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				close(client.Send)
			}
			h.clients = make(map[*Client]bool)
			h.mu.Unlock()
			return
		}
	}
}

// Stop 停止 Hub
func (h *Hub) Stop() {
	close(h.done)
}

// ClientCount 当前连接的屏幕数
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Present 实现 engine.Sink：向所有屏幕下发渲染指令
func (h *Hub) Present(inst model.RenderInstruction) {
	data, err := json.Marshal(inst)
	if err != nil {
		logger.Error("failed to marshal instruction", logger.ErrorField(err))
		return
	}

	msg, err := json.Marshal(&WSMessage{
		Type:      MsgTypePresent,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		logger.Error("failed to marshal present message", logger.ErrorField(err))
		return
	}

	h.mu.Lock()
	h.last = msg
	h.mu.Unlock()

	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

// Register 注册屏幕连接
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister 注销屏幕连接
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// ========== Client 方法 ==========

// ReadPump 读取屏幕上报的消息
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(4096)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read error", logger.ErrorField(err))
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			logger.Warn("invalid screen message", logger.ErrorField(err))
			continue
		}

		switch msg.Type {
		case MsgTypePing:
			pong := &WSMessage{Type: MsgTypePong, Timestamp: time.Now().UnixMilli()}
			if data, err := json.Marshal(pong); err == nil {
				select {
				case c.Send <- data:
				default:
				}
			}

		case MsgTypeFinished:
			// 播完前进由外壳决定，Hub 只负责转发事件
			if c.Hub.onFinished != nil {
				c.Hub.onFinished()
			}
		}
	}
}

// WritePump 向屏幕写消息
func (c *Client) WritePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Hub 关闭了通道
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
