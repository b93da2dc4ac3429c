package logic

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"studenthub-backend/internal/models"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsSendBuffer = 16
)

// AlertEvent 推送给管理端的消息
type AlertEvent struct {
	Type  string              `json:"type"`
	Alert *models.CrisisAlert `json:"alert,omitempty"`
}

type wsClient struct {
	conn   *websocket.Conn
	send   chan []byte
	userID string
}

// AlertHub 危机告警实时推送
// 客户端集合只由 Run 所在的 goroutine 读写
type AlertHub struct {
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan []byte
	done       chan struct{}
	upgrader   websocket.Upgrader
	logger     *zap.Logger
}

func NewAlertHub(logger *zap.Logger) *AlertHub {
	return &AlertHub{
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Run 阻塞直到 ctx 取消
func (h *AlertHub) Run(ctx context.Context) {
	clients := make(map[*wsClient]struct{})
	defer func() {
		close(h.done)
		for c := range clients {
			close(c.send)
		}
	}()

	connected, _ := json.Marshal(AlertEvent{Type: "connected"})
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			clients[c] = struct{}{}
			c.send <- connected
			h.logger.Info("Alert feed client connected", zap.String("userID", c.userID), zap.Int("clients", len(clients)))
		case c := <-h.unregister:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				close(c.send)
			}
		case msg := <-h.broadcast:
			for c := range clients {
				select {
				case c.send <- msg:
				default:
					// 客户端太慢，直接断开
					delete(clients, c)
					close(c.send)
					h.logger.Warn("Dropped slow alert feed client", zap.String("userID", c.userID))
				}
			}
		}
	}
}

// Broadcast 不阻塞调用方，队列满时丢弃
func (h *AlertHub) Broadcast(alert *models.CrisisAlert) {
	msg, err := json.Marshal(AlertEvent{Type: "alert", Alert: alert})
	if err != nil {
		h.logger.Error("Failed to encode alert event", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("Alert feed queue full, event dropped", zap.String("alertID", alert.ID))
	}
}

// ServeWS 升级为 websocket 连接
func (h *AlertHub) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}
	client := &wsClient{conn: conn, send: make(chan []byte, wsSendBuffer), userID: mustUser(c).ID}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}
	go h.writePump(client)
	h.readPump(client)
}

// readPump 只处理 pong 和关闭
func (h *AlertHub) readPump(c *wsClient) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *AlertHub) writePump(c *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
