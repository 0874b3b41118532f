package api

import (
	"net/http"
	"sync"

	"lifequest_miniapp/internal/service"
	"lifequest_miniapp/pkg/auth"
	"lifequest_miniapp/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type eventClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *eventClient) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// EventHub pushes live progress events (quest completions, level-ups) to
// connected mini-app clients. It implements service.EventPublisher.
type EventHub struct {
	mu      sync.RWMutex
	clients map[int64]map[*eventClient]struct{}
}

func NewEventHub() *EventHub {
	return &EventHub{
		clients: make(map[int64]map[*eventClient]struct{}),
	}
}

func (h *EventHub) register(telegramID int64, client *eventClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[telegramID] == nil {
		h.clients[telegramID] = make(map[*eventClient]struct{})
	}
	h.clients[telegramID][client] = struct{}{}
}

func (h *EventHub) unregister(telegramID int64, client *eventClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients[telegramID], client)
	if len(h.clients[telegramID]) == 0 {
		delete(h.clients, telegramID)
	}
}

// Publish is best-effort: a dead connection is dropped, never retried.
func (h *EventHub) Publish(telegramID int64, event service.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Logger().Error("failed to marshal event", zap.Error(err))
		return
	}

	h.mu.RLock()
	clients := make([]*eventClient, 0, len(h.clients[telegramID]))
	for client := range h.clients[telegramID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if err := client.write(payload); err != nil {
			logger.Logger().Info("dropping dead event client",
				zap.Int64("telegram_id", telegramID),
				zap.Error(err))
			h.unregister(telegramID, client)
			client.conn.Close()
		}
	}
}

type eventRoutes struct {
	hub *EventHub
	a   *auth.TelegramAuth
}

func NewEventRoutes(handler *gin.RouterGroup, hub *EventHub, a *auth.TelegramAuth) {
	r := &eventRoutes{hub: hub, a: a}
	h := handler.Group("/events")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.GET("/:telegram_id", r.Subscribe)
	}
}

func (r *eventRoutes) Subscribe(c *gin.Context) {
	log := logger.Logger()

	id, ok := parseTelegramID(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("failed to upgrade connection", zap.Error(err))
		return
	}

	client := &eventClient{conn: conn}
	r.hub.register(id, client)
	defer func() {
		r.hub.unregister(id, client)
		conn.Close()
	}()

	// Reads are only used to detect the client going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
