package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/junho-l/pickup-system/middleware"
	"github.com/junho-l/pickup-system/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Происхождение проверяет CORS-слой HTTP; для WS-рукопожатия достаточно токена.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WebSocketHandler struct {
	hub    *realtime.Hub
	logger *slog.Logger
}

func NewWebSocketHandler(hub *realtime.Hub, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, logger: logger}
}

// ServeRoomUpdates godoc
// @Summary Подписка на изменения комнаты
// @Description Апгрейдит соединение до WebSocket и шлёт сигналы об изменениях состава и статуса комнаты.
// @Tags realtime
// @Security BearerAuth
// @Router /ws/rooms/{roomID} [get]
func (h *WebSocketHandler) ServeRoomUpdates(w http.ResponseWriter, r *http.Request) {
	roomID, err := getIDFromURL(r, "roomID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	h.serve(w, r, realtime.RoomChannel(roomID))
}

// ServeNotifications godoc
// @Summary Подписка на уведомления пользователя
// @Tags realtime
// @Security BearerAuth
// @Router /ws/notifications [get]
func (h *WebSocketHandler) ServeNotifications(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	h.serve(w, r, realtime.UserChannel(userID))
}

func (h *WebSocketHandler) serve(w http.ResponseWriter, r *http.Request, channel string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "channel", channel, "error", err)
		return
	}

	client := realtime.NewClient(h.hub, conn, channel)
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
