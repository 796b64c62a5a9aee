package realtime

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
)

// EventType — вид изменения строки, как его видит подписчик.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// ChangeSignal — сигнал об изменении. Несёт только факт изменения, не данные:
// получатель обязан перечитать актуальное состояние сам, доставка не
// гарантируется после переподключения.
type ChangeSignal struct {
	Table  string    `json:"table"`
	Event  EventType `json:"event"`
	RoomID int       `json:"room_id,omitempty"`
	UserID int       `json:"user_id,omitempty"`
}

// Имена каналов подписки: изменения участников комнаты и уведомления пользователя.
func RoomChannel(roomID int) string {
	return fmt.Sprintf("room:%d", roomID)
}

func UserChannel(userID int) string {
	return fmt.Sprintf("user:%d", userID)
}

type broadcastRequest struct {
	channel string
	message []byte
}

// Hub раздаёт сигналы клиентам, подписанным на каналы.
// Членство в каналах сериализуется через цикл Run.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client

	broadcast chan broadcastRequest
	channels  map[string]map[*Client]bool
	mu        sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		broadcast:  make(chan broadcastRequest, 64),
		channels:   make(map[string]map[*Client]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.channels[client.Channel]; !ok {
				h.channels[client.Channel] = make(map[*Client]bool)
			}
			h.channels[client.Channel][client] = true
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.removeClient(client)

		case req := <-h.broadcast:
			h.deliver(req.channel, req.message)
		}
	}
}

// removeClient идемпотентен: повторная отписка того же клиента — no-op,
// канал отправки закрывается ровно один раз.
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.channels[client.Channel]
	if !ok {
		return
	}
	if _, registered := clients[client]; !registered {
		return
	}

	client.mu.Lock()
	if !client.closed {
		close(client.send)
		client.closed = true
	}
	client.mu.Unlock()

	delete(clients, client)
	if len(clients) == 0 {
		delete(h.channels, client.Channel)
	}
}

func (h *Hub) deliver(channel string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.channels[channel] {
		client.mu.Lock()
		if client.closed {
			client.mu.Unlock()
			continue
		}
		select {
		case client.send <- message:
		default:
			// Медленный клиент: сигнал пропускается, он всё равно
			// перечитает состояние при следующем сигнале.
		}
		client.mu.Unlock()
	}
}

// Publish сериализует сигнал и рассылает его подписчикам канала.
func (h *Hub) Publish(channel string, signal ChangeSignal) {
	message, err := json.Marshal(signal)
	if err != nil {
		log.Printf("realtime: failed to marshal signal for channel %s: %v", channel, err)
		return
	}
	h.broadcast <- broadcastRequest{channel: channel, message: message}
}

// PublishParticipantChange — изменился состав участников комнаты.
func (h *Hub) PublishParticipantChange(roomID int, event EventType) {
	h.Publish(RoomChannel(roomID), ChangeSignal{
		Table:  "room_participants",
		Event:  event,
		RoomID: roomID,
	})
}

// PublishRoomChange — изменилась сама комната (статус).
func (h *Hub) PublishRoomChange(roomID int, event EventType) {
	h.Publish(RoomChannel(roomID), ChangeSignal{
		Table:  "rooms",
		Event:  event,
		RoomID: roomID,
	})
}

// PublishNotification — у пользователя появилось новое уведомление.
func (h *Hub) PublishNotification(userID int) {
	h.Publish(UserChannel(userID), ChangeSignal{
		Table:  "notifications",
		Event:  EventInsert,
		UserID: userID,
	})
}
