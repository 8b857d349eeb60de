package ws

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ignatzorin/findperson-backend/internal/goroutine"
	"github.com/ignatzorin/findperson-backend/internal/logger"
	"github.com/ignatzorin/findperson-backend/internal/models"
)

// Hub управляет всеми WebSocket подключениями. Лента общая: событие
// о новой заявке рассылается каждому подключённому клиенту, адресной
// доставки нет.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
}

// NewHub создаёт новый хаб.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 32),
	}
}

// Run запускает главный цикл хаба.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case payload := <-h.broadcast:
			h.send(payload)
		}
	}
}

// Register добавляет клиента.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister удаляет клиента.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// ReportCreated рассылает событие о новой заявке всем клиентам.
// Реализует интерфейс нотификатора сервиса заявок.
func (h *Hub) ReportCreated(report *models.Report) {
	if err := h.Broadcast("report_created", report); err != nil {
		logger.Log.WithField("error", err.Error()).Error("ws: не удалось разослать событие о заявке")
	}
}

// Broadcast отправляет событие всем подключённым клиентам.
// Поле "type" содержит имя события, "data" — полезную нагрузку.
func (h *Hub) Broadcast(event string, data any) error {
	payload := map[string]any{
		"type": event,
		"data": data,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("ws: не удалось сериализовать сообщение: %w", err)
	}

	h.broadcast <- raw
	return nil
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, client)
}

func (h *Hub) send(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			// Медленный клиент переполнил буфер — закрываем его,
			// не задерживая рассылку остальным.
			goroutine.SafeGo(client.Close)
		}
	}
}
