// Package hub fans overlay updates and alerts out to browser viewers.
package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"hazardcam/internal/dto"
	"hazardcam/internal/logger"
	"hazardcam/internal/service/hazard"
	"hazardcam/internal/service/overlay"
)

const writeWait = 2 * time.Second

type HubService struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mutex      sync.RWMutex
	overlay    *overlay.State
	logger     *logger.Logger
	done       chan struct{}
}

// NewHubService creates a hub. overlay may be nil when only alerts are relayed.
func NewHubService(overlay *overlay.State, logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		overlay:    overlay,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is done, then closes
// every viewer connection. Run must be called at most once.
func (h *HubService) Run(ctx context.Context) error {
	defer close(h.done)

	var updates <-chan struct{}
	if h.overlay != nil {
		ch, cancel := h.overlay.Subscribe()
		defer cancel()
		updates = ch
	}

	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return nil

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer connected. Total: %d", count)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer disconnected. Total: %d", count)

		case <-updates:
			current := h.overlay.Current()
			h.send(dto.ViewEvent{Type: "overlay", Overlay: &current})

		case message := <-h.broadcast:
			h.write(message)
		}
	}
}

func (h *HubService) send(event dto.ViewEvent) {
	message, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Error encoding view event: %v", err)
		return
	}
	h.write(message)
}

func (h *HubService) write(message []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		_ = client.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
			h.logger.Error("Error sending message: %v", err)
			delete(h.clients, client)
			client.Close()
		}
	}
}

// Register adds a viewer. It returns false when ctx is done or the hub has stopped.
func (h *HubService) Register(ctx context.Context, client *websocket.Conn) bool {
	select {
	case h.register <- client:
		return true
	case <-ctx.Done():
	case <-h.done:
	}
	return false
}

func (h *HubService) Unregister(ctx context.Context, client *websocket.Conn) {
	select {
	case h.unregister <- client:
	case <-ctx.Done():
		client.Close()
	case <-h.done:
		client.Close()
	}
}

// Notify implements hazard.Notifier. When the hub is busy the event is dropped.
func (h *HubService) Notify(alert hazard.Alert) {
	message, err := json.Marshal(dto.ViewEvent{Type: "alert", Label: alert.Label})
	if err != nil {
		return
	}
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warning("Viewer hub busy, dropping alert event for %s", alert.Label)
	}
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
