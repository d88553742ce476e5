// Package ws обслуживает WebSocket поиск: клиент присылает запросы по мере ввода,
// сервер отвечает актуальным состоянием поиска этого соединения.
package ws

import (
	"sync"

	"github.com/ignatzorin/career-compass/internal/logger"
)

// Hub учитывает открытые соединения, чтобы закрыть их при остановке сервера.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool
}

// NewHub создаёт новый хаб.
func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

// Register добавляет клиента. После CloseAll новые клиенты не принимаются.
func (h *Hub) Register(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[client] = struct{}{}
	return true
}

// Unregister удаляет клиента.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, client)
}

// Count количество открытых соединений.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll закрывает все соединения и перестаёт принимать новые.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	if len(clients) > 0 {
		logger.Component("ws").WithField("clients", len(clients)).Info("закрываем соединения поиска")
	}
	for _, c := range clients {
		c.Close()
	}
}
