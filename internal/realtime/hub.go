// Package realtime fans notifications out to live client connections.
// Transports (SSE, WebSocket) register a Client per connection and drain its channel.
package realtime

import (
	"context"
	"errors"
	"sync"

	"prepnotify/internal/model"
)

var (
	ErrHubBusy   = errors.New("realtime hub queue full")
	ErrHubClosed = errors.New("realtime hub closed")
)

type Client struct {
	UserID int64
	Ch     chan model.Notification
}

type envelope struct {
	userID       int64
	all          bool
	notification model.Notification
}

type Hub struct {
	register   chan *Client
	unregister chan *Client
	outbound   chan envelope
	done       chan struct{}
	closeOnce  sync.Once
	clients    map[int64]map[*Client]struct{}
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		outbound:   make(chan envelope, 256),
		done:       make(chan struct{}),
		clients:    make(map[int64]map[*Client]struct{}),
	}
}

// Register adds client. After the hub has stopped the client's channel is closed
// straight away.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Ch)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Send queues a notification for every connection of userID. It never blocks.
func (h *Hub) Send(userID int64, notification model.Notification) error {
	return h.enqueue(envelope{userID: userID, notification: notification})
}

// Broadcast queues a notification for every connection. It never blocks.
func (h *Hub) Broadcast(notification model.Notification) error {
	return h.enqueue(envelope{all: true, notification: notification})
}

func (h *Hub) enqueue(e envelope) error {
	select {
	case <-h.done:
		return ErrHubClosed
	default:
	}
	select {
	case h.outbound <- e:
		return nil
	default:
		return ErrHubBusy
	}
}

// Connected reports whether userID has at least one live connection.
func (h *Hub) Connected(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// Run owns client registration and delivery until ctx is done. On exit every
// client channel is closed so transports can end their streams.
func (h *Hub) Run(ctx context.Context) {
	defer h.closeOnce.Do(func() {
		close(h.done)
		h.closeClients()
	})
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case e := <-h.outbound:
			if e.all {
				h.deliverAll(e.notification)
			} else {
				h.deliverTo(e.userID, e.notification)
			}
		}
	}
}

func (h *Hub) closeClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, conns := range h.clients {
		for client := range conns {
			close(client.Ch)
		}
		delete(h.clients, userID)
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[client.UserID] == nil {
		h.clients[client.UserID] = make(map[*Client]struct{})
	}
	h.clients[client.UserID][client] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.clients[client.UserID]
	if conns == nil {
		return
	}
	delete(conns, client)
	if len(conns) == 0 {
		delete(h.clients, client.UserID)
	}
}

func (h *Hub) deliverTo(userID int64, notification model.Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[userID] {
		offer(client, notification)
	}
}

func (h *Hub) deliverAll(notification model.Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conns := range h.clients {
		for client := range conns {
			offer(client, notification)
		}
	}
}

func offer(client *Client, notification model.Notification) {
	select {
	case client.Ch <- notification:
	default:
		// Drop if the client is too slow.
	}
}
