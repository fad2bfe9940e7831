package stream

import (
	"context"
	"sync"

	"MarketPulse/internal/domain/models"
	xlogger "MarketPulse/pkg/logger"
)

// Encoder renders a snapshot into the frame sent to clients.
type Encoder func(*models.Snapshot) ([]byte, error)

// Hub fans snapshot frames out to websocket clients. New clients receive the latest frame.
// Slow clients whose send buffer is full are dropped so Publish never blocks.
type Hub struct {
	encode Encoder
	l      *xlogger.Logger

	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}

	clients map[*client]struct{}
	latest  []byte

	mu    sync.RWMutex
	count int
}

func NewHub(encode Encoder, l *xlogger.Logger) *Hub {
	return &Hub{
		encode:     encode,
		l:          l,
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 8),
		done:       make(chan struct{}),
		clients:    make(map[*client]struct{}),
	}
}

// Run owns the client set until ctx is done; then every client is closed.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.setCount(len(h.clients))
			if h.latest != nil {
				select {
				case c.send <- h.latest:
				default:
				}
			}

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
			}

		case frame := <-h.broadcast:
			h.latest = frame
			for c := range h.clients {
				select {
				case c.send <- frame:
				default:
					h.l.Warn("dropping slow stream client", xlogger.String("remote", c.remote))
					h.drop(c)
				}
			}
		}
	}
}

// Publish encodes snap and queues it for broadcast. It never blocks the caller;
// when the queue is full the frame is discarded.
func (h *Hub) Publish(snap *models.Snapshot) {
	frame, err := h.encode(snap)
	if err != nil {
		h.l.Error("encode stream frame", xlogger.Error(err))
		return
	}
	select {
	case h.broadcast <- frame:
	default:
		h.l.Warn("stream broadcast queue full, frame discarded")
	}
}

// join registers c; it reports false once the hub has stopped.
func (h *Hub) join(c *client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Done is closed when Run has returned.
func (h *Hub) Done() <-chan struct{} { return h.done }

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
	h.setCount(len(h.clients))
}

func (h *Hub) setCount(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
}
