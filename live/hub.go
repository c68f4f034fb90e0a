package live

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"reelops/models"
)

// Event is pushed to every connected dashboard after the log changes.
type Event struct {
	Action         string      `json:"action"` // "save" or "delete"
	Timeslot       string      `json:"timeslot,omitempty"`
	TechnicianName string      `json:"technicianName,omitempty"`
	Date           string      `json:"date,omitempty"`
	Time           string      `json:"time,omitempty"`
	Records        int         `json:"records"`
	By             models.Role `json:"by"`
	Timestamp      int64       `json:"timestamp"`
}

type Client struct {
	Conn *websocket.Conn
	Send chan []byte
	Role models.Role
}

type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	quit       chan struct{}
	stopOnce   sync.Once
	mu         sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		quit:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if h.clients[c] {
				delete(h.clients, c)
				close(c.Send)
			}
			h.mu.Unlock()

		case data := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.Send <- data:
				default:
					// slow consumer
					close(c.Send)
					delete(h.clients, c)
				}
			}
			h.mu.Unlock()

		case <-h.quit:
			h.mu.Lock()
			for c := range h.clients {
				close(c.Send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop disconnects every client and ends Run.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

// Publish queues ev for every client. It never blocks the caller for long:
// when the hub is stopped or backed up the event is dropped.
func (h *Hub) Publish(ev Event) {
	if ev.Timestamp == 0 {
		ev.Timestamp = time.Now().Unix()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("live: marshal event: %v", err)
		return
	}
	select {
	case h.broadcast <- data:
	case <-h.quit:
	case <-time.After(time.Second):
		log.Printf("live: dropped %s event, hub busy", ev.Action)
	}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Register adds c unless the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.quit:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}
