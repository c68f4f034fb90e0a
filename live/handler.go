package live

import (
	"log"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"reelops/middleware"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// NewUpgrader accepts same-origin requests and those from allowed origins.
// An empty list accepts any origin.
func NewUpgrader(allowed []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return len(allowed) == 0 || origin == "" || slices.Contains(allowed, origin)
		},
	}
}

// WebSocketHandler streams log events to an authenticated client. It must sit
// behind a session guard.
func WebSocketHandler(hub *Hub, upgrader *websocket.Upgrader) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		sess, _ := middleware.SessionFromContext(r.Context())

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade:", err)
			return
		}
		client := &Client{
			Conn: conn,
			Send: make(chan []byte, 256),
			Role: sess.Role,
		}
		if !hub.Register(client) {
			conn.Close()
			return
		}
		go writePump(client)
		go readPump(client, hub)
	}
}

func writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only watches for the client going away; dashboards never send.
func readPump(c *Client, hub *Hub) {
	defer func() {
		hub.Unregister(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(512)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}
