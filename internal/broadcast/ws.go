package broadcast

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin checks belong to the gateway in front of this service.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamHandler returns an Echo handler that upgrades the request to a
// WebSocket and streams the hub topic named by the :id path parameter.
// A client asking for the literal topic "all" observes every auction. When
// the subscriber is evicted for falling behind, the socket is closed and the
// client is expected to reconnect and re-fetch auction state over HTTP.
func StreamHandler(hub *Hub) echo.HandlerFunc {
	return func(c echo.Context) error {
		topic := c.Param("id")
		if topic == "" || topic == "all" {
			topic = TopicAll
		}
		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			return err
		}

		sub := hub.Subscribe(topic)
		go writePump(conn, sub)
		go readPump(conn, hub, sub)
		return nil
	}
}

// writePump forwards hub events to the socket and keeps the connection
// alive with periodic pings.
func writePump(conn *websocket.Conn, sub *Subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case ev, ok := <-sub.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Subscriber dropped or hub shut down.
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			body, err := json.Marshal(ev)
			if err != nil {
				log.Printf("broadcast: marshal event: %v", err)
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, body); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains client frames so pongs are processed and unsubscribes
// when the peer goes away.
func readPump(conn *websocket.Conn, hub *Hub, sub *Subscriber) {
	defer hub.Unsubscribe(sub)

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("broadcast: websocket read: %v", err)
			}
			return
		}
	}
}
