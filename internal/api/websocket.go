package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"macro/internal/input"
	"macro/internal/protocol"
	"macro/internal/session"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API is bound to loopback; browsers on the same machine may connect
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSManager handles WebSocket connections and broadcasting
type WSManager struct {
	server     *Server
	clients    map[*WebSocketClient]bool
	clientsMu  sync.RWMutex
	broadcast  chan protocol.Message
	register   chan *WebSocketClient
	unregister chan *WebSocketClient
	shutdown   chan struct{}
	stopOnce   sync.Once
}

// WebSocketClient represents a connected front end
type WebSocketClient struct {
	manager *WSManager
	conn    *websocket.Conn
	send    chan []byte
	ip      string
}

func newWSManager(s *Server) *WSManager {
	return &WSManager{
		server:     s,
		clients:    make(map[*WebSocketClient]bool),
		broadcast:  make(chan protocol.Message),
		register:   make(chan *WebSocketClient),
		unregister: make(chan *WebSocketClient),
		shutdown:   make(chan struct{}),
	}
}

func (m *WSManager) start() {
	for {
		select {
		case client := <-m.register:
			m.clientsMu.Lock()
			m.clients[client] = true
			m.clientsMu.Unlock()
			log.Printf("WS: New client registered from %s. Total clients: %d", client.ip, len(m.clients))

		case client := <-m.unregister:
			m.clientsMu.Lock()
			if _, ok := m.clients[client]; ok {
				delete(m.clients, client)
				close(client.send)
				log.Printf("WS: Client unregistered from %s. Total clients: %d", client.ip, len(m.clients))
			}
			m.clientsMu.Unlock()

		case message := <-m.broadcast:
			m.broadcastMessage(message)

		case <-m.shutdown:
			m.clientsMu.Lock()
			for client := range m.clients {
				close(client.send)
				delete(m.clients, client)
			}
			m.clientsMu.Unlock()
			return
		}
	}
}

func (m *WSManager) stop() {
	m.stopOnce.Do(func() {
		close(m.shutdown)
	})
}

func (m *WSManager) broadcastMessage(message protocol.Message) {
	jsonMsg, err := json.Marshal(message)
	if err != nil {
		log.Printf("WS: Failed to marshal broadcast message: %v", err)
		return
	}

	m.clientsMu.Lock()
	defer m.clientsMu.Unlock()

	for client := range m.clients {
		select {
		case client.send <- jsonMsg:
		default:
			// drop clients that stopped reading
			close(client.send)
			delete(m.clients, client)
		}
	}
}

func (m *WSManager) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WS: Failed to upgrade connection: %v", err)
		return
	}

	client := &WebSocketClient{
		manager: m,
		conn:    conn,
		send:    make(chan []byte, 256),
		ip:      r.RemoteAddr,
	}

	// new clients start from the current labels
	hello, _ := json.Marshal(statusMessage(m.server.session.Snapshot()))
	client.send <- hello

	select {
	case m.register <- client:
	case <-m.shutdown:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump pumps messages from the websocket connection to the hub.
func (c *WebSocketClient) readPump() {
	defer func() {
		select {
		case c.manager.unregister <- c:
		case <-c.manager.shutdown:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(60 * time.Second)); return nil })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WS: Read error: %v", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(50 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *WebSocketClient) handleMessage(data []byte) {
	var msg struct {
		Type    protocol.MessageType   `json:"type"`
		Payload protocol.TogglePayload `json:"payload"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("WS: Invalid message format: %v", err)
		return
	}

	var err error
	switch msg.Type {
	case protocol.TypeCapture:
		log.Printf("WS: capture requested by %s", c.ip)
		err = c.manager.server.session.BeginCapture()
	case protocol.TypeToggle:
		log.Printf("WS: toggle requested by %s", c.ip)
		err = c.manager.server.session.ToggleRun(msg.Payload.Interval, msg.Payload.Delay)
	default:
		log.Printf("WS: ignoring message type '%s'", msg.Type)
		return
	}

	// Config errors also reach every client through the session's error event;
	// transition errors are only returned, so report them to the requester.
	if err != nil {
		reply, _ := json.Marshal(protocol.Message{
			Type:    protocol.TypeError,
			Payload: protocol.ErrorPayload{Message: err.Error()},
		})
		c.manager.clientsMu.RLock()
		if c.manager.clients[c] {
			select {
			case c.send <- reply:
			default:
			}
		}
		c.manager.clientsMu.RUnlock()
	}
}

// BroadcastEvent converts a session event and sends it to every client
func (m *WSManager) BroadcastEvent(ev session.Event) {
	var msg protocol.Message
	switch ev.Kind {
	case session.EventTriggerResolved:
		msg = protocol.Message{Type: protocol.TypeTrigger, Payload: protocol.TriggerPayload{
			Description: ev.Text,
			Kind:        triggerKind(ev),
			Key:         ev.Trigger.Key,
			Button:      buttonName(ev),
		}}
	case session.EventError:
		msg = protocol.Message{Type: protocol.TypeError, Payload: protocol.ErrorPayload{Message: ev.Text}}
	default:
		msg = statusMessage(session.Snapshot{State: ev.State, Status: ev.Status})
	}

	select {
	case m.broadcast <- msg:
	case <-m.shutdown:
	}
}

func statusMessage(snap session.Snapshot) protocol.Message {
	return protocol.Message{Type: protocol.TypeStatus, Payload: protocol.StatusPayload{
		State:          snap.State.String(),
		CaptureLabel:   snap.Status.CaptureLabel,
		CaptureEnabled: snap.Status.CaptureEnabled,
		RunLabel:       snap.Status.RunLabel,
		RunEnabled:     snap.Status.RunEnabled,
	}}
}

func triggerKind(ev session.Event) string {
	if ev.Trigger.Kind == input.KindPointer {
		return "pointer"
	}
	return "keyboard"
}

func buttonName(ev session.Event) string {
	if ev.Trigger.Kind != input.KindPointer {
		return ""
	}
	return ev.Trigger.Button.String()
}
