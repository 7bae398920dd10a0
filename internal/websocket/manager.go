package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Manager fans vehicle snapshots out to websocket subscribers. Delivery is
// best-effort: a slow client loses messages, the publisher never blocks and
// never sees an error.
type Manager struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan VehicleSnapshot
	mutex      sync.RWMutex
	upgrader   websocket.Upgrader
	done       chan struct{}
	log        *logrus.Logger
}

func NewManager(log *logrus.Logger) *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan VehicleSnapshot, 1000),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		done: make(chan struct{}),
		log:  log,
	}
}

// Start begins the manager's event loop.
func (m *Manager) Start() {
	go m.run()
	m.log.Info("WebSocket manager started")
}

// Stop closes all client connections and halts the event loop.
func (m *Manager) Stop() {
	close(m.done)

	m.mutex.Lock()
	for _, client := range m.clients {
		close(client.Send)
		if client.Conn != nil {
			client.Conn.Close()
		}
	}
	m.clients = make(map[string]*Client)
	m.mutex.Unlock()

	m.log.Info("WebSocket manager stopped")
}

func (m *Manager) run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case client := <-m.register:
			m.mutex.Lock()
			m.clients[client.ID] = client
			m.mutex.Unlock()
			m.log.WithField("client", client.ID).Debug("WebSocket client registered")
			go m.handleClient(client)

		case client := <-m.unregister:
			m.mutex.Lock()
			if _, ok := m.clients[client.ID]; ok {
				delete(m.clients, client.ID)
				close(client.Send)
				if client.Conn != nil {
					client.Conn.Close()
				}
			}
			m.mutex.Unlock()
			m.log.WithField("client", client.ID).Debug("WebSocket client unregistered")

		case snapshot := <-m.broadcast:
			m.broadcastToClients(snapshot)

		case <-ticker.C:
			m.healthCheck()

		case <-m.done:
			return
		}
	}
}

// RegisterClient adds a subscriber connection.
func (m *Manager) RegisterClient(clientID string, conn *websocket.Conn, filters SnapshotFilters) {
	client := &Client{
		ID:       clientID,
		Conn:     conn,
		Filters:  filters,
		Send:     make(chan VehicleSnapshot, 256),
		LastPing: time.Now(),
	}

	m.register <- client
}

// PublishVehicle queues a snapshot for fan-out. A full broadcast buffer
// drops the snapshot rather than stalling the tick.
func (m *Manager) PublishVehicle(snapshot VehicleSnapshot) {
	select {
	case m.broadcast <- snapshot:
	case <-m.done:
	default:
		m.log.WithField("vehicle", snapshot.ID).Warn("Broadcast buffer full, dropping snapshot")
	}
}

// ConnectedClients returns the number of live subscribers.
func (m *Manager) ConnectedClients() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients)
}

// Upgrader exposes the websocket upgrader for the HTTP handler.
func (m *Manager) Upgrader() *websocket.Upgrader {
	return &m.upgrader
}

func (m *Manager) broadcastToClients(snapshot VehicleSnapshot) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, client := range m.clients {
		if !matchesFilters(client.Filters, snapshot) {
			continue
		}
		select {
		case client.Send <- snapshot:
		default:
			// slow client, drop this snapshot for them
		}
	}
}

func matchesFilters(filters SnapshotFilters, snapshot VehicleSnapshot) bool {
	if len(filters.VehicleIDs) > 0 && !contains(filters.VehicleIDs, snapshot.ID) {
		return false
	}
	if len(filters.Statuses) > 0 && !contains(filters.Statuses, snapshot.Status) {
		return false
	}
	return true
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func (m *Manager) handleClient(client *Client) {
	defer func() {
		m.unregister <- client
	}()

	client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.Conn.SetPongHandler(func(string) error {
		client.LastPing = time.Now()
		client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	go m.writeMessages(client)

	for {
		var message struct {
			Type    string          `json:"type"`
			Filters SnapshotFilters `json:"filters"`
		}
		if err := client.Conn.ReadJSON(&message); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				m.log.WithField("client", client.ID).WithError(err).Warn("WebSocket read error")
			}
			break
		}

		if message.Type == "update_filters" {
			client.Filters = message.Filters
		}
	}
}

func (m *Manager) writeMessages(client *Client) {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case snapshot, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			payload := map[string]interface{}{
				"type": MessageTypeVehicleUpdate,
				"data": snapshot,
			}
			if err := client.Conn.WriteJSON(payload); err != nil {
				m.log.WithField("client", client.ID).WithError(err).Warn("WebSocket write error")
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (m *Manager) healthCheck() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := time.Now()
	for clientID, client := range m.clients {
		if now.Sub(client.LastPing) > 90*time.Second {
			m.log.WithField("client", clientID).Info("WebSocket client timed out, removing")
			delete(m.clients, clientID)
			close(client.Send)
			if client.Conn != nil {
				client.Conn.Close()
			}
		}
	}
}
