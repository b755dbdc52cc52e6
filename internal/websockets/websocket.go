package websockets

import (
	"encoding/json"
	"sync"
	"time"

	"replay/config"
	"replay/internal/database"
	"replay/internal/events"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Manager relays history change events to connected clients. The UI keeps an
// optimistic local list; these pushes let it reconcile against the store
// without polling.
type Manager struct {
	db       database.DB
	eventBus *events.EventBus
	config   config.Config
	clients  map[string]*client
	mutex    sync.RWMutex
	log      logger.Logger
}

func New(
	db database.DB,
	eventBus *events.EventBus,
	config config.Config,
) (*Manager, error) {
	log := logger.New("websockets")

	manager := &Manager{
		db:       db,
		eventBus: eventBus,
		config:   config,
		clients:  make(map[string]*client),
		log:      log,
	}

	if err := eventBus.Subscribe(events.HISTORY_CHANNEL, manager.broadcastEvent); err != nil {
		return nil, log.Err("failed to subscribe to history events", err)
	}

	return manager, nil
}

func (m *Manager) broadcastEvent(event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return m.log.Function("broadcastEvent").Err("failed to marshal event", err)
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, c := range m.clients {
		select {
		case c.send <- payload:
		default:
			// Slow consumer; drop the event rather than block the bus.
			m.log.Warn("dropping event for slow websocket client", "clientID", c.id)
		}
	}

	return nil
}

// HandleWebSocket owns the connection lifecycle: registers the client,
// pumps outbound events, and reads until the peer goes away.
func (m *Manager) HandleWebSocket(conn *websocket.Conn) {
	log := m.log.Function("HandleWebSocket")

	c := &client{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, 64),
	}

	m.mutex.Lock()
	m.clients[c.id] = c
	m.mutex.Unlock()

	log.Info("Websocket client connected", "clientID", c.id)

	done := make(chan struct{})
	go m.writePump(c, done)

	m.readPump(c)

	close(done)

	m.mutex.Lock()
	delete(m.clients, c.id)
	m.mutex.Unlock()

	log.Info("Websocket client disconnected", "clientID", c.id)
}

func (m *Manager) readPump(c *client) {
	log := m.log.Function("readPump")

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket read failed", "clientID", c.id, "error", err)
			}
			return
		}

		var event events.Event
		if err := json.Unmarshal(message, &event); err != nil {
			continue
		}

		if event.Type == events.PING {
			pong, _ := json.Marshal(events.Event{Type: events.PONG, Timestamp: time.Now()})
			select {
			case c.send <- pong:
			default:
			}
		}
	}
}

func (m *Manager) writePump(c *client, done chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer func() {
		_ = c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// ClientCount returns the number of connected clients
func (m *Manager) ClientCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients)
}
