package feed

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wowcafe/cafe-app/utils"
)

// Event types pushed over the operational feed.
const (
	EventOrderPlaced  = "order_placed"
	EventStatusUpdate = "order_status_update"
	EventStaffNotif   = "staff_notification"
)

type Message struct {
	Event      string      `json:"event"`
	Collection string      `json:"collection,omitempty"`
	Data       interface{} `json:"data"`
	Timestamp  int64       `json:"timestamp"`
}

// Hub holds all feed clients (staff, admin dashboards) keyed by role.
type Hub struct {
	clients map[*websocket.Conn]string
	mutex   sync.Mutex
}

var hub = Hub{
	clients: make(map[*websocket.Conn]string),
}

func RegisterClient(conn *websocket.Conn, role string) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	hub.clients[conn] = role
}

func UnregisterClient(conn *websocket.Conn) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	delete(hub.clients, conn)
	conn.Close()
}

// Publish broadcasts a message to every connected client. Dead connections
// are dropped; a broadcast never returns an error to the caller.
func Publish(event, collection string, data interface{}) {
	msg := Message{
		Event:      event,
		Collection: collection,
		Data:       data,
		Timestamp:  time.Now().UnixMilli(),
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		if utils.ErrorLogger != nil {
			utils.ErrorLogger.Printf("feed: marshal failed: %v", err)
		}
		return
	}

	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	for conn := range hub.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			delete(hub.clients, conn)
			conn.Close()
		}
	}
}
