package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// Catalog event actions pushed to connected admin clients.
const (
	ActionProductCreated = "product_created"
	ActionProductUpdated = "product_updated"
	ActionProductDeleted = "product_deleted"
)

// CatalogEvent is broadcast after every successful catalog mutation so the
// admin SPA can refresh its product list without polling.
type CatalogEvent struct {
	Type      string    `json:"type"`
	Action    string    `json:"action"`
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Message   string    `json:"message"`
}

type Hub struct {
	Clients    map[*websocket.Conn]bool
	Register   chan *websocket.Conn
	Unregister chan *websocket.Conn
	Broadcast  chan []byte
	mutex      sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[*websocket.Conn]bool),
		Register:   make(chan *websocket.Conn),
		Unregister: make(chan *websocket.Conn),
		Broadcast:  make(chan []byte),
	}
}

// Publish marshals the event and hands it to the broadcast loop without
// blocking the caller.
func (h *Hub) Publish(ev CatalogEvent) {
	ev.Type = "catalog_update"
	msg, err := json.Marshal(ev)
	if err != nil {
		return
	}
	go func() { h.Broadcast <- msg }()
}

func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.Register:
			h.mutex.Lock()
			h.Clients[conn] = true
			h.mutex.Unlock()
			log.Println("New WS client connected")

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[conn]; ok {
				delete(h.Clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.Broadcast:
			h.mutex.Lock()
			for conn := range h.Clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.Clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}
