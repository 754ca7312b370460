package services

import (
	"log"
	"sync"

	"smartrail-mumbai/internal/adapters/persistence/models"
)

// ============================================================
// Realtime Hub (SSE)
// ============================================================

// Realtime topics clients can subscribe to
const (
	TopicTicketValidations = "ticket_validations"
	TopicCrowdUpdates      = "crowd_updates"
	TopicAlerts            = "alerts"
)

// RealtimeEvent represents a server-sent event
type RealtimeEvent struct {
	Event string      `json:"event"`
	Topic string      `json:"topic"`
	Data  interface{} `json:"data"`
}

// RealtimeClient represents a connected SSE client
type RealtimeClient struct {
	ID      string
	UserID  uint
	Topics  map[string]bool
	Channel chan RealtimeEvent
}

// Subscribed reports whether the client listens on a topic. A client with no
// explicit topics receives everything.
func (c *RealtimeClient) Subscribed(topic string) bool {
	if len(c.Topics) == 0 {
		return true
	}
	return c.Topics[topic]
}

// RealtimeHub manages all SSE connections
type RealtimeHub struct {
	mu      sync.RWMutex
	clients map[string]*RealtimeClient
}

// NewRealtimeHub creates a new realtime hub
func NewRealtimeHub() *RealtimeHub {
	return &RealtimeHub{
		clients: make(map[string]*RealtimeClient),
	}
}

// Register adds a new SSE client
func (h *RealtimeHub) Register(client *RealtimeClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	log.Printf("📡 SSE client registered: %s (user=%d, topics=%d) | total=%d",
		client.ID, client.UserID, len(client.Topics), len(h.clients))
}

// Unregister removes an SSE client
func (h *RealtimeHub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Channel)
		delete(h.clients, clientID)
		log.Printf("📡 SSE client unregistered: %s | total=%d", clientID, len(h.clients))
	}
}

// Broadcast sends an event to every client subscribed to its topic
func (h *RealtimeHub) Broadcast(topic string, event RealtimeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	event.Topic = topic
	sent := 0
	for _, client := range h.clients {
		if client.Subscribed(topic) {
			select {
			case client.Channel <- event:
				sent++
			default:
				// Client channel full, skip
				log.Printf("⚠️ SSE channel full for client %s, skipping", client.ID)
			}
		}
	}
	if sent > 0 {
		log.Printf("📡 SSE broadcast [%s/%s] → %d clients", topic, event.Event, sent)
	}
}

// SendToUser sends an event to a specific user's clients
func (h *RealtimeHub) SendToUser(userID uint, event RealtimeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if client.UserID == userID {
			select {
			case client.Channel <- event:
				log.Printf("📡 SSE sent [%s] to user %d", event.Event, userID)
			default:
				log.Printf("⚠️ SSE channel full for user %d, skipping", userID)
			}
		}
	}
}

// GetClientCount returns the number of connected clients
func (h *RealtimeHub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ============================================================
// Broadcast triggers (called from the domain services)
// ============================================================

// BroadcastTicketValidation announces a successful gate redemption, so the
// ticket owner's open apps flip the ticket to used without polling
func (h *RealtimeHub) BroadcastTicketValidation(result ValidationResult) {
	h.Broadcast(TopicTicketValidations, RealtimeEvent{
		Event: "ticket_validated",
		Data:  result,
	})
	if result.Ticket != nil {
		h.SendToUser(result.Ticket.UserID, RealtimeEvent{
			Event: "ticket_validated",
			Topic: TopicTicketValidations,
			Data:  result,
		})
	}
}

// BroadcastCrowdUpdate pushes a fresh crowd reading to live dashboards
func (h *RealtimeHub) BroadcastCrowdUpdate(reading *models.CrowdData) {
	h.Broadcast(TopicCrowdUpdates, RealtimeEvent{
		Event: "crowd_update",
		Data:  reading,
	})
}

// BroadcastAlert pushes a new service alert to subscribed clients
func (h *RealtimeHub) BroadcastAlert(alert *models.Alert) {
	h.Broadcast(TopicAlerts, RealtimeEvent{
		Event: "alert_created",
		Data:  alert,
	})
}
