package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"smartrail-mumbai/internal/core/services"

	"github.com/gofiber/fiber/v2"
)

// RealtimeHandler handles the SSE event stream
type RealtimeHandler struct {
	hub *services.RealtimeHub
}

// NewRealtimeHandler creates a new realtime handler
func NewRealtimeHandler(hub *services.RealtimeHub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// ============================================================
// GET /api/v1/events?topics=crowd_updates,alerts — SSE stream
// ============================================================

// Events streams hub events to the client. Topics are comma-separated; an
// empty topics query subscribes to everything.
// @Summary Realtime event stream
// @Description Server-sent events for ticket validations, crowd updates, and alerts
// @Tags Realtime
// @Produce text/event-stream
// @Param topics query string false "Comma-separated topics"
// @Success 200 {string} string "event stream"
// @Router /events [get]
func (h *RealtimeHandler) Events(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(uint)

	topics := map[string]bool{}
	for _, topic := range strings.Split(c.Query("topics"), ",") {
		topic = strings.TrimSpace(topic)
		if topic != "" {
			topics[topic] = true
		}
	}

	clientID := fmt.Sprintf("sse-%d-%d", userID, time.Now().UnixNano())

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		client := &services.RealtimeClient{
			ID:      clientID,
			UserID:  userID,
			Topics:  topics,
			Channel: make(chan services.RealtimeEvent, 50),
		}

		h.hub.Register(client)
		defer h.hub.Unregister(clientID)

		// Send initial connection event
		fmt.Fprintf(w, "event: connected\ndata: {\"client_id\":\"%s\"}\n\n", clientID)
		w.Flush()

		// Heartbeat ticker
		heartbeat := time.NewTicker(30 * time.Second)
		defer heartbeat.Stop()

		for {
			select {
			case event, ok := <-client.Channel:
				if !ok {
					return
				}
				writeRealtimeEvent(w, event)
				w.Flush()

			case <-heartbeat.C:
				fmt.Fprintf(w, ": heartbeat\n\n")
				if err := w.Flush(); err != nil {
					log.Printf("📡 SSE client disconnected: %s", clientID)
					return
				}
			}
		}
	})

	return nil
}

// writeRealtimeEvent writes one formatted SSE event to the writer
func writeRealtimeEvent(w *bufio.Writer, event services.RealtimeEvent) {
	fmt.Fprintf(w, "event: %s\n", event.Event)

	data, err := json.Marshal(event)
	if err != nil {
		fmt.Fprintf(w, "data: {}\n\n")
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}
