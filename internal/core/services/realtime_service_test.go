package services

import (
	"testing"

	"smartrail-mumbai/internal/adapters/persistence/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealtimeHub(t *testing.T) {
	t.Run("broadcast reaches subscribed clients only", func(t *testing.T) {
		hub := NewRealtimeHub()

		crowdClient := &RealtimeClient{
			ID:      "c1",
			Topics:  map[string]bool{TopicCrowdUpdates: true},
			Channel: make(chan RealtimeEvent, 4),
		}
		alertClient := &RealtimeClient{
			ID:      "c2",
			Topics:  map[string]bool{TopicAlerts: true},
			Channel: make(chan RealtimeEvent, 4),
		}
		allClient := &RealtimeClient{
			ID:      "c3",
			Channel: make(chan RealtimeEvent, 4),
		}
		hub.Register(crowdClient)
		hub.Register(alertClient)
		hub.Register(allClient)

		hub.BroadcastCrowdUpdate(&models.CrowdData{Line: "Western Line"})

		require.Len(t, crowdClient.Channel, 1)
		assert.Len(t, alertClient.Channel, 0)
		require.Len(t, allClient.Channel, 1)

		event := <-crowdClient.Channel
		assert.Equal(t, TopicCrowdUpdates, event.Topic)
		assert.Equal(t, "crowd_update", event.Event)
	})

	t.Run("full channel is skipped, not blocked", func(t *testing.T) {
		hub := NewRealtimeHub()

		client := &RealtimeClient{
			ID:      "full",
			Channel: make(chan RealtimeEvent, 1),
		}
		hub.Register(client)

		alert := &models.Alert{Type: models.AlertTypeDelay, Message: "late"}
		hub.BroadcastAlert(alert)
		hub.BroadcastAlert(alert) // must not deadlock

		assert.Len(t, client.Channel, 1)
	})

	t.Run("unregister closes the channel", func(t *testing.T) {
		hub := NewRealtimeHub()

		client := &RealtimeClient{ID: "gone", Channel: make(chan RealtimeEvent, 1)}
		hub.Register(client)
		assert.Equal(t, 1, hub.GetClientCount())

		hub.Unregister("gone")
		assert.Equal(t, 0, hub.GetClientCount())

		_, open := <-client.Channel
		assert.False(t, open)
	})

	t.Run("validation broadcast also targets the owner", func(t *testing.T) {
		hub := NewRealtimeHub()

		owner := &RealtimeClient{
			ID:      "owner",
			UserID:  12,
			Topics:  map[string]bool{"something_else": true},
			Channel: make(chan RealtimeEvent, 4),
		}
		hub.Register(owner)

		hub.BroadcastTicketValidation(ValidationResult{
			Valid:   true,
			Ticket:  &models.Ticket{ID: "t1", UserID: 12},
			Message: MsgValidated,
		})

		// Not subscribed to the topic, but addressed directly as the owner
		require.Len(t, owner.Channel, 1)
		event := <-owner.Channel
		assert.Equal(t, "ticket_validated", event.Event)
	})
}
