package qrpayload

import (
	"encoding/json"
	"strings"
)

// Payload is the structured scan-code payload embedded in a ticket QR image.
// It is self-describing so a scanned code resolves to a ticket without any
// lookup context beyond the ticket store itself.
type Payload struct {
	TicketID  string `json:"ticketId"`
	UserID    string `json:"userId"`
	Timestamp int64  `json:"timestamp"` // issuance time, Unix milliseconds
}

// Encode serializes a payload to the wire form stored in tickets.qr_code
func Encode(p Payload) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Decode attempts to parse raw scanned text as a structured payload.
//
// Scanned text has no format guarantee: it may be the JSON payload, a bare
// ticket ID typed by an operator, or garbage. Decode never fails hard — it
// returns ok=false and the caller falls through to verbatim matching.
// A legacy "id" field is accepted in place of "ticketId".
func Decode(raw string) (Payload, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Payload{}, false
	}

	var loose struct {
		TicketID  string `json:"ticketId"`
		ID        string `json:"id"`
		UserID    string `json:"userId"`
		Timestamp int64  `json:"timestamp"`
	}
	if err := json.Unmarshal([]byte(raw), &loose); err != nil {
		return Payload{}, false
	}

	ticketID := loose.TicketID
	if ticketID == "" {
		ticketID = loose.ID
	}
	if ticketID == "" {
		return Payload{}, false
	}

	return Payload{
		TicketID:  ticketID,
		UserID:    loose.UserID,
		Timestamp: loose.Timestamp,
	}, true
}
