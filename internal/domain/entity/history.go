package entity

import (
	"time"

	"github.com/garyjia/rfq-procurement/internal/domain/workflow"
)

// StatusHistory is one entry of the append-only transition log. A row is
// written in the same transaction as the status change it records.
type StatusHistory struct {
	ID         string              `json:"id"`
	EntityType workflow.EntityType `json:"entity_type"`
	EntityID   string              `json:"entity_id"`
	FromStatus workflow.State      `json:"from_status"`
	ToStatus   workflow.State      `json:"to_status"`
	ActorID    string              `json:"actor_id"`
	ActorRole  workflow.Role       `json:"actor_role"`
	Reason     string              `json:"reason,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}

// Notification is the recorded form of a dispatched workflow event, one row
// per recipient. Delivery transports (mail, chat) consume these rows and are
// outside this service.
type Notification struct {
	ID         string              `json:"id"`
	EventID    string              `json:"event_id"`
	EventType  string              `json:"event_type"`
	EntityType workflow.EntityType `json:"entity_type"`
	EntityID   string              `json:"entity_id"`
	Recipient  string              `json:"recipient"`
	Payload    string              `json:"payload,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}
