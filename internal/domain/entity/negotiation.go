package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/rfq-procurement/internal/domain/workflow"
)

// MessageType classifies a negotiation message
type MessageType string

const (
	MessageText         MessageType = "text"
	MessageOffer        MessageType = "offer"
	MessageCounterOffer MessageType = "counter_offer"
	MessageSystem       MessageType = "system"
)

// String returns the string representation of the message type
func (t MessageType) String() string {
	return string(t)
}

// IsOffer returns true for message types that carry offer data
func (t MessageType) IsOffer() bool {
	return t == MessageOffer || t == MessageCounterOffer
}

// Negotiation pairs a buyer and a supplier around an RFQ (and optionally a
// specific bid). Currency is the reference currency all offers are
// normalized into; it is fixed to the RFQ currency when the negotiation is
// opened.
type Negotiation struct {
	ID                string         `json:"id"`
	RfqID             string         `json:"rfq_id"`
	BidID             string         `json:"bid_id,omitempty"`
	BuyerCompanyID    string         `json:"buyer_company_id"`
	SupplierCompanyID string         `json:"supplier_company_id"`
	InitiatedBy       string         `json:"initiated_by"`
	Currency          string         `json:"currency"`
	Status            workflow.State `json:"status"`
	Version           int            `json:"version"`
	ExpiresAt         *time.Time     `json:"expires_at,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// Offer is the structured payload of an offer or counter-offer message.
// Amount keeps the sender's original value and precision; NormalizedAmount
// is the same value in the negotiation's reference currency, rounded to
// that currency's minor units.
type Offer struct {
	Amount             decimal.Decimal `json:"amount"`
	Currency           string          `json:"currency"`
	NormalizedAmount   decimal.Decimal `json:"normalized_amount"`
	NormalizedCurrency string          `json:"normalized_currency"`
}

// NegotiationMessage is one entry of a negotiation's append-only message log
type NegotiationMessage struct {
	ID              string      `json:"id"`
	NegotiationID   string      `json:"negotiation_id"`
	SenderID        string      `json:"sender_id"`
	SenderCompanyID string      `json:"sender_company_id"`
	Type            MessageType `json:"type"`
	Body            string      `json:"body,omitempty"`
	Offer           *Offer      `json:"offer,omitempty"`
	Read            bool        `json:"read"`
	CreatedAt       time.Time   `json:"created_at"`
}

// Closed returns true once the negotiation admits no further messages
func (n *Negotiation) Closed() bool {
	return n.Status.TerminalFor(workflow.EntityNegotiation)
}

// EntityType implements workflow.Subject
func (n *Negotiation) EntityType() workflow.EntityType { return workflow.EntityNegotiation }

// EntityID implements workflow.Subject
func (n *Negotiation) EntityID() string { return n.ID }

// CurrentState implements workflow.Subject
func (n *Negotiation) CurrentState() workflow.State { return n.Status }

// EntityVersion implements workflow.Subject
func (n *Negotiation) EntityVersion() int { return n.Version }

// BuyerCompany implements workflow.Subject
func (n *Negotiation) BuyerCompany() string { return n.BuyerCompanyID }

// SupplierCompany implements workflow.Subject
func (n *Negotiation) SupplierCompany() string { return n.SupplierCompanyID }

var _ workflow.Subject = (*Negotiation)(nil)
