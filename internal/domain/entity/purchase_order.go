package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/rfq-procurement/internal/domain/workflow"
)

// PurchaseOrder is the binding order generated from an awarded bid
type PurchaseOrder struct {
	ID                string          `json:"id"`
	OrderNumber       string          `json:"order_number"`
	RfqID             string          `json:"rfq_id"`
	BidID             string          `json:"bid_id"`
	BuyerCompanyID    string          `json:"buyer_company_id"`
	SupplierCompanyID string          `json:"supplier_company_id"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	Currency          string          `json:"currency"`
	Status            workflow.State  `json:"status"`
	Version           int             `json:"version"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ModificationStatus tracks a proposed change to a purchase order
type ModificationStatus string

const (
	ModificationProposed ModificationStatus = "proposed"
	ModificationApproved ModificationStatus = "approved"
	ModificationRejected ModificationStatus = "rejected"
)

// Modification is one entry of a purchase order's change log. A proposed
// change must be approved or rejected by the counterparty of the proposer.
type Modification struct {
	ID          string             `json:"id"`
	OrderID     string             `json:"order_id"`
	ProposedBy  string             `json:"proposed_by"`
	CompanyID   string             `json:"company_id"`
	Description string             `json:"description"`
	Status      ModificationStatus `json:"status"`
	DecidedBy   string             `json:"decided_by,omitempty"`
	DecidedAt   *time.Time         `json:"decided_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// EntityType implements workflow.Subject
func (o *PurchaseOrder) EntityType() workflow.EntityType { return workflow.EntityPurchaseOrder }

// EntityID implements workflow.Subject
func (o *PurchaseOrder) EntityID() string { return o.ID }

// CurrentState implements workflow.Subject
func (o *PurchaseOrder) CurrentState() workflow.State { return o.Status }

// EntityVersion implements workflow.Subject
func (o *PurchaseOrder) EntityVersion() int { return o.Version }

// BuyerCompany implements workflow.Subject
func (o *PurchaseOrder) BuyerCompany() string { return o.BuyerCompanyID }

// SupplierCompany implements workflow.Subject
func (o *PurchaseOrder) SupplierCompany() string { return o.SupplierCompanyID }

var _ workflow.Subject = (*PurchaseOrder)(nil)
