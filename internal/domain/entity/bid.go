package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/rfq-procurement/internal/domain/workflow"
)

// Bid represents a supplier's priced response to an RFQ. BuyerCompanyID is
// denormalized from the RFQ so authorization can be checked without a join.
type Bid struct {
	ID                string          `json:"id"`
	RfqID             string          `json:"rfq_id"`
	BuyerCompanyID    string          `json:"buyer_company_id"`
	SupplierCompanyID string          `json:"supplier_company_id"`
	SubmittedBy       string          `json:"submitted_by"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	Currency          string          `json:"currency"`
	Notes             string          `json:"notes,omitempty"`
	Status            workflow.State  `json:"status"`
	Version           int             `json:"version"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// EntityType implements workflow.Subject
func (b *Bid) EntityType() workflow.EntityType { return workflow.EntityBid }

// EntityID implements workflow.Subject
func (b *Bid) EntityID() string { return b.ID }

// CurrentState implements workflow.Subject
func (b *Bid) CurrentState() workflow.State { return b.Status }

// EntityVersion implements workflow.Subject
func (b *Bid) EntityVersion() int { return b.Version }

// BuyerCompany implements workflow.Subject
func (b *Bid) BuyerCompany() string { return b.BuyerCompanyID }

// SupplierCompany implements workflow.Subject
func (b *Bid) SupplierCompany() string { return b.SupplierCompanyID }

var _ workflow.Subject = (*Bid)(nil)
