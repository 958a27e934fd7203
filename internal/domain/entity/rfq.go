package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/rfq-procurement/internal/domain/workflow"
)

// Rfq represents a buyer's request for quotation
type Rfq struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	BuyerCompanyID string          `json:"buyer_company_id"`
	CreatedBy      string          `json:"created_by"`
	Currency       string          `json:"currency"`
	BudgetMin      decimal.Decimal `json:"budget_min"`
	BudgetMax      decimal.Decimal `json:"budget_max"`
	BidDeadline    time.Time       `json:"bid_deadline"`
	Status         workflow.State  `json:"status"`
	Version        int             `json:"version"`
	Items          []RfqItem       `json:"items,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// RfqItem represents a single line the buyer is requesting quotes for
type RfqItem struct {
	ID          string          `json:"id"`
	RfqID       string          `json:"rfq_id"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	Unit        string          `json:"unit"`
	TargetPrice decimal.Decimal `json:"target_price"`
}

// EntityType implements workflow.Subject
func (r *Rfq) EntityType() workflow.EntityType { return workflow.EntityRfq }

// EntityID implements workflow.Subject
func (r *Rfq) EntityID() string { return r.ID }

// CurrentState implements workflow.Subject
func (r *Rfq) CurrentState() workflow.State { return r.Status }

// EntityVersion implements workflow.Subject
func (r *Rfq) EntityVersion() int { return r.Version }

// BuyerCompany implements workflow.Subject
func (r *Rfq) BuyerCompany() string { return r.BuyerCompanyID }

// SupplierCompany implements workflow.Subject; an RFQ has no supplier side
func (r *Rfq) SupplierCompany() string { return "" }

var _ workflow.Subject = (*Rfq)(nil)
