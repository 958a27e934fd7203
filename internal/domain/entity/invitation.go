package entity

import (
	"time"

	"github.com/garyjia/rfq-procurement/internal/domain/workflow"
)

// SupplierInvitation invites a supplier company to bid on an RFQ. The token
// is what the supplier presents to accept; once ExpiresAt passes the
// invitation must reach expired before any acceptance is honored.
type SupplierInvitation struct {
	ID                string         `json:"id"`
	RfqID             string         `json:"rfq_id"`
	BuyerCompanyID    string         `json:"buyer_company_id"`
	SupplierCompanyID string         `json:"supplier_company_id"`
	Token             string         `json:"token"`
	ExpiresAt         time.Time      `json:"expires_at"`
	Status            workflow.State `json:"status"`
	Version           int            `json:"version"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// EntityType implements workflow.Subject
func (i *SupplierInvitation) EntityType() workflow.EntityType {
	return workflow.EntitySupplierInvitation
}

// EntityID implements workflow.Subject
func (i *SupplierInvitation) EntityID() string { return i.ID }

// CurrentState implements workflow.Subject
func (i *SupplierInvitation) CurrentState() workflow.State { return i.Status }

// EntityVersion implements workflow.Subject
func (i *SupplierInvitation) EntityVersion() int { return i.Version }

// BuyerCompany implements workflow.Subject
func (i *SupplierInvitation) BuyerCompany() string { return i.BuyerCompanyID }

// SupplierCompany implements workflow.Subject
func (i *SupplierInvitation) SupplierCompany() string { return i.SupplierCompanyID }

var _ workflow.Subject = (*SupplierInvitation)(nil)
