package workflow

// Role classifies the party requesting a transition
type Role string

const (
	RoleBuyer    Role = "buyer"
	RoleSupplier Role = "supplier"
	RoleAdmin    Role = "admin"
	RoleSystem   Role = "system"
)

// Actor identifies who is requesting a transition. CompanyID ties the actor
// to the buyer or supplier company an entity belongs to.
type Actor struct {
	ID        string `json:"id"`
	Role      Role   `json:"role"`
	CompanyID string `json:"company_id"`
}

// SystemActor is the sentinel identity used for deadline-triggered forced
// transitions. It bypasses role and ownership checks but is still recorded
// in the status history like any other actor.
var SystemActor = Actor{ID: "system", Role: RoleSystem}

// IsSystem returns true if the actor is the system sentinel
func (a Actor) IsSystem() bool {
	return a.Role == RoleSystem
}

// IsAdmin returns true if the actor has the admin role
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// IsValid returns true if the role is one of the defined constants
func (r Role) IsValid() bool {
	switch r {
	case RoleBuyer, RoleSupplier, RoleAdmin, RoleSystem:
		return true
	default:
		return false
	}
}
