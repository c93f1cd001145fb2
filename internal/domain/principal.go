package domain

// Role determines what a principal may do within its tenant.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
	RoleViewer   Role = "viewer"
)

// Principal is the authenticated caller. Every principal is bound to
// exactly one tenant; cross-tenant access does not exist.
type Principal struct {
	UserID   string
	TenantID string
	Role     Role
}
