package rbac

// Role names. Keep these stable; they are part of auth contracts.
const (
	RoleAdmin   = "admin"   // owner level: full access, including cancellations
	RoleManager = "manager" // day-to-day: reservation status changes
	RoleViewer  = "viewer"  // dashboards and audit trail, read only
)

func IsAdmin(role string) bool { return role == RoleAdmin }

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleViewer:
		return true
	}
	return false
}
