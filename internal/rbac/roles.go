package rbac

// Role names carried in the JWT "role" claim. Keep these stable; they are part of
// the token issuer's contract.
const (
	RoleAnon          = "anon"
	RoleAuthenticated = "authenticated"
	RoleServiceRole   = "service_role"
)

func IsServiceRole(role string) bool { return role == RoleServiceRole }

func IsAuthenticated(role string) bool { return role == RoleAuthenticated }

// IsKnownRole reports whether role is one the store has a Postgres role for.
func IsKnownRole(role string) bool {
	switch role {
	case RoleAnon, RoleAuthenticated, RoleServiceRole:
		return true
	default:
		return false
	}
}
