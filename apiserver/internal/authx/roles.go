package authx

// Role is a type whose values map to the well-defined access levels Matrix
// recognizes. Every user holds exactly one Role.
type Role string

const (
	// RoleAdmin enables a user to manage users, projects, and everything in
	// them.
	RoleAdmin Role = "admin"
	// RolePentester enables a user to log vulnerabilities and upload reports
	// for the projects they are assigned to.
	RolePentester Role = "pentester"
	// RoleClient enables a user to view findings and download reports for the
	// projects they are assigned to.
	RoleClient Role = "client"
)

// ValidRole returns true if the provided value is one of the recognized Roles
// and false otherwise.
func ValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RolePentester, RoleClient:
		return true
	}
	return false
}
