package auth

// Role is the closed set of permission groups known to the API. Role
// checks compare against these constants so that a typo in a role name
// fails compilation instead of silently denying (or granting) access.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTrainer Role = "trainer"
	RoleAthlete Role = "athlete"
)

// ParseRole maps a stored role name onto the closed Role set. The
// second return value is false for unknown names.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleTrainer, RoleAthlete:
		return Role(s), true
	}
	return "", false
}

// Identity is the resolved actor attached to every authenticated
// request: the outcome of bearer-token verification plus the
// token-version check against the credential store. Handlers and guards
// consume this struct and never re-parse tokens themselves.
type Identity struct {
	AccountID uint64
	Role      Role
	Email     string
}
