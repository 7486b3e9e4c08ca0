package auth

// Roles understood by the API.
const (
	RoleAdmin            = "admin"
	RoleManageEntryTypes = "entry-types:manage"
)

// UserContext is the authenticated caller, set by Authenticate.
type UserContext struct {
	ID    string   `json:"id"`
	Roles []string `json:"roles"`
}

func (u *UserContext) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// CanManageEntryTypes reports whether the caller may use the admin API.
func (u *UserContext) CanManageEntryTypes() bool {
	return u.HasRole(RoleAdmin) || u.HasRole(RoleManageEntryTypes)
}
