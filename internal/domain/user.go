package domain

// Staff roles.
const (
	RoleSales = "SALES"
	RoleAdmin = "ADMIN"
)

type User struct {
	ID    string `db:"id"`
	Email string `db:"email"`
	Name  string `db:"name"`
	Hash  string `db:"password_hash"`
	Role  string `db:"role"`
}

// IsAdmin reports whether the user may use the admin surface.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
