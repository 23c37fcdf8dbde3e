package model

import "time"

// Role controls what a staff member may see and do.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCashier Role = "cashier"
	RoleOwner   Role = "owner"
)

// Restricted reports whether the role only sees its own transactions.
func (r Role) Restricted() bool { return r == RoleCashier }

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCashier, RoleOwner:
		return true
	}
	return false
}

type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"` // bcrypt hash
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Phone     string    `json:"phone,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Actor is the authenticated caller identity passed explicitly into every
// service operation. Services never read the caller from ambient state.
type Actor struct {
	UserID int64
	Role   Role
}
