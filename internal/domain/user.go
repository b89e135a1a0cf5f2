package domain

import "time"

type Role string

const (
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// ParseRole maps an optional requested role to a stored one. Anything other
// than an explicit "manager" registers an employee.
func ParseRole(s string) Role {
	if Role(s) == RoleManager {
		return RoleManager
	}
	return RoleEmployee
}

// User is a stored account. Password holds the bcrypt hash and is never
// serialized.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) IsManager() bool {
	return u != nil && u.Role == RoleManager
}

type NewUser struct {
	Name     string
	Email    string
	Password string
	Role     Role
}
