package models

import "time"

type UserRole string

const (
	RoleCashier UserRole = "cashier"
	RoleKios    UserRole = "kios"
)

func (r UserRole) Valid() bool {
	return r == RoleCashier || r == RoleKios
}

// User is the session principal returned by login and GET /me.
// KiosID and Kios are only set for the kios-owner role.
type User struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      UserRole  `json:"role"`
	IsActive  bool      `json:"is_active"`
	KiosID    *uint     `json:"kios_id,omitempty"`
	Kios      *Kios     `json:"kios,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
