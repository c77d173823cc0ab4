package models

import "time"

// Role is the coarse access level carried in bearer tokens.
type Role string

const (
	RoleUser       Role = "user"
	RoleTechnician Role = "technician"
	RoleAdmin      Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleTechnician, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the role may triage tickets.
func (r Role) IsStaff() bool {
	return r == RoleTechnician || r == RoleAdmin
}

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	Password  string    `gorm:"not null" json:"-"`
	FullName  string    `gorm:"type:varchar(255)" json:"fullName"`
	Role      Role      `gorm:"type:varchar(32);not null;default:'user'" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// All lists every persisted model, in migration order.
func All() []any {
	return []any{&User{}, &Equipment{}, &RepairTicket{}}
}
