package models

import (
	"time"
)

const (
	RoleStudent = "Student"
	RoleTutor   = "Tutor"
	RoleAdmin   = "Admin"
)

type User struct {
	ID        uint      `gorm:"primaryKey" json:"userID"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Role      string    `gorm:"size:20;default:'Student';not null" json:"current_role"`
	Detail    string    `gorm:"type:text" json:"more_detail"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
