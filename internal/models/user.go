package models

import "strings"

type UserRole string

const (
	RoleAdmin  UserRole = "ADMIN"
	RoleTester UserRole = "TESTER"
	RoleClient UserRole = "CLIENT"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleTester, RoleClient:
		return true
	}
	return false
}

type User struct {
	Base
	Username     string   `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email        string   `gorm:"size:254" json:"email"`
	FirstName    string   `gorm:"size:150" json:"first_name"`
	LastName     string   `gorm:"size:150" json:"last_name"`
	PasswordHash string   `gorm:"not null" json:"-"`
	Role         UserRole `gorm:"type:varchar(20);not null" json:"role"`
	IsActive     bool     `json:"is_active"`

	// компании, к которым у пользователя есть доступ
	Companies []Company `gorm:"many2many:user_companies;" json:"companies,omitempty"`
}

// DisplayName — "Имя Фамилия" или username, если имя не заполнено.
func (u User) DisplayName() string {
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if full == "" {
		return u.Username
	}
	return full
}
