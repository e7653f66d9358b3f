package model

import (
	"strings"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email    string `gorm:"uniqueIndex;not null"`
	Password string `json:"-" gorm:"not null"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	IsAdmin bool `json:"is_admin" gorm:"default:false"`

	Subscriptions []Subscription `json:"-"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) PublicProfile() map[string]interface{} {
	return map[string]interface{}{
		"id":         u.ID,
		"email":      u.Email,
		"full_name":  u.FullName(),
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"is_admin":   u.IsAdmin,
	}
}
