package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"size:100;not null" json:"name"`
	Email        string         `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"size:255;not null" json:"-"`
	Roles        []Role         `gorm:"many2many:user_roles" json:"roles,omitempty"`
	Permissions  []Permission   `gorm:"many2many:user_permissions" json:"permissions,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// AllPermissionNames - rollerden gelen ve doğrudan atanan izinlerin birleşimi
func (u *User) AllPermissionNames() []string {
	seen := make(map[string]bool)
	names := make([]string, 0)

	for _, p := range u.Permissions {
		if !seen[p.Name] {
			seen[p.Name] = true
			names = append(names, p.Name)
		}
	}
	for _, r := range u.Roles {
		for _, p := range r.Permissions {
			if !seen[p.Name] {
				seen[p.Name] = true
				names = append(names, p.Name)
			}
		}
	}

	return names
}

// HasPermission - izin adına göre kontrol
func (u *User) HasPermission(name string) bool {
	for _, n := range u.AllPermissionNames() {
		if n == name {
			return true
		}
	}
	return false
}
