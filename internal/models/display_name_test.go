package models

import (
	"testing"
	"time"

	"gorm.io/gorm"
)

func TestDisplayName(t *testing.T) {
	live := &User{ID: 1, Name: "Ayşe"}
	deleted := &User{
		ID:        2,
		Name:      "Mehmet",
		DeletedAt: gorm.DeletedAt{Time: time.Now(), Valid: true},
	}

	tests := []struct {
		name     string
		snapshot string
		user     *User
		want     string
	}{
		{"anlık isim ve canlı kullanıcı", "Ali", live, "Ali"},
		{"anlık isim yok, canlı kullanıcı var", "", live, "Ayşe"},
		{"anlık isim var, kullanıcı silinmiş", "Mehmet", deleted, "Mehmet (silinmiş)"},
		{"anlık isim yok, kullanıcı silinmiş", "", deleted, "Mehmet (silinmiş)"},
		{"anlık isim var, kullanıcı kalıcı silinmiş", "Ali", nil, "Ali (silinmiş)"},
		{"ne anlık isim ne kullanıcı", "", nil, DeletedUserPlaceholder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayName(tt.snapshot, tt.user); got != tt.want {
				t.Errorf("DisplayName(%q, ...) = %q, istenen %q", tt.snapshot, got, tt.want)
			}
		})
	}
}

func TestAllPermissionNames(t *testing.T) {
	user := &User{
		Permissions: []Permission{{Name: "sales.view"}},
		Roles: []Role{
			{Name: "admin", Permissions: []Permission{{Name: "sales.view"}, {Name: "sales.manage"}}},
		},
	}

	names := user.AllPermissionNames()
	if len(names) != 2 {
		t.Fatalf("izin sayısı %d, istenen 2 (tekrarlar elenmiş olmalı): %v", len(names), names)
	}
	if !user.HasPermission("sales.manage") {
		t.Error("rolden gelen izin bulunamadı")
	}
	if user.HasPermission("users.manage") {
		t.Error("atanmamış izin true döndü")
	}
}
