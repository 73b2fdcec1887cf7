package models

import "time"

// Customer - toplam alışveriş sayısı ve tutarı saklanmaz,
// listeleme sorgularında sales_invoices üzerinden canlı hesaplanır
type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Phone     string    `gorm:"size:20;uniqueIndex;not null" json:"phone"`
	Email     string    `gorm:"size:255" json:"email"`
	Address   string    `gorm:"size:255" json:"address"`
	Notes     string    `gorm:"size:1000" json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
