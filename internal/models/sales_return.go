package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type SalesReturn struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	ReturnNumber   string            `gorm:"size:64;uniqueIndex;not null" json:"return_number"`
	Date           time.Time         `gorm:"index;not null" json:"date"`
	SalesInvoiceID uint              `gorm:"index;not null" json:"sales_invoice_id"`
	Invoice        *SalesInvoice     `gorm:"foreignKey:SalesInvoiceID" json:"invoice,omitempty"`
	TotalAmount    decimal.Decimal   `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	Notes          string            `gorm:"size:500" json:"notes"`
	UserID         uint              `gorm:"not null" json:"user_id"`
	User           *User             `json:"user,omitempty"`
	Items          []SalesReturnItem `gorm:"foreignKey:SalesReturnID" json:"items,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

type SalesReturnItem struct {
	ID                 uint              `gorm:"primaryKey" json:"id"`
	SalesReturnID      uint              `gorm:"index;not null" json:"sales_return_id"`
	SalesInvoiceItemID uint              `gorm:"index;not null" json:"sales_invoice_item_id"`
	SalesInvoiceItem   *SalesInvoiceItem `json:"sales_invoice_item,omitempty"`
	ProductID          uint              `gorm:"index;not null" json:"product_id"`
	Product            *Product          `json:"product,omitempty"`
	Quantity           decimal.Decimal   `gorm:"type:decimal(10,3);not null" json:"quantity"`
	UnitPrice          decimal.Decimal   `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	TotalPrice         decimal.Decimal   `gorm:"type:decimal(10,2);not null" json:"total_price"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// MaxReturnable - satış kaleminden halen iade edilebilecek miktar
func MaxReturnable(item *SalesInvoiceItem) decimal.Decimal {
	return item.Quantity.Sub(item.ReturnedQuantity)
}
