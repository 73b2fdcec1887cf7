package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Satış faturası ödeme durumları
const (
	SalesStatusPaid    = "paid"
	SalesStatusPartial = "partial"
	SalesStatusUnpaid  = "unpaid"
)

type SalesInvoice struct {
	ID            uint               `gorm:"primaryKey" json:"id"`
	InvoiceNumber string             `gorm:"size:64;uniqueIndex;not null" json:"invoice_number"`
	Date          time.Time          `gorm:"index;not null" json:"date"`
	CustomerID    *uint              `gorm:"index" json:"customer_id"`
	Customer      *Customer          `json:"customer,omitempty"`
	CustomerName  string             `gorm:"size:255;not null" json:"customer_name"`
	Phone         string             `gorm:"size:20" json:"phone"`
	TotalAmount   decimal.Decimal    `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	PaidAmount    decimal.Decimal    `gorm:"type:decimal(10,2);default:0" json:"paid_amount"`
	PaymentMethod string             `gorm:"size:32;default:cash" json:"payment_method"`
	Status        string             `gorm:"size:16;not null" json:"status"`
	Notes         string             `gorm:"type:text" json:"notes"`
	UserID        uint               `gorm:"not null" json:"user_id"`
	Creator       *User              `gorm:"foreignKey:UserID" json:"creator,omitempty"`
	CashierID     uint               `gorm:"not null" json:"cashier_id"`
	Cashier       *User              `gorm:"foreignKey:CashierID" json:"cashier,omitempty"`
	UserName      string             `gorm:"size:255" json:"user_name"`
	CashierName   string             `gorm:"size:255" json:"cashier_name"`
	Items         []SalesInvoiceItem `gorm:"foreignKey:SalesInvoiceID" json:"items,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

type SalesInvoiceItem struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	SalesInvoiceID uint            `gorm:"index;not null" json:"sales_invoice_id"`
	ProductID      uint            `gorm:"index;not null" json:"product_id"`
	Product        *Product        `json:"product,omitempty"`
	Quantity       decimal.Decimal `gorm:"type:decimal(10,3);not null" json:"quantity"`
	// O ana kadar iade edilen toplam; yeni iadeler bununla sınırlanır
	ReturnedQuantity decimal.Decimal `gorm:"type:decimal(10,3);default:0" json:"returned_quantity"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	TotalPrice       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_price"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// SalesStatus - toplam ve ödenen tutardan ödeme durumunu türetir
func SalesStatus(total, paid decimal.Decimal) string {
	if paid.GreaterThanOrEqual(total) {
		return SalesStatusPaid
	}
	if paid.IsPositive() {
		return SalesStatusPartial
	}
	return SalesStatusUnpaid
}
