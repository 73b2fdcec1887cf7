package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Versiyon tipleri - her mutasyondan ÖNCE yazılan anlık görüntünün nedeni
const (
	VersionTypeInitial       = "initial"
	VersionTypeUpdate        = "update"
	VersionTypePaymentUpdate = "payment_update"
	VersionTypeDelete        = "delete"
)

type PurchaseInvoice struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	InvoiceNumber string          `gorm:"size:64;uniqueIndex;not null" json:"invoice_number"`
	Date          time.Time       `gorm:"index;not null" json:"date"`
	SupplierID    uint            `gorm:"index;not null" json:"supplier_id"`
	Supplier      *Supplier       `json:"supplier,omitempty"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	AmountPaid    decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"amount_paid"`
	Notes         string          `gorm:"type:text" json:"notes"`
	UserID        uint            `gorm:"not null" json:"user_id"`
	Creator       *User           `gorm:"foreignKey:UserID" json:"creator,omitempty"`
	UpdatedBy     *uint           `json:"updated_by"`
	Updater       *User           `gorm:"foreignKey:UpdatedBy" json:"updater,omitempty"`
	CashierID     uint            `gorm:"not null" json:"cashier_id"`
	Cashier       *User           `gorm:"foreignKey:CashierID" json:"cashier,omitempty"`
	// Yazma anında kopyalanan isimler; kullanıcı silinse de faturada kalır
	CashierName string                `gorm:"size:255" json:"cashier_name"`
	UserName    string                `gorm:"size:255" json:"user_name"`
	Items       []PurchaseInvoiceItem `gorm:"foreignKey:PurchaseInvoiceID" json:"items,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

type PurchaseInvoiceItem struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	PurchaseInvoiceID uint            `gorm:"index;not null" json:"purchase_invoice_id"`
	ProductID         uint            `gorm:"index;not null" json:"product_id"`
	Product           *Product        `json:"product,omitempty"`
	Quantity          decimal.Decimal `gorm:"type:decimal(10,3);not null" json:"quantity"`
	UnitPrice         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	NumberOfUnits     decimal.Decimal `gorm:"type:decimal(10,3);not null" json:"number_of_units"`
	AmountPaid        decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"amount_paid"`
	TotalPrice        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_price"`
	ExpiryDate        *time.Time      `gorm:"index" json:"expiry_date"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// StockContribution - kalemin stok katkısı (quantity * number_of_units)
func (i *PurchaseInvoiceItem) StockContribution() decimal.Decimal {
	return i.Quantity.Mul(i.NumberOfUnits)
}

// PurchaseInvoiceVersion - salt eklenen denetim kaydı; asla güncellenmez veya silinmez.
// Items alanı, ürün adı ve kategorisi de dahil olmak üzere anlık görüntü JSON'ıdır,
// ürün sonradan değişse bile geçmiş görünüm bozulmaz.
type PurchaseInvoiceVersion struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	PurchaseInvoiceID uint            `gorm:"index;not null" json:"purchase_invoice_id"`
	InvoiceNumber     string          `gorm:"size:64;not null" json:"invoice_number"`
	Date              time.Time       `gorm:"not null" json:"date"`
	SupplierID        uint            `gorm:"not null" json:"supplier_id"`
	Supplier          *Supplier       `json:"supplier,omitempty"`
	TotalAmount       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	AmountPaid        decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"amount_paid"`
	Notes             string          `gorm:"type:text" json:"notes"`
	UserID            *uint           `json:"user_id"`
	Creator           *User           `gorm:"foreignKey:UserID" json:"creator,omitempty"`
	UpdatedBy         *uint           `json:"updated_by"`
	Updater           *User           `gorm:"foreignKey:UpdatedBy" json:"updater,omitempty"`
	CashierID         *uint           `json:"cashier_id"`
	Cashier           *User           `gorm:"foreignKey:CashierID" json:"cashier,omitempty"`
	CashierName       string          `gorm:"size:255" json:"cashier_name"`
	UserName          string          `gorm:"size:255" json:"user_name"`
	Items             string          `gorm:"type:jsonb;not null" json:"-"`
	VersionType       string          `gorm:"size:32;not null" json:"version_type"`
	IsDeleted         bool            `gorm:"default:false" json:"is_deleted"`
	CreatedAt         time.Time       `json:"created_at"`
}
