package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"size:255;not null" json:"name"`
	Barcode       string          `gorm:"size:64;uniqueIndex;not null" json:"barcode"`
	CategoryID    uint            `gorm:"index;not null" json:"category_id"`
	Category      *Category       `json:"category,omitempty"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"purchase_price"`
	SalePrice     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"sale_price"`
	// Stok yalnızca fatura kalemleri ve iadeler üzerinden değişir
	Stock       decimal.Decimal `gorm:"type:decimal(10,3);default:0" json:"stock"`
	MinStock    decimal.Decimal `gorm:"type:decimal(10,3);default:0" json:"min_stock"`
	Description string          `gorm:"type:text" json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
