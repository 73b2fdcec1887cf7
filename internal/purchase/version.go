package purchase

import (
	"encoding/json"
	"fmt"

	"marketpos-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VersionItem - versiyon kaydındaki kalem anlık görüntüsü. Ürün adı ve
// kategorisi yazma anında kopyalanır; ürün sonradan değişse veya silinse
// bile geçmiş görünüm aynı kalır.
type VersionItem struct {
	ProductID     uint             `json:"product_id"`
	Quantity      decimal.Decimal  `json:"quantity"`
	UnitPrice     decimal.Decimal  `json:"unit_price"`
	NumberOfUnits decimal.Decimal  `json:"number_of_units"`
	AmountPaid    decimal.Decimal  `json:"amount_paid"`
	TotalPrice    decimal.Decimal  `json:"total_price"`
	ExpiryDate    *string          `json:"expiry_date"`
	Product       *VersionProduct  `json:"product"`
}

type VersionProduct struct {
	ID       uint             `json:"id"`
	Name     string           `json:"name"`
	Category *VersionCategory `json:"category"`
}

type VersionCategory struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// writeVersion - faturanın MEVCUT halini versiyon kaydına yazar.
// Güncelleme/ödeme/silme akışlarında değişiklik uygulanmadan ÖNCE çağrılır.
// Kayıtlar salt eklemelidir; hiçbir akış versiyon satırı güncellemez.
func writeVersion(tx *gorm.DB, inv *models.PurchaseInvoice, versionType string, isDeleted bool, actor *models.User) error {
	items := make([]VersionItem, 0, len(inv.Items))
	for _, it := range inv.Items {
		vi := VersionItem{
			ProductID:     it.ProductID,
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice,
			NumberOfUnits: it.NumberOfUnits,
			AmountPaid:    it.AmountPaid,
			TotalPrice:    it.TotalPrice,
		}
		if it.ExpiryDate != nil {
			s := it.ExpiryDate.Format("2006-01-02")
			vi.ExpiryDate = &s
		}
		if it.Product != nil {
			vp := &VersionProduct{ID: it.Product.ID, Name: it.Product.Name}
			if it.Product.Category != nil {
				vp.Category = &VersionCategory{
					ID:    it.Product.Category.ID,
					Name:  it.Product.Category.Name,
					Color: it.Product.Category.Color,
				}
			}
			vi.Product = vp
		}
		items = append(items, vi)
	}

	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("versiyon kalemleri serileştirilemedi: %w", err)
	}

	userID := inv.UserID
	cashierID := inv.CashierID
	version := models.PurchaseInvoiceVersion{
		PurchaseInvoiceID: inv.ID,
		InvoiceNumber:     inv.InvoiceNumber,
		Date:              inv.Date,
		SupplierID:        inv.SupplierID,
		TotalAmount:       inv.TotalAmount,
		AmountPaid:        inv.AmountPaid,
		Notes:             inv.Notes,
		UserID:            &userID,
		CashierID:         &cashierID,
		CashierName:       inv.CashierName,
		UserName:          inv.UserName,
		Items:             string(raw),
		VersionType:       versionType,
		IsDeleted:         isDeleted,
	}
	if actor != nil {
		actorID := actor.ID
		version.UpdatedBy = &actorID
	}

	if err := tx.Create(&version).Error; err != nil {
		return fmt.Errorf("versiyon kaydı oluşturulamadı: %w", err)
	}

	return nil
}
