package purchase

import (
	"fmt"

	"marketpos-backend/internal/models"

	"github.com/shopspring/decimal"
)

// ItemInput - fatura oluşturma/güncellemede gönderilen kalem.
// Güncelleme tam mutabakattır: istemci kalem setinin TAMAMINI yeniden gönderir.
type ItemInput struct {
	ProductID     uint            `json:"product_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	NumberOfUnits decimal.Decimal `json:"number_of_units"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	ExpiryDate    string          `json:"expiry_date"` // "2006-01-02", opsiyonel
}

// Total - kalem tutarı: quantity * unit_price * number_of_units
func (it ItemInput) Total() decimal.Decimal {
	return it.Quantity.Mul(it.UnitPrice).Mul(it.NumberOfUnits)
}

// StockContribution - kalemin stok katkısı: quantity * number_of_units
func (it ItemInput) StockContribution() decimal.Decimal {
	return it.Quantity.Mul(it.NumberOfUnits)
}

// InvoiceTotals - fatura toplamı ve kalem bazlı ödenen toplam
func InvoiceTotals(items []ItemInput) (total, paid decimal.Decimal) {
	for _, it := range items {
		total = total.Add(it.Total())
		paid = paid.Add(it.AmountPaid)
	}
	return total, paid
}

// ValidateItems - kalem alanlarının aralık kontrolleri; hata varsa
// 422 gövdesine girecek alan->mesaj haritası döner
func ValidateItems(items []ItemInput) map[string]string {
	if len(items) == 0 {
		return map[string]string{"items": "En az bir kalem gerekli"}
	}

	one := decimal.NewFromInt(1)
	errs := make(map[string]string)
	for i, it := range items {
		switch {
		case it.ProductID == 0:
			errs[fmt.Sprintf("items.%d.product_id", i)] = "product_id zorunlu"
		case it.Quantity.LessThan(one):
			errs[fmt.Sprintf("items.%d.quantity", i)] = "quantity en az 1 olmalı"
		case it.UnitPrice.IsNegative():
			errs[fmt.Sprintf("items.%d.unit_price", i)] = "unit_price negatif olamaz"
		case it.NumberOfUnits.LessThan(one):
			errs[fmt.Sprintf("items.%d.number_of_units", i)] = "number_of_units en az 1 olmalı"
		case it.AmountPaid.IsNegative():
			errs[fmt.Sprintf("items.%d.amount_paid", i)] = "amount_paid negatif olamaz"
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ItemChange - mevcut kalemin yeni girdiyle güncellenmesi
type ItemChange struct {
	Existing models.PurchaseInvoiceItem
	Input    ItemInput
	// StockDelta = yeni katkı - eski katkı; işaretli
	StockDelta decimal.Decimal
}

// Plan - güncelleme mutabakatının sonucu. Gönderilen sette olmayan mevcut
// kalemler silinir ve stok katkıları tamamen geri alınır.
type Plan struct {
	Updates []ItemChange
	Creates []ItemInput
	Deletes []models.PurchaseInvoiceItem
}

// BuildPlan - mevcut kalemleri (ürüne göre) gönderilen setle eşleştirir.
// Eşleşen kalem yerinde güncellenir ve stok farkı işaretli uygulanır,
// yeni ürün kalem olarak eklenir (tam katkı), gönderilmeyen kalem silinir
// (katkı tam geri alınır).
func BuildPlan(existing []models.PurchaseInvoiceItem, submitted []ItemInput) Plan {
	byProduct := make(map[uint]models.PurchaseInvoiceItem, len(existing))
	for _, it := range existing {
		byProduct[it.ProductID] = it
	}

	var plan Plan
	for _, in := range submitted {
		old, ok := byProduct[in.ProductID]
		if ok {
			plan.Updates = append(plan.Updates, ItemChange{
				Existing:   old,
				Input:      in,
				StockDelta: in.StockContribution().Sub(old.StockContribution()),
			})
			delete(byProduct, in.ProductID)
		} else {
			plan.Creates = append(plan.Creates, in)
		}
	}

	for _, it := range existing {
		if _, stillThere := byProduct[it.ProductID]; stillThere {
			plan.Deletes = append(plan.Deletes, it)
		}
	}

	return plan
}

// NetStockDeltas - planın ürün bazında net stok etkisi
func NetStockDeltas(plan Plan) map[uint]decimal.Decimal {
	deltas := make(map[uint]decimal.Decimal)
	for _, ch := range plan.Updates {
		deltas[ch.Existing.ProductID] = deltas[ch.Existing.ProductID].Add(ch.StockDelta)
	}
	for _, in := range plan.Creates {
		deltas[in.ProductID] = deltas[in.ProductID].Add(in.StockContribution())
	}
	for _, it := range plan.Deletes {
		deltas[it.ProductID] = deltas[it.ProductID].Sub(it.StockContribution())
	}
	return deltas
}
