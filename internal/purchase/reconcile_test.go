package purchase

import (
	"testing"

	"marketpos-backend/internal/models"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestItemTotals(t *testing.T) {
	// 10 adet x 5 birim fiyat x 2 koli = 100, stok katkısı 10 x 2 = 20
	item := ItemInput{
		ProductID:     1,
		Quantity:      d("10"),
		UnitPrice:     d("5"),
		NumberOfUnits: d("2"),
		AmountPaid:    d("80"),
	}

	if got := item.Total(); !got.Equal(d("100")) {
		t.Errorf("Total = %s, istenen 100", got)
	}
	if got := item.StockContribution(); !got.Equal(d("20")) {
		t.Errorf("StockContribution = %s, istenen 20", got)
	}

	total, paid := InvoiceTotals([]ItemInput{item, {
		ProductID:     2,
		Quantity:      d("1"),
		UnitPrice:     d("30"),
		NumberOfUnits: d("1"),
		AmountPaid:    d("30"),
	}})
	if !total.Equal(d("130")) {
		t.Errorf("fatura toplamı %s, istenen 130", total)
	}
	if !paid.Equal(d("110")) {
		t.Errorf("ödenen toplam %s, istenen 110", paid)
	}
}

func TestValidateItems(t *testing.T) {
	valid := ItemInput{ProductID: 1, Quantity: d("1"), UnitPrice: d("0"), NumberOfUnits: d("1")}

	if errs := ValidateItems([]ItemInput{valid}); errs != nil {
		t.Errorf("geçerli kalem hata döndürdü: %v", errs)
	}
	if errs := ValidateItems(nil); errs == nil {
		t.Error("boş kalem listesi kabul edildi")
	}

	bad := valid
	bad.Quantity = d("0.5")
	errs := ValidateItems([]ItemInput{valid, bad})
	if errs == nil {
		t.Fatal("miktarı 1'in altında kalem kabul edildi")
	}
	if _, ok := errs["items.1.quantity"]; !ok {
		t.Errorf("hata anahtarı items.1.quantity bekleniyordu: %v", errs)
	}

	neg := valid
	neg.AmountPaid = d("-1")
	if errs := ValidateItems([]ItemInput{neg}); errs == nil {
		t.Error("negatif amount_paid kabul edildi")
	}
}

func existingItem(id, productID uint, qty, units string) models.PurchaseInvoiceItem {
	return models.PurchaseInvoiceItem{
		ID:            id,
		ProductID:     productID,
		Quantity:      d(qty),
		UnitPrice:     d("5"),
		NumberOfUnits: d(units),
	}
}

func TestBuildPlanUpdateDelta(t *testing.T) {
	// Mevcut: 10 x 2 koli = 20 stok. Yeni: 5 x 2 = 10. Fark -10 olmalı.
	existing := []models.PurchaseInvoiceItem{existingItem(1, 7, "10", "2")}
	submitted := []ItemInput{{ProductID: 7, Quantity: d("5"), UnitPrice: d("5"), NumberOfUnits: d("2")}}

	plan := BuildPlan(existing, submitted)
	if len(plan.Updates) != 1 || len(plan.Creates) != 0 || len(plan.Deletes) != 0 {
		t.Fatalf("plan beklenmedik: %+v", plan)
	}
	if !plan.Updates[0].StockDelta.Equal(d("-10")) {
		t.Errorf("StockDelta = %s, istenen -10", plan.Updates[0].StockDelta)
	}

	deltas := NetStockDeltas(plan)
	if !deltas[7].Equal(d("-10")) {
		t.Errorf("net delta = %s, istenen -10", deltas[7])
	}
}

func TestBuildPlanCreateAndDelete(t *testing.T) {
	existing := []models.PurchaseInvoiceItem{
		existingItem(1, 7, "10", "2"), // gönderilmiyor -> silinecek, -20
		existingItem(2, 8, "3", "1"),  // aynı kalıyor -> delta 0
	}
	submitted := []ItemInput{
		{ProductID: 8, Quantity: d("3"), UnitPrice: d("5"), NumberOfUnits: d("1")},
		{ProductID: 9, Quantity: d("4"), UnitPrice: d("2"), NumberOfUnits: d("3")}, // yeni -> +12
	}

	plan := BuildPlan(existing, submitted)
	if len(plan.Updates) != 1 {
		t.Fatalf("güncelleme sayısı %d, istenen 1", len(plan.Updates))
	}
	if len(plan.Creates) != 1 || plan.Creates[0].ProductID != 9 {
		t.Fatalf("yeni kalem planı beklenmedik: %+v", plan.Creates)
	}
	if len(plan.Deletes) != 1 || plan.Deletes[0].ProductID != 7 {
		t.Fatalf("silme planı beklenmedik: %+v", plan.Deletes)
	}

	deltas := NetStockDeltas(plan)
	if !deltas[7].Equal(d("-20")) {
		t.Errorf("silinen kalemin deltası %s, istenen -20", deltas[7])
	}
	if !deltas[8].IsZero() {
		t.Errorf("değişmeyen kalemin deltası %s, istenen 0", deltas[8])
	}
	if !deltas[9].Equal(d("12")) {
		t.Errorf("yeni kalemin deltası %s, istenen 12", deltas[9])
	}
}
