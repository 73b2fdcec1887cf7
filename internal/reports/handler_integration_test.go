package reports

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"marketpos-backend/internal/database"
	"marketpos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Gerçek Postgres ister; INTEGRATION_TESTS=1 ve TEST_DATABASE_DSN ile çalışır.
// Ortak veritabanındaki diğer kayıtlardan etkilenmemek için faturalar uzak bir
// tarihe yazılır ve sorgular o güne daraltılır.
func TestSummaryAggregatesIntegration(t *testing.T) {
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("INTEGRATION_TESTS=1 tanımlı değil, atlanıyor")
	}
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN tanımlı değil, atlanıyor")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("veritabanına bağlanılamadı: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.Supplier{},
		&models.Customer{},
		&models.SalesInvoice{},
		&models.SalesInvoiceItem{},
		&models.PurchaseInvoice{},
		&models.PurchaseInvoiceItem{},
	); err != nil {
		t.Fatalf("migration başarısız: %v", err)
	}
	database.DB = db

	user := models.User{Name: "Test Kasiyer", Email: uuid.NewString() + "@test.local", PasswordHash: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("kullanıcı oluşturulamadı: %v", err)
	}

	day := time.Date(2031, 5, 10, 12, 0, 0, 0, time.UTC)
	window := "date_from=2031-05-10&date_to=2031-05-10"

	bigCustomer := "Müşteri A " + uuid.NewString()[:8]
	smallCustomer := "Müşteri B " + uuid.NewString()[:8]
	salesRows := []models.SalesInvoice{
		{InvoiceNumber: "SINV-T-" + uuid.NewString()[:8], Date: day, CustomerName: bigCustomer,
			TotalAmount: d("300"), PaidAmount: d("300"), PaymentMethod: "cash",
			Status: models.SalesStatusPaid, UserID: user.ID, CashierID: user.ID},
		{InvoiceNumber: "SINV-T-" + uuid.NewString()[:8], Date: day, CustomerName: bigCustomer,
			TotalAmount: d("200"), PaidAmount: d("100"), PaymentMethod: "card",
			Status: models.SalesStatusPartial, UserID: user.ID, CashierID: user.ID},
		{InvoiceNumber: "SINV-T-" + uuid.NewString()[:8], Date: day, CustomerName: smallCustomer,
			TotalAmount: d("50"), PaidAmount: d("0"), PaymentMethod: "cash",
			Status: models.SalesStatusUnpaid, UserID: user.ID, CashierID: user.ID},
	}
	for i := range salesRows {
		if err := db.Create(&salesRows[i]).Error; err != nil {
			t.Fatalf("satış faturası oluşturulamadı: %v", err)
		}
	}

	supplier := models.Supplier{Name: "Tedarikçi " + uuid.NewString()[:8], Phone: uuid.NewString()[:16]}
	if err := db.Create(&supplier).Error; err != nil {
		t.Fatalf("tedarikçi oluşturulamadı: %v", err)
	}
	category := models.Category{Name: "Kategori " + uuid.NewString()[:8]}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("kategori oluşturulamadı: %v", err)
	}
	product := models.Product{Name: "Ürün " + uuid.NewString()[:8], Barcode: uuid.NewString(), CategoryID: category.ID}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("ürün oluşturulamadı: %v", err)
	}
	purchaseInvoice := models.PurchaseInvoice{
		InvoiceNumber: "PINV-T-" + uuid.NewString()[:8],
		Date:          day,
		SupplierID:    supplier.ID,
		TotalAmount:   d("400"),
		AmountPaid:    d("150"),
		UserID:        user.ID,
		CashierID:     user.ID,
	}
	if err := db.Create(&purchaseInvoice).Error; err != nil {
		t.Fatalf("alış faturası oluşturulamadı: %v", err)
	}
	item := models.PurchaseInvoiceItem{
		PurchaseInvoiceID: purchaseInvoice.ID,
		ProductID:         product.ID,
		Quantity:          d("40"),
		UnitPrice:         d("5"),
		NumberOfUnits:     d("2"),
		TotalPrice:        d("400"),
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("alış kalemi oluşturulamadı: %v", err)
	}

	app := fiber.New()
	app.Get("/reports/sales-summary", SalesSummaryHandler())
	app.Get("/reports/purchase-summary", PurchaseSummaryHandler())

	get := func(path string, out any) {
		req := httptest.NewRequest(fiber.MethodGet, path, nil)
		resp, err := app.Test(req, 10000)
		if err != nil {
			t.Fatalf("istek başarısız: %v", err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("%s durum kodu %d, istenen 200", path, resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("yanıt çözülemedi: %v", err)
		}
	}

	var salesResp struct {
		Summary        []SummaryRow       `json:"summary"`
		TopCustomers   []TopCustomerRow   `json:"top_customers"`
		PaymentMethods []PaymentMethodRow `json:"payment_methods"`
	}
	get("/reports/sales-summary?"+window, &salesResp)

	if len(salesResp.Summary) != 1 {
		t.Fatalf("özet satırı sayısı %d, istenen 1", len(salesResp.Summary))
	}
	if !salesResp.Summary[0].TotalDue.Equal(d("150")) {
		t.Errorf("kalan tutar %s, istenen 150", salesResp.Summary[0].TotalDue)
	}
	if len(salesResp.TopCustomers) != 2 {
		t.Fatalf("müşteri satırı sayısı %d, istenen 2", len(salesResp.TopCustomers))
	}
	if salesResp.TopCustomers[0].CustomerName != bigCustomer {
		t.Errorf("ilk müşteri %q, istenen %q", salesResp.TopCustomers[0].CustomerName, bigCustomer)
	}
	if !salesResp.TopCustomers[0].TotalSales.Equal(d("500")) {
		t.Errorf("ilk müşteri toplamı %s, istenen 500", salesResp.TopCustomers[0].TotalSales)
	}
	methods := make(map[string]PaymentMethodRow)
	for _, m := range salesResp.PaymentMethods {
		methods[m.PaymentMethod] = m
	}
	if row, ok := methods["cash"]; !ok || row.InvoicesCount != 2 || !row.Total.Equal(d("350")) {
		t.Errorf("nakit kırılımı beklenmedik: %+v", methods["cash"])
	}
	if row, ok := methods["card"]; !ok || row.InvoicesCount != 1 || !row.Total.Equal(d("200")) {
		t.Errorf("kart kırılımı beklenmedik: %+v", methods["card"])
	}

	var purchaseResp struct {
		Summary      []SummaryRow          `json:"summary"`
		TopSuppliers []TopSupplierRow      `json:"top_suppliers"`
		TopProducts  []PurchasedProductRow `json:"top_products"`
	}
	get("/reports/purchase-summary?"+window, &purchaseResp)

	if len(purchaseResp.Summary) != 1 {
		t.Fatalf("alış özeti satırı sayısı %d, istenen 1", len(purchaseResp.Summary))
	}
	if !purchaseResp.Summary[0].TotalDue.Equal(d("250")) {
		t.Errorf("alış kalan tutarı %s, istenen 250", purchaseResp.Summary[0].TotalDue)
	}
	if len(purchaseResp.TopSuppliers) != 1 {
		t.Fatalf("tedarikçi satırı sayısı %d, istenen 1", len(purchaseResp.TopSuppliers))
	}
	sup := purchaseResp.TopSuppliers[0]
	if sup.SupplierName != supplier.Name || !sup.TotalPurchases.Equal(d("400")) || !sup.TotalPaid.Equal(d("150")) {
		t.Errorf("tedarikçi satırı beklenmedik: %+v", sup)
	}
	if len(purchaseResp.TopProducts) != 1 {
		t.Fatalf("ürün satırı sayısı %d, istenen 1", len(purchaseResp.TopProducts))
	}
	prod := purchaseResp.TopProducts[0]
	if prod.ProductName != product.Name || !prod.QuantityPurchased.Equal(d("40")) || !prod.AveragePrice.Equal(d("5")) {
		t.Errorf("ürün satırı beklenmedik: %+v", prod)
	}
}
