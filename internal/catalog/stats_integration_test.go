package catalog

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
// Sayaçlar ortak veritabanında mutlak değil, test öncesi/sonrası farkla doğrulanır.
func TestCustomerStatsAndLowStockIntegration(t *testing.T) {
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
		&models.Customer{},
		&models.SalesInvoice{},
	); err != nil {
		t.Fatalf("migration başarısız: %v", err)
	}
	database.DB = db

	app := fiber.New()
	app.Get("/customers/stats", CustomerStatsHandler())
	app.Get("/products/low-stock", ListLowStockProductsHandler())

	type statsBody struct {
		Data struct {
			TotalCustomers  int64 `json:"total_customers"`
			ActiveCustomers int64 `json:"active_customers"`
		} `json:"data"`
	}
	getStats := func() statsBody {
		req := httptest.NewRequest(fiber.MethodGet, "/customers/stats", nil)
		resp, err := app.Test(req, 10000)
		if err != nil {
			t.Fatalf("istek başarısız: %v", err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("durum kodu %d, istenen 200", resp.StatusCode)
		}
		var out statsBody
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("yanıt çözülemedi: %v", err)
		}
		return out
	}

	before := getStats()

	user := models.User{Name: "Test Kasiyer", Email: uuid.NewString() + "@test.local", PasswordHash: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("kullanıcı oluşturulamadı: %v", err)
	}

	// Biri pozitif tutarlı faturayla aktif, diğeri faturasız
	active := models.Customer{Name: "Aktif Müşteri " + uuid.NewString()[:8], Phone: uuid.NewString()[:16]}
	idle := models.Customer{Name: "Pasif Müşteri " + uuid.NewString()[:8], Phone: uuid.NewString()[:16]}
	if err := db.Create(&active).Error; err != nil {
		t.Fatalf("müşteri oluşturulamadı: %v", err)
	}
	if err := db.Create(&idle).Error; err != nil {
		t.Fatalf("müşteri oluşturulamadı: %v", err)
	}
	invoice := models.SalesInvoice{
		InvoiceNumber: "SINV-T-" + uuid.NewString()[:8],
		Date:          time.Now(),
		CustomerID:    &active.ID,
		CustomerName:  active.Name,
		TotalAmount:   d("100"),
		PaidAmount:    d("100"),
		Status:        models.SalesStatusPaid,
		UserID:        user.ID,
		CashierID:     user.ID,
	}
	if err := db.Create(&invoice).Error; err != nil {
		t.Fatalf("fatura oluşturulamadı: %v", err)
	}

	after := getStats()
	if got := after.Data.TotalCustomers - before.Data.TotalCustomers; got != 2 {
		t.Errorf("toplam müşteri artışı %d, istenen 2", got)
	}
	if got := after.Data.ActiveCustomers - before.Data.ActiveCustomers; got != 1 {
		t.Errorf("aktif müşteri artışı %d, istenen 1", got)
	}

	// Düşük stok listesi eşiğin altındakini içerir, üstündekini içermez
	category := models.Category{Name: "Kategori " + uuid.NewString()[:8]}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("kategori oluşturulamadı: %v", err)
	}
	low := models.Product{Name: "Azalan Ürün " + uuid.NewString()[:8], Barcode: uuid.NewString(),
		CategoryID: category.ID, Stock: d("2"), MinStock: d("5")}
	healthy := models.Product{Name: "Bol Ürün " + uuid.NewString()[:8], Barcode: uuid.NewString(),
		CategoryID: category.ID, Stock: d("50"), MinStock: d("5")}
	if err := db.Create(&low).Error; err != nil {
		t.Fatalf("ürün oluşturulamadı: %v", err)
	}
	if err := db.Create(&healthy).Error; err != nil {
		t.Fatalf("ürün oluşturulamadı: %v", err)
	}

	req := httptest.NewRequest(fiber.MethodGet, "/products/low-stock", nil)
	resp, err := app.Test(req, 10000)
	if err != nil {
		t.Fatalf("istek başarısız: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("durum kodu %d, istenen 200", resp.StatusCode)
	}
	var listBody struct {
		Data []models.Product `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listBody); err != nil {
		t.Fatalf("yanıt çözülemedi: %v", err)
	}
	foundLow, foundHealthy := false, false
	for _, p := range listBody.Data {
		if p.ID == low.ID {
			foundLow = true
		}
		if p.ID == healthy.ID {
			foundHealthy = true
		}
	}
	if !foundLow {
		t.Error("eşiğin altındaki ürün listede yok")
	}
	if foundHealthy {
		t.Error("eşiğin üstündeki ürün listede olmamalı")
	}
}
