package sales

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"strconv"
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

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Gerçek Postgres ister; INTEGRATION_TESTS=1 ve TEST_DATABASE_DSN ile çalışır
func TestSaleItemStockIntegration(t *testing.T) {
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
		&models.SalesInvoiceItem{},
	); err != nil {
		t.Fatalf("migration başarısız: %v", err)
	}
	database.DB = db

	user := models.User{Name: "Test Kasiyer", Email: uuid.NewString() + "@test.local", PasswordHash: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("kullanıcı oluşturulamadı: %v", err)
	}
	category := models.Category{Name: "Test Kategori " + uuid.NewString()[:8]}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("kategori oluşturulamadı: %v", err)
	}
	product := models.Product{
		Name:       "Test Ürün",
		Barcode:    uuid.NewString(),
		CategoryID: category.ID,
		SalePrice:  d("10"),
		Stock:      d("5"),
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("ürün oluşturulamadı: %v", err)
	}
	invoice := models.SalesInvoice{
		InvoiceNumber: "SINV-TEST-" + uuid.NewString()[:8],
		Date:          time.Now(),
		CustomerName:  "Test Müşteri",
		Status:        models.SalesStatusUnpaid,
		UserID:        user.ID,
		CashierID:     user.ID,
	}
	if err := db.Create(&invoice).Error; err != nil {
		t.Fatalf("fatura oluşturulamadı: %v", err)
	}

	app := fiber.New()
	app.Post("/sales-invoice-items", AddSaleItemHandler())
	app.Put("/sales-invoice-items/:id", UpdateSaleItemHandler())
	app.Delete("/sales-invoice-items/:id", DeleteSaleItemHandler())

	post := func(path, method string, payload any) int {
		body, _ := json.Marshal(payload)
		req := httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req, 10000)
		if err != nil {
			t.Fatalf("istek başarısız: %v", err)
		}
		return resp.StatusCode
	}

	// Stok 5 iken 8 satılamaz
	code := post("/sales-invoice-items", fiber.MethodPost, CreateSaleItemRequest{
		SalesInvoiceID: invoice.ID,
		ProductID:      product.ID,
		Quantity:       d("8"),
		UnitPrice:      d("10"),
	})
	if code != fiber.StatusUnprocessableEntity {
		t.Fatalf("yetersiz stokta durum kodu %d, istenen 422", code)
	}

	// 3 adet satılır, stok 2'ye düşer
	code = post("/sales-invoice-items", fiber.MethodPost, CreateSaleItemRequest{
		SalesInvoiceID: invoice.ID,
		ProductID:      product.ID,
		Quantity:       d("3"),
		UnitPrice:      d("10"),
	})
	if code != fiber.StatusCreated {
		t.Fatalf("kalem ekleme durum kodu %d, istenen 201", code)
	}

	var fresh models.Product
	if err := db.First(&fresh, product.ID).Error; err != nil {
		t.Fatalf("ürün yüklenemedi: %v", err)
	}
	if !fresh.Stock.Equal(d("2")) {
		t.Errorf("stok %s, istenen 2", fresh.Stock)
	}

	var item models.SalesInvoiceItem
	if err := db.Where("sales_invoice_id = ?", invoice.ID).First(&item).Error; err != nil {
		t.Fatalf("kalem yüklenemedi: %v", err)
	}
	if !item.TotalPrice.Equal(d("30")) {
		t.Errorf("kalem toplamı %s, istenen 30", item.TotalPrice)
	}

	// Mevcut stok + eski miktar yeni miktarı karşılamıyorsa reddedilir (2+3 < 6)
	q6 := d("6")
	code = post("/sales-invoice-items/"+itoa(item.ID), fiber.MethodPut, UpdateSaleItemRequest{Quantity: &q6})
	if code != fiber.StatusUnprocessableEntity {
		t.Fatalf("karşılanamayan güncellemede durum kodu %d, istenen 422", code)
	}

	// 3 -> 5: stok farka göre düzeltilir, 0 kalır
	q5 := d("5")
	code = post("/sales-invoice-items/"+itoa(item.ID), fiber.MethodPut, UpdateSaleItemRequest{Quantity: &q5})
	if code != fiber.StatusOK {
		t.Fatalf("kalem güncelleme durum kodu %d, istenen 200", code)
	}
	if err := db.First(&fresh, product.ID).Error; err != nil {
		t.Fatalf("ürün yüklenemedi: %v", err)
	}
	if !fresh.Stock.Equal(d("0")) {
		t.Errorf("güncelleme sonrası stok %s, istenen 0", fresh.Stock)
	}

	// Silme kalemi stoğa iade eder
	code = post("/sales-invoice-items/"+itoa(item.ID), fiber.MethodDelete, nil)
	if code != fiber.StatusOK {
		t.Fatalf("kalem silme durum kodu %d, istenen 200", code)
	}
	if err := db.First(&fresh, product.ID).Error; err != nil {
		t.Fatalf("ürün yüklenemedi: %v", err)
	}
	if !fresh.Stock.Equal(d("5")) {
		t.Errorf("silme sonrası stok %s, istenen 5", fresh.Stock)
	}
}
