package purchase

import (
	"os"
	"testing"
	"time"

	"marketpos-backend/internal/database"
	"marketpos-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Gerçek Postgres ister; INTEGRATION_TESTS=1 ve TEST_DATABASE_DSN ile çalışır:
//
//	INTEGRATION_TESTS=1 TEST_DATABASE_DSN="host=localhost ..." go test ./internal/purchase/
func TestCreateInvoiceIntegration(t *testing.T) {
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
		&models.PurchaseInvoice{},
		&models.PurchaseInvoiceItem{},
		&models.PurchaseInvoiceVersion{},
	); err != nil {
		t.Fatalf("migration başarısız: %v", err)
	}
	database.DB = db

	user := models.User{Name: "Test Kasiyer", Email: uuid.NewString() + "@test.local", PasswordHash: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("kullanıcı oluşturulamadı: %v", err)
	}
	supplier := models.Supplier{Name: "Test Tedarikçi", Phone: uuid.NewString()[:16]}
	if err := db.Create(&supplier).Error; err != nil {
		t.Fatalf("tedarikçi oluşturulamadı: %v", err)
	}
	category := models.Category{Name: "Test Kategori " + uuid.NewString()[:8]}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("kategori oluşturulamadı: %v", err)
	}
	product := models.Product{
		Name:       "Test Ürün",
		Barcode:    uuid.NewString(),
		CategoryID: category.ID,
		SalePrice:  d("12"),
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("ürün oluşturulamadı: %v", err)
	}

	body := CreateInvoiceRequest{
		SupplierID: supplier.ID,
		Items: []ItemInput{{
			ProductID:     product.ID,
			Quantity:      d("10"),
			UnitPrice:     d("5"),
			NumberOfUnits: d("2"),
			AmountPaid:    d("80"),
		}},
	}
	total, paid := InvoiceTotals(body.Items)

	var invoice models.PurchaseInvoice
	number := "PINV-TEST-" + uuid.NewString()[:8]
	err = db.Transaction(func(tx *gorm.DB) error {
		return createInvoice(tx, &invoice, &body, number, time.Now(), total, paid, &user)
	})
	if err != nil {
		t.Fatalf("fatura oluşturulamadı: %v", err)
	}

	var fresh models.Product
	if err := db.First(&fresh, product.ID).Error; err != nil {
		t.Fatalf("ürün yüklenemedi: %v", err)
	}
	if !fresh.Stock.Equal(d("20")) {
		t.Errorf("stok %s, istenen 20", fresh.Stock)
	}

	var versions []models.PurchaseInvoiceVersion
	if err := db.Where("purchase_invoice_id = ?", invoice.ID).Find(&versions).Error; err != nil {
		t.Fatalf("versiyonlar yüklenemedi: %v", err)
	}
	if len(versions) != 1 {
		t.Fatalf("versiyon sayısı %d, istenen 1", len(versions))
	}
	if versions[0].VersionType != models.VersionTypeInitial {
		t.Errorf("versiyon tipi %q, istenen %q", versions[0].VersionType, models.VersionTypeInitial)
	}
	if versions[0].IsDeleted {
		t.Error("ilk versiyon is_deleted=true olmamalı")
	}
}
