package database

import (
	"log"

	"marketpos-backend/internal/config"
	"marketpos-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	// TranslateError: tekil indeks ihlallerini gorm.ErrDuplicatedKey olarak almak için
	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}

	err = DB.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Permission{},
		&models.Category{},
		&models.Product{},
		&models.Supplier{},
		&models.Customer{},
		&models.PurchaseInvoice{},
		&models.PurchaseInvoiceItem{},
		&models.PurchaseInvoiceVersion{},
		&models.SalesInvoice{},
		&models.SalesInvoiceItem{},
		&models.SalesReturn{},
		&models.SalesReturnItem{},
	)
	if err != nil {
		log.Fatalf("AutoMigrate hatası: %v", err)
	}

	log.Println("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
}
