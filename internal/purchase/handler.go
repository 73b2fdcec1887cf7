package purchase

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"marketpos-backend/internal/auth"
	"marketpos-backend/internal/cache"
	"marketpos-backend/internal/database"
	"marketpos-backend/internal/logger"
	"marketpos-backend/internal/models"
	"marketpos-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// -------------------------
// Request/Response Types
// -------------------------

type CreateInvoiceRequest struct {
	// Boş bırakılırsa numara sunucuda üretilir
	InvoiceNumber string      `json:"invoice_number"`
	Date          string      `json:"date" validate:"required"` // "2006-01-02"
	SupplierID    uint        `json:"supplier_id" validate:"required"`
	Items         []ItemInput `json:"items"`
	Notes         string      `json:"notes"`
}

type UpdateInvoiceRequest struct {
	InvoiceNumber string           `json:"invoice_number" validate:"required"`
	Date          string           `json:"date" validate:"required"`
	SupplierID    uint             `json:"supplier_id" validate:"required"`
	AmountPaid    *decimal.Decimal `json:"amount_paid"` // yoksa kalemlerden toplanır
	Items         []ItemInput      `json:"items"`
	Notes         string           `json:"notes"`
}

type UpdatePaymentRequest struct {
	AmountPaid decimal.Decimal `json:"amount_paid"`
}

// InvoiceResponse - fatura + çözülmüş kullanıcı adları.
// Aynı isim çözümü liste, detay ve versiyon uçlarında kullanılır.
type InvoiceResponse struct {
	*models.PurchaseInvoice
	CashierDisplayName string `json:"cashier_display_name"`
	UserDisplayName    string `json:"user_display_name"`
}

func newInvoiceResponse(inv *models.PurchaseInvoice) InvoiceResponse {
	return InvoiceResponse{
		PurchaseInvoice:    inv,
		CashierDisplayName: models.DisplayName(inv.CashierName, inv.Cashier),
		UserDisplayName:    models.DisplayName(inv.UserName, inv.Creator),
	}
}

// -------------------------
// Yardımcı Fonksiyonlar
// -------------------------

func unscoped(db *gorm.DB) *gorm.DB {
	return db.Unscoped()
}

// Silinen kullanıcılar da yüklenir; isim çözümü DisplayName'de yapılır
func withInvoiceRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items.Product.Category").
		Preload("Supplier").
		Preload("Creator", unscoped).
		Preload("Updater", unscoped).
		Preload("Cashier", unscoped)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// parseExpiry - son kullanma tarihi bugünden önce olamaz
func parseExpiry(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := parseDate(s)
	if err != nil {
		return nil, fmt.Errorf("expiry_date formatı 'YYYY-MM-DD' olmalı")
	}
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if d.Before(today) {
		return nil, fmt.Errorf("expiry_date bugünden önce olamaz")
	}
	return &d, nil
}

// checkItemPaidCaps - kalem bazlı ödenen tutar kalem toplamını aşamaz
func checkItemPaidCaps(items []ItemInput) error {
	for _, it := range items {
		if it.AmountPaid.GreaterThan(it.Total()) {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "Kalem için ödenen tutar kalem toplamını aşamaz")
		}
	}
	return nil
}

// loadProducts - kalemlerde geçen ürünleri kategorileriyle yükler
func loadProducts(tx *gorm.DB, items []ItemInput) (map[uint]*models.Product, error) {
	ids := make([]uint, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}

	var products []models.Product
	if err := tx.Preload("Category").Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	for _, it := range items {
		if _, ok := byID[it.ProductID]; !ok {
			return nil, fiber.NewError(fiber.StatusUnprocessableEntity, fmt.Sprintf("Ürün bulunamadı (ID: %d)", it.ProductID))
		}
	}
	return byID, nil
}

func adjustStock(tx *gorm.DB, productID uint, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}
	return tx.Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", delta)).Error
}

func lastInvoiceNumber(db *gorm.DB) string {
	var last models.PurchaseInvoice
	if err := db.Select("invoice_number").Order("id DESC").First(&last).Error; err != nil {
		return ""
	}
	return last.InvoiceNumber
}

// txError - transaction hatasını HTTP yanıtına çevirir; iş kuralı ihlalleri
// mesajlarıyla geçer, geri kalanı loglanıp genel 500 olarak döner
func txError(err error, module, funcName, generic string) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}
	logger.LogError(module, funcName, err)
	return fiber.NewError(fiber.StatusInternalServerError, generic)
}

// -------------------------
// Handlers
// -------------------------

// GET /api/purchase-invoices
func ListInvoicesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := withInvoiceRelations(database.DB.Model(&models.PurchaseInvoice{}))

		if search := c.Query("search"); search != "" {
			like := "%" + search + "%"
			query = query.
				Joins("LEFT JOIN suppliers ON suppliers.id = purchase_invoices.supplier_id").
				Where("purchase_invoices.invoice_number ILIKE ? OR suppliers.name ILIKE ? OR suppliers.phone ILIKE ?", like, like, like)
		}

		switch c.Query("payment_status") {
		case "fully_paid":
			query = query.Where("amount_paid >= total_amount")
		case "partially_paid":
			query = query.Where("amount_paid > 0 AND amount_paid < total_amount")
		case "unpaid":
			query = query.Where("amount_paid = 0")
		case "":
		default:
			return validation.UnprocessableEntity(c, map[string]string{"payment_status": "payment_status geçersiz"})
		}

		if err := applyDateFilter(c, &query); err != nil {
			return err
		}

		sort := c.Query("sort", "latest")
		if sort == "oldest" {
			query = query.Order("created_at ASC")
		} else {
			query = query.Order("created_at DESC")
		}

		page := c.QueryInt("page", 1)
		perPage := c.QueryInt("per_page", 10)
		if page < 1 {
			page = 1
		}
		if perPage < 1 || perPage > 100 {
			perPage = 10
		}

		var total int64
		if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Faturalar listelenemedi")
		}

		var invoices []models.PurchaseInvoice
		if err := query.Offset((page - 1) * perPage).Limit(perPage).Find(&invoices).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Faturalar listelenemedi")
		}

		resp := make([]InvoiceResponse, 0, len(invoices))
		for i := range invoices {
			resp = append(resp, newInvoiceResponse(&invoices[i]))
		}

		return c.JSON(fiber.Map{
			"data":     resp,
			"total":    total,
			"page":     page,
			"per_page": perPage,
		})
	}
}

// Tarih filtresi: today/week/month; specific_* parametreleriyle belirli bir
// gün, hafta ("başlangıç_bitiş") veya ay ("YYYY-MM") seçilebilir
func applyDateFilter(c *fiber.Ctx, query **gorm.DB) error {
	filter := c.Query("date_filter")
	if filter == "" {
		return nil
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch filter {
	case "today":
		day := today
		if s := c.Query("specific_date"); s != "" {
			d, err := parseDate(s)
			if err != nil {
				return validation.UnprocessableEntity(c, map[string]string{"specific_date": "specific_date geçersiz"})
			}
			day = d
		}
		*query = (*query).Where("date >= ? AND date < ?", day, day.AddDate(0, 0, 1))

	case "week":
		var start, end time.Time
		if s := c.Query("specific_week"); s != "" {
			parts := strings.SplitN(s, "_", 2)
			if len(parts) != 2 {
				return validation.UnprocessableEntity(c, map[string]string{"specific_week": "specific_week 'başlangıç_bitiş' formatında olmalı"})
			}
			var err error
			if start, err = parseDate(parts[0]); err != nil {
				return validation.UnprocessableEntity(c, map[string]string{"specific_week": "specific_week geçersiz"})
			}
			if end, err = parseDate(parts[1]); err != nil {
				return validation.UnprocessableEntity(c, map[string]string{"specific_week": "specific_week geçersiz"})
			}
		} else {
			weekday := int(today.Weekday())
			if weekday == 0 {
				weekday = 7 // Pazar
			}
			start = today.AddDate(0, 0, -(weekday - 1))
			end = start.AddDate(0, 0, 6)
		}
		*query = (*query).Where("date >= ? AND date < ?", start, end.AddDate(0, 0, 1))

	case "month":
		year, month := today.Year(), today.Month()
		if s := c.Query("specific_month"); s != "" {
			m, err := time.Parse("2006-01", s)
			if err != nil {
				return validation.UnprocessableEntity(c, map[string]string{"specific_month": "specific_month 'YYYY-MM' formatında olmalı"})
			}
			year, month = m.Year(), m.Month()
		}
		start := time.Date(year, month, 1, 0, 0, 0, 0, now.Location())
		*query = (*query).Where("date >= ? AND date < ?", start, start.AddDate(0, 1, 0))

	default:
		return validation.UnprocessableEntity(c, map[string]string{"date_filter": "date_filter geçersiz"})
	}

	return nil
}

// POST /api/purchase-invoices
func CreateInvoiceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateInvoiceRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if errs := validation.CheckStruct(body); errs != nil {
			return validation.UnprocessableEntity(c, errs)
		}
		if errs := ValidateItems(body.Items); errs != nil {
			return validation.UnprocessableEntity(c, errs)
		}
		if err := checkItemPaidCaps(body.Items); err != nil {
			return err
		}

		date, err := parseDate(body.Date)
		if err != nil {
			return validation.UnprocessableEntity(c, map[string]string{"date": "date formatı 'YYYY-MM-DD' olmalı"})
		}

		totalAmount, amountPaid := InvoiceTotals(body.Items)
		if amountPaid.GreaterThan(totalAmount) {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "Ödenen tutar fatura toplamını aşamaz")
		}

		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		// Numara istemciden gelmediyse üretilir; tekil indeks çakışmasında
		// bir sonraki numarayla yeniden denenir (check-then-insert'e güvenilmez)
		var invoice models.PurchaseInvoice
		for attempt := 0; attempt < 5; attempt++ {
			number := body.InvoiceNumber
			if number == "" {
				number = NextInvoiceNumber(lastInvoiceNumber(database.DB))
			}

			invoice = models.PurchaseInvoice{}
			err = database.DB.Transaction(func(tx *gorm.DB) error {
				return createInvoice(tx, &invoice, &body, number, date, totalAmount, amountPaid, user)
			})

			if errors.Is(err, gorm.ErrDuplicatedKey) {
				if body.InvoiceNumber != "" {
					return validation.UnprocessableEntity(c, map[string]string{"invoice_number": "Bu fatura numarası zaten kullanılıyor"})
				}
				continue
			}
			break
		}
		if err != nil {
			return txError(err, "purchase", "CreateInvoice", "Fatura oluşturulurken bir hata oluştu")
		}

		cache.InvalidateDashboard()

		var created models.PurchaseInvoice
		if err := withInvoiceRelations(database.DB).First(&created, invoice.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fatura yüklenemedi")
		}
		resp := newInvoiceResponse(&created)

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Alış faturası başarıyla oluşturuldu",
			"data":    resp,
		})
	}
}

func createInvoice(tx *gorm.DB, invoice *models.PurchaseInvoice, body *CreateInvoiceRequest, number string, date time.Time, totalAmount, amountPaid decimal.Decimal, user *models.User) error {
	var supplier models.Supplier
	if err := tx.First(&supplier, "id = ?", body.SupplierID).Error; err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "Tedarikçi bulunamadı")
	}

	products, err := loadProducts(tx, body.Items)
	if err != nil {
		return err
	}

	userID := user.ID
	*invoice = models.PurchaseInvoice{
		InvoiceNumber: number,
		Date:          date,
		SupplierID:    body.SupplierID,
		TotalAmount:   totalAmount,
		AmountPaid:    amountPaid,
		Notes:         body.Notes,
		UserID:        userID,
		UpdatedBy:     &userID,
		CashierID:     userID,
		CashierName:   user.Name,
		UserName:      user.Name,
	}
	if err := tx.Omit(clause.Associations).Create(invoice).Error; err != nil {
		return err
	}

	for _, in := range body.Items {
		expiry, err := parseExpiry(in.ExpiryDate)
		if err != nil {
			return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
		}

		item := models.PurchaseInvoiceItem{
			PurchaseInvoiceID: invoice.ID,
			ProductID:         in.ProductID,
			Quantity:          in.Quantity,
			UnitPrice:         in.UnitPrice,
			NumberOfUnits:     in.NumberOfUnits,
			AmountPaid:        in.AmountPaid,
			TotalPrice:        in.Total(),
			ExpiryDate:        expiry,
		}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}

		if err := adjustStock(tx, in.ProductID, in.StockContribution()); err != nil {
			return err
		}

		// Versiyon anlık görüntüsü için ürün bilgisi eklenir (DB'ye yazılmaz)
		item.Product = products[in.ProductID]
		invoice.Items = append(invoice.Items, item)
	}

	return writeVersion(tx, invoice, models.VersionTypeInitial, false, user)
}

// GET /api/purchase-invoices/:id
func GetInvoiceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz fatura ID")
		}

		var invoice models.PurchaseInvoice
		if err := withInvoiceRelations(database.DB).First(&invoice, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Fatura bulunamadı")
		}

		return c.JSON(fiber.Map{"data": newInvoiceResponse(&invoice)})
	}
}

// PUT /api/purchase-invoices/:id
// Tam mutabakat: gönderilen sette olmayan mevcut kalemler silinir.
// Değişiklik uygulanmadan önce mevcut hal versiyon olarak kaydedilir.
func UpdateInvoiceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz fatura ID")
		}

		var body UpdateInvoiceRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if errs := validation.CheckStruct(body); errs != nil {
			return validation.UnprocessableEntity(c, errs)
		}
		if errs := ValidateItems(body.Items); errs != nil {
			return validation.UnprocessableEntity(c, errs)
		}
		if err := checkItemPaidCaps(body.Items); err != nil {
			return err
		}

		date, err := parseDate(body.Date)
		if err != nil {
			return validation.UnprocessableEntity(c, map[string]string{"date": "date formatı 'YYYY-MM-DD' olmalı"})
		}

		totalAmount, itemsPaid := InvoiceTotals(body.Items)
		amountPaid := itemsPaid
		if body.AmountPaid != nil {
			if body.AmountPaid.IsNegative() {
				return validation.UnprocessableEntity(c, map[string]string{"amount_paid": "amount_paid negatif olamaz"})
			}
			amountPaid = *body.AmountPaid
		}
		if amountPaid.GreaterThan(totalAmount) {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "Ödenen tutar fatura toplamını aşamaz")
		}

		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var invoice models.PurchaseInvoice
			if err := tx.Preload("Items.Product.Category").First(&invoice, id).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Fatura bulunamadı")
			}

			var supplier models.Supplier
			if err := tx.First(&supplier, "id = ?", body.SupplierID).Error; err != nil {
				return fiber.NewError(fiber.StatusUnprocessableEntity, "Tedarikçi bulunamadı")
			}

			// Önce güncelleme öncesi hal versiyonlanır
			if err := writeVersion(tx, &invoice, models.VersionTypeUpdate, false, user); err != nil {
				return err
			}

			plan := BuildPlan(invoice.Items, body.Items)

			if len(plan.Creates) > 0 {
				if _, err := loadProducts(tx, plan.Creates); err != nil {
					return err
				}
			}

			for _, ch := range plan.Updates {
				expiry, err := parseExpiry(ch.Input.ExpiryDate)
				if err != nil {
					return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
				}
				updates := map[string]interface{}{
					"quantity":        ch.Input.Quantity,
					"unit_price":      ch.Input.UnitPrice,
					"number_of_units": ch.Input.NumberOfUnits,
					"amount_paid":     ch.Input.AmountPaid,
					"total_price":     ch.Input.Total(),
				}
				if expiry != nil {
					updates["expiry_date"] = expiry
				}
				if err := tx.Model(&models.PurchaseInvoiceItem{}).
					Where("id = ?", ch.Existing.ID).
					Updates(updates).Error; err != nil {
					return err
				}
			}

			for _, in := range plan.Creates {
				expiry, err := parseExpiry(in.ExpiryDate)
				if err != nil {
					return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
				}
				item := models.PurchaseInvoiceItem{
					PurchaseInvoiceID: invoice.ID,
					ProductID:         in.ProductID,
					Quantity:          in.Quantity,
					UnitPrice:         in.UnitPrice,
					NumberOfUnits:     in.NumberOfUnits,
					AmountPaid:        in.AmountPaid,
					TotalPrice:        in.Total(),
					ExpiryDate:        expiry,
				}
				if err := tx.Create(&item).Error; err != nil {
					return err
				}
			}

			for _, it := range plan.Deletes {
				if err := tx.Delete(&models.PurchaseInvoiceItem{}, it.ID).Error; err != nil {
					return err
				}
			}

			for productID, delta := range NetStockDeltas(plan) {
				if err := adjustStock(tx, productID, delta); err != nil {
					return err
				}
			}

			cashierName := invoice.CashierName
			if cashierName == "" {
				cashierName = user.Name
			}
			userName := invoice.UserName
			if userName == "" {
				userName = user.Name
			}

			return tx.Model(&invoice).Updates(map[string]interface{}{
				"invoice_number": body.InvoiceNumber,
				"date":           date,
				"supplier_id":    body.SupplierID,
				"total_amount":   totalAmount,
				"amount_paid":    amountPaid,
				"notes":          body.Notes,
				"updated_by":     user.ID,
				"cashier_name":   cashierName,
				"user_name":      userName,
			}).Error
		})
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return validation.UnprocessableEntity(c, map[string]string{"invoice_number": "Bu fatura numarası zaten kullanılıyor"})
		}
		if err != nil {
			return txError(err, "purchase", "UpdateInvoice", "Fatura güncellenirken bir hata oluştu")
		}

		cache.InvalidateDashboard()

		var updated models.PurchaseInvoice
		if err := withInvoiceRelations(database.DB).First(&updated, id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fatura yüklenemedi")
		}

		return c.JSON(fiber.Map{
			"message": "Fatura başarıyla güncellendi",
			"data":    newInvoiceResponse(&updated),
		})
	}
}

// PATCH /api/purchase-invoices/:id/payment
// Yalnızca amount_paid değiştirilir; önce versiyon yazılır
func UpdatePaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz fatura ID")
		}

		var body UpdatePaymentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.AmountPaid.IsNegative() {
			return validation.UnprocessableEntity(c, map[string]string{"amount_paid": "amount_paid negatif olamaz"})
		}

		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var invoice models.PurchaseInvoice
			if err := tx.Preload("Items.Product.Category").First(&invoice, id).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Fatura bulunamadı")
			}

			if body.AmountPaid.GreaterThan(invoice.TotalAmount) {
				return fiber.NewError(fiber.StatusUnprocessableEntity, "Ödenen tutar fatura toplamını aşamaz")
			}

			if err := writeVersion(tx, &invoice, models.VersionTypePaymentUpdate, false, user); err != nil {
				return err
			}

			return tx.Model(&invoice).Updates(map[string]interface{}{
				"amount_paid": body.AmountPaid,
				"updated_by":  user.ID,
			}).Error
		})
		if err != nil {
			return txError(err, "purchase", "UpdatePayment", "Ödeme güncellenirken bir hata oluştu")
		}

		cache.InvalidateDashboard()

		var updated models.PurchaseInvoice
		if err := withInvoiceRelations(database.DB).First(&updated, id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fatura yüklenemedi")
		}

		return c.JSON(fiber.Map{
			"message": "Ödenen tutar başarıyla güncellendi",
			"data":    newInvoiceResponse(&updated),
		})
	}
}

// DELETE /api/purchase-invoices/:id
// Silmeden önce son hal is_deleted=true versiyonu olarak kaydedilir,
// tüm kalemlerin stok katkıları geri alınır
func DeleteInvoiceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz fatura ID")
		}

		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var invoice models.PurchaseInvoice
			if err := tx.Preload("Items.Product.Category").First(&invoice, id).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Fatura bulunamadı")
			}

			if err := writeVersion(tx, &invoice, models.VersionTypeDelete, true, user); err != nil {
				return err
			}

			for _, item := range invoice.Items {
				if err := adjustStock(tx, item.ProductID, item.StockContribution().Neg()); err != nil {
					return err
				}
			}

			if err := tx.Where("purchase_invoice_id = ?", invoice.ID).
				Delete(&models.PurchaseInvoiceItem{}).Error; err != nil {
				return err
			}

			return tx.Delete(&invoice).Error
		})
		if err != nil {
			return txError(err, "purchase", "DeleteInvoice", "Fatura silinirken bir hata oluştu")
		}

		cache.InvalidateDashboard()

		return c.JSON(fiber.Map{"message": "Fatura başarıyla silindi"})
	}
}

// -------------------------
// Versiyon Geçmişi
// -------------------------

type VersionUserRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type VersionResponse struct {
	ID                 uint            `json:"id"`
	PurchaseInvoiceID  uint            `json:"purchase_invoice_id"`
	InvoiceNumber      string          `json:"invoice_number"`
	Date               time.Time       `json:"date"`
	SupplierID         uint            `json:"supplier_id"`
	SupplierName       string          `json:"supplier_name"`
	SupplierPhone      string          `json:"supplier_phone"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	AmountPaid         decimal.Decimal `json:"amount_paid"`
	Notes              string          `json:"notes"`
	Items              []VersionItem   `json:"items"`
	Creator            *VersionUserRef `json:"creator"`
	Updater            *VersionUserRef `json:"updater"`
	Cashier            *VersionUserRef `json:"cashier"`
	CashierName        string          `json:"cashier_name"`
	UserName           string          `json:"user_name"`
	CashierDisplayName string          `json:"cashier_display_name"`
	UserDisplayName    string          `json:"user_display_name"`
	CreatedAt          time.Time       `json:"created_at"`
	VersionType        string          `json:"version_type"`
	IsDeleted          bool            `json:"is_deleted"`
}

func userRef(u *models.User) *VersionUserRef {
	if u == nil {
		return nil
	}
	return &VersionUserRef{ID: u.ID, Name: u.Name}
}

// GET /api/purchase-invoices/:id/versions
func ListVersionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz fatura ID")
		}

		var count int64
		database.DB.Model(&models.PurchaseInvoice{}).Where("id = ?", id).Count(&count)
		if count == 0 {
			return fiber.NewError(fiber.StatusNotFound, "Fatura bulunamadı")
		}

		var versions []models.PurchaseInvoiceVersion
		if err := database.DB.
			Preload("Supplier").
			Preload("Creator", unscoped).
			Preload("Updater", unscoped).
			Preload("Cashier", unscoped).
			Where("purchase_invoice_id = ?", id).
			Order("created_at DESC").
			Find(&versions).Error; err != nil {
			logger.LogError("purchase", "ListVersions", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Versiyon geçmişi alınamadı")
		}

		resp := make([]VersionResponse, 0, len(versions))
		for i := range versions {
			v := &versions[i]

			var items []VersionItem
			if err := json.Unmarshal([]byte(v.Items), &items); err != nil {
				items = []VersionItem{}
			}
			for j := range items {
				if items[j].Product == nil {
					items[j].Product = &VersionProduct{ID: items[j].ProductID, Name: "Belirtilmemiş"}
				}
			}

			vr := VersionResponse{
				ID:                 v.ID,
				PurchaseInvoiceID:  v.PurchaseInvoiceID,
				InvoiceNumber:      v.InvoiceNumber,
				Date:               v.Date,
				SupplierID:         v.SupplierID,
				TotalAmount:        v.TotalAmount,
				AmountPaid:         v.AmountPaid,
				Notes:              v.Notes,
				Items:              items,
				Creator:            userRef(v.Creator),
				Updater:            userRef(v.Updater),
				Cashier:            userRef(v.Cashier),
				CashierName:        v.CashierName,
				UserName:           v.UserName,
				CashierDisplayName: models.DisplayName(v.CashierName, v.Cashier),
				UserDisplayName:    models.DisplayName(v.UserName, v.Creator),
				CreatedAt:          v.CreatedAt,
				VersionType:        v.VersionType,
				IsDeleted:          v.IsDeleted,
			}
			if v.Supplier != nil {
				vr.SupplierName = v.Supplier.Name
				vr.SupplierPhone = v.Supplier.Phone
			}
			resp = append(resp, vr)
		}

		return c.JSON(resp)
	}
}

// GET /api/purchase-invoices/last-invoice-number
// Tavsiye niteliğindedir; kesin benzersizlik oluşturma sırasındaki tekil
// indeksle sağlanır
func LastInvoiceNumberHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		last := lastInvoiceNumber(database.DB)
		next := NextInvoiceNumber(last)

		// Aradaki numaralar elle verilmiş olabilir, doluysa ilerle
		for {
			var count int64
			database.DB.Model(&models.PurchaseInvoice{}).
				Where("invoice_number = ?", next).
				Count(&count)
			if count == 0 {
				break
			}
			next = NextInvoiceNumber(next)
		}

		return c.JSON(fiber.Map{
			"success":             true,
			"next_invoice_number": next,
		})
	}
}
