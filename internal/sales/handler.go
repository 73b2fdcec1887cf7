package sales

import (
	"errors"
	"fmt"
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

type SaleItemInput struct {
	ProductID uint            `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (it SaleItemInput) Total() decimal.Decimal {
	return it.Quantity.Mul(it.UnitPrice)
}

type CreateSaleRequest struct {
	InvoiceNumber string          `json:"invoice_number"`
	Date          string          `json:"date"` // boşsa bugün
	CustomerID    *uint           `json:"customer_id"`
	CustomerName  string          `json:"customer_name"`
	Phone         string          `json:"phone"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	PaymentMethod string          `json:"payment_method"`
	Notes         string          `json:"notes"`
	Items         []SaleItemInput `json:"items"`
}

type UpdateSalePaymentRequest struct {
	// Mevcut ödenen tutara EKLENİR, yerine geçmez
	Amount decimal.Decimal `json:"amount"`
	Notes  string          `json:"notes"`
}

type SaleResponse struct {
	*models.SalesInvoice
	CashierDisplayName string `json:"cashier_display_name"`
	UserDisplayName    string `json:"user_display_name"`
}

func newSaleResponse(inv *models.SalesInvoice) SaleResponse {
	return SaleResponse{
		SalesInvoice:       inv,
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

func withSaleRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items.Product.Category").
		Preload("Customer").
		Preload("Creator", unscoped).
		Preload("Cashier", unscoped)
}

func validateSaleItems(items []SaleItemInput) map[string]string {
	if len(items) == 0 {
		return map[string]string{"items": "En az bir kalem gerekli"}
	}
	errs := make(map[string]string)
	for i, it := range items {
		switch {
		case it.ProductID == 0:
			errs[fmt.Sprintf("items.%d.product_id", i)] = "product_id zorunlu"
		case !it.Quantity.IsPositive():
			errs[fmt.Sprintf("items.%d.quantity", i)] = "quantity pozitif olmalı"
		case it.UnitPrice.IsNegative():
			errs[fmt.Sprintf("items.%d.unit_price", i)] = "unit_price negatif olamaz"
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func lastSaleNumber(db *gorm.DB) string {
	var last models.SalesInvoice
	if err := db.Select("invoice_number").Order("id DESC").First(&last).Error; err != nil {
		return ""
	}
	return last.InvoiceNumber
}

func txError(err error, funcName, generic string) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}
	logger.LogError("sales", funcName, err)
	return fiber.NewError(fiber.StatusInternalServerError, generic)
}

// -------------------------
// Handlers
// -------------------------

// GET /api/sales-invoices
func ListSalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := withSaleRelations(database.DB.Model(&models.SalesInvoice{}))

		if from := c.Query("date_from"); from != "" {
			d, err := time.Parse("2006-01-02", from)
			if err != nil {
				return validation.UnprocessableEntity(c, map[string]string{"date_from": "date_from geçersiz"})
			}
			query = query.Where("date >= ?", d)
		}
		if to := c.Query("date_to"); to != "" {
			d, err := time.Parse("2006-01-02", to)
			if err != nil {
				return validation.UnprocessableEntity(c, map[string]string{"date_to": "date_to geçersiz"})
			}
			query = query.Where("date < ?", d.AddDate(0, 0, 1))
		}
		if cust := c.Query("customer"); cust != "" {
			like := "%" + cust + "%"
			query = query.Where("customer_name ILIKE ? OR phone ILIKE ?", like, like)
		}
		if status := c.Query("status"); status != "" {
			switch status {
			case models.SalesStatusPaid, models.SalesStatusPartial, models.SalesStatusUnpaid:
				query = query.Where("status = ?", status)
			default:
				return validation.UnprocessableEntity(c, map[string]string{"status": "status geçersiz"})
			}
		}

		sortBy := c.Query("sort_by", "created_at")
		switch sortBy {
		case "created_at", "date", "total_amount", "paid_amount":
		default:
			sortBy = "created_at"
		}
		order := "DESC"
		if c.Query("sort_order") == "asc" {
			order = "ASC"
		}
		query = query.Order(fmt.Sprintf("sales_invoices.%s %s", sortBy, order))

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
			return fiber.NewError(fiber.StatusInternalServerError, "Satış faturaları listelenemedi")
		}

		var invoices []models.SalesInvoice
		if err := query.Offset((page - 1) * perPage).Limit(perPage).Find(&invoices).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satış faturaları listelenemedi")
		}

		resp := make([]SaleResponse, 0, len(invoices))
		for i := range invoices {
			resp = append(resp, newSaleResponse(&invoices[i]))
		}

		return c.JSON(fiber.Map{
			"data":     resp,
			"total":    total,
			"page":     page,
			"per_page": perPage,
		})
	}
}

// POST /api/sales-invoices
func CreateSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateSaleRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if errs := validateSaleItems(body.Items); errs != nil {
			return validation.UnprocessableEntity(c, errs)
		}
		if body.PaidAmount.IsNegative() {
			return validation.UnprocessableEntity(c, map[string]string{"paid_amount": "paid_amount negatif olamaz"})
		}

		date := time.Now()
		if body.Date != "" {
			d, err := time.Parse("2006-01-02", body.Date)
			if err != nil {
				return validation.UnprocessableEntity(c, map[string]string{"date": "date formatı 'YYYY-MM-DD' olmalı"})
			}
			date = d
		}

		var totalAmount decimal.Decimal
		for _, it := range body.Items {
			totalAmount = totalAmount.Add(it.Total())
		}
		if body.PaidAmount.GreaterThan(totalAmount) {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "Ödenen tutar fatura toplamını aşamaz")
		}

		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var invoice models.SalesInvoice
		for attempt := 0; attempt < 5; attempt++ {
			number := body.InvoiceNumber
			if number == "" {
				number = nextSaleNumber(lastSaleNumber(database.DB))
			}

			invoice = models.SalesInvoice{}
			err = database.DB.Transaction(func(tx *gorm.DB) error {
				return createSale(tx, &invoice, &body, number, date, totalAmount, user)
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
			return txError(err, "CreateSale", "Satış faturası oluşturulurken bir hata oluştu")
		}

		cache.InvalidateDashboard()

		var created models.SalesInvoice
		if err := withSaleRelations(database.DB).First(&created, invoice.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fatura yüklenemedi")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Satış faturası başarıyla oluşturuldu",
			"data":    newSaleResponse(&created),
		})
	}
}

func createSale(tx *gorm.DB, invoice *models.SalesInvoice, body *CreateSaleRequest, number string, date time.Time, totalAmount decimal.Decimal, user *models.User) error {
	customerName := body.CustomerName
	phone := body.Phone
	if body.CustomerID != nil {
		var customer models.Customer
		if err := tx.First(&customer, "id = ?", *body.CustomerID).Error; err != nil {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "Müşteri bulunamadı")
		}
		if customerName == "" {
			customerName = customer.Name
		}
		if phone == "" {
			phone = customer.Phone
		}
	}
	if customerName == "" {
		customerName = "Genel müşteri"
	}

	paymentMethod := body.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = "cash"
	}

	*invoice = models.SalesInvoice{
		InvoiceNumber: number,
		Date:          date,
		CustomerID:    body.CustomerID,
		CustomerName:  customerName,
		Phone:         phone,
		TotalAmount:   totalAmount,
		PaidAmount:    body.PaidAmount,
		PaymentMethod: paymentMethod,
		Status:        models.SalesStatus(totalAmount, body.PaidAmount),
		Notes:         body.Notes,
		UserID:        user.ID,
		CashierID:     user.ID,
		UserName:      user.Name,
		CashierName:   user.Name,
	}
	if err := tx.Omit(clause.Associations).Create(invoice).Error; err != nil {
		return err
	}

	for _, in := range body.Items {
		var product models.Product
		if err := tx.First(&product, "id = ?", in.ProductID).Error; err != nil {
			return fiber.NewError(fiber.StatusUnprocessableEntity, fmt.Sprintf("Ürün bulunamadı (ID: %d)", in.ProductID))
		}

		item := models.SalesInvoiceItem{
			SalesInvoiceID: invoice.ID,
			ProductID:      in.ProductID,
			Quantity:       in.Quantity,
			UnitPrice:      in.UnitPrice,
			TotalPrice:     in.Total(),
		}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Product{}).
			Where("id = ?", in.ProductID).
			Update("stock", gorm.Expr("stock - ?", in.Quantity)).Error; err != nil {
			return err
		}
	}

	return nil
}

// GET /api/sales-invoices/:id
func GetSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz fatura ID")
		}

		var invoice models.SalesInvoice
		if err := withSaleRelations(database.DB).First(&invoice, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Fatura bulunamadı")
		}

		return c.JSON(fiber.Map{"data": newSaleResponse(&invoice)})
	}
}

// PATCH /api/sales-invoices/:id/payment
// Gönderilen tutar ödenen toplama eklenir ve durum yeniden türetilir
func UpdateSalePaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz fatura ID")
		}

		var body UpdateSalePaymentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if !body.Amount.IsPositive() {
			return validation.UnprocessableEntity(c, map[string]string{"amount": "amount pozitif olmalı"})
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var invoice models.SalesInvoice
			if err := tx.First(&invoice, id).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Fatura bulunamadı")
			}

			newPaid := invoice.PaidAmount.Add(body.Amount)
			if newPaid.GreaterThan(invoice.TotalAmount) {
				return fiber.NewError(fiber.StatusUnprocessableEntity, "Ödenen tutar fatura toplamını aşamaz")
			}

			notes := invoice.Notes
			if body.Notes != "" {
				if notes != "" {
					notes += "\n"
				}
				notes += body.Notes
			}

			return tx.Model(&invoice).Updates(map[string]interface{}{
				"paid_amount": newPaid,
				"status":      models.SalesStatus(invoice.TotalAmount, newPaid),
				"notes":       notes,
			}).Error
		})
		if err != nil {
			return txError(err, "UpdateSalePayment", "Ödeme güncellenirken bir hata oluştu")
		}

		cache.InvalidateDashboard()

		var updated models.SalesInvoice
		if err := withSaleRelations(database.DB).First(&updated, id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fatura yüklenemedi")
		}

		return c.JSON(fiber.Map{
			"message": "Ödeme başarıyla kaydedildi",
			"data":    newSaleResponse(&updated),
		})
	}
}

// DELETE /api/sales-invoices/:id
// Kalemlerin düşürdüğü stok geri verilir; faturaya bağlı iade varsa silinemez
func DeleteSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz fatura ID")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var invoice models.SalesInvoice
			if err := tx.Preload("Items").First(&invoice, id).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Fatura bulunamadı")
			}

			var returnCount int64
			if err := tx.Model(&models.SalesReturn{}).
				Where("sales_invoice_id = ?", invoice.ID).
				Count(&returnCount).Error; err != nil {
				return err
			}
			if returnCount > 0 {
				return fiber.NewError(fiber.StatusBadRequest, "İadesi bulunan fatura silinemez")
			}

			for _, item := range invoice.Items {
				if err := tx.Model(&models.Product{}).
					Where("id = ?", item.ProductID).
					Update("stock", gorm.Expr("stock + ?", item.Quantity)).Error; err != nil {
					return err
				}
			}

			if err := tx.Where("sales_invoice_id = ?", invoice.ID).
				Delete(&models.SalesInvoiceItem{}).Error; err != nil {
				return err
			}

			return tx.Delete(&invoice).Error
		})
		if err != nil {
			return txError(err, "DeleteSale", "Fatura silinirken bir hata oluştu")
		}

		cache.InvalidateDashboard()

		return c.JSON(fiber.Map{"message": "Fatura başarıyla silindi"})
	}
}
