package catalog

import (
	"errors"

	"marketpos-backend/internal/database"
	"marketpos-backend/internal/logger"
	"marketpos-backend/internal/models"
	"marketpos-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CustomerRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Phone   string `json:"phone" validate:"required,max=20"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address" validate:"max=255"`
	Notes   string `json:"notes" validate:"max=1000"`
}

// CustomerWithStats - alışveriş sayısı ve toplamı saklanmaz,
// sales_invoices üzerinden alt sorguyla canlı hesaplanır
type CustomerWithStats struct {
	models.Customer
	PurchasesCount int64           `json:"purchases_count"`
	TotalPurchases decimal.Decimal `json:"total_purchases"`
}

const customerStatsSelect = `customers.*,
(SELECT COUNT(*) FROM sales_invoices WHERE sales_invoices.customer_id = customers.id) AS purchases_count,
(SELECT COALESCE(SUM(total_amount), 0) FROM sales_invoices WHERE sales_invoices.customer_id = customers.id) AS total_purchases`

// GET /api/customers
func ListCustomersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := database.DB.Model(&models.Customer{}).Select(customerStatsSelect)

		if search := c.Query("search"); search != "" {
			like := "%" + search + "%"
			query = query.Where("customers.name ILIKE ? OR customers.phone ILIKE ?", like, like)
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
		if err := database.DB.Model(&models.Customer{}).Count(&total).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteriler listelenemedi")
		}

		var customers []CustomerWithStats
		if err := query.Order("customers.name ASC").
			Offset((page - 1) * perPage).Limit(perPage).
			Find(&customers).Error; err != nil {
			logger.LogError("catalog", "ListCustomers", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteriler listelenemedi")
		}

		return c.JSON(fiber.Map{
			"data":     customers,
			"total":    total,
			"page":     page,
			"per_page": perPage,
		})
	}
}

// GET /api/customers/stats
// Toplam/aktif müşteri sayısı ve alışveriş toplamına göre ilk 5 müşteri.
// Sıfır tutarlı faturalar aktiflik ve toplamlara sayılmaz.
func CustomerStatsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var totalCustomers int64
		if err := database.DB.Model(&models.Customer{}).Count(&totalCustomers).Error; err != nil {
			logger.LogError("catalog", "CustomerStats", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteri istatistikleri alınamadı")
		}

		var activeCustomers int64
		if err := database.DB.Model(&models.Customer{}).
			Where("EXISTS (SELECT 1 FROM sales_invoices WHERE sales_invoices.customer_id = customers.id AND sales_invoices.total_amount > 0)").
			Count(&activeCustomers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteri istatistikleri alınamadı")
		}

		var topCustomers []CustomerWithStats
		if err := database.DB.Model(&models.Customer{}).
			Select(`customers.*,
COALESCE((SELECT COUNT(*) FROM sales_invoices WHERE sales_invoices.customer_id = customers.id AND sales_invoices.total_amount > 0), 0) AS purchases_count,
COALESCE((SELECT SUM(total_amount) FROM sales_invoices WHERE sales_invoices.customer_id = customers.id AND sales_invoices.total_amount > 0), 0) AS total_purchases`).
			Order("total_purchases DESC").
			Limit(5).
			Find(&topCustomers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteri istatistikleri alınamadı")
		}

		return c.JSON(fiber.Map{
			"data": fiber.Map{
				"total_customers":  totalCustomers,
				"active_customers": activeCustomers,
				"top_customers":    topCustomers,
			},
		})
	}
}

// GET /api/customers/:id
func GetCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz müşteri ID")
		}

		var customer CustomerWithStats
		if err := database.DB.Model(&models.Customer{}).
			Select(customerStatsSelect).
			Where("customers.id = ?", id).
			First(&customer).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Müşteri bulunamadı")
		}

		return c.JSON(fiber.Map{"data": customer})
	}
}

// GET /api/customers/:id/invoices
func ListCustomerInvoicesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz müşteri ID")
		}

		var count int64
		database.DB.Model(&models.Customer{}).Where("id = ?", id).Count(&count)
		if count == 0 {
			return fiber.NewError(fiber.StatusNotFound, "Müşteri bulunamadı")
		}

		var invoices []models.SalesInvoice
		if err := database.DB.Preload("Items.Product").
			Where("customer_id = ?", id).
			Order("created_at DESC").
			Find(&invoices).Error; err != nil {
			logger.LogError("catalog", "ListCustomerInvoices", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Faturalar listelenemedi")
		}

		return c.JSON(fiber.Map{"data": invoices})
	}
}

// POST /api/customers
func CreateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if errs := validation.CheckStruct(body); errs != nil {
			return validation.UnprocessableEntity(c, errs)
		}

		customer := models.Customer{
			Name:    body.Name,
			Phone:   body.Phone,
			Email:   body.Email,
			Address: body.Address,
			Notes:   body.Notes,
		}
		if err := database.DB.Create(&customer).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return validation.UnprocessableEntity(c, map[string]string{"phone": "Bu telefon numarası zaten kayıtlı"})
			}
			logger.LogError("catalog", "CreateCustomer", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteri oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Müşteri başarıyla oluşturuldu",
			"data":    customer,
		})
	}
}

// PUT /api/customers/:id
func UpdateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz müşteri ID")
		}

		var body CustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if errs := validation.CheckStruct(body); errs != nil {
			return validation.UnprocessableEntity(c, errs)
		}

		var customer models.Customer
		if err := database.DB.First(&customer, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Müşteri bulunamadı")
		}

		customer.Name = body.Name
		customer.Phone = body.Phone
		customer.Email = body.Email
		customer.Address = body.Address
		customer.Notes = body.Notes
		if err := database.DB.Save(&customer).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return validation.UnprocessableEntity(c, map[string]string{"phone": "Bu telefon numarası zaten kayıtlı"})
			}
			logger.LogError("catalog", "UpdateCustomer", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteri güncellenemedi")
		}

		return c.JSON(fiber.Map{
			"message": "Müşteri başarıyla güncellendi",
			"data":    customer,
		})
	}
}

// DELETE /api/customers/:id
// Faturası olan müşteri silinemez
func DeleteCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz müşteri ID")
		}

		var customer models.Customer
		if err := database.DB.First(&customer, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Müşteri bulunamadı")
		}

		var invoiceCount int64
		database.DB.Model(&models.SalesInvoice{}).
			Where("customer_id = ?", customer.ID).
			Count(&invoiceCount)
		if invoiceCount > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Bu müşteriye ait faturalar var, silinemez")
		}

		if err := database.DB.Delete(&customer).Error; err != nil {
			logger.LogError("catalog", "DeleteCustomer", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteri silinemedi")
		}

		return c.JSON(fiber.Map{"message": "Müşteri başarıyla silindi"})
	}
}
