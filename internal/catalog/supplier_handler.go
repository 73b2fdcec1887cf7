package catalog

import (
	"errors"

	"marketpos-backend/internal/database"
	"marketpos-backend/internal/logger"
	"marketpos-backend/internal/models"
	"marketpos-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type SupplierRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Phone string `json:"phone" validate:"required,max=20"`
	Notes string `json:"notes"`
}

// GET /api/suppliers
func ListSuppliersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := database.DB.Model(&models.Supplier{})

		if search := c.Query("search"); search != "" {
			like := "%" + search + "%"
			query = query.Where("name ILIKE ? OR phone ILIKE ?", like, like)
		}

		var suppliers []models.Supplier
		if err := query.Order("name ASC").Find(&suppliers).Error; err != nil {
			logger.LogError("catalog", "ListSuppliers", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Tedarikçiler listelenemedi")
		}

		return c.JSON(fiber.Map{"data": suppliers})
	}
}

// GET /api/suppliers/:id
func GetSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz tedarikçi ID")
		}

		var supplier models.Supplier
		if err := database.DB.First(&supplier, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Tedarikçi bulunamadı")
		}
		return c.JSON(fiber.Map{"data": supplier})
	}
}

// POST /api/suppliers
func CreateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SupplierRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if errs := validation.CheckStruct(body); errs != nil {
			return validation.UnprocessableEntity(c, errs)
		}

		supplier := models.Supplier{Name: body.Name, Phone: body.Phone, Notes: body.Notes}
		if err := database.DB.Create(&supplier).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return validation.UnprocessableEntity(c, map[string]string{"phone": "Bu telefon numarası zaten kayıtlı"})
			}
			logger.LogError("catalog", "CreateSupplier", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Tedarikçi oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Tedarikçi başarıyla oluşturuldu",
			"data":    supplier,
		})
	}
}

// PUT /api/suppliers/:id
func UpdateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz tedarikçi ID")
		}

		var body SupplierRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if errs := validation.CheckStruct(body); errs != nil {
			return validation.UnprocessableEntity(c, errs)
		}

		var supplier models.Supplier
		if err := database.DB.First(&supplier, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Tedarikçi bulunamadı")
		}

		supplier.Name = body.Name
		supplier.Phone = body.Phone
		supplier.Notes = body.Notes
		if err := database.DB.Save(&supplier).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return validation.UnprocessableEntity(c, map[string]string{"phone": "Bu telefon numarası zaten kayıtlı"})
			}
			logger.LogError("catalog", "UpdateSupplier", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Tedarikçi güncellenemedi")
		}

		return c.JSON(fiber.Map{
			"message": "Tedarikçi başarıyla güncellendi",
			"data":    supplier,
		})
	}
}

// DELETE /api/suppliers/:id
// Faturası olan tedarikçi silinemez
func DeleteSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz tedarikçi ID")
		}

		var supplier models.Supplier
		if err := database.DB.First(&supplier, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Tedarikçi bulunamadı")
		}

		var invoiceCount int64
		database.DB.Model(&models.PurchaseInvoice{}).
			Where("supplier_id = ?", supplier.ID).
			Count(&invoiceCount)
		if invoiceCount > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Bu tedarikçiye ait faturalar var, silinemez")
		}

		if err := database.DB.Delete(&supplier).Error; err != nil {
			logger.LogError("catalog", "DeleteSupplier", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Tedarikçi silinemedi")
		}

		return c.JSON(fiber.Map{"message": "Tedarikçi başarıyla silindi"})
	}
}
