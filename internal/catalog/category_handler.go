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

type CategoryRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Color string `json:"color" validate:"max=20"`
}

// GET /api/categories
func ListCategoriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var categories []models.Category
		if err := database.DB.Order("name ASC").Find(&categories).Error; err != nil {
			logger.LogError("catalog", "ListCategories", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Kategoriler listelenemedi")
		}
		return c.JSON(fiber.Map{"data": categories})
	}
}

// POST /api/categories
func CreateCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if errs := validation.CheckStruct(body); errs != nil {
			return validation.UnprocessableEntity(c, errs)
		}

		category := models.Category{Name: body.Name, Color: body.Color}
		if err := database.DB.Create(&category).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return validation.UnprocessableEntity(c, map[string]string{"name": "Bu kategori adı zaten kullanılıyor"})
			}
			logger.LogError("catalog", "CreateCategory", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Kategori başarıyla oluşturuldu",
			"data":    category,
		})
	}
}

// PUT /api/categories/:id
func UpdateCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kategori ID")
		}

		var body CategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if errs := validation.CheckStruct(body); errs != nil {
			return validation.UnprocessableEntity(c, errs)
		}

		var category models.Category
		if err := database.DB.First(&category, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kategori bulunamadı")
		}

		category.Name = body.Name
		category.Color = body.Color
		if err := database.DB.Save(&category).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return validation.UnprocessableEntity(c, map[string]string{"name": "Bu kategori adı zaten kullanılıyor"})
			}
			logger.LogError("catalog", "UpdateCategory", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori güncellenemedi")
		}

		return c.JSON(fiber.Map{
			"message": "Kategori başarıyla güncellendi",
			"data":    category,
		})
	}
}

// DELETE /api/categories/:id
// Ürünü olan kategori silinemez
func DeleteCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kategori ID")
		}

		var category models.Category
		if err := database.DB.First(&category, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kategori bulunamadı")
		}

		var productCount int64
		database.DB.Model(&models.Product{}).Where("category_id = ?", category.ID).Count(&productCount)
		if productCount > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Bu kategoriye bağlı ürünler var, önce onları taşıyın")
		}

		if err := database.DB.Delete(&category).Error; err != nil {
			logger.LogError("catalog", "DeleteCategory", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori silinemedi")
		}

		return c.JSON(fiber.Map{"message": "Kategori başarıyla silindi"})
	}
}
