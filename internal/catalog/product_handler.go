package catalog

import (
	"errors"

	"marketpos-backend/internal/cache"
	"marketpos-backend/internal/database"
	"marketpos-backend/internal/logger"
	"marketpos-backend/internal/models"
	"marketpos-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductRequest struct {
	Name          string          `json:"name" validate:"required,max=255"`
	Barcode       string          `json:"barcode" validate:"max=64"`
	CategoryID    uint            `json:"category_id" validate:"required"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	MinStock      decimal.Decimal `json:"min_stock"`
	Description   string          `json:"description"`
}

func (r *ProductRequest) check(c *fiber.Ctx) error {
	if errs := validation.CheckStruct(*r); errs != nil {
		return validation.UnprocessableEntity(c, errs)
	}
	errs := make(map[string]string)
	if r.PurchasePrice.IsNegative() {
		errs["purchase_price"] = "purchase_price negatif olamaz"
	}
	if r.SalePrice.IsNegative() {
		errs["sale_price"] = "sale_price negatif olamaz"
	}
	if r.MinStock.IsNegative() {
		errs["min_stock"] = "min_stock negatif olamaz"
	}
	if len(errs) > 0 {
		return validation.UnprocessableEntity(c, errs)
	}
	return nil
}

// GET /api/products
func ListProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := database.DB.Model(&models.Product{}).Preload("Category")

		if search := c.Query("search"); search != "" {
			like := "%" + search + "%"
			query = query.Where("name ILIKE ? OR barcode ILIKE ?", like, like)
		}
		if categoryID := c.QueryInt("category_id", 0); categoryID > 0 {
			query = query.Where("category_id = ?", categoryID)
		}
		if c.Query("low_stock") == "true" {
			query = query.Where("stock <= min_stock")
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
			return fiber.NewError(fiber.StatusInternalServerError, "Ürünler listelenemedi")
		}

		var products []models.Product
		if err := query.Order("name ASC").
			Offset((page - 1) * perPage).Limit(perPage).
			Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürünler listelenemedi")
		}

		return c.JSON(fiber.Map{
			"data":     products,
			"total":    total,
			"page":     page,
			"per_page": perPage,
		})
	}
}

// GET /api/products/low-stock
func ListLowStockProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var products []models.Product
		if err := database.DB.Preload("Category").
			Where("stock <= min_stock").
			Order("stock ASC").
			Find(&products).Error; err != nil {
			logger.LogError("catalog", "ListLowStockProducts", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Ürünler listelenemedi")
		}
		return c.JSON(fiber.Map{"data": products})
	}
}

// GET /api/products/barcode/:barcode
func GetProductByBarcodeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		barcode := c.Params("barcode")
		var product models.Product
		if err := database.DB.Preload("Category").
			Where("barcode = ?", barcode).
			First(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Bu barkoda sahip ürün bulunamadı")
		}
		return c.JSON(fiber.Map{"data": product})
	}
}

// GET /api/products/:id
func GetProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ürün ID")
		}

		var product models.Product
		if err := database.DB.Preload("Category").First(&product, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}
		return c.JSON(fiber.Map{"data": product})
	}
}

// POST /api/products
// Barkod verilmezse sunucuda üretilir
func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if err := body.check(c); err != nil {
			return err
		}

		var category models.Category
		if err := database.DB.First(&category, body.CategoryID).Error; err != nil {
			return validation.UnprocessableEntity(c, map[string]string{"category_id": "Kategori bulunamadı"})
		}

		barcode := body.Barcode
		if barcode == "" {
			barcode = uuid.NewString()
		}

		product := models.Product{
			Name:          body.Name,
			Barcode:       barcode,
			CategoryID:    body.CategoryID,
			PurchasePrice: body.PurchasePrice,
			SalePrice:     body.SalePrice,
			MinStock:      body.MinStock,
			Description:   body.Description,
		}
		if err := database.DB.Create(&product).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return validation.UnprocessableEntity(c, map[string]string{"barcode": "Bu barkod zaten kullanılıyor"})
			}
			logger.LogError("catalog", "CreateProduct", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün oluşturulamadı")
		}

		database.DB.Preload("Category").First(&product, product.ID)
		cache.InvalidateDashboard()

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Ürün başarıyla oluşturuldu",
			"data":    product,
		})
	}
}

// PUT /api/products/:id
// Stok bu uçtan değiştirilemez
func UpdateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ürün ID")
		}

		var body ProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if err := body.check(c); err != nil {
			return err
		}

		var product models.Product
		if err := database.DB.First(&product, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		var category models.Category
		if err := database.DB.First(&category, body.CategoryID).Error; err != nil {
			return validation.UnprocessableEntity(c, map[string]string{"category_id": "Kategori bulunamadı"})
		}

		updates := map[string]interface{}{
			"name":           body.Name,
			"category_id":    body.CategoryID,
			"purchase_price": body.PurchasePrice,
			"sale_price":     body.SalePrice,
			"min_stock":      body.MinStock,
			"description":    body.Description,
		}
		if body.Barcode != "" {
			updates["barcode"] = body.Barcode
		}
		if err := database.DB.Model(&product).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return validation.UnprocessableEntity(c, map[string]string{"barcode": "Bu barkod zaten kullanılıyor"})
			}
			logger.LogError("catalog", "UpdateProduct", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün güncellenemedi")
		}

		database.DB.Preload("Category").First(&product, product.ID)
		cache.InvalidateDashboard()

		return c.JSON(fiber.Map{
			"message": "Ürün başarıyla güncellendi",
			"data":    product,
		})
	}
}

// DELETE /api/products/:id
// Ürünle birlikte alış ve satış kalemleri de silinir
func DeleteProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ürün ID")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var product models.Product
			if err := tx.First(&product, id).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
			}

			if err := tx.Where("product_id = ?", product.ID).
				Delete(&models.PurchaseInvoiceItem{}).Error; err != nil {
				return err
			}
			if err := tx.Where("product_id = ?", product.ID).
				Delete(&models.SalesInvoiceItem{}).Error; err != nil {
				return err
			}

			return tx.Delete(&product).Error
		})
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return fe
			}
			logger.LogError("catalog", "DeleteProduct", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün silinemedi")
		}

		cache.InvalidateDashboard()

		return c.JSON(fiber.Map{"message": "Ürün başarıyla silindi"})
	}
}
