package sales

import (
	"marketpos-backend/internal/cache"
	"marketpos-backend/internal/database"
	"marketpos-backend/internal/models"
	"marketpos-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Satış kalemi uçları: stok uygunluk kontrolüyle kalem bazında düzeltme.
// Alış kalemlerinin aksine fatura toplamları burada yeniden hesaplanmaz;
// toplam düzeltmesi fatura seviyesindeki akışların işidir.

type CreateSaleItemRequest struct {
	SalesInvoiceID uint            `json:"sales_invoice_id" validate:"required"`
	ProductID      uint            `json:"product_id" validate:"required"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
}

type UpdateSaleItemRequest struct {
	Quantity  *decimal.Decimal `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

// GET /api/sales-invoice-items
func ListSaleItemsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := database.DB.Model(&models.SalesInvoiceItem{}).Preload("Product")

		if invoiceID := c.QueryInt("sales_invoice_id", 0); invoiceID > 0 {
			query = query.Where("sales_invoice_id = ?", invoiceID)
		}

		var items []models.SalesInvoiceItem
		if err := query.Order("id ASC").Find(&items).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kalemler listelenemedi")
		}
		return c.JSON(fiber.Map{"data": items})
	}
}

// GET /api/sales-invoice-items/:id
func GetSaleItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kalem ID")
		}

		var item models.SalesInvoiceItem
		if err := database.DB.Preload("Product").First(&item, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kalem bulunamadı")
		}
		return c.JSON(fiber.Map{"data": item})
	}
}

// POST /api/sales-invoice-items
// Stokta yeterli miktar yoksa reddedilir
func AddSaleItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateSaleItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if errs := validation.CheckStruct(body); errs != nil {
			return validation.UnprocessableEntity(c, errs)
		}
		if !body.Quantity.IsPositive() {
			return validation.UnprocessableEntity(c, map[string]string{"quantity": "quantity pozitif olmalı"})
		}
		if body.UnitPrice.IsNegative() {
			return validation.UnprocessableEntity(c, map[string]string{"unit_price": "unit_price negatif olamaz"})
		}

		var item models.SalesInvoiceItem
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			var invoice models.SalesInvoice
			if err := tx.First(&invoice, "id = ?", body.SalesInvoiceID).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Satış faturası bulunamadı")
			}

			var product models.Product
			if err := tx.First(&product, "id = ?", body.ProductID).Error; err != nil {
				return fiber.NewError(fiber.StatusUnprocessableEntity, "Ürün bulunamadı")
			}
			if product.Stock.LessThan(body.Quantity) {
				return fiber.NewError(fiber.StatusUnprocessableEntity, "Stokta yeterli miktar yok")
			}

			item = models.SalesInvoiceItem{
				SalesInvoiceID: invoice.ID,
				ProductID:      body.ProductID,
				Quantity:       body.Quantity,
				UnitPrice:      body.UnitPrice,
				TotalPrice:     body.Quantity.Mul(body.UnitPrice),
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}

			return tx.Model(&models.Product{}).
				Where("id = ?", body.ProductID).
				Update("stock", gorm.Expr("stock - ?", body.Quantity)).Error
		})
		if err != nil {
			return txError(err, "AddSaleItem", "Kalem eklenirken bir hata oluştu")
		}

		cache.InvalidateDashboard()

		database.DB.Preload("Product").First(&item, item.ID)

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Kalem başarıyla eklendi",
			"data":    item,
		})
	}
}

// PUT /api/sales-invoice-items/:id
// Miktar artışı mevcut stokla karşılanamıyorsa reddedilir;
// stok eski ve yeni miktarın farkı kadar düzeltilir
func UpdateSaleItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kalem ID")
		}

		var body UpdateSaleItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.Quantity != nil && !body.Quantity.IsPositive() {
			return validation.UnprocessableEntity(c, map[string]string{"quantity": "quantity pozitif olmalı"})
		}
		if body.UnitPrice != nil && body.UnitPrice.IsNegative() {
			return validation.UnprocessableEntity(c, map[string]string{"unit_price": "unit_price negatif olamaz"})
		}

		var item models.SalesInvoiceItem
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&item, id).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Kalem bulunamadı")
			}

			newQuantity := item.Quantity
			if body.Quantity != nil {
				newQuantity = *body.Quantity
			}
			newUnitPrice := item.UnitPrice
			if body.UnitPrice != nil {
				newUnitPrice = *body.UnitPrice
			}

			var product models.Product
			if err := tx.First(&product, "id = ?", item.ProductID).Error; err != nil {
				return fiber.NewError(fiber.StatusUnprocessableEntity, "Ürün bulunamadı")
			}
			// Eski miktar stoğa geri konmuş sayılır; kalan yeni miktarı karşılamalı
			if product.Stock.Add(item.Quantity).LessThan(newQuantity) {
				return fiber.NewError(fiber.StatusUnprocessableEntity, "Stokta yeterli miktar yok")
			}

			diff := item.Quantity.Sub(newQuantity)
			if !diff.IsZero() {
				if err := tx.Model(&models.Product{}).
					Where("id = ?", item.ProductID).
					Update("stock", gorm.Expr("stock + ?", diff)).Error; err != nil {
					return err
				}
			}

			return tx.Model(&item).Updates(map[string]interface{}{
				"quantity":    newQuantity,
				"unit_price":  newUnitPrice,
				"total_price": newQuantity.Mul(newUnitPrice),
			}).Error
		})
		if err != nil {
			return txError(err, "UpdateSaleItem", "Kalem güncellenirken bir hata oluştu")
		}

		cache.InvalidateDashboard()

		database.DB.Preload("Product").First(&item, item.ID)

		return c.JSON(fiber.Map{
			"message": "Kalem başarıyla güncellendi",
			"data":    item,
		})
	}
}

// DELETE /api/sales-invoice-items/:id
func DeleteSaleItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kalem ID")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var item models.SalesInvoiceItem
			if err := tx.First(&item, id).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Kalem bulunamadı")
			}

			if err := tx.Model(&models.Product{}).
				Where("id = ?", item.ProductID).
				Update("stock", gorm.Expr("stock + ?", item.Quantity)).Error; err != nil {
				return err
			}

			return tx.Delete(&item).Error
		})
		if err != nil {
			return txError(err, "DeleteSaleItem", "Kalem silinirken bir hata oluştu")
		}

		cache.InvalidateDashboard()

		return c.JSON(fiber.Map{"message": "Kalem başarıyla silindi"})
	}
}
