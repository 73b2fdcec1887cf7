package sales

import (
	"fmt"
	"time"

	"marketpos-backend/internal/auth"
	"marketpos-backend/internal/cache"
	"marketpos-backend/internal/database"
	"marketpos-backend/internal/models"
	"marketpos-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReturnItemInput struct {
	SalesInvoiceItemID uint            `json:"sales_invoice_item_id"`
	Quantity           decimal.Decimal `json:"quantity"`
}

type CreateReturnRequest struct {
	SalesInvoiceID uint              `json:"sales_invoice_id" validate:"required"`
	Notes          string            `json:"notes" validate:"max=500"`
	Items          []ReturnItemInput `json:"items"`
}

func withReturnRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items.Product").
		Preload("Items.SalesInvoiceItem").
		Preload("Invoice").
		Preload("User", unscoped)
}

// GET /api/sales-returns
func ListReturnsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := withReturnRelations(database.DB.Model(&models.SalesReturn{}))

		if invoiceID := c.QueryInt("sales_invoice_id", 0); invoiceID > 0 {
			query = query.Where("sales_invoice_id = ?", invoiceID)
		}
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
			return fiber.NewError(fiber.StatusInternalServerError, "İadeler listelenemedi")
		}

		var returns []models.SalesReturn
		if err := query.Order("created_at DESC").
			Offset((page - 1) * perPage).Limit(perPage).
			Find(&returns).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İadeler listelenemedi")
		}

		return c.JSON(fiber.Map{
			"data":     returns,
			"total":    total,
			"page":     page,
			"per_page": perPage,
		})
	}
}

// POST /api/sales-returns
// Tek bir kalem bile sınırı aşarsa iadenin TAMAMI reddedilir; kısmi
// uygulama yapılmaz. İade her zaman orijinal satış birim fiyatından yapılır.
func CreateReturnHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateReturnRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if errs := validation.CheckStruct(body); errs != nil {
			return validation.UnprocessableEntity(c, errs)
		}
		if len(body.Items) == 0 {
			return validation.UnprocessableEntity(c, map[string]string{"items": "En az bir kalem gerekli"})
		}
		for i, it := range body.Items {
			if it.SalesInvoiceItemID == 0 {
				return validation.UnprocessableEntity(c, map[string]string{
					fmt.Sprintf("items.%d.sales_invoice_item_id", i): "sales_invoice_item_id zorunlu",
				})
			}
			if !it.Quantity.IsPositive() {
				return validation.UnprocessableEntity(c, map[string]string{
					fmt.Sprintf("items.%d.quantity", i): "quantity pozitif olmalı",
				})
			}
		}

		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var ret models.SalesReturn
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var invoice models.SalesInvoice
			if err := tx.First(&invoice, "id = ?", body.SalesInvoiceID).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Satış faturası bulunamadı")
			}

			now := time.Now()
			ret = models.SalesReturn{
				ReturnNumber:   newReturnNumber(now),
				Date:           now,
				SalesInvoiceID: invoice.ID,
				Notes:          body.Notes,
				UserID:         user.ID,
			}
			if err := tx.Omit(clause.Associations).Create(&ret).Error; err != nil {
				return err
			}

			var totalAmount decimal.Decimal
			for _, in := range body.Items {
				var saleItem models.SalesInvoiceItem
				if err := tx.Where("id = ? AND sales_invoice_id = ?", in.SalesInvoiceItemID, invoice.ID).
					First(&saleItem).Error; err != nil {
					return fiber.NewError(fiber.StatusUnprocessableEntity,
						fmt.Sprintf("Kalem bu faturaya ait değil (ID: %d)", in.SalesInvoiceItemID))
				}

				max := models.MaxReturnable(&saleItem)
				if in.Quantity.GreaterThan(max) {
					return fiber.NewError(fiber.StatusUnprocessableEntity,
						fmt.Sprintf("İade miktarı kalan miktarı aşıyor (kalem %d, en fazla %s)", saleItem.ID, max.String()))
				}

				item := models.SalesReturnItem{
					SalesReturnID:      ret.ID,
					SalesInvoiceItemID: saleItem.ID,
					ProductID:          saleItem.ProductID,
					Quantity:           in.Quantity,
					UnitPrice:          saleItem.UnitPrice,
					TotalPrice:         in.Quantity.Mul(saleItem.UnitPrice),
				}
				if err := tx.Create(&item).Error; err != nil {
					return err
				}

				if err := tx.Model(&models.SalesInvoiceItem{}).
					Where("id = ?", saleItem.ID).
					Update("returned_quantity", gorm.Expr("returned_quantity + ?", in.Quantity)).Error; err != nil {
					return err
				}
				if err := tx.Model(&models.Product{}).
					Where("id = ?", saleItem.ProductID).
					Update("stock", gorm.Expr("stock + ?", in.Quantity)).Error; err != nil {
					return err
				}

				totalAmount = totalAmount.Add(item.TotalPrice)
			}

			return tx.Model(&ret).Update("total_amount", totalAmount).Error
		})
		if err != nil {
			return txError(err, "CreateReturn", "İade oluşturulurken bir hata oluştu")
		}

		cache.InvalidateDashboard()

		var created models.SalesReturn
		if err := withReturnRelations(database.DB).First(&created, ret.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İade yüklenemedi")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "İade başarıyla oluşturuldu",
			"data":    created,
		})
	}
}

// GET /api/sales-returns/:id
func GetReturnHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz iade ID")
		}

		var ret models.SalesReturn
		if err := withReturnRelations(database.DB).First(&ret, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "İade bulunamadı")
		}

		return c.JSON(fiber.Map{"data": ret})
	}
}

// DELETE /api/sales-returns/:id
// İade geri alınır: returned_quantity ve stok ters yönde düzeltilir
func DeleteReturnHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz iade ID")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var ret models.SalesReturn
			if err := tx.Preload("Items").First(&ret, id).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "İade bulunamadı")
			}

			for _, item := range ret.Items {
				if err := tx.Model(&models.SalesInvoiceItem{}).
					Where("id = ?", item.SalesInvoiceItemID).
					Update("returned_quantity", gorm.Expr("returned_quantity - ?", item.Quantity)).Error; err != nil {
					return err
				}
				if err := tx.Model(&models.Product{}).
					Where("id = ?", item.ProductID).
					Update("stock", gorm.Expr("stock - ?", item.Quantity)).Error; err != nil {
					return err
				}
			}

			if err := tx.Where("sales_return_id = ?", ret.ID).
				Delete(&models.SalesReturnItem{}).Error; err != nil {
				return err
			}

			return tx.Delete(&ret).Error
		})
		if err != nil {
			return txError(err, "DeleteReturn", "İade silinirken bir hata oluştu")
		}

		cache.InvalidateDashboard()

		return c.JSON(fiber.Map{"message": "İade başarıyla silindi"})
	}
}
