package purchase

import (
	"marketpos-backend/internal/auth"
	"marketpos-backend/internal/cache"
	"marketpos-backend/internal/database"
	"marketpos-backend/internal/models"
	"marketpos-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Tek kalem uçları: stok ve fatura toplamları kalem bazında düzeltilir.
// Bu uçlar versiyon kaydı YAZMAZ; versiyonlar yalnızca fatura seviyesindeki
// akışlarda oluşur.

// recalcInvoiceTotals - fatura toplamlarını kalemlerden yeniden hesaplar
func recalcInvoiceTotals(tx *gorm.DB, invoiceID uint, actorID uint) error {
	return tx.Model(&models.PurchaseInvoice{}).
		Where("id = ?", invoiceID).
		Updates(map[string]interface{}{
			"total_amount": gorm.Expr("(SELECT COALESCE(SUM(total_price), 0) FROM purchase_invoice_items WHERE purchase_invoice_id = ?)", invoiceID),
			"amount_paid":  gorm.Expr("(SELECT COALESCE(SUM(amount_paid), 0) FROM purchase_invoice_items WHERE purchase_invoice_id = ?)", invoiceID),
			"updated_by":   actorID,
		}).Error
}

// POST /api/purchase-invoices/:id/items
func AddItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz fatura ID")
		}

		var in ItemInput
		if err := c.BodyParser(&in); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if errs := ValidateItems([]ItemInput{in}); errs != nil {
			return validation.UnprocessableEntity(c, errs)
		}
		if err := checkItemPaidCaps([]ItemInput{in}); err != nil {
			return err
		}

		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var item models.PurchaseInvoiceItem
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var invoice models.PurchaseInvoice
			if err := tx.First(&invoice, id).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Fatura bulunamadı")
			}

			if _, err := loadProducts(tx, []ItemInput{in}); err != nil {
				return err
			}

			expiry, err := parseExpiry(in.ExpiryDate)
			if err != nil {
				return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
			}

			item = models.PurchaseInvoiceItem{
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

			return recalcInvoiceTotals(tx, invoice.ID, user.ID)
		})
		if err != nil {
			return txError(err, "purchase", "AddItem", "Kalem eklenirken bir hata oluştu")
		}

		cache.InvalidateDashboard()

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Kalem başarıyla eklendi",
			"data":    item,
		})
	}
}

// PUT /api/purchase-invoices/:id/items/:itemId
func UpdateItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz fatura ID")
		}
		itemID, err := c.ParamsInt("itemId")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kalem ID")
		}

		var in ItemInput
		if err := c.BodyParser(&in); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if errs := ValidateItems([]ItemInput{in}); errs != nil {
			return validation.UnprocessableEntity(c, errs)
		}
		if err := checkItemPaidCaps([]ItemInput{in}); err != nil {
			return err
		}

		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var item models.PurchaseInvoiceItem
			if err := tx.Where("id = ? AND purchase_invoice_id = ?", itemID, id).
				First(&item).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Kalem bulunamadı")
			}

			// Kalemin ürünü değiştirilemez; miktar/fiyat güncellenir
			if in.ProductID != item.ProductID {
				return fiber.NewError(fiber.StatusUnprocessableEntity, "Kalemin ürünü değiştirilemez")
			}

			expiry, err := parseExpiry(in.ExpiryDate)
			if err != nil {
				return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
			}

			delta := in.StockContribution().Sub(item.StockContribution())
			if err := adjustStock(tx, item.ProductID, delta); err != nil {
				return err
			}

			updates := map[string]interface{}{
				"quantity":        in.Quantity,
				"unit_price":      in.UnitPrice,
				"number_of_units": in.NumberOfUnits,
				"amount_paid":     in.AmountPaid,
				"total_price":     in.Total(),
			}
			if expiry != nil {
				updates["expiry_date"] = expiry
			}
			if err := tx.Model(&item).Updates(updates).Error; err != nil {
				return err
			}

			return recalcInvoiceTotals(tx, item.PurchaseInvoiceID, user.ID)
		})
		if err != nil {
			return txError(err, "purchase", "UpdateItem", "Kalem güncellenirken bir hata oluştu")
		}

		cache.InvalidateDashboard()

		return c.JSON(fiber.Map{"message": "Kalem başarıyla güncellendi"})
	}
}

// DELETE /api/purchase-invoices/:id/items/:itemId
func DeleteItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz fatura ID")
		}
		itemID, err := c.ParamsInt("itemId")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kalem ID")
		}

		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var item models.PurchaseInvoiceItem
			if err := tx.Where("id = ? AND purchase_invoice_id = ?", itemID, id).
				First(&item).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Kalem bulunamadı")
			}

			if err := adjustStock(tx, item.ProductID, item.StockContribution().Neg()); err != nil {
				return err
			}

			if err := tx.Delete(&item).Error; err != nil {
				return err
			}

			return recalcInvoiceTotals(tx, item.PurchaseInvoiceID, user.ID)
		})
		if err != nil {
			return txError(err, "purchase", "DeleteItem", "Kalem silinirken bir hata oluştu")
		}

		cache.InvalidateDashboard()

		return c.JSON(fiber.Map{"message": "Kalem başarıyla silindi"})
	}
}
