package reports

import (
	"fmt"
	"time"

	"marketpos-backend/internal/database"
	"marketpos-backend/internal/logger"
	"marketpos-backend/internal/models"
	"marketpos-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

// GET /api/reports/sales-summary/export
// Satış özetini xlsx olarak indirir
func ExportSalesSummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		expr, ok := periodExpr(c.Query("period"))
		if !ok {
			return validation.UnprocessableEntity(c, map[string]string{"period": "period daily, weekly veya monthly olmalı"})
		}

		query := database.DB.Model(&models.SalesInvoice{}).
			Select(expr + " AS period, COUNT(*) AS invoices_count, COALESCE(SUM(total_amount), 0) AS total_amount, COALESCE(SUM(paid_amount), 0) AS total_paid, COALESCE(SUM(total_amount - paid_amount), 0) AS total_due").
			Group("period").
			Order("period ASC")

		query, err := dateRange(c, query, "date")
		if err != nil {
			return err
		}

		var rows []SummaryRow
		if err := query.Scan(&rows).Error; err != nil {
			logger.LogError("reports", "ExportSalesSummary", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Rapor dışa aktarılamadı")
		}

		f := excelize.NewFile()
		defer f.Close()

		sheet := "Satış Özeti"
		f.SetSheetName("Sheet1", sheet)

		headers := []string{"Dönem", "Fatura Sayısı", "Toplam Tutar", "Ödenen Tutar", "Kalan Tutar"}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheet, cell, h)
		}

		for i, row := range rows {
			values := []any{
				row.Period,
				row.InvoicesCount,
				row.TotalAmount.InexactFloat64(),
				row.TotalPaid.InexactFloat64(),
				row.TotalDue.InexactFloat64(),
			}
			for j, v := range values {
				cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
				f.SetCellValue(sheet, cell, v)
			}
		}

		buf, err := f.WriteToBuffer()
		if err != nil {
			logger.LogError("reports", "ExportSalesSummary", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Rapor dışa aktarılamadı")
		}

		filename := fmt.Sprintf("satis-ozeti-%s.xlsx", time.Now().Format("20060102-150405"))
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))

		return c.Send(buf.Bytes())
	}
}
