package reports

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopledger/shopledger-backend/pkg/database"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// InventoryRenderer renders the inventory report as a stored PDF document
type InventoryRenderer interface {
	GenerateInventoryReport(items []database.Item) (string, error)
}

type Handler struct {
	db  *gorm.DB
	pdf InventoryRenderer
}

func NewHandler(db *gorm.DB, pdf InventoryRenderer) *Handler {
	return &Handler{db: db, pdf: pdf}
}

// GetInventoryReport returns the full stock list, as JSON or as a generated
// PDF document URL when format=pdf
func (h *Handler) GetInventoryReport(c *gin.Context) {
	var items []database.Item
	if err := h.db.Order("category, name").Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch inventory"})
		return
	}

	if c.Query("format") == "pdf" {
		if h.pdf == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "PDF generation is not available"})
			return
		}
		url, err := h.pdf.GenerateInventoryReport(items)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate inventory report"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"report_url": url}})
		return
	}

	var totalValue float64
	for _, item := range items {
		totalValue += float64(item.Quantity) * item.UnitPrice
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"items":             items,
			"total_items":       len(items),
			"total_stock_value": totalValue,
		},
	})
}

// GetSalesReport returns sales between startDate and endDate, as JSON or as
// an Excel download when format=xlsx
func (h *Handler) GetSalesReport(c *gin.Context) {
	query := h.db.Preload("Items").Preload("Items.Item").Order("created_at DESC")

	if startDate := c.Query("startDate"); startDate != "" {
		if parsed, err := time.Parse("2006-01-02", startDate); err == nil {
			query = query.Where("created_at >= ?", parsed)
		}
	}
	if endDate := c.Query("endDate"); endDate != "" {
		if parsed, err := time.Parse("2006-01-02", endDate); err == nil {
			query = query.Where("created_at <= ?", parsed.AddDate(0, 0, 1))
		}
	}

	var sales []database.Sale
	if err := query.Find(&sales).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sales"})
		return
	}

	if c.Query("format") == "xlsx" {
		h.writeSalesExcel(c, sales)
		return
	}

	var totalRevenue float64
	for _, sale := range sales {
		totalRevenue += sale.TotalAmount
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"sales":         sales,
			"total_sales":   len(sales),
			"total_revenue": totalRevenue,
		},
	})
}

func (h *Handler) writeSalesExcel(c *gin.Context, sales []database.Sale) {
	f := excelize.NewFile()
	defer f.Close()

	headers := []string{"Date", "Sale ID", "Customer", "Payment Method", "Items", "Total Amount"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue("Sheet1", cell, header)
	}

	for rowIdx, sale := range sales {
		customer := sale.CustomerName
		if customer == "" {
			customer = "Walk-in Customer"
		}

		itemCount := 0
		for _, line := range sale.Items {
			itemCount += line.Quantity
		}

		values := []interface{}{
			sale.CreatedAt.Format("2006-01-02 15:04"),
			sale.ID.String(),
			customer,
			sale.PaymentMethod,
			itemCount,
			sale.TotalAmount,
		}
		for colIdx, value := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue("Sheet1", cell, value)
		}
	}

	f.SetColWidth("Sheet1", "A", "B", 20)
	f.SetColWidth("Sheet1", "C", "D", 16)
	f.SetColWidth("Sheet1", "E", "F", 14)

	fileName := fmt.Sprintf("sales_report_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+fileName)

	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate sales report"})
		return
	}
}
