package inventory

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopledger/shopledger-backend/pkg/database"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type ImportHandler struct {
	db *gorm.DB
}

func NewImportHandler(db *gorm.DB) *ImportHandler {
	return &ImportHandler{db: db}
}

type ImportResult struct {
	TotalRows    int      `json:"total_rows"`
	SuccessCount int      `json:"success_count"`
	FailedCount  int      `json:"failed_count"`
	Errors       []string `json:"errors"`
}

type ImportRow struct {
	Name      string
	Category  string
	Quantity  int
	UnitPrice float64
	CostPrice float64
	Barcode   string
}

// ImportFile handles Excel/CSV upload for bulk inventory import. Existing
// items are matched by barcode first, then by name.
func (h *ImportHandler) ImportFile(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer file.Close()

	var rows []ImportRow
	fileName := strings.ToLower(header.Filename)

	if strings.HasSuffix(fileName, ".xlsx") || strings.HasSuffix(fileName, ".xls") {
		rows, err = parseExcel(file)
	} else if strings.HasSuffix(fileName, ".csv") {
		rows, err = parseCSV(file)
	} else {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported file format. Please upload .xlsx or .csv"})
		return
	}

	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Failed to parse file: %v", err)})
		return
	}

	result := ImportResult{
		TotalRows: len(rows),
		Errors:    []string{},
	}

	for i, row := range rows {
		if row.Name == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Item name is required", i+2))
			result.FailedCount++
			continue
		}

		var existing database.Item
		var found bool

		if row.Barcode != "" {
			if err := h.db.Where("barcode = ?", row.Barcode).First(&existing).Error; err == nil {
				found = true
			}
		}
		if !found {
			if err := h.db.Where("LOWER(name) = LOWER(?)", row.Name).First(&existing).Error; err == nil {
				found = true
			}
		}

		if found {
			updates := map[string]interface{}{
				"quantity": row.Quantity,
			}
			if row.UnitPrice > 0 {
				updates["unit_price"] = row.UnitPrice
			}
			if row.CostPrice > 0 {
				updates["cost_price"] = row.CostPrice
			}
			if row.Category != "" {
				updates["category"] = row.Category
			}

			if err := h.db.Model(&existing).Updates(updates).Error; err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Failed to update %s - %v", i+2, row.Name, err))
				result.FailedCount++
				continue
			}
			result.SuccessCount++
		} else {
			item := database.Item{
				Name:      row.Name,
				Category:  row.Category,
				Quantity:  row.Quantity,
				UnitPrice: row.UnitPrice,
				CostPrice: row.CostPrice,
				Barcode:   row.Barcode,
			}

			if err := h.db.Create(&item).Error; err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Failed to create %s - %v", i+2, row.Name, err))
				result.FailedCount++
				continue
			}
			result.SuccessCount++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"data":    result,
		"message": fmt.Sprintf("Import completed: %d success, %d failed", result.SuccessCount, result.FailedCount),
	})
}

func parseExcel(file io.Reader) ([]ImportRow, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in file")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	return mapRows(rows)
}

func parseCSV(file io.Reader) ([]ImportRow, error) {
	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return mapRows(records)
}

// mapRows resolves columns from the header row and converts the data rows.
// Common header spellings are accepted.
func mapRows(rows [][]string) ([]ImportRow, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("file must have header row and at least one data row")
	}

	colMap := make(map[string]int)
	for i, cell := range rows[0] {
		colMap[strings.ToLower(strings.TrimSpace(cell))] = i
	}

	pick := func(row []string, names ...string) string {
		for _, name := range names {
			if idx, ok := colMap[name]; ok && idx < len(row) {
				return strings.TrimSpace(row[idx])
			}
		}
		return ""
	}

	var result []ImportRow
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}

		importRow := ImportRow{
			Name:     pick(row, "item name", "name", "item", "product name"),
			Category: pick(row, "category"),
			Barcode:  pick(row, "barcode", "sku", "code"),
		}
		if val, err := strconv.Atoi(pick(row, "quantity", "stock", "qty")); err == nil {
			importRow.Quantity = val
		}
		if val, err := strconv.ParseFloat(pick(row, "unit price", "price", "selling price"), 64); err == nil {
			importRow.UnitPrice = val
		}
		if val, err := strconv.ParseFloat(pick(row, "cost price", "cost", "purchase price"), 64); err == nil {
			importRow.CostPrice = val
		}

		if importRow.Name != "" {
			result = append(result, importRow)
		}
	}

	return result, nil
}

// DownloadTemplate generates a sample Excel template for import
func (h *ImportHandler) DownloadTemplate(c *gin.Context) {
	f := excelize.NewFile()
	defer f.Close()

	headers := []string{"Item Name", "Category", "Quantity", "Unit Price", "Cost Price", "Barcode"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue("Sheet1", cell, header)
	}

	sampleData := [][]interface{}{
		{"Coca-Cola 500ml", "Beverages", 48, 40, 25, "8901234567890"},
		{"Lays Classic 52g", "Snacks", 30, 20, 14, "8901234567891"},
		{"Amul Butter 100g", "Dairy", 24, 60, 48, ""},
	}

	for rowIdx, row := range sampleData {
		for colIdx, value := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue("Sheet1", cell, value)
		}
	}

	f.SetColWidth("Sheet1", "A", "A", 22)
	f.SetColWidth("Sheet1", "B", "B", 15)
	f.SetColWidth("Sheet1", "C", "E", 12)
	f.SetColWidth("Sheet1", "F", "F", 18)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=inventory_import_template.xlsx")

	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate template"})
		return
	}
}
