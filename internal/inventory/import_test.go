package inventory

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopledger/shopledger-backend/pkg/database"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

func importRequest(t *testing.T, fileName string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write(content)
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/inventory/import", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func newImportRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewImportHandler(db)
	r.POST("/api/inventory/import", h.ImportFile)
	r.GET("/api/inventory/import/template", h.DownloadTemplate)
	return r
}

func TestImportCSVCreatesAndUpdates(t *testing.T) {
	db := newTestDB(t)

	existing := database.Item{Name: "Sugar 1kg", Quantity: 3, UnitPrice: 40}
	if err := db.Create(&existing).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	csv := strings.Join([]string{
		"Item Name,Category,Quantity,Unit Price,Cost Price,Barcode",
		"sugar 1kg,Grocery,20,45,38,",
		"Salt 1kg,Grocery,15,20,14,8900000000001",
		",Grocery,5,10,5,",
	}, "\n")

	router := newImportRouter(db)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, importRequest(t, "stock.csv", []byte(csv)))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	// Existing item matched by name and updated in place
	var sugar database.Item
	db.First(&sugar, "id = ?", existing.ID)
	if sugar.Quantity != 20 || sugar.UnitPrice != 45 || sugar.CostPrice != 38 {
		t.Errorf("sugar = %+v", sugar)
	}

	var salt database.Item
	if err := db.Where("barcode = ?", "8900000000001").First(&salt).Error; err != nil {
		t.Fatalf("salt not created: %v", err)
	}
	if salt.Quantity != 15 {
		t.Errorf("salt quantity = %d", salt.Quantity)
	}

	var count int64
	db.Model(&database.Item{}).Count(&count)
	if count != 2 {
		t.Errorf("items = %d, the unnamed row must be dropped", count)
	}
}

func TestImportExcelRoundTrip(t *testing.T) {
	db := newTestDB(t)

	f := excelize.NewFile()
	headers := []string{"Item Name", "Quantity", "Unit Price"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue("Sheet1", cell, header)
	}
	f.SetCellValue("Sheet1", "A2", "Rice 5kg")
	f.SetCellValue("Sheet1", "B2", 8)
	f.SetCellValue("Sheet1", "C2", 320)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("build xlsx: %v", err)
	}

	router := newImportRouter(db)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, importRequest(t, "stock.xlsx", buf.Bytes()))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var rice database.Item
	if err := db.Where("name = ?", "Rice 5kg").First(&rice).Error; err != nil {
		t.Fatalf("rice not created: %v", err)
	}
	if rice.Quantity != 8 || rice.UnitPrice != 320 {
		t.Errorf("rice = %+v", rice)
	}
}

func TestImportRejectsUnsupportedFormat(t *testing.T) {
	db := newTestDB(t)
	router := newImportRouter(db)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, importRequest(t, "stock.pdf", []byte("%PDF")))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestDownloadTemplate(t *testing.T) {
	db := newTestDB(t)
	router := newImportRouter(db)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/inventory/import/template", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("template is not a valid workbook: %v", err)
	}
	defer f.Close()

	value, err := f.GetCellValue("Sheet1", "A1")
	if err != nil || value != "Item Name" {
		t.Errorf("A1 = %q, err = %v", value, err)
	}
}
