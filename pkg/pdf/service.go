package pdf

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopledger/shopledger-backend/pkg/apperrors"
	"github.com/shopledger/shopledger-backend/pkg/database"
	"github.com/shopledger/shopledger-backend/pkg/storage"
)

// Service renders customer bills and inventory reports as PDFs and uploads
// them through the storage service
type Service struct {
	storage  *storage.Service
	shopName string
}

// NewService creates a PDF service instance
func NewService(st *storage.Service) *Service {
	shopName := os.Getenv("SHOP_NAME")
	if shopName == "" {
		shopName = "ShopLedger Store"
	}
	return &Service{storage: st, shopName: shopName}
}

// GenerateCustomerBill renders a bill for a completed sale and returns the
// stored document URL
func (s *Service) GenerateCustomerBill(sale *database.Sale, items []database.SaleItem) (string, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.AddPage()

	// Header
	doc.SetFont("Helvetica", "B", 20)
	doc.Cell(0, 10, "SALES INVOICE")
	doc.Ln(12)
	doc.SetFont("Helvetica", "", 11)
	doc.Cell(0, 6, s.shopName)
	doc.Ln(6)
	doc.Cell(0, 6, fmt.Sprintf("Date: %s", sale.CreatedAt.Format("02 Jan 2006 15:04")))
	doc.Ln(6)
	doc.Cell(0, 6, fmt.Sprintf("Invoice #: %s", sale.ID))
	doc.Ln(10)

	// Customer info
	doc.SetFont("Helvetica", "B", 12)
	doc.Cell(0, 7, "Bill To:")
	doc.Ln(7)
	doc.SetFont("Helvetica", "", 11)
	customer := sale.CustomerName
	if customer == "" {
		customer = "Walk-in Customer"
	}
	doc.Cell(0, 6, customer)
	doc.Ln(6)
	if sale.CustomerPhone != "" {
		doc.Cell(0, 6, fmt.Sprintf("Phone: %s", sale.CustomerPhone))
		doc.Ln(6)
	}
	doc.Cell(0, 6, fmt.Sprintf("Payment Method: %s", sale.PaymentMethod))
	doc.Ln(10)

	// Items table
	doc.SetFont("Helvetica", "B", 11)
	doc.CellFormat(15, 8, "#", "B", 0, "L", false, 0, "")
	doc.CellFormat(85, 8, "Item", "B", 0, "L", false, 0, "")
	doc.CellFormat(20, 8, "Qty", "B", 0, "R", false, 0, "")
	doc.CellFormat(35, 8, "Price", "B", 0, "R", false, 0, "")
	doc.CellFormat(35, 8, "Total", "B", 1, "R", false, 0, "")

	doc.SetFont("Helvetica", "", 11)
	for i, line := range items {
		doc.CellFormat(15, 8, fmt.Sprintf("%d", i+1), "", 0, "L", false, 0, "")
		doc.CellFormat(85, 8, line.Item.Name, "", 0, "L", false, 0, "")
		doc.CellFormat(20, 8, fmt.Sprintf("%d", line.Quantity), "", 0, "R", false, 0, "")
		doc.CellFormat(35, 8, fmt.Sprintf("%.2f", line.UnitPrice), "", 0, "R", false, 0, "")
		doc.CellFormat(35, 8, fmt.Sprintf("%.2f", line.TotalPrice), "", 1, "R", false, 0, "")
	}

	// Total
	doc.Ln(4)
	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(155, 8, "Total:", "T", 0, "R", false, 0, "")
	doc.CellFormat(35, 8, fmt.Sprintf("%.2f", sale.TotalAmount), "T", 1, "R", false, 0, "")

	// Footer
	doc.Ln(12)
	doc.SetFont("Helvetica", "", 9)
	doc.Cell(0, 5, "Thank you for your business!")
	doc.Ln(5)
	doc.Cell(0, 5, "Items can be returned within 7 days with receipt.")

	fileName := fmt.Sprintf("bill-%s-%d.pdf", sale.ID, time.Now().UnixMilli())
	return s.upload(doc, fileName, "bills")
}

// GenerateInventoryReport renders the current stock list and returns the
// stored document URL
func (s *Service) GenerateInventoryReport(items []database.Item) (string, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 20)
	doc.Cell(0, 10, "Inventory Report")
	doc.Ln(12)
	doc.SetFont("Helvetica", "", 11)
	doc.Cell(0, 6, fmt.Sprintf("Generated on: %s", time.Now().Format("02 Jan 2006")))
	doc.Ln(10)

	doc.SetFont("Helvetica", "B", 10)
	doc.CellFormat(60, 8, "Item Name", "B", 0, "L", false, 0, "")
	doc.CellFormat(35, 8, "Category", "B", 0, "L", false, 0, "")
	doc.CellFormat(25, 8, "Quantity", "B", 0, "R", false, 0, "")
	doc.CellFormat(30, 8, "Price", "B", 0, "R", false, 0, "")
	doc.CellFormat(35, 8, "Value", "B", 1, "R", false, 0, "")

	doc.SetFont("Helvetica", "", 10)
	var totalValue float64
	for _, item := range items {
		value := float64(item.Quantity) * item.UnitPrice
		totalValue += value

		category := item.Category
		if category == "" {
			category = "N/A"
		}
		doc.CellFormat(60, 7, item.Name, "", 0, "L", false, 0, "")
		doc.CellFormat(35, 7, category, "", 0, "L", false, 0, "")
		doc.CellFormat(25, 7, fmt.Sprintf("%d", item.Quantity), "", 0, "R", false, 0, "")
		doc.CellFormat(30, 7, fmt.Sprintf("%.2f", item.UnitPrice), "", 0, "R", false, 0, "")
		doc.CellFormat(35, 7, fmt.Sprintf("%.2f", value), "", 1, "R", false, 0, "")
	}

	doc.Ln(4)
	doc.SetFont("Helvetica", "B", 11)
	doc.CellFormat(150, 8, "Total stock value:", "T", 0, "R", false, 0, "")
	doc.CellFormat(35, 8, fmt.Sprintf("%.2f", totalValue), "T", 1, "R", false, 0, "")

	fileName := fmt.Sprintf("inventory-report-%d.pdf", time.Now().UnixMilli())
	return s.upload(doc, fileName, "reports")
}

func (s *Service) upload(doc *gofpdf.Fpdf, fileName, folder string) (string, error) {
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return "", apperrors.Wrap(apperrors.CodeStorage, "PDF generation failed", err)
	}

	url, err := s.storage.Store(buf.Bytes(), fileName, "application/pdf", folder)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeStorage, "failed to store PDF", err)
	}
	return url, nil
}
