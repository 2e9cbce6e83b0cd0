package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopledger/shopledger-backend/pkg/apperrors"
	"github.com/shopledger/shopledger-backend/pkg/database"
	"github.com/shopledger/shopledger-backend/pkg/gemini"
	"gorm.io/gorm"
)

const maxBillSize = 10 << 20 // 10MB

// Extractor turns a bill image into structured line items
type Extractor interface {
	ExtractBill(ctx context.Context, image []byte, mimeType string) (*gemini.BillData, error)
}

// ObjectStore persists uploaded files and returns their public URL
type ObjectStore interface {
	Store(data []byte, fileName, mimeType, folder string) (string, error)
}

// Pipeline runs the bill ingestion flow: store the image, extract line
// items, record the bill, then apply each line to inventory.
type Pipeline struct {
	db        *gorm.DB
	store     ObjectStore
	extractor Extractor
}

func NewPipeline(db *gorm.DB, store ObjectStore, extractor Extractor) *Pipeline {
	return &Pipeline{db: db, store: store, extractor: extractor}
}

// ProcessedItem is an inventory item touched by a bill, tagged with how it
// was affected
type ProcessedItem struct {
	database.Item
	PurchasedQuantity int     `json:"purchased_quantity"`
	PurchasePrice     float64 `json:"purchase_price"`
	Created           bool    `json:"created"`
}

type ProcessSummary struct {
	TotalItems     int     `json:"totalItems"`
	ProcessedItems int     `json:"processedItems"`
	Vendor         string  `json:"vendor"`
	TotalAmount    float64 `json:"totalAmount"`
}

type ProcessResult struct {
	Bill    database.PurchaseBill `json:"bill"`
	Items   []ProcessedItem       `json:"items"`
	Summary ProcessSummary        `json:"summary"`
}

// Process ingests one bill. Storage and extraction failures abort the whole
// flow; once the bill row exists, each line is applied in its own
// transaction so a bad line cannot undo the others.
func (p *Pipeline) Process(ctx context.Context, file []byte, fileName, mimeType string) (*ProcessResult, error) {
	imageURL, err := p.store.Store(file, fileName, mimeType, "bills")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "Failed to store bill image", err)
	}

	data, err := p.extractor.ExtractBill(ctx, file, mimeType)
	if err != nil {
		return nil, err
	}

	raw, _ := json.Marshal(data)
	bill := database.PurchaseBill{
		VendorName:    data.Vendor,
		BillNumber:    data.BillNumber,
		TotalAmount:   data.GrandTotal,
		BillImageURL:  imageURL,
		ProcessedData: string(raw),
		Status:        "processed",
	}
	if err := p.db.Create(&bill).Error; err != nil {
		return nil, err
	}

	processed := make([]ProcessedItem, 0, len(data.Items))
	for _, line := range data.Items {
		item, err := p.applyLine(bill.ID, line)
		if err != nil {
			log.Printf("Skipping bill item %q: %v", line.Item, err)
			continue
		}
		processed = append(processed, *item)
	}

	return &ProcessResult{
		Bill:  bill,
		Items: processed,
		Summary: ProcessSummary{
			TotalItems:     len(data.Items),
			ProcessedItems: len(processed),
			Vendor:         data.Vendor,
			TotalAmount:    data.GrandTotal,
		},
	}, nil
}

// applyLine upserts one inventory item from a bill line. Matching is by
// exact case-insensitive name.
func (p *Pipeline) applyLine(billID uuid.UUID, line gemini.BillItem) (*ProcessedItem, error) {
	qty := int(line.Quantity)
	if qty <= 0 {
		return nil, fmt.Errorf("invalid quantity %v", line.Quantity)
	}

	var processed ProcessedItem
	err := p.db.Transaction(func(tx *gorm.DB) error {
		var item database.Item
		err := tx.Where("LOWER(name) = LOWER(?)", line.Item).First(&item).Error
		switch {
		case err == nil:
			if err := tx.Model(&item).Updates(map[string]interface{}{
				"quantity":   gorm.Expr("quantity + ?", qty),
				"cost_price": line.Price,
			}).Error; err != nil {
				return err
			}
			if err := tx.First(&item, "id = ?", item.ID).Error; err != nil {
				return err
			}
			processed.Created = false
		case errors.Is(err, gorm.ErrRecordNotFound):
			item = database.Item{
				Name:      line.Item,
				Quantity:  qty,
				UnitPrice: line.Price,
				CostPrice: line.Price,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			processed.Created = true
		default:
			return err
		}

		processed.Item = item
		processed.PurchasedQuantity = qty
		processed.PurchasePrice = line.Price

		return tx.Create(&database.PurchaseItem{
			BillID:     billID,
			ItemID:     item.ID,
			Quantity:   qty,
			UnitPrice:  line.Price,
			TotalPrice: line.Total,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &processed, nil
}

// ProcessBill accepts a bill image upload and runs the ingestion pipeline
func (h *Handler) ProcessBill(c *gin.Context) {
	file, err := c.FormFile("billImage")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bill image is required"})
		return
	}
	if file.Size > maxBillSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File too large, maximum size is 10MB"})
		return
	}

	mimeType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "image/") && mimeType != "application/pdf" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only image and PDF files are allowed"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}

	result, err := h.pipeline.Process(c.Request.Context(), data, file.Filename, mimeType)
	if err != nil {
		message := "Failed to process bill"
		if typed := apperrors.As(err); typed != nil {
			message = typed.Message()
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":    result,
		"message": fmt.Sprintf("Successfully processed %d items from bill", result.Summary.ProcessedItems),
	})
}
