package sales

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/shopledger/shopledger-backend/pkg/apperrors"
	"github.com/shopledger/shopledger-backend/pkg/database"
	"gorm.io/gorm"
)

// BillRenderer renders a customer-facing bill document and returns its URL
type BillRenderer interface {
	GenerateCustomerBill(sale *database.Sale, items []database.SaleItem) (string, error)
}

type Handler struct {
	db      *gorm.DB
	service *Service
	pdf     BillRenderer
}

func NewHandler(db *gorm.DB, pdf BillRenderer) *Handler {
	return &Handler{db: db, service: NewService(db), pdf: pdf}
}

// List returns sales, newest first, with optional date filters
func (h *Handler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	query := h.db.Preload("Items").Preload("Items.Item").
		Order("created_at DESC").
		Limit(limit).Offset(offset)

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

	c.JSON(http.StatusOK, gin.H{
		"data": sales,
		"pagination": gin.H{
			"limit":  limit,
			"offset": offset,
			"count":  len(sales),
		},
	})
}

// Get returns a single sale with its items
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sale ID"})
		return
	}

	sale, err := h.service.GetSale(id)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Sale not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sale"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": sale})
}

// Create processes a new sale
func (h *Handler) Create(c *gin.Context) {
	var req CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sale, err := h.service.CreateSale(&req)
	if err != nil {
		status := http.StatusInternalServerError
		message := "Failed to create sale"
		if typed := apperrors.As(err); typed != nil {
			message = typed.Message()
			status = typed.HTTPStatus()
		}
		c.JSON(status, gin.H{"error": message})
		return
	}

	// Reload with associations for the bill and the response
	h.db.Preload("Items").Preload("Items.Item").First(sale, "id = ?", sale.ID)

	// Best-effort follow-up: the sale is committed either way, a rendering
	// failure only leaves bill_pdf_url empty.
	h.renderBill(sale)

	c.JSON(http.StatusCreated, gin.H{
		"data":    sale,
		"message": "Sale completed successfully",
	})
}

// Delete reverses a sale and restores stock
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sale ID"})
		return
	}

	if err := h.service.DeleteSale(id); err != nil {
		if apperrors.HasCode(err, apperrors.CodeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Sale not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete sale"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Sale deleted and inventory restored"})
}

// RenderBill regenerates the bill PDF for an existing sale, for clients
// retrying after a failed post-commit render
func (h *Handler) RenderBill(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sale ID"})
		return
	}

	sale, err := h.service.GetSale(id)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Sale not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sale"})
		return
	}

	url := h.renderBill(sale)
	if url == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate bill PDF"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"bill_pdf_url": url}})
}

// renderBill generates the bill with a bounded retry and persists the URL on
// the sale. Returns "" when rendering keeps failing.
func (h *Handler) renderBill(sale *database.Sale) string {
	if h.pdf == nil {
		return ""
	}

	var url string
	backoff := retry.WithMaxRetries(2, retry.NewConstant(500*time.Millisecond))
	err := retry.Do(context.Background(), backoff, func(ctx context.Context) error {
		rendered, err := h.pdf.GenerateCustomerBill(sale, sale.Items)
		if err != nil {
			return retry.RetryableError(err)
		}
		url = rendered
		return nil
	})
	if err != nil {
		log.Printf("Bill PDF generation failed for sale %s: %v", sale.ID, err)
		return ""
	}

	if err := h.db.Model(&database.Sale{}).Where("id = ?", sale.ID).
		Update("bill_pdf_url", url).Error; err != nil {
		log.Printf("Failed to persist bill URL for sale %s: %v", sale.ID, err)
	}
	sale.BillPDFURL = url
	return url
}
