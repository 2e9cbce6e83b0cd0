package bills

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopledger/shopledger-backend/pkg/database"
	"gorm.io/gorm"
)

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// ListPurchaseBills returns recorded vendor bills, newest first
func (h *Handler) ListPurchaseBills(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	var bills []database.PurchaseBill
	if err := h.db.Preload("Items").Preload("Items.Item").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&bills).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch purchase bills"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": bills,
		"pagination": gin.H{
			"limit":  limit,
			"offset": offset,
			"count":  len(bills),
		},
	})
}

// GetPurchaseBill returns one vendor bill with its line items
func (h *Handler) GetPurchaseBill(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bill ID"})
		return
	}

	var bill database.PurchaseBill
	if err := h.db.Preload("Items").Preload("Items.Item").
		First(&bill, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Purchase bill not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch purchase bill"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": bill})
}

// ListSalesBills returns sales that have a generated bill document
func (h *Handler) ListSalesBills(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	var sales []database.Sale
	if err := h.db.Where("bill_pdf_url != ''").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&sales).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sales bills"})
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
