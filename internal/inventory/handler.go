package inventory

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopledger/shopledger-backend/pkg/apperrors"
	"github.com/shopledger/shopledger-backend/pkg/database"
	"gorm.io/gorm"
)

type Handler struct {
	db       *gorm.DB
	pipeline *Pipeline
}

func NewHandler(db *gorm.DB, store ObjectStore, extractor Extractor) *Handler {
	return &Handler{
		db:       db,
		pipeline: NewPipeline(db, store, extractor),
	}
}

type ItemRequest struct {
	Name              string   `json:"name" binding:"required"`
	Category          string   `json:"category"`
	Quantity          *int     `json:"quantity" binding:"required,gte=0"`
	UnitPrice         *float64 `json:"unit_price" binding:"required,gte=0"`
	CostPrice         float64  `json:"cost_price" binding:"omitempty,gte=0"`
	LowStockThreshold int      `json:"low_stock_threshold"`
	Barcode           string   `json:"barcode"`
	Description       string   `json:"description"`
}

// List returns inventory items with optional category/search/lowStock filters
func (h *Handler) List(c *gin.Context) {
	query := h.db.Order("name ASC")

	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?)", "%"+search+"%")
	}
	if c.Query("lowStock") == "true" {
		query = query.Where("quantity <= low_stock_threshold")
	}

	var items []database.Item
	if err := query.Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch inventory"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items, "count": len(items)})
}

// Get returns a single item
func (h *Handler) Get(c *gin.Context) {
	item, ok := h.loadItem(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": item})
}

// Create adds a new item manually
func (h *Handler) Create(c *gin.Context) {
	var req ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	threshold := req.LowStockThreshold
	if threshold == 0 {
		threshold = 10
	}

	item := database.Item{
		Name:              req.Name,
		Category:          req.Category,
		Quantity:          *req.Quantity,
		UnitPrice:         *req.UnitPrice,
		CostPrice:         req.CostPrice,
		LowStockThreshold: threshold,
		Barcode:           req.Barcode,
		Description:       req.Description,
	}

	if err := h.db.Create(&item).Error; err != nil {
		if apperrors.IsUniqueViolation(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "An item with this barcode already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add item"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": item, "message": "Item added successfully"})
}

// Update replaces an item's editable fields
func (h *Handler) Update(c *gin.Context) {
	item, ok := h.loadItem(c)
	if !ok {
		return
	}

	var req ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item.Name = req.Name
	item.Category = req.Category
	item.Quantity = *req.Quantity
	item.UnitPrice = *req.UnitPrice
	item.CostPrice = req.CostPrice
	if req.LowStockThreshold > 0 {
		item.LowStockThreshold = req.LowStockThreshold
	}
	item.Barcode = req.Barcode
	item.Description = req.Description

	if err := h.db.Save(item).Error; err != nil {
		if apperrors.IsUniqueViolation(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "An item with this barcode already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update item"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item, "message": "Item updated successfully"})
}

// Delete removes an item
func (h *Handler) Delete(c *gin.Context) {
	item, ok := h.loadItem(c)
	if !ok {
		return
	}

	if err := h.db.Delete(item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete item"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item deleted successfully"})
}

// GetCategories returns the distinct non-empty categories
func (h *Handler) GetCategories(c *gin.Context) {
	var categories []string
	if err := h.db.Model(&database.Item{}).
		Distinct("category").
		Where("category IS NOT NULL AND category != ''").
		Order("category").
		Pluck("category", &categories).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": categories})
}

// GetLowStock returns items at or below their low-stock threshold
func (h *Handler) GetLowStock(c *gin.Context) {
	var items []database.Item
	if err := h.db.Where("quantity <= low_stock_threshold").
		Order("quantity ASC").
		Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch low stock items"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items, "count": len(items)})
}

func (h *Handler) loadItem(c *gin.Context) (*database.Item, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return nil, false
	}

	var item database.Item
	if err := h.db.First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch item"})
		}
		return nil, false
	}
	return &item, true
}
