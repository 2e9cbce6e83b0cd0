package dashboard

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopledger/shopledger-backend/pkg/database"
	"gorm.io/gorm"
)

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

type inventoryStats struct {
	TotalItems      int64   `json:"total_items"`
	TotalStockValue float64 `json:"total_stock_value"`
	LowStockCount   int64   `json:"low_stock_count"`
	OutOfStockCount int64   `json:"out_of_stock_count"`
}

type salesStats struct {
	Count   int64   `json:"count"`
	Revenue float64 `json:"revenue"`
}

type activity struct {
	Type        string    `json:"type"` // sale or purchase
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	CreatedAt   time.Time `json:"created_at"`
}

// GetOverview returns the dashboard headline numbers and recent activity
func (h *Handler) GetOverview(c *gin.Context) {
	now := time.Now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var inventory inventoryStats
	h.db.Model(&database.Item{}).Count(&inventory.TotalItems)
	h.db.Model(&database.Item{}).
		Select("COALESCE(SUM(quantity * unit_price), 0)").
		Scan(&inventory.TotalStockValue)
	h.db.Model(&database.Item{}).
		Where("quantity <= low_stock_threshold").
		Count(&inventory.LowStockCount)
	h.db.Model(&database.Item{}).
		Where("quantity = 0").
		Count(&inventory.OutOfStockCount)

	var today, month salesStats
	h.db.Model(&database.Sale{}).
		Select("COUNT(*) as count, COALESCE(SUM(total_amount), 0) as revenue").
		Where("created_at >= ?", todayStart).
		Scan(&today)
	h.db.Model(&database.Sale{}).
		Select("COUNT(*) as count, COALESCE(SUM(total_amount), 0) as revenue").
		Where("created_at >= ?", monthStart).
		Scan(&month)

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"inventory":        inventory,
			"todaySales":       today,
			"monthSales":       month,
			"recentActivities": h.recentActivities(),
		},
	})
}

// recentActivities merges the latest sales and purchase bills into one feed
func (h *Handler) recentActivities() []activity {
	var sales []database.Sale
	h.db.Order("created_at DESC").Limit(5).Find(&sales)

	var purchases []database.PurchaseBill
	h.db.Order("created_at DESC").Limit(5).Find(&purchases)

	activities := make([]activity, 0, len(sales)+len(purchases))
	for _, s := range sales {
		customer := s.CustomerName
		if customer == "" {
			customer = "Walk-in Customer"
		}
		activities = append(activities, activity{
			Type:        "sale",
			Description: "Sale to " + customer,
			Amount:      s.TotalAmount,
			CreatedAt:   s.CreatedAt,
		})
	}
	for _, p := range purchases {
		vendor := p.VendorName
		if vendor == "" {
			vendor = "Unknown Vendor"
		}
		activities = append(activities, activity{
			Type:        "purchase",
			Description: "Purchase from " + vendor,
			Amount:      p.TotalAmount,
			CreatedAt:   p.CreatedAt,
		})
	}

	sort.Slice(activities, func(i, j int) bool {
		return activities[i].CreatedAt.After(activities[j].CreatedAt)
	})
	if len(activities) > 10 {
		activities = activities[:10]
	}
	return activities
}

type salesPoint struct {
	SaleDate string  `json:"sale_date"`
	Count    int     `json:"count"`
	Revenue  float64 `json:"revenue"`
}

// GetSalesChart returns a daily sales series for the requested period
func (h *Handler) GetSalesChart(c *gin.Context) {
	period := c.DefaultQuery("period", "week")

	days := 7
	switch period {
	case "month":
		days = 30
	case "year":
		days = 365
	}
	since := time.Now().AddDate(0, 0, -days)

	var points []salesPoint
	if err := h.db.Model(&database.Sale{}).
		Select("DATE(created_at) as sale_date, COUNT(*) as count, COALESCE(SUM(total_amount), 0) as revenue").
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("sale_date ASC").
		Scan(&points).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sales chart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": points, "period": period})
}

type topItem struct {
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	TotalSold    int     `json:"total_sold"`
	TotalRevenue float64 `json:"total_revenue"`
}

// GetTopItems returns the best selling items over the requested period
func (h *Handler) GetTopItems(c *gin.Context) {
	days := 30
	switch c.DefaultQuery("period", "month") {
	case "week":
		days = 7
	case "year":
		days = 365
	}
	since := time.Now().AddDate(0, 0, -days)

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 10
	}

	var items []topItem
	if err := h.db.Model(&database.SaleItem{}).
		Select("items.name, items.category, SUM(sale_items.quantity) as total_sold, SUM(sale_items.total_price) as total_revenue").
		Joins("JOIN items ON sale_items.item_id = items.id").
		Joins("JOIN sales ON sale_items.sale_id = sales.id").
		Where("sales.created_at >= ?", since).
		Group("items.id, items.name, items.category").
		Order("total_sold DESC").
		Limit(limit).
		Scan(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch top items"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}
