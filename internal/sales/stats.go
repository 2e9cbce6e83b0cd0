package sales

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopledger/shopledger-backend/pkg/database"
)

type SummaryTotals struct {
	TotalSales   int     `json:"total_sales"`
	TotalRevenue float64 `json:"total_revenue"`
	AverageSale  float64 `json:"average_sale"`
}

type TopItem struct {
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	TotalSold    int     `json:"total_sold"`
	TotalRevenue float64 `json:"total_revenue"`
}

type DailySales struct {
	SaleDate     string  `json:"sale_date"`
	SalesCount   int     `json:"sales_count"`
	DailyRevenue float64 `json:"daily_revenue"`
}

// GetSummary returns sales totals, top selling items and a daily series for
// the requested period (today, week, month, year)
func (h *Handler) GetSummary(c *gin.Context) {
	period := c.DefaultQuery("period", "today")
	since := periodStart(period, time.Now())

	var totals struct {
		Count   int64
		Revenue float64
	}
	h.db.Model(&database.Sale{}).
		Select("COUNT(*) as count, COALESCE(SUM(total_amount), 0) as revenue").
		Where("created_at >= ?", since).
		Scan(&totals)

	summary := SummaryTotals{
		TotalSales:   int(totals.Count),
		TotalRevenue: totals.Revenue,
	}
	if summary.TotalSales > 0 {
		summary.AverageSale = summary.TotalRevenue / float64(summary.TotalSales)
	}

	var topItems []TopItem
	h.db.Model(&database.SaleItem{}).
		Select("items.name, items.category, SUM(sale_items.quantity) as total_sold, SUM(sale_items.total_price) as total_revenue").
		Joins("JOIN items ON sale_items.item_id = items.id").
		Joins("JOIN sales ON sale_items.sale_id = sales.id").
		Where("sales.created_at >= ?", since).
		Group("items.id, items.name, items.category").
		Order("total_sold DESC").
		Limit(10).
		Scan(&topItems)

	var dailySales []DailySales
	h.db.Model(&database.Sale{}).
		Select("DATE(created_at) as sale_date, COUNT(*) as sales_count, SUM(total_amount) as daily_revenue").
		Where("created_at >= ?", time.Now().AddDate(0, 0, -7)).
		Group("DATE(created_at)").
		Order("sale_date DESC").
		Scan(&dailySales)

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"summary":    summary,
			"topItems":   topItems,
			"dailySales": dailySales,
			"period":     period,
		},
	})
}

func periodStart(period string, now time.Time) time.Time {
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch period {
	case "week":
		return todayStart.AddDate(0, 0, -7)
	case "month":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	case "year":
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
	default:
		return todayStart
	}
}
