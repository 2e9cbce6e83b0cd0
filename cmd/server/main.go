package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/shopledger/shopledger-backend/internal/bills"
	"github.com/shopledger/shopledger-backend/internal/dashboard"
	"github.com/shopledger/shopledger-backend/internal/inventory"
	"github.com/shopledger/shopledger-backend/internal/reports"
	"github.com/shopledger/shopledger-backend/internal/sales"
	"github.com/shopledger/shopledger-backend/pkg/database"
	"github.com/shopledger/shopledger-backend/pkg/gemini"
	"github.com/shopledger/shopledger-backend/pkg/middleware"
	"github.com/shopledger/shopledger-backend/pkg/pdf"
	"github.com/shopledger/shopledger-backend/pkg/storage"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize database
	db, err := database.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Shared services
	storageService := storage.NewService()
	geminiService := gemini.NewService()
	pdfService := pdf.NewService(storageService)

	// Setup Gin router
	r := gin.Default()

	// Middleware
	r.Use(middleware.CORS())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Locally stored uploads (S3 fallback)
	r.Static("/uploads", storageService.UploadsDir())

	// API routes
	api := r.Group("/api")
	{
		// Inventory routes
		inventoryHandler := inventory.NewHandler(db, storageService, geminiService)
		api.GET("/inventory", inventoryHandler.List)
		api.POST("/inventory", inventoryHandler.Create)
		api.GET("/inventory/meta/categories", inventoryHandler.GetCategories)
		api.GET("/inventory/alerts/low-stock", inventoryHandler.GetLowStock)
		api.GET("/inventory/:id", inventoryHandler.Get)
		api.PUT("/inventory/:id", inventoryHandler.Update)
		api.DELETE("/inventory/:id", inventoryHandler.Delete)
		api.POST("/inventory/process-bill", inventoryHandler.ProcessBill)

		// Bulk import
		importHandler := inventory.NewImportHandler(db)
		api.POST("/inventory/import", importHandler.ImportFile)
		api.GET("/inventory/import/template", importHandler.DownloadTemplate)

		// Sales routes
		salesHandler := sales.NewHandler(db, pdfService)
		api.GET("/sales", salesHandler.List)
		api.POST("/sales", salesHandler.Create)
		api.GET("/sales/stats/summary", salesHandler.GetSummary)
		api.GET("/sales/:id", salesHandler.Get)
		api.DELETE("/sales/:id", salesHandler.Delete)
		api.POST("/sales/:id/bill", salesHandler.RenderBill)

		// Bills routes
		billsHandler := bills.NewHandler(db)
		api.GET("/bills/purchase", billsHandler.ListPurchaseBills)
		api.GET("/bills/purchase/:id", billsHandler.GetPurchaseBill)
		api.GET("/bills/sales", billsHandler.ListSalesBills)

		// Dashboard routes
		dashboardHandler := dashboard.NewHandler(db)
		api.GET("/dashboard/overview", dashboardHandler.GetOverview)
		api.GET("/dashboard/charts/sales", dashboardHandler.GetSalesChart)
		api.GET("/dashboard/charts/top-items", dashboardHandler.GetTopItems)

		// Reports routes
		reportsHandler := reports.NewHandler(db, pdfService)
		api.GET("/dashboard/reports/inventory", reportsHandler.GetInventoryReport)
		api.GET("/dashboard/reports/sales", reportsHandler.GetSalesReport)
	}

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
