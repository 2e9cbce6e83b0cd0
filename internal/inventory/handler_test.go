package inventory

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopledger/shopledger-backend/pkg/database"
	"gorm.io/gorm"
)

func newTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(db, nil, nil)
	r.GET("/api/inventory", h.List)
	r.POST("/api/inventory", h.Create)
	r.GET("/api/inventory/meta/categories", h.GetCategories)
	r.GET("/api/inventory/alerts/low-stock", h.GetLowStock)
	r.GET("/api/inventory/:id", h.Get)
	r.PUT("/api/inventory/:id", h.Update)
	r.DELETE("/api/inventory/:id", h.Delete)
	return r
}

func seedItems(t *testing.T, db *gorm.DB) {
	t.Helper()
	items := []database.Item{
		{Name: "Coca-Cola 500ml", Category: "Beverages", Quantity: 48, UnitPrice: 40, LowStockThreshold: 10},
		{Name: "Pepsi 500ml", Category: "Beverages", Quantity: 5, UnitPrice: 38, LowStockThreshold: 10},
		{Name: "Lays Classic", Category: "Snacks", Quantity: 30, UnitPrice: 20, LowStockThreshold: 10},
	}
	for i := range items {
		if err := db.Create(&items[i]).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func listResponse(t *testing.T, body []byte) (items []database.Item, count int) {
	t.Helper()
	var resp struct {
		Data  []database.Item `json:"data"`
		Count int             `json:"count"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.Data, resp.Count
}

func TestListInventoryFilters(t *testing.T) {
	db := newTestDB(t)
	seedItems(t, db)
	router := newTestRouter(db)

	cases := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"?category=Beverages", 2},
		{"?search=cola", 1},
		{"?lowStock=true", 1},
		{"?category=Beverages&lowStock=true", 1},
		{"?search=nothing-here", 0},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/inventory"+tc.query, nil)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", tc.query, w.Code)
		}
		items, count := listResponse(t, w.Body.Bytes())
		if count != tc.want || len(items) != tc.want {
			t.Errorf("%s: count = %d, want %d", tc.query, count, tc.want)
		}
	}
}

func TestCreateItemEndpoint(t *testing.T) {
	db := newTestDB(t)
	router := newTestRouter(db)

	body := `{"name":"Amul Butter 100g","category":"Dairy","quantity":24,"unit_price":60,"cost_price":48}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/inventory", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var item database.Item
	if err := db.Where("name = ?", "Amul Butter 100g").First(&item).Error; err != nil {
		t.Fatalf("item not persisted: %v", err)
	}
	if item.LowStockThreshold != 10 {
		t.Errorf("threshold = %d, want default 10", item.LowStockThreshold)
	}
}

func TestCreateItemEndpointValidation(t *testing.T) {
	db := newTestDB(t)
	router := newTestRouter(db)

	for name, body := range map[string]string{
		"missing name":     `{"quantity":1,"unit_price":10}`,
		"missing quantity": `{"name":"X","unit_price":10}`,
		"missing price":    `{"name":"X","quantity":1}`,
		"negative qty":     `{"name":"X","quantity":-1,"unit_price":10}`,
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/inventory", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", name, w.Code)
		}
	}
}

func TestCreateItemZeroQuantityAllowed(t *testing.T) {
	db := newTestDB(t)
	router := newTestRouter(db)

	body := `{"name":"Out of stock thing","quantity":0,"unit_price":10}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/inventory", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, zero stock must be accepted: %s", w.Code, w.Body.String())
	}
}

func TestUpdateAndDeleteItemEndpoints(t *testing.T) {
	db := newTestDB(t)
	item := database.Item{Name: "Old Name", Quantity: 5, UnitPrice: 10}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	router := newTestRouter(db)

	body := `{"name":"New Name","category":"Misc","quantity":8,"unit_price":12}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/inventory/"+item.ID.String(), strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", w.Code, w.Body.String())
	}

	var reloaded database.Item
	db.First(&reloaded, "id = ?", item.ID)
	if reloaded.Name != "New Name" || reloaded.Quantity != 8 || reloaded.UnitPrice != 12 {
		t.Errorf("reloaded = %+v", reloaded)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/api/inventory/"+item.ID.String(), nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}

	if err := db.First(&database.Item{}, "id = ?", item.ID).Error; err == nil {
		t.Error("item still loadable after delete")
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/api/inventory/"+item.ID.String(), nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", w.Code)
	}
}

func TestCategoriesAndLowStockEndpoints(t *testing.T) {
	db := newTestDB(t)
	seedItems(t, db)
	router := newTestRouter(db)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/inventory/meta/categories", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("categories status = %d", w.Code)
	}
	var catResp struct {
		Data []string `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &catResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if fmt.Sprint(catResp.Data) != "[Beverages Snacks]" {
		t.Errorf("categories = %v", catResp.Data)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/inventory/alerts/low-stock", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("low stock status = %d", w.Code)
	}
	items, count := listResponse(t, w.Body.Bytes())
	if count != 1 || len(items) != 1 || items[0].Name != "Pepsi 500ml" {
		t.Errorf("low stock = %v", items)
	}
}
