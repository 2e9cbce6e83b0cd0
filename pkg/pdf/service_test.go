package pdf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/shopledger-backend/pkg/database"
	"github.com/shopledger/shopledger-backend/pkg/storage"
)

func newTestService(t *testing.T) (*Service, *storage.Service) {
	t.Helper()
	t.Setenv("S3_BUCKET_NAME", "")
	t.Setenv("UPLOADS_DIR", t.TempDir())
	t.Setenv("SHOP_NAME", "Test Mart")
	st := storage.NewService()
	return NewService(st), st
}

func readStored(t *testing.T, st *storage.Service, url string) []byte {
	t.Helper()
	rel := strings.TrimPrefix(url, "/uploads/")
	data, err := os.ReadFile(filepath.Join(st.UploadsDir(), rel))
	if err != nil {
		t.Fatalf("stored pdf unreadable: %v", err)
	}
	return data
}

func TestGenerateCustomerBill(t *testing.T) {
	svc, st := newTestService(t)

	item := database.Item{Name: "Coca-Cola 500ml"}
	sale := &database.Sale{
		TotalAmount:   80,
		PaymentMethod: "cash",
	}
	sale.ID = uuid.New()
	sale.CreatedAt = time.Now()

	lines := []database.SaleItem{
		{Item: item, Quantity: 2, UnitPrice: 40, TotalPrice: 80},
	}

	url, err := svc.GenerateCustomerBill(sale, lines)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(url, "/uploads/bills/") || !strings.HasSuffix(url, ".pdf") {
		t.Fatalf("url = %q", url)
	}

	data := readStored(t, st, url)
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Errorf("stored file is not a pdf")
	}
}

func TestGenerateInventoryReport(t *testing.T) {
	svc, st := newTestService(t)

	items := []database.Item{
		{Name: "Sugar 1kg", Category: "Grocery", Quantity: 10, UnitPrice: 45},
		{Name: "Salt 1kg", Quantity: 5, UnitPrice: 20},
	}

	url, err := svc.GenerateInventoryReport(items)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(url, "/uploads/reports/") {
		t.Fatalf("url = %q", url)
	}

	data := readStored(t, st, url)
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Errorf("stored file is not a pdf")
	}
}
