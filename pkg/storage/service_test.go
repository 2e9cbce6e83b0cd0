package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newLocalService(t *testing.T) *Service {
	t.Helper()
	t.Setenv("S3_BUCKET_NAME", "")
	t.Setenv("UPLOADS_DIR", t.TempDir())
	return NewService()
}

func TestStoreLocalFallback(t *testing.T) {
	svc := newLocalService(t)

	url, err := svc.Store([]byte("pdf-bytes"), "bill.pdf", "application/pdf", "bills")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if !strings.HasPrefix(url, "/uploads/bills/") {
		t.Fatalf("url = %q, want /uploads/bills/ prefix", url)
	}
	if !strings.HasSuffix(url, ".pdf") {
		t.Errorf("url = %q, extension lost", url)
	}

	rel := strings.TrimPrefix(url, "/uploads/")
	data, err := os.ReadFile(filepath.Join(svc.UploadsDir(), rel))
	if err != nil {
		t.Fatalf("stored file unreadable: %v", err)
	}
	if string(data) != "pdf-bytes" {
		t.Errorf("content = %q", data)
	}
}

func TestStoreGeneratesUniqueNames(t *testing.T) {
	svc := newLocalService(t)

	first, err := svc.Store([]byte("a"), "bill.jpg", "image/jpeg", "bills")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	second, err := svc.Store([]byte("b"), "bill.jpg", "image/jpeg", "bills")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if first == second {
		t.Errorf("same url for two uploads of the same name: %q", first)
	}
}

func TestDeleteLocalFile(t *testing.T) {
	svc := newLocalService(t)

	url, err := svc.Store([]byte("x"), "report.pdf", "application/pdf", "reports")
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	if !svc.Delete(url) {
		t.Fatal("delete returned false")
	}

	rel := strings.TrimPrefix(url, "/uploads/")
	if _, err := os.Stat(filepath.Join(svc.UploadsDir(), rel)); !os.IsNotExist(err) {
		t.Errorf("file still exists after delete")
	}

	if svc.Delete("https://elsewhere.example.com/file.pdf") {
		t.Error("foreign url should not be deletable")
	}
}
