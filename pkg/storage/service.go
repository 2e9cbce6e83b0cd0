package storage

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// Service stores uploaded files in S3, falling back to local disk when no
// bucket is configured. Either way callers get back a stable URL.
type Service struct {
	s3Client   *s3.S3
	bucket     string
	region     string
	uploadsDir string
}

// NewService creates a storage service from environment configuration
func NewService() *Service {
	svc := &Service{
		bucket:     os.Getenv("S3_BUCKET_NAME"),
		region:     os.Getenv("AWS_REGION"),
		uploadsDir: os.Getenv("UPLOADS_DIR"),
	}
	if svc.region == "" {
		svc.region = "us-east-1"
	}
	if svc.uploadsDir == "" {
		svc.uploadsDir = "./uploads"
	}

	if svc.bucket == "" {
		log.Println("S3_BUCKET_NAME not configured, files will be stored locally")
		return svc
	}

	sess, err := session.NewSession(&aws.Config{Region: aws.String(svc.region)})
	if err != nil {
		log.Printf("Failed to initialize AWS session, falling back to local storage: %v", err)
		svc.bucket = ""
		return svc
	}
	svc.s3Client = s3.New(sess)

	return svc
}

// Store persists the file and returns its URL
func (s *Service) Store(data []byte, fileName, mimeType, folder string) (string, error) {
	if s.bucket == "" || s.s3Client == nil {
		return s.storeLocally(data, fileName, folder)
	}

	key := folder + "/" + uniqueFileName(fileName)
	_, err := s.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mimeType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload failed: %w", err)
	}

	url := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
	log.Printf("File uploaded to S3: %s", url)
	return url, nil
}

// Delete removes a stored file, returning whether it succeeded
func (s *Service) Delete(fileURL string) bool {
	if s.bucket == "" || !strings.Contains(fileURL, s.bucket) {
		return s.deleteLocally(fileURL)
	}

	parts := strings.SplitN(fileURL, ".amazonaws.com/", 2)
	if len(parts) != 2 {
		return false
	}

	_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(parts[1]),
	})
	if err != nil {
		log.Printf("S3 delete failed for %s: %v", fileURL, err)
		return false
	}
	return true
}

// UploadsDir returns the local fallback directory, for static serving
func (s *Service) UploadsDir() string {
	return s.uploadsDir
}

func (s *Service) storeLocally(data []byte, fileName, folder string) (string, error) {
	dir := filepath.Join(s.uploadsDir, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create uploads directory: %w", err)
	}

	name := uniqueFileName(fileName)
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return "/uploads/" + folder + "/" + name, nil
}

func (s *Service) deleteLocally(fileURL string) bool {
	rel := strings.TrimPrefix(fileURL, "/uploads/")
	if rel == fileURL {
		return false
	}
	path := filepath.Join(s.uploadsDir, rel)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to delete local file %s: %v", path, err)
		return false
	}
	return true
}

func uniqueFileName(original string) string {
	ext := filepath.Ext(original)
	buf := make([]byte, 6)
	rand.Read(buf)
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), hex.EncodeToString(buf), ext)
}
