package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shopledger/shopledger-backend/pkg/apperrors"
)

const extractionPrompt = `Analyze this purchase bill/invoice image and extract the following information in JSON format:

For each item found, provide:
- item: exact product name as written
- quantity: number of units purchased
- price: unit price per item (not total)
- total: total price for this item (quantity x price)

Also extract:
- vendor: store/vendor name
- billNumber: bill/invoice number if visible
- date: bill date if visible
- grandTotal: total bill amount

Return ONLY valid JSON in this exact format:
{
  "vendor": "Store Name",
  "billNumber": "INV-123",
  "date": "2024-01-15",
  "grandTotal": 150.50,
  "items": [
    {
      "item": "Coca-Cola 500ml",
      "quantity": 24,
      "price": 25.00,
      "total": 600.00
    }
  ]
}

Important:
- Extract ALL items visible in the bill
- Use exact product names as written
- Ensure quantities and prices are numbers
- If information is unclear, make reasonable assumptions
- Return empty string for missing vendor/billNumber/date`

// BillItem is one extracted line of a purchase bill
type BillItem struct {
	Item     string  `json:"item"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	Total    float64 `json:"total"`
}

// BillData is the structured payload extracted from a bill image
type BillData struct {
	Vendor     string     `json:"vendor"`
	BillNumber string     `json:"billNumber"`
	Date       string     `json:"date"`
	GrandTotal float64    `json:"grandTotal"`
	Items      []BillItem `json:"items"`
}

// Service calls the Gemini generateContent API to turn bill images into
// structured line items
type Service struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewService creates a Gemini service instance from environment configuration
func NewService() *Service {
	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-1.5-pro"
	}
	baseURL := os.Getenv("GEMINI_BASE_URL")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	return &Service{
		apiKey:     os.Getenv("GEMINI_API_KEY"),
		model:      model,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// IsConfigured checks whether an API key is present
func (s *Service) IsConfigured() bool {
	return s.apiKey != ""
}

type generatePart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateRequest struct {
	Contents []struct {
		Parts []generatePart `json:"parts"`
	} `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// ExtractBill sends the bill image to the model and parses the structured result
func (s *Service) ExtractBill(ctx context.Context, image []byte, mimeType string) (*BillData, error) {
	parts := []generatePart{
		{Text: extractionPrompt},
		{InlineData: &inlineData{
			MimeType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(image),
		}},
	}
	return s.generate(ctx, parts)
}

// ExtractBillText extracts structured bill data from plain text input
func (s *Service) ExtractBillText(ctx context.Context, billText string) (*BillData, error) {
	parts := []generatePart{
		{Text: extractionPrompt + "\n\nBill text:\n" + billText},
	}
	return s.generate(ctx, parts)
}

func (s *Service) generate(ctx context.Context, parts []generatePart) (*BillData, error) {
	if !s.IsConfigured() {
		return nil, apperrors.New(apperrors.CodeExtraction, "GEMINI_API_KEY is not configured")
	}

	var req generateRequest
	req.Contents = make([]struct {
		Parts []generatePart `json:"parts"`
	}, 1)
	req.Contents[0].Parts = parts

	body, err := json.Marshal(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeExtraction, "failed to encode request", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", s.baseURL, s.model, s.apiKey)

	var text string
	backoff := retry.WithMaxRetries(2, retry.NewConstant(2*time.Second))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(httpReq)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(err)
		}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return retry.RetryableError(fmt.Errorf("gemini API returned status %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("gemini API returned status %d: %s", resp.StatusCode, respBody)
		}

		var decoded generateResponse
		if err := json.Unmarshal(respBody, &decoded); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
			return fmt.Errorf("response contained no candidates")
		}
		text = decoded.Candidates[0].Content.Parts[0].Text
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeExtraction, "bill processing failed", err)
	}

	return ParseBillData(text)
}

// ParseBillData decodes and validates the model's JSON output. The model
// often wraps the payload in markdown code fences, which are stripped first.
func ParseBillData(text string) (*BillData, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var data BillData
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeExtraction, "failed to parse AI response as JSON", err)
	}

	if data.Items == nil {
		return nil, apperrors.New(apperrors.CodeExtraction, "invalid response structure: items array missing")
	}
	for i := range data.Items {
		item := &data.Items[i]
		if item.Item == "" {
			return nil, apperrors.Newf(apperrors.CodeExtraction, "invalid item at index %d: missing name", i)
		}
		if item.Quantity <= 0 || item.Price < 0 {
			return nil, apperrors.Newf(apperrors.CodeExtraction, "invalid item at index %d: bad quantity or price", i)
		}
		if item.Total == 0 {
			item.Total = item.Quantity * item.Price
		}
	}

	return &data, nil
}
