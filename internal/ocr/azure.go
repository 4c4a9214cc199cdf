package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/nina031/MenuScanner-backend/internal/errs"
)

const (
	analyzePath = "/formrecognizer/documentModels/prebuilt-read:analyze?api-version=2023-07-31"

	// Below this many trimmed characters the image is considered unreadable.
	minTextLength = 10
)

// tinyPNG is a valid 1x1 image used by Ping to exercise the full analyze
// round-trip without real content.
var tinyPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x02, 0x00, 0x00, 0x00, 0x90, 0x77, 0x53, 0xde, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x08, 0x1d, 0x63, 0xf8, 0x00, 0x00, 0x00,
	0x01, 0x00, 0x01, 0xab, 0xb4, 0x1b, 0xc6, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

// AzureClient talks to Azure Document Intelligence's prebuilt-read model.
// The analyze API is asynchronous: submit returns an operation URL which is
// polled until the job settles.
type AzureClient struct {
	endpoint string
	apiKey   string
	client   *http.Client

	pollInterval time.Duration
	pollTimeout  time.Duration
}

func NewAzureClient(endpoint, apiKey string) *AzureClient {
	return &AzureClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		pollInterval: 1 * time.Second,
		pollTimeout:  60 * time.Second,
	}
}

type analyzeResult struct {
	Status        string `json:"status"`
	AnalyzeResult struct {
		Pages []struct {
			Lines []struct {
				Content string `json:"content"`
			} `json:"lines"`
			Words []struct {
				Confidence float64 `json:"confidence"`
			} `json:"words"`
		} `json:"pages"`
	} `json:"analyzeResult"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ExtractText runs OCR on raw image bytes and returns the page lines joined
// by newlines. Fails INSUFFICIENT_TEXT when the result trims to fewer than
// ten characters.
func (c *AzureClient) ExtractText(ctx context.Context, image []byte) (string, error) {
	start := time.Now()

	operationURL, err := c.submit(ctx, image)
	if err != nil {
		return "", err
	}

	result, err := c.poll(ctx, operationURL)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	wordCount := 0
	confidenceSum := 0.0
	for _, page := range result.AnalyzeResult.Pages {
		for _, line := range page.Lines {
			sb.WriteString(line.Content)
			sb.WriteString("\n")
		}
		for _, w := range page.Words {
			wordCount++
			confidenceSum += w.Confidence
		}
	}

	text := strings.TrimSpace(sb.String())
	if len(text) < minTextLength {
		return "", errs.OCR(errs.CodeInsufficientText,
			"pas assez de texte extrait (%d caractères), image illisible ?", len(text))
	}

	if wordCount > 0 {
		log.Printf("OCR_DONE text_length=%d pages=%d avg_confidence=%.3f duration=%.2fs",
			len(text), len(result.AnalyzeResult.Pages), confidenceSum/float64(wordCount),
			time.Since(start).Seconds())
	} else {
		log.Printf("OCR_DONE text_length=%d pages=%d duration=%.2fs",
			len(text), len(result.AnalyzeResult.Pages), time.Since(start).Seconds())
	}

	return text, nil
}

// Ping submits a 1x1 test image and reports whether the round-trip worked.
func (c *AzureClient) Ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	operationURL, err := c.submit(ctx, tinyPNG)
	if err != nil {
		log.Printf("AZURE_PING_FAILED error=%v", err)
		return false
	}
	if _, err := c.poll(ctx, operationURL); err != nil {
		// Insufficient text on a 1x1 image still proves the service answered.
		if e, ok := errs.AsError(err); ok && e.Code == errs.CodeInsufficientText {
			return true
		}
		log.Printf("AZURE_PING_FAILED error=%v", err)
		return false
	}
	return true
}

func (c *AzureClient) submit(ctx context.Context, image []byte) (string, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.endpoint+analyzePath,
		bytes.NewReader(image),
	)
	if err != nil {
		return "", errs.OCR(errs.CodeOCRError, "création requête OCR: %v", err)
	}

	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errs.OCR(errs.CodeAzureAPIError, "requête Azure échouée: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		return "", azureStatusError(resp.StatusCode, string(body))
	}

	operationURL := resp.Header.Get("Operation-Location")
	if operationURL == "" {
		return "", errs.OCR(errs.CodeAzureAPIError, "réponse Azure sans Operation-Location")
	}
	return operationURL, nil
}

func (c *AzureClient) poll(ctx context.Context, operationURL string) (*analyzeResult, error) {
	deadline := time.Now().Add(c.pollTimeout)

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, operationURL, nil)
		if err != nil {
			return nil, errs.OCR(errs.CodeOCRError, "création requête poll: %v", err)
		}
		req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, errs.OCR(errs.CodeAzureAPIError, "poll Azure échoué: %v", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, errs.OCR(errs.CodeAzureAPIError, "lecture réponse Azure: %v", err)
		}

		if resp.StatusCode != http.StatusOK {
			return nil, azureStatusError(resp.StatusCode, string(body))
		}

		var result analyzeResult
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, errs.OCR(errs.CodeAzureAPIError, "réponse Azure invalide: %v", err)
		}

		switch result.Status {
		case "succeeded":
			return &result, nil
		case "failed":
			return nil, errs.OCR(errs.CodeAzureAPIError,
				"analyse Azure échouée: %s %s", result.Error.Code, result.Error.Message)
		}

		if time.Now().After(deadline) {
			return nil, errs.OCR(errs.CodeAzureAPIError, "timeout en attendant le résultat OCR")
		}

		select {
		case <-ctx.Done():
			return nil, errs.OCR(errs.CodeOCRError, "OCR annulé: %v", ctx.Err())
		case <-time.After(c.pollInterval):
		}
	}
}

func azureStatusError(status int, body string) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errs.OCR(errs.CodeAzureAuthError, "clé API Azure invalide")
	case http.StatusTooManyRequests:
		return errs.OCR(errs.CodeAzureRateLimit, "limite Azure atteinte")
	default:
		return errs.OCR(errs.CodeAzureAPIError,
			"erreur Azure %d: %s", status, truncate(body, 200))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
