package ocr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nina031/MenuScanner-backend/internal/errs"
)

// fakeAzure simulates the submit + poll cycle of the analyze API.
func fakeAzure(t *testing.T, submitStatus int, pollStatuses []string, text string) *httptest.Server {
	t.Helper()

	polls := 0
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if submitStatus != http.StatusAccepted {
				w.WriteHeader(submitStatus)
				return
			}
			w.Header().Set("Operation-Location", server.URL+"/operations/1")
			w.WriteHeader(http.StatusAccepted)
			return
		}

		status := pollStatuses[polls]
		if polls < len(pollStatuses)-1 {
			polls++
		}

		resp := map[string]any{"status": status}
		if status == "succeeded" {
			resp["analyzeResult"] = map[string]any{
				"pages": []map[string]any{
					{
						"lines": []map[string]string{{"content": text}},
						"words": []map[string]float64{{"confidence": 0.98}},
					},
				},
			}
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	return server
}

func newTestClient(serverURL string) *AzureClient {
	c := NewAzureClient(serverURL, "test-key")
	c.pollInterval = time.Millisecond
	c.pollTimeout = time.Second
	return c
}

func TestExtractTextSuccess(t *testing.T) {
	server := fakeAzure(t, http.StatusAccepted, []string{"running", "succeeded"}, "ENTREES Salade 8€ PLATS")
	defer server.Close()

	text, err := newTestClient(server.URL).ExtractText(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "ENTREES Salade 8€ PLATS" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestExtractTextInsufficientText(t *testing.T) {
	server := fakeAzure(t, http.StatusAccepted, []string{"succeeded"}, "abc")
	defer server.Close()

	_, err := newTestClient(server.URL).ExtractText(context.Background(), []byte("img"))

	e, ok := errs.AsError(err)
	if !ok || e.Code != errs.CodeInsufficientText {
		t.Fatalf("expected INSUFFICIENT_TEXT, got %v", err)
	}
}

func TestExtractTextAuthError(t *testing.T) {
	server := fakeAzure(t, http.StatusUnauthorized, nil, "")
	defer server.Close()

	_, err := newTestClient(server.URL).ExtractText(context.Background(), []byte("img"))

	e, ok := errs.AsError(err)
	if !ok || e.Code != errs.CodeAzureAuthError {
		t.Fatalf("expected AZURE_AUTH_ERROR, got %v", err)
	}
}

func TestExtractTextRateLimit(t *testing.T) {
	server := fakeAzure(t, http.StatusTooManyRequests, nil, "")
	defer server.Close()

	_, err := newTestClient(server.URL).ExtractText(context.Background(), []byte("img"))

	e, ok := errs.AsError(err)
	if !ok || e.Code != errs.CodeAzureRateLimit {
		t.Fatalf("expected AZURE_RATE_LIMIT, got %v", err)
	}
}

func TestExtractTextUpstreamFailure(t *testing.T) {
	server := fakeAzure(t, http.StatusInternalServerError, nil, "")
	defer server.Close()

	_, err := newTestClient(server.URL).ExtractText(context.Background(), []byte("img"))

	e, ok := errs.AsError(err)
	if !ok || e.Code != errs.CodeAzureAPIError {
		t.Fatalf("expected AZURE_API_ERROR, got %v", err)
	}
}

func TestPingSurvivesInsufficientText(t *testing.T) {
	// A 1x1 test image legitimately yields almost no text; that still means
	// the service is reachable.
	server := fakeAzure(t, http.StatusAccepted, []string{"succeeded"}, "")
	defer server.Close()

	if !newTestClient(server.URL).Ping(context.Background()) {
		t.Fatal("expected ping to succeed")
	}
}

func TestPingFailsOnAuthError(t *testing.T) {
	server := fakeAzure(t, http.StatusUnauthorized, nil, "")
	defer server.Close()

	if newTestClient(server.URL).Ping(context.Background()) {
		t.Fatal("expected ping to fail")
	}
}
