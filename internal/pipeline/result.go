package pipeline

import (
	"time"

	"github.com/nina031/MenuScanner-backend/internal/menu"
)

// MenuData wraps the structured menu in the response envelope.
type MenuData struct {
	Menu *menu.Menu `json:"menu"`
}

// ScanResult is the terminal artifact of one scan. Failures are captured
// here rather than raised past the pipeline boundary.
type ScanResult struct {
	Success               bool      `json:"success"`
	Message               string    `json:"message"`
	Data                  *MenuData `json:"data"`
	ProcessingTimeSeconds float64   `json:"processing_time_seconds"`
	ScanID                string    `json:"scan_id"`
	Timestamp             time.Time `json:"timestamp"`
	ErrorCode             string    `json:"error_code,omitempty"`
}

func successResult(scanID string, m *menu.Menu, elapsed time.Duration) ScanResult {
	return ScanResult{
		Success:               true,
		Message:               "Menu scanné avec succès",
		Data:                  &MenuData{Menu: m},
		ProcessingTimeSeconds: roundSeconds(elapsed),
		ScanID:                scanID,
		Timestamp:             time.Now().UTC(),
	}
}

func failureResult(scanID, message, code string, elapsed time.Duration) ScanResult {
	return ScanResult{
		Success:               false,
		Message:               message,
		ProcessingTimeSeconds: roundSeconds(elapsed),
		ScanID:                scanID,
		Timestamp:             time.Now().UTC(),
		ErrorCode:             code,
	}
}

func roundSeconds(d time.Duration) float64 {
	return float64(d.Milliseconds()) / 1000
}
