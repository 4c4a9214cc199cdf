package pipeline

import "github.com/nina031/MenuScanner-backend/internal/menu"

// Event kinds, in the order the pipeline emits them. An error event is always
// the last event of its scan.
const (
	EventStatus           = "status"
	EventStepComplete     = "step_complete"
	EventSectionsDetected = "sections_detected"
	EventMenuMetadata     = "menu_metadata"
	EventSectionStart     = "section_start"
	EventSectionComplete  = "section_complete"
	EventComplete         = "complete"
	EventError            = "error"
)

// Pipeline steps referenced by status/step_complete events.
const (
	StepDownload   = "download"
	StepOCR        = "ocr"
	StepLLMStart   = "llm_start"
	StepDetection  = "detection"
	StepExtraction = "extraction"
	StepAnalysis   = "analysis"
)

// Event is one typed progress message. Fields are kind-specific; unused ones
// are omitted from the JSON payload.
type Event struct {
	Type    string `json:"type"`
	ScanID  string `json:"scan_id,omitempty"`
	Message string `json:"message,omitempty"`
	Step    string `json:"step,omitempty"`

	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	ImageSizeBytes  int     `json:"image_size_bytes,omitempty"`
	TextLength      int     `json:"text_length,omitempty"`

	MenuName      string   `json:"menu_name,omitempty"`
	Sections      []string `json:"sections,omitempty"`
	SectionsCount int      `json:"sections_count,omitempty"`

	SectionName           string        `json:"section_name,omitempty"`
	SectionIndex          int           `json:"section_index,omitempty"`
	TotalSections         int           `json:"total_sections,omitempty"`
	Section               *menu.Section `json:"section,omitempty"`
	ProcessingTimeSeconds float64       `json:"processing_time_seconds,omitempty"`

	TotalDurationSeconds float64 `json:"total_duration_seconds,omitempty"`

	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
}

func statusEvent(scanID, step, message string) Event {
	return Event{Type: EventStatus, ScanID: scanID, Step: step, Message: message}
}
