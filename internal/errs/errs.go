// Package errs defines the typed errors shared across the scan pipeline.
// Every error carries a machine-readable code so HTTP handlers and progress
// events can surface stable identifiers instead of raw messages.
package errs

import (
	"errors"
	"fmt"
)

// Common error codes.
const (
	// File validation
	CodeInvalidFileType        = "INVALID_FILE_TYPE"
	CodeFileTooLarge           = "FILE_TOO_LARGE"
	CodeEmptyFile              = "EMPTY_FILE"
	CodeImageTooSmall          = "IMAGE_TOO_SMALL"
	CodeImageTooLarge          = "IMAGE_TOO_LARGE"
	CodeUnsupportedImageFormat = "UNSUPPORTED_IMAGE_FORMAT"
	CodeInvalidImageFile       = "INVALID_IMAGE_FILE"

	// Storage
	CodeFileNotFound = "FILE_NOT_FOUND"
	CodeStorageError = "STORAGE_ERROR"

	// OCR
	CodeInsufficientText = "INSUFFICIENT_TEXT"
	CodeAzureAuthError   = "AZURE_AUTH_ERROR"
	CodeAzureRateLimit   = "AZURE_RATE_LIMIT"
	CodeAzureAPIError    = "AZURE_API_ERROR"
	CodeOCRError         = "OCR_ERROR"

	// LLM
	CodeInvalidJSONResponse = "INVALID_JSON_RESPONSE"
	CodeNoMenuSections      = "NO_MENU_SECTIONS"
	CodeNoMenuItems         = "NO_MENU_ITEMS"
	CodeLLMAuthError        = "LLM_AUTH_ERROR"
	CodeLLMRateLimit        = "LLM_RATE_LIMIT"
	CodeLLMError            = "LLM_ERROR"

	// Pipeline
	CodePipelineError     = "PIPELINE_ERROR"
	CodeAlreadyInProgress = "PROCESSING_ALREADY_IN_PROGRESS"
	CodeInvalidConnection = "INVALID_WEBSOCKET_CONNECTION"
	CodeInternalError     = "INTERNAL_ERROR"
)

// Error is the base type of the taxonomy. Kind discriminates the family
// (validation, storage, ocr, llm, pipeline) for errors.As matching.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]any
}

type Kind string

const (
	KindValidation Kind = "validation"
	KindStorage    Kind = "storage"
	KindOCR        Kind = "ocr"
	KindLLM        Kind = "llm"
	KindPipeline   Kind = "pipeline"
)

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s [%s]: %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// WithDetail attaches a contextual key/value pair and returns the error, so
// callers can chain details at the point of failure.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

func newError(kind Kind, code, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

func Validation(code, format string, args ...any) *Error {
	return newError(KindValidation, code, format, args...)
}

func Storage(code, format string, args ...any) *Error {
	return newError(KindStorage, code, format, args...)
}

func OCR(code, format string, args ...any) *Error {
	return newError(KindOCR, code, format, args...)
}

func LLM(code, format string, args ...any) *Error {
	return newError(KindLLM, code, format, args...)
}

func Pipeline(code, format string, args ...any) *Error {
	return newError(KindPipeline, code, format, args...)
}

// CodeOf extracts the machine code of any error; unknown errors map to
// INTERNAL_ERROR so clients always get a stable identifier.
func CodeOf(err error) string {
	if e, ok := AsError(err); ok && e.Code != "" {
		return e.Code
	}
	return CodeInternalError
}

// AsError unwraps err to a typed *Error if possible.
func AsError(err error) (*Error, bool) {
	var e *Error
	if err == nil {
		return nil, false
	}
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
