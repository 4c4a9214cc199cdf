package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nina031/MenuScanner-backend/internal/errs"
)

// failJSON writes the uniform failure envelope. Messages come from the typed
// error; anything untyped collapses to a generic internal error so raw causes
// never leak to clients.
func failJSON(c *gin.Context, scanID string, err error) {
	code := errs.CodeOf(err)

	body := gin.H{
		"success":    false,
		"message":    failureText(err),
		"error_code": code,
		"scan_id":    scanID,
	}
	if e, ok := errs.AsError(err); ok && len(e.Details) > 0 {
		body["details"] = e.Details
	}

	c.JSON(statusForCode(code), body)
}

// failureText picks the client-facing message: typed errors speak for
// themselves, everything else is masked.
func failureText(err error) string {
	if e, ok := errs.AsError(err); ok {
		return e.Message
	}
	return "Erreur interne du serveur"
}

// statusForCode maps the error taxonomy onto HTTP statuses: client mistakes
// are 4xx, upstream and pipeline failures are 422, infrastructure is 500.
func statusForCode(code string) int {
	switch code {
	case errs.CodeInvalidFileType, errs.CodeFileTooLarge, errs.CodeEmptyFile,
		errs.CodeImageTooSmall, errs.CodeImageTooLarge,
		errs.CodeUnsupportedImageFormat, errs.CodeInvalidImageFile,
		errs.CodeInvalidConnection:
		return http.StatusBadRequest
	case errs.CodeFileNotFound:
		return http.StatusNotFound
	case errs.CodeAlreadyInProgress:
		return http.StatusConflict
	case errs.CodeInsufficientText, errs.CodeAzureAuthError, errs.CodeAzureRateLimit,
		errs.CodeAzureAPIError, errs.CodeOCRError,
		errs.CodeInvalidJSONResponse, errs.CodeNoMenuSections, errs.CodeNoMenuItems,
		errs.CodeLLMAuthError, errs.CodeLLMRateLimit, errs.CodeLLMError,
		errs.CodePipelineError:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
