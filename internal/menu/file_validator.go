package menu

import (
	"bytes"
	"image"
	"log"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/nina031/MenuScanner-backend/internal/errs"
)

const (
	MinImageWidth  = 100
	MinImageHeight = 100
	MaxImageWidth  = 5000
	MaxImageHeight = 5000
)

var supportedFormats = map[string]bool{
	"jpeg": true,
	"png":  true,
	"webp": true,
}

// ValidateImageFile checks an uploaded menu image before anything touches
// external services. Checks run in order: MIME type, byte size, then a real
// decode with dimension and format bounds. The caller keeps the bytes, so
// nothing here consumes read state.
func ValidateImageFile(content []byte, contentType string, allowedTypes []string, maxSizeBytes int64) error {
	allowed := false
	for _, t := range allowedTypes {
		if t == contentType {
			allowed = true
			break
		}
	}
	if !allowed {
		return errs.Validation(errs.CodeInvalidFileType,
			"type de fichier non autorisé: %s", contentType)
	}

	size := int64(len(content))
	if size > maxSizeBytes {
		return errs.Validation(errs.CodeFileTooLarge,
			"fichier trop volumineux: %d bytes (max %d)", size, maxSizeBytes)
	}
	if size == 0 {
		return errs.Validation(errs.CodeEmptyFile, "fichier vide")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		return errs.Validation(errs.CodeInvalidImageFile,
			"fichier corrompu ou format invalide: %v", err)
	}

	if cfg.Width < MinImageWidth || cfg.Height < MinImageHeight {
		return errs.Validation(errs.CodeImageTooSmall,
			"image trop petite: %dx%dpx (minimum %dx%d)",
			cfg.Width, cfg.Height, MinImageWidth, MinImageHeight)
	}
	if cfg.Width > MaxImageWidth || cfg.Height > MaxImageHeight {
		return errs.Validation(errs.CodeImageTooLarge,
			"image trop grande: %dx%dpx (maximum %dx%d)",
			cfg.Width, cfg.Height, MaxImageWidth, MaxImageHeight)
	}

	if !supportedFormats[format] {
		return errs.Validation(errs.CodeUnsupportedImageFormat,
			"format d'image non supporté: %s", format)
	}

	log.Printf("IMAGE_VALIDATED size=%d dimensions=%dx%d format=%s",
		size, cfg.Width, cfg.Height, format)
	return nil
}
