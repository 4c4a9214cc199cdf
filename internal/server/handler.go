package server

import (
	"context"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nina031/MenuScanner-backend/internal/config"
	"github.com/nina031/MenuScanner-backend/internal/errs"
	"github.com/nina031/MenuScanner-backend/internal/menu"
	"github.com/nina031/MenuScanner-backend/internal/pipeline"
	"github.com/nina031/MenuScanner-backend/internal/ws"
)

// BlobStore is the upload side of the object store, the only storage
// operation handlers perform directly.
type BlobStore interface {
	Upload(ctx context.Context, content []byte, extension, contentType string) (string, error)
}

type Handler struct {
	settings *config.Settings
	store    BlobStore
	pipeline *pipeline.Service
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

func NewHandler(settings *config.Settings, store BlobStore, svc *pipeline.Service, hub *ws.Hub) *Handler {
	return &Handler{
		settings: settings,
		store:    store,
		pipeline: svc,
		hub:      hub,
		upgrader: websocket.Upgrader{
			// The mobile client connects cross-origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func newScanID() string {
	return "scan_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Health reports the pipeline status and every probed service.
func (h *Handler) Health(c *gin.Context) {
	status := h.pipeline.HealthCheck(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"status":    status.Pipeline,
		"version":   config.AppVersion,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services":  status.Services,
	})
}

// UploadImage validates and stores a menu photo without processing it.
// Legacy path kept for clients that drive the pipeline over WebSocket.
func (h *Handler) UploadImage(c *gin.Context) {
	start := time.Now()
	scanID := newScanID()

	content, filename, contentType, err := h.readImageForm(c)
	if err != nil {
		log.Printf("UPLOAD_REJECTED scan_id=%s filename=%s error=%v", scanID, filename, err)
		failJSON(c, scanID, err)
		return
	}

	fileKey, err := h.store.Upload(c.Request.Context(), content, fileExtension(filename, contentType), contentType)
	if err != nil {
		log.Printf("UPLOAD_STORAGE_ERROR scan_id=%s error=%v", scanID, err)
		failJSON(c, scanID, err)
		return
	}

	log.Printf("UPLOAD_OK scan_id=%s file_key=%s size=%d duration=%.3fs",
		scanID, fileKey, len(content), time.Since(start).Seconds())

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Image uploadée avec succès - utilisez WebSocket pour le traitement",
		"data": gin.H{
			"scan_id":           scanID,
			"file_key":          fileKey,
			"file_size_bytes":   len(content),
			"content_type":      contentType,
			"original_filename": filename,
		},
		"processing_time_seconds": roundSeconds(time.Since(start)),
		"timestamp":               time.Now().UTC().Format(time.RFC3339),
	})
}

// ProcessScan runs the whole pipeline synchronously and returns the final
// result. mode=oneshot uses a single whole-menu structuring call.
func (h *Handler) ProcessScan(c *gin.Context) {
	scanID := newScanID()

	content, filename, contentType, err := h.readImageForm(c)
	if err != nil {
		failJSON(c, scanID, err)
		return
	}

	fileKey, err := h.store.Upload(c.Request.Context(), content, fileExtension(filename, contentType), contentType)
	if err != nil {
		failJSON(c, scanID, err)
		return
	}

	req := pipeline.ScanRequest{
		ScanID:          scanID,
		FileKey:         fileKey,
		LanguageHint:    c.DefaultPostForm("language_hint", "fr"),
		CleanupTempFile: c.DefaultPostForm("cleanup_temp_file", "true") != "false",
	}

	var result pipeline.ScanResult
	if c.DefaultPostForm("mode", "") == "oneshot" {
		result = h.pipeline.ProcessOneShot(c.Request.Context(), req)
	} else {
		result = h.pipeline.Process(c.Request.Context(), req)
	}

	if !result.Success {
		c.JSON(statusForCode(result.ErrorCode), result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// WebSocket upgrades the connection, registers it with the hub and serves the
// ping/pong read loop until the peer goes away.
func (h *Handler) WebSocket(c *gin.Context) {
	socket, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WS_UPGRADE_FAILED error=%v", err)
		return
	}

	connectionID, err := h.hub.Register(socket)
	if err != nil {
		log.Printf("WS_REGISTER_FAILED error=%v", err)
		socket.Close()
		return
	}
	defer h.hub.Disconnect(connectionID)

	for {
		kind, data, err := socket.ReadMessage()
		if err != nil {
			return
		}
		if kind == websocket.TextMessage && string(data) == "ping" {
			h.hub.Send(connectionID, gin.H{
				"type":      "pong",
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			}, false)
		}
	}
}

// UploadAndProcess validates and stores the image, then starts the scan in
// the background. Progress flows over the WebSocket connection; the HTTP
// response only confirms the start.
func (h *Handler) UploadAndProcess(c *gin.Context) {
	scanID := newScanID()
	connectionID := c.PostForm("connection_id")

	if connectionID == "" {
		failJSON(c, scanID, errs.Validation(errs.CodeInvalidConnection, "connection_id est requis"))
		return
	}
	if !h.hub.IsConnected(connectionID) {
		failJSON(c, scanID, errs.Pipeline(errs.CodeInvalidConnection,
			"connexion WebSocket invalide ou fermée"))
		return
	}

	content, filename, contentType, err := h.readImageForm(c)
	if err != nil {
		h.notifyError(connectionID, scanID, failureText(err))
		failJSON(c, scanID, err)
		return
	}

	fileKey, err := h.store.Upload(c.Request.Context(), content, fileExtension(filename, contentType), contentType)
	if err != nil {
		h.notifyError(connectionID, scanID, "Erreur lors du stockage de l'image")
		failJSON(c, scanID, err)
		return
	}

	req := pipeline.ScanRequest{
		ScanID:          scanID,
		FileKey:         fileKey,
		LanguageHint:    c.DefaultPostForm("language_hint", "fr"),
		CleanupTempFile: c.DefaultPostForm("cleanup_temp_file", "true") != "false",
	}

	if err := h.pipeline.StartForConnection(req, connectionID); err != nil {
		log.Printf("SCAN_START_REJECTED scan_id=%s connection_id=%s error=%v",
			scanID, connectionID, err)
		failJSON(c, scanID, err)
		return
	}

	log.Printf("SCAN_STARTED scan_id=%s connection_id=%s file_key=%s",
		scanID, connectionID, fileKey)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Traitement démarré avec succès",
		"data": gin.H{
			"scan_id":           scanID,
			"connection_id":     connectionID,
			"file_key":          fileKey,
			"processing_status": "started",
		},
	})
}

// Connections lists active WebSocket connection ids. Debug endpoint.
func (h *Handler) Connections(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"active_connections": h.hub.ActiveIDs(),
		"connection_count":   h.hub.Count(),
	})
}

// readImageForm extracts and validates the uploaded file from the multipart
// form. Returned errors carry validation codes.
func (h *Handler) readImageForm(c *gin.Context) (content []byte, filename, contentType string, err error) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		return nil, "", "", errs.Validation(errs.CodeInvalidFileType, "le champ file est requis")
	}
	defer file.Close()

	filename = header.Filename
	contentType = header.Header.Get("Content-Type")

	content, err = io.ReadAll(file)
	if err != nil {
		return nil, filename, contentType, errs.Validation(errs.CodeInvalidImageFile,
			"lecture du fichier impossible: %v", err)
	}

	if err := menu.ValidateImageFile(content, contentType, h.settings.AllowedFileTypes, h.settings.MaxFileSizeBytes()); err != nil {
		return nil, filename, contentType, err
	}
	return content, filename, contentType, nil
}

func (h *Handler) notifyError(connectionID, scanID, message string) {
	h.hub.Send(connectionID, gin.H{
		"type":    "error",
		"message": message,
		"scan_id": scanID,
	}, true)
}

// fileExtension resolves the stored extension from the original filename,
// falling back to the declared content type, then ".jpg".
func fileExtension(filename, contentType string) string {
	if i := strings.LastIndex(filename, "."); i >= 0 && i < len(filename)-1 {
		return "." + strings.ToLower(filename[i+1:])
	}
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	}
	return ".jpg"
}

func roundSeconds(d time.Duration) float64 {
	return float64(d.Milliseconds()) / 1000
}
