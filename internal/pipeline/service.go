// Package pipeline orchestrates the menu-scan state machine: download, OCR,
// section detection, content extraction, per-section analysis, assembly. It
// is the only component allowed to touch more than one external client.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/nina031/MenuScanner-backend/internal/errs"
	"github.com/nina031/MenuScanner-backend/internal/menu"
)

// ObjectStore is the narrow storage contract the pipeline consumes.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) bool
}

// TextExtractor runs OCR on raw image bytes.
type TextExtractor interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
	Ping(ctx context.Context) bool
}

// MenuStructurer turns OCR text into structured menu data.
type MenuStructurer interface {
	DetectSectionsAndTitle(ctx context.Context, ocrText string) (string, []string, error)
	AnalyzeSection(ctx context.Context, content, sectionName, languageHint string) (menu.Section, error)
	StructureWholeMenu(ctx context.Context, ocrText, languageHint string) (*menu.Menu, error)
	CheckConnection(ctx context.Context) bool
}

// Notifier pushes progress events to a client connection.
type Notifier interface {
	Send(connectionID string, event any, flush bool) bool
	IsConnected(connectionID string) bool
	Count() int
}

// ScanRequest identifies one processing attempt. Immutable once created.
type ScanRequest struct {
	ScanID          string
	FileKey         string
	LanguageHint    string
	CleanupTempFile bool
}

type Service struct {
	storage  ObjectStore
	ocr      TextExtractor
	llm      MenuStructurer
	notifier Notifier
	registry *Registry

	cancelMu sync.Mutex
	cancels  map[string]context.CancelFunc
}

func NewService(storage ObjectStore, ocr TextExtractor, llm MenuStructurer, notifier Notifier) *Service {
	return &Service{
		storage:  storage,
		ocr:      ocr,
		llm:      llm,
		notifier: notifier,
		registry: NewRegistry(),
		cancels:  map[string]context.CancelFunc{},
	}
}

func (s *Service) Registry() *Registry { return s.registry }

// Process runs the whole pipeline synchronously and returns one final
// ScanResult. Failures are captured in the result, never raised.
func (s *Service) Process(ctx context.Context, req ScanRequest) ScanResult {
	start := time.Now()

	var collected []menu.Section
	var title string
	err := s.run(ctx, req, func(ev Event) {
		switch ev.Type {
		case EventMenuMetadata:
			title = ev.MenuName
		case EventSectionComplete:
			if ev.Section != nil {
				collected = append(collected, *ev.Section)
			}
		}
	})
	if err != nil {
		return failureResult(req.ScanID, failureMessage(err), errs.CodeOf(err), time.Since(start))
	}

	m := &menu.Menu{Name: title, Sections: collected}
	return successResult(req.ScanID, m, time.Since(start))
}

// ProcessOneShot is the legacy non-streaming path: a single whole-menu LLM
// call instead of per-section analysis.
func (s *Service) ProcessOneShot(ctx context.Context, req ScanRequest) ScanResult {
	start := time.Now()

	result, err := func() (*menu.Menu, error) {
		defer s.cleanup(req)

		image, err := s.storage.Download(ctx, req.FileKey)
		if err != nil {
			return nil, err
		}

		ocrText, err := s.ocr.ExtractText(ctx, image)
		if err != nil {
			return nil, err
		}
		if err := checkTextLength(ocrText); err != nil {
			return nil, err
		}

		m, err := s.llm.StructureWholeMenu(ctx, ocrText, req.LanguageHint)
		if err != nil {
			return nil, err
		}
		menu.LogCoverageWarnings(req.ScanID, m)
		return m, nil
	}()
	if err != nil {
		log.Printf("SCAN_FAILED scan_id=%s mode=oneshot error=%v", req.ScanID, err)
		return failureResult(req.ScanID, failureMessage(err), errs.CodeOf(err), time.Since(start))
	}

	log.Printf("SCAN_COMPLETE scan_id=%s mode=oneshot duration=%.2fs", req.ScanID, time.Since(start).Seconds())
	return successResult(req.ScanID, result, time.Since(start))
}

// Stream runs the pipeline and lazily yields progress events. The sequence
// is finite and not restartable; an error event is always the last one. The
// consumer stops the producer by cancelling ctx.
func (s *Service) Stream(ctx context.Context, req ScanRequest) <-chan Event {
	events := make(chan Event)

	go func() {
		defer close(events)
		start := time.Now()

		emit := func(ev Event) {
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		}

		if err := s.run(ctx, req, emit); err != nil {
			emit(Event{
				Type:            EventError,
				ScanID:          req.ScanID,
				Message:         failureMessage(err),
				Error:           err.Error(),
				ErrorCode:       errs.CodeOf(err),
				DurationSeconds: roundSeconds(time.Since(start)),
			})
		}
	}()

	return events
}

// StartForConnection launches a background scan for one connection, pushing
// every event through the notifier. Returns immediately; an error means the
// scan never started (busy connection or dead socket).
func (s *Service) StartForConnection(req ScanRequest, connectionID string) error {
	if !s.notifier.IsConnected(connectionID) {
		return errs.Pipeline(errs.CodeInvalidConnection,
			"connexion WebSocket invalide ou fermée").
			WithDetail("connection_id", connectionID)
	}

	if !s.registry.TryAcquire(connectionID, req.ScanID) {
		activeScan, _ := s.registry.ActiveScan(connectionID)
		return errs.Pipeline(errs.CodeAlreadyInProgress,
			"un scan est déjà en cours pour cette connexion").
			WithDetail("connection_id", connectionID).
			WithDetail("active_scan_id", activeScan)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancelMu.Lock()
	s.cancels[connectionID] = cancel
	s.cancelMu.Unlock()

	go func() {
		start := time.Now()
		defer func() {
			s.registry.Release(connectionID)
			s.cancelMu.Lock()
			delete(s.cancels, connectionID)
			s.cancelMu.Unlock()
			cancel()
		}()

		err := s.run(ctx, req, func(ev Event) {
			// Section results must reach the client in order before the next
			// analysis starts, hence the flush.
			flush := ev.Type == EventSectionComplete
			s.notifier.Send(connectionID, ev, flush)
		})
		if err != nil {
			s.notifier.Send(connectionID, Event{
				Type:            EventError,
				ScanID:          req.ScanID,
				Message:         failureMessage(err),
				Error:           err.Error(),
				ErrorCode:       errs.CodeOf(err),
				DurationSeconds: roundSeconds(time.Since(start)),
			}, true)
		}
	}()

	return nil
}

// ReleaseConnection frees a connection's scan slot and cancels its in-flight
// scan if any. Wired to the hub's disconnect handler.
func (s *Service) ReleaseConnection(connectionID string) {
	s.registry.Release(connectionID)

	s.cancelMu.Lock()
	cancel, ok := s.cancels[connectionID]
	if ok {
		delete(s.cancels, connectionID)
	}
	s.cancelMu.Unlock()
	if ok {
		cancel()
	}
}

// run drives the stage machine and reports progress through emit. It returns
// the first stage error; cleanup of the temp file runs on every exit path.
func (s *Service) run(ctx context.Context, req ScanRequest, emit func(Event)) error {
	pipelineStart := time.Now()
	scanID := req.ScanID

	log.Printf("PIPELINE_START scan_id=%s file_key=%s", scanID, req.FileKey)
	defer s.cleanup(req)

	// Download
	emit(statusEvent(scanID, StepDownload, "Téléchargement de l'image..."))
	stepStart := time.Now()
	image, err := s.storage.Download(ctx, req.FileKey)
	if err != nil {
		return s.stageError(req, "download", pipelineStart, err)
	}
	emit(Event{
		Type:            EventStepComplete,
		ScanID:          scanID,
		Step:            StepDownload,
		DurationSeconds: roundSeconds(time.Since(stepStart)),
		ImageSizeBytes:  len(image),
	})

	// OCR
	emit(statusEvent(scanID, StepOCR, "Extraction du texte (OCR)..."))
	stepStart = time.Now()
	ocrText, err := s.ocr.ExtractText(ctx, image)
	if err != nil {
		return s.stageError(req, "ocr", pipelineStart, err)
	}
	// Second line of defense behind the OCR client's own gate.
	if err := checkTextLength(ocrText); err != nil {
		return s.stageError(req, "ocr", pipelineStart, err)
	}
	emit(Event{
		Type:            EventStepComplete,
		ScanID:          scanID,
		Step:            StepOCR,
		DurationSeconds: roundSeconds(time.Since(stepStart)),
		TextLength:      len(ocrText),
	})

	// Section detection
	emit(statusEvent(scanID, StepLLMStart, "Analyse du menu par l'IA..."))
	emit(statusEvent(scanID, StepDetection, "Détection des sections du menu..."))
	title, sections, err := s.llm.DetectSectionsAndTitle(ctx, ocrText)
	if err != nil {
		return s.stageError(req, "detection", pipelineStart, err)
	}
	if len(sections) == 0 {
		return s.stageError(req, "detection", pipelineStart,
			errs.LLM(errs.CodeNoMenuSections, "aucune section détectée dans le menu"))
	}
	emit(Event{
		Type:          EventSectionsDetected,
		ScanID:        scanID,
		Sections:      sections,
		SectionsCount: len(sections),
	})
	emit(Event{
		Type:          EventMenuMetadata,
		ScanID:        scanID,
		MenuName:      title,
		Sections:      sections,
		SectionsCount: len(sections),
	})

	// Section content extraction
	emit(statusEvent(scanID, StepExtraction, "Extraction du contenu des sections..."))
	contents := make([]string, len(sections))
	for i, name := range sections {
		contents[i] = extractSectionContent(ocrText, name, sections)
	}

	// Per-section analysis, strictly in detection order.
	emit(statusEvent(scanID, StepAnalysis, "Analyse des sections en cours..."))
	totalItems := 0
	assembled := &menu.Menu{Name: title}
	for i, name := range sections {
		if err := ctx.Err(); err != nil {
			return s.stageError(req, "analysis", pipelineStart,
				errs.Pipeline(errs.CodePipelineError, "scan annulé: %v", err))
		}

		emit(Event{
			Type:          EventSectionStart,
			ScanID:        scanID,
			SectionName:   name,
			SectionIndex:  i + 1,
			TotalSections: len(sections),
		})

		sectionStart := time.Now()
		section, err := s.llm.AnalyzeSection(ctx, contents[i], name, req.LanguageHint)
		if err != nil {
			return s.stageError(req, "analysis", pipelineStart, err)
		}
		totalItems += len(section.Items)
		assembled.Sections = append(assembled.Sections, section)

		emit(Event{
			Type:                  EventSectionComplete,
			ScanID:                scanID,
			Section:               &section,
			SectionIndex:          i + 1,
			TotalSections:         len(sections),
			ProcessingTimeSeconds: roundSeconds(time.Since(sectionStart)),
		})
	}

	// Assembly validation
	if totalItems == 0 {
		return s.stageError(req, "assembly", pipelineStart,
			errs.LLM(errs.CodeNoMenuItems, "aucun item dans les sections du menu"))
	}
	menu.LogCoverageWarnings(scanID, assembled)

	total := time.Since(pipelineStart)
	log.Printf("PIPELINE_COMPLETE scan_id=%s sections=%d items=%d duration=%.2fs",
		scanID, len(sections), totalItems, total.Seconds())

	emit(Event{
		Type:                 EventComplete,
		ScanID:               scanID,
		Message:              "Traitement terminé",
		TotalSections:        len(sections),
		TotalDurationSeconds: roundSeconds(total),
	})
	return nil
}

// stageError logs the failure with full context and wraps non-typed errors.
func (s *Service) stageError(req ScanRequest, stage string, pipelineStart time.Time, err error) error {
	elapsed := time.Since(pipelineStart)
	log.Printf("PIPELINE_FAILED scan_id=%s stage=%s file_key=%s duration=%.2fs error=%v",
		req.ScanID, stage, req.FileKey, elapsed.Seconds(), err)

	if e, ok := errs.AsError(err); ok {
		return e.WithDetail("scan_id", req.ScanID).
			WithDetail("file_key", req.FileKey).
			WithDetail("stage", stage).
			WithDetail("duration_seconds", roundSeconds(elapsed))
	}
	return errs.Pipeline(errs.CodePipelineError, "erreur lors du traitement du menu: %v", err).
		WithDetail("scan_id", req.ScanID).
		WithDetail("file_key", req.FileKey).
		WithDetail("stage", stage)
}

// cleanup deletes the temp image when the request asks for it. Best effort:
// failures are logged and swallowed. Runs on its own context so a cancelled
// scan still cleans up.
func (s *Service) cleanup(req ScanRequest) {
	if !req.CleanupTempFile {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.storage.Delete(ctx, req.FileKey); err != nil {
		log.Printf("CLEANUP_FAILED scan_id=%s file_key=%s error=%v", req.ScanID, req.FileKey, err)
	}
}

func checkTextLength(text string) error {
	if len(strings.TrimSpace(text)) < 10 {
		return errs.OCR(errs.CodeInsufficientText,
			"pas assez de texte extrait (%d caractères)", len(text))
	}
	return nil
}

// failureMessage keeps the human message free of internal wrapping noise.
func failureMessage(err error) string {
	if e, ok := errs.AsError(err); ok {
		return e.Message
	}
	return fmt.Sprintf("erreur lors du traitement du menu: %v", err)
}
