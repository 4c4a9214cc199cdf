package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/nina031/MenuScanner-backend/internal/config"
	"github.com/nina031/MenuScanner-backend/internal/llm"
	"github.com/nina031/MenuScanner-backend/internal/ocr"
	"github.com/nina031/MenuScanner-backend/internal/pipeline"
	"github.com/nina031/MenuScanner-backend/internal/server"
	"github.com/nina031/MenuScanner-backend/internal/storage"
	"github.com/nina031/MenuScanner-backend/internal/ws"
)

func main() {

	// ───────────────────────── ENV ─────────────────────────
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	for _, k := range config.Required {
		if os.Getenv(k) == "" {
			log.Fatalf("❌ Missing env var: %s", k)
		}
	}

	settings := config.Load()

	// ───────────────────────── STORAGE ─────────────────────────
	r2Client, err := storage.NewR2Client(context.Background(), settings)
	if err != nil {
		log.Fatal("❌ R2 init failed:", err)
	}

	// ───────────────────────── PIPELINE ─────────────────────────
	azureClient := ocr.NewAzureClient(settings.AzureEndpoint, settings.AzureAPIKey)
	claudeClient := llm.NewClient(settings.ClaudeAPIKey, settings.ClaudeModel)

	hub := ws.NewHub()
	svc := pipeline.NewService(r2Client, azureClient, claudeClient, hub)

	// A dropped socket frees the scan slot and cancels the running scan.
	hub.SetDisconnectHandler(svc.ReleaseConnection)

	// ───────────────────────── HTTP ─────────────────────────
	handler := server.NewHandler(settings, r2Client, svc, hub)
	r := server.NewRouter(handler)

	addr := settings.Host + ":" + settings.Port
	log.Printf("MenuScanner v%s listening on %s", config.AppVersion, addr)
	if err := r.Run(addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
