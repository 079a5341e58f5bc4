package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Lemon-stack/budwrite-sub000/internal/api"
	"github.com/Lemon-stack/budwrite-sub000/internal/auth"
	"github.com/Lemon-stack/budwrite-sub000/internal/billing"
	"github.com/Lemon-stack/budwrite-sub000/internal/config"
	"github.com/Lemon-stack/budwrite-sub000/internal/db"
	"github.com/Lemon-stack/budwrite-sub000/internal/generator"
	"github.com/Lemon-stack/budwrite-sub000/internal/ingest"
	"github.com/Lemon-stack/budwrite-sub000/internal/narrative"
	"github.com/Lemon-stack/budwrite-sub000/internal/storage"
	"github.com/Lemon-stack/budwrite-sub000/internal/story"
	"github.com/Lemon-stack/budwrite-sub000/internal/user"
	"github.com/Lemon-stack/budwrite-sub000/internal/vision"
	"google.golang.org/genai"
)

func main() {
	cfg := config.Load()

	bunDB := db.NewBunPostgresClient(cfg.DatabaseURL)
	defer bunDB.Close()

	objectStore, err := storage.NewGCSStore(cfg.StorageBucket)
	if err != nil {
		log.Fatalf("Failed to create object store: %v", err)
	}
	defer objectStore.Close()

	ingester, err := ingest.NewIngester(objectStore)
	if err != nil {
		log.Fatalf("Failed to create ingester: %v", err)
	}

	genaiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.GeminiAPIKey,
	})
	if err != nil {
		log.Fatalf("Failed to create Gemini client: %v", err)
	}

	describer, err := vision.NewGeminiDescriber(genaiClient, cfg.VisionModel,
		vision.WithRetry(cfg.VisionRetryAttempts, cfg.VisionRetryDelay))
	if err != nil {
		log.Fatalf("Failed to create describer: %v", err)
	}

	writer, err := narrative.NewGeminiWriter(genaiClient, cfg.NarrativeModel)
	if err != nil {
		log.Fatalf("Failed to create writer: %v", err)
	}

	userRepo := user.NewUserRepository(bunDB)
	storyRepo := story.NewStoryRepository(bunDB)

	billingSvc := billing.NewBilling(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	userSvc := user.NewUserService(userRepo, billingSvc)

	gen := generator.NewGenerator(generator.GeneratorConfig{
		Ledger:           userRepo,
		Ingester:         ingester,
		Vision:           describer,
		Writer:           writer,
		Stories:          storyRepo,
		UploadTimeout:    cfg.UploadTimeout,
		ModelCallTimeout: cfg.ModelCallTimeout,
	})

	jwtVerifier, err := auth.NewJWTVerifier(cfg.AuthJWKSURL)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	storyHandler := api.NewStoryHandler(gen, storyRepo, userSvc, userRepo)
	checkoutHandler := api.NewCheckoutHandler(billingSvc, userSvc, userRepo)
	router := api.SetupRoutes(storyHandler, checkoutHandler, auth.NewMiddleware(jwtVerifier), cfg.FE_BASE_URL)

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("Server starting on %s", cfg.ServerAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed to start: %v", err)
	}

	log.Println("Server stopped")
}
