package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kevinaaaquil/readify/ai"
	"github.com/kevinaaaquil/readify/config"
	"github.com/kevinaaaquil/readify/handlers"
	"github.com/kevinaaaquil/readify/logging"
	"github.com/kevinaaaquil/readify/middleware"
	"github.com/kevinaaaquil/readify/narration"
	"github.com/kevinaaaquil/readify/service"
	"github.com/kevinaaaquil/readify/store"
	"github.com/kevinaaaquil/readify/tts"
)

func main() {
	_ = godotenv.Load()

	log := logging.New(os.Stdout, os.Getenv("LOG_LEVEL"))
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Error(ctx, "config", "err", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error(ctx, "config", "err", err)
		os.Exit(1)
	}
	log = logging.New(os.Stdout, cfg.LogLevel)

	var kv store.KV
	if cfg.MongoURI != "" {
		mongo, err := store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName)
		if err != nil {
			log.Error(ctx, "mongodb", "err", err)
			os.Exit(1)
		}
		defer func() {
			if err := mongo.Disconnect(context.Background()); err != nil {
				log.Warn(ctx, "mongodb disconnect", "err", err)
			}
		}()
		kv = mongo
	} else {
		log.Warn(ctx, "MONGODB_URI not set; using in-memory store, data is lost on restart")
		kv = store.NewMemory()
	}
	db := store.NewDB(kv)

	var blobs handlers.BlobStore
	var narrationBlobs narration.BlobStore
	if cfg.S3Bucket != "" {
		s3Service, err := service.NewS3Service(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3AccessKeyID, cfg.S3SecretKey, cfg.S3Endpoint)
		if err != nil {
			log.Error(ctx, "s3", "err", err)
			os.Exit(1)
		}
		blobs, narrationBlobs = s3Service, s3Service
	} else {
		log.Warn(ctx, "AWS_S3_BUCKET not set; uploads and narration will fail")
	}

	providers := map[string]tts.Provider{}
	google := tts.NewGoogle(cfg.GoogleTTSURL)
	providers[google.Name()] = google
	if cfg.OpenAIKey != "" {
		openAI := tts.NewOpenAI(cfg.OpenAIKey, cfg.OpenAIBaseURL)
		providers[openAI.Name()] = openAI
	}
	if polly, err := tts.NewPolly(ctx, cfg.S3Region, cfg.S3AccessKeyID, cfg.S3SecretKey); err != nil {
		log.Warn(ctx, "polly unavailable", "err", err)
	} else {
		providers[polly.Name()] = polly
	}
	if _, ok := providers[cfg.TTSProvider]; !ok {
		log.Error(ctx, "default tts provider is not configured", "provider", cfg.TTSProvider)
		os.Exit(1)
	}

	var assistant handlers.Assistant
	if cfg.OpenAIKey != "" {
		assistant = ai.NewOpenAI(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.ChatModel, cfg.AIMaxChars)
	} else {
		log.Warn(ctx, "OPENAI_API_KEY not set; ai features are disabled")
	}

	narrator := &narration.Narrator{
		Providers: providers,
		Default:   cfg.TTSProvider,
		Blobs:     narrationBlobs,
		DB:        db,
		Log:       log,
	}

	router := handlers.NewRouter(handlers.Deps{
		DB:          db,
		Sessions:    middleware.NewSessions(cfg.JWTSecret, cfg.SessionTTL, cfg.CookieSecure),
		Blobs:       blobs,
		Narrator:    narrator,
		Assistant:   assistant,
		Log:         log,
		AdminEmail:  cfg.AdminEmail,
		MaxUpload:   cfg.MaxUploadMB * 1024 * 1024,
		CORSOrigins: cfg.CORSOrigins,
		RequestLog:  true,
	})

	server := &http.Server{Addr: ":" + cfg.Port, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Info(ctx, "server listening", "addr", server.Addr, "tts", cfg.TTSProvider)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "server", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn(ctx, "shutdown", "err", err)
	}
}
