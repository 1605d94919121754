package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hydroclip/internal/clip"
	"hydroclip/internal/detection"
	"hydroclip/internal/platform/config"
	"hydroclip/internal/platform/logger"
	"hydroclip/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = config.Load()

	port := config.GetEnv("PORT", "8080")
	logLevel := config.GetEnv("LOG_LEVEL", "info")
	logFormat := config.GetEnv("LOG_FORMAT", "json")
	windowMinutes := config.GetEnvInt("CLUSTER_WINDOW_MINUTES", detection.DefaultWindowMinutes)
	detectionSourceURL := config.GetEnv("DETECTION_SOURCE_URL", "http://localhost:4000/api")
	sessionDirectoryURL := config.GetEnv("SESSION_DIRECTORY_URL", "http://localhost:4000/api")
	ffmpegPath := config.GetEnv("FFMPEG_PATH", "ffmpeg")
	workDir := config.GetEnv("WORK_DIR", os.TempDir()+"/hydroclip")
	assemblyEnabled := config.GetEnvBool("CLIP_ASSEMBLY_ENABLED", true)
	httpTimeout := config.GetEnvDuration("HTTP_TIMEOUT", 60*time.Second)

	log := logger.New(logLevel, logFormat)
	met := metrics.New()

	httpClient := &http.Client{Timeout: httpTimeout}

	source := detection.NewSource(detectionSourceURL, httpClient)
	detectionSvc := detection.NewService(source, windowMinutes)
	detectionHandler := detection.NewHandler(detectionSvc, log, met)

	transcoder, err := clip.NewFFmpegTranscoder(ffmpegPath, workDir)
	if err != nil {
		log.Error("transcoder setup failed", "error", err)
		os.Exit(1)
	}

	index := clip.NewHTTPTimestampIndex(sessionDirectoryURL, httpClient)
	directory := clip.NewHTTPSessionDirectory(sessionDirectoryURL, httpClient)
	resolver := clip.NewResolver(directory, log)
	fetcher := clip.NewFetcher(httpClient, log)
	orch := clip.NewOrchestrator(index, resolver, fetcher, transcoder, log, met, assemblyEnabled)
	clipHandler := clip.NewHandler(orch, log, met)

	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		met.Handler(func() { met.SetActiveAssemblies(orch.ActiveAssemblies()) }).ServeHTTP(w, r)
	})
	r.Route("/feeds/{feed_id}", func(r chi.Router) {
		r.Get("/candidates", detectionHandler.Candidates)
		r.Post("/clip", clipHandler.AssembleClip)
	})

	addr := ":" + port
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("server starting",
		"port", port,
		"cluster_window_minutes", windowMinutes,
		"clip_assembly_enabled", assemblyEnabled,
		"log_level", logLevel,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
