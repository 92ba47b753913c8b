package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sosostris/german-english-bilingual-reader/internal/api"
	"github.com/sosostris/german-english-bilingual-reader/internal/config"
	"github.com/sosostris/german-english-bilingual-reader/internal/health"
	"github.com/sosostris/german-english-bilingual-reader/internal/library"
	"github.com/sosostris/german-english-bilingual-reader/internal/playback"
	"github.com/sosostris/german-english-bilingual-reader/internal/provider"
	"github.com/sosostris/german-english-bilingual-reader/internal/session"
	"github.com/sosostris/german-english-bilingual-reader/internal/storage"
	"github.com/sosostris/german-english-bilingual-reader/internal/translate"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", "config/dev.example.yaml", "Path to configuration file")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(*logLevel); err == nil {
		log.SetLevel(level)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Infof("Starting bilingual reader server v%s", version)
	log.Infof("Configuration loaded from: %s", *configPath)

	storageAdapter, err := storage.NewAdapter(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to create storage adapter: %v", err)
	}
	defer storageAdapter.Close()
	log.Infof("Storage adapter initialized: %s", cfg.Storage.Adapter)

	registry := provider.NewRegistry(log)
	if err := registry.InitializeProviders(cfg.Providers); err != nil {
		log.Fatalf("Failed to initialize providers: %v", err)
	}
	defer registry.Close()
	log.Infof("Providers initialized: llm=%v tts=%v", registry.ListLLM(), registry.ListSynthesizers())

	repo := library.NewRepository(storageAdapter, cfg.Library.Prefix)
	translationCache := translate.NewCache()

	localEngine := playback.NewLocalEngine(cfg.Providers.LocalSpeech, log)
	if localEngine != nil {
		log.Infof("Local speech engine: %s", cfg.Providers.LocalSpeech.Command)
	}

	var audioCache *playback.AudioCache
	if cfg.Playback.AudioCachePrefix != "" {
		audioCache = playback.NewAudioCache(storageAdapter, cfg.Playback.AudioCachePrefix)
	}

	newPlayback := func() *playback.Controller {
		return playback.NewController(registry, localEngine, audioCache, cfg.Playback, log)
	}
	sessions := session.NewManager(repo, registry, translationCache, newPlayback, log)

	healthHandler := health.NewHandler(version)
	healthHandler.Register("storage", health.StorageCheck(storageAdapter, cfg.Library.Prefix))
	healthHandler.Register("providers", health.ProviderCheck(registry))

	server := api.NewServer(repo, registry, sessions, healthHandler, cfg.Session, log)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Infof("Server listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped")
}
