package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/anthonybui311/AI-Chat-bot-ticket/internal/bot"
	"github.com/anthonybui311/AI-Chat-bot-ticket/internal/chat"
	"github.com/anthonybui311/AI-Chat-bot-ticket/internal/classifier"
	"github.com/anthonybui311/AI-Chat-bot-ticket/internal/config"
	"github.com/anthonybui311/AI-Chat-bot-ticket/internal/session"
	"github.com/anthonybui311/AI-Chat-bot-ticket/internal/sm"
	"github.com/anthonybui311/AI-Chat-bot-ticket/internal/stage"
	"github.com/anthonybui311/AI-Chat-bot-ticket/internal/store"
)

func main() {
	repl := flag.Bool("repl", false, "run an interactive terminal session instead of the HTTP server")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	cls, err := newClassifier(cfg)
	if err != nil {
		log.Fatalf("classifier: %v", err)
	}

	gateway := sm.NewClient(cfg.SMBaseURL, cfg.SMArea, cfg.SMRequesterID)
	router := stage.NewRouter(gateway)

	if *repl {
		if err := chat.NewDriver(cls, router, cfg.DataDir, os.Stdin, os.Stdout).Run(context.Background()); err != nil {
			log.Fatalf("chat: %v", err)
		}
		return
	}

	db, err := store.NewBoltStore(cfg.DataDir + "/ticketbot.db")
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer db.Close()

	sessionMgr := session.NewManager()

	// Periodic cleanup of stale per-session locks to prevent memory leaks
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			sessionMgr.Cleanup(1 * time.Hour)
		}
	}()

	botHandler := bot.NewHandler(cls, router, db, sessionMgr, cfg.DataDir)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	botHandler.Routes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("ticketbot: listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("ticketbot: shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
	log.Println("ticketbot: stopped")
}

func newClassifier(cfg *config.Config) (classifier.Classifier, error) {
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		return classifier.NewGemini(context.Background(), cfg.GeminiAPIKey, cfg.LLMModel)
	default:
		return classifier.NewGroq(cfg.GroqAPIKey, cfg.LLMModel), nil
	}
}
