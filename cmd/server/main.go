package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Akshaybondre123/AutoMobile-sub000/internal/config"
	"github.com/Akshaybondre123/AutoMobile-sub000/internal/db"
	"github.com/Akshaybondre123/AutoMobile-sub000/internal/ingestion"
	"github.com/Akshaybondre123/AutoMobile-sub000/internal/middleware"
	"github.com/Akshaybondre123/AutoMobile-sub000/internal/reconciliation"
	"github.com/Akshaybondre123/AutoMobile-sub000/internal/repository"

	"github.com/rs/cors"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := db.RunMigrations(cfg.Database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	records := repository.NewRecordStore(conn.Pool)
	ledger := repository.NewUploadLedger(conn.Pool)

	ingestService := ingestion.NewService(records, ledger)
	ingestHandler := ingestion.NewHTTPHandler(ingestService)
	reconcileHandler := reconciliation.NewHTTPHandler(reconciliation.NewEngine(records))

	mux := http.NewServeMux()
	mux.HandleFunc("/api/uploads", ingestHandler.Upload)
	mux.HandleFunc("/api/uploads/history", ingestHandler.History)
	mux.HandleFunc("/api/uploads/detail", ingestHandler.Detail)
	mux.Handle("/api/reconciliation", reconcileHandler)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      corsHandler.Handler(middleware.LoggingMiddleware(mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
