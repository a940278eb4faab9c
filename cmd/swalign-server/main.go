// Command swalign-server provides a REST API for local alignment.
//
// Usage:
//
//	swalign-server [options]
//
// Options:
//
//	-port     Port to listen on (default: 8080)
//	-host     Host to bind to (default: localhost)
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/aria-lang/swalign-go/api/handlers"
	"github.com/aria-lang/swalign-go/api/middleware"
	"github.com/aria-lang/swalign-go/pkg/swalign"
)

func newRouter(timeout time.Duration) chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(timeout))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(swalign.Version()))
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/sequence", func(r chi.Router) {
			r.Post("/complement", handlers.ComplementHandler)
			r.Post("/reverse-complement", handlers.ReverseComplementHandler)
			r.Post("/validate", handlers.ValidateHandler)
		})

		r.Route("/alignment", func(r chi.Router) {
			r.Post("/local", handlers.LocalAlignHandler)
			r.Post("/scan", handlers.ScanHandler)
		})

		r.Route("/scoring", func(r chi.Router) {
			r.Get("/default", handlers.DefaultScoringHandler)
			r.Post("/score", handlers.PairScoreHandler)
		})
	})

	return r
}

func main() {
	port := flag.Int("port", 8080, "Port to listen on")
	host := flag.String("host", "localhost", "Host to bind to")
	timeout := flag.Duration("timeout", 60*time.Second, "Per-request timeout")
	flag.Parse()

	addr := fmt.Sprintf("%s:%d", *host, *port)
	server := &http.Server{
		Addr:         addr,
		Handler:      newRouter(*timeout),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: *timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)

	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Could not gracefully shutdown: %v\n", err)
		}
		close(done)
	}()

	log.Printf("swalign API server starting on http://%s\n", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %s: %v\n", addr, err)
	}

	<-done
	log.Println("Server stopped")
}
