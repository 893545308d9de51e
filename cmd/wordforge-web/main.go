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

	wordforge "github.com/mhartwell/wordforge"
)

func main() {
	dbPath := flag.String("db", "./wordforge.db", "path to SQLite database")
	addr := flag.String("addr", ":8080", "listen address")
	provider := flag.String("provider", "", "AI provider override: gemini, ollama, mock")
	noAI := flag.Bool("no-ai", false, "serve without an AI provider; /api/revise returns 503")
	flag.Parse()

	engine, err := wordforge.NewEngine(context.Background(), wordforge.EngineConfig{
		DBPath:   *dbPath,
		Provider: *provider,
		ReadOnly: *noAI,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "wordforge-web: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	mux := newRouter(engine)

	srv := &http.Server{
		Addr:         *addr,
		Handler:      logging(recovery(mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("wordforge-web: listening on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("wordforge-web: %v", err)
		}
	}()

	<-done
	log.Println("wordforge-web: shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("wordforge-web: shutdown error: %v", err)
	}
	log.Println("wordforge-web: stopped")
}
