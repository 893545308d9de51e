// wordforge-mcp is a standalone MCP server for the Word-Forge engine.
// It connects directly to the SQLite database, serving world, character,
// story, and text revision tools over JSON-RPC stdio.
package main

import (
	"context"
	"flag"
	"log"

	wordforge "github.com/mhartwell/wordforge"
)

func main() {
	dbPath := flag.String("db", "./wordforge.db", "path to wordforge database")
	provider := flag.String("provider", "", "AI provider override: gemini, ollama, mock")
	noAI := flag.Bool("no-ai", false, "serve without an AI provider; revise_text reports an error")
	flag.Parse()

	engine, err := wordforge.NewEngine(context.Background(), wordforge.EngineConfig{
		DBPath:   *dbPath,
		Provider: *provider,
		ReadOnly: *noAI,
	})
	if err != nil {
		log.Fatalf("create wordforge engine: %v", err)
	}
	defer engine.Close()

	srv := newServer(engine)
	if err := srv.run(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
