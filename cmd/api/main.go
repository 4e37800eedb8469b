package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	apivaluation "valuation_engine/pkg/api/valuation"
	"valuation_engine/pkg/core/assumption"
	"valuation_engine/pkg/core/pipeline"
	"valuation_engine/pkg/core/store"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Load assumptions (defaults apply when the file is missing)
	cfgPath := "config/assumptions.yaml"
	if p := os.Getenv("ASSUMPTIONS_FILE"); p != "" {
		cfgPath = p
	}
	cfg, err := assumption.Load(cfgPath)
	if err != nil {
		fmt.Printf("[WARNING] Failed to load %s: %v\n", cfgPath, err)
		fmt.Println("  Falling back to built-in assumption defaults")
		cfg = assumption.Default()
	} else {
		fmt.Printf("[CONFIG] Loaded assumptions from %s\n", cfgPath)
	}

	orchestrator := pipeline.NewOrchestrator(cfg)

	// Optional persistence: only wired when DATABASE_URL is configured.
	ctx := context.Background()
	if os.Getenv("DATABASE_URL") != "" {
		if err := store.InitDB(ctx); err != nil {
			fmt.Printf("[WARNING] Database init failed: %v. Running without persistence.\n", err)
		} else {
			repo := store.NewReportRepo()
			if err := repo.EnsureSchema(ctx); err != nil {
				fmt.Printf("[WARNING] Schema setup failed: %v. Running without persistence.\n", err)
			} else {
				orchestrator.SetRepository(repo)
				fmt.Println("[STORE] Report persistence enabled")
			}
		}
		defer store.Close()
	}

	apivaluation.InitHandler(orchestrator)
	http.HandleFunc("/api/valuation/report", apivaluation.HandleValuationReport)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	fmt.Printf("API server starting on :%s...\n", port)
	fmt.Println("  - POST /api/valuation/report")
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		fmt.Printf("Server error: %v\n", err)
		os.Exit(1)
	}
}
