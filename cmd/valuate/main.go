package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sync"

	hjson "github.com/hjson/hjson-go/v4"
	"github.com/joho/godotenv"

	"valuation_engine/pkg/core/assumption"
	"valuation_engine/pkg/core/pipeline"
)

// loadRequest reads a valuation request document. Files are JSON or Hjson
// (comments and unquoted keys allowed, convenient for hand-maintained inputs).
func loadRequest(path string) (pipeline.Request, error) {
	var req pipeline.Request

	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &req); err == nil {
		return req, nil
	}

	// Hjson cannot decode straight into a struct with nested maps reliably,
	// so normalize to JSON first.
	var generic map[string]interface{}
	if err := hjson.Unmarshal(data, &generic); err != nil {
		return req, fmt.Errorf("failed to parse %s as JSON or Hjson: %w", path, err)
	}
	normalized, err := json.Marshal(generic)
	if err != nil {
		return req, err
	}
	if err := json.Unmarshal(normalized, &req); err != nil {
		return req, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return req, nil
}

func printReport(r *pipeline.ValuationReport) {
	fmt.Printf("\n=========================================================\n")
	fmt.Printf(" %s | %s (confidence %.2f)\n", r.Ticker, r.Profile.Type, r.Profile.Confidence)
	fmt.Printf("=========================================================\n")
	fmt.Printf(" Blended fair value:  %10.2f\n", r.BlendedFairValue)
	if r.CurrentPrice > 0 {
		fmt.Printf(" Current price:       %10.2f  (%+.1f%%)\n", r.CurrentPrice, r.UpsidePercent)
	}
	fmt.Printf(" WACC:                %9.2f%%\n", r.WACC.WACC*100)
	fmt.Printf(" Risk:                %10s  (score %.0f)\n", r.Risk.Level, r.Risk.Score)
	fmt.Println("---------------------------------------------------------")
	for _, m := range r.Methods {
		fmt.Printf("   %-10s %10.2f   weight %.2f\n", m.Method, m.FairValue, m.Weight)
	}
	if r.Scenario != nil {
		fmt.Println("---------------------------------------------------------")
		fmt.Printf("   best / base / worst:  %.2f / %.2f / %.2f\n",
			r.Scenario.BestCase, r.Scenario.BaseCase, r.Scenario.WorstCase)
		mc := r.Scenario.MonteCarlo
		fmt.Printf("   Monte Carlo (n=%d):  p10 %.2f  p50 %.2f  p90 %.2f\n",
			mc.Samples, mc.P10, mc.P50, mc.P90)
	}
	for _, f := range r.Risk.Factors {
		fmt.Printf("   ! %s\n", f)
	}
	for _, w := range r.Warnings {
		fmt.Printf("   ~ [%s] %s\n", w.Kind, w.Message)
	}
}

func main() {
	godotenv.Load()

	assumptionsPath := flag.String("assumptions", "config/assumptions.yaml", "path to assumptions YAML")
	seed := flag.Int64("seed", 0, "Monte Carlo seed (0 = time-based)")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		fmt.Println("usage: valuate [-assumptions file] [-seed n] fundamentals.json|hjson ...")
		os.Exit(1)
	}

	cfg, err := assumption.Load(*assumptionsPath)
	if err != nil {
		fmt.Printf("[WARNING] %v; using built-in defaults\n", err)
		cfg = assumption.Default()
	}

	orchestrator := pipeline.NewOrchestrator(cfg)
	if *seed != 0 {
		orchestrator.SetSeed(*seed)
	}

	// Runs are independent per ticker, so fan out one goroutine per file.
	ctx := context.Background()
	reports := make([]*pipeline.ValuationReport, len(files))
	errs := make([]error, len(files))
	var wg sync.WaitGroup
	for i, path := range files {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			req, err := loadRequest(path)
			if err != nil {
				errs[i] = err
				return
			}
			reports[i], errs[i] = orchestrator.Run(ctx, req)
		}(i, path)
	}
	wg.Wait()

	failed := 0
	for i, path := range files {
		if errs[i] != nil {
			fmt.Printf("\n[ERROR] %s: %v\n", path, errs[i])
			failed++
			continue
		}
		printReport(reports[i])
	}
	if failed > 0 {
		os.Exit(1)
	}
}
