package valuation

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"valuation_engine/pkg/core/fundamentals"
	"valuation_engine/pkg/core/pipeline"
)

var orchestrator *pipeline.Orchestrator

// InitHandler wires the shared orchestrator into the package-level handlers.
func InitHandler(o *pipeline.Orchestrator) {
	orchestrator = o
}

// HandleValuationReport runs the full pipeline for one ticker and returns the
// complete report as JSON. The request body carries the raw fundamentals; all
// coercion and validation happens inside the engine.
func HandleValuationReport(w http.ResponseWriter, r *http.Request) {
	// CORS
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req pipeline.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req.Ticker = strings.ToUpper(strings.TrimSpace(req.Ticker))
	if req.Ticker == "" {
		http.Error(w, "ticker is required", http.StatusBadRequest)
		return
	}

	fmt.Printf("[VALUATION] Request: %s (sector: %s, price: %.2f)\n", req.Ticker, req.Sector, req.CurrentPrice)

	report, err := orchestrator.Run(r.Context(), req)
	if err != nil {
		var structural *fundamentals.StructuralError
		switch {
		case errors.As(err, &structural):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		case errors.Is(err, pipeline.ErrNoValuationPossible):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		fmt.Printf("[VALUATION] Warning: failed to encode response for %s: %v\n", req.Ticker, err)
	}
}
