package pipeline

import (
	"errors"
	"time"

	"valuation_engine/pkg/core/classify"
	"valuation_engine/pkg/core/fundamentals"
	"valuation_engine/pkg/core/valuation"
)

// ErrNoValuationPossible is returned when every valuation method is
// unavailable. The engine never fabricates a number in that case.
var ErrNoValuationPossible = errors.New("no valuation method produced a result")

// Method names used in weight maps and the report.
const (
	MethodDCF      = "dcf"
	MethodPE       = "pe"
	MethodEVEBITDA = "ev_ebitda"
	MethodPB       = "pb"
)

// Request is the input contract for one valuation run: a flat mapping of
// named fundamentals plus the sector label and current market price. The
// engine is solely responsible for coercion and validation.
type Request struct {
	Ticker       string                       `json:"ticker"`
	Sector       string                       `json:"sector"`
	CurrentPrice float64                      `json:"current_price"`
	Fundamentals fundamentals.RawFundamentals `json:"fundamentals"`
}

// MethodValue is one method's fair value estimate and the weight it actually
// received in the blend.
type MethodValue struct {
	Method    string  `json:"method"`
	FairValue float64 `json:"fair_value"`
	Weight    float64 `json:"weight"`
}

// RateStress is one interest-rate shock scenario applied to the WACC.
type RateStress struct {
	ShockBps int     `json:"shock_bps"`
	WACC     float64 `json:"wacc"`
}

// ValuationReport is the terminal aggregate of a run. It is assembled once by
// the orchestrator and returned whole; callers treat it as read-only.
type ValuationReport struct {
	RunID       string    `json:"run_id"`
	Ticker      string    `json:"ticker"`
	GeneratedAt time.Time `json:"generated_at"`

	Profile classify.CompanyProfile      `json:"profile"`
	Inputs  fundamentals.ValuationInputs `json:"inputs"`

	WACC     valuation.WACCResult     `json:"wacc"`
	DCF      *valuation.DCFResult     `json:"dcf,omitempty"`
	Scenario *valuation.ScenarioResult `json:"scenario,omitempty"`
	Risk     valuation.RiskResult     `json:"risk"`

	Methods          []MethodValue `json:"methods"`
	BlendedFairValue float64       `json:"blended_fair_value"`
	CurrentPrice     float64       `json:"current_price"`
	UpsidePercent    float64       `json:"upside_percent"`

	RateStress []RateStress `json:"rate_stress"`

	Warnings []fundamentals.Warning `json:"warnings"`
}
