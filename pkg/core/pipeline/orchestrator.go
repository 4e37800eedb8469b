package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"valuation_engine/pkg/core/assumption"
	"valuation_engine/pkg/core/classify"
	"valuation_engine/pkg/core/fundamentals"
	"valuation_engine/pkg/core/valuation"
)

// ReportRepository persists completed reports. Implementations live in the
// store package; the orchestrator only needs this surface.
type ReportRepository interface {
	SaveReport(ctx context.Context, report *ValuationReport) error
}

// Orchestrator sequences the full valuation pipeline for one ticker:
// normalize -> classify -> WACC -> DCF (+ scenarios) -> comparables -> risk ->
// weighted synthesis. Each stage is a pure function of its input record, so
// independent runs can execute concurrently without coordination.
type Orchestrator struct {
	cfg  assumption.Config
	repo ReportRepository
	seed int64
}

// NewOrchestrator creates an orchestrator with the given assumption set and
// no persistence.
func NewOrchestrator(cfg assumption.Config) *Orchestrator {
	return &Orchestrator{
		cfg:  cfg,
		seed: time.Now().UnixNano(),
	}
}

// SetRepository injects a report repository (e.g. for testing or when a
// database is configured). A nil repository disables persistence.
func (o *Orchestrator) SetRepository(repo ReportRepository) {
	o.repo = repo
}

// SetSeed fixes the Monte Carlo seed so two runs over the same request yield
// identical scenario statistics.
func (o *Orchestrator) SetSeed(seed int64) {
	o.seed = seed
}

// Run executes the full pipeline and returns a complete report or a typed
// error; it never returns a partially-filled report.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*ValuationReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	fmt.Printf("[PIPELINE] Starting valuation for %s...\n", req.Ticker)

	var warnings []fundamentals.Warning

	// 1. Input normalization. Structural defects are fatal here and nowhere
	// else downstream, because every later stage consumes the validated record.
	inputs, normWarnings, err := fundamentals.Normalize(req.Fundamentals, o.cfg)
	if err != nil {
		return nil, fmt.Errorf("input normalization failed for %s: %w", req.Ticker, err)
	}
	warnings = append(warnings, normWarnings...)

	marketCap := req.Fundamentals.Numeric("MarketCapitalization", req.CurrentPrice*inputs.SharesOutstanding)
	sector := req.Fundamentals.String("Sector", req.Sector)
	if sector == "" {
		sector = req.Sector
	}

	// 2. Classification drives method weights and risk thresholds.
	profile := classify.Classify(inputs, req.Ticker, sector, marketCap)
	fmt.Printf("[PIPELINE] %s classified as %s (confidence %.2f)\n", req.Ticker, profile.Type, profile.Confidence)

	// 3. Cost of capital.
	waccInput := valuation.WACCInput{
		RiskFreeRate:      o.cfg.WACC.RiskFreeRate,
		MarketRiskPremium: o.cfg.WACC.MarketRiskPremium,
		Beta:              inputs.Beta,
		TotalDebt:         inputs.TotalDebt,
		EquityValue:       marketCap,
		CostOfDebt:        req.Fundamentals.Numeric("CostOfDebt", 0),
		TaxRate:           inputs.TaxRate,
		EBITDA:            inputs.EBITDA,
	}
	waccRes, waccWarnings := valuation.ComputeWACC(waccInput, profile, o.cfg)
	warnings = append(warnings, waccWarnings...)
	fmt.Printf("[PIPELINE] WACC %.2f%% (fallback=%v)\n", waccRes.WACC*100, waccRes.UsedFallback)

	// 4. DCF plus scenario analysis on its pure core.
	estimates := make(map[string]float64)
	var dcfRes *valuation.DCFResult
	var scenarioRes *valuation.ScenarioResult

	dcfInput := valuation.DCFInputFromConfig(inputs, waccRes.WACC, o.cfg)
	res, dcfWarnings, err := valuation.CalculateDCF(dcfInput, o.cfg)
	if err != nil {
		// Shares were validated at normalization, so a failure here is a
		// genuine structural defect and must propagate.
		return nil, fmt.Errorf("DCF failed for %s: %w", req.Ticker, err)
	}
	warnings = append(warnings, dcfWarnings...)
	if res.ValuePerShare > 0 {
		dcfRes = &res
		estimates[MethodDCF] = res.ValuePerShare

		scenario, scenarioWarnings := valuation.AnalyzeScenarios(dcfInput, o.cfg, o.seed)
		warnings = append(warnings, scenarioWarnings...)
		scenarioRes = &scenario
	} else {
		warnings = append(warnings, fundamentals.Warningf(fundamentals.WarnMethodUnavailable,
			"DCF produced no positive per-share value; weight redistributed"))
	}

	// 5. Comparable multiples. Absent results stay absent so weights can be
	// renormalized over the methods that actually produced a value.
	if pe, ok := valuation.PEValuation(inputs, o.cfg); ok {
		estimates[MethodPE] = pe.FairValue
	} else {
		warnings = append(warnings, fundamentals.Warningf(fundamentals.WarnMethodUnavailable,
			"P/E method unavailable (no positive earnings or multiple)"))
	}
	if ev, ok := valuation.EVEBITDAValuation(inputs, o.cfg); ok {
		estimates[MethodEVEBITDA] = ev.FairValue
	} else {
		warnings = append(warnings, fundamentals.Warningf(fundamentals.WarnMethodUnavailable,
			"EV/EBITDA method unavailable (no positive EBITDA or multiple)"))
	}
	if pb, ok := valuation.PBValuation(inputs, o.cfg); ok {
		estimates[MethodPB] = pb.FairValue
	} else {
		warnings = append(warnings, fundamentals.Warningf(fundamentals.WarnMethodUnavailable,
			"P/B method unavailable (no positive book value or multiple)"))
	}

	// 6. Risk assessment, independent of the valuation figures.
	riskRes := valuation.AssessRisk(inputs, profile, o.cfg)

	// 7. Weighted synthesis over the available subset.
	methods, blended, err := blend(estimates, o.cfg.WeightsFor(string(profile.Type)))
	if err != nil {
		return nil, fmt.Errorf("valuation failed for %s: %w", req.Ticker, err)
	}

	upside := 0.0
	if req.CurrentPrice > 0 {
		upside = (blended - req.CurrentPrice) / req.CurrentPrice * 100
	}

	report := &ValuationReport{
		RunID:            uuid.New().String(),
		Ticker:           req.Ticker,
		GeneratedAt:      time.Now(),
		Profile:          profile,
		Inputs:           inputs,
		WACC:             waccRes,
		DCF:              dcfRes,
		Scenario:         scenarioRes,
		Risk:             riskRes,
		Methods:          methods,
		BlendedFairValue: blended,
		CurrentPrice:     req.CurrentPrice,
		UpsidePercent:    upside,
		RateStress:       o.rateStress(waccInput, profile),
		Warnings:         warnings,
	}

	for _, w := range warnings {
		fmt.Printf("[PIPELINE] Warning (%s): %s\n", w.Kind, w.Message)
	}

	if o.repo != nil {
		if err := o.repo.SaveReport(ctx, report); err != nil {
			// Persistence is best-effort; the computed report is still valid.
			fmt.Printf("[PIPELINE] Warning: failed to persist report for %s: %v\n", req.Ticker, err)
		}
	}

	fmt.Printf("[PIPELINE] Completed %s in %v: fair value %.2f (%.1f%% vs price)\n",
		req.Ticker, time.Since(start), blended, upside)
	return report, nil
}

// blend renormalizes the configured weights over the sparse estimate map and
// returns the weighted fair value. Weights over the available subset always
// sum to 1; if the subset is empty the run fails rather than fabricating a
// number.
func blend(estimates map[string]float64, weights assumption.MethodWeights) ([]MethodValue, float64, error) {
	configured := map[string]float64{
		MethodDCF:      weights.DCF,
		MethodPE:       weights.PE,
		MethodEVEBITDA: weights.EVEBITDA,
		MethodPB:       weights.PB,
	}

	var totalWeight float64
	for method, w := range configured {
		if _, ok := estimates[method]; ok {
			totalWeight += w
		}
	}
	if totalWeight <= 0 {
		return nil, 0, ErrNoValuationPossible
	}

	order := []string{MethodDCF, MethodPE, MethodEVEBITDA, MethodPB}
	var methods []MethodValue
	var blended float64
	for _, method := range order {
		value, ok := estimates[method]
		if !ok || configured[method] <= 0 {
			continue
		}
		w := configured[method] / totalWeight
		blended += value * w
		methods = append(methods, MethodValue{Method: method, FairValue: value, Weight: w})
	}
	if len(methods) == 0 {
		return nil, 0, ErrNoValuationPossible
	}
	return methods, blended, nil
}

// rateStress recomputes the WACC under parallel interest-rate shocks.
func (o *Orchestrator) rateStress(base valuation.WACCInput, profile classify.CompanyProfile) []RateStress {
	shocks := []int{50, 100, 200}
	out := make([]RateStress, 0, len(shocks))
	for _, bps := range shocks {
		shocked := base
		shocked.RiskFreeRate += float64(bps) / 10000
		if shocked.CostOfDebt > 0 {
			shocked.CostOfDebt += float64(bps) / 10000
		}
		res, _ := valuation.ComputeWACC(shocked, profile, o.cfg)
		out = append(out, RateStress{ShockBps: bps, WACC: res.WACC})
	}
	return out
}
