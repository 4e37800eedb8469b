package valuation

import (
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"

	"valuation_engine/pkg/core/assumption"
	"valuation_engine/pkg/core/fundamentals"
)

// SensitivityCell is one entry of the WACC x growth perturbation grid.
type SensitivityCell struct {
	WACCDelta     float64 `json:"wacc_delta"`
	GrowthDelta   float64 `json:"growth_delta"`
	ValuePerShare float64 `json:"value_per_share"`
}

// MonteCarloStats summarizes the simulated fair-value distribution.
type MonteCarloStats struct {
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std_dev"`
	P10     float64 `json:"p10"`
	P25     float64 `json:"p25"`
	P50     float64 `json:"p50"`
	P75     float64 `json:"p75"`
	P90     float64 `json:"p90"`
	Samples int     `json:"samples"`
	Seed    int64   `json:"seed"`
}

// ScenarioResult bounds the uncertainty around the base-case DCF value.
type ScenarioResult struct {
	BestCase   float64           `json:"best_case"`
	BaseCase   float64           `json:"base_case"`
	WorstCase  float64           `json:"worst_case"`
	Sensitivity []SensitivityCell `json:"sensitivity"`
	MonteCarlo MonteCarloStats   `json:"monte_carlo"`
}

// AnalyzeScenarios perturbs the DCF inputs two ways: a deterministic
// sensitivity grid and a seeded Monte Carlo simulation. Both reuse the pure
// CalculateDCF core, so the base input is never mutated.
func AnalyzeScenarios(base DCFInput, cfg assumption.Config, seed int64) (ScenarioResult, []fundamentals.Warning) {
	var warnings []fundamentals.Warning

	baseRes, _, err := CalculateDCF(base, cfg)
	if err != nil {
		warnings = append(warnings, fundamentals.Warningf(fundamentals.WarnCalculationFallback,
			"scenario analysis skipped: base DCF failed: %v", err))
		return ScenarioResult{}, warnings
	}

	grid := sensitivityGrid(base, cfg)

	// Best and worst cases come from the grid's extreme corners: cheapest
	// capital with strongest growth, and the reverse.
	best, worst := baseRes.ValuePerShare, baseRes.ValuePerShare
	for _, cell := range grid {
		if cell.ValuePerShare > best {
			best = cell.ValuePerShare
		}
		if cell.ValuePerShare < worst {
			worst = cell.ValuePerShare
		}
	}

	mc, mcWarnings := monteCarlo(base, cfg, seed)
	warnings = append(warnings, mcWarnings...)

	return ScenarioResult{
		BestCase:    best,
		BaseCase:    baseRes.ValuePerShare,
		WorstCase:   worst,
		Sensitivity: grid,
		MonteCarlo:  mc,
	}, warnings
}

func sensitivityGrid(base DCFInput, cfg assumption.Config) []SensitivityCell {
	cells := make([]SensitivityCell, 0, len(cfg.Scenario.WACCDeltas)*len(cfg.Scenario.GrowthDeltas))
	for _, wd := range cfg.Scenario.WACCDeltas {
		for _, gd := range cfg.Scenario.GrowthDeltas {
			perturbed := base
			perturbed.WACC = base.WACC + wd
			perturbed.Inputs = base.Inputs.WithGrowth(base.Inputs.RevenueGrowthRate + gd)

			res, _, err := CalculateDCF(perturbed, cfg)
			value := 0.0
			if err == nil {
				value = res.ValuePerShare
			}
			cells = append(cells, SensitivityCell{
				WACCDelta:     wd,
				GrowthDelta:   gd,
				ValuePerShare: value,
			})
		}
	}
	return cells
}

// mcDraw holds one sample's random perturbations. Draws are generated
// sequentially from the seeded source before any evaluation starts, so the
// simulation is deterministic for a given seed and sample count regardless of
// how the evaluation is parallelized.
type mcDraw struct {
	growthDelta float64
	waccDelta   float64
	marginDelta float64
}

func monteCarlo(base DCFInput, cfg assumption.Config, seed int64) (MonteCarloStats, []fundamentals.Warning) {
	n := cfg.Scenario.Simulations
	if n <= 0 {
		n = 2000
	}

	rng := rand.New(rand.NewSource(seed))
	draws := make([]mcDraw, n)
	for i := range draws {
		draws[i] = mcDraw{
			growthDelta: rng.NormFloat64() * cfg.Scenario.GrowthSigma,
			waccDelta:   rng.NormFloat64() * cfg.Scenario.WACCSigma,
			marginDelta: rng.NormFloat64() * cfg.Scenario.MarginSigma,
		}
	}

	// Samples are independent, so the evaluation fans out across workers.
	// Results are written by index; aggregation below is order-insensitive
	// anyway, which keeps the summary bit-for-bit reproducible.
	values := make([]float64, n)
	workers := runtime.NumCPU()
	if workers > n {
		workers = n
	}
	var wg sync.WaitGroup
	chunk := (n + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				values[i] = evaluateSample(base, cfg, draws[i])
			}
		}(lo, hi)
	}
	wg.Wait()

	valid := values[:0:0]
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			valid = append(valid, v)
		}
	}

	var warnings []fundamentals.Warning
	if len(valid) < n/2 {
		warnings = append(warnings, fundamentals.Warningf(fundamentals.WarnCalculationFallback,
			"Monte Carlo discarded %d of %d samples as degenerate", n-len(valid), n))
	}
	if len(valid) == 0 {
		return MonteCarloStats{Samples: 0, Seed: seed}, warnings
	}

	sort.Float64s(valid)
	mean, std := meanStd(valid)

	return MonteCarloStats{
		Mean:    mean,
		StdDev:  std,
		P10:     percentile(valid, 10),
		P25:     percentile(valid, 25),
		P50:     percentile(valid, 50),
		P75:     percentile(valid, 75),
		P90:     percentile(valid, 90),
		Samples: len(valid),
		Seed:    seed,
	}, warnings
}

func evaluateSample(base DCFInput, cfg assumption.Config, d mcDraw) float64 {
	perturbed := base

	// Growth draws respect the same bounds the normalizer enforces.
	growth := base.Inputs.RevenueGrowthRate + d.growthDelta
	if growth < -0.50 {
		growth = -0.50
	}
	if growth > 1.00 {
		growth = 1.00
	}
	perturbed.Inputs = base.Inputs.WithGrowth(growth)

	wacc := base.WACC + d.waccDelta
	if wacc < 0.02 {
		wacc = 0.02
	}
	perturbed.WACC = wacc

	// A margin shift flows straight into cash generation.
	perturbed.Inputs.FreeCashFlow = base.Inputs.FreeCashFlow * (1 + d.marginDelta)
	perturbed.Inputs.EBITDA = base.Inputs.EBITDA * (1 + d.marginDelta)

	res, _, err := CalculateDCF(perturbed, cfg)
	if err != nil {
		return math.NaN()
	}
	return res.ValuePerShare
}

func meanStd(values []float64) (float64, float64) {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}

// percentile uses linear interpolation between closest ranks on a sorted
// slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
