package valuation

import (
	"math"

	"valuation_engine/pkg/core/assumption"
	"valuation_engine/pkg/core/fundamentals"
)

// DCFInput encapsulates all inputs required for a Discounted Cash Flow
// valuation. The struct is self-contained so perturbed copies can be run
// without touching shared state.
type DCFInput struct {
	Inputs          fundamentals.ValuationInputs
	WACC            float64
	ProjectionYears int
	FadeFactor      float64 // growth decay per year, < 1
	TerminalGrowth  float64
	MinSpread       float64 // minimum WACC - terminal growth spread
}

// ProjectedYear is one row of the explicit projection period.
type ProjectedYear struct {
	Year           int     `json:"year"`
	GrowthRate     float64 `json:"growth_rate"`
	FCF            float64 `json:"fcf"`
	DiscountFactor float64 `json:"discount_factor"`
	PresentValue   float64 `json:"present_value"`
}

// DCFResult holds the valuation outputs.
type DCFResult struct {
	Projections     []ProjectedYear `json:"projections"`
	TerminalValue   float64         `json:"terminal_value"`
	PVTerminal      float64         `json:"pv_terminal"`
	PVExplicit      float64         `json:"pv_explicit"`
	EnterpriseValue float64         `json:"enterprise_value"`
	EquityValue     float64         `json:"equity_value"`
	ValuePerShare   float64         `json:"value_per_share"`
	WACC            float64         `json:"wacc"`
	TerminalGrowth  float64         `json:"terminal_growth"` // after clamping
	BaseFCF         float64         `json:"base_fcf"`        // after any proxy substitution
}

// DCFInputFromConfig assembles a DCFInput with the configured projection
// parameters.
func DCFInputFromConfig(in fundamentals.ValuationInputs, wacc float64, cfg assumption.Config) DCFInput {
	return DCFInput{
		Inputs:          in,
		WACC:            wacc,
		ProjectionYears: cfg.DCF.ProjectionYears,
		FadeFactor:      cfg.DCF.FadeFactor,
		TerminalGrowth:  in.TerminalGrowthRate,
		MinSpread:       cfg.DCF.MinSpread,
	}
}

// baseFCF returns a usable starting free cash flow. Non-positive reported FCF
// is replaced by a conservative proxy: after-tax EBITDA less capex, then a
// fraction of net income, then a fraction of revenue as the last resort.
func baseFCF(in fundamentals.ValuationInputs, cfg assumption.Config) (float64, []fundamentals.Warning) {
	if in.FreeCashFlow > 0 {
		return in.FreeCashFlow, nil
	}

	var proxy float64
	var source string
	switch {
	case in.EBITDA > 0:
		proxy = in.EBITDA*(1-in.TaxRate) - in.CapEx
		if floor := in.NetIncome * cfg.DCF.FCFNetIncome; proxy < floor {
			proxy = floor
		}
		source = "after-tax EBITDA less capex"
	case in.NetIncome > 0:
		proxy = in.NetIncome * cfg.DCF.FCFNetIncome
		source = "net income fraction"
	default:
		proxy = in.Revenue * cfg.DCF.FCFRevenue
		source = "revenue fraction"
	}

	w := fundamentals.Warningf(fundamentals.WarnCalculationFallback,
		"free cash flow %.0f non-positive; proxy %.0f from %s used", in.FreeCashFlow, proxy, source)
	return proxy, []fundamentals.Warning{w}
}

// CalculateDCF projects and discounts free cash flows to a per-share fair
// value. It is a pure function: no shared state, so the scenario analyzer can
// call it thousands of times with perturbed inputs.
//
// Projection: year t grows at baseGrowth * fade^(t-1), decaying geometrically
// toward the terminal rate. Terminal value uses Gordon Growth with the
// terminal growth clamped so WACC always exceeds it by at least MinSpread.
func CalculateDCF(input DCFInput, cfg assumption.Config) (DCFResult, []fundamentals.Warning, error) {
	in := input.Inputs
	if in.SharesOutstanding <= 0 {
		return DCFResult{}, nil, &fundamentals.StructuralError{
			Field:  "SharesOutstanding",
			Reason: "must be positive for per-share valuation",
		}
	}

	years := input.ProjectionYears
	if years <= 0 {
		years = cfg.DCF.ProjectionYears
	}
	fade := input.FadeFactor
	if fade <= 0 || fade >= 1 {
		fade = cfg.DCF.FadeFactor
	}

	fcf, warnings := baseFCF(in, cfg)

	// Terminal growth guard: clamp downward so the Gordon denominator stays
	// positive. Division by zero or a negative terminal value must never occur.
	terminalGrowth := input.TerminalGrowth
	if input.WACC-terminalGrowth < input.MinSpread {
		clamped := input.WACC - input.MinSpread
		warnings = append(warnings, fundamentals.Warningf(fundamentals.WarnCalculationFallback,
			"terminal growth %.2f%% too close to WACC %.2f%%; clamped to %.2f%%",
			terminalGrowth*100, input.WACC*100, clamped*100))
		terminalGrowth = clamped
	}

	projections := make([]ProjectedYear, 0, years)
	var pvExplicit float64
	current := fcf
	for t := 1; t <= years; t++ {
		growth := in.RevenueGrowthRate * math.Pow(fade, float64(t-1))
		current *= 1 + growth
		df := 1 / math.Pow(1+input.WACC, float64(t))
		pv := current * df
		pvExplicit += pv
		projections = append(projections, ProjectedYear{
			Year:           t,
			GrowthRate:     growth,
			FCF:            current,
			DiscountFactor: df,
			PresentValue:   pv,
		})
	}

	terminalFCF := current * (1 + terminalGrowth)
	terminalValue := terminalFCF / (input.WACC - terminalGrowth)
	pvTerminal := terminalValue / math.Pow(1+input.WACC, float64(years))

	ev := pvExplicit + pvTerminal
	equity := ev - in.NetDebt()
	if equity < 0 {
		equity = 0
	}
	perShare := equity / in.SharesOutstanding

	return DCFResult{
		Projections:     projections,
		TerminalValue:   terminalValue,
		PVTerminal:      pvTerminal,
		PVExplicit:      pvExplicit,
		EnterpriseValue: ev,
		EquityValue:     equity,
		ValuePerShare:   perShare,
		WACC:            input.WACC,
		TerminalGrowth:  terminalGrowth,
		BaseFCF:         fcf,
	}, warnings, nil
}
