package fundamentals

import "fmt"

// WarningKind classifies non-fatal issues surfaced during a valuation run.
type WarningKind string

const (
	WarnInputRepaired       WarningKind = "input_repaired"
	WarnMethodUnavailable   WarningKind = "method_unavailable"
	WarnCalculationFallback WarningKind = "calculation_fallback"
)

// Warning records a non-fatal invariant violation and the substitute applied.
// Warnings are collected across the pipeline and attached to the final report.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

func Warningf(kind WarningKind, format string, args ...interface{}) Warning {
	return Warning{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// StructuralError marks data defects that cannot be repaired within a run
// (e.g. shares outstanding missing or non-positive). It is fatal: no fallback
// value is fabricated.
type StructuralError struct {
	Field  string
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural data error: %s: %s", e.Field, e.Reason)
}

// ValuationInputs is the canonical, validated numeric record for one company.
// It is constructed once by Normalize and never mutated afterwards; perturbation
// helpers return copies.
type ValuationInputs struct {
	// Core financials
	Revenue           float64 `json:"revenue"`
	EBITDA            float64 `json:"ebitda"`
	NetIncome         float64 `json:"net_income"`
	FreeCashFlow      float64 `json:"free_cash_flow"`
	BookValue         float64 `json:"book_value"`
	CapEx             float64 `json:"capex"`
	WorkingCapital    float64 `json:"working_capital"`
	SharesOutstanding float64 `json:"shares_outstanding"`

	// Balance sheet
	TotalDebt float64 `json:"total_debt"`
	Cash      float64 `json:"cash_and_equivalents"`

	// Growth and profitability
	RevenueGrowthRate  float64 `json:"revenue_growth_rate"`
	EBITDAMargin       float64 `json:"ebitda_margin"`
	TerminalGrowthRate float64 `json:"terminal_growth_rate"`
	TaxRate            float64 `json:"tax_rate"`

	// Risk metrics
	Beta             float64 `json:"beta"`
	DebtToEquity     float64 `json:"debt_to_equity"`
	InterestCoverage float64 `json:"interest_coverage"`
	DividendYield    float64 `json:"dividend_yield"`

	// Sector benchmarks
	SectorPE       float64 `json:"sector_pe"`
	SectorEVEBITDA float64 `json:"sector_ev_ebitda"`
	SectorPB       float64 `json:"sector_pb"`
}

// NetDebt returns debt net of cash, floored at zero for the equity bridge.
func (v ValuationInputs) NetDebt() float64 {
	nd := v.TotalDebt - v.Cash
	if nd < 0 {
		return 0
	}
	return nd
}

// WithGrowth returns a copy with a different revenue growth rate.
// Used by the scenario analyzer; the receiver is untouched.
func (v ValuationInputs) WithGrowth(growth float64) ValuationInputs {
	v.RevenueGrowthRate = growth
	return v
}
