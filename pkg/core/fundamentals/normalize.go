package fundamentals

import (
	"valuation_engine/pkg/core/assumption"
)

// Provider field names follow the common fundamentals-API convention
// (AlphaVantage-style keys). Unknown keys are simply ignored.
const (
	keyRevenue        = "RevenueTTM"
	keyEBITDA         = "EBITDA"
	keyNetIncome      = "NetIncomeTTM"
	keyFreeCashFlow   = "FreeCashFlow"
	keyBookValue      = "BookValue" // per share
	keyCapEx          = "CapitalExpenditures"
	keyWorkingCapital = "WorkingCapital"
	keyTotalDebt      = "TotalDebt"
	keyCash           = "CashAndEquivalents"
	keyShares         = "SharesOutstanding"
	keyBeta           = "Beta"
	keyDebtToEquity   = "DebtToEquityRatio"
	keyInterestCover  = "InterestCoverage"
	keyDividendYield  = "DividendYield"
	keyRevenueGrowth  = "QuarterlyRevenueGrowthYOY"
	keyTaxRate        = "EffectiveTaxRate"
	keyTerminalGrowth = "TerminalGrowthRate"
	keySectorPE       = "SectorPE"
	keySectorEVEBITDA = "SectorEVEBITDA"
	keySectorPB       = "SectorPB"
)

// Growth and risk bounds enforced at construction. Values outside these ranges
// are clamped, not rejected; each clamp produces a repair warning.
const (
	minRevenueGrowth  = -0.50
	maxRevenueGrowth  = 1.00
	minTerminalGrowth = 0.00
	maxTerminalGrowth = 0.05
	minBeta           = 0.5
	maxBeta           = 2.0
	maxTaxRate        = 0.60
)

// Normalize validates and clamps a raw fundamentals mapping into a consistent
// ValuationInputs record. It fails only on structural defects (shares
// outstanding absent or non-positive); every other inconsistency is repaired
// with a documented substitute and surfaced as a warning.
func Normalize(raw RawFundamentals, cfg assumption.Config) (ValuationInputs, []Warning, error) {
	var warnings []Warning

	shares := raw.Numeric(keyShares, 0)
	if shares <= 0 {
		return ValuationInputs{}, nil, &StructuralError{
			Field:  keyShares,
			Reason: "must be present and positive to report per-share results",
		}
	}

	in := ValuationInputs{
		Revenue:           raw.Numeric(keyRevenue, 0),
		EBITDA:            raw.Numeric(keyEBITDA, 0),
		NetIncome:         raw.Numeric(keyNetIncome, 0),
		FreeCashFlow:      raw.Numeric(keyFreeCashFlow, 0),
		CapEx:             raw.Numeric(keyCapEx, 0),
		WorkingCapital:    raw.Numeric(keyWorkingCapital, 0),
		TotalDebt:         raw.Numeric(keyTotalDebt, 0),
		Cash:              raw.Numeric(keyCash, 0),
		SharesOutstanding: shares,
		DebtToEquity:      raw.Numeric(keyDebtToEquity, 0),
		InterestCoverage:  raw.Numeric(keyInterestCover, 0),
		DividendYield:     raw.Numeric(keyDividendYield, 0),
		RevenueGrowthRate: raw.Numeric(keyRevenueGrowth, 0.05),
		// Peer multiples default to sector-typical values when the provider
		// has no peer set; the per-company financials decide availability.
		SectorPE:       raw.Numeric(keySectorPE, cfg.Comparable.DefaultPE),
		SectorEVEBITDA: raw.Numeric(keySectorEVEBITDA, cfg.Comparable.DefaultEVEBITDA),
		SectorPB:       raw.Numeric(keySectorPB, cfg.Comparable.DefaultPB),
	}

	// Providers report book value per share.
	in.BookValue = raw.Numeric(keyBookValue, 0) * shares

	if in.Revenue < 0 {
		warnings = append(warnings, Warningf(WarnInputRepaired,
			"negative revenue %.0f replaced with 0", in.Revenue))
		in.Revenue = 0
	}

	// EBITDA must not exceed revenue; when it does, the provider record is
	// internally inconsistent and any FCF it reports is suspect too.
	if in.Revenue > 0 && in.EBITDA > in.Revenue {
		warnings = append(warnings, Warningf(WarnInputRepaired,
			"EBITDA %.0f exceeds revenue %.0f; EBITDA capped and revenue-derived FCF proxy used",
			in.EBITDA, in.Revenue))
		in.EBITDA = in.Revenue
		in.FreeCashFlow = in.Revenue * cfg.DCF.FCFRevenue
	}

	if in.TotalDebt < 0 {
		warnings = append(warnings, Warningf(WarnInputRepaired,
			"negative total debt %.0f replaced with 0", in.TotalDebt))
		in.TotalDebt = 0
	}
	if in.Cash < 0 {
		warnings = append(warnings, Warningf(WarnInputRepaired,
			"negative cash %.0f replaced with 0", in.Cash))
		in.Cash = 0
	}

	if g := clamp(in.RevenueGrowthRate, minRevenueGrowth, maxRevenueGrowth); g != in.RevenueGrowthRate {
		warnings = append(warnings, Warningf(WarnInputRepaired,
			"revenue growth %.1f%% clamped to %.1f%%", in.RevenueGrowthRate*100, g*100))
		in.RevenueGrowthRate = g
	}

	in.TerminalGrowthRate = raw.Numeric(keyTerminalGrowth, cfg.DCF.TerminalGrowth)
	if g := clamp(in.TerminalGrowthRate, minTerminalGrowth, maxTerminalGrowth); g != in.TerminalGrowthRate {
		warnings = append(warnings, Warningf(WarnInputRepaired,
			"terminal growth %.1f%% clamped to %.1f%%", in.TerminalGrowthRate*100, g*100))
		in.TerminalGrowthRate = g
	}

	in.Beta = raw.Numeric(keyBeta, cfg.DefaultBeta)
	if b := clamp(in.Beta, minBeta, maxBeta); b != in.Beta {
		warnings = append(warnings, Warningf(WarnInputRepaired,
			"beta %.2f clamped to %.2f", in.Beta, b))
		in.Beta = b
	}

	in.TaxRate = raw.Numeric(keyTaxRate, cfg.DefaultTaxRate)
	if in.TaxRate < 0 || in.TaxRate > maxTaxRate {
		warnings = append(warnings, Warningf(WarnInputRepaired,
			"effective tax rate %.1f%% outside [0%%, %.0f%%]; default %.0f%% used",
			in.TaxRate*100, maxTaxRate*100, cfg.DefaultTaxRate*100))
		in.TaxRate = cfg.DefaultTaxRate
	}

	if in.Revenue > 0 {
		in.EBITDAMargin = in.EBITDA / in.Revenue
	}

	return in, warnings, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
