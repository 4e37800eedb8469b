package valuation

import (
	"fmt"
	"strings"

	"valuation_engine/pkg/core/assumption"
	"valuation_engine/pkg/core/classify"
	"valuation_engine/pkg/core/fundamentals"
)

// RiskLevel buckets the composite risk score.
type RiskLevel string

const (
	RiskVeryLow  RiskLevel = "very_low"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskVeryHigh RiskLevel = "very_high"
)

// RiskResult carries the composite score, its level, the per-dimension
// breakdown, and human-readable factor strings. The factor list is a contract
// requirement: it drives user-facing explanation, not just the number.
type RiskResult struct {
	Score     float64            `json:"score"` // 0-100, higher = riskier
	Level     RiskLevel          `json:"level"`
	Breakdown map[string]float64 `json:"breakdown"`
	Factors   []string           `json:"factors"`
}

// leverageAlarm returns the debt/EBITDA ratio above which leverage is
// considered alarming for the given company type. Regulated utilities and
// REITs run structurally higher leverage; for startups the same ratio is a
// red flag much earlier.
func leverageAlarm(t classify.CompanyType) float64 {
	switch t {
	case classify.Utility, classify.REIT:
		return 4.5
	case classify.Financial:
		return 6.0
	case classify.Startup:
		return 1.5
	default:
		return 2.5
	}
}

func assessFinancialRisk(in fundamentals.ValuationInputs, profile classify.CompanyProfile) (float64, []string) {
	var score float64
	var factors []string

	alarm := leverageAlarm(profile.Type)
	if in.EBITDA > 0 && in.TotalDebt > 0 {
		ratio := in.TotalDebt / in.EBITDA
		switch {
		case ratio > alarm:
			score += 25
			factors = append(factors, fmt.Sprintf("debt/EBITDA %.1fx exceeds %.1fx threshold for %s companies", ratio, alarm, profile.Type))
		case ratio > alarm*0.6:
			score += 10
		}
	} else if in.DebtToEquity > 2.0 {
		score += 25
		factors = append(factors, fmt.Sprintf("debt/equity %.1fx is elevated", in.DebtToEquity))
	} else if in.DebtToEquity > 1.0 {
		score += 15
	}

	if in.InterestCoverage > 0 {
		if in.InterestCoverage < 2.0 {
			score += 25
			factors = append(factors, fmt.Sprintf("interest coverage %.1fx leaves little headroom", in.InterestCoverage))
		} else if in.InterestCoverage < 5.0 {
			score += 10
		}
	}

	if in.EBITDAMargin < 0 {
		score += 20
		factors = append(factors, "negative operating profitability")
	} else if in.EBITDAMargin < 0.05 {
		score += 10
	}

	if in.FreeCashFlow <= 0 {
		score += 20
		factors = append(factors, "negative or zero free cash flow")
	} else if in.FreeCashFlow < in.CapEx {
		score += 10
	}

	return min100(score), factors
}

func assessBusinessRisk(in fundamentals.ValuationInputs, profile classify.CompanyProfile) (float64, []string) {
	baseScores := map[classify.CompanyType]float64{
		classify.Startup:   60,
		classify.Growth:    40,
		classify.Cyclical:  50,
		classify.Mature:    20,
		classify.Utility:   15,
		classify.Financial: 35,
		classify.REIT:      25,
	}
	score, ok := baseScores[profile.Type]
	if !ok {
		score = 30
	}

	var factors []string
	switch {
	case in.Beta > 1.5:
		score += 15
		factors = append(factors, fmt.Sprintf("beta %.2f implies high price volatility", in.Beta))
	case in.Beta > 1.2:
		score += 10
	case in.Beta < 0.8:
		score -= 5
	}

	if score > 55 {
		factors = append(factors, fmt.Sprintf("elevated business risk inherent to %s companies", profile.Type))
	}
	return min100(score), factors
}

func assessMarketRisk(profile classify.CompanyProfile) (float64, []string) {
	score := 30.0 // base market exposure
	var factors []string

	if profile.MarketCap < 1e9 {
		score += 20
		factors = append(factors, "small capitalization amplifies market swings")
	} else if profile.MarketCap < 10e9 {
		score += 10
	}

	highRiskSectors := []string{"technology", "biotech", "mining", "oil"}
	sectorLower := strings.ToLower(profile.Sector)
	for _, s := range highRiskSectors {
		if strings.Contains(sectorLower, s) {
			score += 15
			factors = append(factors, fmt.Sprintf("%s sector carries above-average market risk", s))
			break
		}
	}
	return min100(score), factors
}

func assessLiquidityRisk(in fundamentals.ValuationInputs) (float64, []string) {
	var score float64
	var factors []string

	denom := in.TotalDebt
	if floor := in.Revenue * 0.1; denom < floor {
		denom = floor
	}
	if denom > 0 {
		cashRatio := in.Cash / denom
		if cashRatio < 0.1 {
			score += 30
			factors = append(factors, "thin cash position relative to obligations")
		} else if cashRatio < 0.3 {
			score += 15
		}
	}

	if in.WorkingCapital < 0 {
		score += 25
		factors = append(factors, "negative working capital")
	}
	return min100(score), factors
}

// AssessRisk scores financial, business, market, and liquidity risk against
// company-type-specific thresholds and combines them with fixed weights.
// It is independent of the valuation figures by design.
func AssessRisk(in fundamentals.ValuationInputs, profile classify.CompanyProfile, cfg assumption.Config) RiskResult {
	finScore, finFactors := assessFinancialRisk(in, profile)
	bizScore, bizFactors := assessBusinessRisk(in, profile)
	mktScore, mktFactors := assessMarketRisk(profile)
	liqScore, liqFactors := assessLiquidityRisk(in)

	breakdown := map[string]float64{
		"financial": finScore,
		"business":  bizScore,
		"market":    mktScore,
		"liquidity": liqScore,
	}

	r := cfg.Risk
	composite := finScore*r.FinancialWeight + bizScore*r.BusinessWeight +
		mktScore*r.MarketWeight + liqScore*r.LiquidityWeight

	var level RiskLevel
	switch {
	case composite < r.LowCutoff:
		level = RiskVeryLow
	case composite < r.MediumCutoff:
		level = RiskLow
	case composite < r.HighCutoff:
		level = RiskMedium
	case composite < r.VeryHighCutoff:
		level = RiskHigh
	default:
		level = RiskVeryHigh
	}

	var factors []string
	factors = append(factors, finFactors...)
	factors = append(factors, bizFactors...)
	factors = append(factors, mktFactors...)
	factors = append(factors, liqFactors...)
	if len(factors) > 5 {
		factors = factors[:5]
	}

	return RiskResult{
		Score:     composite,
		Level:     level,
		Breakdown: breakdown,
		Factors:   factors,
	}
}

func min100(v float64) float64 {
	if v > 100 {
		return 100
	}
	if v < 0 {
		return 0
	}
	return v
}
