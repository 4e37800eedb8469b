// Package classify assigns a company-type label from normalized fundamentals
// plus sector text. The label drives method weighting and risk thresholds
// downstream.
package classify

import (
	"strings"

	"valuation_engine/pkg/core/fundamentals"
)

// CompanyType is the classification label used across the engine.
type CompanyType string

const (
	Startup   CompanyType = "startup"
	Growth    CompanyType = "growth"
	Mature    CompanyType = "mature"
	Cyclical  CompanyType = "cyclical"
	Financial CompanyType = "financial"
	REIT      CompanyType = "reit"
	Utility   CompanyType = "utility"
)

// CompanyProfile is the immutable snapshot produced once per valuation run.
type CompanyProfile struct {
	Ticker     string      `json:"ticker"`
	Sector     string      `json:"sector"`
	MarketCap  float64     `json:"market_cap"`
	Type       CompanyType `json:"company_type"`
	Confidence float64     `json:"confidence"`
}

// rule is one entry in the ordered classification table. A rule matches when
// any of its sector keywords appears in the sector text AND its numeric
// predicate (if any) holds. Confidence is rule-intrinsic: how specific and
// reliable this rule historically is, not a statistical posterior.
type rule struct {
	name       string
	companyType CompanyType
	confidence float64
	keywords   []string
	predicate  func(in fundamentals.ValuationInputs, marketCap float64) bool
}

// Evaluation order matters: the first full match wins. Keyword-driven sector
// rules outrank numeric heuristics because sector text is the stronger signal.
var rules = []rule{
	{
		name:        "financial_sector",
		companyType: Financial,
		confidence:  0.90,
		keywords:    []string{"financial", "bank", "insurance"},
	},
	{
		name:        "reit_sector",
		companyType: REIT,
		confidence:  0.90,
		keywords:    []string{"reit", "real estate"},
	},
	{
		name:        "utility_sector",
		companyType: Utility,
		confidence:  0.85,
		keywords:    []string{"utilities", "electric", "gas", "water"},
	},
	{
		name:        "hypergrowth_unprofitable",
		companyType: Startup,
		confidence:  0.75,
		predicate: func(in fundamentals.ValuationInputs, marketCap float64) bool {
			return in.RevenueGrowthRate > 0.20 &&
				in.NetIncome <= 0.05*in.Revenue &&
				in.DividendYield < 0.02 &&
				marketCap < 10e9
		},
	},
	{
		name:        "profitable_grower",
		companyType: Growth,
		confidence:  0.70,
		predicate: func(in fundamentals.ValuationInputs, marketCap float64) bool {
			margin := 0.0
			if in.Revenue > 0 {
				margin = in.NetIncome / in.Revenue
			}
			return in.RevenueGrowthRate >= 0.10 && in.RevenueGrowthRate <= 0.30 &&
				margin >= 0.05 && in.DividendYield < 0.03
		},
	},
	{
		name:        "cyclical_sector",
		companyType: Cyclical,
		confidence:  0.65,
		keywords:    []string{"materials", "energy", "industrials", "mining"},
		predicate: func(in fundamentals.ValuationInputs, marketCap float64) bool {
			return in.Beta >= 1.2
		},
	},
	{
		name:        "dividend_payer",
		companyType: Mature,
		confidence:  0.60,
		predicate: func(in fundamentals.ValuationInputs, marketCap float64) bool {
			return in.RevenueGrowthRate < 0.15 && in.DividendYield >= 0.02 && marketCap >= 1e9
		},
	},
}

// Classify runs the rule table against the normalized inputs. Classification
// is a pure function of its arguments: the same inputs always yield the same
// profile. Companies matching no rule default to mature with confidence 0.5.
func Classify(in fundamentals.ValuationInputs, ticker, sector string, marketCap float64) CompanyProfile {
	sectorLower := strings.ToLower(sector)

	for _, r := range rules {
		if len(r.keywords) > 0 && !containsAny(sectorLower, r.keywords) {
			continue
		}
		if r.predicate != nil && !r.predicate(in, marketCap) {
			continue
		}
		if len(r.keywords) == 0 && r.predicate == nil {
			continue
		}
		return CompanyProfile{
			Ticker:     ticker,
			Sector:     sector,
			MarketCap:  marketCap,
			Type:       r.companyType,
			Confidence: r.confidence,
		}
	}

	return CompanyProfile{
		Ticker:     ticker,
		Sector:     sector,
		MarketCap:  marketCap,
		Type:       Mature,
		Confidence: 0.5,
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
