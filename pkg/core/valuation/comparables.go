package valuation

import (
	"valuation_engine/pkg/core/assumption"
	"valuation_engine/pkg/core/fundamentals"
)

// ComparableResult is one multiple-based fair value estimate.
type ComparableResult struct {
	FairValue float64 `json:"fair_value"`
	Multiple  float64 `json:"multiple"` // the adjusted multiple actually applied
}

// growthMultiplier converts excess growth over the threshold into a justified
// multiple premium, capped to avoid runaway valuations.
func growthMultiplier(growth, factor float64, cfg assumption.ComparableConfig) float64 {
	if growth <= cfg.GrowthThreshold {
		return 1.0
	}
	m := 1 + (growth-cfg.GrowthThreshold)*factor
	if m > cfg.MultiplierCap {
		m = cfg.MultiplierCap
	}
	return m
}

// PEValuation scales earnings per share by the sector P/E, adjusted PEG-style
// for growth. Returns false when the company has no positive earnings or no
// usable multiple; the orchestrator renormalizes weights over what remains.
func PEValuation(in fundamentals.ValuationInputs, cfg assumption.Config) (ComparableResult, bool) {
	if in.NetIncome <= 0 || in.SectorPE <= 0 || in.SharesOutstanding <= 0 {
		return ComparableResult{}, false
	}
	targetPE := in.SectorPE * growthMultiplier(in.RevenueGrowthRate, cfg.Comparable.PEGrowthFactor, cfg.Comparable)
	eps := in.NetIncome / in.SharesOutstanding
	return ComparableResult{FairValue: eps * targetPE, Multiple: targetPE}, true
}

// EVEBITDAValuation derives enterprise value from the sector EV/EBITDA
// multiple and bridges to equity value the same way the DCF does.
func EVEBITDAValuation(in fundamentals.ValuationInputs, cfg assumption.Config) (ComparableResult, bool) {
	if in.EBITDA <= 0 || in.SectorEVEBITDA <= 0 || in.SharesOutstanding <= 0 {
		return ComparableResult{}, false
	}
	multiple := in.SectorEVEBITDA * growthMultiplier(in.RevenueGrowthRate, cfg.Comparable.EVGrowthFactor, cfg.Comparable)
	ev := in.EBITDA * multiple
	equity := ev - in.NetDebt()
	if equity < 0 {
		equity = 0
	}
	return ComparableResult{FairValue: equity / in.SharesOutstanding, Multiple: multiple}, true
}

// PBValuation scales book value per share by the sector P/B, adjusted for
// return on equity relative to the sector-typical ROE. The adjustment is
// symmetric: above-average ROE earns a premium multiple, below-average a
// discount, both bounded.
func PBValuation(in fundamentals.ValuationInputs, cfg assumption.Config) (ComparableResult, bool) {
	if in.BookValue <= 0 || in.SectorPB <= 0 || in.SharesOutstanding <= 0 {
		return ComparableResult{}, false
	}
	roe := in.NetIncome / in.BookValue
	adj := 1 + (roe - cfg.Comparable.SectorROE)
	if adj > cfg.Comparable.MultiplierCap {
		adj = cfg.Comparable.MultiplierCap
	}
	if adj < 1/cfg.Comparable.MultiplierCap {
		adj = 1 / cfg.Comparable.MultiplierCap
	}
	pb := in.SectorPB * adj
	bvps := in.BookValue / in.SharesOutstanding
	return ComparableResult{FairValue: bvps * pb, Multiple: pb}, true
}
