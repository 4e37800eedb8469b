package valuation

import (
	"math"

	"valuation_engine/pkg/core/assumption"
	"valuation_engine/pkg/core/classify"
	"valuation_engine/pkg/core/fundamentals"
)

// WACCInput parameters for calculating Cost of Capital.
type WACCInput struct {
	RiskFreeRate      float64
	MarketRiskPremium float64
	Beta              float64
	TotalDebt         float64
	EquityValue       float64 // market value of equity (market cap)
	CostOfDebt        float64 // pre-tax; 0 means estimate from Rf + credit spread
	TaxRate           float64
	EBITDA            float64 // for the leverage premium (debt/EBITDA)
}

// WACCResult carries the discount rate plus the contribution of every
// component. The breakdown is a contract requirement: the scalar alone is not
// auditable.
type WACCResult struct {
	WACC float64 `json:"wacc"`

	// CAPM decomposition
	CostOfEquity      float64 `json:"cost_of_equity"`
	CAPMBase          float64 `json:"capm_base"`
	CostOfDebtPreTax  float64 `json:"cost_of_debt_pre_tax"`
	AfterTaxCostOfDebt float64 `json:"after_tax_cost_of_debt"`

	// Capital weights (market values)
	WeightEquity float64 `json:"weight_equity"`
	WeightDebt   float64 `json:"weight_debt"`

	// Additive risk premiums, each independently bounded
	SizePremium     float64 `json:"size_premium"`
	LeveragePremium float64 `json:"leverage_premium"`
	BusinessPremium float64 `json:"business_premium"`

	BaseWACC     float64 `json:"base_wacc"` // before premiums
	UsedFallback bool    `json:"used_fallback"`
}

// sizePremium by market capitalization tier. Smaller companies carry higher
// required returns.
func sizePremium(marketCap float64) float64 {
	switch {
	case marketCap >= 10e9:
		return 0.002
	case marketCap >= 2e9:
		return 0.010
	case marketCap >= 300e6:
		return 0.025
	default:
		return 0.045
	}
}

// leveragePremium scales with debt/EBITDA beyond the configured threshold,
// capped so a distressed balance sheet cannot blow up the discount rate.
func leveragePremium(debt, ebitda float64, cfg assumption.WACCConfig) float64 {
	if ebitda <= 0 || debt <= 0 {
		return 0
	}
	ratio := debt / ebitda
	if ratio <= cfg.LeverageThreshold {
		return 0
	}
	p := (ratio - cfg.LeverageThreshold) * cfg.LeveragePremium
	if p > cfg.LeveragePremiumCap {
		p = cfg.LeveragePremiumCap
	}
	return p
}

// businessPremium applies the company-type adjustment: startups price in
// execution risk, regulated utilities price out of it.
func businessPremium(companyType classify.CompanyType, cfg assumption.WACCConfig) float64 {
	switch companyType {
	case classify.Startup:
		return cfg.StartupPremium
	case classify.Utility:
		return -cfg.UtilityDiscount
	default:
		return 0
	}
}

// ComputeWACC calculates the discount rate via CAPM plus additive bounded
// premiums. It never fails the run: degenerate inputs produce the configured
// fallback rate and a warning, guaranteeing the DCF step always has a usable
// discount rate.
func ComputeWACC(in WACCInput, profile classify.CompanyProfile, cfg assumption.Config) (WACCResult, []fundamentals.Warning) {
	var warnings []fundamentals.Warning

	fallback := func(reason string) (WACCResult, []fundamentals.Warning) {
		warnings = append(warnings, fundamentals.Warningf(fundamentals.WarnCalculationFallback,
			"WACC calculation degenerate (%s); fallback rate %.1f%% used", reason, cfg.WACC.Fallback*100))
		return WACCResult{
			WACC:         cfg.WACC.Fallback,
			CostOfEquity: cfg.WACC.Fallback,
			WeightEquity: 1.0,
			BaseWACC:     cfg.WACC.Fallback,
			UsedFallback: true,
		}, warnings
	}

	if in.EquityValue <= 0 && in.TotalDebt <= 0 {
		return fallback("no equity or debt value")
	}

	// 1. Cost of equity via CAPM.
	capmBase := in.RiskFreeRate + in.Beta*in.MarketRiskPremium
	ke := capmBase

	// 2. Cost of debt: provided or estimated from the risk-free rate plus a
	// size-independent credit spread.
	kd := in.CostOfDebt
	if kd <= 0 {
		kd = in.RiskFreeRate + cfg.WACC.CreditSpread
	}

	// 3. After-tax cost of debt.
	kdAfterTax := kd * (1 - in.TaxRate)

	// 4. Capital weights from market values.
	total := in.EquityValue + in.TotalDebt
	we := in.EquityValue / total
	wd := in.TotalDebt / total

	// 5. Base WACC.
	base := we*ke + wd*kdAfterTax

	// 6. Additive premiums, each independently bounded.
	size := sizePremium(profile.MarketCap)
	leverage := leveragePremium(in.TotalDebt, in.EBITDA, cfg.WACC)
	business := businessPremium(profile.Type, cfg.WACC)

	wacc := base + size + leverage + business

	if math.IsNaN(wacc) || math.IsInf(wacc, 0) || wacc <= 0 {
		return fallback("non-finite or non-positive result")
	}

	return WACCResult{
		WACC:               wacc,
		CostOfEquity:       ke,
		CAPMBase:           capmBase,
		CostOfDebtPreTax:   kd,
		AfterTaxCostOfDebt: kdAfterTax,
		WeightEquity:       we,
		WeightDebt:         wd,
		SizePremium:        size,
		LeveragePremium:    leverage,
		BusinessPremium:    business,
		BaseWACC:           base,
		UsedFallback:       false,
	}, warnings
}
