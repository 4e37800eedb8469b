// Package assumption holds the tunable financial constants behind the
// valuation engine. None of these are hard invariants; they are modeling
// choices with documented defaults, overridable from config/assumptions.yaml.
package assumption

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// MethodWeights is the blend applied over valuation methods for one company type.
// Weights are renormalized at runtime over the subset of methods that produced
// a value, so rows do not have to account for method availability.
type MethodWeights struct {
	DCF      float64 `yaml:"dcf" json:"dcf"`
	PE       float64 `yaml:"pe" json:"pe"`
	EVEBITDA float64 `yaml:"ev_ebitda" json:"ev_ebitda"`
	PB       float64 `yaml:"pb" json:"pb"`
}

// DCFConfig parameterizes the cash flow projection.
type DCFConfig struct {
	ProjectionYears int     `yaml:"projection_years"`
	FadeFactor      float64 `yaml:"fade_factor"`       // geometric growth decay per year
	MinSpread       float64 `yaml:"min_spread"`        // minimum WACC - terminal growth
	FCFNetIncome    float64 `yaml:"fcf_net_income"`    // FCF proxy: fraction of net income
	FCFRevenue      float64 `yaml:"fcf_revenue"`       // FCF proxy of last resort: fraction of revenue
	TerminalGrowth  float64 `yaml:"terminal_growth"`   // default when provider supplies none
}

// WACCConfig parameterizes the cost-of-capital calculation.
type WACCConfig struct {
	RiskFreeRate      float64 `yaml:"risk_free_rate"`
	MarketRiskPremium float64 `yaml:"market_risk_premium"`
	CreditSpread      float64 `yaml:"credit_spread"` // default Kd = Rf + spread
	Fallback          float64 `yaml:"fallback"`      // used when inputs are degenerate
	LeverageThreshold float64 `yaml:"leverage_threshold"` // debt/EBITDA above which the leverage premium kicks in
	LeveragePremium   float64 `yaml:"leverage_premium"`   // per turn of excess leverage
	LeveragePremiumCap float64 `yaml:"leverage_premium_cap"`
	StartupPremium    float64 `yaml:"startup_premium"`
	UtilityDiscount   float64 `yaml:"utility_discount"`
}

// ComparableConfig parameterizes the multiple-based estimators.
type ComparableConfig struct {
	DefaultPE       float64 `yaml:"default_pe"`
	DefaultEVEBITDA float64 `yaml:"default_ev_ebitda"`
	DefaultPB       float64 `yaml:"default_pb"`
	SectorROE       float64 `yaml:"sector_roe"`        // typical ROE the P/B premium is measured against
	GrowthThreshold float64 `yaml:"growth_threshold"`  // growth above this earns a multiple premium
	PEGrowthFactor  float64 `yaml:"pe_growth_factor"`
	EVGrowthFactor  float64 `yaml:"ev_growth_factor"`
	MultiplierCap   float64 `yaml:"multiplier_cap"` // cap on any growth/ROE adjustment
}

// RiskConfig parameterizes the risk assessor.
type RiskConfig struct {
	FinancialWeight float64 `yaml:"financial_weight"`
	BusinessWeight  float64 `yaml:"business_weight"`
	MarketWeight    float64 `yaml:"market_weight"`
	LiquidityWeight float64 `yaml:"liquidity_weight"`

	// Composite score cutoffs, ascending.
	LowCutoff      float64 `yaml:"low_cutoff"`
	MediumCutoff   float64 `yaml:"medium_cutoff"`
	HighCutoff     float64 `yaml:"high_cutoff"`
	VeryHighCutoff float64 `yaml:"very_high_cutoff"`
}

// ScenarioConfig parameterizes sensitivity and Monte Carlo analysis.
type ScenarioConfig struct {
	WACCDeltas   []float64 `yaml:"wacc_deltas"`
	GrowthDeltas []float64 `yaml:"growth_deltas"`
	Simulations  int       `yaml:"simulations"`
	GrowthSigma  float64   `yaml:"growth_sigma"`
	WACCSigma    float64   `yaml:"wacc_sigma"`
	MarginSigma  float64   `yaml:"margin_sigma"`
}

// Config is the full assumption set for one engine instance.
type Config struct {
	DefaultTaxRate float64 `yaml:"default_tax_rate"`
	DefaultBeta    float64 `yaml:"default_beta"`

	DCF        DCFConfig        `yaml:"dcf"`
	WACC       WACCConfig       `yaml:"wacc"`
	Comparable ComparableConfig `yaml:"comparable"`
	Risk       RiskConfig       `yaml:"risk"`
	Scenario   ScenarioConfig   `yaml:"scenario"`

	// MethodWeights keyed by lowercase company type. A "default" row is required.
	MethodWeights map[string]MethodWeights `yaml:"method_weights"`
}

// Default returns the shipped assumption set. Constants follow standard
// practitioner ranges; every one of them can be overridden via YAML.
func Default() Config {
	return Config{
		DefaultTaxRate: 0.25,
		DefaultBeta:    1.0,
		DCF: DCFConfig{
			ProjectionYears: 5,
			FadeFactor:      0.80,
			MinSpread:       0.01,
			FCFNetIncome:    0.70,
			FCFRevenue:      0.03,
			TerminalGrowth:  0.025,
		},
		WACC: WACCConfig{
			RiskFreeRate:       0.04,
			MarketRiskPremium:  0.06,
			CreditSpread:       0.02,
			Fallback:           0.10,
			LeverageThreshold:  3.0,
			LeveragePremium:    0.005,
			LeveragePremiumCap: 0.03,
			StartupPremium:     0.02,
			UtilityDiscount:    0.01,
		},
		Comparable: ComparableConfig{
			DefaultPE:       15.0,
			DefaultEVEBITDA: 10.0,
			DefaultPB:       2.0,
			SectorROE:       0.15,
			GrowthThreshold: 0.05,
			PEGrowthFactor:  2.0,
			EVGrowthFactor:  1.5,
			MultiplierCap:   2.0,
		},
		Risk: RiskConfig{
			FinancialWeight: 0.4,
			BusinessWeight:  0.3,
			MarketWeight:    0.2,
			LiquidityWeight: 0.1,
			LowCutoff:       20,
			MediumCutoff:    35,
			HighCutoff:      55,
			VeryHighCutoff:  75,
		},
		Scenario: ScenarioConfig{
			WACCDeltas:   []float64{-0.02, -0.01, 0, 0.01, 0.02},
			GrowthDeltas: []float64{-0.02, -0.01, 0, 0.01, 0.02},
			Simulations:  2000,
			GrowthSigma:  0.02,
			WACCSigma:    0.01,
			MarginSigma:  0.015,
		},
		MethodWeights: map[string]MethodWeights{
			"mature":    {DCF: 0.5, PE: 0.2, EVEBITDA: 0.2, PB: 0.1},
			"growth":    {DCF: 0.6, PE: 0.2, EVEBITDA: 0.2, PB: 0.0},
			"startup":   {DCF: 0.4, PE: 0.3, EVEBITDA: 0.3, PB: 0.0},
			"financial": {DCF: 0.0, PE: 0.4, EVEBITDA: 0.0, PB: 0.6},
			"reit":      {DCF: 0.2, PE: 0.2, EVEBITDA: 0.2, PB: 0.4},
			"utility":   {DCF: 0.4, PE: 0.2, EVEBITDA: 0.2, PB: 0.2},
			"cyclical":  {DCF: 0.3, PE: 0.3, EVEBITDA: 0.3, PB: 0.1},
			"default":   {DCF: 0.5, PE: 0.2, EVEBITDA: 0.2, PB: 0.1},
		},
	}
}

// Load reads a YAML assumptions file over the defaults. Unset keys keep their
// default values because yaml.Unmarshal only overwrites what the file mentions.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read assumptions file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse assumptions file: %w", err)
	}
	return cfg, nil
}

// WeightsFor returns the method weights for a company type, falling back to
// the "default" row for unknown types.
func (c Config) WeightsFor(companyType string) MethodWeights {
	if w, ok := c.MethodWeights[companyType]; ok {
		return w
	}
	return c.MethodWeights["default"]
}
