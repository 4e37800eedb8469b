package valuation

import (
	"testing"

	"valuation_engine/pkg/core/assumption"
	"valuation_engine/pkg/core/classify"
	"valuation_engine/pkg/core/fundamentals"
)

func TestAssessRiskHealthyMature(t *testing.T) {
	cfg := assumption.Default()
	in := fundamentals.ValuationInputs{
		Revenue:          8000,
		EBITDA:           2000,
		EBITDAMargin:     0.25,
		FreeCashFlow:     500,
		CapEx:            200,
		TotalDebt:        1000,
		Cash:             500,
		WorkingCapital:   100,
		Beta:             1.0,
		InterestCoverage: 10,
	}
	profile := classify.CompanyProfile{Type: classify.Mature, MarketCap: 50e9, Sector: "Consumer Staples"}

	res := AssessRisk(in, profile, cfg)
	if res.Level != RiskVeryLow {
		t.Errorf("level = %s, want very_low (score %v)", res.Level, res.Score)
	}
	if res.Breakdown["financial"] != 0 {
		t.Errorf("financial score = %v, want 0", res.Breakdown["financial"])
	}
	if res.Breakdown["business"] != 20 {
		t.Errorf("business score = %v, want the mature base 20", res.Breakdown["business"])
	}
	if res.Breakdown["market"] != 30 {
		t.Errorf("market score = %v, want the base 30", res.Breakdown["market"])
	}
}

func TestAssessRiskLeveredStartup(t *testing.T) {
	cfg := assumption.Default()
	in := fundamentals.ValuationInputs{
		Revenue:          1000,
		EBITDA:           100,
		EBITDAMargin:     0.02,
		FreeCashFlow:     -50,
		TotalDebt:        300,
		Cash:             10,
		WorkingCapital:   -20,
		Beta:             1.8,
		InterestCoverage: 1.5,
	}
	profile := classify.CompanyProfile{Type: classify.Startup, MarketCap: 500e6, Sector: "Technology"}

	res := AssessRisk(in, profile, cfg)
	if res.Level != RiskHigh && res.Level != RiskVeryHigh {
		t.Errorf("level = %s, want high or very_high (score %v)", res.Level, res.Score)
	}
	if res.Score <= 55 {
		t.Errorf("score = %v, want above the high cutoff", res.Score)
	}
	if len(res.Factors) == 0 {
		t.Error("expected explanatory factors for a risky company")
	}
	if len(res.Factors) > 5 {
		t.Errorf("factors truncated to 5, got %d", len(res.Factors))
	}
}

func TestAssessRiskScoreBounds(t *testing.T) {
	cfg := assumption.Default()
	// Worst plausible inputs must still stay within [0, 100].
	in := fundamentals.ValuationInputs{
		EBITDA:           1,
		EBITDAMargin:     -0.5,
		FreeCashFlow:     -1000,
		TotalDebt:        1e9,
		WorkingCapital:   -500,
		Beta:             2.0,
		InterestCoverage: 0.5,
	}
	profile := classify.CompanyProfile{Type: classify.Startup, MarketCap: 1e6, Sector: "biotech"}
	res := AssessRisk(in, profile, cfg)
	if res.Score < 0 || res.Score > 100 {
		t.Errorf("composite score %v out of [0, 100]", res.Score)
	}
	for dim, s := range res.Breakdown {
		if s < 0 || s > 100 {
			t.Errorf("%s score %v out of [0, 100]", dim, s)
		}
	}
	if res.Level != RiskVeryHigh {
		t.Errorf("level = %s, want very_high", res.Level)
	}
}

func TestLeverageAlarmByCompanyType(t *testing.T) {
	tests := []struct {
		companyType classify.CompanyType
		want        float64
	}{
		{classify.Utility, 4.5},
		{classify.REIT, 4.5},
		{classify.Financial, 6.0},
		{classify.Startup, 1.5},
		{classify.Mature, 2.5},
		{classify.Growth, 2.5},
	}
	for _, tt := range tests {
		if got := leverageAlarm(tt.companyType); got != tt.want {
			t.Errorf("leverageAlarm(%s) = %v, want %v", tt.companyType, got, tt.want)
		}
	}
}

// The same debt load must score differently depending on what is normal for
// the company type.
func TestAssessRiskLeverageContext(t *testing.T) {
	cfg := assumption.Default()
	in := fundamentals.ValuationInputs{
		Revenue:          1000,
		EBITDA:           100,
		EBITDAMargin:     0.10,
		FreeCashFlow:     50,
		TotalDebt:        400, // 4x EBITDA
		Cash:             200,
		WorkingCapital:   50,
		Beta:             1.0,
		InterestCoverage: 6,
	}

	utility := AssessRisk(in, classify.CompanyProfile{Type: classify.Utility, MarketCap: 20e9}, cfg)
	startup := AssessRisk(in, classify.CompanyProfile{Type: classify.Startup, MarketCap: 20e9}, cfg)

	if startup.Breakdown["financial"] <= utility.Breakdown["financial"] {
		t.Errorf("4x leverage should score worse for a startup (%v) than a utility (%v)",
			startup.Breakdown["financial"], utility.Breakdown["financial"])
	}
}
