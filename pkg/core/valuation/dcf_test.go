package valuation

import (
	"errors"
	"math"
	"testing"

	"valuation_engine/pkg/core/assumption"
	"valuation_engine/pkg/core/fundamentals"
)

func baseDCFInputs() fundamentals.ValuationInputs {
	return fundamentals.ValuationInputs{
		Revenue:            1000,
		EBITDA:             250,
		NetIncome:          120,
		FreeCashFlow:       150,
		CapEx:              60,
		TotalDebt:          300,
		Cash:               100,
		SharesOutstanding:  100,
		RevenueGrowthRate:  0.10,
		TerminalGrowthRate: 0.025,
		TaxRate:            0.21,
	}
}

func TestCalculateDCF(t *testing.T) {
	cfg := assumption.Default()
	input := DCFInputFromConfig(baseDCFInputs(), 0.09, cfg)

	res, warnings, err := CalculateDCF(input, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}

	if len(res.Projections) != cfg.DCF.ProjectionYears {
		t.Fatalf("projections = %d years, want %d", len(res.Projections), cfg.DCF.ProjectionYears)
	}
	if res.BaseFCF != 150 {
		t.Errorf("BaseFCF = %v, want the reported 150", res.BaseFCF)
	}
	if res.ValuePerShare <= 0 || math.IsNaN(res.ValuePerShare) || math.IsInf(res.ValuePerShare, 0) {
		t.Fatalf("ValuePerShare = %v, want positive finite", res.ValuePerShare)
	}

	// Growth fades geometrically and discount factors shrink.
	for i := 1; i < len(res.Projections); i++ {
		prev, cur := res.Projections[i-1], res.Projections[i]
		if cur.GrowthRate >= prev.GrowthRate {
			t.Errorf("year %d growth %v did not fade below year %d growth %v",
				cur.Year, cur.GrowthRate, prev.Year, prev.GrowthRate)
		}
		if cur.DiscountFactor >= prev.DiscountFactor {
			t.Errorf("year %d discount factor %v not below year %d", cur.Year, cur.DiscountFactor, prev.Year)
		}
	}

	// Present value of each year is below its nominal cash flow.
	var undiscounted float64
	for _, p := range res.Projections {
		if p.PresentValue >= p.FCF {
			t.Errorf("year %d PV %v not below nominal FCF %v", p.Year, p.PresentValue, p.FCF)
		}
		undiscounted += p.FCF
	}
	if res.PVExplicit >= undiscounted {
		t.Errorf("PVExplicit %v should be below undiscounted sum %v", res.PVExplicit, undiscounted)
	}

	// Enterprise to equity bridge.
	if !almostEqual(res.EnterpriseValue, res.PVExplicit+res.PVTerminal, 1e-6) {
		t.Errorf("EnterpriseValue %v != PVExplicit %v + PVTerminal %v", res.EnterpriseValue, res.PVExplicit, res.PVTerminal)
	}
	if !almostEqual(res.EquityValue, res.EnterpriseValue-200, 1e-6) {
		t.Errorf("EquityValue %v, want EV minus net debt 200", res.EquityValue)
	}
	if !almostEqual(res.ValuePerShare, res.EquityValue/100, 1e-9) {
		t.Errorf("ValuePerShare %v inconsistent with EquityValue %v over 100 shares", res.ValuePerShare, res.EquityValue)
	}
}

func TestCalculateDCFMonotonicity(t *testing.T) {
	cfg := assumption.Default()

	// Higher growth, higher value.
	low := DCFInputFromConfig(baseDCFInputs().WithGrowth(0.05), 0.09, cfg)
	high := DCFInputFromConfig(baseDCFInputs().WithGrowth(0.15), 0.09, cfg)
	lowRes, _, _ := CalculateDCF(low, cfg)
	highRes, _, _ := CalculateDCF(high, cfg)
	if highRes.ValuePerShare <= lowRes.ValuePerShare {
		t.Errorf("growth 15%% value %v not above growth 5%% value %v", highRes.ValuePerShare, lowRes.ValuePerShare)
	}

	// Higher WACC, lower value.
	cheap := DCFInputFromConfig(baseDCFInputs(), 0.07, cfg)
	dear := DCFInputFromConfig(baseDCFInputs(), 0.12, cfg)
	cheapRes, _, _ := CalculateDCF(cheap, cfg)
	dearRes, _, _ := CalculateDCF(dear, cfg)
	if dearRes.ValuePerShare >= cheapRes.ValuePerShare {
		t.Errorf("WACC 12%% value %v not below WACC 7%% value %v", dearRes.ValuePerShare, cheapRes.ValuePerShare)
	}
}

func TestCalculateDCFTerminalGrowthClamp(t *testing.T) {
	cfg := assumption.Default()
	in := baseDCFInputs()
	in.TerminalGrowthRate = 0.03
	input := DCFInputFromConfig(in, 0.03, cfg)

	res, warnings, err := CalculateDCF(input, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 0.03 - cfg.DCF.MinSpread
	if !almostEqual(res.TerminalGrowth, want, 1e-9) {
		t.Errorf("TerminalGrowth = %v, want clamped %v", res.TerminalGrowth, want)
	}
	found := false
	for _, w := range warnings {
		if w.Kind == fundamentals.WarnCalculationFallback {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a calculation_fallback warning for the clamp, got %v", warnings)
	}
	if res.TerminalValue <= 0 || math.IsInf(res.TerminalValue, 0) {
		t.Errorf("TerminalValue = %v, want positive finite after clamping", res.TerminalValue)
	}
}

func TestCalculateDCFStructuralError(t *testing.T) {
	cfg := assumption.Default()
	in := baseDCFInputs()
	in.SharesOutstanding = 0
	_, _, err := CalculateDCF(DCFInputFromConfig(in, 0.09, cfg), cfg)
	if err == nil {
		t.Fatal("expected error for zero shares")
	}
	var structural *fundamentals.StructuralError
	if !errors.As(err, &structural) {
		t.Errorf("expected *StructuralError, got %T", err)
	}
}

func TestCalculateDCFEquityFloor(t *testing.T) {
	cfg := assumption.Default()
	in := baseDCFInputs()
	in.FreeCashFlow = 1
	in.TotalDebt = 1e9
	in.Cash = 0
	res, _, err := CalculateDCF(DCFInputFromConfig(in, 0.09, cfg), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.EquityValue != 0 || res.ValuePerShare != 0 {
		t.Errorf("crushing net debt should floor equity at 0, got equity %v per-share %v", res.EquityValue, res.ValuePerShare)
	}
}

func TestBaseFCFProxyLadder(t *testing.T) {
	cfg := assumption.Default()

	tests := []struct {
		name     string
		in       fundamentals.ValuationInputs
		want     float64
		warnings int
	}{
		{
			name: "reported FCF used directly",
			in:   fundamentals.ValuationInputs{FreeCashFlow: 150, EBITDA: 250, NetIncome: 120},
			want: 150,
		},
		{
			name: "after-tax EBITDA less capex",
			in:   fundamentals.ValuationInputs{EBITDA: 250, CapEx: 60, NetIncome: 120, TaxRate: 0.21, Revenue: 1000},
			// 250*0.79 - 60 = 137.5, above the 0.7*120 = 84 floor
			want:     137.5,
			warnings: 1,
		},
		{
			name: "net income floor applies",
			in:   fundamentals.ValuationInputs{EBITDA: 100, CapEx: 90, NetIncome: 120, TaxRate: 0.21, Revenue: 1000},
			// 100*0.79 - 90 = -11, floored at 0.7*120 = 84
			want:     84,
			warnings: 1,
		},
		{
			name:     "net income fraction",
			in:       fundamentals.ValuationInputs{NetIncome: 120, TaxRate: 0.21, Revenue: 1000},
			want:     84,
			warnings: 1,
		},
		{
			name:     "revenue fraction last resort",
			in:       fundamentals.ValuationInputs{Revenue: 1000, NetIncome: -50, TaxRate: 0.21},
			want:     30,
			warnings: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, warnings := baseFCF(tt.in, cfg)
			if !almostEqual(got, tt.want, 1e-9) {
				t.Errorf("baseFCF = %v, want %v", got, tt.want)
			}
			if len(warnings) != tt.warnings {
				t.Errorf("warnings = %d, want %d: %v", len(warnings), tt.warnings, warnings)
			}
		})
	}
}
