package fundamentals

import (
	"testing"
)

func TestParseRaw(t *testing.T) {
	tests := []struct {
		name        string
		payload     string
		expectError bool
		checkKey    string
		checkValue  float64
	}{
		{
			name:       "clean JSON",
			payload:    `{"RevenueTTM": 1000, "EBITDA": 250}`,
			checkKey:   "RevenueTTM",
			checkValue: 1000,
		},
		{
			name:       "trailing comma repaired",
			payload:    `{"RevenueTTM": 1000, "EBITDA": 250,}`,
			checkKey:   "EBITDA",
			checkValue: 250,
		},
		{
			name:       "single quotes repaired",
			payload:    `{'RevenueTTM': 500}`,
			checkKey:   "RevenueTTM",
			checkValue: 500,
		},
		{
			name: "hjson with comments",
			payload: `{
				# quarterly snapshot
				RevenueTTM: 750
			}`,
			checkKey:   "RevenueTTM",
			checkValue: 750,
		},
		{
			name:        "hopeless garbage",
			payload:     "\x00\x01\x02",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := ParseRaw([]byte(tt.payload))
			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error, got %v", raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := raw.Numeric(tt.checkKey, -1); got != tt.checkValue {
				t.Errorf("Numeric(%q) = %v, want %v", tt.checkKey, got, tt.checkValue)
			}
		})
	}
}

func TestNumericCoercion(t *testing.T) {
	raw := RawFundamentals{
		"float":     1234.5,
		"int":       42,
		"string":    "987.25",
		"thousands": "1,234,567",
		"percent":   "12.5%",
		"dash":      "-",
		"none":      "None",
		"na":        "n/a",
		"empty":     "",
		"null":      nil,
		"garbage":   "not a number",
		"bool":      true,
	}

	tests := []struct {
		key      string
		fallback float64
		want     float64
	}{
		{"float", 0, 1234.5},
		{"int", 0, 42},
		{"string", 0, 987.25},
		{"thousands", 0, 1234567},
		{"percent", 0, 0.125},
		{"dash", 7, 7},
		{"none", 7, 7},
		{"na", 7, 7},
		{"empty", 7, 7},
		{"null", 7, 7},
		{"garbage", 7, 7},
		{"bool", 7, 7},
		{"missing", 7, 7},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := raw.Numeric(tt.key, tt.fallback); got != tt.want {
				t.Errorf("Numeric(%q, %v) = %v, want %v", tt.key, tt.fallback, got, tt.want)
			}
		})
	}
}

func TestHas(t *testing.T) {
	raw := RawFundamentals{
		"present": 10.0,
		"text":    "None",
		"null":    nil,
	}
	if !raw.Has("present") {
		t.Error("Has should report true for a numeric field")
	}
	if raw.Has("text") {
		t.Error("Has should report false for an unusable placeholder")
	}
	if raw.Has("null") {
		t.Error("Has should report false for null")
	}
	if raw.Has("missing") {
		t.Error("Has should report false for a missing key")
	}
}

func TestString(t *testing.T) {
	raw := RawFundamentals{
		"sector": "  Technology  ",
		"blank":  "   ",
		"number": 42.0,
	}
	if got := raw.String("sector", "x"); got != "Technology" {
		t.Errorf("String(sector) = %q, want Technology", got)
	}
	if got := raw.String("blank", "fallback"); got != "fallback" {
		t.Errorf("String(blank) = %q, want fallback", got)
	}
	if got := raw.String("number", "fallback"); got != "fallback" {
		t.Errorf("String(number) = %q, want fallback", got)
	}
	if got := raw.String("missing", "fallback"); got != "fallback" {
		t.Errorf("String(missing) = %q, want fallback", got)
	}
}
