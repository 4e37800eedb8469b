package fundamentals

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// RawFundamentals is the flat mapping of named fields as delivered by a
// fundamentals provider. Values are heterogeneous: JSON numbers, numeric
// strings, "None"/"-" placeholders, or missing entirely. The engine never
// trusts this blindly; all access goes through Numeric.
type RawFundamentals map[string]interface{}

// ParseRaw decodes a provider payload into RawFundamentals.
// Provider payloads are frequently sloppy, so we try multiple strategies:
// 1. Standard JSON parse
// 2. JSON repair (trailing commas, single quotes, unclosed braces)
// 3. Hjson parse (most lenient, accepts comments and unquoted keys)
func ParseRaw(payload []byte) (RawFundamentals, error) {
	var raw RawFundamentals

	if err := json.Unmarshal(payload, &raw); err == nil {
		return raw, nil
	}

	repaired, err := jsonrepair.RepairJSON(string(payload))
	if err == nil {
		if err := json.Unmarshal([]byte(repaired), &raw); err == nil {
			return raw, nil
		}
	}

	if err := hjson.Unmarshal(payload, &raw); err == nil && raw != nil {
		return raw, nil
	}

	return nil, fmt.Errorf("failed to parse fundamentals payload: all strategies exhausted")
}

// Numeric coerces the named field to float64. Missing, null, or unparsable
// values map to the documented fallback, never silently to garbage.
func (r RawFundamentals) Numeric(key string, fallback float64) float64 {
	v, ok := r[key]
	if !ok || v == nil {
		return fallback
	}

	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return fallback
		}
		return f
	case string:
		s := strings.TrimSpace(t)
		if s == "" || s == "-" || strings.EqualFold(s, "none") || strings.EqualFold(s, "n/a") {
			return fallback
		}
		// Providers format percentages and thousands separators inconsistently.
		s = strings.ReplaceAll(s, ",", "")
		isPercent := strings.HasSuffix(s, "%")
		s = strings.TrimSuffix(s, "%")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fallback
		}
		if isPercent {
			return f / 100.0
		}
		return f
	default:
		return fallback
	}
}

// Has reports whether a field is present and carries a usable numeric value.
func (r RawFundamentals) Has(key string) bool {
	v, ok := r[key]
	if !ok || v == nil {
		return false
	}
	sentinel := -987654321.123
	return r.Numeric(key, sentinel) != sentinel
}

// String returns a trimmed text field, or the fallback when absent.
func (r RawFundamentals) String(key, fallback string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return fallback
	}
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s != "" {
			return s
		}
	}
	return fallback
}
