package http

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// number renders a decimal as an exact JSON number.
func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// percent renders a percentage with two decimals.
func percent(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}
