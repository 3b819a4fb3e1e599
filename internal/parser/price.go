package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrParse marks price or weight text that cannot be normalized.
var ErrParse = errors.New("unparseable value")

// ParseError carries the offending text.
type ParseError struct {
	Field string
	Text  string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s %q: %v", e.Field, e.Text, e.Err)
	}
	return fmt.Sprintf("parse %s %q", e.Field, e.Text)
}

func (e *ParseError) Unwrap() error { return ErrParse }

const currencyGlyph = "€"

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// NormalizePrice converts scraped price text such as "24,90 €" into a
// decimal. The comma is always read as the decimal separator, so grouped
// thousands ("1.234,56") do not parse.
func NormalizePrice(text string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(text, currencyGlyph, "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return decimal.Zero, &ParseError{Field: "price", Text: text}
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, &ParseError{Field: "price", Text: text, Err: err}
	}
	if d.IsNegative() {
		return decimal.Zero, &ParseError{Field: "price", Text: text, Err: errors.New("negative")}
	}
	return d, nil
}

// FormatPrice renders a normalized price the way it is stored.
func FormatPrice(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// CorrectPrice treats prices below one unit as cents read as units. It
// misfires on genuine sub-unit prices and is not idempotent: a corrected
// value still below one is multiplied again on the next pass.
func CorrectPrice(d decimal.Decimal) (decimal.Decimal, bool) {
	if d.LessThan(one) {
		return d.Mul(hundred), true
	}
	return d, false
}
