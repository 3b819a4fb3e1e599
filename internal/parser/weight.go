package parser

import (
	"regexp"

	"github.com/shopspring/decimal"
)

type weightPattern struct {
	re         *regexp.Regexp
	multiplier int64
}

// Order matters: the first pattern that matches anywhere in the name wins.
var weightPatterns = []weightPattern{
	{re: regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:grams|gr|g|γραμμάρια|γρ)`), multiplier: 1},
	{re: regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:kgs|kg|κιλά)`), multiplier: 1000},
	{re: regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*k(?:\s|$)`), multiplier: 1000},
}

// ExtractWeightGrams returns the package weight encoded in a product name.
// Names without a recognizable weight report false and take no part in
// price-per-gram ranking.
func ExtractWeightGrams(name string) (int, bool) {
	for _, p := range weightPatterns {
		m := p.re.FindStringSubmatch(name)
		if len(m) < 2 {
			continue
		}
		value, err := decimal.NewFromString(m[1])
		if err != nil {
			continue
		}
		grams := int(value.Mul(decimal.NewFromInt(p.multiplier)).IntPart())
		if grams <= 0 {
			return 0, false
		}
		return grams, true
	}
	return 0, false
}
