package parser

import (
	"regexp"
	"strings"
)

var nonASCIIRun = regexp.MustCompile(`[^\x00-\x7F]+`)

// CleanText replaces every run of non-ASCII characters with a single space.
// This is lossy: Greek words in a product name disappear, Latin text stays.
func CleanText(s string) string {
	return strings.TrimSpace(nonASCIIRun.ReplaceAllString(s, " "))
}

// DedupKey folds a product name into the key used to group near-duplicates.
func DedupKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
