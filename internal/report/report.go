// Package report renders rankings as the Greek text lines shown to users.
package report

import (
	"fmt"
	"strings"

	"github.com/maltedev/whey-ranker/internal/models"
)

const (
	NoResults     = "Δεν βρέθηκαν αποτελέσματα."
	errorPrefix   = "Σφάλμα: "
	storePrefix   = "Σφάλμα βάσης δεδομένων: "
	separatorSize = 100
)

var Separator = strings.Repeat("-", separatorSize)

// OverallBlocks renders one multi-line block per entry.
func OverallBlocks(entries []models.RankedEntry) []string {
	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		blocks = append(blocks, strings.Join(append(fields(e), Separator), "\n"))
	}
	return blocks
}

// CategoryLines renders a heading followed by one line per field.
func CategoryLines(displayName string, topN int, entries []models.RankedEntry) []string {
	lines := []string{
		fmt.Sprintf("\nΤα Top %d προϊόντα για την κατηγορία '%s':", topN, displayName),
		Separator,
	}
	for _, e := range entries {
		lines = append(lines, fields(e)...)
		lines = append(lines, Separator)
	}
	return lines
}

func fields(e models.RankedEntry) []string {
	return []string{
		fmt.Sprintf("Θέση #%d", e.Rank),
		fmt.Sprintf("Προϊόν: %s", e.Name),
		fmt.Sprintf("Τιμή: %s€", e.Price.StringFixed(2)),
		fmt.Sprintf("Βάρος: %dg", e.WeightGrams),
		fmt.Sprintf("Τιμή ανά γραμμάριο: %s€", e.PricePerGram.StringFixed(4)),
		fmt.Sprintf("URL: %s", e.SourceURL),
	}
}

// Failure is the single line reported when a pipeline step fails.
func Failure(err error) string {
	return errorPrefix + err.Error()
}

// StoreFailure is the sole result of a ranking query the store could not serve.
func StoreFailure(err error) []string {
	return []string{storePrefix + err.Error()}
}
