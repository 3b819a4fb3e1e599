package ranking

import (
	"sort"

	"github.com/maltedev/whey-ranker/internal/models"
)

const (
	CategoryIsolate    = "isolate"
	CategoryMassGainer = "mass-gainer"
	CategoryHydrolyzed = "hydrolyzed"
	CategoryWhey       = "whey"
)

var categories = map[string]models.CategoryQuery{
	CategoryIsolate: {
		Key:         CategoryIsolate,
		DisplayName: "Isolate",
		Keywords:    []string{"iso", "isolated", "απομονωμένος ορός γάλακτος"},
	},
	CategoryMassGainer: {
		Key:         CategoryMassGainer,
		DisplayName: "Mass Gainer",
		Keywords:    []string{"mass", "gainer", "μάζα"},
	},
	CategoryHydrolyzed: {
		Key:         CategoryHydrolyzed,
		DisplayName: "Hydrolyzed",
		Keywords:    []string{"hydro", "hydrolized", "υδρολυμένος"},
	},
	CategoryWhey: {
		Key:         CategoryWhey,
		DisplayName: "Whey",
		Keywords:    []string{"whey", "ορρός γάλακτος"},
	},
}

// Category returns the fixed query registered under key.
func Category(key string) (models.CategoryQuery, bool) {
	q, ok := categories[key]
	return q, ok
}

// Categories lists the fixed queries ordered by key.
func Categories() []models.CategoryQuery {
	out := make([]models.CategoryQuery, 0, len(categories))
	for _, q := range categories {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
