package market

import "strings"

// Category is one of the fixed canonical categories. Raw exchange
// categories outside the mapping land in CategoryOther rather than
// failing ingestion.
type Category string

const (
	CategoryPolitics      Category = "Politics"
	CategorySports        Category = "Sports"
	CategoryCrypto        Category = "Crypto"
	CategoryEconomics     Category = "Economics"
	CategoryEntertainment Category = "Entertainment"
	CategoryScience       Category = "Science"
	CategoryClimate       Category = "Climate"
	CategoryCompanies     Category = "Companies"
	CategoryWorld         Category = "World"
	CategoryOther         Category = "Other"
)

// Categories lists the canonical set in display order.
func Categories() []Category {
	return []Category{
		CategoryPolitics,
		CategorySports,
		CategoryCrypto,
		CategoryEconomics,
		CategoryEntertainment,
		CategoryScience,
		CategoryClimate,
		CategoryCompanies,
		CategoryWorld,
		CategoryOther,
	}
}

// categoryAliases maps lower-cased exchange category labels onto the
// canonical set. Kalshi and Polymarket label overlapping verticals
// differently; both sides of every observed spelling are listed.
var categoryAliases = map[string]Category{
	"politics":               CategoryPolitics,
	"elections":              CategoryPolitics,
	"us politics":            CategoryPolitics,
	"sports":                 CategorySports,
	"games":                  CategorySports,
	"crypto":                 CategoryCrypto,
	"cryptocurrency":         CategoryCrypto,
	"digital assets":         CategoryCrypto,
	"economics":              CategoryEconomics,
	"economy":                CategoryEconomics,
	"financials":             CategoryEconomics,
	"finance":                CategoryEconomics,
	"inflation":              CategoryEconomics,
	"entertainment":          CategoryEntertainment,
	"pop culture":            CategoryEntertainment,
	"culture":                CategoryEntertainment,
	"music":                  CategoryEntertainment,
	"movies":                 CategoryEntertainment,
	"science":                CategoryScience,
	"science and technology": CategoryScience,
	"tech":                   CategoryScience,
	"technology":             CategoryScience,
	"ai":                     CategoryScience,
	"climate":                CategoryClimate,
	"climate and weather":    CategoryClimate,
	"weather":                CategoryClimate,
	"companies":              CategoryCompanies,
	"business":               CategoryCompanies,
	"world":                  CategoryWorld,
	"geopolitics":            CategoryWorld,
	"world affairs":          CategoryWorld,
}

// CanonicalCategory maps a raw exchange category onto the canonical set.
// The lookup is case-insensitive. The second return reports whether the
// raw label was recognized; unrecognized labels map to CategoryOther.
func CanonicalCategory(raw string) (Category, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return CategoryOther, false
	}
	if c, ok := categoryAliases[key]; ok {
		return c, true
	}
	return CategoryOther, false
}
