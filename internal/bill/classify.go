package bill

import "strings"

// Category labels assigned by Classify
const (
	CategoryGroceries  = "Groceries"
	CategoryMedical    = "Medical"
	CategoryRestaurant = "Restaurant"
	CategoryTravel     = "Travel"
	CategoryUtilities  = "Utilities"
	CategoryOther      = "Other"
)

// categoryKeywords is checked in order; the first category with a matching
// keyword wins, so the ordering is part of the classification contract.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{CategoryGroceries, []string{"grocery", "mart", "supermarket", "basket"}},
	{CategoryMedical, []string{"hospital", "medical", "pharmacy", "clinic"}},
	{CategoryRestaurant, []string{"hotel", "restaurant", "cafe", "food"}},
	{CategoryTravel, []string{"uber", "ola", "flight", "rail", "travel"}},
	{CategoryUtilities, []string{"electricity", "water", "gas", "bill"}},
}

// Classify maps a merchant name to a spend category by case-insensitive
// keyword matching. Unmatched or empty names classify as Other.
func Classify(merchant string) string {
	name := strings.ToLower(merchant)
	for _, entry := range categoryKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(name, keyword) {
				return entry.category
			}
		}
	}
	return CategoryOther
}
