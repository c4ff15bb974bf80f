// internal/models/category.go
package models

import "strings"

// categoryRule maps a name substring onto a canonical category.
// First match wins, so more specific patterns come first.
type categoryRule struct {
	Pattern  string
	Category string
}

var categoryRules = []categoryRule{
	{"coworking", "coworking"},
	{"work club", "coworking"},
	{"library", "library"},
	{"bookstore", "bookstore"},
	{"book shop", "bookstore"},
	{"coffee", "cafe"},
	{"espresso", "cafe"},
	{"roaster", "cafe"},
	{"cafe", "cafe"},
	{"café", "cafe"},
	{"tea house", "tea_house"},
	{"teahouse", "tea_house"},
	{"bakery", "bakery"},
	{"brewery", "bar"},
	{"taproom", "bar"},
	{"bar", "bar"},
	{"pub", "bar"},
	{"hotel lobby", "hotel_lobby"},
	{"lobby", "hotel_lobby"},
	{"park", "park"},
	{"restaurant", "restaurant"},
	{"diner", "restaurant"},
	{"deli", "restaurant"},
}

// InferCategory resolves a venue name to a category via the ordered rule
// table. Returns "other" when no pattern matches.
func InferCategory(name string) string {
	lower := strings.ToLower(name)
	for _, rule := range categoryRules {
		if strings.Contains(lower, rule.Pattern) {
			return rule.Category
		}
	}
	return "other"
}
