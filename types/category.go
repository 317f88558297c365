package types

import (
	"sort"
	"strings"
)

// Category holds the display name and the enumerated subcategories of one
// entry in the fixed item taxonomy.
type Category struct {
	Name          string   `json:"name"`
	Subcategories []string `json:"subcategories"`
}

// Categories is the fixed taxonomy items and subscriptions are validated
// against. Keys are the canonical lowercase category identifiers.
var Categories = map[string]Category{
	"electronics": {
		Name:          "Electronics",
		Subcategories: []string{"phone", "laptop", "tablet", "headphones", "charger", "smartwatch", "camera", "gaming-device", "other-electronics"},
	},
	"books": {
		Name:          "Books",
		Subcategories: []string{"textbook", "notebook", "novel", "reference-book", "magazine", "journal", "other-books"},
	},
	"clothing": {
		Name:          "Clothing",
		Subcategories: []string{"shirt", "jacket", "shoes", "bag", "hat", "scarf", "gloves", "uniform", "other-clothing"},
	},
	"keys": {
		Name:          "Keys",
		Subcategories: []string{"house-keys", "car-keys", "room-keys", "office-keys", "bike-keys", "locker-keys", "other-keys"},
	},
	"id-card": {
		Name:          "ID Cards",
		Subcategories: []string{"student-id", "employee-id", "driving-license", "passport", "credit-card", "library-card", "other-id"},
	},
	"wallet": {
		Name:          "Wallet & Money",
		Subcategories: []string{"wallet", "purse", "cash", "coins", "gift-card", "other-wallet"},
	},
	"others": {
		Name:          "Others",
		Subcategories: []string{"jewelry", "glasses", "stationery", "sports-equipment", "documents", "food-items", "miscellaneous"},
	},
}

// CategoryKeys returns the canonical category identifiers, sorted.
func CategoryKeys() []string {
	keys := make([]string, 0, len(Categories))
	for key := range Categories {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// NormalizeCategory lowercases and trims a category identifier, mapping
// spaces to hyphens so display names like "ID Card" resolve too.
func NormalizeCategory(raw string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), " ", "-")
}

// ValidCategory reports whether key names a known category.
func ValidCategory(key string) bool {
	_, ok := Categories[key]
	return ok
}

// ValidSubcategory reports whether sub is an enumerated subcategory of the
// given category key.
func ValidSubcategory(key, sub string) bool {
	category, ok := Categories[key]
	if !ok {
		return false
	}
	for _, candidate := range category.Subcategories {
		if candidate == sub {
			return true
		}
	}
	return false
}

// SubscriptionKey builds the canonical subscription key for a category and
// optional subcategory: "category" or "category:subcategory". It returns
// false if the pair is not part of the taxonomy.
func SubscriptionKey(rawCategory, rawSubcategory string) (string, bool) {
	key := NormalizeCategory(rawCategory)
	if !ValidCategory(key) {
		return "", false
	}
	sub := strings.ToLower(strings.TrimSpace(rawSubcategory))
	if sub == "" {
		return key, true
	}
	if !ValidSubcategory(key, sub) {
		return "", false
	}
	return key + ":" + sub, true
}

// ValidSubscriptionKey reports whether a stored key (either "category" or
// "category:subcategory") is part of the taxonomy.
func ValidSubscriptionKey(key string) bool {
	category, sub, found := strings.Cut(strings.ToLower(key), ":")
	if !found {
		return ValidCategory(category)
	}
	return ValidSubcategory(category, sub)
}
