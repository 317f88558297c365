package types

import "testing"

func TestNormalizeCategory(t *testing.T) {
	cases := map[string]string{
		"Electronics": "electronics",
		" ID Card ":   "id-card",
		"BOOKS":       "books",
		"id-card":     "id-card",
	}
	for input, want := range cases {
		if got := NormalizeCategory(input); got != want {
			t.Errorf("NormalizeCategory(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestValidCategory(t *testing.T) {
	for _, key := range CategoryKeys() {
		if !ValidCategory(key) {
			t.Errorf("expected %q to be valid", key)
		}
	}
	if ValidCategory("vehicles") {
		t.Error("expected unknown category to be invalid")
	}
	if ValidCategory("") {
		t.Error("expected empty category to be invalid")
	}
}

func TestValidSubcategory(t *testing.T) {
	if !ValidSubcategory("electronics", "laptop") {
		t.Error("expected electronics/laptop to be valid")
	}
	if ValidSubcategory("electronics", "textbook") {
		t.Error("expected subcategory from another category to be invalid")
	}
	if ValidSubcategory("vehicles", "car") {
		t.Error("expected unknown category to be invalid")
	}
}

func TestSubscriptionKey(t *testing.T) {
	key, ok := SubscriptionKey("Electronics", "")
	if !ok || key != "electronics" {
		t.Errorf("bare category key = %q, ok=%v", key, ok)
	}

	key, ok = SubscriptionKey("electronics", "Laptop")
	if !ok || key != "electronics:laptop" {
		t.Errorf("pair key = %q, ok=%v", key, ok)
	}

	if _, ok := SubscriptionKey("electronics", "textbook"); ok {
		t.Error("expected mismatched subcategory to be rejected")
	}
	if _, ok := SubscriptionKey("vehicles", ""); ok {
		t.Error("expected unknown category to be rejected")
	}
}

func TestValidSubscriptionKey(t *testing.T) {
	valid := []string{"books", "electronics:phone", "wallet:cash"}
	for _, key := range valid {
		if !ValidSubscriptionKey(key) {
			t.Errorf("expected %q to be valid", key)
		}
	}

	invalid := []string{"", "vehicles", "electronics:car-keys", "electronics:laptop:extra"}
	for _, key := range invalid {
		if ValidSubscriptionKey(key) {
			t.Errorf("expected %q to be invalid", key)
		}
	}
}
