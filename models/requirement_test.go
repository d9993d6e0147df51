package models

import "testing"

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		raw  string
		want RequirementCategory
	}{
		{"employment_terms", CategoryEmploymentTerms},
		{"Employment Terms", CategoryEmploymentTerms},
		{"  LEAVE_POLICIES  ", CategoryLeavePolicies},
		{"compensation benefits", CategoryCompensationBenefits},
		{"other", CategoryOther},
		{"", CategoryOther},
		{"something novel", CategoryOther},
		// The synthetic analysis category is not part of the extraction
		// taxonomy and must never come out of coercion.
		{"analysis", CategoryOther},
	}
	for _, tt := range tests {
		if got := NormalizeCategory(tt.raw); got != tt.want {
			t.Errorf("NormalizeCategory(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeCategoryIdempotent(t *testing.T) {
	for _, c := range RequirementCategories {
		if got := NormalizeCategory(string(c)); got != c {
			t.Errorf("NormalizeCategory(%q) = %s, want unchanged", c, got)
		}
	}
}
