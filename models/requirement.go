package models

import "strings"

// RequirementCategory tags a requirement with one member of a fixed taxonomy.
// The set is closed: extraction output outside it is coerced to CategoryOther.
type RequirementCategory string

const (
	CategoryEmploymentTerms      RequirementCategory = "employment_terms"
	CategoryCompensationBenefits RequirementCategory = "compensation_benefits"
	CategoryWorkingConditions    RequirementCategory = "working_conditions"
	CategoryTermination          RequirementCategory = "termination_conditions"
	CategoryConfidentiality      RequirementCategory = "confidentiality_non_compete"
	CategoryIntellectualProperty RequirementCategory = "intellectual_property"
	CategoryDisputeResolution    RequirementCategory = "dispute_resolution"
	CategoryCompliance           RequirementCategory = "compliance_regulatory"
	CategoryHealthSafety         RequirementCategory = "health_safety"
	CategoryLeavePolicies        RequirementCategory = "leave_policies"
	CategoryOther                RequirementCategory = "other"

	// CategoryAnalysis marks the single synthetic item of a failed run. It is
	// not part of the extraction taxonomy and never produced by coercion.
	CategoryAnalysis RequirementCategory = "analysis"
)

// RequirementCategories lists the closed taxonomy in display order.
var RequirementCategories = []RequirementCategory{
	CategoryEmploymentTerms,
	CategoryCompensationBenefits,
	CategoryWorkingConditions,
	CategoryTermination,
	CategoryConfidentiality,
	CategoryIntellectualProperty,
	CategoryDisputeResolution,
	CategoryCompliance,
	CategoryHealthSafety,
	CategoryLeavePolicies,
	CategoryOther,
}

var requirementCategories = func() map[RequirementCategory]bool {
	m := make(map[RequirementCategory]bool, len(RequirementCategories))
	for _, c := range RequirementCategories {
		m[c] = true
	}
	return m
}()

// NormalizeCategory coerces a raw category string into the closed set.
// Already-valid categories pass through unchanged; anything else becomes
// CategoryOther.
func NormalizeCategory(raw string) RequirementCategory {
	c := RequirementCategory(strings.ToLower(strings.TrimSpace(raw)))
	c = RequirementCategory(strings.ReplaceAll(string(c), " ", "_"))
	if requirementCategories[c] {
		return c
	}
	return CategoryOther
}

// Requirement is a single discrete, checkable obligation derived from the
// reference document(s).
type Requirement struct {
	Chapter         string              `json:"chapter"`
	Item            string              `json:"item"`
	RequirementText string              `json:"requirement_text"`
	SourceReference string              `json:"source_reference"`
	Category        RequirementCategory `json:"category"`
	Mandatory       bool                `json:"mandatory"`
}
