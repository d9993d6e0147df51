package models

import "strings"

// ComplianceStatus is the tri-state outcome of checking one requirement
// against the target document. There is no partial-credit numeric state;
// the percentage on the verdict is informational only.
type ComplianceStatus string

const (
	StatusAligned   ComplianceStatus = "ALIGNED"
	StatusModerate  ComplianceStatus = "MODERATE"
	StatusUnaligned ComplianceStatus = "UNALIGNED"
)

// NormalizeStatus maps free-text status words from the reasoning backend into
// the closed tri-state set. Missing or unrecognized input defaults to
// StatusModerate, the conservative middle state.
func NormalizeStatus(raw string) ComplianceStatus {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "ALIGNED", "COMPLIANT", "PRESENT", "FULL", "YES":
		return StatusAligned
	case "UNALIGNED", "NON_COMPLIANT", "NON-COMPLIANT", "MISSING", "NO":
		return StatusUnaligned
	default:
		return StatusModerate
	}
}

// Priority ranks how urgently a verdict's remediation should be addressed.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// NormalizePriority coerces a raw priority string; unrecognized input maps to
// PriorityMedium.
func NormalizePriority(raw string) Priority {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "HIGH":
		return PriorityHigh
	case "LOW":
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// ComplianceVerdict is the evaluation of one requirement against the target
// document. Exactly one verdict exists per requirement, in requirement order,
// so the two lists pair positionally.
type ComplianceVerdict struct {
	Status               ComplianceStatus `json:"status"`
	Feedback             string           `json:"feedback"`
	Comments             string           `json:"comments,omitempty"`
	SuggestedAmendment   string           `json:"suggested_amendment,omitempty"`
	Priority             Priority         `json:"priority"`
	CompliancePercentage int              `json:"compliance_percentage"`
}

// NeutralVerdict is the synthetic placeholder substituted when an individual
// evaluation fails or a verdict is missing during pairing.
func NeutralVerdict() ComplianceVerdict {
	return ComplianceVerdict{
		Status:               StatusModerate,
		Feedback:             "Automated evaluation was inconclusive for this requirement.",
		Comments:             "Manual review recommended.",
		SuggestedAmendment:   "Review the requirement against the target document manually.",
		Priority:             PriorityMedium,
		CompliancePercentage: 55,
	}
}

// ChecklistItem pairs one requirement with its verdict.
type ChecklistItem struct {
	Requirement Requirement       `json:"requirement"`
	Verdict     ComplianceVerdict `json:"verdict"`
}
