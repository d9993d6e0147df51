package models

import "math"

// MaturityLevel is the ordinal compliance maturity of the target document.
type MaturityLevel string

const (
	MaturityBasic      MaturityLevel = "BASIC"
	MaturityDeveloping MaturityLevel = "DEVELOPING"
	MaturityAdvanced   MaturityLevel = "ADVANCED"
	MaturityLeading    MaturityLevel = "LEADING"
)

// MaturityForAlignedPercentage derives the maturity level from the aligned
// percentage using fixed thresholds. This field is deterministic by design
// and never depends on reasoning output.
func MaturityForAlignedPercentage(alignedPct float64) MaturityLevel {
	switch {
	case alignedPct < 40:
		return MaturityBasic
	case alignedPct < 70:
		return MaturityDeveloping
	case alignedPct < 90:
		return MaturityAdvanced
	default:
		return MaturityLeading
	}
}

// StatusCounts tallies verdicts by status.
type StatusCounts struct {
	Aligned   int `json:"aligned"`
	Moderate  int `json:"moderate"`
	Unaligned int `json:"unaligned"`
}

// Total is the number of verdicts counted.
func (c StatusCounts) Total() int {
	return c.Aligned + c.Moderate + c.Unaligned
}

// AssessmentStatistics holds verdict counts and percentages, overall and
// broken down by requirement category.
type AssessmentStatistics struct {
	Total        int                                  `json:"total"`
	Counts       StatusCounts                         `json:"counts"`
	AlignedPct   float64                              `json:"aligned_pct"`
	ModeratePct  float64                              `json:"moderate_pct"`
	UnalignedPct float64                              `json:"unaligned_pct"`
	ByCategory   map[RequirementCategory]StatusCounts `json:"by_category"`
}

// ComputeStatistics tallies a checklist into overall and per-category counts.
// The three percentages always sum to 100 (up to rounding) for a non-empty
// checklist.
func ComputeStatistics(items []ChecklistItem) AssessmentStatistics {
	stats := AssessmentStatistics{
		Total:      len(items),
		ByCategory: make(map[RequirementCategory]StatusCounts),
	}
	for _, item := range items {
		cat := stats.ByCategory[item.Requirement.Category]
		switch item.Verdict.Status {
		case StatusAligned:
			stats.Counts.Aligned++
			cat.Aligned++
		case StatusUnaligned:
			stats.Counts.Unaligned++
			cat.Unaligned++
		default:
			stats.Counts.Moderate++
			cat.Moderate++
		}
		stats.ByCategory[item.Requirement.Category] = cat
	}
	if stats.Total > 0 {
		stats.AlignedPct = pct(stats.Counts.Aligned, stats.Total)
		stats.ModeratePct = pct(stats.Counts.Moderate, stats.Total)
		stats.UnalignedPct = pct(stats.Counts.Unaligned, stats.Total)
	}
	return stats
}

func pct(n, total int) float64 {
	return math.Round(float64(n)/float64(total)*1000) / 10
}

// AssessmentSummary is the final aggregate handed to the report renderer.
// It is constructed once at the end of a pipeline run and never mutated.
type AssessmentSummary struct {
	ReferenceProfile DocumentProfile      `json:"reference_profile"`
	TargetProfile    DocumentProfile      `json:"target_profile"`
	Items            []ChecklistItem      `json:"items"`
	Statistics       AssessmentStatistics `json:"statistics"`

	OverallAssessment        string        `json:"overall_assessment"`
	KeyStrengths             []string      `json:"key_strengths"`
	CriticalGaps             []string      `json:"critical_gaps"`
	StrategicRecommendations []string      `json:"strategic_recommendations"`
	ComplianceMaturity       MaturityLevel `json:"compliance_maturity"`
	ImprovementTimeline      string        `json:"improvement_timeline"`

	// Failed marks a run that could not analyze its inputs. The summary still
	// carries exactly one checklist item so the renderer has content.
	Failed       bool   `json:"failed"`
	ErrorMessage string `json:"error_message,omitempty"`
}
