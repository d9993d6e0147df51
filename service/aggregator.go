package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"policyreview-backend/models"
)

// AssessmentAggregator combines per-requirement verdicts into the final
// summary: statistics, a deterministic maturity level, and strategic
// narrative produced by one further reasoning call with a deterministic
// fallback.
type AssessmentAggregator struct {
	client *ReasoningClient
}

// NewAssessmentAggregator creates an assessment aggregator.
func NewAssessmentAggregator(client *ReasoningClient) *AssessmentAggregator {
	return &AssessmentAggregator{client: client}
}

const aggregatorSystemPrompt = `You are a senior policy strategist. Provide executive-level strategic guidance from compliance statistics. Answer with JSON only.`

// parsedNarrative is the loose wire shape parsed from reasoning output.
type parsedNarrative struct {
	OverallAssessment        string   `json:"overall_assessment"`
	KeyStrengths             []string `json:"key_strengths"`
	CriticalGaps             []string `json:"critical_gaps"`
	StrategicRecommendations []string `json:"strategic_recommendations"`
	ImprovementTimeline      string   `json:"improvement_timeline"`
}

// Aggregate zips requirements and verdicts into checklist items, computes
// statistics, derives the maturity level from fixed thresholds, and fills the
// narrative fields. The narrative call summarizes the statistics only, never
// the raw documents; its failure falls back to a deterministic summary so the
// report is never empty of narrative content.
func (a *AssessmentAggregator) Aggregate(ctx context.Context, requirements []models.Requirement, verdicts []models.ComplianceVerdict, referenceProfile, targetProfile models.DocumentProfile) models.AssessmentSummary {
	items := zipChecklist(requirements, verdicts)
	stats := models.ComputeStatistics(items)

	summary := models.AssessmentSummary{
		ReferenceProfile:   referenceProfile,
		TargetProfile:      targetProfile,
		Items:              items,
		Statistics:         stats,
		ComplianceMaturity: models.MaturityForAlignedPercentage(stats.AlignedPct),
	}

	narrative := a.narrative(ctx, stats, items)
	summary.OverallAssessment = narrative.OverallAssessment
	summary.KeyStrengths = narrative.KeyStrengths
	summary.CriticalGaps = narrative.CriticalGaps
	summary.StrategicRecommendations = narrative.StrategicRecommendations
	summary.ImprovementTimeline = narrative.ImprovementTimeline

	return summary
}

// zipChecklist pairs requirements and verdicts positionally. A length
// mismatch is repaired with synthetic neutral verdicts so the pairing never
// fails.
func zipChecklist(requirements []models.Requirement, verdicts []models.ComplianceVerdict) []models.ChecklistItem {
	items := make([]models.ChecklistItem, 0, len(requirements))
	for i, req := range requirements {
		verdict := models.NeutralVerdict()
		if i < len(verdicts) {
			verdict = verdicts[i]
		}
		items = append(items, models.ChecklistItem{Requirement: req, Verdict: verdict})
	}
	return items
}

// narrative produces the strategic fields via the backend, or the
// deterministic fallback.
func (a *AssessmentAggregator) narrative(ctx context.Context, stats models.AssessmentStatistics, items []models.ChecklistItem) parsedNarrative {
	prompt := fmt.Sprintf(`Based on this compliance assessment, provide strategic guidance.

ASSESSMENT STATISTICS:
- Total requirements checked: %d
- Aligned: %d (%.1f%%)
- Moderate: %d (%.1f%%)
- Unaligned: %d (%.1f%%)

UNALIGNED AREAS:
%s

MODERATE AREAS:
%s

Answer in exactly this JSON format:
{
  "overall_assessment": "two or three sentence executive summary",
  "key_strengths": ["strength1", "strength2"],
  "critical_gaps": ["gap1", "gap2"],
  "strategic_recommendations": ["recommendation1", "recommendation2", "recommendation3"],
  "improvement_timeline": "phased roadmap in one or two sentences"
}`,
		stats.Total,
		stats.Counts.Aligned, stats.AlignedPct,
		stats.Counts.Moderate, stats.ModeratePct,
		stats.Counts.Unaligned, stats.UnalignedPct,
		itemNames(items, models.StatusUnaligned),
		itemNames(items, models.StatusModerate))

	response, err := a.client.Generate(ctx, prompt, aggregatorSystemPrompt, 1024)
	if err != nil {
		log.Printf("Warning: strategic narrative call failed, using deterministic summary: %v", err)
		return fallbackNarrative(stats, items)
	}

	var parsed parsedNarrative
	if !decodeJSONObject(response, &parsed) {
		log.Printf("Warning: strategic narrative output not parseable, using deterministic summary")
		return fallbackNarrative(stats, items)
	}

	fallback := fallbackNarrative(stats, items)
	parsed.OverallAssessment = firstNonEmpty(parsed.OverallAssessment, fallback.OverallAssessment)
	parsed.ImprovementTimeline = firstNonEmpty(parsed.ImprovementTimeline, fallback.ImprovementTimeline)
	if len(parsed.KeyStrengths) == 0 {
		parsed.KeyStrengths = fallback.KeyStrengths
	}
	if len(parsed.CriticalGaps) == 0 {
		parsed.CriticalGaps = fallback.CriticalGaps
	}
	if len(parsed.StrategicRecommendations) == 0 {
		parsed.StrategicRecommendations = fallback.StrategicRecommendations
	}
	return parsed
}

// itemNames lists the items carrying the given status, one per line.
func itemNames(items []models.ChecklistItem, status models.ComplianceStatus) string {
	var names []string
	for _, item := range items {
		if item.Verdict.Status == status {
			names = append(names, fmt.Sprintf("- %s (%s)", item.Requirement.Item, item.Requirement.Category))
		}
	}
	if len(names) == 0 {
		return "None"
	}
	return strings.Join(names, "\n")
}

// fallbackNarrative computes a deterministic textual summary from the
// statistics alone.
func fallbackNarrative(stats models.AssessmentStatistics, items []models.ChecklistItem) parsedNarrative {
	attention := stats.Counts.Moderate + stats.Counts.Unaligned

	var strengths []string
	for _, item := range items {
		if item.Verdict.Status == models.StatusAligned {
			strengths = append(strengths, fmt.Sprintf("Coverage of %s", item.Requirement.Item))
		}
		if len(strengths) == 3 {
			break
		}
	}
	if len(strengths) == 0 {
		strengths = []string{"No fully aligned areas were identified"}
	}

	var gaps []string
	for _, item := range items {
		if item.Verdict.Status == models.StatusUnaligned {
			gaps = append(gaps, fmt.Sprintf("Missing or contradicted: %s", item.Requirement.Item))
		}
		if len(gaps) == 3 {
			break
		}
	}
	if len(gaps) == 0 {
		gaps = []string{"No critical gaps were identified"}
	}

	return parsedNarrative{
		OverallAssessment: fmt.Sprintf(
			"%d of %d requirements are aligned (%.1f%%); %d areas need attention.",
			stats.Counts.Aligned, stats.Total, stats.AlignedPct, attention),
		KeyStrengths: strengths,
		CriticalGaps: gaps,
		StrategicRecommendations: []string{
			"Address unaligned requirements before the next review cycle",
			"Strengthen partially covered areas with explicit clauses",
			"Schedule a periodic compliance review against the reference material",
		},
		ImprovementTimeline: "Remediate unaligned items first, then strengthen moderate areas over the following review period.",
	}
}
