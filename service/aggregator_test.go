package service

import (
	"context"
	"strings"
	"testing"

	"policyreview-backend/models"
)

func verdictsWithStatuses(statuses ...models.ComplianceStatus) []models.ComplianceVerdict {
	verdicts := make([]models.ComplianceVerdict, 0, len(statuses))
	for _, s := range statuses {
		verdicts = append(verdicts, models.ComplianceVerdict{
			Status:               s,
			Feedback:             "feedback",
			Priority:             models.PriorityMedium,
			CompliancePercentage: 50,
		})
	}
	return verdicts
}

func TestAggregateWithNarrativeBackend(t *testing.T) {
	client := newTestClient(t, generateHandler(t, func(generateRequest) string {
		return `{
  "overall_assessment": "The policy aligns well with the reference law overall.",
  "key_strengths": ["leave entitlements", "termination notice"],
  "critical_gaps": ["no overtime clause"],
  "strategic_recommendations": ["add overtime pay terms"],
  "improvement_timeline": "Address the overtime gap within one quarter."
}`
	}))
	defer client.Close()

	a := NewAssessmentAggregator(client)
	reqs := testRequirements(4)
	verdicts := verdictsWithStatuses(
		models.StatusAligned, models.StatusAligned, models.StatusAligned, models.StatusUnaligned)

	summary := a.Aggregate(context.Background(), reqs, verdicts, testProfiles.reference, testProfiles.target)

	if summary.Failed {
		t.Fatal("summary marked failed")
	}
	if len(summary.Items) != 4 {
		t.Fatalf("summary has %d items, want 4", len(summary.Items))
	}
	if summary.Statistics.Counts.Aligned != 3 {
		t.Errorf("aligned count = %d, want 3", summary.Statistics.Counts.Aligned)
	}
	// 75% aligned sits in the ADVANCED band regardless of narrative content.
	if summary.ComplianceMaturity != models.MaturityAdvanced {
		t.Errorf("maturity = %s, want ADVANCED", summary.ComplianceMaturity)
	}
	if summary.OverallAssessment != "The policy aligns well with the reference law overall." {
		t.Errorf("overall assessment = %q", summary.OverallAssessment)
	}
	if len(summary.StrategicRecommendations) != 1 {
		t.Errorf("recommendations = %v", summary.StrategicRecommendations)
	}
}

func TestAggregateFallbackNarrative(t *testing.T) {
	client := downClient(t)
	defer client.Close()

	a := NewAssessmentAggregator(client)
	reqs := testRequirements(2)
	verdicts := verdictsWithStatuses(models.StatusAligned, models.StatusUnaligned)

	summary := a.Aggregate(context.Background(), reqs, verdicts, testProfiles.reference, testProfiles.target)

	if summary.OverallAssessment == "" {
		t.Error("fallback produced no overall assessment")
	}
	if !strings.Contains(summary.OverallAssessment, "1 of 2") {
		t.Errorf("fallback assessment = %q, want counts in text", summary.OverallAssessment)
	}
	if len(summary.KeyStrengths) == 0 || len(summary.CriticalGaps) == 0 || len(summary.StrategicRecommendations) == 0 {
		t.Errorf("fallback narrative incomplete: %+v", summary)
	}
	if summary.ImprovementTimeline == "" {
		t.Error("fallback produced no improvement timeline")
	}
}

func TestAggregateRepairsVerdictShortfall(t *testing.T) {
	client := downClient(t)
	defer client.Close()

	a := NewAssessmentAggregator(client)
	reqs := testRequirements(3)
	verdicts := verdictsWithStatuses(models.StatusAligned) // two missing

	summary := a.Aggregate(context.Background(), reqs, verdicts, testProfiles.reference, testProfiles.target)

	if len(summary.Items) != 3 {
		t.Fatalf("summary has %d items, want 3", len(summary.Items))
	}
	neutral := models.NeutralVerdict()
	for _, item := range summary.Items[1:] {
		if item.Verdict != neutral {
			t.Errorf("missing verdict not repaired: %+v", item.Verdict)
		}
	}
}

func TestAggregateMaturityIsDeterministic(t *testing.T) {
	// Whatever the narrative backend claims, maturity comes from the aligned
	// percentage alone.
	client := newTestClient(t, generateHandler(t, func(generateRequest) string {
		return `{"overall_assessment": "This document is world class and clearly at a leading maturity level."}`
	}))
	defer client.Close()

	a := NewAssessmentAggregator(client)
	reqs := testRequirements(2)
	verdicts := verdictsWithStatuses(models.StatusUnaligned, models.StatusUnaligned)

	summary := a.Aggregate(context.Background(), reqs, verdicts, testProfiles.reference, testProfiles.target)

	if summary.ComplianceMaturity != models.MaturityBasic {
		t.Errorf("maturity = %s, want BASIC at 0%% aligned", summary.ComplianceMaturity)
	}
}

func TestItemNames(t *testing.T) {
	items := []models.ChecklistItem{
		{Requirement: models.Requirement{Item: "a", Category: models.CategoryOther}, Verdict: models.ComplianceVerdict{Status: models.StatusUnaligned}},
		{Requirement: models.Requirement{Item: "b", Category: models.CategoryOther}, Verdict: models.ComplianceVerdict{Status: models.StatusAligned}},
	}
	got := itemNames(items, models.StatusUnaligned)
	if !strings.Contains(got, "a") || strings.Contains(got, "b") {
		t.Errorf("itemNames = %q", got)
	}
	if got := itemNames(items, models.StatusModerate); got != "None" {
		t.Errorf("itemNames with no matches = %q, want None", got)
	}
}
