package service

import (
	"fmt"
	"io"
	"time"

	"policyreview-backend/models"

	"github.com/go-pdf/fpdf"
)

// ReportRenderer turns a finished AssessmentSummary into a PDF document.
// It consumes the aggregate object only; no pipeline logic depends on it.
type ReportRenderer struct{}

// NewReportRenderer creates a report renderer.
func NewReportRenderer() *ReportRenderer {
	return &ReportRenderer{}
}

// categoryLabels maps requirement categories to report section headings.
var categoryLabels = map[models.RequirementCategory]string{
	models.CategoryEmploymentTerms:      "Employment Terms",
	models.CategoryCompensationBenefits: "Compensation & Benefits",
	models.CategoryWorkingConditions:    "Working Conditions",
	models.CategoryTermination:          "Termination Conditions",
	models.CategoryConfidentiality:      "Confidentiality & Non-Compete",
	models.CategoryIntellectualProperty: "Intellectual Property",
	models.CategoryDisputeResolution:    "Dispute Resolution",
	models.CategoryCompliance:           "Regulatory Compliance & Governance",
	models.CategoryHealthSafety:         "Health & Safety",
	models.CategoryLeavePolicies:        "Leave Policies",
	models.CategoryOther:                "Other Provisions",
	models.CategoryAnalysis:             "Analysis",
}

// Render writes the assessment report as a PDF to w.
func (r *ReportRenderer) Render(summary models.AssessmentSummary, referenceName, targetName string, w io.Writer) error {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(19, 25, 19)
	doc.SetAutoPageBreak(true, 25)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 20)
	doc.MultiCell(0, 10, "Smart Policy Review Report", "", "C", false)
	doc.Ln(4)

	doc.SetFont("Helvetica", "", 10)
	doc.MultiCell(0, 5, fmt.Sprintf("Reference: %s", referenceName), "", "L", false)
	doc.MultiCell(0, 5, fmt.Sprintf("Target: %s", targetName), "", "L", false)
	doc.MultiCell(0, 5, fmt.Sprintf("Generated: %s", time.Now().Format("2 January 2006 15:04")), "", "L", false)
	doc.Ln(6)

	if summary.Failed {
		doc.SetFont("Helvetica", "B", 12)
		doc.MultiCell(0, 7, "Analysis Failed", "", "L", false)
		doc.SetFont("Helvetica", "", 11)
		doc.MultiCell(0, 6, summary.ErrorMessage, "", "L", false)
		doc.Ln(4)
	}

	r.renderStatistics(doc, summary)
	r.renderChecklist(doc, summary)
	r.renderNarrative(doc, summary)

	return doc.Output(w)
}

func (r *ReportRenderer) renderStatistics(doc *fpdf.Fpdf, summary models.AssessmentSummary) {
	stats := summary.Statistics

	doc.SetFont("Helvetica", "B", 14)
	doc.MultiCell(0, 8, "Summary", "", "L", false)
	doc.SetFont("Helvetica", "", 11)
	doc.MultiCell(0, 6, fmt.Sprintf(
		"Requirements checked: %d   Aligned: %d (%.1f%%)   Moderate: %d (%.1f%%)   Unaligned: %d (%.1f%%)",
		stats.Total,
		stats.Counts.Aligned, stats.AlignedPct,
		stats.Counts.Moderate, stats.ModeratePct,
		stats.Counts.Unaligned, stats.UnalignedPct), "", "L", false)
	doc.MultiCell(0, 6, fmt.Sprintf("Compliance maturity: %s", summary.ComplianceMaturity), "", "L", false)
	doc.Ln(4)
}

func (r *ReportRenderer) renderChecklist(doc *fpdf.Fpdf, summary models.AssessmentSummary) {
	doc.SetFont("Helvetica", "B", 14)
	doc.MultiCell(0, 8, "Findings per Category", "", "L", false)

	byCategory := make(map[models.RequirementCategory][]models.ChecklistItem)
	for _, item := range summary.Items {
		byCategory[item.Requirement.Category] = append(byCategory[item.Requirement.Category], item)
	}

	// Walk the closed taxonomy in display order, then the synthetic
	// analysis category of failed runs.
	order := append([]models.RequirementCategory{}, models.RequirementCategories...)
	order = append(order, models.CategoryAnalysis)

	for _, category := range order {
		items := byCategory[category]
		if len(items) == 0 {
			continue
		}

		doc.SetFont("Helvetica", "B", 12)
		doc.MultiCell(0, 7, categoryLabels[category], "", "L", false)

		for _, item := range items {
			doc.SetFont("Helvetica", "B", 11)
			doc.MultiCell(0, 6, fmt.Sprintf("%s - %s (%d%%)",
				item.Requirement.Item, item.Verdict.Status, item.Verdict.CompliancePercentage), "", "L", false)
			doc.SetFont("Helvetica", "", 10)
			doc.MultiCell(0, 5, item.Verdict.Feedback, "", "L", false)
			if item.Verdict.Comments != "" {
				doc.MultiCell(0, 5, "Evidence: "+item.Verdict.Comments, "", "L", false)
			}
			if item.Verdict.SuggestedAmendment != "" {
				doc.MultiCell(0, 5, fmt.Sprintf("Suggested amendment (%s priority): %s",
					item.Verdict.Priority, item.Verdict.SuggestedAmendment), "", "L", false)
			}
			doc.Ln(2)
		}
		doc.Ln(2)
	}
}

func (r *ReportRenderer) renderNarrative(doc *fpdf.Fpdf, summary models.AssessmentSummary) {
	doc.SetFont("Helvetica", "B", 14)
	doc.MultiCell(0, 8, "Overall Assessment", "", "L", false)
	doc.SetFont("Helvetica", "", 11)
	doc.MultiCell(0, 6, summary.OverallAssessment, "", "L", false)
	doc.Ln(3)

	r.renderList(doc, "Key Strengths", summary.KeyStrengths)
	r.renderList(doc, "Critical Gaps", summary.CriticalGaps)
	r.renderList(doc, "Strategic Recommendations", summary.StrategicRecommendations)

	if summary.ImprovementTimeline != "" {
		doc.SetFont("Helvetica", "B", 12)
		doc.MultiCell(0, 7, "Improvement Timeline", "", "L", false)
		doc.SetFont("Helvetica", "", 11)
		doc.MultiCell(0, 6, summary.ImprovementTimeline, "", "L", false)
	}
}

func (r *ReportRenderer) renderList(doc *fpdf.Fpdf, heading string, entries []string) {
	if len(entries) == 0 {
		return
	}
	doc.SetFont("Helvetica", "B", 12)
	doc.MultiCell(0, 7, heading, "", "L", false)
	doc.SetFont("Helvetica", "", 11)
	for _, entry := range entries {
		doc.MultiCell(0, 6, "- "+entry, "", "L", false)
	}
	doc.Ln(2)
}
