package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"policyreview-backend/models"
)

// referenceLawText is a synthetic reference document long enough to pass the
// minimum-length gate.
var referenceLawText = strings.TrimSpace(`
Labour Law of the Sultanate, Royal Decree No. 35/2003.
Article 61 - Annual Leave
The employee shall be entitled to annual leave of 30 days with full pay.
Article 73 - Overtime
Overtime work must be compensated at 125 percent of the basic wage.
Article 40 - Termination
A notice period of 30 days applies to termination by either party.
`)

// targetPolicyText covers leave but is silent on overtime and termination.
var targetPolicyText = strings.TrimSpace(`
Company Human Resources Policy Manual.
Section 4. Leave
Employees receive 30 days of paid annual leave per year of service.
Section 5. Conduct
Employees must follow the code of conduct at all times during employment.
This policy is reviewed annually by the human resources department.
`)

func extracted(filename, text string) models.ExtractedDocument {
	return models.ExtractedDocument{
		Filename:   filename,
		Text:       text,
		Structural: AnalyzeStructure(text),
	}
}

// scriptedBackend answers each pipeline stage by inspecting the prompt shape:
// classification and evaluation ask for an object, extraction for an array.
func scriptedBackend(t *testing.T) *ReasoningClient {
	t.Helper()
	return newTestClient(t, generateHandler(t, func(req generateRequest) string {
		switch {
		case strings.Contains(req.Prompt, "classify it"):
			return `{"document_type": "LAW", "title": "Labour Law", "authority": "State", "scope": ["employment"], "key_topics": ["leave", "overtime"]}`
		case strings.Contains(req.Prompt, "Derive a checklist"):
			return `[
  {"chapter": "Leave", "item": "Annual leave", "requirement_text": "30 days of paid annual leave are granted.", "source_reference": "Article 61", "category": "leave_policies", "mandatory": true},
  {"chapter": "Pay", "item": "Overtime compensation", "requirement_text": "Overtime is paid at 125 percent of the basic wage.", "source_reference": "Article 73", "category": "compensation_benefits", "mandatory": true}
]`
		case strings.Contains(req.Prompt, "satisfies the requirement"):
			if strings.Contains(req.Prompt, "Annual leave") {
				return `{"status": "ALIGNED", "feedback": "the policy grants 30 days of paid annual leave", "priority": "LOW", "compliance_percentage": 95}`
			}
			return `{"status": "UNALIGNED", "feedback": "the policy never mentions overtime compensation", "suggested_amendment": "add an overtime pay clause", "priority": "HIGH", "compliance_percentage": 5}`
		case strings.Contains(req.Prompt, "strategic guidance"):
			return `{"overall_assessment": "Leave is covered but overtime compensation is missing from the policy.", "key_strengths": ["annual leave"], "critical_gaps": ["overtime"], "strategic_recommendations": ["add overtime terms"], "improvement_timeline": "One review cycle."}`
		default:
			t.Errorf("unexpected prompt: %.80q", req.Prompt)
			return ""
		}
	}))
}

func TestAnalyzeEndToEnd(t *testing.T) {
	client := scriptedBackend(t)
	defer client.Close()

	svc := NewAnalysisService(AnalysisWithReasoningClient(client))

	var phases []models.AnalysisPhase
	summary := svc.Analyze(context.Background(),
		[]models.ExtractedDocument{extracted("law.pdf", referenceLawText)},
		extracted("policy.pdf", targetPolicyText),
		func(phase models.AnalysisPhase, _ string) { phases = append(phases, phase) })

	if summary.Failed {
		t.Fatalf("analysis failed: %s", summary.ErrorMessage)
	}
	if len(summary.Items) != 2 {
		t.Fatalf("summary has %d items, want 2", len(summary.Items))
	}

	leave, overtime := summary.Items[0], summary.Items[1]
	if leave.Verdict.Status != models.StatusAligned {
		t.Errorf("leave verdict = %s, want ALIGNED", leave.Verdict.Status)
	}
	if overtime.Verdict.Status != models.StatusUnaligned {
		t.Errorf("overtime verdict = %s, want UNALIGNED", overtime.Verdict.Status)
	}
	if overtime.Verdict.SuggestedAmendment == "" {
		t.Error("unaligned verdict carries no suggested amendment")
	}

	if summary.Statistics.Total != 2 || summary.Statistics.Counts.Aligned != 1 {
		t.Errorf("statistics = %+v", summary.Statistics)
	}
	// 50% aligned is the DEVELOPING band.
	if summary.ComplianceMaturity != models.MaturityDeveloping {
		t.Errorf("maturity = %s, want DEVELOPING", summary.ComplianceMaturity)
	}

	wantPhases := []models.AnalysisPhase{
		models.PhaseExtracting,
		models.PhaseClassifying,
		models.PhaseExtractingRequirements,
		models.PhaseEvaluating,
		models.PhaseAggregating,
		models.PhaseDone,
	}
	if len(phases) != len(wantPhases) {
		t.Fatalf("phases = %v, want %v", phases, wantPhases)
	}
	for i := range wantPhases {
		if phases[i] != wantPhases[i] {
			t.Errorf("phase %d = %s, want %s", i, phases[i], wantPhases[i])
		}
	}
}

func TestAnalyzeRejectsShortInput(t *testing.T) {
	client := scriptedBackend(t)
	defer client.Close()

	svc := NewAnalysisService(AnalysisWithReasoningClient(client))

	tests := []struct {
		name       string
		references []models.ExtractedDocument
		target     models.ExtractedDocument
	}{
		{
			name:       "short reference",
			references: []models.ExtractedDocument{extracted("law.pdf", "too short")},
			target:     extracted("policy.pdf", targetPolicyText),
		},
		{
			name:       "short target",
			references: []models.ExtractedDocument{extracted("law.pdf", referenceLawText)},
			target:     extracted("policy.pdf", "too short"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary := svc.Analyze(context.Background(), tt.references, tt.target, nil)
			if !summary.Failed {
				t.Fatal("summary not marked failed")
			}
			if len(summary.Items) != 1 {
				t.Fatalf("failed summary has %d items, want exactly 1", len(summary.Items))
			}
			item := summary.Items[0]
			if item.Requirement.Category != models.CategoryAnalysis {
				t.Errorf("failed item category = %s, want analysis", item.Requirement.Category)
			}
			if item.Verdict.Status != models.StatusUnaligned {
				t.Errorf("failed item status = %s, want UNALIGNED", item.Verdict.Status)
			}
			if summary.ErrorMessage == "" {
				t.Error("failed summary carries no error message")
			}
		})
	}
}

func TestAnalyzeDegradesWhenBackendDown(t *testing.T) {
	client := downClient(t)
	defer client.Close()

	svc := NewAnalysisService(AnalysisWithReasoningClient(client))
	summary := svc.Analyze(context.Background(),
		[]models.ExtractedDocument{extracted("law.pdf", referenceLawText)},
		extracted("policy.pdf", targetPolicyText),
		nil)

	// With the backend unreachable the run still completes: heuristic
	// profiles, the canonical requirement set, and neutral verdicts.
	if summary.Failed {
		t.Fatalf("degraded run marked failed: %s", summary.ErrorMessage)
	}
	if len(summary.Items) < 10 {
		t.Fatalf("degraded run produced %d items, want the fallback set", len(summary.Items))
	}
	neutral := models.NeutralVerdict()
	for i, item := range summary.Items {
		if item.Verdict != neutral {
			t.Errorf("item %d verdict = %+v, want neutral", i, item.Verdict)
		}
	}
	if summary.ReferenceProfile.DocumentType == "" || summary.TargetProfile.DocumentType == "" {
		t.Error("degraded run has empty document types")
	}
	if summary.OverallAssessment == "" {
		t.Error("degraded run has no overall assessment")
	}
	if summary.ComplianceMaturity != models.MaturityBasic {
		t.Errorf("maturity = %s, want BASIC at 0%% aligned", summary.ComplianceMaturity)
	}
}

func TestFailedSummaryShape(t *testing.T) {
	summary := FailedSummary("reference text too short to analyze")

	if !summary.Failed {
		t.Fatal("not marked failed")
	}
	if summary.ErrorMessage != "reference text too short to analyze" {
		t.Errorf("error message = %q", summary.ErrorMessage)
	}
	if len(summary.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(summary.Items))
	}
	if summary.Statistics.Total != 1 || summary.Statistics.Counts.Unaligned != 1 {
		t.Errorf("statistics = %+v", summary.Statistics)
	}
	if summary.ComplianceMaturity != models.MaturityBasic {
		t.Errorf("maturity = %s, want BASIC", summary.ComplianceMaturity)
	}

	// The failed summary must survive the JSONB round trip intact.
	result := models.AnalysisResult{Summary: &summary}
	value, err := result.Value()
	if err != nil {
		t.Fatalf("Value() error: %v", err)
	}
	var scanned models.AnalysisResult
	if err := scanned.Scan(value); err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if !scanned.Summary.Failed || scanned.Summary.ErrorMessage == "" {
		t.Error("failure markers lost in round trip")
	}
}

func TestAdvanceSteps(t *testing.T) {
	steps := models.NewAnalysisSteps()

	steps = advanceSteps(steps, models.PhaseEvaluating, "Evaluating requirements")
	for i, step := range steps {
		switch step.Phase {
		case models.PhaseEvaluating:
			if step.Status != "in_progress" {
				t.Errorf("evaluating status = %s, want in_progress", step.Status)
			}
			if step.Description == "" {
				t.Error("description not recorded")
			}
		case models.PhaseAggregating:
			if step.Status != "pending" {
				t.Errorf("aggregating status = %s, want pending", step.Status)
			}
		default:
			if step.Status != "completed" {
				t.Errorf("step %d (%s) status = %s, want completed", i, step.Phase, step.Status)
			}
		}
	}

	done := advanceSteps(steps, models.PhaseDone, "")
	for _, step := range done {
		if step.Status != "completed" {
			t.Errorf("after done, %s status = %s", step.Phase, step.Status)
		}
	}

	failed := advanceSteps(steps, models.PhaseFailed, "boom")
	for _, step := range failed {
		if step.Phase == models.PhaseEvaluating || step.Phase == models.PhaseAggregating {
			if step.Status != "failed" {
				t.Errorf("after failure, %s status = %s, want failed", step.Phase, step.Status)
			}
		} else if step.Status != "completed" {
			t.Errorf("after failure, %s status = %s, want completed", step.Phase, step.Status)
		}
	}
}

func TestAdvanceStepsDoesNotMutateInput(t *testing.T) {
	steps := models.NewAnalysisSteps()
	snapshot, _ := json.Marshal(steps)

	_ = advanceSteps(steps, models.PhaseClassifying, "classifying")

	after, _ := json.Marshal(steps)
	if string(snapshot) != string(after) {
		t.Errorf("input mutated: %s -> %s", snapshot, after)
	}
}

func TestJoinReferenceTexts(t *testing.T) {
	got := joinReferenceTexts([]models.ExtractedDocument{
		{Text: "first document"},
		{Text: "second document"},
	})
	want := "first document\n\nsecond document"
	if got != want {
		t.Errorf("joinReferenceTexts = %q, want %q", got, want)
	}
}
