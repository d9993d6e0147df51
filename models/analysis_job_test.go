package models

import "testing"

func TestNewAnalysisSteps(t *testing.T) {
	steps := NewAnalysisSteps()
	want := []AnalysisPhase{
		PhaseExtracting,
		PhaseClassifying,
		PhaseExtractingRequirements,
		PhaseEvaluating,
		PhaseAggregating,
	}
	if len(steps) != len(want) {
		t.Fatalf("got %d steps, want %d", len(steps), len(want))
	}
	for i, phase := range want {
		if steps[i].Phase != phase {
			t.Errorf("step %d phase = %s, want %s", i, steps[i].Phase, phase)
		}
		if steps[i].Status != "pending" {
			t.Errorf("step %d status = %s, want pending", i, steps[i].Status)
		}
	}
}

func TestAnalysisStepsScan(t *testing.T) {
	original := NewAnalysisSteps()
	original[0].Status = "completed"
	original[1].Status = "in_progress"
	original[1].Description = "Classifying reference and target documents"

	value, err := original.Value()
	if err != nil {
		t.Fatalf("Value() error: %v", err)
	}

	var scanned AnalysisSteps
	if err := scanned.Scan(value); err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if len(scanned) != len(original) {
		t.Fatalf("scanned %d steps, want %d", len(scanned), len(original))
	}
	if scanned[1].Status != "in_progress" || scanned[1].Description == "" {
		t.Errorf("step 1 not preserved: %+v", scanned[1])
	}
}

func TestAnalysisStepsScanNil(t *testing.T) {
	var steps AnalysisSteps
	if err := steps.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) error: %v", err)
	}
	if steps == nil {
		t.Error("Scan(nil) left steps nil, want empty slice")
	}
	if len(steps) != 0 {
		t.Errorf("Scan(nil) produced %d steps, want 0", len(steps))
	}
}

func TestAnalysisResultRoundTrip(t *testing.T) {
	summary := AssessmentSummary{
		OverallAssessment:  "All requirements aligned.",
		ComplianceMaturity: MaturityLeading,
		Statistics:         AssessmentStatistics{Total: 3},
	}
	result := AnalysisResult{Summary: &summary}

	value, err := result.Value()
	if err != nil {
		t.Fatalf("Value() error: %v", err)
	}

	var scanned AnalysisResult
	if err := scanned.Scan(value); err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if scanned.Summary == nil {
		t.Fatal("scanned result has no summary")
	}
	if scanned.Summary.ComplianceMaturity != MaturityLeading {
		t.Errorf("maturity = %s, want %s", scanned.Summary.ComplianceMaturity, MaturityLeading)
	}
	if scanned.Summary.Statistics.Total != 3 {
		t.Errorf("statistics total = %d, want 3", scanned.Summary.Statistics.Total)
	}
}
