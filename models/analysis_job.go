package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AnalysisJobStatus represents the status of an analysis job.
type AnalysisJobStatus string

const (
	JobStatusPending    AnalysisJobStatus = "pending"
	JobStatusInProgress AnalysisJobStatus = "in_progress"
	JobStatusCompleted  AnalysisJobStatus = "completed"
	JobStatusFailed     AnalysisJobStatus = "failed"
)

// AnalysisPhase names one stage of the pipeline state machine.
type AnalysisPhase string

const (
	PhaseExtracting             AnalysisPhase = "extracting"
	PhaseClassifying            AnalysisPhase = "classifying"
	PhaseExtractingRequirements AnalysisPhase = "extracting_requirements"
	PhaseEvaluating             AnalysisPhase = "evaluating"
	PhaseAggregating            AnalysisPhase = "aggregating"
	PhaseDone                   AnalysisPhase = "done"
	PhaseFailed                 AnalysisPhase = "failed"
)

// AnalysisStep records the progress of one pipeline phase on the job row.
type AnalysisStep struct {
	Phase       AnalysisPhase `json:"phase"`
	Status      string        `json:"status"` // "pending", "in_progress", "completed", "failed"
	Description string        `json:"description,omitempty"`
}

// AnalysisSteps represents the ordered phase list of a job.
type AnalysisSteps []AnalysisStep

// Value implements driver.Valuer for JSONB.
func (s AnalysisSteps) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner for JSONB.
func (s *AnalysisSteps) Scan(value interface{}) error {
	if value == nil {
		*s = make(AnalysisSteps, 0)
		return nil
	}

	// Handle different types that pgx might return for JSONB
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*s = make(AnalysisSteps, 0)
		return nil
	}

	if len(bytes) == 0 {
		*s = make(AnalysisSteps, 0)
		return nil
	}

	return json.Unmarshal(bytes, s)
}

// AnalysisResult wraps the finished AssessmentSummary for JSONB storage.
type AnalysisResult struct {
	Summary *AssessmentSummary `json:"summary,omitempty"`
}

// Value implements driver.Valuer for JSONB.
func (r AnalysisResult) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan implements sql.Scanner for JSONB.
func (r *AnalysisResult) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}
	if len(bytes) == 0 {
		return nil
	}
	return json.Unmarshal(bytes, r)
}

// AnalysisJob represents one asynchronous document analysis run.
type AnalysisJob struct {
	ID           uuid.UUID         `json:"id"`
	Status       AnalysisJobStatus `json:"status"`
	CurrentPhase *string           `json:"current_phase,omitempty"`
	Steps        AnalysisSteps     `json:"steps"`
	Result       AnalysisResult    `json:"result,omitempty"`
	ReportPath   *string           `json:"report_path,omitempty"`
	ErrorMessage *string           `json:"error_message,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
}

// NewAnalysisSteps builds the initial pending phase list for a job.
func NewAnalysisSteps() AnalysisSteps {
	phases := []AnalysisPhase{
		PhaseExtracting,
		PhaseClassifying,
		PhaseExtractingRequirements,
		PhaseEvaluating,
		PhaseAggregating,
	}
	steps := make(AnalysisSteps, 0, len(phases))
	for _, p := range phases {
		steps = append(steps, AnalysisStep{Phase: p, Status: "pending"})
	}
	return steps
}
