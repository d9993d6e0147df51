package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"policyreview-backend/models"
	"policyreview-backend/repository"
	"policyreview-backend/storage"

	"github.com/google/uuid"
)

// MinDocumentLength is the minimum extracted-text length below which the
// pipeline refuses to analyze a document.
const MinDocumentLength = 200

var (
	ErrJobNotFound      = errors.New("analysis job not found")
	ErrMissingDocuments = errors.New("analysis job is missing its input documents")
	ErrTextTooShort     = errors.New("extracted text too short to analyze")
)

// ProgressFunc receives advisory phase-transition events. It never gates
// pipeline progress; a nil func is valid.
type ProgressFunc func(phase models.AnalysisPhase, description string)

// AnalysisService orchestrates one analysis run: extraction, classification,
// requirement extraction, evaluation, aggregation, and report rendering.
type AnalysisService struct {
	jobRepo   *repository.AnalysisJobRepository
	docRepo   *repository.DocumentRecordRepository
	files     storage.Storage
	reasoning *ReasoningClient

	extractor     *DocumentExtractor
	refClassifier Classifier
	tgtClassifier Classifier
	requirements  *RequirementExtractor
	evaluator     *ComplianceEvaluator
	aggregator    *AssessmentAggregator
	renderer      *ReportRenderer
}

// AnalysisServiceOption is a functional option for AnalysisService.
type AnalysisServiceOption func(*AnalysisService)

// AnalysisWithJobRepository sets the analysis job repository.
func AnalysisWithJobRepository(repo *repository.AnalysisJobRepository) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.jobRepo = repo
	}
}

// AnalysisWithDocumentRepository sets the document record repository.
func AnalysisWithDocumentRepository(repo *repository.DocumentRecordRepository) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.docRepo = repo
	}
}

// AnalysisWithStorage sets the file storage backend.
func AnalysisWithStorage(files storage.Storage) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.files = files
	}
}

// AnalysisWithReasoningClient sets the reasoning client shared by all
// pipeline stages.
func AnalysisWithReasoningClient(client *ReasoningClient) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.reasoning = client
	}
}

// NewAnalysisService creates an analysis service and wires its pipeline
// stages around the configured reasoning client.
func NewAnalysisService(opts ...AnalysisServiceOption) *AnalysisService {
	s := &AnalysisService{}
	for _, opt := range opts {
		opt(s)
	}

	s.extractor = NewDocumentExtractor()
	s.renderer = NewReportRenderer()
	if s.reasoning != nil {
		s.refClassifier = NewReasoningClassifier(s.reasoning, models.DocTypeLaw)
		s.tgtClassifier = NewReasoningClassifier(s.reasoning, models.DocTypePolicy)
		s.requirements = NewRequirementExtractor(s.reasoning)
		s.evaluator = NewComplianceEvaluator(s.reasoning)
		s.aggregator = NewAssessmentAggregator(s.reasoning)
	}
	return s
}

// Analyze runs the core pipeline over already-extracted documents and always
// returns a renderable summary. Stage failures are absorbed by the stage that
// owns the fallback; only insufficient input or an aggregate-level panic
// yields a failed summary, and even that carries one checklist item so the
// renderer has content.
func (s *AnalysisService) Analyze(ctx context.Context, references []models.ExtractedDocument, target models.ExtractedDocument, progress ProgressFunc) (summary models.AssessmentSummary) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Warning: analysis pipeline panicked: %v", r)
			summary = FailedSummary(fmt.Sprintf("internal error during aggregation: %v", r))
			emit(progress, models.PhaseFailed, summary.ErrorMessage)
		}
	}()

	emit(progress, models.PhaseExtracting, "Validating extracted document text")

	referenceText := joinReferenceTexts(references)
	if len(referenceText) < MinDocumentLength {
		summary = FailedSummary("reference text too short to analyze")
		emit(progress, models.PhaseFailed, summary.ErrorMessage)
		return summary
	}
	if len(target.Text) < MinDocumentLength {
		summary = FailedSummary("target text too short to analyze")
		emit(progress, models.PhaseFailed, summary.ErrorMessage)
		return summary
	}

	emit(progress, models.PhaseClassifying, "Classifying reference and target documents")

	// The two classification calls are independent; run them concurrently.
	var refProfile, tgtProfile models.DocumentProfile
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		refProfile = s.refClassifier.Classify(ctx, referenceText)
	}()
	go func() {
		defer wg.Done()
		tgtProfile = s.tgtClassifier.Classify(ctx, target.Text)
	}()
	wg.Wait()

	emit(progress, models.PhaseExtractingRequirements, "Deriving requirement checklist from reference material")
	requirements := s.requirements.Extract(ctx, referenceText, refProfile, target.Text, tgtProfile)

	emit(progress, models.PhaseEvaluating, fmt.Sprintf("Evaluating %d requirements against the target document", len(requirements)))
	verdicts := s.evaluator.EvaluateBatch(ctx, requirements, target.Text, tgtProfile)

	emit(progress, models.PhaseAggregating, "Aggregating verdicts into the assessment summary")
	summary = s.aggregator.Aggregate(ctx, requirements, verdicts, refProfile, tgtProfile)

	emit(progress, models.PhaseDone, "Analysis complete")
	return summary
}

// FailedSummary builds the minimal single-item summary of an unrecoverable
// run so the renderer always has something to render.
func FailedSummary(reason string) models.AssessmentSummary {
	item := models.ChecklistItem{
		Requirement: models.Requirement{
			Chapter:         "Analysis",
			Item:            "Document analysis",
			RequirementText: "The submitted documents could not be analyzed.",
			SourceReference: "pipeline",
			Category:        models.CategoryAnalysis,
			Mandatory:       true,
		},
		Verdict: models.ComplianceVerdict{
			Status:               models.StatusUnaligned,
			Feedback:             reason,
			SuggestedAmendment:   "Submit machine-readable documents with sufficient text content.",
			Priority:             models.PriorityHigh,
			CompliancePercentage: 0,
		},
	}

	items := []models.ChecklistItem{item}
	return models.AssessmentSummary{
		ReferenceProfile:         models.DocumentProfile{DocumentType: models.DocTypeUnknown, Title: defaultTitle, Authority: defaultAuthority, Scope: []string{"general"}, KeyTopics: []string{"general"}},
		TargetProfile:            models.DocumentProfile{DocumentType: models.DocTypeUnknown, Title: defaultTitle, Authority: defaultAuthority, Scope: []string{"general"}, KeyTopics: []string{"general"}},
		Items:                    items,
		Statistics:               models.ComputeStatistics(items),
		OverallAssessment:        "The analysis could not be completed: " + reason,
		CriticalGaps:             []string{reason},
		StrategicRecommendations: []string{"Resubmit the documents or review them manually"},
		ComplianceMaturity:       models.MaturityBasic,
		ImprovementTimeline:      "Resolve the input problem, then rerun the analysis.",
		Failed:                   true,
		ErrorMessage:             reason,
	}
}

func emit(progress ProgressFunc, phase models.AnalysisPhase, description string) {
	if progress != nil {
		progress(phase, description)
	}
	log.Printf("Phase %s: %s", phase, description)
}

func joinReferenceTexts(references []models.ExtractedDocument) string {
	texts := make([]string, 0, len(references))
	for _, ref := range references {
		texts = append(texts, ref.Text)
	}
	return strings.TrimSpace(strings.Join(texts, "\n\n"))
}

// ProcessAnalysis performs the full background job: download the stored
// inputs, extract text, run the pipeline, render and store the report, and
// record the outcome on the job row. It runs in a goroutine after job
// creation and can take several minutes.
func (s *AnalysisService) ProcessAnalysis(ctx context.Context, jobID uuid.UUID) error {
	if s.jobRepo == nil {
		return errors.New("analysis job repository not set")
	}
	if s.docRepo == nil {
		return errors.New("document record repository not set")
	}
	if s.files == nil {
		return errors.New("file storage not set")
	}

	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load analysis job: %w", err)
	}

	if err := s.jobRepo.UpdateStatus(ctx, jobID, models.JobStatusInProgress); err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	records, err := s.docRepo.ListByJobID(ctx, jobID)
	if err != nil {
		s.failJob(ctx, jobID, job.Steps, "failed to load input documents: "+err.Error())
		return err
	}

	references, target, err := s.extractInputs(ctx, records)
	if err != nil {
		s.failJob(ctx, jobID, job.Steps, err.Error())
		return err
	}

	steps := job.Steps
	if len(steps) == 0 {
		steps = models.NewAnalysisSteps()
	}

	progress := func(phase models.AnalysisPhase, description string) {
		steps = advanceSteps(steps, phase, description)
		if err := s.jobRepo.UpdateProgress(ctx, jobID, string(phase), steps); err != nil {
			log.Printf("Warning: failed to record progress for job %s: %v", jobID, err)
		}
	}

	summary := s.Analyze(ctx, references, target, progress)

	reportPath, err := s.renderAndStore(ctx, jobID, summary, records)
	if err != nil {
		log.Printf("Warning: failed to render report for job %s: %v", jobID, err)
		reportPath = ""
	}

	result := models.AnalysisResult{Summary: &summary}
	if summary.Failed {
		if err := s.jobRepo.Fail(ctx, jobID, summary.ErrorMessage, result, reportPath); err != nil {
			return fmt.Errorf("failed to record failed job: %w", err)
		}
		return nil
	}

	if reportPath == "" {
		s.failJob(ctx, jobID, steps, "analysis finished but the report could not be rendered")
		return errors.New("report rendering failed")
	}

	if err := s.jobRepo.Complete(ctx, jobID, result, reportPath); err != nil {
		return fmt.Errorf("failed to record completed job: %w", err)
	}
	return nil
}

// extractInputs downloads each stored document and extracts its text.
func (s *AnalysisService) extractInputs(ctx context.Context, records []models.DocumentRecord) ([]models.ExtractedDocument, models.ExtractedDocument, error) {
	var references []models.ExtractedDocument
	var target models.ExtractedDocument
	haveTarget := false

	for _, record := range records {
		doc, err := s.extractStored(ctx, record)
		if err != nil {
			return nil, models.ExtractedDocument{}, fmt.Errorf("failed to extract %s: %w", record.Filename, err)
		}
		switch record.Role {
		case models.RoleTarget:
			target = doc
			haveTarget = true
		default:
			references = append(references, doc)
		}
	}

	if len(references) == 0 || !haveTarget {
		return nil, models.ExtractedDocument{}, ErrMissingDocuments
	}
	return references, target, nil
}

// extractStored copies one stored document to a temp file and extracts it.
// The PDF reader needs a seekable file, not a stream.
func (s *AnalysisService) extractStored(ctx context.Context, record models.DocumentRecord) (models.ExtractedDocument, error) {
	reader, err := s.files.Download(ctx, record.StoragePath)
	if err != nil {
		return models.ExtractedDocument{}, err
	}
	defer reader.Close()

	tmp, err := os.CreateTemp("", "analysis-*.pdf")
	if err != nil {
		return models.ExtractedDocument{}, err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		return models.ExtractedDocument{}, err
	}
	if err := tmp.Close(); err != nil {
		return models.ExtractedDocument{}, err
	}

	return s.extractor.Extract(tmp.Name(), record.Filename)
}

// renderAndStore renders the PDF report and uploads it to file storage.
func (s *AnalysisService) renderAndStore(ctx context.Context, jobID uuid.UUID, summary models.AssessmentSummary, records []models.DocumentRecord) (string, error) {
	referenceName := "reference documents"
	targetName := "target document"
	for _, record := range records {
		if record.Role == models.RoleReference && referenceName == "reference documents" {
			referenceName = record.Filename
		}
		if record.Role == models.RoleTarget {
			targetName = record.Filename
		}
	}

	var buf bytes.Buffer
	if err := s.renderer.Render(summary, referenceName, targetName, &buf); err != nil {
		return "", err
	}

	return s.files.Upload(ctx, jobID, fmt.Sprintf("report_%s.pdf", jobID), &buf)
}

// failJob marks the job failed and attaches the minimal failed summary so
// status callers still receive a renderable result.
func (s *AnalysisService) failJob(ctx context.Context, jobID uuid.UUID, steps models.AnalysisSteps, message string) {
	summary := FailedSummary(message)
	result := models.AnalysisResult{Summary: &summary}
	_ = s.jobRepo.UpdateProgress(ctx, jobID, string(models.PhaseFailed), advanceSteps(steps, models.PhaseFailed, message))
	if err := s.jobRepo.Fail(ctx, jobID, message, result, ""); err != nil {
		log.Printf("Warning: failed to record job failure for %s: %v", jobID, err)
	}
}

// advanceSteps marks earlier phases completed and the given phase
// in_progress (or the terminal phases completed/failed).
func advanceSteps(steps models.AnalysisSteps, phase models.AnalysisPhase, description string) models.AnalysisSteps {
	out := make(models.AnalysisSteps, len(steps))
	copy(out, steps)

	switch phase {
	case models.PhaseDone:
		for i := range out {
			out[i].Status = "completed"
		}
		return out
	case models.PhaseFailed:
		for i := range out {
			if out[i].Status == "in_progress" || out[i].Status == "pending" {
				out[i].Status = "failed"
			}
		}
		return out
	}

	reached := false
	for i := range out {
		if out[i].Phase == phase {
			out[i].Status = "in_progress"
			out[i].Description = description
			reached = true
			continue
		}
		if !reached {
			out[i].Status = "completed"
		}
	}
	return out
}
