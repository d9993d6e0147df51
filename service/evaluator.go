package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"policyreview-backend/models"
)

const (
	// evaluatorConcurrency bounds in-flight reasoning calls. This is a
	// deliberate backpressure mechanism against the backend's throughput
	// limits, not an oversight.
	evaluatorConcurrency = 3

	// evaluatorSampleLength bounds the target-text sample per call.
	evaluatorSampleLength = 2000
)

// ComplianceEvaluator assesses the target document against each requirement,
// producing exactly one tri-state verdict per requirement in input order.
type ComplianceEvaluator struct {
	client      *ReasoningClient
	concurrency int
}

// NewComplianceEvaluator creates a compliance evaluator.
func NewComplianceEvaluator(client *ReasoningClient) *ComplianceEvaluator {
	return &ComplianceEvaluator{client: client, concurrency: evaluatorConcurrency}
}

const evaluatorSystemPrompt = `You are a legal compliance checker. Compare target document clauses against individual requirements and give precise assessments. Answer with JSON only.`

// parsedVerdict is the loose wire shape parsed from reasoning output.
type parsedVerdict struct {
	Status               string `json:"status"`
	Feedback             string `json:"feedback"`
	Comments             string `json:"comments"`
	SuggestedAmendment   string `json:"suggested_amendment"`
	Priority             string `json:"priority"`
	CompliancePercentage int    `json:"compliance_percentage"`
}

// EvaluateBatch evaluates every requirement independently with bounded
// concurrency. The output always has one verdict per requirement, in the
// same order: completions are written into an indexed slice, never appended.
// An individual call failure yields the synthetic neutral verdict for that
// requirement and never aborts the batch.
func (e *ComplianceEvaluator) EvaluateBatch(ctx context.Context, requirements []models.Requirement, targetText string, targetProfile models.DocumentProfile) []models.ComplianceVerdict {
	verdicts := make([]models.ComplianceVerdict, len(requirements))
	if len(requirements) == 0 {
		return verdicts
	}

	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup
	for i := range requirements {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			verdicts[i] = e.evaluateOne(ctx, requirements[i], targetText, targetProfile)
		}(i)
	}
	wg.Wait()

	return verdicts
}

// evaluateOne assesses a single requirement. Any failure collapses to the
// neutral verdict.
func (e *ComplianceEvaluator) evaluateOne(ctx context.Context, req models.Requirement, targetText string, targetProfile models.DocumentProfile) models.ComplianceVerdict {
	prompt := fmt.Sprintf(`Check whether this target document satisfies the requirement.

REQUIREMENT:
Item: %s
Category: %s
Mandatory: %t
Description: %s

TARGET DOCUMENT (%s: %s), relevant sample:
%s

Answer in exactly this JSON format:
{
  "status": "ALIGNED|MODERATE|UNALIGNED",
  "feedback": "what the document does or does not cover",
  "comments": "supporting evidence quoted from the document, or empty",
  "suggested_amendment": "specific suggested change, or empty if aligned",
  "priority": "HIGH|MEDIUM|LOW",
  "compliance_percentage": 0
}

Rules:
- ALIGNED: the requirement is fully met
- UNALIGNED: the requirement is missing or contradicted
- MODERATE: the requirement is addressed but incomplete
- Quote exact document text in comments when possible`,
		req.Item, req.Category, req.Mandatory, req.RequirementText,
		targetProfile.DocumentType, targetProfile.Title,
		sample(targetText, evaluatorSampleLength))

	response, err := e.client.Generate(ctx, prompt, evaluatorSystemPrompt, 1024)
	if err != nil {
		log.Printf("Warning: evaluation of %q failed, using neutral verdict: %v", req.Item, err)
		return models.NeutralVerdict()
	}

	var parsed parsedVerdict
	if !decodeJSONObject(response, &parsed) {
		log.Printf("Warning: evaluation output for %q not parseable, using neutral verdict", req.Item)
		return models.NeutralVerdict()
	}

	status := models.NormalizeStatus(parsed.Status)
	percentage := parsed.CompliancePercentage
	if percentage < 0 || percentage > 100 {
		percentage = defaultPercentage(status)
	}

	return models.ComplianceVerdict{
		Status:               status,
		Feedback:             firstNonEmpty(parsed.Feedback, "No detailed feedback was produced."),
		Comments:             parsed.Comments,
		SuggestedAmendment:   parsed.SuggestedAmendment,
		Priority:             models.NormalizePriority(parsed.Priority),
		CompliancePercentage: percentage,
	}
}

// defaultPercentage maps a status to an informational placeholder score when
// the backend gives an out-of-range value.
func defaultPercentage(status models.ComplianceStatus) int {
	switch status {
	case models.StatusAligned:
		return 90
	case models.StatusUnaligned:
		return 10
	default:
		return 55
	}
}
