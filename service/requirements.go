package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"policyreview-backend/models"
)

// MaxRequirements caps the checklist size to bound downstream evaluation
// cost.
const MaxRequirements = 12

// requirementSampleLength bounds the per-document text sample in the
// extraction prompt.
const requirementSampleLength = 3000

// RequirementExtractor derives discrete, checkable requirements from the
// reference material. Extraction never returns an empty list: when the
// reasoning path yields nothing usable, the canonical fallback set is
// substituted.
type RequirementExtractor struct {
	client *ReasoningClient
}

// NewRequirementExtractor creates a requirement extractor.
func NewRequirementExtractor(client *ReasoningClient) *RequirementExtractor {
	return &RequirementExtractor{client: client}
}

const extractorSystemPrompt = `You are a legal analyst. Extract specific, checkable requirements from reference legal documents. Focus on mandatory obligations, prohibited actions, and measurable criteria. Answer with a JSON array only.`

// parsedRequirement is the loose wire shape parsed from reasoning output.
type parsedRequirement struct {
	Chapter         string `json:"chapter"`
	Item            string `json:"item"`
	RequirementText string `json:"requirement_text"`
	SourceReference string `json:"source_reference"`
	Category        string `json:"category"`
	Mandatory       bool   `json:"mandatory"`
}

// Extract derives the requirement list from bounded samples of the reference
// text and both document profiles. Malformed entries are repaired or dropped
// rather than failing the batch; a fully unusable result triggers the
// canonical fallback set. Output is never empty and never exceeds
// MaxRequirements.
func (e *RequirementExtractor) Extract(ctx context.Context, referenceText string, referenceProfile models.DocumentProfile, targetText string, targetProfile models.DocumentProfile) []models.Requirement {
	prompt := fmt.Sprintf(`Derive a checklist of discrete requirements from this reference document.

REFERENCE DOCUMENT (%s: %s):
%s

TARGET DOCUMENT UNDER REVIEW (%s: %s):
%s

Extract at most %d requirements in exactly this JSON format:
[
  {
    "chapter": "grouping label",
    "item": "short requirement name",
    "requirement_text": "full requirement description",
    "source_reference": "section or article reference",
    "category": "one of: %s",
    "mandatory": true
  }
]

Focus on mandatory clauses, prohibited terms, and specific timeframes, amounts, or percentages. Answer with the JSON array only.`,
		referenceProfile.DocumentType, referenceProfile.Title,
		sample(referenceText, requirementSampleLength),
		targetProfile.DocumentType, targetProfile.Title,
		sample(targetText, 1000),
		MaxRequirements,
		categoryList())

	response, err := e.client.Generate(ctx, prompt, extractorSystemPrompt, 2048)
	if err != nil {
		log.Printf("Warning: requirement extraction call failed, using fallback set: %v", err)
		return FallbackRequirements(referenceProfile)
	}

	var parsed []parsedRequirement
	if !decodeJSONArray(response, &parsed) {
		log.Printf("Warning: requirement extraction output not parseable, using fallback set")
		return FallbackRequirements(referenceProfile)
	}

	requirements := make([]models.Requirement, 0, len(parsed))
	for _, p := range parsed {
		text := strings.TrimSpace(p.RequirementText)
		if text == "" {
			continue
		}
		requirements = append(requirements, models.Requirement{
			Chapter:         firstNonEmpty(p.Chapter, "General Provisions"),
			Item:            firstNonEmpty(p.Item, sample(text, 60)),
			RequirementText: text,
			SourceReference: firstNonEmpty(p.SourceReference, referenceProfile.Title),
			Category:        models.NormalizeCategory(p.Category),
			Mandatory:       p.Mandatory,
		})
		if len(requirements) == MaxRequirements {
			break
		}
	}

	if len(requirements) == 0 {
		log.Printf("Warning: requirement extraction yielded zero valid items, using fallback set")
		return FallbackRequirements(referenceProfile)
	}

	return requirements
}

func categoryList() string {
	names := make([]string, 0, len(models.RequirementCategories))
	for _, c := range models.RequirementCategories {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}

// canonicalRequirements is the deterministic fallback set. It covers every
// core policy category so a degraded run still produces a meaningful
// checklist.
var canonicalRequirements = []models.Requirement{
	{
		Chapter:         "Employment Relationship",
		Item:            "Employment definition",
		RequirementText: "The document defines the employment relationship, the parties to it, and the nature and location of the work performed.",
		SourceReference: "Canonical checklist",
		Category:        models.CategoryEmploymentTerms,
		Mandatory:       true,
	},
	{
		Chapter:         "Compensation",
		Item:            "Compensation terms",
		RequirementText: "The document states the wage or salary, the payment schedule, and any allowances or deductions applied to pay.",
		SourceReference: "Canonical checklist",
		Category:        models.CategoryCompensationBenefits,
		Mandatory:       true,
	},
	{
		Chapter:         "Working Time",
		Item:            "Working hours",
		RequirementText: "The document specifies normal working hours, rest breaks, and the treatment of overtime work and its compensation.",
		SourceReference: "Canonical checklist",
		Category:        models.CategoryWorkingConditions,
		Mandatory:       true,
	},
	{
		Chapter:         "Compensation",
		Item:            "Benefits provision",
		RequirementText: "The document describes employee benefits such as insurance, pensions, or end-of-service entitlements.",
		SourceReference: "Canonical checklist",
		Category:        models.CategoryCompensationBenefits,
		Mandatory:       false,
	},
	{
		Chapter:         "Leave",
		Item:            "Leave entitlements",
		RequirementText: "The document grants annual leave, sick leave, and other statutory leave entitlements with their durations and conditions.",
		SourceReference: "Canonical checklist",
		Category:        models.CategoryLeavePolicies,
		Mandatory:       true,
	},
	{
		Chapter:         "Termination",
		Item:            "Termination conditions",
		RequirementText: "The document sets out grounds for termination, notice periods, and any severance or end-of-service obligations.",
		SourceReference: "Canonical checklist",
		Category:        models.CategoryTermination,
		Mandatory:       true,
	},
	{
		Chapter:         "Confidentiality",
		Item:            "Confidentiality obligations",
		RequirementText: "The document imposes confidentiality obligations and defines the scope and duration of any non-compete restriction.",
		SourceReference: "Canonical checklist",
		Category:        models.CategoryConfidentiality,
		Mandatory:       false,
	},
	{
		Chapter:         "Confidentiality",
		Item:            "Intellectual property ownership",
		RequirementText: "The document assigns ownership of work product and intellectual property created in the course of employment.",
		SourceReference: "Canonical checklist",
		Category:        models.CategoryIntellectualProperty,
		Mandatory:       false,
	},
	{
		Chapter:         "Health and Safety",
		Item:            "Health and safety duties",
		RequirementText: "The document assigns workplace health and safety duties and references applicable occupational safety rules.",
		SourceReference: "Canonical checklist",
		Category:        models.CategoryHealthSafety,
		Mandatory:       true,
	},
	{
		Chapter:         "Disputes",
		Item:            "Dispute resolution",
		RequirementText: "The document establishes a dispute resolution mechanism, such as a grievance procedure, arbitration, or competent court.",
		SourceReference: "Canonical checklist",
		Category:        models.CategoryDisputeResolution,
		Mandatory:       false,
	},
	{
		Chapter:         "Compliance",
		Item:            "Regulatory compliance",
		RequirementText: "The document commits the parties to comply with applicable laws and regulations governing the employment relationship.",
		SourceReference: "Canonical checklist",
		Category:        models.CategoryCompliance,
		Mandatory:       true,
	},
}

// maxSynthesizedRequirements bounds how many topic-derived requirements the
// fallback may add on top of the canonical set.
const maxSynthesizedRequirements = 2

// FallbackRequirements returns the canonical requirement set, extended with
// a synthesized requirement per uncovered key topic of the reference profile,
// up to the overall cap.
func FallbackRequirements(referenceProfile models.DocumentProfile) []models.Requirement {
	requirements := make([]models.Requirement, len(canonicalRequirements))
	copy(requirements, canonicalRequirements)

	covered := make(map[string]bool)
	for _, r := range requirements {
		for _, word := range strings.Fields(strings.ToLower(r.RequirementText)) {
			covered[strings.Trim(word, ".,;")] = true
		}
	}

	added := 0
	for _, topic := range referenceProfile.KeyTopics {
		if added == maxSynthesizedRequirements || len(requirements) == MaxRequirements {
			break
		}
		normalized := strings.ToLower(strings.TrimSpace(topic))
		if normalized == "" || normalized == "general" || covered[normalized] {
			continue
		}
		requirements = append(requirements, models.Requirement{
			Chapter:         "Reference Topics",
			Item:            fmt.Sprintf("Coverage of %s", normalized),
			RequirementText: fmt.Sprintf("The document addresses %s consistently with the reference material.", normalized),
			SourceReference: referenceProfile.Title,
			Category:        models.CategoryOther,
			Mandatory:       false,
		})
		added++
	}

	return requirements
}
