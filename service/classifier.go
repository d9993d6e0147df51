package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"policyreview-backend/models"
)

// Classifier determines a document's profile from its text. Implementations
// never fail: classification always yields a fully-populated profile, falling
// back to defaults when the text gives nothing to work with.
type Classifier interface {
	Classify(ctx context.Context, text string) models.DocumentProfile
}

// classifierSampleLength bounds the text prefix handed to the reasoning
// backend. Full-document classification is intentionally avoided for cost.
const classifierSampleLength = 3000

const (
	defaultTitle     = "Untitled Document"
	defaultAuthority = "Unspecified authority"
)

// HeuristicClassifier classifies by keyword scanning alone. It serves both as
// the fallback behind the reasoning classifier and as a standalone strategy
// when the backend is known to be down.
type HeuristicClassifier struct {
	// Default is the type assigned when no keyword set matches. Reference
	// documents default to Law, targets to Policy.
	Default models.DocumentType
}

// typeKeywords maps category-indicative keyword sets to document types,
// checked in order: more specific phrases first.
var typeKeywords = []struct {
	docType  models.DocumentType
	keywords []string
}{
	{models.DocTypeDecree, []string{"royal decree", "decree"}},
	{models.DocTypeRegulation, []string{"ministerial decision", "regulation", "regulatory"}},
	{models.DocTypeCircular, []string{"circular"}},
	{models.DocTypeNotice, []string{"public notice"}},
	{models.DocTypeContract, []string{"contract", "agreement", "party of the first part"}},
	{models.DocTypeStandard, []string{"standard", "iso "}},
	{models.DocTypeGuideline, []string{"guideline", "guidance"}},
	{models.DocTypeCode, []string{"labor code", "code of"}},
	{models.DocTypeLaw, []string{"law", "act ", "statute"}},
	{models.DocTypePolicy, []string{"policy", "procedure", "manual"}},
}

// topicKeywords is the fixed scope/topic vocabulary scanned by the heuristic.
var topicKeywords = []string{
	"employment", "compensation", "salary", "wages", "benefits",
	"working hours", "overtime", "leave", "termination", "probation",
	"confidentiality", "non-compete", "intellectual property",
	"dispute", "arbitration", "health", "safety", "data protection",
}

// Classify scans the full text for category-indicative keywords and builds a
// profile with non-empty defaults for every field.
func (h *HeuristicClassifier) Classify(_ context.Context, text string) models.DocumentProfile {
	lower := strings.ToLower(text)

	docType := h.Default
	if docType == "" {
		docType = models.DocTypeUnknown
	}
	for _, entry := range typeKeywords {
		matched := false
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				matched = true
				break
			}
		}
		if matched {
			docType = entry.docType
			break
		}
	}

	var topics []string
	for _, kw := range topicKeywords {
		if strings.Contains(lower, kw) {
			topics = append(topics, kw)
		}
		if len(topics) == models.MaxKeyTopics {
			break
		}
	}

	scope := topics
	if len(scope) > models.MaxScopeTopics {
		scope = scope[:models.MaxScopeTopics]
	}
	if len(scope) == 0 {
		scope = []string{"general"}
	}
	if len(topics) == 0 {
		topics = []string{"general"}
	}

	return models.DocumentProfile{
		DocumentType: docType,
		Title:        titleFromText(text),
		Authority:    defaultAuthority,
		Scope:        scope,
		KeyTopics:    topics,
	}
}

// titleFromText uses the first substantial line of the document as a title.
func titleFromText(text string) string {
	for _, line := range strings.Split(sample(text, 500), "\n") {
		line = strings.TrimSpace(line)
		if len(line) >= 8 {
			if len(line) > 120 {
				line = line[:120]
			}
			return line
		}
	}
	return defaultTitle
}

// ReasoningClassifier asks the reasoning backend for a structured profile and
// hands unusable output to its fallback. Classification is non-deterministic
// across runs but always yields a valid profile.
type ReasoningClassifier struct {
	client   *ReasoningClient
	fallback Classifier
}

// NewReasoningClassifier creates a classifier backed by the reasoning client
// with a heuristic fallback for the given default type.
func NewReasoningClassifier(client *ReasoningClient, fallbackDefault models.DocumentType) *ReasoningClassifier {
	return &ReasoningClassifier{
		client:   client,
		fallback: &HeuristicClassifier{Default: fallbackDefault},
	}
}

const classifierSystemPrompt = `You are an expert policy and legal document analyst. Classify documents precisely and answer with JSON only.`

// classifiedProfile is the loose wire shape parsed from reasoning output.
type classifiedProfile struct {
	DocumentType string   `json:"document_type"`
	Title        string   `json:"title"`
	Authority    string   `json:"authority"`
	Scope        []string `json:"scope"`
	KeyTopics    []string `json:"key_topics"`
}

// Classify sends a bounded text prefix to the backend and parses the reply.
// Parse or call failure falls back to keyword classification.
func (r *ReasoningClassifier) Classify(ctx context.Context, text string) models.DocumentProfile {
	prompt := fmt.Sprintf(`Analyze this document and classify it.

DOCUMENT CONTENT:
%s

Answer in exactly this JSON format:
{
  "document_type": "[POLICY/LAW/REGULATION/STANDARD/CONTRACT/GUIDELINE/FRAMEWORK/DECREE/CODE/CIRCULAR/NOTICE]",
  "title": "descriptive document title",
  "authority": "issuing authority or organization",
  "scope": ["topic1", "topic2"],
  "key_topics": ["topic1", "topic2", "topic3"]
}`, sample(text, classifierSampleLength))

	response, err := r.client.Generate(ctx, prompt, classifierSystemPrompt, 1024)
	if err != nil {
		log.Printf("Warning: classification call failed, using heuristics: %v", err)
		return r.fallback.Classify(ctx, text)
	}

	var parsed classifiedProfile
	if !decodeJSONObject(response, &parsed) {
		log.Printf("Warning: classification output not parseable, using heuristics")
		return r.fallback.Classify(ctx, text)
	}

	profile := models.DocumentProfile{
		DocumentType: models.NormalizeDocumentType(parsed.DocumentType),
		Title:        firstNonEmpty(parsed.Title, titleFromText(text)),
		Authority:    firstNonEmpty(parsed.Authority, defaultAuthority),
		Scope:        clampStrings(parsed.Scope, models.MaxScopeTopics),
		KeyTopics:    clampStrings(parsed.KeyTopics, models.MaxKeyTopics),
	}
	if len(profile.Scope) == 0 {
		profile.Scope = []string{"general"}
	}
	if len(profile.KeyTopics) == 0 {
		profile.KeyTopics = []string{"general"}
	}
	return profile
}
