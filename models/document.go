package models

import "strings"

// DocumentType classifies an input document. The set is closed: anything the
// classifier cannot recognize maps to DocTypeUnknown, never to an empty value.
type DocumentType string

const (
	DocTypePolicy     DocumentType = "POLICY"
	DocTypeLaw        DocumentType = "LAW"
	DocTypeRegulation DocumentType = "REGULATION"
	DocTypeStandard   DocumentType = "STANDARD"
	DocTypeContract   DocumentType = "CONTRACT"
	DocTypeGuideline  DocumentType = "GUIDELINE"
	DocTypeFramework  DocumentType = "FRAMEWORK"
	DocTypeDecree     DocumentType = "DECREE"
	DocTypeCode       DocumentType = "CODE"
	DocTypeCircular   DocumentType = "CIRCULAR"
	DocTypeNotice     DocumentType = "NOTICE"
	DocTypeUnknown    DocumentType = "UNKNOWN"
)

// documentTypes is the membership table for NormalizeDocumentType.
var documentTypes = map[DocumentType]bool{
	DocTypePolicy:     true,
	DocTypeLaw:        true,
	DocTypeRegulation: true,
	DocTypeStandard:   true,
	DocTypeContract:   true,
	DocTypeGuideline:  true,
	DocTypeFramework:  true,
	DocTypeDecree:     true,
	DocTypeCode:       true,
	DocTypeCircular:   true,
	DocTypeNotice:     true,
	DocTypeUnknown:    true,
}

// NormalizeDocumentType coerces a raw string into the closed DocumentType set.
// Unrecognized input maps to DocTypeUnknown.
func NormalizeDocumentType(raw string) DocumentType {
	dt := DocumentType(strings.ToUpper(strings.TrimSpace(raw)))
	if documentTypes[dt] {
		return dt
	}
	return DocTypeUnknown
}

const (
	// MaxScopeTopics bounds DocumentProfile.Scope.
	MaxScopeTopics = 5
	// MaxKeyTopics bounds DocumentProfile.KeyTopics.
	MaxKeyTopics = 8
)

// DocumentProfile is the result of classifying one input document. It is
// created once per document per analysis run and never mutated afterward.
// Every field carries a non-empty default; the classifier never returns
// blank required fields.
type DocumentProfile struct {
	DocumentType DocumentType `json:"document_type"`
	Title        string       `json:"title"`
	Authority    string       `json:"authority,omitempty"`
	Scope        []string     `json:"scope"`
	KeyTopics    []string     `json:"key_topics"`
}

// StructuralAnalysis carries the structural hints produced alongside raw text
// extraction: section headers, legal references, obligation phrases, and a
// rough quality signal for scanned or corrupt input.
type StructuralAnalysis struct {
	Sections          []string `json:"sections"`
	LegalReferences   []string `json:"legal_references"`
	ObligationPhrases []string `json:"obligation_phrases"`
	CharCount         int      `json:"char_count"`
	WordCount         int      `json:"word_count"`
	LikelyScanned     bool     `json:"likely_scanned"`
}

// ExtractedDocument bundles the raw text of one input document with its
// structural analysis.
type ExtractedDocument struct {
	Filename   string             `json:"filename"`
	Text       string             `json:"text"`
	Structural StructuralAnalysis `json:"structural"`
}
