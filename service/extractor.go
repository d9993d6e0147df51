package service

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"policyreview-backend/models"

	"github.com/dslipak/pdf"
)

// DocumentExtractor turns PDF files into raw text plus a structural-analysis
// record. Scanned or corrupt input yields near-empty text; the pipeline's
// minimum-length check decides whether that is fatal.
type DocumentExtractor struct{}

// NewDocumentExtractor creates a document extractor.
func NewDocumentExtractor() *DocumentExtractor {
	return &DocumentExtractor{}
}

var sectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)^\s*(\d+(?:\.\d+)*)[.)]\s+(\S.{3,80})$`),
	regexp.MustCompile(`(?im)^\s*article\s+\d+\s*[-:.]\s*(\S.{3,80})$`),
	regexp.MustCompile(`(?im)^\s*section\s+\d+\s*[-:.]\s*(\S.{3,80})$`),
	regexp.MustCompile(`(?im)^\s*chapter\s+\d+\s*[-:.]\s*(\S.{3,80})$`),
}

var legalReferencePattern = regexp.MustCompile(`(?i)(?:royal decree|ministerial decision|law no\.?|article|regulation)\s+(?:no\.?\s*)?\d+[\w/.-]*`)

var obligationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)shall\s+(?:not\s+)?(?:be\s+)?\w+`),
	regexp.MustCompile(`(?i)must\s+(?:not\s+)?(?:be\s+)?\w+`),
	regexp.MustCompile(`(?i)(?:minimum|maximum)\s+(?:of\s+)?\d+\s*(?:days?|months?|years?|%)`),
	regexp.MustCompile(`(?i)(?:notice\s+)?period\s+of\s+\d+`),
	regexp.MustCompile(`(?i)(?:annual\s+)?leave\s+(?:entitlement|of\s+\d+\s+days?)`),
}

var whitespacePattern = regexp.MustCompile(`[ \t]+`)
var blankLinesPattern = regexp.MustCompile(`\n{3,}`)

// Extract reads one PDF file and produces its text and structural record.
func (e *DocumentExtractor) Extract(path, filename string) (models.ExtractedDocument, error) {
	reader, err := pdf.Open(path)
	if err != nil {
		return models.ExtractedDocument{}, fmt.Errorf("failed to open pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return models.ExtractedDocument{}, fmt.Errorf("failed to extract text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return models.ExtractedDocument{}, fmt.Errorf("failed to read extracted text: %w", err)
	}

	text := cleanText(buf.String())
	return models.ExtractedDocument{
		Filename:   filename,
		Text:       text,
		Structural: AnalyzeStructure(text),
	}, nil
}

// cleanText collapses runaway whitespace without destroying line structure,
// which the section scanner depends on.
func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = whitespacePattern.ReplaceAllString(text, " ")
	text = blankLinesPattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// AnalyzeStructure scans extracted text for section headers, legal
// references, and obligation phrases, and records rough quality indicators.
func AnalyzeStructure(text string) models.StructuralAnalysis {
	analysis := models.StructuralAnalysis{
		CharCount: len(text),
		WordCount: len(strings.Fields(text)),
	}

	seen := make(map[string]bool)
	for _, pattern := range sectionPatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, 25) {
			title := strings.TrimSpace(match[len(match)-1])
			if title == "" || seen[title] {
				continue
			}
			seen[title] = true
			analysis.Sections = append(analysis.Sections, title)
		}
	}

	refs := make(map[string]bool)
	for _, match := range legalReferencePattern.FindAllString(text, 25) {
		match = strings.TrimSpace(match)
		if !refs[match] {
			refs[match] = true
			analysis.LegalReferences = append(analysis.LegalReferences, match)
		}
	}

	phrases := make(map[string]bool)
	for _, pattern := range obligationPatterns {
		for _, match := range pattern.FindAllString(text, 40) {
			match = strings.ToLower(strings.TrimSpace(match))
			if !phrases[match] {
				phrases[match] = true
				analysis.ObligationPhrases = append(analysis.ObligationPhrases, match)
			}
		}
	}

	// A document with almost no words per page of content is usually a scan.
	analysis.LikelyScanned = analysis.WordCount < 40

	return analysis
}
