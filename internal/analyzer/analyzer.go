// Package analyzer scores raw knowledge documents for topical dilution to
// decide whether they need semantic chunking before indexing.
package analyzer

import (
	"math"
	"regexp"
	"strings"

	"github.com/skylane-ai/aerocontext/internal/domain"
)

// topicVocabulary is the fixed set of procedural topic phrases matched
// case-insensitively against document content.
var topicVocabulary = []string{
	"wake turbulence",
	"separation minima",
	"runway incursion",
	"radar separation",
	"approach clearance",
	"departure procedures",
	"emergency procedures",
	"holding procedures",
	"missed approach",
	"wind shear",
	"taxi procedures",
	"altimeter setting",
}

var (
	numericUnitRe = regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*(?:miles?|minutes?|feet|nm|degrees?)\b`)
	sectionRe     = regexp.MustCompile(`(?i)\b(?:miles?|minutes?|feet|nm|degrees?)\b|APPLICATION|PROCEDURE|MINIMA|SEPARATION`)
	blankLineRe   = regexp.MustCompile(`\n\s*\n`)
)

// Classification size/topic boundaries, evaluated in order.
const (
	dilutedSizeFloor  = 10000
	dilutedTopicFloor = 3
	mixedSizeFloor    = 5000
	mixedTopicFloor   = 2
	oversizeFloor     = 15000
)

// Analyzer scores documents for topical dilution.
type Analyzer struct{}

// New creates an Analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Analyze scores a single document. The classification rules are ordered;
// the oversize rule exists to catch very large documents that slip past the
// first two, so the order must not change.
func (a *Analyzer) Analyze(doc *domain.KnowledgeDocument) domain.DocumentAnalysis {
	content := doc.Content
	size := len(content)

	mainTopics := matchTopics(content)
	sections := countProceduralSections(content)

	topicCount := len(mainTopics)
	if fromSections := int(math.Ceil(float64(sections) / 3.0)); fromSections > topicCount {
		topicCount = fromSections
	}

	density := contentDensity(content)

	quality, needsChunking, priority := classify(size, topicCount)

	return domain.DocumentAnalysis{
		DocumentID:    doc.ID,
		Title:         doc.DisplayName,
		Size:          size,
		TopicCount:    topicCount,
		MainTopics:    mainTopics,
		Density:       density,
		Quality:       quality,
		NeedsChunking: needsChunking,
		Priority:      priority,
	}
}

// AnalyzeAll scores a batch of documents in input order.
func (a *Analyzer) AnalyzeAll(docs []*domain.KnowledgeDocument) []domain.DocumentAnalysis {
	out := make([]domain.DocumentAnalysis, 0, len(docs))
	for _, doc := range docs {
		out = append(out, a.Analyze(doc))
	}
	return out
}

func classify(size, topicCount int) (domain.EmbeddingQuality, bool, domain.ChunkingPriority) {
	switch {
	case size > dilutedSizeFloor && topicCount > dilutedTopicFloor:
		return domain.QualityDiluted, true, domain.PriorityHigh
	case size > mixedSizeFloor && topicCount > mixedTopicFloor:
		return domain.QualityMixed, true, domain.PriorityMedium
	case size > oversizeFloor:
		return domain.QualityDiluted, true, domain.PriorityHigh
	default:
		return domain.QualityFocused, false, domain.PriorityLow
	}
}

func matchTopics(content string) []string {
	lower := strings.ToLower(content)
	var topics []string
	for _, topic := range topicVocabulary {
		if strings.Contains(lower, topic) {
			topics = append(topics, topic)
		}
	}
	return topics
}

// countProceduralSections counts paragraphs carrying numeric units or
// structural keywords.
func countProceduralSections(content string) int {
	count := 0
	for _, paragraph := range blankLineRe.Split(content, -1) {
		if strings.TrimSpace(paragraph) == "" {
			continue
		}
		if sectionRe.MatchString(paragraph) {
			count++
		}
	}
	return count
}

// contentDensity is numeric-unit matches per 100 words.
func contentDensity(content string) float64 {
	words := len(strings.Fields(content))
	if words == 0 {
		return 0
	}
	matches := len(numericUnitRe.FindAllString(content, -1))
	return float64(matches) / float64(words) * 100
}
