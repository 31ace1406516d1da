// Package chunker splits topically diluted documents into focused chunks
// along semantic boundary lines, carrying topic, procedure type, and keyword
// metadata for each emitted chunk.
package chunker

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/skylane-ai/aerocontext/internal/domain"
)

const (
	// minSectionChars is the floor for keeping a section open when it closes.
	minSectionChars = 100
	// maxContentKeywords is how many frequent content words join the static
	// topic keywords.
	maxContentKeywords = 3
)

var leadingNumberingRe = regexp.MustCompile(`^\s*\d+[\.\-\d]*\s*`)

// keywordStoplist excludes generic procedural vocabulary from frequency-based
// keyword extraction.
var keywordStoplist = map[string]struct{}{
	"shall": {}, "should": {}, "must": {}, "aircraft": {}, "control": {},
	"controller": {}, "procedures": {}, "procedure": {}, "between": {},
	"following": {}, "applicable": {}, "required": {}, "provide": {},
	"provided": {}, "unless": {}, "within": {}, "through": {}, "their": {},
	"these": {}, "other": {}, "which": {}, "when": {}, "will": {},
}

// section accumulates lines between two boundary matches.
type section struct {
	topic string
	title string
	lines []string
}

func (s *section) content() string {
	return strings.TrimSpace(strings.Join(s.lines, "\n"))
}

// Chunker splits documents along semantic boundaries.
type Chunker struct{}

// New creates a Chunker.
func New() *Chunker {
	return &Chunker{}
}

// Chunk scans the document line by line and emits one Chunk per retained
// section. Sections under 100 characters are dropped when they close;
// sections under 200 characters are dropped at emission. A document yielding
// one section or fewer comes back as a single unchunked Chunk.
func (c *Chunker) Chunk(doc *domain.KnowledgeDocument) []domain.Chunk {
	sections := c.scan(doc.Content)

	retained := make([]*section, 0, len(sections))
	for _, s := range sections {
		if len(s.content()) >= domain.MinChunkChars {
			retained = append(retained, s)
		}
	}

	if len(sections) <= 1 || len(retained) == 0 {
		return []domain.Chunk{c.singleChunk(doc)}
	}

	chunks := make([]domain.Chunk, 0, len(retained))
	for i, s := range retained {
		content := s.content()
		chunks = append(chunks, domain.Chunk{
			ID:            uuid.NewString(),
			ParentID:      doc.ID,
			Title:         s.title,
			Content:       content,
			Topic:         s.topic,
			ProcedureType: procedureTypes[s.topic],
			Keywords:      buildKeywords(s.topic, content),
			ChunkIndex:    i,
			TotalChunks:   len(retained),
			Metadata:      doc.Metadata,
			ParentTitle:   doc.DisplayName,
			Chunked:       true,
		})
	}
	return chunks
}

// Single wraps the whole document as one unchunked Chunk. Used when the
// quality analyzer decides a document should be embedded whole.
func (c *Chunker) Single(doc *domain.KnowledgeDocument) domain.Chunk {
	return c.singleChunk(doc)
}

// scan walks lines, opening a new section at each boundary match and closing
// the previous one. Sections under the close threshold are discarded.
func (c *Chunker) scan(content string) []*section {
	var sections []*section
	current := &section{topic: TopicGeneral, title: fallbackTitles[TopicGeneral]}

	closeCurrent := func() {
		if len(current.content()) >= minSectionChars {
			sections = append(sections, current)
		}
	}

	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			current.lines = append(current.lines, line)
			continue
		}

		if boundary := matchBoundary(line); boundary != nil {
			closeCurrent()
			current = &section{
				topic: boundary.Topic,
				title: cleanTitle(line, boundary.Topic),
				lines: []string{line},
			}
			continue
		}

		current.lines = append(current.lines, line)
	}
	closeCurrent()

	return sections
}

func (c *Chunker) singleChunk(doc *domain.KnowledgeDocument) domain.Chunk {
	topic := TopicGeneral
	if topics := primaryTopic(doc.Content); topics != "" {
		topic = topics
	}
	title := doc.DisplayName
	if title == "" {
		title = fallbackTitles[topic]
	}
	return domain.Chunk{
		ID:            uuid.NewString(),
		ParentID:      doc.ID,
		Title:         title,
		Content:       strings.TrimSpace(doc.Content),
		Topic:         topic,
		ProcedureType: procedureTypes[topic],
		Keywords:      buildKeywords(topic, doc.Content),
		ChunkIndex:    0,
		TotalChunks:   1,
		Metadata:      doc.Metadata,
		ParentTitle:   doc.DisplayName,
		Chunked:       false,
	}
}

// primaryTopic returns the highest-priority boundary topic found anywhere in
// an unchunked document, or empty when none match.
func primaryTopic(content string) string {
	for _, line := range strings.Split(content, "\n") {
		if boundary := matchBoundary(line); boundary != nil {
			return boundary.Topic
		}
	}
	return ""
}

// cleanTitle strips numbering and trailing punctuation from a boundary line,
// falling back to the topic label when nothing is left.
func cleanTitle(line, topic string) string {
	title := leadingNumberingRe.ReplaceAllString(strings.TrimSpace(line), "")
	title = strings.TrimRight(title, ".:- ")
	if title == "" {
		return fallbackTitles[topic]
	}
	return toTitleCase(title)
}

func toTitleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// buildKeywords unions the static topic keywords with up to three frequent
// content words not on the stoplist.
func buildKeywords(topic, content string) []string {
	keywords := append([]string(nil), topicKeywords[topic]...)
	seen := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		seen[k] = struct{}{}
	}

	type wordCount struct {
		word  string
		count int
	}
	counts := make(map[string]int)
	for _, field := range strings.FieldsFunc(strings.ToLower(content), func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		if len(field) < 5 {
			continue
		}
		if _, stop := keywordStoplist[field]; stop {
			continue
		}
		if _, dup := seen[field]; dup {
			continue
		}
		counts[field]++
	}

	frequent := make([]wordCount, 0, len(counts))
	for w, n := range counts {
		frequent = append(frequent, wordCount{w, n})
	}
	sort.Slice(frequent, func(i, j int) bool {
		if frequent[i].count != frequent[j].count {
			return frequent[i].count > frequent[j].count
		}
		return frequent[i].word < frequent[j].word
	})

	for i := 0; i < len(frequent) && i < maxContentKeywords; i++ {
		keywords = append(keywords, frequent[i].word)
	}
	return keywords
}

// ChunkLabel names a chunk for logs: parent id plus ordinal.
func ChunkLabel(c *domain.Chunk) string {
	return fmt.Sprintf("%s[%d/%d]", c.ParentID, c.ChunkIndex+1, c.TotalChunks)
}
