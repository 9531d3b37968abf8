// Package shape bounds raw model replies to chat-bubble-sized text without
// cutting mid-sentence or mid-table-row when avoidable.
package shape

import (
	"strings"
	"unicode"
)

// Limits carries every shaping tunable. Zero fields fall back to the
// corresponding Default values when passed to New.
type Limits struct {
	// MaxLines caps the number of non-empty lines kept in line mode.
	MaxLines int
	// MaxChars is the line-mode character ceiling.
	MaxChars int
	// TableMaxChars is the larger ceiling applied when the reply contains
	// markdown table rows.
	TableMaxChars int
	// BoundaryRatio is the fraction of MaxChars a sentence-ending mark must
	// sit at (or past) for the truncation to cut there. Heuristic carried
	// from the original shaping behavior; tunable, not a correctness rule.
	BoundaryRatio float64
	// SentenceEnders is the punctuation set recognized as sentence bounds.
	SentenceEnders string
	// Ellipsis is appended when truncation found no sentence boundary.
	Ellipsis string
	// Placeholder substitutes an empty reply.
	Placeholder string
	// FillerPrefixes are stock opening phrases stripped from the reply start,
	// matched case-insensitively behind optional leading punctuation.
	FillerPrefixes []string
	// Connectors are short conjunctions/prepositions trimmed when dangling at
	// the end of shaped text.
	Connectors []string
}

// Default limit values.
const (
	DefaultMaxLines      = 6
	DefaultMaxChars      = 520
	DefaultTableMaxChars = 2400
	DefaultBoundaryRatio = 0.55
	DefaultEllipsis      = "…"
	DefaultPlaceholder   = "(no response)"
)

const defaultSentenceEnders = ".!?;:"

// defaultFillerPrefixes covers the stock openers seen in Spanish and English
// model output.
var defaultFillerPrefixes = []string{
	"buena pregunta",
	"excelente pregunta",
	"gran pregunta",
	"qué buena pregunta",
	"great question",
	"good question",
	"excellent question",
	"interesting question",
}

var defaultConnectors = []string{
	"y", "o", "u", "e", "de", "del", "con", "en", "que", "para", "por",
	"and", "or", "of", "with", "to", "the", "for", "a", "an",
}

// DefaultLimits returns the standard chat-bubble limits.
func DefaultLimits() Limits {
	return Limits{
		MaxLines:       DefaultMaxLines,
		MaxChars:       DefaultMaxChars,
		TableMaxChars:  DefaultTableMaxChars,
		BoundaryRatio:  DefaultBoundaryRatio,
		SentenceEnders: defaultSentenceEnders,
		Ellipsis:       DefaultEllipsis,
		Placeholder:    DefaultPlaceholder,
		FillerPrefixes: defaultFillerPrefixes,
		Connectors:     defaultConnectors,
	}
}

// Shaper transforms raw replies into bounded blocks. It holds no mutable
// state and is safe for concurrent use.
type Shaper struct {
	limits     Limits
	connectors map[string]struct{}
}

// New creates a Shaper, filling zero-valued Limits fields with defaults.
func New(limits Limits) *Shaper {
	def := DefaultLimits()
	if limits.MaxLines <= 0 {
		limits.MaxLines = def.MaxLines
	}
	if limits.MaxChars <= 0 {
		limits.MaxChars = def.MaxChars
	}
	if limits.TableMaxChars <= 0 {
		limits.TableMaxChars = def.TableMaxChars
	}
	if limits.BoundaryRatio <= 0 {
		limits.BoundaryRatio = def.BoundaryRatio
	}
	if limits.SentenceEnders == "" {
		limits.SentenceEnders = def.SentenceEnders
	}
	if limits.Ellipsis == "" {
		limits.Ellipsis = def.Ellipsis
	}
	if limits.Placeholder == "" {
		limits.Placeholder = def.Placeholder
	}
	if limits.FillerPrefixes == nil {
		limits.FillerPrefixes = def.FillerPrefixes
	}
	if limits.Connectors == nil {
		limits.Connectors = def.Connectors
	}

	connectors := make(map[string]struct{}, len(limits.Connectors))
	for _, w := range limits.Connectors {
		connectors[strings.ToLower(w)] = struct{}{}
	}
	return &Shaper{limits: limits, connectors: connectors}
}

// Shape bounds a raw reply. Every input, including the empty string, maps to
// a defined output; character positions are rune positions.
func (s *Shaper) Shape(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return s.limits.Placeholder
	}

	text := s.stripFillerPrefix(raw)
	if strings.TrimSpace(text) == "" {
		return s.limits.Placeholder
	}

	if hasTableRow(text) {
		return s.shapeTable(text)
	}
	return s.shapeLines(text)
}

// stripFillerPrefix removes one leading denylisted phrase together with any
// punctuation hugging it.
func (s *Shaper) stripFillerPrefix(text string) string {
	runes := []rune(strings.TrimLeft(text, " \t\n"))

	lead := 0
	for lead < len(runes) && isOpeningPunct(runes[lead]) {
		lead++
	}
	rest := runes[lead:]

	for _, phrase := range s.limits.FillerPrefixes {
		pr := []rune(phrase)
		if len(rest) < len(pr) {
			continue
		}
		if !strings.EqualFold(string(rest[:len(pr)]), phrase) {
			continue
		}
		tail := rest[len(pr):]
		i := 0
		for i < len(tail) && (isClosingPunct(tail[i]) || unicode.IsSpace(tail[i])) {
			i++
		}
		return string(tail[i:])
	}
	return text
}

func isOpeningPunct(r rune) bool {
	return strings.ContainsRune("¡¿!\"'(", r)
}

func isClosingPunct(r rune) bool {
	return strings.ContainsRune("!.,:;?\")", r)
}

// hasTableRow reports whether any line looks like a markdown table row.
func hasTableRow(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "|") {
			return true
		}
	}
	return false
}

// shapeTable applies the table-mode ceiling, never leaving a dangling
// half-row when a row boundary exists.
func (s *Shaper) shapeTable(text string) string {
	runes := []rune(text)
	if len(runes) <= s.limits.TableMaxChars {
		return dropTrailingPartialRow(text)
	}

	cut := string(runes[:s.limits.TableMaxChars])
	if idx := strings.LastIndex(cut, "|\n"); idx >= 0 {
		return cut[:idx+1]
	}
	return cut
}

// dropTrailingPartialRow removes the last line when it opens a table row
// without closing it, a truncation artifact.
func dropTrailingPartialRow(text string) string {
	lines := strings.Split(text, "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if strings.HasPrefix(last, "|") && !strings.HasSuffix(last, "|") {
		return strings.TrimRight(strings.Join(lines[:len(lines)-1], "\n"), "\n")
	}
	return text
}

// shapeLines keeps the first MaxLines non-empty lines, then truncates to
// MaxChars at a sentence boundary where one sits late enough.
func (s *Shaper) shapeLines(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == s.limits.MaxLines {
			break
		}
	}
	return s.truncateAtSentence(strings.Join(lines, "\n"))
}

func (s *Shaper) truncateAtSentence(text string) string {
	runes := []rune(text)
	if len(runes) <= s.limits.MaxChars {
		return s.trimDanglingConnector(text)
	}

	chunk := runes[:s.limits.MaxChars]
	floor := int(float64(s.limits.MaxChars) * s.limits.BoundaryRatio)

	if cut := lastIndexAny(chunk, s.limits.SentenceEnders); cut >= floor {
		return s.trimDanglingConnector(string(chunk[:cut+1]))
	}

	if ws := lastSpaceIndex(chunk); ws >= 0 {
		return strings.TrimRight(string(chunk[:ws]), " \t\n") + s.limits.Ellipsis
	}
	return s.trimDanglingConnector(string(chunk)) + s.limits.Ellipsis
}

// trimDanglingConnector drops a single trailing connector word plus trailing
// whitespace.
func (s *Shaper) trimDanglingConnector(text string) string {
	t := strings.TrimRight(text, " \t\n")
	i := strings.LastIndexFunc(t, unicode.IsSpace)
	if i < 0 {
		return t
	}
	if _, ok := s.connectors[strings.ToLower(t[i+1:])]; ok {
		return strings.TrimRight(t[:i], " \t\n")
	}
	return t
}

func lastIndexAny(runes []rune, set string) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if strings.ContainsRune(set, runes[i]) {
			return i
		}
	}
	return -1
}

func lastSpaceIndex(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return -1
}
