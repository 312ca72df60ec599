// Package chunk segments request text into backend-sized pieces using a
// three-level cascade (paragraph, sentence, clause). The sentence-level
// abbreviation allow-list protects entries like "Dr." and "e.g." from a
// false-positive sentence split.
package chunk

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/book-expert/unified-tts/internal/core"
)

var paragraphSplitPattern = regexp.MustCompile(`\n{2,}`)

var abbreviations = map[string]bool{
	"mr.": true, "mrs.": true, "ms.": true, "dr.": true, "st.": true,
	"co.": true, "ltd.": true, "corp.": true, "inc.": true,
	"etc.": true, "e.g.": true, "i.e.": true, "vs.": true,
}

const sentenceEndChars = ".!?…"
const clauseDelimiters = ";:—"

// Split segments text per profile, returning the full ordered chunk
// list. Returns a *core.Error with core.KindChunkTooLarge if any unit
// still exceeds MaxWords after clause-level splitting.
func Split(text string, profile core.BackendProfile) ([]core.Chunk, error) {
	normalized := normalizeWhitespace(text)
	if normalized == "" {
		return nil, core.NewError(core.KindInvalidRequest, "text must not be empty", nil)
	}

	if !profile.NeedsChunking || fits(normalized, profile.OptimalWords, profile.MaxChars) {
		if err := requireFits(normalized, profile.MaxWords); err != nil {
			return nil, err
		}

		return []core.Chunk{{Index: 0, Text: normalized, IsTerminal: true}}, nil
	}

	var units []string

	for _, paragraph := range splitParagraphs(text) {
		units = append(units, packUnits(splitSentences(paragraph), profile)...)
	}

	chunks := make([]core.Chunk, 0, len(units))

	for i, u := range units {
		u = normalizeWhitespace(u)
		if u == "" {
			continue
		}

		if err := requireFits(u, profile.MaxWords); err != nil {
			return nil, err
		}

		chunks = append(chunks, core.Chunk{Index: len(chunks), Text: u, IsTerminal: i == len(units)-1})
	}

	if len(chunks) == 0 {
		return nil, core.NewError(core.KindInvalidRequest, "text produced no chunks", nil)
	}

	chunks[len(chunks)-1].IsTerminal = true

	return chunks, nil
}

func requireFits(text string, maxWords int) error {
	if wordCount(text) > maxWords {
		return core.NewError(core.KindChunkTooLarge,
			"segment exceeds max_words even after clause-level splitting", nil)
	}

	return nil
}

func fits(text string, optimalWords, maxChars int) bool {
	return wordCount(text) <= optimalWords && len(text) <= maxChars
}

func splitParagraphs(text string) []string {
	parts := paragraphSplitPattern.Split(text, -1)

	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}

	if len(out) == 0 {
		return []string{text}
	}

	return out
}

// splitSentences splits on ., !, ?, … followed by whitespace and an
// uppercase letter or end-of-string, skipping boundaries inside a
// protected abbreviation or a numeric decimal (e.g. "3.14").
func splitSentences(paragraph string) []string {
	runes := []rune(paragraph)

	var sentences []string

	start := 0

	for i := 0; i < len(runes); i++ {
		if !strings.ContainsRune(sentenceEndChars, runes[i]) {
			continue
		}

		if isProtectedBoundary(runes, i) {
			continue
		}

		end := i + 1
		if end < len(runes) && !unicode.IsSpace(runes[end]) {
			continue
		}

		next := skipSpace(runes, end)
		if next < len(runes) && !unicode.IsUpper(runes[next]) {
			continue
		}

		sentences = append(sentences, string(runes[start:end]))
		start = end
	}

	if start < len(runes) {
		sentences = append(sentences, string(runes[start:]))
	}

	if len(sentences) == 0 {
		return []string{paragraph}
	}

	return sentences
}

func isProtectedBoundary(runes []rune, i int) bool {
	if runes[i] == '.' {
		if i > 0 && unicode.IsDigit(runes[i-1]) && i+1 < len(runes) && unicode.IsDigit(runes[i+1]) {
			return true
		}

		if endsWithAbbreviation(runes[:i+1]) {
			return true
		}
	}

	return false
}

func endsWithAbbreviation(runes []rune) bool {
	word := lastWord(runes)

	return abbreviations[strings.ToLower(word)]
}

func lastWord(runes []rune) string {
	end := len(runes)
	start := end

	for start > 0 && !unicode.IsSpace(runes[start-1]) {
		start--
	}

	return string(runes[start:end])
}

func skipSpace(runes []rune, i int) int {
	for i < len(runes) && unicode.IsSpace(runes[i]) {
		i++
	}

	return i
}

// packUnits greedily packs consecutive sentences under OptimalWords,
// splitting any single sentence that still exceeds MaxWords at the
// clause level.
func packUnits(sentences []string, profile core.BackendProfile) []string {
	var packed []string

	var current strings.Builder

	currentWords := 0

	flush := func() {
		if current.Len() > 0 {
			packed = append(packed, current.String())
			current.Reset()
			currentWords = 0
		}
	}

	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}

		for _, piece := range splitIfTooLarge(s, profile.MaxWords) {
			words := wordCount(piece)

			if currentWords > 0 && currentWords+words > profile.OptimalWords {
				flush()
			}

			if current.Len() > 0 {
				current.WriteByte(' ')
			}

			current.WriteString(piece)
			currentWords += words
		}
	}

	flush()

	return packed
}

// splitIfTooLarge applies clause-level splitting only when a sentence
// itself exceeds MaxWords.
func splitIfTooLarge(sentence string, maxWords int) []string {
	if wordCount(sentence) <= maxWords {
		return []string{sentence}
	}

	clauses := splitClauses(sentence)
	if len(clauses) > 1 {
		return clauses
	}

	return []string{sentence}
}

func splitClauses(sentence string) []string {
	runes := []rune(sentence)

	for _, d := range clauseDelimiters {
		if idx := strings.IndexRune(sentence, d); idx >= 0 {
			return splitAtRune(runes, d)
		}
	}

	return splitAtNearestCommaPastMidpoint(sentence)
}

func splitAtRune(runes []rune, delim rune) []string {
	var parts []string

	start := 0

	for i, r := range runes {
		if r == delim {
			parts = append(parts, string(runes[start:i+1]))
			start = i + 1
		}
	}

	if start < len(runes) {
		parts = append(parts, string(runes[start:]))
	}

	return parts
}

func splitAtNearestCommaPastMidpoint(sentence string) []string {
	commas := []int{}

	for i, r := range sentence {
		if r == ',' {
			commas = append(commas, i)
		}
	}

	if len(commas) == 0 {
		return []string{sentence}
	}

	midpoint := len(sentence) / 2

	splitAt := commas[len(commas)-1]

	for _, c := range commas {
		if c >= midpoint {
			splitAt = c

			break
		}
	}

	return []string{sentence[:splitAt+1], sentence[splitAt+1:]}
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}

func normalizeWhitespace(text string) string {
	fields := strings.Fields(text)

	return strings.Join(fields, " ")
}
