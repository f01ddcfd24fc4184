// Package yomi holds furigana readings recorded against the output text and
// corrects full-size kana that should have been contracted.
package yomi

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Span ties a reading to the byte range [Start, End) of base text already
// written to the output buffer. Spans must be recomputed if that buffer is
// edited afterwards.
type Span struct {
	Start   int
	End     int
	Reading string
}

// Base returns the base text the span covers in text.
func (s Span) Base(text string) string {
	return text[s.Start:s.End]
}

// Write emits one "start:end:base:reading" line per span, after passing each
// reading through fix. A nil fix writes readings unchanged.
func Write(w io.Writer, text string, spans []Span, fix *Fixer) error {
	bw := bufio.NewWriter(w)
	for _, s := range spans {
		if s.Start < 0 || s.End > len(text) || s.End < s.Start {
			return fmt.Errorf("reading %q spans %d..%d outside text of %d bytes", s.Reading, s.Start, s.End, len(text))
		}
		base := s.Base(text)
		reading := s.Reading
		if fix != nil {
			reading = fix.Fix(base, reading)
		}
		if _, err := fmt.Fprintf(bw, "%d:%d:%s:%s\n", s.Start, s.End, base, reading); err != nil {
			return fmt.Errorf("failed to write reading: %w", err)
		}
	}
	return bw.Flush()
}

// Dictionary supplies known readings for base text, in hiragana.
type Dictionary interface {
	Readings(base string) []string
}

// DefaultExceptions are base texts whose reading genuinely contains a
// full-size や/ゆ/よ after an i-row kana.
var DefaultExceptions = []string{"清", "日和"}

// Fixer contracts small-kana readings.
type Fixer struct {
	exceptions map[string]bool
	dict       Dictionary
}

// NewFixer creates a Fixer. dict may be nil.
func NewFixer(exceptions []string, dict Dictionary) *Fixer {
	f := &Fixer{exceptions: make(map[string]bool, len(exceptions)), dict: dict}
	for _, e := range exceptions {
		f.exceptions[e] = true
	}
	return f
}

// FixLittleYomi applies Fix with the default exception list.
func FixLittleYomi(base, reading string) string {
	return defaultFixer.Fix(base, reading)
}

var defaultFixer = NewFixer(DefaultExceptions, nil)

var smallKana = map[string]string{"や": "ゃ", "ゆ": "ゅ", "よ": "ょ"}

// Fix rewrites the first や/ゆ/よ that follows an i-row kana into its small
// form. When the preceding three bytes do not start a character the reading
// carries spacing artifacts, and all spaces are removed instead.
func (f *Fixer) Fix(base, reading string) string {
	idx := strings.IndexAny(reading, "やゆよ")
	if idx < 3 {
		return reading
	}
	prev := idx - 3

	// "お や じ", "み や こ"
	if !utf8.RuneStart(reading[prev]) {
		return strings.ReplaceAll(reading, " ", "")
	}
	switch reading[prev:idx] {
	case "き", "ぎ", "し", "じ", "ち", "ぢ", "に", "ひ", "び", "ぴ", "み", "り":
	default:
		return reading
	}

	if f.exceptions[base] || f.inDictionary(base, reading) {
		return reading
	}

	next := idx + 3
	return reading[:idx] + smallKana[reading[idx:next]] + reading[next:]
}

func (f *Fixer) inDictionary(base, reading string) bool {
	if f.dict == nil {
		return false
	}
	for _, r := range f.dict.Readings(base) {
		if r == reading {
			return true
		}
	}
	return false
}
