package roles

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Features is the boolean feature vector of one title. Feature i is the
// lexical evidence for Role(i).
type Features [NumRoles]bool

// Keywords lists substrings per role. Matching is done on normalised titles.
type Keywords map[Role][]string

// DefaultKeywords are the substrings that hint at each role.
var DefaultKeywords = Keywords{
	Cover:        {"表紙", "表題紙", "カバー", "cover"},
	BeforeExtra:  {"紹介", "登場人物", "口絵"},
	Foreword:     {"まえがき", "前書", "はじめに"},
	Contents:     {"目次", "もくじ", "contents", "menu"},
	Prologue:     {"プロローグ", "序章", "序幕", "序", "prologue"},
	Main:         {"章", "話", "幕"},
	Interlude:    {"幕間", "間章", "インタールード", "interlude", "断章"},
	Epilogue:     {"エピローグ", "終章", "終幕", "epilogue"},
	BonusChapter: {"外伝", "番外編", "書き下ろし", "特別編", "短編", "おまけ"},
	Afterword:    {"あとがき", "後書", "afterword"},
	AfterExtra:   {"付録", "解説", "用語集"},
	Copyright:    {"奥付", "copyright"},
}

// DefaultReliable are keywords trusted enough to veto a decoded path that
// places the title after a later role.
var DefaultReliable = Keywords{
	Cover:     {"表紙"},
	Contents:  {"目次", "contents"},
	Prologue:  {"プロローグ"},
	Epilogue:  {"エピローグ"},
	Afterword: {"あとがき"},
	Copyright: {"奥付"},
}

// Part titles are recognised by pattern rather than keyword.
var partTitlePattern = regexp.MustCompile(`第[0-9]+部|part ?[0-9]`)

var numerals = map[rune]rune{
	'零': '0', '〇': '0',
	'一': '1', '壱': '1',
	'二': '2', '弐': '2', '弍': '2',
	'三': '3', '参': '3',
	'四': '4',
	'五': '5', '伍': '5',
	'六': '6',
	'七': '7',
	'八': '8',
	'九': '9',
	'十': '0', '拾': '0',
}

var punctFolder = strings.NewReplacer("\u3000", " ", "〜", "~")

// Normalize folds full-width forms to half width, composes the title and
// lowercases it.
func Normalize(title string) string {
	s := norm.NFC.String(width.Fold.String(title))
	return strings.ToLower(punctFolder.Replace(s))
}

// FoldNumerals replaces kanji, circled and roman numerals with ASCII digits.
// Only the presence of a number matters, so multi-digit values are not
// reconstructed.
func FoldNumerals(s string) string {
	return strings.Map(func(r rune) rune {
		if d, ok := numerals[r]; ok {
			return d
		}
		switch {
		case r >= '①' && r <= '⑳':
			return '0' + (r-'①'+1)%10
		case r >= 'Ⅰ' && r <= 'Ⅻ', r >= 'ⅰ' && r <= 'ⅻ':
			return '1'
		}
		return r
	}, s)
}

// Extractor turns titles into feature vectors.
type Extractor struct {
	keywords [NumRoles][]string
	reliable [NumRoles][]string
}

// NewExtractor builds an Extractor. Keywords are normalised the same way as
// titles. Nil maps fall back to the defaults.
func NewExtractor(keywords, reliable Keywords) *Extractor {
	if keywords == nil {
		keywords = DefaultKeywords
	}
	if reliable == nil {
		reliable = DefaultReliable
	}
	e := &Extractor{}
	for role, kws := range keywords {
		if role.Valid() {
			e.keywords[role] = normalizeAll(kws)
		}
	}
	for role, kws := range reliable {
		if role.Valid() {
			e.reliable[role] = normalizeAll(kws)
		}
	}
	return e
}

func normalizeAll(kws []string) []string {
	out := make([]string, 0, len(kws))
	for _, k := range kws {
		if k = Normalize(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// Extract computes the features of a title.
func (e *Extractor) Extract(title string) Features {
	f := Normalize(title)
	n := FoldNumerals(f)

	var feats Features
	for i, kws := range e.keywords {
		feats[i] = containsAny(f, kws)
	}
	feats[PartTitle] = feats[PartTitle] || partTitlePattern.MatchString(n)
	feats[Main] = feats[Main] || strings.IndexFunc(n, unicode.IsDigit) >= 0
	return feats
}

// Reliable returns the roles a title names through a reliable keyword.
func (e *Extractor) Reliable(title string) []Role {
	f := Normalize(title)
	var out []Role
	for i, kws := range e.reliable {
		if containsAny(f, kws) {
			out = append(out, Role(i))
		}
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
