package yomi

import (
	"fmt"
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// KagomeDictionary looks readings up with the IPA morphological dictionary.
// A base text split into several morphemes reads as their concatenation.
type KagomeDictionary struct {
	t *tokenizer.Tokenizer
}

// NewKagomeDictionary loads the IPA dictionary.
func NewKagomeDictionary() (*KagomeDictionary, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("failed to create tokenizer: %w", err)
	}
	return &KagomeDictionary{t: t}, nil
}

// Readings returns the dictionary reading of base in hiragana, or nothing
// when any morpheme is unknown.
func (d *KagomeDictionary) Readings(base string) []string {
	var b strings.Builder
	for _, token := range d.t.Tokenize(base) {
		if token.Class == tokenizer.DUMMY || token.Class == tokenizer.UNKNOWN {
			return nil
		}
		reading, ok := token.Reading()
		if !ok || reading == "*" {
			return nil
		}
		b.WriteString(toHiragana(reading))
	}
	if b.Len() == 0 {
		return nil
	}
	return []string{b.String()}
}

func toHiragana(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'ァ' && r <= 'ヶ' {
			return r - 0x60
		}
		return r
	}, s)
}
