package yomi

import (
	"bytes"
	"testing"
)

func TestFixLittleYomi(t *testing.T) {
	tests := []struct {
		base    string
		reading string
		want    string
	}{
		{"日和", "びより", "びより"},
		{"清", "きよ", "きよ"},
		{"喋", "しやべ", "しゃべ"},
		{"華", "きや", "きゃ"},
		{"奢", "しや", "しゃ"},
		{"椒", "しよう", "しょう"},
		{"弱", "じやく", "じゃく"},
		{"手", "しゆ", "しゅ"},
		{"榴", "りゆう", "りゅう"},
		{"百", "ぴやく", "ぴゃく"},
		{"焼", "しよう", "しょう"},
		{"車", "しや", "しゃ"},
		{"驚", "きよう", "きょう"},
		{"嬌", "きよう", "きょう"},
		{"怯", "きよう", "きょう"},
		{"厨", "ちゆう", "ちゅう"},
		{"頭", "じゆう", "じゅう"},
		{"薯", "じよ", "じょ"},
		{"玩具", "おもちや", "おもちゃ"},
		{"親父", "お や じ", "おやじ"},
		{"山", "やま", "やま"},
		{"宿", "やど", "やど"},
		{"部屋", "へや", "へや"},
		{"名", "な", "な"},
	}
	for _, tt := range tests {
		if got := FixLittleYomi(tt.base, tt.reading); got != tt.want {
			t.Errorf("FixLittleYomi(%q, %q) = %q, want %q", tt.base, tt.reading, got, tt.want)
		}
	}
}

type fakeDictionary map[string][]string

func (d fakeDictionary) Readings(base string) []string { return d[base] }

func TestFixerDictionaryException(t *testing.T) {
	f := NewFixer(nil, fakeDictionary{"清吉": {"きよきち"}})
	if got := f.Fix("清吉", "きよきち"); got != "きよきち" {
		t.Errorf("Fix(清吉) = %q, want きよきち", got)
	}
	if got := f.Fix("清", "きよ"); got != "きょ" {
		t.Errorf("Fix(清) without exceptions = %q, want きょ", got)
	}
}

func TestWrite(t *testing.T) {
	text := "山野光波、喋る。\n"
	spans := []Span{
		{Start: 0, End: 3, Reading: "やま"},
		{Start: 15, End: 18, Reading: "しやべ"},
	}

	var buf bytes.Buffer
	if err := Write(&buf, text, spans, NewFixer(DefaultExceptions, nil)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	want := "0:3:山:やま\n15:18:喋:しゃべ\n"
	if buf.String() != want {
		t.Errorf("Write() = %q, want %q", buf.String(), want)
	}

	buf.Reset()
	if err := Write(&buf, text, spans[1:], nil); err != nil {
		t.Fatalf("Write(nil fixer) error = %v", err)
	}
	if buf.String() != "15:18:喋:しやべ\n" {
		t.Errorf("Write(nil fixer) = %q", buf.String())
	}

	if err := Write(&buf, "短", []Span{{Start: 0, End: 9, Reading: "x"}}, nil); err == nil {
		t.Error("Write() with an out-of-range span succeeded")
	}
}
