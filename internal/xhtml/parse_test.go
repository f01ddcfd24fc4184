package xhtml

import (
	"errors"
	"testing"

	"github.com/yuanying/epub2txt/internal/apperr"
)

func TestParseQuotes(t *testing.T) {
	tests := []struct {
		input   string
		start   int
		end     int
		wantErr bool
	}{
		{input: ``, wantErr: true},
		{input: `"`, wantErr: true},
		{input: `""`, start: 0, end: 2},
		{input: `a"b"c`, start: 1, end: 4},
		{input: `''`, start: 0, end: 2},
		{input: `a'b'c`, start: 1, end: 4},
		{input: `a'b"c`, wantErr: true},
		{input: `a"b'c`, wantErr: true},
		{input: `a"b\""c`, start: 1, end: 6},
		{input: `a"あ"c`, start: 1, end: 6},
		{input: `"fuga">noniin`, start: 0, end: 6},
	}
	for _, tt := range tests {
		start, end, err := parseQuotes(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseQuotes(%q) error = nil, want error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseQuotes(%q) error = %v", tt.input, err)
			continue
		}
		if start != tt.start || end != tt.end {
			t.Errorf("parseQuotes(%q) = %d..%d, want %d..%d", tt.input, start, end, tt.start, tt.end)
		}
	}
}

func TestParseTag(t *testing.T) {
	tests := []struct {
		input string
		name  string
		kind  Kind
		end   int
	}{
		{input: "<hoge>", name: "hoge", kind: Opening, end: 6},
		{input: "<hoge/>", name: "hoge", kind: SelfClosing, end: 7},
		{input: "<hoge />", name: "hoge", kind: SelfClosing, end: 8},
		{input: "<hoge>after hoge", name: "hoge", kind: Opening, end: 6},
		{input: `<hoge param="fuga">noniin`, name: "hoge", kind: Opening, end: 19},
		{input: `<hoge param="fu>ga">noniin`, name: "hoge", kind: Opening, end: 20},
		{input: `<hoge param="fu\"ga">juu`, name: "hoge", kind: Opening, end: 21},
		{input: `<hoge param="あ">juu`, name: "hoge", kind: Opening, end: 18},
		{input: `<hoge param="fuga" />jooh`, name: "hoge", kind: SelfClosing, end: 21},
		{input: "</hoge>juuh", name: "hoge", kind: Closing, end: 7},
		{input: "<あ>juu", name: "あ", kind: Opening, end: 5},
		{input: `<?xml version="1.0" encoding="UTF-8"?>`, name: "?xml", kind: SelfClosing, end: 38},
		{input: "<!DOCTYPE html>", name: "!DOCTYPE", kind: SelfClosing, end: 15},
		{input: "<!-- <p>a > b</p> -->rest", name: "!--", kind: SelfClosing, end: 21},
		{input: "<![CDATA[x<y]]>", name: "![CDATA[", kind: SelfClosing, end: 15},
	}
	for _, tt := range tests {
		tag, ok, err := parseTag(tt.input, 0)
		if err != nil || !ok {
			t.Errorf("parseTag(%q) = %v, %v", tt.input, ok, err)
			continue
		}
		if tag.Name != tt.name {
			t.Errorf("parseTag(%q).Name = %q, want %q", tt.input, tag.Name, tt.name)
		}
		if tag.Kind != tt.kind {
			t.Errorf("parseTag(%q).Kind = %v, want %v", tt.input, tag.Kind, tt.kind)
		}
		if tag.Before() != 0 || tag.After() != tt.end {
			t.Errorf("parseTag(%q) span = %d..%d, want 0..%d", tt.input, tag.Before(), tag.After(), tt.end)
		}
	}
}

func TestParseTagLeading(t *testing.T) {
	tag, ok, err := parseTag("before hoge<hoge>after hoge", 0)
	if err != nil || !ok {
		t.Fatalf("parseTag() = %v, %v", ok, err)
	}
	if tag.Before() != 11 || tag.After() != 17 {
		t.Errorf("span = %d..%d, want 11..17", tag.Before(), tag.After())
	}
	if tag.Leading != "before hoge" {
		t.Errorf("Leading = %q, want %q", tag.Leading, "before hoge")
	}

	if _, ok, err := parseTag("no tags here", 0); ok || err != nil {
		t.Errorf("parseTag(no tags) = %v, %v, want false, nil", ok, err)
	}
}

func TestParseTagErrors(t *testing.T) {
	tests := []struct {
		input string
		want  error
	}{
		{input: "<", want: ErrMalformedTagName},
		{input: "</>", want: ErrMalformedTagName},
		{input: "<hoge", want: ErrMalformedTagName},
		{input: "<hoge a", want: ErrTagEnd},
		{input: `<hoge a="b>`, want: ErrUnexpectedEOF},
		{input: "</hoge/>", want: ErrMixedClosingMarks},
		{input: "<!-- never closed", want: ErrTagEnd},
	}
	for _, tt := range tests {
		_, _, err := parseTag(tt.input, 0)
		if !errors.Is(err, tt.want) {
			t.Errorf("parseTag(%q) error = %v, want %v", tt.input, err, tt.want)
		}
		if !errors.Is(err, apperr.ErrMarkup) {
			t.Errorf("parseTag(%q) error = %v, want it to wrap ErrMarkup", tt.input, err)
		}
		var syn *SyntaxError
		if !errors.As(err, &syn) {
			t.Errorf("parseTag(%q) error = %T, want *SyntaxError", tt.input, err)
		}
	}
}

func TestAttr(t *testing.T) {
	tag, _, err := parseTag(`<hoge bb="cc" dd="ee" ff gg='hh'>`, 0)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{name: "hoge"},
		{name: "bb", want: "cc", ok: true},
		{name: "cc"},
		{name: "dd", want: "ee", ok: true},
		{name: "ee"},
		{name: "ff", want: "ff", ok: true},
		{name: "gg", want: "hh", ok: true},
	}
	for _, tt := range tests {
		got, ok, err := tag.Attr(tt.name)
		if err != nil {
			t.Errorf("Attr(%q) error = %v", tt.name, err)
			continue
		}
		if got != tt.want || ok != tt.ok {
			t.Errorf("Attr(%q) = %q, %v, want %q, %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}

func TestAttrSelfClosingAndStraySlash(t *testing.T) {
	tests := []struct {
		input string
		attr  string
		want  string
	}{
		{input: `<img src="../image/gaiji.png" class="gaiji"/>`, attr: "class", want: "gaiji"},
		{input: `<img src="a.png" />`, attr: "src", want: "a.png"},
		{input: `<a / href="x.xhtml">`, attr: "href", want: "x.xhtml"},
		{input: `<item id="p-001" href="xhtml/p-001.xhtml" media-type="application/xhtml+xml"/>`, attr: "href", want: "xhtml/p-001.xhtml"},
	}
	for _, tt := range tests {
		tag, _, err := parseTag(tt.input, 0)
		if err != nil {
			t.Fatalf("parseTag(%q) error = %v", tt.input, err)
		}
		got, ok, err := tag.Attr(tt.attr)
		if err != nil || !ok {
			t.Errorf("Attr(%q) on %q = %q, %v, %v", tt.attr, tt.input, got, ok, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Attr(%q) on %q = %q, want %q", tt.attr, tt.input, got, tt.want)
		}
	}
}

func TestUnescape(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "test test", want: "test test"},
		{input: "test &amp; test", want: "test & test"},
		{input: "test &lt; test", want: "test < test"},
		{input: "test &gt; test", want: "test > test"},
		{input: "test & gt; test", want: "test & gt; test"},
		{input: "test &gt;&amp;&lt; test", want: "test >&< test"},
		{input: "&#x3042;&#12356;", want: "あい"},
	}
	for _, tt := range tests {
		if got := Unescape(tt.input); got != tt.want {
			t.Errorf("Unescape(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
