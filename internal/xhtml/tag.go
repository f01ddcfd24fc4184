// Package xhtml is a lenient, allocation-light tag scanner for the markup
// found inside EPUB containers. Tags are views into the scanned source and
// never copy it.
package xhtml

import "strings"

// Kind classifies a scanned tag.
type Kind int

const (
	Opening Kind = iota
	Closing
	SelfClosing
)

func (k Kind) String() string {
	switch k {
	case Opening:
		return "opening"
	case Closing:
		return "closing"
	case SelfClosing:
		return "self-closing"
	default:
		return "unknown"
	}
}

// Tag is one scanned tag. Leading holds the text between the previous tag
// (or the scan offset) and this one.
type Tag struct {
	Name    string
	Kind    Kind
	Leading string

	source string
	start  int
	end    int
}

// Root returns the synthetic tag that encloses the whole source. Its name is
// empty, and scanning from it closes it at the end of input.
func Root(source string) Tag {
	return Tag{Kind: Opening, source: source}
}

// FindFirst returns the first non-closing tag named name in source.
func FindFirst(source, name string) (Tag, bool, error) {
	return Root(source).FirstChild(name)
}

// Before is the byte offset of the tag's '<'.
func (t Tag) Before() int { return t.start }

// After is the byte offset just past the tag's '>'.
func (t Tag) After() int { return t.end }

// Raw returns the tag's own markup, brackets included.
func (t Tag) Raw() string { return t.source[t.start:t.end] }

// Source returns the document the tag was scanned from.
func (t Tag) Source() string { return t.source }

// IsRoot reports whether t is the synthetic root tag.
func (t Tag) IsRoot() bool { return t.Name == "" }

// IsDeclaration reports whether t is a comment, doctype, CDATA section or
// processing instruction.
func (t Tag) IsDeclaration() bool {
	return strings.HasPrefix(t.Name, "!") || strings.HasPrefix(t.Name, "?")
}

// Iter starts a cursor just after t. A cursor over an opening tag stops once
// that tag is closed; one over a self-closing tag yields nothing.
func (t Tag) Iter() *Iter {
	it := &Iter{source: t.source, pos: t.end}
	if t.Kind == Opening {
		it.stack = []frame{{pos: t.end, name: t.Name}}
	}
	return it
}

// FirstChild returns the first descendant element named name, or any element
// when name is empty.
func (t Tag) FirstChild(name string) (Tag, bool, error) {
	if name == "" {
		return t.Iter().NextByEl()
	}
	return t.Iter().NextByEl(name)
}

// End scans to the tag that closes t and returns it with the inner markup.
// A self-closing tag is its own end and has no inner markup.
func (t Tag) End() (Tag, string, error) {
	return t.Iter().StepOut(t)
}

// Attr returns the value of the named attribute. A bare attribute has its own
// name as value.
func (t Tag) Attr(name string) (string, bool, error) {
	return parseAttr(t.Raw(), t.start, name)
}

// SpanWith returns the source text between t and other, in either order.
func (t Tag) SpanWith(other Tag) string {
	if t.end <= other.start {
		return t.source[t.end:other.start]
	}
	return t.source[other.end:t.start]
}
