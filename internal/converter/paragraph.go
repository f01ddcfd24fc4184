package converter

import (
	"fmt"
	"strings"

	"github.com/yuanying/epub2txt/internal/apperr"
	"github.com/yuanying/epub2txt/internal/xhtml"
)

// ParagraphKind classifies a body-level element.
type ParagraphKind int

const (
	BodyText ParagraphKind = iota
	Header
	StandaloneImage
	Empty
	// Transparent elements only group other elements and are descended into.
	Transparent
)

func (k ParagraphKind) String() string {
	switch k {
	case BodyText:
		return "body"
	case Header:
		return "header"
	case StandaloneImage:
		return "image"
	case Empty:
		return "empty"
	case Transparent:
		return "transparent"
	default:
		return "unknown"
	}
}

var (
	ErrUnknownTag = fmt.Errorf("%w: unrecognised tag", apperr.ErrUnknownFormatting)
	ErrNoBody     = fmt.Errorf("%w: document has no body", apperr.ErrUnschematic)
)

// Paragraph is one body-level element. Text is its inner markup, trimmed.
type Paragraph struct {
	Text string
	Kind ParagraphKind
}

// Classify decides the kind of a body-level tag. Unknown tags are an error:
// new markup idioms need an explicit rule rather than a guess.
func Classify(tag xhtml.Tag) (Paragraph, error) {
	switch {
	case tag.IsDeclaration(), tag.Name == "div", tag.Name == "section":
		return Paragraph{Kind: Transparent}, nil
	}

	end, inner, err := tag.End()
	if err != nil {
		return Paragraph{}, err
	}
	inner = strings.TrimSpace(inner)

	switch tag.Name {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return Paragraph{Text: inner, Kind: Header}, nil
	case "svg", "img":
		return Paragraph{Text: inner, Kind: StandaloneImage}, nil
	case "hr":
		return Paragraph{Text: inner, Kind: Empty}, nil
	case "p", "a", "span":
	default:
		return Paragraph{}, fmt.Errorf("%w <%s> at offset %d", ErrUnknownTag, tag.Name, tag.Before())
	}

	if tag.Kind == xhtml.SelfClosing {
		return Paragraph{Kind: Transparent}, nil
	}

	img, ok, err := tag.Iter().NextByEl("img", "svg")
	if err != nil {
		return Paragraph{}, err
	}
	if ok {
		imgEnd, _, err := img.End()
		if err != nil {
			return Paragraph{}, err
		}
		if isBlank(tag.SpanWith(img)) && isBlank(imgEnd.SpanWith(end)) {
			return Paragraph{Text: inner, Kind: StandaloneImage}, nil
		}
	}

	br, ok, err := tag.FirstChild("br")
	if err != nil {
		return Paragraph{}, err
	}
	if ok && isBlank(tag.SpanWith(br)) && isBlank(br.SpanWith(end)) {
		return Paragraph{Text: inner, Kind: Empty}, nil
	}

	return Paragraph{Text: inner, Kind: BodyText}, nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Passage iterates the paragraphs of one content document.
type Passage struct {
	Href string
	body *xhtml.Iter
}

// NewPassage starts iterating the body of source.
func NewPassage(href, source string) (*Passage, error) {
	body, ok, err := xhtml.FindFirst(source, "body")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoBody, href)
	}
	return &Passage{Href: href, body: body.Iter()}, nil
}

// Next returns the next non-transparent paragraph. ok is false once the body
// is exhausted.
func (p *Passage) Next() (Paragraph, bool, error) {
	for {
		tag, ok, err := p.body.NextByEl()
		if err != nil || !ok {
			return Paragraph{}, false, err
		}
		para, err := Classify(tag)
		if err != nil {
			return Paragraph{}, false, err
		}
		if para.Kind == Transparent {
			continue
		}
		if tag.Kind == xhtml.Opening {
			if _, _, err := p.body.StepOut(tag); err != nil {
				return Paragraph{}, false, err
			}
		}
		return para, true, nil
	}
}
