package converter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/yuanying/epub2txt/internal/apperr"
	"github.com/yuanying/epub2txt/internal/gaiji"
	"github.com/yuanying/epub2txt/internal/xhtml"
	"github.com/yuanying/epub2txt/internal/yomi"
)

// ErrUnmappedImage is returned for an inline image that is neither in the
// gaiji table nor marked as a gaiji glyph.
var ErrUnmappedImage = fmt.Errorf("%w: inline image without gaiji mapping", apperr.ErrUnknownFormatting)

// DefaultGaijiClasses mark an inline image as a glyph substitution.
var DefaultGaijiClasses = []string{"gaiji", "gaiji-line"}

// Discovery is a gaiji image registered while formatting.
type Discovery struct {
	Src string
	// Path is the archive path of the image, "" if it could not be resolved.
	Path string
}

// Formatter strips inline markup from paragraphs. Readings are recorded as
// spans over the output, and gaiji images are replaced by their mapped
// character.
type Formatter struct {
	Gaiji        *gaiji.Table
	GaijiClasses []string
	Placeholder  rune
	// Resolve maps an image src to an archive path for Discoveries.
	Resolve func(src string) string

	discoveries []Discovery
}

// NewFormatter creates a Formatter with the default gaiji classes and
// placeholder.
func NewFormatter(table *gaiji.Table) *Formatter {
	return &Formatter{
		Gaiji:        table,
		GaijiClasses: DefaultGaijiClasses,
		Placeholder:  gaiji.Placeholder,
	}
}

// Discoveries lists the gaiji images registered by this formatter.
func (f *Formatter) Discoveries() []Discovery {
	return f.discoveries
}

// Format appends the paragraph text without markup, followed by a newline.
func (f *Formatter) Format(out *strings.Builder, spans *[]yomi.Span, text string) error {
	if err := f.strip(out, spans, text); err != nil {
		return err
	}
	out.WriteByte('\n')
	return nil
}

func (f *Formatter) strip(out *strings.Builder, spans *[]yomi.Span, source string) error {
	it := xhtml.Root(source).Iter()
	for {
		tag, ok, err := it.NextByTag()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		out.WriteString(xhtml.Unescape(tag.Leading))

		switch tag.Kind {
		case xhtml.Closing:
			continue
		case xhtml.SelfClosing:
			if err := f.inline(out, tag); err != nil {
				return err
			}
		case xhtml.Opening:
			end, inner, err := it.StepOut(tag)
			if err != nil {
				return err
			}
			switch tag.Name {
			case "span", "a", "em":
				if err := f.strip(out, spans, inner); err != nil {
					return err
				}
			case "ruby":
				if err := f.ruby(out, spans, tag, end); err != nil {
					return err
				}
			default:
				return fmt.Errorf("%w <%s> inside paragraph", ErrUnknownTag, tag.Name)
			}
		}
	}
}

// inline handles a self-closing tag inside text.
func (f *Formatter) inline(out *strings.Builder, tag xhtml.Tag) error {
	switch {
	case tag.IsDeclaration():
		return nil
	case tag.Name == "br":
		out.WriteByte('\n')
		return nil
	case tag.Name == "img":
		ch, err := f.glyph(tag)
		if err != nil {
			return err
		}
		out.WriteRune(ch)
		return nil
	case tag.Name == "span", tag.Name == "a", tag.Name == "em":
		return nil
	default:
		return fmt.Errorf("%w <%s/> inside paragraph", ErrUnknownTag, tag.Name)
	}
}

// glyph looks up the character for a gaiji image, registering the image with
// the placeholder when its class marks it as a glyph.
func (f *Formatter) glyph(img xhtml.Tag) (rune, error) {
	src, ok, err := img.Attr("src")
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: <img> without src at offset %d", ErrUnmappedImage, img.Before())
	}
	if ch, ok := f.Gaiji.Lookup(src); ok {
		return ch, nil
	}

	class, _, err := img.Attr("class")
	if err != nil {
		return 0, err
	}
	if !slices.ContainsFunc(strings.Fields(class), func(c string) bool {
		return slices.Contains(f.GaijiClasses, c)
	}) {
		return 0, fmt.Errorf("%w: %s", ErrUnmappedImage, src)
	}

	f.Gaiji.Register(src, f.Placeholder)
	d := Discovery{Src: src}
	if f.Resolve != nil {
		d.Path = f.Resolve(src)
	}
	f.discoveries = append(f.discoveries, d)
	return f.Placeholder, nil
}

// ruby writes the base text of a ruby element and records one span per
// reading. Without rb elements the base text is whatever was written since
// the previous reading.
func (f *Formatter) ruby(out *strings.Builder, spans *[]yomi.Span, tag, end xhtml.Tag) error {
	it := tag.Iter()
	var (
		lastRB    [2]int
		haveRB    bool
		lastRT    = out.Len()
		discarded []yomi.Span
	)
	for {
		r, ok, err := it.NextByEl()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		out.WriteString(xhtml.Unescape(r.Leading))

		if r.Kind == xhtml.SelfClosing {
			if err := f.inline(out, r); err != nil {
				return err
			}
			continue
		}

		_, inner, err := it.StepOut(r)
		if err != nil {
			return err
		}
		switch r.Name {
		case "rb":
			start := out.Len()
			if err := f.strip(out, &discarded, inner); err != nil {
				return err
			}
			lastRB, haveRB = [2]int{start, out.Len()}, true
		case "rt":
			var reading strings.Builder
			if err := f.strip(&reading, &discarded, inner); err != nil {
				return err
			}
			base := [2]int{lastRT, out.Len()}
			if haveRB {
				base = lastRB
			}
			*spans = append(*spans, yomi.Span{Start: base[0], End: base[1], Reading: reading.String()})
			lastRT = out.Len()
			haveRB = false
		case "rp":
		default:
			return fmt.Errorf("%w <%s> inside <ruby>", ErrUnknownTag, r.Name)
		}
	}
	out.WriteString(xhtml.Unescape(end.Leading))
	return nil
}
