package xhtml

import (
	"fmt"
	"slices"
)

type frame struct {
	pos  int
	name string
}

// Iter walks the tags after a starting tag while keeping the stack of open
// elements. A closing tag that does not match the innermost open element is
// an error; the cursor never resynchronises.
type Iter struct {
	source string
	stack  []frame
	pos    int
}

// Depth is the number of open elements, the starting tag included.
func (it *Iter) Depth() int { return len(it.stack) }

// NextByTag returns the next tag named one of names (any tag when names is
// empty), updating the open-element stack for every tag it passes. The
// synthetic root closes at end of input with the trailing text as Leading.
func (it *Iter) NextByTag(names ...string) (Tag, bool, error) {
	for len(it.stack) > 0 {
		tag, ok, err := parseTag(it.source, it.pos)
		if err != nil {
			return Tag{}, false, err
		}
		if !ok {
			if len(it.stack) != 1 || it.stack[0].name != "" {
				top := it.stack[len(it.stack)-1]
				return Tag{}, false, syntaxError(len(it.source), fmt.Errorf("%w: <%s> is never closed", ErrUnexpectedEOF, top.name))
			}
			tag = Tag{
				Kind:    Closing,
				Leading: it.source[it.pos:],
				source:  it.source,
				start:   len(it.source),
				end:     len(it.source),
			}
		}
		it.pos = tag.end

		switch tag.Kind {
		case Opening:
			it.stack = append(it.stack, frame{pos: tag.end, name: tag.Name})
		case Closing:
			top := it.stack[len(it.stack)-1]
			if top.name != tag.Name {
				return Tag{}, false, syntaxError(tag.start, fmt.Errorf("%w: </%s> while <%s> is open", ErrClosingMismatch, tag.Name, top.name))
			}
			it.stack = it.stack[:len(it.stack)-1]
		}

		if len(names) == 0 || slices.Contains(names, tag.Name) {
			return tag, true, nil
		}
	}
	return Tag{}, false, nil
}

// NextByEl is NextByTag without closing tags.
func (it *Iter) NextByEl(names ...string) (Tag, bool, error) {
	for {
		tag, ok, err := it.NextByTag(names...)
		if err != nil || !ok {
			return Tag{}, false, err
		}
		if tag.Kind != Closing {
			return tag, true, nil
		}
	}
}

// StepOut consumes everything up to the tag closing t at t's own depth and
// returns that closing tag with the inner markup. t must be open in this
// cursor. A self-closing t is returned as is with empty inner markup.
func (it *Iter) StepOut(t Tag) (Tag, string, error) {
	if t.Kind == SelfClosing {
		return t, "", nil
	}
	if t.Kind == Closing {
		return Tag{}, "", syntaxError(t.start, ErrNotOpen)
	}

	depth := slices.IndexFunc(it.stack, func(f frame) bool {
		return f.pos == t.end && f.name == t.Name
	})
	if depth < 0 {
		return Tag{}, "", syntaxError(t.start, ErrNotOpen)
	}

	for {
		end, ok, err := it.NextByTag(t.Name)
		if err != nil {
			return Tag{}, "", err
		}
		if !ok {
			return Tag{}, "", syntaxError(len(it.source), ErrUnexpectedEOF)
		}
		if end.Kind == Closing && len(it.stack) == depth {
			return end, it.source[t.end:end.start], nil
		}
	}
}
