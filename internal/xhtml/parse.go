package xhtml

import "strings"

func isAttrNameChar(ch byte) bool {
	switch ch {
	case ' ', '\t', '\n', '\r', '=', '>', '/', '\'', '"':
		return false
	}
	return true
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func consumeWhile(s string, pos int, pred func(byte) bool) int {
	for pos < len(s) && pred(s[pos]) {
		pos++
	}
	return pos
}

// parseQuotes finds the first quoted run in s and returns its bounds, quotes
// included. A quote preceded by a backslash does not end the run.
func parseQuotes(s string) (int, int, error) {
	start := strings.IndexAny(s, `"'`)
	if start < 0 {
		return 0, 0, ErrUnexpectedEOF
	}
	quote := s[start]
	pos := start + 1
	for pos < len(s) {
		i := strings.IndexByte(s[pos:], quote)
		if i < 0 {
			return 0, 0, ErrUnexpectedEOF
		}
		pos += i
		if s[pos-1] != '\\' {
			return start, pos + 1, nil
		}
		pos++
	}
	return 0, 0, ErrUnexpectedEOF
}

// parseTag scans the first tag at or after offset. It reports false when no
// '<' is left.
func parseTag(source string, offset int) (Tag, bool, error) {
	i := strings.IndexByte(source[offset:], '<')
	if i < 0 {
		return Tag{}, false, nil
	}
	start := offset + i
	pos := start + 1
	if pos >= len(source) {
		return Tag{}, false, syntaxError(start, ErrMalformedTagName)
	}

	for _, d := range [...]struct{ open, name, close string }{
		{open: "!--", name: "!--", close: "-->"},
		{open: "![CDATA[", name: "![CDATA[", close: "]]>"},
	} {
		if !strings.HasPrefix(source[pos:], d.open) {
			continue
		}
		j := strings.Index(source[pos+len(d.open):], d.close)
		if j < 0 {
			return Tag{}, false, syntaxError(start, ErrTagEnd)
		}
		end := pos + len(d.open) + j + len(d.close)
		return Tag{
			Name:    d.name,
			Kind:    SelfClosing,
			Leading: source[offset:start],
			source:  source,
			start:   start,
			end:     end,
		}, true, nil
	}

	closing := source[pos] == '/'
	if closing {
		pos++
	}

	nameLen := strings.IndexAny(source[pos:], " /\t\n\r>")
	if nameLen <= 0 {
		return Tag{}, false, syntaxError(start, ErrMalformedTagName)
	}
	name := source[pos : pos+nameLen]
	pos += nameLen

	for {
		j := strings.IndexAny(source[pos:], `>"'`)
		if j < 0 {
			return Tag{}, false, syntaxError(start, ErrTagEnd)
		}
		pos += j
		if source[pos] == '>' {
			break
		}
		_, qend, err := parseQuotes(source[pos:])
		if err != nil {
			return Tag{}, false, syntaxError(pos, err)
		}
		pos += qend
	}

	selfClosing := source[pos-1] == '/'
	pos++

	kind := Opening
	switch {
	case closing && selfClosing:
		return Tag{}, false, syntaxError(start, ErrMixedClosingMarks)
	case closing:
		kind = Closing
	case selfClosing, name[0] == '!', name[0] == '?':
		kind = SelfClosing
	}

	return Tag{
		Name:    name,
		Kind:    kind,
		Leading: source[offset:start],
		source:  source,
		start:   start,
		end:     pos,
	}, true, nil
}

// parseAttr looks up target in the raw markup of a tag starting at offset.
func parseAttr(raw string, offset int, target string) (string, bool, error) {
	if len(raw) < 2 {
		return "", false, nil
	}
	s := raw[1 : len(raw)-1]
	pos := consumeWhile(s, 0, isAttrNameChar)
	for pos < len(s) {
		before := pos
		pos = consumeWhile(s, pos, isSpace)
		nameEnd := consumeWhile(s, pos, isAttrNameChar)
		name := s[pos:nameEnd]
		pos = consumeWhile(s, nameEnd, isSpace)

		value := name
		if pos < len(s) && s[pos] == '=' {
			pos++
			qstart, qend, err := parseQuotes(s[pos:])
			if err != nil {
				return "", false, syntaxError(offset+1+pos, err)
			}
			value = s[pos+qstart+1 : pos+qend-1]
			pos += qend
		}
		if name != "" && name == target {
			return value, true, nil
		}
		if pos == before {
			pos++
		}
	}
	return "", false, nil
}
