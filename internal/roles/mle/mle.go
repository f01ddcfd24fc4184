// Package mle fits the role model tables from labelled tables of contents
// with additively smoothed maximum-likelihood estimates.
package mle

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yuanying/epub2txt/internal/roles"
)

// DefaultAlpha is the additive smoothing constant.
const DefaultAlpha = 0.1

// Entry is one labelled table-of-contents entry. Title may be empty when only
// the role sequence is known.
type Entry struct {
	Role  roles.Role
	Title string
}

// Book is the labelled table of contents of one book.
type Book []Entry

// Counts are the raw observation counts behind a model.
type Counts struct {
	Books int
	Init  [roles.NumRoles]int
	Trans [roles.NumRoles][roles.NumRoles]int
	End   [roles.NumRoles]int
	// Emit[s][i] counts titles of role s on which feature i fired.
	Emit [roles.NumRoles][roles.NumRoles]int
	// Titled[s] counts titles of role s that were available for Emit.
	Titled [roles.NumRoles]int
}

// Count tallies the transitions of books. extract may be nil, in which case
// emissions are not counted.
func Count(books []Book, extract func(string) roles.Features) Counts {
	var c Counts
	for _, book := range books {
		if len(book) == 0 {
			continue
		}
		c.Books++
		c.Init[book[0].Role]++
		for i, e := range book {
			if i+1 < len(book) {
				c.Trans[e.Role][book[i+1].Role]++
			} else {
				c.End[e.Role]++
			}
			if extract == nil || e.Title == "" {
				continue
			}
			c.Titled[e.Role]++
			for f, on := range extract(e.Title) {
				if on {
					c.Emit[e.Role][f]++
				}
			}
		}
	}
	return c
}

// Model turns the counts into probabilities. END is smoothed as one more
// successor of every state, so each transition row plus its END entry sums
// to 1. Emission rows of roles without any titled observation are copied from
// base.
func (c *Counts) Model(alpha float64, base roles.Model) roles.Model {
	const n = roles.NumRoles
	m := base

	for s := range n {
		m.Init[s] = smooth(c.Init[s], c.Books, n, alpha)
	}

	for r := range n {
		total := c.End[r]
		for s := range n {
			total += c.Trans[r][s]
		}
		for s := range n {
			m.Trans[r][s] = smooth(c.Trans[r][s], total, n+1, alpha)
		}
		m.End[r] = smooth(c.End[r], total, n+1, alpha)
	}

	for s := range n {
		if c.Titled[s] == 0 {
			continue
		}
		total := 0
		for f := range n {
			total += c.Emit[s][f]
		}
		for f := range n {
			m.Emit[s][f] = smooth(c.Emit[s][f], total, n, alpha)
		}
	}
	return m
}

func smooth(count, total, outcomes int, alpha float64) float64 {
	return (float64(count) + alpha) / (float64(total) + float64(outcomes)*alpha)
}

// ParseCorpus reads labelled books. Each line holds a role name, optionally
// followed by ':' and the title; a blank line ends a book. Lines starting
// with '#' are ignored.
func ParseCorpus(r io.Reader) ([]Book, error) {
	var (
		books []Book
		cur   Book
	)
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "#") {
			continue
		}
		if line == "" {
			if len(cur) > 0 {
				books = append(books, cur)
				cur = nil
			}
			continue
		}
		name, title, _ := strings.Cut(line, ":")
		role, err := roles.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		cur = append(cur, Entry{Role: role, Title: title})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}
	if len(cur) > 0 {
		books = append(books, cur)
	}
	return books, nil
}

// WriteGo prints m as a Go composite literal in the layout of the built-in
// tables.
func WriteGo(w io.Writer, name string, m roles.Model) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "var %s = Model{\n", name)
	fmt.Fprintf(bw, "\tInit: [NumRoles]float64{%s},\n", joinFloats(m.Init[:]))
	writeMatrix(bw, "Trans", &m.Trans)
	fmt.Fprintf(bw, "\tEnd: [NumRoles]float64{%s},\n", joinFloats(m.End[:]))
	writeMatrix(bw, "Emit", &m.Emit)
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

func writeMatrix(w io.Writer, field string, rows *[roles.NumRoles][roles.NumRoles]float64) {
	fmt.Fprintf(w, "\t%s: [NumRoles][NumRoles]float64{\n", field)
	for r, row := range rows {
		fmt.Fprintf(w, "\t\t%s: {%s},\n", goName(roles.Role(r)), joinFloats(row[:]))
	}
	fmt.Fprintln(w, "\t},")
}

func joinFloats(xs []float64) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
	}
	return strings.Join(parts, ", ")
}

// goName converts "bonus_chapter" to "BonusChapter".
func goName(r roles.Role) string {
	var b strings.Builder
	for _, part := range strings.Split(r.String(), "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}
