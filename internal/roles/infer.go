package roles

import (
	"fmt"

	"github.com/yuanying/epub2txt/internal/apperr"
)

// ErrOutOfOrder is returned when a title reliably names a role that comes
// before a role already assigned earlier in the book.
var ErrOutOfOrder = fmt.Errorf("%w: role out of narrative order", apperr.ErrClassification)

// Options configures a Classifier. Zero values select the defaults.
type Options struct {
	// Active is the subset of roles the classifier may assign. Empty means all.
	Active   []Role
	Keywords Keywords
	Reliable Keywords
	Model    *Model
}

// Classifier assigns roles to the titles of a table of contents.
type Classifier struct {
	model     *Model
	extractor *Extractor
	active    [NumRoles]bool
}

// NewClassifier creates a Classifier from opts.
func NewClassifier(opts Options) *Classifier {
	c := &Classifier{
		model:     opts.Model,
		extractor: NewExtractor(opts.Keywords, opts.Reliable),
	}
	if c.model == nil {
		c.model = &DefaultModel
	}
	if len(opts.Active) == 0 {
		for i := range c.active {
			c.active[i] = true
		}
	}
	for _, r := range opts.Active {
		if r.Valid() {
			c.active[r] = true
		}
	}
	return c
}

// Features returns the feature vectors of titles.
func (c *Classifier) Features(titles []string) []Features {
	feats := make([]Features, len(titles))
	for i, t := range titles {
		feats[i] = c.extractor.Extract(t)
	}
	return feats
}

// Infer decodes the most likely role of every title, then vetoes the result
// if a title reliably names a role that the decoded path has already passed.
func (c *Classifier) Infer(titles []string) ([]Role, error) {
	path, err := c.model.Viterbi(c.Features(titles), c.active)
	if err != nil {
		return nil, err
	}
	if err := c.checkOrder(titles, path); err != nil {
		return nil, err
	}
	return path, nil
}

func (c *Classifier) checkOrder(titles []string, path []Role) error {
	highest := -1
	var highestRole Role
	for i, title := range titles {
		for _, named := range c.extractor.Reliable(title) {
			if !c.active[named] || named.Rank() >= highest {
				continue
			}
			if named.inBodyCycle() && highestRole.inBodyCycle() {
				continue
			}
			return fmt.Errorf("%w: %q reads as %s after %s", ErrOutOfOrder, title, named, highestRole)
		}
		if rank := path[i].Rank(); rank > highest {
			highest, highestRole = rank, path[i]
		}
	}
	return nil
}
