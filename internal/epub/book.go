package epub

import (
	"fmt"
	"slices"
)

// Load opens the EPUB at filePath and reads it into a Book. The archive is
// closed before Load returns.
func Load(filePath string) (*Book, error) {
	r, err := Open(filePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return ReadBook(r)
}

// ReadBook parses the package and navigation documents and decompresses
// every spine document.
func ReadBook(r *EPUBReader) (*Book, error) {
	opf, err := r.ReadFile(r.OPFPath())
	if err != nil {
		return nil, err
	}

	manifest, err := ParseManifest(opf, r.OPFPath())
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	spine, tocID, err := ParseSpine(opf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse spine: %w", err)
	}
	metadata, err := ParseMetadata(opf)
	if err != nil {
		return nil, err
	}

	ncxPath, err := findNCX(r, manifest, tocID)
	if err != nil {
		return nil, err
	}
	ncx, err := r.ReadFile(ncxPath)
	if err != nil {
		return nil, err
	}
	toc, err := ParseNCX(ncx, ncxPath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ncxPath, err)
	}

	book := &Book{
		OPFPath:   r.OPFPath(),
		NCXPath:   ncxPath,
		Metadata:  metadata,
		Manifest:  manifest,
		HrefIndex: make(map[string]int, len(spine)),
		TOC:       toc,
	}
	for _, ref := range spine {
		item, ok := manifest[ref.IDRef]
		if !ok {
			return nil, fmt.Errorf("%w: spine idref %q has no manifest item", ErrMissingElement, ref.IDRef)
		}
		text, err := r.ReadFile(item.Href)
		if err != nil {
			return nil, err
		}
		if _, dup := book.HrefIndex[item.Href]; !dup {
			book.HrefIndex[item.Href] = len(book.Spine)
		}
		book.Spine = append(book.Spine, SpineDoc{Href: item.Href, Text: text})
	}

	return book, nil
}

// Boundaries pairs consecutive TOC entries into half-open spine ranges; the
// last entry runs to the end of the spine. A TOC entry whose target is not
// in the spine is tolerated only when its title is one of coverTitles, and
// then starts at spine index 0.
func (b *Book) Boundaries(coverTitles []string) ([]Boundary, error) {
	if len(b.TOC) == 0 {
		return nil, ErrEmptyTOC
	}

	starts := make([]int, len(b.TOC))
	for i, p := range b.TOC {
		idx, ok := b.HrefIndex[p.ContentPath]
		if !ok {
			if !slices.Contains(coverTitles, p.Label) {
				return nil, fmt.Errorf("%w: %q -> %s", ErrUnresolvedHref, p.Label, p.ContentPath)
			}
			idx = 0
		}
		starts[i] = idx
	}

	bounds := make([]Boundary, len(b.TOC))
	for i, p := range b.TOC {
		end := len(b.Spine)
		if i+1 < len(b.TOC) {
			end = starts[i+1]
		}
		bounds[i] = Boundary{Title: p.Label, Start: starts[i], End: end}
	}
	return bounds, nil
}

// Files lists the spine hrefs of a boundary, or nil when its end precedes
// its start.
func (b *Book) Files(bound Boundary) []string {
	if bound.End < bound.Start {
		return nil
	}
	files := make([]string, 0, bound.End-bound.Start)
	for _, doc := range b.Spine[bound.Start:bound.End] {
		files = append(files, doc.Href)
	}
	return files
}
