package epub

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/yuanying/epub2txt/internal/xhtml"
)

const (
	ncxMediaType  = "application/x-dtbncx+xml"
	asinURNPrefix = "urn:asin:"
)

// ParseManifest maps manifest item ids to archive paths. opfPath is the
// archive path of the package document, used to resolve relative hrefs.
func ParseManifest(content, opfPath string) (map[string]ManifestItem, error) {
	manifest, err := requireFirst(content, "manifest")
	if err != nil {
		return nil, err
	}

	items := make(map[string]ManifestItem)
	it := manifest.Iter()
	for {
		item, ok, err := it.NextByEl("item")
		if err != nil {
			return nil, fmt.Errorf("failed to scan manifest: %w", err)
		}
		if !ok {
			break
		}
		id, err := requireAttr(item, "id")
		if err != nil {
			return nil, err
		}
		href, err := requireAttr(item, "href")
		if err != nil {
			return nil, err
		}
		mediaType, _, err := item.Attr("media-type")
		if err != nil {
			return nil, err
		}
		items[id] = ManifestItem{
			ID:        id,
			Href:      resolvePath(opfPath, xhtml.Unescape(href)),
			MediaType: mediaType,
		}
	}
	return items, nil
}

// ParseSpine returns the spine item references in reading order together
// with the manifest id named by the spine's toc attribute, if any.
func ParseSpine(content string) ([]SpineItem, string, error) {
	spine, err := requireFirst(content, "spine")
	if err != nil {
		return nil, "", err
	}
	tocID, _, err := spine.Attr("toc")
	if err != nil {
		return nil, "", err
	}

	var items []SpineItem
	it := spine.Iter()
	for {
		ref, ok, err := it.NextByEl("itemref")
		if err != nil {
			return nil, "", fmt.Errorf("failed to scan spine: %w", err)
		}
		if !ok {
			break
		}
		idref, err := requireAttr(ref, "idref")
		if err != nil {
			return nil, "", err
		}
		linear, _, err := ref.Attr("linear")
		if err != nil {
			return nil, "", err
		}
		items = append(items, SpineItem{IDRef: idref, Linear: linear != "no"})
	}
	return items, tocID, nil
}

// ParseMetadata reads the Dublin Core metadata of a package document.
// Missing fields are left empty.
func ParseMetadata(content string) (Metadata, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to parse OPF metadata: %w", err)
	}

	md := Metadata{
		Title:     firstText(doc, `dc\:title`),
		Language:  firstText(doc, `dc\:language`),
		Publisher: firstText(doc, `dc\:publisher`),
		Date:      firstText(doc, `dc\:date`),
	}

	uniqueID, _ := doc.Find("package").First().Attr("unique-identifier")
	doc.Find(`dc\:identifier`).Each(func(i int, s *goquery.Selection) {
		value := strings.TrimSpace(s.Text())
		if md.ASIN == "" && isASIN(s, value) {
			md.ASIN = value
			if len(value) > len(asinURNPrefix) && strings.EqualFold(value[:len(asinURNPrefix)], asinURNPrefix) {
				md.ASIN = value[len(asinURNPrefix):]
			}
		}
		if id, _ := s.Attr("id"); id != "" && id == uniqueID {
			md.Identifier = value
		}
		if md.Identifier == "" && i == 0 {
			md.Identifier = value
		}
	})

	creatorIdx := make(map[string]int)
	doc.Find(`dc\:creator`).Each(func(i int, s *goquery.Selection) {
		role, _ := s.Attr("opf:role")
		md.Creators = append(md.Creators, Creator{
			Name: strings.TrimSpace(s.Text()),
			Role: role,
		})
		if id, ok := s.Attr("id"); ok && id != "" {
			creatorIdx["#"+id] = len(md.Creators) - 1
		}
	})

	doc.Find(`meta[name="cover"]`).EachWithBreak(func(i int, s *goquery.Selection) bool {
		md.CoverID, _ = s.Attr("content")
		return md.CoverID == ""
	})

	if err := processCreatorRoles(&md, content, creatorIdx); err != nil {
		return Metadata{}, err
	}
	return md, nil
}

// processCreatorRoles applies EPUB 3.0 <meta property="role" refines="#id">
// elements. HTML parsing treats meta as void and loses their text, so they
// are read with the tag scanner instead.
func processCreatorRoles(md *Metadata, content string, creatorIdx map[string]int) error {
	if len(creatorIdx) == 0 {
		return nil
	}
	it := xhtml.Root(content).Iter()
	for {
		meta, ok, err := it.NextByEl("meta")
		if err != nil {
			return fmt.Errorf("failed to scan OPF meta elements: %w", err)
		}
		if !ok {
			return nil
		}
		if prop, _, _ := meta.Attr("property"); prop != "role" {
			continue
		}
		refines, _, _ := meta.Attr("refines")
		idx, ok := creatorIdx[refines]
		if !ok {
			continue
		}
		_, role, err := it.StepOut(meta)
		if err != nil {
			return fmt.Errorf("failed to read creator role: %w", err)
		}
		md.Creators[idx].Role = strings.TrimSpace(role)
	}
}

func isASIN(s *goquery.Selection, value string) bool {
	if strings.HasPrefix(strings.ToLower(value), asinURNPrefix) {
		return true
	}
	scheme, _ := s.Attr("opf:scheme")
	switch strings.ToUpper(scheme) {
	case "ASIN", "MOBI-ASIN", "AMAZON":
		return true
	}
	return false
}

func firstText(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().Text())
}

// findNCX picks the navigation document: the spine's toc reference, then
// any manifest item of the NCX media type, then a top-level toc.ncx.
func findNCX(r *EPUBReader, manifest map[string]ManifestItem, tocID string) (string, error) {
	if item, ok := manifest[tocID]; ok && r.Has(item.Href) {
		return item.Href, nil
	}
	var candidates []string
	for _, item := range manifest {
		if item.MediaType == ncxMediaType && r.Has(item.Href) {
			candidates = append(candidates, item.Href)
		}
	}
	if len(candidates) > 0 {
		// map order is random; keep the choice stable
		first := candidates[0]
		for _, c := range candidates[1:] {
			if c < first {
				first = c
			}
		}
		return first, nil
	}
	if r.Has("toc.ncx") {
		return "toc.ncx", nil
	}
	return "", ErrNCXNotFound
}

func requireFirst(content, name string) (xhtml.Tag, error) {
	tag, ok, err := xhtml.FindFirst(content, name)
	if err != nil {
		return xhtml.Tag{}, fmt.Errorf("failed to find <%s>: %w", name, err)
	}
	if !ok {
		return xhtml.Tag{}, fmt.Errorf("%w: <%s>", ErrMissingElement, name)
	}
	return tag, nil
}

func requireAttr(tag xhtml.Tag, name string) (string, error) {
	value, ok, err := tag.Attr(name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: <%s %s>", ErrMissingAttr, tag.Name, name)
	}
	return value, nil
}
