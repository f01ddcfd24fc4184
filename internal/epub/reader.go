package epub

import (
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/yuanying/epub2txt/internal/apperr"
	"github.com/yuanying/epub2txt/internal/archive"
	"github.com/yuanying/epub2txt/internal/xhtml"
)

// EPUBReader provides access to EPUB file contents
type EPUBReader struct {
	archive *archive.Archive
	opfPath string
}

var (
	ErrOPFNotFound    = fmt.Errorf("%w: no package document found", apperr.ErrUnschematic)
	ErrNCXNotFound    = fmt.Errorf("%w: no navigation document found", apperr.ErrUnschematic)
	ErrMissingElement = fmt.Errorf("%w: required element missing", apperr.ErrUnschematic)
	ErrMissingAttr    = fmt.Errorf("%w: required attribute missing", apperr.ErrUnschematic)
	ErrMissingMember  = fmt.Errorf("%w: referenced file not in archive", apperr.ErrUnschematic)
	ErrUnresolvedHref = fmt.Errorf("%w: TOC entry not in spine", apperr.ErrUnschematic)
	ErrEmptyTOC       = fmt.Errorf("%w: navigation map has no entries", apperr.ErrUnschematic)
)

const fallbackOPFPath = "content.opf"

// Open opens an EPUB file and locates its package document.
func Open(filePath string) (*EPUBReader, error) {
	a, err := archive.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open EPUB: %w", err)
	}
	r, err := NewReader(a)
	if err != nil {
		a.Close()
		return nil, err
	}
	return r, nil
}

// NewReader wraps an already walked archive.
func NewReader(a *archive.Archive) (*EPUBReader, error) {
	r := &EPUBReader{archive: a}
	if err := r.locateOPF(); err != nil {
		return nil, err
	}
	return r, nil
}

// Close closes the EPUB reader
func (r *EPUBReader) Close() error {
	return r.archive.Close()
}

// OPFPath returns the path to the OPF file
func (r *EPUBReader) OPFPath() string {
	return r.opfPath
}

// Files returns the sorted names of all archive members.
func (r *EPUBReader) Files() []string {
	names := make([]string, 0, len(r.archive.Members))
	for _, m := range r.archive.Members {
		names = append(names, m.Name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether the archive holds a member at path.
func (r *EPUBReader) Has(filePath string) bool {
	_, ok := r.archive.Member(normalizePath(filePath))
	return ok
}

// ReadFile decompresses a member as UTF-8 text.
func (r *EPUBReader) ReadFile(filePath string) (string, error) {
	filePath = normalizePath(filePath)
	m, ok := r.archive.Member(filePath)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingMember, filePath)
	}
	text, err := m.Text()
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	return text, nil
}

// ReadBytes decompresses a member without decoding it, for images.
func (r *EPUBReader) ReadBytes(filePath string) ([]byte, error) {
	filePath = normalizePath(filePath)
	m, ok := r.archive.Member(filePath)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingMember, filePath)
	}
	data, err := m.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	return data, nil
}

// locateOPF reads container.xml when present, otherwise falls back to a
// top-level content.opf.
func (r *EPUBReader) locateOPF() error {
	if r.Has("META-INF/container.xml") {
		content, err := r.ReadFile("META-INF/container.xml")
		if err != nil {
			return err
		}
		rootfile, ok, err := xhtml.FindFirst(content, "rootfile")
		if err != nil {
			return fmt.Errorf("failed to parse container.xml: %w", err)
		}
		if ok {
			fullPath, ok, err := rootfile.Attr("full-path")
			if err != nil {
				return fmt.Errorf("failed to parse container.xml: %w", err)
			}
			if ok && r.Has(fullPath) {
				r.opfPath = normalizePath(fullPath)
				return nil
			}
		}
	}
	if r.Has(fallbackOPFPath) {
		r.opfPath = fallbackOPFPath
		return nil
	}
	return ErrOPFNotFound
}

// normalizePath normalizes file paths (removes ./ prefix)
func normalizePath(p string) string {
	return strings.TrimPrefix(p, "./")
}

// ResolveHref resolves an href found in the document at docPath into an
// archive path, or "" when it points outside the archive.
func ResolveHref(docPath, href string) string {
	return resolvePath(docPath, href)
}

// resolvePath turns an href found in the document at base into an archive
// path. It returns "" for hrefs that escape the archive root.
func resolvePath(base, href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "/") {
		return ""
	}
	if decoded, err := url.PathUnescape(href); err == nil {
		href = decoded
	}
	cleaned := path.Clean(path.Join(path.Dir(base), href))
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return ""
	}
	return cleaned
}
