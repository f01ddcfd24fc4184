package epub

// Book is an EPUB container reduced to what text extraction needs. Spine
// documents are held decompressed so that tags scanned from them stay valid
// for the whole conversion.
type Book struct {
	OPFPath   string
	NCXPath   string
	Metadata  Metadata
	Manifest  map[string]ManifestItem // id -> item
	Spine     []SpineDoc
	HrefIndex map[string]int // archive path -> spine index
	TOC       []NavPoint
}

// Metadata represents the metadata section of the OPF
type Metadata struct {
	Title      string
	Creators   []Creator
	Language   string
	Identifier string
	ASIN       string
	Publisher  string
	Date       string
	CoverID    string // EPUB 2.0 cover image manifest item ID (from meta name="cover")
}

// Creator represents a creator (author, editor, etc.) of the book
type Creator struct {
	Name string
	Role string // e.g., "aut" for author, "edt" for editor
}

// Author returns the first creator marked as author, or the first creator.
func (m Metadata) Author() string {
	for _, c := range m.Creators {
		if c.Role == "aut" {
			return c.Name
		}
	}
	if len(m.Creators) > 0 {
		return m.Creators[0].Name
	}
	return ""
}

// ManifestItem represents an item in the manifest
type ManifestItem struct {
	ID        string
	Href      string // archive path
	MediaType string
}

// SpineItem represents an item reference in the spine
type SpineItem struct {
	IDRef  string
	Linear bool
}

// SpineDoc is one content document in reading order.
type SpineDoc struct {
	Href string
	Text string
}

// NavPoint is one entry of the NCX navigation map. Nested entries are
// flattened in document order.
type NavPoint struct {
	ID          string
	PlayOrder   int
	Label       string
	ContentPath string // fragment-free archive path
	Fragment    string // fragment identifier (without #)
}

// Boundary is the half-open spine range a TOC entry covers.
type Boundary struct {
	Title string
	Start int
	End   int
}
