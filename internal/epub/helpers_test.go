package epub

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

type member struct {
	name string
	body string
}

// writeEPUB writes members, in order, into a zip file under dir.
func writeEPUB(t *testing.T, dir string, members []member) string {
	t.Helper()
	epubPath := filepath.Join(dir, "test.epub")
	f, err := os.Create(epubPath)
	if err != nil {
		t.Fatalf("failed to create test epub: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for _, m := range members {
		mw, err := w.Create(m.name)
		if err != nil {
			t.Fatalf("failed to create %s: %v", m.name, err)
		}
		if _, err := mw.Write([]byte(m.body)); err != nil {
			t.Fatalf("failed to write %s: %v", m.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close zip writer: %v", err)
	}
	return epubPath
}

const testContainer = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const testOPF = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="bookid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
    <dc:title>テスト物語 1 (テスト文庫)</dc:title>
    <dc:creator id="creator01">山田 太郎</dc:creator>
    <meta refines="#creator01" property="role" scheme="marc:relators">aut</meta>
    <dc:creator opf:role="ill">絵師</dc:creator>
    <dc:language>ja</dc:language>
    <dc:identifier id="bookid">urn:uuid:1234</dc:identifier>
    <dc:identifier opf:scheme="MOBI-ASIN">B00TEST123</dc:identifier>
    <dc:publisher>テスト出版</dc:publisher>
    <dc:date>2020-04-01</dc:date>
    <meta name="cover" content="cover-image"/>
  </metadata>
  <manifest>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
    <item id="cover-image" href="images/cover.jpg" media-type="image/jpeg"/>
    <item id="cover" href="text/cover.xhtml" media-type="application/xhtml+xml"/>
    <item id="p1" href="text/p-001.xhtml" media-type="application/xhtml+xml"/>
    <item id="p2" href="text/p%2D002.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine toc="ncx">
    <itemref idref="cover" linear="no"/>
    <itemref idref="p1"/>
    <itemref idref="p2"/>
  </spine>
</package>`

const testNCX = `<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <head><meta name="dtb:uid" content="urn:uuid:1234"/></head>
  <docTitle><text>テスト物語</text></docTitle>
  <navMap>
    <navPoint id="np1" playOrder="1">
      <navLabel><text>表紙</text></navLabel>
      <content src="text/cover.xhtml"/>
    </navPoint>
    <navPoint id="np2" playOrder="2">
      <navLabel><text>第一章 &amp; 出発</text></navLabel>
      <content src="text/p-001.xhtml#top"/>
      <navPoint id="np3" playOrder="3">
        <navLabel><text>第二章</text></navLabel>
        <content src="text/p-002.xhtml"/>
      </navPoint>
    </navPoint>
  </navMap>
</ncx>`

func testMembers() []member {
	return []member{
		{name: "mimetype", body: "application/epub+zip"},
		{name: "META-INF/container.xml", body: testContainer},
		{name: "OEBPS/content.opf", body: testOPF},
		{name: "OEBPS/toc.ncx", body: testNCX},
		{name: "OEBPS/text/cover.xhtml", body: `<html><body><img src="../images/cover.jpg"/></body></html>`},
		{name: "OEBPS/text/p-001.xhtml", body: `<html><body><p>一</p></body></html>`},
		{name: "OEBPS/text/p-002.xhtml", body: `<html><body><p>二</p></body></html>`},
	}
}
