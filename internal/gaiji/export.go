package gaiji

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	defaultExportHeight = 64
	defaultMaxPixels    = 4 * 1000 * 1000
)

// Exporter writes PNG previews of newly found glyph images so they can be
// identified and mapped by hand.
type Exporter struct {
	Dir       string
	Height    int
	MaxPixels int // Total pixel count limit for decode (width * height)
}

// NewExporter creates an exporter writing into dir.
func NewExporter(dir string, height int) *Exporter {
	if height <= 0 {
		height = defaultExportHeight
	}
	return &Exporter{Dir: dir, Height: height, MaxPixels: defaultMaxPixels}
}

// Preview is the outcome of one export. Warning is set when the image could
// not be rendered; Path is then empty.
type Preview struct {
	Src     string
	Path    string
	Warning string
}

// Export decodes data, scales it to the exporter's height and saves it as a
// PNG named after src. Undecodable images produce a warning, not an error.
func (e *Exporter) Export(src string, data []byte) (Preview, error) {
	out := Preview{Src: src}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		out.Warning = fmt.Sprintf("image decode failed: %v", err)
		return out, nil
	}
	pixels := uint64(cfg.Width) * uint64(cfg.Height)
	if e.MaxPixels > 0 && pixels > uint64(e.MaxPixels) {
		out.Warning = fmt.Sprintf("image too large to decode: %dx%d (%d pixels)", cfg.Width, cfg.Height, pixels)
		return out, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		out.Warning = fmt.Sprintf("image decode failed: %v", err)
		return out, nil
	}
	if e.Height > 0 && img.Bounds().Dy() != e.Height {
		img = imaging.Resize(img, 0, e.Height, imaging.Lanczos)
	}

	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return out, fmt.Errorf("failed to create gaiji preview directory: %w", err)
	}
	out.Path = filepath.Join(e.Dir, previewName(src))
	if err := imaging.Save(img, out.Path); err != nil {
		return Preview{Src: src}, fmt.Errorf("failed to save gaiji preview: %w", err)
	}
	return out, nil
}

// previewName flattens an image reference into a file name.
func previewName(src string) string {
	name := strings.TrimLeft(src, "./")
	name = strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(name)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if name == "" {
		name = "gaiji"
	}
	return name + ".png"
}
