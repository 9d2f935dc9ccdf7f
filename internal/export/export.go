// Package export writes board snapshots to disk as PNG or PDF.
package export

import (
	"bytes"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
)

// pageMargin is the PDF margin in millimetres.
const pageMargin = 10.0

var now = time.Now

// FileName returns a unique export file name with the given extension.
func FileName(ext string) string {
	return fmt.Sprintf("aether-%s-%s.%s", now().Format("20060102-150405"), uuid.NewString()[:8], ext)
}

// WritePNG stores an already encoded PNG in dir and returns its path.
func WritePNG(dir string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, FileName("png"))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write png: %w", err)
	}
	return path, nil
}

// WritePDF places the PNG on a single A4 landscape page, scaled to fit
// inside the margins with its aspect ratio kept, and returns the path.
func WritePDF(dir string, data []byte) (string, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("read png header: %w", err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return "", fmt.Errorf("empty image %dx%d", cfg.Width, cfg.Height)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	p := gofpdf.New("L", "mm", "A4", "")
	p.SetTitle("AETHER board", true)
	p.AddPage()

	pageW, pageH := p.GetPageSize()
	w, h := fit(float64(cfg.Width), float64(cfg.Height), pageW-2*pageMargin, pageH-2*pageMargin)
	x := (pageW - w) / 2
	y := (pageH - h) / 2

	opt := gofpdf.ImageOptions{ImageType: "PNG"}
	p.RegisterImageOptionsReader("board", opt, bytes.NewReader(data))
	p.ImageOptions("board", x, y, w, h, false, opt, 0, "")

	path := filepath.Join(dir, FileName("pdf"))
	if err := p.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}
	return path, nil
}

// fit scales w x h to the largest size inside maxW x maxH.
func fit(w, h, maxW, maxH float64) (float64, float64) {
	scale := maxW / w
	if s := maxH / h; s < scale {
		scale = s
	}
	return w * scale, h * scale
}
