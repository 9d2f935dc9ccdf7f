// Package surface is the raster buffer the drawing board paints into.
//
// A Surface wraps a gg pixmap and context. It knows how to fill itself,
// rasterize a single luminous stroke segment, and copy its raw RGBA bytes
// in and out for snapshot based undo.
package surface

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/gogpu/gg"
)

// ErrSizeMismatch is returned by Restore when the snapshot does not match
// the surface dimensions.
var ErrSizeMismatch = errors.New("surface: snapshot size mismatch")

// glowPasses is the number of translucent halo strokes drawn under the core
// line when a style carries a glow radius.
const glowPasses = 3

// glowAlpha is the opacity of each halo pass.
const glowAlpha = 0.12

// Point is a surface-local coordinate in pixels.
type Point struct {
	X, Y float64
}

// Style describes how a segment is rendered.
type Style struct {
	Color color.Color
	Width float64
	Glow  float64 // halo radius, 0 disables the halo
}

// Surface is a fixed-size RGBA pixel grid.
type Surface struct {
	width  int
	height int
	pm     *gg.Pixmap
	dc     *gg.Context
}

// New allocates a width x height surface filled with background.
func New(width, height int, background color.Color) *Surface {
	pm := gg.NewPixmap(width, height)
	dc := gg.NewContext(width, height, gg.WithPixmap(pm))
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)

	s := &Surface{width: width, height: height, pm: pm, dc: dc}
	s.Fill(background)
	return s
}

func (s *Surface) Width() int  { return s.width }
func (s *Surface) Height() int { return s.height }

// Fill paints every pixel with c.
func (s *Surface) Fill(c color.Color) {
	s.pm.Clear(gg.FromColor(c))
}

// Segment rasterizes a straight line from a to b. Halo passes are drawn
// first, widest and faintest, so the opaque core sits on top.
func (s *Surface) Segment(a, b Point, st Style) error {
	col := gg.FromColor(st.Color)

	if st.Glow > 0 {
		for i := glowPasses; i >= 1; i-- {
			spread := st.Glow * float64(i) / glowPasses
			s.dc.SetRGBA(col.R, col.G, col.B, glowAlpha)
			s.dc.SetLineWidth(st.Width + spread)
			s.dc.DrawLine(a.X, a.Y, b.X, b.Y)
			if err := s.dc.Stroke(); err != nil {
				return fmt.Errorf("stroke glow pass %d: %w", i, err)
			}
		}
	}

	s.dc.SetRGBA(col.R, col.G, col.B, 1)
	s.dc.SetLineWidth(st.Width)
	s.dc.DrawLine(a.X, a.Y, b.X, b.Y)
	if err := s.dc.Stroke(); err != nil {
		return fmt.Errorf("stroke segment: %w", err)
	}
	return nil
}

// Snapshot returns a copy of the raw RGBA bytes.
func (s *Surface) Snapshot() []byte {
	data := s.pm.Data()
	out := make([]byte, len(data))
	copy(out, data)
	return out
}

// Restore overwrites the pixels with a previous Snapshot.
func (s *Surface) Restore(pix []byte) error {
	data := s.pm.Data()
	if len(pix) != len(data) {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrSizeMismatch, len(pix), len(data))
	}
	copy(data, pix)
	return nil
}

// At returns the pixel at (x, y). Out of range reads return transparent.
func (s *Surface) At(x, y int) color.RGBA {
	if x < 0 || y < 0 || x >= s.width || y >= s.height {
		return color.RGBA{}
	}
	i := (y*s.width + x) * 4
	d := s.pm.Data()
	return color.RGBA{R: d[i], G: d[i+1], B: d[i+2], A: d[i+3]}
}

// Image returns a copy of the current pixels.
func (s *Surface) Image() *image.RGBA {
	return s.pm.ToImage()
}

// EncodePNG writes the current pixels as PNG.
func (s *Surface) EncodePNG(w io.Writer) error {
	return s.dc.EncodePNG(w)
}

// Close releases the drawing context.
func (s *Surface) Close() error {
	return s.dc.Close()
}
