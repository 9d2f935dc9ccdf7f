package export

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{G: 0xf3, B: 0xff, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFileName(t *testing.T) {
	now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }
	defer func() { now = time.Now }()

	a := FileName("png")
	b := FileName("png")
	assert.True(t, strings.HasPrefix(a, "aether-20260304-050607-"), a)
	assert.True(t, strings.HasSuffix(a, ".png"))
	assert.NotEqual(t, a, b)
}

func TestWritePNG(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	data := samplePNG(t, 40, 20)

	path, err := WritePNG(dir, data)
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestWritePDF(t *testing.T) {
	dir := t.TempDir()

	path, err := WritePDF(dir, samplePNG(t, 800, 600))
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(got, []byte("%PDF-")))
	assert.Equal(t, ".pdf", filepath.Ext(path))
}

func TestWritePDFRejectsGarbage(t *testing.T) {
	_, err := WritePDF(t.TempDir(), []byte("not a png"))
	assert.Error(t, err)
}

func TestFit(t *testing.T) {
	w, h := fit(800, 600, 277, 190)
	assert.InDelta(t, 253.33, w, 0.01)
	assert.InDelta(t, 190, h, 0.01)

	w, h = fit(1000, 100, 277, 190)
	assert.InDelta(t, 277, w, 0.01)
	assert.InDelta(t, 27.7, h, 0.01)
}
