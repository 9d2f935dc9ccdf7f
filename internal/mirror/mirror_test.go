package mirror

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestFrameRoundTrip(t *testing.T) {
	cyan := color.RGBA{G: 0xf3, B: 0xff, A: 255}
	msg, err := encodeFrame(Frame{Seq: 42, Image: solid(10, 6, cyan)}, 0)
	require.NoError(t, err)

	f, err := decodeFrame(msg)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), f.Seq)
	assert.Equal(t, 10, f.Image.Bounds().Dx())
	r, g, b, _ := f.Image.At(3, 3).RGBA()
	assert.Equal(t, uint32(0), r)
	assert.Equal(t, uint32(0xf3f3), g)
	assert.Equal(t, uint32(0xffff), b)
}

func TestDecodeFrameRejectsShortMessages(t *testing.T) {
	_, err := decodeFrame([]byte{1, 2, 3})
	assert.Error(t, err)
	_, err = decodeFrame(append(make([]byte, 8), "nope"...))
	assert.Error(t, err)
}

func TestDownscale(t *testing.T) {
	src := solid(800, 600, color.RGBA{A: 255})

	got := downscale(src, 400)
	assert.Equal(t, image.Rect(0, 0, 400, 300), got.Bounds())

	assert.Same(t, src, downscale(src, 0))
	assert.Same(t, src, downscale(src, 1000))
}

func TestOfferReplacesStaleFrame(t *testing.T) {
	ch := make(chan []byte, 1)
	offer(ch, []byte("a"))
	offer(ch, []byte("b"))
	assert.Equal(t, []byte("b"), <-ch)
}

func TestPublishRequiresImage(t *testing.T) {
	assert.Error(t, New(0).Publish(Frame{Seq: 1}))
}

func TestViewerReceivesLatestAndNewFrames(t *testing.T) {
	m := New(0)
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	defer m.Close()

	require.NoError(t, m.Publish(Frame{Seq: 1, Image: solid(8, 8, color.RGBA{A: 255})}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	frames := make(chan Frame, 4)
	errc := make(chan error, 1)
	go func() {
		errc <- Watch(ctx, strings.TrimPrefix(srv.URL, "http://"), func(f Frame) { frames <- f })
	}()

	select {
	case f := <-frames:
		assert.Equal(t, uint64(1), f.Seq)
	case <-time.After(5 * time.Second):
		t.Fatal("no initial frame")
	}
	assert.Equal(t, 1, m.Peers())

	require.NoError(t, m.Publish(Frame{Seq: 2, Image: solid(8, 8, color.RGBA{R: 255, A: 255})}))
	select {
	case f := <-frames:
		assert.Equal(t, uint64(2), f.Seq)
		r, _, _, _ := f.Image.At(0, 0).RGBA()
		assert.Equal(t, uint32(0xffff), r)
	case <-time.After(5 * time.Second):
		t.Fatal("no second frame")
	}

	cancel()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestCloseDisconnectsViewers(t *testing.T) {
	m := New(0)
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	require.NoError(t, m.Publish(Frame{Seq: 1, Image: solid(4, 4, color.RGBA{A: 255})}))

	got := make(chan struct{}, 1)
	errc := make(chan error, 1)
	go func() {
		errc <- Watch(context.Background(), strings.TrimPrefix(srv.URL, "http://"), func(Frame) {
			select {
			case got <- struct{}{}:
			default:
			}
		})
	}()

	select {
	case <-got:
	case <-time.After(5 * time.Second):
		t.Fatal("no frame")
	}

	m.Close()
	select {
	case err := <-errc:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("viewer still connected after Close")
	}
	assert.Equal(t, 0, m.Peers())
	assert.NoError(t, m.Publish(Frame{Seq: 2, Image: solid(4, 4, color.RGBA{A: 255})}))
}

func TestWatchDialError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := Watch(ctx, "127.0.0.1:1", func(Frame) {})
	assert.Error(t, err)
}

func TestFeedPublishesInOrder(t *testing.T) {
	m := New(0)
	ch := make(chan Frame, 3)
	ch <- Frame{Seq: 1, Image: solid(4, 4, color.RGBA{A: 255})}
	ch <- Frame{Seq: 2, Image: solid(4, 4, color.RGBA{B: 255, A: 255})}
	ch <- Frame{Seq: 3}
	close(ch)

	m.Feed(ch)

	f, err := decodeFrame(m.latest)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), f.Seq, "a frame without an image is skipped")
}

// lockedBuffer guards against log writes from connections closed by
// earlier tests.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestFeedLogsThroughPackageLogger(t *testing.T) {
	buf := &lockedBuffer{}
	SetLogger(slog.New(slog.NewTextHandler(buf, nil)))
	t.Cleanup(func() { SetLogger(nil) })

	ch := make(chan Frame, 1)
	ch <- Frame{Seq: 7}
	close(ch)
	New(0).Feed(ch)

	assert.Contains(t, buf.String(), "[mirror] publish failed")
	assert.Contains(t, buf.String(), "seq=7")
}

func TestDefaultLoggerIsSilent(t *testing.T) {
	SetLogger(nil)
	assert.False(t, logger().Enabled(context.Background(), slog.LevelError))
}
