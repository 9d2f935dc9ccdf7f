package ui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"AetherBoard/internal/mirror"
)

const browseTimeout = 3 * time.Second

// Viewer shows frames from a remote mirror. It never draws.
type Viewer struct {
	Image  *canvas.Image
	Status *widget.Label
	seq    uint64
}

func NewViewer() *Viewer {
	img := canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	img.FillMode = canvas.ImageFillContain
	img.ScaleMode = canvas.ImageScaleSmooth
	return &Viewer{
		Image:  img,
		Status: widget.NewLabel("Connecting..."),
	}
}

// Show displays f unless a newer frame is already on screen. It must run on
// the fyne goroutine.
func (v *Viewer) Show(f mirror.Frame) bool {
	if f.Image == nil || (v.seq != 0 && f.Seq <= v.seq) {
		return false
	}
	v.seq = f.Seq
	v.Image.Image = f.Image
	v.Image.Refresh()
	v.Status.SetText(fmt.Sprintf("LIVE  frame %d", f.Seq))
	return true
}

// reset forgets the last sequence number. A restarted host counts from 1
// again, so every new connection starts fresh.
func (v *Viewer) reset(addr string) {
	v.seq = 0
	v.Status.SetText("Watching " + addr)
}

// Run watches addr until ctx is done. An empty addr is looked up on the
// local network first.
func (v *Viewer) Run(ctx context.Context, addr string) error {
	if addr == "" {
		found, err := discover(browseTimeout)
		if err != nil {
			return err
		}
		addr = found
	}
	fyne.Do(func() { v.reset(addr) })

	err := mirror.Watch(ctx, addr, func(f mirror.Frame) {
		fyne.Do(func() { v.Show(f) })
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func discover(timeout time.Duration) (string, error) {
	var addr string
	err := mirror.Browse(timeout, func(a string) {
		if addr == "" {
			addr = a
		}
	})
	if err != nil {
		return "", err
	}
	if addr == "" {
		return "", errors.New("no board found on the local network")
	}
	return addr, nil
}

// RunViewer opens a read-only window on the mirror at addr and blocks until
// it is closed.
func RunViewer(addr string) {
	myApp := app.NewWithID("io.aether.viewer")
	myWindow := myApp.NewWindow("AETHER // Viewer")
	myWindow.Resize(fyne.NewSize(1024, 768))

	v := NewViewer()
	ctx, cancel := context.WithCancel(context.Background())
	myWindow.SetOnClosed(cancel)

	go func() {
		if err := v.Run(ctx, addr); err != nil {
			slog.Error("[viewer] stopped", "err", err)
			fyne.Do(func() { v.Status.SetText("Disconnected: " + err.Error()) })
		}
	}()

	myWindow.SetContent(container.NewBorder(v.Status, nil, nil, nil, v.Image))
	myWindow.ShowAndRun()
	cancel()
}
