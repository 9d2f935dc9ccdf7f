package ui

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/widget"

	"AetherBoard/internal/board"
)

// BoardWidget hosts a board controller. It measures itself, feeds pointer
// and touch input to the controller and shows the surface through a raster.
type BoardWidget struct {
	widget.BaseWidget
	ctrl     *board.Controller
	fallback fyne.Size
	raster   *canvas.Raster
	blank    *image.Uniform

	// OnInitError reports a failed surface allocation.
	OnInitError func(error)
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)
var _ desktop.Hoverable = (*BoardWidget)(nil)
var _ mobile.Touchable = (*BoardWidget)(nil)

// NewBoardWidget wraps ctrl. fallback is the surface size used when input
// arrives before the widget has been laid out.
func NewBoardWidget(ctrl *board.Controller, fallback fyne.Size, background color.Color) *BoardWidget {
	b := &BoardWidget{
		ctrl:     ctrl,
		fallback: fallback,
		blank:    image.NewUniform(background),
	}
	b.raster = canvas.NewRaster(b.generate)
	b.ExtendBaseWidget(b)
	return b
}

// Controller returns the wrapped controller.
func (b *BoardWidget) Controller() *board.Controller {
	return b.ctrl
}

func (b *BoardWidget) generate(w, h int) image.Image {
	if img := b.ctrl.Image(); img != nil {
		return img
	}
	return b.blank
}

// Resize lays the widget out and, the first time a real size is known,
// allocates the surface at that size.
func (b *BoardWidget) Resize(size fyne.Size) {
	b.BaseWidget.Resize(size)
	b.ensureInitialized(size)
}

func (b *BoardWidget) ensureInitialized(size fyne.Size) {
	if b.ctrl.Initialized() {
		return
	}
	if size.Width < 1 || size.Height < 1 {
		return
	}
	if err := b.ctrl.Initialize(int(size.Width), int(size.Height)); err != nil {
		if b.OnInitError != nil {
			b.OnInitError(err)
		}
		return
	}
	b.redraw()
}

// redraw pushes the current surface to the screen.
func (b *BoardWidget) redraw() {
	b.raster.Refresh()
}

// Undo, Clear and SetTool are the toolbar entry points.

func (b *BoardWidget) Undo() {
	b.ctrl.Undo()
	b.redraw()
}

func (b *BoardWidget) Clear() {
	b.ctrl.Clear()
	b.redraw()
}

func (b *BoardWidget) SetColor(hex string) { b.ctrl.SetColor(hex) }
func (b *BoardWidget) SetStroke(w int)     { b.ctrl.SetWidth(w) }

// origin is the widget's top-left corner in window coordinates.
func origin(ev fyne.PointEvent) board.Bounds {
	o := ev.AbsolutePosition.Subtract(ev.Position)
	return board.Bounds{Left: float64(o.X), Top: float64(o.Y)}
}

func (b *BoardWidget) down(ev fyne.PointEvent) {
	if !b.ctrl.Initialized() {
		b.ensureInitialized(b.fallback)
	}
	b.ctrl.PointerDown(float64(ev.AbsolutePosition.X), float64(ev.AbsolutePosition.Y), origin(ev))
}

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	b.down(e.PointEvent)
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	b.ctrl.PointerUp()
	b.redraw()
}

func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	if b.ctrl.Phase() != board.Stroking {
		return
	}
	b.ctrl.PointerMove(float64(e.AbsolutePosition.X), float64(e.AbsolutePosition.Y), origin(e.PointEvent))
	b.redraw()
}

func (b *BoardWidget) DragEnd() {
	b.ctrl.PointerUp()
	b.redraw()
}

func (b *BoardWidget) MouseIn(*desktop.MouseEvent)    {}
func (b *BoardWidget) MouseMoved(*desktop.MouseEvent) {}

// MouseOut ends a stroke that leaves the board, per the leave policy.
func (b *BoardWidget) MouseOut() {
	b.ctrl.PointerLeave()
	b.redraw()
}

func (b *BoardWidget) TouchDown(e *mobile.TouchEvent) {
	b.down(e.PointEvent)
}

func (b *BoardWidget) TouchUp(*mobile.TouchEvent) {
	b.ctrl.PointerUp()
	b.redraw()
}

func (b *BoardWidget) TouchCancel(*mobile.TouchEvent) {
	b.ctrl.PointerLeave()
	b.redraw()
}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	return &boardWidgetRenderer{board: b}
}

type boardWidgetRenderer struct {
	board *BoardWidget
}

func (r *boardWidgetRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.board.raster}
}

func (r *boardWidgetRenderer) Layout(size fyne.Size) {
	r.board.raster.Resize(size)
}

func (r *boardWidgetRenderer) MinSize() fyne.Size {
	return fyne.NewSize(300, 300)
}

func (r *boardWidgetRenderer) Refresh() {
	r.board.raster.Refresh()
}

func (r *boardWidgetRenderer) Destroy() {}
