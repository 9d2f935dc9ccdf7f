package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"AetherBoard/internal/board"
)

// colorSwatch is a round-cornered palette button that glows when selected.
type colorSwatch struct {
	widget.BaseWidget
	Hex      string
	Color    color.Color
	OnTapped func(hex string)

	selected bool
	border   *canvas.Rectangle
}

func newColorSwatch(hex string, tapped func(string)) *colorSwatch {
	c, err := board.ParseColor(hex)
	if err != nil {
		c = color.RGBA{A: 255}
	}
	s := &colorSwatch{Hex: hex, Color: c, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.Color)
	rect.SetMinSize(fyne.NewSize(28, 28))
	rect.CornerRadius = 14

	s.border = canvas.NewRectangle(color.Transparent)
	s.border.StrokeWidth = 2
	s.border.CornerRadius = 14
	s.applySelection()

	return widget.NewSimpleRenderer(container.NewStack(rect, s.border))
}

func (s *colorSwatch) setSelected(on bool) {
	s.selected = on
	if s.border != nil {
		s.applySelection()
		s.border.Refresh()
	}
}

func (s *colorSwatch) applySelection() {
	if s.selected {
		s.border.StrokeColor = color.White
	} else {
		s.border.StrokeColor = color.Transparent
	}
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Hex)
	}
}

// Actions are the toolbar callbacks that need more than the board itself.
type Actions struct {
	ExportPNG func()
	ExportPDF func()
}

// NewToolbar builds the palette, width slider and action buttons for b.
func NewToolbar(b *BoardWidget, actions Actions, status fyne.CanvasObject) fyne.CanvasObject {
	var swatches []*colorSwatch
	selected := b.Controller().Tool().Color
	onColorTapped := func(hex string) {
		b.SetColor(hex)
		for _, s := range swatches {
			s.setSelected(s.Hex == hex)
		}
	}
	colorBox := container.NewHBox()
	for _, sw := range board.Palette {
		s := newColorSwatch(sw.Hex, onColorTapped)
		s.selected = sw.Hex == selected
		swatches = append(swatches, s)
		colorBox.Add(s)
	}

	widthSlider := widget.NewSlider(board.MinWidth, board.MaxWidth)
	widthSlider.Step = 1
	widthSlider.SetValue(float64(b.Controller().Tool().Width))
	widthSlider.OnChanged = func(val float64) {
		b.SetStroke(int(val))
	}
	sliderContainer := container.New(layout.NewGridWrapLayout(fyne.NewSize(120, 35)), widthSlider)

	tb := widget.NewToolbar(
		widget.NewToolbarAction(theme.ContentUndoIcon(), b.Undo),
		widget.NewToolbarAction(theme.DeleteIcon(), b.Clear),
	)

	exportBtn := widget.NewButtonWithIcon("EXPORT", theme.DocumentSaveIcon(), func() {
		if actions.ExportPNG != nil {
			actions.ExportPNG()
		}
	})
	exportBtn.Importance = widget.HighImportance
	pdfBtn := widget.NewButtonWithIcon("PDF", theme.FileIcon(), func() {
		if actions.ExportPDF != nil {
			actions.ExportPDF()
		}
	})

	return container.NewHBox(
		widget.NewIcon(theme.DocumentCreateIcon()),
		colorBox,
		widget.NewSeparator(),
		sliderContainer,
		layout.NewSpacer(),
		status,
		tb,
		exportBtn,
		pdfBtn,
	)
}
