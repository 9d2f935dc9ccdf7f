package ui

import (
	"context"
	"fmt"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"AetherBoard/internal/board"
	"AetherBoard/internal/config"
	"AetherBoard/internal/export"
	"AetherBoard/internal/mirror"
	"AetherBoard/internal/progress"
)

// Host bundles what the host window needs.
type Host struct {
	Config  *config.Config
	Tracker *progress.Tracker
	// Frames receives committed frames for the live mirror. Nil disables it.
	Frames chan mirror.Frame
	// ShareLink is shown in the status line when the mirror runs.
	ShareLink string
	// ConfigPath, when set, is watched and tool settings are reapplied on
	// change.
	ConfigPath string
}

// Session is the wired host board without a window, so it can be driven
// directly.
type Session struct {
	Board  *BoardWidget
	Status *widget.Label
	XP     *widget.Label
	host   Host
}

// NewSession builds the controller and board widget and connects the reward
// hook, the mirror feed and the status labels.
func NewSession(h Host) *Session {
	s := &Session{
		Status: widget.NewLabel("Ready"),
		XP:     widget.NewLabel(""),
		host:   h,
	}
	if h.Tracker != nil {
		s.showStats(h.Tracker.Stats())
	}

	opts := h.Config.BoardOptions()
	opts.OnReward = s.reward
	opts.OnCommit = s.commit
	ctrl := board.NewController(opts)

	s.Board = NewBoardWidget(ctrl,
		fyne.NewSize(float32(h.Config.Board.FallbackWidth), float32(h.Config.Board.FallbackHeight)),
		opts.Background)
	s.Board.OnInitError = func(err error) {
		slog.Error("[board] initialize failed", "err", err)
		s.SetStatus("Board unavailable: " + err.Error())
	}

	if h.Frames != nil && h.ShareLink != "" {
		s.SetStatus("LIVE " + h.ShareLink)
	}
	return s
}

// ApplyConfig takes the tool and leave policy from a reloaded config. The
// surface itself is never resized or recolored.
func (s *Session) ApplyConfig(cfg *config.Config) {
	ctrl := s.Board.Controller()
	ctrl.SetColor(cfg.Board.Color)
	ctrl.SetWidth(cfg.Board.Width)
	ctrl.SetLeavePolicy(board.LeavePolicy(cfg.Board.LeavePolicy))
	s.host.Config = cfg
}

func (s *Session) SetStatus(text string) {
	s.Status.SetText(text)
}

func (s *Session) showStats(st progress.Stats) {
	s.XP.SetText(fmt.Sprintf("LVL %d  %d/%d XP", st.Level, st.XP, st.NextLevelXP))
}

func (s *Session) reward(amount int) {
	if s.host.Tracker == nil {
		return
	}
	st, _ := s.host.Tracker.Add(amount)
	s.showStats(st)
}

// commit hands the frame to the mirror feed. When the feed is behind, the
// oldest queued frame is dropped so the newest always gets through.
func (s *Session) commit(c board.Commit) {
	if s.host.Frames == nil {
		return
	}
	f := mirror.Frame{Seq: c.Seq, Image: c.Image}
	select {
	case s.host.Frames <- f:
		return
	default:
	}
	select {
	case old := <-s.host.Frames:
		slog.Debug("[mirror] feed behind, frame dropped", "seq", old.Seq)
	default:
	}
	select {
	case s.host.Frames <- f:
	default:
	}
}

// ExportPNG writes the current board to the export directory.
func (s *Session) ExportPNG() (string, error) {
	data, err := s.Board.Controller().ExportSnapshot()
	if err != nil {
		return "", err
	}
	return export.WritePNG(s.host.Config.Export.Dir, data)
}

// ExportPDF writes the current board as a one page PDF.
func (s *Session) ExportPDF() (string, error) {
	data, err := s.Board.Controller().ExportSnapshot()
	if err != nil {
		return "", err
	}
	return export.WritePDF(s.host.Config.Export.Dir, data)
}

func (s *Session) runExport(kind string, fn func() (string, error)) {
	path, err := fn()
	if err != nil {
		slog.Error("[export] failed", "kind", kind, "err", err)
		s.SetStatus("Export failed: " + err.Error())
		return
	}
	slog.Info("[export] written", "kind", kind, "path", path)
	s.SetStatus("Saved " + path)
}

// RunApp opens the host window and blocks until it is closed.
func RunApp(h Host) {
	myApp := app.NewWithID("io.aether.board")
	myWindow := myApp.NewWindow("AETHER // Mind Meld")
	myWindow.Resize(fyne.NewSize(1024, 768))

	s := NewSession(h)
	if h.Tracker != nil {
		h.Tracker.OnLevelUp = func(st progress.Stats) {
			fyne.Do(func() {
				dialog.ShowInformation("LEVEL UP", fmt.Sprintf("You reached level %d", st.Level), myWindow)
			})
		}
	}

	toolbar := NewToolbar(s.Board, Actions{
		ExportPNG: func() { s.runExport("png", s.ExportPNG) },
		ExportPDF: func() { s.runExport("pdf", s.ExportPDF) },
	}, container.NewHBox(s.Status, s.XP))

	ctx, cancel := context.WithCancel(context.Background())
	myWindow.SetOnClosed(cancel)
	if h.ConfigPath != "" {
		go func() {
			err := config.Watch(ctx, h.ConfigPath, config.DefaultDebounce, func(cfg *config.Config) {
				fyne.Do(func() { s.ApplyConfig(cfg) })
			})
			if err != nil {
				slog.Warn("[config] live reload disabled", "err", err)
			}
		}()
	}

	content := container.NewBorder(toolbar, nil, nil, nil, s.Board)
	myWindow.SetContent(content)
	myWindow.ShowAndRun()
	cancel()
	_ = s.Board.Controller().Close()
}
