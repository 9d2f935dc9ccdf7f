// Package board implements the drawing surface controller: a fixed-size
// raster, a bounded snapshot history for undo, and the stroke state machine
// fed by pointer input.
//
// A Controller is owned by a single event loop. None of its methods block
// and none of them are safe for concurrent use.
package board

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/google/uuid"

	"AetherBoard/internal/surface"
)

var (
	ErrInvalidSize        = errors.New("board: width and height must be positive")
	ErrAlreadyInitialized = errors.New("board: surface already initialized")
	ErrNotInitialized     = errors.New("board: surface not initialized")
)

// StrokeReward is the fixed reward for one committed stroke.
const StrokeReward = 2

// NoReward turns a reward off in Options. Zero means the default.
const NoReward = -1

// Phase is the stroke state machine position.
type Phase int

const (
	Idle Phase = iota
	Stroking
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Stroking:
		return "stroking"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// CommitKind says what produced a commit.
type CommitKind string

const (
	CommitInit   CommitKind = "init"
	CommitStroke CommitKind = "stroke"
	CommitClear  CommitKind = "clear"
	CommitUndo   CommitKind = "undo"
)

// Commit describes a change to the committed surface.
type Commit struct {
	Kind  CommitKind
	Seq   uint64
	Image *image.RGBA
}

// RewardHook receives the reward for a committed stroke or clear.
type RewardHook func(amount int)

// Options configures a Controller. Zero values fall back to the defaults;
// use NoReward to switch a reward off.
type Options struct {
	Background   color.Color
	HistoryDepth int
	StrokeReward int
	ClearReward  int
	LeavePolicy  LeavePolicy
	Tool         Tool

	OnReward RewardHook
	OnCommit func(Commit)
}

// DefaultOptions returns the stock board settings.
func DefaultOptions() Options {
	return Options{
		Background:   mustColor(DefaultBackground),
		HistoryDepth: DefaultDepth,
		StrokeReward: StrokeReward,
		ClearReward:  StrokeReward,
		LeavePolicy:  LeaveCommit,
		Tool:         DefaultTool(),
	}
}

// activeStroke exists only while the controller is Stroking.
type activeStroke struct {
	last     surface.Point
	style    surface.Style
	segments int
}

// Controller owns the surface, its history and the tool state.
type Controller struct {
	opts    Options
	surf    *surface.Surface
	history *History
	tool    Tool

	phase  Phase
	stroke *activeStroke
	seq    uint64
}

// NewController builds a controller. Initialize must be called before any
// drawing has a visible effect.
func NewController(opts Options) *Controller {
	def := DefaultOptions()
	if opts.Background == nil {
		opts.Background = def.Background
	}
	if opts.HistoryDepth < 2 {
		opts.HistoryDepth = def.HistoryDepth
	}
	if opts.StrokeReward == 0 {
		opts.StrokeReward = def.StrokeReward
	}
	if opts.ClearReward == 0 {
		opts.ClearReward = def.ClearReward
	}
	if opts.LeavePolicy == "" {
		opts.LeavePolicy = def.LeavePolicy
	}
	if opts.Tool.Color == "" {
		opts.Tool.Color = def.Tool.Color
	}
	if opts.Tool.Width == 0 {
		opts.Tool.Width = def.Tool.Width
	}
	opts.Tool.Width = ClampWidth(opts.Tool.Width)

	return &Controller{
		opts:    opts,
		history: NewHistory(opts.HistoryDepth),
		tool:    opts.Tool,
	}
}

// Initialize allocates the surface, fills it with the background color and
// records it as the baseline snapshot.
func (c *Controller) Initialize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if c.surf != nil {
		return ErrAlreadyInitialized
	}
	c.surf = surface.New(width, height, c.opts.Background)
	c.pushSnapshot()
	logger().Info("[board] surface initialized", "width", width, "height", height)
	c.emit(CommitInit)
	return nil
}

func (c *Controller) Initialized() bool { return c.surf != nil }

// Size returns the surface dimensions, or zeros before Initialize.
func (c *Controller) Size() (int, int) {
	if c.surf == nil {
		return 0, 0
	}
	return c.surf.Width(), c.surf.Height()
}

func (c *Controller) Phase() Phase        { return c.phase }
func (c *Controller) HistoryLen() int     { return c.history.Len() }
func (c *Controller) Revision() uint64    { return c.seq }
func (c *Controller) Tool() Tool          { return c.tool }
func (c *Controller) Policy() LeavePolicy { return c.opts.LeavePolicy }

// SetColor selects the color for the next stroke. Invalid colors are ignored.
func (c *Controller) SetColor(hex string) {
	if _, err := ParseColor(hex); err != nil {
		logger().Debug("[board] ignoring color", "color", hex, "err", err)
		return
	}
	c.tool.Color = hex
}

// SetWidth selects the line width for the next stroke, clamped to 1..20.
func (c *Controller) SetWidth(w int) {
	c.tool.Width = ClampWidth(w)
}

// SetLeavePolicy changes how PointerLeave ends a stroke.
func (c *Controller) SetLeavePolicy(p LeavePolicy) {
	if p.Valid() {
		c.opts.LeavePolicy = p
	}
}

// BeginStroke starts a stroke at p. It is a no-op while a stroke is already
// in progress or before Initialize.
func (c *Controller) BeginStroke(p surface.Point, hex string, width int) {
	if c.surf == nil {
		logger().Debug("[board] begin before initialize")
		return
	}
	if c.phase != Idle {
		logger().Debug("[board] begin while stroking ignored")
		return
	}
	col, err := ParseColor(hex)
	if err != nil {
		col = mustColor(DefaultColor)
	}
	c.stroke = &activeStroke{
		last: p,
		style: surface.Style{
			Color: col,
			Width: float64(ClampWidth(width)),
			Glow:  GlowRadius,
		},
	}
	c.phase = Stroking
}

// ExtendStroke draws a segment from the last point to p. It is a no-op
// unless a stroke is in progress.
func (c *Controller) ExtendStroke(p surface.Point) {
	if c.phase != Stroking || c.stroke == nil {
		return
	}
	if err := c.surf.Segment(c.stroke.last, p, c.stroke.style); err != nil {
		logger().Warn("[board] segment failed", "err", err)
	}
	c.stroke.last = p
	c.stroke.segments++
}

// EndStroke commits the stroke in progress: the surface is pushed onto the
// history, the reward hook fires and the controller returns to Idle.
func (c *Controller) EndStroke() {
	if c.phase != Stroking {
		return
	}
	segments := c.stroke.segments
	c.phase = Idle
	c.stroke = nil

	c.pushSnapshot()
	c.reward(c.opts.StrokeReward)
	c.emit(CommitStroke)
	logger().Debug("[board] stroke committed", "segments", segments, "history", c.history.Len())
}

// DiscardStroke abandons the stroke in progress and restores the surface
// to the newest committed snapshot. Nothing is pushed or rewarded.
func (c *Controller) DiscardStroke() {
	if c.phase != Stroking {
		return
	}
	c.phase = Idle
	c.stroke = nil
	if top, ok := c.history.Top(); ok {
		c.restore(top)
	}
	logger().Debug("[board] stroke discarded")
}

// Undo restores the previous snapshot. At the oldest retained snapshot it
// does nothing. A stroke in progress is discarded first.
func (c *Controller) Undo() {
	if c.surf == nil {
		return
	}
	c.DiscardStroke()
	snap, ok := c.history.Undo()
	if !ok {
		logger().Debug("[board] undo at floor")
		return
	}
	c.restore(snap)
	c.emit(CommitUndo)
}

// Clear paints the background over the whole surface and commits it.
func (c *Controller) Clear() {
	if c.surf == nil {
		return
	}
	c.phase = Idle
	c.stroke = nil
	c.surf.Fill(c.opts.Background)
	c.pushSnapshot()
	c.reward(c.opts.ClearReward)
	c.emit(CommitClear)
}

// ExportSnapshot returns the current surface as PNG.
func (c *Controller) ExportSnapshot() ([]byte, error) {
	if c.surf == nil {
		return nil, ErrNotInitialized
	}
	var buf bytes.Buffer
	if err := c.surf.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Image returns a copy of the current surface, or nil before Initialize.
func (c *Controller) Image() *image.RGBA {
	if c.surf == nil {
		return nil
	}
	return c.surf.Image()
}

// Pixels returns a copy of the raw RGBA bytes, or nil before Initialize.
func (c *Controller) Pixels() []byte {
	if c.surf == nil {
		return nil
	}
	return c.surf.Snapshot()
}

// Close releases the surface. The controller returns to its uninitialized
// state and may be initialized again.
func (c *Controller) Close() error {
	if c.surf == nil {
		return nil
	}
	err := c.surf.Close()
	c.surf = nil
	c.phase = Idle
	c.stroke = nil
	c.history = NewHistory(c.opts.HistoryDepth)
	return err
}

func (c *Controller) pushSnapshot() {
	c.seq++
	evicted := c.history.Push(Snapshot{
		ID:  uuid.New(),
		Seq: c.seq,
		Pix: c.surf.Snapshot(),
	})
	if evicted {
		logger().Debug("[board] history full, oldest snapshot evicted")
	}
}

func (c *Controller) restore(s Snapshot) {
	if err := c.surf.Restore(s.Pix); err != nil {
		logger().Error("[board] restore failed", "snapshot", s.ID, "err", err)
	}
}

func (c *Controller) reward(amount int) {
	if c.opts.OnReward != nil && amount > 0 {
		c.opts.OnReward(amount)
	}
}

func (c *Controller) emit(kind CommitKind) {
	if kind == CommitUndo {
		c.seq++
	}
	if c.opts.OnCommit == nil {
		return
	}
	c.opts.OnCommit(Commit{Kind: kind, Seq: c.seq, Image: c.surf.Image()})
}
