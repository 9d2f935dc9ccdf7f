package board

import (
	"AetherBoard/internal/surface"
)

// LeavePolicy decides what a pointer leaving the surface does to a stroke
// in progress.
type LeavePolicy string

const (
	// LeaveCommit ends the stroke as if the pointer had been released.
	LeaveCommit LeavePolicy = "commit"
	// LeaveDiscard drops the partial stroke and restores the last commit.
	LeaveDiscard LeavePolicy = "discard"
)

func (p LeavePolicy) Valid() bool {
	return p == LeaveCommit || p == LeaveDiscard
}

// Bounds is the host surface's bounding rectangle origin in device space.
type Bounds struct {
	Left, Top float64
}

// Local converts a device coordinate into a surface-local one.
func (b Bounds) Local(x, y float64) surface.Point {
	return surface.Point{X: x - b.Left, Y: y - b.Top}
}

// PointerDown starts a stroke with the current tool at the device position.
func (c *Controller) PointerDown(x, y float64, b Bounds) {
	c.BeginStroke(b.Local(x, y), c.tool.Color, c.tool.Width)
}

// PointerMove extends the stroke in progress. Moves outside a drag are
// ignored.
func (c *Controller) PointerMove(x, y float64, b Bounds) {
	c.ExtendStroke(b.Local(x, y))
}

// PointerUp commits the stroke in progress.
func (c *Controller) PointerUp() {
	c.EndStroke()
}

// PointerLeave ends the stroke in progress according to the leave policy.
// A leave arriving after an up finds the controller Idle and does nothing.
func (c *Controller) PointerLeave() {
	if c.opts.LeavePolicy == LeaveDiscard {
		c.DiscardStroke()
		return
	}
	c.EndStroke()
}
