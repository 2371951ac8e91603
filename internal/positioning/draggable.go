// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package positioning implements the move/resize primitive used by the
// certificate designer. A Draggable owns one rectangular region expressed in
// logical canvas coordinates and converts on-screen pointer deltas into
// logical deltas by dividing by the current display scale.
//
// A Draggable keeps two positions: the committed one, which is what the owner
// sees through OnDragEnd/OnResizeEnd, and a live one that follows every
// pointer move and feeds the display transform. Only gesture end publishes.
package positioning

import (
	"fmt"
	"math"
	"strconv"
)

// Minimum committed size in logical pixels. Resizes never go below these.
const (
	MinWidth  = 40.0
	MinHeight = 30.0
)

// Point is a logical top-left position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a logical size. H is nil for auto-height content: resizing such a
// region changes only W, and the rendered content decides the height.
type Size struct {
	W float64  `json:"w"`
	H *float64 `json:"h,omitempty"`
}

func (s Size) equal(o Size) bool {
	if s.W != o.W {
		return false
	}
	if s.H == nil || o.H == nil {
		return s.H == nil && o.H == nil
	}
	return *s.H == *o.H
}

func (s Size) copy() Size {
	if s.H == nil {
		return s
	}
	h := *s.H
	return Size{W: s.W, H: &h}
}

// Source identifies the input device of a pointer event.
type Source int

const (
	SourceMouse Source = iota
	SourceTouch
)

// PointerEvent carries on-screen pointer coordinates. Touches is the number
// of active touch points for touch events; only single-touch gestures are
// handled.
type PointerEvent struct {
	Source  Source  `json:"source"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Touches int     `json:"touches,omitempty"`
}

func (ev PointerEvent) multiTouch() bool {
	return ev.Source == SourceTouch && ev.Touches > 1
}

// State is the gesture state of a Draggable.
type State int

const (
	Idle State = iota
	Dragging
	Resizing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Resizing:
		return "resizing"
	}
	return "unknown"
}

// Config parameterizes a Draggable. Selection is owned by the caller:
// pressing on the region calls OnSelect, and the caller answers by passing
// Selected in the next Update.
type Config struct {
	InitialPosition Point
	InitialSize     Size
	Enabled         bool
	Resizable       bool
	Selected        bool
	Scale           float64 // on-screen px per logical px; <= 0 means 1
	GridSize        float64 // > 0 snaps committed drag positions

	OnSelect    func()
	OnDragEnd   func(Point)
	OnResizeEnd func(Size)
}

// Draggable is the per-element gesture state machine:
// idle -> dragging -> idle and idle -> resizing -> idle.
type Draggable struct {
	cfg   Config
	state State

	position Point // committed
	size     Size  // committed

	livePos  Point
	liveSize Size

	startPointer Point
	startPos     Point
	startSize    Size
}

// New creates an idle Draggable seeded from cfg.
func New(cfg Config) *Draggable {
	d := &Draggable{cfg: cfg}
	d.position = cfg.InitialPosition
	d.size = cfg.InitialSize.copy()
	d.livePos = d.position
	d.liveSize = d.size.copy()
	return d
}

// Update replaces the configuration. When the owner's initial position or
// size differ from the previous configuration, the committed state is
// re-synced to them. Disabling the Draggable aborts any running gesture
// without committing.
func (d *Draggable) Update(cfg Config) {
	prev := d.cfg
	d.cfg = cfg

	if cfg.InitialPosition != prev.InitialPosition {
		d.position = cfg.InitialPosition
		if d.state != Dragging {
			d.livePos = d.position
		}
	}
	if !cfg.InitialSize.equal(prev.InitialSize) {
		d.size = cfg.InitialSize.copy()
		if d.state != Resizing {
			d.liveSize = d.size.copy()
		}
	}

	if !cfg.Enabled && d.state != Idle {
		d.reset()
	}
}

// PointerDown handles a press on the region body. It requests selection and
// starts a drag. It returns false when the press is ignored: the Draggable is
// disabled, a gesture is already running, or the touch is multi-finger.
func (d *Draggable) PointerDown(ev PointerEvent) bool {
	if !d.cfg.Enabled || d.state != Idle || ev.multiTouch() {
		return false
	}
	if d.cfg.OnSelect != nil {
		d.cfg.OnSelect()
	}
	d.state = Dragging
	d.startPointer = Point{X: ev.X, Y: ev.Y}
	d.startPos = d.position
	d.livePos = d.position
	return true
}

// HandleDown handles a press on the resize handle. The handle only exists
// while the region is enabled, resizable and selected.
func (d *Draggable) HandleDown(ev PointerEvent) bool {
	if !d.HandleVisible() || d.state != Idle || ev.multiTouch() {
		return false
	}
	d.state = Resizing
	d.startPointer = Point{X: ev.X, Y: ev.Y}
	d.startSize = d.size.copy()
	d.liveSize = d.size.copy()
	return true
}

// PointerMove updates the live geometry of the running gesture. It never
// calls back into the owner.
func (d *Draggable) PointerMove(ev PointerEvent) {
	if d.state == Idle || ev.multiTouch() {
		return
	}
	scale := d.scale()
	dx := (ev.X - d.startPointer.X) / scale
	dy := (ev.Y - d.startPointer.Y) / scale

	switch d.state {
	case Dragging:
		d.livePos = Point{X: d.startPos.X + dx, Y: d.startPos.Y + dy}
	case Resizing:
		d.liveSize = resized(d.startSize, dx, dy)
	}
}

// PointerUp ends the running gesture and publishes the committed value
// exactly once. It is meant to be called for releases observed anywhere on
// the page, not only over the region.
func (d *Draggable) PointerUp() {
	switch d.state {
	case Dragging:
		final := Point{X: snap(d.livePos.X, d.cfg.GridSize), Y: snap(d.livePos.Y, d.cfg.GridSize)}
		d.position = final
		d.livePos = final
		d.state = Idle
		if d.cfg.OnDragEnd != nil {
			d.cfg.OnDragEnd(final)
		}
	case Resizing:
		final := d.liveSize.copy()
		d.size = final
		d.state = Idle
		if d.cfg.OnResizeEnd != nil {
			d.cfg.OnResizeEnd(final.copy())
		}
	}
}

// Cancel aborts the running gesture, restoring the live geometry to the
// committed one without calling back. It reports whether a gesture was
// running.
func (d *Draggable) Cancel() bool {
	if d.state == Idle {
		return false
	}
	d.reset()
	return true
}

func (d *Draggable) reset() {
	d.state = Idle
	d.livePos = d.position
	d.liveSize = d.size.copy()
}

// State returns the current gesture state.
func (d *Draggable) State() State { return d.state }

// Position returns the committed logical position.
func (d *Draggable) Position() Point { return d.position }

// Size returns the committed logical size.
func (d *Draggable) Size() Size { return d.size.copy() }

// Live returns the geometry currently on display.
func (d *Draggable) Live() (Point, Size) { return d.livePos, d.liveSize.copy() }

// Interactive reports whether the region reacts to pointer input at all.
func (d *Draggable) Interactive() bool { return d.cfg.Enabled }

// Selected reports the owner-provided selection flag.
func (d *Draggable) Selected() bool { return d.cfg.Selected }

// HandleVisible reports whether the resize handle is shown.
func (d *Draggable) HandleVisible() bool {
	return d.cfg.Enabled && d.cfg.Resizable && d.cfg.Selected
}

// Scale returns the effective display scale.
func (d *Draggable) Scale() float64 { return d.scale() }

// Transform returns the display transform for the live position in
// on-screen pixels, e.g. "translate(50px, 25px)".
func (d *Draggable) Transform() string {
	s := d.scale()
	return fmt.Sprintf("translate(%spx, %spx)", FormatPx(d.livePos.X*s), FormatPx(d.livePos.Y*s))
}

func (d *Draggable) scale() float64 {
	if d.cfg.Scale <= 0 || math.IsNaN(d.cfg.Scale) || math.IsInf(d.cfg.Scale, 0) {
		return 1
	}
	return d.cfg.Scale
}

// resized applies a logical pointer delta to a starting size, honouring the
// minimum floors. Auto-height sizes stay auto-height: only the width follows
// the pointer and the content keeps determining its own height.
func resized(start Size, dx, dy float64) Size {
	out := Size{W: math.Max(MinWidth, start.W+dx)}
	if start.H != nil {
		h := math.Max(MinHeight, *start.H+dy)
		out.H = &h
	}
	return out
}

// snap rounds v to the nearest multiple of grid, halves rounding up.
func snap(v, grid float64) float64 {
	if grid <= 0 {
		return v
	}
	return math.Floor(v/grid+0.5) * grid
}

// FormatPx formats a pixel value without trailing zeros, rounded to four
// decimals so float noise does not leak into the output.
func FormatPx(v float64) string {
	r := math.Round(v*1e4) / 1e4
	if r == 0 {
		r = 0 // normalize -0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
