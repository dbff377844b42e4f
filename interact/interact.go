// Package interact turns pointer events and edit commands into sticker
// overlay mutations.
//
// The controller is a small state machine:
//
//	Idle     --down on sticker-->  Dragging
//	Idle     --down on nothing-->  Idle
//	Dragging --move-->             Dragging (sticker follows pointer)
//	Dragging --up-->               Selected
//	Selected --delete-->           Idle
//	any      --reset-->            Idle
package interact

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/soypat/digicam"
	"github.com/soypat/digicam/sticker"
	"github.com/soypat/geometry/ms2"
)

// DefaultHitRadius is the exclusive pointer distance within which a sticker is hit.
const DefaultHitRadius = 30

// State of the interaction controller.
type State uint8

const (
	StateIdle State = iota
	StateSelected
	StateDragging
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSelected:
		return "selected"
	case StateDragging:
		return "dragging"
	}
	return "State(" + fmt.Sprint(uint8(s)) + ")"
}

// Controller edits an overlay in response to pointer events and commands.
// It holds only the id of the selected sticker, never a copy.
type Controller struct {
	overlay  *sticker.Overlay
	radius   float32
	state    State
	selected uuid.UUID
}

// NewController creates an idle controller over o. A non-positive radius
// uses [DefaultHitRadius].
func NewController(o *sticker.Overlay, hitRadius float32) *Controller {
	if !(hitRadius > 0) {
		hitRadius = DefaultHitRadius
	}
	return &Controller{overlay: o, radius: hitRadius}
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// HitRadius returns the radius used by [Controller.PointerDown].
func (c *Controller) HitRadius() float32 { return c.radius }

// Selected returns the selected sticker. It reports false when idle.
func (c *Controller) Selected() (sticker.Sticker, bool) {
	if c.state == StateIdle {
		return sticker.Sticker{}, false
	}
	s, err := c.overlay.Get(c.selected)
	if err != nil {
		// Removed behind the controller's back.
		c.clear()
		return sticker.Sticker{}, false
	}
	return s, true
}

// Dragging reports whether a drag is in progress.
func (c *Controller) Dragging() bool { return c.state == StateDragging }

// PointerDown hit tests p. On a hit the sticker is selected and a drag begins;
// otherwise the selection is cleared. It reports whether a sticker was hit.
func (c *Controller) PointerDown(p ms2.Vec) (sticker.Sticker, bool) {
	s, ok := c.overlay.HitTest(p, c.radius)
	if !ok {
		c.clear()
		return sticker.Sticker{}, false
	}
	c.selected = s.ID
	c.state = StateDragging
	logrus.WithFields(logrus.Fields{
		"function": "Controller.PointerDown",
		"id":       s.ID,
		"x":        p.X,
		"y":        p.Y,
	}).Debug("Drag started")
	return s, true
}

// PointerMove moves the dragged sticker to p. It reports whether the overlay changed.
func (c *Controller) PointerMove(p ms2.Vec) bool {
	if c.state != StateDragging {
		return false
	}
	if err := c.overlay.Move(c.selected, p); err != nil {
		c.clear()
		return false
	}
	return true
}

// PointerUp ends a drag, keeping the sticker selected.
func (c *Controller) PointerUp() {
	if c.state == StateDragging {
		c.state = StateSelected
	}
}

// Select selects the sticker with the given id without starting a drag.
func (c *Controller) Select(id uuid.UUID) error {
	if _, err := c.overlay.Get(id); err != nil {
		return err
	}
	c.selected = id
	c.state = StateSelected
	return nil
}

// Deselect returns to idle.
func (c *Controller) Deselect() { c.clear() }

func (c *Controller) current() (uuid.UUID, error) {
	if c.state == StateIdle {
		return uuid.Nil, fmt.Errorf("%w: no sticker selected", digicam.ErrStickerNotFound)
	}
	return c.selected, nil
}

// Rescale adds delta to the selected sticker's scale.
func (c *Controller) Rescale(delta float32) (sticker.Sticker, error) {
	id, err := c.current()
	if err != nil {
		return sticker.Sticker{}, err
	}
	return c.overlay.Rescale(id, delta)
}

// Rotate adds delta degrees to the selected sticker's rotation.
func (c *Controller) Rotate(delta float32) (sticker.Sticker, error) {
	id, err := c.current()
	if err != nil {
		return sticker.Sticker{}, err
	}
	return c.overlay.Rotate(id, delta)
}

// Delete removes the selected sticker and returns to idle.
func (c *Controller) Delete() error {
	id, err := c.current()
	if err != nil {
		return err
	}
	c.clear()
	return c.overlay.Remove(id)
}

// Forget clears the selection if it refers to id. Callers removing stickers
// directly from the overlay use it to keep the controller consistent.
func (c *Controller) Forget(id uuid.UUID) {
	if c.state != StateIdle && c.selected == id {
		c.clear()
	}
}

// Reset removes every sticker and returns to idle.
func (c *Controller) Reset() {
	c.overlay.Reset()
	c.clear()
}

func (c *Controller) clear() {
	c.state = StateIdle
	c.selected = uuid.Nil
}
