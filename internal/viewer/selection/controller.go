// Package selection turns raw pointer input into selection updates,
// telling clicks apart from camera drags and applying replace vs augment
// semantics.
package selection

import (
	"math"

	"bim-viewer/internal/viewer/state"
)

// DragThreshold is the pointer travel (in cells, Euclidean) beyond which a
// press stops being a click and becomes a drag.
const DragThreshold = 5.0

// Button identifies the pointer button of an event.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
)

// PointerEvent is one pointer interaction in canvas coordinates. Augment
// is true while the modifier key is held.
type PointerEvent struct {
	X, Y    int
	Button  Button
	Augment bool
}

// Picker hit-tests a canvas position (the raycaster boundary).
type Picker interface {
	Pick(x, y int) (frontendID string, localID int, ok bool)
}

// Highlighter mirrors the resulting selection into the scene. Highlight
// replaces the whole highlighted set, which clears anything outside it.
type Highlighter interface {
	Highlight(sel state.Selection)
}

// Resolver kicks off property resolution for the representative element.
// seq is the generation captured when the selection changed; completions
// carrying an older generation are discarded.
type Resolver interface {
	Resolve(seq uint64, frontendID string, localID int)
}

type phase int

const (
	phaseIdle phase = iota
	phasePressed
	phaseDragging
)

// Controller is the pointer state machine. It is driven from the UI event
// loop only and therefore needs no locking of its own.
type Controller struct {
	store    *state.Store
	picker   Picker
	scene    Highlighter
	resolver Resolver

	phase          phase
	pressX, pressY int
}

func New(store *state.Store, picker Picker, scene Highlighter, resolver Resolver) *Controller {
	return &Controller{store: store, picker: picker, scene: scene, resolver: resolver}
}

// PointerDown starts click tracking for the primary button.
func (c *Controller) PointerDown(ev PointerEvent) {
	if ev.Button != ButtonPrimary {
		return
	}
	c.phase = phasePressed
	c.pressX, c.pressY = ev.X, ev.Y
}

// PointerMove cancels the pending click once the pointer travels past the
// drag threshold; the drag itself belongs to the camera, not to selection.
func (c *Controller) PointerMove(ev PointerEvent) {
	if c.phase != phasePressed {
		return
	}
	dx := float64(ev.X - c.pressX)
	dy := float64(ev.Y - c.pressY)
	if math.Sqrt(dx*dx+dy*dy) > DragThreshold {
		c.phase = phaseDragging
	}
}

// PointerUp finishes the gesture. Primary releases select unless the press
// turned into a drag. Secondary releases run the same pick logic and
// additionally report that a context menu should open at the pointer.
func (c *Controller) PointerUp(ev PointerEvent) (contextMenu bool) {
	if ev.Button == ButtonSecondary {
		c.phase = phaseIdle
		c.applyPick(ev)
		return true
	}

	wasPressed := c.phase == phasePressed
	c.phase = phaseIdle
	if !wasPressed {
		return false
	}
	c.applyPick(ev)
	return false
}

// applyPick computes the next selection from a pick at the event position
// and runs the side effects when it actually changed.
func (c *Controller) applyPick(ev PointerEvent) {
	current := c.store.State().Selection

	var next state.Selection
	fid, localID, hit := c.picker.Pick(ev.X, ev.Y)
	switch {
	case !hit && ev.Augment:
		// Augment mode tolerates missed re-clicks.
		return
	case !hit:
		next = state.Selection{}
	case ev.Augment:
		// Re-clicking a selected element augments a no-op; there is no
		// toggle-off.
		next = current.Add(fid, localID)
	default:
		next = current.Replace(fid, localID)
	}

	if next.Equal(current) {
		return
	}

	var seq uint64
	updated := c.store.Update(func(s state.AppState) state.AppState {
		s.Selection = next
		s.ResolveSeq++
		seq = s.ResolveSeq
		if next.IsEmpty() {
			s.Resolved = nil
			s.Loading = false
			s.Target = nil
		}
		return s
	})

	c.scene.Highlight(updated.Selection)

	if first, id, ok := updated.Selection.First(); ok {
		c.resolver.Resolve(seq, first, id)
	}
}
