// Package gesture implements the swipe-to-reveal state machine used by the
// note list. Each note row has its own state, keyed by note id.
package gesture

import (
	"sync"
	"time"
)

// Swipe thresholds, in pixels of leftward travel.
const (
	RevealOffset   = 80.0
	PreviewLimit   = 100.0
	FullSwipe      = 80.0
	QuickSwipe     = 30.0
	QuickSwipeTime = 300 * time.Millisecond
)

// Phase is the position of a row in the swipe state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseTracking
	PhaseRevealed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseTracking:
		return "tracking"
	case PhaseRevealed:
		return "revealed"
	default:
		return "unknown"
	}
}

// Item is the render state of one row. Translation is the horizontal
// offset in pixels (negative is left). Animated asks the view to ease to it.
type Item struct {
	Phase       Phase
	Translation float64
	Animated    bool

	originX    float64
	originTime time.Time
}

// Revealed reports whether the delete action is showing.
func (i Item) Revealed() bool {
	return i.Phase == PhaseRevealed
}

// Controller owns the per-row state.
type Controller struct {
	mu    sync.Mutex
	items map[string]Item
	now   func() time.Time
}

// NewController returns a Controller using now as its clock. A nil now uses time.Now.
func NewController(now func() time.Time) *Controller {
	if now == nil {
		now = time.Now
	}
	return &Controller{items: make(map[string]Item), now: now}
}

// Classify decides where a finished swipe settles: a long swipe, or a
// short one done quickly, reveals the action.
func Classify(delta float64, elapsed time.Duration) Phase {
	if delta > FullSwipe || (delta > QuickSwipe && elapsed < QuickSwipeTime) {
		return PhaseRevealed
	}
	return PhaseIdle
}

// Start begins tracking a swipe on id at x, from any phase.
func (c *Controller) Start(id string, x float64) Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	it := c.items[id]
	it.Phase = PhaseTracking
	it.Animated = false
	it.originX = x
	it.originTime = c.now()
	c.items[id] = it
	return it
}

// Move previews the swipe while the pointer travels left by at most
// PreviewLimit. Outside that range the row stays where it is.
func (c *Controller) Move(id string, x float64) Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items[id]
	if !ok || it.Phase != PhaseTracking {
		return it
	}
	if delta := it.originX - x; delta > 0 && delta <= PreviewLimit {
		it.Translation = -delta
		it.Animated = false
		c.items[id] = it
	}
	return it
}

// End settles the swipe on id released at x.
func (c *Controller) End(id string, x float64) Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items[id]
	if !ok || it.Phase != PhaseTracking {
		return it
	}

	it.Phase = Classify(it.originX-x, c.now().Sub(it.originTime))
	it.Animated = true
	if it.Phase == PhaseRevealed {
		it.Translation = -RevealOffset
	} else {
		it.Translation = 0
	}
	c.items[id] = it
	return it
}

// Reveal opens the action on id without a pointer, as a full swipe would.
func (c *Controller) Reveal(id string) Item {
	c.Start(id, FullSwipe+1)
	return c.End(id, 0)
}

// Reset closes id back to idle.
func (c *Controller) Reset(id string) Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	it := Item{Phase: PhaseIdle, Animated: true}
	c.items[id] = it
	return it
}

// Forget drops any state for id, for example after the note is deleted.
func (c *Controller) Forget(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, id)
}

// State returns the current state of id. Unknown ids are idle.
func (c *Controller) State(id string) Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items[id]
}

// Revealed lists the ids whose action is showing.
func (c *Controller) Revealed() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ids []string
	for id, it := range c.items {
		if it.Phase == PhaseRevealed {
			ids = append(ids, id)
		}
	}
	return ids
}
