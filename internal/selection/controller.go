package selection

import (
	"fmt"

	"creativedojo/internal/catalog"
	"creativedojo/internal/progress"
)

type State string

const (
	StateClosed State = "closed"
	StateOpen   State = "open"
)

// Controller tracks which challenge, if any, has its panel open. At most one is open.
type Controller struct {
	open bool
	id   int
}

func New() *Controller {
	return &Controller{}
}

// Open selects an unlocked tile, replacing any previous selection. Locked tiles are refused.
func (c *Controller) Open(tile progress.Tile) bool {
	if !tile.Unlocked {
		return false
	}
	c.open = true
	c.id = tile.ID
	return true
}

func (c *Controller) Close() {
	c.open = false
	c.id = 0
}

func (c *Controller) Current() (int, bool) {
	return c.id, c.open
}

func (c *Controller) State() State {
	if c.open {
		return StateOpen
	}
	return StateClosed
}

// ResolveContent looks the challenge up. A miss leaves the controller open on the id so the
// caller can render a not-found panel until Close.
func (c *Controller) ResolveContent(provider ContentProvider, id int) (catalog.Challenge, error) {
	ch, err := provider.Find(id)
	if err != nil {
		return catalog.Challenge{}, fmt.Errorf("resolve challenge %d: %w", id, err)
	}
	return ch, nil
}

// IsReadOnly reports whether the tile is completed. Unknown ids are treated as editable.
func IsReadOnly(tiles []progress.Tile, id int) bool {
	t, ok := progress.Find(tiles, id)
	return ok && t.Completed
}
