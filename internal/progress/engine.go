package progress

// Tile is one challenge's unlock/completion status.
type Tile struct {
	ID        int
	Unlocked  bool
	Completed bool
}

// Initialize produces n tiles with only the first unlocked.
func Initialize(n int) []Tile {
	if n <= 0 {
		return []Tile{}
	}
	tiles := make([]Tile, n)
	for i := range tiles {
		tiles[i] = Tile{ID: i + 1, Unlocked: i == 0}
	}
	return tiles
}

// Complete marks id completed and unlocks id+1. It never clears a flag; a locked, completed
// or unknown id yields an unchanged copy.
func Complete(tiles []Tile, id, catalogSize int) []Tile {
	out := append([]Tile(nil), tiles...)
	idx := indexOf(out, id)
	if idx < 0 || !out[idx].Unlocked || out[idx].Completed {
		return out
	}
	out[idx].Completed = true
	if id < catalogSize {
		if next := indexOf(out, id+1); next >= 0 {
			out[next].Unlocked = true
		}
	}
	return out
}

func Find(tiles []Tile, id int) (Tile, bool) {
	idx := indexOf(tiles, id)
	if idx < 0 {
		return Tile{}, false
	}
	return tiles[idx], true
}

func CompletedCount(tiles []Tile) int {
	n := 0
	for _, t := range tiles {
		if t.Completed {
			n++
		}
	}
	return n
}

func indexOf(tiles []Tile, id int) int {
	// Tiles are positional in the common case.
	if id >= 1 && id <= len(tiles) && tiles[id-1].ID == id {
		return id - 1
	}
	for i, t := range tiles {
		if t.ID == id {
			return i
		}
	}
	return -1
}
