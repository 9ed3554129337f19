package ui

// FallbackTileWidth is used when a tile has not been measured yet.
const FallbackTileWidth = 10

const (
	minCols = 40
	minRows = 12
)

func DetermineLayoutMode(cols, rows int) LayoutMode {
	if cols < minCols || rows < minRows {
		return LayoutTooSmall
	}
	if cols >= 100 {
		return LayoutWide
	}
	return LayoutCompact
}

// Columns is how many tiles of tileWidth fit in containerWidth, at least one.
func Columns(containerWidth, tileWidth int) int {
	if tileWidth <= 0 {
		tileWidth = FallbackTileWidth
	}
	n := containerWidth / tileWidth
	if n < 1 {
		return 1
	}
	return n
}

// EditorInsertIndex is the position in the tile sequence right after the row holding id.
// A short last row clamps the index to tileCount.
func EditorInsertIndex(tileCount, id, columns int) int {
	if columns < 1 {
		columns = 1
	}
	if id < 1 {
		id = 1
	}
	idx := ((id-1)/columns + 1) * columns
	if idx > tileCount {
		idx = tileCount
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}
