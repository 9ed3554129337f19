package ui

import "testing"

func TestDetermineLayoutMode(t *testing.T) {
	if got := DetermineLayoutMode(140, 30); got != LayoutWide {
		t.Fatalf("expected wide, got %v", got)
	}
	if got := DetermineLayoutMode(80, 30); got != LayoutCompact {
		t.Fatalf("expected compact, got %v", got)
	}
	if got := DetermineLayoutMode(30, 30); got != LayoutTooSmall {
		t.Fatalf("expected too-small, got %v", got)
	}
	if got := DetermineLayoutMode(100, 10); got != LayoutTooSmall {
		t.Fatalf("expected too-small by height, got %v", got)
	}
}

func TestColumns(t *testing.T) {
	cases := []struct {
		container, tile, want int
	}{
		{container: 40, tile: 10, want: 4},
		{container: 45, tile: 10, want: 4},
		{container: 5, tile: 10, want: 1},
		{container: 0, tile: 10, want: 1},
		{container: 100, tile: 0, want: 10},
		{container: 100, tile: -3, want: 10},
	}
	for _, tc := range cases {
		if got := Columns(tc.container, tc.tile); got != tc.want {
			t.Fatalf("Columns(%d, %d): expected %d, got %d", tc.container, tc.tile, tc.want, got)
		}
	}
}

func TestEditorInsertIndex(t *testing.T) {
	cases := []struct {
		count, id, cols, want int
	}{
		{count: 30, id: 6, cols: 4, want: 8},
		{count: 30, id: 1, cols: 4, want: 4},
		{count: 30, id: 4, cols: 4, want: 4},
		{count: 30, id: 5, cols: 4, want: 8},
		{count: 30, id: 29, cols: 4, want: 30},
		{count: 30, id: 30, cols: 1, want: 30},
		{count: 10, id: 3, cols: 0, want: 3},
		{count: 10, id: 0, cols: 4, want: 4},
		{count: 2, id: 1, cols: 4, want: 2},
	}
	for _, tc := range cases {
		if got := EditorInsertIndex(tc.count, tc.id, tc.cols); got != tc.want {
			t.Fatalf("EditorInsertIndex(%d, %d, %d): expected %d, got %d", tc.count, tc.id, tc.cols, tc.want, got)
		}
	}
}

func TestZeroWidthContainerStillPlacesEditor(t *testing.T) {
	cols := Columns(0, 0)
	idx := EditorInsertIndex(30, 6, cols)
	if cols != 1 || idx != 6 {
		t.Fatalf("expected one column and index 6, got cols=%d idx=%d", cols, idx)
	}
}
