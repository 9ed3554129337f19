package ui

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

type Theme struct {
	Header       lipgloss.Style
	Status       lipgloss.Style
	PanelTitle   lipgloss.Style
	PanelBorder  lipgloss.Style
	PanelBody    lipgloss.Style
	Overlay      lipgloss.Style
	OverlayTitle lipgloss.Style
	Accent       lipgloss.Style
	Done         lipgloss.Style
	Error        lipgloss.Style
	Open         lipgloss.Style
	Locked       lipgloss.Style
	Info         lipgloss.Style

	// Tile borders follow the tile's progress state; focus only recolours the border.
	Tile       lipgloss.Style
	TileDone   lipgloss.Style
	TileLocked lipgloss.Style
	TileFocus  color.Color
}

func DefaultTheme() Theme {
	return ThemeForVariant("modern_arcade")
}

func ThemeForVariant(variant string) Theme {
	switch variant {
	case "cozy_clean":
		return cozyCleanTheme()
	case "retro_terminal":
		return retroTerminalTheme()
	default:
		return modernArcadeTheme()
	}
}

// boardPalette is the per-variant colour set for the tile grid.
type boardPalette struct {
	open, done, locked, focus color.Color
	border                    lipgloss.Border
}

func (p boardPalette) apply(t *Theme) {
	base := lipgloss.NewStyle().
		BorderStyle(p.border).
		Padding(0, 1)
	t.Tile = base.BorderForeground(p.open)
	t.TileDone = base.BorderForeground(p.done)
	t.TileLocked = base.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(p.locked).
		Faint(true)
	t.TileFocus = p.focus
}

// tileStyle picks the border for a tile in the given state.
func (t Theme) tileStyle(tile Tile, focused bool) lipgloss.Style {
	style := t.Tile
	switch {
	case tile.Completed:
		style = t.TileDone
	case !tile.Unlocked:
		style = t.TileLocked
	}
	if focused {
		style = style.BorderForeground(t.TileFocus).Bold(true).Faint(false)
	}
	return style
}

func modernArcadeTheme() Theme {
	canvas := lipgloss.Color("#14111F")
	easel := lipgloss.Color("#2A2340")
	chalk := lipgloss.Color("#F7F3FF")
	magenta := lipgloss.Color("#F25CAF")
	teal := lipgloss.Color("#3DDCC4")
	saffron := lipgloss.Color("#FFB938")
	coral := lipgloss.Color("#FF6A5C")
	lilac := lipgloss.Color("#8D7FB8")

	t := Theme{
		Header: lipgloss.NewStyle().
			Background(canvas).
			Foreground(chalk).
			Bold(true).
			Padding(0, 1),
		Status: lipgloss.NewStyle().
			Background(easel).
			Foreground(chalk).
			Padding(0, 1),
		PanelTitle: lipgloss.NewStyle().
			Foreground(magenta).
			Bold(true),
		PanelBorder: lipgloss.NewStyle().
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(magenta).
			Padding(0, 1),
		PanelBody: lipgloss.NewStyle().
			Foreground(chalk),
		Overlay: lipgloss.NewStyle().
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(saffron).
			Background(canvas).
			Foreground(chalk).
			Padding(1, 2),
		OverlayTitle: lipgloss.NewStyle().
			Foreground(saffron).
			Bold(true),
		Accent: lipgloss.NewStyle().Foreground(magenta).Bold(true),
		Done:   lipgloss.NewStyle().Foreground(teal).Bold(true),
		Error:  lipgloss.NewStyle().Foreground(coral).Bold(true),
		Open:   lipgloss.NewStyle().Foreground(saffron),
		Locked: lipgloss.NewStyle().Foreground(lilac),
		Info:   lipgloss.NewStyle().Foreground(teal),
	}
	boardPalette{open: saffron, done: teal, locked: lilac, focus: magenta, border: lipgloss.RoundedBorder()}.apply(&t)
	return t
}

func cozyCleanTheme() Theme {
	linen := lipgloss.Color("#FBF6EE")
	walnut := lipgloss.Color("#3B2F2A")
	cocoa := lipgloss.Color("#5C4A42")
	terracotta := lipgloss.Color("#D97B5A")
	olive := lipgloss.Color("#8BA66B")
	clay := lipgloss.Color("#B89C8A")
	denim := lipgloss.Color("#6B8BB5")

	t := Theme{
		Header:     lipgloss.NewStyle().Background(walnut).Foreground(linen).Padding(0, 1),
		Status:     lipgloss.NewStyle().Background(cocoa).Foreground(linen).Padding(0, 1),
		PanelTitle: lipgloss.NewStyle().Foreground(terracotta).Bold(true),
		PanelBorder: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(clay).
			Padding(0, 1),
		PanelBody: lipgloss.NewStyle().Foreground(linen),
		Overlay: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(terracotta).
			Background(walnut).
			Foreground(linen).
			Padding(1, 2),
		OverlayTitle: lipgloss.NewStyle().Foreground(terracotta).Bold(true),
		Accent:       lipgloss.NewStyle().Foreground(denim).Bold(true),
		Done:         lipgloss.NewStyle().Foreground(olive).Bold(true),
		Error:        lipgloss.NewStyle().Foreground(terracotta).Bold(true).Underline(true),
		Open:         lipgloss.NewStyle().Foreground(denim),
		Locked:       lipgloss.NewStyle().Foreground(clay),
		Info:         lipgloss.NewStyle().Foreground(denim),
	}
	boardPalette{open: denim, done: olive, locked: clay, focus: terracotta, border: lipgloss.RoundedBorder()}.apply(&t)
	return t
}

func retroTerminalTheme() Theme {
	phosphor := lipgloss.Color("#FFB000")
	ember := lipgloss.Color("#FF7A1A")
	ash := lipgloss.Color("#7A5A2E")
	void := lipgloss.Color("#120B02")
	soot := lipgloss.Color("#2B1B08")
	cream := lipgloss.Color("#FFE7B3")
	cyan := lipgloss.Color("#6FE3E1")

	t := Theme{
		Header:     lipgloss.NewStyle().Background(void).Foreground(phosphor).Padding(0, 1),
		Status:     lipgloss.NewStyle().Background(soot).Foreground(cream).Padding(0, 1),
		PanelTitle: lipgloss.NewStyle().Foreground(phosphor).Bold(true),
		PanelBorder: lipgloss.NewStyle().
			BorderStyle(lipgloss.DoubleBorder()).
			BorderForeground(ember).
			Padding(0, 1),
		PanelBody: lipgloss.NewStyle().Foreground(cream),
		Overlay: lipgloss.NewStyle().
			BorderStyle(lipgloss.DoubleBorder()).
			BorderForeground(phosphor).
			Background(void).
			Foreground(cream).
			Padding(1, 2),
		OverlayTitle: lipgloss.NewStyle().Foreground(phosphor).Bold(true),
		Accent:       lipgloss.NewStyle().Foreground(cyan).Bold(true),
		Done:         lipgloss.NewStyle().Foreground(cyan).Bold(true),
		Error:        lipgloss.NewStyle().Foreground(ember).Bold(true).Reverse(true),
		Open:         lipgloss.NewStyle().Foreground(phosphor),
		Locked:       lipgloss.NewStyle().Foreground(ash),
		Info:         lipgloss.NewStyle().Foreground(cyan),
	}
	boardPalette{open: phosphor, done: cyan, locked: ash, focus: ember, border: lipgloss.BlockBorder()}.apply(&t)
	return t
}
