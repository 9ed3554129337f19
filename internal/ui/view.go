package ui

import (
	"fmt"
	"image/color"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/harmonica"
	clog "github.com/charmbracelet/log"
	"github.com/charmbracelet/x/ansi"
	"github.com/lucasb-eyer/go-colorful"
)

// Palette is the brush colours bound to keys 1..9 and 0.
var Palette = []string{
	"#000000", "#FFFFFF", "#E63946", "#F4A261", "#FFD166",
	"#2A9D8F", "#06AED5", "#1D3557", "#8E44AD", "#8B5E3C",
}

const (
	cellWidth    = 2
	swatchWidth  = 4
	markdownWrap = 72
)

type applyMsg struct {
	fn func(*Root)
}

type drawMsg struct{}
type animateMsg time.Time

type boardKeyMap struct {
	Move      key.Binding
	Open      key.Binding
	Close     key.Binding
	Complete  key.Binding
	Export    key.Binding
	Clear     key.Binding
	Focus     key.Binding
	Paint     key.Binding
	Brush     key.Binding
	Reset     key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

type span struct {
	id int
	x0 int
	x1 int
}

// lineHit says what a body line contains, for mouse hit testing.
type lineHit struct {
	tiles     []span
	swatches  []span
	canvasRow int
	canvasX   int
}

func noHit() lineHit {
	return lineHit{canvasRow: -1}
}

type Root struct {
	theme        Theme
	ascii        bool
	debug        bool
	ctrl         Controller
	releases     Releaser
	styleVariant string
	motionLevel  string

	mu      sync.Mutex
	program *tea.Program
	running bool

	layout LayoutMode
	cols   int
	rows   int

	board       Board
	cursor      int
	columns     int
	focusCanvas bool
	pixelRow    int
	pixelCol    int
	mouseDown   bool
	statusFlash string

	confirmOpen   bool
	confirmPrompt string
	confirmYes    func()
	confirmIndex  int

	scroll      int
	follow      bool
	focusTop    int
	focusBottom int
	hits        []lineHit
	bodyTop     int

	help     help.Model
	keymap   boardKeyMap
	bar      progress.Model
	markdown *glamour.TermRenderer
	mdKey    string
	mdLines  []string
	logger   *clog.Logger
	panelPos float64
	panelVel float64
	spring   harmonica.Spring

	drawPending atomic.Bool

	lastInputEvent string
}

type Options struct {
	ASCIIOnly    bool
	Debug        bool
	StyleVariant string
	MotionLevel  string
	Releases     Releaser
}

func New(opts Options) *Root {
	logger := clog.NewWithOptions(os.Stderr, clog.Options{Prefix: "creativedojo-ui", Level: clog.WarnLevel})
	if opts.Debug {
		logger.SetLevel(clog.DebugLevel)
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(markdownWrap),
	)
	if err != nil {
		renderer = nil
	}

	h := help.New()
	h.Styles = help.DefaultDarkStyles()
	motionLevel := normalizeMotionLevel(opts.MotionLevel)
	styleVariant := normalizeStyleVariant(opts.StyleVariant)
	spring := harmonica.NewSpring(harmonica.FPS(60), 10.0, 0.8)
	switch motionLevel {
	case "reduced":
		spring = harmonica.NewSpring(harmonica.FPS(30), 9.0, 0.92)
	case "off":
		spring = harmonica.NewSpring(harmonica.FPS(60), 1000.0, 1.0)
	}
	bar := progress.New(
		progress.WithWidth(20),
		progress.WithColors(lipgloss.Color("#5EC2FF"), lipgloss.Color("#79E6A6"), lipgloss.Color("#F2D16B")),
		progress.WithScaled(true),
	)
	if motionLevel == "off" {
		bar.SetSpringOptions(1000.0, 1.0)
	}

	r := &Root{
		theme:        ThemeForVariant(styleVariant),
		ascii:        opts.ASCIIOnly,
		debug:        opts.Debug,
		releases:     opts.Releases,
		styleVariant: styleVariant,
		motionLevel:  motionLevel,
		layout:       LayoutWide,
		cols:         120,
		rows:         30,
		columns:      1,
		help:         h,
		bar:          bar,
		markdown:     renderer,
		logger:       logger,
		spring:       spring,
		bodyTop:      1,
	}
	r.keymap = boardKeyMap{
		Move:      key.NewBinding(key.WithKeys("up", "down", "left", "right"), key.WithHelp("←↑↓→", "Move")),
		Open:      key.NewBinding(key.WithKeys("enter", "space"), key.WithHelp("Enter", "Open")),
		Close:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("Esc", "Close")),
		Complete:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "Complete")),
		Export:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "Export PNG")),
		Clear:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "Clear grid")),
		Focus:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("Tab", "Grid/tiles")),
		Paint:     key.NewBinding(key.WithKeys("space", "enter"), key.WithHelp("Space", "Paint")),
		Brush:     key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9", "0"), key.WithHelp("1-0", "Colour")),
		Reset:     key.NewBinding(key.WithKeys("f6"), key.WithHelp("F6", "Reset progress")),
		Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "Quit")),
		ForceQuit: key.NewBinding(key.WithKeys("ctrl+q", "ctrl+c")),
	}
	return r
}

func (r *Root) Init() tea.Cmd {
	return animateTickCmd()
}

func (r *Root) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("update", rec, msg)
			model = r
			cmd = nil
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.cols = msg.Width
		r.rows = msg.Height
		r.layout = DetermineLayoutMode(r.cols, r.rows)
		r.follow = true
		return r, nil
	case applyMsg:
		if msg.fn != nil {
			msg.fn(r)
		}
		return r, r.animateIfNeeded()
	case drawMsg:
		r.drawPending.Store(false)
		return r, nil
	case animateMsg:
		target := r.panelTarget()
		r.panelPos, r.panelVel = r.spring.Update(r.panelPos, r.panelVel, target)
		if r.shouldAnimate(target) {
			return r, animateTickCmd()
		}
		r.panelPos = target
		r.panelVel = 0
		return r, nil
	case tea.MouseClickMsg:
		return r.handleMouseClick(msg)
	case tea.MouseMotionMsg:
		return r.handleMouseMotion(msg)
	case tea.MouseReleaseMsg:
		return r.handleMouseRelease(msg)
	case tea.MouseWheelMsg:
		return r.handleMouseWheel(msg)
	case tea.KeyPressMsg:
		return r.handleKey(msg)
	}
	return r, nil
}

func (r *Root) View() (view tea.View) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("view", rec, nil)
			width := max(1, r.cols)
			msg := "UI recovered from a rendering panic. Check logs."
			if r.statusFlash == "" {
				r.statusFlash = "Recovered UI panic"
			}
			view = tea.NewView(r.theme.Error.Width(width).Render(trimForWidth(msg, max(1, width-1))))
		}
	}()

	if r.cols < 1 {
		r.cols = 120
	}
	if r.rows < 1 {
		r.rows = 30
	}

	v := tea.NewView(r.render())
	v.AltScreen = true
	v.MouseMode = tea.MouseModeCellMotion
	return v
}

func (r *Root) Run() error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	p := tea.NewProgram(r)
	r.program = p
	r.running = true
	r.mu.Unlock()

	_, err := p.Run()

	r.mu.Lock()
	r.program = nil
	r.running = false
	r.mu.Unlock()
	return err
}

func (r *Root) Stop() {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Quit()
	}
}

func (r *Root) SetController(c Controller) {
	r.ctrl = c
}

func (r *Root) SetBoard(b Board) {
	r.apply(func(m *Root) {
		prev := m.board.Panel
		m.board = b
		m.board.Tiles = append([]Tile(nil), b.Tiles...)
		m.syncCursor()

		p := b.Panel
		if p == nil {
			m.focusCanvas = false
			m.mouseDown = false
			m.panelPos = 0
			m.panelVel = 0
			return
		}
		if prev == nil || prev.ID != p.ID {
			m.cursor = p.ID
			m.pixelRow, m.pixelCol = 0, 0
			m.focusCanvas = editable(p)
			m.follow = true
			m.panelVel = 0
			m.panelPos = 0
			if m.motionLevel == "off" {
				m.panelPos = 1
			}
		}
	})
}

func (r *Root) Confirm(prompt string, onYes func()) {
	r.apply(func(m *Root) {
		m.confirmOpen = true
		m.confirmPrompt = prompt
		m.confirmYes = onYes
		m.confirmIndex = 0
	})
}

func (r *Root) FlashStatus(msg string) {
	r.apply(func(m *Root) {
		m.statusFlash = msg
	})
}

func (r *Root) RequestDraw() {
	r.mu.Lock()
	p := r.program
	running := r.running
	r.mu.Unlock()
	if !running || p == nil {
		return
	}
	if !r.drawPending.CompareAndSwap(false, true) {
		return
	}
	time.AfterFunc(16*time.Millisecond, func() {
		r.mu.Lock()
		p := r.program
		running := r.running
		r.mu.Unlock()
		if !running || p == nil {
			r.drawPending.Store(false)
			return
		}
		p.Send(drawMsg{})
	})
}

func (r *Root) apply(fn func(*Root)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	p := r.program
	running := r.running
	if !running || p == nil {
		fn(r)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	p.Send(applyMsg{fn: fn})
}

func (r *Root) dispatchController(fn func(Controller)) {
	if fn == nil || r.ctrl == nil {
		return
	}
	ctrl := r.ctrl
	go fn(ctrl)
}

func (r *Root) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	r.recordInputEvent(fmt.Sprintf("key:%v mod:%v text:%q", msg.Code, msg.Mod, msg.Text))
	r.statusFlash = ""

	if key.Matches(msg, r.keymap.ForceQuit) {
		r.dispatchController(func(c Controller) { c.OnQuit() })
		return r, nil
	}
	if r.confirmOpen {
		return r.handleConfirmKey(msg)
	}
	if key.Matches(msg, r.keymap.Reset) {
		r.dispatchController(func(c Controller) { c.OnResetProgress() })
		return r, nil
	}

	p := r.board.Panel
	if p == nil {
		if key.Matches(msg, r.keymap.Quit) {
			r.dispatchController(func(c Controller) { c.OnQuit() })
			return r, nil
		}
		return r.handleTileKey(msg)
	}

	switch {
	case key.Matches(msg, r.keymap.Close):
		r.dispatchController(func(c Controller) { c.OnClose() })
		return r, nil
	case key.Matches(msg, r.keymap.Complete):
		if p.ReadOnly || p.NotFound {
			r.statusFlash = "Nothing to complete here"
			return r, nil
		}
		r.dispatchController(func(c Controller) { c.OnComplete() })
		return r, nil
	case key.Matches(msg, r.keymap.Export):
		if p.Canvas != nil {
			r.dispatchController(func(c Controller) { c.OnExport() })
		}
		return r, nil
	case key.Matches(msg, r.keymap.Clear):
		if editable(p) {
			r.dispatchController(func(c Controller) { c.OnResetEditor() })
		}
		return r, nil
	case key.Matches(msg, r.keymap.Focus):
		if editable(p) {
			r.focusCanvas = !r.focusCanvas
			r.follow = true
		}
		return r, nil
	case key.Matches(msg, r.keymap.Brush):
		if editable(p) {
			r.pickBrush(brushIndex(msg.String()))
		}
		return r, nil
	}

	if r.focusCanvas && editable(p) {
		return r.handleCanvasKey(msg, p.Canvas)
	}
	return r.handleTileKey(msg)
}

func (r *Root) handleTileKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	n := len(r.board.Tiles)
	if n == 0 {
		return r, nil
	}
	idx := r.cursorIndex()
	cols := max(1, r.columns)
	switch msg.Code {
	case tea.KeyLeft:
		idx--
	case tea.KeyRight:
		idx++
	case tea.KeyUp:
		idx -= cols
	case tea.KeyDown:
		idx += cols
	default:
		if key.Matches(msg, r.keymap.Open) {
			r.openTile(r.board.Tiles[idx])
		}
		return r, nil
	}
	idx = min(max(idx, 0), n-1)
	r.cursor = r.board.Tiles[idx].ID
	r.follow = true
	return r, nil
}

func (r *Root) handleCanvasKey(msg tea.KeyPressMsg, c Canvas) (tea.Model, tea.Cmd) {
	size := c.Size()
	switch msg.Code {
	case tea.KeyLeft:
		r.pixelCol = max(0, r.pixelCol-1)
	case tea.KeyRight:
		r.pixelCol = min(size-1, r.pixelCol+1)
	case tea.KeyUp:
		r.pixelRow = max(0, r.pixelRow-1)
	case tea.KeyDown:
		r.pixelRow = min(size-1, r.pixelRow+1)
	default:
		if key.Matches(msg, r.keymap.Paint) {
			c.Press(r.pixelRow, r.pixelCol)
			c.Release()
		}
		return r, nil
	}
	r.follow = true
	return r, nil
}

func (r *Root) handleConfirmKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Code == tea.KeyEsc || msg.String() == "n":
		r.closeConfirm(false)
	case msg.String() == "y":
		r.closeConfirm(true)
	case msg.Code == tea.KeyLeft || msg.Code == tea.KeyUp:
		r.confirmIndex = 0
	case msg.Code == tea.KeyRight || msg.Code == tea.KeyDown || msg.Code == tea.KeyTab:
		r.confirmIndex = 1
	case msg.Code == tea.KeyEnter:
		r.closeConfirm(r.confirmIndex == 1)
	}
	return r, nil
}

func (r *Root) closeConfirm(accepted bool) {
	yes := r.confirmYes
	r.confirmOpen = false
	r.confirmPrompt = ""
	r.confirmYes = nil
	r.confirmIndex = 0
	if accepted && yes != nil {
		go yes()
	}
}

func (r *Root) openTile(t Tile) {
	if !t.Unlocked {
		r.statusFlash = fmt.Sprintf("Day %d is locked. Finish the previous challenge first.", t.ID)
		return
	}
	id := t.ID
	r.dispatchController(func(c Controller) { c.OnSelect(id) })
}

func (r *Root) pickBrush(idx int) {
	p := r.board.Panel
	if idx < 0 || idx >= len(Palette) || !editable(p) {
		return
	}
	if err := p.Canvas.SetColor(Palette[idx]); err != nil {
		r.statusFlash = err.Error()
	}
}

func (r *Root) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	m := msg.Mouse()
	r.recordInputEvent(fmt.Sprintf("mouse_click:%d,%d button:%v", m.X, m.Y, m.Button))
	if m.Button != tea.MouseLeft || r.confirmOpen {
		return r, nil
	}
	hit, ok := r.hitAt(m.Y)
	if !ok {
		return r, nil
	}
	for _, s := range hit.tiles {
		if m.X >= s.x0 && m.X < s.x1 {
			if t, found := r.tileByID(s.id); found {
				r.cursor = t.ID
				r.openTile(t)
			}
			return r, nil
		}
	}
	for _, s := range hit.swatches {
		if m.X >= s.x0 && m.X < s.x1 {
			r.pickBrush(s.id)
			return r, nil
		}
	}
	if row, col, ok := r.canvasCell(hit, m.X); ok {
		c := r.board.Panel.Canvas
		r.pixelRow, r.pixelCol = row, col
		r.focusCanvas = true
		r.mouseDown = true
		c.Press(row, col)
	}
	return r, nil
}

func (r *Root) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	if !r.mouseDown {
		return r, nil
	}
	m := msg.Mouse()
	hit, ok := r.hitAt(m.Y)
	if !ok {
		return r, nil
	}
	if row, col, ok := r.canvasCell(hit, m.X); ok {
		r.pixelRow, r.pixelCol = row, col
		r.board.Panel.Canvas.Enter(row, col)
	}
	return r, nil
}

// handleMouseRelease ends a paint gesture wherever the pointer is released.
func (r *Root) handleMouseRelease(msg tea.MouseReleaseMsg) (tea.Model, tea.Cmd) {
	m := msg.Mouse()
	r.recordInputEvent(fmt.Sprintf("mouse_release:%d,%d", m.X, m.Y))
	r.mouseDown = false
	if r.releases != nil {
		r.releases.Publish()
	}
	return r, nil
}

func (r *Root) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	m := msg.Mouse()
	switch m.Button {
	case tea.MouseWheelUp:
		r.scroll = max(0, r.scroll-3)
	case tea.MouseWheelDown:
		r.scroll += 3
	default:
		return r, nil
	}
	r.follow = false
	return r, nil
}

func (r *Root) hitAt(y int) (lineHit, bool) {
	line := y - r.bodyTop + r.scroll
	if y < r.bodyTop || line < 0 || line >= len(r.hits) {
		return lineHit{}, false
	}
	return r.hits[line], true
}

func (r *Root) canvasCell(hit lineHit, x int) (int, int, bool) {
	p := r.board.Panel
	if hit.canvasRow < 0 || p == nil || p.Canvas == nil || x < hit.canvasX {
		return 0, 0, false
	}
	col := (x - hit.canvasX) / cellWidth
	if col >= p.Canvas.Size() {
		return 0, 0, false
	}
	return hit.canvasRow, col, true
}

func (r *Root) render() string {
	base := r.renderBoard()
	if r.confirmOpen {
		base = composeOverlay(base, r.renderConfirm(), r.cols, r.rows)
	}
	return base
}

func (r *Root) renderBoard() string {
	w, h := r.cols, r.rows
	r.layout = DetermineLayoutMode(w, h)
	if r.layout == LayoutTooSmall {
		r.hits = nil
		msg := strings.Join([]string{
			"Terminal too small",
			fmt.Sprintf("Current: %dx%d", w, h),
			fmt.Sprintf("Minimum: %dx%d", minCols, minRows),
		}, "\n")
		return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, msg)
	}

	header := r.headerText()
	status := r.statusText()
	bodyH := max(1, h-2)
	lines, hits := r.renderBody(w)
	r.hits = hits
	r.bodyTop = 1

	maxScroll := max(0, len(lines)-bodyH)
	if r.follow {
		if r.focusTop < r.scroll {
			r.scroll = r.focusTop
		}
		if r.focusBottom > r.scroll+bodyH {
			r.scroll = r.focusBottom - bodyH
		}
	}
	r.scroll = min(max(0, r.scroll), maxScroll)

	window := make([]string, bodyH)
	for i := range window {
		if j := r.scroll + i; j < len(lines) {
			window[i] = lines[j]
		}
	}
	return header + "\n" + strings.Join(window, "\n") + "\n" + status
}

// renderBody lays the tiles out in rows and splices the open panel after the row holding
// its tile.
func (r *Root) renderBody(width int) ([]string, []lineHit) {
	tiles := r.board.Tiles
	rendered := make([]string, len(tiles))
	for i, t := range tiles {
		rendered[i] = r.renderTile(t, t.ID == r.cursor && !r.focusCanvas)
	}
	tileW := FallbackTileWidth
	if len(rendered) > 0 {
		tileW = lipgloss.Width(rendered[0])
	}
	cols := Columns(width, tileW)
	r.columns = cols

	insert := -1
	if p := r.board.Panel; p != nil {
		insert = EditorInsertIndex(len(tiles), p.ID, cols)
	}

	var lines []string
	var hits []lineHit
	r.focusTop, r.focusBottom = 0, 0
	for start := 0; start < len(tiles); start += cols {
		if start == insert {
			lines, hits = r.appendPanel(lines, hits, width)
		}
		end := min(start+cols, len(tiles))
		spans := make([]span, 0, end-start)
		focused := false
		for j := start; j < end; j++ {
			x0 := (j - start) * tileW
			spans = append(spans, span{id: tiles[j].ID, x0: x0, x1: x0 + tileW})
			focused = focused || tiles[j].ID == r.cursor
		}
		row := strings.Split(lipgloss.JoinHorizontal(lipgloss.Top, rendered[start:end]...), "\n")
		if focused && !r.focusCanvas {
			r.focusTop = len(lines)
			r.focusBottom = len(lines) + len(row)
		}
		for _, line := range row {
			lines = append(lines, line)
			hits = append(hits, lineHit{tiles: spans, canvasRow: -1})
		}
	}
	if insert == len(tiles) {
		lines, hits = r.appendPanel(lines, hits, width)
	}
	return lines, hits
}

func (r *Root) appendPanel(lines []string, hits []lineHit, width int) ([]string, []lineHit) {
	panelLines, panelHits, canvasLine := r.renderPanel(r.board.Panel, width)
	top := len(lines)
	if r.focusCanvas && canvasLine >= 0 {
		r.focusTop = top + canvasLine + r.pixelRow
		r.focusBottom = r.focusTop + 1
	}
	visible := len(panelLines)
	if r.panelPos < 0.999 && r.motionLevel != "off" {
		visible = max(1, int(float64(len(panelLines))*max(r.panelPos, 0)+0.5))
	}
	lines = append(lines, panelLines[:min(visible, len(panelLines))]...)
	hits = append(hits, panelHits[:min(visible, len(panelHits))]...)
	return lines, hits
}

func (r *Root) renderTile(t Tile, focused bool) string {
	style := r.theme.tileStyle(t, focused)
	if r.ascii {
		style = style.BorderStyle(lipgloss.ASCIIBorder())
	}

	inner := 12
	if r.layout == LayoutCompact {
		inner = 7
	}
	label := fmt.Sprintf("Day %d", t.ID)
	if t.PixelArt && r.layout != LayoutCompact {
		label = padRune(label, inner-2) + "px"
	}

	var state string
	var stateStyle lipgloss.Style
	switch {
	case t.Completed:
		state, stateStyle = "done", r.theme.Done
		if !r.ascii {
			state = "done ✓"
		}
	case t.Unlocked:
		state, stateStyle = "open", r.theme.Open
	default:
		state, stateStyle = "locked", r.theme.Locked
	}

	rows := []string{padRune(label, inner)}
	if r.layout != LayoutCompact {
		title := "· · ·"
		if t.Unlocked {
			title = t.Title
		}
		rows = append(rows, r.theme.PanelBody.Render(padRune(trimForWidth(title, inner), inner)))
	}
	rows = append(rows, stateStyle.Render(padRune(state, inner)))
	return style.Render(strings.Join(rows, "\n"))
}

// renderPanel returns the bordered panel lines, their hit data and the panel line holding
// canvas row 0 (-1 without a canvas).
func (r *Root) renderPanel(p *Panel, width int) ([]string, []lineHit, int) {
	var content []string
	contentHits := []lineHit{}
	add := func(line string, hit lineHit) {
		content = append(content, line)
		contentHits = append(contentHits, hit)
	}
	canvasStart := -1

	if p.NotFound {
		add(r.theme.Error.Render(fmt.Sprintf("Challenge %d not found", p.ID)), noHit())
		add(r.theme.Locked.Render("The catalog has no content for this day."), noHit())
	} else {
		title := r.theme.PanelTitle.Render(fmt.Sprintf("Day %d: %s", p.ID, p.Title))
		if p.ReadOnly {
			title += "  " + r.theme.Done.Render("completed")
		}
		add(title, noHit())
		add(r.theme.Locked.Render(strings.Join(nonEmpty(p.Category, p.Difficulty, p.EstimatedTime), " · ")), noHit())
		for _, line := range r.markdownLines(p, width) {
			add(line, noHit())
		}
		if c := p.Canvas; c != nil {
			add("", noHit())
			swatches, line := r.renderPalette(c)
			add(line, lineHit{swatches: swatches, canvasRow: -1})
			add("", noHit())
			canvasStart = len(content)
			for row := 0; row < c.Size(); row++ {
				add(r.renderCanvasRow(c, row), lineHit{canvasRow: row})
			}
			add("", noHit())
			add(r.canvasStatus(c), noHit())
		}
	}
	add("", noHit())
	add(r.theme.Info.Render(r.panelActions(p)), noHit())

	style := r.theme.PanelBorder
	if r.ascii {
		style = style.BorderStyle(lipgloss.ASCIIBorder())
	}
	box := strings.Split(style.Render(strings.Join(content, "\n")), "\n")

	// Content starts one line down and after the left border plus padding.
	offsetX := style.GetBorderLeftSize() + style.GetPaddingLeft()
	offsetY := style.GetBorderTopSize() + style.GetPaddingTop()
	hits := make([]lineHit, len(box))
	for i := range hits {
		hits[i] = noHit()
		if ci := i - offsetY; ci >= 0 && ci < len(contentHits) {
			h := contentHits[ci]
			h.canvasX += offsetX
			for k := range h.swatches {
				h.swatches[k].x0 += offsetX
				h.swatches[k].x1 += offsetX
			}
			hits[i] = h
		}
	}
	canvasLine := -1
	if canvasStart >= 0 {
		canvasLine = canvasStart + offsetY
	}
	return box, hits, canvasLine
}

func (r *Root) markdownLines(p *Panel, width int) []string {
	cacheKey := fmt.Sprintf("%d:%d:%s", p.ID, width, r.styleVariant)
	if r.mdKey == cacheKey {
		return r.mdLines
	}
	var md strings.Builder
	md.WriteString(p.Description)
	if len(p.Tips) > 0 {
		md.WriteString("\n\n**Tips**\n\n")
		for _, tip := range p.Tips {
			md.WriteString("- " + tip + "\n")
		}
	}

	var out string
	if r.markdown != nil {
		if rendered, err := r.markdown.Render(md.String()); err == nil {
			out = rendered
		}
	}
	if out == "" {
		out = lipgloss.NewStyle().Width(min(markdownWrap, max(20, width-6))).Render(md.String())
	}
	lines := strings.Split(strings.Trim(out, "\n"), "\n")
	for len(lines) > 0 && strings.TrimSpace(ansi.Strip(lines[len(lines)-1])) == "" {
		lines = lines[:len(lines)-1]
	}
	r.mdKey = cacheKey
	r.mdLines = lines
	return lines
}

func (r *Root) renderPalette(c Canvas) ([]span, string) {
	var sb strings.Builder
	spans := make([]span, 0, len(Palette))
	current := strings.ToUpper(c.Color())
	for i, hex := range Palette {
		label := fmt.Sprintf(" %d ", (i+1)%10)
		if strings.EqualFold(hex, current) {
			label = fmt.Sprintf("[%d]", (i+1)%10)
		}
		style := lipgloss.NewStyle().Background(lipgloss.Color(hex)).Foreground(contrastColor(hex))
		spans = append(spans, span{id: i, x0: i * swatchWidth, x1: i*swatchWidth + swatchWidth - 1})
		sb.WriteString(style.Render(label))
		sb.WriteString(" ")
	}
	return spans, sb.String()
}

func (r *Root) renderCanvasRow(c Canvas, row int) string {
	var sb strings.Builder
	cursorVisible := r.focusCanvas && !c.ReadOnly()
	for col := 0; col < c.Size(); col++ {
		hex := c.Pixel(row, col)
		cell := strings.Repeat(" ", cellWidth)
		if cursorVisible && row == r.pixelRow && col == r.pixelCol {
			cell = "▐▌"
			if r.ascii {
				cell = "[]"
			}
		}
		sb.WriteString(lipgloss.NewStyle().Background(lipgloss.Color(hex)).Foreground(contrastColor(hex)).Render(cell))
	}
	return sb.String()
}

func (r *Root) canvasStatus(c Canvas) string {
	if c.ReadOnly() {
		return r.theme.Locked.Render("Completed artwork is read-only. Export is still available.")
	}
	swatch := lipgloss.NewStyle().Background(lipgloss.Color(c.Color())).Render("  ")
	state := fmt.Sprintf("%dx%d  brush %s %s", c.Size(), c.Size(), swatch, strings.ToUpper(c.Color()))
	if c.Dirty() {
		state += "  " + r.theme.Open.Render("unsaved changes")
	}
	return state
}

func (r *Root) panelActions(p *Panel) string {
	switch {
	case p.NotFound:
		return "Esc close"
	case p.Canvas != nil && p.ReadOnly:
		return "e export PNG · Esc close"
	case p.Canvas != nil:
		return "c save & complete · x clear · e export PNG · Tab grid/tiles · 1-0 colour · Esc close"
	case p.ReadOnly:
		return "Esc close"
	default:
		return "c complete · Esc close"
	}
}

func (r *Root) renderConfirm() string {
	labels := []string{"Cancel", "Confirm"}
	buttons := make([]string, len(labels))
	for i, label := range labels {
		if i == r.confirmIndex {
			buttons[i] = "> " + label
		} else {
			buttons[i] = "  " + label
		}
	}
	lines := []string{r.confirmPrompt, "", strings.Join(buttons, "    "), "", "y/n or Enter"}
	width := min(max(40, lipgloss.Width(r.confirmPrompt)+4), max(20, r.cols-4))
	return r.drawPanel("Confirm", lines, width, len(lines)+2)
}

func (r *Root) headerText() string {
	total := len(r.board.Tiles)
	title := firstNonEmptyStr(r.board.Title, "Creative Dojo")
	counts := fmt.Sprintf("%d/%d completed", r.board.Completed, total)
	bar := r.progressBar(20)
	text := title + "  " + counts + "  " + bar
	if lipgloss.Width(text) > r.cols-2 {
		text = trimForWidth(title+"  "+counts, max(1, r.cols-2))
	}
	return r.theme.Header.Width(max(1, r.cols)).Render(text)
}

func (r *Root) progressBar(width int) string {
	total := len(r.board.Tiles)
	if total == 0 {
		return ""
	}
	m := r.bar
	m.SetWidth(max(8, width))
	return m.ViewAs(float64(r.board.Completed) / float64(total))
}

func (r *Root) statusText() string {
	text := r.statusFlash
	if text == "" {
		text = ansi.Strip(r.help.ShortHelpView(r.helpBindings()))
	}
	if r.debug {
		text += "  " + r.lastInputEvent
	}
	return r.theme.Status.Width(max(1, r.cols)).Render(trimForWidth(text, max(1, r.cols-2)))
}

func (r *Root) helpBindings() []key.Binding {
	k := r.keymap
	p := r.board.Panel
	switch {
	case r.confirmOpen:
		return nil
	case p == nil:
		return []key.Binding{k.Move, k.Open, k.Reset, k.Quit}
	case editable(p):
		return []key.Binding{k.Paint, k.Brush, k.Focus, k.Complete, k.Clear, k.Export, k.Close}
	case p.Canvas != nil:
		return []key.Binding{k.Export, k.Close}
	case !p.ReadOnly && !p.NotFound:
		return []key.Binding{k.Complete, k.Close, k.Move, k.Open}
	default:
		return []key.Binding{k.Close, k.Move, k.Open}
	}
}

func (r *Root) drawPanel(title string, lines []string, width, height int) string {
	width = max(4, width)
	height = max(3, height)
	innerW := width - 2
	innerH := height - 2

	h := "─"
	v := "│"
	tl := "┌"
	tr := "┐"
	bl := "└"
	br := "┘"
	if r.ascii {
		h = "-"
		v = "|"
		tl, tr, bl, br = "+", "+", "+", "+"
	}

	top := tl + strings.Repeat(h, innerW) + tr
	if title != "" && innerW > 2 {
		t := " " + title + " "
		runes := []rune(top)
		start := 1
		for i, ch := range []rune(t) {
			pos := start + i
			if pos >= len(runes)-1 {
				break
			}
			runes[pos] = ch
		}
		top = string(runes)
	}

	out := make([]string, 0, height)
	out = append(out, r.theme.PanelBorder.UnsetBorderStyle().UnsetPadding().Render(top))
	for row := 0; row < innerH; row++ {
		line := ""
		if row < len(lines) {
			line = lines[row]
		}
		out = append(out, v+padRune(line, innerW)+v)
	}
	out = append(out, bl+strings.Repeat(h, innerW)+br)
	return strings.Join(out, "\n")
}

func (r *Root) syncCursor() {
	if _, ok := r.tileByID(r.cursor); ok {
		return
	}
	r.cursor = 0
	for _, t := range r.board.Tiles {
		if t.Unlocked && !t.Completed {
			r.cursor = t.ID
			return
		}
	}
	if len(r.board.Tiles) > 0 {
		r.cursor = r.board.Tiles[0].ID
	}
}

func (r *Root) cursorIndex() int {
	for i, t := range r.board.Tiles {
		if t.ID == r.cursor {
			return i
		}
	}
	return 0
}

func (r *Root) tileByID(id int) (Tile, bool) {
	for _, t := range r.board.Tiles {
		if t.ID == id {
			return t, true
		}
	}
	return Tile{}, false
}

func (r *Root) panelTarget() float64 {
	if r.board.Panel != nil {
		return 1
	}
	return 0
}

func (r *Root) animateIfNeeded() tea.Cmd {
	if r.shouldAnimate(r.panelTarget()) {
		return animateTickCmd()
	}
	return nil
}

func (r *Root) shouldAnimate(target float64) bool {
	if r.motionLevel == "off" || target == 0 {
		return false
	}
	return r.panelPos < 0.999 || abs(r.panelVel) > 0.001
}

func editable(p *Panel) bool {
	return p != nil && p.Canvas != nil && !p.ReadOnly && !p.Canvas.ReadOnly()
}

func brushIndex(k string) int {
	if k == "0" {
		return 9
	}
	if len(k) == 1 && k[0] >= '1' && k[0] <= '9' {
		return int(k[0] - '1')
	}
	return -1
}

func contrastColor(hex string) color.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		return lipgloss.Color("#000000")
	}
	l, _, _ := c.Lab()
	if l > 0.6 {
		return lipgloss.Color("#000000")
	}
	return lipgloss.Color("#FFFFFF")
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func animateTickCmd() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return animateMsg(t) })
}

func firstNonEmptyStr(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func padRune(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(strings.ReplaceAll(s, "\t", "    "))
	if len(r) > width {
		r = r[:width]
	}
	if len(r) < width {
		r = append(r, []rune(strings.Repeat(" ", width-len(r)))...)
	}
	return string(r)
}

func composeOverlay(base, overlay string, cols, rows int) string {
	if cols <= 0 || rows <= 0 {
		return base
	}
	base = ansi.Strip(base)
	overlay = ansi.Strip(overlay)
	baseLines := strings.Split(base, "\n")
	if len(baseLines) < rows {
		pad := make([]string, rows-len(baseLines))
		baseLines = append(baseLines, pad...)
	}
	for i := 0; i < rows; i++ {
		baseLines[i] = padRune(baseLines[i], cols)
	}

	overlayLines := strings.Split(strings.TrimRight(overlay, "\n"), "\n")
	ow := 1
	for _, line := range overlayLines {
		if lw := len([]rune(line)); lw > ow {
			ow = lw
		}
	}
	ow = min(ow, cols)
	oh := min(len(overlayLines), rows)
	startRow := (rows - oh) / 2
	startCol := max(0, (cols-ow)/2)

	for i := 0; i < oh; i++ {
		row := startRow + i
		if row < 0 || row >= rows {
			continue
		}
		dst := []rune(baseLines[row])
		src := []rune(overlayLines[i])
		if len(src) > ow {
			src = src[:ow]
		}
		for j := 0; j < ow && startCol+j < len(dst); j++ {
			dst[startCol+j] = ' '
		}
		for j := 0; j < len(src) && startCol+j < len(dst); j++ {
			dst[startCol+j] = src[j]
		}
		baseLines[row] = string(dst)
	}
	return strings.Join(baseLines[:rows], "\n")
}

func trimForWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(strings.ReplaceAll(ansi.Strip(s), "\n", " "))
	if len(r) <= width {
		return string(r)
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

func normalizeStyleVariant(v string) string {
	switch strings.TrimSpace(v) {
	case "cozy_clean", "retro_terminal", "modern_arcade":
		return strings.TrimSpace(v)
	default:
		return "modern_arcade"
	}
}

func normalizeMotionLevel(v string) string {
	switch strings.TrimSpace(v) {
	case "off", "reduced", "full":
		return strings.TrimSpace(v)
	default:
		return "full"
	}
}

func (r *Root) recordInputEvent(event string) {
	r.lastInputEvent = trimForWidth(strings.TrimSpace(event), 160)
}

func (r *Root) onModelPanic(where string, recovered any, msg tea.Msg) {
	if r.statusFlash == "" {
		r.statusFlash = "Recovered UI panic"
	}
	msgType := ""
	if msg != nil {
		msgType = fmt.Sprintf("%T", msg)
	}
	r.logger.Error("ui.panic_recovered",
		"where", where,
		"panic", fmt.Sprintf("%v", recovered),
		"messageType", msgType,
		"layout", r.layout,
		"cols", r.cols,
		"rows", r.rows,
		"last_input", r.lastInputEvent,
		"stack", string(debug.Stack()),
	)
}

var _ tea.Model = (*Root)(nil)
var _ View = (*Root)(nil)
