package ui

type Controller interface {
	OnSelect(id int)
	OnClose()
	OnComplete()
	OnResetEditor()
	OnExport()
	OnResetProgress()
	OnQuit()
}

type View interface {
	Run() error
	Stop()
	SetController(Controller)
	SetBoard(Board)
	Confirm(prompt string, onYes func())
	FlashStatus(msg string)
	RequestDraw()
}

// Canvas is the pixel editor as the view drives it.
type Canvas interface {
	Size() int
	Pixel(r, c int) string
	Color() string
	ReadOnly() bool
	Dirty() bool
	Press(r, c int)
	Enter(r, c int)
	Release()
	SetColor(hex string) error
}

// Releaser broadcasts a pointer release to whichever canvas is listening.
type Releaser interface {
	Publish()
}

type LayoutMode int

const (
	LayoutWide LayoutMode = iota
	LayoutCompact
	LayoutTooSmall
)

type Board struct {
	Title     string
	Tiles     []Tile
	Completed int
	Panel     *Panel
}

type Tile struct {
	ID        int
	Title     string
	PixelArt  bool
	Unlocked  bool
	Completed bool
}

type Panel struct {
	ID            int
	Title         string
	Category      string
	Difficulty    string
	EstimatedTime string
	Description   string
	Tips          []string
	NotFound      bool
	ReadOnly      bool
	Canvas        Canvas
}
