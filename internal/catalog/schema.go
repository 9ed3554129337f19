package catalog

import (
	"errors"
	"fmt"
	"strings"
)

const (
	CatalogKind            = "catalog"
	SupportedSchemaVersion = 1

	MinGridSize = 8
	MaxGridSize = 32
)

var ErrNotFound = errors.New("challenge not found")

type Kind string

const (
	KindStandard Kind = "standard"
	KindPixelArt Kind = "pixel-art"
)

type Category string

const (
	CategoryWriting  Category = "writing"
	CategoryVisual   Category = "visual"
	CategoryMusic    Category = "music"
	CategoryThinking Category = "thinking"
	CategoryMixed    Category = "mixed"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type Document struct {
	Kind          string      `yaml:"kind"`
	SchemaVersion int         `yaml:"schema_version"`
	Title         string      `yaml:"title"`
	Description   string      `yaml:"description"`
	Challenges    []Challenge `yaml:"challenges"`
}

type Challenge struct {
	ID            int        `yaml:"id"`
	Title         string     `yaml:"title"`
	Description   string     `yaml:"description"`
	Tips          []string   `yaml:"tips"`
	Category      Category   `yaml:"category"`
	Difficulty    Difficulty `yaml:"difficulty"`
	EstimatedTime string     `yaml:"estimated_time"`
	Kind          Kind       `yaml:"kind"`
	Params        Params     `yaml:"params"`
}

type Params struct {
	GridSize int `yaml:"grid_size"`
}

func (c Challenge) IsPixelArt() bool {
	return c.Kind == KindPixelArt
}

func (d Document) Validate() error {
	if d.Kind != CatalogKind {
		return fmt.Errorf("kind must be %q", CatalogKind)
	}
	if d.SchemaVersion == 0 {
		return fmt.Errorf("schema_version is required")
	}
	if d.SchemaVersion > SupportedSchemaVersion {
		return fmt.Errorf("unsupported catalog schema_version %d (max supported %d)", d.SchemaVersion, SupportedSchemaVersion)
	}
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if len(d.Challenges) == 0 {
		return fmt.Errorf("challenges must contain at least one item")
	}
	for i, c := range d.Challenges {
		// Ids are positional: tile N always maps to challenge N.
		if c.ID != i+1 {
			return fmt.Errorf("challenges[%d].id must be %d, got %d", i, i+1, c.ID)
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("challenge %d: %w", c.ID, err)
		}
	}
	return nil
}

func (c Challenge) Validate() error {
	if c.ID <= 0 {
		return fmt.Errorf("id must be >0")
	}
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("title is required")
	}
	switch c.Category {
	case CategoryWriting, CategoryVisual, CategoryMusic, CategoryThinking, CategoryMixed:
	default:
		return fmt.Errorf("invalid category %q", c.Category)
	}
	switch c.Difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
	default:
		return fmt.Errorf("invalid difficulty %q", c.Difficulty)
	}
	switch c.Kind {
	case "", KindStandard:
		if c.Params.GridSize != 0 {
			return fmt.Errorf("params.grid_size is only valid for %q challenges", KindPixelArt)
		}
	case KindPixelArt:
		if c.Params.GridSize < MinGridSize || c.Params.GridSize > MaxGridSize {
			return fmt.Errorf("params.grid_size must be %d..%d", MinGridSize, MaxGridSize)
		}
	default:
		return fmt.Errorf("invalid kind %q", c.Kind)
	}
	return nil
}
