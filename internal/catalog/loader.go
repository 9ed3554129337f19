package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed builtin/challenges.yaml
var builtinYAML []byte

// Catalog is the immutable, ordered challenge list.
type Catalog struct {
	title       string
	description string
	challenges  []Challenge
}

// Builtin returns the embedded "30 Days of Creativity" catalog.
func Builtin() (*Catalog, error) {
	c, err := Parse(builtinYAML)
	if err != nil {
		return nil, fmt.Errorf("builtin catalog: %w", err)
	}
	return c, nil
}

func LoadFile(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

func Parse(b []byte) (*Catalog, error) {
	var doc Document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	return New(doc.Title, doc.Description, doc.Challenges), nil
}

// New builds a catalog from already validated challenges.
func New(title, description string, challenges []Challenge) *Catalog {
	out := make([]Challenge, len(challenges))
	for i, c := range challenges {
		applyDefaults(&c)
		out[i] = c
	}
	return &Catalog{title: title, description: description, challenges: out}
}

func applyDefaults(c *Challenge) {
	if c.Kind == "" {
		c.Kind = KindStandard
	}
	c.Tips = append([]string(nil), c.Tips...)
}

func (c *Catalog) Title() string       { return c.title }
func (c *Catalog) Description() string { return c.description }
func (c *Catalog) Len() int            { return len(c.challenges) }

func (c *Catalog) Challenges() []Challenge {
	out := make([]Challenge, len(c.challenges))
	for i, ch := range c.challenges {
		ch.Tips = append([]string(nil), ch.Tips...)
		out[i] = ch
	}
	return out
}

func (c *Catalog) Find(id int) (Challenge, error) {
	for _, ch := range c.challenges {
		if ch.ID == id {
			ch.Tips = append([]string(nil), ch.Tips...)
			return ch, nil
		}
	}
	return Challenge{}, fmt.Errorf("challenge %d: %w", id, ErrNotFound)
}

var _ Provider = (*Catalog)(nil)
