package layout

import (
	_ "embed"
	"fmt"

	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/deck"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var templatesYAML []byte

// Region is a pixel rectangle with optional text styling
type Region struct {
	X          float64 `yaml:"x"`
	Y          float64 `yaml:"y"`
	Width      float64 `yaml:"width"`
	Height     float64 `yaml:"height"`
	FontSize   int     `yaml:"fontSize"`
	FontWeight string  `yaml:"fontWeight"`
	Align      string  `yaml:"align"`
	Color      string  `yaml:"color"`
}

// Template is a named set of regions
type Template struct {
	Background string             `yaml:"background"`
	Regions    map[string]*Region `yaml:"regions"`
}

func (t *Template) region(name string) (*Region, bool) {
	r, ok := t.Regions[name]
	return r, ok && r != nil
}

// Colors is the text palette shared by all templates
type Colors struct {
	Background string `yaml:"background"`
	Title      string `yaml:"title"`
	Subtitle   string `yaml:"subtitle"`
	Body       string `yaml:"body"`
	Accent     string `yaml:"accent"`
}

// Library is the parsed template file
type Library struct {
	Colors    Colors                    `yaml:"colors"`
	Templates map[deck.Layout]*Template `yaml:"templates"`
}

// Template returns the template for a layout, falling back to title-bullets
func (l *Library) Template(layout deck.Layout) (deck.Layout, *Template) {
	if t, ok := l.Templates[layout]; ok && t != nil {
		return layout, t
	}
	return deck.LayoutTitleBullets, l.Templates[deck.LayoutTitleBullets]
}

// ParseLibrary parses and checks a template file
func ParseLibrary(data []byte) (*Library, error) {
	var lib Library
	if err := yaml.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("failed to parse layout templates: %w", err)
	}

	for _, layout := range deck.Layouts {
		t, ok := lib.Templates[layout]
		if !ok || t == nil {
			return nil, fmt.Errorf("layout template %q is missing", layout)
		}
		if _, ok := t.region("title"); !ok {
			return nil, fmt.Errorf("layout template %q has no title region", layout)
		}
		for name, r := range t.Regions {
			if r.X < 0 || r.Y < 0 || r.X+r.Width > deck.CanvasWidth || r.Y+r.Height > deck.CanvasHeight {
				return nil, fmt.Errorf("layout template %q region %q is off canvas", layout, name)
			}
		}
	}

	return &lib, nil
}

var library = mustParseLibrary()

func mustParseLibrary() *Library {
	lib, err := ParseLibrary(templatesYAML)
	if err != nil {
		panic(err)
	}
	return lib
}

// Templates exposes the embedded template library
func Templates() *Library {
	return library
}
