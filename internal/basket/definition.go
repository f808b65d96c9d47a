package basket

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"ADRFlow/internal/model"
)

//go:embed baskets.yaml
var defaultDefinition []byte

// Definition is the versioned set of baskets and the cross-listing pair used
// to normalize them.
type Definition struct {
	Version      int                `yaml:"version" json:"version" validate:"min=1"`
	CrossListing model.CrossListing `yaml:"cross_listing" json:"cross_listing"`
	Baskets      []model.Basket     `yaml:"baskets" json:"baskets" validate:"required,min=1,dive"`
}

// Default returns the built-in definition.
func Default() (*Definition, error) {
	return Parse(defaultDefinition)
}

// Load reads a definition file. An empty path yields the built-in definition.
func Load(path string) (*Definition, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read baskets: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML definition.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse baskets: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate checks field constraints, unique basket names and that no symbol
// belongs to more than one basket.
func (d *Definition) Validate() error {
	if err := validator.New().Struct(d); err != nil {
		return fmt.Errorf("invalid baskets: %w", err)
	}
	names := map[string]bool{}
	owner := map[string]string{}
	for _, b := range d.Baskets {
		if names[b.Name] {
			return fmt.Errorf("invalid baskets: duplicate basket %q", b.Name)
		}
		names[b.Name] = true
		for _, s := range b.Symbols {
			if prev, ok := owner[s]; ok {
				return fmt.Errorf("invalid baskets: symbol %s in both %q and %q", s, prev, b.Name)
			}
			owner[s] = b.Name
		}
	}
	return nil
}

// Get returns the basket with the given name.
func (d *Definition) Get(name string) (model.Basket, bool) {
	for _, b := range d.Baskets {
		if b.Name == name {
			return b, true
		}
	}
	return model.Basket{}, false
}

// SymbolCount is the number of symbols across all baskets.
func (d *Definition) SymbolCount() int {
	n := 0
	for _, b := range d.Baskets {
		n += len(b.Symbols)
	}
	return n
}
