// Package roster loads the list of families on the trip from YAML.
package roster

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pkordes/family-trip/internal/domain"
)

//go:embed default.yaml
var defaultRoster []byte

type file struct {
	Families []domain.Family `yaml:"families"`
}

// Default returns the built-in roster.
func Default() []domain.Family {
	fs, err := Parse(defaultRoster)
	if err != nil {
		panic("roster: embedded default.yaml is invalid: " + err.Error())
	}
	return fs
}

// Load reads the roster at path, or returns Default when path is empty.
func Load(path string) ([]domain.Family, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("roster.Load: %w", err)
	}
	fs, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("roster.Load: %s: %w", path, err)
	}
	return fs, nil
}

// Parse decodes and validates a roster document. Ids must be non-empty,
// unique and must not use the reserved "all" id.
func Parse(b []byte) ([]domain.Family, error) {
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if len(f.Families) == 0 {
		return nil, fmt.Errorf("%w: roster has no families", domain.ErrValidation)
	}
	seen := make(map[string]bool, len(f.Families))
	for i, fam := range f.Families {
		id := strings.TrimSpace(fam.ID)
		switch {
		case id == "":
			return nil, fmt.Errorf("%w: family %d has no id", domain.ErrValidation, i)
		case id == domain.AllFamilies:
			return nil, fmt.Errorf("%w: family id %q is reserved", domain.ErrValidation, id)
		case seen[id]:
			return nil, fmt.Errorf("%w: duplicate family id %q", domain.ErrValidation, id)
		}
		seen[id] = true
		f.Families[i].ID = id
	}
	return f.Families, nil
}
