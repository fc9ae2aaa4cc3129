package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/diewo77/go-erpdocs/internal/document"
	"gopkg.in/yaml.v3"
)

//go:embed kinds.yaml
var defaultKinds []byte

type kindsFile struct {
	Kinds []document.Kind `yaml:"kinds"`
}

// LoadKinds reads document kinds from path, or the built-in set when path
// is empty, and indexes them.
func LoadKinds(path string) (*document.Registry, error) {
	raw := defaultKinds
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read kinds file: %w", err)
		}
		raw = b
	}
	return ParseKinds(raw)
}

func ParseKinds(raw []byte) (*document.Registry, error) {
	var f kindsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse kinds: %w", err)
	}
	if len(f.Kinds) == 0 {
		return nil, fmt.Errorf("parse kinds: no kinds defined")
	}
	return document.NewRegistry(f.Kinds...)
}
