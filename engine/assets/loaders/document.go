package loaders

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spaghettifunk/anima-scenes/engine/groups"
)

// SceneDocument is one [[scene]] entry of a definition file.
type SceneDocument struct {
	Name    string `toml:"name" yaml:"name"`
	Kind    string `toml:"kind,omitempty" yaml:"kind,omitempty"`
	Address string `toml:"address,omitempty" yaml:"address,omitempty"`
	Role    string `toml:"role,omitempty" yaml:"role,omitempty"`
}

// DefinitionDocument is the on-disk layout of a group definition, shared by
// every format.
type DefinitionDocument struct {
	Name   string          `toml:"name" yaml:"name"`
	Scenes []SceneDocument `toml:"scene" yaml:"scene"`
}

// ToDefinition converts the document. A missing group name falls back to the
// file name without extension.
func (d *DefinitionDocument) ToDefinition(path string) (*groups.Definition, error) {
	name := d.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	entries := make([]groups.Entry, 0, len(d.Scenes))
	for i, s := range d.Scenes {
		kind, err := groups.ParseResourceKind(s.Kind)
		if err != nil {
			return nil, fmt.Errorf("%s: scene #%d ('%s'): %w", path, i, s.Name, err)
		}
		entries = append(entries, groups.Entry{
			Reference: groups.ResourceReference{
				Name:    s.Name,
				Kind:    kind,
				Address: s.Address,
			},
			Role: groups.RoleTag(strings.ToLower(strings.TrimSpace(s.Role))),
		})
	}
	return groups.NewDefinition(name, entries...), nil
}
