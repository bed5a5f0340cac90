package loaders

import (
	"fmt"
	"os"

	"github.com/spaghettifunk/anima-scenes/engine/groups"
	"gopkg.in/yaml.v3"
)

type YAMLLoader struct{}

func (yl *YAMLLoader) Load(path string) (*groups.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc DefinitionDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc.ToDefinition(path)
}
