package graphfile

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/parallelf/internal/errors"
)

type yamlFile struct {
	Tasks []TaskSpec `yaml:"tasks"`
}

// ParseYAML parses a YAML graph. Unknown keys are rejected so typos in
// field names do not silently drop configuration.
func ParseYAML(data []byte) (*Graph, error) {
	var f yamlFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &Graph{}, nil
		}
		return nil, fmt.Errorf("failed to parse YAML graph: %w", err)
	}
	return &Graph{Tasks: f.Tasks}, nil
}

// EncodeYAML renders g in the YAML graph format.
func (g *Graph) EncodeYAML() ([]byte, error) {
	return yaml.Marshal(yamlFile{Tasks: g.Tasks})
}
