package graphfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Iron-Ham/parallelf/internal/errors"
)

// Supported file extensions.
var Extensions = []string{".yaml", ".yml", ".hcl"}

// Load reads the graph file at path, choosing the parser by extension, and
// validates it.
func Load(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph file: %w", err)
	}

	var g *Graph
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		g, err = ParseYAML(data)
	case ".hcl":
		g, err = ParseHCL(data, path, nil)
	default:
		return nil, errors.NewValidationError("unsupported graph file extension, must be one of: " + strings.Join(Extensions, ", ")).
			WithField("path").WithValue(path)
	}
	if err != nil {
		return nil, err
	}

	g.Path = path
	if err := g.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid graph %s", path)
	}
	return g, nil
}
