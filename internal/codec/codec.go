// Package codec reads tree seeds from JSON and YAML documents.
//
// A seed is an array of {id, content, parent_id} records; parent_id is null
// for roots.
package codec

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"relmap/internal/domain"
)

//go:embed seed.json
var defaultSeed []byte

// Importer parses seed records from a document
type Importer interface {
	Parse(r io.Reader) ([]domain.Node, error)
	Format() string
}

// ForPath picks an importer from the file extension
func ForPath(path string) (Importer, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return NewJSONCodec(), nil
	case ".yaml", ".yml":
		return NewYAMLCodec(), nil
	default:
		return nil, fmt.Errorf("no seed codec for %q", path)
	}
}

// DefaultSeed returns the built-in two node seed
func DefaultSeed() ([]domain.Node, error) {
	return NewJSONCodec().Parse(bytes.NewReader(defaultSeed))
}

// LoadSeed reads the seed at path, or the built-in seed when path is empty
func LoadSeed(path string) ([]domain.Node, error) {
	if path == "" {
		return DefaultSeed()
	}

	importer, err := ForPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()

	nodes, err := importer.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return nodes, nil
}
