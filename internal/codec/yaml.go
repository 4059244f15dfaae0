package codec

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"relmap/internal/domain"
)

// YAMLCodec handles YAML seeds
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// Parse reads a YAML sequence of nodes
func (c *YAMLCodec) Parse(r io.Reader) ([]domain.Node, error) {
	var nodes []domain.Node
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&nodes); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if nodes == nil {
		nodes = []domain.Node{}
	}
	return nodes, nil
}
