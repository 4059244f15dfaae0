package codec

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"relmap/internal/domain"
)

// JSONCodec handles JSON seeds
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse reads a JSON array of nodes. Unknown keys are rejected so a typo in
// parent_id does not silently produce a root.
func (c *JSONCodec) Parse(r io.Reader) ([]domain.Node, error) {
	var nodes []domain.Node
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&nodes); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if nodes == nil {
		nodes = []domain.Node{}
	}
	return nodes, nil
}
