package order

import (
	"github.com/bwmarrin/snowflake"
	"github.com/pkg/errors"
)

// NumberPrefix starts every generated order number.
const NumberPrefix = "ORD-"

// NumberGenerator issues order numbers that are unique across processes as
// long as every process runs with a distinct node id.
type NumberGenerator struct {
	node *snowflake.Node
}

// NewNumberGenerator creates a generator for nodeID (0-1023).
func NewNumberGenerator(nodeID int64) (*NumberGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, errors.Wrapf(err, "order number node %d", nodeID)
	}
	return &NumberGenerator{node: node}, nil
}

// Next returns a fresh order number.
func (g *NumberGenerator) Next() string {
	return NumberPrefix + g.node.Generate().String()
}
