package layout

import "github.com/matzehuels/modelgraph/pkg/diagram"

// Default node size used when a node carries no visual size.
const (
	DefaultNodeWidth       = 220.0
	DefaultNodeHeight      = 60.0
	DefaultAttributeHeight = 20.0
)

// DimensionProvider sizes nodes before layout.
type DimensionProvider interface {
	Dimensions(n *diagram.Node) (width, height float64)
}

// DimensionFunc adapts a function to [DimensionProvider].
type DimensionFunc func(n *diagram.Node) (width, height float64)

// Dimensions calls f(n).
func (f DimensionFunc) Dimensions(n *diagram.Node) (float64, float64) { return f(n) }

// DefaultDimensions keeps a node's visual size when it has one. Otherwise a
// node is 220 wide and grows 20 per attribute row below a 60 high header.
type DefaultDimensions struct{}

// Dimensions implements [DimensionProvider].
func (DefaultDimensions) Dimensions(n *diagram.Node) (float64, float64) {
	if n.Visual != nil && n.Visual.Width > 0 && n.Visual.Height > 0 {
		return n.Visual.Width, n.Visual.Height
	}
	return DefaultNodeWidth, DefaultNodeHeight + DefaultAttributeHeight*float64(len(n.Attributes))
}
