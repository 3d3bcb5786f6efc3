package layout

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/matzehuels/modelgraph/pkg/model"
)

// DefaultSpread is the side length, per sqrt(item), of the square random
// positions are drawn from.
const DefaultSpread = 300.0

// Random places items uniformly at random in a square whose side grows
// with the square root of the item count, so density stays roughly
// constant. Anchored items keep their position.
type Random struct {
	Spread float64
}

// NewRandom returns a Random backend with [DefaultSpread].
func NewRandom() *Random { return &Random{Spread: DefaultSpread} }

// Name implements [Backend].
func (*Random) Name() string { return string(AlgorithmRandom) }

// Layout implements [Backend]. Equal seeds give equal positions.
func (r *Random) Layout(ctx context.Context, s Scope) (Positions, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	spread := r.Spread
	if spread <= 0 {
		spread = DefaultSpread
	}
	side := math.Sqrt(float64(len(s.Items))) * spread
	rng := rand.New(rand.NewPCG(s.Seed, s.Seed^0xdeadbeef))

	pos := make(Positions, len(s.Items))
	for _, it := range s.Items {
		if it.Anchored && it.HasPosition {
			pos[it.ID] = it.Position
			continue
		}
		pos[it.ID] = model.Position{X: rng.Float64() * side, Y: rng.Float64() * side}
	}
	return pos, nil
}
