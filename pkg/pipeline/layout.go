package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/modelgraph/pkg/diagram"
	"github.com/matzehuels/modelgraph/pkg/extract"
	"github.com/matzehuels/modelgraph/pkg/layout"
	"github.com/matzehuels/modelgraph/pkg/metrics"
	"github.com/matzehuels/modelgraph/pkg/model"
	"github.com/matzehuels/modelgraph/pkg/visual"
)

// =============================================================================
// Build
// =============================================================================

// BuildGraph extracts the semantic models and builds the diagram graph.
// With opts.Group set, generalization hierarchies of the main graph are
// collapsed into subgraphs.
func BuildGraph(opts Options) (*diagram.MainGraph, error) {
	if err := opts.ValidateForBuild(); err != nil {
		return nil, err
	}
	ext := extract.Extract(opts.Models)
	g := diagram.Build(ext, opts.Visual, diagram.WithLogger(opts.Logger))
	if opts.Group {
		if err := Group(g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Group collapses the generalization hierarchies of the main graph.
func Group(g *diagram.MainGraph) error {
	if _, err := g.GroupGeneralizations(diagram.MainGraphID); err != nil {
		return fmt.Errorf("group generalizations: %w", err)
	}
	return nil
}

// =============================================================================
// Layout
// =============================================================================

// Layout runs the configured layout strategy on g. The returned graph is g
// itself unless opts.CreateNewGraph asks for a positioned copy.
func Layout(ctx context.Context, g *diagram.MainGraph, opts Options) (*diagram.MainGraph, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return nil, err
	}
	engineOpts := []layout.EngineOption{layout.WithLogger(opts.Logger)}
	for a, b := range opts.Backends {
		engineOpts = append(engineOpts, layout.WithBackend(a, b))
	}

	var s layout.Strategy = layout.NewEngine(engineOpts...)
	if err := s.Prepare(g, *opts.Config, opts.Dimensions); err != nil {
		return nil, err
	}
	if opts.GeneralizationOnly {
		return s.RunGeneralizationLayout(ctx, opts.CreateNewGraph)
	}
	return s.Run(ctx, opts.CreateNewGraph)
}

// =============================================================================
// Score and adapt
// =============================================================================

// Score evaluates the default metrics on a positioned graph.
func Score(g *diagram.MainGraph) metrics.Report {
	return metrics.Evaluate(g, metrics.Default()...)
}

// Adapt converts a positioned graph into a visual model.
func Adapt(g *diagram.MainGraph, opts Options) *model.VisualModel {
	var vopts []visual.Option
	if opts.IDGenerator != nil {
		vopts = append(vopts, visual.WithIDGenerator(opts.IDGenerator))
	}
	return visual.ToVisualModel(g, vopts...)
}
