// Package pipeline provides the end-to-end layout pipeline for modelgraph.
//
// This package implements the complete extract → build → group → layout →
// score → adapt pipeline used by the CLI and the HTTP API. By centralizing
// this logic, both entry points produce identical results for identical
// inputs and share one caching scheme.
//
// # Architecture
//
// The pipeline consists of five stages:
//
//  1. Build: extract classes, relationships and generalizations from the
//     semantic models and build the diagram graph, filtered by the visual
//     model's visibility flags
//  2. Group: optionally collapse generalization hierarchies into subgraphs
//  3. Layout: run the configured layout strategy
//  4. Score: evaluate the aesthetic metrics on the positioned graph
//  5. Adapt: convert the positioned graph into visual entities
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Models: models,
//	    Visual: vm,
//	    Group:  true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = model.WriteVisualModel(result.Visual, os.Stdout)
//
// Run individual stages:
//
//	g, err := pipeline.BuildGraph(opts)
//	g, err = pipeline.Layout(ctx, g, opts)
//	report := pipeline.Score(g)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/modelgraph/pkg/cache"
	"github.com/matzehuels/modelgraph/pkg/diagram"
	"github.com/matzehuels/modelgraph/pkg/errors"
	"github.com/matzehuels/modelgraph/pkg/layout"
	"github.com/matzehuels/modelgraph/pkg/metrics"
	"github.com/matzehuels/modelgraph/pkg/model"
	"github.com/matzehuels/modelgraph/pkg/visual"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Inputs
	Models []model.SemanticModel `json:"models"`
	Visual *model.VisualModel    `json:"visual,omitempty"`

	// Layout options. A nil Config uses layout.DefaultConfig.
	Config             *layout.Config `json:"config,omitempty"`
	CreateNewGraph     bool           `json:"create_new_graph,omitempty"`
	Group              bool           `json:"group,omitempty"`
	GeneralizationOnly bool           `json:"generalization_only,omitempty"` // Lay out subgraph interiors only
	Refresh            bool           `json:"refresh,omitempty"`             // Skip the cache lookup

	// Runtime options (not serialized)
	Logger      *log.Logger                         `json:"-"`
	Dimensions  layout.DimensionProvider            `json:"-"`
	Backends    map[layout.Algorithm]layout.Backend `json:"-"`
	IDGenerator visual.IDGenerator                  `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the positioned diagram graph. It is nil when the result
	// came from the cache.
	Graph *diagram.MainGraph `json:"-"`

	// InputHash is the content hash of the models and the visual model.
	InputHash string `json:"input_hash"`

	// Visual holds the visual entities of the positioned graph.
	Visual *model.VisualModel `json:"visual"`

	// Metrics is the aesthetic score of the layout.
	Metrics metrics.Report `json:"metrics"`

	// Dangling lists references skipped while building the graph.
	Dangling []diagram.DanglingReference `json:"dangling,omitempty"`

	// Stats contains timing and size information.
	Stats Stats `json:"stats"`

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo `json:"-"`
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount     int           `json:"nodes"`
	EdgeCount     int           `json:"edges"`
	SubgraphCount int           `json:"subgraphs"`
	DanglingCount int           `json:"dangling"`
	BuildTime     time.Duration `json:"build_time"`
	GroupTime     time.Duration `json:"group_time"`
	LayoutTime    time.Duration `json:"layout_time"`
	MetricsTime   time.Duration `json:"metrics_time"`
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit  bool // Whether the layout result came from cache
	MetricsHit bool // Whether the metric report came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the inputs and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForBuild(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForBuild checks the model inputs and fills entity ids.
func (o *Options) ValidateForBuild() error {
	if len(o.Models) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "at least one model is required")
	}
	if err := model.NormalizeModels(o.Models); err != nil {
		return err
	}
	o.setLogger()
	return nil
}

// ValidateForLayout applies the default configuration and validates it.
func (o *Options) ValidateForLayout() error {
	if o.Config == nil {
		cfg := layout.DefaultConfig()
		o.Config = &cfg
	}
	if err := o.Config.Validate(); err != nil {
		return err
	}
	if o.GeneralizationOnly && !o.Group {
		return errors.New(errors.ErrCodeInvalidInput, "generalization-only layout requires grouping")
	}
	o.setLogger()
	return nil
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// InputHash hashes the models and the visual model.
func (o *Options) InputHash() (string, error) {
	return cache.HashJSON(o.Models, o.Visual)
}

// LayoutKeyOpts returns cache key options for a layout run.
func (o *Options) LayoutKeyOpts() (cache.LayoutKeyOpts, error) {
	cfgHash, err := cache.HashJSON(o.Config)
	if err != nil {
		return cache.LayoutKeyOpts{}, err
	}
	return cache.LayoutKeyOpts{
		ConfigHash:         cfgHash,
		CreateNewGraph:     o.CreateNewGraph,
		Group:              o.Group,
		GeneralizationOnly: o.GeneralizationOnly,
	}, nil
}
