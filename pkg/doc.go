// Package pkg provides the core libraries for modelgraph diagram layout.
//
// # Overview
//
// modelgraph turns semantic models (classes, relationships, generalizations
// and their profiles) into diagram graphs, positions them and scores the
// result with aesthetic metrics. The pkg directory is organized into:
//
//  1. [model] - Semantic and visual model documents
//  2. [extract] - Entity extraction from semantic models
//  3. [diagram] - The graph arena and generalization grouping
//  4. [layout] - Layout configuration, engine and backends
//  5. [metrics] - Aesthetic layout metrics
//  6. [visual] - Conversion of laid-out graphs into visual models
//  7. [pipeline] - Orchestration (extract → build → group → layout → score)
//
// Supporting packages are [cache], [api], [observability], [errors] and
// [buildinfo].
//
// # Architecture
//
// The typical data flow:
//
//	Semantic models (+ optional visual model)
//	         ↓
//	    [extract] package (classes, relationships, generalizations)
//	         ↓
//	    [diagram] package (graph arena, optional subgraph grouping)
//	         ↓
//	    [layout] package (random or Graphviz dot/fdp/sfdp/neato)
//	         ↓
//	    [metrics] + [visual] packages
//	         ↓
//	    Visual model JSON and metric report
//
// # Quick Start
//
//	models, _ := model.ReadModelsFile("models.json")
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Models: models,
//	    Group:  true,
//	})
//	if err != nil {
//	    return err
//	}
//	model.WriteVisualModelFile(res.Visual, "models.visual.json")
//
// [model]: github.com/matzehuels/modelgraph/pkg/model
// [extract]: github.com/matzehuels/modelgraph/pkg/extract
// [diagram]: github.com/matzehuels/modelgraph/pkg/diagram
// [layout]: github.com/matzehuels/modelgraph/pkg/layout
// [metrics]: github.com/matzehuels/modelgraph/pkg/metrics
// [visual]: github.com/matzehuels/modelgraph/pkg/visual
// [pipeline]: github.com/matzehuels/modelgraph/pkg/pipeline
// [cache]: github.com/matzehuels/modelgraph/pkg/cache
// [api]: github.com/matzehuels/modelgraph/pkg/api
// [observability]: github.com/matzehuels/modelgraph/pkg/observability
// [errors]: github.com/matzehuels/modelgraph/pkg/errors
// [buildinfo]: github.com/matzehuels/modelgraph/pkg/buildinfo
package pkg
