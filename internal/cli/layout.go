package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/modelgraph/pkg/layout"
	"github.com/matzehuels/modelgraph/pkg/model"
	"github.com/matzehuels/modelgraph/pkg/pipeline"
)

// layoutFlags holds the flags of the layout command.
type layoutFlags struct {
	visual    string
	config    string
	output    string
	algorithm string
	seed      uint64
	cache     cacheFlags
}

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var flags layoutFlags
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout [models.json]",
		Short: "Lay out the diagram of a semantic models file",
		Long: `Lay out the diagram of a semantic models file.

The layout command extracts classes, relationships and generalizations from
the models file, builds the diagram graph and positions it with the
configured algorithm. The result is written as a visual model JSON file and
the aesthetic metrics of the layout are printed.

An existing visual model (--visual) filters hidden entities and keeps the
positions of anchored ones. The layout configuration (--config) is a TOML,
YAML or JSON file with a [main] and an optional [general] block.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], opts, flags)
		},
	}

	cmd.Flags().StringVar(&flags.visual, "visual", "", "visual model JSON with visibility and anchored positions")
	cmd.Flags().StringVar(&flags.config, "config", "", "layout configuration file (.toml, .yaml, .json)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (default: <input>.visual.json, - for stdout)")
	cmd.Flags().StringVar(&flags.algorithm, "algorithm", "", "override the main algorithm: random, layered, force, stress")
	cmd.Flags().Uint64Var(&flags.seed, "seed", 0, "override the layout seed")
	cmd.Flags().BoolVar(&opts.CreateNewGraph, "new-graph", false, "lay out a copy of the graph")
	cmd.Flags().BoolVar(&opts.Group, "group", false, "collapse generalization hierarchies into subgraphs")
	cmd.Flags().BoolVar(&opts.GeneralizationOnly, "generalization-only", false, "lay out only subgraph interiors (requires --group)")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even when a cached result exists")
	flags.cache.register(cmd)

	return cmd
}

// runLayout loads the inputs, runs the pipeline, and writes output.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, flags layoutFlags) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	models, err := model.ReadModelsFile(input)
	if err != nil {
		return fmt.Errorf("load models %s: %w", input, err)
	}
	opts.Models = models
	if flags.visual != "" {
		if opts.Visual, err = model.ReadVisualModelFile(flags.visual); err != nil {
			return fmt.Errorf("load visual model: %w", err)
		}
	}
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	opts.Config = &cfg
	opts.Logger = logger

	runner, err := c.newRunner(ctx, flags.cache, nil)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Computing %s layout...", cfg.Main.Algorithm))
	spinner.Start()
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	prog.done(fmt.Sprintf("Laid out %d entities", len(result.Visual.Entities)))

	outputPath := flags.output
	if outputPath == "-" {
		if err := model.WriteVisualModel(result.Visual, os.Stdout); err != nil {
			return err
		}
		fmt.Println()
		return nil
	}
	if outputPath == "" {
		outputPath = strings.TrimSuffix(input, filepath.Ext(input)) + ".visual.json"
	}
	if err := model.WriteVisualModelFile(result.Visual, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	fmt.Println(formatStats(result.Stats, result.CacheInfo.LayoutHit))
	for _, d := range result.Dangling {
		printWarning("skipped %s", d)
	}
	printNewline()
	writeReport(os.Stdout, result.Metrics)
	printNewline()
	printNextStep("Score an edited layout", fmt.Sprintf("%s metrics %s --visual %s", appName, input, outputPath))
	return nil
}

// loadConfig reads --config on top of the defaults and applies flag
// overrides.
func loadConfig(flags layoutFlags) (layout.Config, error) {
	cfg := layout.DefaultConfig()
	if flags.config != "" {
		var err error
		if cfg, err = layout.LoadConfigFile(flags.config); err != nil {
			return layout.Config{}, err
		}
	}
	if flags.algorithm != "" {
		cfg.Main.Algorithm = layout.Algorithm(flags.algorithm)
	}
	if flags.seed != 0 {
		cfg.Seed = flags.seed
	}
	if err := cfg.Validate(); err != nil {
		return layout.Config{}, err
	}
	return cfg, nil
}
