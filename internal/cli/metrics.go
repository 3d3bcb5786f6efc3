package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/modelgraph/pkg/model"
	"github.com/matzehuels/modelgraph/pkg/pipeline"
)

// metricsCommand creates the metrics command for scoring existing layouts.
func (c *CLI) metricsCommand() *cobra.Command {
	var (
		visualPath string
		flags      cacheFlags
	)

	cmd := &cobra.Command{
		Use:   "metrics [models.json]",
		Short: "Score the layout stored in a visual model",
		Long: `Score the layout stored in a visual model.

The metrics command builds the diagram graph of the models file with the
positions and sizes of the visual model and prints edge crossings,
edge-node collisions, node orthogonality, area and crossing angle.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runMetrics(cmd.Context(), args[0], visualPath, flags)
		},
	}

	cmd.Flags().StringVar(&visualPath, "visual", "", "visual model JSON holding the layout (required)")
	_ = cmd.MarkFlagRequired("visual")
	flags.register(cmd)
	return cmd
}

func (c *CLI) runMetrics(ctx context.Context, input, visualPath string, flags cacheFlags) error {
	models, err := model.ReadModelsFile(input)
	if err != nil {
		return fmt.Errorf("load models %s: %w", input, err)
	}
	vm, err := model.ReadVisualModelFile(visualPath)
	if err != nil {
		return fmt.Errorf("load visual model: %w", err)
	}

	runner, err := c.newRunner(ctx, flags, nil)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	result, err := runner.Evaluate(ctx, pipeline.Options{
		Models: models,
		Visual: vm,
		Logger: loggerFromContext(ctx),
	})
	if err != nil {
		return fmt.Errorf("score layout: %w", err)
	}

	fmt.Println(formatStats(result.Stats, result.CacheInfo.MetricsHit))
	printNewline()
	writeReport(os.Stdout, result.Metrics)
	return nil
}
