package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	skelerrors "github.com/skeltree/skeltree/pkg/errors"
	"github.com/skeltree/skeltree/pkg/morph"
	"github.com/skeltree/skeltree/pkg/pipeline"
)

// convertFlags holds the command-line flags for the convert command.
type convertFlags struct {
	annotations    string
	output         string
	xsection       string
	threshold      float64
	forceThreshold bool
	scale          float64
	verbosity      string
	force          bool
	refresh        bool
	noCache        bool
}

// convertCommand creates the convert command, the main entry point of the
// tool: skeleton graph in, morphology container out.
func (c *CLI) convertCommand() *cobra.Command {
	var flags convertFlags

	cmd := &cobra.Command{
		Use:   "convert <skeleton.am>",
		Short: "Convert a skeleton graph into a morphology file",
		Long: `Convert a skeletonized neuron graph into a hierarchical morphology file.

The annotation sidecar (soma position and radius) is read from
<name>.annotations.json next to the skeleton unless --annotations is given,
and the output defaults to <name>.morph.json.

Examples:
  skeltree convert cell.am
  skeltree convert cell.am --threshold 1.5 -o out.morph.json
  skeltree convert cell.am --xsection cell.xsection.csv --scale 0.5
  skeltree convert cell.am --verbosity debug   # include visual debug artifacts`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runConvert(cmd, args[0], &flags)
		},
	}

	cmd.Flags().StringVarP(&flags.annotations, "annotations", "a", "", "annotation sidecar path (default <name>.annotations.json)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output path (default <name>.morph.json)")
	cmd.Flags().StringVar(&flags.xsection, "xsection", "", "cross-section override CSV")
	cmd.Flags().Float64VarP(&flags.threshold, "threshold", "t", 0, "minimum section length; shorter sections merge into their parents")
	cmd.Flags().BoolVar(&flags.forceThreshold, "force-threshold", false, "let --threshold win over an annotation-recorded threshold")
	cmd.Flags().Float64VarP(&flags.scale, "scale", "x", 0, "scale factor applied to positions and diameters")
	cmd.Flags().StringVar(&flags.verbosity, "verbosity", "warning", "output tier: all, debug, info, warning, error")
	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "overwrite an existing output file")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "bypass the cache")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching entirely")

	return cmd
}

func (c *CLI) runConvert(cmd *cobra.Command, input string, flags *convertFlags) error {
	verbosity, err := morph.ParseVerbosity(flags.verbosity)
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		SkeletonPath:    input,
		AnnotationsPath: flags.annotations,
		OutputPath:      flags.output,
		XSectionPath:    flags.xsection,
		Threshold:       flags.threshold,
		ForceThreshold:  flags.forceThreshold,
		Scale:           flags.scale,
		Verbosity:       verbosity,
		Overwrite:       flags.force,
		Refresh:         flags.refresh,
	}
	c.applyConfigDefaults(&opts)

	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	result, err := runner.Execute(cmd.Context(), opts)
	if err != nil {
		if skelerrors.Is(err, skelerrors.ErrCodeExistingOutput) {
			printError("%s", skelerrors.UserMessage(err))
			printDetail("Pass -f to overwrite")
			return err
		}
		return err
	}
	prog.done(fmt.Sprintf("Converted %d sections", result.Stats.SectionCount))

	printSuccess("Wrote %s", outputPath(opts))
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.Stats.SectionCount,
		result.CacheInfo.MorphologyHit)

	if result.DiagnosticsSummary != "" && result.DiagnosticsSummary != "clean" {
		printWarning("Degraded topology: %s", result.DiagnosticsSummary)
	}
	printNextStep("Inspect the section tree", "skeltree render "+outputPath(opts))
	return nil
}

// outputPath recovers the final output location after defaulting.
func outputPath(opts pipeline.Options) string {
	if opts.OutputPath != "" {
		return opts.OutputPath
	}
	return pipeline.BaseName(opts.SkeletonPath) + ".morph.json"
}
