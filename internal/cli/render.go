package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skeltree/skeltree/pkg/morphio"
	"github.com/skeltree/skeltree/pkg/render"
)

const defaultPNGScale = 2.0 // 2x resolution for high-DPI displays

// renderFlags holds the command-line flags for the render command.
type renderFlags struct {
	output   string
	format   string
	detailed bool
}

// validRenderFormats is the set of supported output formats.
var validRenderFormats = map[string]bool{"dot": true, "svg": true, "pdf": true, "png": true}

// renderCommand creates the render command for visualizing section trees.
func (c *CLI) renderCommand() *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "render <morphology.morph.json>",
		Short: "Render a morphology's section tree",
		Long: `Render the section tree of a converted morphology as a diagram.

Formats:
  dot   Graphviz DOT source
  svg   scalable vector graphic (default)
  pdf   via rsvg-convert (requires librsvg)
  png   via rsvg-convert (requires librsvg)

Examples:
  skeltree render cell.morph.json
  skeltree render cell.morph.json -f png -o tree.png
  skeltree render cell.morph.json --detailed -f dot`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validRenderFormats[flags.format] {
				return fmt.Errorf("invalid format: %s (must be 'dot', 'svg', 'pdf', or 'png')", flags.format)
			}
			return c.runRender(args[0], &flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (default derived from input)")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "svg", "output format: dot, svg, pdf, png")
	cmd.Flags().BoolVar(&flags.detailed, "detailed", false, "include point counts and path lengths in labels")

	return cmd
}

func (c *CLI) runRender(input string, flags *renderFlags) error {
	doc, err := morphio.ReadFile(input)
	if err != nil {
		return err
	}
	c.Logger.Info("loaded morphology", "sections", len(doc.Sections))

	dot := render.ToDOT(doc, render.Options{Detailed: flags.detailed})

	var data []byte
	switch flags.format {
	case "dot":
		data = []byte(dot)
	case "svg":
		data, err = render.RenderSVG(dot)
	case "pdf":
		data, err = render.RenderPDF(dot)
	case "png":
		data, err = render.RenderPNG(dot, defaultPNGScale)
	}
	if err != nil {
		return err
	}

	out := flags.output
	if out == "" {
		out = renderBasePath(input) + "." + flags.format
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}

	printSuccess("Rendered %s", out)
	return nil
}

// renderBasePath strips the morphology container extension so output names
// derive from the cell name: cell.morph.json -> cell.
func renderBasePath(input string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return strings.TrimSuffix(base, ".morph")
}
