package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/skeltree/skeltree/pkg/skeleton"
)

// xsectionCommand creates the xsection command group.
func (c *CLI) xsectionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xsection",
		Short: "Work with cross-section override files",
	}

	cmd.AddCommand(c.xsectionMergeCommand())
	cmd.AddCommand(c.xsectionCheckCommand())

	return cmd
}

// xsectionMergeCommand creates the "xsection merge" subcommand.
// Measurement tools emit one chunk per worker; merging keeps the first
// chunk's header and concatenates all data rows.
func (c *CLI) xsectionMergeCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "merge <chunk.csv>...",
		Short: "Merge cross-section chunk files into one override CSV",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := os.Stdout
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}

			if err := skeleton.MergeChunks(out, args); err != nil {
				return err
			}
			if output != "" {
				printSuccess("Merged %d chunks", len(args))
				printFile(output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")

	return cmd
}

// xsectionCheckCommand creates the "xsection check" subcommand for
// validating an override file without converting anything.
func (c *CLI) xsectionCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <overrides.csv>",
		Short: "Validate a cross-section override file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := skeleton.ReadXSectionFile(args[0])
			if err != nil {
				return err
			}
			printSuccess("%d override entries", len(data))
			return nil
		},
	}
}
