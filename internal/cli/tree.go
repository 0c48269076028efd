package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/polytunnel/polytunnel/pkg/errors"
	"github.com/polytunnel/polytunnel/pkg/export"
	"github.com/polytunnel/polytunnel/pkg/resolver"
)

// treeCommand creates the tree command.
func (c *CLI) treeCommand() *cobra.Command {
	var (
		opts     resolveOpts
		output   string
		format   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "tree [groupId:artifactId:version...]",
		Short: "Print or export the dependency tree",
		Long: `Print the dependency tree, or export it as json, yaml, dot or svg.

Coordinates already printed are marked (*); coordinates that could not be
resolved are marked (unresolved).

Examples:
  polytunnel tree
  polytunnel tree --format dot > deps.dot
  polytunnel tree -o deps.svg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			f := export.FormatText
			if format != "" || output != "" {
				var err error
				if f, err = outputFormat(format, output); err != nil {
					return err
				}
			}

			s, err := c.newSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			opts.apply(s)

			tree, _, err := c.runResolve(ctx, s, args)
			if err != nil {
				return err
			}

			if output != "" {
				if err := writeTreeFile(tree, output, f, detailed); err != nil {
					return err
				}
				printSuccess("Exported %s", f)
				printFile(output)
				return nil
			}

			switch f {
			case export.FormatText:
				if err := resolver.RenderTree(os.Stdout, tree, resolver.TreeOptions{Highlight: highlightDepth}); err != nil {
					return err
				}
				printDiagnostics(tree.Diagnostics)
				return nil
			case export.FormatDOT, export.FormatSVG:
				data, err := graphBytes(tree, f, detailed)
				if err != nil {
					return err
				}
				_, err = os.Stdout.Write(data)
				return err
			default:
				return export.Write(os.Stdout, tree, f)
			}
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: "+strings.Join(formatNames(), ", "))
	cmd.Flags().BoolVar(&detailed, "detailed", false, "label dot and svg nodes with depth and packaging")
	return cmd
}

// writeTreeFile exports tree to path. Detailed only affects dot and svg.
func writeTreeFile(tree *resolver.ResolvedTree, path string, f export.Format, detailed bool) error {
	if f != export.FormatDOT && f != export.FormatSVG {
		return export.ExportFile(tree, path, f)
	}
	data, err := graphBytes(tree, f, detailed)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
	}
	return nil
}

// graphBytes renders tree as dot source, or as svg through graphviz.
func graphBytes(tree *resolver.ResolvedTree, f export.Format, detailed bool) ([]byte, error) {
	dot := export.ToDOT(tree, export.DOTOptions{Detailed: detailed})
	if f == export.FormatSVG {
		return export.RenderSVG(dot)
	}
	return []byte(dot), nil
}
