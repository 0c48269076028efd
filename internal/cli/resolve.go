package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/polytunnel/polytunnel/pkg/export"
	"github.com/polytunnel/polytunnel/pkg/resolver"
)

// resolveOpts are the flags shared by the commands that run a resolution.
type resolveOpts struct {
	maxDepth int // overrides [resolver] max_depth when >= 0
	workers  int // overrides [resolver] workers when > 0
}

func (o *resolveOpts) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&o.maxDepth, "max-depth", -1, "deepest transitive level to follow (0 is unbounded)")
	cmd.Flags().IntVar(&o.workers, "workers", 0, "concurrent POM fetches")
}

func (o *resolveOpts) apply(s *session) {
	if o.maxDepth >= 0 {
		s.cfg.Resolver.MaxDepth = o.maxDepth
	}
	if o.workers > 0 {
		s.cfg.Resolver.Workers = o.workers
	}
}

// runResolve resolves args (or the project's dependencies) behind a spinner.
func (c *CLI) runResolve(ctx context.Context, s *session, args []string) (*resolver.ResolvedTree, time.Duration, error) {
	roots, err := s.roots(args)
	if err != nil {
		return nil, 0, err
	}

	logger := loggerFromContext(ctx)
	prog := newProgress(logger)
	spinner := newSpinner(ctx, fmt.Sprintf("Resolving %d root(s)...", len(roots)))
	spinner.Start()

	tree, err := s.resolver(logger).Resolve(ctx, roots)
	if err != nil {
		if spinner.Cancelled() {
			spinner.Stop()
			return nil, 0, ctx.Err()
		}
		spinner.StopWithError("Resolution failed")
		return nil, 0, err
	}
	spinner.Stop()

	prog.done("Resolved", "artifacts", len(tree.AllDependencies), "diagnostics", len(tree.Diagnostics))
	return tree, prog.elapsed(), nil
}

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	var (
		opts   resolveOpts
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:   "resolve [groupId:artifactId:version...]",
		Short: "Resolve transitive dependencies",
		Long: `Resolve the transitive dependencies of the given coordinates, or of the
dependencies declared in polytunnel.toml when no arguments are given.

Versions requested by the roots win over any version found deeper in the graph.

Examples:
  polytunnel resolve
  polytunnel resolve com.google.guava:guava:32.1.3-jre
  polytunnel resolve -o deps.json org.slf4j:slf4j-api:2.0.9`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.newSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			opts.apply(s)

			tree, elapsed, err := c.runResolve(ctx, s, args)
			if err != nil {
				return err
			}

			printSuccess("Resolved %s", StyleHighlight.Render(strings.Join(keysOf(tree), ", ")))
			for _, dep := range tree.AllDependencies {
				depth := 0
				if n, ok := tree.Graph.Get(dep.Key()); ok {
					depth = n.Depth
				}
				note := fmt.Sprintf("(depth %d)", depth)
				if depth == 0 {
					note = fmt.Sprintf("(%s)", s.cfg.ScopeOf(dep.GA()))
				}
				fmt.Printf("  %s %s\n", highlightDepth(dep.String(), depth), StyleDim.Render(note))
			}
			fmt.Println(formatStats(len(tree.AllDependencies), len(tree.Diagnostics), elapsed))
			printDiagnostics(tree.Diagnostics)

			if output != "" {
				f, err := outputFormat(format, output)
				if err != nil {
					return err
				}
				if err := export.ExportFile(tree, output, f); err != nil {
					return err
				}
				printFile(output)
			}

			fmt.Println()
			printNextStep("Download the jars", appName+" sync")
			return nil
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "also export the resolution to this file")
	cmd.Flags().StringVarP(&format, "format", "f", "", "export format: "+strings.Join(formatNames(), ", ")+" (default: from extension, else json)")
	return cmd
}

// keysOf returns the keys of the resolved roots.
func keysOf(tree *resolver.ResolvedTree) []string {
	keys := make([]string, len(tree.RootDependencies))
	for i, r := range tree.RootDependencies {
		keys[i] = r.Key()
	}
	return keys
}

// outputFormat picks the export format from the flag, then from the file
// extension, then falls back to json.
func outputFormat(flag, path string) (export.Format, error) {
	if flag != "" {
		return export.ParseFormat(flag)
	}
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" {
		if f, err := export.ParseFormat(ext); err == nil {
			return f, nil
		}
	}
	return export.FormatJSON, nil
}

func formatNames() []string {
	names := make([]string, len(export.Formats))
	for i, f := range export.Formats {
		names[i] = string(f)
	}
	return names
}
