package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/polytunnel/polytunnel/pkg/maven"
)

// searchCommand creates the search command.
func (c *CLI) searchCommand() *cobra.Command {
	var (
		limit int
		pick  bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the repository index",
		Long: `Search the repository index for artifacts matching a free-text query.

With --pick, choose a result interactively and print the line to add to
polytunnel.toml.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.newSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			spinner := newSpinner(ctx, fmt.Sprintf("Searching for %q...", args[0]))
			spinner.Start()
			res, err := s.client.Search(ctx, args[0], limit)
			if err != nil {
				spinner.StopWithError("Search failed")
				return err
			}
			spinner.StopWithSuccess("Found %d of %d matches", len(res.Docs), res.NumFound)
			if len(res.Docs) == 0 {
				return nil
			}

			if pick {
				doc, err := pickSearchResult(res.Docs)
				if err != nil {
					return err
				}
				if doc == nil {
					return nil
				}
				coord := doc.Coordinate()
				printSuccess("Selected %s", StyleHighlight.Render(coord.String()))
				printNextStep("Add to polytunnel.toml", dependencyLine(coord))
				return nil
			}

			for _, d := range res.Docs {
				line := StyleValue.Render(d.Coordinate().String())
				if d.VersionCount > 0 {
					line += " " + StyleDim.Render("("+strconv.Itoa(d.VersionCount)+" versions)")
				}
				fmt.Println("  " + line)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum results")
	cmd.Flags().BoolVar(&pick, "pick", false, "choose a result interactively")
	return cmd
}

// dependencyLine is the [dependencies] entry for coord.
func dependencyLine(coord maven.Coordinate) string {
	return fmt.Sprintf("%q = %q", coord.GA(), coord.Version)
}
