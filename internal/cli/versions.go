package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/polytunnel/polytunnel/pkg/maven"
)

// versionsCommand creates the versions command.
func (c *CLI) versionsCommand() *cobra.Command {
	var (
		limit  int
		latest bool
	)

	cmd := &cobra.Command{
		Use:   "versions <groupId:artifactId>",
		Short: "List published versions, newest first",
		Long: `List the published versions of groupId:artifactId, newest first.

If the project declares the artifact, its version is marked and a newer
release is reported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			group, artifact, err := parseGA(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			s, err := c.newSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if latest {
				v, err := s.client.LatestVersion(ctx, group, artifact)
				if err != nil {
					return err
				}
				fmt.Println(v)
				return nil
			}

			versions, err := s.client.ListVersions(ctx, group, artifact)
			if err != nil {
				return err
			}
			if len(versions) == 0 {
				printInfo("No versions published for %s:%s", group, artifact)
				return nil
			}

			declared := ""
			if spec, ok := s.cfg.Dependencies[group+":"+artifact]; ok {
				declared = spec.Version
			}

			shown := versions
			if limit > 0 && len(shown) > limit {
				shown = shown[:limit]
			}
			for _, v := range shown {
				fmt.Println(versionLine(v, declared))
			}
			if len(shown) < len(versions) {
				printDetail("%d older versions not shown", len(versions)-len(shown))
			}

			if declared != "" {
				fmt.Println()
				printVersionStatus(declared, versions[0])
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum versions to list (0 for all)")
	cmd.Flags().BoolVar(&latest, "latest", false, "print only the newest version")
	return cmd
}

// versionLine renders one version, marking the declared one.
func versionLine(v, declared string) string {
	if v == declared {
		return "  " + StyleSuccess.Render(v) + " " + StyleDim.Render("(declared)")
	}
	return "  " + StyleValue.Render(v)
}

// printVersionStatus reports whether declared is the newest release.
func printVersionStatus(declared, latest string) {
	if maven.CompareVersions(declared, latest) >= 0 {
		printSuccess("%s is the latest version", declared)
		return
	}
	printWarning("%s is outdated, latest is %s", declared, latest)
}
