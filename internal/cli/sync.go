package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/polytunnel/polytunnel/internal/config"
	"github.com/polytunnel/polytunnel/pkg/store"
)

// syncCommand creates the sync command.
func (c *CLI) syncCommand() *cobra.Command {
	var (
		opts     resolveOpts
		force    bool
		jobs     int
		storeDir string
	)

	cmd := &cobra.Command{
		Use:   "sync [groupId:artifactId:version...]",
		Short: "Download every resolved jar into the store",
		Long: `Resolve the dependencies and download the jar of every resolved artifact
into the store directory ([store] dir, default .polytunnel/lib), laid out like a
Maven repository. Jars already present are skipped unless --force is given.

When [store] s3_endpoint and s3_bucket are set, every downloaded jar is also
uploaded to that bucket.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			s, err := c.newSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			opts.apply(s)
			if storeDir != "" {
				s.cfg.Store.Dir = storeDir
			}

			dst, err := store.NewLocalStore(s.cfg.Store.Dir)
			if err != nil {
				return err
			}
			syncOpts := store.SyncOptions{Workers: jobs, Force: force, Logger: logger}
			if s.cfg.S3Enabled() {
				mirror, err := newS3Mirror(s.cfg)
				if err != nil {
					return err
				}
				syncOpts.Mirror = mirror
			}

			tree, _, err := c.runResolve(ctx, s, args)
			if err != nil {
				return err
			}
			printDiagnostics(tree.Diagnostics)

			prog := newProgress(logger)
			spinner := newSpinner(ctx, fmt.Sprintf("Downloading %d jar(s)...", len(tree.AllDependencies)))
			spinner.Start()
			report, err := store.Sync(ctx, s.client, dst, tree.AllDependencies, syncOpts)
			spinner.Stop()
			if err != nil {
				return err
			}
			prog.done("Synced", "downloaded", len(report.Downloaded), "skipped", len(report.Skipped), "failed", len(report.Failed))

			for _, f := range report.Failed {
				printError("%s", f.Coordinate)
				printDetail("%v", f.Err)
			}
			if len(report.Failed) == 0 {
				printSuccess("Synced %d artifacts", len(tree.AllDependencies))
			} else {
				printWarning("Synced with %d failure(s)", len(report.Failed))
			}
			printKeyValue("Downloaded", strconv.Itoa(len(report.Downloaded)))
			printKeyValue("Up to date", strconv.Itoa(len(report.Skipped)))
			if syncOpts.Mirror != nil {
				printKeyValue("Mirror", "s3://"+s.cfg.Store.S3Bucket+"/"+s.cfg.Store.S3Prefix)
			}
			printFile(dst.Dir())

			if len(report.Failed) > 0 {
				return fmt.Errorf("%d artifact(s) failed to download", len(report.Failed))
			}
			return nil
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVar(&force, "force", false, "download jars that are already present")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", store.DefaultSyncWorkers, "concurrent downloads")
	cmd.Flags().StringVar(&storeDir, "dir", "", "store directory (overrides [store] dir)")
	return cmd
}

func newS3Mirror(cfg *config.Config) (*store.S3Store, error) {
	return store.NewS3Store(store.S3Config{
		Endpoint:  cfg.Store.S3Endpoint,
		Region:    cfg.Store.S3Region,
		AccessKey: cfg.Store.S3AccessKey,
		SecretKey: cfg.Store.S3SecretKey,
		Bucket:    cfg.Store.S3Bucket,
		Prefix:    cfg.Store.S3Prefix,
		UseSSL:    cfg.Store.S3UseSSL,
	})
}
