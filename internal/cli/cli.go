// Package cli implements the polytunnel command-line interface.
//
// # Commands
//
//   - resolve: resolve the project's dependencies (or coordinates given as arguments)
//   - tree: print or export the dependency tree (text, json, yaml, dot, svg)
//   - sync: download every resolved jar into the store directory
//   - search: query the repository index, optionally picking a result interactively
//   - versions: list published versions of groupId:artifactId
//   - cache: manage the repository response cache
//   - serve: run the HTTP API
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger is
// attached to the command context and retrieved with loggerFromContext.
package cli

import (
	"context"
	stderrors "errors"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/polytunnel/polytunnel/internal/config"
	"github.com/polytunnel/polytunnel/pkg/buildinfo"
	"github.com/polytunnel/polytunnel/pkg/cache"
	"github.com/polytunnel/polytunnel/pkg/errors"
	"github.com/polytunnel/polytunnel/pkg/maven"
	"github.com/polytunnel/polytunnel/pkg/resolver"
)

const appName = "polytunnel"

// Log levels accepted by New.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// Process exit codes returned by Run.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2 // bad arguments, coordinates or configuration
	ExitInterrupted = 130
)

// Run executes the command line args and returns the process exit code.
// Failures are logged to stderr with their error code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	c := New(stderr, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	code := ExitCode(err)
	if code != ExitOK && code != ExitInterrupted {
		c.reportError(err)
	}
	return code
}

// ExitCode maps err to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if stderrors.Is(err, context.Canceled) {
		return ExitInterrupted
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidCoordinate, errors.ErrCodeInvalidConfig:
		return ExitUsage
	}
	return ExitFailure
}

func (c *CLI) reportError(err error) {
	code := errors.GetCode(err)
	if code == "" {
		c.Logger.Error(err.Error())
		return
	}
	kv := []any{"code", code}
	if cause := stderrors.Unwrap(err); cause != nil {
		kv = append(kv, "cause", cause)
	}
	c.Logger.Error(errors.UserMessage(err), kv...)
}

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	verbose    bool
	configPath string
	noCache    bool
	refresh    bool
}

// New creates a CLI that logs to w at level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Polytunnel resolves Maven dependency trees",
		Long:         `Polytunnel resolves the transitive dependencies of Maven coordinates, fetching POMs from remote repositories concurrently, and exports or downloads the result.`,
		Version:      buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// The level is only known once flags are parsed.
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}
	root.SetVersionTemplate(buildinfo.Template())
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.New(errors.ErrCodeInvalidInput, "%v", err)
	})

	flags := root.PersistentFlags()
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVarP(&c.configPath, "config", "c", "", "project file (default ./"+config.DefaultFile+")")
	flags.BoolVar(&c.noCache, "no-cache", false, "disable the repository response cache")
	flags.BoolVar(&c.refresh, "refresh", false, "bypass cached responses and store fresh ones")

	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.treeCommand())
	root.AddCommand(c.syncCommand())
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.versionsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the project file and applies --no-cache.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.noCache {
		cfg.Cache.Backend = config.CacheNone
	}
	for _, k := range cfg.Unknown {
		c.Logger.Warn("unknown config key", "key", k, "file", cfg.Path)
	}
	return cfg, nil
}

// openCache builds the cache backend named by the configuration.
func openCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheMemory:
		return cache.NewMemoryCache(cache.DefaultMemoryEntries)
	case config.CacheRedis:
		return cache.NewRedisCache(ctx, cfg.Cache.RedisURL, appName+":")
	case config.CacheMongo:
		return cache.NewMongoCache(ctx, cfg.Cache.MongoURI, cfg.Cache.MongoDB)
	default:
		dir, err := cfg.CacheDir()
		if err != nil {
			return nil, err
		}
		return cache.NewFileCache(dir)
	}
}

// session bundles what a resolving command needs. Close releases the cache.
type session struct {
	cfg    *config.Config
	cache  cache.Cache
	client *maven.Client
}

func (c *CLI) newSession(ctx context.Context) (*session, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	return c.newSessionWith(ctx, cfg)
}

func (c *CLI) newSessionWith(ctx context.Context, cfg *config.Config) (*session, error) {
	cc, err := openCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	client := maven.NewClient(maven.Options{
		Repositories: cfg.RepositoryURLs(),
		SearchURL:    cfg.SearchURL,
		Cache:        cc,
		CacheTTL:     cfg.Cache.TTL.Duration,
		Refresh:      c.refresh,
		Logger:       c.Logger,
	})
	return &session{cfg: cfg, cache: cc, client: client}, nil
}

func (s *session) Close() error { return s.cache.Close() }

func (s *session) resolver(logger *log.Logger) *resolver.Resolver {
	return resolver.New(s.client, resolver.Options{
		Workers:        s.cfg.Resolver.Workers,
		MaxDepth:       s.cfg.Resolver.MaxDepth,
		MaxParentDepth: s.cfg.Resolver.MaxParentDepth,
		Logger:         logger,
	})
}

// roots returns coordinates from args, or the project's dependencies when
// args is empty.
func (s *session) roots(args []string) ([]maven.Coordinate, error) {
	if len(args) == 0 {
		roots, err := s.cfg.Roots()
		if err != nil {
			return nil, err
		}
		if len(roots) == 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"no dependencies: pass coordinates or declare them in %s", config.DefaultFile)
		}
		return roots, nil
	}
	return parseCoordinates(args)
}

func parseCoordinates(args []string) ([]maven.Coordinate, error) {
	roots := make([]maven.Coordinate, 0, len(args))
	for _, a := range args {
		coord, err := maven.ParseCoordinate(strings.TrimSpace(a))
		if err != nil {
			return nil, err
		}
		if err := coord.Validate(); err != nil {
			return nil, err
		}
		roots = append(roots, coord)
	}
	return roots, nil
}

// parseGA splits "groupId:artifactId".
func parseGA(s string) (string, string, error) {
	g, a, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || g == "" || a == "" || strings.Contains(a, ":") {
		return "", "", errors.New(errors.ErrCodeInvalidCoordinate, "invalid format: %q (expected groupId:artifactId)", s)
	}
	return g, a, nil
}
