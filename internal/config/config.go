// Package config loads polytunnel.toml, an optional .env file and
// POLYTUNNEL_* environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/polytunnel/polytunnel/pkg/errors"
	"github.com/polytunnel/polytunnel/pkg/maven"
)

const (
	// DefaultFile is the project file looked up when no path is given.
	DefaultFile = "polytunnel.toml"

	appName = "polytunnel"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheFile   = "file"
	CacheRedis  = "redis"
	CacheMongo  = "mongo"
	CacheNone   = "none"
)

// Config is the merged project configuration.
type Config struct {
	Project      Project                   `toml:"project"`
	Dependencies map[string]DependencySpec `toml:"dependencies"`
	Repositories []Repository              `toml:"repositories"`
	Resolver     ResolverConfig            `toml:"resolver"`
	Cache        CacheConfig               `toml:"cache"`
	Store        StoreConfig               `toml:"store"`
	Server       ServerConfig              `toml:"server"`
	SearchURL    string                    `toml:"search_url"`

	// Path is the file the configuration was read from, empty when none was found.
	Path string `toml:"-"`
	// Unknown lists keys present in the file that no field consumed.
	Unknown []string `toml:"-"`
}

type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

type Repository struct {
	Name string `toml:"name"`
	URL  string `toml:"url"`
}

type ResolverConfig struct {
	Workers        int `toml:"workers"`
	MaxDepth       int `toml:"max_depth"`
	MaxParentDepth int `toml:"max_parent_depth"`
}

type CacheConfig struct {
	Backend  string   `toml:"backend"`
	TTL      Duration `toml:"ttl"`
	Dir      string   `toml:"dir"`
	RedisURL string   `toml:"redis_url"`
	MongoURI string   `toml:"mongo_uri"`
	MongoDB  string   `toml:"mongo_db"`
}

type StoreConfig struct {
	Dir         string `toml:"dir"`
	S3Endpoint  string `toml:"s3_endpoint"`
	S3Region    string `toml:"s3_region"`
	S3Bucket    string `toml:"s3_bucket"`
	S3Prefix    string `toml:"s3_prefix"`
	S3AccessKey string `toml:"s3_access_key"`
	S3SecretKey string `toml:"s3_secret_key"`
	S3UseSSL    bool   `toml:"s3_use_ssl"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration written as a Go duration string ("24h").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// DependencySpec is a [dependencies] entry: either a version string or a
// table with version and scope.
type DependencySpec struct {
	Version string
	Scope   maven.Scope
}

// UnmarshalTOML implements toml.Unmarshaler.
func (d *DependencySpec) UnmarshalTOML(v any) error {
	switch val := v.(type) {
	case string:
		d.Version = val
	case map[string]any:
		for k, raw := range val {
			s, ok := raw.(string)
			if !ok {
				return fmt.Errorf("dependency field %q must be a string", k)
			}
			switch k {
			case "version":
				d.Version = s
			case "scope":
				d.Scope = maven.ParseScope(s)
			default:
				return fmt.Errorf("unknown dependency field %q", k)
			}
		}
	default:
		return fmt.Errorf("dependency must be a version string or a table, got %T", v)
	}
	if d.Scope == "" {
		d.Scope = maven.ScopeCompile
	}
	return nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Dependencies: map[string]DependencySpec{},
		Repositories: []Repository{{Name: "central", URL: maven.CentralURL}},
		SearchURL:    maven.CentralSearchURL,
		Resolver: ResolverConfig{
			Workers:        20,
			MaxParentDepth: 10,
		},
		Cache: CacheConfig{
			Backend: CacheFile,
			TTL:     Duration{maven.DefaultCacheTTL},
			MongoDB: appName,
		},
		Store:  StoreConfig{Dir: filepath.Join(".polytunnel", "lib")},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Load reads the configuration. An empty path means DefaultFile in the
// working directory, and a missing default file yields Default(). An
// explicit path that does not exist is an error.
//
// A .env file next to the configuration file is loaded first; variables
// already set in the environment win over it.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	loadDotEnv(filepath.Join(filepath.Dir(path), ".env"))

	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if err := cfg.decodeFile(path); err != nil {
			return nil, err
		}
	} else if explicit {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "config file %s", path)
	}

	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes TOML text on top of Default() without consulting the
// environment.
func Parse(text string) (*Config, error) {
	cfg := Default()
	repos := cfg.Repositories
	cfg.Repositories = nil
	md, err := toml.Decode(text, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if len(cfg.Repositories) == 0 {
		cfg.Repositories = repos
	}
	cfg.Unknown = undecoded(md)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	repos := c.Repositories
	c.Repositories = nil
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if len(c.Repositories) == 0 {
		c.Repositories = repos
	}
	c.Path = path
	c.Unknown = undecoded(md)
	return nil
}

func undecoded(md toml.MetaData) []string {
	var keys []string
	for _, k := range md.Undecoded() {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)
	return keys
}

func loadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

// ApplyEnv overrides fields from POLYTUNNEL_* variables read through getenv.
// Malformed numeric or boolean values are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("POLYTUNNEL_REPOSITORY_URL"); v != "" {
		c.Repositories = nil
		for i, u := range strings.Split(v, ",") {
			if u = strings.TrimSpace(u); u != "" {
				c.Repositories = append(c.Repositories, Repository{Name: fmt.Sprintf("env-%d", i), URL: u})
			}
		}
	}
	setString(&c.SearchURL, getenv("POLYTUNNEL_SEARCH_URL"))
	setString(&c.Cache.Backend, getenv("POLYTUNNEL_CACHE"))
	if v := getenv("POLYTUNNEL_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Cache.TTL = Duration{d}
		}
	}
	setString(&c.Cache.Dir, getenv("POLYTUNNEL_CACHE_DIR"))
	setString(&c.Cache.RedisURL, getenv("POLYTUNNEL_REDIS_URL"))
	setString(&c.Cache.MongoURI, getenv("POLYTUNNEL_MONGO_URI"))
	if v := getenv("POLYTUNNEL_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Resolver.Workers = n
		}
	}
	setString(&c.Store.Dir, getenv("POLYTUNNEL_STORE_DIR"))
	setString(&c.Store.S3Endpoint, getenv("POLYTUNNEL_S3_ENDPOINT"))
	setString(&c.Store.S3Bucket, getenv("POLYTUNNEL_S3_BUCKET"))
	setString(&c.Store.S3AccessKey, getenv("POLYTUNNEL_S3_ACCESS_KEY"))
	setString(&c.Store.S3SecretKey, getenv("POLYTUNNEL_S3_SECRET_KEY"))
	if v := getenv("POLYTUNNEL_S3_USE_SSL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Store.S3UseSSL = b
		}
	}
	setString(&c.Server.Addr, getenv("POLYTUNNEL_ADDR"))
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if len(c.Repositories) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "at least one repository is required")
	}
	for _, r := range c.Repositories {
		if err := errors.ValidateURL(r.URL); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "repository %q", r.Name)
		}
	}
	if c.SearchURL != "" {
		if err := errors.ValidateURL(c.SearchURL); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "search_url")
		}
	}
	if c.Resolver.Workers < 0 || c.Resolver.MaxDepth < 0 || c.Resolver.MaxParentDepth < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "resolver limits must not be negative")
	}
	switch c.Cache.Backend {
	case CacheMemory, CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache backend redis needs redis_url")
		}
	case CacheMongo:
		if c.Cache.MongoURI == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache backend mongo needs mongo_uri")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache ttl must not be negative")
	}
	for ga, spec := range c.Dependencies {
		if _, err := spec.coordinate(ga); err != nil {
			return err
		}
	}
	return nil
}

func (d DependencySpec) coordinate(ga string) (maven.Coordinate, error) {
	parts := strings.Split(ga, ":")
	if len(parts) != 2 {
		return maven.Coordinate{}, errors.New(errors.ErrCodeInvalidConfig, "dependency key %q must be groupId:artifactId", ga)
	}
	c := maven.NewCoordinate(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(d.Version))
	if err := c.Validate(); err != nil {
		return maven.Coordinate{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "dependency %q", ga)
	}
	return c, nil
}

// Roots returns the declared dependencies as coordinates, sorted by key.
func (c *Config) Roots() ([]maven.Coordinate, error) {
	roots := make([]maven.Coordinate, 0, len(c.Dependencies))
	for ga, spec := range c.Dependencies {
		coord, err := spec.coordinate(ga)
		if err != nil {
			return nil, err
		}
		roots = append(roots, coord)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].Key() < roots[j].Key() })
	return roots, nil
}

// ScopeOf returns the declared scope of groupId:artifactId, or compile when
// it is not declared.
func (c *Config) ScopeOf(ga string) maven.Scope {
	if spec, ok := c.Dependencies[ga]; ok && spec.Scope != "" {
		return spec.Scope
	}
	return maven.ScopeCompile
}

// RepositoryURLs returns the repository base URLs in lookup order.
func (c *Config) RepositoryURLs() []string {
	urls := make([]string, len(c.Repositories))
	for i, r := range c.Repositories {
		urls[i] = r.URL
	}
	return urls
}

// CacheDir returns the file cache directory: the configured one, else
// $XDG_CACHE_HOME/polytunnel, else ~/.cache/polytunnel.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err, "locate home directory")
	}
	return filepath.Join(home, ".cache", appName), nil
}

// S3Enabled reports whether an S3 mirror is configured.
func (c *Config) S3Enabled() bool {
	return c.Store.S3Endpoint != "" && c.Store.S3Bucket != ""
}
