// Package config loads the command line configuration. Values are merged
// from defaults, an optional geosql.yaml, GEOSQL_ environment variables and
// flags, later sources winning.
package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/bawdo/geosql/dialect"
	"github.com/bawdo/geosql/internal/querydoc"
	"github.com/bawdo/geosql/nodes"
	"github.com/bawdo/geosql/visitors"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

// DefaultFile is read from the working directory when no file is given.
const DefaultFile = "geosql.yaml"

const envPrefix = "GEOSQL_"

// sections are the nested key groups; GEOSQL_LOG_LEVEL maps to log.level.
var sections = []string{"log", "extent"}

// Config is the merged configuration.
type Config struct {
	Backend     string `koanf:"backend"`
	DialectFile string `koanf:"dialect_file"`
	DSN         string `koanf:"dsn"`
	Params      bool   `koanf:"params"`
	Pretty      bool   `koanf:"pretty"`
	Log         Log    `koanf:"log"`
	Extent      Extent `koanf:"extent"`
}

type Log struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Extent is a default spatial window applied to rendered documents that
// carry none.
type Extent struct {
	Column string    `koanf:"column"`
	BBox   []float64 `koanf:"bbox"`
	SRID   int       `koanf:"srid"`
}

func defaults() map[string]any {
	return map[string]any{
		"backend":       "postgis",
		"params":        false,
		"pretty":        false,
		"log.level":     "warn",
		"log.format":    "text",
		"extent.column": "geom",
		"extent.srid":   0,
	}
}

// Load merges the configuration sources. An explicit cfgFile must exist;
// DefaultFile is optional. flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	path := cfgFile
	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, any) {
		key = keyFor(strings.TrimPrefix(key, envPrefix), "_")
		if key == "extent.bbox" {
			return key, strings.Split(value, ",")
		}
		return key, value
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key := keyFor(f.Name, "-")
			if key == "extent.bbox" {
				return key, strings.Split(f.Value.String(), ",")
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// keyFor turns an env var suffix or flag name into a config key.
func keyFor(name, sep string) string {
	name = strings.ToLower(name)
	for _, s := range sections {
		if rest, ok := strings.CutPrefix(name, s+sep); ok {
			return s + "." + strings.ReplaceAll(rest, sep, "_")
		}
	}
	return strings.ReplaceAll(name, sep, "_")
}

// Validate checks the merged values.
func (c *Config) Validate() error {
	if !slices.Contains(visitors.Backends, strings.ToLower(c.Backend)) {
		return fmt.Errorf("invalid backend %q: want one of %s", c.Backend, strings.Join(visitors.Backends, ", "))
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q: want text or json", c.Log.Format)
	}
	if n := len(c.Extent.BBox); n != 0 && n != 4 {
		return fmt.Errorf("extent.bbox needs 4 numbers, got %d", n)
	}
	return nil
}

// Logger returns a logger configured with the log section.
func (c *Config) Logger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	if lvl, err := logrus.ParseLevel(c.Log.Level); err == nil {
		l.SetLevel(lvl)
	}
	if c.Log.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	return l
}

// Dialect loads dialect_file when set, otherwise the builtin dialect of
// the backend.
func (c *Config) Dialect(logger logrus.FieldLogger) (*dialect.Dialect, error) {
	if c.DialectFile != "" {
		return dialect.Load(c.DialectFile, dialect.WithLogger(logger))
	}
	return dialect.Builtin(visitors.DefaultDialect(c.Backend), dialect.WithLogger(logger))
}

// Visitor builds the backend visitor, wrapped for pretty printing when
// configured.
func (c *Config) Visitor(logger logrus.FieldLogger) (nodes.Visitor, error) {
	d, err := c.Dialect(logger)
	if err != nil {
		return nil, err
	}
	opts := []visitors.Option{visitors.WithLogger(logger)}
	if c.Params {
		opts = append(opts, visitors.WithParams())
	}
	v, err := visitors.New(c.Backend, d, opts...)
	if err != nil {
		return nil, err
	}
	if c.Pretty {
		return visitors.NewFormattingVisitor(v), nil
	}
	return v, nil
}

// DefaultExtent returns the configured window as a query document extent,
// or nil when no bbox is set.
func (c *Config) DefaultExtent() *querydoc.Extent {
	if len(c.Extent.BBox) != 4 {
		return nil
	}
	return &querydoc.Extent{
		BBox:   slices.Clone(c.Extent.BBox),
		SRID:   c.Extent.SRID,
		Column: c.Extent.Column,
	}
}

// RegisterFlags adds the flags Load reads to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("backend", "postgis", "SQL backend: "+strings.Join(visitors.Backends, ", "))
	fs.String("dialect-file", "", "YAML dialect definition replacing the builtin one")
	fs.String("dsn", "", "database connection string for exec")
	fs.Bool("params", false, "bind literals as parameters")
	fs.Bool("pretty", false, "format SQL over several lines")
	fs.String("log-level", "warn", "log level")
	fs.String("log-format", "text", "log format: text or json")
	fs.String("extent-column", "geom", "geometry column of the default extent")
	fs.String("extent-bbox", "", "default extent as minx,miny,maxx,maxy")
	fs.Int("extent-srid", 0, "SRID of the default extent")
}
