package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tickerflow/internal/ir"
	"github.com/roach88/tickerflow/internal/market"
	"github.com/roach88/tickerflow/internal/router"
)

// Default paths and values.
const (
	DefaultConfigPath  = "config/config.yml"
	DefaultRubricPath  = "config/rubric.yml"
	DefaultMemoryPath  = "memory.json"
	DefaultProvider    = "yahoo"
	DefaultPeriod      = "6mo"
	DefaultInterval    = "1d"
	DefaultMaxNews     = 15
	DefaultConcurrency = 1
)

// Provider names.
const (
	ProviderYahoo = "yahoo"
	ProviderCSV   = "csv"
	ProviderNone  = "none"
)

// Config is the decoded config.yml.
type Config struct {
	Universe   Universe   `yaml:"universe"`
	Planner    Planner    `yaml:"planner"`
	Routing    Routing    `yaml:"routing"`
	Summarizer Summarizer `yaml:"summarizer"`
	Memory     Memory     `yaml:"memory"`
	Prices     Prices     `yaml:"prices"`
	News       News       `yaml:"news"`
	Engine     Engine     `yaml:"engine"`
}

type Universe struct {
	Tickers []string `yaml:"tickers"`
}

type Planner struct {
	Steps []string `yaml:"steps"`
}

// Routing maps kind names to routes. A nil Map means the default table.
type Routing struct {
	Map      map[string]string `yaml:"map"`
	Fallback string            `yaml:"fallback"`
}

type Summarizer struct {
	MaxBullets int `yaml:"max_bullets"`
}

type Memory struct {
	Path string `yaml:"path"`
}

type Prices struct {
	Provider string        `yaml:"provider"`
	Period   string        `yaml:"period"`
	Interval string        `yaml:"interval"`
	CSVDir   string        `yaml:"csv_dir"`
	Timeout  time.Duration `yaml:"timeout"`
}

type News struct {
	Provider     string        `yaml:"provider"`
	MaxPerSymbol int           `yaml:"max_per_symbol"`
	CSVPath      string        `yaml:"csv_path"`
	Timeout      time.Duration `yaml:"timeout"`
}

type Engine struct {
	Concurrency int `yaml:"concurrency"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Routing:    Routing{Fallback: string(router.RouteSkip)},
		Summarizer: Summarizer{MaxBullets: market.DefaultMaxBullets},
		Memory:     Memory{Path: DefaultMemoryPath},
		Prices: Prices{
			Provider: DefaultProvider,
			Period:   DefaultPeriod,
			Interval: DefaultInterval,
			Timeout:  market.DefaultFetchTimeout,
		},
		News: News{
			Provider:     DefaultProvider,
			MaxPerSymbol: DefaultMaxNews,
			Timeout:      market.DefaultFetchTimeout,
		},
		Engine: Engine{Concurrency: DefaultConcurrency},
	}
}

// Load reads path. A missing file yields Default with a warning.
func Load(path string, logger *slog.Logger) (*Config, error) {
	if logger == nil {
		logger = slog.Default()
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("config file not found, using defaults", "path", path)
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(path, data)
}

// Parse validates and decodes a config document. Fields the document omits
// keep their defaults.
func Parse(filename string, data []byte) (*Config, error) {
	cfg := Default()
	if isEmptyDocument(data) {
		return cfg, nil
	}
	if err := validate(filename, data, defConfig); err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}
	cfg.applyDefaults()
	if _, err := cfg.Steps(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return cfg, nil
}

// applyDefaults refills values an explicit empty or zero entry cleared.
func (c *Config) applyDefaults() {
	d := Default()
	if c.Routing.Fallback == "" {
		c.Routing.Fallback = d.Routing.Fallback
	}
	if c.Summarizer.MaxBullets <= 0 {
		c.Summarizer.MaxBullets = d.Summarizer.MaxBullets
	}
	if c.Memory.Path == "" {
		c.Memory.Path = d.Memory.Path
	}
	if c.Prices.Provider == "" {
		c.Prices.Provider = d.Prices.Provider
	}
	if c.Prices.Period == "" {
		c.Prices.Period = d.Prices.Period
	}
	if c.Prices.Interval == "" {
		c.Prices.Interval = d.Prices.Interval
	}
	if c.Prices.Timeout <= 0 {
		c.Prices.Timeout = d.Prices.Timeout
	}
	if c.News.Provider == "" {
		c.News.Provider = d.News.Provider
	}
	if c.News.MaxPerSymbol <= 0 {
		c.News.MaxPerSymbol = d.News.MaxPerSymbol
	}
	if c.News.Timeout <= 0 {
		c.News.Timeout = d.News.Timeout
	}
	if c.Engine.Concurrency <= 0 {
		c.Engine.Concurrency = d.Engine.Concurrency
	}
}

// isEmptyDocument reports whether data holds no YAML content, such as an
// empty or comment-only file.
func isEmptyDocument(data []byte) bool {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return false
	}
	return len(node.Content) == 0 || node.Content[0].Tag == "!!null"
}

// Steps parses planner.steps. An empty list means every kind.
func (c *Config) Steps() ([]ir.Kind, error) {
	if len(c.Planner.Steps) == 0 {
		return ir.AllKinds(), nil
	}
	out := make([]ir.Kind, 0, len(c.Planner.Steps))
	for _, s := range c.Planner.Steps {
		k, err := ir.ParseKind(s)
		if err != nil {
			return nil, fmt.Errorf("planner.steps: %w", err)
		}
		out = append(out, k)
	}
	return out, nil
}

// RoutingTable converts routing.map into a router table. Keys that do not
// name a kind are returned in ignored, sorted.
func (c *Config) RoutingTable() (table map[ir.Kind]router.Route, ignored []string) {
	if c.Routing.Map == nil {
		return router.DefaultRoutes(), nil
	}
	table = make(map[ir.Kind]router.Route, len(c.Routing.Map))
	for name, route := range c.Routing.Map {
		k, err := ir.ParseKind(name)
		if err != nil {
			ignored = append(ignored, name)
			continue
		}
		table[k] = router.Route(strings.TrimSpace(route))
	}
	sort.Strings(ignored)
	return table, ignored
}

// Router builds the router, warning about ignored routing keys.
func (c *Config) Router(logger *slog.Logger) *router.Router {
	if logger == nil {
		logger = slog.Default()
	}
	table, ignored := c.RoutingTable()
	for _, name := range ignored {
		logger.Warn("routing key is not a task kind, ignoring", "key", name)
	}
	return router.New(table, router.Route(c.Routing.Fallback), logger)
}
