package config

import (
	"flag"
	"strings"
)

// CLI holds the process-level knobs shared by the commands. Every flag has
// an environment-variable fallback, so the same binary works from a shell
// or a container.
type CLI struct {
	ConfigPath     string // pipeline file; empty means built-in defaults
	Input          string // overrides source.file.path
	OutputDir      string // overrides report.output_dir
	MetricsBackend string // overrides metrics.backend
	PushgatewayURL string
	StatsdAddr     string
	DSN            string // overrides storage.db.dsn
	StorageKind    string // overrides storage.kind
	Verbose        bool
}

// LoadFromArgs defines the flags on fs, seeds each default from getenv, and
// parses args.
//
// Precedence:
//  1. Environment values seed each flag's default.
//  2. Explicit CLI flags (in args) override the seeded defaults.
func LoadFromArgs(fs *flag.FlagSet, getenv func(string) string, args []string) (*CLI, error) {
	c := &CLI{}

	envOr := func(k, d string) string {
		if v := getenv(k); v != "" {
			return v
		}
		return d
	}
	boolEnvOr := func(k string, d bool) bool {
		switch strings.ToLower(getenv(k)) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
		return d
	}

	fs.StringVar(&c.ConfigPath, "config", envOr("VISA_CONFIG", ""), "Path to pipeline file (.json, .yaml)")
	fs.StringVar(&c.Input, "input", envOr("VISA_INPUT", ""), "Path to the case CSV (overrides source.file.path)")
	fs.StringVar(&c.OutputDir, "output-dir", envOr("VISA_OUTPUT_DIR", ""), "Directory for report files")
	fs.StringVar(&c.MetricsBackend, "metrics-backend", envOr("METRICS_BACKEND", ""), "Metrics backend: none|pushgateway|datadog")
	fs.StringVar(&c.PushgatewayURL, "pushgateway-url", envOr("PUSHGATEWAY_URL", ""), "Prometheus Pushgateway URL")
	fs.StringVar(&c.StatsdAddr, "statsd-addr", envOr("STATSD_ADDR", ""), "DogStatsD address host:port")
	fs.StringVar(&c.DSN, "dsn", envOr("VISA_DB_DSN", ""), "Database DSN for the optional sink")
	fs.StringVar(&c.StorageKind, "storage", envOr("VISA_STORAGE", ""), "Sink backend: postgres|mssql|mysql|sqlite")
	fs.BoolVar(&c.Verbose, "v", boolEnvOr("VISA_VERBOSE", false), "Verbose logging")

	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return c, nil
}

// Apply overrides p with every CLI value that is set.
func (c *CLI) Apply(p *Pipeline) {
	if c.Input != "" {
		p.Source.Kind = "file"
		p.Source.File.Path = c.Input
	}
	if c.OutputDir != "" {
		p.Report.OutputDir = c.OutputDir
	}
	if c.MetricsBackend != "" {
		p.Metrics.Backend = c.MetricsBackend
	}
	if c.PushgatewayURL != "" {
		p.Metrics.PushgatewayURL = c.PushgatewayURL
	}
	if c.StatsdAddr != "" {
		p.Metrics.StatsdAddr = c.StatsdAddr
	}
	if c.StorageKind != "" {
		p.Storage.Kind = c.StorageKind
	}
	if c.DSN != "" {
		p.Storage.DB.DSN = c.DSN
	}
	p.ApplyDefaults()
}

// Resolve loads the pipeline named by ConfigPath (or fallback when empty)
// and applies the CLI overrides.
func (c *CLI) Resolve(fallback Pipeline) (Pipeline, error) {
	p := fallback
	if c.ConfigPath != "" {
		var err error
		if p, err = Load(c.ConfigPath); err != nil {
			return Pipeline{}, err
		}
	}
	c.Apply(&p)
	return p, nil
}
