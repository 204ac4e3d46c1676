// Package config defines the configuration model of a visa-case pipeline
// run. Pipelines are loaded from JSON or YAML files (configs/pipelines/*)
// and passed through the program without additional glue code.
//
// Example (trimmed):
//
//	{
//	  "job":      "visa_prep",
//	  "source":   { "kind": "file", "file": { "path": "data/VisaFile.csv" } },
//	  "parser":   { "kind": "csv", "options": { "encoding": "latin1" } },
//	  "transform":[
//	    { "kind": "dedupe" },
//	    { "kind": "drop_sparse", "options": { "threshold": 0.4 } }
//	  ],
//	  "storage":  { "kind": "sqlite", "db": { "dsn": "file:out.db", "table": "visa_cases" } }
//	}
package config

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Pipeline describes one run of the cleaning pipeline. It is the top-level
// object decoded from a pipeline file.
type Pipeline struct {
	// Job names the run for logs, metrics and reports.
	Job string `json:"job" yaml:"job"`

	// Source describes where input data comes from.
	Source Source `json:"source" yaml:"source"`

	// Parser configures how raw bytes are turned into a table.
	Parser Parser `json:"parser" yaml:"parser"`

	// Columns names the case-file columns the date stages work on.
	Columns Columns `json:"columns" yaml:"columns"`

	// Transform lists the ordered stages applied after the headers have been
	// normalized. An empty list selects DefaultTransforms.
	Transform []Transform `json:"transform" yaml:"transform"`

	// Report configures the EDA output files. An empty OutputDir disables it.
	Report Report `json:"report" yaml:"report"`

	// Storage describes an optional database sink. An empty Kind disables it.
	Storage Storage       `json:"storage" yaml:"storage"`
	Runtime RuntimeConfig `json:"runtime" yaml:"runtime"`
	Metrics Metrics       `json:"metrics" yaml:"metrics"`
}

// RuntimeConfig controls batching of the database sink.
type RuntimeConfig struct {
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// Source identifies the data source.
type Source struct {
	// Kind selects the source implementation: "file" or "http".
	Kind string `json:"kind" yaml:"kind"`

	// File carries options for the "file" source kind.
	File SourceFile `json:"file" yaml:"file"`

	// HTTP carries options for the "http" source kind. The body is cached as
	// a local file and then loaded like a "file" source.
	HTTP SourceHTTP `json:"http" yaml:"http"`
}

// SourceHTTP configures a remote case file.
type SourceHTTP struct {
	URL        string `json:"url" yaml:"url"`
	CacheDir   string `json:"cache_dir" yaml:"cache_dir"`
	Refresh    bool   `json:"refresh" yaml:"refresh"`
	MaxRetries int    `json:"max_retries" yaml:"max_retries"`
	// Timeout is a Go duration string ("30s"). Empty selects the client default.
	Timeout            string `json:"timeout" yaml:"timeout"`
	InsecureSkipVerify bool   `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	// Path is the local filesystem path to the input file.
	Path string `json:"path" yaml:"path"`
}

// Parser selects how to parse the raw source.
type Parser struct {
	// Kind selects the parser implementation. Current value: "csv".
	Kind string `json:"kind" yaml:"kind"`

	// Options is interpreted by the parser implementation. For CSV:
	//   comma (string), encoding (string), na_values ([]string),
	//   trim_space (bool), scrub ([{from,to}])
	Options Options `json:"options" yaml:"options"`
}

// Columns names the columns the date stages read and write. Names are
// compared after header normalization.
type Columns struct {
	Received string `json:"received" yaml:"received"`
	Decision string `json:"decision" yaml:"decision"`
	Duration string `json:"duration" yaml:"duration"`
}

// Transform defines a single stage of the chain.
type Transform struct {
	// Kind selects the stage (see KnownTransforms).
	Kind string `json:"kind" yaml:"kind"`

	// Options is a free-form map interpreted by the selected stage.
	Options Options `json:"options" yaml:"options"`
}

// Report configures the EDA report writer.
type Report struct {
	OutputDir    string   `json:"output_dir" yaml:"output_dir"`
	StatusColumn string   `json:"status_column" yaml:"status_column"`
	Dimensions   []string `json:"dimensions" yaml:"dimensions"`
	// Workbook toggles eda_report.xlsx. Nil means on.
	Workbook *bool `json:"workbook,omitempty" yaml:"workbook,omitempty"`
}

// WorkbookEnabled reports whether the XLSX workbook should be written.
func (r Report) WorkbookEnabled() bool { return r.Workbook == nil || *r.Workbook }

// Storage selects the sink used to persist the cleaned table.
type Storage struct {
	// Kind selects the backend: postgres, mssql, mysql or sqlite.
	Kind string   `json:"kind" yaml:"kind"`
	DB   DBConfig `json:"db" yaml:"db"`
}

// DBConfig configures the DB sink.
type DBConfig struct {
	// DSN is the driver-specific connection string.
	DSN string `json:"dsn" yaml:"dsn"`

	// Table is the destination table, optionally schema-qualified.
	Table string `json:"table" yaml:"table"`

	// Columns restricts and orders the written columns. Empty means every
	// column of the cleaned table.
	Columns []string `json:"columns" yaml:"columns"`

	// AutoCreateTable creates the table from the cleaned table's column kinds
	// when it does not exist yet.
	AutoCreateTable bool `json:"auto_create_table" yaml:"auto_create_table"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	// Backend: "none", "pushgateway" or "datadog".
	Backend        string `json:"backend" yaml:"backend"`
	PushgatewayURL string `json:"pushgateway_url" yaml:"pushgateway_url"`
	StatsdAddr     string `json:"statsd_addr" yaml:"statsd_addr"`
}

// Options is a small helper to fetch typed values from free-form maps
// decoded from JSON or YAML. It performs only minimal type coercion and
// returns provided defaults when a key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers arrive as float64,
// YAML integers as int.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		case int64:
			return int(n)
		}
	}
	return def
}

// Float returns the numeric value for key or def.
func (o Options) Float(key string, def float64) float64 {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		case int64:
			return float64(n)
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. "\t" and "tab" both select a tab.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			switch s {
			case `\t`, "tab", "TAB":
				return '\t'
			}
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored. Returns an empty map
// when the key is missing or the value is not an object.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		switch m := v.(type) {
		case map[string]any:
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		case map[string]string:
			for k, s := range m {
				res[k] = s
			}
		}
	}
	return res
}

// StringSlice returns a []string for key when the value is an array of strings.
// Returns nil when the key is missing or the value is not an array.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// Any returns the raw value for key, or nil.
func (o Options) Any(key string) any {
	if v, ok := o[key]; ok {
		return v
	}
	return nil
}

// Has reports whether key is set.
func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// UnmarshalJSON makes a null "options" object decode to a non-nil, empty
// Options map. An absent key is left nil; ApplyDefaults fills it.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}

// UnmarshalYAML is the YAML counterpart of UnmarshalJSON.
func (o *Options) UnmarshalYAML(n *yaml.Node) error {
	var tmp map[string]any
	if err := n.Decode(&tmp); err != nil {
		return err
	}
	if tmp == nil {
		tmp = map[string]any{}
	}
	*o = Options(tmp)
	return nil
}
