package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults of the case-file pipeline.
const (
	DefaultJob          = "visa_prep"
	DefaultInputPath    = "data/VisaFile.csv"
	DefaultEncoding     = "latin1"
	DefaultReceived     = "case_received_date"
	DefaultDecision     = "decision_date"
	DefaultDuration     = "processing_time_days"
	DefaultStatusColumn = "visa_status"
	DefaultTable        = "visa_cases"
	DefaultBatchSize    = 5000
)

// Transform kinds understood by the pipeline.
const (
	KindNormalizeHeaders = "normalize_headers"
	KindTrimValues       = "trim_values"
	KindDedupe           = "dedupe"
	KindDropSparse       = "drop_sparse"
	KindImpute           = "impute"
	KindRequire          = "require"
	KindYesNoFlag        = "yes_no_flag"
	KindDeriveDuration   = "derive_duration"
	KindCapDuration      = "cap_duration"
	KindDeriveMonth      = "derive_month"
)

// KnownTransforms lists every accepted transform kind.
var KnownTransforms = []string{
	KindNormalizeHeaders, KindTrimValues, KindDedupe, KindDropSparse, KindImpute,
	KindRequire, KindYesNoFlag, KindDeriveDuration, KindCapDuration, KindDeriveMonth,
}

// DefaultTransforms is the preprocessing chain: duplicates, sparse columns,
// imputation, then the processing-time derivation.
func DefaultTransforms() []Transform {
	return []Transform{
		{Kind: KindDedupe, Options: Options{}},
		{Kind: KindDropSparse, Options: Options{"threshold": 0.4}},
		{Kind: KindImpute, Options: Options{"fill_text": "unknown"}},
		{Kind: KindDeriveDuration, Options: Options{"day_first": true}},
	}
}

// EDATransforms is the chain the exploratory report runs on.
func EDATransforms() []Transform {
	return []Transform{
		{Kind: KindRequire, Options: Options{"fields": []any{"work_city"}}},
		{Kind: KindYesNoFlag, Options: Options{"column": "full_time_position_y_n", "optional": true}},
		{Kind: KindDeriveDuration, Options: Options{"day_first": true}},
		{Kind: KindCapDuration, Options: Options{"max_days": 365}},
		{Kind: KindDeriveMonth, Options: Options{}},
	}
}

// Default returns the preprocessing pipeline with every default applied.
func Default() Pipeline {
	p := Pipeline{}
	p.ApplyDefaults()
	return p
}

// ApplyDefaults fills every unset field with its default. It never
// overrides a value that is already set.
func (p *Pipeline) ApplyDefaults() {
	if p.Job == "" {
		p.Job = DefaultJob
	}
	if p.Source.Kind == "" {
		p.Source.Kind = "file"
	}
	if p.Source.Kind == "file" && p.Source.File.Path == "" {
		p.Source.File.Path = DefaultInputPath
	}
	if p.Parser.Kind == "" {
		p.Parser.Kind = "csv"
	}
	if p.Parser.Options == nil {
		p.Parser.Options = Options{}
	}
	if !p.Parser.Options.Has("encoding") {
		p.Parser.Options["encoding"] = DefaultEncoding
	}
	if p.Columns.Received == "" {
		p.Columns.Received = DefaultReceived
	}
	if p.Columns.Decision == "" {
		p.Columns.Decision = DefaultDecision
	}
	if p.Columns.Duration == "" {
		p.Columns.Duration = DefaultDuration
	}
	if len(p.Transform) == 0 {
		p.Transform = DefaultTransforms()
	}
	for i := range p.Transform {
		if p.Transform[i].Options == nil {
			p.Transform[i].Options = Options{}
		}
	}
	if p.Report.StatusColumn == "" {
		p.Report.StatusColumn = DefaultStatusColumn
	}
	if len(p.Report.Dimensions) == 0 {
		p.Report.Dimensions = []string{"work_city", "work_state"}
	}
	if p.Storage.Kind != "" && p.Storage.DB.Table == "" {
		p.Storage.DB.Table = DefaultTable
	}
	if p.Runtime.BatchSize == 0 {
		p.Runtime.BatchSize = DefaultBatchSize
	}
	if p.Metrics.Backend == "" {
		p.Metrics.Backend = "none"
	}
}

// Load reads a pipeline file. Files ending in .yaml or .yml are decoded as
// YAML, everything else as JSON. Unknown JSON fields are rejected so typos
// surface early. Defaults are applied to the result.
func Load(path string) (Pipeline, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("read pipeline %s: %w", path, err)
	}
	p, err := Decode(b, filepath.Ext(path))
	if err != nil {
		return Pipeline{}, fmt.Errorf("decode pipeline %s: %w", path, err)
	}
	return p, nil
}

// Decode parses a pipeline document; ext selects the format (".yaml",
// ".yml" or anything else for JSON).
func Decode(b []byte, ext string) (Pipeline, error) {
	var p Pipeline
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		if err := dec.Decode(&p); err != nil {
			return Pipeline{}, err
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return Pipeline{}, err
		}
	}
	p.ApplyDefaults()
	return p, nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}
