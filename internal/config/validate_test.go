package config

import (
	"strings"
	"testing"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

/*
TestValidatePipeline_MissingJob verifies that an empty Job produces a
SeverityError with path "job".
*/
func TestValidatePipeline_MissingJob(t *testing.T) {
	t.Parallel()

	p := Default()
	p.Job = ""
	issues := ValidatePipeline(p)
	if !hasIssue(t, issues, SeverityError, "job", "job must not be empty") {
		t.Fatalf("expected SeverityError for job; got issues: %+v", issues)
	}
	if !HasErrors(issues) {
		t.Fatal("HasErrors = false")
	}
}

/*
TestValidatePipeline_ValidFull verifies that a pipeline using every stage,
a sink and a metrics backend produces no issues.
*/
func TestValidatePipeline_ValidFull(t *testing.T) {
	t.Parallel()

	p := Default()
	p.Transform = append([]Transform{{Kind: KindTrimValues, Options: Options{}}}, EDATransforms()...)
	p.Storage = Storage{Kind: "postgres", DB: DBConfig{DSN: "postgres://u@h/db", Table: "public.visa_cases"}}
	p.Metrics = Metrics{Backend: "pushgateway", PushgatewayURL: "http://localhost:9091"}

	if issues := ValidatePipeline(p); len(issues) != 0 {
		t.Fatalf("expected no issues; got: %+v", issues)
	}
}

func TestValidateSource_Cases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  Source
		path string
		msg  string
	}{
		{"missing_kind", Source{}, "source.kind", "must not be empty"},
		{"unknown_kind", Source{Kind: "s3"}, "source.kind", "unsupported source kind"},
		{"empty_path", Source{Kind: "file"}, "source.file.path", "non-empty path"},
		{"relative_url", Source{Kind: "http", HTTP: SourceHTTP{URL: "/data/VisaFile.csv"}}, "source.http.url", "absolute http(s) URL"},
		{"ftp_url", Source{Kind: "http", HTTP: SourceHTTP{URL: "ftp://host/VisaFile.csv"}}, "source.http.url", "absolute http(s) URL"},
		{"bad_timeout", Source{Kind: "http", HTTP: SourceHTTP{URL: "https://host/VisaFile.csv", Timeout: "soon"}}, "source.http.timeout", "invalid duration"},
	}
	for _, tt := range tests {
		if !hasIssue(t, validateSource(tt.src), SeverityError, tt.path, tt.msg) {
			t.Errorf("%s: missing issue at %s", tt.name, tt.path)
		}
	}
	if issues := validateSource(Source{Kind: "http", HTTP: SourceHTTP{URL: "https://host/VisaFile.csv", Timeout: "45s"}}); len(issues) != 0 {
		t.Fatalf("valid http source produced %+v", issues)
	}
	if issues := validateSource(Source{Kind: "file", File: SourceFile{Path: "x.csv"}}); len(issues) != 0 {
		t.Fatalf("valid source produced %+v", issues)
	}
}

func TestValidateParser_Cases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		parser Parser
		path   string
		msg    string
	}{
		{"xml", Parser{Kind: "xml"}, "parser.kind", "unsupported parser kind"},
		{"bad_encoding", Parser{Kind: "csv", Options: Options{"encoding": "klingon"}}, "parser.options.encoding", "klingon"},
		{"long_comma", Parser{Kind: "csv", Options: Options{"comma": ",,"}}, "parser.options.comma", "single character"},
	}
	for _, tt := range tests {
		if !hasIssue(t, validateParser(tt.parser), SeverityError, tt.path, tt.msg) {
			t.Errorf("%s: missing issue at %s: %+v", tt.name, tt.path, validateParser(tt.parser))
		}
	}
	ok := Parser{Kind: "csv", Options: Options{"encoding": "windows-1252", "comma": "tab"}}
	if issues := validateParser(ok); len(issues) != 0 {
		t.Fatalf("valid parser produced %+v", issues)
	}
}

func TestValidateColumns(t *testing.T) {
	t.Parallel()

	if !hasIssue(t, validateColumns(Columns{Received: "d", Decision: "d"}), SeverityError, "columns.decision", "must differ") {
		t.Fatal("same received/decision not reported")
	}
}

func TestValidateTransforms_Cases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tr   Transform
		sev  IssueSeverity
		path string
		msg  string
	}{
		{"empty_kind", Transform{}, SeverityError, "transform[0].kind", "must not be empty"},
		{"unknown_kind", Transform{Kind: "validate"}, SeverityError, "transform[0].kind", "unknown transform kind"},
		{"threshold_range", Transform{Kind: KindDropSparse, Options: Options{"threshold": 1.5}}, SeverityError, "transform[0].options.threshold", "within (0,1]"},
		{"threshold_zero", Transform{Kind: KindDropSparse, Options: Options{"threshold": 0}}, SeverityError, "transform[0].options.threshold", "within (0,1]"},
		{"require_no_fields", Transform{Kind: KindRequire, Options: Options{}}, SeverityWarning, "transform[0].options.fields", "keep every row"},
		{"flag_no_column", Transform{Kind: KindYesNoFlag, Options: Options{}}, SeverityError, "transform[0].options.column", "requires a column"},
		{"cap_no_max", Transform{Kind: KindCapDuration, Options: Options{}}, SeverityError, "transform[0].options.max_days", "positive"},
		{"impute_bad_type", Transform{Kind: KindImpute, Options: Options{"types": map[string]any{"wage": "money"}}}, SeverityWarning, "transform[0].options.types.wage", "unknown type"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			issues := validateTransforms([]Transform{tt.tr})
			if !hasIssue(t, issues, tt.sev, tt.path, tt.msg) {
				t.Fatalf("missing %s at %s; got %+v", tt.sev, tt.path, issues)
			}
		})
	}
}

func TestValidateStorage_Cases(t *testing.T) {
	t.Parallel()

	if issues := validateStorage(Storage{}); issues != nil {
		t.Fatalf("disabled sink produced %+v", issues)
	}
	issues := validateStorage(Storage{Kind: "oracle"})
	for _, path := range []string{"storage.kind", "storage.db.dsn", "storage.db.table"} {
		if !hasIssue(t, issues, SeverityError, path, "") {
			t.Errorf("missing issue at %s: %+v", path, issues)
		}
	}
}

func TestValidateRuntimeAndMetrics(t *testing.T) {
	t.Parallel()

	if !hasIssue(t, validateRuntime(RuntimeConfig{BatchSize: 0}), SeverityWarning, "runtime.batch_size", "fall back") {
		t.Fatal("batch size warning missing")
	}
	if !hasIssue(t, validateMetrics(Metrics{Backend: "pushgateway"}), SeverityError, "metrics.pushgateway_url", "requires a URL") {
		t.Fatal("pushgateway URL error missing")
	}
	if !hasIssue(t, validateMetrics(Metrics{Backend: "datadog"}), SeverityWarning, "metrics.statsd_addr", "") {
		t.Fatal("statsd warning missing")
	}
	if !hasIssue(t, validateMetrics(Metrics{Backend: "graphite"}), SeverityError, "metrics.backend", "unknown") {
		t.Fatal("unknown backend error missing")
	}
	if validateMetrics(Metrics{Backend: "none"}) != nil {
		t.Fatal("none backend produced issues")
	}
}
