package pipeline

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"visaprep/internal/metrics"
	"visaprep/internal/transformer"
	"visaprep/pkg/records"
)

// examplesPerReason caps per-reason drop messages in the log; totals are
// always complete.
const examplesPerReason = 3

// Quality is the data-quality report of one run. It is written as
// data_quality.json next to the EDA outputs and summarized in the log.
type Quality struct {
	RunID      string    `json:"run_id"`
	Job        string    `json:"job"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Source     Source    `json:"source"`

	RowsLoaded    int `json:"rows_loaded"`
	ColumnsLoaded int `json:"columns_loaded"`
	RowsFinal     int `json:"rows_final"`
	ColumnsFinal  int `json:"columns_final"`

	// DroppedRows counts removed rows by reason ("duplicate",
	// "unparseable_date", "negative_duration", ...).
	DroppedRows    map[string]int  `json:"dropped_rows"`
	DroppedColumns []DroppedColumn `json:"dropped_columns"`
	Filled         []Fill          `json:"filled"`
	Steps          []StepStat      `json:"steps"`
}

// DroppedColumn is a column removed for being too sparse.
type DroppedColumn struct {
	Stage   string `json:"stage"`
	Column  string `json:"column"`
	Present int    `json:"present"`
	Total   int    `json:"total"`
}

// Fill records the gaps of one column replaced by a value.
type Fill struct {
	Stage  string `json:"stage"`
	Column string `json:"column"`
	Cells  int    `json:"cells"`
	Value  string `json:"value"`
}

// StepStat is the shape change of one stage.
type StepStat struct {
	Name      string `json:"name"`
	RowsIn    int    `json:"rows_in"`
	RowsOut   int    `json:"rows_out"`
	ColsIn    int    `json:"cols_in"`
	ColsOut   int    `json:"cols_out"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

// TotalDropped sums DroppedRows.
func (q Quality) TotalDropped() int {
	n := 0
	for _, c := range q.DroppedRows {
		n += c
	}
	return n
}

// Reasons returns the drop reasons sorted by name.
func (q Quality) Reasons() []string {
	out := make([]string, 0, len(q.DroppedRows))
	for r := range q.DroppedRows {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// tracker fills a Quality from stage callbacks and mirrors every event into
// the metrics backend. The pipeline is single-threaded, so it needs no lock.
type tracker struct {
	q      *Quality
	logged map[string]int
}

func newTracker(q *Quality) *tracker {
	if q.DroppedRows == nil {
		q.DroppedRows = map[string]int{}
	}
	return &tracker{q: q, logged: map[string]int{}}
}

func (tr *tracker) events() *transformer.Events {
	return &transformer.Events{
		RowDropped:    tr.rowDropped,
		ColumnDropped: tr.columnDropped,
		CellsFilled:   tr.cellsFilled,
	}
}

func (tr *tracker) rowDropped(stage, reason string, rec records.Record) {
	tr.q.DroppedRows[reason]++
	metrics.RecordRow(tr.q.Job, "dropped_"+reason, 1)

	n := tr.logged[reason]
	tr.logged[reason] = n + 1
	switch {
	case n < examplesPerReason:
		log.Printf("%s: drop reason=%s row={%s}", stage, reason, summarize(rec, 4))
	case n == examplesPerReason:
		log.Printf("%s: ... further %s drops suppressed ...", stage, reason)
	}
}

func (tr *tracker) columnDropped(stage, column string, present, total int) {
	tr.q.DroppedColumns = append(tr.q.DroppedColumns, DroppedColumn{
		Stage: stage, Column: column, Present: present, Total: total,
	})
	metrics.RecordColumnDropped(tr.q.Job, stage)
	log.Printf("%s: drop column=%s present=%d/%d", stage, column, present, total)
}

func (tr *tracker) cellsFilled(stage, column string, n int, fill any) {
	tr.q.Filled = append(tr.q.Filled, Fill{
		Stage: stage, Column: column, Cells: n, Value: records.Format(fill),
	})
	metrics.RecordFilled(tr.q.Job, stage, n)
}

func (tr *tracker) observe(st transformer.Step) {
	metrics.RecordStep(tr.q.Job, st.Name, st.Err, st.Elapsed)
	if st.Err != nil {
		log.Printf("%s: error: %v", st.Name, st.Err)
		return
	}
	tr.q.Steps = append(tr.q.Steps, StepStat{
		Name:      st.Name,
		RowsIn:    st.RowsIn,
		RowsOut:   st.RowsOut,
		ColsIn:    st.ColsIn,
		ColsOut:   st.ColsOut,
		ElapsedMS: st.Elapsed.Milliseconds(),
	})
	log.Printf("%s: rows=%d->%d cols=%d->%d elapsed=%s",
		st.Name, st.RowsIn, st.RowsOut, st.ColsIn, st.ColsOut, st.Elapsed.Truncate(time.Microsecond))
}

// logSummary prints the end-of-run accounting. Every loaded row is either
// in the final table or counted under exactly one drop reason.
func (tr *tracker) logSummary() {
	q := tr.q
	parts := make([]string, 0, len(q.DroppedRows))
	for _, r := range q.Reasons() {
		parts = append(parts, fmt.Sprintf("%s=%d", r, q.DroppedRows[r]))
	}
	log.Printf("summary: run_id=%s loaded=%d final=%d dropped=%d [%s] columns_dropped=%d cells_filled=%d",
		q.RunID, q.RowsLoaded, q.RowsFinal, q.TotalDropped(), strings.Join(parts, " "),
		len(q.DroppedColumns), filledCells(q.Filled))

	if acc := q.RowsFinal + q.TotalDropped(); acc != q.RowsLoaded {
		log.Printf("WARNING: row accounting mismatch: loaded=%d accounted=%d (delta=%d)",
			q.RowsLoaded, acc, q.RowsLoaded-acc)
	}
}

func filledCells(fs []Fill) int {
	n := 0
	for _, f := range fs {
		n += f.Cells
	}
	return n
}

// summarize renders up to n non-missing cells of rec in key order.
func summarize(rec records.Record, n int) string {
	keys := make([]string, 0, len(rec))
	for k, v := range rec {
		if !records.IsMissing(v) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if len(keys) > n {
		keys = keys[:n]
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + records.Format(rec[k])
	}
	return strings.Join(parts, " ")
}
