package builtin

import (
	"context"
	"encoding/binary"
	"math"
	"time"

	"github.com/zeebo/xxh3"

	"visaprep/internal/transformer"
	"visaprep/pkg/records"
)

// DropDuplicates removes rows that repeat an earlier row in every column and
// keeps the first occurrence. Missing cells compare equal to each other.
//
// Rows are bucketed by a 128-bit xxh3 fingerprint over all cells; rows that
// share a fingerprint are compared cell by cell, so a hash collision never
// drops a distinct row.
type DropDuplicates struct {
	Events *transformer.Events
}

func (DropDuplicates) Name() string { return "dedupe" }

func (d DropDuplicates) Apply(ctx context.Context, t records.Table) (records.Table, error) {
	if len(t.Rows) < 2 {
		return t, nil
	}

	seen := make(map[xxh3.Uint128][]records.Record, len(t.Rows))
	h := xxh3.New()
	var scratch [8]byte

	out := t.Rows[:0]
	for i, r := range t.Rows {
		if i%65536 == 0 {
			if err := ctx.Err(); err != nil {
				return t, err
			}
		}
		h.Reset()
		for _, c := range t.Columns {
			writeCell(h, r[c], scratch[:])
		}
		fp := h.Sum128()

		dup := false
		for _, prev := range seen[fp] {
			if rowsEqual(t.Columns, prev, r) {
				dup = true
				break
			}
		}
		if dup {
			d.Events.DropRow(d.Name(), "duplicate", r)
			continue
		}
		seen[fp] = append(seen[fp], r)
		out = append(out, r)
	}
	t.Rows = out
	return t, nil
}

// Type tags keep "1" (text) and 1.0 (number) from hashing alike.
const (
	tagMissing byte = iota
	tagString
	tagFloat
	tagInt
	tagTime
	tagOther
)

func writeCell(h *xxh3.Hasher, v any, buf []byte) {
	if records.IsMissing(v) {
		_, _ = h.Write([]byte{tagMissing, 0x1f})
		return
	}
	switch x := v.(type) {
	case string:
		_, _ = h.Write([]byte{tagString})
		_, _ = h.WriteString(x)
	case float64:
		_, _ = h.Write([]byte{tagFloat})
		binary.LittleEndian.PutUint64(buf, math.Float64bits(x))
		_, _ = h.Write(buf)
	case int64:
		_, _ = h.Write([]byte{tagInt})
		binary.LittleEndian.PutUint64(buf, uint64(x))
		_, _ = h.Write(buf)
	case time.Time:
		_, _ = h.Write([]byte{tagTime})
		binary.LittleEndian.PutUint64(buf, uint64(x.UnixNano()))
		_, _ = h.Write(buf)
	default:
		_, _ = h.Write([]byte{tagOther})
		_, _ = h.WriteString(records.Format(x))
	}
	_, _ = h.Write([]byte{0x1f})
}

func rowsEqual(cols []string, a, b records.Record) bool {
	for _, c := range cols {
		if !cellEqual(a[c], b[c]) {
			return false
		}
	}
	return true
}

func cellEqual(a, b any) bool {
	am, bm := records.IsMissing(a), records.IsMissing(b)
	if am || bm {
		return am && bm
	}
	switch x := a.(type) {
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	case string, float64, int64:
		return a == b
	default:
		return records.Format(a) == records.Format(b)
	}
}
