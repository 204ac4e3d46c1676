package csv_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	pcsv "visaprep/internal/parser/csv"
)

func TestParse_Latin1(t *testing.T) {
	t.Parallel()

	// "Zürich" and "São Paulo" encoded as ISO-8859-1.
	in := []byte("Work City,Case Status\nZ\xfcrich,Certified\nS\xe3o Paulo,Denied\n")
	p := pcsv.NewParser(pcsv.Options{})

	tbl, st, err := p.Parse(bytes.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if st.Rows != 2 || tbl.Len() != 2 {
		t.Fatalf("rows=%d stats=%+v", tbl.Len(), st)
	}
	if got := tbl.Rows[0]["Work City"]; got != "Zürich" {
		t.Fatalf("city=%q want Zürich", got)
	}
	if got := tbl.Rows[1]["Work City"]; got != "São Paulo" {
		t.Fatalf("city=%q want São Paulo", got)
	}
}

func TestParse_UTF8PassThrough(t *testing.T) {
	t.Parallel()

	p := pcsv.NewParser(pcsv.Options{Encoding: "utf-8"})
	tbl, _, err := p.Parse(strings.NewReader("city\nZürich\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := tbl.Rows[0]["city"]; got != "Zürich" {
		t.Fatalf("city=%q", got)
	}
}

func TestParse_NATokens(t *testing.T) {
	t.Parallel()

	in := "a,b,c\nNA,,x\nnull,N/A,NaN\nkeep,unknown,0\n"
	tbl, _, err := pcsv.NewParser(pcsv.Options{}).Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	tests := []struct {
		row  int
		col  string
		want any
	}{
		{0, "a", nil},
		{0, "b", nil},
		{0, "c", "x"},
		{1, "a", nil},
		{1, "b", nil},
		{1, "c", nil},
		{2, "a", "keep"},
		{2, "b", "unknown"},
		{2, "c", "0"},
	}
	for _, tt := range tests {
		if got := tbl.Rows[tt.row][tt.col]; got != tt.want {
			t.Errorf("row %d col %s = %#v, want %#v", tt.row, tt.col, got, tt.want)
		}
	}
}

func TestParse_CustomNAValues(t *testing.T) {
	t.Parallel()

	p := pcsv.NewParser(pcsv.Options{NAValues: []string{"-"}})
	tbl, _, err := p.Parse(strings.NewReader("a,b\n-,NA\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tbl.Rows[0]["a"] != nil {
		t.Fatalf("a=%#v want nil", tbl.Rows[0]["a"])
	}
	if tbl.Rows[0]["b"] != "NA" {
		t.Fatalf("b=%#v want NA", tbl.Rows[0]["b"])
	}
}

func TestParse_RaggedRows(t *testing.T) {
	t.Parallel()

	in := "a,b,c\n1,2,3\n4,5\n6,7,8,9\n"
	tbl, st, err := pcsv.NewParser(pcsv.Options{}).Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if st.Rows != 2 || st.Padded != 1 || st.Skipped != 1 {
		t.Fatalf("stats=%+v", st)
	}
	if v, ok := tbl.Rows[1]["c"]; !ok || v != nil {
		t.Fatalf("padded cell=%#v present=%v", v, ok)
	}
}

func TestParse_HeaderBOMAndDuplicates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []byte
		enc  string
	}{
		{"utf8 bom", []byte("\xef\xbb\xbfid,name,name,\n1,a,b,c\n"), "utf-8"},
		{"bom read as latin1", []byte("\xef\xbb\xbfid,name,name,\n1,a,b,c\n"), "latin1"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tbl, _, err := pcsv.NewParser(pcsv.Options{Encoding: tt.enc}).Parse(bytes.NewReader(tt.in))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			want := []string{"id", "name", "name.1", "Unnamed: 3"}
			if len(tbl.Columns) != len(want) {
				t.Fatalf("columns=%v want %v", tbl.Columns, want)
			}
			for i := range want {
				if tbl.Columns[i] != want[i] {
					t.Fatalf("columns=%v want %v", tbl.Columns, want)
				}
			}
			if tbl.Rows[0]["name.1"] != "b" {
				t.Fatalf("name.1=%#v", tbl.Rows[0]["name.1"])
			}
		})
	}
}

func TestParse_TrimSpaceAndComma(t *testing.T) {
	t.Parallel()

	p := pcsv.NewParser(pcsv.Options{Comma: ';', TrimSpace: true})
	tbl, _, err := p.Parse(strings.NewReader("a;b\n  x ; NA \n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tbl.Rows[0]["a"] != "x" || tbl.Rows[0]["b"] != nil {
		t.Fatalf("row=%#v", tbl.Rows[0])
	}
}

func TestParse_Scrub(t *testing.T) {
	t.Parallel()

	p := pcsv.NewParser(pcsv.Options{
		Encoding: "utf-8",
		Scrub:    []pcsv.Replacement{{From: `\"`, To: `""`}},
	})
	tbl, _, err := p.Parse(strings.NewReader("a,b\n\"say \\\"hi\\\"\",2\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := tbl.Rows[0]["a"]; got != `say "hi"` {
		t.Fatalf("a=%q", got)
	}
}

func TestParse_EmptyInput(t *testing.T) {
	t.Parallel()

	if _, _, err := pcsv.NewParser(pcsv.Options{}).Parse(strings.NewReader("")); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestParse_UnknownEncoding(t *testing.T) {
	t.Parallel()

	_, _, err := pcsv.NewParser(pcsv.Options{Encoding: "klingon-8"}).Parse(strings.NewReader("a\n1\n"))
	if err == nil || !strings.Contains(err.Error(), "klingon-8") {
		t.Fatalf("err=%v", err)
	}
}

func TestDecoder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      []byte
		want    string
		wantNil bool
	}{
		{"latin1", []byte{0xe9}, "é", false},
		{"ISO-8859-1", []byte{0xe9}, "é", false},
		{"cp1252", []byte{0x80}, "€", false},
		{"windows-1252", []byte{0x80}, "€", false},
		{"utf-8", nil, "", true},
		{"UTF8", nil, "", true},
	}
	for _, tt := range tests {
		dec, err := pcsv.Decoder(tt.name)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if tt.wantNil {
			if dec != nil {
				t.Fatalf("%s: expected nil decoder", tt.name)
			}
			continue
		}
		b, err := io.ReadAll(dec(bytes.NewReader(tt.in)))
		if err != nil {
			t.Fatalf("%s: read: %v", tt.name, err)
		}
		if string(b) != tt.want {
			t.Fatalf("%s: got %q want %q", tt.name, b, tt.want)
		}
	}
}

func BenchmarkParse(b *testing.B) {
	var sb strings.Builder
	sb.WriteString("case_status,work_city,case_received_date,decision_date,wage\n")
	for i := 0; i < 5000; i++ {
		sb.WriteString("Certified,Z\xfcrich,01/05/2020,15/05/2020,72000\n")
	}
	data := []byte(sb.String())
	p := pcsv.NewParser(pcsv.Options{})

	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := p.Parse(bytes.NewReader(data)); err != nil {
			b.Fatal(err)
		}
	}
}
