package sniff

import (
	"errors"
	"reflect"
	"testing"

	"github.com/rlake-data/ingest-engine/pkg/apperrors"
)

func strp(s string) *string { return &s }

func TestReadTable(t *testing.T) {
	table, err := ReadTable([]byte("a,b\n1,\n,2\n"), ",")
	if err != nil {
		t.Fatalf("ReadTable returned error: %v", err)
	}

	if !reflect.DeepEqual(table.Columns, []string{"a", "b"}) {
		t.Errorf("Columns = %v, want [a b]", table.Columns)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(table.Rows))
	}
	if table.Rows[0][0] == nil || *table.Rows[0][0] != "1" {
		t.Errorf("Rows[0][0] = %v, want 1", table.Rows[0][0])
	}
	if table.Rows[0][1] != nil {
		t.Errorf("Rows[0][1] = %v, want null", *table.Rows[0][1])
	}
	if table.Rows[1][0] != nil {
		t.Errorf("Rows[1][0] = %v, want null", *table.Rows[1][0])
	}
}

func TestReadTableRaggedRows(t *testing.T) {
	table, err := ReadTable([]byte("a,b\n1,2\n3\n4,5\n"), ",")
	if err != nil {
		t.Fatalf("ReadTable returned error: %v", err)
	}

	if len(table.Rows) != 3 {
		t.Fatalf("len(Rows) = %d, want 3", len(table.Rows))
	}
	if !table.IsAligned(0) || table.IsAligned(1) || !table.IsAligned(2) {
		t.Errorf("alignment = [%t %t %t], want [true false true]",
			table.IsAligned(0), table.IsAligned(1), table.IsAligned(2))
	}
}

func TestReadTableHeaderNormalization(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   []string
	}{
		{"plain", "a,b,c", []string{"a", "b", "c"}},
		{"empty cell named by position", "a,,c", []string{"a", "Unnamed: 1", "c"}},
		{"duplicates suffixed", "a,a,a", []string{"a", "a.1", "a.2"}},
		{"empty and duplicate", "a,,a", []string{"a", "Unnamed: 1", "a.1"}},
		{"suffix collision", "a,a.1,a", []string{"a", "a.1", "a.2"}},
		{"whitespace preserved", "a b,c d", []string{"a b", "c d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := ReadTable([]byte(tt.header+"\n1,2,3\n"), ",")
			if err != nil {
				t.Fatalf("ReadTable returned error: %v", err)
			}
			if !reflect.DeepEqual(table.Columns, tt.want) {
				t.Errorf("Columns = %v, want %v", table.Columns, tt.want)
			}
		})
	}
}

func TestReadTableEmptyInput(t *testing.T) {
	for _, input := range []string{"", "\n\n"} {
		if _, err := ReadTable([]byte(input), ","); !errors.Is(err, apperrors.ErrEmptyFile) {
			t.Errorf("ReadTable(%q) error = %v, want ErrEmptyFile", input, err)
		}
	}
}

func TestReadTableHeaderOnly(t *testing.T) {
	table, err := ReadTable([]byte("a,b\n"), ",")
	if err != nil {
		t.Fatalf("ReadTable returned error: %v", err)
	}
	if len(table.Rows) != 0 {
		t.Errorf("len(Rows) = %d, want 0", len(table.Rows))
	}
}

func TestReadTableQuotedFields(t *testing.T) {
	table, err := ReadTable([]byte("a,b\n\"x,y\",2\n"), ",")
	if err != nil {
		t.Fatalf("ReadTable returned error: %v", err)
	}
	if table.Rows[0][0] == nil || *table.Rows[0][0] != "x,y" {
		t.Errorf("Rows[0][0] = %v, want \"x,y\"", table.Rows[0][0])
	}
}

func TestReadTableSemicolonDelimiter(t *testing.T) {
	table, err := ReadTable([]byte("a;b;c\n1;2;3\n"), ";")
	if err != nil {
		t.Fatalf("ReadTable returned error: %v", err)
	}
	if !reflect.DeepEqual(table.Columns, []string{"a", "b", "c"}) {
		t.Errorf("Columns = %v, want [a b c]", table.Columns)
	}
	if len(table.Rows) != 1 || len(table.Rows[0]) != 3 {
		t.Fatalf("unexpected row shape: %v", table.Rows)
	}
}

func TestReadTableSkipsBlankLines(t *testing.T) {
	table, err := ReadTable([]byte("a,b\n1,2\n\n3,4\n"), ",")
	if err != nil {
		t.Fatalf("ReadTable returned error: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Errorf("len(Rows) = %d, want 2 (blank lines skipped)", len(table.Rows))
	}
}

func TestReadTableLeadingSpaceTrimmed(t *testing.T) {
	table, err := ReadTable([]byte("a,b\n 1, 2\n"), ",")
	if err != nil {
		t.Fatalf("ReadTable returned error: %v", err)
	}
	if *table.Rows[0][0] != "1" || *table.Rows[0][1] != "2" {
		t.Errorf("Rows[0] = [%v %v], want [1 2]", *table.Rows[0][0], *table.Rows[0][1])
	}
}

func TestColumnValues(t *testing.T) {
	table := &Table{
		Columns: []string{"a", "b"},
		Rows: [][]*string{
			{strp("1"), strp("2")},
			{strp("3")}, // ragged, excluded
			{nil, strp("4")},
		},
	}

	got := table.ColumnValues("a")
	if len(got) != 2 {
		t.Fatalf("len(ColumnValues) = %d, want 2", len(got))
	}
	if got[0] == nil || *got[0] != "1" {
		t.Errorf("got[0] = %v, want 1", got[0])
	}
	if got[1] != nil {
		t.Errorf("got[1] = %v, want null", *got[1])
	}

	if vals := table.ColumnValues("missing"); vals != nil {
		t.Errorf("ColumnValues(missing) = %v, want nil", vals)
	}
}
