package csvutil

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

func TestReadTable_HeaderAndRows(t *testing.T) {
	in := "Full Name , EMAIL,Assigned   Clan\nAda,ada@x.com,Crimson Guard\n\n,,\nBob,bob@x.com,\"Azure, Dragons\"\n"

	tbl, err := ReadTable(strings.NewReader(in), 0)
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	want := []string{"full name", "email", "assigned clan"}
	for i, h := range want {
		if tbl.Header[i] != h {
			t.Errorf("Header[%d] = %q, want %q", i, tbl.Header[i], h)
		}
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(tbl.Rows))
	}
	if got := tbl.Rows[1].Get(2); got != "Azure, Dragons" {
		t.Errorf("quoted field = %q", got)
	}
	if tbl.Rows[1].Line != 5 {
		t.Errorf("Line = %d, want 5", tbl.Rows[1].Line)
	}
}

func TestReadTable_BOM(t *testing.T) {
	in := "\ufeffEmail,Clan\na@x.com,X\n"
	tbl, err := ReadTable(strings.NewReader(in), 0)
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	if tbl.Header[0] != "email" {
		t.Errorf("BOM not stripped from header: %q", tbl.Header[0])
	}
}

func TestReadTable_Empty(t *testing.T) {
	tbl, err := ReadTable(strings.NewReader(""), 0)
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	if tbl.Header != nil || len(tbl.Rows) != 0 {
		t.Errorf("expected empty table, got %+v", tbl)
	}
}

func TestReadTable_MaxRows(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("Name,Email\n")
	for i := 0; i < 10; i++ {
		sb.WriteString("User,user@example.com\n")
	}
	if _, err := ReadTable(strings.NewReader(sb.String()), 5); err != ErrTooManyRows {
		t.Errorf("ReadTable() error = %v, want ErrTooManyRows", err)
	}
}

func TestTable_Indexes_AliasOrder(t *testing.T) {
	tbl := Table{Header: []string{"group", "clan", "email address", "email"}}
	tests := []struct {
		name    string
		aliases []string
		want    []int
	}{
		{"alias order wins over column order", []string{"clan", "group"}, []int{1, 0}},
		{"every matching column", []string{"email", "email address"}, []int{3, 2}},
		{"no match", []string{"name"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tbl.Indexes(tt.aliases...); fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("Indexes(%v) = %v, want %v", tt.aliases, got, tt.want)
			}
		})
	}
}

func TestRow_First(t *testing.T) {
	r := Row{Fields: []string{"", "  ", "ada@x.com", "bob@x.com"}}
	if got := r.First([]int{0, 1, 2, 3}); got != "ada@x.com" {
		t.Errorf("First = %q, want ada@x.com", got)
	}
	if got := r.First([]int{0, 9}); got != "" {
		t.Errorf("First over blank columns = %q, want empty", got)
	}
}

func TestRow_Get_Short(t *testing.T) {
	r := Row{Fields: []string{" a "}}
	if r.Get(0) != "a" || r.Get(3) != "" || r.Get(-1) != "" {
		t.Errorf("unexpected Get results")
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, []string{"a", "b"}, [][]string{{"1", "x,y"}})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	want := "a,b\n1,\"x,y\"\n"
	if buf.String() != want {
		t.Errorf("Write() = %q, want %q", buf.String(), want)
	}
}
