package survey

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func adviceTable() *Table {
	return NewTable("conseil", []string{"id", "advice", "groupe", "outcome"}, []Record{
		{"id": String("1"), "advice": String("A,B"), "groupe": String("G1"), "outcome": String("Success")},
		{"id": String("2"), "advice": String(""), "groupe": String("G1, G2"), "outcome": String("Failure")},
		{"id": Number(3), "advice": String("B, C"), "groupe": Missing(), "outcome": String("Success")},
	}).WithKey("id")
}

func TestExplodeSingleFieldConservesMass(t *testing.T) {
	tbl := adviceTable()
	spec := Field("advice", MultiValued(","))
	lt, err := Explode(tbl, spec)
	if err != nil {
		t.Fatalf("Explode: %v", err)
	}
	members, err := Memberships(tbl, spec)
	if err != nil {
		t.Fatalf("Memberships: %v", err)
	}
	want := 0
	for _, m := range members {
		want += len(m)
	}
	if lt.Len() != want {
		t.Fatalf("rows = %d, want %d", lt.Len(), want)
	}
	col, _ := lt.Column("advice")
	if diff := cmp.Diff([]Token{Label("A"), Label("B"), Empty, Label("B"), Label("C")}, col); diff != "" {
		t.Fatalf("column mismatch (-want +got):\n%s", diff)
	}
	ids := make([]string, lt.Len())
	for i, r := range lt.Rows {
		ids[i] = r.ID
	}
	if diff := cmp.Diff([]string{"1", "1", "2", "3", "3"}, ids); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	back, err := lt.Memberships("advice")
	if err != nil {
		t.Fatalf("Memberships: %v", err)
	}
	if diff := cmp.Diff(members, back); diff != "" {
		t.Fatalf("long form does not reconstruct memberships (-want +got):\n%s", diff)
	}
}

func TestExplodeCarriesOtherFields(t *testing.T) {
	tbl := adviceTable()
	lt, err := Explode(tbl, Field("advice", MultiValued(",")))
	if err != nil {
		t.Fatalf("Explode: %v", err)
	}
	for _, r := range lt.Rows {
		if _, ok := r.Fields["advice"]; ok {
			t.Fatalf("exploded field copied into carried fields")
		}
		if !r.Fields.Get("outcome").Equal(tbl.Records[r.Record].Get("outcome")) {
			t.Fatalf("outcome not carried for record %d", r.Record)
		}
	}
	lt.Rows[0].Fields["outcome"] = String("mutated")
	if tbl.Records[0].Get("outcome").Text() != "Success" {
		t.Fatalf("long-form row aliases the source record")
	}
}

func TestExplodeCartesian(t *testing.T) {
	tbl := adviceTable()
	lt, err := Explode(tbl, Field("advice", MultiValued(",")), Field("groupe", MultiValued(",")))
	if err != nil {
		t.Fatalf("Explode: %v", err)
	}
	// record 1: 2x1, record 2: 1x2, record 3: 2x1
	if lt.Len() != 6 {
		t.Fatalf("rows = %d, want 6", lt.Len())
	}
	var got [][2]string
	for _, r := range lt.Rows {
		got = append(got, [2]string{r.Tokens[0].String(), r.Tokens[1].String()})
	}
	want := [][2]string{{"A", "G1"}, {"B", "G1"}, {"Empty", "G1"}, {"Empty", "G2"}, {"B", "Empty"}, {"C", "Empty"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("pairs mismatch (-want +got):\n%s", diff)
	}
}

func TestExplodeEmptyAndMissingField(t *testing.T) {
	empty := NewTable("none", []string{"advice"}, nil)
	lt, err := Explode(empty, Field("advice", MultiValued(",")))
	if err != nil {
		t.Fatalf("Explode: %v", err)
	}
	if lt.Len() != 0 || lt.Records != 0 {
		t.Fatalf("expected empty long table, got %d rows", lt.Len())
	}

	_, err = Explode(adviceTable(), Field("nope", MultiValued(",")))
	var mf *MissingFieldError
	if !errors.As(err, &mf) || mf.Field != "nope" || mf.Table != "conseil" {
		t.Fatalf("expected MissingFieldError, got %v", err)
	}
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("errors.Is(ErrMissingField) = false for %v", err)
	}
}

func TestRecordIDFallsBackToRowNumber(t *testing.T) {
	tbl := NewTable("t", []string{"x"}, []Record{{"x": String("a")}, {"x": String("b")}})
	if got := tbl.RecordID(1); got != "2" {
		t.Fatalf("RecordID = %q, want 2", got)
	}
}
