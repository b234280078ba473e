package survey

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCrossTabScenario(t *testing.T) {
	tbl := NewTable("s", []string{"id", "advice", "outcome"}, []Record{
		{"id": String("1"), "advice": String("A,B"), "outcome": String("Success")},
		{"id": String("2"), "advice": String(""), "outcome": String("Failure")},
	}).WithKey("id")
	ct, err := CrossTabulate(tbl, Field("advice", MultiValued(",")), Field("outcome", Scalar()), CrossTabOptions{})
	if err != nil {
		t.Fatalf("CrossTabulate: %v", err)
	}
	cells := map[[2]Token]int{
		{Label("A"), Label("Success")}: 1,
		{Label("B"), Label("Success")}: 1,
		{Empty, Label("Failure")}:      1,
		{Label("A"), Label("Failure")}: 0,
		{Empty, Label("Success")}:      0,
	}
	for k, want := range cells {
		if got := ct.Count(k[0], k[1]); got != want {
			t.Fatalf("Count(%v,%v) = %d, want %d", k[0], k[1], got, want)
		}
	}
	if ct.Total() != 3 {
		t.Fatalf("total = %d", ct.Total())
	}
}

func TestCrossTabTotalIsProductOfCardinalities(t *testing.T) {
	tbl := adviceTable()
	row, col := Field("advice", MultiValued(",")), Field("groupe", MultiValued(","))
	ct, err := CrossTabulate(tbl, row, col, CrossTabOptions{})
	if err != nil {
		t.Fatalf("CrossTabulate: %v", err)
	}
	a, _ := Memberships(tbl, row)
	b, _ := Memberships(tbl, col)
	want := 0
	for i := range a {
		want += len(a[i]) * len(b[i])
	}
	if ct.Total() != want {
		t.Fatalf("total = %d, want %d", ct.Total(), want)
	}
}

func TestCrossTabOrderActsAsVocabulary(t *testing.T) {
	tbl := adviceTable()
	opt := CrossTabOptions{
		RowOrder: Labels("C", "Z", "A"),
		ColOrder: Labels("Failure", "Success", "Autre"),
	}
	ct, err := CrossTabulate(tbl, Field("advice", MultiValued(",")), Field("outcome", Scalar()), opt)
	if err != nil {
		t.Fatalf("CrossTabulate: %v", err)
	}
	if diff := cmp.Diff([]Token{Label("C"), Label("Z"), Label("A"), Label("B"), Empty}, ct.Rows); diff != "" {
		t.Fatalf("rows (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Labels("Failure", "Success", "Autre"), ct.Cols); diff != "" {
		t.Fatalf("cols (-want +got):\n%s", diff)
	}
	if got := ct.RowTotals()[1]; got != 0 {
		t.Fatalf("vocabulary row Z should be all zero, got %d", got)
	}
	if got := ct.ColTotals()[2]; got != 0 {
		t.Fatalf("vocabulary column Autre should be all zero, got %d", got)
	}
}

func TestCrossTabProportions(t *testing.T) {
	ct, err := NewCrossTab(Labels("a", "a", "b"), Labels("x", "y", "x"), CrossTabOptions{RowOrder: Labels("a", "b", "c")})
	if err != nil {
		t.Fatalf("NewCrossTab: %v", err)
	}
	rows := ct.Proportions(NormalizeRows)
	want := [][]float64{{0.5, 0.5}, {1, 0}, {0, 0}}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("row proportions (-want +got):\n%s", diff)
	}
	cols := ct.Proportions(NormalizeColumns)
	if diff := cmp.Diff([][]float64{{0.5, 1}, {0.5, 0}, {0, 0}}, cols); diff != "" {
		t.Fatalf("column proportions (-want +got):\n%s", diff)
	}
	all := ct.Proportions(NormalizeAll)
	if all[0][0] != 1.0/3.0 {
		t.Fatalf("all[0][0] = %v", all[0][0])
	}
	counts := ct.Proportions(NormalizeNone)
	if counts[0][1] != 1 {
		t.Fatalf("counts[0][1] = %v", counts[0][1])
	}
}

func TestCrossTabSameFieldCoOccurrence(t *testing.T) {
	tbl := adviceTable()
	f := Field("advice", MultiValued(","))
	ct, err := CrossTabulate(tbl, f, f, CrossTabOptions{})
	if err != nil {
		t.Fatalf("CrossTabulate: %v", err)
	}
	if got := ct.Count(Label("A"), Label("B")); got != 1 {
		t.Fatalf("A,B = %d", got)
	}
	if got := ct.Count(Label("B"), Label("B")); got != 2 {
		t.Fatalf("B,B = %d", got)
	}
	if got := ct.Count(Label("A"), Label("C")); got != 0 {
		t.Fatalf("A,C = %d", got)
	}
}

func TestCrossTabLengthMismatch(t *testing.T) {
	_, err := NewCrossTab(Labels("a", "b"), Labels("x"), CrossTabOptions{})
	var lm *LengthMismatchError
	if !errors.As(err, &lm) || lm.Rows != 2 || lm.Cols != 1 {
		t.Fatalf("expected LengthMismatchError, got %v", err)
	}
}

func TestCrossTabTranspose(t *testing.T) {
	ct, _ := NewCrossTab(Labels("a", "b"), Labels("x", "x"), CrossTabOptions{})
	ct.RowField, ct.ColField = "r", "c"
	tr := ct.Transpose()
	if tr.RowField != "c" || len(tr.Rows) != 1 || tr.Count(Label("x"), Label("b")) != 1 {
		t.Fatalf("transpose = %+v", tr)
	}
}

func TestCrossTabTransposeCopiesAxes(t *testing.T) {
	ct, _ := NewCrossTab(Labels("a", "b"), Labels("x", "y"), CrossTabOptions{})
	tr := ct.Transpose()
	tr.Rows[0] = Label("z")
	tr.Cols[1] = Label("z")
	if diff := cmp.Diff(Labels("a", "b"), ct.Rows); diff != "" {
		t.Fatalf("source rows changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Labels("x", "y"), ct.Cols); diff != "" {
		t.Fatalf("source cols changed (-want +got):\n%s", diff)
	}
}

func TestParseNormalization(t *testing.T) {
	for in, want := range map[string]Normalization{"": NormalizeNone, "row": NormalizeRows, "Columns": NormalizeColumns, "all": NormalizeAll} {
		got, ok := ParseNormalization(in)
		if !ok || got != want {
			t.Fatalf("ParseNormalization(%q) = %v,%v", in, got, ok)
		}
	}
	if _, ok := ParseNormalization("diag"); ok {
		t.Fatalf("expected rejection")
	}
}
