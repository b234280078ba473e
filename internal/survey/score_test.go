package survey

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func projectsTable() *Table {
	return NewTable("projets", []string{"id", "methode_nb", "techno_nb", "outil_proj_nb", "docs_nb_formats", "tracabilite", "transfert", "organisation"}, []Record{
		{"id": String("p1"), "methode_nb": Number(2), "techno_nb": Infer("3", NumberFormat{}), "outil_proj_nb": String("1"), "docs_nb_formats": Number(4),
			"tracabilite": String("Oui, partielle"), "transfert": String("Réunion de passation"), "organisation": String("Projet ponctuel")},
		{"id": String("p2"), "methode_nb": Missing(), "techno_nb": String("n/a"), "outil_proj_nb": Number(0), "docs_nb_formats": Number(1),
			"tracabilite": String("Non"), "transfert": String("Aucun transfert"), "organisation": Missing()},
	}).WithKey("id")
}

func TestSumScoreSubstitutesMissing(t *testing.T) {
	s := SumOf("hybridite", "methode_nb", "techno_nb", "outil_proj_nb", "docs_nb_formats")
	rows, err := s.Apply(projectsTable())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := []ScoreRow{
		{ID: "p1", Result: Result{Value: 10}},
		{ID: "p2", Result: Result{Value: 1, Substituted: []string{"methode_nb", "techno_nb"}}},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("scores (-want +got):\n%s", diff)
	}
}

func TestWeightedScore(t *testing.T) {
	s := Score{Name: "w", Kind: ScoreWeighted, Terms: []Term{{Field: "methode_nb", Weight: 0.5}, {Field: "docs_nb_formats", Weight: 2}}}
	got := s.Compute(projectsTable().Records[0])
	if got.Value != 9 {
		t.Fatalf("weighted = %v, want 9", got.Value)
	}
	// sum kind ignores declared weights
	s.Kind = ScoreSum
	if got := s.Compute(projectsTable().Records[0]); got.Value != 6 {
		t.Fatalf("sum = %v, want 6", got.Value)
	}
}

func TestPredicateScore(t *testing.T) {
	s := CountOf("transmission",
		Contains("tracabilite", "oui"),
		NotContains("transfert", "aucun"),
		Equals("organisation", "projet ponctuel"),
	)
	rows, err := s.Apply(projectsTable())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if rows[0].Value != 3 || rows[1].Value != 0 {
		t.Fatalf("transmission = %v, %v", rows[0].Value, rows[1].Value)
	}
}

func TestPredicatesOnMissingAreFalse(t *testing.T) {
	r := Record{}
	gt, err := Compare("x", "gt", -1)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	for _, p := range []Predicate{Contains("x", "a"), NotContains("x", "a"), Equals("x", ""), gt} {
		if p.Test(r) {
			t.Fatalf("%s true on missing field", p.Name)
		}
	}
	if _, err := Compare("x", "between", 1); err == nil {
		t.Fatalf("expected error for unknown operator")
	}
}

func TestAllAny(t *testing.T) {
	r := Record{"a": String("Oui"), "b": Number(3)}
	ge, _ := Compare("b", "ge", 3)
	lt, _ := Compare("b", "lt", 3)
	if !All(Contains("a", "oui"), ge).Test(r) {
		t.Fatalf("All should hold")
	}
	if All(Contains("a", "oui"), lt).Test(r) {
		t.Fatalf("All should fail")
	}
	if !Any(lt, ge).Test(r) {
		t.Fatalf("Any should hold")
	}
	if All().Test(r) || Any().Test(r) {
		t.Fatalf("empty combinators must be false")
	}
}

func TestScoreMissingFieldIsError(t *testing.T) {
	_, err := SumOf("bad", "methode_nb", "nope").Apply(projectsTable())
	var mf *MissingFieldError
	if !errors.As(err, &mf) || mf.Field != "nope" {
		t.Fatalf("expected MissingFieldError, got %v", err)
	}
}

func TestScoreDeterministic(t *testing.T) {
	s := SumOf("h", "methode_nb", "techno_nb")
	tbl := projectsTable()
	a, _ := s.Apply(tbl)
	b, _ := s.Apply(tbl)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("non-deterministic:\n%s", diff)
	}
}

func TestAddToAndFlag(t *testing.T) {
	tbl := projectsTable()
	scored, err := SumOf("h", "methode_nb", "docs_nb_formats").AddTo(tbl)
	if err != nil {
		t.Fatalf("AddTo: %v", err)
	}
	if x, _ := scored.Records[0].Get("h").Float(); x != 6 {
		t.Fatalf("h = %v", x)
	}
	if tbl.HasColumn("h") {
		t.Fatalf("AddTo modified its input")
	}
	flagged, err := Flag(scored, "rupture", All(Contains("tracabilite", "non"), Contains("transfert", "aucun")))
	if err != nil {
		t.Fatalf("Flag: %v", err)
	}
	if flagged.Records[0].Get("rupture").Text() != "false" || flagged.Records[1].Get("rupture").Text() != "true" {
		t.Fatalf("flags = %v", flagged.Column("rupture"))
	}
}
