package plan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/KaramelBytes/surveyloom-cli/internal/config"
	"github.com/KaramelBytes/surveyloom-cli/internal/survey"
)

const projets = `id,issue,conseils,duree,commentaire
1,Succès,"Cadrage, Communication",1 à 2 ans,RAS
2,Échec puis relance,Cadrage,moins d'un an,perte de mémoire
3,,Communication,,
`

const equipes = `id,taille,outils
1,petite,QGIS
3,grande,ArcGIS
3.0,grande,QGIS
`

const retours = `title: Retours projets
inputs:
  - path: projets.csv
    key: id
  - path: equipes.csv
join:
  key: id
  steps:
    - input: equipes
fields:
  issue:
    outcome: true
recodes:
  - field: duree
    into: duree_ans
    map:
      "moins d'un an": 0.5
      "1 à 2 ans": 1.5
flags:
  - name: rupture_memoire
    predicates:
      - field: commentaire
        op: contains
        values: [mémoire]
scores:
  - name: nb_conseils
    kind: predicates
    predicates:
      - {field: conseils, op: contains, values: [cadrage]}
      - {field: conseils, op: contains, values: [communication]}
bins:
  - field: nb_conseils
    into: conseils_bin
    edges: [-1, 0, 1, 2]
    labels: ["0", "1", "2"]
frequencies:
  - field: conseils
    shares: [Cadrage]
grouped_frequencies:
  - field: conseils
    by: issue
crosstabs:
  - rows: conseils
    cols: issue
  - rows: rupture_memoire
    cols: issue
    normalize: column
  - rows: conseils_bin
    cols: outils
means:
  - by: issue
    fields: [duree_ans, nb_conseils]
pivots:
  - rows: taille
    cols: issue
    value: nb_conseils
correlations:
  - x: duree_ans
    y: nb_conseils
`

func writePlan(t *testing.T, plan string, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(dir, "plan.yaml")
	if err := os.WriteFile(path, []byte(plan), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfig() *config.Global {
	return &config.Global{Delimiters: ",", CaseMode: "preserve", SentinelLabel: "Empty", OutcomeFallback: "Autre", TopN: 10}
}

func TestRunJoinedPlan(t *testing.T) {
	p, err := Load(writePlan(t, retours, map[string]string{"projets.csv": projets, "equipes.csv": equipes}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	rep, err := Run(context.Background(), p, testConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(rep.Inputs) != 2 || rep.Inputs[0].Records != 3 || rep.Inputs[1].Records != 3 {
		t.Fatalf("inputs = %+v", rep.Inputs)
	}
	j := rep.Joins[0]
	if j.Matched != 2 || j.Unmatched != 1 || j.FanOut != 1 {
		t.Fatalf("join = %+v", j)
	}

	freq := rep.Frequencies[0]
	var labels []string
	for _, row := range freq.Rows {
		labels = append(labels, row.Label)
	}
	if diff := cmp.Diff([]string{"Cadrage", "Communication"}, labels); diff != "" {
		t.Fatalf("frequency labels (-want +got):\n%s", diff)
	}
	if rep.Shares[0].Rows[0].Records != 2 || rep.Shares[0].Records != 3 {
		t.Fatalf("shares = %+v", rep.Shares[0])
	}

	ct := rep.CrossTabs[0]
	if diff := cmp.Diff(config.DefaultOutcomeLabels, ct.Cols); diff != "" {
		t.Fatalf("outcome columns (-want +got):\n%s", diff)
	}
	want := [][]int{{1, 1, 0, 0}, {1, 0, 0, 1}}
	if diff := cmp.Diff(want, ct.Counts); diff != "" {
		t.Fatalf("counts (-want +got):\n%s", diff)
	}

	flag := rep.CrossTabs[1]
	if diff := cmp.Diff([]string{"false", "true"}, flag.Rows); diff != "" {
		t.Fatalf("flag rows (-want +got):\n%s", diff)
	}
	if flag.Proportions[1][1] != 1 {
		t.Fatalf("rupture share among relaunched = %v", flag.Proportions[1][1])
	}

	bins := rep.CrossTabs[2]
	if diff := cmp.Diff([]string{"0", "1", "2"}, bins.Rows); diff != "" {
		t.Fatalf("bin rows (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"QGIS", "Empty", "ArcGIS"}, bins.Cols); diff != "" {
		t.Fatalf("merged tool columns (-want +got):\n%s", diff)
	}

	score := rep.Scores[0]
	if score.Name != "nb_conseils" || score.Max != 2 || score.Min != 1 {
		t.Fatalf("score = %+v", score)
	}

	means := rep.Means[0]
	if len(means.Rows) != 4 {
		t.Fatalf("expected every outcome group, got %d", len(means.Rows))
	}
	if m := means.Rows[0].Means; *m[0] != 1.5 || *m[1] != 2 {
		t.Fatalf("Succès means = %v, %v", *m[0], *m[1])
	}
	if autre := means.Rows[3]; autre.Group != "Autre" || autre.Means[0] != nil || *autre.Means[1] != 1 {
		t.Fatalf("Autre row = %+v", autre)
	}

	pv := rep.Pivots[0]
	if diff := cmp.Diff([]string{"petite", "Empty", "grande"}, pv.Rows); diff != "" {
		t.Fatalf("pivot rows (-want +got):\n%s", diff)
	}

	c := rep.Correlations[0]
	if c.N != 2 || c.R < 0.999 {
		t.Fatalf("correlation = %+v", c)
	}

	if len(rep.Grouped[0].Groups) != 4 {
		t.Fatalf("grouped = %+v", rep.Grouped[0])
	}
	if !strings.Contains(strings.Join(rep.Warnings, "\n"), "matched several equipes records") {
		t.Fatalf("warnings = %v", rep.Warnings)
	}
	if !strings.Contains(rep.Markdown(), "[PIVOT]") {
		t.Fatalf("markdown lacks pivot section")
	}
}

func TestRunOrdersAndSharesNameTheSentinel(t *testing.T) {
	plan := `inputs:
  - path: projets.csv
fields:
  issue:
    scalar: true
  conseils:
    case: lower
frequencies:
  - field: issue
    shares: [Empty, Succès]
crosstabs:
  - rows: issue
    cols: conseils
    row_order: [Succès, Empty, Échec puis relance]
    col_order: [Communication, Cadrage]
`
	p, err := Load(writePlan(t, plan, map[string]string{"projets.csv": projets}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	rep, err := Run(context.Background(), p, testConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	sh := rep.Shares[0].Rows
	if len(sh) != 2 || sh[0].Category != "Empty" || sh[0].Records != 1 || sh[0].Share != 1.0/3 || sh[1].Records != 1 {
		t.Fatalf("shares = %+v", sh)
	}

	ct := rep.CrossTabs[0]
	if diff := cmp.Diff([]string{"Succès", "Empty", "Échec puis relance"}, ct.Rows); diff != "" {
		t.Fatalf("rows (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"communication", "cadrage"}, ct.Cols); diff != "" {
		t.Fatalf("columns (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]int{{1, 1}, {1, 0}, {0, 1}}, ct.Counts); diff != "" {
		t.Fatalf("counts (-want +got):\n%s", diff)
	}
}

func TestRunMissingFieldIsFatal(t *testing.T) {
	plan := "inputs:\n  - path: projets.csv\ncrosstabs:\n  - rows: conseils\n    cols: taille\n"
	p, err := Load(writePlan(t, plan, map[string]string{"projets.csv": projets}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	_, err = Run(context.Background(), p, testConfig())
	if !errors.Is(err, survey.ErrMissingField) {
		t.Fatalf("expected missing field error, got %v", err)
	}
}

func TestRunWarnsAboutUnjoinedInputs(t *testing.T) {
	plan := "inputs:\n  - path: projets.csv\n  - path: equipes.csv\ndescribe: true\nfrequencies:\n  - field: issue\n    top: 1\n"
	p, err := Load(writePlan(t, plan, map[string]string{"projets.csv": projets, "equipes.csv": equipes}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	rep, err := Run(context.Background(), p, testConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rep.Warnings) != 1 || !strings.Contains(rep.Warnings[0], "equipes") {
		t.Fatalf("warnings = %v", rep.Warnings)
	}
	if f := rep.Frequencies[0]; len(f.Rows) != 1 || f.Hidden != 2 {
		t.Fatalf("top 1 of issue = %+v", f)
	}
	if len(rep.Columns) != 1 || rep.Columns[0].Table != "projets" || len(rep.Columns[0].Columns) != 5 {
		t.Fatalf("columns = %+v", rep.Columns)
	}
	if c := rep.Columns[0].Columns[2]; c.Name != "conseils" || c.Kind != survey.KindNameMulti {
		t.Fatalf("conseils profile = %+v", c)
	}
}

func TestRunCancelled(t *testing.T) {
	p, err := Load(writePlan(t, "inputs:\n  - path: projets.csv\n", map[string]string{"projets.csv": projets}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(ctx, p, nil); err == nil {
		t.Fatalf("expected cancellation error")
	}
}
