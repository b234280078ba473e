package cmd

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// replacer matches slice-valued flags, whose Set appends.
type replacer interface {
	Replace([]string) error
}

// resetFlags restores every subcommand flag so bound variables do not leak
// between invocations.
func resetFlags(c *cobra.Command) {
	c.Flags().VisitAll(func(fl *pflag.Flag) {
		if r, ok := fl.Value.(replacer); ok {
			_ = r.Replace(nil)
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	})
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	cfg = nil
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, _, err := execute(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

// isolate points HOME at a temp dir and returns it.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func write(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

const responses = `id;conseils;issue
1;Cadrage, Communication;Succès
2;;Échec (abandon, gel, oubli)
3;Cadrage;Succès
`

const teams = `id,taille,outils
1,petite,QGIS
3,grande,ArcGIS
3.0,grande,QGIS
`

func TestCLI_FreqJSON(t *testing.T) {
	home := isolate(t)
	data := write(t, home, "reponses.csv", responses)

	out := runCmd(t, "freq", data, "--field", "conseils", "--share", "Cadrage", "--format", "json")
	var rep struct {
		Frequencies []struct {
			Records int `json:"records"`
			Rows    []struct {
				Label    string  `json:"label"`
				Sentinel bool    `json:"sentinel"`
				Records  int     `json:"records"`
				Share    float64 `json:"share"`
			} `json:"rows"`
		} `json:"frequencies"`
		Shares []struct {
			Rows []struct {
				Category string `json:"category"`
				Records  int    `json:"records"`
			} `json:"rows"`
		} `json:"shares"`
	}
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	rows := rep.Frequencies[0].Rows
	if len(rows) != 3 || rows[0].Label != "Cadrage" || rows[0].Records != 2 {
		t.Fatalf("rows = %+v", rows)
	}
	if last := rows[2]; !last.Sentinel || last.Label != "Empty" {
		t.Fatalf("empty cell row = %+v", last)
	}
	if rep.Shares[0].Rows[0].Records != 2 {
		t.Fatalf("shares = %+v", rep.Shares)
	}
}

func TestCLI_FreqShareNamesTheSentinel(t *testing.T) {
	home := isolate(t)
	data := write(t, home, "reponses.csv", responses)

	out := runCmd(t, "freq", data, "--field", "conseils", "--share", "Empty", "--share", "Communication", "--format", "json")
	var rep struct {
		Shares []struct {
			Rows []struct {
				Category string `json:"category"`
				Records  int    `json:"records"`
			} `json:"rows"`
		} `json:"shares"`
	}
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	rows := rep.Shares[0].Rows
	if len(rows) != 2 || rows[0].Category != "Empty" || rows[0].Records != 1 || rows[1].Records != 1 {
		t.Fatalf("shares = %+v", rows)
	}
}

func TestCLI_FreqMissingField(t *testing.T) {
	home := isolate(t)
	data := write(t, home, "reponses.csv", responses)
	if _, _, err := execute(t, "freq", data, "--field", "causes"); err == nil || !strings.Contains(err.Error(), "causes") {
		t.Fatalf("expected missing field error, got %v", err)
	}
}

func TestCLI_CrosstabOrderedColumns(t *testing.T) {
	home := isolate(t)
	data := write(t, home, "reponses.csv", responses)

	out := runCmd(t, "crosstab", data, "--rows", "conseils", "--cols", "issue", "--cols-scalar",
		"--col-order", "Succès", "--col-order", "Échec puis relance", "--col-order", "Échec (abandon, gel, oubli)",
		"--format", "markdown")
	for _, want := range []string{"[CROSS-TABULATION]", "Échec puis relance", "Échec (abandon, gel, oubli)", "Communication"} {
		if !strings.Contains(out, want) {
			t.Errorf("crosstab output lacks %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Succès") > strings.Index(out, "Échec puis relance") {
		t.Errorf("declared column order not kept:\n%s", out)
	}

	if _, _, err := execute(t, "crosstab", data, "--rows", "conseils", "--cols", "issue", "--normalize", "diagonal"); err == nil {
		t.Fatalf("expected error for unknown normalization")
	}
}

func TestCLI_JoinWritesCSV(t *testing.T) {
	home := isolate(t)
	left := write(t, home, "reponses.csv", responses)
	right := write(t, home, "equipes.csv", teams)
	dest := filepath.Join(home, "out", "joined.csv")

	out := runCmd(t, "join", left, right, "--key", "id", "-o", dest)
	if !strings.Contains(out, "✓ Wrote joined table") {
		t.Fatalf("unexpected output: %s", out)
	}
	f, err := os.Open(dest)
	if err != nil {
		t.Fatalf("open joined: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read joined: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header and 3 records, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != "id,conseils,issue,taille,outils" {
		t.Fatalf("header = %v", rows[0])
	}
	if rows[2][3] != "" || rows[3][4] != "ArcGIS,QGIS" {
		t.Fatalf("joined rows = %v", rows[1:])
	}

	if _, _, err := execute(t, "join", left, right); err == nil {
		t.Fatalf("expected error without --key")
	}
}

func TestCLI_AnalyzePlan(t *testing.T) {
	home := isolate(t)
	write(t, home, "reponses.csv", responses)
	write(t, home, "equipes.csv", teams)
	planPath := write(t, home, "plan.yaml", `title: Bilan
inputs:
  - path: reponses.csv
  - path: equipes.csv
join:
  key: id
  steps:
    - input: equipes
fields:
  issue:
    outcome: true
frequencies:
  - field: outils
crosstabs:
  - rows: conseils
    cols: issue
    normalize: column
scores:
  - name: nb_outils
    kind: predicates
    predicates:
      - {field: outils, op: contains, values: [qgis]}
      - {field: outils, op: contains, values: [arcgis]}
`)
	dest := filepath.Join(home, "bilan.md")
	out := runCmd(t, "analyze", planPath, "-o", dest)
	if !strings.Contains(out, "✓ Wrote report") {
		t.Fatalf("unexpected output: %s", out)
	}
	b, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	md := string(b)
	for _, want := range []string{"Title: Bilan", "[JOINS]", "[FREQUENCIES] outils", "[CROSS-TABULATION]", "[SCORE] nb_outils", "Autre"} {
		if !strings.Contains(md, want) {
			t.Errorf("report lacks %q:\n%s", want, md)
		}
	}

	bad := write(t, home, "bad.yaml", "inputs: []\n")
	if _, _, err := execute(t, "analyze", bad); err == nil || !strings.Contains(err.Error(), "invalid plan") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	home := isolate(t)

	runCmd(t, "config", "set", "top_n", "3")
	runCmd(t, "config", "set", "outcome_labels", "Success;Failure;Other")
	if _, err := os.Stat(filepath.Join(home, ".surveyloom", "config.yaml")); err != nil {
		t.Fatalf("config not saved: %v", err)
	}
	out := runCmd(t, "config", "show")
	for _, want := range []string{"top_n: 3", "outcome_labels: Success; Failure; Other", "case_mode: preserve"} {
		if !strings.Contains(out, want) {
			t.Errorf("config show lacks %q:\n%s", want, out)
		}
	}
	if _, _, err := execute(t, "config", "set", "colour", "blue"); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestCLI_Schema(t *testing.T) {
	isolate(t)
	out := runCmd(t, "schema")
	var s map[string]any
	if err := json.Unmarshal([]byte(out), &s); err != nil {
		t.Fatalf("schema is not JSON: %v", err)
	}
	if _, ok := s["properties"].(map[string]any)["inputs"]; !ok {
		t.Fatalf("schema lacks inputs")
	}
}

func TestCLI_Describe(t *testing.T) {
	home := isolate(t)
	data := write(t, home, "reponses.csv", responses)

	out := runCmd(t, "describe", data, "--top", "2")
	for _, want := range []string{"[COLUMNS] reponses", "| conseils | multi-valued | 2 | 1 |", "top: Cadrage (2); Communication (1)", "categorical"} {
		if !strings.Contains(out, want) {
			t.Errorf("describe output lacks %q:\n%s", want, out)
		}
	}
}
