package source

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/surveyloom-cli/internal/survey"
)

func writeSQLite(t *testing.T, stmts ...string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "enquete.db")
	db, err := sql.Open("sqlite", p)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
	return p
}

func TestLoadSQLiteSoleTable(t *testing.T) {
	p := writeSQLite(t,
		`CREATE TABLE reponses (id INTEGER, conseil TEXT, note REAL)`,
		`INSERT INTO reponses VALUES (7, 'A,B', 3.5), (8, NULL, NULL)`,
	)
	tbl, err := Load(context.Background(), p, Options{Key: "id"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tbl.Name != "reponses" || tbl.Len() != 2 {
		t.Fatalf("table %s with %d records", tbl.Name, tbl.Len())
	}
	r := tbl.Records[0]
	if tbl.RecordID(0) != "7" || r.Get("conseil").Text() != "A,B" {
		t.Fatalf("record = %#v", r)
	}
	if x, ok := r.Get("note").Float(); !ok || x != 3.5 {
		t.Fatalf("note = %v", x)
	}
	if !tbl.Records[1].Get("conseil").IsMissing() {
		t.Fatalf("NULL should be missing")
	}
}

func TestLoadSQLiteTableAndQuery(t *testing.T) {
	p := writeSQLite(t,
		`CREATE TABLE projets (id TEXT, taille TEXT)`,
		`CREATE TABLE "équipes" (id TEXT, membres INTEGER)`,
		`INSERT INTO projets VALUES ('1', 'petite'), ('2', 'grande')`,
		`INSERT INTO "équipes" VALUES ('1', 4)`,
	)
	_, err := Load(context.Background(), p, Options{})
	if err == nil || !strings.Contains(err.Error(), "several tables") {
		t.Fatalf("expected ambiguity error, got %v", err)
	}

	tbl, err := Load(context.Background(), p, Options{Table: "équipes"})
	if err != nil {
		t.Fatalf("Load table: %v", err)
	}
	if tbl.Records[0].Get("membres").Kind() != survey.KindNumber {
		t.Fatalf("membres kind = %v", tbl.Records[0].Get("membres").Kind())
	}

	tbl, err = Load(context.Background(), p, Options{Query: "SELECT id FROM projets WHERE taille = 'grande'", Name: "grandes"})
	if err != nil {
		t.Fatalf("Load query: %v", err)
	}
	if tbl.Name != "grandes" || tbl.Len() != 1 || tbl.Records[0].Get("id").Text() != "2" {
		t.Fatalf("query table = %s %d", tbl.Name, tbl.Len())
	}
}

func TestLoadSQLiteMissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "none.db"), Options{})
	if err == nil {
		t.Fatalf("expected error for missing database")
	}
}
