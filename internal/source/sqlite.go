package source

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/KaramelBytes/surveyloom-cli/internal/survey"
)

type sqliteLoader struct{}

func (sqliteLoader) CanLoad(path string) bool {
	name := strings.ToLower(path)
	return strings.HasSuffix(name, ".db") || strings.HasSuffix(name, ".sqlite") || strings.HasSuffix(name, ".sqlite3")
}

// Load reads opt.Query, or every row of opt.Table. With neither set the
// database must hold exactly one table.
func (sqliteLoader) Load(ctx context.Context, path string, opt Options) (*survey.Table, error) {
	// sql.Open would create a missing file.
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	query := opt.Query
	name := opt.Table
	if query == "" {
		if name == "" {
			if name, err = soleTable(ctx, db, path); err != nil {
				return nil, err
			}
		}
		query = "SELECT * FROM " + quoteIdent(name)
	}
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query sqlite: %w", err)
	}
	defer rows.Close()
	header, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	cols := headerNames(header)
	var recs []survey.Record
	for rows.Next() {
		cells := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(recs)+1, err)
		}
		rec := make(survey.Record, len(cols))
		for i, c := range cols {
			rec[c] = sqlValue(cells[i], opt.Number)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if opt.Name == "" && name != "" {
		opt.Name = name
	}
	return finish(survey.NewTable(tableName(path, opt), cols, recs), opt)
}

func soleTable(ctx context.Context, db *sql.DB, path string) (string, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type IN ('table','view') AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return "", fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return "", fmt.Errorf("list tables: %w", err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("list tables: %w", err)
	}
	switch len(names) {
	case 1:
		return names[0], nil
	case 0:
		return "", fmt.Errorf("database %s has no tables", path)
	default:
		return "", fmt.Errorf("database %s has several tables, choose one of: %s", path, strings.Join(names, ", "))
	}
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// sqlValue maps a scanned driver value to a cell. Text goes through Infer
// so numeric strings behave like CSV cells.
func sqlValue(v any, nf survey.NumberFormat) survey.Value {
	switch x := v.(type) {
	case nil:
		return survey.Missing()
	case int64:
		return survey.Number(float64(x))
	case float64:
		return survey.Number(x)
	case bool:
		return survey.String(strconv.FormatBool(x))
	case []byte:
		return survey.Infer(string(x), nf)
	case string:
		return survey.Infer(x, nf)
	case time.Time:
		return survey.String(x.Format(time.RFC3339))
	default:
		return survey.Infer(fmt.Sprint(x), nf)
	}
}
