package source

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/surveyloom-cli/internal/logging"
	"github.com/KaramelBytes/surveyloom-cli/internal/survey"
)

// Options controls how one input file becomes a survey table.
type Options struct {
	// Name of the resulting table. Defaults to the file name without extension.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Key is the identifier field; it must exist in the header when set.
	Key string `json:"key,omitempty" yaml:"key,omitempty"`
	// Delimiter for CSV. If 0, sniffed from the header line.
	Delimiter rune `json:"-" yaml:"-"`
	// Encoding of text inputs (utf-8, latin1, windows-1252, ...). Empty means UTF-8.
	Encoding string `json:"encoding,omitempty" yaml:"encoding,omitempty"`
	// Sheet selects an XLSX sheet by name; SheetIndex by 1-based position.
	Sheet      string `json:"sheet,omitempty" yaml:"sheet,omitempty"`
	SheetIndex int    `json:"sheet_index,omitempty" yaml:"sheet_index,omitempty"`
	// Table or Query select the rows of a SQLite input.
	Table string `json:"table,omitempty" yaml:"table,omitempty"`
	Query string `json:"query,omitempty" yaml:"query,omitempty"`
	// Number fixes the numeric locale; zero runes auto-detect.
	Number survey.NumberFormat `json:"-" yaml:"-"`
}

// Loader reads one kind of tabular file.
type Loader interface {
	CanLoad(path string) bool
	Load(ctx context.Context, path string, opt Options) (*survey.Table, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
	Register(sqliteLoader{})
}

// ErrUnsupported indicates a file format no loader handles.
var ErrUnsupported = errors.New("unsupported input format")

// Load selects a loader based on the file name and reads the table.
func Load(ctx context.Context, path string, opt Options) (*survey.Table, error) {
	for _, l := range registry {
		if !l.CanLoad(path) {
			continue
		}
		t, err := l.Load(ctx, path, opt)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", filepath.Base(path), err)
		}
		logging.New("source").Debug("input loaded", "path", path, "table", t.Name, "records", t.Len(), "columns", len(t.Columns))
		return t, nil
	}
	return nil, fmt.Errorf("load %s: %w (expected .csv, .tsv, .xlsx or .db)", filepath.Base(path), ErrUnsupported)
}

// Input pairs a path with its load options.
type Input struct {
	Path string
	Options
}

// LoadAll reads the inputs concurrently, at most limit at a time (0 means
// no limit). Tables are returned in input order; the first error cancels
// the remaining loads.
func LoadAll(ctx context.Context, inputs []Input, limit int) ([]*survey.Table, error) {
	out := make([]*survey.Table, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			t, err := Load(gctx, in.Path, in.Options)
			if err != nil {
				return err
			}
			out[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func tableName(path string, opt Options) string {
	if opt.Name != "" {
		return opt.Name
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// headerNames trims header cells, names blank ones by position and
// disambiguates repeats as name.1, name.2, ...
func headerNames(raw []string) []string {
	out := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, h := range raw {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if name == "" {
			name = "column_" + strconv.Itoa(i+1)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = name + "." + strconv.Itoa(n+1)
		} else {
			seen[name] = 0
		}
		out[i] = name
	}
	return out
}

// tableFromRows turns a header and raw text rows into a table. Short rows
// are padded with Missing; cells past the header are dropped.
func tableFromRows(path string, opt Options, header []string, rows [][]string) (*survey.Table, error) {
	cols := headerNames(header)
	recs := make([]survey.Record, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		if len(row) > len(cols) {
			for _, extra := range row[len(cols):] {
				if strings.TrimSpace(extra) != "" {
					dropped++
				}
			}
		}
		rec := make(survey.Record, len(cols))
		for j, c := range cols {
			if j < len(row) {
				rec[c] = survey.Infer(row[j], opt.Number)
			} else {
				rec[c] = survey.Missing()
			}
		}
		recs = append(recs, rec)
	}
	if dropped > 0 {
		logging.New("source").Warn("cells beyond the header were ignored", "path", path, "cells", dropped)
	}
	return finish(survey.NewTable(tableName(path, opt), cols, recs), opt)
}

func finish(t *survey.Table, opt Options) (*survey.Table, error) {
	if opt.Key != "" {
		if err := t.RequireColumns("input key", opt.Key); err != nil {
			return nil, err
		}
		t.WithKey(opt.Key)
	}
	return t, nil
}
