package survey

import (
	"fmt"
	"strings"
)

// JoinPolicy decides what happens to primary records without a match.
type JoinPolicy int

const (
	// JoinLeft keeps every primary record exactly once.
	JoinLeft JoinPolicy = iota
	// JoinInner keeps only matched primary records.
	JoinInner
)

// DefaultJoinSuffix disambiguates secondary columns that collide with
// primary ones.
const DefaultJoinSuffix = "_2"

// JoinOptions configures Join.
type JoinOptions struct {
	Key    string
	Suffix string
	Policy JoinPolicy
}

// JoinStats summarizes a join.
type JoinStats struct {
	Left      int
	Right     int
	Matched   int
	Unmatched int
	// FanOut counts primary records matching more than one secondary record.
	FanOut int
	// Renamed maps secondary column names to their suffixed output names.
	Renamed map[string]string
}

// Join merges right into left on a shared identifier. Identifiers are
// compared in canonical form (see CanonicalID). Unmatched secondary fields
// are Missing. When several secondary records match, each of their fields is
// merged: a single distinct value is kept as is, several distinct values
// become one comma-delimited multi-valued string.
func Join(left, right *Table, opt JoinOptions) (*Table, JoinStats, error) {
	stats := JoinStats{Left: left.Len(), Right: right.Len(), Renamed: map[string]string{}}
	if opt.Key == "" {
		return nil, stats, fmt.Errorf("join %s with %s: no identifier field given", left.displayName(), right.displayName())
	}
	if err := left.RequireColumns("join", opt.Key); err != nil {
		return nil, stats, err
	}
	if err := right.RequireColumns("join", opt.Key); err != nil {
		return nil, stats, err
	}
	suffix := opt.Suffix
	if suffix == "" {
		suffix = DefaultJoinSuffix
	}

	cols := make([]string, len(left.Columns))
	copy(cols, left.Columns)
	taken := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		taken[c] = struct{}{}
	}
	outName := make(map[string]string, len(right.Columns))
	for _, c := range right.Columns {
		if c == opt.Key {
			continue
		}
		name := c
		if _, clash := taken[name]; clash {
			name = c + suffix
			for {
				if _, again := taken[name]; !again {
					break
				}
				name += suffix
			}
			stats.Renamed[c] = name
		}
		taken[name] = struct{}{}
		outName[c] = name
		cols = append(cols, name)
	}

	index := map[string][]Record{}
	for _, r := range right.Records {
		id := CanonicalID(r.Get(opt.Key))
		if id == "" {
			continue
		}
		index[id] = append(index[id], r)
	}

	out := &Table{Name: left.Name, Columns: cols, Key: opt.Key}
	for _, l := range left.Records {
		matches := index[CanonicalID(l.Get(opt.Key))]
		if len(matches) == 0 {
			stats.Unmatched++
			if opt.Policy == JoinInner {
				continue
			}
		} else {
			stats.Matched++
			if len(matches) > 1 {
				stats.FanOut++
			}
		}
		rec := l.Clone()
		for src, dst := range outName {
			rec[dst] = mergeValues(matches, src)
		}
		out.Records = append(out.Records, rec)
	}
	return out, stats, nil
}

func mergeValues(rs []Record, field string) Value {
	var distinct []Value
	for _, r := range rs {
		v := r.Get(field)
		if v.IsBlank() {
			continue
		}
		dup := false
		for _, d := range distinct {
			if d.Equal(v) {
				dup = true
				break
			}
		}
		if !dup {
			distinct = append(distinct, v)
		}
	}
	switch len(distinct) {
	case 0:
		return Missing()
	case 1:
		return distinct[0]
	default:
		parts := make([]string, len(distinct))
		for i, v := range distinct {
			parts[i] = v.Text()
		}
		return String(strings.Join(parts, ","))
	}
}

// JoinStep is one secondary table of a chained join.
type JoinStep struct {
	Table  *Table
	Suffix string
}

// JoinAll left-joins each step onto the primary table in order.
func JoinAll(primary *Table, key string, policy JoinPolicy, steps ...JoinStep) (*Table, []JoinStats, error) {
	cur := primary
	all := make([]JoinStats, 0, len(steps))
	for _, s := range steps {
		next, st, err := Join(cur, s.Table, JoinOptions{Key: key, Suffix: s.Suffix, Policy: policy})
		if err != nil {
			return nil, all, err
		}
		all = append(all, st)
		cur = next
	}
	return cur, all, nil
}
