package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/aclements/go-moremath/stats"

	"github.com/KaramelBytes/tipdensity/internal/table"
)

// Stats holds the descriptive aggregates reported per group. Undefined
// statistics are NaN: everything for an empty input, Std below two values.
type Stats struct {
	Count  int
	Mean   float64
	Median float64
	Std    float64
}

// Describe computes count, mean, median and sample standard deviation.
// Callers pass non-null values only; see Column.Floats.
func Describe(values []float64) Stats {
	out := Stats{Count: len(values), Mean: math.NaN(), Median: math.NaN(), Std: math.NaN()}
	if len(values) == 0 {
		return out
	}
	s := stats.Sample{Xs: append([]float64(nil), values...)}
	s.Sort()
	out.Mean = s.Mean()
	out.Median = s.Quantile(0.5)
	if len(values) > 1 {
		out.Std = s.StdDev()
	}
	return out
}

// Order decides how groups are listed.
type Order string

const (
	// OrderSorted lists numeric keys ascending and text keys lexically.
	OrderSorted Order = "sorted"
	// OrderAppearance lists keys by first occurrence in the table.
	OrderAppearance Order = "appearance"
)

// ParseOrder validates a configured order name.
func ParseOrder(s string) (Order, error) {
	switch Order(strings.ToLower(strings.TrimSpace(s))) {
	case OrderSorted, "":
		return OrderSorted, nil
	case OrderAppearance:
		return OrderAppearance, nil
	}
	return "", fmt.Errorf("unsupported group order %q (use sorted or appearance)", s)
}

// Group is one distinct key with the non-null values that fall under it.
type Group struct {
	Key    string
	Values []float64
	Stats  Stats
}

// Grouping is the result of splitting a value column by a key column.
type Grouping struct {
	Column string
	Value  string
	Groups []Group
}

// Total returns the number of values across all groups.
func (g *Grouping) Total() int {
	n := 0
	for _, gr := range g.Groups {
		n += gr.Stats.Count
	}
	return n
}

// GroupBy splits the value column by the distinct non-null keys of the key
// column. Rows with a null key are dropped; null values are skipped but
// their key still forms a group.
func GroupBy(t *table.Table, key, value string, order Order) (*Grouping, error) {
	kc, err := t.MustColumn(key)
	if err != nil {
		return nil, err
	}
	vc, err := t.MustColumn(value)
	if err != nil {
		return nil, err
	}
	if vc.Kind() == table.KindText {
		return nil, fmt.Errorf("group by %s: value column %s is not numeric", kc.Name(), vc.Name())
	}

	index := map[string]int{}
	var groups []Group
	var numKeys []float64
	for i := 0; i < t.NumRows(); i++ {
		if kc.IsNull(i) {
			continue
		}
		k := kc.Text(i)
		gi, ok := index[k]
		if !ok {
			gi = len(groups)
			index[k] = gi
			groups = append(groups, Group{Key: k})
			nk, _ := kc.Float(i)
			numKeys = append(numKeys, nk)
		}
		if v, ok := vc.Float(i); ok {
			groups[gi].Values = append(groups[gi].Values, v)
		}
	}

	if order == OrderSorted {
		perm := make([]int, len(groups))
		for i := range perm {
			perm[i] = i
		}
		numeric := kc.Kind() != table.KindText
		sort.SliceStable(perm, func(a, b int) bool {
			if numeric {
				return numKeys[perm[a]] < numKeys[perm[b]]
			}
			return groups[perm[a]].Key < groups[perm[b]].Key
		})
		sorted := make([]Group, len(groups))
		for i, p := range perm {
			sorted[i] = groups[p]
		}
		groups = sorted
	}
	for i := range groups {
		groups[i].Stats = Describe(groups[i].Values)
	}
	return &Grouping{Column: kc.Name(), Value: vc.Name(), Groups: groups}, nil
}
