package aggregate

import (
	"sort"
	"strings"

	"github.com/AngelCh415/mediaplan-go/internal/models"
)

type Mode int

const (
	// Sum adds every record's value, zeros included.
	Sum Mode = iota
	// Average is total/count over positive values only.
	Average
	// Ratio is sum(Value)/sum(Denom)*Scale.
	Ratio
)

type KeyFunc func(models.Record) string
type ValueFunc func(models.Record) float64

type Spec struct {
	Key   KeyFunc
	Value ValueFunc
	Denom ValueFunc
	Mode  Mode
	Scale float64

	DropZero bool
	Sorted   bool
	TopN     int
}

// Group is the accumulator for one key before finalization.
type Group struct {
	Key   string
	Total float64
	Denom float64
	Count int
}

// Collect groups records by spec.Key in first-seen order and accumulates
// spec.Value (and spec.Denom for Ratio).
func Collect(recs []models.Record, s Spec) []Group {
	idx := make(map[string]int)
	var groups []Group
	for _, r := range recs {
		k := s.Key(r)
		i, ok := idx[k]
		if !ok {
			i = len(groups)
			idx[k] = i
			groups = append(groups, Group{Key: k})
		}
		g := &groups[i]
		v := s.Value(r)
		switch s.Mode {
		case Average:
			// valores <= 0 no cuentan para el promedio
			if v > 0 {
				g.Total += v
				g.Count++
			}
		case Ratio:
			g.Total += v
			if s.Denom != nil {
				g.Denom += s.Denom(r)
			}
			g.Count++
		default:
			g.Total += v
			g.Count++
		}
	}
	return groups
}

// Run is the full pipeline: collect, finalize, filter, sort, truncate.
func Run(recs []models.Record, s Spec) []models.Entry {
	groups := Collect(recs, s)
	out := make([]models.Entry, 0, len(groups))
	for _, g := range groups {
		e := models.Entry{Key: g.Key, Metric: finalize(g, s)}
		if s.Mode == Average {
			e.Count = g.Count
		}
		if s.DropZero && e.Metric == 0 {
			continue
		}
		out = append(out, e)
	}
	if s.Sorted {
		SortDesc(out)
	}
	return truncate(out, s.TopN)
}

func finalize(g Group, s Spec) float64 {
	switch s.Mode {
	case Average:
		return safeDiv(g.Total, float64(g.Count))
	case Ratio:
		scale := s.Scale
		if scale == 0 {
			scale = 1
		}
		return safeDiv(g.Total*scale, g.Denom)
	default:
		return g.Total
	}
}

// SortDesc orders entries by metric, highest first; ties keep encounter order.
func SortDesc(es []models.Entry) {
	sort.SliceStable(es, func(i, j int) bool { return es[i].Metric > es[j].Metric })
}

func truncate[T any](rows []T, n int) []T {
	if n > 0 && len(rows) > n {
		return rows[:n]
	}
	return rows
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// Key extractors

func Field(get func(models.Record) string) KeyFunc { return KeyFunc(get) }

func Composite(sep string, parts ...func(models.Record) string) KeyFunc {
	return func(r models.Record) string {
		vals := make([]string, len(parts))
		for i, p := range parts {
			vals[i] = p(r)
		}
		return strings.Join(vals, sep)
	}
}

func Constant(k string) KeyFunc { return func(models.Record) string { return k } }

func Market(r models.Record) string   { return r.Market }
func Month(r models.Record) string    { return r.Month }
func Campaign(r models.Record) string { return r.Campaign }
func Channel(r models.Record) string  { return r.Channel }
func Outlet(r models.Record) string   { return r.Outlet }
func Format(r models.Record) string   { return r.Format }

// Value extractors

func GrossInvestment(r models.Record) float64 { return r.GrossInvestment.Float() }
func NetInvestment(r models.Record) float64   { return r.NetInvestment.Float() }
func Insertions(r models.Record) float64      { return r.Insertions.Float() }
func Impressions(r models.Record) float64     { return r.Impressions.Float() }
func Clicks(r models.Record) float64          { return r.Clicks.Float() }
func CPM(r models.Record) float64             { return r.CPM.Float() }
func CPC(r models.Record) float64             { return r.CPC.Float() }
