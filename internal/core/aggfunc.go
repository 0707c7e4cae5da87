package core

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/JonMunkholm/fileops/internal/table"
)

// AggFunc is the closed set of summary functions.
type AggFunc int

const (
	AggSum AggFunc = iota + 1
	AggMean
	AggMedian
	AggMin
	AggMax
	AggCount
	AggStdDev
)

// AggFuncs lists every function in display order.
var AggFuncs = []AggFunc{AggMin, AggMax, AggSum, AggCount, AggMean, AggMedian, AggStdDev}

// reducer folds the values of one column within one group.
type reducer struct {
	label   string
	numeric bool // rejects non-number values
	reduce  func(vals []table.Value) table.Value
}

// reducers is the dispatch table for AggFunc. Every AggFunc must have an
// entry; TestReducersExhaustive checks this.
var reducers = map[AggFunc]reducer{
	AggSum:    {label: "Sum", numeric: true, reduce: reduceSum},
	AggMean:   {label: "Average", numeric: true, reduce: reduceMean},
	AggMedian: {label: "Median", numeric: true, reduce: reduceMedian},
	AggMin:    {label: "Min", reduce: reduceMin},
	AggMax:    {label: "Max", reduce: reduceMax},
	AggCount:  {label: "Count", reduce: reduceCount},
	AggStdDev: {label: "Standard Deviation", numeric: true, reduce: reduceStdDev},
}

// String returns the display label.
func (f AggFunc) String() string {
	if r, ok := reducers[f]; ok {
		return r.label
	}
	return fmt.Sprintf("AggFunc(%d)", int(f))
}

// aggAliases maps accepted spellings (lowercase) to functions.
var aggAliases = map[string]AggFunc{
	"sum":                AggSum,
	"mean":               AggMean,
	"average":            AggMean,
	"avg":                AggMean,
	"median":             AggMedian,
	"min":                AggMin,
	"max":                AggMax,
	"count":              AggCount,
	"std":                AggStdDev,
	"stddev":             AggStdDev,
	"standard deviation": AggStdDev,
	"standard-deviation": AggStdDev,
}

// ParseAggFunc resolves a UI label such as "Sum" or "Standard Deviation".
func ParseAggFunc(s string) (AggFunc, error) {
	if f, ok := aggAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("unknown aggregate function %q", s)
}

// MarshalText encodes the function as its display label.
func (f AggFunc) MarshalText() ([]byte, error) {
	if _, ok := reducers[f]; !ok {
		return nil, fmt.Errorf("unknown aggregate function %d", int(f))
	}
	return []byte(f.String()), nil
}

// floats collects the numeric payloads, skipping missing values. Callers
// have already rejected non-numbers for numeric reducers.
func floats(vals []table.Value) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if f, ok := v.Float(); ok {
			out = append(out, f)
		}
	}
	return out
}

func reduceSum(vals []table.Value) table.Value {
	var sum float64
	for _, f := range floats(vals) {
		sum += f
	}
	return table.Number(sum)
}

func reduceMean(vals []table.Value) table.Value {
	fs := floats(vals)
	if len(fs) == 0 {
		return table.Null()
	}
	var sum float64
	for _, f := range fs {
		sum += f
	}
	return table.Number(sum / float64(len(fs)))
}

func reduceMedian(vals []table.Value) table.Value {
	fs := floats(vals)
	if len(fs) == 0 {
		return table.Null()
	}
	sort.Float64s(fs)
	mid := len(fs) / 2
	if len(fs)%2 == 1 {
		return table.Number(fs[mid])
	}
	return table.Number((fs[mid-1] + fs[mid]) / 2)
}

// reduceStdDev is the sample standard deviation (n-1 denominator).
func reduceStdDev(vals []table.Value) table.Value {
	fs := floats(vals)
	if len(fs) < 2 {
		return table.Null()
	}
	var mean float64
	for _, f := range fs {
		mean += f
	}
	mean /= float64(len(fs))
	var ss float64
	for _, f := range fs {
		d := f - mean
		ss += d * d
	}
	return table.Number(math.Sqrt(ss / float64(len(fs)-1)))
}

func reduceMin(vals []table.Value) table.Value { return extreme(vals, -1) }
func reduceMax(vals []table.Value) table.Value { return extreme(vals, 1) }

// extreme returns the smallest (dir < 0) or largest (dir > 0) non-missing value.
func extreme(vals []table.Value, dir int) table.Value {
	best := table.Null()
	for _, v := range vals {
		if v.IsNull() {
			continue
		}
		if best.IsNull() || table.Compare(v, best)*dir > 0 {
			best = v
		}
	}
	return best
}

// reduceCount counts every row in the group, missing values included.
func reduceCount(vals []table.Value) table.Value {
	return table.Number(float64(len(vals)))
}
