package transfer

import (
	"fmt"
	"math"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/leapstack-labs/sqlbridge/pkg/core"
)

// bounds is the smallest and largest non-null value of one column.
type bounds struct {
	min decimal.Decimal
	max decimal.Decimal
}

func (b bounds) equal(o bounds) bool {
	return b.min.Equal(o.min) && b.max.Equal(o.max)
}

func (b bounds) String() string {
	return fmt.Sprintf("min %s max %s", b.min, b.max)
}

// columnBounds returns MIN and MAX for every numeric column in rows. A column
// is numeric when all of its non-null values are Int, Float or Text holding a
// decimal number. DECIMAL and MONEY arrive as Text, so comparison is exact and
// ignores scale ("19.9900" equals "19.99").
func columnBounds(rows []core.Row) map[string]bounds {
	out := make(map[string]bounds)
	excluded := make(map[string]bool)

	for _, row := range rows {
		for _, col := range row.Columns() {
			if excluded[col] {
				continue
			}
			v, _ := row.Get(col)
			if v.IsNull() {
				continue
			}
			d, ok := toDecimal(v)
			if !ok {
				excluded[col] = true
				delete(out, col)
				continue
			}
			b, seen := out[col]
			if !seen {
				out[col] = bounds{min: d, max: d}
				continue
			}
			if d.LessThan(b.min) {
				b.min = d
			}
			if d.GreaterThan(b.max) {
				b.max = d
			}
			out[col] = b
		}
	}
	return out
}

func toDecimal(v core.Value) (decimal.Decimal, bool) {
	switch v.Kind() {
	case core.ValueInt:
		n, _ := v.AsInt()
		return decimal.NewFromInt(n), true
	case core.ValueFloat:
		f, _ := v.AsFloat()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(f), true
	case core.ValueText:
		s, _ := v.AsText()
		d, err := decimal.NewFromString(s)
		return d, err == nil
	default:
		return decimal.Decimal{}, false
	}
}

// compareExtremes checks every numeric source column against the same column
// on the target. It returns the number of columns compared and a description
// of the first difference, or "" when all match.
func compareExtremes(source, target []core.Row) (int, string) {
	src := columnBounds(source)
	tgt := columnBounds(target)

	cols := make([]string, 0, len(src))
	for col := range src {
		cols = append(cols, col)
	}
	slices.Sort(cols)

	var mismatched []string
	for _, col := range cols {
		t, ok := tgt[col]
		switch {
		case !ok:
			mismatched = append(mismatched, fmt.Sprintf("column %s: source %s, target has no numeric values", col, src[col]))
		case !src[col].equal(t):
			mismatched = append(mismatched, fmt.Sprintf("column %s: source %s, target %s", col, src[col], t))
		}
	}

	switch len(mismatched) {
	case 0:
		return len(cols), ""
	case 1:
		return len(cols), mismatched[0]
	default:
		return len(cols), fmt.Sprintf("%s (and %d more columns)", mismatched[0], len(mismatched)-1)
	}
}
