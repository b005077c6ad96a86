package core

// Row is an ordered mapping from column name to Value.
// Columns keep the order in which they were first set, which for rows read
// by a connector is the cursor's column order.
// The zero Row is empty and ready to use.
type Row struct {
	columns []string
	values  map[string]Value
}

// NewRow builds a row from parallel column and value slices.
// Extra columns or values beyond the shorter slice are ignored.
func NewRow(columns []string, values []Value) Row {
	n := min(len(columns), len(values))
	r := Row{
		columns: make([]string, 0, n),
		values:  make(map[string]Value, n),
	}
	for i := 0; i < n; i++ {
		r.Set(columns[i], values[i])
	}
	return r
}

// Set assigns v to column. An existing column keeps its position.
func (r *Row) Set(column string, v Value) {
	if r.values == nil {
		r.values = make(map[string]Value)
	}
	if _, ok := r.values[column]; !ok {
		r.columns = append(r.columns, column)
	}
	r.values[column] = v
}

// Get returns the value for column.
func (r Row) Get(column string) (Value, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Columns returns the column names in order.
func (r Row) Columns() []string {
	out := make([]string, len(r.columns))
	copy(out, r.columns)
	return out
}

// Values returns the values in column order.
func (r Row) Values() []Value {
	out := make([]Value, len(r.columns))
	for i, c := range r.columns {
		out[i] = r.values[c]
	}
	return out
}

// Args returns the values in column order as database/sql arguments.
func (r Row) Args() []any {
	out := make([]any, len(r.columns))
	for i, c := range r.columns {
		out[i] = r.values[c].Arg()
	}
	return out
}

// Len returns the number of columns.
func (r Row) Len() int {
	return len(r.columns)
}
