// Package frame is a small column-oriented table used at the edges of the
// pipeline, where column names are not known until runtime: provider
// responses and parquet files written by other tools. Typed records take over
// once the schema has been validated.
package frame

import "fmt"

// Frame is an ordered set of equally long, named columns holding loosely
// typed values. A nil value is a null.
type Frame struct {
	names []string
	cols  map[string][]any
	rows  int
}

// New returns an empty frame with the given columns.
func New(names ...string) *Frame {
	f := &Frame{cols: make(map[string][]any, len(names))}
	for _, n := range names {
		if _, ok := f.cols[n]; ok {
			continue
		}
		f.names = append(f.names, n)
		f.cols[n] = nil
	}
	return f
}

// Len returns the number of rows.
func (f *Frame) Len() int { return f.rows }

// Empty reports whether the frame has no rows.
func (f *Frame) Empty() bool { return f.rows == 0 }

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Has reports whether the named column exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.cols[name]
	return ok
}

// Column returns the values of the named column, or nil if it is absent.
func (f *Frame) Column(name string) []any {
	return f.cols[name]
}

// Value returns the value at row i of the named column; absent columns read
// as null.
func (f *Frame) Value(name string, i int) any {
	col, ok := f.cols[name]
	if !ok || i >= len(col) {
		return nil
	}
	return col[i]
}

// AppendRow adds one row; values are matched to columns by position.
func (f *Frame) AppendRow(values ...any) error {
	if len(values) != len(f.names) {
		return fmt.Errorf("frame: row has %d values, want %d", len(values), len(f.names))
	}
	for i, n := range f.names {
		f.cols[n] = append(f.cols[n], values[i])
	}
	f.rows++
	return nil
}

// SetColumn adds or replaces a column. Its length must match the frame
// unless the frame has no columns yet.
func (f *Frame) SetColumn(name string, values []any) error {
	if len(f.names) > 0 && len(values) != f.rows {
		return fmt.Errorf("frame: column %q has %d values, want %d", name, len(values), f.rows)
	}
	if _, ok := f.cols[name]; !ok {
		f.names = append(f.names, name)
	}
	f.cols[name] = values
	f.rows = len(values)
	return nil
}

// Rename renames columns present in the mapping. A rename onto a column that
// already exists is ignored so no data is silently dropped.
func (f *Frame) Rename(mapping map[string]string) {
	for i, old := range f.names {
		to, ok := mapping[old]
		if !ok || to == old {
			continue
		}
		if _, exists := f.cols[to]; exists {
			continue
		}
		f.cols[to] = f.cols[old]
		delete(f.cols, old)
		f.names[i] = to
	}
}

// Concat appends the rows of other. Columns missing on either side are
// filled with nulls; new columns are added after the existing ones.
func (f *Frame) Concat(other *Frame) {
	if other == nil {
		return
	}
	for _, n := range other.names {
		if _, ok := f.cols[n]; !ok {
			f.names = append(f.names, n)
			f.cols[n] = make([]any, f.rows)
		}
	}
	for _, n := range f.names {
		src, ok := other.cols[n]
		if !ok {
			src = make([]any, other.rows)
		}
		f.cols[n] = append(f.cols[n], src...)
	}
	f.rows += other.rows
}
