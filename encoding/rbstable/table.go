// Package rbstable implements a small in-memory columnar table with string key
// columns and uint64 count columns, plus a recordio-based file format for it.
//
// It provides the handful of relational operations the RBS counting pipeline
// needs: concatenation, group-by-sum, equality filtering, distinct key
// enumeration and splitting into size-bounded pieces.
package rbstable

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/biogo/store/llrb"
	"github.com/grailbio/base/errors"
)

// Kind is the value type of a column.
type Kind uint8

const (
	// String columns hold arbitrary strings. Only string columns can be
	// grouping keys.
	String Kind = iota
	// Uint64 columns hold counts. GroupBySum sums them.
	Uint64
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Uint64:
		return "uint64"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Column describes one column of a table.
type Column struct {
	Name string
	Kind Kind
}

// Schema is an ordered list of columns.
type Schema []Column

// Index returns the position of the named column, or -1.
func (s Schema) Index(name string) int {
	for i, c := range s {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Equal reports whether two schemas have the same columns in the same order.
func (s Schema) Equal(o Schema) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// String encodes the schema as "name:kind,name:kind,...". ParseSchema is its
// inverse.
func (s Schema) String() string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = c.Name + ":" + c.Kind.String()
	}
	return strings.Join(parts, ",")
}

// ParseSchema parses the output of Schema.String.
func ParseSchema(str string) (Schema, error) {
	if str == "" {
		return nil, errors.E(errors.Invalid, "empty schema")
	}
	var s Schema
	for _, part := range strings.Split(str, ",") {
		i := strings.LastIndexByte(part, ':')
		if i <= 0 {
			return nil, errors.E(errors.Invalid, "malformed schema column", part)
		}
		c := Column{Name: part[:i]}
		switch part[i+1:] {
		case "string":
			c.Kind = String
		case "uint64":
			c.Kind = Uint64
		default:
			return nil, errors.E(errors.Invalid, "unknown column kind", part)
		}
		if s.Index(c.Name) >= 0 {
			return nil, errors.E(errors.Invalid, "duplicate column", c.Name)
		}
		s = append(s, c)
	}
	return s, nil
}

// column stores the values of one column. Exactly one of strs, nums is used,
// depending on the column kind.
type column struct {
	strs []string
	nums []uint64
}

// Table is a columnar table. The zero value is not usable; use New.
type Table struct {
	schema Schema
	cols   []column
	n      int
}

// New creates an empty table with the given schema.
func New(schema Schema) *Table {
	return &Table{schema: schema, cols: make([]column, len(schema))}
}

// Schema returns the table's schema.
func (t *Table) Schema() Schema { return t.schema }

// Len returns the number of rows.
func (t *Table) Len() int { return t.n }

// AppendRow adds one row. strs holds the values of the string columns and nums
// the values of the uint64 columns, each in schema order.
func (t *Table) AppendRow(strs []string, nums []uint64) {
	si, ni := 0, 0
	for i, c := range t.schema {
		switch c.Kind {
		case String:
			t.cols[i].strs = append(t.cols[i].strs, strs[si])
			si++
		case Uint64:
			t.cols[i].nums = append(t.cols[i].nums, nums[ni])
			ni++
		}
	}
	if si != len(strs) || ni != len(nums) {
		panic(fmt.Sprintf("rbstable: row has %d strings and %d numbers, schema %v", len(strs), len(nums), t.schema))
	}
	t.n++
}

// Strings returns the values of the named string column, or nil if there is
// no such column. The slice must not be modified.
func (t *Table) Strings(name string) []string {
	i := t.schema.Index(name)
	if i < 0 || t.schema[i].Kind != String {
		return nil
	}
	return t.cols[i].strs[:t.n:t.n]
}

// Uint64s returns the values of the named uint64 column, or nil if there is no
// such column. The slice must not be modified.
func (t *Table) Uint64s(name string) []uint64 {
	i := t.schema.Index(name)
	if i < 0 || t.schema[i].Kind != Uint64 {
		return nil
	}
	return t.cols[i].nums[:t.n:t.n]
}

// Row returns row i with every value formatted as a string, in schema order.
func (t *Table) Row(i int) []string {
	row := make([]string, len(t.schema))
	for c, col := range t.schema {
		if col.Kind == String {
			row[c] = t.cols[c].strs[i]
		} else {
			row[c] = strconv.FormatUint(t.cols[c].nums[i], 10)
		}
	}
	return row
}

// appendFrom copies row i of src, which must have the same schema, into t.
func (t *Table) appendFrom(src *Table, i int) {
	for c := range t.cols {
		if t.schema[c].Kind == String {
			t.cols[c].strs = append(t.cols[c].strs, src.cols[c].strs[i])
		} else {
			t.cols[c].nums = append(t.cols[c].nums, src.cols[c].nums[i])
		}
	}
	t.n++
}

// Slice returns a table holding rows [start, end). The result shares storage
// with t.
func (t *Table) Slice(start, end int) *Table {
	s := &Table{schema: t.schema, cols: make([]column, len(t.cols)), n: end - start}
	for c := range t.cols {
		if t.schema[c].Kind == String {
			s.cols[c].strs = t.cols[c].strs[start:end:end]
		} else {
			s.cols[c].nums = t.cols[c].nums[start:end:end]
		}
	}
	return s
}

// Split cuts the table into consecutive pieces of at most maxRows rows. An
// empty table yields no pieces.
func (t *Table) Split(maxRows int) []*Table {
	if maxRows <= 0 {
		panic(fmt.Sprintf("rbstable: split size must be positive, got %d", maxRows))
	}
	var pieces []*Table
	for start := 0; start < t.n; start += maxRows {
		end := start + maxRows
		if end > t.n {
			end = t.n
		}
		pieces = append(pieces, t.Slice(start, end))
	}
	return pieces
}

// Concat concatenates tables that share a schema. Tables may be empty but not
// nil. At least one table is required.
func Concat(tables ...*Table) (*Table, error) {
	if len(tables) == 0 {
		return nil, errors.E(errors.Invalid, "concat: no tables")
	}
	out := New(tables[0].schema)
	for _, t := range tables {
		if !t.schema.Equal(out.schema) {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("concat: schema %v does not match %v", t.schema, out.schema))
		}
		for c := range out.cols {
			if out.schema[c].Kind == String {
				out.cols[c].strs = append(out.cols[c].strs, t.cols[c].strs[:t.n]...)
			} else {
				out.cols[c].nums = append(out.cols[c].nums, t.cols[c].nums[:t.n]...)
			}
		}
		out.n += t.n
	}
	return out, nil
}

// stringColumns resolves names to column indexes, requiring string columns.
func (t *Table) stringColumns(names []string) ([]int, error) {
	if len(names) == 0 {
		return nil, errors.E(errors.Invalid, "no key columns")
	}
	idx := make([]int, len(names))
	for i, name := range names {
		c := t.schema.Index(name)
		if c < 0 {
			return nil, errors.E(errors.NotExist, "no such column", name)
		}
		if t.schema[c].Kind != String {
			return nil, errors.E(errors.Invalid, "key column must be a string column", name)
		}
		idx[i] = c
	}
	return idx, nil
}

// group is one llrb entry: a tuple of key values and, for GroupBySum, the
// running sums of the count columns.
type group struct {
	keys []string
	sums []uint64
}

// Compare implements llrb.Comparable. Groups order lexicographically by key.
func (g *group) Compare(c llrb.Comparable) int {
	o := c.(*group)
	for i := range g.keys {
		if d := strings.Compare(g.keys[i], o.keys[i]); d != 0 {
			return d
		}
	}
	return 0
}

// groups collects the distinct key tuples of t. If sum is set, the uint64
// columns (listed in numCols) are summed per tuple.
func (t *Table) groups(keyCols, numCols []int, sum bool) *llrb.Tree {
	tree := &llrb.Tree{}
	probe := &group{keys: make([]string, len(keyCols))}
	for i := 0; i < t.n; i++ {
		for k, c := range keyCols {
			probe.keys[k] = t.cols[c].strs[i]
		}
		var g *group
		if found := tree.Get(probe); found != nil {
			g = found.(*group)
		} else {
			g = &group{keys: append([]string(nil), probe.keys...)}
			if sum {
				g.sums = make([]uint64, len(numCols))
			}
			tree.Insert(g)
		}
		if sum {
			for k, c := range numCols {
				g.sums[k] += t.cols[c].nums[i]
			}
		}
	}
	return tree
}

// GroupBySum groups rows by the given string columns and sums every uint64
// column within each group. The result has the key columns followed by the
// uint64 columns, and is sorted by key. String columns that are not keys are
// dropped.
func (t *Table) GroupBySum(keys ...string) (*Table, error) {
	keyCols, err := t.stringColumns(keys)
	if err != nil {
		return nil, errors.E(err, "groupbysum")
	}
	var (
		schema  Schema
		numCols []int
	)
	for _, c := range keyCols {
		schema = append(schema, t.schema[c])
	}
	for c, col := range t.schema {
		if col.Kind == Uint64 {
			schema = append(schema, col)
			numCols = append(numCols, c)
		}
	}
	out := New(schema)
	t.groups(keyCols, numCols, true).Do(func(c llrb.Comparable) bool {
		g := c.(*group)
		out.AppendRow(g.keys, g.sums)
		return false
	})
	return out, nil
}

// Distinct returns the distinct value tuples of the given string columns,
// sorted.
func (t *Table) Distinct(cols ...string) ([][]string, error) {
	keyCols, err := t.stringColumns(cols)
	if err != nil {
		return nil, errors.E(err, "distinct")
	}
	var out [][]string
	t.groups(keyCols, nil, false).Do(func(c llrb.Comparable) bool {
		out = append(out, c.(*group).keys)
		return false
	})
	return out, nil
}

// FilterEquals returns the rows whose string column name equals value.
func (t *Table) FilterEquals(name, value string) (*Table, error) {
	idx, err := t.stringColumns([]string{name})
	if err != nil {
		return nil, errors.E(err, "filter")
	}
	vals := t.cols[idx[0]].strs
	out := New(t.schema)
	for i := 0; i < t.n; i++ {
		if vals[i] == value {
			out.appendFrom(t, i)
		}
	}
	return out, nil
}
