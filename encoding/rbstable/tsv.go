package rbstable

import (
	"io"

	"github.com/grailbio/base/tsv"
)

// WriteTSV writes the table as TSV to w: a header line with the column names
// followed by one line per row.
func WriteTSV(w io.Writer, t *Table) (err error) {
	out := tsv.NewWriter(w)
	for _, c := range t.schema {
		out.WriteString(c.Name)
	}
	if err = out.EndLine(); err != nil {
		return
	}
	for i := 0; i < t.n; i++ {
		for _, v := range t.Row(i) {
			out.WriteString(v)
		}
		if err = out.EndLine(); err != nil {
			return
		}
	}
	return out.Flush()
}
