package uaspire

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/grailbio/base/errors"
)

// Layout names the files of one run under an output root:
//
//   <root>/tmp/rio/chunk_<9 digits>.rio
//   <root>/data/qc/sample=<name>/part-0.rio
//   <root>/data/qc/sample=<name>/read_counts.tsv
//   <root>/data/counts/sample=<name>/barcode1=<b1>/barcode2=<b2>/part-<n>.rio
type Layout struct {
	Root string
}

// ChunkDir is where per-chunk count tables are written.
func (l Layout) ChunkDir() string { return filepath.Join(l.Root, "tmp", "rio") }

// ChunkPath returns the path of the i'th chunk table.
func (l Layout) ChunkPath(i int) string {
	return filepath.Join(l.ChunkDir(), fmt.Sprintf("chunk_%09d.rio", i))
}

// CountsDir is the root of the partitioned count tables.
func (l Layout) CountsDir() string { return filepath.Join(l.Root, "data", "counts") }

// QCDir is the root of the QC tables.
func (l Layout) QCDir() string { return filepath.Join(l.Root, "data", "qc") }

// SampleCountsDir returns the directory holding all count partitions of sample.
func (l Layout) SampleCountsDir(sample string) string {
	return filepath.Join(l.CountsDir(), "sample="+sample)
}

// PartitionDir returns the directory of one barcode pair of sample.
func (l Layout) PartitionDir(sample string, s Sample) string {
	return filepath.Join(l.SampleCountsDir(sample), "barcode1="+s.Barcode1, "barcode2="+s.Barcode2)
}

// PartPath returns the path of piece i of n in dir. Piece numbers are
// zero-padded to the width of n-1.
func PartPath(dir string, i, n int) string {
	width := len(strconv.Itoa(n - 1))
	return filepath.Join(dir, fmt.Sprintf("part-%0*d.rio", width, i))
}

// SampleQCDir returns the QC directory of sample.
func (l Layout) SampleQCDir(sample string) string {
	return filepath.Join(l.QCDir(), "sample="+sample)
}

// Create makes the layout's directories. Existing directories are reused.
func (l Layout) Create() error {
	for _, dir := range []string{l.ChunkDir(), l.CountsDir(), l.QCDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.E(err, "create layout", dir)
		}
	}
	return nil
}
