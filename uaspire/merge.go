package uaspire

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/uaspire/encoding/rbstable"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentPartitions bounds the number of barcode pairs written at once.
const maxConcurrentPartitions = 16

// ListChunks returns the chunk tables under layout, sorted by path.
func ListChunks(ctx context.Context, layout Layout) ([]string, error) {
	var paths []string
	lister := file.List(ctx, layout.ChunkDir(), true)
	for lister.Scan() {
		base := filepath.Base(lister.Path())
		if strings.HasPrefix(base, "chunk_") && strings.HasSuffix(base, rbstable.Extension) {
			paths = append(paths, lister.Path())
		} else {
			log.Debug.Printf("ignoring %s", lister.Path())
		}
	}
	if err := lister.Err(); err != nil {
		return nil, errors.E(err, "list chunks", layout.ChunkDir())
	}
	sort.Strings(paths)
	return paths, nil
}

// MergeChunks reads every chunk table under layout and sums the counts of
// each (barcode1, barcode2, rbs) key. The result is sorted by key and does
// not depend on how the input was chunked.
func MergeChunks(ctx context.Context, layout Layout) (*rbstable.Table, error) {
	paths, err := ListChunks(ctx, layout)
	if err != nil {
		return nil, err
	}
	tables := []*rbstable.Table{rbstable.New(CountsSchema)}
	for _, path := range paths {
		t, err := rbstable.Read(ctx, path)
		if err != nil {
			return nil, errors.E(err, "merge read-back", path)
		}
		log.Debug.Printf("read %s: %d rows", path, t.Len())
		tables = append(tables, t)
	}
	all, err := rbstable.Concat(tables...)
	if err != nil {
		return nil, errors.E(err, "merge read-back", layout.ChunkDir())
	}
	return all.GroupBySum("barcode1", "barcode2", "rbs")
}

// WritePartitions writes merged, a table with CountsSchema, as one directory
// per observed barcode pair under layout.SampleCountsDir(sample). Each
// directory gets files of at most partitionRows rows. Barcode pairs with no
// rows get no files.
//
// Files already under layout.SampleCountsDir(sample) are removed first, so
// the files of the sample always add up to merged.
func WritePartitions(ctx context.Context, layout Layout, sample string, merged *rbstable.Table, partitionRows int) error {
	if partitionRows <= 0 {
		return errors.E(errors.Invalid, "partition rows must be positive")
	}
	if err := file.RemoveAll(ctx, layout.SampleCountsDir(sample)); err != nil {
		return errors.E(err, "clear partitions", layout.SampleCountsDir(sample))
	}
	pairs, err := merged.Distinct("barcode1", "barcode2")
	if err != nil {
		return errors.E(err, "partition write")
	}
	eg := errgroup.Group{}
	eg.SetLimit(maxConcurrentPartitions)
	for _, pair := range pairs {
		s := Sample{Barcode1: pair[0], Barcode2: pair[1]}
		eg.Go(func() error {
			return writePartition(ctx, layout, sample, s, merged, partitionRows)
		})
	}
	return eg.Wait()
}

func writePartition(ctx context.Context, layout Layout, sample string, s Sample, merged *rbstable.Table, partitionRows int) error {
	rows, err := merged.FilterEquals("barcode1", s.Barcode1)
	if err == nil {
		rows, err = rows.FilterEquals("barcode2", s.Barcode2)
	}
	if err != nil {
		return errors.E(err, "partition write", s.Barcode1, s.Barcode2)
	}
	pieces := rows.Split(partitionRows)
	if len(pieces) == 0 {
		return nil
	}
	dir := layout.PartitionDir(sample, s)
	for i, piece := range pieces {
		path := PartPath(dir, i, len(pieces))
		if err := rbstable.Write(ctx, path, piece); err != nil {
			return errors.E(err, "partition write", path)
		}
	}
	log.Debug.Printf("%s: wrote %d rows in %d files", dir, rows.Len(), len(pieces))
	return nil
}

// RemoveChunks deletes the chunk tables under layout.
func RemoveChunks(ctx context.Context, layout Layout) error {
	paths, err := ListChunks(ctx, layout)
	if err != nil {
		return err
	}
	for _, path := range paths {
		if err := file.Remove(ctx, path); err != nil {
			return errors.E(err, "remove chunk", path)
		}
	}
	return nil
}

// Merge combines the chunk tables under layout and writes the per barcode
// pair partitions of sample. The chunk tables are left in place.
func Merge(ctx context.Context, layout Layout, sample string, partitionRows int) error {
	merged, err := MergeChunks(ctx, layout)
	if err != nil {
		return err
	}
	log.Printf("%s: merged %d count rows", sample, merged.Len())
	return WritePartitions(ctx, layout, sample, merged, partitionRows)
}
