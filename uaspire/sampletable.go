package uaspire

import (
	"sync"
	"sync/atomic"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/base/unsafe"
	"github.com/grailbio/uaspire/encoding/rbstable"
)

const numSampleTableShards = 1024

// Cell holds the counts of one (sample, rbs) key.
type Cell struct {
	NonFlipped atomic.Uint64
	Flipped    atomic.Uint64
}

type tableShard struct {
	mu      sync.Mutex
	samples map[Sample]map[string]*Cell
}

// SampleTable is a sharded, thread-safe map from (sample, rbs) to Cell. A key
// lives in exactly one shard, chosen by hashing the key, and its cell is
// created under that shard's lock. Counts are bumped with atomics.
type SampleTable struct {
	shards [numSampleTableShards]tableShard
}

// NewSampleTable creates an empty table.
func NewSampleTable() *SampleTable {
	t := &SampleTable{}
	for i := range t.shards {
		t.shards[i].samples = make(map[Sample]map[string]*Cell)
	}
	return t
}

func shardIndex(sample Sample, rbs string) int {
	// The barcodes have a fixed length, so plain concatenation is unambiguous
	// enough for picking a shard.
	h := seahash.Sum64(unsafe.StringToBytes(sample.Barcode1 + sample.Barcode2 + rbs))
	return int(h % uint64(numSampleTableShards))
}

// cell returns the cell for the key, creating it if needed.
func (t *SampleTable) cell(sample Sample, rbs string) *Cell {
	shard := &t.shards[shardIndex(sample, rbs)]
	shard.mu.Lock()
	rbsMap, ok := shard.samples[sample]
	if !ok {
		rbsMap = make(map[string]*Cell)
		shard.samples[sample] = rbsMap
	}
	c, ok := rbsMap[rbs]
	if !ok {
		c = &Cell{}
		rbsMap[rbs] = c
	}
	shard.mu.Unlock()
	return c
}

// Add counts one accepted read pair.
func (t *SampleTable) Add(sample Sample, rbs string, flipped bool) {
	c := t.cell(sample, rbs)
	if flipped {
		c.Flipped.Add(1)
	} else {
		c.NonFlipped.Add(1)
	}
}

// Record adds r if it is an accepted result. It reports whether r was added.
func (t *SampleTable) Record(r Result) bool {
	if r.Reason != OK {
		return false
	}
	t.Add(r.Sample, r.RBS, r.Flipped)
	return true
}

// Len returns the number of cells. It is exact iff no other thread is
// accessing the table.
func (t *SampleTable) Len() int {
	n := 0
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.Lock()
		for _, m := range s.samples {
			n += len(m)
		}
		s.mu.Unlock()
	}
	return n
}

// CountsSchema is the schema of per-chunk and merged count tables.
var CountsSchema = rbstable.Schema{
	{Name: "barcode1", Kind: rbstable.String},
	{Name: "barcode2", Kind: rbstable.String},
	{Name: "rbs", Kind: rbstable.String},
	{Name: "non_flipped_count", Kind: rbstable.Uint64},
	{Name: "flipped_count", Kind: rbstable.Uint64},
}

// Snapshot returns the table's contents as rows of CountsSchema. Shards are
// locked one at a time. Row order is unspecified.
func (t *SampleTable) Snapshot() *rbstable.Table {
	out := rbstable.New(CountsSchema)
	strs := make([]string, 3)
	nums := make([]uint64, 2)
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.Lock()
		for sample, rbsMap := range s.samples {
			for rbs, c := range rbsMap {
				strs[0], strs[1], strs[2] = sample.Barcode1, sample.Barcode2, rbs
				nums[0], nums[1] = c.NonFlipped.Load(), c.Flipped.Load()
				out.AppendRow(strs, nums)
			}
		}
		s.mu.Unlock()
	}
	return out
}
