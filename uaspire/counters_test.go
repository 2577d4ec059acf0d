package uaspire

import (
	"fmt"
	"sync"
	"testing"

	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/assert"
)

func checkInvariant(t *testing.T, s CountersSnapshot) {
	t.Helper()
	sum := s.Valid
	for _, n := range s.Failures {
		sum += n
	}
	expect.EQ(t, s.Total, sum)
}

func TestCountersConcurrent(t *testing.T) {
	cfg := DefaultConfig()
	pairs := mixedPairs(500)
	c := &Counters{}
	const workers = 8
	wg := sync.WaitGroup{}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := w; i < len(pairs); i += workers {
				c.Record(Classify(pairs[i].seq1, pairs[i].seq2, &cfg))
			}
		}(w)
	}
	wg.Wait()
	s := c.Snapshot()
	checkInvariant(t, s)
	expect.EQ(t, s.Total, uint64(len(pairs)))
	for _, r := range FailReasons {
		expect.True(t, s.Failed(r) > 0, "no %v failures", r)
	}
	expect.True(t, s.Valid > 0)
}

func TestCountersTable(t *testing.T) {
	c := &Counters{}
	c.Record(Result{Reason: OK})
	c.Record(Result{Reason: DiscPos})
	c.Record(Result{Reason: DiscPos})
	c.Record(Result{Reason: BaseCalls})
	tab := c.Snapshot().Table()
	expect.EQ(t, tab.Strings("reason"), []string{
		"total", "valid", "base_calls", "constant_seq", "constant_pos",
		"barcode1", "barcode2", "disc_seq", "disc_pos"})
	expect.EQ(t, tab.Uint64s("count"), []uint64{4, 1, 1, 0, 0, 0, 0, 0, 2})
	assert.Panics(t, func() { c.AddFailure(OK) })
}

func TestCountersSnapshotMerge(t *testing.T) {
	var a, b Counters
	a.Record(Result{Reason: OK})
	b.Record(Result{Reason: Barcode1})
	s := a.Snapshot()
	s.Merge(b.Snapshot())
	checkInvariant(t, s)
	expect.EQ(t, s.Total, uint64(2))
	expect.EQ(t, s.Failed(Barcode1), uint64(1))
	expect.EQ(t, s.Failed(OK), uint64(0))
}

func TestSampleTableConcurrent(t *testing.T) {
	table := NewSampleTable()
	sample := Sample{"ATCACG", "CGATGT"}
	const (
		workers = 16
		perWork = 1000
	)
	wg := sync.WaitGroup{}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWork; i++ {
				table.Add(sample, rbsVariants[i%2], (i+w)%4 == 0)
			}
		}(w)
	}
	wg.Wait()
	expect.EQ(t, table.Len(), 2)
	snap := table.Snapshot()
	expect.EQ(t, snap.Len(), 2)
	var total uint64
	for _, col := range []string{"non_flipped_count", "flipped_count"} {
		for _, n := range snap.Uint64s(col) {
			total += n
		}
	}
	expect.EQ(t, total, uint64(workers*perWork))
}

func TestSampleTableSnapshot(t *testing.T) {
	table := NewSampleTable()
	for i := 0; i < 100; i++ {
		s := Sample{defaultBarcodes[i%6], defaultBarcodes[(i/6)%6]}
		table.Add(s, fmt.Sprintf("%017d", i%10), i%3 == 0)
	}
	expect.True(t, table.Record(Result{Reason: OK, Sample: Sample{"A", "B"}, RBS: "C"}))
	expect.False(t, table.Record(Result{Reason: Barcode1}))

	snap := table.Snapshot()
	expect.EQ(t, snap.Len(), table.Len())
	merged, err := snap.GroupBySum("barcode1", "barcode2", "rbs")
	expect.NoError(t, err)
	// Keys are unique in a snapshot.
	expect.EQ(t, merged.Len(), snap.Len())
}
