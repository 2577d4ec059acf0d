package uaspire

import (
	"fmt"
	"sync/atomic"

	"github.com/grailbio/uaspire/encoding/rbstable"
)

// Counters accumulates per-run classification totals. It is safe for
// concurrent use. Every classified pair bumps total once and exactly one of
// valid or a failure counter, so total == valid + sum(failures) once all
// in-flight Record calls return.
type Counters struct {
	total    atomic.Uint64
	valid    atomic.Uint64
	failures [NumFailReasons]atomic.Uint64
}

// AddTotal counts one classified pair.
func (c *Counters) AddTotal() { c.total.Add(1) }

// AddValid counts one accepted pair.
func (c *Counters) AddValid() { c.valid.Add(1) }

// AddFailure counts one rejected pair. It panics if reason is OK.
func (c *Counters) AddFailure(reason FailReason) {
	if reason == OK || reason >= numReasons {
		panic(fmt.Sprintf("AddFailure: not a failure: %v", reason))
	}
	c.failures[reason-1].Add(1)
}

// Record counts the outcome of one Classify call.
func (c *Counters) Record(r Result) {
	c.AddTotal()
	if r.Reason == OK {
		c.AddValid()
		return
	}
	c.AddFailure(r.Reason)
}

// Snapshot returns the current values. Concurrent Record calls may be
// partially reflected.
func (c *Counters) Snapshot() CountersSnapshot {
	s := CountersSnapshot{
		Total: c.total.Load(),
		Valid: c.valid.Load(),
	}
	for i := range c.failures {
		s.Failures[i] = c.failures[i].Load()
	}
	return s
}

// CountersSnapshot is a point-in-time copy of Counters.
type CountersSnapshot struct {
	Total    uint64
	Valid    uint64
	Failures [NumFailReasons]uint64
}

// Failed returns the count for one failure reason.
func (s CountersSnapshot) Failed(reason FailReason) uint64 {
	if reason == OK || reason >= numReasons {
		return 0
	}
	return s.Failures[reason-1]
}

// Merge adds the counts of o to s.
func (s *CountersSnapshot) Merge(o CountersSnapshot) {
	s.Total += o.Total
	s.Valid += o.Valid
	for i := range s.Failures {
		s.Failures[i] += o.Failures[i]
	}
}

// QCSchema is the schema of the QC table.
var QCSchema = rbstable.Schema{
	{Name: "reason", Kind: rbstable.String},
	{Name: "count", Kind: rbstable.Uint64},
}

// Table returns the snapshot as a (reason, count) table. Rows are total,
// valid, then the failure reasons in declared order.
func (s CountersSnapshot) Table() *rbstable.Table {
	t := rbstable.New(QCSchema)
	t.AppendRow([]string{"total"}, []uint64{s.Total})
	t.AppendRow([]string{"valid"}, []uint64{s.Valid})
	for i, r := range FailReasons {
		t.AppendRow([]string{r.String()}, []uint64{s.Failures[i]})
	}
	return t
}

func (s CountersSnapshot) String() string {
	str := fmt.Sprintf("total=%d valid=%d", s.Total, s.Valid)
	for i, r := range FailReasons {
		str += fmt.Sprintf(" %v=%d", r, s.Failures[i])
	}
	return str
}
