package fastq

import (
	"io"

	"github.com/pkg/errors"
)

var (
	// ErrDiscordant is returned when one of two paired FASTQ files ends before
	// the other.
	ErrDiscordant = errors.New("discordant FASTQ pairs")
	// ErrIDMismatch is returned when the two reads at the same position of a
	// pair of FASTQ files have different names.
	ErrIDMismatch = errors.New("FASTQ pair read names differ")
)

// PairScanner composes a pair of scanners to scan a pair of FASTQ
// streams in lockstep.
type PairScanner struct {
	r1, r2 *Scanner
	err    error
}

// NewPairScanner creates a new FASTQ pair scanner from the provided
// R1 and R2 readers. ID is always read, since the pair is checked for name
// agreement.
func NewPairScanner(r1, r2 io.Reader, fields Field) *PairScanner {
	return &PairScanner{
		r1: NewScanner(r1, fields|ID),
		r2: NewScanner(r2, fields|ID),
	}
}

// Scan scans the next read pair into r1, r2. Once Scan returns false, it
// never returns true again; check Err afterwards. Scan fails with
// ErrDiscordant if exactly one stream is exhausted and with ErrIDMismatch if
// the two reads do not share a name.
func (p *PairScanner) Scan(r1, r2 *Read) bool {
	if p.err != nil {
		return false
	}
	ok1 := p.r1.Scan(r1)
	ok2 := p.r2.Scan(r2)
	if ok1 != ok2 {
		if p.r1.Err() == nil && p.r2.Err() == nil {
			p.err = errors.Wrapf(ErrDiscordant, "R1 has %d reads, R2 has %d reads so far", p.r1.N(), p.r2.N())
		}
		return false
	}
	if !ok1 {
		return false
	}
	if n1, n2 := r1.Name(), r2.Name(); n1 != n2 {
		p.err = errors.Wrapf(ErrIDMismatch, "read %d: %q vs %q", p.r1.N()-1, n1, n2)
		return false
	}
	return true
}

// Err returns the scanning error, if any. It should be checked
// after Scan returns false.
func (p *PairScanner) Err() error {
	if err := p.r1.Err(); err != nil {
		return errors.Wrap(err, "R1")
	}
	if err := p.r2.Err(); err != nil {
		return errors.Wrap(err, "R2")
	}
	return p.err
}

// Pair is one R1/R2 read pair.
type Pair struct {
	R1, R2 Read
}

// ChunkReader pulls fixed-size batches of read pairs from a PairScanner.
type ChunkReader struct {
	sc  *PairScanner
	buf []Pair
}

// NewChunkReader creates a ChunkReader on top of sc.
func NewChunkReader(sc *PairScanner) *ChunkReader {
	return &ChunkReader{sc: sc}
}

// Next returns up to n read pairs. It returns an empty slice and a nil error
// at the end of input. The returned slice is reused by the following call to
// Next, so the caller must finish with it first.
func (c *ChunkReader) Next(n int) ([]Pair, error) {
	if n <= 0 {
		return nil, errors.Errorf("chunk size must be positive, got %d", n)
	}
	if cap(c.buf) < n {
		c.buf = make([]Pair, n)
	}
	c.buf = c.buf[:n]
	i := 0
	for i < n {
		p := &c.buf[i]
		if !c.sc.Scan(&p.R1, &p.R2) {
			break
		}
		i++
	}
	if err := c.sc.Err(); err != nil {
		return nil, err
	}
	return c.buf[:i], nil
}
