package fastq

import (
	"bufio"
	"io"
	"unicode/utf8"

	"github.com/pkg/errors"
)

var (
	// ErrShort is returned when a truncated FASTQ file is encountered.
	ErrShort = errors.New("short FASTQ file")
	// ErrInvalid is returned when an invalid FASTQ file is encountered.
	ErrInvalid = errors.New("invalid FASTQ file")
	// ErrEncoding is returned when a sequence line is not valid UTF-8 text.
	ErrEncoding = errors.New("FASTQ sequence is not valid text")
)

// maxLineLen bounds a single FASTQ line. Long-read files can exceed
// bufio.MaxScanTokenSize.
const maxLineLen = 4 << 20

// A Read is a FASTQ read, comprising an ID, sequence, line 3
// ("unknown"), and a quality string.
type Read struct {
	ID, Seq, Unk, Qual string
}

// Name returns the read name: the ID line without the leading '@', cut at the
// first whitespace, with a trailing mate suffix ("/1" or "/2") removed. Two
// mates of an Illumina pair have the same Name but different IDs.
func (r *Read) Name() string {
	id := r.ID
	if len(id) > 0 && id[0] == '@' {
		id = id[1:]
	}
	for i := 0; i < len(id); i++ {
		if id[i] == ' ' || id[i] == '\t' {
			id = id[:i]
			break
		}
	}
	if n := len(id); n >= 2 && id[n-2] == '/' && (id[n-1] == '1' || id[n-1] == '2') {
		id = id[:n-2]
	}
	return id
}

// Field enumerates FASTQ fields. It is used to specify fields to read in
// NewScanner.
type Field uint

const (
	// ID causes the Read.ID field to be filled
	ID Field = 1 << iota
	// Seq causes the Read.Seq field to be filled
	Seq
	// Unk causes the Read.Unk field to be filled
	Unk
	// Qual causes the Read.Qual field to be filled
	Qual
	// All equals ID|Seq|Unk|Qual.
	All = ID | Seq | Unk | Qual
)

var errEOF = errors.New("eof")

// Scanner reads FASTQ records from a stream. The Scan method fills the next
// read and reports whether it succeeded. Scanners are not threadsafe.
//
// Scanner requires ID lines to begin with "@", line 3 to begin with "+", and
// the sequence line to be valid UTF-8. It does not check that seq and qual
// have equal length.
type Scanner struct {
	b      *bufio.Scanner
	err    error
	fields Field
	n      int
}

// NewScanner constructs a new Scanner that reads raw FASTQ data from the
// provided reader. Fields is a bitset of the fields to read. A typical value
// would be All or ID|Seq.
func NewScanner(r io.Reader, fields Field) *Scanner {
	b := bufio.NewScanner(r)
	b.Buffer(make([]byte, 64<<10), maxLineLen)
	return &Scanner{b: b, fields: fields}
}

// Scan the next read into the provided read. Once Scan returns false, it
// never returns true again; the caller should then check Err to tell the end
// of the stream from a failure.
func (s *Scanner) Scan(read *Read) bool {
	if s.err != nil {
		return false
	}
	if !s.b.Scan() {
		if s.err = s.b.Err(); s.err == nil {
			s.err = errEOF
		}
		return false
	}
	id := s.b.Bytes()
	if len(id) == 0 || id[0] != '@' {
		s.err = errors.Wrapf(ErrInvalid, "record %d: ID line %q", s.n, truncate(id))
		return false
	}
	if s.fields&ID != 0 {
		read.ID = string(id)
	}
	if !s.next() {
		return false
	}
	if seq := s.b.Bytes(); !utf8.Valid(seq) {
		s.err = errors.Wrapf(ErrEncoding, "record %d (%s)", s.n, read.ID)
		return false
	} else if s.fields&Seq != 0 {
		read.Seq = string(seq)
	}
	if !s.next() {
		return false
	}
	unk := s.b.Bytes()
	if len(unk) == 0 || unk[0] != '+' {
		s.err = errors.Wrapf(ErrInvalid, "record %d: separator line %q", s.n, truncate(unk))
		return false
	}
	if s.fields&Unk != 0 {
		read.Unk = string(unk)
	}
	if !s.next() {
		return false
	}
	if s.fields&Qual != 0 {
		read.Qual = s.b.Text()
	}
	s.n++
	return true
}

func (s *Scanner) next() bool {
	if s.b.Scan() {
		return true
	}
	if s.err = s.b.Err(); s.err == nil {
		s.err = ErrShort
	}
	return false
}

// Err returns the scanning error, if any.
func (s *Scanner) Err() error {
	if s.err == errEOF {
		return nil
	}
	return s.err
}

// N returns the number of complete reads scanned so far.
func (s *Scanner) N() int { return s.n }

func truncate(b []byte) string {
	if len(b) > 32 {
		return string(b[:32]) + "..."
	}
	return string(b)
}
