package rbstable

// This file defines the on-disk format of a table. A table file is a recordio
// file compressed with zstd. Each record holds one block of one column:
//
//   uvarint column index
//   uvarint number of rows in the block
//   values
//
// String values are prefix-delta encoded against the previous value in the
// block (uvarint shared prefix length, uvarint suffix length, suffix bytes).
// Uint64 values are uvarints. The schema is stored in the recordio header and
// the trailer holds the format version, the row count and a checksum over all
// record payloads.

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	farm "github.com/dgryski/go-farm"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/recordio"
	"github.com/grailbio/base/recordio/recordiozstd"
)

const (
	// Extension is the file name suffix of table files.
	Extension = ".rio"

	versionHeader = "rbstable.version"
	schemaHeader  = "rbstable.schema"
	version       = "RBT1"

	trailerVersion = 1

	// blockRows is the max number of rows per column block.
	blockRows = 1 << 16
)

// WriteOpts configures Write.
type WriteOpts struct {
	// BlockRows is the max number of rows per column block. Zero means 64Ki.
	BlockRows int
}

// Write writes the table to path, replacing any existing file.
func Write(ctx context.Context, path string, t *Table) error {
	return WriteWithOpts(ctx, path, t, WriteOpts{})
}

// WriteWithOpts is Write with explicit options.
func WriteWithOpts(ctx context.Context, path string, t *Table, opts WriteOpts) (err error) {
	if opts.BlockRows <= 0 {
		opts.BlockRows = blockRows
	}
	recordiozstd.Init()
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create", path)
	}
	defer file.CloseAndReport(ctx, out, &err)
	if err = Encode(out.Writer(ctx), t, opts); err != nil {
		return errors.E(err, "write", path)
	}
	return nil
}

// Encode writes the table to w in the table file format.
func Encode(w io.Writer, t *Table, opts WriteOpts) error {
	if opts.BlockRows <= 0 {
		opts.BlockRows = blockRows
	}
	recordiozstd.Init()
	rio := recordio.NewWriter(w, recordio.WriterOpts{
		Transformers: []string{recordiozstd.Name},
	})
	rio.AddHeader(versionHeader, version)
	rio.AddHeader(schemaHeader, t.schema.String())
	rio.AddHeader(recordio.KeyTrailer, true)

	var (
		buf []byte
		sum uint64
	)
	for start := 0; start < t.n; start += opts.BlockRows {
		end := start + opts.BlockRows
		if end > t.n {
			end = t.n
		}
		for c := range t.schema {
			buf = t.marshalBlock(buf[:0], c, start, end)
			sum = farm.Hash64WithSeed(buf, sum)
			// recordio may hold on to the slice until the block is flushed.
			rio.Append(append([]byte(nil), buf...))
		}
	}
	rio.SetTrailer(encodeTrailer(t.n, sum))
	return rio.Finish()
}

func (t *Table) marshalBlock(buf []byte, c, start, end int) []byte {
	buf = putUvarint(buf, uint64(c))
	buf = putUvarint(buf, uint64(end-start))
	if t.schema[c].Kind == String {
		prev := ""
		for _, s := range t.cols[c].strs[start:end] {
			prefix := commonPrefix(prev, s)
			buf = putUvarint(buf, uint64(prefix))
			buf = putUvarint(buf, uint64(len(s)-prefix))
			buf = append(buf, s[prefix:]...)
			prev = s
		}
		return buf
	}
	for _, v := range t.cols[c].nums[start:end] {
		buf = putUvarint(buf, v)
	}
	return buf
}

func putUvarint(buf []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(buf, tmp[:n]...)
}

func commonPrefix(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

func encodeTrailer(numRows int, sum uint64) []byte {
	var b bytes.Buffer
	for _, v := range []uint64{trailerVersion, uint64(numRows), sum} {
		if err := binary.Write(&b, binary.LittleEndian, v); err != nil {
			panic(err)
		}
	}
	return b.Bytes()
}

func decodeTrailer(b []byte) (numRows int, sum uint64, err error) {
	var vals [3]uint64
	if err = binary.Read(bytes.NewReader(b), binary.LittleEndian, &vals); err != nil {
		return 0, 0, errors.E(errors.Integrity, err, "malformed trailer")
	}
	if vals[0] != trailerVersion {
		return 0, 0, errors.E(errors.Integrity, fmt.Sprintf("unrecognized trailer version: got %d, want %d", vals[0], trailerVersion))
	}
	return int(vals[1]), vals[2], nil
}

// Read reads a table written by Write.
func Read(ctx context.Context, path string) (t *Table, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	if t, err = Decode(in.Reader(ctx)); err != nil {
		return nil, errors.E(err, "read", path)
	}
	return t, nil
}

// Decode reads a table in the table file format from r.
func Decode(r io.ReadSeeker) (*Table, error) {
	recordiozstd.Init()
	rio := recordio.NewScanner(r, recordio.ScannerOpts{})
	var (
		schema     Schema
		versionOK  bool
		err        error
		wantRows   int
		wantSum    uint64
		sum        uint64
		hasTrailer = len(rio.Trailer()) != 0
	)
	for _, kv := range rio.Header() {
		switch kv.Key {
		case versionHeader:
			if v, _ := kv.Value.(string); v != version {
				return nil, errors.E(errors.Invalid, fmt.Sprintf("table version mismatch, got %v, expect %v", kv.Value, version))
			}
			versionOK = true
		case schemaHeader:
			s, _ := kv.Value.(string)
			if schema, err = ParseSchema(s); err != nil {
				return nil, err
			}
		}
	}
	if err := rio.Err(); err != nil {
		return nil, err
	}
	if !versionOK || schema == nil {
		return nil, errors.E(errors.Invalid, "not a table file: missing "+versionHeader+" or "+schemaHeader)
	}
	if !hasTrailer {
		return nil, errors.E(errors.Integrity, "table file has no trailer")
	}
	if wantRows, wantSum, err = decodeTrailer(rio.Trailer()); err != nil {
		return nil, err
	}
	t := New(schema)
	colRows := make([]int, len(schema))
	for rio.Scan() {
		block := rio.Get().([]byte)
		sum = farm.Hash64WithSeed(block, sum)
		if err := t.unmarshalBlock(block, colRows); err != nil {
			return nil, err
		}
	}
	if err := rio.Err(); err != nil {
		return nil, err
	}
	for c, n := range colRows {
		if n != wantRows {
			return nil, errors.E(errors.Integrity, fmt.Sprintf("column %s has %d rows, want %d", schema[c].Name, n, wantRows))
		}
	}
	if sum != wantSum {
		return nil, errors.E(errors.Integrity, fmt.Sprintf("checksum mismatch: got %x, want %x", sum, wantSum))
	}
	t.n = wantRows
	return t, nil
}

type blockDecoder struct {
	b   []byte
	err error
}

func (d *blockDecoder) uvarint() uint64 {
	if d.err != nil {
		return 0
	}
	v, n := binary.Uvarint(d.b)
	if n <= 0 {
		d.err = errors.E(errors.Integrity, "truncated column block")
		return 0
	}
	d.b = d.b[n:]
	return v
}

func (d *blockDecoder) bytes(n uint64) []byte {
	if d.err != nil {
		return nil
	}
	if uint64(len(d.b)) < n {
		d.err = errors.E(errors.Integrity, "truncated column block")
		return nil
	}
	v := d.b[:n]
	d.b = d.b[n:]
	return v
}

func (t *Table) unmarshalBlock(b []byte, colRows []int) error {
	d := blockDecoder{b: b}
	c := int(d.uvarint())
	n := int(d.uvarint())
	if d.err != nil {
		return d.err
	}
	if c < 0 || c >= len(t.schema) {
		return errors.E(errors.Integrity, fmt.Sprintf("column index %d out of range", c))
	}
	col := &t.cols[c]
	if t.schema[c].Kind == String {
		var prev string
		for i := 0; i < n && d.err == nil; i++ {
			prefix := d.uvarint()
			suffix := d.bytes(d.uvarint())
			if prefix > uint64(len(prev)) {
				return errors.E(errors.Integrity, "bad string prefix length")
			}
			// The scanner reuses its buffer, so the suffix is copied here.
			s := prev[:prefix] + string(suffix)
			col.strs = append(col.strs, s)
			prev = s
		}
	} else {
		for i := 0; i < n && d.err == nil; i++ {
			col.nums = append(col.nums, d.uvarint())
		}
	}
	if d.err != nil {
		return d.err
	}
	if len(d.b) != 0 {
		return errors.E(errors.Integrity, fmt.Sprintf("%d trailing bytes in column block", len(d.b)))
	}
	colRows[c] += n
	return nil
}
