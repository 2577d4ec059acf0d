package fastq

import (
	"context"
	"io"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
)

// PairFile is an open pair of FASTQ files.
type PairFile struct {
	*PairScanner
	in1, in2 file.File
}

// OpenPair opens the R1 and R2 FASTQ files. Files ending in a compression
// suffix (.gz, .bz2, .zst, ...) are decompressed on the fly. The caller must
// call Close.
func OpenPair(ctx context.Context, r1Path, r2Path string, fields Field) (*PairFile, error) {
	in1, err := file.Open(ctx, r1Path)
	if err != nil {
		return nil, errors.E(err, "open", r1Path)
	}
	in2, err := file.Open(ctx, r2Path)
	if err != nil {
		_ = in1.Close(ctx)
		return nil, errors.E(err, "open", r2Path)
	}
	var (
		inr1 io.Reader = in1.Reader(ctx)
		inr2 io.Reader = in2.Reader(ctx)
	)
	if u1 := compress.NewReaderPath(inr1, in1.Name()); u1 != nil {
		inr1 = u1
	}
	if u2 := compress.NewReaderPath(inr2, in2.Name()); u2 != nil {
		inr2 = u2
	}
	return &PairFile{
		PairScanner: NewPairScanner(inr1, inr2, fields),
		in1:         in1,
		in2:         in2,
	}, nil
}

// Close closes both underlying files.
func (p *PairFile) Close(ctx context.Context) error {
	once := errors.Once{}
	once.Set(p.in1.Close(ctx))
	once.Set(p.in2.Close(ctx))
	return once.Err()
}
