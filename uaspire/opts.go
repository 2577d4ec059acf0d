package uaspire

import (
	"runtime"

	"github.com/grailbio/base/errors"
)

// Opts configures a run.
type Opts struct {
	// R1Path and R2Path are the paired FASTQ inputs. Compressed files are
	// decompressed according to their suffix.
	R1Path, R2Path string
	// Sample names the run's output directories.
	Sample string
	// OutputDir is the root of the output Layout.
	OutputDir string

	// ChunkSize is the number of read pairs classified and exported per chunk.
	// It bounds memory use and has no effect on the merged counts.
	ChunkSize int
	// PartitionRows is the max number of rows in one count partition file.
	PartitionRows int
	// Parallelism is the number of classification workers per chunk.
	Parallelism int
	// KeepTmp keeps the per-chunk tables after the merge.
	KeepTmp bool

	Config Config
}

// DefaultOpts returns the default values of Opts. The input and output fields
// are left empty.
func DefaultOpts() Opts {
	return Opts{
		ChunkSize:     1000000,
		PartitionRows: 1000000,
		Parallelism:   runtime.NumCPU(),
		Config:        DefaultConfig(),
	}
}

// Layout returns the output layout of the run.
func (o *Opts) Layout() Layout { return Layout{Root: o.OutputDir} }

// Validate checks the options.
func (o *Opts) Validate() error {
	if o.R1Path == "" || o.R2Path == "" {
		return errors.E(errors.Invalid, "both R1 and R2 paths are required")
	}
	if o.Sample == "" {
		return errors.E(errors.Invalid, "sample name is required")
	}
	if o.OutputDir == "" {
		return errors.E(errors.Invalid, "output directory is required")
	}
	if o.ChunkSize <= 0 || o.PartitionRows <= 0 || o.Parallelism <= 0 {
		return errors.E(errors.Invalid, "chunk size, partition rows and parallelism must be positive")
	}
	return o.Config.Validate()
}
