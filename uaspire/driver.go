package uaspire

import (
	"context"
	"time"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/uaspire/encoding/fastq"
	"github.com/grailbio/uaspire/encoding/rbstable"
)

// classifyChunk classifies every pair of chunk using parallelism workers. Each
// worker owns a contiguous slice of the chunk.
func classifyChunk(chunk []fastq.Pair, cfg *Config, parallelism int, table *SampleTable, counters *Counters) error {
	if parallelism > len(chunk) {
		parallelism = len(chunk)
	}
	if parallelism <= 0 {
		return nil
	}
	n := len(chunk)
	return traverse.Each(parallelism, func(jobIdx int) error {
		startIdx := (jobIdx * n) / parallelism
		endIdx := ((jobIdx + 1) * n) / parallelism
		for i := startIdx; i < endIdx; i++ {
			p := &chunk[i]
			r := Classify(p.R1.Seq, p.R2.Seq, cfg)
			counters.Record(r)
			table.Record(r)
		}
		return nil
	})
}

// Run classifies the read pairs of opts.R1Path and opts.R2Path chunk by chunk.
// The counts of chunk i are written to Layout.ChunkPath(i). Chunks are
// processed one at a time; the pairs within a chunk are classified in
// parallel. Run returns the classification totals of all chunks.
//
// Chunk tables left under the layout by an earlier run are deleted before
// the first chunk is written.
//
// Run fails if the inputs have different lengths or mismatched read names.
func Run(ctx context.Context, opts Opts) (CountersSnapshot, error) {
	if err := opts.Validate(); err != nil {
		return CountersSnapshot{}, err
	}
	layout := opts.Layout()
	if err := layout.Create(); err != nil {
		return CountersSnapshot{}, err
	}
	in, err := fastq.OpenPair(ctx, opts.R1Path, opts.R2Path, fastq.Seq)
	if err != nil {
		return CountersSnapshot{}, err
	}
	counters := &Counters{}
	if err = RemoveChunks(ctx, layout); err == nil {
		err = runChunks(ctx, fastq.NewChunkReader(in.PairScanner), opts, layout, counters)
	}
	once := errors.Once{}
	once.Set(err)
	once.Set(in.Close(ctx))
	return counters.Snapshot(), once.Err()
}

func runChunks(ctx context.Context, reader *fastq.ChunkReader, opts Opts, layout Layout, counters *Counters) error {
	start := time.Now()
	for chunkIdx := 0; ; chunkIdx++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunk, err := reader.Next(opts.ChunkSize)
		if err != nil {
			return errors.E(err, "read input", opts.R1Path, opts.R2Path)
		}
		if len(chunk) == 0 {
			log.Printf("%s: no more read pairs after %d chunks", opts.Sample, chunkIdx)
			return nil
		}
		table := NewSampleTable()
		if err := classifyChunk(chunk, &opts.Config, opts.Parallelism, table, counters); err != nil {
			return err
		}
		path := layout.ChunkPath(chunkIdx)
		snap := table.Snapshot()
		if err := rbstable.Write(ctx, path, snap); err != nil {
			return errors.E(err, "chunk export", path)
		}
		c := counters.Snapshot()
		log.Printf("%s: chunk %d: %d pairs, %d cells; running total=%d valid=%d (%.1fs)",
			opts.Sample, chunkIdx, len(chunk), snap.Len(), c.Total, c.Valid, time.Since(start).Seconds())
	}
}
