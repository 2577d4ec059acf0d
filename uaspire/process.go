package uaspire

import (
	"context"
	"time"

	"github.com/grailbio/base/log"
)

// Process runs the whole pipeline: Run, Merge, then WriteQC. Unless
// opts.KeepTmp is set, the chunk tables are deleted at the end. A failure to
// delete them is logged, not returned.
func Process(ctx context.Context, opts Opts) error {
	start := time.Now()
	log.Printf("%s: processing %s and %s into %s", opts.Sample, opts.R1Path, opts.R2Path, opts.OutputDir)
	log.Debug.Printf("%s: config: %v", opts.Sample, opts.Config)
	snap, err := Run(ctx, opts)
	if err != nil {
		return err
	}
	layout := opts.Layout()
	if err := Merge(ctx, layout, opts.Sample, opts.PartitionRows); err != nil {
		return err
	}
	if err := WriteQC(ctx, layout, opts.Sample, snap); err != nil {
		return err
	}
	if !opts.KeepTmp {
		if err := RemoveChunks(ctx, layout); err != nil {
			log.Error.Printf("%s: cleanup: %v", opts.Sample, err)
		}
	}
	log.Printf("%s: done in %v: %v", opts.Sample, time.Since(start), snap)
	return nil
}
