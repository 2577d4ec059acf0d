package main

import (
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/log"
	"github.com/grailbio/uaspire/encoding/rbstable"
	"github.com/grailbio/uaspire/uaspire"
)

// view prints the tables at paths to w. Tables that share a schema are
// printed under a single header.
func view(ctx context.Context, w io.Writer, paths []string, schemaOnly bool) error {
	var tables []*rbstable.Table
	for _, path := range paths {
		t, err := rbstable.Read(ctx, path)
		if err != nil {
			return err
		}
		if schemaOnly {
			if _, err := fmt.Fprintf(w, "%s\t%v\t%d\n", path, t.Schema(), t.Len()); err != nil {
				return err
			}
			continue
		}
		tables = append(tables, t)
	}
	if len(tables) == 0 {
		return nil
	}
	all, err := rbstable.Concat(tables...)
	if err != nil {
		return err
	}
	return rbstable.WriteTSV(w, all)
}

func merge(ctx context.Context, layout uaspire.Layout, sample string, partitionRows int, keepTmp bool) error {
	if err := uaspire.Merge(ctx, layout, sample, partitionRows); err != nil {
		return err
	}
	if snap, err := uaspire.ReadQC(ctx, layout, sample); err == nil {
		log.Printf("%s: qc: %v", sample, snap)
	} else {
		log.Debug.Printf("%s: no qc table: %v", sample, err)
	}
	if keepTmp {
		return nil
	}
	return uaspire.RemoveChunks(ctx, layout)
}
