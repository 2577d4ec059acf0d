package uaspire

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/grailbio/uaspire/encoding/fastq"
	"github.com/grailbio/uaspire/encoding/rbstable"
)

func testOpts(r1, r2, out string) Opts {
	opts := DefaultOpts()
	opts.R1Path, opts.R2Path = r1, r2
	opts.Sample = "s1"
	opts.OutputDir = out
	return opts
}

func TestRunChunkSizeInvariance(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()
	pairs := mixedPairs(317)
	r1, r2 := writeFASTQPair(t, tempDir, pairs, true)

	var (
		wantRows []string
		wantSnap CountersSnapshot
	)
	for i, chunkSize := range []int{1000, 1, 7, 100, 317} {
		for _, parallelism := range []int{1, 4} {
			opts := testOpts(r1, r2, filepath.Join(tempDir, fmt.Sprintf("out%d_%d", i, parallelism)))
			opts.ChunkSize = chunkSize
			opts.Parallelism = parallelism
			snap, err := Run(ctx, opts)
			assert.NoError(t, err)
			checkInvariant(t, snap)
			expect.EQ(t, snap.Total, uint64(len(pairs)))

			chunks, err := ListChunks(ctx, opts.Layout())
			assert.NoError(t, err)
			expect.EQ(t, len(chunks), (len(pairs)+chunkSize-1)/chunkSize)
			merged, err := MergeChunks(ctx, opts.Layout())
			assert.NoError(t, err)
			if wantRows == nil {
				wantRows, wantSnap = rowsOf(merged), snap
				expect.True(t, len(wantRows) > 0)
				continue
			}
			expect.EQ(t, rowsOf(merged), wantRows, "chunk size %d", chunkSize)
			expect.EQ(t, snap, wantSnap, "chunk size %d", chunkSize)
		}
	}
}

func TestRunMatchesClassify(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()
	pairs := mixedPairs(64)
	r1, r2 := writeFASTQPair(t, tempDir, pairs, false)

	cfg := DefaultConfig()
	table := NewSampleTable()
	var counters Counters
	for _, p := range pairs {
		r := Classify(p.seq1, p.seq2, &cfg)
		counters.Record(r)
		table.Record(r)
	}
	want, err := table.Snapshot().GroupBySum("barcode1", "barcode2", "rbs")
	assert.NoError(t, err)

	opts := testOpts(r1, r2, filepath.Join(tempDir, "out"))
	opts.ChunkSize = 10
	snap, err := Run(ctx, opts)
	assert.NoError(t, err)
	expect.EQ(t, snap, counters.Snapshot())
	got, err := MergeChunks(ctx, opts.Layout())
	assert.NoError(t, err)
	expect.EQ(t, rowsOf(got), rowsOf(want))
}

func TestRunInputDefects(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()
	pairs := mixedPairs(5)

	long1, _ := writeFASTQPair(t, tempDir, pairs, false)
	shortDir := filepath.Join(tempDir, "short")
	assert.NoError(t, os.MkdirAll(shortDir, 0755))
	_, short2 := writeFASTQPair(t, shortDir, pairs[:3], false)

	renamed := filepath.Join(tempDir, "renamed.fastq")
	var reads []fastq.Read
	for i, p := range pairs {
		reads = append(reads, fastq.Read{ID: fmt.Sprintf("@other%d 2:N:0:1", i), Seq: p.seq2, Qual: strings.Repeat("I", len(p.seq2))})
	}
	writeReads(t, renamed, reads, false)

	badText := filepath.Join(tempDir, "bad.fastq")
	writeReads(t, badText, []fastq.Read{{ID: "@M00123:7:000000000-ABCDE:1:1101:0:1000 2:N:0:1", Seq: "ACG\xffT", Qual: "IIIII"}}, false)

	for _, test := range []struct {
		name   string
		r1, r2 string
		substr string
	}{
		{"discordant", long1, short2, "discordant FASTQ pairs"},
		{"renamed", long1, renamed, "read names differ"},
		{"encoding", long1, badText, "not valid text"},
		{"missing", long1, filepath.Join(tempDir, "nope.fastq"), "nope.fastq"},
	} {
		opts := testOpts(test.r1, test.r2, filepath.Join(tempDir, "out-"+test.name))
		opts.ChunkSize = 2
		_, err := Run(ctx, opts)
		assert.NotNil(t, err, test.name)
		assert.HasSubstr(t, err.Error(), test.substr)
	}
}

func TestRunCanceled(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	r1, r2 := writeFASTQPair(t, tempDir, mixedPairs(10), false)
	ctx, cancel := context.WithCancel(vcontext.Background())
	cancel()
	_, err := Run(ctx, testOpts(r1, r2, filepath.Join(tempDir, "out")))
	assert.NotNil(t, err)
	assert.HasSubstr(t, err.Error(), "canceled")
}

func TestRunValidatesOpts(t *testing.T) {
	opts := DefaultOpts()
	_, err := Run(vcontext.Background(), opts)
	assert.NotNil(t, err)
	assert.HasSubstr(t, err.Error(), "R1 and R2")
}

func TestRunRemovesStaleChunks(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()
	r1, r2 := writeFASTQPair(t, tempDir, mixedPairs(10), false)
	opts := testOpts(r1, r2, filepath.Join(tempDir, "out"))
	opts.ChunkSize = 4
	layout := opts.Layout()
	assert.NoError(t, layout.Create())
	stale := NewSampleTable()
	stale.Add(Sample{"ATCACG", "CGATGT"}, rbsVariants[0], false)
	assert.NoError(t, rbstable.Write(ctx, layout.ChunkPath(7), stale.Snapshot()))

	_, err := Run(ctx, opts)
	assert.NoError(t, err)
	chunks, err := ListChunks(ctx, layout)
	assert.NoError(t, err)
	expect.EQ(t, chunks, []string{layout.ChunkPath(0), layout.ChunkPath(1), layout.ChunkPath(2)})
}
