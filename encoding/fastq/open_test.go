package fastq_test

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/grailbio/uaspire/encoding/fastq"
	"github.com/klauspost/compress/gzip"
)

func writeGzip(t *testing.T, path string, reads []fastq.Read) {
	buf := bytes.Buffer{}
	gz := gzip.NewWriter(&buf)
	w := fastq.NewWriter(gz)
	for i := range reads {
		assert.NoError(t, w.Write(&reads[i]))
	}
	assert.NoError(t, w.Flush())
	assert.NoError(t, gz.Close())
	assert.NoError(t, ioutil.WriteFile(path, buf.Bytes(), 0600))
}

func TestOpenPairGzip(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()

	var r1s, r2s []fastq.Read
	for i := 0; i < 5; i++ {
		name := "@r" + strings.Repeat("x", i)
		r1s = append(r1s, fastq.Read{ID: name + " 1:N:0:1", Seq: "ACGT", Qual: "IIII"})
		r2s = append(r2s, fastq.Read{ID: name + " 2:N:0:1", Seq: "TTTT", Qual: "IIII"})
	}
	r1Path := filepath.Join(tempDir, "r1.fastq.gz")
	r2Path := filepath.Join(tempDir, "r2.fastq.gz")
	writeGzip(t, r1Path, r1s)
	writeGzip(t, r2Path, r2s)

	p, err := fastq.OpenPair(ctx, r1Path, r2Path, fastq.Seq)
	assert.NoError(t, err)
	c := fastq.NewChunkReader(p.PairScanner)
	chunk, err := c.Next(100)
	assert.NoError(t, err)
	expect.EQ(t, len(chunk), 5)
	expect.EQ(t, chunk[4].R1.Seq, "ACGT")
	expect.EQ(t, chunk[4].R2.Seq, "TTTT")
	expect.EQ(t, chunk[4].R1.Name(), "rxxxx")
	chunk, err = c.Next(100)
	assert.NoError(t, err)
	expect.EQ(t, len(chunk), 0)
	assert.NoError(t, p.Close(ctx))
}

func TestOpenPairMissing(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	_, err := fastq.OpenPair(vcontext.Background(), filepath.Join(tempDir, "nope1.fq"), filepath.Join(tempDir, "nope2.fq"), fastq.Seq)
	expect.True(t, err != nil)
}
