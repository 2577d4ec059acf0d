package uaspire

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/uaspire/encoding/fastq"
	"github.com/grailbio/uaspire/encoding/rbstable"
	"github.com/klauspost/compress/gzip"
)

const (
	anchor     = "GAGCTCGCAT"
	nonFlipped = "GGGTTTGTACCGTACAC"
	flipped    = "GCCCGGATGATCCTGAC"
	spacer     = "AAAAAA"
)

var rbsVariants = []string{
	"ACGTACGTACGTACGTA",
	"TTTTTCCCCCGGGGGAA",
	"AGGAGGTTTACATATGC",
	"CAGGAAACAGCTATGAC",
}

// goodR1 returns an R1 sequence whose barcode is b1 and whose discriminator
// is in the given orientation, laid out for DefaultConfig.
func goodR1(b1 string, isFlipped bool) string {
	motif := nonFlipped
	if isFlipped {
		motif = flipped
	}
	return b1 + spacer + motif + "TTGCA"
}

// goodR2 returns an R2 sequence with barcode b2 right before the anchor at
// offset 6, followed by rbs.
func goodR2(b2, rbs string) string {
	return b2 + anchor + rbs + "CCCCC"
}

type fixturePair struct{ seq1, seq2 string }

// mixedPairs returns n deterministic read pairs covering every outcome.
func mixedPairs(n int) []fixturePair {
	barcodes := defaultBarcodes
	pairs := make([]fixturePair, n)
	for i := range pairs {
		b1 := barcodes[i%len(barcodes)]
		b2 := barcodes[(i/3)%len(barcodes)]
		rbs := rbsVariants[(i/7)%len(rbsVariants)]
		p := fixturePair{goodR1(b1, i%5 == 0), goodR2(b2, rbs)}
		switch i % 11 {
		case 1:
			p.seq1 = strings.Repeat("N", 7) + p.seq1
		case 2:
			p.seq2 = b2 + "GAGCTCGCAA" + rbs
		case 3:
			p.seq2 = "GGGGGG" + anchor + rbs
		case 4:
			p.seq1 = "TTTTTT" + spacer + nonFlipped
		case 5:
			p.seq1 = b1 + spacer + "ACGTACGTACGTACGTA"
		case 6:
			p.seq1 = b1 + "AA" + nonFlipped
		case 7:
			p.seq2 = b2 + anchor + "ACGT"
		}
		pairs[i] = p
	}
	return pairs
}

// writeFASTQPair writes pairs as R1/R2 FASTQ files under dir. If gz is set the
// files are gzip-compressed.
func writeFASTQPair(t *testing.T, dir string, pairs []fixturePair, gz bool) (r1Path, r2Path string) {
	suffix := ".fastq"
	if gz {
		suffix += ".gz"
	}
	r1Path = filepath.Join(dir, "r1"+suffix)
	r2Path = filepath.Join(dir, "r2"+suffix)
	for mate, path := range []string{r1Path, r2Path} {
		var reads []fastq.Read
		for i, p := range pairs {
			seq := p.seq1
			if mate == 1 {
				seq = p.seq2
			}
			reads = append(reads, fastq.Read{
				ID:   fmt.Sprintf("@M00123:7:000000000-ABCDE:1:1101:%d:1000 %d:N:0:1", i, mate+1),
				Seq:  seq,
				Qual: strings.Repeat("I", len(seq)),
			})
		}
		writeReads(t, path, reads, gz)
	}
	return
}

func writeReads(t *testing.T, path string, reads []fastq.Read, gz bool) {
	var buf bytes.Buffer
	var gzw *gzip.Writer
	w := fastq.NewWriter(&buf)
	if gz {
		gzw = gzip.NewWriter(&buf)
		w = fastq.NewWriter(gzw)
	}
	for i := range reads {
		assert.NoError(t, w.Write(&reads[i]))
	}
	assert.NoError(t, w.Flush())
	if gzw != nil {
		assert.NoError(t, gzw.Close())
	}
	assert.NoError(t, ioutil.WriteFile(path, buf.Bytes(), 0600))
}

func rowsOf(t *rbstable.Table) []string {
	var out []string
	for i := 0; i < t.Len(); i++ {
		out = append(out, strings.Join(t.Row(i), " "))
	}
	return out
}
