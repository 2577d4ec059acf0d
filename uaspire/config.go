package uaspire

import (
	"fmt"
	"sort"
	"strings"

	"github.com/grailbio/base/errors"
)

// Config holds the structural expectations a read pair is checked against.
// See Classify for how each field is used.
type Config struct {
	// Barcodes1 is the set of valid sample barcodes in R1, upstream of the
	// discriminator.
	Barcodes1 map[string]bool
	// Barcodes2 is the set of valid sample barcodes in R2, immediately upstream
	// of the constant anchor.
	Barcodes2 map[string]bool
	// BarcodeLen is the length of every barcode in both sets.
	BarcodeLen int

	// Constant is the anchor motif searched for in R2.
	Constant string
	// ConstantWindow is the 1-based inclusive range of R2 searched for the
	// anchor.
	ConstantWindow [2]int

	// MaxNCount is the max number of N bases tolerated across both reads.
	MaxNCount int

	// NonFlipped and Flipped are the two discriminator motifs searched for in
	// R1. NonFlipped takes precedence.
	NonFlipped string
	Flipped    string
	// DiscOffset is the number of bases between the end of barcode 1 and the
	// start of the discriminator.
	DiscOffset int

	// RBSLen is the length of the region extracted right after the anchor.
	RBSLen int
}

var defaultBarcodes = []string{"ATCACG", "CGATGT", "CTTGTA", "GCCAAT", "ACAGTG", "ACTTGA"}

// DefaultConfig returns the constants of the standard assay.
func DefaultConfig() Config {
	return Config{
		Barcodes1:      NewBarcodeSet(defaultBarcodes...),
		Barcodes2:      NewBarcodeSet(defaultBarcodes...),
		BarcodeLen:     6,
		Constant:       "GAGCTCGCAT",
		ConstantWindow: [2]int{7, 24},
		MaxNCount:      6,
		NonFlipped:     "GGGTTTGTACCGTACAC",
		Flipped:        "GCCCGGATGATCCTGAC",
		DiscOffset:     6,
		RBSLen:         17,
	}
}

// NewBarcodeSet builds a barcode set from a list. Surrounding spaces are
// trimmed and empty entries skipped.
func NewBarcodeSet(barcodes ...string) map[string]bool {
	set := make(map[string]bool, len(barcodes))
	for _, b := range barcodes {
		if b = strings.TrimSpace(b); b != "" {
			set[b] = true
		}
	}
	return set
}

// ParseBarcodeSet parses a comma-separated barcode list.
func ParseBarcodeSet(list string) map[string]bool {
	return NewBarcodeSet(strings.Split(list, ",")...)
}

func sortedBarcodes(set map[string]bool) []string {
	var out []string
	for b := range set {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

// Validate checks that the config is internally consistent.
func (c *Config) Validate() error {
	if c.BarcodeLen <= 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("barcode length must be positive, got %d", c.BarcodeLen))
	}
	for i, set := range []map[string]bool{c.Barcodes1, c.Barcodes2} {
		if len(set) == 0 {
			return errors.E(errors.Invalid, fmt.Sprintf("barcodes%d: empty barcode set", i+1))
		}
		for _, b := range sortedBarcodes(set) {
			if len(b) != c.BarcodeLen {
				return errors.E(errors.Invalid, fmt.Sprintf("barcodes%d: barcode %q has length %d, want %d", i+1, b, len(b), c.BarcodeLen))
			}
		}
	}
	if c.Constant == "" || c.NonFlipped == "" || c.Flipped == "" {
		return errors.E(errors.Invalid, "constant and discriminator motifs must be non-empty")
	}
	start, end := c.ConstantWindow[0], c.ConstantWindow[1]
	if start < 1 || end < start {
		return errors.E(errors.Invalid, fmt.Sprintf("bad constant window [%d,%d]", start, end))
	}
	if end-start+1 < len(c.Constant) {
		return errors.E(errors.Invalid, fmt.Sprintf("constant window [%d,%d] is shorter than the constant %q", start, end, c.Constant))
	}
	if c.MaxNCount < 0 || c.DiscOffset < 0 || c.RBSLen <= 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("bad lengths: max N %d, discriminator offset %d, RBS length %d", c.MaxNCount, c.DiscOffset, c.RBSLen))
	}
	return nil
}

func (c Config) String() string {
	return fmt.Sprintf("barcodes1=%s barcodes2=%s constant=%s window=%v maxN=%d nonflipped=%s flipped=%s discoffset=%d rbslen=%d",
		strings.Join(sortedBarcodes(c.Barcodes1), ","), strings.Join(sortedBarcodes(c.Barcodes2), ","),
		c.Constant, c.ConstantWindow, c.MaxNCount, c.NonFlipped, c.Flipped, c.DiscOffset, c.RBSLen)
}
