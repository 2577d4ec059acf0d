package uaspire

import (
	"fmt"
	"strings"
)

// FailReason says why a read pair was rejected. The zero value, OK, means it
// was accepted.
type FailReason uint8

const (
	// OK is not a failure.
	OK FailReason = iota
	// BaseCalls means the pair has too many N bases.
	BaseCalls
	// ConstantSeq means the anchor was not found in the R2 window.
	ConstantSeq
	// ConstantPos means the anchor leaves no room for barcode 2 or the RBS.
	ConstantPos
	// Barcode1 means the R1 barcode is not a known barcode.
	Barcode1
	// Barcode2 means the R2 barcode is not a known barcode.
	Barcode2
	// DiscSeq means neither discriminator motif was found in R1.
	DiscSeq
	// DiscPos means the discriminator leaves no room for barcode 1.
	DiscPos

	numReasons
)

// NumFailReasons is the number of failure reasons, excluding OK.
const NumFailReasons = int(numReasons) - 1

// FailReasons lists the failure reasons in their declared order.
var FailReasons = [NumFailReasons]FailReason{BaseCalls, ConstantSeq, ConstantPos, Barcode1, Barcode2, DiscSeq, DiscPos}

var reasonNames = [numReasons]string{
	OK:          "ok",
	BaseCalls:   "base_calls",
	ConstantSeq: "constant_seq",
	ConstantPos: "constant_pos",
	Barcode1:    "barcode1",
	Barcode2:    "barcode2",
	DiscSeq:     "disc_seq",
	DiscPos:     "disc_pos",
}

var reasonLabels = [numReasons]string{
	OK:          "Valid Reads",
	BaseCalls:   "Basecall Fail",
	ConstantSeq: "Constant Region Sequence Fail",
	ConstantPos: "Constant Region Position Fail",
	Barcode1:    "Barcode 1 Fail",
	Barcode2:    "Barcode 2 Fail",
	DiscSeq:     "Discriminator Sequence Fail",
	DiscPos:     "Discriminator Position Fail",
}

// String returns the column name used for the reason in QC tables.
func (r FailReason) String() string {
	if r < numReasons {
		return reasonNames[r]
	}
	return fmt.Sprintf("reason(%d)", uint8(r))
}

// Label returns a human-readable description of the reason.
func (r FailReason) Label() string {
	if r < numReasons {
		return reasonLabels[r]
	}
	return r.String()
}

// Sample identifies a sample by its pair of barcodes.
type Sample struct {
	Barcode1, Barcode2 string
}

// Result is the outcome of classifying one read pair. Sample, RBS and Flipped
// are set only when Reason is OK.
type Result struct {
	Reason  FailReason
	Sample  Sample
	RBS     string
	Flipped bool
}

func fail(r FailReason) Result { return Result{Reason: r} }

// Classify checks one read pair against cfg. The checks run in this order,
// stopping at the first failure:
//
//   - BaseCalls: more than cfg.MaxNCount N bases across both reads.
//   - ConstantSeq: cfg.Constant is not in seq2[ConstantWindow[0]-1:ConstantWindow[1]].
//     The window end is clamped to the read length.
//   - ConstantPos: the anchor starts before BarcodeLen, or the barcode and RBS
//     following it run past the end of seq2.
//   - Barcode2: the BarcodeLen bases before the anchor are not in Barcodes2.
//   - DiscSeq: neither cfg.NonFlipped nor cfg.Flipped is in seq1.
//   - DiscPos: the discriminator starts before DiscOffset+BarcodeLen.
//   - Barcode1: the BarcodeLen bases that end DiscOffset bases before the
//     discriminator are not in Barcodes1.
//
// The RBS is the RBSLen bases right after the anchor, taken verbatim.
//
// Classify has no side effects and is safe for concurrent use.
func Classify(seq1, seq2 string, cfg *Config) Result {
	if strings.Count(seq1, "N")+strings.Count(seq2, "N") > cfg.MaxNCount {
		return fail(BaseCalls)
	}

	winStart, winEnd := cfg.ConstantWindow[0]-1, cfg.ConstantWindow[1]
	if winEnd > len(seq2) {
		winEnd = len(seq2)
	}
	if winStart < 0 || winStart >= winEnd {
		return fail(ConstantSeq)
	}
	i := strings.Index(seq2[winStart:winEnd], cfg.Constant)
	if i < 0 {
		return fail(ConstantSeq)
	}
	offset := winStart + i
	rbsStart := offset + len(cfg.Constant)
	if offset < cfg.BarcodeLen ||
		offset+cfg.BarcodeLen+cfg.RBSLen > len(seq2) ||
		rbsStart+cfg.RBSLen > len(seq2) {
		return fail(ConstantPos)
	}
	rbs := seq2[rbsStart : rbsStart+cfg.RBSLen]

	barcode2 := seq2[offset-cfg.BarcodeLen : offset]
	if !cfg.Barcodes2[barcode2] {
		return fail(Barcode2)
	}

	flipped := false
	disc := strings.Index(seq1, cfg.NonFlipped)
	if disc < 0 {
		if disc = strings.Index(seq1, cfg.Flipped); disc < 0 {
			return fail(DiscSeq)
		}
		flipped = true
	}
	if disc < cfg.DiscOffset+cfg.BarcodeLen {
		return fail(DiscPos)
	}

	end := disc - cfg.DiscOffset
	barcode1 := seq1[end-cfg.BarcodeLen : end]
	if !cfg.Barcodes1[barcode1] {
		return fail(Barcode1)
	}
	return Result{
		Reason:  OK,
		Sample:  Sample{Barcode1: barcode1, Barcode2: barcode2},
		RBS:     rbs,
		Flipped: flipped,
	}
}
