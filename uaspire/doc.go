// Package uaspire counts RBS variants in paired-end reads of a barcoded
// reporter assay.
//
// Each read pair is checked by Classify against the assay's structure: a
// barcode and a constant anchor in R2 followed by the RBS, and a barcode and
// an orientation discriminator in R1. Accepted pairs are counted per
// (barcode1, barcode2, rbs) and orientation; rejected pairs are counted per
// FailReason.
//
// Run streams the inputs in fixed-size chunks. The pairs of a chunk are
// classified in parallel into a SampleTable, which is then written to disk
// and dropped, so memory use is bounded by the chunk size. Merge sums the
// chunk tables and writes one set of size-bounded files per barcode pair.
// WriteQC writes the run's Counters. Process runs all three.
package uaspire
