package uaspire

import (
	"context"
	"io"
	"path/filepath"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/uaspire/encoding/rbstable"
)

// QCTableName and QCReportName are the file names written by WriteQC.
const (
	QCTableName  = "part-0.rio"
	QCReportName = "read_counts.tsv"
)

// WriteQC writes snap as a (reason, count) table and as a labeled TSV report
// under layout.SampleQCDir(sample).
func WriteQC(ctx context.Context, layout Layout, sample string, snap CountersSnapshot) error {
	dir := layout.SampleQCDir(sample)
	path := filepath.Join(dir, QCTableName)
	if err := rbstable.Write(ctx, path, snap.Table()); err != nil {
		return errors.E(err, "qc write", path)
	}
	path = filepath.Join(dir, QCReportName)
	if err := writeQCReport(ctx, path, snap); err != nil {
		return errors.E(err, "qc write", path)
	}
	return nil
}

func writeQCReport(ctx context.Context, path string, snap CountersSnapshot) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, out, &err)
	return WriteQCReport(out.Writer(ctx), snap)
}

// WriteQCReport writes the human-readable QC report: one labeled line per
// failure reason, then the valid and total counts.
func WriteQCReport(w io.Writer, snap CountersSnapshot) (err error) {
	out := tsv.NewWriter(w)
	out.WriteString("Read Type")
	out.WriteString("Count")
	if err = out.EndLine(); err != nil {
		return
	}
	line := func(label string, n uint64) error {
		out.WriteString(label)
		out.WriteString(strconv.FormatUint(n, 10))
		return out.EndLine()
	}
	for i, r := range FailReasons {
		if err = line(r.Label(), snap.Failures[i]); err != nil {
			return
		}
	}
	if err = line(OK.Label(), snap.Valid); err != nil {
		return
	}
	if err = line("Total Reads", snap.Total); err != nil {
		return
	}
	return out.Flush()
}

// ReadQC reads a table written by WriteQC back into a snapshot.
func ReadQC(ctx context.Context, layout Layout, sample string) (CountersSnapshot, error) {
	path := filepath.Join(layout.SampleQCDir(sample), QCTableName)
	t, err := rbstable.Read(ctx, path)
	if err != nil {
		return CountersSnapshot{}, err
	}
	if !t.Schema().Equal(QCSchema) {
		return CountersSnapshot{}, errors.E(errors.Invalid, "not a QC table", path)
	}
	byName := make(map[string]FailReason, NumFailReasons)
	for _, r := range FailReasons {
		byName[r.String()] = r
	}
	var snap CountersSnapshot
	reasons, counts := t.Strings("reason"), t.Uint64s("count")
	for i, name := range reasons {
		switch name {
		case "total":
			snap.Total = counts[i]
		case "valid":
			snap.Valid = counts[i]
		default:
			r, ok := byName[name]
			if !ok {
				return CountersSnapshot{}, errors.E(errors.Invalid, "unknown QC reason", name, path)
			}
			snap.Failures[r-1] = counts[i]
		}
	}
	return snap, nil
}
