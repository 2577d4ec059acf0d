// bio-uaspire counts the RBS variants of a barcoded reporter assay.
//
// Example:
//
//   bio-uaspire parse-fastq -r1=s1_R1.fastq.gz -r2=s1_R2.fastq.gz -sample=s1 -output=/data/run7
//
// writes, under /data/run7,
//
//   data/counts/sample=s1/barcode1=<b1>/barcode2=<b2>/part-<n>.rio
//   data/qc/sample=s1/part-0.rio
//   data/qc/sample=s1/read_counts.tsv
//
// "bio-uaspire view" prints any of the .rio tables as TSV.
package main

import (
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/uaspire/uaspire"
	"v.io/x/lib/cmdline"
)

func newCmdParseFASTQ() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "parse-fastq",
		Short: "Classify paired FASTQ reads and count RBS variants per sample",
	}
	opts := uaspire.DefaultOpts()
	cmd.Flags.StringVar(&opts.R1Path, "r1", "", "R1 FASTQ path. May be compressed")
	cmd.Flags.StringVar(&opts.R2Path, "r2", "", "R2 FASTQ path. May be compressed")
	cmd.Flags.StringVar(&opts.Sample, "sample", "", "Sample name, used in output paths")
	cmd.Flags.StringVar(&opts.OutputDir, "output", "", "Output root directory")
	cmd.Flags.IntVar(&opts.ChunkSize, "chunk-size", opts.ChunkSize, "Number of read pairs classified per chunk")
	cmd.Flags.IntVar(&opts.PartitionRows, "partition-rows", opts.PartitionRows, "Max rows per count partition file")
	cmd.Flags.IntVar(&opts.Parallelism, "parallelism", opts.Parallelism, "Number of classification workers")
	cmd.Flags.BoolVar(&opts.KeepTmp, "keep-tmp", false, "Keep the per-chunk tables under tmp/rio")
	configPath := cmd.Flags.String("config", "", "YAML assay description. Omitted fields use the standard assay")
	barcodes1 := cmd.Flags.String("barcodes1", "", "Comma-separated R1 barcodes. Defaults to the standard set")
	barcodes2 := cmd.Flags.String("barcodes2", "", "Comma-separated R2 barcodes. Defaults to the standard set")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 0 {
			return fmt.Errorf("parse-fastq takes no arguments, but got %v", argv)
		}
		ctx := vcontext.Background()
		if *configPath != "" {
			cfg, err := uaspire.LoadConfig(ctx, *configPath)
			if err != nil {
				return err
			}
			opts.Config = cfg
		}
		if *barcodes1 != "" {
			opts.Config.Barcodes1 = uaspire.ParseBarcodeSet(*barcodes1)
		}
		if *barcodes2 != "" {
			opts.Config.Barcodes2 = uaspire.ParseBarcodeSet(*barcodes2)
		}
		return uaspire.Process(ctx, opts)
	})
	return cmd
}

func newCmdMerge() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "merge",
		Short:    "Merge the chunk tables of an earlier parse-fastq -keep-tmp run",
		ArgsName: "output-dir",
	}
	var (
		sample        = cmd.Flags.String("sample", "", "Sample name, used in output paths")
		partitionRows = cmd.Flags.Int("partition-rows", uaspire.DefaultOpts().PartitionRows, "Max rows per count partition file")
		keepTmp       = cmd.Flags.Bool("keep-tmp", true, "Keep the per-chunk tables after merging")
	)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("merge takes one output directory, but got %v", argv)
		}
		if *sample == "" {
			return fmt.Errorf("merge: -sample is required")
		}
		return merge(vcontext.Background(), uaspire.Layout{Root: argv[0]}, *sample, *partitionRows, *keepTmp)
	})
	return cmd
}

func newCmdView() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "view",
		Short:    "Print count or QC tables as TSV",
		ArgsName: "path...",
	}
	schemaOnly := cmd.Flags.Bool("schema", false, "Print only the schema of each table")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) == 0 {
			return fmt.Errorf("view takes one or more paths")
		}
		return view(vcontext.Background(), env.Stdout, argv, *schemaOnly)
	})
	return cmd
}

func newCmdRoot() *cmdline.Command {
	return &cmdline.Command{
		Name:     "bio-uaspire",
		Short:    "Tools for counting RBS variants in barcoded reporter assays",
		LookPath: false,
		Children: []*cmdline.Command{
			newCmdParseFASTQ(),
			newCmdMerge(),
			newCmdView(),
		},
	}
}

func main() {
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(newCmdRoot())
}
