package cmd

import (
	"fmt"
	"io"
	"runtime"

	"github.com/eernst/rarefy/annotation"
	"github.com/eernst/rarefy/rarefaction"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/xopen"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Flag names double as viper keys, so each can also be set in the config
// file or as RAREFY_<NAME> in the environment.
const (
	outputFlag            = "output"
	threadsFlag           = "threads"
	originalReadCountFlag = "original_read_count"
	readsFlag             = "reads"
	samplesPerXvalFlag    = "samples_per_xval"
	minDepthFlag          = "min_depth"
	fullFlag              = "full"
	geneFlag              = "gene"
	transcriptFlag        = "transcript"
	seedFlag              = "seed"
	extendedFlag          = "extended"
	printHeaderFlag       = "print-header"
)

func init() {
	RootCmd.AddCommand(curveCmd)
	addCurveFlags(curveCmd.Flags())
}

func addCurveFlags(flags *pflag.FlagSet) {
	flags.StringP(outputFlag, "o", "-", "Write output here. A .gz suffix compresses it.")
	flags.IntP(threadsFlag, "", runtime.NumCPU(), "Number of threads to use.")
	flags.IntP(originalReadCountFlag, "", 0, "Total read count, allowing for unmapped reads not included in the annotation.")
	flags.StringP(readsFlag, "", "", "FASTA/FASTQ file whose record count is the total read count, unless --original_read_count is given.")
	flags.IntP(samplesPerXvalFlag, "", rarefaction.DefaultSamplesPerXval, "Sample this many times at each depth.")
	flags.IntP(minDepthFlag, "", rarefaction.DefaultMinDepth, "Require at least this many reads to count a feature as detected.")
	flags.BoolP(fullFlag, "", false, "Count full-length matches only.")
	flags.BoolP(geneFlag, "", false, "Gene based output.")
	flags.BoolP(transcriptFlag, "", false, "Transcript based output.")
	flags.Uint64P(seedFlag, "", 0, "Random seed. 0 picks one; it is logged with --verbose.")
	flags.BoolP(extendedFlag, "", false, "Append the mean and standard deviation of the per-sample counts.")
}

type curveOptions struct {
	input             string
	output            string
	threads           int
	originalReadCount int
	reads             string
	selector          annotation.Selector
	estimate          rarefaction.Options
	extended          bool
	printHeader       bool
}

// loadCurveOptions reads and validates the curve settings from v.
func loadCurveOptions(v *viper.Viper, args []string) (curveOptions, error) {
	opts := curveOptions{
		input:             "-",
		output:            v.GetString(outputFlag),
		threads:           v.GetInt(threadsFlag),
		originalReadCount: v.GetInt(originalReadCountFlag),
		reads:             v.GetString(readsFlag),
		extended:          v.GetBool(extendedFlag),
		printHeader:       v.GetBool(printHeaderFlag),
	}
	if len(args) > 0 {
		opts.input = args[0]
	}
	if opts.output == "" {
		opts.output = "-"
	}

	gene, transcript := v.GetBool(geneFlag), v.GetBool(transcriptFlag)
	switch {
	case gene && transcript:
		return opts, errors.E(errors.Invalid, "--gene and --transcript are mutually exclusive")
	case gene:
		opts.selector.Feature = annotation.Gene
	case transcript:
		opts.selector.Feature = annotation.Transcript
	default:
		return opts, errors.E(errors.Invalid, "one of --gene or --transcript is required")
	}
	opts.selector.FullOnly = v.GetBool(fullFlag)

	if opts.threads < 1 {
		return opts, errors.E(errors.Invalid, fmt.Sprintf("--threads must be positive, got %d", opts.threads))
	}
	if opts.originalReadCount < 0 {
		return opts, errors.E(errors.Invalid, fmt.Sprintf("--original_read_count must not be negative, got %d", opts.originalReadCount))
	}
	opts.estimate = rarefaction.Options{
		SamplesPerXval: v.GetInt(samplesPerXvalFlag),
		MinDepth:       v.GetInt(minDepthFlag),
		Parallelism:    opts.threads,
		Seed:           v.GetUint64(seedFlag),
	}
	if opts.estimate.SamplesPerXval < 1 {
		return opts, errors.E(errors.Invalid, fmt.Sprintf("--samples_per_xval must be positive, got %d", opts.estimate.SamplesPerXval))
	}
	if opts.estimate.MinDepth < 1 {
		return opts, errors.E(errors.Invalid, fmt.Sprintf("--min_depth must be at least 1, got %d", opts.estimate.MinDepth))
	}
	return opts, nil
}

// countReads returns the number of records in a FASTA/FASTQ file.
func countReads(path string) (int, error) {
	seq.ValidateSeq = false
	reader, err := fastx.NewDefaultReader(path)
	if err != nil {
		return 0, errors.E(err, "opening reads", path)
	}
	n := 0
	for {
		_, err := reader.Read()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, errors.E(err, "reading reads", path)
		}
		n++
	}
}

func runCurve(opts curveOptions) error {
	total := opts.originalReadCount
	if total == 0 && opts.reads != "" {
		var err error
		if total, err = countReads(opts.reads); err != nil {
			return err
		}
		if Verbose {
			log.Printf("%s: %d reads", opts.reads, total)
		}
	}

	in, err := xopen.Ropen(opts.input)
	if err != nil {
		return errors.E(err, "opening annotation", opts.input)
	}
	defer in.Close()

	builder := rarefaction.NewPoolBuilder()
	n, err := annotation.Load(in, opts.selector, builder)
	if err != nil {
		return errors.E(err, opts.input)
	}
	pool, err := builder.Build(total)
	if err != nil {
		return err
	}
	if Verbose {
		log.Printf("%s: %d annotated reads, %d total, %d distinct %ss",
			opts.input, n, pool.Len(), pool.NumCategories(), opts.selector.Feature)
	}

	curve, err := rarefaction.Estimate(pool, opts.estimate)
	if err != nil {
		return err
	}
	if Verbose {
		log.Printf("seed %d", curve.Seed)
	}

	out, err := xopen.Wopen(opts.output)
	if err != nil {
		return errors.E(err, "opening output", opts.output)
	}
	if err := rarefaction.WriteTSV(out, curve, opts.printHeader, opts.extended); err != nil {
		out.Close()
		return errors.E(err, "writing", opts.output)
	}
	if err := out.Close(); err != nil {
		return errors.E(err, "closing", opts.output)
	}
	return curve.Err()
}

var curveCmd = &cobra.Command{
	Use:   "curve (--gene|--transcript) [ANNOTATION_FILE]",
	Short: "Estimate a rarefaction curve from read annotations.",
	Long: `

curve draws --samples_per_xval random orderings of the annotated reads and, at
each depth of 1, 2, 3, 4, 5, 10, 20, ... reads up to the total, counts the
genes or transcripts seen at least --min_depth times. Each output row is

	depth	lower (5%)	median	upper (95%)

The annotation is tab-separated, one read per line, with the gene in the third
column, the transcript in the fourth and the match type ("full", "partial", ...)
in the fifth. Input may be gzipped, and is read from STDIN when no file or "-"
is given. Reads absent from the annotation can be accounted for with
--original_read_count or --reads.`,
	Args: cobra.MaximumNArgs(1),
	PreRun: func(cmd *cobra.Command, args []string) {
		check(viper.BindPFlags(cmd.Flags()))
	},
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := loadCurveOptions(viper.GetViper(), args)
		check(err)

		StartProfiling()
		err = runCurve(opts)
		StopProfiling()
		check(err)
	},
}
