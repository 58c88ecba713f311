package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	apperr "github.com/matzehuels/adjpack/pkg/errors"
	"github.com/matzehuels/adjpack/pkg/pipeline"
)

type operation int

const (
	opCompress operation = iota
	opDecompress
)

func (op operation) String() string {
	if op == opCompress {
		return "compress"
	}
	return "decompress"
}

// convertOpts holds the flags shared by compress and decompress.
type convertOpts struct {
	input   string // input file, "" or "-" for stdin
	output  string // output file, "" or "-" for stdout
	format  string // binary framing
	policy  string // malformed-line policy (compress only)
	noCache bool   // bypass the result cache entirely
	refresh bool   // recompute and overwrite the cached result
}

// compressCommand creates the compress command.
func (c *CLI) compressCommand() *cobra.Command {
	var opts convertOpts

	cmd := &cobra.Command{
		Use:   "compress",
		Short: "Convert a text edge list to the binary adjacency format",
		Long: `Convert a text edge list to the binary adjacency format.

Each input line is "a<TAB>b<TAB>w" with unsigned 32-bit node ids and an 8-bit
weight. Every undirected edge is stored once under its lower endpoint; when a
pair repeats, the first weight seen is kept.

The legacy format is the bare adjacency layout; framed prefixes it with a
magic number and version byte so decoders can detect it.

Malformed lines fail the run under --policy strict (the default) and are
logged and skipped under --policy skip.`,
		Example: `  adjpack compress -i edges.txt -o edges.bin
  cat edges.txt | adjpack compress --format framed > edges.bin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format == "" {
				opts.format = c.Config.Format
			}
			if opts.policy == "" {
				opts.policy = c.Config.Policy
			}
			return c.runConvert(cmd, opCompress, opts)
		},
	}

	addConvertFlags(cmd, &opts)
	cmd.Flags().StringVar(&opts.format, "format", "", "binary format: legacy, framed (default from config, else legacy)")
	cmd.Flags().StringVar(&opts.policy, "policy", "", "malformed lines: strict, skip (default from config, else strict)")
	return cmd
}

// decompressCommand creates the decompress command.
func (c *CLI) decompressCommand() *cobra.Command {
	var opts convertOpts

	cmd := &cobra.Command{
		Use:   "decompress",
		Short: "Convert a binary adjacency file back to a text edge list",
		Long: `Convert a binary adjacency file back to a text edge list.

One "key<TAB>neighbor<TAB>weight" line is written per stored edge, in stored
order. The input is read lazily; a file that ends before its declared counts
fails with TRUNCATED_INPUT.

With --format auto (the default) framed and legacy files are told apart by
their first bytes.`,
		Example: `  adjpack decompress -i edges.bin -o edges.txt
  adjpack decompress < edges.bin | sort -n`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runConvert(cmd, opDecompress, opts)
		},
	}

	addConvertFlags(cmd, &opts)
	cmd.Flags().StringVar(&opts.format, "format", "", "binary format: auto, legacy, framed (default auto)")
	return cmd
}

func addConvertFlags(cmd *cobra.Command, opts *convertOpts) {
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "input file (default stdin)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached results")
}

// legacyOpts holds the root command's classic flags.
type legacyOpts struct {
	compress   bool
	decompress bool
	input      string
	output     string
}

// runLegacy handles "adjpack -s|-d -i <in> -o <out>". Both files are
// required in this form.
func (c *CLI) runLegacy(cmd *cobra.Command, l legacyOpts) error {
	var op operation
	switch {
	case l.compress && l.decompress:
		return apperr.New(apperr.ErrCodeInvalidInput, "choose one mode: -s (compress) or -d (decompress)")
	case l.compress:
		op = opCompress
	case l.decompress:
		op = opDecompress
	default:
		if cmd.Flags().NFlag() == 0 {
			_ = cmd.Usage()
		}
		return apperr.New(apperr.ErrCodeInvalidInput, "unknown mode: pass -s (compress) or -d (decompress)")
	}
	if l.input == "" {
		return apperr.New(apperr.ErrCodeInvalidInput, "input filename expected (-i)")
	}
	if l.output == "" {
		return apperr.New(apperr.ErrCodeInvalidInput, "output filename expected (-o)")
	}

	opts := convertOpts{input: l.input, output: l.output}
	if op == opCompress {
		opts.format, opts.policy = c.Config.Format, c.Config.Policy
	}
	return c.runConvert(cmd, op, opts)
}

// runConvert wires files, cache and runner together for one conversion.
func (c *CLI) runConvert(cmd *cobra.Command, op operation, opts convertOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	in, err := openInput(cmd.InOrStdin(), opts.input)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := createOutput(cmd.OutOrStdout(), opts.output)
	if err != nil {
		return err
	}
	defer out.Abort()

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	popts := pipeline.Options{
		Format:  opts.format,
		Policy:  opts.policy,
		Refresh: opts.refresh,
		Logger:  logger,
	}

	var spinner *Spinner
	if out.IsFile() {
		spinner = newSpinner(ctx, cmd.ErrOrStderr(), fmt.Sprintf("Running %s...", op))
		spinner.Start()
	}

	res, err := convert(ctx, runner, op, in, out, popts)
	if err != nil {
		if spinner != nil {
			spinner.StopWithError(fmt.Sprintf("%s failed", op))
		}
		return err
	}
	if spinner != nil {
		spinner.Stop()
	}
	if err := out.Commit(); err != nil {
		return err
	}

	if out.IsFile() {
		w := cmd.OutOrStdout()
		if op == opCompress {
			printSuccess(w, "Compressed %s", displayPath(opts.input))
			printStats(w, res.Stats.Keys, res.Stats.Edges, res.CacheHit)
			if res.Stats.Skipped > 0 {
				printWarning(w, "%d malformed lines skipped", res.Stats.Skipped)
			}
		} else {
			printSuccess(w, "Decompressed %s", displayPath(opts.input))
			printStats(w, res.Stats.Keys, res.Stats.Records, res.CacheHit)
		}
		printFile(w, opts.output)
		if op == opCompress {
			printNextStep(w, "Inspect it", "adjpack inspect "+opts.output)
		}
	}
	return nil
}

func convert(ctx context.Context, r *pipeline.Runner, op operation, in io.Reader, out io.Writer, opts pipeline.Options) (*pipeline.Result, error) {
	if op == opCompress {
		return r.Compress(ctx, in, out, opts)
	}
	return r.Decompress(ctx, in, out, opts)
}

func displayPath(path string) string {
	if isStdio(path) {
		return "stdin"
	}
	return path
}
