package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/adjpack/pkg/codec"
	apperr "github.com/matzehuels/adjpack/pkg/errors"
	"github.com/matzehuels/adjpack/pkg/render"
)

// defaultMaxSVGEdges bounds graphs sent through the in-process layout.
const defaultMaxSVGEdges = 5000

// dotOpts holds the command-line flags for the dot command.
type dotOpts struct {
	output   string // output file, "" or "-" for stdout
	format   string // binary framing, auto by default
	svg      bool   // lay out and emit SVG instead of DOT
	weights  bool   // label edges with weights
	layout   string // graphviz layout engine
	maxEdges int    // refuse SVG layout above this many edges
}

// dotCommand creates the dot command.
func (c *CLI) dotCommand() *cobra.Command {
	opts := dotOpts{
		weights:  true,
		layout:   "neato",
		maxEdges: defaultMaxSVGEdges,
	}

	cmd := &cobra.Command{
		Use:   "dot [file]",
		Short: "Render a binary adjacency file as a Graphviz graph",
		Long: `Render a binary adjacency file as an undirected Graphviz graph.

DOT source is written by default. With --svg the graph is laid out in-process
and written as SVG; graphs above --max-edges are refused since layout time
grows quickly with size.`,
		Example: `  adjpack dot edges.bin | dot -Tpng > edges.png
  adjpack dot edges.bin --svg -o edges.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDot(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.format, "format", "", "binary format: auto, legacy, framed (default auto)")
	cmd.Flags().BoolVar(&opts.svg, "svg", false, "write SVG instead of DOT")
	cmd.Flags().BoolVar(&opts.weights, "weights", opts.weights, "label edges with their weight")
	cmd.Flags().StringVar(&opts.layout, "layout", opts.layout, "graphviz layout engine: "+strings.Join(render.Layouts, ", "))
	cmd.Flags().IntVar(&opts.maxEdges, "max-edges", opts.maxEdges, "largest graph accepted with --svg")
	return cmd
}

func (c *CLI) runDot(cmd *cobra.Command, path string, opts dotOpts) error {
	ctx := cmd.Context()

	if err := render.ValidateLayout(opts.layout); err != nil {
		return err
	}
	format, err := codec.ParseFormat(opts.format, codec.FormatAuto)
	if err != nil {
		return err
	}
	g, _, err := loadGraph(cmd.InOrStdin(), path, format)
	if err != nil {
		return err
	}

	dot := render.ToDOT(g, render.Options{Weights: opts.weights, Layout: opts.layout})
	data := []byte(dot)

	if opts.svg {
		if g.EdgeCount() > opts.maxEdges {
			return apperr.New(apperr.ErrCodeInvalidInput,
				"graph has %d edges, more than --max-edges %d; write DOT and lay it out externally", g.EdgeCount(), opts.maxEdges)
		}
		prog := newProgress(loggerFromContext(ctx))
		data, err = render.RenderSVG(ctx, dot)
		if err != nil {
			return fmt.Errorf("render svg: %w", err)
		}
		prog.done(fmt.Sprintf("Rendered %d edges", g.EdgeCount()))
	}

	out, err := createOutput(cmd.OutOrStdout(), opts.output)
	if err != nil {
		return err
	}
	defer out.Abort()

	if _, err := out.Write(data); err != nil {
		return apperr.Wrap(apperr.ErrCodeIO, err, "write output")
	}
	if err := out.Commit(); err != nil {
		return err
	}
	if out.IsFile() {
		printSuccess(cmd.OutOrStdout(), "Rendered %s", displayPath(path))
		printFile(cmd.OutOrStdout(), opts.output)
	}
	return nil
}
