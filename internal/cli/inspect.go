package cli

import (
	"fmt"
	"io"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/adjpack/pkg/adjacency"
	"github.com/matzehuels/adjpack/pkg/codec"
)

// inspectOpts holds the command-line flags for the inspect command.
type inspectOpts struct {
	format      string // binary framing, auto by default
	dump        bool   // print the per-key debug listing
	interactive bool   // open the key browser
}

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var opts inspectOpts

	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Summarize a binary adjacency file",
		Long: `Summarize a binary adjacency file.

By default a table of counts is printed. --dump lists every key with its
neighbors as "[key] { <neighbor, weight> ... }". --interactive opens a
browser over the keys.

Use "-" to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", "", "binary format: auto, legacy, framed (default auto)")
	cmd.Flags().BoolVar(&opts.dump, "dump", false, "print every key and its neighbors")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "I", false, "browse keys interactively")
	cmd.MarkFlagsMutuallyExclusive("dump", "interactive")
	return cmd
}

func (c *CLI) runInspect(cmd *cobra.Command, path string, opts inspectOpts) error {
	format, err := codec.ParseFormat(opts.format, codec.FormatAuto)
	if err != nil {
		return err
	}
	g, hdr, err := loadGraph(cmd.InOrStdin(), path, format)
	if err != nil {
		return err
	}
	loggerFromContext(cmd.Context()).Debug("loaded graph", "keys", g.KeyCount(), "edges", g.EdgeCount(), "format", hdr.Format)

	switch {
	case opts.dump:
		return g.Dump(cmd.OutOrStdout())
	case opts.interactive:
		p := tea.NewProgram(NewKeyBrowserModel(g),
			tea.WithContext(cmd.Context()),
			tea.WithInput(cmd.InOrStdin()),
			tea.WithOutput(cmd.OutOrStdout()))
		_, err := p.Run()
		return err
	default:
		printSummary(cmd.OutOrStdout(), displayPath(path), hdr, summarize(g))
		return nil
	}
}

// loadGraph decodes the whole binary file at path into a graph.
func loadGraph(stdin io.Reader, path string, format codec.Format) (*adjacency.Graph, codec.Header, error) {
	in, err := openInput(stdin, path)
	if err != nil {
		return nil, codec.Header{}, err
	}
	defer in.Close()
	return codec.ReadGraph(in, format)
}

// graphSummary holds the figures shown by inspect.
type graphSummary struct {
	Keys      int
	Edges     int
	MinKey    uint32
	MaxKey    uint32
	MaxDegree int
	MaxKeyOf  uint32 // key with MaxDegree, lowest on ties
	SelfLoops int
}

func summarize(g *adjacency.Graph) graphSummary {
	s := graphSummary{Keys: g.KeyCount(), Edges: g.EdgeCount()}
	first := true
	_ = g.Each(func(key uint32, set *adjacency.NeighborSet) error {
		if first {
			s.MinKey = key
			first = false
		}
		s.MaxKey = key
		if set.Len() > s.MaxDegree {
			s.MaxDegree, s.MaxKeyOf = set.Len(), key
		}
		if _, ok := set.Get(key); ok {
			s.SelfLoops++
		}
		return nil
	})
	return s
}

// printSummary renders the summary as a two-column table.
func printSummary(w io.Writer, name string, hdr codec.Header, s graphSummary) {
	format := string(hdr.Format)
	if hdr.Format == codec.FormatFramed {
		format += " v" + strconv.Itoa(int(hdr.Version))
	}

	rows := [][]string{
		{"Format", format},
		{"Declared keys", strconv.FormatUint(uint64(hdr.Keys), 10)},
		{"Keys", strconv.Itoa(s.Keys)},
		{"Edges", strconv.Itoa(s.Edges)},
	}
	if s.Keys > 0 {
		rows = append(rows,
			[]string{"Key range", fmt.Sprintf("%d..%d", s.MinKey, s.MaxKey)},
			[]string{"Max degree", fmt.Sprintf("%d (key %d)", s.MaxDegree, s.MaxKeyOf)},
			[]string{"Mean degree", strconv.FormatFloat(float64(s.Edges)/float64(s.Keys), 'f', 2, 64)},
			[]string{"Self-loops", strconv.Itoa(s.SelfLoops)},
		)
	}

	labelStyle := lipgloss.NewStyle().Foreground(colorGray)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return labelStyle.PaddingRight(1)
			}
			return StyleNumber
		})

	fmt.Fprintln(w, StyleTitle.Render(name))
	fmt.Fprintln(w, t.Render())
}
