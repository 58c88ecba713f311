package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/adjpack/pkg/adjacency"
	"github.com/matzehuels/adjpack/pkg/edgelist"
	apperr "github.com/matzehuels/adjpack/pkg/errors"
)

// verifyCommand creates the verify command.
func (c *CLI) verifyCommand() *cobra.Command {
	var policy string

	cmd := &cobra.Command{
		Use:   "verify [source.txt] [decoded.txt]",
		Short: "Check that a decoded edge list holds every source edge",
		Long: `Check that a decoded edge list holds every source edge.

Each source line must appear in the decoded list with the same weight, in
either orientation. "Ok" is printed when nothing is missing; otherwise the
missing source lines are printed and the command fails.

A source pair that repeats with a different weight is reported, since only
its first weight survives a round trip.`,
		Example: `  adjpack compress -i edges.txt -o edges.bin
  adjpack decompress -i edges.bin -o decoded.txt
  adjpack verify edges.txt decoded.txt`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := edgelist.ParsePolicy(policy)
			if err != nil {
				return err
			}
			return c.runVerify(cmd, args[0], args[1], p)
		},
	}

	cmd.Flags().StringVar(&policy, "policy", "", "malformed lines: strict, skip (default strict)")
	return cmd
}

func (c *CLI) runVerify(cmd *cobra.Command, sourcePath, decodedPath string, policy edgelist.Policy) error {
	prog := newProgress(loggerFromContext(cmd.Context()))

	source, err := readEdges(cmd.InOrStdin(), sourcePath, policy)
	if err != nil {
		return err
	}
	decoded, err := readEdges(cmd.InOrStdin(), decodedPath, policy)
	if err != nil {
		return err
	}

	missing := diffEdges(source, decoded)
	prog.done(fmt.Sprintf("Verified %d edges against %d", len(source), len(decoded)))

	out := cmd.OutOrStdout()
	if len(missing) == 0 {
		fmt.Fprintln(out, "Ok")
		return nil
	}

	w := edgelist.NewWriter(out)
	for _, e := range missing {
		if err := w.Write(e.A, e.B, e.Weight); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return apperr.New(apperr.ErrCodeInvalidInput, "%d of %d source edges missing from %s", len(missing), len(source), decodedPath)
}

func readEdges(stdin io.Reader, path string, policy edgelist.Policy) ([]edgelist.Edge, error) {
	in, err := openInput(stdin, path)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	return edgelist.ReadAll(in, edgelist.Options{Policy: policy})
}

// diffEdges returns the source edges, in source order, that have no
// decoded counterpart with the same endpoints and weight.
func diffEdges(source, decoded []edgelist.Edge) []edgelist.Edge {
	have := make(map[adjacency.NormalizedEdge]struct{}, len(decoded))
	for _, e := range decoded {
		have[adjacency.Normalize(e)] = struct{}{}
	}

	var missing []edgelist.Edge
	for _, e := range source {
		if _, ok := have[adjacency.Normalize(e)]; !ok {
			missing = append(missing, e)
		}
	}
	return missing
}
