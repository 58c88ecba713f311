package codec

import (
	"io"

	"github.com/matzehuels/adjpack/pkg/adjacency"
)

// ReadGraph decodes a whole stream back into a Graph. Records are inserted
// under their stored key as-is, so a well-formed stream rebuilds the graph
// that produced it. Key blocks with no neighbors leave no trace.
func ReadGraph(r io.Reader, format Format) (*adjacency.Graph, Header, error) {
	g := adjacency.New()
	hdr, err := Decode(r, format, func(rec Record) error {
		g.AddNormalized(adjacency.NormalizedEdge{Lo: rec.Key, Hi: rec.Neighbor, Weight: rec.Weight})
		return nil
	})
	if err != nil {
		return nil, hdr, err
	}
	return g, hdr, nil
}
