package pet

import (
	"fmt"
	"slices"
	"strings"

	"github.com/minio/highwayhash"
)

var fingerprintKey = []byte("pardetect-pet-graph-fingerprint!")

// Fingerprint hashes the graph structure (node ids and kinds, edge
// endpoints, types and dependency payloads) independent of insertion order.
// Analysis flags are not included.
func (g *Graph) Fingerprint() (uint64, error) {
	lines := make([]string, 0, len(g.nodes)+len(g.edges))
	for _, n := range g.nodes {
		lines = append(lines, fmt.Sprintf("n %s %s %d-%d", n.ID, n.Kind, n.StartLine, n.EndLine))
	}
	for _, e := range g.edges {
		line := fmt.Sprintf("e %s %s %s", e.From, e.To, e.Type)
		if e.Dep != nil {
			line += fmt.Sprintf(" %s %s %t", e.Dep.Type, e.Dep.Var, e.Dep.InterIteration)
		}
		lines = append(lines, line)
	}
	slices.Sort(lines)

	h, err := highwayhash.New64(fingerprintKey)
	if err != nil {
		return 0, err
	}
	if _, err := h.Write([]byte(strings.Join(lines, "\n"))); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}
