package transform_test

import (
	"fmt"

	"github.com/matzehuels/pardetect/pkg/pet"
	"github.com/matzehuels/pardetect/pkg/pet/transform"
)

func ExampleNormalize() {
	g, _ := pet.Build(&pet.Input{Units: map[string]pet.Unit{
		"0:1": {Type: int(pet.KindFunction), StartsAtLine: "0:1", EndsAtLine: "0:9", CallsNode: []string{"0:2"}},
		"0:2": {Type: int(pet.KindDummy), StartsAtLine: "0:3", EndsAtLine: "0:3"},
	}}, nil)

	removed := transform.Normalize(g, transform.DefaultNormalizeOptions())
	fmt.Println("removed:", removed)
	fmt.Println("nodes:", g.NodeCount(), "edges:", g.EdgeCount())
	// Output:
	// removed: [0:2]
	// nodes: 1 edges: 0
}
