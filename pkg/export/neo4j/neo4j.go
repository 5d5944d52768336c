// Package neo4j persists program graphs and their pattern flags into Neo4j.
//
// Every unit becomes a (:Unit) node keyed by run id and unit id, carrying
// its kind, span and pattern flags. Edges become CHILD, SUCCESSOR, DATA
// and CALLS relationships; DATA relationships carry the dependency type
// and variable. Edges that point at missing units are skipped.
package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	perrors "github.com/matzehuels/pardetect/pkg/errors"
	"github.com/matzehuels/pardetect/pkg/pet"
)

// Exporter writes graphs through a Neo4j driver.
type Exporter struct {
	driver neo4j.DriverWithContext
}

// New connects to Neo4j and verifies connectivity.
func New(ctx context.Context, uri, username, password string) (*Exporter, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}
	return &Exporter{driver: driver}, nil
}

type statement struct {
	cypher string
	params map[string]any
}

var relTypes = map[pet.EdgeType]string{
	pet.EdgeChild:     "CHILD",
	pet.EdgeSuccessor: "SUCCESSOR",
	pet.EdgeData:      "DATA",
	pet.EdgeCalls:     "CALLS",
}

const mergeUnit = "MERGE (u:Unit {run: $run, id: $id}) " +
	"SET u.kind = $kind, u.name = $name, u.file = $file, u.start = $start, u.end = $end, " +
	"u.doall = $doall, u.reduction = $reduction, u.pipeline_stage = $pipeline_stage, " +
	"u.geometric_decomposition = $gd"

// unitStatements returns one MERGE per unit, in graph order.
func unitStatements(runID string, g *pet.Graph) []statement {
	var out []statement
	for _, n := range g.AllNodes() {
		params := map[string]any{
			"run":            runID,
			"id":             n.ID.String(),
			"kind":           n.Kind.String(),
			"name":           n.Name,
			"file":           int64(n.SourceFile),
			"start":          int64(n.StartLine),
			"end":            int64(n.EndLine),
			"doall":          n.Flags.DoAll,
			"reduction":      n.Flags.Reduction,
			"pipeline_stage": n.Flags.PipelineStage,
			"gd":             n.Flags.GeometricDecomposition,
		}
		out = append(out, statement{cypher: mergeUnit, params: params})
	}
	return out
}

// edgeStatements returns one MERGE per edge whose endpoints both exist.
// Data edges are distinguished by variable and dependency type so
// parallel dependencies stay separate relationships.
func edgeStatements(runID string, g *pet.Graph) []statement {
	var out []statement
	for _, e := range g.Edges() {
		if !g.HasNode(e.From) || !g.HasNode(e.To) {
			continue
		}
		params := map[string]any{"run": runID, "from": e.From.String(), "to": e.To.String()}
		match := "MATCH (a:Unit {run: $run, id: $from}), (b:Unit {run: $run, id: $to}) "
		if e.Type == pet.EdgeData && e.Dep != nil {
			params["var"] = e.Dep.Var
			params["dep"] = string(e.Dep.Type)
			params["inter"] = e.Dep.InterIteration
			out = append(out, statement{
				cypher: match + "MERGE (a)-[r:DATA {var: $var, dep: $dep}]->(b) SET r.inter_iteration = $inter",
				params: params,
			})
			continue
		}
		out = append(out, statement{
			cypher: match + fmt.Sprintf("MERGE (a)-[:%s]->(b)", relTypes[e.Type]),
			params: params,
		})
	}
	return out
}

// StoreGraph writes g under runID. Units are written in one transaction
// and edges in a second, so relationships always find their endpoints.
func (x *Exporter) StoreGraph(ctx context.Context, runID string, g *pet.Graph) error {
	session := x.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	for _, batch := range []struct {
		name  string
		stmts []statement
	}{
		{"units", unitStatements(runID, g)},
		{"edges", edgeStatements(runID, g)},
	} {
		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			for _, s := range batch.stmts {
				if _, err := tx.Run(ctx, s.cypher, s.params); err != nil {
					return nil, err
				}
			}
			return nil, nil
		})
		if err != nil {
			return fmt.Errorf("store %s: %w", batch.name, err)
		}
	}
	return nil
}

// FlaggedUnits returns the ids of units in runID with the given flag
// property set, e.g. "doall" or "reduction".
func (x *Exporter) FlaggedUnits(ctx context.Context, runID, flag string) ([]string, error) {
	query, err := flaggedQuery(flag)
	if err != nil {
		return nil, err
	}
	session := x.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, query, map[string]any{"run": runID})
		if err != nil {
			return nil, err
		}
		var ids []string
		for records.Next(ctx) {
			id, _ := records.Record().Get("u.id")
			ids = append(ids, id.(string))
		}
		return ids, records.Err()
	})
	if err != nil {
		return nil, err
	}
	ids, _ := result.([]string)
	return ids, nil
}

// CheckFlag reports whether flag names a pattern flag property.
func CheckFlag(flag string) error {
	if !validFlags[flag] {
		return perrors.New(perrors.ErrCodeInvalidInput, "unknown flag %q (must be one of: doall, reduction, pipeline_stage, geometric_decomposition)", flag)
	}
	return nil
}

func flaggedQuery(flag string) (string, error) {
	if err := CheckFlag(flag); err != nil {
		return "", err
	}
	return fmt.Sprintf("MATCH (u:Unit {run: $run}) WHERE u.%s RETURN u.id ORDER BY u.id", flag), nil
}

var validFlags = map[string]bool{
	"doall":                   true,
	"reduction":               true,
	"pipeline_stage":          true,
	"geometric_decomposition": true,
}

// Close releases the driver.
func (x *Exporter) Close(ctx context.Context) error {
	return x.driver.Close(ctx)
}
