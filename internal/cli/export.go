package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pardetect/internal/config"
	perrors "github.com/matzehuels/pardetect/pkg/errors"
	"github.com/matzehuels/pardetect/pkg/export/neo4j"
	pio "github.com/matzehuels/pardetect/pkg/io"
)

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a PET to other stores and formats",
	}

	cmd.AddCommand(c.exportNeo4jCommand())
	cmd.AddCommand(c.exportBundleCommand())

	return cmd
}

// exportNeo4jCommand creates the "export neo4j" subcommand.
func (c *CLI) exportNeo4jCommand() *cobra.Command {
	var (
		opts            detectOpts
		uri, user, pass string
		query           string
	)

	cmd := &cobra.Command{
		Use:   "neo4j <input>",
		Short: "Store the flagged PET in Neo4j",
		Long: `Run detection and store the normalized PET in Neo4j. Units become :Unit nodes
carrying the run id and their pattern flags; edges become CHILD, SUCCESSOR, CALLS
and DATA relationships.

Connection settings default to the neo4j section of the config file. With
--query, the ids of the stored units carrying that flag are read back and listed.`,
		Example: `  pardetect export neo4j pet.json --uri bolt://localhost:7687
  pardetect export neo4j ./profile --query reduction`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if query != "" {
				if err := neo4j.CheckFlag(query); err != nil {
					return err
				}
			}
			nc := c.settings().Neo4j
			setIfNotEmpty(&nc.URI, uri)
			setIfNotEmpty(&nc.Username, user)
			setIfNotEmpty(&nc.Password, pass)
			if nc.URI == "" {
				return perrors.New(perrors.ErrCodeInvalidConfig, "neo4j uri is not configured (use --uri or PARDETECT_NEO4J_URI)")
			}
			return c.runExportNeo4j(cmd.Context(), args[0], opts, nc, query)
		},
	}

	cmd.Flags().StringVar(&uri, "uri", "", "neo4j connection uri")
	cmd.Flags().StringVar(&user, "user", "", "neo4j username")
	cmd.Flags().StringVar(&pass, "password", "", "neo4j password")
	cmd.Flags().BoolVar(&opts.task, "task", false, "also run task-parallelism detection")
	cmd.Flags().BoolVar(&opts.keepDummies, "keep-dummies", false, "keep dummy units in the graph")
	cmd.Flags().StringVar(&query, "query", "", "list stored units with this flag: doall, reduction, pipeline_stage, geometric_decomposition")

	return cmd
}

func (c *CLI) runExportNeo4j(ctx context.Context, input string, opts detectOpts, nc config.Neo4jConfig, query string) error {
	ctx = withLogger(ctx, c.Logger)

	in, err := loadInput(ctx, input)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, true)
	if err != nil {
		return err
	}
	defer runner.Close()

	res, err := detectWithSpinner(ctx, runner, in, c.pipelineOptions(opts))
	if err != nil {
		return err
	}

	x, err := neo4j.New(ctx, nc.URI, nc.Username, nc.Password)
	if err != nil {
		return err
	}
	defer x.Close(context.Background())

	if err := x.StoreGraph(ctx, res.RunID, res.Graph); err != nil {
		return err
	}
	printSuccess("Exported run %s", res.RunID)
	printStats(os.Stdout, res.Stats.NodeCount, res.Stats.EdgeCount, res.Stats.Removed, false)

	if query == "" {
		return nil
	}
	ids, err := x.FlaggedUnits(ctx, res.RunID, query)
	if err != nil {
		return err
	}
	printInfo("%s units: %s", query, StyleNumber.Render(strconv.Itoa(len(ids))))
	for _, id := range ids {
		fmt.Println("  " + id)
	}
	return nil
}

// exportBundleCommand creates the "export bundle" subcommand.
func (c *CLI) exportBundleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "bundle <input> <output>",
		Short: "Convert a profiler directory or bundle to a bundle file",
		Long: `Read a profiler output directory or bundle and write it as a single bundle file.
The output format follows the extension: .json, .yaml/.yml or .toml.`,
		Example: `  pardetect export bundle ./profile pet.yaml`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := withLogger(cmd.Context(), c.Logger)
			in, err := loadInput(ctx, args[0])
			if err != nil {
				return err
			}
			if err := pio.ExportBundle(in, args[1]); err != nil {
				return err
			}
			printSuccess("Wrote bundle with %d units", len(in.Units))
			printFile(args[1])
			return nil
		},
	}
}
