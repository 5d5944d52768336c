package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pardetect/pkg/cache"
	perrors "github.com/matzehuels/pardetect/pkg/errors"
	"github.com/matzehuels/pardetect/pkg/pipeline"
	"github.com/matzehuels/pardetect/pkg/render"
)

// Graph output formats.
const (
	graphDOT = "dot"
	graphSVG = "svg"
	graphPDF = "pdf"
	graphPNG = "png"
)

// graphOpts holds the flags of the graph command.
type graphOpts struct {
	detect    detectOpts
	format    string
	output    string
	detailed  bool
	highlight bool
	edges     string
}

// graphCommand creates the graph command.
func (c *CLI) graphCommand() *cobra.Command {
	var opts graphOpts

	cmd := &cobra.Command{
		Use:   "graph <input>",
		Short: "Draw the normalized PET",
		Long: `Draw the program execution tree after normalization, with units flagged by
pattern detection highlighted.

Formats: dot (Graphviz source), svg, pdf, png. PDF and PNG require rsvg-convert.`,
		Example: `  pardetect graph pet.json > pet.dot
  pardetect graph pet.json -f svg -o pet.svg --detailed --highlight`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", graphDOT, "output format: dot, svg, pdf, png")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label units with kind, name, lines and iterations")
	cmd.Flags().BoolVar(&opts.highlight, "highlight", false, "emphasize units flagged by detection")
	cmd.Flags().StringVar(&opts.edges, "edges", "", "comma-separated edge types to draw (default all)")
	cmd.Flags().BoolVar(&opts.detect.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&opts.detect.keepDummies, "keep-dummies", false, "keep dummy units in the graph")
	cmd.Flags().BoolVar(&opts.detect.restrictToLoops, "restrict-to-loops", false, "only elide dummy units inside loops")

	return cmd
}

func (c *CLI) runGraph(ctx context.Context, input string, opts graphOpts) error {
	ctx = withLogger(ctx, c.Logger)

	ropts, err := renderOptions(opts)
	if err != nil {
		return err
	}
	switch opts.format {
	case graphDOT, graphSVG, graphPDF, graphPNG:
	default:
		return perrors.New(perrors.ErrCodeInvalidFormat, "invalid graph format: %q (must be one of: dot, svg, pdf, png)", opts.format)
	}

	in, err := loadInput(ctx, input)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, opts.detect.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	po := c.pipelineOptions(opts.detect)
	po.Format = pipeline.FormatText
	res, err := detectWithSpinner(ctx, runner, in, po)
	if err != nil {
		return err
	}

	key := runner.Keyer.ArtifactKey(strconv.FormatUint(res.Fingerprint, 16), cache.ArtifactKeyOpts{
		Format:    artifactFormat(opts, po),
		Normalize: !po.KeepDummies,
	})
	data, hit, _ := runner.Cache.Get(ctx, key)
	if !hit {
		data, err = drawGraph(ctx, res, opts.format, ropts)
		if err != nil {
			return err
		}
		if err := runner.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
			c.Logger.Warn("cache graph", "error", err)
		}
	}

	if opts.output == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("write graph: %w", err)
	}
	printSuccess("Rendered %s", strings.ToUpper(opts.format))
	printStats(os.Stdout, res.Stats.NodeCount, res.Stats.EdgeCount, res.Stats.Removed, hit)
	printFile(opts.output)
	return nil
}

// artifactFormat folds every drawing flag, and the detection options that
// change highlighting, into the cache key format.
func artifactFormat(opts graphOpts, po pipeline.Options) string {
	return fmt.Sprintf("%s;detailed=%t;highlight=%t;edges=%s;task=%t;doall=%t;loops=%t",
		opts.format, opts.detailed, opts.highlight, opts.edges,
		po.EnableTask, po.PipelineAllowDoAll, po.RestrictToLoops)
}

func renderOptions(opts graphOpts) (render.Options, error) {
	ro := render.Options{Detailed: opts.detailed, Highlight: opts.highlight}
	if opts.edges == "" {
		return ro, nil
	}
	for _, name := range strings.Split(opts.edges, ",") {
		t, err := render.ParseEdgeType(strings.TrimSpace(name))
		if err != nil {
			return ro, err
		}
		ro.EdgeTypes = append(ro.EdgeTypes, t)
	}
	return ro, nil
}

func drawGraph(ctx context.Context, res *pipeline.Result, format string, opts render.Options) ([]byte, error) {
	dot := render.ToDOT(res.Graph, opts)
	switch format {
	case graphSVG:
		return render.RenderSVG(ctx, dot)
	case graphPDF:
		return render.RenderPDF(ctx, dot)
	case graphPNG:
		return render.RenderPNG(ctx, dot, 2)
	default:
		return []byte(dot), nil
	}
}
