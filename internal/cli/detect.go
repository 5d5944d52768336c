package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	perrors "github.com/matzehuels/pardetect/pkg/errors"
	pio "github.com/matzehuels/pardetect/pkg/io"
	"github.com/matzehuels/pardetect/pkg/pet"
	"github.com/matzehuels/pardetect/pkg/pipeline"
	"github.com/matzehuels/pardetect/pkg/store"
)

// detectOpts holds the flags of the detect command.
type detectOpts struct {
	task            bool
	format          string
	output          string
	noCache         bool
	restrictToLoops bool
	keepDummies     bool
	allowDoAll      bool
	storeMongo      bool

	fileMapping string
	resultsFile string
	cxxfilt     string
	buildDir    string
}

// detectCommand creates the detect command.
func (c *CLI) detectCommand() *cobra.Command {
	var opts detectOpts

	cmd := &cobra.Command{
		Use:   "detect <input>",
		Short: "Report parallelization opportunities in a PET",
		Long: `Run every pattern detector over a program execution tree and print the report.

The input is a bundle file (.json, .yaml, .toml) or a profiler output directory
containing Data.xml, dependency, loop counter and reduction files. Local paths and
remote URLs (s3://, gs://, https://) are accepted.`,
		Example: `  pardetect detect pet.json
  pardetect detect ./profile --task --format json -o report.json
  pardetect detect pet.yaml --store-mongo`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDetect(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.task, "task", false, "also run task-parallelism detection")
	cmd.Flags().StringVarP(&opts.format, "format", "f", pipeline.FormatText, "report format: text, json")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the report to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the report cache")
	cmd.Flags().BoolVar(&opts.restrictToLoops, "restrict-to-loops", false, "only elide dummy units inside loops")
	cmd.Flags().BoolVar(&opts.keepDummies, "keep-dummies", false, "keep dummy units in the graph")
	cmd.Flags().BoolVar(&opts.allowDoAll, "pipeline-allow-doall", false, "let pipeline detection consider do-all loops")
	cmd.Flags().BoolVar(&opts.storeMongo, "store-mongo", false, "save the report to the configured MongoDB")
	cmd.Flags().StringVar(&opts.fileMapping, "file-mapping", "", "task detection: file id mapping")
	cmd.Flags().StringVar(&opts.resultsFile, "task-results", "", "task detection: results file")
	cmd.Flags().StringVar(&opts.cxxfilt, "cxxfilt", "", "task detection: path to c++filt")
	cmd.Flags().StringVar(&opts.buildDir, "build-dir", "", "task detection: build directory")

	return cmd
}

// pipelineOptions layers explicit flags over the configured defaults.
func (c *CLI) pipelineOptions(opts detectOpts) pipeline.Options {
	po := c.settings().PipelineOptions()
	po.Format = opts.format
	po.EnableTask = po.EnableTask || opts.task
	po.RestrictToLoops = po.RestrictToLoops || opts.restrictToLoops
	po.KeepDummies = po.KeepDummies || opts.keepDummies
	po.PipelineAllowDoAll = po.PipelineAllowDoAll || opts.allowDoAll
	setIfNotEmpty(&po.Task.FileMapping, opts.fileMapping)
	setIfNotEmpty(&po.Task.ResultsFile, opts.resultsFile)
	setIfNotEmpty(&po.Task.CxxfiltPath, opts.cxxfilt)
	setIfNotEmpty(&po.Task.BuildDir, opts.buildDir)
	return po
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (c *CLI) runDetect(ctx context.Context, input string, opts detectOpts) error {
	ctx = withLogger(ctx, c.Logger)

	in, err := loadInput(ctx, input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	po := c.pipelineOptions(opts)

	// A plain report to stdout is served from the cache. Summaries and
	// stored reports need the full result, so they always run detection.
	if opts.output == "" && !opts.storeMongo {
		data, _, err := runner.ReportWithCacheInfo(ctx, in, po)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	res, err := detectWithSpinner(ctx, runner, in, po)
	if err != nil {
		return err
	}
	data, err := res.Render(po.Format)
	if err != nil {
		return err
	}

	if opts.output != "" {
		if err := os.WriteFile(opts.output, data, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		printSuccess("Detected %s patterns", StyleNumber.Render(fmt.Sprint(res.Count())))
		for _, w := range res.Graph.Warnings() {
			printWarning("%s", w.Message)
		}
		printStats(os.Stdout, res.Stats.NodeCount, res.Stats.EdgeCount, res.Stats.Removed, false)
		fmt.Println(patternTable(res))
		printFile(opts.output)
	} else if _, err := os.Stdout.Write(data); err != nil {
		return err
	}

	if opts.storeMongo {
		return c.storeReport(ctx, res)
	}
	return nil
}

// loadInput reads a bundle file or profiler directory.
func loadInput(ctx context.Context, location string) (*pet.Input, error) {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)
	in, err := pio.Load(ctx, location)
	if err != nil {
		return nil, err
	}
	prog.done("loaded input", "location", location, "units", len(in.Units), "dependencies", len(in.Dependencies))
	return in, nil
}

func detectWithSpinner(ctx context.Context, runner *pipeline.Runner, in *pet.Input, opts pipeline.Options) (*pipeline.Result, error) {
	spinner := newSpinnerWithContext(ctx, "Detecting patterns...")
	spinner.Start()
	res, err := runner.Detect(ctx, in, opts)
	if err != nil {
		spinner.StopWithError("Detection failed")
		return nil, err
	}
	spinner.Stop()
	return res, nil
}

func (c *CLI) storeReport(ctx context.Context, res *pipeline.Result) error {
	mc := c.settings().Mongo
	if mc.URI == "" {
		return perrors.New(perrors.ErrCodeInvalidConfig, "--store-mongo: mongo.uri is not configured (set PARDETECT_MONGO_URI)")
	}
	st, err := store.NewMongoStore(ctx, mc.URI, mc.Database, mc.Collection)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())

	doc, err := store.NewDocument(res.Report(), time.Now())
	if err != nil {
		return err
	}
	if err := st.Save(ctx, doc); err != nil {
		return fmt.Errorf("store report: %w", err)
	}
	printSuccess("Stored run %s", StyleValue.Render(doc.RunID))
	return nil
}
