package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pardetect/pkg/api"
	"github.com/matzehuels/pardetect/pkg/buildinfo"
	"github.com/matzehuels/pardetect/pkg/observability"
	"github.com/matzehuels/pardetect/pkg/store"
)

const shutdownTimeout = 10 * time.Second

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve detection over HTTP",
		Long: `Start the HTTP API.

  POST /v1/detect          run detection, respond with the report
  POST /v1/runs            run detection and store the report
  GET  /v1/runs            list stored runs, newest first
  GET  /v1/runs/{runID}    fetch a stored report

Reports are stored in MongoDB when mongo.uri is configured and in memory
otherwise. Stages are traced over OTLP when tracing.otlp_endpoint is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.settings().Server.Addr
			}
			return c.runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string) error {
	cfg := c.settings()

	tp, err := observability.InitTracing(ctx, cfg.ObservabilityTracing(buildinfo.Version))
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = tp.Shutdown(sctx)
	}()
	if cfg.Tracing.OTLPEndpoint != "" {
		hooks := observability.NewTracingHooks(tp.Tracer())
		observability.SetStageHooks(hooks)
		observability.SetCacheHooks(hooks)
		defer observability.Reset()
		c.Logger.Info("tracing enabled", "endpoint", cfg.Tracing.OTLPEndpoint)
	}

	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())

	runner, err := c.newRunner(ctx, false)
	if err != nil {
		return err
	}
	defer runner.Close()

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(runner, st, c.Logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("listening", "addr", addr, "version", buildinfo.Short())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}

func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	mc := c.settings().Mongo
	if mc.URI == "" {
		c.Logger.Warn("mongo.uri not set, runs are kept in memory")
		return store.NewMemoryStore(), nil
	}
	return store.NewMongoStore(ctx, mc.URI, mc.Database, mc.Collection)
}
