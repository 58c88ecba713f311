package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/adjpack/internal/server"
	apperr "github.com/matzehuels/adjpack/pkg/errors"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr         string
	maxBodyBytes int64
	grace        time.Duration
	noCache      bool
}

// serveCommand creates the serve command for running the HTTP service.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{grace: 10 * time.Second}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the conversion HTTP service",
		Long: `Run the conversion HTTP service.

Endpoints:
  POST /v1/compress?format=legacy|framed&policy=strict|skip
  POST /v1/decompress?format=auto|legacy|framed
  GET  /healthz

Results are cached with the configured backend. The server shuts down
gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.addr == "" {
				opts.addr = c.Config.Server.Addr
			}
			if opts.maxBodyBytes == 0 {
				opts.maxBodyBytes = c.Config.Server.MaxBodyBytes
			}
			if err := apperr.ValidateListenAddr(opts.addr); err != nil {
				return err
			}
			if opts.maxBodyBytes < 0 {
				return apperr.New(apperr.ErrCodeInvalidInput, "--max-body-bytes must be positive")
			}
			return c.runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, else :8080)")
	cmd.Flags().Int64Var(&opts.maxBodyBytes, "max-body-bytes", 0, "request body limit in bytes (default from config, else 64 MiB)")
	cmd.Flags().DurationVar(&opts.grace, "grace", opts.grace, "time allowed for in-flight requests on shutdown")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, opts serveOpts) error {
	ctx := cmd.Context()

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	cfg := server.DefaultConfig()
	cfg.Addr = opts.addr
	cfg.MaxBodyBytes = opts.maxBodyBytes

	srv, err := server.New(runner, loggerFromContext(ctx), cfg)
	if err != nil {
		return err
	}
	return srv.Run(ctx, opts.grace)
}
