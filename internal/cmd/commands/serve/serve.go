package serve

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hashicorp-forge/hermes-distributor/internal/api"
	"github.com/hashicorp-forge/hermes-distributor/internal/cmd/base"
	"github.com/hashicorp-forge/hermes-distributor/internal/server"
	"github.com/hashicorp-forge/hermes-distributor/internal/version"
)

type Command struct {
	*base.Command

	flagConfig string
	flagAddr   string
}

func (c *Command) Synopsis() string {
	return "Run the distributor HTTP server"
}

func (c *Command) Help() string {
	return `Usage: hermes-distributor serve [-config=config.hcl]

  Run the HTTP server that copies template documents on request.

  Without a config file, defaults apply and the environment variables
  APP_ID, APP_SECRET, DEFAULT_FOLDER_TOKEN, TENANT_DOMAIN and PORT are used.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("serve", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", os.Getenv("DISTRIBUTOR_CONFIG"),
		"[DISTRIBUTOR_CONFIG] Path to the HCL config file",
	)
	f.StringVar(
		&c.flagAddr, "addr", "",
		"Address to listen on, overriding the config file and PORT",
	)

	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	cfg, err := c.LoadConfig(c.flagConfig)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error loading config: %v", err))
		return 1
	}
	if c.flagAddr != "" {
		cfg.Server.Addr = c.flagAddr
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	srv, err := server.New(cfg, c.Log, reg)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error initializing server: %v", err))
		return 1
	}

	httpSrv := &http.Server{
		Handler:           api.NewRouter(srv, reg),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeoutDuration(),
		WriteTimeout:      cfg.Server.WriteTimeoutDuration(),
	}

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error listening on %s: %v", cfg.Server.Addr, err))
		return 1
	}

	c.Log.Info("starting server",
		"addr", ln.Addr().String(),
		"version", version.Version,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Serve(ctx, httpSrv, ln, cfg.Server.ShutdownTimeoutDuration(), c.Log); err != nil {
		c.UI.Error(fmt.Sprintf("error running server: %v", err))
		return 1
	}

	return 0
}

// Serve serves HTTP on ln until ctx is done, then shuts the server down,
// waiting up to shutdownTimeout for in-flight requests.
func Serve(ctx context.Context, httpSrv *http.Server, ln net.Listener, shutdownTimeout time.Duration, log hclog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server", "timeout", shutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	log.Info("server stopped")
	return nil
}
