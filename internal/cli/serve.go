package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/creachadair/taskgroup"
	comms "github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/bjaus/procedure"
	"github.com/bjaus/procedure/internal/config"
	"github.com/bjaus/procedure/internal/demo"
	"github.com/bjaus/procedure/metrics"
	"github.com/bjaus/procedure/middleware"
	"github.com/bjaus/procedure/transport/httprpc"
	"github.com/bjaus/procedure/transport/natsrpc"
)

const logPrefix = "cli:serve"

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the procedure router",
		Long: `Serve the demo procedure router over HTTP and, when PROCD_NATS_URL is
set, over NATS request/reply. Configuration comes from PROCD_* environment
variables. Stops on SIGINT or SIGTERM.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load config", err)
			}
			if err := cfg.Validate(); err != nil {
				return WrapExitError(ExitCommandError, "invalid config", err)
			}
			level, _ := config.ParseLevel(cfg.LogLevel)
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return Serve(ctx, cfg)
		},
	}
}

// Serve runs procd with cfg until ctx ends or a transport fails.
func Serve(ctx context.Context, cfg *config.Config) error {
	slog.Info(fmt.Sprintf("%s - Starting %s", logPrefix, cfg.ServiceName))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector, err := metrics.New(reg, "procd")
	if err != nil {
		return err
	}

	d, err := NewDispatcher(cfg, collector)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g := taskgroup.New(taskgroup.Trigger(cancel))

	if cfg.HTTPAddr != "" {
		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           newMux(d, reg),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			slog.Info(fmt.Sprintf("%s - HTTP server listening on %s", logPrefix, cfg.HTTPAddr))
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("%s - HTTP server error: %w", logPrefix, err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if cfg.NATSURL != "" {
		nc, err := connect(cfg.NATSURL, cfg.ServiceName)
		if err != nil {
			cancel()
			g.Wait()
			return err
		}
		server := natsrpc.NewServer(nc, d, cfg.NATSSubject,
			natsrpc.WithQueue(cfg.NATSQueue),
			natsrpc.WithTimeout(cfg.RequestTimeout),
		)
		if err := server.Start(ctx); err != nil {
			nc.Close()
			cancel()
			g.Wait()
			return err
		}
		g.Go(func() error {
			<-ctx.Done()
			err := server.Stop()
			if derr := nc.Drain(); derr != nil && err == nil {
				err = derr
			}
			return err
		})
	}

	slog.Info(fmt.Sprintf("%s - %s is ready", logPrefix, cfg.ServiceName))
	err = g.Wait()
	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
	return err
}

// NewDispatcher builds the dispatcher for the demo router with the standard
// middleware stack.
func NewDispatcher(cfg *config.Config, collector *metrics.Collector) (*procedure.Dispatcher, error) {
	mws := []procedure.Middleware{middleware.RequestID(), middleware.Logger(slog.Default())}
	if cfg.RateLimitRPS > 0 {
		limiter := middleware.NewLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 0)
		mws = append(mws, middleware.RateLimit(limiter, middleware.ByValue("clientId")))
	}

	router, err := demo.NewRouter(demo.NewStore(), mws...)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to build router: %w", logPrefix, err)
	}

	opts := []procedure.Option{
		procedure.WithLogger(slog.Default()),
		procedure.WithErrorHook(func(shape procedure.ErrorShape, err error) map[string]any {
			return map[string]any{"service": cfg.ServiceName}
		}),
	}
	if collector != nil {
		opts = append(opts, collector.Options()...)
	}
	return procedure.NewDispatcher(router, opts...), nil
}

func newMux(d *procedure.Dispatcher, reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/rpc/", httprpc.New(d,
		httprpc.WithPrefix("/rpc/"),
		httprpc.WithContext(httpContext),
	))
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.Handle("/health", healthHandler(d, slog.Default()))
	return mux
}

func healthHandler(d *procedure.Dispatcher, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		err := json.NewEncoder(w).Encode(map[string]any{
			"status":     "healthy",
			"procedures": d.Table().Len(),
		})
		if err != nil {
			logger.Warn(fmt.Sprintf("%s - failed to write health response: %v", logPrefix, err))
		}
	}
}

// httpContext maps request headers to the base context of a call.
func httpContext(r *http.Request) (procedure.Values, error) {
	values := procedure.Values{}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && token != "" {
		values["token"] = token
	}
	if id := r.Header.Get("X-Request-Id"); id != "" {
		values[middleware.KeyRequestID] = id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host != "" {
		values["clientId"] = host
	}
	return values, nil
}

func connect(url, name string) (*comms.Conn, error) {
	slog.Info(fmt.Sprintf("%s - Connecting to NATS at %s as %s", logPrefix, url, name))

	nc, err := comms.Connect(url,
		comms.Name(name),
		comms.Timeout(10*time.Second),
		comms.ReconnectWait(2*time.Second),
		comms.MaxReconnects(60),
		comms.DisconnectErrHandler(func(_ *comms.Conn, err error) {
			slog.Warn(fmt.Sprintf("%s - NATS disconnected: %v", logPrefix, err))
		}),
		comms.ReconnectHandler(func(nc *comms.Conn) {
			slog.Info(fmt.Sprintf("%s - NATS reconnected to %s", logPrefix, nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to connect to NATS: %w", logPrefix, err)
	}
	return nc, nil
}
