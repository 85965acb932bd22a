package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/okian/battrend/internal/adapters/http/api"
	"github.com/okian/battrend/internal/adapters/http/swagger"
	service "github.com/okian/battrend/internal/app"
	"github.com/okian/battrend/pkg/logger"
	"github.com/okian/battrend/pkg/metrics"
)

const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second

	runtimeSampleInterval = 10 * time.Second
	serviceSampleInterval = 5 * time.Second
)

func newServeCmd(g *globals) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve reports, the alert digest and record ingestion over HTTP",
		Long: `Start the HTTP service: GET /reports/{player_id}, GET /digest, POST /records,
GET /stats, metrics on /healthz and /metrics, and API docs on /api-docs.
The digest is rebuilt on the configured refresh schedule and after new
records are ingested. SIGINT or SIGTERM shuts the server down gracefully.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("addr") {
				g.cfg.Addr = addr
			}
			ln, err := net.Listen("tcp", g.cfg.Addr)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), g, ln)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :9080)")
	return cmd
}

// serve runs the service on ln until ctx is done.
func serve(ctx context.Context, g *globals, ln net.Listener) error {
	log := logger.Get()

	// The engine registry carries its own runtime gauges.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := service.New(g.cfg, service.WithLogger(log.Named("service")))
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer closeService(context.WithoutCancel(ctx), svc)
	if _, err := loadFiles(ctx, svc, g.dataFiles); err != nil {
		return err
	}

	go sampleMetrics(ctx, svc)

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, api.WithLogger(log.Named("http"))).Register(ctx, mux)

	srv := &http.Server{
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
		return err
	}
	log.Info(ctx, "server stopped")
	return nil
}

// sampleMetrics keeps the runtime and service gauges current until ctx is
// done. GC pauses are observed once per collection.
func sampleMetrics(ctx context.Context, svc *service.Service) {
	runtimeTick := time.NewTicker(runtimeSampleInterval)
	defer runtimeTick.Stop()
	serviceTick := time.NewTicker(serviceSampleInterval)
	defer serviceTick.Stop()

	var seenGC uint32
	for {
		select {
		case <-ctx.Done():
			return
		case <-runtimeTick.C:
			seenGC = sampleRuntime(seenGC)
		case <-serviceTick.C:
			// GetStats refreshes the store and queue gauges as it reads them.
			if n, ok := svc.GetStats()["workerCount"].(int); ok {
				metrics.UpdateWorkerCount(n)
			}
		}
	}
}

func sampleRuntime(seenGC uint32) uint32 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	// PauseNs is a ring of the last 256 pauses.
	from := seenGC
	if m.NumGC-from > uint32(len(m.PauseNs)) {
		from = m.NumGC - uint32(len(m.PauseNs))
	}
	for n := from; n < m.NumGC; n++ {
		pause := time.Duration(m.PauseNs[n%uint32(len(m.PauseNs))])
		metrics.RecordSystemGCPauseTime(float64(pause) / float64(time.Millisecond))
	}
	return m.NumGC
}
