package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/splity/internal/config"
	"github.com/mmynk/splity/internal/metrics"
	"github.com/mmynk/splity/internal/middleware"
	"github.com/mmynk/splity/internal/service"
	"github.com/mmynk/splity/internal/storage/sqlite"
	"github.com/mmynk/splity/pkg/logging"
)

const usage = `usage: splity <command> [flags]

commands:
  group create -name NAME -creator NAME [-currency CODE] [-desc TEXT]
  group join   -code CODE -name NAME
  member add   -group ID -name NAME
  member list  -group ID
  bill add     -group ID -payer ID -desc TEXT -amount N -owe ID,ID,...
  bill paid    -bill ID -participant ID
  settle       -group ID [-json]
  watch        -group ID [-every DURATION]
`

// app bundles the services the commands run against.
type app struct {
	groups      *service.GroupService
	bills       *service.BillService
	settlements *service.SettlementService
	cfg         *config.Config
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logging.SetupWithLevel(logging.ParseLevel(cfg.LogLevel))

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Debug("Storage initialized", "database", cfg.DBPath)

	m := metrics.New(prometheus.DefaultRegisterer)
	a := &app{
		groups:      service.NewGroupService(store, cfg.DefaultCurrency),
		bills:       service.NewBillService(store),
		settlements: service.NewSettlementService(store, m),
		cfg:         cfg,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// serveMetrics exposes /metrics on addr until ctx is done.
func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: middleware.Logging(mux), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	slog.Info("Metrics listening", "address", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Metrics server failed", "error", err)
	}
}
