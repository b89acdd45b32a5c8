package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/supertrend/config"
	"github.com/rustyeddy/supertrend/logger"
	"github.com/rustyeddy/supertrend/metrics"
	"github.com/rustyeddy/supertrend/session"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the strategy from a config file",
	Long: `Run the Supertrend flip strategy using settings from a configuration file.

A CSV feed is a paper run: bars are replayed through the paper gateway and
open positions are closed when the file ends. An OANDA feed polls for closed
candles until interrupted.

Example:
  supertrend run -f supertrend.yaml`,
	RunE: runRun,
}

var runConfigPath string

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	_ = runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		if errors.Is(err, session.ErrTimeZoneResolution) {
			return fmt.Errorf("session clock cannot be resolved, refusing to start: %w", err)
		}
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg, cfg.Strategy.Label)

	r, closer, err := buildRunner(cfg, log, m)
	if err != nil {
		log.Error("startup failed", zap.Error(err))
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Listen != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Listen,
			Handler:           metricsMux(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info("metrics listening", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server", zap.Error(err))
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	sum, err := r.Run(ctx)
	if err != nil {
		log.Error("run failed", zap.Error(err))
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "bars=%d orders=%d closes=%d failures=%d\n", sum.Bars, sum.Orders, sum.Closes, sum.Failures)
	if !sum.Start.IsZero() {
		fmt.Fprintf(out, "from %s to %s\n", sum.Start.Format(time.RFC3339), sum.End.Format(time.RFC3339))
	}
	return nil
}

func metricsMux(reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}
