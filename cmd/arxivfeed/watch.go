package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/tmc/arxivfeed"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		f           fetchFlags
		interval    time.Duration
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "watch [category]",
		Short: "Refresh a category periodically and print new papers",
		Long: `Watch fetches a category immediately and then once per interval,
printing papers not seen earlier in the session. Prometheus metrics are
served on --metrics-addr (empty disables the endpoint).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := arxivfeed.CategoryLatest
			if len(args) == 1 {
				c, err := arxivfeed.ParseCategory(args[0])
				if err != nil {
					return err
				}
				if c == arxivfeed.CategorySearch {
					return errUseSearch
				}
				cat = c
			}
			req, err := a.request(cat, &f)
			if err != nil {
				return err
			}
			// Fail now rather than on every tick.
			if _, err := arxivfeed.BuildQuery(req); err != nil {
				return err
			}
			if interval == 0 {
				interval = a.cfg.Refresh.Interval
			}
			if !cmd.Flags().Changed("metrics-addr") {
				metricsAddr = a.cfg.Refresh.MetricsAddr
			}
			return a.watch(cmd.Context(), req, &f, interval, metricsAddr)
		},
	}
	f.register(cmd)
	cmd.Flags().DurationVar(&interval, "interval", 0, "refresh interval (default from config)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address for the /metrics endpoint")
	return cmd
}

func (a *app) watch(ctx context.Context, req arxivfeed.Request, f *fetchFlags, interval time.Duration, metricsAddr string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	client := a.newClient(arxivfeed.WithMetrics(arxivfeed.NewMetrics(reg)))

	var srv *http.Server
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		srv = &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			a.logger.Info("serving metrics", "addr", metricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	seen := make(map[string]bool)
	handle := func(res arxivfeed.Result) {
		if res.Err != nil {
			return
		}
		var fresh []arxivfeed.Paper
		for _, p := range res.Papers {
			if !seen[p.ID] {
				seen[p.ID] = true
				fresh = append(fresh, p)
			}
		}
		a.logger.Info("refreshed", "records", len(res.Papers), "new", len(fresh), "request_id", res.Diagnostics.RequestID)
		if len(fresh) == 0 {
			return
		}
		if f.save {
			if err := a.save(ctx, fresh); err != nil {
				a.logger.Warn("save failed", "error", err)
			}
		}
		if err := render(a.out, f.format, fresh); err != nil {
			a.logger.Warn("render failed", "error", err)
		}
	}

	r := arxivfeed.NewRefresher(client, req, interval, handle, arxivfeed.WithRefreshLogger(a.logger))
	if err := r.Start(ctx); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	<-r.Done()

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown metrics server: %w", err)
		}
	}
	return nil
}
