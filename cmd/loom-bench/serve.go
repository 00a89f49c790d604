package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/cuemby/loom/pkg/log"
	"github.com/cuemby/loom/pkg/metrics"
	"github.com/cuemby/loom/pkg/pool"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve /metrics, /healthz, and /readyz for an idle worker pool",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":9090", "HTTP listen address")
	serveCmd.Flags().Int("shards", 4, "Shard count to report pool stats for")
}

func runServe(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	shards, _ := cmd.Flags().GetInt("shards")

	tp := pool.New(shards)
	collector := metrics.NewCollector(tp, 15*time.Second)
	collector.Start()
	defer collector.Stop()

	metrics.RegisterComponent("pool", true, "")

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", metrics.HealthHandler())
	mux.HandleFunc("/readyz", metrics.ReadyHandler())

	log.WithComponent("bench").Info().Str("addr", addr).Msg("serving metrics and health endpoints")
	return fmt.Errorf("serve: %w", http.ListenAndServe(addr, mux))
}
