/*
Package metrics provides Prometheus metrics collection and exposition for
loom, plus a small health-check registry for long-running hosts.

# Architecture

	┌──────────────────── METRICS SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │          Prometheus Registry                │          │
	│  │  - Global DefaultRegistry                   │          │
	│  │  - MustRegister at package init             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Metric Categories                 │          │
	│  │                                              │          │
	│  │  Runs: count and duration, by mode          │          │
	│  │  Joins: matched-entity counts by arity      │          │
	│  │  Batches: staged-record size distribution   │          │
	│  │  Parallel: shard count, wait time, failures │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │          HTTP Metrics Endpoint              │          │
	│  │  - Path: /metrics                           │          │
	│  │  - Handler: metrics.Handler()                │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Metric Reference

loom_runs_total{mode, outcome}: counter, one system run completion.

loom_run_duration_seconds{mode}: histogram, wall-clock time for a run.

loom_join_matched_entities_total{arity}: counter, entities a join's handler
fired for.

loom_batch_size: histogram, staged records in one Finished batch at apply.

loom_shard_count: gauge, shard count of the last parallel run, or of the
pool a Collector samples.

loom_waiter_wait_duration_seconds: histogram, time a Waiter blocked.

loom_shard_failures_total: counter, failed shard jobs.

# Health

RegisterComponent/UpdateComponent track named components' health; GetHealth,
GetReadiness, and their HTTP handlers expose liveness/readiness for a
long-running host such as the bench CLI's serve mode.

# See Also

  - Prometheus client library: https://github.com/prometheus/client_golang
*/
package metrics
