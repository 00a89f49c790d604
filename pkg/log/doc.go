/*
Package log provides structured logging for loom using zerolog.

The log package wraps zerolog to provide JSON-structured logging with
component-specific loggers, configurable log levels, and helper functions for
common logging patterns. All logs include timestamps and support filtering by
severity level.

# Usage

Initializing the logger:

	import "github.com/cuemby/loom/pkg/log"

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

Simple logging:

	log.Info("runner started")
	log.Debug("shard dispatched")
	log.Warn("batch larger than expected")
	log.Error("join failed")

Component and run-scoped loggers:

	joinLog := log.WithComponent("join")
	joinLog.Debug().Int("entities", 1200).Msg("join pass complete")

	shardLog := log.WithRun(42).With().Int("shard", 3).Logger()
	shardLog.Error().Err(err).Msg("shard failed")

# Design Patterns

Global Logger Pattern:
  - Single package-level Logger instance, initialized once via log.Init
  - Accessible from all packages without passing a logger through call chains

Context Logger Pattern:
  - WithComponent, WithShard, and WithRun produce child loggers carrying a
    fixed field, so call sites don't repeat the same Str/Int pair everywhere

# See Also

  - Zerolog documentation: https://github.com/rs/zerolog
*/
package log
