package main

import (
	"fmt"
	"time"

	"github.com/cuemby/loom/pkg/component"
	"github.com/cuemby/loom/pkg/entity"
	"github.com/cuemby/loom/pkg/handle"
	"github.com/cuemby/loom/pkg/log"
	"github.com/cuemby/loom/pkg/pool"
	"github.com/cuemby/loom/pkg/system"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the position/velocity join for a number of ticks and report timing",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().Int("entities", 100_000, "Number of entities to simulate")
	runCmd.Flags().Int("ticks", 100, "Number of join ticks to run")
	runCmd.Flags().Int("shards", 4, "Shard count for --mode=parallel")
	runCmd.Flags().String("mode", "sequential", "sequential or parallel")
}

func runRun(cmd *cobra.Command, _ []string) error {
	entities, _ := cmd.Flags().GetInt("entities")
	ticks, _ := cmd.Flags().GetInt("ticks")
	shards, _ := cmd.Flags().GetInt("shards")
	mode, _ := cmd.Flags().GetString("mode")

	runID := uuid.New()
	runLog := log.WithComponent("bench").With().Str("run_id", runID.String()).Logger()
	runLog.Info().Int("entities", entities).Int("ticks", ticks).Str("mode", mode).Msg("starting run")

	positions, velocities := buildWorld(entities)

	move := func(e entity.U64, pos *handle.Mutable[entity.U64, Position], vel *handle.CopyOnWrite[entity.U64, Velocity]) error {
		v := vel.Value()
		p := pos.ValueMut()
		p.X += v.DX
		p.Y += v.DY
		return nil
	}

	start := time.Now()

	switch mode {
	case "sequential":
		for i := 0; i < ticks; i++ {
			if err := system.System2(positions, velocities, move); err != nil {
				return fmt.Errorf("tick %d: %w", i, err)
			}
		}
	case "parallel":
		scheme := component.NewHashScheme(shards, hashU64)
		partPos := positions.Partition(scheme)
		partVel := velocities.Partition(scheme)
		tp := pool.New(shards)
		for i := 0; i < ticks; i++ {
			if err := system.SystemParallel2(tp, partPos, partVel, move); err != nil {
				return fmt.Errorf("tick %d: %w", i, err)
			}
		}
	default:
		return fmt.Errorf("unknown mode %q (want sequential or parallel)", mode)
	}

	elapsed := time.Since(start)
	runLog.Info().
		Dur("elapsed", elapsed).
		Float64("ticks_per_sec", float64(ticks)/elapsed.Seconds()).
		Msg("run complete")
	return nil
}
