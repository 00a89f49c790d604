// Command loom-bench drives loom's join engine against a synthetic
// position/velocity workload, to exercise the Mutable and CopyOnWrite
// ComponentCollection strategies and both the sequential and parallel system
// builders end to end.
package main

import (
	"fmt"
	"os"

	"github.com/cuemby/loom/pkg/log"
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "loom-bench",
	Short:   "Benchmark and demo harness for the loom ECS runtime",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("loom-bench %s (%s)\n", Version, Commit))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOut, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(level), JSONOutput: jsonOut})
}
