package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

var (
	replayAllKeepGoing bool
	replayAllVerbose   bool
)

// replayAllStats holds statistics for a multi-fixture run.
type replayAllStats struct {
	FixturesRun     int
	FixturesPassed  int
	TotalOperations int
	TotalDuration   time.Duration
}

// replayAllCmd represents the replay-all command
var replayAllCmd = &cobra.Command{
	Use:   "replay-all <fixtures-root>",
	Short: "Replay every fixture directory under a root",
	Long: `Replay-all runs the replay harness over every direct subdirectory of
the given root that contains a state.json, in lexical order.

It stops at the first failing fixture unless --keep-going is set.

Example:
    swapd replay-all ./fixtures
    swapd replay-all ./fixtures --keep-going`,
	Args: cobra.ExactArgs(1),
	Run:  runReplayAll,
}

func init() {
	rootCmd.AddCommand(replayAllCmd)

	replayAllCmd.Flags().BoolVar(&replayAllKeepGoing, "keep-going", false, "Continue past failing fixtures")
	replayAllCmd.Flags().BoolVarP(&replayAllVerbose, "verbose", "v", false, "Verbose output")
}

func runReplayAll(cmd *cobra.Command, args []string) {
	root := args[0]
	startTime := time.Now()

	dirs, err := fixtureDirs(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	if len(dirs) == 0 {
		fmt.Fprintf(os.Stderr, "ERROR: no fixture directories under %s\n", root)
		os.Exit(1)
	}

	fmt.Println("================================================================================")
	fmt.Println("                        Swap Engine Fixture Sweep")
	fmt.Println("================================================================================")
	fmt.Printf("Root:    %s (%d fixtures)\n", root, len(dirs))
	fmt.Printf("Started: %s\n", startTime.Format(time.RFC3339))
	fmt.Println()

	stats := replayAllStats{}
	failed := make([]string, 0)

	for _, dir := range dirs {
		name := filepath.Base(dir)

		state, ops, expected, err := loadReplayFixtures(dir)
		if err != nil {
			fmt.Printf("  %-32s LOAD ERROR: %v\n", name, err)
			failed = append(failed, name)
			stats.FixturesRun++
			if !replayAllKeepGoing {
				break
			}
			continue
		}

		fixtureStart := time.Now()
		outcome, err := executeReplay(state, ops, expected, replayAllVerbose)
		stats.FixturesRun++
		if err != nil {
			fmt.Printf("  %-32s EXEC ERROR: %v\n", name, err)
			failed = append(failed, name)
			if !replayAllKeepGoing {
				break
			}
			continue
		}

		stats.TotalOperations += len(outcome.OpResults)
		if outcome.Success {
			stats.FixturesPassed++
			fmt.Printf("  %-32s PASS  (%d ops, %v)\n", name, len(outcome.OpResults), time.Since(fixtureStart).Round(time.Millisecond))
			continue
		}

		failed = append(failed, name)
		fmt.Printf("  %-32s FAIL  (%d ops)\n", name, len(outcome.OpResults))
		for _, msg := range outcome.Errors {
			fmt.Printf("      - %s\n", msg)
		}
		if !replayAllKeepGoing {
			break
		}
	}

	stats.TotalDuration = time.Since(startTime)

	fmt.Println()
	fmt.Println("--- Sweep Summary ---")
	fmt.Printf("Fixtures:   %d run, %d passed, %d failed\n", stats.FixturesRun, stats.FixturesPassed, len(failed))
	fmt.Printf("Operations: %d\n", stats.TotalOperations)
	fmt.Printf("Duration:   %v\n", stats.TotalDuration.Round(time.Millisecond))

	if len(failed) > 0 {
		fmt.Println()
		fmt.Println("Failed fixtures:")
		for _, name := range failed {
			fmt.Printf("  - %s\n", name)
		}
		os.Exit(1)
	}
}

// fixtureDirs lists direct subdirectories of root that carry a state.json.
func fixtureDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	dirs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, "state.json")); err == nil {
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}
