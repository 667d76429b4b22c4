package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "swapd",
	Short: "goswapd - constant-product swap engine daemon",
	Long: `goswapd runs a multi-pool constant-product swap engine over a local
record store. The daemon accepts operation submissions and state queries
over HTTP JSON-RPC, streams applied operations to websocket subscribers,
and optionally exposes a gRPC admin surface for bulk state export.

Without a subcommand it behaves like "swapd server".`,
	Version: "0.1.0-dev",
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output to console after startup")
}
