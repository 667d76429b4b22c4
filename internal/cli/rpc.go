package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/LeJamon/goswapd/internal/api/jsonrpc"
	"github.com/LeJamon/goswapd/internal/config"
	"github.com/spf13/cobra"
)

// rpcCmd represents the rpc command
var rpcCmd = &cobra.Command{
	Use:   "rpc <method> [params-json]",
	Short: "Run a JSON-RPC method against the local store",
	Long: `Execute a JSON-RPC method locally by calling the same handlers used by
the server, against the configured data directory. The daemon must not
hold the store open at the same time when the backend takes an
exclusive lock.

Examples:
    swapd rpc server_info
    swapd rpc network_info
    swapd rpc pool_info '{"pool":"<hex key>"}'
    swapd rpc history '{"limit":5}'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runRPC,
}

func init() {
	rootCmd.AddCommand(rpcCmd)
}

func runRPC(cmd *cobra.Command, args []string) error {
	method := args[0]
	params := json.RawMessage(`{}`)
	if len(args) == 2 {
		if !json.Valid([]byte(args[1])) {
			return fmt.Errorf("params are not valid JSON")
		}
		params = json.RawMessage(args[1])
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	n, err := openNode(cfg)
	if err != nil {
		return err
	}
	defer n.Close()

	server := jsonrpc.NewServer(jsonrpc.Services{
		Ledger:  n.ledger,
		Engine:  n.engine,
		History: n.operations,
		Version: rootCmd.Version,
	})

	result, rpcErr := server.Call(context.Background(), method, params)
	if rpcErr != nil {
		blob, _ := json.MarshalIndent(rpcErr, "", "  ")
		fmt.Fprintln(os.Stderr, string(blob))
		return fmt.Errorf("%s failed: %s", method, rpcErr.Name)
	}

	blob, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Println(string(blob))
	return nil
}
