package cli

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/LeJamon/goswapd/internal/core/op"
	"github.com/LeJamon/goswapd/internal/core/op/amm"
	"github.com/spf13/cobra"
)

// slotLayouts names the account slots each operation binds, in submission
// order. Display only; the handlers enforce the real layout.
var slotLayouts = map[op.Tag][]string{
	op.TagInitializePool:    {"owner (signer)", "network", "pool (signer)", "treasury", "lpt (signer)", "source", "mint", "authority"},
	op.TagInitializeLPT:     {"owner (signer)", "pool", "lpt (signer)"},
	op.TagAddLiquidity:      {"owner (signer)", "pool", "treasury", "lpt", "source"},
	op.TagRemoveLiquidity:   {"owner (signer)", "pool", "treasury", "lpt", "destination", "authority"},
	op.TagSwap:              {"owner (signer)", "bid pool", "bid treasury", "source", "ask pool", "ask treasury", "destination", "ask authority", "settlement pool", "settlement treasury", "vault", "settlement authority"},
	op.TagTransfer:          {"owner (signer)", "source lpt", "destination lpt"},
	op.TagCloseLPT:          {"owner (signer)", "lpt", "destination"},
	op.TagInitializeNetwork: {"network (signer)", "mint 1", "mint 2", "mint 3", "mint 4", "mint 5", "mint 6", "mint 7"},
	op.TagClosePool:         {"owner (signer)", "pool", "treasury", "destination", "authority"},
}

var decodeCmd = &cobra.Command{
	Use:   "decode <hex>",
	Short: "Decode an operation payload",
	Long: `Decode parses a hex-encoded operation payload (tag byte plus parameter
block) and prints the operation it encodes together with the account
slots a submission must present.

Examples:
    swapd decode 08
    swapd decode 0440420f0000000000`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}

func runDecode(cmd *cobra.Command, args []string) error {
	blob, err := hex.DecodeString(strings.TrimPrefix(args[0], "0x"))
	if err != nil {
		return fmt.Errorf("payload is not valid hex: %w", err)
	}

	operation, err := op.Decode(blob)
	if err != nil {
		return fmt.Errorf("decoding payload: %w", err)
	}

	tag := operation.Tag()
	fmt.Printf("Operation: %s (tag %d)\n", tag, tag)
	fmt.Printf("Payload:   %d bytes\n", len(blob)-1)
	for _, line := range describeParams(operation) {
		fmt.Printf("  %s\n", line)
	}

	layout, ok := slotLayouts[tag]
	if !ok {
		fmt.Println("Accounts:  reserved tag, no executable layout")
		return nil
	}
	fmt.Printf("Accounts:  %d slots\n", len(layout))
	for i, name := range layout {
		fmt.Printf("  [%d] %s\n", i, name)
	}
	return nil
}

// describeParams renders the decoded parameter block of known operations.
func describeParams(operation op.Operation) []string {
	switch x := operation.(type) {
	case *amm.InitializePool:
		return []string{
			fmt.Sprintf("reserve: %d", x.Reserve),
			fmt.Sprintf("lpt:     %s", x.LPT.Dec()),
		}
	case *amm.AddLiquidity:
		return []string{fmt.Sprintf("reserve: %d", x.Reserve)}
	case *amm.RemoveLiquidity:
		return []string{fmt.Sprintf("lpt:     %s", x.LPT.Dec())}
	case *amm.Swap:
		return []string{fmt.Sprintf("amount:  %d", x.Amount)}
	case *amm.Transfer:
		return []string{fmt.Sprintf("lpt:     %s", x.LPT.Dec())}
	default:
		return nil
	}
}
