package cli

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/LeJamon/goswapd/internal/core/ledger"
	"github.com/LeJamon/goswapd/internal/core/ledger/keys"
	"github.com/LeJamon/goswapd/internal/core/ledger/record"
	"github.com/LeJamon/goswapd/internal/core/op"
	"github.com/LeJamon/goswapd/internal/core/token"
	"github.com/LeJamon/goswapd/internal/storage/recordstore"
	"github.com/spf13/cobra"
)

// Fixture file structures. A fixture directory holds the pre-state, the
// operations to apply, and the expected outcome.

// stateFixture represents state.json - the records seeded before the
// first apply.
type stateFixture struct {
	Records []recordFixture `json:"records"`
}

// recordFixture is one stored record, key and envelope hex-encoded.
type recordFixture struct {
	Key  string `json:"key"`
	Data string `json:"data"`
}

// opsFixture represents ops.json - the submissions applied in index order.
type opsFixture struct {
	Operations []operationFixture `json:"operations"`
}

// operationFixture is one submission. An empty program means the engine
// domain.
type operationFixture struct {
	Index    int              `json:"index"`
	Program  string           `json:"program,omitempty"`
	Accounts []accountFixture `json:"accounts"`
	Data     string           `json:"data"`
}

type accountFixture struct {
	Key    string `json:"key"`
	Signer bool   `json:"signer,omitempty"`
}

// expectedFixture represents expected.json - per-operation outcomes plus
// an optional full post-state and final sequence.
type expectedFixture struct {
	Sequence uint64          `json:"sequence,omitempty"`
	Results  []resultFixture `json:"results"`
	Records  []recordFixture `json:"records,omitempty"`
}

type resultFixture struct {
	Index   int    `json:"index"`
	Result  string `json:"result"`
	Applied bool   `json:"applied"`
}

// opApplyInfo stores one operation's application outcome.
type opApplyInfo struct {
	Index    int
	Tag      string
	Result   string
	Applied  bool
	Seq      uint64
	Expected string
	Match    bool
	Error    string
}

// replayOutcome contains the results of one fixture replay.
type replayOutcome struct {
	Success        bool
	Errors         []string
	OpResults      []opApplyInfo
	PreStateCount  int
	PostStateCount int
	PostState      map[string][]byte
	Sequence       uint64
	Duration       time.Duration
}

var (
	replayOutput  string
	replayVerbose bool
	replayDump    bool
	replayDumpDir string
)

// replayCmd represents the replay command
var replayCmd = &cobra.Command{
	Use:   "replay <fixture-dir>",
	Short: "Replay operations from fixtures for state transition testing",
	Long: `Replay executes state transition tests using fixture files.

It seeds the pre-state from state.json into a fresh in-memory store,
applies the submissions from ops.json through the engine, and compares
per-operation results, the final sequence, and optionally the full
post-state against expected.json.

Example:
    swapd replay ./fixtures/swap_basic
    swapd replay ./fixtures/swap_basic -v
    swapd replay ./fixtures/swap_basic --dump --dump-dir ./debug`,
	Args: cobra.ExactArgs(1),
	Run:  runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().StringVarP(&replayOutput, "output", "o", "", "Output file for results (JSON)")
	replayCmd.Flags().BoolVarP(&replayVerbose, "verbose", "v", false, "Verbose output")
	replayCmd.Flags().BoolVar(&replayDump, "dump", false, "Dump full post-state (default on failure)")
	replayCmd.Flags().StringVar(&replayDumpDir, "dump-dir", "", "Directory for state dumps (default: fixture-dir/debug)")
}

func runReplay(cmd *cobra.Command, args []string) {
	dir := args[0]
	startTime := time.Now()

	fmt.Println("================================================================================")
	fmt.Println("                         Swap Engine State Replay")
	fmt.Println("================================================================================")
	fmt.Printf("Fixture directory: %s\n", dir)
	fmt.Printf("Started at:        %s\n", startTime.Format(time.RFC3339))
	fmt.Println()

	state, ops, expected, err := loadReplayFixtures(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to load fixtures: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("--- Fixture Summary ---")
	fmt.Printf("Pre-state records: %d\n", len(state.Records))
	fmt.Printf("Operations:        %d\n", len(ops.Operations))
	fmt.Printf("Expected results:  %d\n", len(expected.Results))
	if len(expected.Records) > 0 {
		fmt.Printf("Expected records:  %d\n", len(expected.Records))
	}
	if expected.Sequence > 0 {
		fmt.Printf("Expected sequence: %d\n", expected.Sequence)
	}
	fmt.Println()

	fmt.Println("--- Execution ---")
	outcome, err := executeReplay(state, ops, expected, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Replay execution failed: %v\n", err)
		os.Exit(1)
	}
	outcome.Duration = time.Since(startTime)

	printReplayResults(outcome)

	if replayDump || !outcome.Success {
		dumpPostState(dir, outcome)
	}

	if replayOutput != "" {
		if err := writeReplayJSON(replayOutput, outcome); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: Failed to write output: %v\n", err)
		} else {
			fmt.Printf("\nResults written to: %s\n", replayOutput)
		}
	}

	fmt.Println()
	fmt.Printf("Duration: %v\n", outcome.Duration)

	if !outcome.Success {
		os.Exit(1)
	}
}

func loadReplayFixtures(dir string) (*stateFixture, *opsFixture, *expectedFixture, error) {
	state := &stateFixture{}
	if err := loadJSON(filepath.Join(dir, "state.json"), state); err != nil {
		return nil, nil, nil, fmt.Errorf("loading state.json: %w", err)
	}

	ops := &opsFixture{}
	if err := loadJSON(filepath.Join(dir, "ops.json"), ops); err != nil {
		return nil, nil, nil, fmt.Errorf("loading ops.json: %w", err)
	}

	expected := &expectedFixture{}
	if err := loadJSON(filepath.Join(dir, "expected.json"), expected); err != nil {
		return nil, nil, nil, fmt.Errorf("loading expected.json: %w", err)
	}

	return state, ops, expected, nil
}

func loadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// executeReplay seeds a fresh in-memory store, applies every operation and
// compares outcomes against the expectation. The chatty flag prints
// per-step progress the way the standalone replay command does.
func executeReplay(state *stateFixture, ops *opsFixture, expected *expectedFixture, chatty bool) (*replayOutcome, error) {
	outcome := &replayOutcome{
		Success:       true,
		Errors:        make([]string, 0),
		OpResults:     make([]opApplyInfo, 0, len(ops.Operations)),
		PreStateCount: len(state.Records),
		PostState:     make(map[string][]byte),
	}

	// Step 1: Seed the pre-state.
	if chatty {
		fmt.Printf("[1/4] Seeding %d records...\n", len(state.Records))
	}

	store, err := recordstore.Open(recordstore.Config{Backend: "memory", CacheSize: 64})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	base := ledger.New(store)
	for i, rec := range state.Records {
		key, err := record.AddressFromHex(rec.Key)
		if err != nil {
			return nil, fmt.Errorf("parsing record %d key: %w", i, err)
		}
		data, err := hex.DecodeString(rec.Data)
		if err != nil {
			return nil, fmt.Errorf("parsing record %d data: %w", i, err)
		}
		if err := base.Insert(key, data); err != nil {
			return nil, fmt.Errorf("seeding record %d: %w", i, err)
		}
	}

	// Step 2: Build the engine.
	if chatty {
		fmt.Println("[2/4] Building engine...")
	}
	engine := op.NewEngine(base, op.EngineConfig{
		Tokens:   token.NewMover(),
		Sequence: base,
	})

	// Step 3: Apply operations in fixture order.
	if chatty {
		fmt.Printf("[3/4] Applying %d operations...\n", len(ops.Operations))
	}

	expectedByIndex := make(map[int]resultFixture, len(expected.Results))
	for _, res := range expected.Results {
		expectedByIndex[res.Index] = res
	}

	for _, entry := range ops.Operations {
		info := opApplyInfo{Index: entry.Index, Match: true}

		sub, err := fixtureSubmission(entry)
		if err != nil {
			info.Error = err.Error()
			info.Match = false
			outcome.OpResults = append(outcome.OpResults, info)
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("op %d: %v", entry.Index, err))
			outcome.Success = false
			continue
		}

		result := engine.Apply(sub)
		info.Tag = result.Tag.String()
		info.Result = result.Result.String()
		info.Applied = result.Applied
		info.Seq = result.Seq

		if want, ok := expectedByIndex[entry.Index]; ok {
			info.Expected = want.Result
			info.Match = want.Result == info.Result && want.Applied == info.Applied
			if !info.Match {
				outcome.Success = false
			}
		}

		outcome.OpResults = append(outcome.OpResults, info)

		if chatty {
			status := "APPLIED"
			if !result.Applied {
				status = "REJECTED"
			}
			marker := "[OK]"
			if !info.Match {
				marker = "[MISMATCH]"
			}
			fmt.Printf("      [%d] %-18s %-20s %-8s %s\n", entry.Index, info.Tag, info.Result, status, marker)
			if !info.Match {
				fmt.Printf("           expected %s (applied=%v)\n", info.Expected, expectedByIndex[entry.Index].Applied)
			}
		}
	}

	// Step 4: Capture the post-state, the sequence slot excluded.
	if chatty {
		fmt.Println("[4/4] Capturing post-state...")
	}

	seqKey := keys.SequenceKey()
	err = base.ForEach(context.Background(), func(key record.Address, data []byte) error {
		if key == seqKey {
			return nil
		}
		buf := make([]byte, len(data))
		copy(buf, data)
		outcome.PostState[key.String()] = buf
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning post-state: %w", err)
	}
	outcome.PostStateCount = len(outcome.PostState)

	outcome.Sequence, err = base.Sequence()
	if err != nil {
		return nil, fmt.Errorf("reading sequence: %w", err)
	}

	if len(expected.Records) > 0 {
		compareExpectedState(outcome, expected)
	}
	if expected.Sequence > 0 && expected.Sequence != outcome.Sequence {
		outcome.Errors = append(outcome.Errors, fmt.Sprintf("sequence: got %d, expected %d", outcome.Sequence, expected.Sequence))
		outcome.Success = false
	}

	return outcome, nil
}

// fixtureSubmission turns a fixture entry into an engine submission.
func fixtureSubmission(entry operationFixture) (op.Submission, error) {
	sub := op.Submission{Program: keys.EngineProgram}

	if entry.Program != "" {
		program, err := record.AddressFromHex(entry.Program)
		if err != nil {
			return op.Submission{}, fmt.Errorf("bad program: %w", err)
		}
		sub.Program = program
	}

	sub.Accounts = make([]op.AccountRef, 0, len(entry.Accounts))
	for i, account := range entry.Accounts {
		key, err := record.AddressFromHex(account.Key)
		if err != nil {
			return op.Submission{}, fmt.Errorf("bad account %d: %w", i, err)
		}
		sub.Accounts = append(sub.Accounts, op.AccountRef{Key: key, Signer: account.Signer})
	}

	data, err := hex.DecodeString(entry.Data)
	if err != nil {
		return op.Submission{}, fmt.Errorf("bad data: %w", err)
	}
	sub.Data = data
	return sub, nil
}

// compareExpectedState diffs the captured post-state against the full
// expected record set.
func compareExpectedState(outcome *replayOutcome, expected *expectedFixture) {
	want := make(map[string]string, len(expected.Records))
	for _, rec := range expected.Records {
		want[strings.ToLower(rec.Key)] = strings.ToLower(rec.Data)
	}

	for key, data := range outcome.PostState {
		got := hex.EncodeToString(data)
		wantData, ok := want[key]
		if !ok {
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("state: unexpected record %s", key))
			outcome.Success = false
			continue
		}
		if wantData != got {
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("state: record %s differs", key))
			outcome.Success = false
		}
		delete(want, key)
	}
	for key := range want {
		outcome.Errors = append(outcome.Errors, fmt.Sprintf("state: missing record %s", key))
		outcome.Success = false
	}
}

func printReplayResults(outcome *replayOutcome) {
	fmt.Println()
	fmt.Println("================================================================================")
	fmt.Println("                              RESULTS")
	fmt.Println("================================================================================")

	applied, rejected, mismatched, failed := 0, 0, 0, 0
	for _, info := range outcome.OpResults {
		switch {
		case info.Error != "":
			failed++
		case info.Applied:
			applied++
		default:
			rejected++
		}
		if info.Error == "" && !info.Match {
			mismatched++
		}
	}

	fmt.Println()
	fmt.Println("Operation Summary:")
	fmt.Println("------------------")
	fmt.Printf("Total:      %d\n", len(outcome.OpResults))
	fmt.Printf("Applied:    %d\n", applied)
	fmt.Printf("Rejected:   %d\n", rejected)
	fmt.Printf("Mismatched: %d\n", mismatched)
	fmt.Printf("Errors:     %d\n", failed)
	fmt.Println()

	fmt.Println("State Summary:")
	fmt.Println("--------------")
	fmt.Printf("Pre-state records:  %d\n", outcome.PreStateCount)
	fmt.Printf("Post-state records: %d\n", outcome.PostStateCount)
	fmt.Printf("Difference:         %+d records\n", outcome.PostStateCount-outcome.PreStateCount)
	fmt.Printf("Final sequence:     %d\n", outcome.Sequence)
	fmt.Println()

	if len(outcome.Errors) > 0 {
		fmt.Println("Errors:")
		fmt.Println("-------")
		for _, msg := range outcome.Errors {
			fmt.Printf("  - %s\n", msg)
		}
		fmt.Println()
	}

	fmt.Println("================================================================================")
	if outcome.Success {
		fmt.Println("                         PASS - All checks passed")
	} else {
		fmt.Println("                         FAIL - Mismatch detected")
	}
	fmt.Println("================================================================================")
}

// dumpPostState writes the captured post-state as a dump file the compare
// command can read back.
func dumpPostState(fixtureDir string, outcome *replayOutcome) {
	dir := replayDumpDir
	if dir == "" {
		dir = filepath.Join(fixtureDir, "debug")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to create dump directory: %v\n", err)
		return
	}

	sortedKeys := make([]string, 0, len(outcome.PostState))
	for key := range outcome.PostState {
		sortedKeys = append(sortedKeys, key)
	}
	sort.Strings(sortedKeys)

	records := make([]map[string]interface{}, 0, len(sortedKeys))
	for _, key := range sortedKeys {
		entry := map[string]interface{}{
			"key":  key,
			"data": hex.EncodeToString(outcome.PostState[key]),
		}
		if decoded := describeRecord(outcome.PostState[key]); decoded != nil {
			entry["decoded"] = decoded
		}
		records = append(records, entry)
	}

	path := filepath.Join(dir, "post_state.json")
	blob, _ := json.MarshalIndent(map[string]interface{}{"records": records}, "", "  ")
	if err := os.WriteFile(path, blob, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to write post_state.json: %v\n", err)
		return
	}
	fmt.Printf("\nWrote %s (%d records)\n", path, len(records))
}

func writeReplayJSON(path string, outcome *replayOutcome) error {
	operations := make([]map[string]interface{}, 0, len(outcome.OpResults))
	for _, info := range outcome.OpResults {
		entry := map[string]interface{}{
			"index":   info.Index,
			"tag":     info.Tag,
			"result":  info.Result,
			"applied": info.Applied,
			"match":   info.Match,
		}
		if info.Seq != 0 {
			entry["seq"] = info.Seq
		}
		if info.Error != "" {
			entry["error"] = info.Error
		}
		operations = append(operations, entry)
	}

	output := map[string]interface{}{
		"success":            outcome.Success,
		"pre_state_records":  outcome.PreStateCount,
		"post_state_records": outcome.PostStateCount,
		"sequence":           outcome.Sequence,
		"duration_ms":        outcome.Duration.Milliseconds(),
		"errors":             outcome.Errors,
		"operations":         operations,
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// describeRecord decodes a stored envelope into a display map, or nil when
// the data does not hold a record envelope.
func describeRecord(data []byte) map[string]interface{} {
	kind, program, payload, err := record.DecodeEnvelope(data)
	if err != nil {
		return nil
	}

	out := map[string]interface{}{
		"kind":    kind.String(),
		"program": program.String(),
	}

	switch kind {
	case record.KindNetwork:
		network, err := record.DecodeNetwork(payload)
		if err != nil {
			return out
		}
		mints := make([]string, 0, len(network.Mints))
		for _, mint := range network.Mints {
			mints = append(mints, mint.String())
		}
		out["state"] = network.State.String()
		out["mints"] = mints
	case record.KindPool:
		pool, err := record.DecodePool(payload)
		if err != nil {
			return out
		}
		out["owner"] = pool.Owner.String()
		out["network"] = pool.Network.String()
		out["mint"] = pool.Mint.String()
		out["treasury"] = pool.Treasury.String()
		out["reserve"] = pool.Reserve
		out["lpt"] = pool.LPT.Dec()
		out["fee_rate"] = pool.FeeRate
	case record.KindLPTAccount:
		account, err := record.DecodeLPTAccount(payload)
		if err != nil {
			return out
		}
		out["owner"] = account.Owner.String()
		out["pool"] = account.Pool.String()
		out["lpt"] = account.LPT.Dec()
	case record.KindHolding:
		holding, err := record.DecodeHolding(payload)
		if err != nil {
			return out
		}
		out["owner"] = holding.Owner.String()
		out["mint"] = holding.Mint.String()
		out["amount"] = holding.Amount
	}
	return out
}
