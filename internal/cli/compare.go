package cli

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// stateDump is the on-disk shape fixture state.json files and replay
// post_state.json dumps share. Extra per-record fields are ignored.
type stateDump struct {
	Records []recordFixture `json:"records"`
}

type dumpRecord struct {
	Key  string
	Data []byte
}

type modifiedRecord struct {
	Key    string
	Before []byte
	After  []byte
}

var (
	compareShowAll    bool
	compareFilterKind string
	compareOutput     string
)

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare <file1> <file2>",
	Short: "Compare two state dump files",
	Long: `Compare two state dump JSON files and show differences.

Both fixture state.json files and replay post_state.json dumps are
accepted. Records present in file2 but not file1 count as added, the
reverse as removed, and shared keys with different envelopes as
modified.

Examples:
    swapd compare fixtures/swap_basic/state.json debug/post_state.json
    swapd compare a.json b.json --filter Pool
    swapd compare a.json b.json --all -o diff.json`,
	Args: cobra.ExactArgs(2),
	Run:  runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().BoolVarP(&compareShowAll, "all", "a", false, "Show unchanged records too")
	compareCmd.Flags().StringVarP(&compareFilterKind, "filter", "f", "", "Filter by record kind (Network, Pool, LPTAccount, Holding)")
	compareCmd.Flags().StringVarP(&compareOutput, "output", "o", "", "Output diff to JSON file")
}

func runCompare(cmd *cobra.Command, args []string) {
	fmt.Println("================================================================================")
	fmt.Println("                         State Dump Comparison")
	fmt.Println("================================================================================")
	fmt.Printf("File 1: %s\n", args[0])
	fmt.Printf("File 2: %s\n", args[1])
	fmt.Println()

	before, err := loadStateDump(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to load file1: %v\n", err)
		os.Exit(1)
	}
	after, err := loadStateDump(args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to load file2: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("File 1: %d records\n", len(before))
	fmt.Printf("File 2: %d records\n", len(after))
	fmt.Println()

	added, removed, modified, unchanged := diffStateDumps(before, after)

	if compareFilterKind != "" {
		added = filterByKind(added, compareFilterKind)
		removed = filterByKind(removed, compareFilterKind)
		modified = filterModifiedByKind(modified, compareFilterKind)
		unchanged = filterByKind(unchanged, compareFilterKind)
		fmt.Printf("Filtered by kind: %s\n\n", compareFilterKind)
	}

	fmt.Println("--- Summary ---")
	fmt.Printf("Added:     %d records (in file2 but not file1)\n", len(added))
	fmt.Printf("Removed:   %d records (in file1 but not file2)\n", len(removed))
	fmt.Printf("Modified:  %d records\n", len(modified))
	fmt.Printf("Unchanged: %d records\n", len(unchanged))
	fmt.Println()

	printDumpRecords("ADDED", added)
	printDumpRecords("REMOVED", removed)
	printModifiedRecords(modified)
	if compareShowAll {
		printDumpRecords("UNCHANGED", unchanged)
	}

	if compareOutput != "" {
		writeCompareJSON(compareOutput, added, removed, modified)
	}

	if len(added) > 0 || len(removed) > 0 || len(modified) > 0 {
		os.Exit(1)
	}
}

// loadStateDump reads a dump file into a key to envelope map. Keys are
// normalized to lowercase hex.
func loadStateDump(path string) (map[string][]byte, error) {
	dump := &stateDump{}
	if err := loadJSON(path, dump); err != nil {
		return nil, err
	}

	records := make(map[string][]byte, len(dump.Records))
	for i, rec := range dump.Records {
		data, err := hex.DecodeString(rec.Data)
		if err != nil {
			return nil, fmt.Errorf("record %d: bad data hex: %w", i, err)
		}
		records[strings.ToLower(rec.Key)] = data
	}
	return records, nil
}

func diffStateDumps(before, after map[string][]byte) (added, removed []dumpRecord, modified []modifiedRecord, unchanged []dumpRecord) {
	for key, data := range after {
		prev, ok := before[key]
		switch {
		case !ok:
			added = append(added, dumpRecord{Key: key, Data: data})
		case !bytes.Equal(prev, data):
			modified = append(modified, modifiedRecord{Key: key, Before: prev, After: data})
		default:
			unchanged = append(unchanged, dumpRecord{Key: key, Data: data})
		}
	}
	for key, data := range before {
		if _, ok := after[key]; !ok {
			removed = append(removed, dumpRecord{Key: key, Data: data})
		}
	}

	sortDump := func(records []dumpRecord) {
		sort.Slice(records, func(i, j int) bool { return records[i].Key < records[j].Key })
	}
	sortDump(added)
	sortDump(removed)
	sortDump(unchanged)
	sort.Slice(modified, func(i, j int) bool { return modified[i].Key < modified[j].Key })
	return added, removed, modified, unchanged
}

// recordKindName returns the envelope's kind for filtering, or "" when the
// data is not an envelope.
func recordKindName(data []byte) string {
	decoded := describeRecord(data)
	if decoded == nil {
		return ""
	}
	kind, _ := decoded["kind"].(string)
	return kind
}

func filterByKind(records []dumpRecord, kind string) []dumpRecord {
	filtered := make([]dumpRecord, 0, len(records))
	for _, rec := range records {
		if strings.EqualFold(recordKindName(rec.Data), kind) {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

func filterModifiedByKind(records []modifiedRecord, kind string) []modifiedRecord {
	filtered := make([]modifiedRecord, 0, len(records))
	for _, rec := range records {
		if strings.EqualFold(recordKindName(rec.After), kind) {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

func printDumpRecords(label string, records []dumpRecord) {
	if len(records) == 0 {
		return
	}
	fmt.Printf("%s:\n", label)
	for _, rec := range records {
		fmt.Printf("  %s\n", rec.Key)
		if decoded := describeRecord(rec.Data); decoded != nil {
			printDecoded("    ", decoded)
		}
	}
	fmt.Println()
}

// printModifiedRecords shows a field-by-field diff of the decoded records,
// falling back to raw hex when a side does not decode.
func printModifiedRecords(records []modifiedRecord) {
	if len(records) == 0 {
		return
	}
	fmt.Println("MODIFIED:")
	for _, rec := range records {
		fmt.Printf("  %s\n", rec.Key)

		beforeDec := describeRecord(rec.Before)
		afterDec := describeRecord(rec.After)
		if beforeDec == nil || afterDec == nil {
			fmt.Printf("    before: %s\n", hex.EncodeToString(rec.Before))
			fmt.Printf("    after:  %s\n", hex.EncodeToString(rec.After))
			continue
		}

		fields := make(map[string]struct{}, len(beforeDec)+len(afterDec))
		for field := range beforeDec {
			fields[field] = struct{}{}
		}
		for field := range afterDec {
			fields[field] = struct{}{}
		}
		names := make([]string, 0, len(fields))
		for field := range fields {
			names = append(names, field)
		}
		sort.Strings(names)

		for _, field := range names {
			prev, next := beforeDec[field], afterDec[field]
			if fmt.Sprintf("%v", prev) != fmt.Sprintf("%v", next) {
				fmt.Printf("    %s: %v -> %v\n", field, prev, next)
			}
		}
	}
	fmt.Println()
}

func printDecoded(indent string, decoded map[string]interface{}) {
	fields := make([]string, 0, len(decoded))
	for field := range decoded {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		fmt.Printf("%s%s: %v\n", indent, field, decoded[field])
	}
}

func writeCompareJSON(path string, added, removed []dumpRecord, modified []modifiedRecord) {
	diff := map[string]interface{}{
		"added":    dumpRecordsJSON(added),
		"removed":  dumpRecordsJSON(removed),
		"modified": modifiedRecordsJSON(modified),
	}
	blob, err := json.MarshalIndent(diff, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to encode diff: %v\n", err)
		return
	}
	if err := os.WriteFile(path, blob, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to write diff: %v\n", err)
		return
	}
	fmt.Printf("Wrote %s\n", path)
}

func dumpRecordsJSON(records []dumpRecord) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(records))
	for _, rec := range records {
		entry := map[string]interface{}{
			"key":  rec.Key,
			"data": hex.EncodeToString(rec.Data),
		}
		if decoded := describeRecord(rec.Data); decoded != nil {
			entry["decoded"] = decoded
		}
		out = append(out, entry)
	}
	return out
}

func modifiedRecordsJSON(records []modifiedRecord) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(records))
	for _, rec := range records {
		entry := map[string]interface{}{
			"key":         rec.Key,
			"before_data": hex.EncodeToString(rec.Before),
			"after_data":  hex.EncodeToString(rec.After),
		}
		if decoded := describeRecord(rec.After); decoded != nil {
			entry["decoded"] = decoded
		}
		out = append(out, entry)
	}
	return out
}
