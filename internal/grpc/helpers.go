package grpc

import (
	"bytes"
	"sort"

	"github.com/LeJamon/goswapd/internal/core/ledger/record"
)

// Scan pagination bounds.
const (
	defaultScanLimit = 256
	maxScanLimit     = 2048
)

// parseMarker decodes a pagination marker back into a record key.
func parseMarker(marker string) (record.Address, error) {
	return record.AddressFromHex(marker)
}

// formatMarker renders the last returned key as the next page's marker.
func formatMarker(key record.Address) string {
	return key.String()
}

// keyAfter reports whether key sorts strictly after the marker key.
func keyAfter(key, marker record.Address) bool {
	return bytes.Compare(key[:], marker[:]) > 0
}

// sortRecords orders a scan result by key, so pagination is stable across
// backends with different iteration orders.
func sortRecords(records []RecordData) {
	sort.Slice(records, func(i, j int) bool {
		return bytes.Compare(records[i].Key[:], records[j].Key[:]) < 0
	})
}
