package record

import (
	"fmt"

	crypto "github.com/LeJamon/goswapd/internal/crypto/common"
)

// NetworkState is the lifecycle state of the network registry. It only
// advances forward; Activated is set exactly once, by creation of the
// primary pool.
type NetworkState uint8

const (
	NetworkUninitialized NetworkState = iota
	NetworkInitialized
	NetworkActivated
)

func (s NetworkState) String() string {
	switch s {
	case NetworkUninitialized:
		return "Uninitialized"
	case NetworkInitialized:
		return "Initialized"
	case NetworkActivated:
		return "Activated"
	default:
		return fmt.Sprintf("NetworkState(%d)", uint8(s))
	}
}

// MaxMints is the fixed capacity of the network mint table, the primary
// asset sentinel at slot 0 included.
const MaxMints = 8

// PrimaryMint is the network-wide settlement asset identifier, occupying
// slot 0 of every network's mint table.
var PrimaryMint = Address(crypto.Sha512Half([]byte("swapd.network.primary-mint")))

// NetworkSize is the encoded payload size: state byte plus the mint table.
const NetworkSize = 1 + MaxMints*32

// Network is the per-deployment asset registry. Created once, advanced to
// Activated by the primary pool's creation, never destroyed.
type Network struct {
	State NetworkState
	Mints [MaxMints]Address
}

// IsInitialized reports whether the network constructor has run.
func (n *Network) IsInitialized() bool {
	return n.State != NetworkUninitialized
}

// IsActivated reports whether the primary pool has been created.
func (n *Network) IsActivated() bool {
	return n.State == NetworkActivated
}

// IsApproved reports whether the mint occupies a slot in the mint table.
func (n *Network) IsApproved(mint Address) bool {
	for _, m := range n.Mints {
		if m == mint {
			return true
		}
	}
	return false
}

func (n *Network) Validate() error {
	if n.State > NetworkActivated {
		return fmt.Errorf("invalid network state %d", uint8(n.State))
	}
	return nil
}

// Encode serializes the network payload.
func (n *Network) Encode() []byte {
	out := make([]byte, NetworkSize)
	out[0] = byte(n.State)
	offset := 1
	for _, m := range n.Mints {
		copy(out[offset:offset+32], m[:])
		offset += 32
	}
	return out
}

// DecodeNetwork parses a network payload.
func DecodeNetwork(data []byte) (*Network, error) {
	if len(data) != NetworkSize {
		return nil, fmt.Errorf("network payload is %d bytes, want %d", len(data), NetworkSize)
	}
	n := &Network{State: NetworkState(data[0])}
	offset := 1
	for i := range n.Mints {
		copy(n.Mints[i][:], data[offset:offset+32])
		offset += 32
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}
