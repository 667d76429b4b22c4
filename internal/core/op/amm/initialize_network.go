package amm

import (
	"github.com/LeJamon/goswapd/internal/core/ledger/record"
	"github.com/LeJamon/goswapd/internal/core/op"
)

func init() {
	op.Register(op.TagInitializeNetwork, func() op.Operation { return &InitializeNetwork{} })
}

// InitializeNetwork constructs the per-deployment asset registry. Slot 0 of
// the mint table is always the primary asset; the remaining seven slots are
// filled from the bound mint references, in order.
type InitializeNetwork struct {
	network op.AccountRef
	mints   [record.MaxMints - 1]record.Address
}

func (x *InitializeNetwork) Tag() op.Tag { return op.TagInitializeNetwork }

// Bind assigns [network, mint1..mint7]. The network slot must be signed.
func (x *InitializeNetwork) Bind(refs []op.AccountRef) error {
	if len(refs) != 1+len(x.mints) {
		return op.ErrAccountCount
	}
	x.network = refs[0]
	for i := range x.mints {
		x.mints[i] = refs[1+i].Key
	}
	return nil
}

func (x *InitializeNetwork) DecodeData(payload []byte) error { return nil }

func (x *InitializeNetwork) EncodeData() []byte { return nil }

func (x *InitializeNetwork) Validate() error { return nil }

func (x *InitializeNetwork) Apply(ctx *op.ApplyContext) op.Result {
	v := ctx.View

	if res := vacantForCreate(v, x.network.Key, record.KindNetwork); res != op.Success {
		return res
	}
	if !x.network.Signer {
		return op.InvalidOwner
	}

	network := &record.Network{State: record.NetworkInitialized}
	network.Mints[0] = record.PrimaryMint
	for i, mint := range x.mints {
		network.Mints[1+i] = mint
	}
	return insertRecord(v, x.network.Key, record.KindNetwork, network.Encode())
}
