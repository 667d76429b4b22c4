package amm

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/LeJamon/goswapd/internal/core/curve"
	"github.com/LeJamon/goswapd/internal/core/ledger/keys"
	"github.com/LeJamon/goswapd/internal/core/ledger/record"
	"github.com/LeJamon/goswapd/internal/core/op"
)

func init() {
	op.Register(op.TagInitializePool, func() op.Operation { return &InitializePool{} })
}

// InitializePool constructs a pool: it creates the treasury under the
// pool's derived authority, deposits the initial reserve from the owner's
// source account, and mints the full initial share supply to the owner's
// LPT account. The first pool of a network must carry the primary asset
// and flips the network to Activated; every later pool requires it.
type InitializePool struct {
	Reserve uint64
	LPT     *uint256.Int

	owner     op.AccountRef
	network   op.AccountRef
	pool      op.AccountRef
	treasury  op.AccountRef
	account   op.AccountRef
	source    op.AccountRef
	mint      op.AccountRef
	authority op.AccountRef
}

func (x *InitializePool) Tag() op.Tag { return op.TagInitializePool }

// Bind assigns [owner, network, pool, treasury, lpt, source, mint,
// authority]. Owner, pool and lpt must be signed.
func (x *InitializePool) Bind(refs []op.AccountRef) error {
	if len(refs) != 8 {
		return op.ErrAccountCount
	}
	x.owner = refs[0]
	x.network = refs[1]
	x.pool = refs[2]
	x.treasury = refs[3]
	x.account = refs[4]
	x.source = refs[5]
	x.mint = refs[6]
	x.authority = refs[7]
	return nil
}

func (x *InitializePool) DecodeData(payload []byte) error {
	reserve, err := op.DecodeU64(payload)
	if err != nil {
		return err
	}
	lpt, err := op.DecodeU128(payload[8:])
	if err != nil {
		return err
	}
	x.Reserve = reserve
	x.LPT = lpt
	return nil
}

func (x *InitializePool) EncodeData() []byte {
	out := op.EncodeU64(nil, x.Reserve)
	return op.EncodeU128(out, x.LPT)
}

func (x *InitializePool) Validate() error {
	if x.LPT == nil {
		return errors.New("initial share supply is unset")
	}
	return nil
}

func (x *InitializePool) Apply(ctx *op.ApplyContext) op.Result {
	v := ctx.View

	for _, key := range []record.Address{x.network.Key, x.pool.Key, x.account.Key} {
		if res := checkDomain(v, key); res != op.Success {
			return res
		}
	}

	network, res := loadNetwork(v, x.network.Key)
	if res != op.Success {
		return res
	}
	if res := vacantForCreate(v, x.pool.Key, record.KindPool); res != op.Success {
		return res
	}
	if res := vacantForCreate(v, x.account.Key, record.KindLPTAccount); res != op.Success {
		return res
	}

	if !x.owner.Signer || !x.pool.Signer || !x.account.Signer ||
		keys.PoolAuthority(x.pool.Key) != x.authority.Key {
		return op.InvalidOwner
	}
	if !network.IsApproved(x.mint.Key) {
		return op.UnmatchedPool
	}
	if x.mint.Key != record.PrimaryMint && !network.IsActivated() {
		return op.NotInitialized
	}
	if x.mint.Key == record.PrimaryMint && network.IsActivated() {
		return op.ConstructorOnce
	}
	if x.Reserve == 0 || x.LPT.IsZero() {
		return op.ZeroValue
	}

	if res := ctx.Tokens.CreateAccount(v, x.treasury.Key, x.mint.Key, x.authority.Key); res != op.Success {
		return res
	}
	if res := ctx.Tokens.Deposit(v, x.source.Key, x.treasury.Key, x.Reserve, x.owner.Key); res != op.Success {
		return res
	}

	if x.mint.Key == record.PrimaryMint {
		network.State = record.NetworkActivated
		if res := updateRecord(v, x.network.Key, record.KindNetwork, network.Encode()); res != op.Success {
			return res
		}
	}

	pool := &record.Pool{
		Owner:       x.owner.Key,
		Network:     x.network.Key,
		Mint:        x.mint.Key,
		Treasury:    x.treasury.Key,
		Reserve:     x.Reserve,
		LPT:         x.LPT.Clone(),
		FeeRate:     curve.FeeNumerator,
		Initialized: true,
	}
	if res := insertRecord(v, x.pool.Key, record.KindPool, pool.Encode()); res != op.Success {
		return res
	}

	account := &record.LPTAccount{
		Owner:       x.owner.Key,
		Pool:        x.pool.Key,
		LPT:         x.LPT.Clone(),
		Initialized: true,
	}
	return insertRecord(v, x.account.Key, record.KindLPTAccount, account.Encode())
}
