package amm

import (
	"github.com/LeJamon/goswapd/internal/core/arith"
	"github.com/LeJamon/goswapd/internal/core/curve"
	"github.com/LeJamon/goswapd/internal/core/ledger/keys"
	"github.com/LeJamon/goswapd/internal/core/ledger/record"
	"github.com/LeJamon/goswapd/internal/core/op"
)

func init() {
	op.Register(op.TagSwap, func() op.Operation { return &Swap{} })
}

// Swap sells amount of the bid pool's asset for the ask pool's asset. The
// trading fee compounds into the ask reserve; the protocol earn, waived
// when the bought asset is the primary asset, is converted through the
// settlement pool and withdrawn to the vault.
type Swap struct {
	Amount uint64

	owner op.AccountRef

	bidPool     op.AccountRef
	bidTreasury op.AccountRef
	source      op.AccountRef

	askPool      op.AccountRef
	askTreasury  op.AccountRef
	destination  op.AccountRef
	askAuthority op.AccountRef

	settlePool      op.AccountRef
	settleTreasury  op.AccountRef
	vault           op.AccountRef
	settleAuthority op.AccountRef
}

func (x *Swap) Tag() op.Tag { return op.TagSwap }

// Bind assigns [owner, bid pool, bid treasury, source, ask pool, ask
// treasury, destination, ask authority, settlement pool, settlement
// treasury, vault, settlement authority]. Owner must be signed.
func (x *Swap) Bind(refs []op.AccountRef) error {
	if len(refs) != 12 {
		return op.ErrAccountCount
	}
	x.owner = refs[0]
	x.bidPool = refs[1]
	x.bidTreasury = refs[2]
	x.source = refs[3]
	x.askPool = refs[4]
	x.askTreasury = refs[5]
	x.destination = refs[6]
	x.askAuthority = refs[7]
	x.settlePool = refs[8]
	x.settleTreasury = refs[9]
	x.vault = refs[10]
	x.settleAuthority = refs[11]
	return nil
}

func (x *Swap) DecodeData(payload []byte) error {
	amount, err := op.DecodeU64(payload)
	if err != nil {
		return err
	}
	x.Amount = amount
	return nil
}

func (x *Swap) EncodeData() []byte {
	return op.EncodeU64(nil, x.Amount)
}

func (x *Swap) Validate() error { return nil }

func (x *Swap) Apply(ctx *op.ApplyContext) op.Result {
	v := ctx.View

	for _, key := range []record.Address{x.bidPool.Key, x.askPool.Key, x.settlePool.Key} {
		if res := checkDomain(v, key); res != op.Success {
			return res
		}
	}

	bid, res := loadPool(v, x.bidPool.Key)
	if res != op.Success {
		return res
	}
	ask, res := loadPool(v, x.askPool.Key)
	if res != op.Success {
		return res
	}
	settle, res := loadPool(v, x.settlePool.Key)
	if res != op.Success {
		return res
	}

	if !x.owner.Signer ||
		bid.Treasury != x.bidTreasury.Key ||
		ask.Treasury != x.askTreasury.Key ||
		keys.PoolAuthority(x.askPool.Key) != x.askAuthority.Key ||
		settle.Treasury != x.settleTreasury.Key ||
		keys.PoolAuthority(x.settlePool.Key) != x.settleAuthority.Key {
		return op.InvalidOwner
	}
	if settle.Network != bid.Network || settle.Network != ask.Network {
		return op.IncorrectNetworkID
	}
	if x.Amount == 0 {
		return op.ZeroValue
	}
	if x.bidPool.Key == x.askPool.Key {
		return op.Success
	}

	newBid, ok := arith.Add64(bid.Reserve, x.Amount)
	if !ok {
		return op.Overflow
	}
	grossAsk, ok := curve.Curve(newBid, bid.Reserve, bid.LPT, ask.Reserve, ask.LPT)
	if !ok {
		return op.Overflow
	}

	if res := ctx.Tokens.Deposit(v, x.source.Key, x.bidTreasury.Key, x.Amount, x.owner.Key); res != op.Success {
		return res
	}
	bid.Reserve = newBid
	if res := updateRecord(v, x.bidPool.Key, record.KindPool, bid.Encode()); res != op.Success {
		return res
	}

	withFee, payout, _, earn, ok := curve.ApplyFee(grossAsk, ask.Reserve, ask.Mint == record.PrimaryMint)
	if !ok {
		return op.Overflow
	}

	newAsk, ok := arith.Add64(withFee, earn)
	if !ok {
		return op.Overflow
	}
	ask.Reserve = newAsk
	if res := updateRecord(v, x.askPool.Key, record.KindPool, ask.Encode()); res != op.Success {
		return res
	}
	if res := ctx.Tokens.Withdraw(v, x.askTreasury.Key, x.destination.Key, payout, x.askAuthority.Key); res != op.Success {
		return res
	}

	if earn != 0 {
		// The settlement pool usually aliases the bid pool (selling the
		// primary asset settles against it). Reload it so the deposit
		// above is visible before the conversion.
		settle, res = loadPool(v, x.settlePool.Key)
		if res != op.Success {
			return res
		}

		newSettle, ok := curve.Curve(newAsk, withFee, ask.LPT, settle.Reserve, settle.LPT)
		if !ok {
			return op.Overflow
		}
		earnSettle, ok := arith.Sub64(settle.Reserve, newSettle)
		if !ok {
			return op.Overflow
		}

		settle.Reserve = newSettle
		if res := updateRecord(v, x.settlePool.Key, record.KindPool, settle.Encode()); res != op.Success {
			return res
		}
		if res := ctx.Tokens.Withdraw(v, x.settleTreasury.Key, x.vault.Key, earnSettle, x.settleAuthority.Key); res != op.Success {
			return res
		}
	}

	return op.Success
}
