package amm

import (
	"github.com/LeJamon/goswapd/internal/core/arith"
	"github.com/LeJamon/goswapd/internal/core/ledger/record"
	"github.com/LeJamon/goswapd/internal/core/op"
)

func init() {
	op.Register(op.TagAddLiquidity, func() op.Operation { return &AddLiquidity{} })
}

// AddLiquidity deposits reserve into a pool and mints shares at the pool's
// current reserve-per-share rate, rounded down in the pool's favor.
type AddLiquidity struct {
	Reserve uint64

	owner    op.AccountRef
	pool     op.AccountRef
	treasury op.AccountRef
	account  op.AccountRef
	source   op.AccountRef
}

func (x *AddLiquidity) Tag() op.Tag { return op.TagAddLiquidity }

// Bind assigns [owner, pool, treasury, lpt, source]. Owner must be signed.
func (x *AddLiquidity) Bind(refs []op.AccountRef) error {
	if len(refs) != 5 {
		return op.ErrAccountCount
	}
	x.owner = refs[0]
	x.pool = refs[1]
	x.treasury = refs[2]
	x.account = refs[3]
	x.source = refs[4]
	return nil
}

func (x *AddLiquidity) DecodeData(payload []byte) error {
	reserve, err := op.DecodeU64(payload)
	if err != nil {
		return err
	}
	x.Reserve = reserve
	return nil
}

func (x *AddLiquidity) EncodeData() []byte {
	return op.EncodeU64(nil, x.Reserve)
}

func (x *AddLiquidity) Validate() error { return nil }

func (x *AddLiquidity) Apply(ctx *op.ApplyContext) op.Result {
	v := ctx.View

	for _, key := range []record.Address{x.pool.Key, x.account.Key} {
		if res := checkDomain(v, key); res != op.Success {
			return res
		}
	}

	pool, res := loadPool(v, x.pool.Key)
	if res != op.Success {
		return res
	}
	account, res := loadLPTAccount(v, x.account.Key)
	if res != op.Success {
		return res
	}

	if !x.owner.Signer || pool.Treasury != x.treasury.Key || account.Owner != x.owner.Key {
		return op.InvalidOwner
	}
	if account.Pool != x.pool.Key {
		return op.UnmatchedPool
	}
	if x.Reserve == 0 {
		return op.ZeroValue
	}

	if res := ctx.Tokens.Deposit(v, x.source.Key, x.treasury.Key, x.Reserve, x.owner.Key); res != op.Success {
		return res
	}

	product, ok := arith.Mul128(pool.LPT, arith.U128(x.Reserve))
	if !ok {
		return op.Overflow
	}
	minted, ok := arith.Div128(product, arith.U128(pool.Reserve))
	if !ok {
		return op.Overflow
	}

	pool.Reserve, ok = arith.Add64(pool.Reserve, x.Reserve)
	if !ok {
		return op.Overflow
	}
	pool.LPT, ok = arith.Add128(pool.LPT, minted)
	if !ok {
		return op.Overflow
	}
	if res := updateRecord(v, x.pool.Key, record.KindPool, pool.Encode()); res != op.Success {
		return res
	}

	account.LPT, ok = arith.Add128(account.LPT, minted)
	if !ok {
		return op.Overflow
	}
	return updateRecord(v, x.account.Key, record.KindLPTAccount, account.Encode())
}
