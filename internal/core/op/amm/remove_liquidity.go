package amm

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/LeJamon/goswapd/internal/core/arith"
	"github.com/LeJamon/goswapd/internal/core/ledger/keys"
	"github.com/LeJamon/goswapd/internal/core/ledger/record"
	"github.com/LeJamon/goswapd/internal/core/op"
)

func init() {
	op.Register(op.TagRemoveLiquidity, func() op.Operation { return &RemoveLiquidity{} })
}

// RemoveLiquidity burns shares and pays out the matching slice of the
// reserve, rounded down in the pool's favor. The payout leaves the treasury
// under the pool's derived authority.
type RemoveLiquidity struct {
	LPT *uint256.Int

	owner       op.AccountRef
	pool        op.AccountRef
	treasury    op.AccountRef
	account     op.AccountRef
	destination op.AccountRef
	authority   op.AccountRef
}

func (x *RemoveLiquidity) Tag() op.Tag { return op.TagRemoveLiquidity }

// Bind assigns [owner, pool, treasury, lpt, destination, authority]. Owner
// must be signed.
func (x *RemoveLiquidity) Bind(refs []op.AccountRef) error {
	if len(refs) != 6 {
		return op.ErrAccountCount
	}
	x.owner = refs[0]
	x.pool = refs[1]
	x.treasury = refs[2]
	x.account = refs[3]
	x.destination = refs[4]
	x.authority = refs[5]
	return nil
}

func (x *RemoveLiquidity) DecodeData(payload []byte) error {
	lpt, err := op.DecodeU128(payload)
	if err != nil {
		return err
	}
	x.LPT = lpt
	return nil
}

func (x *RemoveLiquidity) EncodeData() []byte {
	return op.EncodeU128(nil, x.LPT)
}

func (x *RemoveLiquidity) Validate() error {
	if x.LPT == nil {
		return errors.New("share amount is unset")
	}
	return nil
}

func (x *RemoveLiquidity) Apply(ctx *op.ApplyContext) op.Result {
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

	if !x.owner.Signer || pool.Treasury != x.treasury.Key || account.Owner != x.owner.Key ||
		keys.PoolAuthority(x.pool.Key) != x.authority.Key {
		return op.InvalidOwner
	}
	if account.Pool != x.pool.Key {
		return op.UnmatchedPool
	}
	if x.LPT.IsZero() {
		return op.ZeroValue
	}
	if account.LPT.Lt(x.LPT) {
		return op.InsufficientFunds
	}

	product, ok := arith.Mul128(arith.U128(pool.Reserve), x.LPT)
	if !ok {
		return op.Overflow
	}
	quotient, ok := arith.Div128(product, pool.LPT)
	if !ok {
		return op.Overflow
	}
	payout, ok := arith.ToU64(quotient)
	if !ok {
		return op.Overflow
	}

	account.LPT, ok = arith.Sub128(account.LPT, x.LPT)
	if !ok {
		return op.Overflow
	}
	if res := updateRecord(v, x.account.Key, record.KindLPTAccount, account.Encode()); res != op.Success {
		return res
	}

	pool.Reserve, ok = arith.Sub64(pool.Reserve, payout)
	if !ok {
		return op.Overflow
	}
	pool.LPT, ok = arith.Sub128(pool.LPT, x.LPT)
	if !ok {
		return op.Overflow
	}
	if res := updateRecord(v, x.pool.Key, record.KindPool, pool.Encode()); res != op.Success {
		return res
	}

	return ctx.Tokens.Withdraw(v, x.treasury.Key, x.destination.Key, payout, x.authority.Key)
}
