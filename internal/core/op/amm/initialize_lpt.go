package amm

import (
	"github.com/LeJamon/goswapd/internal/core/ledger/record"
	"github.com/LeJamon/goswapd/internal/core/op"
)

func init() {
	op.Register(op.TagInitializeLPT, func() op.Operation { return &InitializeLPT{} })
}

// InitializeLPT constructs a zero-balance LPT account bound to a pool. The
// pool slot is only domain-checked, not loaded: accounts may be created
// ahead of the pool they will hold shares of.
type InitializeLPT struct {
	owner   op.AccountRef
	pool    op.AccountRef
	account op.AccountRef
}

func (x *InitializeLPT) Tag() op.Tag { return op.TagInitializeLPT }

// Bind assigns [owner, pool, lpt]. Owner and lpt must be signed.
func (x *InitializeLPT) Bind(refs []op.AccountRef) error {
	if len(refs) != 3 {
		return op.ErrAccountCount
	}
	x.owner = refs[0]
	x.pool = refs[1]
	x.account = refs[2]
	return nil
}

func (x *InitializeLPT) DecodeData(payload []byte) error { return nil }

func (x *InitializeLPT) EncodeData() []byte { return nil }

func (x *InitializeLPT) Validate() error { return nil }

func (x *InitializeLPT) Apply(ctx *op.ApplyContext) op.Result {
	v := ctx.View

	if res := checkDomain(v, x.pool.Key); res != op.Success {
		return res
	}
	if res := vacantForCreate(v, x.account.Key, record.KindLPTAccount); res != op.Success {
		return res
	}
	if !x.owner.Signer || !x.account.Signer {
		return op.InvalidOwner
	}

	account := record.NewLPTAccount()
	account.Owner = x.owner.Key
	account.Pool = x.pool.Key
	account.Initialized = true
	return insertRecord(v, x.account.Key, record.KindLPTAccount, account.Encode())
}
