package amm

import (
	"github.com/LeJamon/goswapd/internal/core/op"
)

func init() {
	op.Register(op.TagCloseLPT, func() op.Operation { return &CloseLPT{} })
}

// CloseLPT removes a drained LPT account. The metadata notes the
// destination that reclaims the slot's storage deposit.
type CloseLPT struct {
	owner       op.AccountRef
	account     op.AccountRef
	destination op.AccountRef
}

func (x *CloseLPT) Tag() op.Tag { return op.TagCloseLPT }

// Bind assigns [owner, lpt, destination]. Owner must be signed.
func (x *CloseLPT) Bind(refs []op.AccountRef) error {
	if len(refs) != 3 {
		return op.ErrAccountCount
	}
	x.owner = refs[0]
	x.account = refs[1]
	x.destination = refs[2]
	return nil
}

func (x *CloseLPT) DecodeData(payload []byte) error { return nil }

func (x *CloseLPT) EncodeData() []byte { return nil }

func (x *CloseLPT) Validate() error { return nil }

func (x *CloseLPT) Apply(ctx *op.ApplyContext) op.Result {
	v := ctx.View

	if res := checkDomain(v, x.account.Key); res != op.Success {
		return res
	}
	account, res := loadLPTAccount(v, x.account.Key)
	if res != op.Success {
		return res
	}

	if !x.owner.Signer || account.Owner != x.owner.Key {
		return op.InvalidOwner
	}
	if !account.LPT.IsZero() {
		return op.ZeroValue
	}

	if err := v.Erase(x.account.Key); err != nil {
		return op.Internal
	}
	reclaim := x.destination.Key
	ctx.Metadata.Reclaim = &reclaim
	return op.Success
}
