package amm

import (
	"github.com/LeJamon/goswapd/internal/core/ledger/keys"
	"github.com/LeJamon/goswapd/internal/core/op"
)

func init() {
	op.Register(op.TagClosePool, func() op.Operation { return &ClosePool{} })
}

// ClosePool removes a pool whose reserve and share supply are both zero.
// The treasury is closed along with the record; the metadata notes the
// destination that reclaims the storage deposits.
type ClosePool struct {
	owner       op.AccountRef
	pool        op.AccountRef
	treasury    op.AccountRef
	destination op.AccountRef
	authority   op.AccountRef
}

func (x *ClosePool) Tag() op.Tag { return op.TagClosePool }

// Bind assigns [owner, pool, treasury, destination, authority]. Owner must
// be signed.
func (x *ClosePool) Bind(refs []op.AccountRef) error {
	if len(refs) != 5 {
		return op.ErrAccountCount
	}
	x.owner = refs[0]
	x.pool = refs[1]
	x.treasury = refs[2]
	x.destination = refs[3]
	x.authority = refs[4]
	return nil
}

func (x *ClosePool) DecodeData(payload []byte) error { return nil }

func (x *ClosePool) EncodeData() []byte { return nil }

func (x *ClosePool) Validate() error { return nil }

func (x *ClosePool) Apply(ctx *op.ApplyContext) op.Result {
	v := ctx.View

	if res := checkDomain(v, x.pool.Key); res != op.Success {
		return res
	}
	pool, res := loadPool(v, x.pool.Key)
	if res != op.Success {
		return res
	}

	if !x.owner.Signer || pool.Owner != x.owner.Key || pool.Treasury != x.treasury.Key ||
		keys.PoolAuthority(x.pool.Key) != x.authority.Key {
		return op.InvalidOwner
	}
	if !pool.LPT.IsZero() || pool.Reserve != 0 {
		return op.ZeroValue
	}

	if res := ctx.Tokens.Close(v, x.treasury.Key, x.destination.Key, x.authority.Key); res != op.Success {
		return res
	}
	if err := v.Erase(x.pool.Key); err != nil {
		return op.Internal
	}
	reclaim := x.destination.Key
	ctx.Metadata.Reclaim = &reclaim
	return op.Success
}
