package amm

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/LeJamon/goswapd/internal/core/arith"
	"github.com/LeJamon/goswapd/internal/core/ledger/record"
	"github.com/LeJamon/goswapd/internal/core/op"
)

func init() {
	op.Register(op.TagTransfer, func() op.Operation { return &Transfer{} })
}

// Transfer moves shares between two LPT accounts of the same pool.
type Transfer struct {
	LPT *uint256.Int

	owner       op.AccountRef
	source      op.AccountRef
	destination op.AccountRef
}

func (x *Transfer) Tag() op.Tag { return op.TagTransfer }

// Bind assigns [owner, source lpt, destination lpt]. Owner must be signed.
func (x *Transfer) Bind(refs []op.AccountRef) error {
	if len(refs) != 3 {
		return op.ErrAccountCount
	}
	x.owner = refs[0]
	x.source = refs[1]
	x.destination = refs[2]
	return nil
}

func (x *Transfer) DecodeData(payload []byte) error {
	lpt, err := op.DecodeU128(payload)
	if err != nil {
		return err
	}
	x.LPT = lpt
	return nil
}

func (x *Transfer) EncodeData() []byte {
	return op.EncodeU128(nil, x.LPT)
}

func (x *Transfer) Validate() error {
	if x.LPT == nil {
		return errors.New("share amount is unset")
	}
	return nil
}

func (x *Transfer) Apply(ctx *op.ApplyContext) op.Result {
	v := ctx.View

	for _, key := range []record.Address{x.source.Key, x.destination.Key} {
		if res := checkDomain(v, key); res != op.Success {
			return res
		}
	}

	src, res := loadLPTAccount(v, x.source.Key)
	if res != op.Success {
		return res
	}
	dst, res := loadLPTAccount(v, x.destination.Key)
	if res != op.Success {
		return res
	}

	if !x.owner.Signer || src.Owner != x.owner.Key {
		return op.InvalidOwner
	}
	if src.Pool != dst.Pool {
		return op.UnmatchedPool
	}
	if x.LPT.IsZero() {
		return op.ZeroValue
	}
	if src.LPT.Lt(x.LPT) {
		return op.InsufficientFunds
	}
	if x.source.Key == x.destination.Key {
		return op.Success
	}

	var ok bool
	src.LPT, ok = arith.Sub128(src.LPT, x.LPT)
	if !ok {
		return op.Overflow
	}
	if res := updateRecord(v, x.source.Key, record.KindLPTAccount, src.Encode()); res != op.Success {
		return res
	}

	dst.LPT, ok = arith.Add128(dst.LPT, x.LPT)
	if !ok {
		return op.Overflow
	}
	return updateRecord(v, x.destination.Key, record.KindLPTAccount, dst.Encode())
}
