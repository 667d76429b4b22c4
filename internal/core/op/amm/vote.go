package amm

import (
	"errors"

	"github.com/LeJamon/goswapd/internal/core/op"
)

func init() {
	op.Register(op.TagVote, func() op.Operation { return &Vote{} })
}

var errVoteUnresolved = errors.New("vote carries no executable semantics")

// Vote occupies its wire tag but is not an executable operation: payloads
// decode so the tag stays reserved, and validation then refuses them.
type Vote struct{}

func (x *Vote) Tag() op.Tag { return op.TagVote }

func (x *Vote) Bind(refs []op.AccountRef) error { return nil }

func (x *Vote) DecodeData(payload []byte) error { return nil }

func (x *Vote) EncodeData() []byte { return nil }

func (x *Vote) Validate() error { return errVoteUnresolved }

func (x *Vote) Apply(ctx *op.ApplyContext) op.Result {
	return op.InvalidInstruction
}
