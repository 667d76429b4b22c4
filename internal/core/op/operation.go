package op

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/LeJamon/goswapd/internal/core/ledger/record"
)

// Common decode and bind errors.
var (
	ErrUnknownTag   = errors.New("unknown operation tag")
	ErrShortPayload = errors.New("operation payload too short")
	ErrAccountCount = errors.New("wrong number of account slots")
)

// AccountRef is one record slot presented with a submission. Signer marks
// slots whose key the host verified a signature for before handing the
// operation to the engine.
type AccountRef struct {
	Key    record.Address `json:"key"`
	Signer bool           `json:"signer,omitempty"`
}

// Submission is the envelope an operation arrives in: the storage domain it
// is addressed to, the ordered record slots it touches, and the wire
// payload. Account keys never travel inside the payload.
type Submission struct {
	Program  record.Address `json:"program"`
	Accounts []AccountRef   `json:"accounts"`
	Data     []byte         `json:"data"`
}

// Operation is implemented by every state transition the engine can apply.
// DecodeData and Bind populate the operation from a submission; Apply runs
// the handler against a staged view and returns the outcome.
type Operation interface {
	// Tag returns the wire tag of the operation.
	Tag() Tag

	// Bind assigns the ordered account slots to the operation's named
	// references. It fails when the slot count is wrong.
	Bind(refs []AccountRef) error

	// DecodeData parses the parameter block that follows the tag byte.
	DecodeData(payload []byte) error

	// EncodeData serializes the parameter block that follows the tag byte.
	EncodeData() []byte

	// Validate checks the operation's structure before it is applied.
	Validate() error

	// Apply runs the operation against the context's staged view.
	Apply(ctx *ApplyContext) Result
}

// Factory creates an empty operation of one type.
type Factory func() Operation

var (
	registryMu sync.RWMutex
	registry   = make(map[Tag]Factory)
)

// Register adds an operation factory for a wire tag. It is called from the
// handler package's init and panics on duplicates.
func Register(tag Tag, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[tag]; dup {
		panic(fmt.Sprintf("op: duplicate registration for tag %d", tag))
	}
	registry[tag] = factory
}

// New creates an empty operation for the given tag.
func New(tag Tag) (Operation, error) {
	registryMu.RLock()
	factory, ok := registry[tag]
	registryMu.RUnlock()
	if !ok {
		return nil, ErrUnknownTag
	}
	return factory(), nil
}

// Tags returns all registered wire tags in ascending order.
func Tags() []Tag {
	registryMu.RLock()
	defer registryMu.RUnlock()
	tags := make([]Tag, 0, len(registry))
	for tag := range registry {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}
