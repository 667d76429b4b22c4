package op

import (
	"log"
	"sync"

	"github.com/LeJamon/goswapd/internal/core/ledger/keys"
	"github.com/LeJamon/goswapd/internal/core/ledger/record"
)

// Sequencer assigns the apply sequence of committed operations. The ledger
// implements it over a persisted counter.
type Sequencer interface {
	NextSequence() (uint64, error)
}

// EngineConfig holds configuration for the operation engine.
type EngineConfig struct {
	// Program is the storage domain this engine answers for. Zero means
	// keys.EngineProgram.
	Program record.Address

	// Tokens is the mover handlers use for custody moves.
	Tokens TokenMover

	// Sequence assigns apply sequences. Nil falls back to an in-memory
	// counter, which is enough for tests and ephemeral stores.
	Sequence Sequencer
}

// Engine applies operations against a base view, one at a time. Each apply
// stages through a StateTable and either commits wholesale or leaves the
// base untouched.
type Engine struct {
	mu     sync.Mutex
	view   View
	config EngineConfig
	seq    uint64
}

// NewEngine creates an operation engine over the given base view.
func NewEngine(view View, config EngineConfig) *Engine {
	if config.Program.IsZero() {
		config.Program = keys.EngineProgram
	}
	return &Engine{view: view, config: config}
}

// ApplyResult is the outcome of one submission.
type ApplyResult struct {
	// Result is the operation result code.
	Result Result `json:"result"`

	// Applied indicates whether state was committed.
	Applied bool `json:"applied"`

	// Tag is the operation's wire tag, when the payload decoded.
	Tag Tag `json:"tag"`

	// Seq is the apply sequence, assigned only to applied operations.
	Seq uint64 `json:"seq,omitempty"`

	// Metadata lists the record changes of an applied operation.
	Metadata *Metadata `json:"metadata,omitempty"`

	// Message is a human-readable result description.
	Message string `json:"message"`
}

// Apply decodes, binds and applies one submission. On success the staged
// changes are committed to the base view and the result carries the apply
// sequence and change metadata; on any failure the base view is untouched.
func (e *Engine) Apply(sub Submission) ApplyResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	if sub.Program != e.config.Program {
		return failure(IncorrectProgramID, 0)
	}

	operation, err := Decode(sub.Data)
	if err != nil {
		return failure(InvalidInstruction, 0)
	}
	if err := operation.Bind(sub.Accounts); err != nil {
		return failure(InvalidInstruction, operation.Tag())
	}
	if err := operation.Validate(); err != nil {
		return failure(InvalidInstruction, operation.Tag())
	}

	table := NewStateTable(e.view)
	meta := &Metadata{}
	ctx := &ApplyContext{
		View:     table,
		Tokens:   e.config.Tokens,
		Metadata: meta,
	}

	if result := operation.Apply(ctx); result != Success {
		return failure(result, operation.Tag())
	}

	seq, err := e.nextSequence()
	if err != nil {
		log.Printf("engine: sequence assignment failed: %v", err)
		return failure(Internal, operation.Tag())
	}

	changes, err := table.Commit()
	if err != nil {
		log.Printf("engine: commit failed: %v", err)
		return failure(Internal, operation.Tag())
	}
	meta.Changes = changes

	return ApplyResult{
		Result:   Success,
		Applied:  true,
		Tag:      operation.Tag(),
		Seq:      seq,
		Metadata: meta,
		Message:  Success.Message(),
	}
}

func (e *Engine) nextSequence() (uint64, error) {
	if e.config.Sequence != nil {
		return e.config.Sequence.NextSequence()
	}
	e.seq++
	return e.seq, nil
}

func failure(result Result, tag Tag) ApplyResult {
	return ApplyResult{
		Result:  result,
		Tag:     tag,
		Message: result.Message(),
	}
}
