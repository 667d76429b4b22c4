package op

import "fmt"

// Result is the outcome code of applying an operation. Success is the only
// code that commits state; every other code aborts the operation wholesale
// and leaves the ledger untouched.
type Result int

const (
	Success Result = iota
	InvalidInstruction
	IncorrectProgramID
	ConstructorOnce
	InvalidOwner
	UnmatchedPool
	NotInitialized
	IncorrectNetworkID
	ZeroValue
	InsufficientFunds
	Overflow
)

// Internal covers store and codec faults outside the operation taxonomy.
// It indicates host trouble, not caller error.
const Internal Result = 100

// Ok reports whether the operation was applied.
func (r Result) Ok() bool {
	return r == Success
}

// String returns the canonical code name, as surfaced by the APIs.
func (r Result) String() string {
	switch r {
	case Success:
		return "Success"
	case InvalidInstruction:
		return "InvalidInstruction"
	case IncorrectProgramID:
		return "IncorrectProgramID"
	case ConstructorOnce:
		return "ConstructorOnce"
	case InvalidOwner:
		return "InvalidOwner"
	case UnmatchedPool:
		return "UnmatchedPool"
	case NotInitialized:
		return "NotInitialized"
	case IncorrectNetworkID:
		return "IncorrectNetworkID"
	case ZeroValue:
		return "ZeroValue"
	case InsufficientFunds:
		return "InsufficientFunds"
	case Overflow:
		return "Overflow"
	case Internal:
		return "Internal"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

// Message returns a human-readable description of the result.
func (r Result) Message() string {
	switch r {
	case Success:
		return "The operation was applied"
	case InvalidInstruction:
		return "The instruction payload could not be decoded"
	case IncorrectProgramID:
		return "A record slot belongs to a different storage domain"
	case ConstructorOnce:
		return "The target record has already been constructed"
	case InvalidOwner:
		return "A required signature or authority is missing or wrong"
	case UnmatchedPool:
		return "Accounts are bound to mismatched pools or mints"
	case NotInitialized:
		return "A referenced record is missing or not initialized"
	case IncorrectNetworkID:
		return "The pools belong to different networks"
	case ZeroValue:
		return "An amount that must be positive is zero, or a balance that must be zero is not"
	case InsufficientFunds:
		return "The source balance cannot cover the requested amount"
	case Overflow:
		return "Checked arithmetic overflowed or underflowed"
	case Internal:
		return "The host failed to read or write record state"
	default:
		return fmt.Sprintf("Unknown result code %d", int(r))
	}
}
