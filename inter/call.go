package inter

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Call is the envelope the host ledger attaches to every externally invoked
// operation. Execution is single-threaded and atomic per call: an operation
// either runs to completion or fails with no surviving state changes.
type Call struct {
	// Caller is the immediate caller of the operation. For cross-contract
	// calls this is the calling contract's address, not the original sender.
	Caller common.Address

	// Origin is the ultimate originating caller of the whole call chain.
	// Origin == Caller means the operation was invoked directly, without
	// passing through another contract.
	Origin common.Address

	// Value is the native currency attached to the call, in wei.
	// Nil is treated as zero.
	Value *big.Int
}

// DirectCall builds a Call invoked straight from an externally owned account:
// origin and caller are the same address and no value is attached.
func DirectCall(from common.Address) Call {
	return Call{Caller: from, Origin: from}
}

// WithValue returns a copy of the call with the given native value attached.
// The amount is deep-copied so the caller keeps ownership of its big.Int.
func (c Call) WithValue(value *big.Int) Call {
	cp := c
	cp.Value = new(big.Int).Set(value)
	return cp
}

// AttachedValue returns the native value of the call, normalizing nil to zero.
func (c Call) AttachedValue() *big.Int {
	if c.Value == nil {
		return new(big.Int)
	}
	return c.Value
}

// Internal derives the envelope for a nested cross-contract call made by the
// contract at 'from'. The origin of the outer call is preserved so that
// origin-based checks (e.g. bot blocking) see through the whole chain.
func (c Call) Internal(from common.Address) Call {
	return Call{Caller: from, Origin: c.Origin}
}
