package sale

import "errors"

// Purchase and administrative failures. Every failure aborts the whole
// operation with no surviving state change; retry is the caller's decision.
var (
	// ErrSaleSuspended: the global kill-switch is off.
	ErrSaleSuspended = errors.New("sale suspended: global sale toggle is off")

	// ErrEventNotActive: the sale event is not in the active set.
	ErrEventNotActive = errors.New("event not active: sale event is not currently open for purchase")

	// ErrInvalidQuantity: the requested unit count is zero.
	ErrInvalidQuantity = errors.New("invalid quantity: unit count must be positive")

	// ErrInvalidProof: the Merkle proof does not place the caller under the
	// current root (stale proofs fail the instant the root is replaced).
	ErrInvalidProof = errors.New("invalid proof: address does not verify against the current merkle root")

	// ErrProofTooDeep: the proof exceeds the deployment's depth limit.
	ErrProofTooDeep = errors.New("proof too deep: sibling count exceeds the deployment limit")

	// ErrPerWalletLimitExceeded: the purchase would push the caller past the
	// event's per-address cap.
	ErrPerWalletLimitExceeded = errors.New("per-wallet limit exceeded: cumulative purchases would pass the per-address cap")

	// ErrGlobalLimitExceeded: the purchase would push the event past its
	// total-units cap.
	ErrGlobalLimitExceeded = errors.New("global limit exceeded: purchase would pass the event's total cap")

	// ErrBotBlocked: bot blocking is on and the call was proxied through
	// another contract (origin differs from the immediate caller).
	ErrBotBlocked = errors.New("bot blocked: proxied purchases are rejected while bot blocking is enabled")

	// ErrInsufficientPayment: the attached native value does not cover
	// unit price times count.
	ErrInsufficientPayment = errors.New("insufficient payment: attached value does not cover the purchase")

	// ErrInsufficientAllowance: the caller's token approval to the engine
	// does not cover the purchase.
	ErrInsufficientAllowance = errors.New("insufficient allowance: token approval does not cover the purchase")

	// ErrWhitelistExceeded: the explicit whitelist allowance does not cover
	// the requested count.
	ErrWhitelistExceeded = errors.New("whitelist exceeded: remaining whitelist allowance does not cover the count")

	// ErrUnknownSaleKind: the caller-supplied kind selector is not one this
	// entry point serves.
	ErrUnknownSaleKind = errors.New("unknown sale kind: selector is not served by this purchase path")

	// ErrUnknownSaleEvent: the identifier was activated but no such event
	// exists in the catalog.
	ErrUnknownSaleEvent = errors.New("unknown sale event: identifier has no catalog entry")

	// ErrUnauthorized: the caller lacks the owner capability.
	ErrUnauthorized = errors.New("unauthorized: caller is not the contract owner")

	// ErrLengthMismatch: paired batch inputs differ in size.
	ErrLengthMismatch = errors.New("length mismatch: paired batch inputs differ in size")

	// ErrBatchTooLarge: a batch grant exceeds the deployment limit.
	ErrBatchTooLarge = errors.New("batch too large: entry count exceeds the deployment limit")

	// ErrPaymentTokenUnset: a token-priced purchase was attempted before
	// the payment token reference was configured.
	ErrPaymentTokenUnset = errors.New("payment token unset: no fungible token configured for token-priced sales")

	// ErrIssuerUnset: a purchase was attempted before the badge issuer
	// reference was configured.
	ErrIssuerUnset = errors.New("issuer unset: no badge contract configured to mint into")

	// ErrNothingToWithdraw: a withdrawal was requested with a zero balance.
	ErrNothingToWithdraw = errors.New("nothing to withdraw: collected balance is zero")
)
