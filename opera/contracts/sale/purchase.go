package sale

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-opera-badge/inter"
	"github.com/rony4d/go-opera-badge/utils/merkle"
)

// Purchase is the plain/explicit-whitelist entry point. The caller supplies
// the kind selector; this path serves the four non-Merkle kinds. For the
// explicit-whitelist kinds the caller's remaining allowance is consumed.
//
// The selector is deliberately not cross-checked against the stored event's
// configured kind: a caller may take the plain-native branch against an
// event configured as whitelist-token. The branch only decides the
// whitelist bookkeeping and the payment currency.
func (e *Engine) Purchase(call inter.Call, kind inter.SaleKind, id inter.SaleID, count uint64) error {
	if !kind.Valid() || kind.IsMerkle() {
		return ErrUnknownSaleKind
	}
	return e.purchase(call, kind, id, count, nil)
}

// PurchaseWithProof is the anonymous-allowlist entry point, serving the two
// Merkle kinds. The caller's address must verify against the current root
// via the supplied sorted-pair inclusion proof.
func (e *Engine) PurchaseWithProof(call inter.Call, kind inter.SaleKind, id inter.SaleID, count uint64, proof []common.Hash) error {
	if !kind.IsMerkle() {
		return ErrUnknownSaleKind
	}
	return e.purchase(call, kind, id, count, proof)
}

// purchase runs the shared eligibility sequence. Validation is fail-fast:
// the first failing check aborts with no state change. The order is part of
// the external behavior (callers distinguish failures by reason) and must
// not be rearranged:
//
//	1. global kill-switch     -> ErrSaleSuspended
//	2. active-set membership  -> ErrEventNotActive
//	3. positive quantity      -> ErrInvalidQuantity
//	4. allowlist: merkle proof or explicit whitelist allowance
//	5. per-wallet cap         -> ErrPerWalletLimitExceeded
//	6. event total cap        -> ErrGlobalLimitExceeded
//	7. bot blocking           -> ErrBotBlocked
//	8. payment                -> ErrInsufficientPayment / ErrInsufficientAllowance
//
// After validation the engine's own counters are updated before the
// cross-contract mint call (checks-effects-interactions), so a re-entering
// issuer can never observe partially validated state.
func (e *Engine) purchase(call inter.Call, kind inter.SaleKind, id inter.SaleID, count uint64, proof []common.Hash) error {
	buyer := call.Caller

	// 1. global kill-switch
	if !e.saleActive {
		return e.reject(buyer, id, ErrSaleSuspended)
	}

	// 2. membership in the active set gates purchasing, not catalog
	// presence; an activated id without a catalog entry still fails here
	// with its own reason.
	if !e.IsActive(id) {
		return e.reject(buyer, id, ErrEventNotActive)
	}
	if int(id) >= len(e.catalog) {
		return e.reject(buyer, id, ErrUnknownSaleEvent)
	}
	ev := &e.catalog[id]

	// 3. quantity
	if count == 0 {
		return e.reject(buyer, id, ErrInvalidQuantity)
	}

	// 4. allowlist gate of the taken branch
	if kind.IsMerkle() {
		if len(proof) > e.rules.Limits.MaxMerkleProofDepth {
			return e.reject(buyer, id, ErrProofTooDeep)
		}
		if !merkle.VerifyAddress(e.merkleRoot, buyer, proof) {
			return e.reject(buyer, id, ErrInvalidProof)
		}
	}
	if kind.IsWhitelist() {
		if e.whitelist[buyer][id] < count {
			return e.reject(buyer, id, ErrWhitelistExceeded)
		}
	}

	// 5. per-wallet cap (overflow-safe)
	already := e.purchased[buyer][id]
	if already+count < already || already+count > ev.MaxUnitsPerWallet {
		return e.reject(buyer, id, ErrPerWalletLimitExceeded)
	}

	// 6. event total cap (overflow-safe)
	if ev.CurrentTotalUnits+count < ev.CurrentTotalUnits || ev.CurrentTotalUnits+count > ev.MaxTotalUnits {
		return e.reject(buyer, id, ErrGlobalLimitExceeded)
	}

	// 7. bot blocking: the ultimate originating caller must be the
	// immediate caller, i.e. the purchase was not proxied through another
	// contract.
	if e.botBlock && call.Origin != buyer {
		return e.reject(buyer, id, ErrBotBlocked)
	}

	if e.issuer == nil {
		return e.reject(buyer, id, ErrIssuerUnset)
	}

	// 8. payment
	required := new(big.Int).Mul(ev.UnitPrice, new(big.Int).SetUint64(count))
	var collected *big.Int
	if kind.IsTokenPayment() {
		if e.payToken == nil {
			return e.reject(buyer, id, ErrPaymentTokenUnset)
		}
		if e.payToken.Allowance(buyer, e.addr).Cmp(required) < 0 {
			return e.reject(buyer, id, ErrInsufficientAllowance)
		}
		if err := e.payToken.TransferFrom(call.Internal(e.addr), buyer, e.addr, required); err != nil {
			return e.reject(buyer, id, err)
		}
		collected = required
	} else {
		attached := call.AttachedValue()
		if attached.Cmp(required) < 0 {
			return e.reject(buyer, id, ErrInsufficientPayment)
		}
		// the full attached value is kept, as with any payable call
		collected = attached
	}

	// effects before the cross-contract interaction
	if e.purchased[buyer] == nil {
		e.purchased[buyer] = make(map[inter.SaleID]uint64)
	}
	e.purchased[buyer][id] += count
	if kind.IsWhitelist() {
		e.whitelist[buyer][id] -= count
	}
	ev.CurrentTotalUnits += count

	// interaction: trigger the mint on the trusted issuer
	if err := e.issuer.Mint(call.Internal(e.addr), buyer, id, count); err != nil {
		// the host ledger would revert the whole call here; without a host
		// the engine unwinds its own mutations to keep all-or-nothing
		// semantics
		e.purchased[buyer][id] -= count
		if kind.IsWhitelist() {
			e.whitelist[buyer][id] += count
		}
		ev.CurrentTotalUnits -= count
		if kind.IsTokenPayment() {
			if refundErr := e.payToken.Transfer(call.Internal(e.addr), buyer, required); refundErr != nil {
				e.log.WithError(refundErr).Error("refund after failed mint did not apply")
			}
		}
		return e.reject(buyer, id, err)
	}

	if !kind.IsTokenPayment() {
		e.collectedNative.Add(e.collectedNative, collected)
	}

	e.log.WithFields(logrus.Fields{
		"buyer": buyer.Hex(),
		"sale":  id,
		"kind":  kind.String(),
		"count": count,
		"paid":  collected.String(),
	}).Debug("purchase accepted")

	e.purchaseFeed.Send(PurchaseNotice{
		Buyer: buyer,
		Sale:  id,
		Count: count,
		Paid:  new(big.Int).Set(collected),
	})
	return nil
}

// reject logs the failed attempt and passes the reason through unchanged.
func (e *Engine) reject(buyer common.Address, id inter.SaleID, reason error) error {
	e.log.WithFields(logrus.Fields{
		"buyer":  buyer.Hex(),
		"sale":   id,
		"reason": reason.Error(),
	}).Debug("purchase rejected")
	return reason
}
