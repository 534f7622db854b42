// Package badge implements the token-issuer contract of the badge sale
// system. It owns the badge collection ledger and exposes exactly one
// trusted mint entry point, callable only by the registered sale engine,
// plus an administrative batch-mint path. Minting assigns sequential token
// ids and publishes notifications for off-chain metadata systems.
package badge

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-opera-badge/inter"
	"github.com/rony4d/go-opera-badge/opera"
)

var (
	ErrUnauthorized   = errors.New("unauthorized: caller is not permitted to perform this operation")
	ErrLengthMismatch = errors.New("length mismatch: recipients and quantities differ in size")
	ErrZeroQuantity   = errors.New("zero quantity: mint count must be positive")
	ErrBatchTooLarge  = errors.New("batch too large: recipient count exceeds the deployment limit")
	ErrUnknownToken   = errors.New("unknown token: id has not been minted")
)

// MintNotice is published after every engine-triggered mint so off-chain
// metadata systems can resolve the new token ids:
// ids (LastTokenID-Count, LastTokenID] now belong to To under sale Sale.
type MintNotice struct {
	To          common.Address
	Sale        inter.SaleID
	Count       uint64
	LastTokenID uint64
}

// BatchMintNotice is the aggregate notification of an administrative batch
// mint, carrying only the resulting highest token id.
type BatchMintNotice struct {
	LastTokenID uint64
	Aux         []byte
}

// Contract is the badge collection ledger.
type Contract struct {
	addr  common.Address
	owner common.Address

	name    string
	symbol  string
	baseURI string

	// engine is the one address trusted to call Mint. Configured by the
	// owner as part of the deployment handshake; validated on every call.
	engine common.Address

	lastTokenID uint64
	owners      map[uint64]common.Address
	balances    map[common.Address]uint64

	limits opera.LimitsRules

	mintFeed  event.Feed
	batchFeed event.Feed

	log *logrus.Entry
}

// New deploys the badge contract at the given address with the given owner.
// The trusted sale engine starts unset and must be configured by the owner
// before any sale can mint.
func New(addr, owner common.Address, name, symbol string, rules opera.Rules, lg *logrus.Logger) *Contract {
	return &Contract{
		addr:     addr,
		owner:    owner,
		name:     name,
		symbol:   symbol,
		owners:   make(map[uint64]common.Address),
		balances: make(map[common.Address]uint64),
		limits:   rules.Limits,
		log:      lg.WithField("contract", "badge").WithField("address", addr.Hex()),
	}
}

// Address returns the contract's own address.
func (c *Contract) Address() common.Address { return c.addr }

// Owner returns the current owner identity.
func (c *Contract) Owner() common.Address { return c.owner }

// SaleEngine returns the currently trusted sale engine address.
func (c *Contract) SaleEngine() common.Address { return c.engine }

// LastTokenID returns the highest token id minted so far (0 if none).
func (c *Contract) LastTokenID() uint64 { return c.lastTokenID }

// BalanceOf returns how many badges an address holds.
func (c *Contract) BalanceOf(addr common.Address) uint64 { return c.balances[addr] }

// OwnerOf resolves the holder of a token id.
func (c *Contract) OwnerOf(tokenID uint64) (common.Address, error) {
	holder, ok := c.owners[tokenID]
	if !ok {
		return common.Address{}, ErrUnknownToken
	}
	return holder, nil
}

// TokenURI resolves the metadata location of a token id.
func (c *Contract) TokenURI(tokenID uint64) (string, error) {
	if _, ok := c.owners[tokenID]; !ok {
		return "", ErrUnknownToken
	}
	return fmt.Sprintf("%s%d", c.baseURI, tokenID), nil
}

// requireOwner gates administrative operations on the owner identity.
func (c *Contract) requireOwner(call inter.Call) error {
	if call.Caller != c.owner {
		return ErrUnauthorized
	}
	return nil
}

// TransferOwnership hands the owner identity to a new address. Only the
// current owner can transfer it.
func (c *Contract) TransferOwnership(call inter.Call, newOwner common.Address) error {
	if err := c.requireOwner(call); err != nil {
		return err
	}
	c.owner = newOwner
	c.log.WithField("owner", newOwner.Hex()).Info("ownership transferred")
	return nil
}

// SetBaseURI updates the base metadata location.
func (c *Contract) SetBaseURI(call inter.Call, uri string) error {
	if err := c.requireOwner(call); err != nil {
		return err
	}
	c.baseURI = uri
	c.log.WithField("baseURI", uri).Info("base URI updated")
	return nil
}

// SetSaleEngine registers the one sale engine address trusted to mint.
// This is the issuer's half of the cross-contract handshake.
func (c *Contract) SetSaleEngine(call inter.Call, engine common.Address) error {
	if err := c.requireOwner(call); err != nil {
		return err
	}
	c.engine = engine
	c.log.WithField("engine", engine.Hex()).Info("trusted sale engine updated")
	return nil
}

// Mint issues count sequential badges to an address, tagged with the sale
// event that sold them. Only the trusted sale engine may call it; the check
// runs on every call rather than being bound once at configuration time.
func (c *Contract) Mint(call inter.Call, to common.Address, sale inter.SaleID, count uint64) error {
	if call.Caller != c.engine || c.engine == (common.Address{}) {
		return ErrUnauthorized
	}
	if count == 0 {
		return ErrZeroQuantity
	}

	c.mintRange(to, count)
	c.log.WithFields(logrus.Fields{
		"to":    to.Hex(),
		"sale":  sale,
		"count": count,
		"last":  c.lastTokenID,
	}).Debug("badges minted")

	c.mintFeed.Send(MintNotice{
		To:          to,
		Sale:        sale,
		Count:       count,
		LastTokenID: c.lastTokenID,
	})
	return nil
}

// BatchMint issues the paired quantities to the paired recipients in one
// administrative call. The list lengths are validated explicitly before any
// indexing, and the whole batch is applied atomically: nothing is minted
// unless every pair is valid.
func (c *Contract) BatchMint(call inter.Call, recipients []common.Address, quantities []uint64, aux []byte) error {
	if err := c.requireOwner(call); err != nil {
		return err
	}
	if len(recipients) != len(quantities) {
		return ErrLengthMismatch
	}
	if len(recipients) > c.limits.MaxBatchMint {
		return ErrBatchTooLarge
	}
	for _, q := range quantities {
		if q == 0 {
			return ErrZeroQuantity
		}
	}

	for i, to := range recipients {
		c.mintRange(to, quantities[i])
	}
	c.log.WithFields(logrus.Fields{
		"recipients": len(recipients),
		"last":       c.lastTokenID,
	}).Info("batch mint applied")

	c.batchFeed.Send(BatchMintNotice{LastTokenID: c.lastTokenID, Aux: aux})
	return nil
}

// mintRange assigns the next count sequential ids to the recipient.
func (c *Contract) mintRange(to common.Address, count uint64) {
	for i := uint64(0); i < count; i++ {
		c.lastTokenID++
		c.owners[c.lastTokenID] = to
	}
	c.balances[to] += count
}

// SubscribeMints subscribes to per-sale mint notifications.
func (c *Contract) SubscribeMints(ch chan<- MintNotice) event.Subscription {
	return c.mintFeed.Subscribe(ch)
}

// SubscribeBatchMints subscribes to administrative batch-mint notifications.
func (c *Contract) SubscribeBatchMints(ch chan<- BatchMintNotice) event.Subscription {
	return c.batchFeed.Subscribe(ch)
}
