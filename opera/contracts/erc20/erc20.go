// Package erc20 implements the fungible payment token used by token-priced
// sale kinds: a balance ledger with the standard approve/allowance/
// transferFrom flow. The sale engine never holds buyer funds directly — it
// is pre-approved by the buyer and pulls the exact payment amount during a
// purchase.
package erc20

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-opera-badge/inter"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance: transfer amount exceeds sender funds")
	ErrInsufficientAllowance = errors.New("insufficient allowance: spender approval does not cover amount")
	ErrNegativeAmount        = errors.New("negative amount: token amounts must be non-negative")
)

// Token is an in-memory fungible token ledger.
type Token struct {
	name     string
	symbol   string
	supply   *big.Int
	balances map[common.Address]*big.Int
	// allowances maps owner -> spender -> approved amount.
	allowances map[common.Address]map[common.Address]*big.Int

	log *logrus.Entry
}

// New creates a token ledger with the whole initial supply credited to the
// holder address.
func New(name, symbol string, holder common.Address, supply *big.Int, lg *logrus.Logger) *Token {
	t := &Token{
		name:       name,
		symbol:     symbol,
		supply:     new(big.Int).Set(supply),
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[common.Address]map[common.Address]*big.Int),
		log:        lg.WithField("contract", "erc20."+symbol),
	}
	t.balances[holder] = new(big.Int).Set(supply)
	return t
}

// Name returns the token name.
func (t *Token) Name() string { return t.name }

// Symbol returns the token ticker symbol.
func (t *Token) Symbol() string { return t.symbol }

// TotalSupply returns the fixed total supply.
func (t *Token) TotalSupply() *big.Int { return new(big.Int).Set(t.supply) }

// BalanceOf returns the balance of an address. Unknown addresses hold zero.
func (t *Token) BalanceOf(addr common.Address) *big.Int {
	if b, ok := t.balances[addr]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

// Allowance returns how much the spender may still pull from the owner.
func (t *Token) Allowance(owner, spender common.Address) *big.Int {
	if m, ok := t.allowances[owner]; ok {
		if a, ok := m[spender]; ok {
			return new(big.Int).Set(a)
		}
	}
	return new(big.Int)
}

// Approve sets the spender's allowance over the caller's funds. The new
// value overwrites any previous approval.
func (t *Token) Approve(call inter.Call, spender common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	m, ok := t.allowances[call.Caller]
	if !ok {
		m = make(map[common.Address]*big.Int)
		t.allowances[call.Caller] = m
	}
	m[spender] = new(big.Int).Set(amount)
	t.log.WithFields(logrus.Fields{
		"owner":   call.Caller.Hex(),
		"spender": spender.Hex(),
		"amount":  amount.String(),
	}).Debug("approval set")
	return nil
}

// Transfer moves funds from the caller to another address.
func (t *Token) Transfer(call inter.Call, to common.Address, amount *big.Int) error {
	return t.move(call.Caller, to, amount)
}

// TransferFrom moves funds from an owner to a recipient on behalf of the
// caller, consuming the caller's allowance. The allowance is checked and
// decremented before the balance moves.
func (t *Token) TransferFrom(call inter.Call, from, to common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	allowed := t.Allowance(from, call.Caller)
	if allowed.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	if err := t.move(from, to, amount); err != nil {
		return err
	}
	t.allowances[from][call.Caller] = allowed.Sub(allowed, amount)
	return nil
}

func (t *Token) move(from, to common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	fromBal := t.BalanceOf(from)
	if fromBal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	t.balances[from] = fromBal.Sub(fromBal, amount)
	toBal := t.BalanceOf(to)
	t.balances[to] = toBal.Add(toBal, amount)
	return nil
}
