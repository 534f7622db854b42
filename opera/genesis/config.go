// Package genesis defines the deployment description of a badge sale
// system and the logic that turns it into live contracts. A genesis file
// names the deployment rules, the owner, the contract addresses and the
// initial sale catalog, so every operator applying the same file gets an
// identical starting state.
//
// Usage:
//
//	g, err := genesis.LoadGenesis("fakenet.json")
//	dep, err := g.Apply(logger)
//
// For tests and local development FakeNetGenesis returns a ready-made
// deterministic deployment.
package genesis

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-opera-badge/inter"
	"github.com/rony4d/go-opera-badge/opera"
	"github.com/rony4d/go-opera-badge/opera/contracts/badge"
	"github.com/rony4d/go-opera-badge/opera/contracts/erc20"
	"github.com/rony4d/go-opera-badge/opera/contracts/sale"
)

// SaleEventSpec describes one catalog entry to create at genesis. The kind
// is given by name (see inter.SaleKindByName).
type SaleEventSpec struct {
	Kind         string   `json:"kind"`
	MaxTotal     uint64   `json:"maxTotal"`
	MaxPerWallet uint64   `json:"maxPerWallet"`
	UnitPrice    *big.Int `json:"unitPrice"`
	Activate     bool     `json:"activate"`
}

// Allocation funds one holder of the payment token at genesis.
type Allocation struct {
	Holder common.Address `json:"holder"`
	Amount *big.Int       `json:"amount"`
}

// WhitelistGrant seeds one explicit whitelist allowance at genesis.
type WhitelistGrant struct {
	Addr  common.Address `json:"addr"`
	Sale  inter.SaleID   `json:"sale"`
	Count uint64         `json:"count"`
}

// Genesis is the complete deployment description.
type Genesis struct {
	Rules opera.Rules    `json:"rules"`
	Owner common.Address `json:"owner"`

	BadgeAddress  common.Address `json:"badgeAddress"`
	EngineAddress common.Address `json:"engineAddress"`
	TokenAddress  common.Address `json:"tokenAddress"`

	BadgeName   string `json:"badgeName"`
	BadgeSymbol string `json:"badgeSymbol"`
	BaseURI     string `json:"baseURI"`

	// Payment token; skipped entirely when TokenSupply is nil or zero.
	TokenName   string       `json:"tokenName"`
	TokenSymbol string       `json:"tokenSymbol"`
	TokenSupply *big.Int     `json:"tokenSupply"`
	Allocations []Allocation `json:"allocations"`

	SaleEvents []SaleEventSpec  `json:"saleEvents"`
	Whitelist  []WhitelistGrant `json:"whitelist"`
	MerkleRoot common.Hash      `json:"merkleRoot"`
	SaleActive bool             `json:"saleActive"`
}

// Deployment is the set of live contracts a genesis produces, fully linked.
type Deployment struct {
	Token  *erc20.Token
	Badge  *badge.Contract
	Engine *sale.Engine
}

// LoadGenesis reads and decodes a genesis file.
func LoadGenesis(path string) (*Genesis, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis file %s: %w", path, err)
	}
	g := &Genesis{}
	if err := json.Unmarshal(raw, g); err != nil {
		return nil, fmt.Errorf("decode genesis file %s: %w", path, err)
	}
	return g, nil
}

// Apply constructs the contracts, performs the cross-contract trust
// handshake and seeds the initial catalog, whitelist and toggles. The
// resulting deployment is ready for purchases (subject to SaleActive).
func (g *Genesis) Apply(lg *logrus.Logger) (*Deployment, error) {
	owner := inter.DirectCall(g.Owner)

	dep := &Deployment{
		Badge:  badge.New(g.BadgeAddress, g.Owner, g.BadgeName, g.BadgeSymbol, g.Rules, lg),
		Engine: sale.New(g.EngineAddress, g.Owner, g.Rules, lg),
	}

	if g.BaseURI != "" {
		if err := dep.Badge.SetBaseURI(owner, g.BaseURI); err != nil {
			return nil, err
		}
	}

	// trust handshake: each side registers the other's address
	if err := dep.Badge.SetSaleEngine(owner, g.EngineAddress); err != nil {
		return nil, err
	}
	if err := dep.Engine.SetBadgeContract(owner, g.BadgeAddress, dep.Badge); err != nil {
		return nil, err
	}

	if g.TokenSupply != nil && g.TokenSupply.Sign() > 0 {
		dep.Token = erc20.New(g.TokenName, g.TokenSymbol, g.Owner, g.TokenSupply, lg)
		for _, alloc := range g.Allocations {
			if err := dep.Token.Transfer(owner, alloc.Holder, alloc.Amount); err != nil {
				return nil, fmt.Errorf("genesis allocation to %s: %w", alloc.Holder.Hex(), err)
			}
		}
		if err := dep.Engine.SetPaymentToken(owner, g.TokenAddress, dep.Token); err != nil {
			return nil, err
		}
	}

	for i, spec := range g.SaleEvents {
		kind, err := inter.SaleKindByName(spec.Kind)
		if err != nil {
			return nil, fmt.Errorf("genesis sale event %d: %w", i, err)
		}
		price := spec.UnitPrice
		if price == nil {
			price = new(big.Int)
		}
		id, err := dep.Engine.CreateSaleEvent(owner, kind, spec.MaxTotal, spec.MaxPerWallet, price)
		if err != nil {
			return nil, fmt.Errorf("genesis sale event %d: %w", i, err)
		}
		if spec.Activate {
			if err := dep.Engine.Activate(owner, id); err != nil {
				return nil, err
			}
		}
	}

	for _, grant := range g.Whitelist {
		if err := dep.Engine.AddWhitelist(owner, grant.Addr, grant.Sale, grant.Count); err != nil {
			return nil, err
		}
	}
	if g.MerkleRoot != (common.Hash{}) {
		if err := dep.Engine.SetMerkleRoot(owner, g.MerkleRoot); err != nil {
			return nil, err
		}
	}
	if g.SaleActive {
		if err := dep.Engine.SetSaleActive(owner, true); err != nil {
			return nil, err
		}
	}

	lg.WithFields(logrus.Fields{
		"network": g.Rules.Name,
		"owner":   g.Owner.Hex(),
		"events":  len(g.SaleEvents),
	}).Info("genesis applied")
	return dep, nil
}

// FakeNetGenesis returns a deterministic single-owner deployment for tests
// and local development: one open native-priced event, one token-priced
// event, and a funded payment token.
func FakeNetGenesis() *Genesis {
	owner := common.HexToAddress("0x239fa7623354ec26520de878b52f13fe84b06971")
	return &Genesis{
		Rules:         opera.FakeNetRules(),
		Owner:         owner,
		BadgeAddress:  common.HexToAddress("0xfc00face00000000000000000000000000000001"),
		EngineAddress: common.HexToAddress("0xfc00face00000000000000000000000000000002"),
		TokenAddress:  common.HexToAddress("0xfc00face00000000000000000000000000000003"),
		BadgeName:     "Opera Badge",
		BadgeSymbol:   "OBADGE",
		BaseURI:       "https://badges.fakenet.local/meta/",
		TokenName:     "Fakenet USD",
		TokenSymbol:   "FUSD",
		TokenSupply:   new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(1e18)),
		SaleEvents: []SaleEventSpec{
			{Kind: "plain-native", MaxTotal: 1000, MaxPerWallet: 5, UnitPrice: big.NewInt(1e18), Activate: true},
			{Kind: "plain-token", MaxTotal: 500, MaxPerWallet: 2, UnitPrice: big.NewInt(5e18), Activate: true},
		},
		SaleActive: true,
	}
}
