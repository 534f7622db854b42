package sale

import (
	"bytes"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/go-opera-badge/inter"
)

// CounterEntry is one flattened (address, sale, count) triple of the
// purchase or whitelist counters.
type CounterEntry struct {
	Addr  common.Address
	Sale  inter.SaleID
	Count uint64
}

// State is the engine's full persistable state in a deterministic shape:
// the counter maps are flattened into entry lists sorted by address bytes
// then sale id, so equal engines always export equal states.
//
// Trust links are persisted as addresses only. The capability references
// (issuer, payment token) live in the host's object graph and must be
// re-linked after a restore via SetBadgeContract / SetPaymentToken.
type State struct {
	Owner      common.Address
	SaleActive bool
	BotBlock   bool
	MerkleRoot common.Hash

	CollectedNative *big.Int
	IssuerAddr      common.Address
	PayAddr         common.Address

	Catalog   []inter.SaleEvent
	Active    []inter.SaleID
	Purchased []CounterEntry
	Whitelist []CounterEntry
}

// ExportState snapshots the engine into a deterministic State value. The
// returned value shares nothing with the engine.
func (e *Engine) ExportState() State {
	st := State{
		Owner:           e.owner,
		SaleActive:      e.saleActive,
		BotBlock:        e.botBlock,
		MerkleRoot:      e.merkleRoot,
		CollectedNative: new(big.Int).Set(e.collectedNative),
		IssuerAddr:      e.issuerAddr,
		PayAddr:         e.payAddr,
		Catalog:         make([]inter.SaleEvent, 0, len(e.catalog)),
		Active:          e.ActiveSet(),
		Purchased:       flattenCounters(e.purchased),
		Whitelist:       flattenCounters(e.whitelist),
	}
	for _, ev := range e.catalog {
		st.Catalog = append(st.Catalog, ev.Copy())
	}
	return st
}

// RestoreState overwrites the engine's state from a snapshot. The engine
// keeps its address and deployment rules; trust-link capability references
// are cleared and must be re-linked by the caller.
func (e *Engine) RestoreState(st State) {
	e.owner = st.Owner
	e.saleActive = st.SaleActive
	e.botBlock = st.BotBlock
	e.merkleRoot = st.MerkleRoot
	e.collectedNative = new(big.Int).Set(st.CollectedNative)
	e.issuerAddr = st.IssuerAddr
	e.payAddr = st.PayAddr
	e.issuer = nil
	e.payToken = nil

	e.catalog = make([]inter.SaleEvent, 0, len(st.Catalog))
	for _, ev := range st.Catalog {
		e.catalog = append(e.catalog, ev.Copy())
	}
	e.active = make([]inter.SaleID, len(st.Active))
	copy(e.active, st.Active)

	e.purchased = unflattenCounters(st.Purchased)
	e.whitelist = unflattenCounters(st.Whitelist)

	e.log.WithField("catalog", len(e.catalog)).Info("state restored")
}

func flattenCounters(m map[common.Address]map[inter.SaleID]uint64) []CounterEntry {
	entries := make([]CounterEntry, 0, len(m))
	for addr, counters := range m {
		for id, count := range counters {
			if count == 0 {
				continue
			}
			entries = append(entries, CounterEntry{Addr: addr, Sale: id, Count: count})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if c := bytes.Compare(entries[i].Addr[:], entries[j].Addr[:]); c != 0 {
			return c < 0
		}
		return entries[i].Sale < entries[j].Sale
	})
	return entries
}

func unflattenCounters(entries []CounterEntry) map[common.Address]map[inter.SaleID]uint64 {
	m := make(map[common.Address]map[inter.SaleID]uint64)
	for _, entry := range entries {
		counters, ok := m[entry.Addr]
		if !ok {
			counters = make(map[inter.SaleID]uint64)
			m[entry.Addr] = counters
		}
		counters[entry.Sale] = entry.Count
	}
	return m
}
