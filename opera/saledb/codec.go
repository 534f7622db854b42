package saledb

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/go-opera-badge/inter"
	"github.com/rony4d/go-opera-badge/opera/contracts/sale"
	"github.com/rony4d/go-opera-badge/utils/cser"
)

// maxItems bounds decoded list lengths so corrupt length prefixes cannot
// trigger huge allocations.
const maxItems = 1 << 20

func checkLen(n uint64) int {
	if n > maxItems {
		panic(cser.ErrTooLargeAlloc)
	}
	return int(n)
}

func writeState(w *cser.Writer, st *sale.State) {
	w.FixedBytes(st.Owner.Bytes())
	w.Bool(st.SaleActive)
	w.Bool(st.BotBlock)
	w.FixedBytes(st.MerkleRoot.Bytes())
	w.BigInt(st.CollectedNative)
	w.FixedBytes(st.IssuerAddr.Bytes())
	w.FixedBytes(st.PayAddr.Bytes())

	w.U64(uint64(len(st.Catalog)))
	for i := range st.Catalog {
		writeSaleEvent(w, &st.Catalog[i])
	}

	w.U64(uint64(len(st.Active)))
	for _, id := range st.Active {
		w.U32(uint32(id))
	}

	writeCounters(w, st.Purchased)
	writeCounters(w, st.Whitelist)
}

func readState(r *cser.Reader, st *sale.State) {
	r.FixedBytes(st.Owner[:])
	st.SaleActive = r.Bool()
	st.BotBlock = r.Bool()
	r.FixedBytes(st.MerkleRoot[:])
	st.CollectedNative = r.BigInt()
	r.FixedBytes(st.IssuerAddr[:])
	r.FixedBytes(st.PayAddr[:])

	st.Catalog = make([]inter.SaleEvent, checkLen(r.U64()))
	for i := range st.Catalog {
		readSaleEvent(r, &st.Catalog[i])
	}

	st.Active = make([]inter.SaleID, checkLen(r.U64()))
	for i := range st.Active {
		st.Active[i] = inter.SaleID(r.U32())
	}

	st.Purchased = readCounters(r)
	st.Whitelist = readCounters(r)
}

func writeSaleEvent(w *cser.Writer, ev *inter.SaleEvent) {
	w.U8(uint8(ev.Kind))
	w.U64(ev.MaxTotalUnits)
	w.U64(ev.MaxUnitsPerWallet)
	w.BigInt(ev.UnitPrice)
	w.U64(ev.CurrentTotalUnits)
}

func readSaleEvent(r *cser.Reader, ev *inter.SaleEvent) {
	ev.Kind = inter.SaleKind(r.U8())
	ev.MaxTotalUnits = r.U64()
	ev.MaxUnitsPerWallet = r.U64()
	ev.UnitPrice = r.BigInt()
	ev.CurrentTotalUnits = r.U64()
}

func writeCounters(w *cser.Writer, entries []sale.CounterEntry) {
	w.U64(uint64(len(entries)))
	for _, entry := range entries {
		w.FixedBytes(entry.Addr.Bytes())
		w.U32(uint32(entry.Sale))
		w.U64(entry.Count)
	}
}

func readCounters(r *cser.Reader) []sale.CounterEntry {
	entries := make([]sale.CounterEntry, checkLen(r.U64()))
	for i := range entries {
		var addr common.Address
		r.FixedBytes(addr[:])
		entries[i] = sale.CounterEntry{
			Addr:  addr,
			Sale:  inter.SaleID(r.U32()),
			Count: r.U64(),
		}
	}
	return entries
}
