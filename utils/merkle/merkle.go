// Package merkle implements sorted-pair keccak256 Merkle inclusion proofs
// over address sets, the scheme used by the anonymous allowlist: the leaf is
// keccak256 of the 20 address bytes, and each parent is keccak256 of its two
// children concatenated in ascending byte order. Sorting the pairs makes the
// proof self-describing — no left/right flags are needed on the wire.
//
// The engine only verifies proofs; tree construction lives here as well so
// tooling and tests can derive roots and proofs from a plain address list.
package merkle

import (
	"bytes"
	"errors"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrEmptyLeafSet = errors.New("empty leaf set: cannot build a tree with no members")
	ErrUnknownLeaf  = errors.New("unknown leaf: address is not a member of the tree")
)

// Leaf returns the leaf hash committing to an address.
func Leaf(addr common.Address) common.Hash {
	return common.BytesToHash(crypto.Keccak256(addr.Bytes()))
}

// hashPair combines two nodes in ascending byte order.
func hashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return common.BytesToHash(crypto.Keccak256(a[:], b[:]))
}

// Verify walks the proof from leaf to root, combining with sorted pairs, and
// reports whether the result equals the expected root.
func Verify(root common.Hash, leaf common.Hash, proof []common.Hash) bool {
	node := leaf
	for _, sibling := range proof {
		node = hashPair(node, sibling)
	}
	return node == root
}

// VerifyAddress is a convenience wrapper hashing the address into its leaf
// before verification.
func VerifyAddress(root common.Hash, addr common.Address, proof []common.Hash) bool {
	return Verify(root, Leaf(addr), proof)
}

// Tree is a fully materialized sorted-pair Merkle tree over an address set.
// Levels[0] holds the (deduplicated, sorted) leaves; the last level holds
// the single root. An odd node at any level is promoted unpaired.
type Tree struct {
	levels [][]common.Hash
	index  map[common.Hash]int // leaf hash -> position in levels[0]
}

// NewTree builds a tree over the given addresses. Duplicates are collapsed
// and leaves are sorted so that equal sets always produce equal roots.
func NewTree(members []common.Address) (*Tree, error) {
	if len(members) == 0 {
		return nil, ErrEmptyLeafSet
	}

	seen := make(map[common.Hash]struct{}, len(members))
	leaves := make([]common.Hash, 0, len(members))
	for _, addr := range members {
		leaf := Leaf(addr)
		if _, ok := seen[leaf]; ok {
			continue
		}
		seen[leaf] = struct{}{}
		leaves = append(leaves, leaf)
	}
	sort.Slice(leaves, func(i, j int) bool {
		return bytes.Compare(leaves[i][:], leaves[j][:]) < 0
	})

	t := &Tree{
		levels: [][]common.Hash{leaves},
		index:  make(map[common.Hash]int, len(leaves)),
	}
	for i, leaf := range leaves {
		t.index[leaf] = i
	}

	for len(t.levels[len(t.levels)-1]) > 1 {
		prev := t.levels[len(t.levels)-1]
		next := make([]common.Hash, 0, (len(prev)+1)/2)
		for i := 0; i < len(prev); i += 2 {
			if i+1 == len(prev) {
				next = append(next, prev[i]) // odd node promoted
				continue
			}
			next = append(next, hashPair(prev[i], prev[i+1]))
		}
		t.levels = append(t.levels, next)
	}
	return t, nil
}

// Root returns the tree's root commitment.
func (t *Tree) Root() common.Hash {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// Proof extracts the sibling path for a member address.
func (t *Tree) Proof(addr common.Address) ([]common.Hash, error) {
	pos, ok := t.index[Leaf(addr)]
	if !ok {
		return nil, ErrUnknownLeaf
	}

	proof := make([]common.Hash, 0, len(t.levels)-1)
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := pos ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		pos /= 2
	}
	return proof, nil
}

// Len returns the number of distinct members committed to by the tree.
func (t *Tree) Len() int {
	return len(t.levels[0])
}
