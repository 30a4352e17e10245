// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package votetree builds the delegated voting power trees a protocol DAO proposal commits to, and the
// pollards and proofs exchanged while a proposal is disputed.
package votetree

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Node is a node of a voting power tree
type Node struct {
	Sum  *big.Int
	Hash common.Hash
}

// NewLeaf creates a leaf carrying the given voting power
func NewLeaf(sum *big.Int) Node {
	s := new(big.Int)
	if sum != nil {
		s.Set(sum)
	}
	return Node{
		Sum:  s,
		Hash: LeafHash(s),
	}
}

// ZeroLeaf returns the leaf padding a tree to a power of two
func ZeroLeaf() Node {
	return NewLeaf(big.NewInt(0))
}

// LeafHash is keccak256 of the 32-byte big endian sum
func LeafHash(sum *big.Int) common.Hash {
	b := sum32(sum)
	return crypto.Keccak256Hash(b[:])
}

// Combine computes the parent of two sibling nodes
func Combine(left, right Node) Node {
	l, r := sum32(left.Sum), sum32(right.Sum)
	return Node{
		Sum:  new(big.Int).Add(left.sum(), right.sum()),
		Hash: crypto.Keccak256Hash(left.Hash[:], l[:], right.Hash[:], r[:]),
	}
}

// Valid reports whether the sum is a non-negative 256-bit integer
func (n Node) Valid() bool {
	return n.Sum != nil && n.Sum.Sign() >= 0 && n.Sum.BitLen() <= 256
}

// Equal compares both sum and hash
func (n Node) Equal(o Node) bool {
	return n.sum().Cmp(o.sum()) == 0 && n.Hash == o.Hash
}

// Clone returns a deep copy of the node
func (n Node) Clone() Node {
	return Node{
		Sum:  new(big.Int).Set(n.sum()),
		Hash: n.Hash,
	}
}

func (n Node) sum() *big.Int {
	if n.Sum == nil {
		return big.NewInt(0)
	}
	return n.Sum
}

// CloneNodes deep copies a slice of nodes
func CloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	clone := make([]Node, len(nodes))
	for i := range nodes {
		clone[i] = nodes[i].Clone()
	}
	return clone
}

func sum32(sum *big.Int) [32]byte {
	if sum == nil {
		return [32]byte{}
	}
	// callers validate the range, out of range sums are truncated
	v, _ := uint256.FromBig(sum)
	return v.Bytes32()
}
