// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package agent holds the off-chain side of the governance game: building the voting power trees from the node
// registry, answering challenges as a proposer and spotting false commitments as a challenger.
package agent

import (
	"context"
	"math/big"
	"runtime"

	"github.com/alitto/pond/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iotexproject/pdao-governance/action/protocol"
	"github.com/iotexproject/pdao-governance/action/protocol/pdao"
	"github.com/iotexproject/pdao-governance/pkg/log"
	"github.com/iotexproject/pdao-governance/pkg/votetree"
)

type (
	// TreeBuilder computes the leaves of voting power trees from the node registry
	TreeBuilder struct {
		registry pdao.NodeRegistry
		pool     pond.Pool
	}

	// nodeSet is the registry as seen at a block
	nodeSet struct {
		power    []*big.Int
		delegate []uint64
	}
)

// NewTreeBuilder creates a tree builder computing phase 2 leaves with the given number of workers
func NewTreeBuilder(registry pdao.NodeRegistry, workers int) *TreeBuilder {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &TreeBuilder{
		registry: registry,
		pool:     pond.NewPool(workers),
	}
}

// Stop waits for running work and releases the workers
func (b *TreeBuilder) Stop() {
	b.pool.StopAndWait()
}

// ConstructTreeLeaves returns one leaf per registered node carrying the power delegated to it at block
func (b *TreeBuilder) ConstructTreeLeaves(ctx context.Context, sr protocol.StateReader, block uint64) ([]votetree.Node, error) {
	nodes, err := b.nodeSet(ctx, sr, block)
	if err != nil {
		return nil, err
	}
	return nodes.phase1Leaves(), nil
}

// Phase2Leaves returns the leaves of the sub-tree of nodeIndex, the power each node delegates to it at block
func (b *TreeBuilder) Phase2Leaves(ctx context.Context, sr protocol.StateReader, block uint64, nodeIndex uint64) ([]votetree.Node, error) {
	nodes, err := b.nodeSet(ctx, sr, block)
	if err != nil {
		return nil, err
	}
	if nodeIndex >= uint64(len(nodes.power)) {
		return nil, errors.Wrapf(votetree.ErrInvalidIndex, "node index %d of %d", nodeIndex, len(nodes.power))
	}
	return nodes.phase2Leaves(nodeIndex), nil
}

// AllPhase2Leaves returns the sub-tree leaves of every node, computed in parallel
func (b *TreeBuilder) AllPhase2Leaves(ctx context.Context, sr protocol.StateReader, block uint64) ([][]votetree.Node, error) {
	nodes, err := b.nodeSet(ctx, sr, block)
	if err != nil {
		return nil, err
	}
	all := make([][]votetree.Node, len(nodes.power))
	group := b.pool.NewGroupContext(ctx)
	groupCtx := group.Context()
	for i := range all {
		i := i
		group.Submit(func() {
			if err := groupCtx.Err(); err != nil {
				return
			}
			all[i] = nodes.phase2Leaves(uint64(i))
		})
	}
	waitErr := group.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if waitErr != nil {
		return nil, errors.Wrap(waitErr, "failed to compute phase 2 leaves")
	}
	log.L().Debug("Computed phase 2 leaves.", zap.Uint64("block", block), zap.Int("nodes", len(all)))
	return all, nil
}

func (b *TreeBuilder) nodeSet(ctx context.Context, sr protocol.StateReader, block uint64) (*nodeSet, error) {
	count, err := b.registry.NodeCount(sr, block)
	if err != nil {
		return nil, err
	}
	var (
		addrs = make([]common.Address, count)
		index = make(map[common.Address]uint64, count)
		set   = &nodeSet{
			power:    make([]*big.Int, count),
			delegate: make([]uint64, count),
		}
	)
	for i := uint64(0); i < count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		addr, err := b.registry.NodeAt(sr, i)
		if err != nil {
			return nil, errors.Wrapf(votetree.ErrInvalidNodeCount, "node %d of %d: %v", i, count, err)
		}
		addrs[i] = addr
		index[addr] = i
		if set.power[i], err = b.registry.VotingPower(sr, addr, block); err != nil {
			return nil, err
		}
	}
	for i, addr := range addrs {
		delegate, err := b.registry.Delegate(sr, addr, block)
		if err != nil {
			return nil, err
		}
		d, ok := index[delegate]
		if !ok {
			d = uint64(i)
		}
		set.delegate[i] = d
	}
	return set, nil
}

func (s *nodeSet) phase1Leaves() []votetree.Node {
	delegated := make([]*big.Int, len(s.power))
	for i := range delegated {
		delegated[i] = new(big.Int)
	}
	for j, p := range s.power {
		d := s.delegate[j]
		delegated[d].Add(delegated[d], p)
	}
	return votetree.ConstructTreeLeaves(delegated)
}

func (s *nodeSet) phase2Leaves(node uint64) []votetree.Node {
	power := make([]*big.Int, len(s.power))
	for j, p := range s.power {
		power[j] = new(big.Int)
		if s.delegate[j] == node {
			power[j].Set(p)
		}
	}
	return votetree.ConstructTreeLeaves(power)
}
