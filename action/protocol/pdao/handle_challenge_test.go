// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package pdao

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iotexproject/pdao-governance/action"
	"github.com/iotexproject/pdao-governance/pkg/votetree"
)

// node 3 delegates to node 0, the phase 1 leaves are 500, 200, 300, 0
var (
	_testPowers    = []int64{100, 200, 300, 400}
	_testDelegates = map[int]int{3: 0}
)

func TestChallengeHonestProposer(t *testing.T) {
	require := require.New(t)
	n := newTestNetwork(t, testConfig(), _testPowers, _testDelegates)
	id := n.propose(0, nil, n.pollard(1))

	node2, proof2 := n.challengeProof(2)
	for _, c := range []struct {
		name string
		act  *action.CreateChallenge
		err  error
	}{
		{"root", action.NewCreateChallenge(id, 1, node2, nil), ErrInvalidChallengeDepth},
		{"below leaves", action.NewCreateChallenge(id, 1<<5, node2, nil), ErrInvalidIndexDepth},
		{"not revealed", action.NewCreateChallenge(id, 4, node2, proof2), ErrInvalidChallengeDepth},
		{"proof length", action.NewCreateChallenge(id, 2, node2, nil), ErrInvalidProofLength},
		{"proof", action.NewCreateChallenge(id, 2, votetree.NewLeaf(big.NewInt(1)), proof2), ErrInvalidProof},
		{"proposal", action.NewCreateChallenge(id+1, 2, node2, proof2), ErrProposalNotExist},
	} {
		t.Run(c.name, func(t *testing.T) {
			_, err := n.run(4, c.act)
			require.ErrorIs(err, c.err)
		})
	}

	r := n.mustRun(4, action.NewCreateChallenge(id, 2, node2, proof2))
	require.Equal(_events.Events["ChallengeSubmitted"].ID, r.Logs[0].Topics[0])
	_, err := n.run(5, action.NewCreateChallenge(id, 2, node2, proof2))
	require.ErrorIs(err, ErrAlreadyChallenged)
	node3, proof3 := n.challengeProof(3)
	n.mustRun(5, action.NewCreateChallenge(id, 3, node3, proof3))
	c := n.challenge(id, 2)
	require.Equal(Challenged, c.State)
	require.Equal(uint64(_t0.Unix()), c.CreatedTime)
	require.Equal("10", n.account(4).Locked.String())

	// answering
	honest := n.pollard(2)
	_, err = n.run(1, action.NewSubmitRoot(id, 2, honest))
	require.ErrorIs(err, ErrNotProposer)
	_, err = n.run(0, action.NewSubmitRoot(id, 6, n.pollard(6)))
	require.ErrorIs(err, ErrChallengeNotExist)
	_, err = n.run(0, action.NewSubmitRoot(id, 2, honest[:1]))
	require.ErrorIs(err, ErrInvalidNodeCount)
	_, err = n.run(0, action.NewSubmitRoot(id, 2, []votetree.Node{votetree.NewLeaf(big.NewInt(501)), honest[1]}))
	require.ErrorIs(err, ErrInvalidSum)
	_, err = n.run(0, action.NewSubmitRoot(id, 2, []votetree.Node{honest[1], honest[0]}))
	require.ErrorIs(err, ErrInvalidHash)
	r = n.mustRun(0, action.NewSubmitRoot(id, 2, honest))
	require.Equal(_events.Events["RootSubmitted"].ID, r.Logs[0].Topics[0])
	_, err = n.run(0, action.NewSubmitRoot(id, 2, honest))
	require.ErrorIs(err, ErrChallengeResponded)
	require.Equal(Responded, n.challenge(id, 2).State)

	// down to the phase 2 leaves of node 0
	for _, index := range []uint64{4, 8, 16} {
		node, proof := n.challengeProof(index)
		n.mustRun(4, action.NewCreateChallenge(id, index, node, proof))
		n.mustRun(0, action.NewSubmitRoot(id, index, n.pollard(index)))
		require.Equal(Responded, n.challenge(id, index).State)
	}
	// the sub-root record holds the phase 2 root, not the committed leaf
	sub, err := votetree.NewTree(n.subLeaves(0))
	require.NoError(err)
	require.True(n.challenge(id, 4).Node().Equal(sub.Root()))
	require.Equal("40", n.account(4).Locked.String())

	n.advance(30 * time.Minute)
	_, err = n.run(4, action.NewDefeatProposal(id, 2))
	require.ErrorIs(err, ErrDefeatResponded)
	_, err = n.run(4, action.NewDefeatProposal(id, 5))
	require.ErrorIs(err, ErrChallengeNotExist)

	// bonds stay locked while pending
	_, err = n.run(0, action.NewClaimBondProposer(id, []uint64{1}))
	require.ErrorIs(err, ErrClaimPending)
	_, err = n.run(5, action.NewClaimBondChallenger(id, []uint64{3}))
	require.ErrorIs(err, ErrClaimPending)

	n.advance(time.Hour)
	require.Equal(ActivePhase1, n.state(id))
	_, err = n.run(5, action.NewDefeatProposal(id, 3))
	require.ErrorIs(err, ErrDefeatValid)
	_, err = n.run(5, action.NewCreateChallenge(id, 6, votetree.ZeroLeaf(), nil))
	require.ErrorIs(err, ErrNotPending)
	_, err = n.run(0, action.NewSubmitRoot(id, 3, n.pollard(3)))
	require.ErrorIs(err, ErrSubmitRootNotPending)

	// the unanswered challenge of a surviving proposal is refunded
	_, err = n.run(4, action.NewClaimBondChallenger(id, []uint64{3}))
	require.ErrorIs(err, ErrInvalidChallenger)
	_, err = n.run(4, action.NewClaimBondChallenger(id, []uint64{2}))
	require.ErrorIs(err, ErrInvalidChallengeState)
	n.mustRun(5, action.NewClaimBondChallenger(id, []uint64{3}))
	require.Equal(Paid, n.challenge(id, 3).State)
	require.Equal(0, n.account(5).Locked.Sign())
	require.Equal("1000", n.account(5).Staked.String())

	// the proposer collects the answered challenges
	_, err = n.run(1, action.NewClaimBondProposer(id, []uint64{1}))
	require.ErrorIs(err, ErrNotProposerClaim)
	_, err = n.run(0, action.NewClaimBondProposer(id, []uint64{3}))
	require.ErrorIs(err, ErrInvalidChallengeState)
	r = n.mustRun(0, action.NewClaimBondProposer(id, []uint64{1, 2, 4, 8, 16}))
	require.Equal(_events.Events["BondClaimed"].ID, r.Logs[0].Topics[0])
	require.Equal(0, n.account(0).Locked.Sign())
	require.Equal("1032", n.account(0).Staked.String())
	require.Equal(0, n.account(4).Locked.Sign())
	require.Equal("960", n.account(4).Staked.String())
	burned, err := n.ledger.Burned(n.sf)
	require.NoError(err)
	require.Equal("8", burned.String())

	// claims are paid once
	for _, index := range []uint64{1, 2, 16} {
		_, err = n.run(0, action.NewClaimBondProposer(id, []uint64{index}))
		require.ErrorIs(err, ErrInvalidChallengeState)
		require.Equal(Paid, n.challenge(id, index).State)
	}
	_, err = n.run(4, action.NewClaimBondChallenger(id, []uint64{2}))
	require.ErrorIs(err, ErrInvalidChallengeState)
	n.checkConservation()
}

// The proposer commits to a root pollard that does not add up, no truthful answer exists.
func TestChallengeFalseRoot(t *testing.T) {
	require := require.New(t)
	n := newTestNetwork(t, testConfig(), _testPowers, _testDelegates)
	lie := []votetree.Node{votetree.NewLeaf(big.NewInt(800)), votetree.NewLeaf(big.NewInt(200))}
	id := n.propose(0, nil, lie)
	require.Equal("1000", n.proposal(id).TotalPower.String())

	n.mustRun(4, action.NewCreateChallenge(id, 2, lie[0], lie[1:]))
	_, err := n.run(0, action.NewSubmitRoot(id, 2, n.pollard(2)))
	require.ErrorIs(err, ErrInvalidSum)

	_, err = n.run(6, action.NewDefeatProposal(id, 2))
	require.ErrorIs(err, ErrNotEnoughTime)
	n.advance(30 * time.Minute)
	r := n.mustRun(6, action.NewDefeatProposal(id, 2))
	require.Equal(_events.Events["ProposalDefeated"].ID, r.Logs[0].Topics[0])
	_, err = n.run(6, action.NewDefeatProposal(id, 2))
	require.ErrorIs(err, ErrDefeatNotPending)

	p := n.proposal(id)
	require.Equal(uint64(2), p.DefeatIndex)
	require.Equal(uint64(1), p.DefeatPathChallenges)
	require.Equal(Defeated, n.state(id))
	node3 := lie[1]
	_, err = n.run(5, action.NewCreateChallenge(id, 3, node3, lie[:1]))
	require.ErrorIs(err, ErrNotPending)

	_, err = n.run(0, action.NewClaimBondProposer(id, []uint64{1}))
	require.ErrorIs(err, ErrProposalDefeated)
	_, err = n.run(0, action.NewClaimBondChallenger(id, []uint64{1}))
	require.ErrorIs(err, ErrInvalidChallengeState)
	n.mustRun(4, action.NewClaimBondChallenger(id, []uint64{2}))
	_, err = n.run(4, action.NewClaimBondChallenger(id, []uint64{2}))
	require.ErrorIs(err, ErrInvalidChallengeState)

	require.Equal("900", n.account(0).Staked.String())
	require.Equal(0, n.account(0).Locked.Sign())
	require.Equal("1080", n.account(4).Staked.String())
	require.Equal(0, n.account(4).Locked.Sign())
	n.checkConservation()
}

// The proposer builds a consistent tree ignoring the delegation of node 3, only the phase 2 leaves expose it.
func TestChallengeFalseLeaves(t *testing.T) {
	require := require.New(t)
	n := newTestNetwork(t, testConfig(), _testPowers, _testDelegates)
	fake := &treeView{require: require, powers: _testPowers, dpr: 1}
	id := n.propose(0, nil, fake.pollard(1))

	// each round a different challenger disputes the first index that differs from the truth
	for i, index := range []uint64{2, 4} {
		node, proof := fake.challengeProof(index)
		n.mustRun(4+i, action.NewCreateChallenge(id, index, node, proof))
		n.mustRun(0, action.NewSubmitRoot(id, index, fake.pollard(index)))
	}
	node, proof := fake.challengeProof(9)
	n.mustRun(6, action.NewCreateChallenge(id, 9, node, proof))
	_, err := n.run(0, action.NewSubmitRoot(id, 9, fake.pollard(9)))
	require.ErrorIs(err, ErrInvalidLeaves)
	// the truth does not fit the commitment either
	_, err = n.run(0, action.NewSubmitRoot(id, 9, n.pollard(9)))
	require.ErrorIs(err, ErrInvalidSum)

	n.advance(31 * time.Minute)
	n.mustRun(6, action.NewDefeatProposal(id, 9))
	p := n.proposal(id)
	require.Equal(uint64(3), p.DefeatPathChallenges)

	// 100 / 3 = 33 each, 6 of which is burned
	for i, index := range []uint64{2, 4, 9} {
		n.mustRun(4+i, action.NewClaimBondChallenger(id, []uint64{index}))
		acct := n.account(4 + i)
		require.Equal("1027", acct.Staked.String())
		require.Equal(0, acct.Locked.Sign())
	}
	require.Equal("901", n.account(0).Staked.String())
	require.Equal("1", n.account(0).Locked.String())
	burned, err := n.ledger.Burned(n.sf)
	require.NoError(err)
	require.Equal("18", burned.String())
	n.checkConservation()
}

func TestChallengeNotEnoughStake(t *testing.T) {
	require := require.New(t)
	cfg := testConfig()
	cfg.ChallengeBond = "2000"
	n := newTestNetwork(t, cfg, _testPowers, _testDelegates)
	id := n.propose(0, nil, n.pollard(1))
	node, proof := n.challengeProof(2)
	_, err := n.run(4, action.NewCreateChallenge(id, 2, node, proof))
	require.ErrorIs(err, ErrNotEnoughStake)
	require.Equal(Unchallenged, n.challenge(id, 2).State)
	require.Equal(0, n.account(4).Locked.Sign())
}

func TestOnPath(t *testing.T) {
	require := require.New(t)
	require.True(onPath(9, 9))
	require.True(onPath(9, 4))
	require.True(onPath(9, 2))
	require.True(onPath(9, 1))
	require.False(onPath(9, 5))
	require.False(onPath(9, 3))
	require.False(onPath(4, 9))
}
