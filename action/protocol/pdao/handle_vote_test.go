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
	"github.com/iotexproject/pdao-governance/test/identityset"
)

func (n *testNetwork) voteAction(id uint64, node int, direction action.VoteDirection) *action.Vote {
	leaf, witness, err := votetree.GenerateVoteProof(n.leaves(), uint64(node))
	n.require.NoError(err)
	return action.NewVote(id, direction, leaf.Sum, uint64(node), witness)
}

func TestVote(t *testing.T) {
	require := require.New(t)
	n := newTestNetwork(t, testConfig(), _testPowers, _testDelegates)
	id := n.propose(0, nil, n.pollard(1))

	_, err := n.run(0, n.voteAction(id, 0, action.For))
	require.ErrorIs(err, ErrPhase1NotActive)
	n.advance(time.Hour)
	require.Equal(ActivePhase1, n.state(id))

	_, witness, err := votetree.GenerateVoteProof(n.leaves(), 1)
	require.NoError(err)
	for _, c := range []struct {
		name   string
		caller int
		act    *action.Vote
		err    error
	}{
		{"other node", 1, n.voteAction(id, 0, action.For), ErrInvalidVoter},
		{"unregistered index", 1, action.NewVote(id, action.For, big.NewInt(0), 7, witness), ErrInvalidVoter},
		{"delegated", 3, n.voteAction(id, 3, action.For), ErrVoterDelegated},
		{"power", 1, action.NewVote(id, action.For, big.NewInt(300), 1, witness), ErrInvalidProof},
		{"witness", 1, action.NewVote(id, action.For, big.NewInt(200), 1, witness[:1]), ErrInvalidProof},
		{"no vote", 1, n.voteAction(id, 1, action.NoVote), ErrInvalidVoteDirection},
	} {
		t.Run(c.name, func(t *testing.T) {
			_, err := n.run(c.caller, c.act)
			require.ErrorIs(err, c.err)
		})
	}

	r := n.mustRun(0, n.voteAction(id, 0, action.For))
	require.Equal(_events.Events["VoteCast"].ID, r.Logs[0].Topics[0])
	require.Equal(identityset.Address(0).Bytes(), r.Logs[0].Topics[2].Bytes()[12:])
	_, err = n.run(0, n.voteAction(id, 0, action.Against))
	require.ErrorIs(err, ErrAlreadyVoted)
	n.mustRun(1, n.voteAction(id, 1, action.Against))
	n.mustRun(2, n.voteAction(id, 2, action.Abstain))

	p := n.proposal(id)
	require.Equal("500", p.VotingFor.String())
	require.Equal("200", p.VotingAgainst.String())
	require.Equal("300", p.VotingAbstain.String())
	require.Equal(0, p.VotingVeto.Sign())
	v, err := n.p.VoteOf(n.sf, id, identityset.Address(0))
	require.NoError(err)
	require.Equal(action.For, v.Direction)
	require.Equal(uint8(1), v.Phase)
	require.Equal("500", v.VotingPower.String())
	v, err = n.p.VoteOf(n.sf, id, identityset.Address(3))
	require.NoError(err)
	require.Nil(v)

	_, err = n.run(3, action.NewOverrideVote(id, action.Against))
	require.ErrorIs(err, ErrPhase2NotActive)
}

func TestOverrideVote(t *testing.T) {
	require := require.New(t)
	n := newTestNetwork(t, testConfig(), _testPowers, _testDelegates)
	id := n.propose(0, nil, n.pollard(1))
	n.advance(time.Hour)
	n.mustRun(0, n.voteAction(id, 0, action.For))
	n.advance(time.Hour)
	require.Equal(ActivePhase2, n.state(id))

	_, err := n.run(1, n.voteAction(id, 1, action.For))
	require.ErrorIs(err, ErrPhase1NotActive)
	_, err = n.run(3, action.NewOverrideVote(id, action.For))
	require.ErrorIs(err, ErrSameDirection)
	_, err = n.run(3, action.NewOverrideVote(id, action.NoVote))
	require.ErrorIs(err, ErrInvalidVoteDirection)
	_, err = n.run(4, action.NewOverrideVote(id, action.For))
	require.ErrorIs(err, ErrInvalidVoter)

	total := n.proposal(id).TotalVotes()
	n.mustRun(3, action.NewOverrideVote(id, action.Against))
	p := n.proposal(id)
	require.Equal("100", p.VotingFor.String())
	require.Equal("400", p.VotingAgainst.String())
	// an override moves power, it never adds any
	require.Equal(total.String(), p.TotalVotes().String())

	delegate, err := n.p.VoteOf(n.sf, id, identityset.Address(0))
	require.NoError(err)
	require.Equal("100", delegate.VotingPower.String())
	override, err := n.p.VoteOf(n.sf, id, identityset.Address(3))
	require.NoError(err)
	require.Equal(action.Against, override.Direction)
	require.Equal(uint8(2), override.Phase)

	_, err = n.run(3, action.NewOverrideVote(id, action.Abstain))
	require.ErrorIs(err, ErrAlreadyVoted)
	_, err = n.run(0, action.NewOverrideVote(id, action.Abstain))
	require.ErrorIs(err, ErrAlreadyVoted)

	// nodes that skipped phase 1 vote with their own power
	n.mustRun(1, action.NewOverrideVote(id, action.For))
	p = n.proposal(id)
	require.Equal("300", p.VotingFor.String())
	require.Equal("700", p.TotalVotes().String())

	n.advance(time.Hour)
	require.Equal(Defeated, n.state(id))
	_, err = n.run(2, action.NewOverrideVote(id, action.For))
	require.ErrorIs(err, ErrPhase2NotActive)
}

func TestOverrideVoteBothInPhase2(t *testing.T) {
	for _, c := range []struct {
		name      string
		direction action.VoteDirection
		votingFor string
		against   string
	}{
		{"same direction", action.For, "500", "0"},
		{"opposite direction", action.Against, "100", "400"},
	} {
		t.Run(c.name, func(t *testing.T) {
			require := require.New(t)
			n := newTestNetwork(t, testConfig(), _testPowers, _testDelegates)
			id := n.propose(0, nil, n.pollard(1))
			n.advance(2 * time.Hour)
			require.Equal(ActivePhase2, n.state(id))

			// the delegate skipped phase 1 and votes its own power
			n.mustRun(0, action.NewOverrideVote(id, action.For))
			require.Equal("100", n.proposal(id).VotingFor.String())
			n.mustRun(3, action.NewOverrideVote(id, c.direction))

			p := n.proposal(id)
			require.Equal(c.votingFor, p.VotingFor.String())
			require.Equal(c.against, p.VotingAgainst.String())
			require.Equal("500", p.TotalVotes().String())
			delegate, err := n.p.VoteOf(n.sf, id, identityset.Address(0))
			require.NoError(err)
			require.Equal("100", delegate.VotingPower.String())
			require.Equal(uint8(2), delegate.Phase)
		})
	}
}

func TestVoteDelegatedInPower(t *testing.T) {
	require := require.New(t)
	// node 0 delegates to node 1 and holds the power node 3 delegates to it
	delegates := map[int]int{3: 0, 0: 1}
	n := newTestNetwork(t, testConfig(), _testPowers, delegates)
	require.Equal("400", n.leaves()[0].Sum.String())
	require.Equal("300", n.leaves()[1].Sum.String())
	require.Equal(0, n.leaves()[3].Sum.Sign())
	id := n.propose(1, nil, n.pollard(1))
	n.advance(time.Hour)

	_, err := n.run(3, n.voteAction(id, 3, action.For))
	require.ErrorIs(err, ErrVoterDelegated)
	n.mustRun(0, n.voteAction(id, 0, action.For))
	n.mustRun(1, n.voteAction(id, 1, action.Against))
	p := n.proposal(id)
	require.Equal("400", p.VotingFor.String())
	require.Equal("300", p.VotingAgainst.String())

	n.advance(time.Hour)
	// node 3 takes its power back from node 0
	n.mustRun(3, action.NewOverrideVote(id, action.Abstain))
	p = n.proposal(id)
	require.Equal(0, p.VotingFor.Sign())
	require.Equal("400", p.VotingAbstain.String())
	require.Equal("700", p.TotalVotes().String())
	_, err = n.run(0, action.NewOverrideVote(id, action.Against))
	require.ErrorIs(err, ErrAlreadyVoted)
}

func TestTally(t *testing.T) {
	for _, c := range []struct {
		name  string
		votes map[int]action.VoteDirection
		state ProposalState
	}{
		{"succeeded", map[int]action.VoteDirection{0: action.For, 1: action.For}, Succeeded},
		{"defeated", map[int]action.VoteDirection{0: action.Against, 1: action.For}, Defeated},
		{"tie", map[int]action.VoteDirection{0: action.For, 1: action.Against, 2: action.AgainstWithVeto}, Defeated},
		{"quorum not met", map[int]action.VoteDirection{1: action.For, 2: action.For}, QuorumNotMet},
		{"abstain counts towards quorum", map[int]action.VoteDirection{0: action.Abstain, 1: action.For}, Succeeded},
		{"vetoed", map[int]action.VoteDirection{0: action.AgainstWithVeto, 1: action.AgainstWithVeto, 2: action.For}, Vetoed},
	} {
		t.Run(c.name, func(t *testing.T) {
			require := require.New(t)
			n := newTestNetwork(t, testConfig(), _testPowers, _testDelegates)
			id := n.propose(0, nil, n.pollard(1))
			n.advance(time.Hour)
			for node, dir := range c.votes {
				n.mustRun(node, n.voteAction(id, node, dir))
			}
			n.advance(2 * time.Hour)
			require.Equal(c.state, n.state(id))
		})
	}
}
