// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package pdao

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/iotexproject/go-pkgs/hash"
	"github.com/pkg/errors"

	"github.com/iotexproject/pdao-governance/action"
	"github.com/iotexproject/pdao-governance/action/protocol"
	"github.com/iotexproject/pdao-governance/pkg/util/byteutil"
	"github.com/iotexproject/pdao-governance/pkg/votetree"
	"github.com/iotexproject/pdao-governance/state"
)

const (
	// _pdaoNameSpace is the bucket name for governance state
	_pdaoNameSpace = "pdao"
)

var (
	_proposalKey      = []byte("proposal")
	_proposalCountKey = []byte("proposal.count")
	_challengeKey     = []byte("challenge")
	_voteKey          = []byte("vote")
	_settingKey       = []byte("setting")
	_securityKey      = []byte("security")
)

// ChallengeState is the state of a tree index of a proposal
type ChallengeState uint8

// challenge states
const (
	Unchallenged ChallengeState = iota
	Challenged
	Responded
	Paid
)

func (s ChallengeState) String() string {
	switch s {
	case Unchallenged:
		return "Unchallenged"
	case Challenged:
		return "Challenged"
	case Responded:
		return "Responded"
	case Paid:
		return "Paid"
	default:
		return "Unknown"
	}
}

type (
	// Challenge is the dispute record of a tree index. Index 1 holds the root committed by the proposer.
	Challenge struct {
		Challenger  common.Address
		CreatedTime uint64
		State       ChallengeState
		// Sum and Hash are the committed node, replaced by the node computed from the answering pollard
		Sum  *big.Int
		Hash common.Hash
	}

	// VoteRecord is the vote of a node on a proposal
	VoteRecord struct {
		Direction   action.VoteDirection
		Phase       uint8
		VotingPower *big.Int
	}

	// SecurityInvite is a security council invitation passed by a proposal
	SecurityInvite struct {
		ID     string
		Member common.Address
	}

	// GovernanceStore reads and writes governance records under typed keys
	GovernanceStore struct {
		keyPrefix []byte
	}

	proposalCount struct {
		Count uint64
	}

	uintSetting struct {
		Value *big.Int
	}

	boolSetting struct {
		Value bool
	}
)

// Node returns the node the record commits to
func (c *Challenge) Node() votetree.Node {
	sum := c.Sum
	if sum == nil {
		sum = new(big.Int)
	}
	return votetree.Node{Sum: new(big.Int).Set(sum), Hash: c.Hash}
}

// SetNode records node
func (c *Challenge) SetNode(n votetree.Node) {
	c.Sum = new(big.Int).Set(n.Sum)
	c.Hash = n.Hash
}

// NewGovernanceStore creates a governance store
func NewGovernanceStore() *GovernanceStore {
	h := hash.Hash160b([]byte(_protocolID))
	return &GovernanceStore{keyPrefix: h[:]}
}

// ProposalCount returns the number of proposals created
func (g *GovernanceStore) ProposalCount(sr protocol.StateReader) (uint64, error) {
	c := proposalCount{}
	if err := g.get(sr, &c, _proposalCountKey); err != nil && errors.Cause(err) != state.ErrStateNotExist {
		return 0, err
	}
	return c.Count, nil
}

// NextProposalID increments the proposal count and returns the new id
func (g *GovernanceStore) NextProposalID(sm protocol.StateManager) (uint64, error) {
	c, err := g.ProposalCount(sm)
	if err != nil {
		return 0, err
	}
	c++
	return c, g.put(sm, &proposalCount{Count: c}, _proposalCountKey)
}

// Proposal loads a proposal
func (g *GovernanceStore) Proposal(sr protocol.StateReader, id uint64) (*Proposal, error) {
	p := Proposal{}
	if err := g.get(sr, &p, byteutil.JoinKey(_proposalKey, id)); err != nil {
		if errors.Cause(err) == state.ErrStateNotExist {
			return nil, errors.Wrapf(ErrProposalNotExist, "proposal %d", id)
		}
		return nil, err
	}
	p.normalize()
	return &p, nil
}

// PutProposal stores a proposal
func (g *GovernanceStore) PutProposal(sm protocol.StateManager, p *Proposal) error {
	return g.put(sm, p, byteutil.JoinKey(_proposalKey, p.ID))
}

// Challenge loads the record of index, an Unchallenged record if there is none
func (g *GovernanceStore) Challenge(sr protocol.StateReader, id, index uint64) (*Challenge, error) {
	c := Challenge{}
	if err := g.get(sr, &c, byteutil.JoinKey(_challengeKey, id, index)); err != nil {
		if errors.Cause(err) == state.ErrStateNotExist {
			return &Challenge{State: Unchallenged, Sum: new(big.Int)}, nil
		}
		return nil, err
	}
	return &c, nil
}

// PutChallenge stores the record of index
func (g *GovernanceStore) PutChallenge(sm protocol.StateManager, id, index uint64, c *Challenge) error {
	return g.put(sm, c, byteutil.JoinKey(_challengeKey, id, index))
}

// Vote loads the vote of voter, nil if voter did not vote
func (g *GovernanceStore) Vote(sr protocol.StateReader, id uint64, voter common.Address) (*VoteRecord, error) {
	v := VoteRecord{}
	if err := g.get(sr, &v, append(byteutil.JoinKey(_voteKey, id), voter.Bytes()...)); err != nil {
		if errors.Cause(err) == state.ErrStateNotExist {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

// PutVote stores the vote of voter
func (g *GovernanceStore) PutVote(sm protocol.StateManager, id uint64, voter common.Address, v *VoteRecord) error {
	return g.put(sm, v, append(byteutil.JoinKey(_voteKey, id), voter.Bytes()...))
}

// SettingUint loads a uint setting
func (g *GovernanceStore) SettingUint(sr protocol.StateReader, path string) (*big.Int, bool, error) {
	s := uintSetting{}
	if err := g.get(sr, &s, append(append([]byte{}, _settingKey...), path...)); err != nil {
		if errors.Cause(err) == state.ErrStateNotExist {
			return nil, false, nil
		}
		return nil, false, err
	}
	return s.Value, true, nil
}

// PutSettingUint stores a uint setting
func (g *GovernanceStore) PutSettingUint(sm protocol.StateManager, path string, v *big.Int) error {
	return g.put(sm, &uintSetting{Value: v}, append(append([]byte{}, _settingKey...), path...))
}

// SettingBool loads a bool setting
func (g *GovernanceStore) SettingBool(sr protocol.StateReader, path string) (bool, bool, error) {
	s := boolSetting{}
	if err := g.get(sr, &s, append(append([]byte{}, _settingKey...), path...)); err != nil {
		if errors.Cause(err) == state.ErrStateNotExist {
			return false, false, nil
		}
		return false, false, err
	}
	return s.Value, true, nil
}

// PutSettingBool stores a bool setting
func (g *GovernanceStore) PutSettingBool(sm protocol.StateManager, path string, v bool) error {
	return g.put(sm, &boolSetting{Value: v}, append(append([]byte{}, _settingKey...), path...))
}

// SecurityInvite loads the security council invitation of member
func (g *GovernanceStore) SecurityInvite(sr protocol.StateReader, member common.Address) (*SecurityInvite, error) {
	s := SecurityInvite{}
	if err := g.get(sr, &s, append(append([]byte{}, _securityKey...), member.Bytes()...)); err != nil {
		if errors.Cause(err) == state.ErrStateNotExist {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// PutSecurityInvite stores a security council invitation
func (g *GovernanceStore) PutSecurityInvite(sm protocol.StateManager, s *SecurityInvite) error {
	return g.put(sm, s, append(append([]byte{}, _securityKey...), s.Member.Bytes()...))
}

// DelSecurityInvite removes the invitation of member
func (g *GovernanceStore) DelSecurityInvite(sm protocol.StateManager, member common.Address) error {
	_, err := sm.DelState(protocol.NamespaceOption(_pdaoNameSpace), protocol.KeyOption(g.key(append(append([]byte{}, _securityKey...), member.Bytes()...))))
	return err
}

func (g *GovernanceStore) get(sr protocol.StateReader, s interface{}, key []byte) error {
	_, err := sr.State(s, protocol.NamespaceOption(_pdaoNameSpace), protocol.KeyOption(g.key(key)))
	return err
}

func (g *GovernanceStore) put(sm protocol.StateManager, s interface{}, key []byte) error {
	_, err := sm.PutState(s, protocol.NamespaceOption(_pdaoNameSpace), protocol.KeyOption(g.key(key)))
	return err
}

func (g *GovernanceStore) key(key []byte) []byte {
	h := hash.Hash160b(append(g.keyPrefix, key...))
	return h[:]
}
