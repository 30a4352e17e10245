// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package genesis describes the node set a governance chain starts from: registered nodes with their voting
// power, stake and delegation, and accounts staked without running a node.
package genesis

import (
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/iotexproject/go-pkgs/hash"
	"github.com/pkg/errors"
	"go.uber.org/config"
	"go.uber.org/zap"

	"github.com/iotexproject/pdao-governance/action/protocol"
	"github.com/iotexproject/pdao-governance/action/protocol/noderegistry"
	"github.com/iotexproject/pdao-governance/action/protocol/staking"
	"github.com/iotexproject/pdao-governance/pkg/log"
)

// Default contains the default genesis config
var Default = Genesis{
	InitStakeMap: make(map[string]string),
}

type (
	// Genesis is the root level of genesis config
	Genesis struct {
		Nodes []Node `yaml:"nodes"`
		// InitStakeMap stakes accounts that do not run a node, keyed by hex address
		InitStakeMap map[string]string `yaml:"initStakes"`
	}
	// Node is a node registered at genesis, in registration order
	Node struct {
		Address     string `yaml:"address"`
		VotingPower string `yaml:"votingPower"`
		Stake       string `yaml:"stake"`
		// Delegate is the address of the node voting for this one, empty for itself
		Delegate     string `yaml:"delegate"`
		AllowLocking bool   `yaml:"allowLocking"`
	}

	// Bootstrapper writes the genesis state
	Bootstrapper struct {
		ledger   *staking.Ledger
		registry *noderegistry.Registry
	}
)

// New constructs a genesis config. It loads the default values, and could be overwritten by values defined in the
// yaml config files
func New(genesisPath string) (Genesis, error) {
	opts := make([]config.YAMLOption, 0)
	opts = append(opts, config.Static(Default))
	if genesisPath != "" {
		opts = append(opts, config.File(genesisPath))
	}
	yaml, err := config.NewYAML(opts...)
	if err != nil {
		return Genesis{}, errors.Wrap(err, "error when constructing a genesis in yaml")
	}

	var genesis Genesis
	if err := yaml.Get(config.Root).Populate(&genesis); err != nil {
		return Genesis{}, errors.Wrap(err, "failed to unmarshal yaml genesis to struct")
	}
	if err := genesis.Validate(); err != nil {
		return Genesis{}, err
	}
	return genesis, nil
}

// Validate checks addresses, amounts and delegations
func (g *Genesis) Validate() error {
	seen := make(map[common.Address]struct{}, len(g.Nodes))
	for i, n := range g.Nodes {
		addr, err := parseAddress(n.Address)
		if err != nil {
			return errors.Wrapf(err, "node %d", i)
		}
		if _, ok := seen[addr]; ok {
			return errors.Errorf("node %s is listed twice", n.Address)
		}
		seen[addr] = struct{}{}
		if _, err := parseAmount(n.VotingPower); err != nil {
			return errors.Wrapf(err, "voting power of node %d", i)
		}
		if _, err := parseAmount(n.Stake); err != nil {
			return errors.Wrapf(err, "stake of node %d", i)
		}
	}
	for i, n := range g.Nodes {
		if n.Delegate == "" {
			continue
		}
		d, err := parseAddress(n.Delegate)
		if err != nil {
			return errors.Wrapf(err, "delegate of node %d", i)
		}
		if _, ok := seen[d]; !ok {
			return errors.Errorf("node %d delegates to unregistered %s", i, n.Delegate)
		}
	}
	for addr, amount := range g.InitStakeMap {
		if _, err := parseAddress(addr); err != nil {
			return err
		}
		if _, err := parseAmount(amount); err != nil {
			return errors.Wrapf(err, "stake of %s", addr)
		}
	}
	return nil
}

// NodeAddresses returns the node addresses in registration order
func (g *Genesis) NodeAddresses() []common.Address {
	addrs := make([]common.Address, len(g.Nodes))
	for i, n := range g.Nodes {
		addrs[i] = common.HexToAddress(n.Address)
	}
	return addrs
}

// VotingPowers returns the node voting powers in registration order
func (g *Genesis) VotingPowers() []*big.Int {
	powers := make([]*big.Int, len(g.Nodes))
	for i, n := range g.Nodes {
		powers[i], _ = parseAmount(n.VotingPower)
	}
	return powers
}

// InitStakes returns the stakes of accounts without a node, ordered by address
func (g *Genesis) InitStakes() ([]common.Address, []*big.Int, error) {
	keys := make([]string, 0, len(g.InitStakeMap))
	for k := range g.InitStakeMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	addrs := make([]common.Address, len(keys))
	amounts := make([]*big.Int, len(keys))
	for i, k := range keys {
		v, err := parseAmount(g.InitStakeMap[k])
		if err != nil {
			return nil, nil, errors.Wrapf(err, "init stake of %s", k)
		}
		addrs[i] = common.HexToAddress(k)
		amounts[i] = v
	}
	return addrs, amounts, nil
}

// Hash is the hash of the genesis content
func (g *Genesis) Hash() hash.Hash256 {
	addrs, amounts, err := g.InitStakes()
	if err != nil {
		log.L().Panic("Invalid genesis init stakes.", zap.Error(err))
	}
	b, err := rlp.EncodeToBytes([]interface{}{g.Nodes, addrs, amounts})
	if err != nil {
		log.L().Panic("Failed to encode genesis.", zap.Error(err))
	}
	return hash.Hash256b(b)
}

// NewBootstrapper creates a bootstrapper writing to ledger and registry
func NewBootstrapper(ledger *staking.Ledger, registry *noderegistry.Registry) *Bootstrapper {
	return &Bootstrapper{ledger: ledger, registry: registry}
}

// Bootstrap registers the genesis nodes, then applies delegations and stakes
func (b *Bootstrapper) Bootstrap(sm protocol.StateManager, g Genesis) error {
	if err := g.Validate(); err != nil {
		return err
	}
	powers := g.VotingPowers()
	for i, addr := range g.NodeAddresses() {
		if _, err := b.registry.Register(sm, addr); err != nil {
			return errors.Wrapf(err, "failed to register node %s", addr.Hex())
		}
		if err := b.registry.SetVotingPower(sm, addr, powers[i]); err != nil {
			return err
		}
		if err := b.stake(sm, addr, g.Nodes[i].Stake, g.Nodes[i].AllowLocking); err != nil {
			return err
		}
	}
	for _, n := range g.Nodes {
		if n.Delegate == "" {
			continue
		}
		if err := b.registry.SetDelegate(sm, common.HexToAddress(n.Address), common.HexToAddress(n.Delegate)); err != nil {
			return err
		}
	}
	addrs, amounts, err := g.InitStakes()
	if err != nil {
		return err
	}
	for i, addr := range addrs {
		if err := b.ledger.Stake(sm, addr, amounts[i]); err != nil {
			return err
		}
		if err := b.ledger.SetLockingAllowed(sm, addr, true); err != nil {
			return err
		}
	}
	log.L().Info("Genesis bootstrapped.",
		zap.Int("nodes", len(g.Nodes)),
		zap.Int("stakers", len(addrs)))
	return nil
}

func (b *Bootstrapper) stake(sm protocol.StateManager, addr common.Address, amount string, allowLocking bool) error {
	v, _ := parseAmount(amount)
	if v.Sign() > 0 {
		if err := b.ledger.Stake(sm, addr, v); err != nil {
			return err
		}
	}
	return b.ledger.SetLockingAllowed(sm, addr, allowLocking)
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, errors.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

func parseAmount(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, errors.Errorf("invalid amount %q", s)
	}
	return v, nil
}
