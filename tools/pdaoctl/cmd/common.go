// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/iotexproject/pdao-governance/action/protocol"
	"github.com/iotexproject/pdao-governance/action/protocol/noderegistry"
	"github.com/iotexproject/pdao-governance/action/protocol/staking"
	"github.com/iotexproject/pdao-governance/agent"
	"github.com/iotexproject/pdao-governance/blockchain/genesis"
	"github.com/iotexproject/pdao-governance/config"
	"github.com/iotexproject/pdao-governance/db"
	"github.com/iotexproject/pdao-governance/pkg/log"
	"github.com/iotexproject/pdao-governance/pkg/votetree"
	"github.com/iotexproject/pdao-governance/state/factory"
)

var (
	_configPaths []string
	_genesisPath string
)

type node struct {
	Index uint64 `yaml:"index"`
	Sum   string `yaml:"sum"`
	Hash  string `yaml:"hash"`
}

// BindFlags adds the flags shared by every command
func BindFlags(root *cobra.Command) {
	root.PersistentFlags().StringSliceVarP(&_configPaths, "config", "c", nil, "config files, later ones override earlier ones")
	root.PersistentFlags().StringVarP(&_genesisPath, "genesis", "g", "", "genesis file")
}

func loadConfig() (config.Config, genesis.Genesis, error) {
	cfg, err := config.New(_configPaths)
	if err != nil {
		return config.Config{}, genesis.Genesis{}, err
	}
	if err := log.InitLoggers(cfg.Log, cfg.SubLogs); err != nil {
		return config.Config{}, genesis.Genesis{}, err
	}
	path := _genesisPath
	if path == "" {
		path = cfg.Simulator.GenesisPath
	}
	g, err := genesis.New(path)
	if err != nil {
		return config.Config{}, genesis.Genesis{}, err
	}
	return cfg, g, nil
}

// loadTree bootstraps the genesis in memory and builds its voting power tree
func loadTree(ctx context.Context) (*agent.LocalTree, error) {
	cfg, g, err := loadConfig()
	if err != nil {
		return nil, err
	}
	ledger, nodes := staking.NewLedger(), noderegistry.NewRegistry()
	sf := factory.NewFactory(db.NewMemKVStore(), protocol.NewRegistry())
	if err := sf.Start(ctx); err != nil {
		return nil, err
	}
	defer sf.Stop(ctx)
	b := genesis.NewBootstrapper(ledger, nodes)
	if err := sf.Apply(func(sm protocol.StateManager) error {
		return b.Bootstrap(sm, g)
	}); err != nil {
		return nil, err
	}
	builder := agent.NewTreeBuilder(nodes, cfg.Agent.Workers)
	defer builder.Stop()
	return agent.BuildLocalTree(ctx, builder, sf, 1, cfg.Governance.DepthPerRound)
}

func toNodes(first uint64, nodes []votetree.Node) []node {
	out := make([]node, len(nodes))
	for i, n := range nodes {
		out[i] = node{
			Index: first + uint64(i),
			Sum:   n.Sum.String(),
			Hash:  n.Hash.Hex(),
		}
	}
	return out
}

func printYAML(w io.Writer, v interface{}) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, string(out))
	return err
}
