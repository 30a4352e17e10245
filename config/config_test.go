// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/iotexproject/pdao-governance/db"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestNewDefaultConfig(t *testing.T) {
	cfg, err := New(nil)
	require.NoError(t, err)
	require.Equal(t, Default.Governance, cfg.Governance)
	require.Equal(t, Default.DB, cfg.DB)
	require.Equal(t, Default.Agent, cfg.Agent)
}

func TestNewConfigWithWrongConfigPath(t *testing.T) {
	_, err := New([]string{"wrong_path"})
	require.Error(t, err)
}

func TestNewConfigWithOverride(t *testing.T) {
	require := require.New(t)
	path := writeConfig(t, `
governance:
  voteDelayTime: 2h
  proposalBond: "250"
  depthPerRound: 3
db:
  dbType: boltdb
  dbPath: ${PDAO_TEST_DB_PATH}
agent:
  workers: 8
`)
	t.Setenv("PDAO_TEST_DB_PATH", "/tmp/pdao.db")

	cfg, err := New([]string{path})
	require.NoError(err)
	require.Equal(2*time.Hour, cfg.Governance.VoteDelayTime)
	require.Equal("250", cfg.Governance.ProposalBond)
	require.Equal(uint64(3), cfg.Governance.DepthPerRound)
	// untouched values keep the default
	require.Equal(Default.Governance.ChallengeBond, cfg.Governance.ChallengeBond)
	require.Equal(db.DBBolt, cfg.DB.DBType)
	require.Equal("/tmp/pdao.db", cfg.DB.DbPath)
	require.Equal(8, cfg.Agent.Workers)
}

func TestValidates(t *testing.T) {
	for _, tc := range []struct {
		name     string
		modify   func(*Config)
		validate Validate
	}{
		{"governance", func(c *Config) { c.Governance.ProposalBond = "-1" }, ValidateGovernance},
		{"db type", func(c *Config) { c.DB.DBType = "leveldb" }, ValidateDB},
		{"db path", func(c *Config) { c.DB.DBType = db.DBPebble }, ValidateDB},
		{"workers", func(c *Config) { c.Agent.Workers = -1 }, ValidateAgent},
		{"challengers", func(c *Config) { c.Simulator.Challengers = -1 }, ValidateAgent},
		{"metrics port", func(c *Config) { c.Metrics.Port = 70000 }, ValidateMetrics},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default
			tc.modify(&cfg)
			err := tc.validate(cfg)
			require.Equal(t, ErrInvalidCfg, errors.Cause(err))
			require.NoError(t, DoNotValidate(cfg))
		})
	}

	path := writeConfig(t, "db:\n  dbType: leveldb\n")
	_, err := New([]string{path})
	require.Equal(t, ErrInvalidCfg, errors.Cause(err))
	_, err = New([]string{path}, DoNotValidate)
	require.NoError(t, err)
}
