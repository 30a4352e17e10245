// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/iotexproject/pdao-governance/action"
	"github.com/iotexproject/pdao-governance/test/identityset"
)

func writeTestGenesis(t *testing.T) string {
	var b strings.Builder
	b.WriteString("nodes:\n")
	for i, power := range []string{"100", "200", "300", "400"} {
		b.WriteString("  - address: \"" + identityset.Address(i).Hex() + "\"\n")
		b.WriteString("    votingPower: \"" + power + "\"\n")
		b.WriteString("    stake: \"1000\"\n    allowLocking: true\n")
		if i == 3 {
			b.WriteString("    delegate: \"" + identityset.Address(0).Hex() + "\"\n")
		}
	}
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0600))
	return path
}

func execute(t *testing.T, args ...string) string {
	root := &cobra.Command{Use: "pdaoctl"}
	BindFlags(root)
	root.AddCommand(Tree, Pollard, Proof, Config)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(args)
	require.NoError(t, root.Execute())
	return out.String()
}

func TestTree(t *testing.T) {
	require := require.New(t)
	out := execute(t, "tree", "--genesis", writeTestGenesis(t))

	var res struct {
		Phase1Depth uint64 `yaml:"phase1Depth"`
		Root        node   `yaml:"root"`
		Leaves      []node `yaml:"leaves"`
	}
	require.NoError(yaml.Unmarshal([]byte(out), &res))
	require.Equal(uint64(2), res.Phase1Depth)
	require.Equal("1000", res.Root.Sum)
	require.Len(res.Leaves, 4)
	require.Equal(uint64(4), res.Leaves[0].Index)
	require.Equal("500", res.Leaves[0].Sum)
	require.Equal("0", res.Leaves[3].Sum)
}

func TestPollardAndProof(t *testing.T) {
	require := require.New(t)
	path := writeTestGenesis(t)
	t.Setenv("PDAO_DEPTH", "1")
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(os.WriteFile(cfgPath, []byte("governance:\n  depthPerRound: ${PDAO_DEPTH}\n"), 0600))

	var pollard []node
	require.NoError(yaml.Unmarshal([]byte(execute(t, "pollard", "-g", path, "-c", cfgPath, "-i", "4")), &pollard))
	require.Len(pollard, 2)
	require.Equal(uint64(8), pollard[0].Index)
	require.Equal("100", pollard[0].Sum)
	require.Equal("400", pollard[1].Sum)

	var proof struct {
		Node  node   `yaml:"node"`
		Proof []node `yaml:"proof"`
	}
	require.NoError(yaml.Unmarshal([]byte(execute(t, "proof", "-g", path, "-c", cfgPath, "-i", "5")), &proof))
	require.Equal("200", proof.Node.Sum)
	require.Len(proof.Proof, 1)
	require.Equal(uint64(4), proof.Proof[0].Index)
	require.Equal("500", proof.Proof[0].Sum)
}

func TestConfig(t *testing.T) {
	out := execute(t, "config")
	require.True(t, strings.Contains(out, "genesisHash"))
	require.True(t, strings.Contains(out, "depthPerRound"))
}

func TestParseDirection(t *testing.T) {
	require := require.New(t)
	d, err := parseDirection("Veto")
	require.NoError(err)
	require.Equal(action.AgainstWithVeto, d)
	_, err = parseDirection("maybe")
	require.ErrorIs(err, action.ErrInvalidVoteDirection)
}
