// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package cmd

import (
	"math/bits"

	"github.com/spf13/cobra"

	"github.com/iotexproject/pdao-governance/pkg/votetree"
)

var (
	_index uint64

	// Tree prints the leaves and root of the genesis voting power tree
	Tree = &cobra.Command{
		Use:   "tree",
		Short: "Print the phase 1 leaves and root of the voting power tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := loadTree(cmd.Context())
			if err != nil {
				return err
			}
			root := tree.Root()
			return printYAML(cmd.OutOrStdout(), map[string]interface{}{
				"phase1Depth": tree.Layout().Phase1Depth(),
				"root":        toNodes(1, []votetree.Node{root})[0],
				"leaves":      toNodes(1<<tree.Layout().Phase1Depth(), tree.Leaves()),
			})
		},
	}

	// Pollard prints the pollard answering a challenge at an index
	Pollard = &cobra.Command{
		Use:   "pollard",
		Short: "Print the pollard revealed for a challenge at --index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := loadTree(cmd.Context())
			if err != nil {
				return err
			}
			pollard, err := tree.Pollard(_index)
			if err != nil {
				return err
			}
			levels := uint64(bits.TrailingZeros(uint(len(pollard))))
			return printYAML(cmd.OutOrStdout(), toNodes(_index<<levels, pollard))
		},
	}

	// Proof prints the node at an index and its challenge proof
	Proof = &cobra.Command{
		Use:   "proof",
		Short: "Print the node at --index and the proof a challenger submits with it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := loadTree(cmd.Context())
			if err != nil {
				return err
			}
			n, proof, err := tree.ChallengeProof(_index)
			if err != nil {
				return err
			}
			siblings := make([]node, len(proof))
			index := _index
			for i, p := range proof {
				siblings[i] = toNodes(index^1, []votetree.Node{p})[0]
				index >>= 1
			}
			return printYAML(cmd.OutOrStdout(), map[string]interface{}{
				"node":  toNodes(_index, []votetree.Node{n})[0],
				"proof": siblings,
			})
		},
	}
)

func init() {
	Pollard.Flags().Uint64VarP(&_index, "index", "i", 1, "challenged index, 1 for the proposal pollard")
	Proof.Flags().Uint64VarP(&_index, "index", "i", 1, "challenged index")
}
