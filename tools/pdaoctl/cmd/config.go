// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package cmd

import (
	"encoding/hex"

	"github.com/spf13/cobra"
)

// Config prints the effective config
var Config = &cobra.Command{
	Use:   "config",
	Short: "Print the effective config after defaults, files and environment",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, g, err := loadConfig()
		if err != nil {
			return err
		}
		h := g.Hash()
		return printYAML(cmd.OutOrStdout(), map[string]interface{}{
			"config":      cfg,
			"genesisHash": hex.EncodeToString(h[:]),
		})
	},
}
