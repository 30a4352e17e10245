// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/iotexproject/pdao-governance/tools/pdaoctl/cmd"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "pdaoctl",
	Short: "pdaoctl builds voting power trees and plays governance proposals",
}

func init() {
	cmd.BindFlags(RootCmd)
	RootCmd.AddCommand(cmd.Tree)
	RootCmd.AddCommand(cmd.Pollard)
	RootCmd.AddCommand(cmd.Proof)
	RootCmd.AddCommand(cmd.Simulate)
	RootCmd.AddCommand(cmd.Config)
}

func main() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
