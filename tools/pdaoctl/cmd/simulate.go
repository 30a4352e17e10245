// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package cmd

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/facebookgo/clock"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iotexproject/pdao-governance/action"
	"github.com/iotexproject/pdao-governance/pkg/log"
	"github.com/iotexproject/pdao-governance/pkg/tracer"
	"github.com/iotexproject/pdao-governance/simulator"
)

var (
	_dishonest bool
	_direction string
	_payload   string
	_message   string

	// Simulate plays a proposal on an in-process chain
	Simulate = &cobra.Command{
		Use:   "simulate",
		Short: "Play a proposal from the genesis: commit, challenge, vote and settle bonds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, g, err := loadConfig()
			if err != nil {
				return err
			}
			direction, err := parseDirection(_direction)
			if err != nil {
				return err
			}
			payload, err := hex.DecodeString(strings.TrimPrefix(_payload, "0x"))
			if err != nil {
				return errors.Wrap(err, "invalid payload")
			}
			tp, err := tracer.NewProviderFromConfig(cfg.Tracer)
			if err != nil {
				return err
			}
			if tp != nil {
				defer func() {
					if err := tp.Shutdown(ctx); err != nil {
						log.L().Warn("Failed to shutdown tracer.", zap.Error(err))
					}
				}()
			}

			clk := clock.NewMock()
			clk.Add(time.Duration(time.Now().Unix()) * time.Second)
			sim, err := simulator.New(cfg, g, clk)
			if err != nil {
				return err
			}
			if err := sim.Start(ctx); err != nil {
				return err
			}
			defer func() {
				if err := sim.Stop(ctx); err != nil {
					log.L().Warn("Failed to stop simulator.", zap.Error(err))
				}
			}()
			report, err := sim.Run(ctx, simulator.Scenario{
				Message:   _message,
				Payload:   payload,
				Dishonest: _dishonest,
				Direction: direction,
			})
			if err != nil {
				return err
			}
			return printYAML(cmd.OutOrStdout(), map[string]interface{}{
				"proposal": report.ProposalID,
				"state":    report.State.String(),
				"disputed": report.Disputed,
				"actions":  report.Actions,
				"failed":   report.Failed,
				"burned":   report.Burned.String(),
			})
		},
	}
)

func init() {
	Simulate.Flags().BoolVar(&_dishonest, "dishonest", false, "the proposer ignores delegations")
	Simulate.Flags().StringVar(&_direction, "direction", "for", "vote of every node: abstain, for, against or veto")
	Simulate.Flags().StringVar(&_payload, "payload", "", "hex encoded proposal payload")
	Simulate.Flags().StringVar(&_message, "message", "simulated proposal", "proposal message")
}

func parseDirection(s string) (action.VoteDirection, error) {
	switch strings.ToLower(s) {
	case "abstain":
		return action.Abstain, nil
	case "for":
		return action.For, nil
	case "against":
		return action.Against, nil
	case "veto":
		return action.AgainstWithVeto, nil
	default:
		return action.NoVote, errors.Wrap(action.ErrInvalidVoteDirection, s)
	}
}
