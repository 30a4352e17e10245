// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package action

import (
	"github.com/pkg/errors"

	"github.com/iotexproject/pdao-governance/pkg/votetree"
)

var _ Action = (*Propose)(nil)

// Propose submits a new proposal together with the root pollard of the voting power tree at block
type Propose struct {
	message string
	payload []byte
	block   uint64
	pollard []votetree.Node
}

// NewPropose returns a Propose instance
func NewPropose(message string, payload []byte, block uint64, pollard []votetree.Node) *Propose {
	return &Propose{
		message: message,
		payload: payload,
		block:   block,
		pollard: votetree.CloneNodes(pollard),
	}
}

// Message returns the human readable proposal message
func (p *Propose) Message() string { return p.message }

// Payload returns the call data executed when the proposal succeeds
func (p *Propose) Payload() []byte { return p.payload }

// Block returns the block the voting power is snapshotted at
func (p *Propose) Block() uint64 { return p.block }

// Pollard returns the nodes committed at the first commitment depth
func (p *Propose) Pollard() []votetree.Node { return p.pollard }

// MethodName returns the ABI method name
func (p *Propose) MethodName() string { return "propose" }

// SanityCheck validates the variables in the action
func (p *Propose) SanityCheck() error {
	if len(p.pollard) == 0 {
		return errors.Wrap(votetree.ErrInvalidNodeCount, "empty pollard")
	}
	return validNodes(p.pollard)
}

// EthData returns the ABI-encoded data for converting to eth tx
func (p *Propose) EthData() ([]byte, error) {
	return pack(p.MethodName(), p.message, p.payload, p.block, toABINodes(p.pollard))
}
