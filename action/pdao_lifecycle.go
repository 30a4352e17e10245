// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package action

var (
	_ ProposalAction = (*Execute)(nil)
	_ ProposalAction = (*Cancel)(nil)
	_ ProposalAction = (*Finalise)(nil)
)

type lifecycleAction struct {
	proposalRef
}

// SanityCheck validates the variables in the action
func (l *lifecycleAction) SanityCheck() error { return nil }

// Execute runs the payload of a succeeded proposal
type Execute struct {
	lifecycleAction
}

// NewExecute returns an Execute instance
func NewExecute(proposalID uint64) *Execute {
	return &Execute{lifecycleAction{proposalRef{proposalID}}}
}

// MethodName returns the ABI method name
func (e *Execute) MethodName() string { return "execute" }

// EthData returns the ABI-encoded data for converting to eth tx
func (e *Execute) EthData() ([]byte, error) {
	return pack(e.MethodName(), u256(e.proposalID))
}

// Cancel withdraws a pending or active proposal
type Cancel struct {
	lifecycleAction
}

// NewCancel returns a Cancel instance
func NewCancel(proposalID uint64) *Cancel {
	return &Cancel{lifecycleAction{proposalRef{proposalID}}}
}

// MethodName returns the ABI method name
func (c *Cancel) MethodName() string { return "cancel" }

// EthData returns the ABI-encoded data for converting to eth tx
func (c *Cancel) EthData() ([]byte, error) {
	return pack(c.MethodName(), u256(c.proposalID))
}

// Finalise settles the proposal bond of a vetoed proposal
type Finalise struct {
	lifecycleAction
}

// NewFinalise returns a Finalise instance
func NewFinalise(proposalID uint64) *Finalise {
	return &Finalise{lifecycleAction{proposalRef{proposalID}}}
}

// MethodName returns the ABI method name
func (f *Finalise) MethodName() string { return "finalise" }

// EthData returns the ABI-encoded data for converting to eth tx
func (f *Finalise) EthData() ([]byte, error) {
	return pack(f.MethodName(), u256(f.proposalID))
}
