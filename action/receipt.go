// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package action

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	// FailureReceiptStatus is the status that action handling failed
	FailureReceiptStatus = uint64(0)
	// SuccessReceiptStatus is the status that action handling succeeded
	SuccessReceiptStatus = uint64(1)
)

// Receipt represents the result of a governance action
type Receipt struct {
	Status      uint64
	Action      string
	BlockHeight uint64
	ReturnValue []byte
	Logs        []*Log
}

// Log stores an event emitted while handling an action
type Log struct {
	Topics      []common.Hash
	Data        []byte
	BlockHeight uint64
	Index       uint
}

// EventTopic returns the topic of an event signature, e.g. "ProposalCreated(uint256,address)"
func EventTopic(signature string) common.Hash {
	return crypto.Keccak256Hash([]byte(signature))
}

// AddLogs adds logs to receipt and filters out nil log.
func (receipt *Receipt) AddLogs(logs ...*Log) *Receipt {
	for _, l := range logs {
		if l == nil {
			continue
		}
		l.BlockHeight = receipt.BlockHeight
		l.Index = uint(len(receipt.Logs))
		receipt.Logs = append(receipt.Logs, l)
	}
	return receipt
}

// Topic0s returns the first topic of every log, in order
func (receipt *Receipt) Topic0s() []common.Hash {
	topics := make([]common.Hash, 0, len(receipt.Logs))
	for _, l := range receipt.Logs {
		if len(l.Topics) > 0 {
			topics = append(topics, l.Topics[0])
		}
	}
	return topics
}
