// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package agent

import (
	"github.com/iotexproject/pdao-governance/pkg/votetree"
)

// ChallengeIndices returns the indices a challenger disputes, round by round, on the way to finalIndex, a leaf
// of the phase 2 tree of a proposal over leafCount nodes. The sub-root is returned apart from the phase 1 rounds.
func ChallengeIndices(leafCount int, depthPerRound uint64, finalIndex uint64) (phase1 []uint64, subRoot uint64, phase2 []uint64) {
	var (
		l      = votetree.NewLayout(leafCount, depthPerRound)
		p1, p2 = l.Phase1Depth(), l.Phase2Depth()
		dpr    = l.DepthPerRound()
		rounds = votetree.RoundCount(1<<p1, dpr)
	)
	subRoot = finalIndex >> p1
	for i := uint64(1); i <= rounds; i++ {
		d := i * dpr
		if d > p1 {
			break
		}
		if index := subRoot >> (p1 - d); index != subRoot {
			phase1 = append(phase1, index)
		}
	}
	for i := uint64(1); i <= rounds; i++ {
		d := p1 + i*dpr
		if d > p2 {
			break
		}
		phase2 = append(phase2, finalIndex>>(p2-d))
	}
	return phase1, subRoot, phase2
}
