// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package pdao

import (
	"math/big"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	_actionMtc = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdao_action_total",
			Help: "Governance actions handled, by action and status",
		},
		[]string{"action", "status"},
	)
	_bondBurnedMtc = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pdao_bond_burned_total",
			Help: "RPL burned while settling bonds",
		},
	)
)

func init() {
	prometheus.MustRegister(_actionMtc)
	prometheus.MustRegister(_bondBurnedMtc)
}

func recordBurn(amount *big.Int) {
	f, _ := new(big.Float).SetInt(amount).Float64()
	_bondBurnedMtc.Add(f)
}
