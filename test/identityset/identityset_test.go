// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package identityset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddress(t *testing.T) {
	require := require.New(t)

	seen := make(map[string]bool)
	for _, addr := range Addresses(Size()) {
		require.False(seen[addr.Hex()])
		seen[addr.Hex()] = true
	}
	require.Equal(Address(0), Address(Size()))
}
