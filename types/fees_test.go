// Copyright 2025 The Gnosis Authors
// This file is part of the Gnosis header codec.
//
// The Gnosis header codec is free software: you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the License,
// or (at your option) any later version.
//
// The Gnosis header codec is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the Gnosis header codec. If not, see <http://www.gnu.org/licenses/>.

package types

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextBlockBaseFee(t *testing.T) {
	parent := &Header{
		GasLimit: 30_000_000,
		BaseFee:  big.NewInt(1_000_000_000),
	}

	// Exactly at target, fee stays.
	parent.GasUsed = 15_000_000
	assert.Equal(t, big.NewInt(1_000_000_000), NextBlockBaseFee(parent, GnosisBaseFeeParams))

	// Full block, fee rises by 1/8.
	parent.GasUsed = 30_000_000
	assert.Equal(t, big.NewInt(1_125_000_000), NextBlockBaseFee(parent, GnosisBaseFeeParams))

	// Empty block, fee drops by 1/8.
	parent.GasUsed = 0
	assert.Equal(t, big.NewInt(875_000_000), NextBlockBaseFee(parent, GnosisBaseFeeParams))

	// An increase is never zero.
	parent.GasUsed = 15_000_001
	parent.BaseFee = big.NewInt(1)
	assert.Equal(t, big.NewInt(2), NextBlockBaseFee(parent, GnosisBaseFeeParams))
}

func TestNextBlockBaseFeeLegacyParent(t *testing.T) {
	require.Nil(t, NextBlockBaseFee(&Header{GasLimit: 30_000_000}, GnosisBaseFeeParams))
}

func TestNextBlockExcessBlobGas(t *testing.T) {
	parent := &Header{}
	assert.EqualValues(t, 0, NextBlockExcessBlobGas(parent))

	used := uint64(BlobGasTargetPerBlock)
	excess := uint64(131072)
	parent.BlobGasUsed = &used
	parent.ExcessBlobGas = &excess
	assert.EqualValues(t, 131072, NextBlockExcessBlobGas(parent))

	under := uint64(131072)
	parent.BlobGasUsed = &under
	parent.ExcessBlobGas = new(uint64)
	assert.EqualValues(t, 0, NextBlockExcessBlobGas(parent))
}

func TestBlobFee(t *testing.T) {
	assert.EqualValues(t, 1, BlobFee(0).Uint64())
	assert.EqualValues(t, 1, BlobFee(BlobGasPriceUpdateFraction/2).Uint64())
	// e^1 rounds down to 2.
	assert.EqualValues(t, 2, BlobFee(BlobGasPriceUpdateFraction).Uint64())
}
