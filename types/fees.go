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

	"github.com/holiman/uint256"
)

// BaseFeeParams holds the EIP-1559 constants of a chain. Gnosis chain uses
// the mainnet values.
type BaseFeeParams struct {
	ElasticityMultiplier     uint64
	BaseFeeChangeDenominator uint64
}

var GnosisBaseFeeParams = BaseFeeParams{
	ElasticityMultiplier:     2,
	BaseFeeChangeDenominator: 8,
}

// NextBlockBaseFee computes the base fee of the block following parent under
// EIP-1559. Headers without a base fee (pre London equivalents) yield nil.
func NextBlockBaseFee(parent *Header, params BaseFeeParams) *big.Int {
	if parent.BaseFee == nil {
		return nil
	}
	parentGasTarget := parent.GasLimit / params.ElasticityMultiplier
	if parent.GasUsed == parentGasTarget {
		return new(big.Int).Set(parent.BaseFee)
	}

	denom := new(big.Int).SetUint64(params.BaseFeeChangeDenominator)
	if parent.GasUsed > parentGasTarget {
		gasUsedDelta := new(big.Int).SetUint64(parent.GasUsed - parentGasTarget)
		x := new(big.Int).Mul(parent.BaseFee, gasUsedDelta)
		y := x.Div(x, new(big.Int).SetUint64(parentGasTarget))
		baseFeeDelta := x.Div(y, denom)
		if baseFeeDelta.Sign() == 0 {
			baseFeeDelta.SetUint64(1)
		}
		return baseFeeDelta.Add(parent.BaseFee, baseFeeDelta)
	}
	gasUsedDelta := new(big.Int).SetUint64(parentGasTarget - parent.GasUsed)
	x := new(big.Int).Mul(parent.BaseFee, gasUsedDelta)
	y := x.Div(x, new(big.Int).SetUint64(parentGasTarget))
	baseFeeDelta := x.Div(y, denom)
	next := baseFeeDelta.Sub(parent.BaseFee, baseFeeDelta)
	if next.Sign() < 0 {
		next.SetUint64(0)
	}
	return next
}

// EIP-4844 constants.
const (
	BlobGasTargetPerBlock      = 393216 // 3 blobs
	MinBlobGasPrice            = 1
	BlobGasPriceUpdateFraction = 3338477
)

// NextBlockExcessBlobGas computes the excess blob gas of the block following
// parent under EIP-4844. Headers without blob fields yield zero.
func NextBlockExcessBlobGas(parent *Header) uint64 {
	var excess, used uint64
	if parent.ExcessBlobGas != nil {
		excess = *parent.ExcessBlobGas
	}
	if parent.BlobGasUsed != nil {
		used = *parent.BlobGasUsed
	}
	if excess+used < BlobGasTargetPerBlock {
		return 0
	}
	return excess + used - BlobGasTargetPerBlock
}

// BlobFee returns the blob gas price implied by an excess blob gas value,
// the fake exponential of EIP-4844.
func BlobFee(excessBlobGas uint64) *uint256.Int {
	return fakeExponential(
		uint256.NewInt(MinBlobGasPrice),
		uint256.NewInt(excessBlobGas),
		uint256.NewInt(BlobGasPriceUpdateFraction),
	)
}

// fakeExponential approximates factor * e ** (numerator / denominator) using
// Taylor expansion, as specified in EIP-4844.
func fakeExponential(factor, numerator, denominator *uint256.Int) *uint256.Int {
	output := uint256.NewInt(0)
	numeratorAccum := new(uint256.Int).Mul(factor, denominator)
	for i := uint64(1); numeratorAccum.Sign() > 0; i++ {
		output.Add(output, numeratorAccum)
		numeratorAccum.Mul(numeratorAccum, numerator)
		numeratorAccum.Div(numeratorAccum, denominator)
		numeratorAccum.Div(numeratorAccum, uint256.NewInt(i))
	}
	return output.Div(output, denominator)
}
