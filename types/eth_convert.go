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
	"fmt"
	"math/big"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// FromEthHeader converts a go-ethereum header into the Gnosis representation.
// The result is always post-merge shaped since the go-ethereum header has no
// AuRa fields. Reference fields are deep copied, the input stays untouched.
func FromEthHeader(eh *ethtypes.Header) *Header {
	h := &Header{
		ParentHash:  eh.ParentHash,
		UncleHash:   eh.UncleHash,
		Coinbase:    eh.Coinbase,
		Root:        eh.Root,
		TxHash:      eh.TxHash,
		ReceiptHash: eh.ReceiptHash,
		Bloom:       eh.Bloom,
		GasLimit:    eh.GasLimit,
		GasUsed:     eh.GasUsed,
		Time:        eh.Time,
		MixDigest:   eh.MixDigest,
		Nonce:       eh.Nonce,
	}
	if eh.Difficulty != nil {
		h.Difficulty = new(big.Int).Set(eh.Difficulty)
	}
	if eh.Number != nil {
		h.Number = new(big.Int).Set(eh.Number)
	}
	if len(eh.Extra) > 0 {
		h.Extra = make([]byte, len(eh.Extra))
		copy(h.Extra, eh.Extra)
	}
	if eh.BaseFee != nil {
		h.BaseFee = new(big.Int).Set(eh.BaseFee)
	}
	if eh.WithdrawalsHash != nil {
		withdrawalsHash := *eh.WithdrawalsHash
		h.WithdrawalsHash = &withdrawalsHash
	}
	if eh.BlobGasUsed != nil {
		blobGasUsed := *eh.BlobGasUsed
		h.BlobGasUsed = &blobGasUsed
	}
	if eh.ExcessBlobGas != nil {
		excessBlobGas := *eh.ExcessBlobGas
		h.ExcessBlobGas = &excessBlobGas
	}
	if eh.ParentBeaconRoot != nil {
		parentBeaconRoot := *eh.ParentBeaconRoot
		h.ParentBeaconBlockRoot = &parentBeaconRoot
	}
	if eh.RequestsHash != nil {
		requestsHash := *eh.RequestsHash
		h.RequestsHash = &requestsHash
	}
	return h
}

// ToEthHeader converts the header into the go-ethereum representation.
// AuRa headers have no equivalent there, the step and the seal cannot be
// carried over, so the conversion fails fast instead of producing a header
// that would hash differently.
func (h *Header) ToEthHeader() (*ethtypes.Header, error) {
	if h.SealVariant() == SealAuRa {
		return nil, fmt.Errorf("%w: AuRa header %v has no go-ethereum representation", ErrUnsupportedVariant, h.Number)
	}
	eh := &ethtypes.Header{
		ParentHash:  h.ParentHash,
		UncleHash:   h.UncleHash,
		Coinbase:    h.Coinbase,
		Root:        h.Root,
		TxHash:      h.TxHash,
		ReceiptHash: h.ReceiptHash,
		Bloom:       h.Bloom,
		GasLimit:    h.GasLimit,
		GasUsed:     h.GasUsed,
		Time:        h.Time,
		MixDigest:   h.MixDigest,
		Nonce:       h.Nonce,
	}
	if h.Difficulty != nil {
		eh.Difficulty = new(big.Int).Set(h.Difficulty)
	}
	if h.Number != nil {
		eh.Number = new(big.Int).Set(h.Number)
	}
	if len(h.Extra) > 0 {
		eh.Extra = make([]byte, len(h.Extra))
		copy(eh.Extra, h.Extra)
	}
	if h.BaseFee != nil {
		eh.BaseFee = new(big.Int).Set(h.BaseFee)
	}
	if h.WithdrawalsHash != nil {
		withdrawalsHash := *h.WithdrawalsHash
		eh.WithdrawalsHash = &withdrawalsHash
	}
	if h.BlobGasUsed != nil {
		blobGasUsed := *h.BlobGasUsed
		eh.BlobGasUsed = &blobGasUsed
	}
	if h.ExcessBlobGas != nil {
		excessBlobGas := *h.ExcessBlobGas
		eh.ExcessBlobGas = &excessBlobGas
	}
	if h.ParentBeaconBlockRoot != nil {
		parentBeaconRoot := *h.ParentBeaconBlockRoot
		eh.ParentBeaconRoot = &parentBeaconRoot
	}
	if h.RequestsHash != nil {
		requestsHash := *h.RequestsHash
		eh.RequestsHash = &requestsHash
	}
	return eh, nil
}
