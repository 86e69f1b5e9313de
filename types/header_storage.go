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
	"encoding/binary"
	"fmt"
	"math/big"
	"math/bits"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Storage encoding: a flags byte describing which optional fields follow,
// then the fixed-width fields raw with no per-field framing, then integers
// as a length byte plus that many big-endian bytes, then the variable-length
// byte strings with a uvarint length. It undercuts the RLP encoding because
// the fixed fields drop their prefixes.
const (
	storageFlagAuRa = 1 << iota
	storageFlagBaseFee
	storageFlagWithdrawalsHash
	storageFlagBlobGasUsed
	storageFlagExcessBlobGas
	storageFlagParentBeaconBlockRoot
	storageFlagRequestsHash
	storageFlagReserved
)

func storageU64Len(v uint64) int {
	return 1 + (bits.Len64(v)+7)/8
}

func storageBigLen(v *big.Int) int {
	if v == nil {
		return 1
	}
	i, _ := uint256.FromBig(v)
	return 1 + i.ByteLen()
}

func storageBytesLen(v []byte) int {
	var lenBuf [binary.MaxVarintLen64]byte
	return binary.PutUvarint(lenBuf[:], uint64(len(v))) + len(v)
}

// EncodingLengthForStorage returns the exact size of the storage encoding.
func (h *Header) EncodingLengthForStorage() int {
	structLength := 1 /* flags */ + 32 /* ParentHash */ + 32 /* UncleHash */ + 20 /* Coinbase */ +
		32 /* Root */ + 32 /* TxHash */ + 32 /* ReceiptHash */ + 256 /* Bloom */

	structLength += storageBigLen(h.Difficulty)
	structLength += storageBigLen(h.Number)
	structLength += storageU64Len(h.GasLimit)
	structLength += storageU64Len(h.GasUsed)
	structLength += storageU64Len(h.Time)
	structLength += storageBytesLen(h.Extra)

	if len(h.AuRaSeal) > 0 {
		structLength += storageU64Len(h.AuRaStep)
		structLength += storageBytesLen(h.AuRaSeal)
	} else {
		structLength += 32 /* MixDigest */ + 8 /* Nonce */
	}

	if h.BaseFee != nil {
		structLength += storageBigLen(h.BaseFee)
	}
	if h.WithdrawalsHash != nil {
		structLength += 32
	}
	if h.BlobGasUsed != nil {
		structLength += storageU64Len(*h.BlobGasUsed)
	}
	if h.ExcessBlobGas != nil {
		structLength += storageU64Len(*h.ExcessBlobGas)
	}
	if h.ParentBeaconBlockRoot != nil {
		structLength += 32
	}
	if h.RequestsHash != nil {
		structLength += 32
	}
	return structLength
}

func putStorageU64(buffer []byte, pos int, v uint64) int {
	vLen := (bits.Len64(v) + 7) / 8
	buffer[pos] = byte(vLen)
	for i := vLen; i > 0; i-- {
		buffer[pos+i] = byte(v)
		v >>= 8
	}
	return pos + 1 + vLen
}

func putStorageBig(buffer []byte, pos int, v *big.Int) int {
	if v == nil {
		buffer[pos] = 0
		return pos + 1
	}
	i, _ := uint256.FromBig(v)
	vLen := i.ByteLen()
	buffer[pos] = byte(vLen)
	i.WriteToSlice(buffer[pos+1 : pos+1+vLen])
	return pos + 1 + vLen
}

func putStorageBytes(buffer []byte, pos int, v []byte) int {
	pos += binary.PutUvarint(buffer[pos:], uint64(len(v)))
	return pos + copy(buffer[pos:], v)
}

// EncodeForStorage serialises the header into buffer, which must hold at
// least EncodingLengthForStorage bytes. Integer fields wider than 256 bits
// are not representable; SanityCheck screens those out beforehand.
func (h *Header) EncodeForStorage(buffer []byte) {
	var fieldSet byte
	if len(h.AuRaSeal) > 0 {
		fieldSet |= storageFlagAuRa
	}
	if h.BaseFee != nil {
		fieldSet |= storageFlagBaseFee
	}
	if h.WithdrawalsHash != nil {
		fieldSet |= storageFlagWithdrawalsHash
	}
	if h.BlobGasUsed != nil {
		fieldSet |= storageFlagBlobGasUsed
	}
	if h.ExcessBlobGas != nil {
		fieldSet |= storageFlagExcessBlobGas
	}
	if h.ParentBeaconBlockRoot != nil {
		fieldSet |= storageFlagParentBeaconBlockRoot
	}
	if h.RequestsHash != nil {
		fieldSet |= storageFlagRequestsHash
	}
	buffer[0] = fieldSet

	pos := 1
	pos += copy(buffer[pos:], h.ParentHash[:])
	pos += copy(buffer[pos:], h.UncleHash[:])
	pos += copy(buffer[pos:], h.Coinbase[:])
	pos += copy(buffer[pos:], h.Root[:])
	pos += copy(buffer[pos:], h.TxHash[:])
	pos += copy(buffer[pos:], h.ReceiptHash[:])
	pos += copy(buffer[pos:], h.Bloom[:])

	pos = putStorageBig(buffer, pos, h.Difficulty)
	pos = putStorageBig(buffer, pos, h.Number)
	pos = putStorageU64(buffer, pos, h.GasLimit)
	pos = putStorageU64(buffer, pos, h.GasUsed)
	pos = putStorageU64(buffer, pos, h.Time)
	pos = putStorageBytes(buffer, pos, h.Extra)

	if fieldSet&storageFlagAuRa > 0 {
		pos = putStorageU64(buffer, pos, h.AuRaStep)
		pos = putStorageBytes(buffer, pos, h.AuRaSeal)
	} else {
		pos += copy(buffer[pos:], h.MixDigest[:])
		pos += copy(buffer[pos:], h.Nonce[:])
	}

	if fieldSet&storageFlagBaseFee > 0 {
		pos = putStorageBig(buffer, pos, h.BaseFee)
	}
	if fieldSet&storageFlagWithdrawalsHash > 0 {
		pos += copy(buffer[pos:], h.WithdrawalsHash[:])
	}
	if fieldSet&storageFlagBlobGasUsed > 0 {
		pos = putStorageU64(buffer, pos, *h.BlobGasUsed)
	}
	if fieldSet&storageFlagExcessBlobGas > 0 {
		pos = putStorageU64(buffer, pos, *h.ExcessBlobGas)
	}
	if fieldSet&storageFlagParentBeaconBlockRoot > 0 {
		pos += copy(buffer[pos:], h.ParentBeaconBlockRoot[:])
	}
	if fieldSet&storageFlagRequestsHash > 0 {
		copy(buffer[pos:], h.RequestsHash[:])
	}
}

type storageReader struct {
	enc []byte
	pos int
}

func (r *storageReader) take(n int, field string) ([]byte, error) {
	if r.pos+n > len(r.enc) {
		return nil, fmt.Errorf("%w: %s needs %d bytes, %d left", ErrTruncatedInput, field, n, len(r.enc)-r.pos)
	}
	out := r.enc[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *storageReader) u64(field string) (uint64, error) {
	lenByte, err := r.take(1, field)
	if err != nil {
		return 0, err
	}
	vLen := int(lenByte[0])
	if vLen > 8 {
		return 0, fmt.Errorf("%w: %s is %d bytes", ErrUnexpectedLength, field, vLen)
	}
	v, err := r.take(vLen, field)
	if err != nil {
		return 0, err
	}
	var out uint64
	for _, b := range v {
		out = out<<8 | uint64(b)
	}
	return out, nil
}

func (r *storageReader) big(field string) (*big.Int, error) {
	lenByte, err := r.take(1, field)
	if err != nil {
		return nil, err
	}
	vLen := int(lenByte[0])
	if vLen > 32 {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrUnexpectedLength, field, vLen)
	}
	v, err := r.take(vLen, field)
	if err != nil {
		return nil, err
	}
	var x uint256.Int
	x.SetBytes(v)
	if x.IsZero() {
		// ToBig on zero yields an abnormal zero that trips DeepEqual.
		return new(big.Int), nil
	}
	return x.ToBig(), nil
}

func (r *storageReader) byteString(field string) ([]byte, error) {
	vLen, n := binary.Uvarint(r.enc[r.pos:])
	if n <= 0 {
		return nil, fmt.Errorf("%w: %s length varint", ErrTruncatedInput, field)
	}
	r.pos += n
	// A huge varint would wrap negative through int and slip past take.
	if vLen > uint64(len(r.enc)-r.pos) {
		return nil, fmt.Errorf("%w: %s needs %d bytes, %d left", ErrTruncatedInput, field, vLen, len(r.enc)-r.pos)
	}
	v, err := r.take(int(vLen), field)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// DecodeForStorage decodes a header from its storage encoding. The input
// must cover the header exactly: a reserved flag bit or any byte left over
// after the last field is an error.
func (h *Header) DecodeForStorage(enc []byte) error {
	if len(enc) == 0 {
		return fmt.Errorf("%w: empty input", ErrTruncatedInput)
	}
	fieldSet := enc[0]
	if fieldSet&storageFlagReserved > 0 {
		return fmt.Errorf("%w: reserved bit set in %#x", ErrInvalidFlags, fieldSet)
	}
	r := &storageReader{enc: enc, pos: 1}

	var err error
	var v []byte
	if v, err = r.take(32, "ParentHash"); err != nil {
		return err
	}
	h.ParentHash.SetBytes(v)
	if v, err = r.take(32, "UncleHash"); err != nil {
		return err
	}
	h.UncleHash.SetBytes(v)
	if v, err = r.take(20, "Coinbase"); err != nil {
		return err
	}
	h.Coinbase.SetBytes(v)
	if v, err = r.take(32, "Root"); err != nil {
		return err
	}
	h.Root.SetBytes(v)
	if v, err = r.take(32, "TxHash"); err != nil {
		return err
	}
	h.TxHash.SetBytes(v)
	if v, err = r.take(32, "ReceiptHash"); err != nil {
		return err
	}
	h.ReceiptHash.SetBytes(v)
	if v, err = r.take(256, "Bloom"); err != nil {
		return err
	}
	copy(h.Bloom[:], v)

	if h.Difficulty, err = r.big("Difficulty"); err != nil {
		return err
	}
	if h.Number, err = r.big("Number"); err != nil {
		return err
	}
	if h.GasLimit, err = r.u64("GasLimit"); err != nil {
		return err
	}
	if h.GasUsed, err = r.u64("GasUsed"); err != nil {
		return err
	}
	if h.Time, err = r.u64("Time"); err != nil {
		return err
	}
	if h.Extra, err = r.byteString("Extra"); err != nil {
		return err
	}

	if fieldSet&storageFlagAuRa > 0 {
		if h.AuRaStep, err = r.u64("AuRaStep"); err != nil {
			return err
		}
		if h.AuRaSeal, err = r.byteString("AuRaSeal"); err != nil {
			return err
		}
		if len(h.AuRaSeal) != AuRaSealLength {
			return fmt.Errorf("%w: AuRaSeal is %d bytes", ErrUnexpectedLength, len(h.AuRaSeal))
		}
	} else {
		if v, err = r.take(32, "MixDigest"); err != nil {
			return err
		}
		h.MixDigest.SetBytes(v)
		if v, err = r.take(8, "Nonce"); err != nil {
			return err
		}
		copy(h.Nonce[:], v)
	}

	if fieldSet&storageFlagBaseFee > 0 {
		if h.BaseFee, err = r.big("BaseFee"); err != nil {
			return err
		}
	}
	if fieldSet&storageFlagWithdrawalsHash > 0 {
		if v, err = r.take(32, "WithdrawalsHash"); err != nil {
			return err
		}
		h.WithdrawalsHash = new(common.Hash)
		h.WithdrawalsHash.SetBytes(v)
	}
	if fieldSet&storageFlagBlobGasUsed > 0 {
		var blobGasUsed uint64
		if blobGasUsed, err = r.u64("BlobGasUsed"); err != nil {
			return err
		}
		h.BlobGasUsed = &blobGasUsed
	}
	if fieldSet&storageFlagExcessBlobGas > 0 {
		var excessBlobGas uint64
		if excessBlobGas, err = r.u64("ExcessBlobGas"); err != nil {
			return err
		}
		h.ExcessBlobGas = &excessBlobGas
	}
	if fieldSet&storageFlagParentBeaconBlockRoot > 0 {
		if v, err = r.take(32, "ParentBeaconBlockRoot"); err != nil {
			return err
		}
		h.ParentBeaconBlockRoot = new(common.Hash)
		h.ParentBeaconBlockRoot.SetBytes(v)
	}
	if fieldSet&storageFlagRequestsHash > 0 {
		if v, err = r.take(32, "RequestsHash"); err != nil {
			return err
		}
		h.RequestsHash = new(common.Hash)
		h.RequestsHash.SetBytes(v)
	}
	if r.pos != len(enc) {
		return fmt.Errorf("%w: %d bytes after header", ErrTrailingBytes, len(enc)-r.pos)
	}
	return nil
}
