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

package rlp

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrParse is wrapped by every malformed-encoding failure in this package.
	ErrParse = errors.New("rlp: parse error")
	// ErrShortInput is wrapped whenever a prefix declares more bytes than the
	// payload holds. It also wraps ErrParse.
	ErrShortInput = fmt.Errorf("%w: input too short", ErrParse)
)

// BeInt parses a big-endian integer of the given byte length at payload[pos:].
// Leading zero bytes are rejected as non-canonical.
func BeInt(payload []byte, pos, length int) (uint64, error) {
	var r uint64
	if length > 8 {
		return 0, fmt.Errorf("%w: uint64 cannot fit %d bytes", ErrParse, length)
	}
	if pos+length > len(payload) {
		return 0, fmt.Errorf("%w: unexpected end of payload", ErrShortInput)
	}
	if length > 0 && payload[pos] == 0 {
		return 0, fmt.Errorf("%w: integer encoding must have no leading zeros", ErrParse)
	}
	for _, b := range payload[pos : pos+length] {
		r = (r << 8) | uint64(b)
	}
	return r, nil
}

// Prefix parses the RLP prefix at payload[pos:], returning the offset and
// length of the item's data, and whether the item is a list. It never touches
// the data itself.
func Prefix(payload []byte, pos int) (dataPos int, dataLen int, isList bool, err error) {
	if pos < 0 {
		return 0, 0, false, fmt.Errorf("%w: negative position", ErrParse)
	}
	if pos >= len(payload) {
		return 0, 0, false, fmt.Errorf("%w: unexpected end of payload", ErrShortInput)
	}
	switch first := payload[pos]; {
	case first < 128:
		dataPos = pos
		dataLen = 1
	case first < 184:
		// Short string: length is in the prefix byte.
		dataPos = pos + 1
		dataLen = int(first) - 128
		if dataLen == 1 && dataPos < len(payload) && payload[dataPos] < 128 {
			err = fmt.Errorf("%w: non-canonical size information", ErrParse)
		}
	case first < 192:
		// Long string: the prefix byte carries the size of the size.
		beLen := int(first) - 183
		var l uint64
		if l, err = BeInt(payload, pos+1, beLen); err != nil {
			break
		}
		dataPos = pos + 1 + beLen
		dataLen = int(l)
		if dataLen < 56 {
			err = fmt.Errorf("%w: non-canonical size information", ErrParse)
		}
	case first < 248:
		// Short list.
		isList = true
		dataPos = pos + 1
		dataLen = int(first) - 192
	default:
		// Long list.
		isList = true
		beLen := int(first) - 247
		var l uint64
		if l, err = BeInt(payload, pos+1, beLen); err != nil {
			break
		}
		dataPos = pos + 1 + beLen
		dataLen = int(l)
		if dataLen < 56 {
			err = fmt.Errorf("%w: non-canonical size information", ErrParse)
		}
	}
	if err != nil {
		return 0, 0, false, err
	}
	if dataLen < 0 || dataPos < 0 || dataPos+dataLen < dataPos {
		return 0, 0, false, fmt.Errorf("%w: found too big len", ErrParse)
	}
	if dataPos+dataLen > len(payload) {
		return dataPos, dataLen, isList, fmt.Errorf("%w: unexpected end of payload", ErrShortInput)
	}
	return dataPos, dataLen, isList, nil
}

// List expects a list item at payload[pos:] and returns the position and
// length of its payload.
func List(payload []byte, pos int) (dataPos, dataLen int, err error) {
	dataPos, dataLen, isList, err := Prefix(payload, pos)
	if err != nil {
		return 0, 0, err
	}
	if !isList {
		return 0, 0, fmt.Errorf("%w: must be a list", ErrParse)
	}
	return dataPos, dataLen, nil
}

// String expects a string item at payload[pos:] and returns the position and
// length of its payload.
func String(payload []byte, pos int) (dataPos, dataLen int, err error) {
	dataPos, dataLen, isList, err := Prefix(payload, pos)
	if err != nil {
		return 0, 0, err
	}
	if isList {
		return 0, 0, fmt.Errorf("%w: must be a string, instead of a list", ErrParse)
	}
	return dataPos, dataLen, nil
}

// StringOfLen expects a string of exactly expectedLen bytes at payload[pos:]
// and returns the position of its payload.
func StringOfLen(payload []byte, pos, expectedLen int) (dataPos int, err error) {
	dataPos, dataLen, err := String(payload, pos)
	if err != nil {
		return 0, err
	}
	if dataLen != expectedLen {
		return 0, fmt.Errorf("%w: expected string of len %d, got %d", ErrParse, expectedLen, dataLen)
	}
	return dataPos, nil
}

// Skip advances past one item, list or string, without inspecting its payload.
func Skip(payload []byte, pos int) (newPos int, err error) {
	dataPos, dataLen, _, err := Prefix(payload, pos)
	if err != nil {
		return 0, err
	}
	return dataPos + dataLen, nil
}

// U64 parses a canonical RLP integer at payload[pos:].
func U64(payload []byte, pos int) (int, uint64, error) {
	dataPos, dataLen, isList, err := Prefix(payload, pos)
	if err != nil {
		return 0, 0, err
	}
	if isList {
		return 0, 0, fmt.Errorf("%w: uint64 must be a string, not isList", ErrParse)
	}
	if dataLen > 8 {
		return 0, 0, fmt.Errorf("%w: uint64 must not be more than 8 bytes long, got %d", ErrParse, dataLen)
	}
	if dataLen == 1 && payload[dataPos] < 128 {
		return dataPos + dataLen, uint64(payload[dataPos]), nil
	}
	r, err := BeInt(payload, dataPos, dataLen)
	return dataPos + dataLen, r, err
}

// U32 parses a canonical RLP integer at payload[pos:] that must fit 32 bits.
func U32(payload []byte, pos int) (int, uint32, error) {
	dataPos, u64, err := U64(payload, pos)
	if err != nil {
		return 0, 0, err
	}
	if u64 > 0xFFFFFFFF {
		return 0, 0, fmt.Errorf("%w: uint32 overflow", ErrParse)
	}
	return dataPos, uint32(u64), nil
}

// BigInt parses an arbitrary-width canonical RLP integer at payload[pos:]
// into x.
func BigInt(payload []byte, pos int, x *big.Int) (int, error) {
	dataPos, dataLen, isList, err := Prefix(payload, pos)
	if err != nil {
		return 0, err
	}
	if isList {
		return 0, fmt.Errorf("%w: big.Int must be a string, not isList", ErrParse)
	}
	if dataLen > 0 && payload[dataPos] == 0 {
		return 0, fmt.Errorf("%w: integer encoding must have no leading zeros", ErrParse)
	}
	x.SetBytes(payload[dataPos : dataPos+dataLen])
	return dataPos + dataLen, nil
}
