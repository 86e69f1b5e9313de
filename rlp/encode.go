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

// Package rlp provides low-level RLP primitives operating directly on byte
// slices: length arithmetic, prefix emission, and positional parsing.
//
// General design:
//   - length functions are fast and pure; it is fine to call them twice, once
//     while sizing a structure and once while emitting it
//   - Encode functions write a single RLP item to an io.Writer, using the
//     caller-provided scratch buffer b (at least 33 bytes) to avoid
//     per-field allocations
//   - Parse functions accept a position in the payload and return the new
//     position, never copying and never touching bytes past what they report
package rlp

import (
	"encoding/binary"
	"io"
	"math/big"
	"math/bits"
)

// EmptyStringCode is the RLP encoding of the empty string (and of the
// canonical integer zero).
const EmptyStringCode = 0x80

// EmptyListCode is the RLP encoding of the empty list.
const EmptyListCode = 0xC0

// ListPrefixLen returns the length of the list prefix for a payload of
// dataLen bytes.
func ListPrefixLen(dataLen int) int {
	if dataLen >= 56 {
		return 1 + (bits.Len64(uint64(dataLen))+7)/8
	}
	return 1
}

// StringLen returns the total encoded length of s, prefix included.
func StringLen(s []byte) int {
	switch {
	case len(s) >= 56:
		beLen := (bits.Len(uint(len(s))) + 7) / 8
		return 1 + beLen + len(s)
	case len(s) == 0:
		return 1
	case len(s) == 1:
		if s[0] < 128 {
			return 1
		}
		return 2
	default: // 1 < len(s) < 56
		return 1 + len(s)
	}
}

// IntLenExcludingHead returns the payload length of the canonical integer
// encoding of i, i.e. excluding the one-byte string prefix that every
// multi-byte integer carries.
func IntLenExcludingHead(i uint64) int {
	if i < 128 {
		return 0
	}
	return (bits.Len64(i) + 7) / 8
}

// BigIntLenExcludingHead is IntLenExcludingHead for arbitrary-width integers.
func BigIntLenExcludingHead(i *big.Int) int {
	if i.BitLen() < 8 {
		return 0
	}
	return (i.BitLen() + 7) / 8
}

// EncodeStructSizePrefix emits the list prefix for a structure whose payload
// is size bytes long.
func EncodeStructSizePrefix(size int, w io.Writer, b []byte) error {
	if size >= 56 {
		beLen := (bits.Len64(uint64(size)) + 7) / 8
		binary.BigEndian.PutUint64(b[1:], uint64(size))
		b[8-beLen] = byte(beLen) + 247
		if _, err := w.Write(b[8-beLen : 9]); err != nil {
			return err
		}
		return nil
	}
	b[0] = byte(size) + 192
	_, err := w.Write(b[:1])
	return err
}

// EncodeInt emits the canonical RLP encoding of i: zero becomes the empty
// string, values below 128 are a single byte, everything else is the minimal
// big-endian representation behind a string prefix.
func EncodeInt(i uint64, w io.Writer, b []byte) error {
	if i == 0 {
		b[0] = EmptyStringCode
		_, err := w.Write(b[:1])
		return err
	}
	if i < 128 {
		b[0] = byte(i)
		_, err := w.Write(b[:1])
		return err
	}
	beLen := (bits.Len64(i) + 7) / 8
	b[0] = 128 + byte(beLen)
	binary.BigEndian.PutUint64(b[1:], i)
	copy(b[1:], b[1+8-beLen:9])
	_, err := w.Write(b[:1+beLen])
	return err
}

// EncodeBigInt emits the canonical RLP encoding of i. A nil pointer encodes
// like zero.
func EncodeBigInt(i *big.Int, w io.Writer, b []byte) error {
	if i == nil || i.BitLen() == 0 {
		b[0] = EmptyStringCode
		_, err := w.Write(b[:1])
		return err
	}
	if i.BitLen() < 8 {
		b[0] = byte(i.Uint64())
		_, err := w.Write(b[:1])
		return err
	}
	beLen := (i.BitLen() + 7) / 8
	b[0] = 128 + byte(beLen)
	i.FillBytes(b[1 : 1+beLen])
	_, err := w.Write(b[:1+beLen])
	return err
}

// EncodeString emits s behind the appropriate string prefix.
func EncodeString(s []byte, w io.Writer, b []byte) error {
	switch {
	case len(s) >= 56:
		beLen := (bits.Len(uint(len(s))) + 7) / 8
		binary.BigEndian.PutUint64(b[1:], uint64(len(s)))
		b[8-beLen] = byte(beLen) + 183
		if _, err := w.Write(b[8-beLen : 9]); err != nil {
			return err
		}
	case len(s) == 1 && s[0] < 128:
		// the byte is its own encoding
	default: // 0 <= len(s) < 56
		b[0] = byte(len(s)) + 128
		if _, err := w.Write(b[:1]); err != nil {
			return err
		}
	}
	_, err := w.Write(s)
	return err
}
