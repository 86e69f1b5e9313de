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

import "errors"

// Decoding and conversion failures. Header bytes may arrive from the network,
// so every decode path returns one of these rather than panicking; callers
// translate them into their own drop/disconnect policies. Encoding and
// hashing of an in-memory header never fail.
var (
	// ErrTruncatedInput means a prefix, flags byte, or field declared more
	// bytes than the input holds.
	ErrTruncatedInput = errors.New("header: truncated input")

	// ErrTrailingBytes means the header structure was complete but bytes
	// remain after it.
	ErrTrailingBytes = errors.New("header: trailing bytes after encoded header")

	// ErrAmbiguousSeal means the seal position of an RLP header matches
	// neither the 32-byte mix digest of a PoW-shaped header nor the step
	// integer of an AuRa header.
	ErrAmbiguousSeal = errors.New("header: seal fields match neither PoW nor AuRa layout")

	// ErrUnexpectedLength means the outer list length disagrees with the sum
	// of the field lengths actually consumed, or a fixed-width field has the
	// wrong size.
	ErrUnexpectedLength = errors.New("header: list length mismatch")

	// ErrInvalidFlags means the storage-encoding flags byte has a reserved
	// bit set.
	ErrInvalidFlags = errors.New("header: invalid storage flags")

	// ErrUnsupportedVariant means an AuRa header was asked for a
	// representation that has no slot for its step and seal.
	ErrUnsupportedVariant = errors.New("header: AuRa seal cannot be represented")
)
