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
	"errors"
	"fmt"

	"github.com/gnosischain/gnosis-headers/rlp"
)

// sealFieldIndex is the position of the first seal field within the header
// list. The 13 fields before it (parent hash through extra data) are common
// to both layouts.
const sealFieldIndex = 13

// DetectSeal inspects an RLP-encoded header and reports which wire layout it
// uses, without decoding it. The discrimination rule looks at the 14th list
// element: a 32-byte string there can only be the mix digest of a PoW-shaped
// header, while an integer of up to 8 bytes can only be an AuRa step, in
// which case the element after it must be a string holding the seal. Any
// other shape is reported as ambiguous.
//
// Only length prefixes are read, field payloads are skipped over. The second
// return value is the number of bytes of data that were examined to reach
// the verdict.
func DetectSeal(data []byte) (SealVariant, int, error) {
	pos, _, err := rlp.List(data, 0)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: not a header list: %s", mapParseErr(err), err)
	}
	for i := 0; i < sealFieldIndex; i++ {
		if pos, err = rlp.Skip(data, pos); err != nil {
			return 0, pos, fmt.Errorf("%w: header field %d: %s", mapParseErr(err), i, err)
		}
	}
	variant, dataPos, dataLen, err := classifySeal(data, pos)
	examined := dataPos + dataLen
	if err != nil || variant != SealAuRa {
		return variant, examined, err
	}
	sealPos, sealLen, isList, err := rlp.Prefix(data, examined)
	if err != nil {
		return 0, examined, fmt.Errorf("%w: seal signature: %s", mapParseErr(err), err)
	}
	if isList {
		return 0, examined, fmt.Errorf("%w: seal signature is a list", ErrAmbiguousSeal)
	}
	return SealAuRa, sealPos + sealLen, nil
}

// classifySeal applies the discrimination rule to the list element starting
// at pos and returns its prefix boundaries along with the verdict.
func classifySeal(data []byte, pos int) (SealVariant, int, int, error) {
	dataPos, dataLen, isList, err := rlp.Prefix(data, pos)
	if err != nil {
		return 0, pos, 0, fmt.Errorf("%w: seal field: %s", mapParseErr(err), err)
	}
	if isList {
		return 0, dataPos, dataLen, fmt.Errorf("%w: seal field is a list", ErrAmbiguousSeal)
	}
	switch {
	case dataLen == 32:
		return SealPoW, dataPos, dataLen, nil
	case dataLen <= 8:
		return SealAuRa, dataPos, dataLen, nil
	default:
		return 0, dataPos, dataLen, fmt.Errorf("%w: seal field is %d bytes", ErrAmbiguousSeal, dataLen)
	}
}

// mapParseErr translates low level rlp parse failures into the codec's error
// taxonomy: short reads surface as truncation, everything else as a malformed
// length.
func mapParseErr(err error) error {
	if errors.Is(err, rlp.ErrShortInput) {
		return ErrTruncatedInput
	}
	return ErrUnexpectedLength
}
