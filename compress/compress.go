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

// Package compress frames byte blobs with a one byte format tag so that the
// compression scheme can evolve without rewriting stored data. Compression is
// advisory: when the compressed form would not be smaller than the input, the
// blob is stored raw under the Raw tag and the requested scheme is ignored.
package compress

import (
	"errors"
	"fmt"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

// Type selects the compression scheme. It doubles as the leading byte of
// every framed payload.
type Type byte

const (
	// Raw stores the payload as is.
	Raw Type = 0
	// Snappy favours speed over ratio.
	Snappy Type = 1
	// Zstd favours ratio over speed.
	Zstd Type = 2
)

func (t Type) String() string {
	switch t {
	case Raw:
		return "raw"
	case Snappy:
		return "snappy"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", byte(t))
	}
}

// ErrCorruptPayload is returned when a framed payload cannot be restored:
// the format tag is unknown, the frame is empty, or the compressed body does
// not decode.
var ErrCorruptPayload = errors.New("compress: corrupt payload")

// Shared zstd coders. Both are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	if err != nil {
		panic(err)
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		panic(err)
	}
}

// Compress frames v under the requested scheme. When the compressed body
// would be at least as large as v, or t is Raw, the result is the Raw tag
// followed by v unchanged. The returned slice is always freshly allocated,
// v is never retained.
func Compress(t Type, v []byte) []byte {
	var body []byte
	switch t {
	case Snappy:
		body = snappy.Encode(nil, v)
	case Zstd:
		body = zstdEncoder.EncodeAll(v, make([]byte, 0, len(v)))
	}
	if body == nil || len(body) >= len(v) {
		out := make([]byte, 1+len(v))
		out[0] = byte(Raw)
		copy(out[1:], v)
		return out
	}
	out := make([]byte, 1+len(body))
	out[0] = byte(t)
	copy(out[1:], body)
	return out
}

// Decompress restores a payload framed by Compress.
func Decompress(v []byte) ([]byte, error) {
	if len(v) == 0 {
		return nil, fmt.Errorf("%w: empty frame", ErrCorruptPayload)
	}
	body := v[1:]
	switch Type(v[0]) {
	case Raw:
		out := make([]byte, len(body))
		copy(out, body)
		return out, nil
	case Snappy:
		out, err := snappy.Decode(nil, body)
		if err != nil {
			return nil, fmt.Errorf("%w: snappy: %s", ErrCorruptPayload, err)
		}
		return out, nil
	case Zstd:
		out, err := zstdDecoder.DecodeAll(body, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %s", ErrCorruptPayload, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown format tag %d", ErrCorruptPayload, v[0])
	}
}
