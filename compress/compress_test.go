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

package compress

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	compressible := bytes.Repeat([]byte("gnosis header "), 64)
	random := make([]byte, 512)
	rnd := rand.New(rand.NewSource(42))
	rnd.Read(random)

	for _, typ := range []Type{Raw, Snappy, Zstd} {
		for _, payload := range [][]byte{compressible, random, {0x01}, {}} {
			framed := Compress(typ, payload)
			out, err := Decompress(framed)
			require.NoError(t, err, "type %s", typ)
			assert.Equal(t, payload, out, "type %s", typ)
		}
	}
}

func TestCompressShrinksCompressibleData(t *testing.T) {
	payload := bytes.Repeat([]byte("gnosis header "), 64)
	for _, typ := range []Type{Snappy, Zstd} {
		framed := Compress(typ, payload)
		assert.EqualValues(t, typ, framed[0])
		assert.Less(t, len(framed), len(payload))
	}
}

// Incompressible input falls back to the raw frame instead of growing.
func TestCompressRawFallback(t *testing.T) {
	payload := make([]byte, 256)
	rnd := rand.New(rand.NewSource(7))
	rnd.Read(payload)

	for _, typ := range []Type{Raw, Snappy, Zstd} {
		framed := Compress(typ, payload)
		assert.EqualValues(t, Raw, framed[0], "type %s", typ)
		assert.Equal(t, len(payload)+1, len(framed), "type %s", typ)
	}
}

func TestDecompressCorruptPayload(t *testing.T) {
	_, err := Decompress(nil)
	require.ErrorIs(t, err, ErrCorruptPayload)

	_, err = Decompress([]byte{0xff, 0x01, 0x02})
	require.ErrorIs(t, err, ErrCorruptPayload)

	_, err = Decompress([]byte{byte(Snappy), 0xde, 0xad, 0xbe, 0xef})
	require.ErrorIs(t, err, ErrCorruptPayload)

	_, err = Decompress([]byte{byte(Zstd), 0xde, 0xad, 0xbe, 0xef})
	require.ErrorIs(t, err, ErrCorruptPayload)
}

func TestDecompressDoesNotAliasInput(t *testing.T) {
	payload := []byte{1, 2, 3}
	framed := Compress(Raw, payload)
	out, err := Decompress(framed)
	require.NoError(t, err)
	framed[1] = 0xff
	assert.Equal(t, []byte{1, 2, 3}, out)
}

func BenchmarkCompressSnappy(b *testing.B) {
	payload := bytes.Repeat([]byte("gnosis header "), 64)
	b.SetBytes(int64(len(payload)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Compress(Snappy, payload)
	}
}

func BenchmarkCompressZstd(b *testing.B) {
	payload := bytes.Repeat([]byte("gnosis header "), 64)
	b.SetBytes(int64(len(payload)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Compress(Zstd, payload)
	}
}
