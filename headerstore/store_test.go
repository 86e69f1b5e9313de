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

package headerstore

import (
	"encoding/binary"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnosischain/gnosis-headers/compress"
	"github.com/gnosischain/gnosis-headers/types"
)

func testHeader(number uint64) *types.Header {
	h := &types.Header{
		ParentHash:  common.BytesToHash([]byte{byte(number), 1}),
		UncleHash:   types.EmptyUncleHash,
		Root:        common.BytesToHash([]byte{byte(number), 2}),
		TxHash:      types.EmptyRootHash,
		ReceiptHash: types.EmptyRootHash,
		Difficulty:  big.NewInt(0),
		Number:      new(big.Int).SetUint64(number),
		GasLimit:    30_000_000,
		GasUsed:     number * 21_000,
		Time:        1700000000 + number*5,
		Extra:       []byte{0x12, 0x34},
		BaseFee:     big.NewInt(7_000_000_000),
	}
	if number%2 == 0 {
		h.AuRaStep = number * 4
		h.AuRaSeal = make([]byte, types.AuRaSealLength)
		h.AuRaSeal[0] = byte(number)
	}
	return h
}

func TestAppendAndRead(t *testing.T) {
	for _, compression := range []compress.Type{compress.Raw, compress.Snappy, compress.Zstd} {
		s, err := Open(t.TempDir(), Config{Compression: compression})
		require.NoError(t, err)

		const base, n = 1000, 50
		for i := uint64(0); i < n; i++ {
			require.NoError(t, s.Append(testHeader(base+i)))
		}
		require.EqualValues(t, n, s.Count())
		require.EqualValues(t, base, s.FirstNumber())

		for i := uint64(0); i < n; i++ {
			h, err := s.Header(base + i)
			require.NoError(t, err)
			assert.Equal(t, testHeader(base+i), h)
		}
		require.NoError(t, s.Close())
	}
}

func TestNonContiguousAppend(t *testing.T) {
	s, err := Open(t.TempDir(), Config{})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Append(testHeader(5)))
	require.ErrorIs(t, s.Append(testHeader(7)), ErrNonContiguous)
	require.ErrorIs(t, s.Append(testHeader(5)), ErrNonContiguous)
	require.ErrorIs(t, s.Append(&types.Header{}), ErrNonContiguous)
	require.NoError(t, s.Append(testHeader(6)))
}

func TestHeaderNotFound(t *testing.T) {
	s, err := Open(t.TempDir(), Config{})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Header(3)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Append(testHeader(3)))
	_, err = s.Header(2)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.Header(4)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, Config{Compression: compress.Snappy})
	require.NoError(t, err)
	for i := uint64(0); i < 20; i++ {
		require.NoError(t, s.Append(testHeader(100+i)))
	}
	require.NoError(t, s.Close())

	s, err = Open(dir, Config{Compression: compress.Snappy})
	require.NoError(t, err)
	defer s.Close()
	require.EqualValues(t, 20, s.Count())
	require.EqualValues(t, 100, s.FirstNumber())

	h, err := s.Header(119)
	require.NoError(t, err)
	assert.Equal(t, testHeader(119), h)

	require.NoError(t, s.Append(testHeader(120)))
	h, err = s.Header(120)
	require.NoError(t, err)
	assert.Equal(t, testHeader(120), h)
}

// Reads must see records that are still sitting in the write buffer.
func TestReadFromWriteBuffer(t *testing.T) {
	s, err := Open(t.TempDir(), Config{WriteBuffer: 1 << 30})
	require.NoError(t, err)
	defer s.Close()

	for i := uint64(0); i < 10; i++ {
		require.NoError(t, s.Append(testHeader(i)))
	}
	for i := uint64(0); i < 10; i++ {
		h, err := s.Header(i)
		require.NoError(t, err)
		assert.Equal(t, testHeader(i), h)
	}

	require.NoError(t, s.Flush())
	h, err := s.Header(9)
	require.NoError(t, err)
	assert.Equal(t, testHeader(9), h)
}

// Data written past the last index entry, as after a crash mid-append, is
// discarded on open.
func TestRepairDanglingData(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, Config{})
	require.NoError(t, err)
	for i := uint64(0); i < 5; i++ {
		require.NoError(t, s.Append(testHeader(i)))
	}
	require.NoError(t, s.Close())

	f, err := os.OpenFile(filepath.Join(dir, "headers.dat"), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.Write([]byte("partial record from a crashed append"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	s, err = Open(dir, Config{})
	require.NoError(t, err)
	defer s.Close()
	require.EqualValues(t, 5, s.Count())

	h, err := s.Header(4)
	require.NoError(t, err)
	assert.Equal(t, testHeader(4), h)

	require.NoError(t, s.Append(testHeader(5)))
	h, err = s.Header(5)
	require.NoError(t, err)
	assert.Equal(t, testHeader(5), h)
}

// Index entries pointing past the end of the data file are dropped on open.
func TestRepairMissingData(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, Config{})
	require.NoError(t, err)
	for i := uint64(0); i < 5; i++ {
		require.NoError(t, s.Append(testHeader(i)))
	}
	require.NoError(t, s.Close())

	info, err := os.Stat(filepath.Join(dir, "headers.dat"))
	require.NoError(t, err)
	require.NoError(t, os.Truncate(filepath.Join(dir, "headers.dat"), info.Size()-1))

	s, err = Open(dir, Config{})
	require.NoError(t, err)
	defer s.Close()
	require.EqualValues(t, 4, s.Count())

	h, err := s.Header(3)
	require.NoError(t, err)
	assert.Equal(t, testHeader(3), h)
	_, err = s.Header(4)
	require.ErrorIs(t, err, ErrNotFound)
}

// Index offsets that run backwards are as unusable as ones pointing past the
// data file and get the same treatment on open.
func TestRepairBackwardsOffsets(t *testing.T) {
	dir := t.TempDir()
	idx := make([]byte, idxHeaderSize+2*idxEntrySize)
	binary.BigEndian.PutUint64(idx[0:], 1)
	binary.BigEndian.PutUint64(idx[idxHeaderSize:], 100)
	binary.BigEndian.PutUint64(idx[idxHeaderSize+idxEntrySize:], 50)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "headers.idx"), idx, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "headers.dat"), make([]byte, 100), 0o644))

	s, err := Open(dir, Config{})
	require.NoError(t, err)
	defer s.Close()
	require.EqualValues(t, 1, s.Count())

	_, err = s.Header(2)
	require.ErrorIs(t, err, ErrNotFound)
	// The surviving record is zero filler; it must fail decoding, not reading.
	_, err = s.Header(1)
	require.ErrorIs(t, err, types.ErrTruncatedInput)
}

// A failed index write must not leave the record in the write buffer, or
// every record after it would land at the wrong offset once flushed.
func TestAppendIndexWriteFailure(t *testing.T) {
	s, err := Open(t.TempDir(), Config{WriteBuffer: 1 << 30})
	require.NoError(t, err)
	require.NoError(t, s.Append(testHeader(0)))
	buffered := len(s.pending)

	require.NoError(t, s.indexFile.Close())
	require.Error(t, s.Append(testHeader(1)))
	require.EqualValues(t, 1, s.Count())
	require.Equal(t, buffered, len(s.pending))

	h, err := s.Header(0)
	require.NoError(t, err)
	assert.Equal(t, testHeader(0), h)
}

func TestUseAfterClose(t *testing.T) {
	s, err := Open(t.TempDir(), Config{})
	require.NoError(t, err)
	require.NoError(t, s.Append(testHeader(0)))
	require.NoError(t, s.Close())

	require.ErrorIs(t, s.Append(testHeader(1)), ErrClosed)
	_, err = s.Header(0)
	require.ErrorIs(t, err, ErrClosed)
	require.NoError(t, s.Close())
}
