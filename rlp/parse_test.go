package rlp

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeHex(in string) []byte {
	payload, err := hex.DecodeString(in)
	if err != nil {
		panic(err)
	}
	return payload
}

var parseU64Tests = []struct {
	payload   []byte
	expectPos int
	expectRes uint64
	expectErr bool
}{
	{payload: decodeHex("820400"), expectPos: 3, expectRes: 1024},
	{payload: decodeHex("07"), expectPos: 1, expectRes: 7},
	{payload: decodeHex("80"), expectPos: 1, expectRes: 0},
	{payload: decodeHex("8105"), expectErr: true},     // non-canonical single byte
	{payload: decodeHex("820004"), expectErr: true},   // leading zero
	{payload: decodeHex("89ffffffffffffffffff"), expectErr: true}, // does not fit
	{payload: decodeHex("82"), expectErr: true},       // truncated
}

var parseU32Tests = []struct {
	payload   []byte
	expectPos int
	expectRes uint32
	expectErr bool
}{
	{payload: decodeHex("820400"), expectPos: 3, expectRes: 1024},
	{payload: decodeHex("07"), expectPos: 1, expectRes: 7},
	{payload: decodeHex("85ffffffffff"), expectErr: true}, // uint32 overflow
}

func TestPrimitives(t *testing.T) {
	for i, tt := range parseU64Tests {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			assert := assert.New(t)
			pos, res, err := U64(tt.payload, 0)
			if tt.expectErr {
				assert.Error(err)
				return
			}
			assert.NoError(err)
			assert.Equal(tt.expectPos, pos)
			assert.Equal(tt.expectRes, res)
		})
	}
	for i, tt := range parseU32Tests {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			assert := assert.New(t)
			pos, res, err := U32(tt.payload, 0)
			if tt.expectErr {
				assert.Error(err)
				return
			}
			assert.NoError(err)
			assert.Equal(tt.expectPos, pos)
			assert.Equal(tt.expectRes, res)
		})
	}
}

func TestPrefix(t *testing.T) {
	assert := assert.New(t)

	// 32-byte string
	payload := append(decodeHex("a0"), make([]byte, 32)...)
	dataPos, dataLen, isList, err := Prefix(payload, 0)
	assert.NoError(err)
	assert.Equal(1, dataPos)
	assert.Equal(32, dataLen)
	assert.False(isList)

	// short list
	dataPos, dataLen, isList, err = Prefix(decodeHex("c20102"), 0)
	assert.NoError(err)
	assert.Equal(1, dataPos)
	assert.Equal(2, dataLen)
	assert.True(isList)

	// declared length runs past the payload
	_, _, _, err = Prefix(decodeHex("a001"), 0)
	assert.ErrorIs(err, ErrShortInput)

	// long string with a length that fits in the short form
	_, _, _, err = Prefix(decodeHex("b80100"), 0)
	assert.ErrorIs(err, ErrParse)

	// empty input
	_, _, _, err = Prefix(nil, 0)
	assert.ErrorIs(err, ErrShortInput)
}

func TestStringOfLen(t *testing.T) {
	payload := append(decodeHex("a0"), make([]byte, 32)...)
	dataPos, err := StringOfLen(payload, 0, 32)
	require.NoError(t, err)
	require.Equal(t, 1, dataPos)

	_, err = StringOfLen(payload, 0, 20)
	require.ErrorIs(t, err, ErrParse)
}

func TestSkip(t *testing.T) {
	// two items back to back: a 3-byte string and the integer 7
	payload := decodeHex("83ffffff07")
	pos, err := Skip(payload, 0)
	require.NoError(t, err)
	require.Equal(t, 4, pos)

	pos, tail, err := U64(payload, pos)
	require.NoError(t, err)
	require.Equal(t, 5, pos)
	require.Equal(t, uint64(7), tail)
}

func TestEncodeParseRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	var b [33]byte

	ints := []uint64{0, 1, 127, 128, 256, 1024, 1 << 40, ^uint64(0)}
	for _, i := range ints {
		buf.Reset()
		require.NoError(t, EncodeInt(i, &buf, b[:]))
		pos, res, err := U64(buf.Bytes(), 0)
		require.NoError(t, err)
		require.Equal(t, len(buf.Bytes()), pos)
		require.Equal(t, i, res)
	}

	strs := [][]byte{nil, {0x01}, {0x80}, bytes.Repeat([]byte{0xaa}, 55), bytes.Repeat([]byte{0xbb}, 56), bytes.Repeat([]byte{0xcc}, 300)}
	for _, s := range strs {
		buf.Reset()
		require.NoError(t, EncodeString(s, &buf, b[:]))
		require.Equal(t, StringLen(s), buf.Len())
		dataPos, dataLen, err := String(buf.Bytes(), 0)
		require.NoError(t, err)
		require.Equal(t, len(s), dataLen)
		require.Equal(t, s, append([]byte(nil), buf.Bytes()[dataPos:dataPos+dataLen]...)[:len(s)])
	}

	bigs := []*big.Int{big.NewInt(0), big.NewInt(127), big.NewInt(128), new(big.Int).Lsh(big.NewInt(1), 200)}
	for _, i := range bigs {
		buf.Reset()
		require.NoError(t, EncodeBigInt(i, &buf, b[:]))
		require.Equal(t, 1+BigIntLenExcludingHead(i), buf.Len())
		x := new(big.Int)
		pos, err := BigInt(buf.Bytes(), 0, x)
		require.NoError(t, err)
		require.Equal(t, buf.Len(), pos)
		require.Zero(t, i.Cmp(x))
	}
}

func TestEncodeStructSizePrefix(t *testing.T) {
	var buf bytes.Buffer
	var b [33]byte

	require.NoError(t, EncodeStructSizePrefix(10, &buf, b[:]))
	dataPos, dataLen, err := List(append(buf.Bytes(), make([]byte, 10)...), 0)
	require.NoError(t, err)
	require.Equal(t, 1, dataPos)
	require.Equal(t, 10, dataLen)

	buf.Reset()
	require.NoError(t, EncodeStructSizePrefix(600, &buf, b[:]))
	require.Equal(t, ListPrefixLen(600), buf.Len())
	dataPos, dataLen, err = List(append(buf.Bytes(), make([]byte, 600)...), 0)
	require.NoError(t, err)
	require.Equal(t, 3, dataPos)
	require.Equal(t, 600, dataLen)
}
