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
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethrlp "github.com/ethereum/go-ethereum/rlp"

	"github.com/gnosischain/gnosis-headers/rlp"
)

// EncodingSize returns the RLP payload length of the header, excluding the
// outer list prefix. EncodeRLP computes it once and emits exactly that many
// payload bytes.
func (h *Header) EncodingSize() int {
	encodingSize := 33 /* ParentHash */ + 33 /* UncleHash */ + 21 /* Coinbase */ + 33 /* Root */ + 33 /* TxHash */ + 33 /* ReceiptHash */ + 259 /* Bloom */

	encodingSize++
	if h.Difficulty != nil {
		encodingSize += rlp.BigIntLenExcludingHead(h.Difficulty)
	}
	encodingSize++
	if h.Number != nil {
		encodingSize += rlp.BigIntLenExcludingHead(h.Number)
	}
	encodingSize++
	encodingSize += rlp.IntLenExcludingHead(h.GasLimit)
	encodingSize++
	encodingSize += rlp.IntLenExcludingHead(h.GasUsed)
	encodingSize++
	encodingSize += rlp.IntLenExcludingHead(h.Time)
	// Extra
	encodingSize += rlp.StringLen(h.Extra)

	if len(h.AuRaSeal) != 0 {
		encodingSize += 1 + rlp.IntLenExcludingHead(h.AuRaStep) + rlp.StringLen(h.AuRaSeal)
	} else {
		encodingSize += 33 /* MixDigest */ + 9 /* BlockNonce */
	}

	if h.BaseFee != nil {
		encodingSize++
		encodingSize += rlp.BigIntLenExcludingHead(h.BaseFee)
	}
	if h.WithdrawalsHash != nil {
		encodingSize += 33
	}
	if h.BlobGasUsed != nil {
		encodingSize++
		encodingSize += rlp.IntLenExcludingHead(*h.BlobGasUsed)
	}
	if h.ExcessBlobGas != nil {
		encodingSize++
		encodingSize += rlp.IntLenExcludingHead(*h.ExcessBlobGas)
	}
	if h.ParentBeaconBlockRoot != nil {
		encodingSize += 33
	}
	if h.RequestsHash != nil {
		encodingSize += 33
	}
	return encodingSize
}

// EncodeRLP writes the consensus encoding of the header. The layout of the
// seal fields follows the header's variant: step and step signature for AuRa
// headers, mix digest and nonce otherwise.
func (h *Header) EncodeRLP(w io.Writer) error {
	encodingSize := h.EncodingSize()

	var b [33]byte
	if err := rlp.EncodeStructSizePrefix(encodingSize, w, b[:]); err != nil {
		return err
	}
	b[0] = 128 + 32
	if _, err := w.Write(b[:1]); err != nil {
		return err
	}
	if _, err := w.Write(h.ParentHash.Bytes()); err != nil {
		return err
	}
	if _, err := w.Write(b[:1]); err != nil {
		return err
	}
	if _, err := w.Write(h.UncleHash.Bytes()); err != nil {
		return err
	}
	b[0] = 128 + 20
	if _, err := w.Write(b[:1]); err != nil {
		return err
	}
	if _, err := w.Write(h.Coinbase.Bytes()); err != nil {
		return err
	}
	b[0] = 128 + 32
	if _, err := w.Write(b[:1]); err != nil {
		return err
	}
	if _, err := w.Write(h.Root.Bytes()); err != nil {
		return err
	}
	if _, err := w.Write(b[:1]); err != nil {
		return err
	}
	if _, err := w.Write(h.TxHash.Bytes()); err != nil {
		return err
	}
	if _, err := w.Write(b[:1]); err != nil {
		return err
	}
	if _, err := w.Write(h.ReceiptHash.Bytes()); err != nil {
		return err
	}
	b[0] = 183 + 2
	b[1] = 1
	b[2] = 0
	if _, err := w.Write(b[:3]); err != nil {
		return err
	}
	if _, err := w.Write(h.Bloom.Bytes()); err != nil {
		return err
	}
	if err := rlp.EncodeBigInt(h.Difficulty, w, b[:]); err != nil {
		return err
	}
	if err := rlp.EncodeBigInt(h.Number, w, b[:]); err != nil {
		return err
	}
	if err := rlp.EncodeInt(h.GasLimit, w, b[:]); err != nil {
		return err
	}
	if err := rlp.EncodeInt(h.GasUsed, w, b[:]); err != nil {
		return err
	}
	if err := rlp.EncodeInt(h.Time, w, b[:]); err != nil {
		return err
	}
	if err := rlp.EncodeString(h.Extra, w, b[:]); err != nil {
		return err
	}

	if len(h.AuRaSeal) > 0 {
		if err := rlp.EncodeInt(h.AuRaStep, w, b[:]); err != nil {
			return err
		}
		if err := rlp.EncodeString(h.AuRaSeal, w, b[:]); err != nil {
			return err
		}
	} else {
		b[0] = 128 + 32
		if _, err := w.Write(b[:1]); err != nil {
			return err
		}
		if _, err := w.Write(h.MixDigest.Bytes()); err != nil {
			return err
		}
		b[0] = 128 + 8
		if _, err := w.Write(b[:1]); err != nil {
			return err
		}
		if _, err := w.Write(h.Nonce[:]); err != nil {
			return err
		}
	}

	if h.BaseFee != nil {
		if err := rlp.EncodeBigInt(h.BaseFee, w, b[:]); err != nil {
			return err
		}
	}
	if h.WithdrawalsHash != nil {
		b[0] = 128 + 32
		if _, err := w.Write(b[:1]); err != nil {
			return err
		}
		if _, err := w.Write(h.WithdrawalsHash.Bytes()); err != nil {
			return err
		}
	}
	if h.BlobGasUsed != nil {
		if err := rlp.EncodeInt(*h.BlobGasUsed, w, b[:]); err != nil {
			return err
		}
	}
	if h.ExcessBlobGas != nil {
		if err := rlp.EncodeInt(*h.ExcessBlobGas, w, b[:]); err != nil {
			return err
		}
	}
	if h.ParentBeaconBlockRoot != nil {
		b[0] = 128 + 32
		if _, err := w.Write(b[:1]); err != nil {
			return err
		}
		if _, err := w.Write(h.ParentBeaconBlockRoot.Bytes()); err != nil {
			return err
		}
	}
	if h.RequestsHash != nil {
		b[0] = 128 + 32
		if _, err := w.Write(b[:1]); err != nil {
			return err
		}
		if _, err := w.Write(h.RequestsHash.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

// EncodeHeaderRLP returns the consensus encoding of the header as a fresh
// byte slice, sized up front from EncodingSize.
func EncodeHeaderRLP(h *Header) ([]byte, error) {
	payloadSize := h.EncodingSize()
	buf := newEncBuffer(rlp.ListPrefixLen(payloadSize) + payloadSize)
	if err := h.EncodeRLP(buf); err != nil {
		return nil, err
	}
	return buf.data, nil
}

// encBuffer is a minimal io.Writer over a preallocated slice. bytes.Buffer
// would regrow; here the exact size is known before the first write.
type encBuffer struct {
	data []byte
}

func newEncBuffer(size int) *encBuffer {
	return &encBuffer{data: make([]byte, 0, size)}
}

func (b *encBuffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func decodeHash(data []byte, pos int, field string, dst *common.Hash) (int, error) {
	dataPos, err := rlp.StringOfLen(data, pos, 32)
	if err != nil {
		return pos, wrapField(err, field)
	}
	dst.SetBytes(data[dataPos : dataPos+32])
	return dataPos + 32, nil
}

func wrapField(err error, field string) error {
	return fmt.Errorf("%w: %s: %s", mapParseErr(err), field, err)
}

// DecodeHeaderRLP decodes a header from its consensus encoding. The wire
// layout is discriminated by the shape of the 14th list element, exactly as
// in DetectSeal, and the input must contain exactly one header: anything
// after the outer list is rejected as trailing bytes.
func DecodeHeaderRLP(data []byte) (*Header, error) {
	payloadPos, payloadLen, err := rlp.List(data, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: not a header list: %s", mapParseErr(err), err)
	}
	end := payloadPos + payloadLen
	if end < len(data) {
		return nil, fmt.Errorf("%w: %d bytes after header", ErrTrailingBytes, len(data)-end)
	}

	h := &Header{}
	pos := payloadPos
	if pos, err = decodeHash(data, pos, "ParentHash", &h.ParentHash); err != nil {
		return nil, err
	}
	if pos, err = decodeHash(data, pos, "UncleHash", &h.UncleHash); err != nil {
		return nil, err
	}
	dataPos, err := rlp.StringOfLen(data, pos, 20)
	if err != nil {
		return nil, wrapField(err, "Coinbase")
	}
	h.Coinbase.SetBytes(data[dataPos : dataPos+20])
	pos = dataPos + 20
	if pos, err = decodeHash(data, pos, "Root", &h.Root); err != nil {
		return nil, err
	}
	if pos, err = decodeHash(data, pos, "TxHash", &h.TxHash); err != nil {
		return nil, err
	}
	if pos, err = decodeHash(data, pos, "ReceiptHash", &h.ReceiptHash); err != nil {
		return nil, err
	}
	if dataPos, err = rlp.StringOfLen(data, pos, 256); err != nil {
		return nil, wrapField(err, "Bloom")
	}
	copy(h.Bloom[:], data[dataPos:dataPos+256])
	pos = dataPos + 256
	h.Difficulty = new(big.Int)
	if pos, err = rlp.BigInt(data, pos, h.Difficulty); err != nil {
		return nil, wrapField(err, "Difficulty")
	}
	h.Number = new(big.Int)
	if pos, err = rlp.BigInt(data, pos, h.Number); err != nil {
		return nil, wrapField(err, "Number")
	}
	if pos, h.GasLimit, err = rlp.U64(data, pos); err != nil {
		return nil, wrapField(err, "GasLimit")
	}
	if pos, h.GasUsed, err = rlp.U64(data, pos); err != nil {
		return nil, wrapField(err, "GasUsed")
	}
	if pos, h.Time, err = rlp.U64(data, pos); err != nil {
		return nil, wrapField(err, "Time")
	}
	var dataLen int
	if dataPos, dataLen, err = rlp.String(data, pos); err != nil {
		return nil, wrapField(err, "Extra")
	}
	h.Extra = make([]byte, dataLen)
	copy(h.Extra, data[dataPos:dataPos+dataLen])
	pos = dataPos + dataLen

	variant, _, _, err := classifySeal(data, pos)
	if err != nil {
		return nil, err
	}
	switch variant {
	case SealAuRa:
		if pos, h.AuRaStep, err = rlp.U64(data, pos); err != nil {
			return nil, wrapField(err, "AuRaStep")
		}
		if dataPos, err = rlp.StringOfLen(data, pos, AuRaSealLength); err != nil {
			return nil, wrapField(err, "AuRaSeal")
		}
		h.AuRaSeal = make([]byte, AuRaSealLength)
		copy(h.AuRaSeal, data[dataPos:dataPos+AuRaSealLength])
		pos = dataPos + AuRaSealLength
	default:
		if pos, err = decodeHash(data, pos, "MixDigest", &h.MixDigest); err != nil {
			return nil, err
		}
		if dataPos, err = rlp.StringOfLen(data, pos, 8); err != nil {
			return nil, wrapField(err, "Nonce")
		}
		copy(h.Nonce[:], data[dataPos:dataPos+8])
		pos = dataPos + 8
	}

	if pos < end {
		h.BaseFee = new(big.Int)
		if pos, err = rlp.BigInt(data, pos, h.BaseFee); err != nil {
			return nil, wrapField(err, "BaseFee")
		}
	}
	if pos < end {
		h.WithdrawalsHash = new(common.Hash)
		if pos, err = decodeHash(data, pos, "WithdrawalsHash", h.WithdrawalsHash); err != nil {
			return nil, err
		}
	}
	if pos < end {
		var blobGasUsed uint64
		if pos, blobGasUsed, err = rlp.U64(data, pos); err != nil {
			return nil, wrapField(err, "BlobGasUsed")
		}
		h.BlobGasUsed = &blobGasUsed
	}
	if pos < end {
		var excessBlobGas uint64
		if pos, excessBlobGas, err = rlp.U64(data, pos); err != nil {
			return nil, wrapField(err, "ExcessBlobGas")
		}
		h.ExcessBlobGas = &excessBlobGas
	}
	if pos < end {
		h.ParentBeaconBlockRoot = new(common.Hash)
		if pos, err = decodeHash(data, pos, "ParentBeaconBlockRoot", h.ParentBeaconBlockRoot); err != nil {
			return nil, err
		}
	}
	if pos < end {
		h.RequestsHash = new(common.Hash)
		if pos, err = decodeHash(data, pos, "RequestsHash", h.RequestsHash); err != nil {
			return nil, err
		}
	}
	if pos != end {
		return nil, fmt.Errorf("%w: header list declares %d payload bytes, fields cover %d", ErrUnexpectedLength, payloadLen, pos-payloadPos)
	}
	return h, nil
}

// DecodeRLP implements rlp.Decoder so the header slots into go-ethereum's
// stream decoder. The item is pulled out raw and handed to DecodeHeaderRLP,
// keeping a single decode path.
func (h *Header) DecodeRLP(s *ethrlp.Stream) error {
	raw, err := s.Raw()
	if err != nil {
		return err
	}
	dec, err := DecodeHeaderRLP(raw)
	if err != nil {
		return err
	}
	*h = *dec
	return nil
}
