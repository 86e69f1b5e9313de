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

// Package types holds the Gnosis block header and its codecs: the consensus
// RLP encoding shared with the network, the flag-compacted storage encoding,
// and conversion to and from the go-ethereum header type.
package types

import (
	"fmt"
	"math/big"
	"reflect"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

var (
	EmptyRootHash  = common.HexToHash("56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")
	EmptyUncleHash = rlpHash([]*Header(nil))
)

// AuRaSealLength is the size of an AuRa step signature (65-byte secp256k1
// signature over the bare header).
const AuRaSealLength = 65

//go:generate gencodec -type Header -field-override headerMarshaling -out gen_header_json.go

// Header represents a block header on Gnosis chain. Pre-merge blocks were
// sealed by AuRa and carry a step counter and a step signature where a
// PoW-shaped header carries its mix digest and nonce; post-merge headers are
// structurally identical to Ethereum mainnet headers.
//
// Headers are immutable once constructed: decoders and converters always
// build fresh instances, and holders that need to change fields must go
// through CopyHeader first.
type Header struct {
	ParentHash  common.Hash         `json:"parentHash"       gencodec:"required"`
	UncleHash   common.Hash         `json:"sha3Uncles"       gencodec:"required"`
	Coinbase    common.Address      `json:"miner"`
	Root        common.Hash         `json:"stateRoot"        gencodec:"required"`
	TxHash      common.Hash         `json:"transactionsRoot" gencodec:"required"`
	ReceiptHash common.Hash         `json:"receiptsRoot"     gencodec:"required"`
	Bloom       ethtypes.Bloom      `json:"logsBloom"        gencodec:"required"`
	Difficulty  *big.Int            `json:"difficulty"       gencodec:"required"`
	Number      *big.Int            `json:"number"           gencodec:"required"`
	GasLimit    uint64              `json:"gasLimit"         gencodec:"required"`
	GasUsed     uint64              `json:"gasUsed"          gencodec:"required"`
	Time        uint64              `json:"timestamp"        gencodec:"required"`
	Extra       []byte              `json:"extraData"        gencodec:"required"`
	MixDigest   common.Hash         `json:"mixHash"` // prevRandao after EIP-4399
	Nonce       ethtypes.BlockNonce `json:"nonce"`

	// AuRa extensions (alternative to MixDigest & Nonce). A non-empty
	// AuRaSeal selects the pre-merge wire layout.
	AuRaStep uint64 `json:"auRaStep,omitempty"`
	AuRaSeal []byte `json:"auRaSeal,omitempty"`

	BaseFee         *big.Int     `json:"baseFeePerGas"`   // EIP-1559
	WithdrawalsHash *common.Hash `json:"withdrawalsRoot"` // EIP-4895

	// BlobGasUsed & ExcessBlobGas were added by EIP-4844 and are ignored in legacy headers.
	BlobGasUsed   *uint64 `json:"blobGasUsed"`
	ExcessBlobGas *uint64 `json:"excessBlobGas"`

	ParentBeaconBlockRoot *common.Hash `json:"parentBeaconBlockRoot"` // EIP-4788

	RequestsHash *common.Hash `json:"requestsHash"` // EIP-7685
}

// field type overrides for gencodec
type headerMarshaling struct {
	Difficulty    *hexutil.Big
	Number        *hexutil.Big
	GasLimit      hexutil.Uint64
	GasUsed       hexutil.Uint64
	Time          hexutil.Uint64
	Extra         hexutil.Bytes
	AuRaStep      hexutil.Uint64
	AuRaSeal      hexutil.Bytes
	BaseFee       *hexutil.Big
	BlobGasUsed   *hexutil.Uint64
	ExcessBlobGas *hexutil.Uint64
	Hash          common.Hash `json:"hash"` // adds call to Hash() in MarshalJSON
}

// SealVariant identifies which of the two wire layouts a header uses.
type SealVariant uint8

const (
	// SealPoW marks the post-merge layout: a 32-byte mix digest followed by
	// an 8-byte nonce, exactly as in an Ethereum mainnet header.
	SealPoW SealVariant = iota + 1
	// SealAuRa marks the pre-merge layout: a step counter followed by a
	// variable-length step signature in the mix digest/nonce position.
	SealAuRa
)

func (v SealVariant) String() string {
	switch v {
	case SealPoW:
		return "pow"
	case SealAuRa:
		return "aura"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(v))
	}
}

// SealVariant returns the layout this header was constructed with. The seal
// fields are mutually exclusive: a header either carries an AuRa seal or a
// mix digest and nonce, never both.
func (h *Header) SealVariant() SealVariant {
	if len(h.AuRaSeal) > 0 {
		return SealAuRa
	}
	return SealPoW
}

// Hash returns the block hash of the header, which is simply the keccak256
// hash of its RLP encoding. For a post-merge header the digest is
// bit-identical to the go-ethereum hash of the equivalent header.
func (h *Header) Hash() common.Hash {
	return rlpHash(h)
}

var headerSize = common.StorageSize(reflect.TypeOf(Header{}).Size())

// Size returns the approximate memory used by all internal contents. It is
// used to approximate and limit the memory consumption of various caches.
func (h *Header) Size() common.StorageSize {
	s := headerSize
	s += common.StorageSize(len(h.Extra) + len(h.AuRaSeal))
	if h.Difficulty != nil {
		s += common.StorageSize((h.Difficulty.BitLen() + 7) / 8)
	}
	if h.Number != nil {
		s += common.StorageSize((h.Number.BitLen() + 7) / 8)
	}
	if h.BaseFee != nil {
		s += common.StorageSize((h.BaseFee.BitLen() + 7) / 8)
	}
	if h.WithdrawalsHash != nil {
		s += common.StorageSize(32)
	}
	if h.BlobGasUsed != nil {
		s += common.StorageSize(8)
	}
	if h.ExcessBlobGas != nil {
		s += common.StorageSize(8)
	}
	if h.ParentBeaconBlockRoot != nil {
		s += common.StorageSize(32)
	}
	if h.RequestsHash != nil {
		s += common.StorageSize(32)
	}
	return s
}

// SanityCheck checks a few basic things -- these checks are way beyond what
// any 'sane' production values should hold, and can mainly be used to prevent
// that the unbounded fields are stuffed with junk data to add processing
// overhead.
func (h *Header) SanityCheck() error {
	if h.Number != nil && !h.Number.IsUint64() {
		return fmt.Errorf("too large block number: bitlen %d", h.Number.BitLen())
	}
	if h.Difficulty != nil {
		if diffLen := h.Difficulty.BitLen(); diffLen > 192 {
			return fmt.Errorf("too large block difficulty: bitlen %d", diffLen)
		}
	}
	if eLen := len(h.Extra); eLen > 100*1024 {
		return fmt.Errorf("too large block extradata: size %d", eLen)
	}
	if sLen := len(h.AuRaSeal); sLen > 0 && sLen != AuRaSealLength {
		return fmt.Errorf("wrong AuRa seal size: %d", sLen)
	}
	if h.BaseFee != nil {
		if bfLen := h.BaseFee.BitLen(); bfLen > 256 {
			return fmt.Errorf("too large base fee: bitlen %d", bfLen)
		}
	}
	return nil
}

// EmptyBody returns true if there is no additional 'body' to complete the
// header that is: no transactions, no uncles and no withdrawals.
func (h *Header) EmptyBody() bool {
	if h.TxHash != EmptyRootHash || h.UncleHash != EmptyUncleHash {
		return false
	}
	return h.WithdrawalsHash == nil || *h.WithdrawalsHash == EmptyRootHash
}

// EmptyReceipts returns true if there are no receipts for this header/block.
func (h *Header) EmptyReceipts() bool {
	return h.ReceiptHash == EmptyRootHash
}

// ShanghaiActive reports whether the header was produced after the Shanghai
// fork, which is signalled by the withdrawals hash being present.
func (h *Header) ShanghaiActive() bool {
	return h.WithdrawalsHash != nil
}

// CancunActive reports whether the header was produced after the Cancun
// fork, which is signalled by the blob gas fields being present.
func (h *Header) CancunActive() bool {
	return h.BlobGasUsed != nil
}

// PragueActive reports whether the header was produced after the Prague
// fork, which is signalled by the requests hash being present.
func (h *Header) PragueActive() bool {
	return h.RequestsHash != nil
}

// NumHash holds a block number together with a block hash.
type NumHash struct {
	Number uint64
	Hash   common.Hash
}

// ParentNumHash returns the parent block's number and hash. For the genesis
// block the parent number is 0 and the parent hash is the zero hash.
func (h *Header) ParentNumHash() NumHash {
	var number uint64
	if h.Number != nil && h.Number.Uint64() > 0 {
		number = h.Number.Uint64() - 1
	}
	return NumHash{Number: number, Hash: h.ParentHash}
}

// CopyHeader creates a deep copy of a block header to prevent side effects
// from modifying a header variable.
func CopyHeader(h *Header) *Header {
	cpy := *h
	if cpy.Difficulty = new(big.Int); h.Difficulty != nil {
		cpy.Difficulty.Set(h.Difficulty)
	}
	if cpy.Number = new(big.Int); h.Number != nil {
		cpy.Number.Set(h.Number)
	}
	if h.BaseFee != nil {
		cpy.BaseFee = new(big.Int)
		cpy.BaseFee.Set(h.BaseFee)
	}
	if len(h.Extra) > 0 {
		cpy.Extra = make([]byte, len(h.Extra))
		copy(cpy.Extra, h.Extra)
	}
	if len(h.AuRaSeal) > 0 {
		cpy.AuRaSeal = make([]byte, len(h.AuRaSeal))
		copy(cpy.AuRaSeal, h.AuRaSeal)
	}
	if h.WithdrawalsHash != nil {
		cpy.WithdrawalsHash = new(common.Hash)
		cpy.WithdrawalsHash.SetBytes(h.WithdrawalsHash.Bytes())
	}
	if h.BlobGasUsed != nil {
		blobGasUsed := *h.BlobGasUsed
		cpy.BlobGasUsed = &blobGasUsed
	}
	if h.ExcessBlobGas != nil {
		excessBlobGas := *h.ExcessBlobGas
		cpy.ExcessBlobGas = &excessBlobGas
	}
	if h.ParentBeaconBlockRoot != nil {
		cpy.ParentBeaconBlockRoot = new(common.Hash)
		cpy.ParentBeaconBlockRoot.SetBytes(h.ParentBeaconBlockRoot.Bytes())
	}
	if h.RequestsHash != nil {
		cpy.RequestsHash = new(common.Hash)
		cpy.RequestsHash.SetBytes(h.RequestsHash.Bytes())
	}
	return &cpy
}

var hasherPool = sync.Pool{
	New: func() any { return crypto.NewKeccakState() },
}

func rlpHash(x interface{}) (h common.Hash) {
	sha := hasherPool.Get().(crypto.KeccakState)
	defer hasherPool.Put(sha)
	sha.Reset()
	rlp.Encode(sha, x) //nolint:errcheck
	sha.Read(h[:])     //nolint:errcheck
	return h
}
