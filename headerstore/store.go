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

// Package headerstore persists a contiguous run of headers in two flat
// files: headers.dat holds the compressed storage encodings back to back,
// headers.idx maps block numbers to offsets in the data file. Appends go
// through a buffered writer, reads go straight to the file, so a store can
// serve reads while it is being extended.
package headerstore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/c2h5oh/datasize"
	"github.com/ledgerwatch/log/v3"

	"github.com/gnosischain/gnosis-headers/compress"
	"github.com/gnosischain/gnosis-headers/types"
)

const (
	dataFileName  = "headers.dat"
	indexFileName = "headers.idx"

	// idxHeaderSize is the fixed index file preamble: the block number of
	// the first stored header.
	idxHeaderSize = 8
	idxEntrySize  = 8
)

var (
	// ErrNotFound is returned when the requested block number is outside the
	// stored range.
	ErrNotFound = errors.New("headerstore: header not found")

	// ErrNonContiguous is returned by Append when the header's number does
	// not directly follow the last stored one.
	ErrNonContiguous = errors.New("headerstore: non-contiguous header number")

	// ErrClosed is returned on use after Close.
	ErrClosed = errors.New("headerstore: closed")
)

// Config tunes a Store. The zero value is usable.
type Config struct {
	// Compression selects the scheme applied to each record.
	// compress.Raw disables compression.
	Compression compress.Type

	// WriteBuffer is the size of the append buffer in front of the data
	// file. Zero means 1mb.
	WriteBuffer datasize.ByteSize

	Logger log.Logger
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.WriteBuffer == 0 {
		out.WriteBuffer = 1 * datasize.MB
	}
	if out.Logger == nil {
		out.Logger = log.New("component", "headerstore")
	}
	return out
}

// Store is an append-only file-backed header table. It is safe for
// concurrent use; reads see every record that Append has returned for.
type Store struct {
	cfg Config

	lock        sync.RWMutex
	dataFile    *os.File
	indexFile   *os.File
	pending     []byte   // appended records not yet written through
	offsets     []uint64 // end offset in headers.dat per record
	firstNumber uint64
	closed      bool
}

// Open opens or creates a store in dir. A data file left over from an append
// that never reached the index is truncated back to the last indexed record.
func Open(dir string, cfg Config) (*Store, error) {
	cfg = cfg.withDefaults()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("headerstore: create dir: %w", err)
	}
	dataFile, err := os.OpenFile(filepath.Join(dir, dataFileName), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("headerstore: open data file: %w", err)
	}
	indexFile, err := os.OpenFile(filepath.Join(dir, indexFileName), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		dataFile.Close()
		return nil, fmt.Errorf("headerstore: open index file: %w", err)
	}
	s := &Store{
		cfg:       cfg,
		dataFile:  dataFile,
		indexFile: indexFile,
		pending:   make([]byte, 0, int(cfg.WriteBuffer)),
	}
	if err := s.repair(); err != nil {
		dataFile.Close()
		indexFile.Close()
		return nil, err
	}
	return s, nil
}

// repair loads the index and reconciles the two files after an unclean
// shutdown. The index is the source of truth: whole trailing entries that
// point past the end of the data file or run backwards are dropped, then the
// data file is truncated to the last remaining entry.
func (s *Store) repair() error {
	idxInfo, err := s.indexFile.Stat()
	if err != nil {
		return fmt.Errorf("headerstore: stat index: %w", err)
	}
	datInfo, err := s.dataFile.Stat()
	if err != nil {
		return fmt.Errorf("headerstore: stat data: %w", err)
	}
	idxSize, datSize := idxInfo.Size(), uint64(datInfo.Size())

	if idxSize < idxHeaderSize {
		// Empty or unusable preamble, start from scratch.
		if idxSize != 0 || datSize != 0 {
			s.cfg.Logger.Warn("resetting damaged store", "indexBytes", idxSize, "dataBytes", datSize)
		}
		if err := s.indexFile.Truncate(0); err != nil {
			return fmt.Errorf("headerstore: reset index: %w", err)
		}
		if err := s.dataFile.Truncate(0); err != nil {
			return fmt.Errorf("headerstore: reset data: %w", err)
		}
		return nil
	}

	entryBytes := idxSize - idxHeaderSize
	if tail := entryBytes % idxEntrySize; tail != 0 {
		s.cfg.Logger.Warn("dropping partial index entry", "bytes", tail)
		entryBytes -= tail
	}
	buf := make([]byte, idxHeaderSize+entryBytes)
	if _, err := s.indexFile.ReadAt(buf, 0); err != nil {
		return fmt.Errorf("headerstore: read index: %w", err)
	}
	s.firstNumber = binary.BigEndian.Uint64(buf[:idxHeaderSize])
	s.offsets = s.offsets[:0]
	prev := uint64(0)
	for pos := idxHeaderSize; pos < len(buf); pos += idxEntrySize {
		end := binary.BigEndian.Uint64(buf[pos : pos+idxEntrySize])
		if end > datSize || end < prev {
			s.cfg.Logger.Warn("dropping unusable index entries", "dataBytes", datSize, "offset", end, "record", len(s.offsets))
			break
		}
		s.offsets = append(s.offsets, end)
		prev = end
	}

	wantIdx := int64(idxHeaderSize + len(s.offsets)*idxEntrySize)
	if wantIdx != idxSize {
		if err := s.indexFile.Truncate(wantIdx); err != nil {
			return fmt.Errorf("headerstore: truncate index: %w", err)
		}
	}
	wantDat := uint64(0)
	if n := len(s.offsets); n > 0 {
		wantDat = s.offsets[n-1]
	}
	if wantDat != datSize {
		s.cfg.Logger.Warn("truncating dangling data bytes", "from", datSize, "to", wantDat)
		if err := s.dataFile.Truncate(int64(wantDat)); err != nil {
			return fmt.Errorf("headerstore: truncate data: %w", err)
		}
	}
	if len(s.offsets) > 0 {
		s.cfg.Logger.Info("opened header store", "first", s.firstNumber, "count", len(s.offsets), "size", datasize.ByteSize(wantDat).HumanReadable())
	}
	return nil
}

// Count returns the number of stored headers.
func (s *Store) Count() uint64 {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return uint64(len(s.offsets))
}

// FirstNumber returns the block number of the first stored header. It is
// meaningful only when Count is nonzero.
func (s *Store) FirstNumber() uint64 {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.firstNumber
}

// Append stores h, which must carry the number directly following the last
// stored header. The first header appended to an empty store fixes the start
// of the range.
func (s *Store) Append(h *types.Header) error {
	if h.Number == nil || !h.Number.IsUint64() {
		return fmt.Errorf("%w: header without a valid number", ErrNonContiguous)
	}
	number := h.Number.Uint64()

	enc := make([]byte, h.EncodingLengthForStorage())
	h.EncodeForStorage(enc)
	record := compress.Compress(s.cfg.Compression, enc)

	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return ErrClosed
	}
	if len(s.offsets) == 0 {
		s.firstNumber = number
		var preamble [idxHeaderSize]byte
		binary.BigEndian.PutUint64(preamble[:], number)
		if _, err := s.indexFile.WriteAt(preamble[:], 0); err != nil {
			return fmt.Errorf("headerstore: write index preamble: %w", err)
		}
	} else if want := s.firstNumber + uint64(len(s.offsets)); number != want {
		return fmt.Errorf("%w: got %d, want %d", ErrNonContiguous, number, want)
	}

	end := uint64(len(record))
	if n := len(s.offsets); n > 0 {
		end += s.offsets[n-1]
	}
	// The index entry goes first: a failed write leaves the store untouched,
	// while an orphaned record in the write buffer would shift every record
	// after it against the index once flushed.
	var entry [idxEntrySize]byte
	binary.BigEndian.PutUint64(entry[:], end)
	if _, err := s.indexFile.WriteAt(entry[:], int64(idxHeaderSize+len(s.offsets)*idxEntrySize)); err != nil {
		return fmt.Errorf("headerstore: write index entry: %w", err)
	}
	s.pending = append(s.pending, record...)
	s.offsets = append(s.offsets, end)
	if uint64(len(s.pending)) >= uint64(s.cfg.WriteBuffer) {
		if err := s.flushLocked(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) flushLocked() error {
	if len(s.pending) == 0 {
		return nil
	}
	if _, err := s.dataFile.Write(s.pending); err != nil {
		return fmt.Errorf("headerstore: write data: %w", err)
	}
	s.pending = s.pending[:0]
	return nil
}

// Flush writes buffered records through to the data file.
func (s *Store) Flush() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.flushLocked()
}

// Header returns the stored header with the given block number.
func (s *Store) Header(number uint64) (*types.Header, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	if number < s.firstNumber || number >= s.firstNumber+uint64(len(s.offsets)) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, number)
	}
	i := number - s.firstNumber
	var start uint64
	if i > 0 {
		start = s.offsets[i-1]
	}
	end := s.offsets[i]

	record := make([]byte, end-start)
	if err := s.readRecordLocked(record, start); err != nil {
		return nil, err
	}
	enc, err := compress.Decompress(record)
	if err != nil {
		return nil, fmt.Errorf("headerstore: record %d: %w", number, err)
	}
	h := &types.Header{}
	if err := h.DecodeForStorage(enc); err != nil {
		return nil, fmt.Errorf("headerstore: record %d: %w", number, err)
	}
	return h, nil
}

// readRecordLocked fills buf with the record starting at start, looking in
// the unflushed tail first.
func (s *Store) readRecordLocked(buf []byte, start uint64) error {
	flushed := s.flushedSizeLocked()
	if start >= flushed {
		copy(buf, s.pending[start-flushed:])
		return nil
	}
	if start+uint64(len(buf)) <= flushed {
		if _, err := s.dataFile.ReadAt(buf, int64(start)); err != nil {
			return fmt.Errorf("headerstore: read data: %w", err)
		}
		return nil
	}
	// Record straddles the flush boundary.
	head := flushed - start
	if _, err := s.dataFile.ReadAt(buf[:head], int64(start)); err != nil {
		return fmt.Errorf("headerstore: read data: %w", err)
	}
	copy(buf[head:], s.pending)
	return nil
}

func (s *Store) flushedSizeLocked() uint64 {
	var total uint64
	if n := len(s.offsets); n > 0 {
		total = s.offsets[n-1]
	}
	return total - uint64(len(s.pending))
}

// Close flushes and syncs both files. The store is unusable afterwards.
func (s *Store) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.flushLocked()
	if syncErr := s.dataFile.Sync(); err == nil {
		err = syncErr
	}
	if syncErr := s.indexFile.Sync(); err == nil {
		err = syncErr
	}
	if closeErr := s.dataFile.Close(); err == nil {
		err = closeErr
	}
	if closeErr := s.indexFile.Close(); err == nil {
		err = closeErr
	}
	return err
}
