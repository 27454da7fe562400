// Package journal implements the rollback journal: a sidecar file holding
// the original image of every page a transaction overwrites. As long as the
// journal exists the database file may contain uncommitted writes; replaying
// the journal restores the pre-transaction state.
//
// File layout (all integers little endian):
//
//	+-----------------+----------------------------------+
//	| magic (8)       | "CTRJRNL1"                       |
//	| page size (4)   |                                  |
//	| orig pages (4)  | database page count before txn   |
//	+-----------------+----------------------------------+
//	| page no (4) | image (page size) | crc32 (4)        |  repeated
//	+-----------------+----------------------------------+
//
// The checksum covers the page number and the image. Records are fixed
// size, so the record count falls out of the file size.
package journal

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"sync"

	"citrine/internal/common"
)

var magic = [8]byte{'C', 'T', 'R', 'J', 'R', 'N', 'L', '1'}

const headerSize = int64(len(magic) + 8)

var (
	// ErrBadMagic means the file is not a journal, or its header is
	// damaged beyond use.
	ErrBadMagic = errors.New("journal: not a journal file")
	// ErrChecksum means a record failed its CRC. Recovery stops at the
	// last record that passed.
	ErrChecksum = errors.New("journal: record checksum mismatch")
)

// JournalImpl appends page images to a single file on disk.
type JournalImpl struct {
	mu            sync.Mutex
	file          *os.File
	path          string
	pageSize      uint32
	origPageCount uint32
}

var _ Journal = (*JournalImpl)(nil)

// Create starts a fresh journal at path, truncating any previous file, and
// syncs the header before returning.
func Create(path string, pageSize, origPageCount uint32) (*JournalImpl, error) {
	if pageSize == 0 {
		return nil, fmt.Errorf("journal: page size must be positive")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}

	var hdr bytes.Buffer
	hdr.Write(magic[:])
	if _, err := common.WriteUint32(&hdr, pageSize); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := common.WriteUint32(&hdr, origPageCount); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.Write(hdr.Bytes()); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return nil, err
	}

	return &JournalImpl{
		file:          f,
		path:          path,
		pageSize:      pageSize,
		origPageCount: origPageCount,
	}, nil
}

// Open reopens an existing journal, typically a hot one left behind by a
// crashed transaction.
func Open(path string) (*JournalImpl, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	hdr, err := readHeader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		f.Close()
		return nil, err
	}
	return &JournalImpl{
		file:          f,
		path:          path,
		pageSize:      hdr.pageSize,
		origPageCount: hdr.origPageCount,
	}, nil
}

// Close releases the underlying file handle. The journal stays on disk.
func (j *JournalImpl) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	return err
}

// Remove closes the journal and deletes it from disk.
func (j *JournalImpl) Remove() error {
	if err := j.Close(); err != nil {
		return err
	}
	return os.Remove(j.path)
}

// Append persists one page image and syncs the file. The image must be
// synced before the corresponding database page is overwritten, otherwise
// a crash could leave nothing to restore from.
func (j *JournalImpl) Append(ctx context.Context, pgno common.PageNo, image []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return errors.New("journal: closed")
	}
	if uint32(len(image)) != j.pageSize {
		return fmt.Errorf("journal: image is %d bytes, want %d", len(image), j.pageSize)
	}

	buf := make([]byte, 4+len(image)+4)
	binary.LittleEndian.PutUint32(buf[:4], uint32(pgno))
	copy(buf[4:], image)
	sum := crc32.ChecksumIEEE(buf[:4+len(image)])
	binary.LittleEndian.PutUint32(buf[4+len(image):], sum)

	if _, err := common.WriteBytes(j.file, buf); err != nil {
		return err
	}
	return j.file.Sync()
}

// RecordCount reports how many complete records the journal holds.
func (j *JournalImpl) RecordCount() (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return 0, errors.New("journal: closed")
	}
	info, err := j.file.Stat()
	if err != nil {
		return 0, err
	}
	payload := info.Size() - headerSize
	if payload < 0 {
		return 0, nil
	}
	return int(payload / (int64(j.pageSize) + 8)), nil
}

// PageSize reports the page size recorded in the header.
func (j *JournalImpl) PageSize() uint32 {
	return j.pageSize
}

// OrigPageCount reports the database page count before the transaction
// began. Rolling back truncates the database to this many pages.
func (j *JournalImpl) OrigPageCount() uint32 {
	return j.origPageCount
}

// Iterator returns a forward-only reader over all journal records.
func (j *JournalImpl) Iterator(ctx context.Context) (Iterator, error) {
	r, err := os.Open(j.path)
	if err != nil {
		return nil, err
	}
	hdr, err := readHeader(r)
	if err != nil {
		r.Close()
		return nil, err
	}
	return &fileIterator{
		ctx:      ctx,
		f:        r,
		br:       bufio.NewReader(r),
		pageSize: hdr.pageSize,
	}, nil
}

type fileIterator struct {
	ctx      context.Context
	f        *os.File
	br       *bufio.Reader
	pageSize uint32
}

func (it *fileIterator) Next() (Record, bool, error) {
	if err := it.ctx.Err(); err != nil {
		return Record{}, false, err
	}

	var pgnoBuf [4]byte
	if _, err := io.ReadFull(it.br, pgnoBuf[:]); err != nil {
		if isTornTail(err) {
			return Record{}, false, nil
		}
		return Record{}, false, err
	}

	image, err := common.ReadBytes(it.br, uint64(it.pageSize))
	if err != nil {
		if isTornTail(err) {
			return Record{}, false, nil
		}
		return Record{}, false, err
	}

	var sumBuf [4]byte
	if _, err := io.ReadFull(it.br, sumBuf[:]); err != nil {
		if isTornTail(err) {
			return Record{}, false, nil
		}
		return Record{}, false, err
	}

	sum := crc32.ChecksumIEEE(pgnoBuf[:])
	sum = crc32.Update(sum, crc32.IEEETable, image)
	if sum != binary.LittleEndian.Uint32(sumBuf[:]) {
		return Record{}, false, ErrChecksum
	}

	return Record{
		PgNo:  common.PageNo(binary.LittleEndian.Uint32(pgnoBuf[:])),
		Image: image,
	}, true, nil
}

func (it *fileIterator) Close() error {
	return it.f.Close()
}

// isTornTail reports whether err marks an incomplete final record, which a
// crash mid-write legitimately leaves behind.
func isTornTail(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

type header struct {
	pageSize      uint32
	origPageCount uint32
}

func readHeader(r io.Reader) (header, error) {
	var m [8]byte
	if _, err := io.ReadFull(r, m[:]); err != nil {
		if isTornTail(err) {
			return header{}, ErrBadMagic
		}
		return header{}, err
	}
	if m != magic {
		return header{}, ErrBadMagic
	}
	pageSize, err := common.ReadUint32(r)
	if err != nil {
		return header{}, ErrBadMagic
	}
	origPageCount, err := common.ReadUint32(r)
	if err != nil {
		return header{}, ErrBadMagic
	}
	if pageSize == 0 {
		return header{}, ErrBadMagic
	}
	return header{pageSize: pageSize, origPageCount: origPageCount}, nil
}
