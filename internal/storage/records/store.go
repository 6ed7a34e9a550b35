// Package records implements a lock-free, memory-mapped record store holding
// fixed 40-byte file-metadata records: parent, name, flags, attribute ref,
// content ref, mod count, timestamp, length. Records are addressed by a
// 1-based id; id 0 is reserved. The store is a passive thread-safe structure:
// all field access happens through atomic operations on the mapped pages, and
// record allocation is a CAS loop on a header counter. Concurrent writers to
// the same field are last-write-wins; callers needing more must serialize
// externally.
package records

import (
	"fmt"
	"sync/atomic"

	"github.com/jonboulle/clockwork"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"govetachun/go-record-store/internal/storage/mmap"
	storeerr "govetachun/go-record-store/pkg/errors"
	"govetachun/go-record-store/pkg/utils"
)

// DefaultUnallocatedRecordsToCheck is how many records beyond the allocated
// region are verified to be all-zero on open.
const DefaultUnallocatedRecordsToCheck = 4

// Config describes how to open a Store.
type Config struct {
	Path string
	// PageSize is passed through to the page provider; 0 means its default
	// (64MiB). Must be a multiple of the OS page size.
	PageSize int
	// UnallocatedRecordsToCheck is the number of records beyond the allocated
	// region scanned for non-zero bytes on open. 0 means the default (4),
	// negative disables the check.
	UnallocatedRecordsToCheck int
	// FormatVersion, when non-zero, is stamped into a fresh store's header
	// and verified against an existing store's header on open.
	FormatVersion int32
	// ClearContentRefOnFill makes FillRecord zero the content reference along
	// with the other fields. Off by default: a reused slot keeps its stale
	// content ref until explicitly overwritten.
	ClearContentRefOnFill bool
	// FsyncOnForce makes Force fsync the backing file after flushing the
	// header counter. Off by default; the OS writes mapped pages back on its
	// own schedule.
	FsyncOnForce bool

	Logger *zap.Logger
	Clock  clockwork.Clock
}

func (c Config) withDefaults() Config {
	if c.UnallocatedRecordsToCheck == 0 {
		c.UnallocatedRecordsToCheck = DefaultUnallocatedRecordsToCheck
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	return c
}

// Store is the record store engine over one backing file.
type Store struct {
	storage *mmap.Storage
	lg      *zap.Logger
	clock   clockwork.Clock
	geom    geometry

	clearContentRefOnFill bool
	fsyncOnForce          bool

	// headerPage caches page 0; nil after Close, which is how every header
	// access detects a disposed store.
	headerPage atomic.Pointer[mmap.Page]

	// globalModCount increments on every actual change anywhere in the store
	// and is stamped into the changed record's modCount field. Loaded from
	// the header on open, flushed back by Force.
	globalModCount atomic.Int32

	// dirty means the in-memory globalModCount is ahead of the header field.
	dirty atomic.Bool

	// cachedMaxAllocatedID is a monotonic lower bound of the true max id:
	// if an id was ever valid it stays valid, so a stale cached value can
	// only cause a harmless slow-path re-check.
	cachedMaxAllocatedID atomic.Int32
}

// Open opens (or creates) a record store backed by the file at cfg.Path.
// Fails with a corruption error if the unallocated tail of the file contains
// non-zero bytes, and with a version-mismatch error if cfg.FormatVersion is
// set and disagrees with an existing store's header.
func Open(cfg Config) (*Store, error) {
	cfg = cfg.withDefaults()

	storage, err := mmap.Open(mmap.Config{Path: cfg.Path, PageSize: cfg.PageSize, Logger: cfg.Logger})
	if err != nil {
		return nil, err
	}

	pageSize := storage.PageSize()
	utils.Assert(pageSize >= headerSize, "pageSize must fit the header")

	s := &Store{
		storage:               storage,
		lg:                    cfg.Logger,
		clock:                 cfg.Clock,
		geom:                  newGeometry(pageSize),
		clearContentRefOnFill: cfg.ClearContentRefOnFill,
		fsyncOnForce:          cfg.FsyncOnForce,
	}

	// map page 0 eagerly: it carries the header, and a fresh file grows to
	// one page here
	headerPage, err := storage.PageByOffset(0)
	if err != nil {
		return nil, multierr.Append(err, storage.Close())
	}
	s.headerPage.Store(headerPage)

	headerBuf := headerPage.Data()
	s.globalModCount.Store(loadInt32(headerBuf, headerGlobalModCountOffset))

	if cfg.FormatVersion != 0 {
		if err := s.verifyFormatVersion(cfg.FormatVersion); err != nil {
			return nil, multierr.Append(err, storage.Close())
		}
	}

	if cfg.UnallocatedRecordsToCheck > 0 {
		if err := s.VerifyUnallocatedRegion(cfg.UnallocatedRecordsToCheck); err != nil {
			s.lg.Error("record store corrupted", zap.String("path", cfg.Path), zap.Error(err))
			return nil, multierr.Append(err, storage.Close())
		}
	}

	maxID, err := s.MaxAllocatedID()
	if err != nil {
		return nil, multierr.Append(err, storage.Close())
	}
	s.cachedMaxAllocatedID.Store(maxID)

	s.lg.Info("opened record store",
		zap.String("path", cfg.Path),
		zap.Int("pageSize", pageSize),
		zap.Int32("allocatedRecords", maxID),
		zap.Int32("globalModCount", s.globalModCount.Load()))
	return s, nil
}

// A fresh store (no records, zero version) gets the expected version stamped;
// anything else must match exactly.
func (s *Store) verifyFormatVersion(expected int32) error {
	storedVersion, err := s.GetVersion()
	if err != nil {
		return err
	}
	allocated, err := s.MaxAllocatedID()
	if err != nil {
		return err
	}
	if storedVersion == 0 && allocated == 0 {
		return s.SetVersion(expected)
	}
	if storedVersion != expected {
		return storeerr.NewVersionMismatch(
			fmt.Sprintf("stored format version(=%d) != expected(=%d)", storedVersion, expected))
	}
	return nil
}

// ==== records operations ==================================================

// AllocateRecord reserves the next record id by CASing the header's
// allocated-records counter. The record's slot content is whatever the
// (zero-initialized) file region holds; callers fill or clean it explicitly.
func (s *Store) AllocateRecord() (int32, error) {
	headerBuf, err := s.headerBuffer()
	if err != nil {
		return NullID, err
	}
	s.dirty.CompareAndSwap(false, true)
	for { // CAS loop:
		allocated := loadInt32(headerBuf, headerRecordsAllocatedOffset)
		newAllocated := allocated + 1
		if casInt32(headerBuf, headerRecordsAllocatedOffset, allocated, newAllocated) {
			return newAllocated, nil
		}
	}
}

// 'one field at a time' operations

func (s *Store) GetParent(recordID int32) (int32, error) {
	return s.getIntField(recordID, parentRefOffset)
}

func (s *Store) SetParent(recordID, parentID int32) error {
	if err := s.checkParentIDIsValid(parentID); err != nil {
		return err
	}
	return s.setIntField(recordID, parentRefOffset, parentID)
}

func (s *Store) GetNameID(recordID int32) (int32, error) {
	return s.getIntField(recordID, nameRefOffset)
}

// UpdateNameID atomically swaps in a new name reference and returns the
// previous one, so the caller can release the old string-table entry.
func (s *Store) UpdateNameID(recordID, nameID int32) (int32, error) {
	if nameID <= NullID {
		return NullID, storeerr.NewInvalidArgument(
			fmt.Sprintf("file[id: %d].nameId(=%d) must be >0", recordID, nameID))
	}
	return s.getAndSetIntField(recordID, nameRefOffset, nameID)
}

func (s *Store) GetFlags(recordID int32) (int32, error) {
	return s.getIntField(recordID, flagsOffset)
}

// SetFlags writes newFlags if it differs from the stored value; returns
// whether anything changed.
func (s *Store) SetFlags(recordID, newFlags int32) (bool, error) {
	buf, recordOffset, err := s.resolveRecord(recordID)
	if err != nil {
		return false, err
	}
	return s.setIntFieldIfChanged(buf, recordOffset, flagsOffset, newFlags), nil
}

func (s *Store) GetAttributeRecordID(recordID int32) (int32, error) {
	return s.getIntField(recordID, attrRefOffset)
}

func (s *Store) SetAttributeRecordID(recordID, attributeRecordID int32) error {
	if err := checkValidIDField(recordID, attributeRecordID, "attributeRecordId"); err != nil {
		return err
	}
	return s.setIntField(recordID, attrRefOffset, attributeRecordID)
}

func (s *Store) GetContentRecordID(recordID int32) (int32, error) {
	return s.getIntField(recordID, contentRefOffset)
}

func (s *Store) SetContentRecordID(recordID, newContentRecordID int32) (bool, error) {
	if err := checkValidIDField(recordID, newContentRecordID, "contentRecordId"); err != nil {
		return false, err
	}
	buf, recordOffset, err := s.resolveRecord(recordID)
	if err != nil {
		return false, err
	}
	return s.setIntFieldIfChanged(buf, recordOffset, contentRefOffset, newContentRecordID), nil
}

func (s *Store) GetModCount(recordID int32) (int32, error) {
	return s.getIntField(recordID, modCountOffset)
}

func (s *Store) GetTimestamp(recordID int32) (int64, error) {
	return s.getLongField(recordID, timestampOffset)
}

func (s *Store) SetTimestamp(recordID int32, newTimestamp int64) (bool, error) {
	buf, recordOffset, err := s.resolveRecord(recordID)
	if err != nil {
		return false, err
	}
	return s.setLongFieldIfChanged(buf, recordOffset, timestampOffset, newTimestamp), nil
}

func (s *Store) GetLength(recordID int32) (int64, error) {
	return s.getLongField(recordID, lengthOffset)
}

func (s *Store) SetLength(recordID int32, newLength int64) (bool, error) {
	buf, recordOffset, err := s.resolveRecord(recordID)
	if err != nil {
		return false, err
	}
	return s.setLongFieldIfChanged(buf, recordOffset, lengthOffset, newLength), nil
}

// FillRecord bulk-initializes the record's core fields in one pass and stamps
// a version. The attribute ref is zeroed only if cleanAttributeRef is set;
// the content ref is zeroed only if the store was opened with
// ClearContentRefOnFill (otherwise a reused slot keeps the stale ref).
func (s *Store) FillRecord(recordID int32, timestamp, length int64, flags, nameID, parentID int32, cleanAttributeRef bool) error {
	if err := s.checkParentIDIsValid(parentID); err != nil {
		return err
	}
	buf, recordOffset, err := s.resolveRecord(recordID)
	if err != nil {
		return err
	}
	storeInt32(buf, recordOffset+parentRefOffset, parentID)
	storeInt32(buf, recordOffset+nameRefOffset, nameID)
	storeInt32(buf, recordOffset+flagsOffset, flags)
	if cleanAttributeRef {
		storeInt32(buf, recordOffset+attrRefOffset, 0)
	}
	if s.clearContentRefOnFill {
		storeInt32(buf, recordOffset+contentRefOffset, 0)
	}
	storeInt64(buf, recordOffset+timestampOffset, timestamp)
	storeInt64(buf, recordOffset+lengthOffset, length)

	s.incrementRecordVersion(buf, recordOffset)
	return nil
}

// MarkRecordAsModified stamps a fresh version into the record without
// touching any other field.
func (s *Store) MarkRecordAsModified(recordID int32) error {
	buf, recordOffset, err := s.resolveRecord(recordID)
	if err != nil {
		return err
	}
	s.incrementRecordVersion(buf, recordOffset)
	return nil
}

// CleanRecord zeroes every field of a valid record, one 4-byte word at a
// time. No version is stamped: a cleaned slot looks like a never-used one.
func (s *Store) CleanRecord(recordID int32) error {
	buf, recordOffset, err := s.resolveRecord(recordID)
	if err != nil {
		return err
	}
	const recordSizeInWords = recordSizeInBytes / 4
	for wordNo := 0; wordNo < recordSizeInWords; wordNo++ {
		storeInt32(buf, recordOffset+wordNo*4, 0)
	}
	return nil
}

// RecordVisitor receives one allocated record's reference fields. The
// corrupted flag is always false on this path; corruption detection happens
// at open time. Returning an error stops the iteration.
type RecordVisitor func(recordID, nameID, flags, parentID, attributeRecordID, contentRecordID int32, corrupted bool) error

// ProcessAllRecords iterates every allocated record from id 1 to the current
// max, in id order.
func (s *Store) ProcessAllRecords(visitor RecordVisitor) error {
	maxID, err := s.MaxAllocatedID()
	if err != nil {
		return err
	}
	for recordID := minValidID; recordID <= maxID; recordID++ {
		buf, recordOffset, err := s.resolveRecord(recordID)
		if err != nil {
			return err
		}
		err = visitor(
			recordID,
			loadInt32(buf, recordOffset+nameRefOffset),
			loadInt32(buf, recordOffset+flagsOffset),
			loadInt32(buf, recordOffset+parentRefOffset),
			loadInt32(buf, recordOffset+attrRefOffset),
			loadInt32(buf, recordOffset+contentRefOffset),
			false,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// ==== storage 'global' properties =========================================

// GetStorageTimestamp returns the header timestamp (last format-version
// change, milliseconds).
func (s *Store) GetStorageTimestamp() (int64, error) {
	return s.getLongHeaderField(headerTimestampOffset)
}

func (s *Store) GetConnectionStatus() (int32, error) {
	return s.getIntHeaderField(headerConnectionStatusOffset)
}

func (s *Store) SetConnectionStatus(connectionStatus int32) error {
	if err := s.setIntHeaderField(headerConnectionStatusOffset, connectionStatus); err != nil {
		return err
	}
	s.dirty.CompareAndSwap(false, true)
	return nil
}

func (s *Store) GetErrorsAccumulated() (int32, error) {
	return s.getIntHeaderField(headerErrorsAccumulatedOffset)
}

func (s *Store) SetErrorsAccumulated(errorsCount int32) error {
	if err := s.setIntHeaderField(headerErrorsAccumulatedOffset, errorsCount); err != nil {
		return err
	}
	s.globalModCount.Add(1)
	s.dirty.CompareAndSwap(false, true)
	return nil
}

func (s *Store) GetVersion() (int32, error) {
	return s.getIntHeaderField(headerVersionOffset)
}

// SetVersion stamps a new format version and the current time into the
// header.
func (s *Store) SetVersion(version int32) error {
	headerBuf, err := s.headerBuffer()
	if err != nil {
		return err
	}
	storeInt32(headerBuf, headerVersionOffset, version)
	storeInt64(headerBuf, headerTimestampOffset, s.clock.Now().UnixMilli())
	s.globalModCount.Add(1)
	s.dirty.CompareAndSwap(false, true)
	return nil
}

// GlobalModCount is the in-memory modification counter; always >= the value
// persisted in the header.
func (s *Store) GlobalModCount() int32 {
	return s.globalModCount.Load()
}

// RecordsCount is the number of allocated records.
func (s *Store) RecordsCount() (int32, error) {
	return s.allocatedRecordsCount()
}

// MaxAllocatedID is the highest valid record id. Ids are assigned from 1
// (0 is NullID), so maxId == allocated records count.
func (s *Store) MaxAllocatedID() (int32, error) {
	return s.allocatedRecordsCount()
}

// IsValidFileID reports whether recordID is within (0, maxAllocatedID].
// The max id only ever grows, so the check is served from a cached value
// first and re-validated against the header only on a miss.
func (s *Store) IsValidFileID(recordID int32) bool {
	if recordID <= NullID {
		return false
	}
	if recordID <= s.cachedMaxAllocatedID.Load() {
		return true
	}
	return s.isValidFileIDStrict(recordID)
}

func (s *Store) isValidFileIDStrict(recordID int32) bool {
	actualMaxID, err := s.refreshMaxAllocatedID()
	if err != nil {
		return false
	}
	return recordID <= actualMaxID
}

// refreshMaxAllocatedID re-reads the true max id from the header and ratchets
// the cache up to it. Fails with a disposed error on a closed store.
func (s *Store) refreshMaxAllocatedID() (int32, error) {
	actualMaxID, err := s.MaxAllocatedID()
	if err != nil {
		return 0, err
	}
	for {
		cached := s.cachedMaxAllocatedID.Load()
		if actualMaxID <= cached || s.cachedMaxAllocatedID.CompareAndSwap(cached, actualMaxID) {
			break
		}
	}
	return actualMaxID, nil
}

// IsDirty reports whether the in-memory mod counter is ahead of the
// persisted header field.
func (s *Store) IsDirty() bool {
	return s.dirty.Load()
}

// Force persists the in-memory global mod count into the header (and fsyncs,
// if configured). Safe to call concurrently with mutations: a counter value
// flushed slightly stale is caught up by the next Force.
func (s *Store) Force() error {
	if s.dirty.CompareAndSwap(true, false) {
		headerBuf, err := s.headerBuffer()
		if err != nil {
			return err
		}
		return s.flushGlobalModCount(headerBuf)
	}
	return nil
}

func (s *Store) flushGlobalModCount(headerBuf []byte) error {
	storeInt32(headerBuf, headerGlobalModCountOffset, s.globalModCount.Load())
	if s.fsyncOnForce {
		return s.storage.Fsync()
	}
	return nil
}

// Close flushes and releases all mappings. Callers must guarantee no other
// operation is in flight. A second Close fails with a disposed error.
func (s *Store) Close() error {
	// swapping the header page out is the one-way disposal transition: the
	// winner still holds the page for the final flush
	headerPage := s.headerPage.Swap(nil)
	if headerPage == nil {
		return storeerr.NewDisposed("record store is already closed")
	}
	var err error
	if s.dirty.CompareAndSwap(true, false) {
		err = s.flushGlobalModCount(headerPage.Data())
	}
	err = multierr.Append(err, s.storage.Close())
	if err == nil {
		s.lg.Info("closed record store")
	}
	return err
}

// CloseAndClean closes the store and deletes the backing file.
func (s *Store) CloseAndClean() error {
	return multierr.Append(s.Close(), s.storage.Remove())
}

// ==== implementation: addressing ==========================================

func (s *Store) recordOffsetInFile(recordID int32) (int64, error) {
	if err := s.checkRecordIDIsValid(recordID); err != nil {
		return 0, err
	}
	return s.geom.recordOffsetInFile(recordID), nil
}

// resolveRecord validates the id and returns the owning page's buffer plus
// the record offset inside it.
func (s *Store) resolveRecord(recordID int32) ([]byte, int, error) {
	offsetInFile, err := s.recordOffsetInFile(recordID)
	if err != nil {
		return nil, 0, err
	}
	page, err := s.storage.PageByOffset(offsetInFile)
	if err != nil {
		return nil, 0, err
	}
	return page.Data(), s.storage.ToOffsetInPage(offsetInFile), nil
}

// checkRecordIDIsValid separates "the store is unusable" from "the id is out
// of range": a disposed (or I/O) failure while consulting the header comes
// back as-is, never disguised as an invalid-argument error.
func (s *Store) checkRecordIDIsValid(recordID int32) error {
	if recordID > NullID && recordID <= s.cachedMaxAllocatedID.Load() {
		return nil
	}
	maxID, err := s.refreshMaxAllocatedID()
	if err != nil {
		return err
	}
	if recordID <= NullID || recordID > maxID {
		return storeerr.NewInvalidArgument(
			fmt.Sprintf("recordId(=%d) is outside of allocated IDs range (0, %d]", recordID, maxID))
	}
	return nil
}

func (s *Store) checkParentIDIsValid(parentID int32) error {
	if parentID == NullID {
		// parentId could be NULL (for root records)
		return nil
	}
	if parentID > NullID && parentID <= s.cachedMaxAllocatedID.Load() {
		return nil
	}
	maxID, err := s.refreshMaxAllocatedID()
	if err != nil {
		return err
	}
	if parentID < NullID || parentID > maxID {
		return storeerr.NewInvalidArgument(
			fmt.Sprintf("parentId(=%d) is outside of allocated IDs range [0, %d]", parentID, maxID))
	}
	return nil
}

func checkValidIDField(recordID, idFieldValue int32, fieldName string) error {
	if idFieldValue < NullID {
		return storeerr.NewInvalidArgument(
			fmt.Sprintf("file[id: %d].%s(=%d) must be >=0", recordID, fieldName, idFieldValue))
	}
	return nil
}

// ==== implementation: record field access =================================

func (s *Store) allocatedRecordsCount() (int32, error) {
	return s.getIntHeaderField(headerRecordsAllocatedOffset)
}

func (s *Store) getIntField(recordID int32, fieldRelativeOffset int) (int32, error) {
	buf, recordOffset, err := s.resolveRecord(recordID)
	if err != nil {
		return 0, err
	}
	return loadInt32(buf, recordOffset+fieldRelativeOffset), nil
}

func (s *Store) setIntField(recordID int32, fieldRelativeOffset int, fieldValue int32) error {
	buf, recordOffset, err := s.resolveRecord(recordID)
	if err != nil {
		return err
	}
	storeInt32(buf, recordOffset+fieldRelativeOffset, fieldValue)
	s.incrementRecordVersion(buf, recordOffset)
	return nil
}

func (s *Store) getAndSetIntField(recordID int32, fieldRelativeOffset int, fieldValue int32) (int32, error) {
	buf, recordOffset, err := s.resolveRecord(recordID)
	if err != nil {
		return 0, err
	}
	previous := swapInt32(buf, recordOffset+fieldRelativeOffset, fieldValue)
	s.incrementRecordVersion(buf, recordOffset)
	return previous, nil
}

func (s *Store) getLongField(recordID int32, fieldRelativeOffset int) (int64, error) {
	buf, recordOffset, err := s.resolveRecord(recordID)
	if err != nil {
		return 0, err
	}
	return loadInt64(buf, recordOffset+fieldRelativeOffset), nil
}

// setIntFieldIfChanged skips the write (and the version stamp) when the
// stored value already equals newValue, avoiding needless CAS traffic and
// file dirtying. Two racing writers can both observe "changed" and both
// write; last write wins.
func (s *Store) setIntFieldIfChanged(buf []byte, recordOffset, fieldRelativeOffset int, newValue int32) bool {
	fieldOffset := recordOffset + fieldRelativeOffset
	oldValue := loadInt32(buf, fieldOffset)
	if oldValue != newValue {
		storeInt32(buf, fieldOffset, newValue)
		s.incrementRecordVersion(buf, recordOffset)
		return true
	}
	return false
}

func (s *Store) setLongFieldIfChanged(buf []byte, recordOffset, fieldRelativeOffset int, newValue int64) bool {
	fieldOffset := recordOffset + fieldRelativeOffset
	oldValue := loadInt64(buf, fieldOffset)
	if oldValue != newValue {
		storeInt64(buf, fieldOffset, newValue)
		s.incrementRecordVersion(buf, recordOffset)
		return true
	}
	return false
}

// incrementRecordVersion advances the global mod counter and stamps the new
// value into the record, then marks the store dirty.
func (s *Store) incrementRecordVersion(buf []byte, recordOffset int) {
	storeInt32(buf, recordOffset+modCountOffset, s.globalModCount.Add(1))
	s.dirty.CompareAndSwap(false, true)
}

// ==== header field access =================================================

func (s *Store) headerBuffer() ([]byte, error) {
	page := s.headerPage.Load()
	if page == nil {
		return nil, storeerr.NewDisposed("record store is already closed")
	}
	return page.Data(), nil
}

func checkHeaderOffset(headerRelativeOffset int) error {
	if headerRelativeOffset < 0 || headerRelativeOffset >= headerSize {
		return storeerr.NewInvalidArgument(
			fmt.Sprintf("headerFieldOffset(=%d) is outside of header [0, %d)", headerRelativeOffset, headerSize))
	}
	return nil
}

func (s *Store) getIntHeaderField(headerRelativeOffset int) (int32, error) {
	if err := checkHeaderOffset(headerRelativeOffset); err != nil {
		return 0, err
	}
	headerBuf, err := s.headerBuffer()
	if err != nil {
		return 0, err
	}
	return loadInt32(headerBuf, headerRelativeOffset), nil
}

func (s *Store) setIntHeaderField(headerRelativeOffset int, headerValue int32) error {
	if err := checkHeaderOffset(headerRelativeOffset); err != nil {
		return err
	}
	headerBuf, err := s.headerBuffer()
	if err != nil {
		return err
	}
	storeInt32(headerBuf, headerRelativeOffset, headerValue)
	return nil
}

func (s *Store) getLongHeaderField(headerRelativeOffset int) (int64, error) {
	if err := checkHeaderOffset(headerRelativeOffset); err != nil {
		return 0, err
	}
	headerBuf, err := s.headerBuffer()
	if err != nil {
		return 0, err
	}
	return loadInt64(headerBuf, headerRelativeOffset), nil
}
