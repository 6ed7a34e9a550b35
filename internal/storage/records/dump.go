package records

import (
	"encoding/hex"
	"fmt"
	"strings"

	storeerr "govetachun/go-record-store/pkg/errors"
)

// VerifyUnallocatedRegion scans recordsToCheck record slots immediately past
// the allocated region and fails with a corruption error if any byte there is
// non-zero. Unallocated regions of a freshly grown, zero-initialized file
// must be all-zero; anything else means a race in concurrent growth or a
// prior crash mid-write, and must not be trusted as valid records. Open runs
// this automatically unless disabled.
func (s *Store) VerifyUnallocatedRegion(recordsToCheck int) error {
	maxAllocatedID, err := s.MaxAllocatedID()
	if err != nil {
		return err
	}
	firstUnallocatedID := maxAllocatedID + 1
	unallocatedStartInFile := s.geom.recordOffsetInFile(firstUnallocatedID)
	if unallocatedStartInFile >= s.storage.ActualFileSize() {
		return nil // un-allocated file region is definitely empty
	}

	page, err := s.storage.PageByOffset(unallocatedStartInFile)
	if err != nil {
		return err
	}
	buf := page.Data()
	unallocatedStartOnPage := s.storage.ToOffsetInPage(unallocatedStartInFile)

	maxBytesRemainingOnPage := len(buf) - unallocatedStartOnPage
	bytesToCheck := min(recordsToCheck*recordSizeInBytes, maxBytesRemainingOnPage)

	firstNonZero := firstNonZeroByteOffset(buf, unallocatedStartOnPage, bytesToCheck)
	if firstNonZero < 0 {
		return nil
	}

	// a non-zero record was found: widen the scan (bounded, a full page scan
	// would be too slow) to estimate how far the corruption extends
	bytesToCheckAdditionally := min(maxBytesRemainingOnPage, 1<<16)
	lastNonZero := lastNonZeroByteOffset(buf, unallocatedStartOnPage, bytesToCheckAdditionally)
	nonZeroBytesBeyondEOF := lastNonZero - unallocatedStartOnPage + 1
	nonZeroRecordsCount := nonZeroBytesBeyondEOF/recordSizeInBytes + 1

	dump, dumpErr := s.DumpRecordsAsHex(firstUnallocatedID, firstUnallocatedID+int32(recordsToCheck))
	if dumpErr != nil {
		dump = fmt.Sprintf("<dump failed: %v>", dumpErr)
	}
	return storeerr.NewCorrupted(
		fmt.Sprintf("non-empty records detected beyond current EOF => storage is corrupted\n"+
			"\tmax allocated id(=%d)\n"+
			"\tfirst un-allocated offset: %d\n"+
			"\tcontent beyond allocated region(%d records max):\n%s\n"+
			"=%d total non-zero records on the page, in range [%d..%d)",
			maxAllocatedID, unallocatedStartInFile, recordsToCheck, dump,
			nonZeroRecordsCount, unallocatedStartInFile, unallocatedStartInFile+int64(nonZeroBytesBeyondEOF)),
		nil)
}

// firstNonZeroByteOffset returns the offset of the first non-zero byte in
// [startingOffset, startingOffset+maxBytesToCheck), or -1 if all are zero.
func firstNonZeroByteOffset(buf []byte, startingOffset, maxBytesToCheck int) int {
	for i := 0; i < maxBytesToCheck; i++ {
		if buf[startingOffset+i] != 0 {
			return startingOffset + i
		}
	}
	return -1
}

// lastNonZeroByteOffset returns the offset of the last non-zero byte in
// [startingOffset, startingOffset+maxBytesToCheck), or -1 if all are zero.
func lastNonZeroByteOffset(buf []byte, startingOffset, maxBytesToCheck int) int {
	lastNonZero := -1
	for i := 0; i < maxBytesToCheck; i++ {
		if buf[startingOffset+i] != 0 {
			lastNonZero = startingOffset + i
		}
	}
	return lastNonZero
}

// DumpRecordsAsHex renders records [firstRecordID..lastRecordID] (both ends
// inclusive) hex-formatted, one per line. For monitoring and corruption
// reports; ids outside the file are rendered as markers, not errors.
func (s *Store) DumpRecordsAsHex(firstRecordID, lastRecordID int32) (string, error) {
	if firstRecordID > lastRecordID {
		return fmt.Sprintf("<no records in range %d .. %d>", firstRecordID, lastRecordID), nil
	}
	maxAllocatedID, err := s.MaxAllocatedID()
	if err != nil {
		return "", err
	}
	actualFileSize := s.storage.ActualFileSize()
	var sb strings.Builder
	for recordID := firstRecordID; recordID <= lastRecordID; recordID++ {
		var recordAsHex string
		if recordID == NullID {
			recordAsHex = "<header>"
		} else {
			recordOffsetInFile := s.geom.recordOffsetInFile(recordID)
			if recordOffsetInFile >= actualFileSize {
				recordAsHex = "<EOF: outside of allocated file region>"
			} else {
				page, err := s.storage.PageByOffset(recordOffsetInFile)
				if err != nil {
					return "", err
				}
				recordOffsetInPage := s.storage.ToOffsetInPage(recordOffsetInFile)
				recordAsHex = hex.EncodeToString(page.Data()[recordOffsetInPage : recordOffsetInPage+recordSizeInBytes])
			}
		}
		fmt.Fprintf(&sb, "[#%06d/max=%06d]: %s\n", recordID, maxAllocatedID, recordAsHex)
	}
	return sb.String(), nil
}
