package records

// On-disk layout.
//
// The file starts with a fixed-size header on page 0; records follow it on
// the same page and continue on subsequent full pages. All multi-byte fields
// are native-endian (field access goes through CPU atomics, which are
// native-endian by construction).
//
// | header | record 1 | record 2 | ... (page 0)
// | record k | record k+1 | ...          (page 1..)

// Header field offsets, bytes from the start of the file.
const (
	headerVersionOffset           = 0  // int32: storage format version
	headerGlobalModCountOffset    = 4  // int32: last flushed global mod count
	headerConnectionStatusOffset  = 8  // int32
	headerErrorsAccumulatedOffset = 12 // int32
	headerTimestampOffset         = 16 // int64: last format-version change, ms
	headerRecordsAllocatedOffset  = 24 // int32: allocated records count

	// headerSize is 8-aligned so the int64 record fields after it stay
	// 8-aligned too; the tail past the last field is reserved, always zero.
	headerSize = 64
)

// Record field offsets, bytes from the start of a record slot.
// The two int64 fields come after the six int32 fields to keep them 8-byte
// aligned (required for atomic access).
const (
	parentRefOffset  = 0  // int32
	nameRefOffset    = 4  // int32
	flagsOffset      = 8  // int32
	attrRefOffset    = 12 // int32
	contentRefOffset = 16 // int32
	modCountOffset   = 20 // int32
	timestampOffset  = 24 // int64
	lengthOffset     = 32 // int64

	recordSizeInBytes = 40
)

// NullID is the reserved "no record" id; valid ids start at 1.
const NullID int32 = 0

const minValidID int32 = 1

// geometry captures the page/record arithmetic of one open store.
// Page 0 carries the header, so it holds fewer whole records than the rest.
type geometry struct {
	pageSize            int
	recordsPerPage      int
	recordsOnHeaderPage int
}

func newGeometry(pageSize int) geometry {
	return geometry{
		pageSize:            pageSize,
		recordsPerPage:      pageSize / recordSizeInBytes,
		recordsOnHeaderPage: (pageSize - headerSize) / recordSizeInBytes,
	}
}

// recordOffsetInFile computes the byte offset of a record slot, without id
// bounds checking. Records are 1-based.
//
// Records on the header page sit right after the header. For the rest, the
// offset is computed as if there were no header, and then corrected: the
// header "pushes out" (recordsPerPage - recordsOnHeaderPage) records onto
// subsequent pages, which can roll the last partial page over into one more
// full page. The correction is always a whole page's worth of records, never
// a partial shift.
func (g geometry) recordOffsetInFile(recordID int32) int64 {
	// recordID is 1-based, convert to 0-based recordNo:
	recordNo := int64(recordID - 1)

	if recordNo < int64(g.recordsOnHeaderPage) {
		return headerSize + recordNo*recordSizeInBytes
	}

	// as-if there were no header:
	fullPages := recordNo / int64(g.recordsPerPage)
	recordsOnLastPage := recordNo % int64(g.recordsPerPage)

	recordsExcessBecauseOfHeader := int64(g.recordsPerPage - g.recordsOnHeaderPage)

	// the last page could turn into +1 page:
	recordsReallyOnLastPage := recordsOnLastPage + recordsExcessBecauseOfHeader
	return (fullPages+recordsReallyOnLastPage/int64(g.recordsPerPage))*int64(g.pageSize) +
		(recordsReallyOnLastPage%int64(g.recordsPerPage))*recordSizeInBytes
}
