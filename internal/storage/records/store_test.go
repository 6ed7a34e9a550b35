package records

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storeerr "govetachun/go-record-store/pkg/errors"
)

func openTestStore(t *testing.T, cfg Config) *Store {
	t.Helper()
	if cfg.Path == "" {
		cfg.Path = filepath.Join(t.TempDir(), "records.data")
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = os.Getpagesize()
	}
	store, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func allocate(t *testing.T, store *Store) int32 {
	t.Helper()
	id, err := store.AllocateRecord()
	require.NoError(t, err)
	return id
}

func TestAllocateRecordAssignsSequentialIDs(t *testing.T) {
	store := openTestStore(t, Config{})
	for want := int32(1); want <= 10; want++ {
		assert.Equal(t, want, allocate(t, store))
	}
	count, err := store.RecordsCount()
	require.NoError(t, err)
	assert.EqualValues(t, 10, count)
}

func TestFieldRoundTrip(t *testing.T) {
	store := openTestStore(t, Config{})
	id := allocate(t, store)
	parent := allocate(t, store)

	require.NoError(t, store.SetParent(id, parent))
	got, err := store.GetParent(id)
	require.NoError(t, err)
	assert.Equal(t, parent, got)

	prev, err := store.UpdateNameID(id, 77)
	require.NoError(t, err)
	assert.EqualValues(t, 0, prev)
	nameID, err := store.GetNameID(id)
	require.NoError(t, err)
	assert.EqualValues(t, 77, nameID)

	require.NoError(t, store.SetAttributeRecordID(id, 5))
	attrID, err := store.GetAttributeRecordID(id)
	require.NoError(t, err)
	assert.EqualValues(t, 5, attrID)

	changed, err := store.SetContentRecordID(id, 9)
	require.NoError(t, err)
	assert.True(t, changed)
	contentID, err := store.GetContentRecordID(id)
	require.NoError(t, err)
	assert.EqualValues(t, 9, contentID)

	for _, flags := range []int32{0, -1, 1, math.MaxInt32} {
		_, err := store.SetFlags(id, flags)
		require.NoError(t, err)
		got, err := store.GetFlags(id)
		require.NoError(t, err)
		assert.Equal(t, flags, got)
	}
	for _, length := range []int64{0, -1, 1, math.MaxInt64} {
		_, err := store.SetLength(id, length)
		require.NoError(t, err)
		got, err := store.GetLength(id)
		require.NoError(t, err)
		assert.Equal(t, length, got)
	}
	for _, ts := range []int64{0, -1, 1, math.MaxInt64} {
		_, err := store.SetTimestamp(id, ts)
		require.NoError(t, err)
		got, err := store.GetTimestamp(id)
		require.NoError(t, err)
		assert.Equal(t, ts, got)
	}
}

func TestSetIfChangedIsIdempotent(t *testing.T) {
	store := openTestStore(t, Config{})
	id := allocate(t, store)

	changed, err := store.SetLength(id, 42)
	require.NoError(t, err)
	require.True(t, changed)
	modCountAfterFirst, err := store.GetModCount(id)
	require.NoError(t, err)
	globalAfterFirst := store.GlobalModCount()

	// second write of the same value is a full no-op
	changed, err = store.SetLength(id, 42)
	require.NoError(t, err)
	assert.False(t, changed)
	modCount, err := store.GetModCount(id)
	require.NoError(t, err)
	assert.Equal(t, modCountAfterFirst, modCount)
	assert.Equal(t, globalAfterFirst, store.GlobalModCount())

	// and after a flush it does not re-dirty the store
	require.NoError(t, store.Force())
	require.False(t, store.IsDirty())
	changed, err = store.SetLength(id, 42)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.False(t, store.IsDirty())
}

func TestVersionStamping(t *testing.T) {
	store := openTestStore(t, Config{})
	id := allocate(t, store)

	_, err := store.SetFlags(id, 1)
	require.NoError(t, err)
	modCount, err := store.GetModCount(id)
	require.NoError(t, err)
	assert.Equal(t, store.GlobalModCount(), modCount)

	other := allocate(t, store)
	_, err = store.SetTimestamp(other, 123)
	require.NoError(t, err)
	otherModCount, err := store.GetModCount(other)
	require.NoError(t, err)
	assert.Greater(t, otherModCount, modCount)
	assert.LessOrEqual(t, otherModCount, store.GlobalModCount())

	require.NoError(t, store.MarkRecordAsModified(id))
	stamped, err := store.GetModCount(id)
	require.NoError(t, err)
	assert.Greater(t, stamped, otherModCount)
}

func TestInvalidIDsAreRejected(t *testing.T) {
	store := openTestStore(t, Config{})
	id := allocate(t, store)

	_, err := store.GetFlags(0)
	assert.True(t, errors.Is(err, storeerr.ErrInvalidArgument))
	_, err = store.GetFlags(-3)
	assert.True(t, errors.Is(err, storeerr.ErrInvalidArgument))
	_, err = store.GetFlags(id + 1)
	assert.True(t, errors.Is(err, storeerr.ErrInvalidArgument))

	// negative reference fields are invalid arguments too
	err = store.SetAttributeRecordID(id, -1)
	assert.True(t, errors.Is(err, storeerr.ErrInvalidArgument))
	_, err = store.SetContentRecordID(id, -1)
	assert.True(t, errors.Is(err, storeerr.ErrInvalidArgument))
	_, err = store.UpdateNameID(id, 0)
	assert.True(t, errors.Is(err, storeerr.ErrInvalidArgument))
	err = store.SetParent(id, id+100)
	assert.True(t, errors.Is(err, storeerr.ErrInvalidArgument))

	// parent 0 means root and is fine
	assert.NoError(t, store.SetParent(id, NullID))
}

func TestIsValidFileID(t *testing.T) {
	store := openTestStore(t, Config{})

	assert.False(t, store.IsValidFileID(0))
	assert.False(t, store.IsValidFileID(-1))
	assert.False(t, store.IsValidFileID(1))

	id := allocate(t, store)
	assert.True(t, store.IsValidFileID(id))
	assert.False(t, store.IsValidFileID(id+1))

	next := allocate(t, store)
	assert.True(t, store.IsValidFileID(next))
}

func TestFillRecord(t *testing.T) {
	store := openTestStore(t, Config{})
	parent := allocate(t, store)
	id := allocate(t, store)

	require.NoError(t, store.SetAttributeRecordID(id, 11))
	changed, err := store.SetContentRecordID(id, 22)
	require.NoError(t, err)
	require.True(t, changed)

	require.NoError(t, store.FillRecord(id, 1234, 5678, 3, 44, parent, false))

	ts, _ := store.GetTimestamp(id)
	length, _ := store.GetLength(id)
	flags, _ := store.GetFlags(id)
	nameID, _ := store.GetNameID(id)
	parentID, _ := store.GetParent(id)
	attrID, _ := store.GetAttributeRecordID(id)
	contentID, _ := store.GetContentRecordID(id)
	modCount, _ := store.GetModCount(id)

	assert.EqualValues(t, 1234, ts)
	assert.EqualValues(t, 5678, length)
	assert.EqualValues(t, 3, flags)
	assert.EqualValues(t, 44, nameID)
	assert.Equal(t, parent, parentID)
	assert.EqualValues(t, 11, attrID, "attribute ref is preserved without cleanAttributeRef")
	assert.EqualValues(t, 22, contentID, "content ref is preserved by default")
	assert.Equal(t, store.GlobalModCount(), modCount, "fill always stamps a version")

	// cleanAttributeRef zeroes the attribute ref in the same pass
	require.NoError(t, store.FillRecord(id, 1234, 5678, 3, 44, parent, true))
	attrID, _ = store.GetAttributeRecordID(id)
	assert.EqualValues(t, 0, attrID)
}

func TestFillRecordClearContentRefPolicy(t *testing.T) {
	store := openTestStore(t, Config{ClearContentRefOnFill: true})
	id := allocate(t, store)

	changed, err := store.SetContentRecordID(id, 22)
	require.NoError(t, err)
	require.True(t, changed)

	require.NoError(t, store.FillRecord(id, 1, 2, 3, 4, NullID, false))
	contentID, err := store.GetContentRecordID(id)
	require.NoError(t, err)
	assert.EqualValues(t, 0, contentID)
}

func TestCleanRecordZeroesEverything(t *testing.T) {
	store := openTestStore(t, Config{})
	id := allocate(t, store)
	require.NoError(t, store.FillRecord(id, 111, 222, 3, 4, NullID, false))

	require.NoError(t, store.CleanRecord(id))

	parentID, _ := store.GetParent(id)
	nameID, _ := store.GetNameID(id)
	flags, _ := store.GetFlags(id)
	attrID, _ := store.GetAttributeRecordID(id)
	contentID, _ := store.GetContentRecordID(id)
	modCount, _ := store.GetModCount(id)
	ts, _ := store.GetTimestamp(id)
	length, _ := store.GetLength(id)
	assert.Zero(t, parentID)
	assert.Zero(t, nameID)
	assert.Zero(t, flags)
	assert.Zero(t, attrID)
	assert.Zero(t, contentID)
	assert.Zero(t, modCount)
	assert.Zero(t, ts)
	assert.Zero(t, length)
}

func TestProcessAllRecords(t *testing.T) {
	store := openTestStore(t, Config{})
	for i := int32(1); i <= 3; i++ {
		id := allocate(t, store)
		require.NoError(t, store.FillRecord(id, int64(i), int64(i), i*10, i*100, NullID, false))
	}

	var visited []int32
	err := store.ProcessAllRecords(func(recordID, nameID, flags, parentID, attrID, contentID int32, corrupted bool) error {
		visited = append(visited, recordID)
		assert.Equal(t, recordID*100, nameID)
		assert.Equal(t, recordID*10, flags)
		assert.Zero(t, parentID)
		assert.False(t, corrupted)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 2, 3}, visited)

	// visitor errors stop the iteration
	stop := errors.New("stop")
	var count int
	err = store.ProcessAllRecords(func(recordID, nameID, flags, parentID, attrID, contentID int32, corrupted bool) error {
		count++
		if recordID == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, count)
}

func TestReadAndUpdateRecordAccessors(t *testing.T) {
	store := openTestStore(t, Config{})

	// sentinel id allocates a fresh record
	id, err := store.UpdateRecord(NullID, func(r *RecordAccessor) (bool, error) {
		require.NoError(t, r.SetNameID(10))
		r.SetFlags(3)
		r.SetLength(100)
		return true, nil
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, id)

	err = store.ReadRecord(id, func(r *RecordAccessor) error {
		assert.Equal(t, id, r.RecordID())
		assert.EqualValues(t, 10, r.GetNameID())
		assert.EqualValues(t, 3, r.GetFlags())
		assert.EqualValues(t, 100, r.GetLength())
		assert.Equal(t, store.GlobalModCount(), r.GetModCount())
		return nil
	})
	require.NoError(t, err)

	// an update that reports no change leaves the version alone
	modCount, err := store.GetModCount(id)
	require.NoError(t, err)
	_, err = store.UpdateRecord(id, func(r *RecordAccessor) (bool, error) {
		return r.SetFlags(3), nil // same value
	})
	require.NoError(t, err)
	after, err := store.GetModCount(id)
	require.NoError(t, err)
	assert.Equal(t, modCount, after)
}

func TestForceFlushesGlobalModCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.data")
	store := openTestStore(t, Config{Path: path})
	id := allocate(t, store)
	_, err := store.SetLength(id, 7)
	require.NoError(t, err)

	require.True(t, store.IsDirty())
	modCount := store.GlobalModCount()
	require.NoError(t, store.Force())
	assert.False(t, store.IsDirty())

	persisted, err := store.getIntHeaderField(headerGlobalModCountOffset)
	require.NoError(t, err)
	assert.Equal(t, modCount, persisted)

	// a clean store's Force is a no-op
	require.NoError(t, store.Force())
	assert.False(t, store.IsDirty())
}

func TestStatePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.data")
	pageSize := os.Getpagesize()

	store, err := Open(Config{Path: path, PageSize: pageSize})
	require.NoError(t, err)
	id, err := store.AllocateRecord()
	require.NoError(t, err)
	require.NoError(t, store.FillRecord(id, 111, 222, 3, 4, NullID, false))
	modCount := store.GlobalModCount()
	require.NoError(t, store.Close())

	store, err = Open(Config{Path: path, PageSize: pageSize})
	require.NoError(t, err)
	defer store.Close()

	count, err := store.RecordsCount()
	require.NoError(t, err)
	assert.Equal(t, id, count)
	assert.Equal(t, modCount, store.GlobalModCount(), "mod count is loaded from the header")
	assert.False(t, store.IsDirty())

	ts, err := store.GetTimestamp(id)
	require.NoError(t, err)
	assert.EqualValues(t, 111, ts)
	length, err := store.GetLength(id)
	require.NoError(t, err)
	assert.EqualValues(t, 222, length)
}

func TestHeaderAccessors(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	store := openTestStore(t, Config{Clock: clockwork.NewFakeClockAt(now)})

	require.NoError(t, store.SetConnectionStatus(42))
	status, err := store.GetConnectionStatus()
	require.NoError(t, err)
	assert.EqualValues(t, 42, status)

	require.NoError(t, store.SetErrorsAccumulated(3))
	errCount, err := store.GetErrorsAccumulated()
	require.NoError(t, err)
	assert.EqualValues(t, 3, errCount)

	require.NoError(t, store.SetVersion(7))
	version, err := store.GetVersion()
	require.NoError(t, err)
	assert.EqualValues(t, 7, version)
	ts, err := store.GetStorageTimestamp()
	require.NoError(t, err)
	assert.Equal(t, now.UnixMilli(), ts, "SetVersion stamps the clock's time")

	// the façade sees the same state
	err = store.ReadHeader(func(h *HeaderAccessor) error {
		v, err := h.GetVersion()
		require.NoError(t, err)
		assert.EqualValues(t, 7, v)
		s, err := h.GetConnectionStatus()
		require.NoError(t, err)
		assert.EqualValues(t, 42, s)
		assert.Equal(t, store.GlobalModCount(), h.GetGlobalModCount())
		return nil
	})
	require.NoError(t, err)

	before := store.GlobalModCount()
	err = store.UpdateHeader(func(h *HeaderAccessor) (bool, error) {
		return true, h.SetConnectionStatus(43)
	})
	require.NoError(t, err)
	assert.Greater(t, store.GlobalModCount(), before)
	assert.True(t, store.IsDirty())
}

func TestFormatVersionIsVerifiedOnReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.data")
	pageSize := os.Getpagesize()

	store, err := Open(Config{Path: path, PageSize: pageSize, FormatVersion: 7})
	require.NoError(t, err)
	version, err := store.GetVersion()
	require.NoError(t, err)
	assert.EqualValues(t, 7, version, "fresh store gets the expected version stamped")
	require.NoError(t, store.Close())

	_, err = Open(Config{Path: path, PageSize: pageSize, FormatVersion: 8})
	require.Error(t, err)
	assert.True(t, errors.Is(err, storeerr.ErrVersionMismatch))

	store, err = Open(Config{Path: path, PageSize: pageSize, FormatVersion: 7})
	require.NoError(t, err)
	require.NoError(t, store.Close())
}

func TestOperationsAfterCloseFail(t *testing.T) {
	store := openTestStore(t, Config{})
	id := allocate(t, store)
	require.NoError(t, store.Close())

	_, err := store.AllocateRecord()
	assert.True(t, errors.Is(err, storeerr.ErrDisposed))

	// record operations report the store's disposal, not a bogus
	// "id out of range"
	_, err = store.GetFlags(id)
	assert.True(t, errors.Is(err, storeerr.ErrDisposed))
	assert.False(t, errors.Is(err, storeerr.ErrInvalidArgument))
	_, err = store.SetLength(id, 1)
	assert.True(t, errors.Is(err, storeerr.ErrDisposed))
	err = store.SetParent(id, id)
	assert.True(t, errors.Is(err, storeerr.ErrDisposed), "parent validation surfaces disposal too")

	_, err = store.GetVersion()
	assert.True(t, errors.Is(err, storeerr.ErrDisposed))
	assert.False(t, store.IsValidFileID(id+1))
	assert.True(t, errors.Is(store.Close(), storeerr.ErrDisposed), "second close reports disposed")
}

func TestCloseAndCleanDeletesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.data")
	store, err := Open(Config{Path: path, PageSize: os.Getpagesize()})
	require.NoError(t, err)

	require.NoError(t, store.CloseAndClean())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestDumpRecordsAsHex(t *testing.T) {
	store := openTestStore(t, Config{})
	id := allocate(t, store)
	_, err := store.SetFlags(id, 0x0102)
	require.NoError(t, err)

	dump, err := store.DumpRecordsAsHex(0, id+1)
	require.NoError(t, err)
	assert.Contains(t, dump, "<header>")
	assert.Contains(t, dump, "[#000001/max=000001]")
	assert.NotContains(t, dump, "<EOF", "allocated record and its page-mates are inside the file")

	empty, err := store.DumpRecordsAsHex(5, 3)
	require.NoError(t, err)
	assert.Contains(t, empty, "<no records in range")
}
