package records

import (
	"sync/atomic"
	"unsafe"
)

// Atomic views into a mapped page's byte slice. These are the record store's
// only way of touching page memory: every field read/write is an acquire/
// release operation, and record allocation CASes the header counter in place.
// Offsets must be 4-aligned for int32 access and 8-aligned for int64 access;
// the layout constants guarantee that for every field of every record.

func loadInt32(buf []byte, offset int) int32 {
	return atomic.LoadInt32((*int32)(unsafe.Pointer(&buf[offset])))
}

func storeInt32(buf []byte, offset int, value int32) {
	atomic.StoreInt32((*int32)(unsafe.Pointer(&buf[offset])), value)
}

func swapInt32(buf []byte, offset int, value int32) int32 {
	return atomic.SwapInt32((*int32)(unsafe.Pointer(&buf[offset])), value)
}

func casInt32(buf []byte, offset int, old, new int32) bool {
	return atomic.CompareAndSwapInt32((*int32)(unsafe.Pointer(&buf[offset])), old, new)
}

func loadInt64(buf []byte, offset int) int64 {
	return atomic.LoadInt64((*int64)(unsafe.Pointer(&buf[offset])))
}

func storeInt64(buf []byte, offset int, value int64) {
	atomic.StoreInt64((*int64)(unsafe.Pointer(&buf[offset])), value)
}
