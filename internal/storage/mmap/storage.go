// Package mmap provides fixed-size, page-aligned memory-mapped windows over
// a single backing file. The file is grown on demand in whole pages, so its
// size is always a multiple of the page size regardless of how much of the
// last page is logically in use. Freshly grown regions are zero-filled by the
// OS, which upper layers rely on for their corruption self-checks.
package mmap

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	storeerr "govetachun/go-record-store/pkg/errors"
	"govetachun/go-record-store/pkg/utils"
)

// DefaultPageSize is 64MiB, large enough that most stores live on 1-2 pages.
const DefaultPageSize = 1 << 26

// Config describes how to open a Storage.
type Config struct {
	Path string
	// PageSize must be a positive multiple of the OS page size.
	// Defaults to DefaultPageSize.
	PageSize int
	Logger   *zap.Logger
}

func (c Config) withDefaults() Config {
	if c.PageSize == 0 {
		c.PageSize = DefaultPageSize
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

// Page is one fixed-size mapped window. The byte slice aliases the file
// content directly: writes through it are writes to the page cache.
type Page struct {
	offsetInFile int64
	data         []byte
}

// Data returns the raw page bytes. The slice stays valid until the owning
// Storage is closed.
func (p *Page) Data() []byte { return p.data }

// OffsetInFile returns the file offset the page starts at.
func (p *Page) OffsetInFile() int64 { return p.offsetInFile }

// Storage owns the backing file handle and all page mappings.
type Storage struct {
	path     string
	pageSize int
	lg       *zap.Logger

	fp       *os.File
	fileSize atomic.Int64

	mu     sync.RWMutex
	pages  []*Page // index = page number, nil until first mapped
	closed bool
}

// Open opens (or creates) the backing file. No page is mapped yet; the first
// PageByOffset call maps (and if needed grows) the file.
func Open(cfg Config) (*Storage, error) {
	cfg = cfg.withDefaults()
	osPageSize := os.Getpagesize()
	if cfg.PageSize <= 0 || cfg.PageSize%osPageSize != 0 {
		return nil, storeerr.NewInvalidArgument(
			fmt.Sprintf("pageSize(=%d) must be a positive multiple of the OS page size(=%d)", cfg.PageSize, osPageSize))
	}

	fp, err := os.OpenFile(cfg.Path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, storeerr.NewIO(fmt.Sprintf("open %s", cfg.Path), err)
	}
	fi, err := fp.Stat()
	if err != nil {
		_ = fp.Close()
		return nil, storeerr.NewIO(fmt.Sprintf("stat %s", cfg.Path), err)
	}
	if fi.Size()%int64(cfg.PageSize) != 0 {
		_ = fp.Close()
		return nil, storeerr.NewCorrupted(
			fmt.Sprintf("file %s size(=%d) is not a multiple of page size(=%d)", cfg.Path, fi.Size(), cfg.PageSize), nil)
	}

	s := &Storage{
		path:     cfg.Path,
		pageSize: cfg.PageSize,
		lg:       cfg.Logger,
		fp:       fp,
	}
	s.fileSize.Store(fi.Size())
	s.lg.Debug("opened mapped storage",
		zap.String("path", cfg.Path),
		zap.Int("pageSize", cfg.PageSize),
		zap.Int64("fileSize", fi.Size()))
	return s, nil
}

// PageSize returns the configured page size.
func (s *Storage) PageSize() int { return s.pageSize }

// ActualFileSize reports the current backing file length. Always a multiple
// of the page size.
func (s *Storage) ActualFileSize() int64 { return s.fileSize.Load() }

// ToOffsetInPage converts a file offset to an offset inside its page.
func (s *Storage) ToOffsetInPage(offsetInFile int64) int {
	return int(offsetInFile % int64(s.pageSize))
}

// PageByOffset returns the page covering offsetInFile, mapping it on first
// access. The file is grown (page-aligned) if the offset lies beyond the
// current length.
func (s *Storage) PageByOffset(offsetInFile int64) (*Page, error) {
	if offsetInFile < 0 {
		return nil, storeerr.NewInvalidArgument(fmt.Sprintf("offsetInFile(=%d) must be >=0", offsetInFile))
	}
	pageNo := int(offsetInFile / int64(s.pageSize))

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, storeerr.NewDisposed("mapped storage is already closed")
	}
	if pageNo < len(s.pages) && s.pages[pageNo] != nil {
		page := s.pages[pageNo]
		s.mu.RUnlock()
		return page, nil
	}
	s.mu.RUnlock()

	return s.mapPage(pageNo)
}

func (s *Storage) mapPage(pageNo int) (*Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, storeerr.NewDisposed("mapped storage is already closed")
	}
	if pageNo < len(s.pages) && s.pages[pageNo] != nil {
		return s.pages[pageNo], nil
	}

	pageOffset := int64(pageNo) * int64(s.pageSize)
	if err := s.ensureFileSize(pageOffset + int64(s.pageSize)); err != nil {
		return nil, err
	}

	data, err := unix.Mmap(int(s.fp.Fd()), pageOffset, s.pageSize,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, storeerr.NewIO(fmt.Sprintf("mmap page #%d of %s", pageNo, s.path), err)
	}
	utils.Assert(len(data) == s.pageSize, "mapped chunk size == pageSize")

	for len(s.pages) <= pageNo {
		s.pages = append(s.pages, nil)
	}
	page := &Page{offsetInFile: pageOffset, data: data}
	s.pages[pageNo] = page
	s.lg.Debug("mapped page", zap.Int("pageNo", pageNo), zap.Int64("offset", pageOffset))
	return page, nil
}

// extend the file to at least size bytes, keeping length page-aligned.
// Regions added by fallocate/ftruncate read as zeroes.
func (s *Storage) ensureFileSize(size int64) error {
	if s.fileSize.Load() >= size {
		return nil
	}
	utils.Assert(size%int64(s.pageSize) == 0, "file growth must be page-aligned")
	err := unix.Fallocate(int(s.fp.Fd()), 0, 0, size)
	if err != nil {
		// not every filesystem supports fallocate
		if err == unix.ENOTSUP || err == unix.EINTR {
			err = s.fp.Truncate(size)
		}
	}
	if err != nil {
		return storeerr.NewIO(fmt.Sprintf("grow %s to %d bytes", s.path, size), err)
	}
	s.fileSize.Store(size)
	return nil
}

// Fsync flushes all mapped pages and the file to durable storage.
func (s *Storage) Fsync() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return storeerr.NewDisposed("mapped storage is already closed")
	}
	for pageNo, page := range s.pages {
		if page == nil {
			continue
		}
		if err := unix.Msync(page.data, unix.MS_SYNC); err != nil {
			return storeerr.NewIO(fmt.Sprintf("msync page #%d of %s", pageNo, s.path), err)
		}
	}
	if err := s.fp.Sync(); err != nil {
		return storeerr.NewIO(fmt.Sprintf("fsync %s", s.path), err)
	}
	return nil
}

// Close unmaps every page and closes the file. Any page slice obtained before
// is invalid afterwards; subsequent operations fail with a disposed error.
// Close is idempotent.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	for pageNo, page := range s.pages {
		if page == nil {
			continue
		}
		if merr := unix.Munmap(page.data); merr != nil {
			err = multierr.Append(err, storeerr.NewIO(fmt.Sprintf("munmap page #%d of %s", pageNo, s.path), merr))
		}
		s.pages[pageNo] = nil
	}
	s.pages = nil
	if cerr := s.fp.Close(); cerr != nil {
		err = multierr.Append(err, storeerr.NewIO(fmt.Sprintf("close %s", s.path), cerr))
	}
	s.lg.Debug("closed mapped storage", zap.String("path", s.path))
	return err
}

// Remove deletes the backing file. The storage must be closed first.
func (s *Storage) Remove() error {
	if err := os.Remove(s.path); err != nil {
		return storeerr.NewIO(fmt.Sprintf("remove %s", s.path), err)
	}
	return nil
}

// CloseAndClean closes the storage and deletes the backing file.
func (s *Storage) CloseAndClean() error {
	return multierr.Append(s.Close(), s.Remove())
}
