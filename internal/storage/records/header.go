package records

// HeaderAccessor is a thin façade over the store's header getters/setters,
// for callers that only need header-level state and should stay decoupled
// from per-record addressing.
type HeaderAccessor struct {
	store *Store
}

func (h *HeaderAccessor) GetTimestamp() (int64, error) {
	return h.store.GetStorageTimestamp()
}

func (h *HeaderAccessor) GetConnectionStatus() (int32, error) {
	return h.store.GetConnectionStatus()
}

func (h *HeaderAccessor) GetVersion() (int32, error) {
	return h.store.GetVersion()
}

func (h *HeaderAccessor) GetGlobalModCount() int32 {
	return h.store.GlobalModCount()
}

func (h *HeaderAccessor) SetConnectionStatus(code int32) error {
	return h.store.SetConnectionStatus(code)
}

func (h *HeaderAccessor) SetVersion(version int32) error {
	return h.store.SetVersion(version)
}

// ReadHeader invokes reader against the header accessor.
func (s *Store) ReadHeader(reader func(*HeaderAccessor) error) error {
	return reader(&HeaderAccessor{store: s})
}

// UpdateHeader invokes updater against the header accessor; if it reports a
// change, the global mod counter advances and the store is marked dirty.
func (s *Store) UpdateHeader(updater func(*HeaderAccessor) (bool, error)) error {
	updated, err := updater(&HeaderAccessor{store: s})
	if err != nil {
		return err
	}
	if updated {
		s.globalModCount.Add(1)
		s.dirty.CompareAndSwap(false, true)
	}
	return nil
}
