package records

// RecordAccessor is a short-lived view of one record, bound to the record's
// page buffer so repeated field access inside one Read/UpdateRecord call does
// not re-resolve the page. It must not be retained past the callback: pages
// may be grown/remapped between operations.
type RecordAccessor struct {
	recordID           int32
	recordOffsetInPage int
	pageBuffer         []byte
	store              *Store
}

// RecordID returns the id of the record the accessor is bound to.
func (a *RecordAccessor) RecordID() int32 { return a.recordID }

func (a *RecordAccessor) GetParent() int32            { return a.getIntField(parentRefOffset) }
func (a *RecordAccessor) GetNameID() int32            { return a.getIntField(nameRefOffset) }
func (a *RecordAccessor) GetFlags() int32             { return a.getIntField(flagsOffset) }
func (a *RecordAccessor) GetAttributeRecordID() int32 { return a.getIntField(attrRefOffset) }
func (a *RecordAccessor) GetContentRecordID() int32   { return a.getIntField(contentRefOffset) }
func (a *RecordAccessor) GetModCount() int32          { return a.getIntField(modCountOffset) }
func (a *RecordAccessor) GetTimestamp() int64         { return a.getLongField(timestampOffset) }
func (a *RecordAccessor) GetLength() int64            { return a.getLongField(lengthOffset) }

// Setters write through without stamping a version: UpdateRecord stamps once
// for the whole callback if it reports a change.

func (a *RecordAccessor) SetParent(parentID int32) error {
	if err := a.store.checkParentIDIsValid(parentID); err != nil {
		return err
	}
	a.setIntField(parentRefOffset, parentID)
	return nil
}

func (a *RecordAccessor) SetNameID(nameID int32) error {
	if err := checkValidIDField(a.recordID, nameID, "nameId"); err != nil {
		return err
	}
	a.setIntField(nameRefOffset, nameID)
	return nil
}

func (a *RecordAccessor) SetAttributeRecordID(attributeRecordID int32) error {
	if err := checkValidIDField(a.recordID, attributeRecordID, "attributeRecordId"); err != nil {
		return err
	}
	a.setIntField(attrRefOffset, attributeRecordID)
	return nil
}

func (a *RecordAccessor) SetFlags(flags int32) bool {
	return a.setIntFieldIfChanged(flagsOffset, flags)
}

func (a *RecordAccessor) SetLength(length int64) bool {
	return a.setLongFieldIfChanged(lengthOffset, length)
}

func (a *RecordAccessor) SetTimestamp(timestamp int64) bool {
	return a.setLongFieldIfChanged(timestampOffset, timestamp)
}

func (a *RecordAccessor) SetContentRecordID(contentRecordID int32) (bool, error) {
	if err := checkValidIDField(a.recordID, contentRecordID, "contentRecordId"); err != nil {
		return false, err
	}
	return a.setIntFieldIfChanged(contentRefOffset, contentRecordID), nil
}

func (a *RecordAccessor) getIntField(fieldRelativeOffset int) int32 {
	return loadInt32(a.pageBuffer, a.recordOffsetInPage+fieldRelativeOffset)
}

func (a *RecordAccessor) setIntField(fieldRelativeOffset int, value int32) {
	storeInt32(a.pageBuffer, a.recordOffsetInPage+fieldRelativeOffset, value)
}

func (a *RecordAccessor) setIntFieldIfChanged(fieldRelativeOffset int, newValue int32) bool {
	fieldOffset := a.recordOffsetInPage + fieldRelativeOffset
	oldValue := loadInt32(a.pageBuffer, fieldOffset)
	if oldValue != newValue {
		storeInt32(a.pageBuffer, fieldOffset, newValue)
		return true
	}
	return false
}

func (a *RecordAccessor) getLongField(fieldRelativeOffset int) int64 {
	return loadInt64(a.pageBuffer, a.recordOffsetInPage+fieldRelativeOffset)
}

func (a *RecordAccessor) setLongFieldIfChanged(fieldRelativeOffset int, newValue int64) bool {
	fieldOffset := a.recordOffsetInPage + fieldRelativeOffset
	oldValue := loadInt64(a.pageBuffer, fieldOffset)
	if oldValue != newValue {
		storeInt64(a.pageBuffer, fieldOffset, newValue)
		return true
	}
	return false
}

func (s *Store) accessorFor(recordID int32) (*RecordAccessor, error) {
	buf, recordOffset, err := s.resolveRecord(recordID)
	if err != nil {
		return nil, err
	}
	return &RecordAccessor{
		recordID:           recordID,
		recordOffsetInPage: recordOffset,
		pageBuffer:         buf,
		store:              s,
	}, nil
}

// ReadRecord resolves the record once and invokes reader against a transient
// accessor.
func (s *Store) ReadRecord(recordID int32, reader func(*RecordAccessor) error) error {
	accessor, err := s.accessorFor(recordID)
	if err != nil {
		return err
	}
	return reader(accessor)
}

// UpdateRecord invokes updater against a transient accessor and stamps a
// version if the updater reports a change. A recordID <= 0 means "no id yet":
// a fresh record is allocated and its id returned.
func (s *Store) UpdateRecord(recordID int32, updater func(*RecordAccessor) (bool, error)) (int32, error) {
	trueRecordID := recordID
	if recordID <= NullID {
		allocated, err := s.AllocateRecord()
		if err != nil {
			return NullID, err
		}
		trueRecordID = allocated
	}
	accessor, err := s.accessorFor(trueRecordID)
	if err != nil {
		return NullID, err
	}
	updated, err := updater(accessor)
	if err != nil {
		return NullID, err
	}
	if updated {
		s.incrementRecordVersion(accessor.pageBuffer, accessor.recordOffsetInPage)
	}
	return trueRecordID, nil
}
