package meta

// Constructor instantiates an Object for a descriptor given the memory pool
// it was created in.
type Constructor func(desc *Descriptor, pool uint32) Object

// listTypes are the host-implemented list-like types: a generic backing
// store keyed by the "_data"/"_count"/"_capacity" field convention the
// deserializer uses for igMemoryRefMetaField-backed lists, rather than the
// generic name→value map.
var listTypes = map[string]bool{
	"igObjectList":          true,
	"igStringRefList":       true,
	"igNameList":            true,
	"igArchiveList":         true,
	"igObjectDirectoryList": true,
}

// lookupConstructor picks the host constructor for typeName if one exists;
// otherwise it falls back to the generic map-backed object. Any descriptor
// that resolves to an igObjectList element type (directly or through an
// ancestor) is also treated as a list even under a game-specific type name,
// since the field layout and serialization behavior are identical.
func lookupConstructor(typeName string, desc *Descriptor) Constructor {
	if listTypes[typeName] {
		return newDataListObject
	}
	if _, ok := desc.IsObjectList(); ok {
		return newDataListObject
	}
	return newGenericObject
}

// DataList is the host implementation backing igObjectList, igStringRefList,
// igNameList and friends. It stores its elements as a plain slice rather
// than individually-named fields: the deserializer populates it entirely
// through the "_data" field (an igMemoryRefMetaField whose payload is the
// element array); "_count" and "_capacity" are accepted and ignored since
// the slice length already carries that information.
type DataList struct {
	desc *Descriptor
	pool uint32
	data []any
}

func newDataListObject(desc *Descriptor, pool uint32) Object {
	return &DataList{desc: desc, pool: pool}
}

func (l *DataList) Descriptor() *Descriptor { return l.desc }
func (l *DataList) Pool() uint32             { return l.pool }
func (l *DataList) SetPool(pool uint32)      { l.pool = pool }

func (l *DataList) SetField(name string, value any) error {
	switch name {
	case "_data":
		if elems, ok := value.([]any); ok {
			l.data = elems
		}
	case "_count", "_capacity":
		// Derivable from len(l.data); accepted for symmetry with the wire
		// format but not separately stored.
	}
	return nil
}

func (l *DataList) GetField(name string) (any, bool) {
	switch name {
	case "_data":
		return l.data, true
	case "_count", "_capacity":
		return len(l.data), true
	}
	return nil, false
}

// Len returns the number of elements currently in the list.
func (l *DataList) Len() int { return len(l.data) }

// At returns the element at index i.
func (l *DataList) At(i int) any { return l.data[i] }

// Append adds an element to the list.
func (l *DataList) Append(v any) { l.data = append(l.data, v) }
