package fieldreader

import (
	"testing"

	"github.com/arklib/igcore/internal/binio"
	"github.com/arklib/igcore/internal/meta"
)

// fakeEnv is a minimal Env for exercising readers without a full IGZ
// deserializer. stringRefs/stringTables/poolIDs model the fixup-derived
// position sets; strings/stringTable back the two string lookup paths;
// objects backs ObjectAt; translate is a simple identity split.
type fakeEnv struct {
	cur          *binio.Cursor
	width        int
	stringRefs   map[uint32]bool
	stringTables map[uint32]bool
	poolIDs      map[uint16]bool
	strings      map[uint32]string
	stringTable  []string
	objects      map[uint32]meta.Object
}

func newFakeEnv(buf []byte, width int) *fakeEnv {
	c, err := binio.NewCursor(buf, binio.Little)
	if err != nil {
		panic(err)
	}
	return &fakeEnv{
		cur:          c,
		width:        width,
		stringRefs:   map[uint32]bool{},
		stringTables: map[uint32]bool{},
		poolIDs:      map[uint16]bool{},
		strings:      map[uint32]string{},
		objects:      map[uint32]meta.Object{},
	}
}

func (e *fakeEnv) Cursor() *binio.Cursor      { return e.cur }
func (e *fakeEnv) PointerWidth() int          { return e.width }
func (e *fakeEnv) IsStringReference(pos uint32) bool { return e.stringRefs[pos] }
func (e *fakeEnv) IsStringTable(pos uint32) bool     { return e.stringTables[pos] }
func (e *fakeEnv) ReadStringAt(abs uint32) (string, error) {
	return e.strings[abs], nil
}
func (e *fakeEnv) StringTableEntry(index uint32) (string, error) {
	return e.stringTable[index], nil
}
func (e *fakeEnv) Translate(serialized uint32) (uint32, uint32) {
	return serialized & 0x07FFFFFF, serialized >> 27
}
func (e *fakeEnv) ObjectAt(serializedOffset uint32) (meta.Object, bool) {
	o, ok := e.objects[serializedOffset]
	return o, ok
}
func (e *fakeEnv) IsPoolID(fieldOffset uint16) bool { return e.poolIDs[fieldOffset] }

func TestIntegerReaderHonorsEndianness(t *testing.T) {
	env := newFakeEnv([]byte{0x2A, 0, 0, 0}, 4)
	r := integerReader{}
	v, err := r.Read(env, &meta.FieldInfo{Name: "x"})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if v.(int32) != 42 {
		t.Fatalf("got %v, want 42", v)
	}
}

func TestStringReaderDereferencesStringReference(t *testing.T) {
	buf := []byte{0x10, 0, 0, 0}
	env := newFakeEnv(buf, 4)
	env.stringRefs[0] = true
	env.strings[0x10] = "hello"

	r := stringReader{}
	v, err := r.Read(env, &meta.FieldInfo{Name: "s"})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if v.(string) != "hello" {
		t.Fatalf("got %q, want hello", v)
	}
}

func TestStringReaderResolvesStringTableIndex(t *testing.T) {
	buf := []byte{0x02, 0, 0, 0}
	env := newFakeEnv(buf, 4)
	env.stringTables[0] = true
	env.stringTable = []string{"zero", "one", "two"}

	r := stringReader{}
	v, err := r.Read(env, &meta.FieldInfo{Name: "s"})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if v.(string) != "two" {
		t.Fatalf("got %q, want two", v)
	}
}

func TestStringReaderReturnsNullWhenNeitherTableClaimsPosition(t *testing.T) {
	buf := []byte{0x10, 0, 0, 0}
	env := newFakeEnv(buf, 4)
	// Neither env.stringRefs nor env.stringTables marks position 0.

	r := stringReader{}
	v, err := r.Read(env, &meta.FieldInfo{Name: "s"})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if v != nil {
		t.Fatalf("got %v, want nil", v)
	}
	if env.cur.Pos() != 4 {
		t.Fatalf("cursor at %d, want 4 (pointer word consumed)", env.cur.Pos())
	}
}

func TestObjectRefReaderNullOnZero(t *testing.T) {
	env := newFakeEnv([]byte{0, 0, 0, 0}, 4)
	r := objectRefReader{}
	v, err := r.Read(env, &meta.FieldInfo{Name: "ref"})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if v != nil {
		t.Fatalf("got %v, want nil", v)
	}
}

func TestMemoryRefPoolIDBranch(t *testing.T) {
	buf := make([]byte, 8)
	buf[0] = 0x07 // flags low bits: pool index 7
	env := newFakeEnv(buf, 4)
	env.poolIDs[0x10] = true

	reg := NewRegistry(IGZ, nil)
	field := &meta.FieldInfo{Name: "ref", Offset: 0x10, Raw: &meta.ObjectField{}}
	r := reg.Lookup("igMemoryRefMetaField", field)
	v, err := r.Read(env, field)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if v.(uint32) != 7 {
		t.Fatalf("got %v, want pool 7", v)
	}
}

func TestMemoryRefFastPathBytes(t *testing.T) {
	// flags: count=3; data-pointer: offset 8 (payload follows flags+ptr).
	buf := make([]byte, 8+3)
	buf[0] = 3
	buf[4] = 8
	copy(buf[8:], []byte{0xAA, 0xBB, 0xCC})
	env := newFakeEnv(buf, 4)

	reg := NewRegistry(IGZ, nil)
	field := &meta.FieldInfo{Name: "data", Offset: 0, Raw: &meta.ObjectField{
		MemoryRefInfo: &meta.ObjectField{Type: "igUnsignedCharMetaField"},
	}}
	r := reg.Lookup("igMemoryRefMetaField", field)
	v, err := r.Read(env, field)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	got := v.([]byte)
	if len(got) != 3 || got[0] != 0xAA || got[2] != 0xCC {
		t.Fatalf("got %v, want [AA BB CC]", got)
	}
}

func TestUnknownTypeDegradesToPlaceholder(t *testing.T) {
	env := newFakeEnv([]byte{1, 2, 3, 4}, 4)
	reg := NewRegistry(IGZ, nil)
	field := &meta.FieldInfo{Name: "weird", Size: 4}
	r := reg.Lookup("igSomeUnknownMetaField", field)
	v, err := r.Read(env, field)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := v.([]byte); len(got) != 4 {
		t.Fatalf("placeholder read %d bytes, want 4", len(got))
	}
	if err := r.Write(env, field, nil); err == nil {
		t.Fatal("expected write through placeholder to fail")
	}
}
