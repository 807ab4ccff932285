package meta

import (
	"testing"

	"github.com/arklib/igcore/internal/registry"
)

func testFieldCatalog() []FieldCatalogEntry {
	return []FieldCatalogEntry{
		{
			Name: "igIntMetaField",
			Platform: []PlatformSize{
				{Platform: registry.PlatformWin32, Align: 4, Size: 4},
				{Platform: registry.PlatformWin64, Align: 4, Size: 4},
			},
		},
		{
			Name: "igFloatMetaField",
			Platform: []PlatformSize{
				{Platform: registry.PlatformWin32, Align: 4, Size: 4},
				{Platform: registry.PlatformWin64, Align: 4, Size: 4},
			},
		},
	}
}

func baseObject() ObjectCatalogEntry {
	return ObjectCatalogEntry{
		Type:    "igMetaObject",
		RefName: "igBase",
		NewFields: []*ObjectField{
			{Type: "igIntMetaField", Offset: 0x08, Name: "id"},
			{Type: "igFloatMetaField", Offset: 0x0C, Name: "weight"},
		},
	}
}

func TestDescriptorInheritsAndAppendsFields(t *testing.T) {
	child := ObjectCatalogEntry{
		Type:     "igMetaObject",
		RefName:  "igChild",
		BaseType: "igBase",
		NewFields: []*ObjectField{
			{Type: "igIntMetaField", Offset: 0x10, Name: "extra"},
		},
	}

	m := NewManager(registry.PlatformWin32, nil, testFieldCatalog(), nil, []ObjectCatalogEntry{baseObject(), child})

	d, err := m.Descriptor("igChild")
	if err != nil {
		t.Fatalf("Descriptor: %v", err)
	}
	if len(d.ByOffset) != 3 {
		t.Fatalf("got %d fields, want 3", len(d.ByOffset))
	}
	if f, ok := d.Field("id"); !ok || f.Offset != 0x08 {
		t.Fatalf("inherited field 'id' not resolved correctly: %+v, %v", f, ok)
	}
	if f, ok := d.Field("extra"); !ok || f.Offset != 0x10 {
		t.Fatalf("new field 'extra' not resolved correctly: %+v, %v", f, ok)
	}
}

func TestDescriptorOverrideReplacesOnlyThatOffset(t *testing.T) {
	child := ObjectCatalogEntry{
		Type:     "igMetaObject",
		RefName:  "igChild",
		BaseType: "igBase",
		OverriddenFields: []*ObjectField{
			{Type: "igFloatMetaField", Offset: 0x08, Name: "id"},
		},
	}

	m := NewManager(registry.PlatformWin32, nil, testFieldCatalog(), nil, []ObjectCatalogEntry{baseObject(), child})

	d, err := m.Descriptor("igChild")
	if err != nil {
		t.Fatalf("Descriptor: %v", err)
	}
	got, ok := d.FieldAt(0x08)
	if !ok {
		t.Fatal("expected field at offset 0x08")
	}
	if got.TypeName != "igFloatMetaField" {
		t.Fatalf("override didn't take effect: got type %q", got.TypeName)
	}

	other, ok := d.FieldAt(0x0C)
	if !ok || other.TypeName != "igFloatMetaField" {
		t.Fatalf("unrelated inherited field at 0x0C was disturbed: %+v, %v", other, ok)
	}
}

func TestMemoryRefFieldSizedFromPlatformPointerWidth(t *testing.T) {
	obj := ObjectCatalogEntry{
		RefName: "igHasRef",
		NewFields: []*ObjectField{
			{Type: "igMemoryRefMetaField", Offset: 0x08, Name: "ref"},
		},
	}

	win32 := NewManager(registry.PlatformWin32, nil, nil, nil, []ObjectCatalogEntry{obj})
	d32, err := win32.Descriptor("igHasRef")
	if err != nil {
		t.Fatalf("Descriptor (win32): %v", err)
	}
	if f, _ := d32.Field("ref"); f.Size != 8 {
		t.Fatalf("win32 memory-ref size = %d, want 8 (2*4)", f.Size)
	}

	win64 := NewManager(registry.PlatformWin64, nil, nil, nil, []ObjectCatalogEntry{obj})
	d64, err := win64.Descriptor("igHasRef")
	if err != nil {
		t.Fatalf("Descriptor (win64): %v", err)
	}
	if f, _ := d64.Field("ref"); f.Size != 16 {
		t.Fatalf("win64 memory-ref size = %d, want 16 (2*8)", f.Size)
	}
}

func TestListTypeGetsDataListConstructor(t *testing.T) {
	m := NewManager(registry.PlatformWin32, nil, nil, nil, []ObjectCatalogEntry{{RefName: "igObjectList"}})
	d, err := m.Descriptor("igObjectList")
	if err != nil {
		t.Fatalf("Descriptor: %v", err)
	}
	obj := d.Constructor(d, 0)
	if _, ok := obj.(*DataList); !ok {
		t.Fatalf("got %T, want *DataList", obj)
	}
}

func TestUnknownTypeGetsGenericConstructor(t *testing.T) {
	m := NewManager(registry.PlatformWin32, nil, nil, nil, []ObjectCatalogEntry{{RefName: "igSomeWidget"}})
	d, err := m.Descriptor("igSomeWidget")
	if err != nil {
		t.Fatalf("Descriptor: %v", err)
	}
	obj := d.Constructor(d, 0)
	if _, ok := obj.(*GenericObject); !ok {
		t.Fatalf("got %T, want *GenericObject", obj)
	}
}

func TestEnumNameLookup(t *testing.T) {
	m := NewManager(registry.PlatformWin32, nil, nil, []EnumCatalogEntry{
		{RefName: "igBlendMode", Values: []EnumValue{{Name: "Opaque", Value: 0}, {Name: "Alpha", Value: 1}}},
	}, nil)

	name, ok := m.EnumName("igBlendMode", 1)
	if !ok || name != "Alpha" {
		t.Fatalf("EnumName(1) = %q, %v; want Alpha, true", name, ok)
	}
	if _, ok := m.EnumName("igBlendMode", 99); ok {
		t.Fatal("expected out-of-range ordinal to miss")
	}
}

func TestDescriptorCyclesAreRejected(t *testing.T) {
	m := NewManager(registry.PlatformWin32, nil, nil, nil, []ObjectCatalogEntry{
		{RefName: "igA", BaseType: "igB"},
		{RefName: "igB", BaseType: "igA"},
	})
	if _, err := m.Descriptor("igA"); err == nil {
		t.Fatal("expected cycle detection error")
	}
}

func TestUnknownBaseTypeIsAnError(t *testing.T) {
	m := NewManager(registry.PlatformWin32, nil, nil, nil, []ObjectCatalogEntry{
		{RefName: "igChild", BaseType: "igMissingParent"},
	})
	if _, err := m.Descriptor("igChild"); err == nil {
		t.Fatal("expected error for missing parent type")
	}
}
