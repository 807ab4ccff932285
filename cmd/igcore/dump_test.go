package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCatalogEmptyPathReturnsZeroValue(t *testing.T) {
	cf, err := loadCatalog("")
	if err != nil {
		t.Fatalf("loadCatalog(\"\"): %v", err)
	}
	if len(cf.Fields) != 0 || len(cf.Enums) != 0 || len(cf.Objects) != 0 {
		t.Fatalf("got %+v, want all-empty catalog", cf)
	}
}

func TestLoadCatalogParsesFieldEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	const doc = `{
		"fields": [
			{"Name": "igIntMetaField", "Platform": [{"Platform": 2, "Align": 4, "Size": 4}]}
		],
		"enums": [],
		"objects": []
	}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cf, err := loadCatalog(path)
	if err != nil {
		t.Fatalf("loadCatalog: %v", err)
	}
	if len(cf.Fields) != 1 || cf.Fields[0].Name != "igIntMetaField" {
		t.Fatalf("got %+v", cf.Fields)
	}
	if len(cf.Fields[0].Platform) != 1 || cf.Fields[0].Platform[0].Size != 4 {
		t.Fatalf("got %+v", cf.Fields[0].Platform)
	}
}

func TestLoadCatalogRejectsMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadCatalog(path); err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
}
