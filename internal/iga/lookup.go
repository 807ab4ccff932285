package iga

import (
	"strings"

	"github.com/arklib/igcore/internal/hash"
)

// HashFilePath reduces path per the header flags and hashes it, per §4.3.3:
// strip to the basename if FlagHashBasenameOnly is set, normalize separators
// and case if FlagCaseInsensitive is set, then strip any leading slash.
func (a *Archive) HashFilePath(path string) uint32 {
	p := path
	if a.header.Flags&FlagHashBasenameOnly != 0 {
		if i := strings.LastIndexAny(p, "/\\"); i >= 0 {
			p = p[i+1:]
		}
	}
	caseInsensitive := a.header.Flags&FlagCaseInsensitive != 0
	if caseInsensitive {
		p = strings.ReplaceAll(p, "\\", "/")
		p = strings.ToLower(p)
	}
	p = strings.TrimLeft(p, "/\\")

	if caseInsensitive {
		return hash.StringCaseInsensitive(p)
	}
	return hash.String(p)
}

// Find locates the entry for path using the archive's hash search.
func (a *Archive) Find(path string) (*FileInfo, bool) {
	h := a.HashFilePath(path)
	i, ok := hashSearch(a.Files, a.header.HashSearchDivider, a.header.HashSearchSlop, h)
	if !ok {
		return nil, false
	}
	return &a.Files[i], true
}

// FindByLiteralName scans linearly for an entry whose real filename matches
// name exactly; used by the Alternate build-tool dialect which does not
// trust the hash table.
func (a *Archive) FindByLiteralName(name string) (*FileInfo, bool) {
	for i := range a.Files {
		if a.Files[i].RealName == name {
			return &a.Files[i], true
		}
	}
	return nil, false
}
