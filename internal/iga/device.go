package iga

import (
	"bytes"

	"github.com/arklib/igcore/internal/registry"
	"github.com/arklib/igcore/internal/vfs"
)

// asDevice adapts an Archive to the vfs.StorageDevice contract (§4.3.5):
// only Exists and Open are implemented; everything else reports
// Unsupported. Open's lookup strategy depends on the configured build-tool
// flavor.
type asDevice struct {
	a    *Archive
	reg  *registry.Registry
	next vfs.Processor
}

// AsStorageDevice exposes a as a vfs.StorageDevice under reg's build-tool
// dialect.
func AsStorageDevice(a *Archive, reg *registry.Registry) vfs.StorageDevice {
	return &asDevice{a: a, reg: reg}
}

func (d *asDevice) Path() string { return d.a.path }
func (d *asDevice) Name() string { return d.a.name }

func (d *asDevice) SetNextProcessor(p vfs.Processor) {
	if d.next == nil {
		d.next = p
		return
	}
	d.next.SetNextProcessor(p)
}

func (d *asDevice) SendToNext(item *vfs.WorkItem) {
	if d.next != nil {
		d.next.Process(item)
	}
}

func (d *asDevice) find(path string) (*FileInfo, bool) {
	if d.reg != nil && d.reg.BuildTool() == registry.Alternate {
		return d.a.FindByLiteralName(path)
	}
	return d.a.Find(path)
}

func (d *asDevice) Process(item *vfs.WorkItem) {
	switch item.Type {
	case vfs.Exists:
		if _, ok := d.find(item.Path); ok {
			item.Status = vfs.Complete
			return
		}
		item.Status = vfs.NotFound

	case vfs.Open:
		fi, ok := d.find(item.Path)
		if !ok {
			item.Status = vfs.NotFound
			return
		}
		payload, err := Decompress(d.a.path, fi)
		if err != nil {
			item.Status = vfs.GeneralError
			return
		}
		item.Handle = &vfs.FileHandle{
			Path:   item.Path,
			Size:   int64(len(payload)),
			Reader: newByteReader(payload),
			Device: d,
		}
		item.Status = vfs.Complete

	default:
		item.Status = vfs.Unsupported
	}
}

func newByteReader(b []byte) *bytes.Reader { return bytes.NewReader(b) }
