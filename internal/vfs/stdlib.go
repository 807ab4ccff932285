package vfs

import (
	"io"
	"os"
	"path/filepath"
)

// StdLibDevice is the chain's terminal leaf: it satisfies work items against
// the host filesystem rooted at Root. It never has a successor worth
// forwarding to (it is meant to sit at the tail of the chain), but honors
// the chaining contract anyway so tests can append instrumentation nodes
// after it.
type StdLibDevice struct {
	base
	Root string
}

// NewStdLibDevice returns a StdLibDevice rooted at root.
func NewStdLibDevice(root string) *StdLibDevice {
	return &StdLibDevice{Root: root}
}

func (d *StdLibDevice) Path() string { return d.Root }
func (d *StdLibDevice) Name() string { return "stdlib" }

func (d *StdLibDevice) native(path string) string {
	return filepath.Join(d.Root, filepath.FromSlash(path))
}

func (d *StdLibDevice) Process(item *WorkItem) {
	switch item.Type {
	case Exists:
		if _, err := os.Stat(d.native(item.Path)); err == nil {
			item.Status = Complete
		} else {
			item.Status = NotFound
		}
		return
	case Open:
		f, err := os.Open(d.native(item.Path))
		if err != nil {
			item.Status = NotFound
			return
		}
		fi, err := f.Stat()
		if err != nil {
			f.Close()
			item.Status = GeneralError
			return
		}
		item.Handle = &FileHandle{
			Path:   item.Path,
			Size:   fi.Size(),
			Reader: f,
			Device: d,
		}
		item.Status = Complete
		return
	case Close:
		if item.Handle != nil {
			if c, ok := item.Handle.Reader.(io.Closer); ok {
				c.Close()
			}
		}
		item.Status = Complete
		return
	case Read:
		if item.Handle == nil {
			item.Status = InvalidPath
			return
		}
		if _, err := item.Handle.Reader.Seek(item.Offset, io.SeekStart); err != nil {
			item.Status = IOError
			return
		}
		n, err := io.ReadFull(item.Handle.Reader, item.Buffer)
		if err != nil && err != io.ErrUnexpectedEOF {
			item.Status = IOError
			return
		}
		item.Buffer = item.Buffer[:n]
		item.Status = Complete
		return
	case FileList, FileListWithSizes:
		entries, err := os.ReadDir(d.native(item.Path))
		if err != nil {
			item.Status = NotFound
			return
		}
		for _, e := range entries {
			item.Names = append(item.Names, e.Name())
			if item.Type == FileListWithSizes {
				fi, err := e.Info()
				var sz int64
				if err == nil {
					sz = fi.Size()
				}
				item.Sizes = append(item.Sizes, sz)
			}
		}
		item.Status = Complete
		return
	case Mkdir:
		if err := os.Mkdir(d.native(item.Path), 0o755); err != nil {
			item.Status = GeneralError
			return
		}
		item.Status = Complete
		return
	case Unlink:
		if err := os.Remove(d.native(item.Path)); err != nil {
			item.Status = NotFound
			return
		}
		item.Status = Complete
		return
	default:
		item.Status = Unsupported
		d.SendToNext(item)
	}
}
