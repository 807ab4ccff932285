package vfs

import "sync"

// MountManager sits at the head of the canonical chain. It exists mostly
// for symmetry with the archive-manager/std-lib nodes that follow it; today
// it is a pure pass-through, matching the teacher's posture for nodes that
// exist for parity with other runtime builds rather than because this
// runtime currently needs extra behavior at that point in the chain.
type MountManager struct {
	base
}

func NewMountManager() *MountManager { return &MountManager{} }

func (m *MountManager) Process(item *WorkItem) { m.SendToNext(item) }

// ArchiveManager holds two ordered StorageDevice lists: patch archives and
// main archives. Patch archives are always consulted first; within each
// list, insertion order is authoritative.
type ArchiveManager struct {
	base

	mu      sync.RWMutex
	patches []StorageDevice
	main    []StorageDevice
}

func NewArchiveManager() *ArchiveManager { return &ArchiveManager{} }

// AddArchive appends d to the main archive list. Called by the archive
// loader on open.
func (a *ArchiveManager) AddArchive(d StorageDevice) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.main = append(a.main, d)
}

// InstallUpdate prepends d to the patch archive list. It is called directly
// by a host installing an update archive (the init-script driver has no task
// for it), and the newest patch always takes precedence over previously
// installed patches.
func (a *ArchiveManager) InstallUpdate(d StorageDevice) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.patches = append([]StorageDevice{d}, a.patches...)
}

// Archive returns the already-loaded device at path, if any, so the archive
// loader can avoid opening the same archive twice.
func (a *ArchiveManager) Archive(path string) (StorageDevice, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, d := range a.patches {
		if d.Path() == path {
			return d, true
		}
	}
	for _, d := range a.main {
		if d.Path() == path {
			return d, true
		}
	}
	return nil, false
}

func (a *ArchiveManager) snapshot() (patches, main []StorageDevice) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	patches = append([]StorageDevice(nil), a.patches...)
	main = append([]StorageDevice(nil), a.main...)
	return
}

func (a *ArchiveManager) Process(item *WorkItem) {
	patches, main := a.snapshot()

	switch item.Type {
	case Invalid:
		a.SendToNext(item)
		return

	case FileList, FileListWithSizes:
		for _, d := range patches {
			if d.Path() == item.Path {
				d.Process(item)
				return
			}
		}
		for _, d := range main {
			if d.Path() == item.Path {
				d.Process(item)
				return
			}
		}

	default:
		for _, d := range patches {
			d.Process(item)
			if item.Status == Complete {
				return
			}
		}
		for _, d := range main {
			d.Process(item)
			if item.Status == Complete {
				return
			}
		}
	}

	a.SendToNext(item)
}
