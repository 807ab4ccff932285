// Package debugmount exposes the merged VFS dispatch chain as a read-only
// FUSE filesystem, so the layered view an archive's entries end up with
// (patch archive over main archive over std-lib root, per spec.md §4.4's
// processor precedence) can be inspected with ordinary tools (ls, cat) while
// developing or debugging a title's content.
//
// This is diagnostic tooling only: spec.md never requires it, and nothing
// else in this module depends on it.
package debugmount

import (
	"context"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"
	"golang.org/x/xerrors"

	"github.com/arklib/igcore/internal/vfs"
)

const rootInode = fuseops.RootInodeID

// never is used for FUSE expiration timestamps. The merged VFS is rebuilt
// once at mount time and never changes underneath a running mount, so the
// kernel can cache every attribute and directory entry indefinitely.
var never = time.Now().Add(365 * 24 * time.Hour)

// node is one entry of the in-memory tree snapshotted from the chain at
// mount time: either a directory (children populated) or a file. Every node
// below the root carries its chain-relative path; for a file it is the path
// Open/Read should use.
type node struct {
	name     string
	inode    fuseops.InodeID
	path     string // chain-relative path; empty only on the root
	size     uint64
	isDir    bool
	children []*node
	byName   map[string]*node
}

// fs implements fuseutil.FileSystem over a vfs.Processor chain, walked once
// at mount time via FileListWithSizes starting at the root ("").
type fs struct {
	fuseutil.NotImplementedFileSystem

	chain vfs.Processor

	mu     sync.Mutex
	nodes  map[fuseops.InodeID]*node
	nextID fuseops.InodeID
}

// Mount builds a snapshot of chain's directory tree and serves it read-only
// at mountpoint until ctx is canceled or the filesystem is unmounted. It
// blocks until the mount is torn down.
func Mount(ctx context.Context, chain vfs.Processor, mountpoint string) error {
	root := &node{name: "", isDir: true, inode: rootInode, byName: make(map[string]*node)}
	f := &fs{chain: chain, nodes: map[fuseops.InodeID]*node{rootInode: root}, nextID: rootInode}
	if err := f.scan(root, ""); err != nil {
		return xerrors.Errorf("debugmount: initial scan: %w", err)
	}

	server := fuseutil.NewFileSystemServer(f)
	mfs, err := fuse.Mount(mountpoint, server, &fuse.MountConfig{
		FSName:   "igcore",
		ReadOnly: true,
	})
	if err != nil {
		return xerrors.Errorf("debugmount: fuse.Mount: %w", err)
	}
	defer func() { _ = fuse.Unmount(mountpoint) }()
	return mfs.Join(ctx)
}

// scan populates dir's children by issuing a FileListWithSizes work item at
// chainPath and recursing into every entry that itself lists successfully
// (a leaf that can't be listed is treated as a file).
func (f *fs) scan(dir *node, chainPath string) error {
	item := vfs.NewWorkItem(vfs.FileListWithSizes, chainPath)
	f.chain.Process(item)
	if item.Status != vfs.Complete {
		if chainPath == "" {
			return nil // empty root is a valid, if uninteresting, mount
		}
		return xerrors.Errorf("debugmount: list %q: status %s", chainPath, item.Status)
	}

	sizeByName := make(map[string]int64, len(item.Names))
	for i, name := range item.Names {
		if i < len(item.Sizes) {
			sizeByName[name] = item.Sizes[i]
		}
	}

	names := append([]string(nil), item.Names...)
	sort.Strings(names)
	for _, name := range names {
		childPath := name
		if chainPath != "" {
			childPath = strings.TrimSuffix(chainPath, "/") + "/" + name
		}
		size := uint64(sizeByName[name])

		f.nextID++
		child := &node{name: name, inode: f.nextID, path: childPath, size: size}
		f.nodes[child.inode] = child

		subItem := vfs.NewWorkItem(vfs.FileListWithSizes, childPath)
		f.chain.Process(subItem)
		if subItem.Status == vfs.Complete {
			child.isDir = true
			child.byName = make(map[string]*node)
			if err := f.scan(child, childPath); err != nil {
				return err
			}
		}

		dir.children = append(dir.children, child)
		dir.byName[name] = child
	}
	return nil
}

func (f *fs) attrs(n *node) fuseops.InodeAttributes {
	mode := os.FileMode(0o444)
	if n.isDir {
		mode = os.ModeDir | 0o555
	}
	return fuseops.InodeAttributes{
		Size:  n.size,
		Nlink: 1,
		Mode:  mode,
		Atime: never,
		Mtime: never,
		Ctime: never,
	}
}

func (f *fs) StatFS(ctx context.Context, op *fuseops.StatFSOp) error {
	op.BlockSize = 4096
	op.Blocks = 1
	op.IoSize = 65536
	return nil
}

func (f *fs) LookUpInode(ctx context.Context, op *fuseops.LookUpInodeOp) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	parent, ok := f.nodes[op.Parent]
	if !ok || !parent.isDir {
		return fuse.EIO
	}
	child, ok := parent.byName[op.Name]
	if !ok {
		return fuse.ENOENT
	}
	op.Entry.Child = child.inode
	op.Entry.Attributes = f.attrs(child)
	op.Entry.AttributesExpiration = never
	op.Entry.EntryExpiration = never
	return nil
}

func (f *fs) GetInodeAttributes(ctx context.Context, op *fuseops.GetInodeAttributesOp) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	n, ok := f.nodes[op.Inode]
	if !ok {
		return fuse.ENOENT
	}
	op.Attributes = f.attrs(n)
	op.AttributesExpiration = never
	return nil
}

func (f *fs) OpenDir(ctx context.Context, op *fuseops.OpenDirOp) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.nodes[op.Inode]
	if !ok || !n.isDir {
		return fuse.EIO
	}
	return nil
}

func (f *fs) ReadDir(ctx context.Context, op *fuseops.ReadDirOp) error {
	f.mu.Lock()
	n, ok := f.nodes[op.Inode]
	f.mu.Unlock()
	if !ok || !n.isDir {
		return fuse.EIO
	}

	var entries []fuseutil.Dirent
	for _, child := range n.children {
		typ := fuseutil.DT_File
		if child.isDir {
			typ = fuseutil.DT_Directory
		}
		entries = append(entries, fuseutil.Dirent{
			Offset: fuseops.DirOffset(len(entries) + 1),
			Inode:  child.inode,
			Name:   child.name,
			Type:   typ,
		})
	}

	if op.Offset > fuseops.DirOffset(len(entries)) {
		return fuse.EIO
	}
	for _, e := range entries[op.Offset:] {
		written := fuseutil.WriteDirent(op.Dst[op.BytesRead:], e)
		if written == 0 {
			break
		}
		op.BytesRead += written
	}
	return nil
}

func (f *fs) OpenFile(ctx context.Context, op *fuseops.OpenFileOp) error {
	f.mu.Lock()
	n, ok := f.nodes[op.Inode]
	f.mu.Unlock()
	if !ok || n.isDir {
		return fuse.EIO
	}
	return nil
}

// ReadFile satisfies each read against the chain directly rather than
// caching a handle: the chain's own devices (archive entries, std-lib
// files) already do their own buffering, and debug mounts are low-traffic.
func (f *fs) ReadFile(ctx context.Context, op *fuseops.ReadFileOp) error {
	f.mu.Lock()
	n, ok := f.nodes[op.Inode]
	f.mu.Unlock()
	if !ok || n.isDir {
		return fuse.EIO
	}

	openItem := vfs.NewWorkItem(vfs.Open, n.path)
	f.chain.Process(openItem)
	if openItem.Status != vfs.Complete || openItem.Handle == nil {
		return fuse.ENOENT
	}
	defer func() {
		closeItem := vfs.NewWorkItem(vfs.Close, n.path)
		closeItem.Handle = openItem.Handle
		f.chain.Process(closeItem)
	}()

	readItem := vfs.NewWorkItem(vfs.Read, n.path)
	readItem.Handle = openItem.Handle
	readItem.Offset = op.Offset
	readItem.Buffer = op.Dst
	f.chain.Process(readItem)
	if readItem.Status != vfs.Complete {
		return fuse.EIO
	}
	op.BytesRead = len(readItem.Buffer)
	return nil
}
