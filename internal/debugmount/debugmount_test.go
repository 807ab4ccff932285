package debugmount

import (
	"testing"

	"github.com/jacobsa/fuse/fuseops"

	"github.com/arklib/igcore/internal/vfs"
)

// memTree is a minimal in-memory vfs.Processor: dirs maps a path to its
// child names (with parallel sizes), anything not in dirs but present in
// files is a leaf.
type memTree struct {
	dirs  map[string][]string
	sizes map[string][]int64
	files map[string][]byte
}

func (m *memTree) Process(item *vfs.WorkItem) {
	switch item.Type {
	case vfs.FileListWithSizes:
		names, ok := m.dirs[item.Path]
		if !ok {
			item.Status = vfs.NotFound
			return
		}
		item.Names = names
		item.Sizes = m.sizes[item.Path]
		item.Status = vfs.Complete
	case vfs.Open:
		buf, ok := m.files[item.Path]
		if !ok {
			item.Status = vfs.NotFound
			return
		}
		item.Handle = &vfs.FileHandle{Path: item.Path, Size: int64(len(buf))}
		item.Status = vfs.Complete
	case vfs.Read:
		buf := m.files[item.Path]
		end := item.Offset + int64(len(item.Buffer))
		if end > int64(len(buf)) {
			end = int64(len(buf))
		}
		n := copy(item.Buffer, buf[item.Offset:end])
		item.Buffer = item.Buffer[:n]
		item.Status = vfs.Complete
	case vfs.Close:
		item.Status = vfs.Complete
	default:
		item.Status = vfs.Unsupported
	}
}

func (m *memTree) SetNextProcessor(vfs.Processor) {}
func (m *memTree) SendToNext(*vfs.WorkItem)       {}

func newTestFS(t *testing.T, tree *memTree) *fs {
	t.Helper()
	root := &node{name: "", isDir: true, inode: fuseops.RootInodeID, byName: make(map[string]*node)}
	f := &fs{chain: tree, nodes: map[fuseops.InodeID]*node{fuseops.RootInodeID: root}, nextID: fuseops.RootInodeID}
	if err := f.scan(root, ""); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return f
}

func (f *fs) root() *node { return f.nodes[fuseops.RootInodeID] }

func TestScanBuildsNestedTree(t *testing.T) {
	tree := &memTree{
		dirs: map[string][]string{
			"":         {"textures", "boot.cfg"},
			"textures": {"wall.tex"},
		},
		sizes: map[string][]int64{
			"":         {0, 15},
			"textures": {4096},
		},
		files: map[string][]byte{
			"boot.cfg": []byte("resolution=1080"),
		},
	}

	f := newTestFS(t, tree)
	root := f.root()

	cfg, ok := root.byName["boot.cfg"]
	if !ok || cfg.isDir || cfg.size != 15 || cfg.path != "boot.cfg" {
		t.Fatalf("boot.cfg node = %+v, ok=%v", cfg, ok)
	}

	texDir, ok := root.byName["textures"]
	if !ok || !texDir.isDir {
		t.Fatalf("textures node = %+v, ok=%v", texDir, ok)
	}

	wall, ok := texDir.byName["wall.tex"]
	if !ok || wall.isDir || wall.size != 4096 || wall.path != "textures/wall.tex" {
		t.Fatalf("wall.tex node = %+v, ok=%v", wall, ok)
	}
}

func TestReadFileServesBytesFromChain(t *testing.T) {
	tree := &memTree{
		dirs: map[string][]string{
			"": {"boot.cfg"},
		},
		sizes: map[string][]int64{
			"": {15},
		},
		files: map[string][]byte{
			"boot.cfg": []byte("resolution=1080"),
		},
	}
	f := newTestFS(t, tree)
	cfg := f.root().byName["boot.cfg"]

	op := &fuseops.ReadFileOp{Inode: cfg.inode, Offset: 4, Dst: make([]byte, 6)}
	if err := f.ReadFile(nil, op); err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got, want := string(op.Dst[:op.BytesRead]), "lution"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestLookUpInodeRejectsUnknownName(t *testing.T) {
	tree := &memTree{dirs: map[string][]string{"": nil}}
	f := newTestFS(t, tree)

	op := &fuseops.LookUpInodeOp{Parent: fuseops.RootInodeID, Name: "missing"}
	if err := f.LookUpInode(nil, op); err == nil {
		t.Fatal("expected ENOENT for a name with no corresponding node")
	}
}
