package main

import (
	"bytes"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/xerrors"

	"github.com/arklib/igcore/internal/directory"
	"github.com/arklib/igcore/internal/extref"
	"github.com/arklib/igcore/internal/fieldreader"
	"github.com/arklib/igcore/internal/iga"
	"github.com/arklib/igcore/internal/meta"
	"github.com/arklib/igcore/internal/precache"
	"github.com/arklib/igcore/internal/registry"
	"github.com/arklib/igcore/internal/vfs"
)

func newBootCmd() *cobra.Command {
	var (
		root         string
		metadataPath string
		weaklyLoaded bool
	)
	cmd := &cobra.Command{
		Use:   "boot <script>",
		Short: "Run an init script against a std-lib filesystem root",
		Long:  "Replays a boot script's loose_pak/loose_pak_lab/full_package_lab/engine_type tasks against the canonical mount-manager/archive-manager/std-lib chain rooted at --root.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoot(args[0], root, metadataPath, weaklyLoaded)
		},
	}
	cmd.Flags().StringVar(&root, "root", ".", "filesystem root the std-lib device serves")
	cmd.Flags().StringVar(&metadataPath, "metadata", "", "JSON file carrying the field/enum/object catalogs")
	cmd.Flags().BoolVar(&weaklyLoaded, "weak", false, "skip full_package_lab precaching (spec.md §4.10)")
	return cmd
}

// bootHooks wires a precache.Driver's two side effects into the canonical
// chain: loading an archive means opening it through the chain and
// registering it on the archive manager; precaching a package means loading
// its object directory.
type bootHooks struct {
	reg   *registry.Registry
	chain vfs.Processor
	am    *vfs.ArchiveManager
	dir   *directory.Manager
	log   *log.Logger
}

func (h *bootHooks) LoadArchive(nativePath string) error {
	item := vfs.NewWorkItem(vfs.Open, nativePath)
	h.chain.Process(item)
	if item.Status != vfs.Complete || item.Handle == nil {
		return xerrors.Errorf("boot: open %q: status %s", nativePath, item.Status)
	}
	defer func() {
		closeItem := vfs.NewWorkItem(vfs.Close, nativePath)
		closeItem.Handle = item.Handle
		h.chain.Process(closeItem)
	}()

	buf := make([]byte, item.Handle.Size)
	readItem := vfs.NewWorkItem(vfs.Read, nativePath)
	readItem.Handle = item.Handle
	readItem.Buffer = buf
	h.chain.Process(readItem)
	if readItem.Status != vfs.Complete {
		return xerrors.Errorf("boot: read %q: status %s", nativePath, readItem.Status)
	}

	a, err := iga.Open(nativePath, readItem.Buffer, h.reg)
	if err != nil {
		return err
	}
	h.am.AddArchive(iga.AsStorageDevice(a, h.reg))
	h.log.Printf("boot: loaded archive %q (%d entries)", nativePath, len(a.Files))
	return nil
}

func (h *bootHooks) PrecachePackage(packagePath string) error {
	d, err := h.dir.Load("", packagePath)
	if err != nil {
		return err
	}
	h.log.Printf("boot: precached package %q (%d objects)", packagePath, len(d.Objects()))
	return nil
}

func runBoot(scriptPath, root, metadataPath string, weaklyLoaded bool) error {
	scriptBuf, err := os.ReadFile(scriptPath)
	if err != nil {
		return err
	}
	reg, err := newRegistry()
	if err != nil {
		return err
	}
	cf, err := loadCatalog(metadataPath)
	if err != nil {
		return err
	}

	logger := newLogger("[boot] ")
	mm := meta.NewManager(reg.Platform(), logger, cf.Fields, cf.Enums, cf.Objects)
	fr := fieldreader.NewRegistry(fieldreader.IGZ, logger)
	ext := extref.New(logger)

	mount := vfs.NewMountManager()
	am := vfs.NewArchiveManager()
	sd := vfs.NewStdLibDevice(root)
	mount.SetNextProcessor(am)
	am.SetNextProcessor(sd)

	dirMgr := directory.New(reg, mm, fr, ext, directory.FromVFS(mount), logger)
	hooks := &bootHooks{reg: reg, chain: mount, am: am, dir: dirMgr, log: logger}

	driver := precache.New(reg, hooks, logger, weaklyLoaded)
	if err := driver.Run(bytes.NewReader(scriptBuf)); err != nil {
		return err
	}
	fmt.Println("boot: script completed")
	return nil
}
