package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/arklib/igcore/internal/fieldreader"
	"github.com/arklib/igcore/internal/igz"
	"github.com/arklib/igcore/internal/meta"
)

// catalogFile is the on-disk shape a --metadata file is expected to carry:
// the three catalogs meta.NewManager needs, externally supplied since
// spec.md leaves their format up to the embedding title.
type catalogFile struct {
	Fields  []meta.FieldCatalogEntry  `json:"fields"`
	Enums   []meta.EnumCatalogEntry   `json:"enums"`
	Objects []meta.ObjectCatalogEntry `json:"objects"`
}

func loadCatalog(path string) (*catalogFile, error) {
	if path == "" {
		return &catalogFile{}, nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cf catalogFile
	if err := json.Unmarshal(buf, &cf); err != nil {
		return nil, fmt.Errorf("metadata %q: %w", path, err)
	}
	return &cf, nil
}

func newDumpCmd() *cobra.Command {
	var metadataPath string
	cmd := &cobra.Command{
		Use:   "dump <file.igz>",
		Short: "Parse an IGZ file and print its object graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(args[0], metadataPath)
		},
	}
	cmd.Flags().StringVar(&metadataPath, "metadata", "", "JSON file carrying the field/enum/object catalogs (see catalogFile)")
	return cmd
}

func runDump(path, metadataPath string) error {
	buf, err := os.ReadFile(path)
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

	logger := newLogger("[dump] ")
	mm := meta.NewManager(reg.Platform(), logger, cf.Fields, cf.Enums, cf.Objects)
	fr := fieldreader.NewRegistry(fieldreader.IGZ, logger)

	deser, err := igz.Load(path, buf, reg.Platform(), mm, fr, nil, logger)
	if err != nil {
		return err
	}

	objects := deser.Objects()
	offsets := make([]uint32, 0, len(objects))
	for off := range objects {
		offsets = append(offsets, off)
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })

	fmt.Printf("%s: %d root(s), %d object(s)\n", path, len(deser.Roots()), len(objects))
	for _, off := range offsets {
		obj := objects[off]
		fmt.Printf("  @%#x  %s  (pool %d)\n", off, obj.Descriptor().Name, obj.Pool())
	}
	return nil
}
