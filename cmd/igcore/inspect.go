package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arklib/igcore/internal/iga"
)

func newInspectCmd() *cobra.Command {
	var withNames bool
	cmd := &cobra.Command{
		Use:   "inspect <archive.iga>",
		Short: "List an IGA archive's entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args[0], withNames)
		},
	}
	cmd.Flags().BoolVar(&withNames, "names", true, "print the real/logical name pair when the archive carries a name table")
	return cmd
}

func runInspect(path string, withNames bool) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	reg, err := newRegistry()
	if err != nil {
		return err
	}
	a, err := iga.Open(path, buf, reg)
	if err != nil {
		return err
	}

	h := a.Header()
	fmt.Printf("%s: version %#x, %d entries, sector size %d\n", path, h.Version, h.NumFiles, h.SectorSize)
	for _, f := range a.Files {
		scheme := "stored"
		if !f.Uncompressed() {
			scheme = schemeName(f.Scheme())
		}
		if withNames && f.RealName != "" {
			fmt.Printf("  %#08x  %-10s  %8d bytes  %s (%s)\n", f.Hash, scheme, f.UncompressedLength, f.RealName, f.LogicalName)
			continue
		}
		fmt.Printf("  %#08x  %-10s  %8d bytes\n", f.Hash, scheme, f.UncompressedLength)
	}
	return nil
}

func schemeName(s iga.Scheme) string {
	switch s {
	case iga.SchemeDeflate:
		return "deflate"
	case iga.SchemeLZMA:
		return "lzma"
	case iga.SchemeLZ4:
		return "lz4"
	}
	return "stored"
}
