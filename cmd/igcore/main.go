// Command igcore is a diagnostic CLI over the asset-loading core: it can
// list an archive's entries, dump an IGZ file's object graph, and replay a
// boot script against a plain filesystem root.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var (
	gameFlag     string
	platformFlag string
)

func main() {
	root := &cobra.Command{
		Use:   "igcore",
		Short: "Inspect IGA archives and IGZ object graphs",
		Long:  "igcore is a diagnostic tool for the proprietary IGA archive and IGZ object-graph formats.",
	}
	root.PersistentFlags().StringVar(&gameFlag, "game", "Unknown", "target game (see internal/registry for the catalog)")
	root.PersistentFlags().StringVar(&platformFlag, "platform", "Win64", "target platform (Win32, Win64, Xbox360, PS3, WiiU, Switch)")

	root.AddCommand(newInspectCmd())
	root.AddCommand(newDumpCmd())
	root.AddCommand(newBootCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(prefix string) *log.Logger {
	return log.New(newLogWriter(os.Stderr), prefix, log.LstdFlags)
}
