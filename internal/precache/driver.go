package precache

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/xerrors"

	"github.com/arklib/igcore/internal/registry"
)

// Hooks are the side-effecting operations a script can trigger, kept behind
// an interface so this package doesn't need to import the archive codec or
// the object directory directly; the host (cmd/igcore) wires a concrete
// implementation together at startup.
type Hooks interface {
	// LoadArchive opens the archive at nativePath and adds it to the
	// archive manager's main list.
	LoadArchive(nativePath string) error
	// PrecachePackage loads packagePath's object directory into the
	// default memory pool.
	PrecachePackage(packagePath string) error
}

// Driver runs one init script against reg and hooks.
type Driver struct {
	reg          *registry.Registry
	hooks        Hooks
	log          Logger
	weaklyLoaded bool
}

// Logger is the minimal logging seam the driver needs; *log.Logger
// satisfies it.
type Logger interface {
	Printf(format string, args ...any)
}

// New builds a Driver. weaklyLoaded controls whether full_package_lab tasks
// actually precache (spec.md §4.10).
func New(reg *registry.Registry, hooks Hooks, logger Logger, weaklyLoaded bool) *Driver {
	return &Driver{reg: reg, hooks: hooks, log: logger, weaklyLoaded: weaklyLoaded}
}

// Run executes the script read from r line by line. A malformed line is
// logged and skipped; an unterminated "[" aborts the script and returns an
// error.
func (d *Driver) Run(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	task := TaskLooseIGA
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "[") {
			if !strings.HasSuffix(line, "]") {
				return xerrors.Errorf("precache: unterminated '[' on line %d", lineNo)
			}
			name := line[1 : len(line)-1]
			task = parseTask(name, d.weaklyLoaded)
			if task == TaskUnknown {
				d.log.Printf("precache: unknown task %q on line %d", name, lineNo)
			}
			continue
		}

		resolved, ok := resolveLine(d.reg, line)
		if !ok {
			d.log.Printf("precache: malformed line %d: %q", lineNo, line)
			continue
		}

		if err := d.runTask(task, resolved); err != nil {
			d.log.Printf("precache: line %d (%q): %v", lineNo, resolved, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return xerrors.Errorf("precache: reading script: %w", err)
	}
	return nil
}

func (d *Driver) runTask(task Task, line string) error {
	switch task {
	case TaskLooseIGA:
		return d.hooks.LoadArchive(line)
	case TaskLoosePackage:
		return d.hooks.LoadArchive(fmt.Sprintf("app:/archives/%s.pak", line))
	case TaskFullPackage:
		return d.hooks.PrecachePackage(packagePath(line))
	case TaskEngineType:
		return d.setEngineType(line)
	case TaskNoOp, TaskUnknown:
		return nil
	}
	return nil
}

// packagePath normalizes a bare package name to its on-disk form, mirroring
// the original driver's "packages/<name>_pkg.igz" convention.
func packagePath(name string) string {
	p := strings.ToLower(name)
	if !strings.HasPrefix(p, "packages/") {
		p = "packages/" + p
	}
	if !strings.HasSuffix(p, "_pkg.igz") {
		p = p + "_pkg.igz"
	}
	return p
}

func (d *Driver) setEngineType(line string) error {
	var flavor registry.BuildTool
	switch line {
	case "None":
		flavor = registry.None
	case "Standard":
		flavor = registry.Standard
	case "Alternate":
		flavor = registry.Alternate
	default:
		return xerrors.Errorf("precache: %q is not a valid engine type", line)
	}
	if !d.reg.SetBuildTool(flavor) {
		return xerrors.Errorf("precache: build-tool flavor already set, cannot apply %q", line)
	}
	return nil
}
