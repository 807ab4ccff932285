// Package precache implements the init-script driver (spec.md §4.10): a
// line-oriented text script that switches between a small set of loader
// tasks via bracketed `[task-name]` lines and resolves `${...}` tokens
// against an environment-variable substitution map.
package precache

import (
	"strings"

	"github.com/arklib/igcore/internal/registry"
)

// Task is the closed set of init-script task kinds.
type Task int

const (
	// TaskLooseIGA is the default task: load one archive at a literal
	// path ("loose_pak_lab").
	TaskLooseIGA Task = iota
	// TaskLoosePackage loads one archive at app:/archives/<line>.pak
	// ("loose_pak").
	TaskLoosePackage
	// TaskFullPackage precaches a package into the default memory pool,
	// skipped entirely in weakly-loaded mode ("full_package_lab").
	TaskFullPackage
	// TaskEngineType sets the registry's build-tool flavor ("engine_type").
	TaskEngineType
	// TaskNoOp absorbs full_package_lab lines in weakly-loaded mode.
	TaskNoOp
	// TaskUnknown marks an unrecognized bracket name.
	TaskUnknown
)

// parseTask maps a bracketed task name to its Task, honoring
// weaklyLoaded's effect on full_package_lab.
func parseTask(name string, weaklyLoaded bool) Task {
	switch name {
	case "loose_pak":
		return TaskLoosePackage
	case "loose_pak_lab":
		return TaskLooseIGA
	case "full_package_lab":
		if weaklyLoaded {
			return TaskNoOp
		}
		return TaskFullPackage
	case "engine_type":
		return TaskEngineType
	default:
		return TaskUnknown
	}
}

// envLookup resolves a ${...} token name to its current value. Only
// "platform_string" is defined today, mirroring the single-entry lookup
// table in the original driver.
func envLookup(reg *registry.Registry, token string) (string, bool) {
	switch token {
	case "platform_string":
		return reg.Platform().String(), true
	}
	return "", false
}

// resolveLine expands every ${token} occurrence in line against envLookup.
// It returns ok=false for an unknown token or an unterminated "${".
func resolveLine(reg *registry.Registry, line string) (string, bool) {
	var out strings.Builder
	rest := line
	for {
		i := strings.Index(rest, "${")
		if i < 0 {
			out.WriteString(rest)
			return out.String(), true
		}
		out.WriteString(rest[:i])
		rest = rest[i+2:]

		j := strings.IndexByte(rest, '}')
		if j < 0 {
			return "", false
		}
		token := rest[:j]
		rest = rest[j+1:]

		val, ok := envLookup(reg, token)
		if !ok {
			return "", false
		}
		out.WriteString(val)
	}
}
