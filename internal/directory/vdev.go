package directory

import "strings"

// vdevTable maps a virtual-device prefix to its native path segment
// (spec.md §4.8): most devices alias to a same-named subfolder, a handful
// (the ones historically layered over the archive root) alias to the empty
// string. The set is fixed at compile time.
var vdevTable = map[string]string{
	"app:":           "",
	"data:":          "",
	"archives:":      "archives",
	"textures:":      "textures",
	"sound:":         "sound",
	"music:":         "music",
	"video:":         "video",
	"fonts:":         "fonts",
	"shaders:":       "shaders",
	"scripts:":       "scripts",
	"levels:":        "levels",
	"cinematics:":    "cinematics",
	"localization:":  "localization",
	"save:":          "save",
	"config:":        "config",
	"logs:":          "logs",
	"temp:":          "temp",
	"cache:":         "cache",
	"debug:":         "debug",
	"tools:":         "tools",
	"export:":        "export",
	"streaming:":     "streaming",
	"patch:":         "patch",
	"dlc:":           "dlc",
	"mod:":           "mod",
	"network:":       "network",
	"profile:":       "profile",
	"user:":          "user",
	"animations:":    "animations",
}

// normalizePath rewrites a virtual-device-prefixed path (e.g.
// "textures:/foo/bar.igz") to its native form ("textures/foo/bar.igz").
// Paths without a recognized prefix pass through with only their leading
// slashes stripped.
func normalizePath(path string) string {
	i := strings.IndexByte(path, ':')
	if i < 0 {
		return strings.TrimLeft(path, "/\\")
	}
	prefix := path[:i+1]
	native, ok := vdevTable[strings.ToLower(prefix)]
	if !ok {
		return strings.TrimLeft(path, "/\\")
	}
	rest := strings.TrimLeft(path[i+1:], "/\\")
	if native == "" {
		return rest
	}
	if rest == "" {
		return native
	}
	return native + "/" + rest
}
