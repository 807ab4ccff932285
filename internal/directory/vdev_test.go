package directory

import "testing"

func TestNormalizePathAppliesVirtualDevicePrefixes(t *testing.T) {
	cases := map[string]string{
		"app:/boot.igz":           "boot.igz",
		"data:/common.igz":        "common.igz",
		"textures:/ui/splash.igz": "textures/ui/splash.igz",
		"TEXTURES:/ui/splash.igz": "textures/ui/splash.igz",
		"/already/native.igz":     "already/native.igz",
		"unknown:/foo.igz":        "unknown:/foo.igz",
	}
	for in, want := range cases {
		if got := normalizePath(in); got != want {
			t.Errorf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}
