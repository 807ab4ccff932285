package precache

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/arklib/igcore/internal/registry"
)

type fakeHooks struct {
	archives []string
	packages []string
	fail     bool
}

func (h *fakeHooks) LoadArchive(path string) error {
	if h.fail {
		return errTest
	}
	h.archives = append(h.archives, path)
	return nil
}

func (h *fakeHooks) PrecachePackage(path string) error {
	h.packages = append(h.packages, path)
	return nil
}

type errString string

func (e errString) Error() string { return string(e) }

const errTest = errString("boom")

type discardLogger struct{ lines []string }

func (l *discardLogger) Printf(format string, args ...any) {
	l.lines = append(l.lines, format)
}

func TestLoosePakLabUsesLiteralPath(t *testing.T) {
	hooks := &fakeHooks{}
	reg := registry.New(registry.GameUnknown, registry.PlatformWin64)
	d := New(reg, hooks, &discardLogger{}, false)

	script := "[loose_pak_lab]\napp:/archives/boot.pak\n"
	if err := d.Run(strings.NewReader(script)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(hooks.archives) != 1 || hooks.archives[0] != "app:/archives/boot.pak" {
		t.Fatalf("got %v", hooks.archives)
	}
}

func TestLoosePakWrapsNameInArchivesPath(t *testing.T) {
	hooks := &fakeHooks{}
	reg := registry.New(registry.GameUnknown, registry.PlatformWin64)
	d := New(reg, hooks, &discardLogger{}, false)

	script := "[loose_pak]\ndlc1\n"
	if err := d.Run(strings.NewReader(script)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(hooks.archives) != 1 || hooks.archives[0] != "app:/archives/dlc1.pak" {
		t.Fatalf("got %v", hooks.archives)
	}
}

func TestFullPackageLabSkippedWhenWeaklyLoaded(t *testing.T) {
	hooks := &fakeHooks{}
	reg := registry.New(registry.GameUnknown, registry.PlatformWin64)
	d := New(reg, hooks, &discardLogger{}, true)

	script := "[full_package_lab]\ncharacters\n"
	if err := d.Run(strings.NewReader(script)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(hooks.packages) != 0 {
		t.Fatalf("expected no packages precached in weakly-loaded mode, got %v", hooks.packages)
	}
}

func TestFullPackageLabNormalizesPath(t *testing.T) {
	hooks := &fakeHooks{}
	reg := registry.New(registry.GameUnknown, registry.PlatformWin64)
	d := New(reg, hooks, &discardLogger{}, false)

	script := "[full_package_lab]\nCharacters\n"
	if err := d.Run(strings.NewReader(script)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(hooks.packages) != 1 || hooks.packages[0] != "packages/characters_pkg.igz" {
		t.Fatalf("got %v", hooks.packages)
	}
}

func TestEngineTypeSetsBuildTool(t *testing.T) {
	hooks := &fakeHooks{}
	reg := registry.New(registry.GameUnknown, registry.PlatformWin64)
	d := New(reg, hooks, &discardLogger{}, false)

	script := "[engine_type]\nAlternate\n"
	if err := d.Run(strings.NewReader(script)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if reg.BuildTool() != registry.Alternate {
		t.Fatalf("got %v, want Alternate", reg.BuildTool())
	}
}

func TestEnvSubstitutionResolvesPlatformString(t *testing.T) {
	hooks := &fakeHooks{}
	reg := registry.New(registry.GameUnknown, registry.PlatformWin64)
	d := New(reg, hooks, &discardLogger{}, false)

	script := "[loose_pak_lab]\napp:/archives/${platform_string}.pak\n"
	if err := d.Run(strings.NewReader(script)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := "app:/archives/Win64.pak"
	if len(hooks.archives) != 1 || hooks.archives[0] != want {
		t.Fatalf("got %v, want %q", hooks.archives, want)
	}
}

func TestUnterminatedBracketAbortsScript(t *testing.T) {
	hooks := &fakeHooks{}
	reg := registry.New(registry.GameUnknown, registry.PlatformWin64)
	d := New(reg, hooks, &discardLogger{}, false)

	err := d.Run(strings.NewReader("[loose_pak_lab\nfoo\n"))
	if err == nil {
		t.Fatal("expected an error for unterminated '['")
	}
}

func TestUnknownTaskIsLoggedAndSkipped(t *testing.T) {
	hooks := &fakeHooks{}
	reg := registry.New(registry.GameUnknown, registry.PlatformWin64)
	logger := &discardLogger{}
	d := New(reg, hooks, logger, false)

	script := "[not_a_real_task]\nfoo\n"
	if err := d.Run(strings.NewReader(script)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(logger.lines) == 0 {
		t.Fatal("expected the unknown task to be logged")
	}
	if len(hooks.archives) != 0 {
		t.Fatal("unknown task should not trigger any hook")
	}
}

func TestMultipleLinesUnderOneTaskLoadInOrder(t *testing.T) {
	hooks := &fakeHooks{}
	reg := registry.New(registry.GameUnknown, registry.PlatformWin64)
	d := New(reg, hooks, &discardLogger{}, false)

	script := "[loose_pak_lab]\napp:/archives/boot.pak\napp:/archives/common.pak\napp:/archives/ui.pak\n"
	if err := d.Run(strings.NewReader(script)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{
		"app:/archives/boot.pak",
		"app:/archives/common.pak",
		"app:/archives/ui.pak",
	}
	if diff := cmp.Diff(want, hooks.archives); diff != "" {
		t.Fatalf("archives mismatch (-want +got):\n%s", diff)
	}
}
