package toolchain_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/maxtruxa/bpt"
	"github.com/maxtruxa/bpt/toolchain"
)

const sampleFile = `
Include-Template: -I<PATH>
Define-Template: -D<DEF>
Compile-C-Template: cc -c <FLAGS> <FILE> -o <OUT>
Compile-C++-Template: c++ -std=c++17 -c <FLAGS> <FILE> -o <OUT>
Create-Archive-Template: ar rcs <ARCHIVE> <OBJECTS>
Archive-Suffix: .a
Warning-Flags: -Wall -Wextra
`

func load(t *testing.T, s string) *toolchain.Toolchain {
	t.Helper()
	tc, err := toolchain.Load(strings.NewReader(s))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return tc
}

func TestLoadRequiredAndOptionalKeys(t *testing.T) {
	tc := load(t, sampleFile)
	if tc.ArchiveSuffix != ".a" {
		t.Errorf("ArchiveSuffix = %q, want \".a\"", tc.ArchiveSuffix)
	}
	if got, want := tc.WarningFlags, []string{"-Wall", "-Wextra"}; cmp.Diff(want, got) != "" {
		t.Errorf("WarningFlags = %v, want %v", got, want)
	}
	if got, want := tc.IncludeTemplate, []string{"-I<PATH>"}; cmp.Diff(want, got) != "" {
		t.Errorf("IncludeTemplate = %v, want %v", got, want)
	}
}

func TestLoadMissingRequiredKeyFails(t *testing.T) {
	s := strings.Replace(sampleFile, "Archive-Suffix: .a\n", "", 1)
	_, err := toolchain.Load(strings.NewReader(s))
	if !errors.Is(err, bpt.ErrToolchainLoadFailed) {
		t.Fatalf("error = %v, want ErrToolchainLoadFailed", err)
	}
}

func TestLoadUnknownKeyFails(t *testing.T) {
	s := sampleFile + "Some-Unknown-Key: foo\n"
	_, err := toolchain.Load(strings.NewReader(s))
	if !errors.Is(err, bpt.ErrToolchainLoadFailed) {
		t.Fatalf("error = %v, want ErrToolchainLoadFailed", err)
	}
}

func TestLoadDuplicateKeyFails(t *testing.T) {
	s := sampleFile + "Archive-Suffix: .lib\n"
	_, err := toolchain.Load(strings.NewReader(s))
	if !errors.Is(err, bpt.ErrToolchainLoadFailed) {
		t.Fatalf("error = %v, want ErrToolchainLoadFailed", err)
	}
}

func TestCompileArgsSpliceAndSingle(t *testing.T) {
	tc := load(t, sampleFile)
	flags := append(tc.IncludeArgs("/usr/include"), tc.WarningFlags...)
	args := tc.CompileArgs(false, "foo.c", "foo.o", flags)
	want := []string{"cc", "-c", "-I/usr/include", "-Wall", "-Wextra", "foo.c", "-o", "foo.o"}
	if diff := cmp.Diff(want, args); diff != "" {
		t.Errorf("CompileArgs mismatch (-want +got):\n%s", diff)
	}
}

func TestArchiveArgs(t *testing.T) {
	tc := load(t, sampleFile)
	args := tc.ArchiveArgs([]string{"a.o", "b.o"}, "libfoo.a")
	want := []string{"ar", "rcs", "libfoo.a", "a.o", "b.o"}
	if diff := cmp.Diff(want, args); diff != "" {
		t.Errorf("ArchiveArgs mismatch (-want +got):\n%s", diff)
	}
}
