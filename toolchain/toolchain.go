// Package toolchain loads and applies a compiler toolchain description,
// per spec §4.G: a key-value text file naming the command templates used
// to include directories, define macros, compile C/C++ translation
// units, and archive objects into a static library.
package toolchain

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/maxtruxa/bpt"
)

// Toolchain is a fully loaded, ready-to-substitute set of command
// templates.
type Toolchain struct {
	IncludeTemplate      []string
	DefineTemplate       []string
	CompileCTemplate     []string
	CompileCxxTemplate   []string
	CreateArchiveTemplate []string
	ArchiveSuffix        string
	WarningFlags         []string // optional; nil if not given
}

const (
	keyInclude        = "Include-Template"
	keyDefine         = "Define-Template"
	keyCompileC       = "Compile-C-Template"
	keyCompileCxx     = "Compile-C++-Template"
	keyCreateArchive  = "Create-Archive-Template"
	keyArchiveSuffix  = "Archive-Suffix"
	keyWarningFlags   = "Warning-Flags"
)

var requiredKeys = []string{
	keyInclude, keyDefine, keyCompileC, keyCompileCxx, keyCreateArchive, keyArchiveSuffix,
}

// templateKeys are keys whose value is shell-split into multiple
// argument tokens. keyArchiveSuffix is a single literal string value,
// not a template, and is handled separately.
var templateKeys = map[string]bool{
	keyInclude:       true,
	keyDefine:        true,
	keyCompileC:      true,
	keyCompileCxx:    true,
	keyCreateArchive: true,
	keyWarningFlags:  true,
}

// Load parses a toolchain description from r. Every required key must be
// present exactly once; Warning-Flags is optional; any other key is an
// error; duplicate keys (required or optional) are an error.
func Load(r io.Reader) (*Toolchain, error) {
	raw := make(map[string]string)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, bpt.New(bpt.ErrToolchainLoadFailed,
				fmt.Sprintf("malformed line (expected \"Key: value\"): %q", line))
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if !templateKeys[key] && key != keyArchiveSuffix {
			return nil, bpt.New(bpt.ErrToolchainLoadFailed,
				fmt.Sprintf("unknown toolchain key %q", key))
		}
		if _, dup := raw[key]; dup {
			return nil, bpt.New(bpt.ErrToolchainLoadFailed,
				fmt.Sprintf("duplicate toolchain key %q", key))
		}
		raw[key] = value
	}
	if err := sc.Err(); err != nil {
		return nil, bpt.Wrap(bpt.ErrToolchainLoadFailed, err, "reading toolchain file")
	}

	for _, k := range requiredKeys {
		if _, ok := raw[k]; !ok {
			return nil, bpt.New(bpt.ErrToolchainLoadFailed,
				fmt.Sprintf("missing required toolchain key %q", k))
		}
	}

	tc := &Toolchain{ArchiveSuffix: raw[keyArchiveSuffix]}
	var err error
	if tc.IncludeTemplate, err = shellSplit(raw[keyInclude]); err != nil {
		return nil, bpt.Wrap(bpt.ErrToolchainLoadFailed, err, keyInclude)
	}
	if tc.DefineTemplate, err = shellSplit(raw[keyDefine]); err != nil {
		return nil, bpt.Wrap(bpt.ErrToolchainLoadFailed, err, keyDefine)
	}
	if tc.CompileCTemplate, err = shellSplit(raw[keyCompileC]); err != nil {
		return nil, bpt.Wrap(bpt.ErrToolchainLoadFailed, err, keyCompileC)
	}
	if tc.CompileCxxTemplate, err = shellSplit(raw[keyCompileCxx]); err != nil {
		return nil, bpt.Wrap(bpt.ErrToolchainLoadFailed, err, keyCompileCxx)
	}
	if tc.CreateArchiveTemplate, err = shellSplit(raw[keyCreateArchive]); err != nil {
		return nil, bpt.Wrap(bpt.ErrToolchainLoadFailed, err, keyCreateArchive)
	}
	if wf, ok := raw[keyWarningFlags]; ok {
		if tc.WarningFlags, err = shellSplit(wf); err != nil {
			return nil, bpt.Wrap(bpt.ErrToolchainLoadFailed, err, keyWarningFlags)
		}
	}
	return tc, nil
}
