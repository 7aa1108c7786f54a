package toolchain

import "strings"

// Single-value placeholders are string-replaced inside whichever argument
// contains them. Splice placeholders expand to zero or more argv entries
// in place of the single token that held them.
const (
	placeholderPath    = "<PATH>"
	placeholderDef     = "<DEF>"
	placeholderFile    = "<FILE>"
	placeholderOut     = "<OUT>"
	placeholderFlags   = "<FLAGS>"
	placeholderObjects = "<OBJECTS>"
	placeholderArchive = "<ARCHIVE>"
)

// substituteSingle returns template with every occurrence of placeholder
// across every argument replaced by value.
func substituteSingle(template []string, placeholder, value string) []string {
	out := make([]string, len(template))
	for i, arg := range template {
		out[i] = strings.ReplaceAll(arg, placeholder, value)
	}
	return out
}

// substituteSplice expands any argument that is exactly placeholder into
// the full values slice (in place); other arguments pass through
// unchanged. Per spec §4.G, splice placeholders ("<FLAGS>", "<OBJECTS>")
// only ever appear as a standalone template argument, never embedded in
// a larger string.
func substituteSplice(template []string, placeholder string, values []string) []string {
	var out []string
	for _, arg := range template {
		if arg == placeholder {
			out = append(out, values...)
		} else {
			out = append(out, arg)
		}
	}
	return out
}

// IncludeArgs renders the Include-Template for a single include path.
func (tc *Toolchain) IncludeArgs(path string) []string {
	return substituteSingle(tc.IncludeTemplate, placeholderPath, path)
}

// DefineArgs renders the Define-Template for a single "NAME" or
// "NAME=value" definition.
func (tc *Toolchain) DefineArgs(def string) []string {
	return substituteSingle(tc.DefineTemplate, placeholderDef, def)
}

// CompileArgs renders a Compile-C-Template or Compile-C++-Template
// (selected by the caller via cxx) for one translation unit: file is
// substituted for <FILE>, out for <OUT>, and flags (every include arg,
// define arg, and warning flag, concatenated by the caller) splices in
// for <FLAGS>.
func (tc *Toolchain) CompileArgs(cxx bool, file, out string, flags []string) []string {
	template := tc.CompileCTemplate
	if cxx {
		template = tc.CompileCxxTemplate
	}
	args := substituteSingle(template, placeholderFile, file)
	args = substituteSingle(args, placeholderOut, out)
	args = substituteSplice(args, placeholderFlags, flags)
	return args
}

// ArchiveArgs renders the Create-Archive-Template for a set of object
// files and an output archive path.
func (tc *Toolchain) ArchiveArgs(objects []string, archive string) []string {
	args := substituteSingle(tc.CreateArchiveTemplate, placeholderArchive, archive)
	args = substituteSplice(args, placeholderObjects, objects)
	return args
}
