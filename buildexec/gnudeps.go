package buildexec

import "strings"

// parseGNUMakeDeps parses a Makefile-fragment dependency file (the
// output of e.g. "-MMD -MF") into its list of input paths. The format is
// "<target>: <input> <input> ... \\\n  <input> ...", with a trailing
// backslash continuing the rule onto the next line.
func parseGNUMakeDeps(contents string) []string {
	// Join backslash-newline continuations into one logical line.
	joined := strings.ReplaceAll(contents, "\\\r\n", " ")
	joined = strings.ReplaceAll(joined, "\\\n", " ")

	var inputs []string
	for _, line := range strings.Split(joined, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		// Drop the "<target>:" prefix on the rule's first (now only)
		// line; everything else is already a bare input list.
		if i := strings.Index(line, ":"); i >= 0 {
			line = line[i+1:]
		}
		for _, tok := range strings.Fields(line) {
			inputs = append(inputs, tok)
		}
	}
	return inputs
}
