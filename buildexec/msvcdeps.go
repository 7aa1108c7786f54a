package buildexec

import "strings"

// parseMSVCDeps scans compiler output for the configured "including
// file" prefix (spec §4.I: "MSVC-style: parse the compiler's
// stderr/stdout for the configured 'including file' prefix lines"),
// returning the stripped input paths and the output with those lines
// removed.
func parseMSVCDeps(output, prefix string) (cleaned string, inputs []string) {
	var kept []string
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimRight(line, "\r")
		if rest, ok := strings.CutPrefix(trimmed, prefix); ok {
			inputs = append(inputs, strings.TrimSpace(rest))
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n"), inputs
}
