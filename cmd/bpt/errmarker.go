package main

import (
	"errors"
	"os"
	"strings"

	"github.com/maxtruxa/bpt"
)

// writeErrorMarker writes a short stable marker string to the path named
// by BPT_ERROR_MARKER_FILE, when set (spec §6: "Error markers ... are
// written to a test-only marker file when set by the environment").
// opPath is the dash-joined subcommand path (e.g. "repo-init"); the
// marker is opPath with the error Kind's own subsystem prefix appended
// in place of its duplicate — e.g. "repo-init" + "repo-already-init"
// becomes "repo-init-already-init".
func writeErrorMarker(opPath string, err error) {
	markerPath := os.Getenv("BPT_ERROR_MARKER_FILE")
	if markerPath == "" {
		return
	}
	var be *bpt.Error
	if !errors.As(err, &be) {
		return
	}
	_ = os.WriteFile(markerPath, []byte(errorMarker(opPath, be.Kind)), 0o644)
}

func errorMarker(opPath string, kind bpt.ErrorKind) string {
	first, _, _ := strings.Cut(opPath, "-")
	suffix := strings.TrimPrefix(string(kind), first+"-")
	return opPath + "-" + suffix
}
