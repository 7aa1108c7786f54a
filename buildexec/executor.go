// Package buildexec is the incremental, parallel build executor, per
// spec §4.I: an up-to-date check per compile, GNU/MSVC-style dependency
// capture, a shared worker pool run once per phase (compile, archive,
// link), and deps-record persistence once the compile phase's workers
// have joined.
package buildexec

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/maxtruxa/bpt"
	"github.com/maxtruxa/bpt/buildplan"
	"github.com/maxtruxa/bpt/toolchain"
)

var (
	phaseTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bpt",
			Subsystem: "build",
			Name:      "items_total",
			Help:      "Total number of build items processed per phase.",
		},
		[]string{"phase", "outcome"},
	)
	phaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bpt",
			Subsystem: "build",
			Name:      "phase_duration_seconds",
			Help:      "Duration of a single build phase invocation (compile_all/archive_all/link_all).",
		},
		[]string{"phase"},
	)
)

// DepsMode selects how compile-dependency information is captured.
type DepsMode int

const (
	// GNUMakeDeps parses a Makefile-fragment deps file the compile
	// command is expected to emit next to its object file
	// ("<object>.d", by convention).
	GNUMakeDeps DepsMode = iota
	// MSVCIncludeDeps parses "including file" lines out of the
	// compiler's own stdout/stderr.
	MSVCIncludeDeps
)

// Runner executes a single compiler/archiver/linker invocation. The
// default implementation (NewOSRunner) shells out via os/exec; tests
// supply a fake.
type Runner interface {
	Run(ctx context.Context, args []string) (stdout string, err error)
}

type osRunner struct{}

// NewOSRunner returns a Runner that executes args[0] with args[1:] as a
// real subprocess, combining stdout and stderr (MSVC-style deps capture
// needs both streams interleaved).
func NewOSRunner() Runner { return osRunner{} }

func (osRunner) Run(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return "", bpt.New(bpt.ErrCompilationFailed, "empty command")
	}
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// Options configures an Executor.
type Options struct {
	Toolchain     *toolchain.Toolchain
	Deps          *DepsStore
	Runner        Runner
	Jobs          int // 0 = internal/parallel default (hardware concurrency + 2)
	DepsMode      DepsMode
	MSVCPrefix    string              // required when DepsMode == MSVCIncludeDeps
	Flags         map[string][]string // library name -> extra compile flags (includes, defines, warnings)
}

// Executor runs the compile/archive/link phases of a buildplan.Plan.
type Executor struct {
	opts Options
}

// New constructs an Executor from opts.
func New(opts Options) *Executor {
	return &Executor{opts: opts}
}

// CompileAll runs every CompileFilePlan, skipping any whose command and
// inputs are unchanged and not newer than the output (invariant 6).
func (e *Executor) CompileAll(ctx context.Context, plans []buildplan.CompileFilePlan) error {
	start := time.Now()
	defer func() { phaseDuration.WithLabelValues("compile").Observe(time.Since(start).Seconds()) }()

	var mu sync.Mutex
	var records []DepsRecord
	err := runPhase("compile", e.opts.Jobs, plans, func(p buildplan.CompileFilePlan) error {
		flags := append([]string{}, e.opts.Toolchain.WarningFlags...)
		flags = append(flags, e.opts.Flags[p.Library.String()]...)
		args := e.opts.Toolchain.CompileArgs(isCxx(p.Source), p.Source, p.Object, flags)
		command := fmt.Sprint(args)

		skip, err := e.upToDate(ctx, p.Object, command)
		if err != nil {
			return err
		}
		if skip {
			return nil
		}

		if err := os.MkdirAll(filepath.Dir(p.Object), 0o755); err != nil {
			return bpt.Wrap(bpt.ErrCompilationFailed, err, p.Source)
		}

		out, err := e.opts.Runner.Run(ctx, args)
		if err != nil {
			return bpt.Wrap(bpt.ErrCompilationFailed, err, p.Source+": "+out)
		}

		var inputs []string
		switch e.opts.DepsMode {
		case GNUMakeDeps:
			depsPath := p.Object + ".d"
			b, err := os.ReadFile(depsPath)
			if err != nil {
				return bpt.Wrap(bpt.ErrMissingDepsFile, err, depsPath)
			}
			inputs = parseGNUMakeDeps(string(b))
		case MSVCIncludeDeps:
			_, inputs = parseMSVCDeps(out, e.opts.MSVCPrefix)
		}
		if len(inputs) == 0 {
			inputs = []string{p.Source}
		}

		mu.Lock()
		records = append(records, DepsRecord{Output: p.Object, Command: command, Inputs: inputs})
		mu.Unlock()
		return nil
	})
	for _, rec := range records {
		if serr := e.opts.Deps.Save(ctx, rec); serr != nil && err == nil {
			err = serr
		}
	}
	return err
}

// upToDate implements spec §4.I's up-to-date check.
func (e *Executor) upToDate(ctx context.Context, output, command string) (bool, error) {
	rec, ok, err := e.opts.Deps.Load(ctx, output)
	if err != nil {
		return false, err
	}
	if !ok || rec.Command != command {
		return false, nil
	}
	outInfo, err := os.Stat(output)
	if err != nil {
		return false, nil // no prior output on disk: must (re)compile
	}
	for _, in := range rec.Inputs {
		inInfo, err := os.Stat(in)
		if err != nil {
			return false, nil
		}
		if inInfo.ModTime().After(outInfo.ModTime()) {
			return false, nil
		}
	}
	return true, nil
}

// ArchiveAll runs every ArchivePlan.
func (e *Executor) ArchiveAll(ctx context.Context, plans []buildplan.ArchivePlan) error {
	start := time.Now()
	defer func() { phaseDuration.WithLabelValues("archive").Observe(time.Since(start).Seconds()) }()

	return runPhase("archive", e.opts.Jobs, plans, func(p buildplan.ArchivePlan) error {
		if err := os.MkdirAll(filepath.Dir(p.Archive), 0o755); err != nil {
			return bpt.Wrap(bpt.ErrArchiveFailed, err, p.Archive)
		}
		args := e.opts.Toolchain.ArchiveArgs(p.Objects, p.Archive)
		if out, err := e.opts.Runner.Run(ctx, args); err != nil {
			return bpt.Wrap(bpt.ErrArchiveFailed, err, p.Archive+": "+out)
		}
		return nil
	})
}

// LinkPlanner is satisfied by callers that know how to invoke a linker;
// the toolchain model (spec §4.G) defines no Link-Template, so link
// command construction is supplied by the caller (e.g. cmd/bpt, which
// knows the toolchain's linker convention) rather than by this package.
type LinkPlanner interface {
	LinkArgs(p buildplan.LinkPlan) []string
}

// LinkAll runs every LinkPlan using linker to build each command line.
func (e *Executor) LinkAll(ctx context.Context, plans []buildplan.LinkPlan, linker LinkPlanner) error {
	start := time.Now()
	defer func() { phaseDuration.WithLabelValues("link").Observe(time.Since(start).Seconds()) }()

	return runPhase("link", e.opts.Jobs, plans, func(p buildplan.LinkPlan) error {
		if err := os.MkdirAll(filepath.Dir(p.Output), 0o755); err != nil {
			return bpt.Wrap(bpt.ErrLinkFailed, err, p.Output)
		}
		args := linker.LinkArgs(p)
		if out, err := e.opts.Runner.Run(ctx, args); err != nil {
			return bpt.Wrap(bpt.ErrLinkFailed, err, p.Output+": "+out)
		}
		return nil
	})
}

func isCxx(path string) bool {
	switch filepath.Ext(path) {
	case ".cpp", ".cc", ".cxx", ".c++", ".CPP", ".CC", ".CXX", ".C++":
		return true
	default:
		return false
	}
}
