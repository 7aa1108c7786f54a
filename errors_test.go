package bpt_test

import (
	"errors"
	"testing"

	"github.com/maxtruxa/bpt"
)

func TestErrorIs(t *testing.T) {
	err := bpt.New(bpt.ErrRepoAlreadyInit, "repo at /tmp/x")
	if !errors.Is(err, bpt.ErrRepoAlreadyInit) {
		t.Fatal("expected errors.Is to match ErrRepoAlreadyInit")
	}
	if errors.Is(err, bpt.ErrBusy) {
		t.Fatal("did not expect errors.Is to match ErrBusy")
	}
}

func TestErrorWrapUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := bpt.Wrap(bpt.ErrIOOther, cause, "writing pkg.tgz")
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to find the wrapped cause")
	}
}

func TestErrorWithOp(t *testing.T) {
	err := bpt.New(bpt.ErrInvalidName, "bad name").WithOp("while parsing dependency string")
	want := "while parsing dependency string: [invalid-name]: bad name"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	err2 := err.WithOp("while parsing manifest")
	want2 := "while parsing manifest: while parsing dependency string: [invalid-name]: bad name"
	if got := err2.Error(); got != want2 {
		t.Errorf("Error() = %q, want %q", got, want2)
	}
}
