package xlog_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/maxtruxa/bpt/internal/xlog"
)

func TestWithAttrsMergesIntoRecord(t *testing.T) {
	var buf bytes.Buffer
	h := xlog.Handler(slog.NewJSONHandler(&buf, nil))
	logger := slog.New(h)

	ctx := xlog.With(context.Background(), "repo", "/tmp/r")
	ctx = xlog.With(ctx, "pkg", "foo@1.0.0~1")
	logger.InfoContext(ctx, "imported package")

	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if out["repo"] != "/tmp/r" {
		t.Errorf("repo attr = %v, want /tmp/r", out["repo"])
	}
	if out["pkg"] != "foo@1.0.0~1" {
		t.Errorf("pkg attr = %v, want foo@1.0.0~1", out["pkg"])
	}
}

func TestWithAttrsDedupesLatestWins(t *testing.T) {
	ctx := xlog.With(context.Background(), "k", "v1")
	ctx = xlog.With(ctx, "k", "v2")

	var buf bytes.Buffer
	logger := slog.New(xlog.Handler(slog.NewJSONHandler(&buf, nil)))
	logger.InfoContext(ctx, "msg")

	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["k"] != "v2" {
		t.Errorf("k attr = %v, want v2", out["k"])
	}
}
