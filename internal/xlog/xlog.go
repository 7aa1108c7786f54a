// Package xlog carries structured logging attributes on a context.Context,
// the way the teacher's toolkit/log package does: callers accumulate
// slog.Attr values as a request or operation descends through layers, and
// a wrapping slog.Handler merges them into every record.
package xlog

import (
	"context"
	"log/slog"
	"slices"
)

type ctxkey int

const attrsKey ctxkey = iota

// With returns a context carrying args (in slog's key-value-or-Attr
// shorthand form) in addition to any attributes already on ctx.
func With(ctx context.Context, args ...any) context.Context {
	return WithAttrs(ctx, argsToAttrs(args)...)
}

// WithAttrs is like With but takes slog.Attr values directly.
func WithAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	if v, ok := ctx.Value(attrsKey).(slog.Value); ok {
		attrs = append(slices.Clone(v.Group()), attrs...)
	}
	seen := make(map[string]struct{}, len(attrs))
	dedup := make([]slog.Attr, 0, len(attrs))
	for i := len(attrs) - 1; i >= 0; i-- {
		a := attrs[i]
		if _, ok := seen[a.Key]; ok {
			continue
		}
		seen[a.Key] = struct{}{}
		dedup = append(dedup, a)
	}
	slices.Reverse(dedup)
	return context.WithValue(ctx, attrsKey, slog.GroupValue(dedup...))
}

// Handler wraps next so that attributes attached to a record's context via
// With/WithAttrs are merged into the record.
func Handler(next slog.Handler) slog.Handler {
	return handler{next: next}
}

type handler struct{ next slog.Handler }

func (h handler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.next.Enabled(ctx, lvl)
}

func (h handler) Handle(ctx context.Context, r slog.Record) error {
	if v, ok := ctx.Value(attrsKey).(slog.Value); ok {
		for _, a := range v.Group() {
			r.AddAttrs(a)
		}
	}
	return h.next.Handle(ctx, r)
}

func (h handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return handler{next: h.next.WithAttrs(attrs)}
}

func (h handler) WithGroup(name string) slog.Handler {
	return handler{next: h.next.WithGroup(name)}
}

func argsToAttrs(args []any) []slog.Attr {
	var attrs []slog.Attr
	for len(args) > 0 {
		var a slog.Attr
		a, args = argToAttr(args)
		attrs = append(attrs, a)
	}
	return attrs
}

func argToAttr(args []any) (slog.Attr, []any) {
	const badKey = "!BADKEY"
	switch x := args[0].(type) {
	case string:
		if len(args) == 1 {
			return slog.String(badKey, x), nil
		}
		return slog.Any(x, args[1]), args[2:]
	case slog.Attr:
		return x, args[1:]
	default:
		return slog.Any(badKey, x), args[1:]
	}
}
