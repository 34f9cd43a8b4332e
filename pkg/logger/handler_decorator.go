package logger

import (
	"context"
	"log/slog"
	"slices"
)

// ContextExtractor derives an attribute from the context of a record.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

// contextHandler adds the attributes stored with WithAttrs, then the
// extractor results, to each record before passing it on. Context attributes
// stay at the top level even when the logger was grouped with WithGroup.
type contextHandler struct {
	next       slog.Handler
	extractors []ContextExtractor

	// root is the handler before the first WithGroup; scoped replays the
	// group and attribute calls made since then.
	root   slog.Handler
	scoped []func(slog.Handler) slog.Handler
}

func newContextHandler(next slog.Handler, extractors []ContextExtractor) slog.Handler {
	return &contextHandler{next: next, extractors: extractors}
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, rec slog.Record) error {
	attrs := slices.Clip(AttrsFromContext(ctx))
	for _, ex := range h.extractors {
		if attr, ok := ex(ctx); ok {
			attrs = append(attrs, attr)
		}
	}
	if len(attrs) == 0 {
		return h.next.Handle(ctx, rec)
	}
	if h.root == nil {
		rec.AddAttrs(attrs...)
		return h.next.Handle(ctx, rec)
	}

	next := h.root.WithAttrs(attrs)
	for _, apply := range h.scoped {
		next = apply(next)
	}
	return next.Handle(ctx, rec)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	return h.derive(func(next slog.Handler) slog.Handler { return next.WithAttrs(attrs) }, false)
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return h.derive(func(next slog.Handler) slog.Handler { return next.WithGroup(name) }, true)
}

func (h *contextHandler) derive(apply func(slog.Handler) slog.Handler, group bool) *contextHandler {
	out := &contextHandler{next: apply(h.next), extractors: h.extractors, root: h.root}
	switch {
	case h.root != nil:
		out.scoped = append(append(make([]func(slog.Handler) slog.Handler, 0, len(h.scoped)+1), h.scoped...), apply)
	case group:
		out.root = h.next
		out.scoped = []func(slog.Handler) slog.Handler{apply}
	}
	return out
}
